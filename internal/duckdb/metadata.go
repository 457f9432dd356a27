package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// SetSource records the file the stored segments were imported from.
func (s *Store) SetSource(fp FileFingerprint) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM segment_source"); err != nil {
		return fmt.Errorf("clear segment source: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO segment_source VALUES (?, ?, ?)",
		fp.Path, fp.Size, fp.ModTime.UnixNano()); err != nil {
		return fmt.Errorf("write segment source: %w", err)
	}
	return tx.Commit()
}

// Source returns the recorded import source, if any.
func (s *Store) Source() (FileFingerprint, bool, error) {
	var (
		fp    FileFingerprint
		nanos int64
	)
	err := s.db.QueryRow("SELECT path, size, mod_time FROM segment_source LIMIT 1").
		Scan(&fp.Path, &fp.Size, &nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return FileFingerprint{}, false, nil
	}
	if err != nil {
		return FileFingerprint{}, false, fmt.Errorf("read segment source: %w", err)
	}
	fp.ModTime = time.Unix(0, nanos)
	return fp, true, nil
}

// IsFresh reports whether the stored segments were imported from a file
// with the same path, size and modification time as fp.
func (s *Store) IsFresh(fp FileFingerprint) bool {
	src, ok, err := s.Source()
	if err != nil || !ok {
		return false
	}
	return src.Path == fp.Path && src.Size == fp.Size && src.ModTime.Equal(fp.ModTime)
}
