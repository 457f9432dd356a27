package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"

	goduckdb "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/inodb/graphvcf/internal/graph"
)

// ImportStats summarizes an import.
type ImportStats struct {
	Segments int
	Skipped  int
}

// ImportFASTA replaces the stored segments with the records of a segment
// FASTA stream, using the Appender API, and indexes them by node.
// The recorded source is cleared first, so a failed import never leaves
// the store looking fresh; callers record the new source with SetSource.
func (s *Store) ImportFASTA(ctx context.Context, r io.Reader) (ImportStats, error) {
	var stats ImportStats

	if err := s.clearSegments(ctx); err != nil {
		return stats, err
	}
	s.cache.Purge()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return stats, fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "segments")
		return err
	}); err != nil {
		return stats, fmt.Errorf("create appender: %w", err)
	}

	stats.Skipped, err = graph.ScanFASTA(r, func(node uint64, seq string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := appender.AppendRow(int64(node), seq); err != nil {
			return fmt.Errorf("append segment %d: %w", node, err)
		}
		stats.Segments++
		return nil
	})
	if err != nil {
		appender.Close()
		return stats, err
	}
	if err := appender.Close(); err != nil {
		return stats, fmt.Errorf("flush segments: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS segments_node_idx ON segments (node)"); err != nil {
		return stats, fmt.Errorf("index segments: %w", err)
	}
	return stats, nil
}

func (s *Store) clearSegments(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM segment_source"); err != nil {
		return fmt.Errorf("clear segment source: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM segments"); err != nil {
		return fmt.Errorf("clear segments: %w", err)
	}
	return tx.Commit()
}

// Sequence returns the sequence of a node. A node stored more than once
// resolves to its last row. Query failures are logged and reported as a
// miss.
func (s *Store) Sequence(node uint64) (string, bool) {
	if c, ok := s.cache.Get(node); ok {
		return c.seq, c.ok
	}

	var seq string
	err := s.db.QueryRow(
		"SELECT sequence FROM segments WHERE node = ? ORDER BY rowid DESC LIMIT 1",
		int64(node),
	).Scan(&seq)

	switch {
	case err == nil:
		s.cache.Add(node, cached{seq: seq, ok: true})
		return seq, true
	case errors.Is(err, sql.ErrNoRows):
		s.cache.Add(node, cached{})
		return "", false
	default:
		s.logger.Warn("segment lookup failed", zap.Uint64("node", node), zap.Error(err))
		return "", false
	}
}

// Count returns the number of stored segment rows.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM segments").Scan(&n); err != nil {
		return 0, fmt.Errorf("count segments: %w", err)
	}
	return n, nil
}
