package fileio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// AtomicFile is an output that only appears under its final name once
// Commit succeeds. Until then data goes to a temporary file in the same
// directory. Names ending in ".gz" are gzip-compressed.
//
// The "-" path writes straight to stdout; Commit flushes and Abort is a no-op.
type AtomicFile struct {
	path string
	tmp  *os.File
	gz   *gzip.Writer
	buf  *bufio.Writer
	done bool
}

// CreateAtomic opens a temporary file next to path.
func CreateAtomic(path string) (*AtomicFile, error) {
	if path == StdStream {
		return &AtomicFile{path: path, buf: bufio.NewWriterSize(os.Stdout, 1<<20)}, nil
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create output %s: %w", path, err)
	}

	a := &AtomicFile{path: path, tmp: tmp}
	var w io.Writer = tmp
	if strings.HasSuffix(path, ".gz") {
		a.gz = gzip.NewWriter(tmp)
		w = a.gz
	}
	a.buf = bufio.NewWriterSize(w, 1<<20)
	return a, nil
}

// Path returns the final output path.
func (a *AtomicFile) Path() string {
	return a.path
}

// Write implements io.Writer.
func (a *AtomicFile) Write(p []byte) (int, error) {
	if a.done {
		return 0, fmt.Errorf("write %s: output already finalized", a.path)
	}
	return a.buf.Write(p)
}

// Commit flushes all data and renames the temporary file to its final name.
func (a *AtomicFile) Commit() error {
	if a.done {
		return fmt.Errorf("commit %s: output already finalized", a.path)
	}
	a.done = true

	if err := a.buf.Flush(); err != nil {
		a.discard()
		return fmt.Errorf("write %s: %w", a.path, err)
	}
	if a.tmp == nil {
		return nil
	}
	if a.gz != nil {
		if err := a.gz.Close(); err != nil {
			a.discard()
			return fmt.Errorf("write %s: %w", a.path, err)
		}
	}
	if err := a.tmp.Close(); err != nil {
		os.Remove(a.tmp.Name())
		return fmt.Errorf("close %s: %w", a.path, err)
	}
	if err := os.Rename(a.tmp.Name(), a.path); err != nil {
		os.Remove(a.tmp.Name())
		return fmt.Errorf("rename output to %s: %w", a.path, err)
	}
	return nil
}

// Abort discards the temporary file. It is safe to call after Commit.
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	a.discard()
}

func (a *AtomicFile) discard() {
	if a.tmp == nil {
		return
	}
	a.tmp.Close()
	os.Remove(a.tmp.Name())
}
