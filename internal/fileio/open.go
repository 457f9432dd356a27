// Package fileio opens plain or gzip-compressed inputs and publishes outputs
// atomically.
package fileio

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// StdStream is the path that selects stdin or stdout.
const StdStream = "-"

// readCloser closes every layer of a wrapped stream.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var err error
	for _, c := range r.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Open opens path for reading. Gzip input is detected from its magic bytes,
// not its extension. "-" reads stdin.
func Open(path string) (io.ReadCloser, error) {
	if path == StdStream {
		return Wrap(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	rc, err := wrap(file, file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return rc, nil
}

// Wrap returns r decompressed if it starts with the gzip magic number.
// Closing the result does not close r.
func Wrap(r io.Reader) (io.ReadCloser, error) {
	return wrap(r, nil)
}

func wrap(r io.Reader, underlying io.Closer) (io.ReadCloser, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	var closers []io.Closer
	var src io.Reader = br

	// Check for gzip magic number (0x1f, 0x8b)
	magic, _ := br.Peek(2)
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		src = gz
		closers = append(closers, gz)
	}
	if underlying != nil {
		closers = append(closers, underlying)
	}
	return &readCloser{Reader: src, closers: closers}, nil
}
