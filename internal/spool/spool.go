// Package spool holds a stream of lines in a compressed temporary file so
// it can be replayed after the data in front of it has been computed.
package spool

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrUnknownCodec is returned by ParseCodec for unsupported names.
var ErrUnknownCodec = errors.New("unknown spool codec")

// Codec selects how spooled data is compressed on disk.
type Codec uint8

const (
	// CodecNone stores data uncompressed.
	CodecNone Codec = iota
	// CodecLZ4 trades ratio for speed.
	CodecLZ4
	// CodecZstd compresses text bodies best.
	CodecZstd
)

// String returns the configuration name of the codec.
func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCodec parses a codec name.
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "none", "":
		return CodecNone, nil
	case "lz4":
		return CodecLZ4, nil
	case "zstd":
		return CodecZstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// Spool is a write-once, read-once temporary file.
type Spool struct {
	codec Codec
	file  *os.File
	enc   io.WriteCloser // nil for CodecNone, or once finished
	buf   *bufio.Writer
	size  int64
}

// Create opens a new spool in dir ("" for the system temp dir).
func Create(dir string, codec Codec) (*Spool, error) {
	f, err := os.CreateTemp(dir, "graphvcf-spool-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create spool: %w", err)
	}

	s := &Spool{codec: codec, file: f}
	var w io.Writer = f
	switch codec {
	case CodecNone:
	case CodecLZ4:
		s.enc = lz4.NewWriter(f)
		w = s.enc
	case CodecZstd:
		enc, err := zstd.NewWriter(f)
		if err != nil {
			s.Remove()
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		s.enc = enc
		w = enc
	default:
		s.Remove()
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, codec)
	}
	s.buf = bufio.NewWriterSize(w, 256*1024)
	return s, nil
}

// Write implements io.Writer.
func (s *Spool) Write(p []byte) (int, error) {
	n, err := s.buf.Write(p)
	s.size += int64(n)
	return n, err
}

// WriteString writes a string without copying it to a byte slice.
func (s *Spool) WriteString(str string) (int, error) {
	n, err := s.buf.WriteString(str)
	s.size += int64(n)
	return n, err
}

// Size returns the number of uncompressed bytes written.
func (s *Spool) Size() int64 {
	return s.size
}

// Replay finishes writing and copies the spooled data to w.
func (s *Spool) Replay(w io.Writer) (int64, error) {
	if err := s.buf.Flush(); err != nil {
		return 0, fmt.Errorf("flush spool: %w", err)
	}
	if s.enc != nil {
		err := s.enc.Close()
		s.enc = nil
		if err != nil {
			return 0, fmt.Errorf("finish spool: %w", err)
		}
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewind spool: %w", err)
	}

	var r io.Reader = bufio.NewReaderSize(s.file, 256*1024)
	switch s.codec {
	case CodecLZ4:
		r = lz4.NewReader(r)
	case CodecZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return 0, fmt.Errorf("create zstd decoder: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	n, err := io.Copy(w, r)
	if err != nil {
		return n, fmt.Errorf("replay spool: %w", err)
	}
	return n, nil
}

// Remove closes and deletes the spool file. An encoder left open by an
// abandoned write is released.
func (s *Spool) Remove() {
	if s.enc != nil {
		s.enc.Close()
		s.enc = nil
	}
	s.file.Close()
	os.Remove(s.file.Name())
}
