// Package graph provides segment sequences of a variation graph keyed by
// node id.
package graph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/graphvcf/internal/fileio"
)

// Segments holds segment sequences in memory.
type Segments struct {
	sequences map[uint64]string
	skipped   int
}

// LoadFASTA reads segment sequences from a FASTA file whose record names
// are node ids. Gzip input is detected automatically.
func LoadFASTA(path string) (*Segments, error) {
	rc, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load segments: %w", err)
	}
	defer rc.Close()

	s := &Segments{sequences: make(map[uint64]string)}
	s.skipped, err = ScanFASTA(rc, func(node uint64, seq string) error {
		s.sequences[node] = seq
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load segments %s: %w", path, err)
	}
	return s, nil
}

// ScanFASTA calls fn for every record of a segment FASTA stream. Records
// whose name is not a node id are skipped and counted.
func ScanFASTA(r io.Reader, fn func(node uint64, seq string) error) (skipped int, err error) {
	scanner := bufio.NewScanner(r)
	// Segments can be long
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 256*1024*1024)

	var (
		node    uint64
		valid   bool
		started bool
		seq     strings.Builder
	)
	flush := func() error {
		if !started {
			return nil
		}
		if !valid {
			skipped++
			return nil
		}
		return fn(node, seq.String())
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ">") {
			if err := flush(); err != nil {
				return skipped, err
			}
			node, valid = parseRecordName(line)
			started = true
			seq.Reset()
			continue
		}
		seq.WriteString(strings.TrimSpace(line))
	}
	if err := scanner.Err(); err != nil {
		return skipped, fmt.Errorf("scan FASTA: %w", err)
	}
	return skipped, flush()
}

// parseRecordName extracts the node id from a record header such as
// ">12 LN:i:40".
func parseRecordName(header string) (uint64, bool) {
	name := strings.TrimPrefix(header, ">")
	if idx := strings.IndexAny(name, " \t"); idx != -1 {
		name = name[:idx]
	}
	id, err := strconv.ParseUint(name, 10, 64)
	return id, err == nil
}

// Sequence returns the sequence of a node.
func (s *Segments) Sequence(node uint64) (string, bool) {
	seq, ok := s.sequences[node]
	return seq, ok
}

// Len returns the number of loaded segments.
func (s *Segments) Len() int {
	return len(s.sequences)
}

// Skipped returns the number of records whose name was not a node id.
func (s *Segments) Skipped() int {
	return s.skipped
}
