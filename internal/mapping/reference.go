// Package mapping loads the node coordinate tables that tie graph segments to
// linear reference paths.
package mapping

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/graphvcf/internal/fileio"
)

// Segment is one row of the reference extraction table.
type Segment struct {
	Node     uint64
	Start    uint64
	End      uint64
	Sequence string // empty for the narrow table form
	Length   uint64
	Wide     bool // row carried sequence and length columns
}

// LoadStats counts the rows seen while loading a table.
type LoadStats struct {
	Rows    int
	Skipped int
}

// Reference maps graph nodes to the path they lie on, their start offset
// along it and their sequence. It is read-only once built.
type Reference struct {
	paths     map[uint64]string
	starts    map[uint64]uint64
	sequences map[uint64]string
	lengths   map[string]uint64
	segments  map[string][]Segment
	order     []string // paths in first-seen order

	Stats LoadStats
}

func newReference() *Reference {
	return &Reference{
		paths:     make(map[uint64]string),
		starts:    make(map[uint64]uint64),
		sequences: make(map[uint64]string),
		lengths:   make(map[string]uint64),
		segments:  make(map[string][]Segment),
	}
}

// LoadReference reads a reference extraction table from path.
func LoadReference(path string) (*Reference, error) {
	rc, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load reference table: %w", err)
	}
	defer rc.Close()

	ref, err := ParseReference(rc)
	if err != nil {
		return nil, fmt.Errorf("load reference table %s: %w", path, err)
	}
	return ref, nil
}

// ParseReference parses a tab-separated extraction table. Rows have either
// four columns (node, start, end, path) or six (node, start, end, sequence,
// length, path); the path is always the last column. A first row whose first
// column is "node" is treated as a header.
func ParseReference(r io.Reader) (*Reference, error) {
	ref := newReference()
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 64*1024*1024)

	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if first {
			first = false
			if fields[0] == "node" {
				continue
			}
		}

		ref.Stats.Rows++
		seg, path, ok := parseSegment(fields)
		if !ok {
			ref.Stats.Skipped++
			continue
		}
		ref.add(seg, path)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan reference table: %w", err)
	}
	return ref, nil
}

func parseSegment(fields []string) (Segment, string, bool) {
	if len(fields) < 4 {
		return Segment{}, "", false
	}
	node, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return Segment{}, "", false
	}
	start, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return Segment{}, "", false
	}
	path := fields[len(fields)-1]
	if path == "" {
		return Segment{}, "", false
	}

	seg := Segment{Node: node, Start: start}
	seg.End, _ = strconv.ParseUint(fields[2], 10, 64)
	if len(fields) >= 6 {
		seg.Wide = true
		seg.Sequence = fields[3]
		seg.Length, _ = strconv.ParseUint(fields[4], 10, 64)
	}
	return seg, path, true
}

func (ref *Reference) add(seg Segment, path string) {
	ref.paths[seg.Node] = path
	ref.starts[seg.Node] = seg.Start
	if seg.Wide {
		ref.sequences[seg.Node] = seg.Sequence
	}

	if _, seen := ref.segments[path]; !seen {
		ref.order = append(ref.order, path)
	}
	ref.segments[path] = append(ref.segments[path], seg)
	if seg.End > ref.lengths[path] {
		ref.lengths[path] = seg.End
	}
}

// Path returns the path a node lies on.
func (ref *Reference) Path(node uint64) (string, bool) {
	p, ok := ref.paths[node]
	return p, ok
}

// Start returns the start offset of a node along its path.
func (ref *Reference) Start(node uint64) (uint64, bool) {
	s, ok := ref.starts[node]
	return s, ok
}

// Sequence returns the segment sequence recorded for a node. Only rows in
// the six-column form carry one.
func (ref *Reference) Sequence(node uint64) (string, bool) {
	s, ok := ref.sequences[node]
	return s, ok
}

// Nodes returns the number of distinct nodes.
func (ref *Reference) Nodes() int {
	return len(ref.paths)
}

// Paths returns every path name in the order it first appeared.
func (ref *Reference) Paths() []string {
	return append([]string(nil), ref.order...)
}

// Length returns the largest end coordinate seen on path.
func (ref *Reference) Length(path string) uint64 {
	return ref.lengths[path]
}

// Segments returns the rows recorded for path, in input order.
func (ref *Reference) Segments(path string) []Segment {
	return ref.segments[path]
}
