package mapping

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/graphvcf/internal/fileio"
)

// AlignmentRecord places a node on a linear path.
type AlignmentRecord struct {
	Path     string
	Distance int64
	Position int64
}

// Alignment maps nodes to their aligned path coordinates. It is read-only
// once built.
type Alignment struct {
	records map[uint64]AlignmentRecord

	Stats LoadStats
}

// Column name aliases, matched after lowercasing.
var (
	nodeAliases     = []string{"node", "id", "segment", "seg"}
	pathAliases     = []string{"path", "chrom", "name"}
	distanceAliases = []string{"distance", "dist", "offset"}
	positionAliases = []string{"position", "pos"}
)

// columns holds the index of each role within a row.
type columns struct {
	node, path, distance, position int
}

func (c columns) width() int {
	return max(c.node, c.path, c.distance, c.position) + 1
}

// defaultColumns returns the positional layout for a row of n columns.
func defaultColumns(n int) columns {
	return columns{node: 0, distance: 1, position: 2, path: min(4, n-1)}
}

// isAlignmentHeader reports whether the first token of a row names a column.
func isAlignmentHeader(fields []string) bool {
	first := strings.ToLower(fields[0])
	return strings.Contains(first, "node") || strings.Contains(first, "id")
}

// headerColumns maps header names onto roles, falling back to the
// positional default for roles the header does not name.
func headerColumns(fields []string) columns {
	cols := defaultColumns(len(fields))
	find := func(aliases []string, fallback int) int {
		for i, f := range fields {
			name := strings.ToLower(strings.TrimSpace(f))
			for _, a := range aliases {
				if name == a {
					return i
				}
			}
		}
		return fallback
	}
	return columns{
		node:     find(nodeAliases, cols.node),
		path:     find(pathAliases, cols.path),
		distance: find(distanceAliases, cols.distance),
		position: find(positionAliases, cols.position),
	}
}

// LoadAlignment reads an alignment table from path.
func LoadAlignment(path string) (*Alignment, error) {
	rc, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load alignment table: %w", err)
	}
	defer rc.Close()

	aln, err := ParseAlignment(rc)
	if err != nil {
		return nil, fmt.Errorf("load alignment table %s: %w", path, err)
	}
	return aln, nil
}

// ParseAlignment parses a tab-separated alignment table. The column layout
// is taken from a header row when the first non-empty row has one, and from
// the positional default for each row's width otherwise.
func ParseAlignment(r io.Reader) (*Alignment, error) {
	aln := &Alignment{records: make(map[uint64]AlignmentRecord)}
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)

	var (
		cols      columns
		hasHeader bool
		first     = true
	)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if first {
			first = false
			if isAlignmentHeader(fields) {
				cols = headerColumns(fields)
				hasHeader = true
				continue
			}
		}
		if !hasHeader {
			// The path column of a headerless row depends on its width.
			cols = defaultColumns(len(fields))
		}

		aln.Stats.Rows++
		node, rec, ok := parseAlignmentRow(fields, cols)
		if !ok {
			aln.Stats.Skipped++
			continue
		}
		aln.records[node] = rec
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan alignment table: %w", err)
	}
	return aln, nil
}

func parseAlignmentRow(fields []string, cols columns) (uint64, AlignmentRecord, bool) {
	if len(fields) < cols.width() || cols.width() < 4 {
		return 0, AlignmentRecord{}, false
	}
	node, err := strconv.ParseUint(strings.TrimSpace(fields[cols.node]), 10, 64)
	if err != nil || fields[cols.path] == "" {
		return 0, AlignmentRecord{}, false
	}
	dist, err := strconv.ParseInt(strings.TrimSpace(fields[cols.distance]), 10, 64)
	if err != nil {
		return 0, AlignmentRecord{}, false
	}
	pos, err := strconv.ParseInt(strings.TrimSpace(fields[cols.position]), 10, 64)
	if err != nil {
		return 0, AlignmentRecord{}, false
	}
	return node, AlignmentRecord{
		Path:     fields[cols.path],
		Distance: dist,
		Position: pos,
	}, true
}

// Lookup returns the alignment record of a node.
func (a *Alignment) Lookup(node uint64) (AlignmentRecord, bool) {
	rec, ok := a.records[node]
	return rec, ok
}

// Path returns the aligned path of a node.
func (a *Alignment) Path(node uint64) (string, bool) {
	rec, ok := a.records[node]
	return rec.Path, ok
}

// Nodes returns the number of distinct nodes.
func (a *Alignment) Nodes() int {
	return len(a.records)
}
