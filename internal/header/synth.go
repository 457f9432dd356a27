package header

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/inodb/graphvcf/internal/chrom"
	"github.com/inodb/graphvcf/internal/mapping"
	"github.com/inodb/graphvcf/internal/vcf"
)

// Source is the value of the ##source line written into synthesized headers.
const Source = "graphvcf"

const (
	defaultFileFormat = "##fileformat=VCFv4.2"
	sourceLine        = "##source=" + Source
)

// ContigLines returns one ##contig line per normalized path name of ref,
// sorted by ID. Paths that normalize to the same ID keep the longest
// length; paths the normalizer rejects are left out.
func ContigLines(ref *mapping.Reference, level chrom.Level) []string {
	lengths := make(map[string]uint64)
	for _, path := range ref.Paths() {
		id, ok := chrom.Normalize(path, level)
		if !ok {
			continue
		}
		lengths[id] = max(lengths[id], ref.Length(path))
	}

	lines := make([]string, 0, len(lengths))
	for _, id := range slices.Sorted(maps.Keys(lengths)) {
		if n := lengths[id]; n > 0 {
			lines = append(lines, fmt.Sprintf("##contig=<ID=%s,length=%d>", id, n))
		} else {
			lines = append(lines, fmt.Sprintf("##contig=<ID=%s>", id))
		}
	}
	return lines
}

func isContig(line string) bool {
	return strings.HasPrefix(line, "##contig=")
}

// Synthesize builds a header from the existing header section, the body
// summary and, if non-nil, the contig lines derived from a reference. When
// contigs is nil the existing ##contig lines are kept. Contig lines always
// follow ##fileformat and ##source.
func Synthesize(h vcf.Header, sum *Summary, contigs []string) []string {
	var out []string

	fileFormat := h.FileFormat()
	if fileFormat == "" {
		fileFormat = defaultFileFormat
	}
	out = append(out, fileFormat, sourceLine)
	if contigs == nil {
		for _, line := range h.Meta {
			if isContig(line) {
				contigs = append(contigs, line)
			}
		}
	}
	out = append(out, contigs...)

	for _, line := range h.Meta {
		if line == fileFormat || line == sourceLine || isContig(line) {
			continue
		}
		out = append(out, line)
	}

	existingInfo := h.IDs("INFO")
	for _, id := range slices.Sorted(maps.Keys(sum.Info)) {
		if !existingInfo[id] {
			out = append(out, sum.Info[id].Definition(id))
		}
	}
	existingFormat := h.IDs("FORMAT")
	for _, id := range slices.Sorted(maps.Keys(sum.Format)) {
		if !existingFormat[id] {
			out = append(out, sum.Format[id].Definition(id))
		}
	}

	if h.Columns != "" {
		out = append(out, h.Columns)
	} else {
		out = append(out, vcf.DefaultColumnHeader)
	}
	return out
}
