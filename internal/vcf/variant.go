package vcf

import "strings"

// Fixed column indices of a VCF data line.
const (
	ColChrom = iota
	ColPos
	ColID
	ColRef
	ColAlt
	ColQual
	ColFilter
	ColInfo
	ColFormat
	ColFirstSample
)

// Missing is the VCF placeholder for an absent value.
const Missing = "."

// Fields splits a data line into its tab-separated columns.
func Fields(line string) []string {
	return strings.Split(line, "\t")
}

// IsComment reports whether line belongs to the header section.
func IsComment(line string) bool {
	return strings.HasPrefix(line, "#")
}

// AltCount returns the number of non-empty comma-separated entries of an
// ALT column. A missing ALT (".") counts as one entry.
func AltCount(alt string) int {
	n := 0
	for _, a := range strings.Split(alt, ",") {
		if a != "" {
			n++
		}
	}
	return n
}

// FormatIndex returns the position of key within a colon-separated FORMAT
// column, or -1.
func FormatIndex(format, key string) int {
	for i, k := range strings.Split(format, ":") {
		if k == key {
			return i
		}
	}
	return -1
}

// ContigID extracts the ID of a ##contig line, or "" for other lines.
func ContigID(line string) string {
	if kind, id, ok := MetaID(line); ok && kind == "contig" {
		return id
	}
	return ""
}
