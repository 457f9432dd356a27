// Package header infers INFO, FORMAT and contig declarations from the body
// of a variant file and synthesizes a complete header for it.
package header

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/inodb/graphvcf/internal/vcf"
)

// ValueKind is the inferred type of a value token.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInteger
	KindFloat
)

// Type returns the VCF Type name of the kind.
func (k ValueKind) Type() string {
	switch k {
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	default:
		return "String"
	}
}

func classify(tok string) ValueKind {
	if tok == "" {
		return KindString
	}
	if _, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return KindInteger
	}
	if _, err := strconv.ParseFloat(tok, 64); err == nil {
		return KindFloat
	}
	return KindString
}

// FieldStats accumulates what has been observed about one INFO key. The zero
// value is not the identity; use NewFieldStats.
type FieldStats struct {
	SeenAsFlag        bool
	AllInteger        bool
	AnyFloat          bool
	AllSingleton      bool
	AltMatches        int64 // appearances whose value count equals the ALT count
	AltPlusOneMatches int64 // appearances whose value count equals the ALT count plus one
	Samples           int64 // appearances
}

// NewFieldStats returns the identity element of Merge.
func NewFieldStats() FieldStats {
	return FieldStats{AllInteger: true, AllSingleton: true}
}

// Merge combines two sets of observations. It is associative and
// commutative.
func (s FieldStats) Merge(o FieldStats) FieldStats {
	return FieldStats{
		SeenAsFlag:        s.SeenAsFlag || o.SeenAsFlag,
		AllInteger:        s.AllInteger && o.AllInteger,
		AnyFloat:          s.AnyFloat || o.AnyFloat,
		AllSingleton:      s.AllSingleton && o.AllSingleton,
		AltMatches:        s.AltMatches + o.AltMatches,
		AltPlusOneMatches: s.AltPlusOneMatches + o.AltPlusOneMatches,
		Samples:           s.Samples + o.Samples,
	}
}

// Type returns the inferred VCF Type.
func (s FieldStats) Type() string {
	switch {
	case s.SeenAsFlag:
		return "Flag"
	case s.AllInteger && !s.AnyFloat:
		return "Integer"
	case s.AnyFloat:
		return "Float"
	default:
		return "String"
	}
}

// Number returns the inferred VCF Number.
func (s FieldStats) Number() string {
	switch {
	case s.SeenAsFlag:
		return "0"
	case s.Samples > 0 && s.AltMatches*2 >= s.Samples:
		return "A"
	case s.Samples > 0 && s.AltPlusOneMatches*2 >= s.Samples:
		return "R"
	case s.AllSingleton:
		return "1"
	default:
		return "."
	}
}

// Definition renders the ##INFO line for id.
func (s FieldStats) Definition(id string) string {
	desc := "Inferred from body"
	if s.Samples == 0 {
		desc = ""
	}
	return fmt.Sprintf("##INFO=<ID=%s,Number=%s,Type=%s,Description=\"%s\">", id, s.Number(), s.Type(), desc)
}

// FormatObservation is the first sample value seen for a FORMAT key.
type FormatObservation struct {
	Kind        ValueKind
	Cardinality int
	Line        int64 // body line index of the observation
}

// Earlier returns whichever observation was made first.
func (f FormatObservation) Earlier(o FormatObservation) FormatObservation {
	if o.Line < f.Line {
		return o
	}
	return f
}

// Number returns the inferred VCF Number.
func (f FormatObservation) Number() string {
	switch f.Cardinality {
	case 0:
		return "0"
	case 1:
		return "1"
	default:
		return "."
	}
}

// Definition renders the ##FORMAT line for id.
func (f FormatObservation) Definition(id string) string {
	return fmt.Sprintf("##FORMAT=<ID=%s,Number=%s,Type=%s,Description=\"Inferred from FORMAT column\">",
		id, f.Number(), f.Kind.Type())
}

// Summary holds the statistics of a set of body lines.
type Summary struct {
	Info   map[string]FieldStats
	Format map[string]FormatObservation
	// FirstData is the index of the first data line, or -1.
	FirstData int64
}

// NewSummary returns an empty summary.
func NewSummary() *Summary {
	return &Summary{
		Info:      make(map[string]FieldStats),
		Format:    make(map[string]FormatObservation),
		FirstData: -1,
	}
}

// Observe adds one body line, identified by its index within the body.
func (s *Summary) Observe(line string, index int64) {
	if line == "" || vcf.IsComment(line) {
		return
	}
	if s.FirstData < 0 || index < s.FirstData {
		s.FirstData = index
	}

	fields := vcf.Fields(line)
	if len(fields) <= vcf.ColInfo {
		return
	}
	s.observeInfo(fields[vcf.ColInfo], vcf.AltCount(fields[vcf.ColAlt]))
	if len(fields) > vcf.ColFirstSample {
		s.observeFormat(fields[vcf.ColFormat], fields[vcf.ColFirstSample], index)
	}
}

func (s *Summary) observeInfo(info string, altCount int) {
	if info == vcf.Missing {
		return
	}
	for _, item := range strings.Split(info, ";") {
		if item == "" {
			continue
		}
		key, value, hasValue := strings.Cut(item, "=")
		fs, ok := s.Info[key]
		if !ok {
			fs = NewFieldStats()
		}
		fs.Samples++

		switch {
		case !hasValue:
			fs.SeenAsFlag = true
		case value != "":
			values := strings.Split(value, ",")
			fs.AllSingleton = fs.AllSingleton && len(values) == 1
			if len(values) == altCount {
				fs.AltMatches++
			}
			if len(values) == altCount+1 {
				fs.AltPlusOneMatches++
			}
			for _, v := range values {
				switch classify(v) {
				case KindFloat:
					fs.AnyFloat = true
					fs.AllInteger = false
				case KindString:
					fs.AllInteger = false
				}
			}
		}
		s.Info[key] = fs
	}
}

func (s *Summary) observeFormat(format, sample string, index int64) {
	values := strings.Split(sample, ":")
	for i, key := range strings.Split(format, ":") {
		if key == "" {
			continue
		}
		if prev, ok := s.Format[key]; ok && prev.Line <= index {
			continue
		}
		var tok string
		if i < len(values) {
			tok = values[i]
		}

		card := 0
		first := ""
		for _, v := range strings.Split(tok, ",") {
			if v == "" {
				continue
			}
			if card == 0 {
				first = v
			}
			card++
		}
		kind := KindString
		if card > 0 {
			kind = classify(first)
		}
		s.Format[key] = FormatObservation{Kind: kind, Cardinality: card, Line: index}
	}
}

// Merge folds other into s.
func (s *Summary) Merge(other *Summary) {
	for k, v := range other.Info {
		if cur, ok := s.Info[k]; ok {
			s.Info[k] = cur.Merge(v)
		} else {
			s.Info[k] = v
		}
	}
	for k, v := range other.Format {
		if cur, ok := s.Format[k]; ok {
			s.Format[k] = cur.Earlier(v)
		} else {
			s.Format[k] = v
		}
	}
	if other.FirstData >= 0 && (s.FirstData < 0 || other.FirstData < s.FirstData) {
		s.FirstData = other.FirstData
	}
}

// InferLines summarizes body lines in blocks of blockSize and merges the
// block summaries in order.
func InferLines(lines []string, blockSize int) *Summary {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	total := NewSummary()
	for start := 0; start < len(lines); start += blockSize {
		end := min(start+blockSize, len(lines))
		block := NewSummary()
		for i, line := range lines[start:end] {
			block.Observe(line, int64(start+i))
		}
		total.Merge(block)
	}
	return total
}
