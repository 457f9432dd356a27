// Package resolve decides the linear coordinates of a graph variant record.
package resolve

import (
	"strconv"
	"strings"

	"github.com/inodb/graphvcf/internal/chrom"
	"github.com/inodb/graphvcf/internal/mapping"
	"github.com/inodb/graphvcf/internal/vcf"
)

// LinearSentinel is the largest alignment distance that still means a
// relative offset. Larger distances mark positions that are already linear.
const LinearSentinel int64 = 1_000_000_000

// Names of the lookup sources recorded in an Outcome.
const (
	SourceAlignment = "alignment"
	SourceReference = "reference"
	SourceGraph     = "graph"
)

// SequenceSource serves segment sequences by node id.
type SequenceSource interface {
	Sequence(node uint64) (string, bool)
}

// Config controls how records are resolved.
type Config struct {
	Level chrom.Level
	// Skip drops records whose raw CHROM contains any of these substrings.
	Skip []string
	// Graph, if set, is consulted for REF before the reference table.
	Graph SequenceSource
}

// Action is what happened to a record.
type Action int

const (
	Replaced Action = iota
	Unmapped
	Skipped
)

func (a Action) String() string {
	switch a {
	case Replaced:
		return "replaced"
	case Unmapped:
		return "unmapped"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// SkipReason says why a record was dropped.
type SkipReason int

const (
	NotSkipped SkipReason = iota
	SkipKeyword
	SkipNormalizer
	SkipMalformed
)

// Outcome describes the resolution of one record.
type Outcome struct {
	Action Action
	Reason SkipReason
	// Fields holds the rewritten record; nil when skipped.
	Fields []string

	Node    uint64
	HasNode bool

	PathSource     string
	SequenceSource string
	PositionSource string
}

// MissingSequence reports whether a mapped record kept its REF because no
// sequence was known.
func (o Outcome) MissingSequence() bool {
	return o.Action == Replaced && o.SequenceSource == "" && len(o.Fields) > vcf.ColRef
}

// MissingStart reports whether a mapped record kept its POS because no
// coordinate was known.
func (o Outcome) MissingStart() bool {
	return o.Action == Replaced && o.PositionSource == ""
}

// Resolver maps graph records onto linear paths. It is safe for concurrent
// use once built.
type Resolver struct {
	level     chrom.Level
	skip      []string
	paths     Chain[string]
	sequences Chain[string]
	positions Chain[int64]
}

// New builds a resolver over the given mapping stores.
func New(mc *mapping.Context, cfg Config) *Resolver {
	ref, aln := mc.Reference, mc.Alignment

	r := &Resolver{level: cfg.Level}
	for _, k := range cfg.Skip {
		if k != "" {
			r.skip = append(r.skip, k)
		}
	}

	r.paths = Chain[string]{
		{Name: SourceAlignment, Find: aln.Path},
		{Name: SourceReference, Find: ref.Path},
	}

	if cfg.Graph != nil {
		r.sequences = append(r.sequences, Lookup[string]{Name: SourceGraph, Find: cfg.Graph.Sequence})
	}
	r.sequences = append(r.sequences, Lookup[string]{Name: SourceReference, Find: ref.Sequence})

	r.positions = Chain[int64]{
		{Name: SourceAlignment, Find: func(node uint64) (int64, bool) {
			rec, ok := aln.Lookup(node)
			if !ok {
				return 0, false
			}
			return LinearPosition(rec.Distance, rec.Position), true
		}},
		{Name: SourceReference, Find: func(node uint64) (int64, bool) {
			start, ok := ref.Start(node)
			return int64(start), ok
		}},
	}
	return r
}

// LinearPosition converts an alignment distance and position into a linear
// coordinate.
func LinearPosition(distance, position int64) int64 {
	if distance > LinearSentinel {
		return position
	}
	return position + max(distance+1, 0)
}

// Resolve rewrites the CHROM, POS, ID and REF columns of a record in place.
func (r *Resolver) Resolve(fields []string) Outcome {
	if len(fields) < 2 {
		return Outcome{Action: Skipped, Reason: SkipMalformed}
	}

	raw := fields[vcf.ColChrom]
	for _, k := range r.skip {
		if strings.Contains(raw, k) {
			return Outcome{Action: Skipped, Reason: SkipKeyword}
		}
	}

	var out Outcome
	out.Node, out.HasNode = NodeID(raw, fields[vcf.ColPos])

	var path string
	if out.HasNode {
		path, out.PathSource, _ = r.paths.Resolve(out.Node)
	}
	if out.PathSource == "" {
		name, ok := chrom.Normalize(raw, r.level)
		if !ok {
			return Outcome{Action: Skipped, Reason: SkipNormalizer, Node: out.Node, HasNode: out.HasNode}
		}
		fields[vcf.ColChrom] = name
		out.Action = Unmapped
		out.Fields = fields
		return out
	}

	name, ok := chrom.Normalize(path, r.level)
	if !ok {
		return Outcome{Action: Skipped, Reason: SkipNormalizer, Node: out.Node, HasNode: out.HasNode, PathSource: out.PathSource}
	}
	fields[vcf.ColChrom] = name

	origPos := fields[vcf.ColPos]
	if len(fields) > vcf.ColID {
		fields[vcf.ColID] = origPos
	}
	if len(fields) > vcf.ColRef {
		if seq, src, ok := r.sequences.Resolve(out.Node); ok {
			fields[vcf.ColRef] = seq
			out.SequenceSource = src
		}
	}
	if pos, src, ok := r.positions.Resolve(out.Node); ok {
		fields[vcf.ColPos] = strconv.FormatInt(pos, 10)
		out.PositionSource = src
	}

	out.Action = Replaced
	out.Fields = fields
	return out
}

// NodeID derives the node id of a record: CHROM as an integer, else the last
// run of digits in CHROM, else POS as an integer.
func NodeID(chromField, posField string) (uint64, bool) {
	if id, err := strconv.ParseUint(chromField, 10, 64); err == nil {
		return id, true
	}
	if run := lastDigitRun(chromField); run != "" {
		if id, err := strconv.ParseUint(run, 10, 64); err == nil {
			return id, true
		}
	}
	if id, err := strconv.ParseUint(posField, 10, 64); err == nil {
		return id, true
	}
	return 0, false
}

func lastDigitRun(s string) string {
	end := -1
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		isDigit := c >= '0' && c <= '9'
		if end == -1 {
			if isDigit {
				end = i + 1
			}
			continue
		}
		if !isDigit {
			return s[i+1 : end]
		}
	}
	if end == -1 {
		return ""
	}
	return s[:end]
}
