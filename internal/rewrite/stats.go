package rewrite

import (
	"maps"
	"slices"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"go.uber.org/zap"

	"github.com/inodb/graphvcf/internal/resolve"
)

// Stats counts what happened to the data lines of one rewrite.
type Stats struct {
	Total    int64
	Replaced int64
	Unmapped int64
	Skipped  int64

	SkippedKeyword    int64
	SkippedNormalizer int64
	SkippedMalformed  int64

	MissingSequence int64
	MissingStart    int64

	// Per-field counts of the source that served a replacement.
	PathFrom     map[string]int64
	SequenceFrom map[string]int64
	PositionFrom map[string]int64

	// UnmappedNodes holds the distinct node ids that had no path.
	UnmappedNodes *roaring64.Bitmap
}

// NewStats returns zeroed counters.
func NewStats() *Stats {
	return &Stats{
		PathFrom:      make(map[string]int64),
		SequenceFrom:  make(map[string]int64),
		PositionFrom:  make(map[string]int64),
		UnmappedNodes: roaring64.New(),
	}
}

// Record counts one resolved data line.
func (s *Stats) Record(o resolve.Outcome) {
	s.Total++
	switch o.Action {
	case resolve.Skipped:
		s.Skipped++
		switch o.Reason {
		case resolve.SkipKeyword:
			s.SkippedKeyword++
		case resolve.SkipNormalizer:
			s.SkippedNormalizer++
		case resolve.SkipMalformed:
			s.SkippedMalformed++
		}
	case resolve.Unmapped:
		s.Unmapped++
		if o.HasNode {
			s.UnmappedNodes.Add(o.Node)
		}
	case resolve.Replaced:
		s.Replaced++
		s.PathFrom[o.PathSource]++
		if o.SequenceSource != "" {
			s.SequenceFrom[o.SequenceSource]++
		}
		if o.PositionSource != "" {
			s.PositionFrom[o.PositionSource]++
		}
		if o.MissingSequence() {
			s.MissingSequence++
		}
		if o.MissingStart() {
			s.MissingStart++
		}
	}
}

// Merge adds the counters of other to s.
func (s *Stats) Merge(other *Stats) {
	s.Total += other.Total
	s.Replaced += other.Replaced
	s.Unmapped += other.Unmapped
	s.Skipped += other.Skipped
	s.SkippedKeyword += other.SkippedKeyword
	s.SkippedNormalizer += other.SkippedNormalizer
	s.SkippedMalformed += other.SkippedMalformed
	s.MissingSequence += other.MissingSequence
	s.MissingStart += other.MissingStart
	for k, v := range other.PathFrom {
		s.PathFrom[k] += v
	}
	for k, v := range other.SequenceFrom {
		s.SequenceFrom[k] += v
	}
	for k, v := range other.PositionFrom {
		s.PositionFrom[k] += v
	}
	s.UnmappedNodes.Or(other.UnmappedNodes)
}

// Reconciled reports whether every data line was counted exactly once.
func (s *Stats) Reconciled() bool {
	return s.Total == s.Replaced+s.Unmapped+s.Skipped
}

// LogFields returns the counters as structured log fields.
func (s *Stats) LogFields() []zap.Field {
	fields := []zap.Field{
		zap.Int64("total", s.Total),
		zap.Int64("replaced", s.Replaced),
		zap.Int64("unmapped", s.Unmapped),
		zap.Int64("skipped", s.Skipped),
		zap.Int64("skipped_keyword", s.SkippedKeyword),
		zap.Int64("skipped_normalizer", s.SkippedNormalizer),
		zap.Int64("skipped_malformed", s.SkippedMalformed),
		zap.Int64("missing_sequence", s.MissingSequence),
		zap.Int64("missing_start", s.MissingStart),
		zap.Uint64("unmapped_nodes", s.UnmappedNodes.GetCardinality()),
	}
	for _, src := range slices.Sorted(maps.Keys(s.PathFrom)) {
		fields = append(fields, zap.Int64("path_from_"+src, s.PathFrom[src]))
	}
	for _, src := range slices.Sorted(maps.Keys(s.SequenceFrom)) {
		fields = append(fields, zap.Int64("ref_from_"+src, s.SequenceFrom[src]))
	}
	for _, src := range slices.Sorted(maps.Keys(s.PositionFrom)) {
		fields = append(fields, zap.Int64("pos_from_"+src, s.PositionFrom[src]))
	}
	return fields
}
