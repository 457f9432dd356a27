package resolve

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/graphvcf/internal/chrom"
	"github.com/inodb/graphvcf/internal/mapping"
)

func newContext(t *testing.T, refTable, alnTable string) *mapping.Context {
	t.Helper()
	var (
		ref *mapping.Reference
		aln *mapping.Alignment
		err error
	)
	if refTable != "" {
		ref, err = mapping.ParseReference(strings.NewReader(refTable))
		require.NoError(t, err)
	}
	if alnTable != "" {
		aln, err = mapping.ParseAlignment(strings.NewReader(alnTable))
		require.NoError(t, err)
	}
	return mapping.NewContext(ref, aln)
}

func fields(line string) []string {
	return strings.Split(line, "\t")
}

type mapSource map[uint64]string

func (m mapSource) Sequence(node uint64) (string, bool) {
	s, ok := m[node]
	return s, ok
}

func TestResolve_ReferenceOnly(t *testing.T) {
	mc := newContext(t, "10\t0\t5\tACGTG\t5\tsample#0#chr1\n", "")
	r := New(mc, Config{Level: chrom.LevelStandard})

	out := r.Resolve(fields("10\t3\t.\tA\t.\t.\t.\t."))
	require.Equal(t, Replaced, out.Action)
	assert.Equal(t, "chr1\t0\t3\tACGTG\t.\t.\t.\t.", strings.Join(out.Fields, "\t"))
	assert.Equal(t, SourceReference, out.PathSource)
	assert.Equal(t, SourceReference, out.SequenceSource)
	assert.Equal(t, SourceReference, out.PositionSource)
	assert.Equal(t, uint64(10), out.Node)
	assert.False(t, out.MissingSequence())
	assert.False(t, out.MissingStart())
}

func TestResolve_SkipKeyword(t *testing.T) {
	mc := newContext(t, "10\t0\t5\tACGTG\t5\tsample#0#chr1\n", "")
	r := New(mc, Config{Skip: []string{"", "random"}})

	out := r.Resolve(fields("chr1_random\t3\t.\tA\t.\t.\t.\t."))
	assert.Equal(t, Skipped, out.Action)
	assert.Equal(t, SkipKeyword, out.Reason)
	assert.Nil(t, out.Fields)

	// Empty keywords never match.
	out = r.Resolve(fields("10\t3\t.\tA\t.\t.\t.\t."))
	assert.Equal(t, Replaced, out.Action)
}

func TestResolve_Priority(t *testing.T) {
	mc := newContext(t,
		"7\t50\t60\tCCCCCCCCCC\t10\tref#chr2\n",
		"7\t4\t100\tx\taln#chr3\n",
	)

	r := New(mc, Config{Graph: mapSource{7: "GGG"}})
	out := r.Resolve(fields("7\t1\t.\tN\tA"))
	require.Equal(t, Replaced, out.Action)
	assert.Equal(t, []string{"aln#chr3", "105", "1", "GGG", "A"}, out.Fields)
	assert.Equal(t, SourceAlignment, out.PathSource)
	assert.Equal(t, SourceGraph, out.SequenceSource)
	assert.Equal(t, SourceAlignment, out.PositionSource)

	// Without a graph source REF comes from the reference table.
	r = New(mc, Config{})
	out = r.Resolve(fields("7\t1\t.\tN\tA"))
	assert.Equal(t, "CCCCCCCCCC", out.Fields[3])
	assert.Equal(t, SourceReference, out.SequenceSource)

	// Graph misses fall through to the reference table.
	r = New(mc, Config{Graph: mapSource{}})
	out = r.Resolve(fields("7\t1\t.\tN\tA"))
	assert.Equal(t, SourceReference, out.SequenceSource)
}

func TestLinearPosition(t *testing.T) {
	tests := []struct {
		name     string
		distance int64
		position int64
		want     int64
	}{
		{"relative", 4, 100, 105},
		{"zero distance", 0, 100, 101},
		{"minus one", -1, 100, 100},
		{"negative clamps", -50, 100, 100},
		{"at sentinel", LinearSentinel, 100, 100 + LinearSentinel + 1},
		{"above sentinel", LinearSentinel + 1, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LinearPosition(tt.distance, tt.position))
		})
	}
}

func TestResolve_MissingSequenceAndStart(t *testing.T) {
	// Narrow reference rows carry a path and a start but no sequence.
	mc := newContext(t, "3\t40\t50\tchr5\n", "")
	r := New(mc, Config{})

	out := r.Resolve(fields("3\t9\t.\tT\tC"))
	require.Equal(t, Replaced, out.Action)
	assert.Equal(t, []string{"chr5", "40", "9", "T", "C"}, out.Fields)
	assert.True(t, out.MissingSequence())
	assert.False(t, out.MissingStart())
}

func TestResolve_MissingStart(t *testing.T) {
	mc := newContext(t, "", "")
	r := New(mc, Config{})
	r.paths = Chain[string]{{Name: "fixed", Find: func(uint64) (string, bool) { return "chr4", true }}}

	out := r.Resolve(fields("12\t9\t.\tT\tC"))
	require.Equal(t, Replaced, out.Action)
	assert.Equal(t, []string{"chr4", "9", "9", "T", "C"}, out.Fields)
	assert.True(t, out.MissingStart())
	assert.True(t, out.MissingSequence())
}

func TestResolve_Unmapped(t *testing.T) {
	mc := newContext(t, "1\t0\t5\tACGTG\t5\tchr1\n", "")

	tests := []struct {
		name   string
		level  chrom.Level
		line   string
		action Action
		chrom  string
		pos    string
	}{
		{"passthrough", chrom.LevelKeep, "chr9_alt\t5\t.\tA\tT", Unmapped, "chr9_alt", "5"},
		{"normalized", chrom.LevelStandard, "GRCh38.chr12_random\t5\t.\tA\tT", Unmapped, "chr12", "5"},
		{"rejected", chrom.LevelExact, "GRCh38.chr12_random\t5\t.\tA\tT", Skipped, "", ""},
		{"no node id", chrom.LevelKeep, "chrX\tabc\t.\tA\tT", Unmapped, "chrX", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(mc, Config{Level: tt.level})
			out := r.Resolve(fields(tt.line))
			require.Equal(t, tt.action, out.Action)
			if tt.action == Skipped {
				assert.Equal(t, SkipNormalizer, out.Reason)
				return
			}
			assert.Equal(t, tt.chrom, out.Fields[0])
			assert.Equal(t, tt.pos, out.Fields[1], "unmapped records keep POS")
			assert.Equal(t, ".", out.Fields[2], "unmapped records keep ID")
		})
	}
}

func TestResolve_NormalizerRejectsPath(t *testing.T) {
	mc := newContext(t, "1\t0\t5\tACGTG\t5\tsample#0#chrUn_KI270302v1\n", "")
	r := New(mc, Config{Level: chrom.LevelToken})

	out := r.Resolve(fields("1\t5\t.\tA\tT"))
	assert.Equal(t, Skipped, out.Action)
	assert.Equal(t, SkipNormalizer, out.Reason)
	assert.Equal(t, SourceReference, out.PathSource)
}

func TestResolve_Malformed(t *testing.T) {
	r := New(newContext(t, "", ""), Config{})
	out := r.Resolve([]string{"lonely"})
	assert.Equal(t, Skipped, out.Action)
	assert.Equal(t, SkipMalformed, out.Reason)
}

func TestResolve_TwoFields(t *testing.T) {
	mc := newContext(t, "10\t0\t5\tACGTG\t5\tchr1\n", "")
	out := New(mc, Config{}).Resolve(fields("10\t3"))
	require.Equal(t, Replaced, out.Action)
	assert.Equal(t, []string{"chr1", "0"}, out.Fields)
	assert.False(t, out.MissingSequence())
}

func TestNodeID(t *testing.T) {
	tests := []struct {
		chrom string
		pos   string
		want  uint64
		ok    bool
	}{
		{"42", "7", 42, true},
		{"node42", "7", 42, true},
		{"s12_b7x", "7", 7, true},
		{"chrX", "7", 7, true},
		{"chrX", "x", 0, false},
		{"99999999999999999999999", "3", 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.chrom, func(t *testing.T) {
			id, ok := NodeID(tt.chrom, tt.pos)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestChain(t *testing.T) {
	c := Chain[int]{
		{Name: "a", Find: func(n uint64) (int, bool) { return 1, n == 1 }},
		{Name: "b", Find: func(n uint64) (int, bool) { return 2, n <= 2 }},
	}

	v, src, ok := c.Resolve(1)
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, "a", src)

	v, src, ok = c.Resolve(2)
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, "b", src)

	v, src, ok = c.Resolve(3)
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.Empty(t, src)
}
