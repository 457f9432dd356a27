package header

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(alt, info string) string {
	return fmt.Sprintf("1\t100\t.\tA\t%s\t.\tPASS\t%s", alt, info)
}

func TestInfer_NumberA(t *testing.T) {
	var lines []string
	for i := range 10 {
		if i%5 == 4 {
			lines = append(lines, record("T", "."))
			continue
		}
		lines = append(lines, record("T", fmt.Sprintf("DP=%d", i)))
	}

	sum := InferLines(lines, 3)
	fs := sum.Info["DP"]
	assert.Equal(t, int64(8), fs.Samples)
	assert.Equal(t, "A", fs.Number())
	assert.Equal(t, "Integer", fs.Type())
	assert.Equal(t, `##INFO=<ID=DP,Number=A,Type=Integer,Description="Inferred from body">`, fs.Definition("DP"))
}

func TestInfer_FlagAnywhere(t *testing.T) {
	lines := []string{
		record("T", "DB=1"),
		record("T", "DB=2"),
		record("T", "DP=3;DB"),
	}

	fs := InferLines(lines, 2).Info["DB"]
	assert.Equal(t, "Flag", fs.Type())
	assert.Equal(t, "0", fs.Number())
}

func TestInfer_TypesAndNumbers(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		key    string
		typ    string
		number string
	}{
		{"float", []string{record("T", "AF=0.5"), record("T", "AF=1")}, "AF", "Float", "A"},
		{"string", []string{record("T", "SV=DEL"), record("T", "SV=2")}, "SV", "String", "A"},
		{"per allele including ref", []string{record("T", "AD=3,4"), record("G", "AD=1,2")}, "AD", "Integer", "R"},
		{"singleton", []string{record("T,G", "NS=3"), record("T,G", "NS=4")}, "NS", "Integer", "1"},
		{"variable", []string{record("T,G", "X=1,2,3,4"), record("T", "X=1,2,3")}, "X", "Integer", "."},
		{"missing alt", []string{record(".", "DP=3"), record(".", "DP=4"), record(".", "DP=5")}, "DP", "Integer", "A"},
		{"missing alt with ref", []string{record(".", "AD=3,4"), record(".", "AD=1,2")}, "AD", "Integer", "R"},
		{"empty value", []string{record("T", "E="), record("T", "E=")}, "E", "Integer", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, ok := InferLines(tt.lines, 100).Info[tt.key]
			require.True(t, ok)
			assert.Equal(t, tt.typ, fs.Type())
			assert.Equal(t, tt.number, fs.Number())
		})
	}
}

func TestInfer_IgnoresHeaderAndShortLines(t *testing.T) {
	lines := []string{"##x=1", "", "#CHROM", "1\t2\t3", record("T", ".")}
	sum := InferLines(lines, 2)
	assert.Empty(t, sum.Info)
	assert.Equal(t, int64(3), sum.FirstData)
}

func TestInfer_Format(t *testing.T) {
	lines := []string{
		record("T", ".") + "\tGT:DP\t0/1:12\t1/1:4",
		record("T", ".") + "\tGT:DP:AD\t./.:1.5:3,4",
		record("T", ".") + "\tGT:HQ\t0|1",
		record("T", ".") + "\tGT:FT:FT\t0|1:x:7",
	}

	sum := InferLines(lines, 1)
	assert.Equal(t, FormatObservation{Kind: KindString, Cardinality: 1, Line: 0}, sum.Format["GT"])
	assert.Equal(t, FormatObservation{Kind: KindInteger, Cardinality: 1, Line: 0}, sum.Format["DP"])
	assert.Equal(t, FormatObservation{Kind: KindInteger, Cardinality: 2, Line: 1}, sum.Format["AD"])
	assert.Equal(t, FormatObservation{Kind: KindString, Cardinality: 0, Line: 2}, sum.Format["HQ"])
	assert.Equal(t, FormatObservation{Kind: KindString, Cardinality: 1, Line: 3}, sum.Format["FT"])

	assert.Equal(t, `##FORMAT=<ID=AD,Number=.,Type=Integer,Description="Inferred from FORMAT column">`,
		sum.Format["AD"].Definition("AD"))
	assert.Equal(t, "0", sum.Format["HQ"].Number())
}

func bodyFixture() []string {
	infos := []string{"DP=3", "DP=4;AF=0.1", "DB", "AF=0.2,0.3;DP=1", "SV=INV", ".", "AD=1,2,3;DB", "DP=x"}
	alts := []string{"T", "T,G", ".", "C,A"}
	samples := []string{"GT:GQ\t0/1:30", "GT\t1/1", "GT:GQ\t.:.", "GQ:GT\t4.5:0/0"}

	var lines []string
	for i := range 60 {
		line := fmt.Sprintf("1\t%d\t.\tA\t%s\t.\tPASS\t%s", i, alts[i%len(alts)], infos[(i*7)%len(infos)])
		if i%3 != 0 {
			line += "\t" + samples[(i/3)%len(samples)]
		}
		lines = append(lines, line)
	}
	return lines
}

func TestInferLines_PartitionInvariant(t *testing.T) {
	lines := bodyFixture()
	want := InferLines(lines, len(lines))

	for _, size := range []int{1, 2, 7, 13, 59} {
		t.Run(fmt.Sprintf("block=%d", size), func(t *testing.T) {
			assert.Equal(t, want, InferLines(lines, size))
		})
	}
}

func TestSummary_MergeCommutes(t *testing.T) {
	lines := bodyFixture()
	a, b := NewSummary(), NewSummary()
	for i, line := range lines {
		if i < 25 {
			a.Observe(line, int64(i))
		} else {
			b.Observe(line, int64(i))
		}
	}

	ab := NewSummary()
	ab.Merge(a)
	ab.Merge(b)
	ba := NewSummary()
	ba.Merge(b)
	ba.Merge(a)

	assert.Equal(t, ab, ba)
	assert.Equal(t, InferLines(lines, 0), ab)
}

func TestFieldStats_Identity(t *testing.T) {
	id := NewFieldStats()
	x := FieldStats{SeenAsFlag: true, AllInteger: false, AnyFloat: true, AllSingleton: false, AltMatches: 2, AltPlusOneMatches: 1, Samples: 5}
	assert.Equal(t, x, id.Merge(x))
	assert.Equal(t, x, x.Merge(id))
	assert.Equal(t, `##INFO=<ID=K,Number=1,Type=Integer,Description="">`, id.Definition("K"))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindInteger, classify("-12"))
	assert.Equal(t, KindFloat, classify("1e-3"))
	assert.Equal(t, KindString, classify("."))
	assert.Equal(t, KindString, classify(""))
	assert.Equal(t, KindString, classify(strings.Repeat("a", 3)))
}
