package gtfilter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/graphvcf/internal/spool"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Verdict
	}{
		{"no samples", "1\t1\t.\tA\tT\t.\t.\t.", NoSamples},
		{"format only", "1\t1\t.\tA\tT\t.\t.\t.\tGT", NoSamples},
		{"no GT", "1\t1\t.\tA\tT\t.\t.\t.\tDP\t5\t6", NoGenotype},
		{"all missing", "1\t1\t.\tA\tT\t.\t.\t.\tGT\t./.\t.|.\t.", NoCalls},
		{"all homozygous", "1\t1\t.\tA\tT\t.\t.\t.\tGT\t0/0\t1/1\t1|1", Homozygous},
		{"kept", "1\t1\t.\tA\tT\t.\t.\t.\tGT\t0/1\t1/1\t0/0", Keep},
		{"no hom alt", "1\t1\t.\tA\tT\t.\t.\t.\tGT\t0/1\t0/1\t0/0", BelowThreshold},
		{"GT not first", "1\t1\t.\tA\tT\t.\t.\t.\tDP:GT\t3:0/1\t4:1/1\t9", Keep},
		{"short sample skipped", "1\t1\t.\tA\tT\t.\t.\t.\tDP:GT\t3\t4", NoCalls},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(strings.Split(tt.line, "\t"), DefaultThreshold))
		})
	}
}

func TestEvaluate_Threshold(t *testing.T) {
	// One 1/1 among four called samples is 0.25.
	fields := strings.Split("1\t1\t.\tA\tT\t.\t.\t.\tGT\t1/1\t0/1\t0/1\t0/1", "\t")
	assert.Equal(t, Keep, Evaluate(fields, 0.2))
	assert.Equal(t, BelowThreshold, Evaluate(fields, 0.25))
}

func TestFilter_Run(t *testing.T) {
	input := "##fileformat=VCFv4.2\n" +
		"##contig=<ID=chr1,length=100>\n" +
		"##contig=<ID=chr2,length=200>\n" +
		"##contig=<ID=chr3>\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tA\tB\n" +
		"chr1\t5\t.\tA\tT\t.\t.\t.\tGT\t0/1\t1/1\n" +
		"chr2\t5\t.\tA\tT\t.\t.\t.\tGT\t0/0\t1/1\n" +
		"chr3\t5\t.\tA\tT\t.\t.\t.\n" +
		"\n" +
		"chr1\t9\t.\tG\tC\t.\t.\t.\tGT\t1|1\t0|1\n"

	f := New(Options{Threshold: DefaultThreshold, SpoolDir: t.TempDir(), Codec: spool.CodecLZ4})

	var out strings.Builder
	stats, err := f.Run(strings.NewReader(input), &out)
	require.NoError(t, err)

	assert.Equal(t, "##fileformat=VCFv4.2\n"+
		"##contig=<ID=chr1,length=100>\n"+
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tA\tB\n"+
		"chr1\t5\t.\tA\tT\t.\t.\t.\tGT\t0/1\t1/1\n"+
		"chr1\t9\t.\tG\tC\t.\t.\t.\tGT\t1|1\t0|1\n", out.String())

	assert.Equal(t, &Stats{
		Samples:        2,
		Total:          4,
		Kept:           2,
		NoSamples:      1,
		Homozygous:     1,
		ContigsDropped: 2,
	}, stats)
}

func TestFilter_RunWithoutSampleColumns(t *testing.T) {
	input := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"chr1\t5\t.\tA\tT\t.\t.\t.\n"

	var out strings.Builder
	stats, err := New(Options{Threshold: DefaultThreshold, SpoolDir: t.TempDir()}).Run(strings.NewReader(input), &out)
	require.NoError(t, err)

	assert.Zero(t, stats.Samples)
	assert.Equal(t, int64(1), stats.NoSamples)
	assert.Equal(t, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n", out.String())
}
