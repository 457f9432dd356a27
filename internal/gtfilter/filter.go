// Package gtfilter keeps variant records whose homozygous-alternate genotype
// frequency exceeds a threshold.
package gtfilter

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/inodb/graphvcf/internal/spool"
	"github.com/inodb/graphvcf/internal/vcf"
)

// DefaultThreshold is the default minimum fraction of 1/1 genotypes.
const DefaultThreshold = 0.05

// Verdict is the decision taken for one record.
type Verdict int

const (
	Keep Verdict = iota
	NoSamples
	NoGenotype
	NoCalls
	Homozygous
	BelowThreshold
)

// Evaluate decides whether a record is kept. Records are dropped when they
// have no sample columns, no GT key, no called genotype, or when every
// called sample is homozygous. Otherwise they are kept if the fraction of
// 1/1 genotypes among called samples is above threshold.
func Evaluate(fields []string, threshold float64) Verdict {
	if len(fields) <= vcf.ColFirstSample {
		return NoSamples
	}
	gtIdx := vcf.FormatIndex(fields[vcf.ColFormat], "GT")
	if gtIdx < 0 {
		return NoGenotype
	}

	var called, homAlt, homRef int
	for _, sample := range fields[vcf.ColFirstSample:] {
		if sample == "" {
			continue
		}
		gt, ok := nthField(sample, gtIdx)
		if !ok {
			continue
		}
		switch gt {
		case "./.", ".|.", ".":
			continue
		case "1/1", "1|1":
			homAlt++
		case "0/0", "0|0":
			homRef++
		}
		called++
	}

	switch {
	case called == 0:
		return NoCalls
	case homAlt+homRef == called:
		return Homozygous
	case float64(homAlt)/float64(called) > threshold:
		return Keep
	default:
		return BelowThreshold
	}
}

// nthField returns the n-th colon-separated value of a sample column.
func nthField(sample string, n int) (string, bool) {
	start := 0
	for i := 0; i < len(sample); i++ {
		if sample[i] != ':' {
			continue
		}
		if n == 0 {
			return sample[start:i], true
		}
		n--
		start = i + 1
	}
	if n == 0 {
		return sample[start:], true
	}
	return "", false
}

// Stats counts records by verdict.
type Stats struct {
	Total          int64
	Kept           int64
	Samples        int
	NoSamples      int64
	NoGenotype     int64
	NoCalls        int64
	Homozygous     int64
	BelowThreshold int64
	ContigsDropped int
}

func (s *Stats) record(v Verdict) {
	s.Total++
	switch v {
	case Keep:
		s.Kept++
	case NoSamples:
		s.NoSamples++
	case NoGenotype:
		s.NoGenotype++
	case NoCalls:
		s.NoCalls++
	case Homozygous:
		s.Homozygous++
	case BelowThreshold:
		s.BelowThreshold++
	}
}

// Options configures a Filter.
type Options struct {
	Threshold float64
	SpoolDir  string
	Codec     spool.Codec
}

// Filter applies Evaluate to every record of a stream.
type Filter struct {
	opts   Options
	logger *zap.Logger
}

// New creates a filter.
func New(opts Options) *Filter {
	return &Filter{opts: opts, logger: zap.NewNop()}
}

// SetLogger sets the logger for progress messages.
func (f *Filter) SetLogger(l *zap.Logger) {
	f.logger = l
}

// Run writes the header lines of r, with ##contig lines pruned to the
// chromosomes of kept records, followed by the kept records. Kept records
// are held in a spool until the header can be written.
func (f *Filter) Run(r io.Reader, w io.Writer) (*Stats, error) {
	hr, err := vcf.NewHeaderReader(r)
	if err != nil {
		return nil, err
	}

	sp, err := spool.Create(f.opts.SpoolDir, f.opts.Codec)
	if err != nil {
		return nil, err
	}
	defer sp.Remove()

	h := hr.Header()
	headerLines := append([]string(nil), h.Meta...)
	if h.Columns != "" {
		headerLines = append(headerLines, h.Columns)
	}

	stats := &Stats{Samples: len(h.SampleNames())}
	if stats.Samples == 0 && h.Columns != "" {
		f.logger.Warn("column header names no samples; every record will be dropped")
	}
	keptChroms := make(map[string]bool)
	for {
		line, err := hr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read body at line %d: %w", hr.LineNumber()+1, err)
		}
		if line == "" {
			continue
		}
		if vcf.IsComment(line) {
			headerLines = append(headerLines, line)
			continue
		}

		fields := vcf.Fields(line)
		v := Evaluate(fields, f.opts.Threshold)
		stats.record(v)
		if v != Keep {
			continue
		}
		keptChroms[fields[vcf.ColChrom]] = true
		if _, err := sp.WriteString(line); err != nil {
			return nil, fmt.Errorf("spool records: %w", err)
		}
		if _, err := sp.WriteString("\n"); err != nil {
			return nil, fmt.Errorf("spool records: %w", err)
		}
	}

	bw := bufio.NewWriterSize(w, 1<<20)
	for _, line := range headerLines {
		if id := vcf.ContigID(line); id != "" && !keptChroms[id] {
			stats.ContigsDropped++
			continue
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	if _, err := sp.Replay(bw); err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}

	f.logger.Info("genotype filter finished",
		zap.Int("samples", stats.Samples),
		zap.Int64("total", stats.Total),
		zap.Int64("kept", stats.Kept),
		zap.Int64("homozygous", stats.Homozygous),
		zap.Int64("below_threshold", stats.BelowThreshold),
		zap.Int("contigs_dropped", stats.ContigsDropped),
	)
	return stats, nil
}
