package header

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/graphvcf/internal/chrom"
	"github.com/inodb/graphvcf/internal/mapping"
	"github.com/inodb/graphvcf/internal/spool"
	"github.com/inodb/graphvcf/internal/vcf"
)

// DefaultBlockSize is the number of body lines summarized per work unit.
const DefaultBlockSize = 100_000

// Options configures an Engine.
type Options struct {
	// Reference supplies contig names and lengths. Nil keeps the input's
	// ##contig lines.
	Reference *mapping.Reference
	Level     chrom.Level
	BlockSize int
	Workers   int
	SpoolDir  string
	Codec     spool.Codec
}

// Result describes a completed run.
type Result struct {
	Header    []string
	Summary   *Summary
	BodyLines int64
	BodyBytes int64
	Inferred  int // INFO and FORMAT lines added
}

// Engine synthesizes a header for a variant stream and writes it in front
// of the unchanged body.
type Engine struct {
	opts   Options
	logger *zap.Logger
}

// NewEngine creates an engine.
func NewEngine(opts Options) *Engine {
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultBlockSize
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Engine{opts: opts, logger: zap.NewNop()}
}

// SetLogger sets the logger for progress messages.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Run reads r, spools its body while summarizing it block by block, then
// writes the synthesized header followed by the body to w.
func (e *Engine) Run(ctx context.Context, r io.Reader, w io.Writer) (*Result, error) {
	hr, err := vcf.NewHeaderReader(r)
	if err != nil {
		return nil, err
	}

	sp, err := spool.Create(e.opts.SpoolDir, e.opts.Codec)
	if err != nil {
		return nil, err
	}
	defer sp.Remove()

	var (
		mu    sync.Mutex
		total = NewSummary()
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	dispatch := func(block []string, start int64) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s := NewSummary()
			for i, line := range block {
				s.Observe(line, start+int64(i))
			}
			mu.Lock()
			total.Merge(s)
			mu.Unlock()
			return nil
		})
	}

	var (
		index int64
		start int64
		block = make([]string, 0, e.opts.BlockSize)
	)
	readErr := func() error {
		for {
			line, err := hr.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read body at line %d: %w", hr.LineNumber()+1, err)
			}
			if _, err := sp.WriteString(line); err != nil {
				return fmt.Errorf("spool body: %w", err)
			}
			if _, err := sp.WriteString("\n"); err != nil {
				return fmt.Errorf("spool body: %w", err)
			}

			block = append(block, line)
			index++
			if len(block) == e.opts.BlockSize {
				if err := gctx.Err(); err != nil {
					return err
				}
				dispatch(block, start)
				start = index
				block = make([]string, 0, e.opts.BlockSize)
			}
		}
	}()
	if readErr == nil && len(block) > 0 {
		dispatch(block, start)
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, readErr
	}

	h := hr.Header()
	var contigs []string
	if ref := e.opts.Reference; ref != nil && len(ref.Paths()) > 0 {
		contigs = ContigLines(ref, e.opts.Level)
	}
	lines := Synthesize(h, total, contigs)

	if h.Columns == "" && total.FirstData < 0 {
		e.logger.Warn("no column header and no data lines; downstream tools may reject the output")
	}

	bw := bufio.NewWriterSize(w, 1<<20)
	for _, line := range lines {
		if _, err := bw.WriteString(line); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	n, err := sp.Replay(bw)
	if err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}

	res := &Result{
		Header:    lines,
		Summary:   total,
		BodyLines: index,
		BodyBytes: n,
		Inferred:  countInferred(h, total),
	}
	e.logger.Info("header synthesized",
		zap.Int64("body_lines", index),
		zap.Int64("spooled_bytes", sp.Size()),
		zap.Int("info_keys", len(total.Info)),
		zap.Int("format_keys", len(total.Format)),
		zap.Int("inferred", res.Inferred),
		zap.Int("contigs", len(contigs)),
	)
	return res, nil
}

func countInferred(h vcf.Header, sum *Summary) int {
	n := 0
	info, format := h.IDs("INFO"), h.IDs("FORMAT")
	for k := range sum.Info {
		if !info[k] {
			n++
		}
	}
	for k := range sum.Format {
		if !format[k] {
			n++
		}
	}
	return n
}
