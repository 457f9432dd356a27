// Package rewrite streams a graph variant file through the resolver and
// writes the linearized records.
package rewrite

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/graphvcf/internal/resolve"
	"github.com/inodb/graphvcf/internal/vcf"
)

// DefaultBatchSize is the number of lines per parallel work unit.
const DefaultBatchSize = 10_000

// Rewriter applies a resolver to every data line of a variant stream.
type Rewriter struct {
	resolver  *resolve.Resolver
	batchSize int
	logger    *zap.Logger
}

// New creates a rewriter around r.
func New(r *resolve.Resolver) *Rewriter {
	return &Rewriter{resolver: r, batchSize: DefaultBatchSize, logger: zap.NewNop()}
}

// SetLogger sets the logger for progress messages.
func (rw *Rewriter) SetLogger(l *zap.Logger) {
	rw.logger = l
}

// SetBatchSize sets the number of lines per parallel work unit.
func (rw *Rewriter) SetBatchSize(n int) {
	if n > 0 {
		rw.batchSize = n
	}
}

// lineWriter is satisfied by both *bufio.Writer and *bytes.Buffer.
type lineWriter interface {
	io.Writer
	io.StringWriter
	io.ByteWriter
}

// Rewrite copies r to w in a single pass. Header lines pass through
// unchanged, data lines are resolved, empty lines are dropped. A failed
// write aborts the pass.
func (rw *Rewriter) Rewrite(r io.Reader, w io.Writer) (*Stats, error) {
	stats := NewStats()
	bw := bufio.NewWriterSize(w, 1<<20)

	err := readLines(r, func(line string) error {
		return rw.processLine(line, bw, stats)
	})
	if err != nil {
		return stats, err
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("write output: %w", err)
	}

	rw.logger.Debug("rewrite finished", stats.LogFields()...)
	return stats, nil
}

func (rw *Rewriter) processLine(line string, w lineWriter, stats *Stats) error {
	if line == "" {
		return nil
	}
	if vcf.IsComment(line) {
		return writeLine(w, line)
	}

	out := rw.resolver.Resolve(vcf.Fields(line))
	stats.Record(out)
	if out.Fields == nil {
		return nil
	}
	for i, f := range out.Fields {
		if i > 0 {
			if err := w.WriteByte('\t'); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
		if _, err := w.WriteString(f); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func writeLine(w lineWriter, line string) error {
	if _, err := w.WriteString(line); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// readLines calls fn for every line of r without its terminator. Lines may
// be of any length.
func readLines(r io.Reader, fn func(string) error) error {
	br := bufio.NewReaderSize(r, 1<<20)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if ferr := fn(strings.TrimRight(line, "\r\n")); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
	}
}
