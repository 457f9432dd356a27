package mapping

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/inodb/graphvcf/internal/chrom"
)

// PathTableStats summarizes a WritePathTable run.
type PathTableStats struct {
	Paths   int // paths written
	Dropped int // paths rejected by the normalizer
	Rows    int
}

// WritePathTable re-emits the reference table with path names normalized at
// level. Each path is formatted independently and appended to w as one
// block; rows keep their order within a path but paths may appear in any
// order. Paths the normalizer rejects are dropped.
func WritePathTable(ctx context.Context, ref *Reference, level chrom.Level, w io.Writer, workers int) (PathTableStats, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var (
		mu      sync.Mutex
		written atomic.Int64
		dropped atomic.Int64
		rows    atomic.Int64
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range ref.Paths() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			name, ok := chrom.Normalize(path, level)
			if !ok {
				dropped.Add(1)
				return nil
			}

			segs := ref.Segments(path)
			var buf bytes.Buffer
			for _, seg := range segs {
				appendSegment(&buf, seg, name)
			}

			mu.Lock()
			_, err := w.Write(buf.Bytes())
			mu.Unlock()
			if err != nil {
				return fmt.Errorf("write path %s: %w", name, err)
			}
			written.Add(1)
			rows.Add(int64(len(segs)))
			return nil
		})
	}

	err := g.Wait()
	return PathTableStats{
		Paths:   int(written.Load()),
		Dropped: int(dropped.Load()),
		Rows:    int(rows.Load()),
	}, err
}

func appendSegment(buf *bytes.Buffer, seg Segment, path string) {
	b := buf.AvailableBuffer()
	b = strconv.AppendUint(b, seg.Node, 10)
	b = append(b, '\t')
	b = strconv.AppendUint(b, seg.Start, 10)
	b = append(b, '\t')
	b = strconv.AppendUint(b, seg.End, 10)
	b = append(b, '\t')
	if seg.Wide {
		b = append(b, seg.Sequence...)
		b = append(b, '\t')
		b = strconv.AppendUint(b, seg.Length, 10)
		b = append(b, '\t')
	}
	b = append(b, path...)
	b = append(b, '\n')
	buf.Write(b)
}
