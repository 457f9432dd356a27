package rewrite

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// batch is a run of consecutive input lines.
type batch struct {
	Seq   int
	Lines []string
}

// batchResult holds the rewritten output of one batch.
type batchResult struct {
	Seq   int
	Out   *bytes.Buffer
	Stats *Stats
	Err   error
}

// RewriteParallel produces the same output as Rewrite using a pool of
// workers. Lines are grouped into batches tagged with a sequence number
// and written back in sequence order. At most 2*workers batches are in
// flight. If workers is 0, runtime.NumCPU() is used.
func (rw *Rewriter) RewriteParallel(ctx context.Context, r io.Reader, w io.Writer, workers int) (*Stats, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	inflight := 2 * workers

	items := make(chan batch)
	results := make(chan batchResult, inflight)
	tokens := make(chan struct{}, inflight)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(items)
		seq := 0
		lines := make([]string, 0, rw.batchSize)
		dispatch := func() error {
			select {
			case tokens <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			select {
			case items <- batch{Seq: seq, Lines: lines}:
			case <-ctx.Done():
				return ctx.Err()
			}
			seq++
			lines = make([]string, 0, rw.batchSize)
			return nil
		}

		err := readLines(r, func(line string) error {
			lines = append(lines, line)
			if len(lines) < rw.batchSize {
				return nil
			}
			return dispatch()
		})
		if err != nil {
			return err
		}
		if len(lines) > 0 {
			return dispatch()
		}
		return nil
	})

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		g.Go(func() error {
			defer wg.Done()
			for b := range items {
				results <- rw.processBatch(b)
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	stats := NewStats()
	bw := bufio.NewWriterSize(w, 1<<20)
	g.Go(func() error {
		return orderedCollect(results, func(res batchResult) error {
			if res.Err != nil {
				return res.Err
			}
			if _, err := bw.Write(res.Out.Bytes()); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			stats.Merge(res.Stats)
			<-tokens
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return stats, err
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("write output: %w", err)
	}

	rw.logger.Debug("parallel rewrite finished", stats.LogFields()...)
	return stats, nil
}

func (rw *Rewriter) processBatch(b batch) batchResult {
	res := batchResult{Seq: b.Seq, Out: new(bytes.Buffer), Stats: NewStats()}
	for _, line := range b.Lines {
		if err := rw.processLine(line, res.Out, res.Stats); err != nil {
			res.Err = err
			break
		}
	}
	return res
}

// orderedCollect hands rewritten batches to write in batch order. Batches
// that finish early wait in held until every batch before them has been
// written. After a failed write the remaining batches are discarded so no
// worker stays blocked on send.
func orderedCollect(results <-chan batchResult, write func(batchResult) error) error {
	held := make(map[int]batchResult)
	next := 0

	for res := range results {
		held[res.Seq] = res
		for ready, ok := held[next]; ok; ready, ok = held[next] {
			delete(held, next)
			next++
			if err := write(ready); err != nil {
				for range results {
				}
				return err
			}
		}
	}
	return nil
}
