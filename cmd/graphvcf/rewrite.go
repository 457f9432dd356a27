package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/graphvcf/internal/duckdb"
	"github.com/inodb/graphvcf/internal/fileio"
	"github.com/inodb/graphvcf/internal/graph"
	"github.com/inodb/graphvcf/internal/header"
	"github.com/inodb/graphvcf/internal/mapping"
	"github.com/inodb/graphvcf/internal/resolve"
	"github.com/inodb/graphvcf/internal/rewrite"
)

type rewriteOptions struct {
	reference  string
	alignment  string
	segments   string
	segmentDB  string
	output     string
	withHeader bool
}

func newRewriteCmd() *cobra.Command {
	var opts rewriteOptions

	cmd := &cobra.Command{
		Use:   "rewrite [flags] <input>",
		Short: "Rewrite graph node coordinates to linear reference coordinates",
		Long: `Rewrite each variant record whose CHROM or POS names a graph node into
linear coordinates taken from the alignment table, then the reference table.
REF is replaced by the node sequence when one is known. Header lines pass
through unchanged. Use '-' to read stdin.`,
		Example: `  graphvcf rewrite -r reference.tsv -a alignment.tsv -o out.vcf calls.vcf.gz
  graphvcf rewrite -r reference.tsv --ignore 4 --skip random --with-header -o out.vcf.gz calls.vcf
  graphvcf rewrite -r reference.tsv --segment-db segments.duckdb -t 8 calls.vcf`,
		Args: usageArgs(cobra.ExactArgs(1)),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			bindFlags(cmd.Flags(), map[string]string{
				"skip":          "skip",
				"batch_size":    "batch-size",
				"block_size":    "block-size",
				"segment_cache": "segment-cache",
			})
			if opts.segments != "" && opts.segmentDB != "" {
				return usagef("--segments and --segment-db are mutually exclusive")
			}
			if opts.reference == "" && opts.alignment == "" {
				return usagef("at least one of --reference or --alignment is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(cmd.Context(), args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.reference, "reference", "r", "", "Reference extraction table (node, start, end, [sequence, length,] path)")
	f.StringVarP(&opts.alignment, "alignment", "a", "", "Alignment table (node, distance, position, ..., path)")
	f.StringVar(&opts.segments, "segments", "", "Segment FASTA keyed by node id, loaded in memory")
	f.StringVar(&opts.segmentDB, "segment-db", "", "Segment database built by 'graphvcf segments'")
	f.StringVarP(&opts.output, "output", "o", "-", "Output file, '.gz' suffix compresses")
	f.BoolVar(&opts.withHeader, "with-header", false, "Synthesize a header in front of the rewritten body")
	f.StringSlice("skip", nil, "Drop records whose CHROM contains any of these substrings")
	f.Int("batch-size", rewrite.DefaultBatchSize, "Lines per parallel work unit")
	f.Int("block-size", header.DefaultBlockSize, "Lines per header inference block (with --with-header)")
	f.Int("segment-cache", duckdb.DefaultCacheSize, "Cached segment database lookups")

	return cmd
}

func runRewrite(ctx context.Context, input string, opts rewriteOptions) error {
	level, err := policyLevel()
	if err != nil {
		return err
	}
	threads := viper.GetInt("threads")

	logger.Info("rewrite",
		zap.String("input", input),
		zap.String("reference", opts.reference),
		zap.String("alignment", opts.alignment),
		zap.String("output", opts.output),
		zap.Int("ignore", int(level)),
		zap.Strings("skip", viper.GetStringSlice("skip")),
		zap.Int("threads", threads),
	)

	mc, err := mapping.Load(ctx, mapping.Sources{Reference: opts.reference, Alignment: opts.alignment})
	if err != nil {
		return err
	}
	logger.Info("mapping tables loaded",
		zap.Int("reference_nodes", mc.Reference.Nodes()),
		zap.Int("reference_skipped", mc.Reference.Stats.Skipped),
		zap.Int("alignment_nodes", mc.Alignment.Nodes()),
		zap.Int("alignment_skipped", mc.Alignment.Stats.Skipped),
	)

	cfg := resolve.Config{Level: level, Skip: viper.GetStringSlice("skip")}
	switch {
	case opts.segments != "":
		segs, err := graph.LoadFASTA(opts.segments)
		if err != nil {
			return err
		}
		logger.Info("segments loaded", zap.Int("segments", segs.Len()), zap.Int("skipped", segs.Skipped()))
		cfg.Graph = segs
	case opts.segmentDB != "":
		store, err := duckdb.Open(opts.segmentDB)
		if err != nil {
			return err
		}
		defer store.Close()
		store.SetLogger(logger)
		store.SetCacheSize(viper.GetInt("segment_cache"))
		cfg.Graph = store
	}

	rw := rewrite.New(resolve.New(mc, cfg))
	rw.SetLogger(logger)
	rw.SetBatchSize(viper.GetInt("batch_size"))

	in, err := fileio.Open(input)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fileio.CreateAtomic(opts.output)
	if err != nil {
		return err
	}
	defer out.Abort()

	var stats *rewrite.Stats
	if opts.withHeader {
		var ref *mapping.Reference
		if opts.reference != "" {
			ref = mc.Reference
		}
		stats, err = rewriteWithHeader(ctx, rw, ref, in, out, threads)
	} else {
		stats, err = runRewriter(ctx, rw, in, out, threads)
	}
	if err != nil {
		return err
	}
	if err := out.Commit(); err != nil {
		return err
	}

	logger.Info("rewrite finished", stats.LogFields()...)
	if !stats.Reconciled() {
		logger.Warn("record counters do not reconcile",
			zap.Int64("total", stats.Total),
			zap.Int64("accounted", stats.Replaced+stats.Unmapped+stats.Skipped))
	}
	return nil
}

func runRewriter(ctx context.Context, rw *rewrite.Rewriter, r io.Reader, w io.Writer, threads int) (*rewrite.Stats, error) {
	if threads == 1 {
		return rw.Rewrite(r, w)
	}
	return rw.RewriteParallel(ctx, r, w, threads)
}

// rewriteWithHeader pipes the rewritten stream into the header engine so the
// input is read once.
func rewriteWithHeader(ctx context.Context, rw *rewrite.Rewriter, ref *mapping.Reference, r io.Reader, w io.Writer, threads int) (*rewrite.Stats, error) {
	engine, err := newHeaderEngine(ref, threads)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)

	var stats *rewrite.Stats
	g.Go(func() error {
		var err error
		stats, err = runRewriter(gctx, rw, r, pw, threads)
		pw.CloseWithError(err)
		return err
	})
	g.Go(func() error {
		_, err := engine.Run(gctx, pr, w)
		pr.CloseWithError(err)
		if err != nil {
			return fmt.Errorf("synthesize header: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
