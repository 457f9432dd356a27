package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/graphvcf/internal/duckdb"
	"github.com/inodb/graphvcf/internal/fileio"
)

func newSegmentsCmd() *cobra.Command {
	var (
		dbPath string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "segments [flags] <segments.fa>",
		Short: "Build a segment database for graphs too large to load in memory",
		Long: `Import a FASTA of graph segments, named by node id, into a DuckDB
database usable with 'graphvcf rewrite --segment-db'. The import is skipped
when the database was already built from the same, unchanged file.`,
		Example: `  graphvcf segments --db segments.duckdb segments.fa.gz`,
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				return usagef("--db is required")
			}
			return runSegments(cmd.Context(), args[0], dbPath, force)
		},
	}

	f := cmd.Flags()
	f.StringVar(&dbPath, "db", "", "Output DuckDB database")
	f.BoolVar(&force, "force", false, "Re-import even if the database is up to date")

	return cmd
}

func runSegments(ctx context.Context, fasta, dbPath string, force bool) error {
	fp, err := duckdb.StatFile(fasta)
	if err != nil {
		return err
	}

	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	store.SetLogger(logger)

	if !force && store.IsFresh(fp) {
		n, err := store.Count()
		if err != nil {
			return err
		}
		logger.Info("segment database up to date", zap.String("db", dbPath), zap.Int("segments", n))
		return nil
	}

	in, err := fileio.Open(fasta)
	if err != nil {
		return err
	}
	defer in.Close()

	stats, err := store.ImportFASTA(ctx, in)
	if err != nil {
		return err
	}
	if err := store.SetSource(fp); err != nil {
		return err
	}

	logger.Info("segment database built",
		zap.String("db", dbPath),
		zap.Int("segments", stats.Segments),
		zap.Int("skipped", stats.Skipped))
	return nil
}
