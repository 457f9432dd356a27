package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/graphvcf/internal/fileio"
	"github.com/inodb/graphvcf/internal/mapping"
)

func newPathsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "paths [flags] <reference>",
		Short: "Rewrite the reference table with normalized path names",
		Long: `Re-emit every row of a reference extraction table with its path name
normalized under the --ignore policy. Paths the policy rejects are dropped.
Rows of one path stay together and in order; paths may be reordered.`,
		Example: `  graphvcf paths --ignore 4 -t 8 -o reference.chr.tsv reference.tsv`,
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPaths(cmd.Context(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file, '.gz' suffix compresses")
	return cmd
}

func runPaths(ctx context.Context, reference, output string) error {
	level, err := policyLevel()
	if err != nil {
		return err
	}

	ref, err := mapping.LoadReference(reference)
	if err != nil {
		return err
	}

	out, err := fileio.CreateAtomic(output)
	if err != nil {
		return err
	}
	defer out.Abort()

	stats, err := mapping.WritePathTable(ctx, ref, level, out, viper.GetInt("threads"))
	if err != nil {
		return err
	}
	if err := out.Commit(); err != nil {
		return err
	}

	logger.Info("path table written",
		zap.Int("paths", stats.Paths),
		zap.Int("dropped", stats.Dropped),
		zap.Int("rows", stats.Rows),
		zap.Int("skipped_input_rows", ref.Stats.Skipped))
	return nil
}
