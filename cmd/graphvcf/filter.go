package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/graphvcf/internal/fileio"
	"github.com/inodb/graphvcf/internal/gtfilter"
)

func newFilterCmd() *cobra.Command {
	var (
		threshold float64
		output    string
	)

	cmd := &cobra.Command{
		Use:   "filter [flags] <input>",
		Short: "Keep records with a high enough 1/1 genotype frequency",
		Long: `Keep records whose fraction of 1/1 genotypes among called samples is
above the threshold. Records where every called sample is homozygous, and
records without samples or GT, are dropped. ##contig lines are pruned to the
chromosomes of kept records.`,
		Example: `  graphvcf filter --threshold 0.1 -o filtered.vcf rewritten.vcf`,
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if threshold < 0 || threshold > 1 {
				return usagef("--threshold must be between 0 and 1, got %g", threshold)
			}
			return runFilter(args[0], threshold, output)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&threshold, "threshold", gtfilter.DefaultThreshold, "Minimum fraction of 1/1 genotypes")
	f.StringVarP(&output, "output", "o", "-", "Output file, '.gz' suffix compresses")

	return cmd
}

func runFilter(input string, threshold float64, output string) error {
	dir, codec, err := spoolSettings()
	if err != nil {
		return err
	}

	in, err := fileio.Open(input)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fileio.CreateAtomic(output)
	if err != nil {
		return err
	}
	defer out.Abort()

	flt := gtfilter.New(gtfilter.Options{Threshold: threshold, SpoolDir: dir, Codec: codec})
	flt.SetLogger(logger)
	stats, err := flt.Run(in, out)
	if err != nil {
		return err
	}
	if err := out.Commit(); err != nil {
		return err
	}

	logger.Debug("filter verdicts",
		zap.Int64("no_samples", stats.NoSamples),
		zap.Int64("no_genotype", stats.NoGenotype),
		zap.Int64("no_calls", stats.NoCalls))
	return nil
}
