package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/graphvcf/internal/fileio"
	"github.com/inodb/graphvcf/internal/header"
	"github.com/inodb/graphvcf/internal/mapping"
)

func newHeaderCmd() *cobra.Command {
	var reference, output string

	cmd := &cobra.Command{
		Use:   "header [flags] <input>",
		Short: "Synthesize a complete header from the variant body",
		Long: `Infer INFO and FORMAT declarations from the variant body and contig
declarations from the reference table, then write the new header followed
by the unchanged body. Existing INFO and FORMAT declarations are kept.`,
		Example: `  graphvcf header -r reference.tsv -o withheader.vcf rewritten.vcf
  graphvcf header --ignore 5 -r reference.tsv -t 8 rewritten.vcf.gz > out.vcf`,
		Args: usageArgs(cobra.ExactArgs(1)),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			bindFlags(cmd.Flags(), map[string]string{"block_size": "block-size"})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeader(cmd.Context(), args[0], reference, output)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&reference, "reference", "r", "", "Reference extraction table supplying contig lengths")
	f.StringVarP(&output, "output", "o", "-", "Output file, '.gz' suffix compresses")
	f.Int("block-size", header.DefaultBlockSize, "Lines per inference block")

	return cmd
}

func newHeaderEngine(ref *mapping.Reference, threads int) (*header.Engine, error) {
	level, err := policyLevel()
	if err != nil {
		return nil, err
	}
	dir, codec, err := spoolSettings()
	if err != nil {
		return nil, err
	}
	e := header.NewEngine(header.Options{
		Reference: ref,
		Level:     level,
		BlockSize: viper.GetInt("block_size"),
		Workers:   threads,
		SpoolDir:  dir,
		Codec:     codec,
	})
	e.SetLogger(logger)
	return e, nil
}

func runHeader(ctx context.Context, input, reference, output string) error {
	var ref *mapping.Reference
	if reference != "" {
		var err error
		ref, err = mapping.LoadReference(reference)
		if err != nil {
			return err
		}
		logger.Info("reference table loaded",
			zap.Int("paths", len(ref.Paths())),
			zap.Int("skipped", ref.Stats.Skipped))
	}

	engine, err := newHeaderEngine(ref, viper.GetInt("threads"))
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

	res, err := engine.Run(ctx, in, out)
	if err != nil {
		return err
	}
	if err := out.Commit(); err != nil {
		return err
	}

	logger.Info("header written",
		zap.String("output", out.Path()),
		zap.Int("header_lines", len(res.Header)),
		zap.Int("inferred", res.Inferred),
		zap.Int64("body_lines", res.BodyLines))
	return nil
}
