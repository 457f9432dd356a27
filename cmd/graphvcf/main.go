// Package main provides the graphvcf command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/graphvcf/internal/chrom"
	"github.com/inodb/graphvcf/internal/spool"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// logger is configured by the root command before any subcommand runs.
var logger = zap.NewNop()

// usageError marks errors caused by invalid command-line input.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// usageArgs wraps a positional argument validator so that its failures
// exit with ExitUsage.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	logger.Sync()
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", root.Name())
		return ExitUsage
	}
	return ExitError
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	root := &cobra.Command{
		Use:   "graphvcf",
		Short: "Convert pangenome graph variant calls to linear reference coordinates",
		Long: `graphvcf rewrites variant records whose coordinates refer to pangenome
graph nodes into conventional reference coordinates, normalizes decorated
chromosome names and synthesizes missing header declarations.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cfgFile); err != nil {
				return err
			}
			l, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			logger = l
			return nil
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ~/.graphvcf.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	pf.IntP("ignore", "i", 0, "Chromosome name policy level (0-5)")
	pf.IntP("threads", "t", 1, "Worker threads (0 for all CPUs)")
	pf.String("spool-codec", "zstd", "Compression of temporary spool files: none, lz4, zstd")
	pf.String("spool-dir", "", "Directory for temporary spool files (default: system temp dir)")
	bindFlags(pf, map[string]string{
		"ignore":      "ignore",
		"threads":     "threads",
		"spool_codec": "spool-codec",
		"spool_dir":   "spool-dir",
	})

	root.AddCommand(newRewriteCmd())
	root.AddCommand(newHeaderCmd())
	root.AddCommand(newFilterCmd())
	root.AddCommand(newPathsCmd())
	root.AddCommand(newSegmentsCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// bindFlags binds viper keys to flags of fs, keyed by viper key.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if f := fs.Lookup(name); f != nil {
			viper.BindPFlag(key, f)
		}
	}
}

// initConfig reads the config file and environment. Settings resolve in
// the order flags, GRAPHVCF_* environment variables, config file, defaults.
func initConfig(cfgFile string) error {
	viper.SetDefault("ignore", 0)
	viper.SetDefault("threads", 1)
	viper.SetDefault("skip", []string{})
	viper.SetDefault("block_size", 100_000)
	viper.SetDefault("batch_size", 10_000)
	viper.SetDefault("spool_codec", "zstd")
	viper.SetDefault("spool_dir", "")
	viper.SetDefault("segment_cache", 1<<16)

	viper.SetEnvPrefix("GRAPHVCF")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		viper.SetConfigFile(filepath.Join(home, ".graphvcf.yaml"))
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopmentConfig().Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// policyLevel returns the configured chromosome name policy.
func policyLevel() (chrom.Level, error) {
	level, err := chrom.ParseLevel(viper.GetString("ignore"))
	if err != nil {
		return 0, &usageError{err: err}
	}
	return level, nil
}

// spoolSettings returns the configured spool directory and codec.
func spoolSettings() (string, spool.Codec, error) {
	codec, err := spool.ParseCodec(viper.GetString("spool_codec"))
	if err != nil {
		return "", 0, &usageError{err: err}
	}
	return viper.GetString("spool_dir"), codec, nil
}
