package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/inodb/graphvcf/internal/chrom"
	"github.com/inodb/graphvcf/internal/spool"
)

// configKeys lists the settings that may be stored in the config file.
var configKeys = map[string]func(string) (any, error){
	"ignore": func(s string) (any, error) {
		level, err := chrom.ParseLevel(s)
		return int(level), err
	},
	"skip": func(s string) (any, error) {
		var kws []string
		for _, k := range strings.Split(s, ",") {
			if k = strings.TrimSpace(k); k != "" {
				kws = append(kws, k)
			}
		}
		return kws, nil
	},
	"threads":       parseNonNegative,
	"block_size":    parsePositive,
	"batch_size":    parsePositive,
	"segment_cache": parsePositive,
	"spool_codec": func(s string) (any, error) {
		c, err := spool.ParseCodec(s)
		return c.String(), err
	},
	"spool_dir": func(s string) (any, error) { return s, nil },
}

func parseNonNegative(s string) (any, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("expected a non-negative integer, got %q", s)
	}
	return n, nil
}

func parsePositive(s string) (any, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("expected a positive integer, got %q", s)
	}
	return n, nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage graphvcf configuration",
		Long: `Show, get, or set configuration values. Config is stored in ~/.graphvcf.yaml.
Values resolve in the order flags, GRAPHVCF_* environment variables, config
file, built-in defaults.`,
		Example: `  graphvcf config                       # show effective config
  graphvcf config set ignore 4          # normalize to chr1..chr22, chrX, chrY, chrM
  graphvcf config set skip random,alt   # drop records on these contigs
  graphvcf config get threads           # get a value`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	}
}

func runConfigShow(w io.Writer) error {
	settings := make(map[string]any, len(configKeys))
	for key := range configKeys {
		settings[key] = viper.Get(key)
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprintf(w, "# config file: %s\n", configFilePath())
	fmt.Fprint(w, string(out))
	return nil
}

func configFilePath() string {
	if f := viper.ConfigFileUsed(); f != "" {
		return f
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".graphvcf.yaml"
	}
	return filepath.Join(home, ".graphvcf.yaml")
}

func runConfigSet(w io.Writer, key, value string) error {
	parse, ok := configKeys[key]
	if !ok {
		return usagef("unknown config key %q (known: %s)", key, strings.Join(knownKeys(), ", "))
	}
	v, err := parse(value)
	if err != nil {
		return usagef("invalid value for %s: %v", key, err)
	}

	// Only the file's own settings are written back, not flag defaults.
	cfgFile := configFilePath()
	file := viper.New()
	file.SetConfigFile(cfgFile)
	if err := file.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading config: %w", err)
	}
	file.Set(key, v)

	if err := file.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(w, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(w io.Writer, key string) error {
	if _, ok := configKeys[key]; !ok {
		return usagef("unknown config key %q (known: %s)", key, strings.Join(knownKeys(), ", "))
	}
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(w, val)
	return nil
}

func knownKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
