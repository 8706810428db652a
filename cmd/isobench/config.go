package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/inodb/isobench/internal/bench"
	"github.com/inodb/isobench/internal/genes"
	"github.com/inodb/isobench/internal/simulate"
)

// configKey is a tunable read through viper. Its default also fixes the type
// accepted by "config set".
type configKey struct {
	name  string
	def   any
	usage string
}

var configKeys = []configKey{
	{"assign.min_fraction", genes.DefaultMinFraction, "assign-genes: smallest overlap fraction for a candidate gene"},
	{"assign.accept_fraction", genes.DefaultAcceptFraction, "assign-genes: overlap fraction taken at once"},
	{"distort.shift", int64(simulate.DefaultShift), "distort: boundary shift in bases"},
	{"distort.seed", int64(1), "distort: random seed for mode selection"},
	{"consensus.min_reps", 2, "consensus: replicates an isoform must appear in"},
	{"bench.min_reps", bench.DefaultMinReps, "compare: replicates that must detect an expressed transcript"},
	{"bench.min_count", int64(bench.DefaultMinCount), "compare: read count one replicate must reach"},
	{"log.level", "info", "log level: debug, info, warn, error"},
}

func setDefaults() {
	for _, k := range configKeys {
		viper.SetDefault(k.name, k.def)
	}
}

func lookupConfigKey(name string) (configKey, bool) {
	for _, k := range configKeys {
		if k.name == name {
			return k, true
		}
	}
	return configKey{}, false
}

// keyHelp lists the keys with their defaults for command help.
func keyHelp() string {
	var b strings.Builder
	for _, k := range configKeys {
		fmt.Fprintf(&b, "  %-24s %-6v %s\n", k.name, k.def, k.usage)
	}
	return b.String()
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage isobench configuration",
		Long: `Show, get, or set configuration values. Config is stored in ~/.isobench.yaml
and every key can also be set through ISOBENCH_<KEY> with dots as underscores,
e.g. ISOBENCH_DISTORT_SEED=7. Command-line flags take precedence.

Keys and defaults:
` + keyHelp(),
		Example: `  isobench config                              # show values set in the config file
  isobench config keys                         # list every key with its current value
  isobench config set assign.min_fraction 0.2  # raise the candidate threshold
  isobench config get distort.seed             # get a value`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(newConfigSetCmd(), newConfigGetCmd(), newConfigKeysCmd())
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

func newConfigKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List configuration keys with their current values",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, k := range configKeys {
				if _, err := fmt.Fprintf(w, "%s\t%v\n", k.name, viper.Get(k.name)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// runConfigShow prints the values read from the config file.
func runConfigShow(w io.Writer) error {
	settings := make(map[string]any)
	for _, k := range configKeys {
		if viper.InConfig(k.name) {
			settings[k.name] = viper.Get(k.name)
		}
	}
	if len(settings) == 0 {
		fmt.Fprintln(w, "# No configuration set. Config file: ~/.isobench.yaml")
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(w, string(out))
	return nil
}

// parseConfigValue converts value to the type of the key's default.
func parseConfigValue(k configKey, value string) (any, error) {
	switch k.def.(type) {
	case float64:
		return strconv.ParseFloat(value, 64)
	case int:
		return strconv.Atoi(value)
	case int64:
		return strconv.ParseInt(value, 10, 64)
	}
	if k.name == "log.level" {
		if _, err := zapcore.ParseLevel(value); err != nil {
			return nil, err
		}
	}
	return value, nil
}

func runConfigSet(w io.Writer, key, value string) error {
	k, ok := lookupConfigKey(key)
	if !ok {
		return usageError{fmt.Errorf("unknown config key %q (see isobench config keys)", key)}
	}
	v, err := parseConfigValue(k, value)
	if err != nil {
		return usageError{fmt.Errorf("invalid value for %s: %w", key, err)}
	}
	viper.Set(key, v)

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".isobench.yaml")
	}

	// Only keys that were set explicitly go to the file, not the defaults.
	settings := make(map[string]any)
	for _, k := range configKeys {
		if viper.InConfig(k.name) || k.name == key {
			settings[k.name] = viper.Get(k.name)
		}
	}
	if err := writeConfigFile(cfgFile, settings); err != nil {
		return err
	}

	fmt.Fprintf(w, "Set %s = %v in %s\n", key, v, cfgFile)
	return nil
}

// writeConfigFile writes dotted keys as nested YAML sections.
func writeConfigFile(path string, settings map[string]any) error {
	nested := make(map[string]map[string]any)
	for key, v := range settings {
		section, name, _ := strings.Cut(key, ".")
		if nested[section] == nil {
			nested[section] = make(map[string]any)
		}
		nested[section][name] = v
	}
	out, err := yaml.Marshal(nested)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func runConfigGet(w io.Writer, key string) error {
	if _, ok := lookupConfigKey(key); !ok {
		return usageError{fmt.Errorf("unknown config key %q (see isobench config keys)", key)}
	}
	fmt.Fprintln(w, viper.Get(key))
	return nil
}
