// Package main provides the isobench command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
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

// logger is built by the root command before any subcommand runs.
var logger = zap.NewNop()

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if isUsageError(err) {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

// usageError marks errors caused by invalid command-line input.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func isUsageError(err error) bool {
	var ue usageError
	if errors.As(err, &ue) {
		return true
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "required flag(s)") || strings.HasPrefix(msg, "unknown command")
}

// usageArgs wraps a positional argument validator so its errors exit with ExitUsage.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	root := &cobra.Command{
		Use:   "isobench",
		Short: "Benchmark transcript isoform reconstruction against a reference",
		Long: `isobench prepares simulated long-read RNA-seq ground truth and scores
reconstructed isoforms (IsoQuant, StringTie, TALON, FLIC) against it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cfgFile); err != nil {
				return err
			}
			l, err := newLogger(verbose, viper.GetString("log.level"))
			if err != nil {
				return usageError{err}
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.isobench.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug messages")
	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	bindFlag(root, "log.level", "log-level")

	root.AddCommand(
		newGTF2IsoCmd(),
		newConsensusCmd(),
		newPeakPointsCmd(),
		newAssignGenesCmd(),
		newPeakWidthsCmd(),
		newMakePeaksCmd(),
		newFilterRefCmd(),
		newCompareCmd(),
		newDistortCmd(),
		newFixModesCmd(),
		newIsoStatsCmd(),
		newGeneStatsCmd(),
		newReportCmd(),
		newWorkflowCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "isobench version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// initConfig reads the config file and ISOBENCH_ environment variables.
// A missing default config file is not an error.
func initConfig(cfgFile string) error {
	setDefaults()
	viper.SetEnvPrefix("ISOBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	viper.SetConfigFile(filepath.Join(home, ".isobench.yaml"))
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// bindFlag binds a config key to a flag so a set flag overrides the config value.
func bindFlag(cmd *cobra.Command, key, name string) {
	f := cmd.Flags().Lookup(name)
	if f == nil {
		f = cmd.PersistentFlags().Lookup(name)
	}
	_ = viper.BindPFlag(key, f)
}

// newLogger builds a console logger writing to stderr.
func newLogger(verbose bool, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.Sampling = nil
	return cfg.Build()
}

// isDir reports whether path is an existing directory.
func isDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// markRequired marks flags as required.
func markRequired(cmd *cobra.Command, names ...string) {
	for _, n := range names {
		_ = cmd.MarkFlagRequired(n)
	}
}
