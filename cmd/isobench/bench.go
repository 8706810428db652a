package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/isobench/internal/bench"
	"github.com/inodb/isobench/internal/duckdb"
)

func newCompareCmd() *cobra.Command {
	var (
		refPath   string
		simDir    string
		modesPath string
		inPath    string
		outPath   string
		dbPath    string
		run       string
		replace   bool
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Score reconstructed isoforms against the simulated ground truth",
		Long: `Split the reference into expressed and non-expressed transcripts from the
simulated replicate counts, match reconstructed isoforms of the same gene, and
report precision, recall, F1 and true positives per distortion mode.

--in may be a file or a directory; with a directory every file is scored and
--out names the report directory. With --db, --replace-run first removes the
stored results of the run so files no longer scored do not linger.`,
		Example: `  isobench compare --ref ref.tsv --sim-dir sim/ --modes modes.tsv --in peaks/ --out stats/
  isobench compare --ref ref.tsv --sim-dir sim/ --modes modes.tsv --in peaks/ --out stats/ --db bench.duckdb --run flic`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := bench.ExpressionOptions{
				MinReps:  viper.GetInt("bench.min_reps"),
				MinCount: viper.GetInt64("bench.min_count"),
			}
			if opts.MinReps < 1 || opts.MinCount < 1 {
				return usageError{fmt.Errorf("min-reps and min-count must be at least 1")}
			}
			if replace && dbPath == "" {
				return usageError{fmt.Errorf("--replace-run requires --db")}
			}
			dir, err := isDir(inPath)
			if err != nil {
				return err
			}

			b, err := bench.New(bench.Config{
				RefPath:    refPath,
				SimDir:     simDir,
				ModesPath:  modesPath,
				Expression: opts,
			}, logger)
			if err != nil {
				return err
			}

			var rec bench.Recorder
			if dbPath != "" {
				store, err := duckdb.Open(dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				if replace {
					if err := store.ClearRun(run); err != nil {
						return err
					}
					logger.Info("cleared stored run", zap.String("run", run))
				}
				recDir := inPath
				if !dir {
					recDir = filepath.Dir(inPath)
				}
				rec = store.Recorder(run, recDir)
			}

			if dir {
				return b.ScoreDir(inPath, outPath, rec)
			}
			st, err := b.ScoreFile(inPath)
			if err != nil {
				return err
			}
			if err := st.WriteFile(outPath); err != nil {
				return err
			}
			if rec != nil {
				return rec.RecordBenchmark(filepath.Base(inPath), st)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&refPath, "ref", "", "Reference isoform file with transcript IDs")
	cmd.Flags().StringVar(&simDir, "sim-dir", "", "Directory of simulated counts, one file per replicate")
	cmd.Flags().StringVar(&modesPath, "modes", "", "Transcript modes file")
	cmd.Flags().StringVar(&inPath, "in", "", "Reconstructed isoform file or directory with gene IDs")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output report file or directory")
	cmd.Flags().StringVar(&dbPath, "db", "", "Also store results in this DuckDB database")
	cmd.Flags().StringVar(&run, "run", "default", "Run label for stored results")
	cmd.Flags().BoolVar(&replace, "replace-run", false, "Remove stored results of the run before scoring")
	cmd.Flags().Int("min-reps", bench.DefaultMinReps, "Replicates that must detect an expressed transcript")
	cmd.Flags().Int64("min-count", bench.DefaultMinCount, "Read count one replicate must reach")
	bindFlag(cmd, "bench.min_reps", "min-reps")
	bindFlag(cmd, "bench.min_count", "min-count")
	markRequired(cmd, "ref", "sim-dir", "modes", "in", "out")
	return cmd
}

func newReportCmd() *cobra.Command {
	var dbPath, run, outPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print stored benchmark results",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("open results database: %w", err)
			}
			store, err := duckdb.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			rows, err := store.Benchmarks(run)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create report: %w", err)
				}
				defer f.Close()
				out = f
			}
			if err := duckdb.WriteReport(out, rows); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			logger.Info("reported benchmark results", zap.Int("rows", len(rows)))
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "DuckDB results database")
	cmd.Flags().StringVar(&run, "run", "", "Only report this run")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default: stdout)")
	markRequired(cmd, "db")
	return cmd
}
