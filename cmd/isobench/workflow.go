package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/isobench/internal/workflow"
)

func newWorkflowCmd() *cobra.Command {
	var (
		cfg  workflow.Config
		plan bool
	)

	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Run the benchmark chain for one reconstruction",
		Long: `Chain gtf2iso, assign-genes, peak-widths, make-peaks, filter-ref and compare
for one reconstructed GTF file. Steps whose outputs exist are skipped.`,
		Example: `  isobench workflow --gtf TAIR10.gtf --tss tss.bed --pa pa.bed --reconstructed flic.gtf \
    --ref ref.tsv --sim-dir sim/ --modes modes.tsv --out-dir results/ --plan`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Binary == "" {
				exe, err := os.Executable()
				if err != nil {
					return fmt.Errorf("locate isobench binary: %w", err)
				}
				cfg.Binary = exe
			}

			p, err := workflow.New(cfg)
			if err != nil {
				return usageError{err}
			}

			if plan {
				cmds, err := p.Commands()
				if err != nil {
					return err
				}
				for i, c := range cmds {
					fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s\n", p.Steps()[i].Name, c)
				}
				return nil
			}

			if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			logger.Info("running workflow",
				zap.String("reconstructed", cfg.Reconstructed),
				zap.String("out_dir", cfg.OutDir),
				zap.Int("steps", len(p.Steps())))
			return p.Run()
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Binary, "binary", "", "isobench executable used by the steps (default: this binary)")
	f.StringVar(&cfg.GTF, "gtf", "", "Reference GTF with gene lines")
	f.StringVar(&cfg.TSSPeaks, "tss", "", "TSS peak file")
	f.StringVar(&cfg.PAPeaks, "pa", "", "PA peak file")
	f.StringVar(&cfg.Reconstructed, "reconstructed", "", "Reconstructed transcripts in GTF")
	f.StringVar(&cfg.Reference, "ref", "", "Reference isoform file with transcript IDs")
	f.StringVar(&cfg.SimDir, "sim-dir", "", "Directory of simulated counts")
	f.StringVar(&cfg.Modes, "modes", "", "Transcript modes file")
	f.StringVar(&cfg.OutDir, "out-dir", "", "Output directory")
	f.StringVar(&cfg.DB, "db", "", "Also store results in this DuckDB database")
	f.StringVar(&cfg.Run, "run", "", "Run label for stored results")
	f.IntVar(&cfg.MaxTasks, "max-tasks", 1, "Maximum number of concurrent steps")
	f.BoolVar(&plan, "plan", false, "Print the step commands without running them")
	markRequired(cmd, "gtf", "tss", "pa", "reconstructed", "ref", "sim-dir", "modes", "out-dir")
	return cmd
}
