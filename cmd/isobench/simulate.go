package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/isobench/internal/simulate"
)

func newDistortCmd() *cobra.Command {
	var gtfPath, outPath, modesPath string

	cmd := &cobra.Command{
		Use:   "distort",
		Short: "Shift transcript boundaries of a reference annotation",
		Long: `Draw a distortion mode per transcript and shift its 5' and 3' ends:
  0 control, 1 5' shorter, 2 3' shorter, 3 5' longer, 4 3' longer,
  5 5' and 3' shorter, 6 5' and 3' longer.
Genes are resized to their transcripts and exons are trimmed to the new span.`,
		Example: `  isobench distort --gtf TAIR10.gtf --out distorted.gtf --modes-out modes.tsv --seed 7`,
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			shift := viper.GetInt64("distort.shift")
			if shift <= 0 {
				return usageError{fmt.Errorf("shift must be positive, got %d", shift)}
			}

			d := simulate.NewDistorter(shift, viper.GetInt64("distort.seed"))
			d.SetLogger(logger)
			return d.DistortFile(gtfPath, outPath, modesPath)
		},
	}

	cmd.Flags().StringVar(&gtfPath, "gtf", "", "Reference GTF file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output distorted GTF")
	cmd.Flags().StringVar(&modesPath, "modes-out", "", "Output transcript modes file")
	cmd.Flags().Int64("shift", simulate.DefaultShift, "Boundary shift in bases")
	cmd.Flags().Int64("seed", 1, "Random seed for mode selection")
	bindFlag(cmd, "distort.shift", "shift")
	bindFlag(cmd, "distort.seed", "seed")
	markRequired(cmd, "gtf", "out", "modes-out")
	return cmd
}

func newFixModesCmd() *cobra.Command {
	var realPath, distortedPath, modesPath, outPath string

	cmd := &cobra.Command{
		Use:   "fix-modes",
		Short: "Reset modes of transcripts the distortion left unchanged",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return simulate.FixModesFile(realPath, distortedPath, modesPath, outPath, logger)
		},
	}

	cmd.Flags().StringVar(&realPath, "real", "", "Original GTF file")
	cmd.Flags().StringVar(&distortedPath, "distorted", "", "Distorted GTF file")
	cmd.Flags().StringVar(&modesPath, "modes", "", "Transcript modes file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output modes file")
	markRequired(cmd, "real", "distorted", "modes", "out")
	return cmd
}
