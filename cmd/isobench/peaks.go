package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/isobench/internal/genes"
	"github.com/inodb/isobench/internal/peaks"
)

func newPeakPointsCmd() *cobra.Command {
	var tssPath, paPath, inPath, outPath string

	cmd := &cobra.Command{
		Use:   "peak-points",
		Short: "Replace peak regions of isoforms with peak summits",
		Long: `Replace the start and end regions of each isoform with the summits of the
matching CAGEfightR TSS and PA peaks. The last input column is dropped.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := peaks.PeakPoints(tssPath, paPath, inPath, outPath, logger)
			return err
		},
	}

	cmd.Flags().StringVar(&tssPath, "tss", "", "TSS peak file")
	cmd.Flags().StringVar(&paPath, "pa", "", "PA peak file")
	cmd.Flags().StringVar(&inPath, "in", "", "Isoform file with peak regions")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output isoform file")
	markRequired(cmd, "tss", "pa", "in", "out")
	return cmd
}

func newAssignGenesCmd() *cobra.Command {
	var gtfPath, inPath, outPath string

	cmd := &cobra.Command{
		Use:   "assign-genes",
		Short: "Assign reconstructed isoforms to reference genes",
		Long: `Append the best overlapping reference gene, or unassigned_gene, to every
isoform. --in may be a file or a directory of files.`,
		Example: `  isobench assign-genes --gtf TAIR10.gtf --in isoforms/ --out assigned/`,
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := genes.AssignOptions{
				MinFraction:    viper.GetFloat64("assign.min_fraction"),
				AcceptFraction: viper.GetFloat64("assign.accept_fraction"),
			}
			if err := opts.Validate(); err != nil {
				return usageError{err}
			}
			dir, err := isDir(inPath)
			if err != nil {
				return err
			}

			idx, err := genes.Load(gtfPath, logger)
			if err != nil {
				return err
			}
			a := genes.NewAssigner(idx, opts)
			a.SetLogger(logger)
			if dir {
				return a.AssignDir(inPath, outPath)
			}
			_, _, err = a.AssignFile(inPath, outPath)
			return err
		},
	}

	cmd.Flags().StringVar(&gtfPath, "gtf", "", "Reference GTF with gene lines")
	cmd.Flags().StringVar(&inPath, "in", "", "Isoform file or directory")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file or directory")
	cmd.Flags().Float64("min-fraction", genes.DefaultMinFraction, "Minimum overlap fraction for a candidate gene")
	cmd.Flags().Float64("accept-fraction", genes.DefaultAcceptFraction, "Overlap fraction accepted at once")
	bindFlag(cmd, "assign.min_fraction", "min-fraction")
	bindFlag(cmd, "assign.accept_fraction", "accept-fraction")
	markRequired(cmd, "gtf", "in", "out")
	return cmd
}

func newPeakWidthsCmd() *cobra.Command {
	var gtfPath, tssPath, paPath, outPath string

	cmd := &cobra.Command{
		Use:   "peak-widths",
		Short: "Compute the widest TSS and PA peak per gene",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := peaks.PeakWidths(gtfPath, tssPath, paPath, outPath, logger)
			return err
		},
	}

	cmd.Flags().StringVar(&gtfPath, "gtf", "", "Reference GTF with gene lines")
	cmd.Flags().StringVar(&tssPath, "tss", "", "TSS peak file")
	cmd.Flags().StringVar(&paPath, "pa", "", "PA peak file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output peak-width table")
	markRequired(cmd, "gtf", "tss", "pa", "out")
	return cmd
}

func newMakePeaksCmd() *cobra.Command {
	var widthsPath, inPath, outPath string

	cmd := &cobra.Command{
		Use:   "make-peaks",
		Short: "Widen point boundaries of isoforms to gene peak widths",
		Long: `Keep isoforms whose gene is in the peak-width table and widen point starts
and ends by half the gene's TSS and PA peak widths. --in may be a file or a
directory of files.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := isDir(inPath)
			if err != nil {
				return err
			}
			wt, err := peaks.ReadWidthTable(widthsPath)
			if err != nil {
				return err
			}

			m := peaks.NewPeakMaker(wt)
			m.SetLogger(logger)
			if dir {
				return m.MakeDir(inPath, outPath)
			}
			_, _, err = m.MakeFile(inPath, outPath)
			return err
		},
	}

	cmd.Flags().StringVar(&widthsPath, "widths", "", "Peak-width table")
	cmd.Flags().StringVar(&inPath, "in", "", "Isoform file or directory with gene IDs")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file or directory")
	markRequired(cmd, "widths", "in", "out")
	return cmd
}

func newFilterRefCmd() *cobra.Command {
	var widthsPath, inPath, outPath string

	cmd := &cobra.Command{
		Use:   "filter-ref",
		Short: "Keep reference isoforms of genes with peak widths",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			wt, err := peaks.ReadWidthTable(widthsPath)
			if err != nil {
				return err
			}
			_, err = peaks.FilterReference(inPath, outPath, wt, logger)
			return err
		},
	}

	cmd.Flags().StringVar(&widthsPath, "widths", "", "Peak-width table")
	cmd.Flags().StringVar(&inPath, "in", "", "Reference isoform file with transcript IDs")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output isoform file")
	markRequired(cmd, "widths", "in", "out")
	return cmd
}
