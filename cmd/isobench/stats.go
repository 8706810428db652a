package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodb/isobench/internal/isostats"
)

func newIsoStatsCmd() *cobra.Command {
	var inPath, outPath, mode string

	cmd := &cobra.Command{
		Use:   "iso-stats",
		Short: "Compute per-isoform structure statistics",
		Long: `Report intron count, isoform length, and mean intron and exon lengths per
isoform. --mode range also reports start and end region widths.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var m isostats.Mode
			switch mode {
			case "reference":
				m = isostats.ModeReference
			case "range":
				m = isostats.ModeRange
			default:
				return usageError{fmt.Errorf("unknown mode %q (want reference or range)", mode)}
			}
			_, err := isostats.IsoformStatsFile(inPath, outPath, m, logger)
			return err
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "Isoform file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output statistics file")
	cmd.Flags().StringVar(&mode, "mode", "reference", "Boundary mode: reference or range")
	markRequired(cmd, "in", "out")
	return cmd
}

func newGeneStatsCmd() *cobra.Command {
	var inPath, outPath string

	cmd := &cobra.Command{
		Use:   "gene-stats",
		Short: "Compare isoforms of each gene against its major isoform",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := isostats.GeneStatsFile(inPath, outPath, logger)
			return err
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "Isoform file with isoform IDs")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output statistics file")
	markRequired(cmd, "in", "out")
	return cmd
}
