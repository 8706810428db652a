package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/isobench/internal/isoform"
)

func newGTF2IsoCmd() *cobra.Command {
	var (
		gtfPath   string
		outPath   string
		idMode    string
		exclude   []string
		reference bool
	)

	cmd := &cobra.Command{
		Use:   "gtf2iso",
		Short: "Extract isoform structures from a GTF file",
		Long: `Extract one isoform structure (chrom, strand, start, introns, end) per
transcript of a GTF file. Exons must follow their transcript line in
transcription order.`,
		Example: `  isobench gtf2iso --gtf flic.gtf --out flic.tsv --id-mode gene-counter
  isobench gtf2iso --gtf TAIR10.gtf.gz --out reference.tsv --reference`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := isoform.ParseIDMode(idMode)
			if err != nil {
				return usageError{err}
			}
			if reference {
				if !cmd.Flags().Changed("id-mode") {
					mode = isoform.IDTranscript
				}
				exclude = append(exclude, isoform.OrganelleChromosomes...)
			}

			e := isoform.NewExtractor(mode)
			e.ExcludeChromosomes(exclude...)
			e.SetLogger(logger)
			_, err = e.ExtractFile(gtfPath, outPath)
			return err
		},
	}

	cmd.Flags().StringVar(&gtfPath, "gtf", "", "Input GTF file (plain or gzip)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output isoform file")
	cmd.Flags().StringVar(&idMode, "id-mode", string(isoform.IDTranscript), "Identifier column: none, transcript, gene-counter")
	cmd.Flags().StringSliceVar(&exclude, "exclude-chrom", nil, "Chromosomes to skip")
	cmd.Flags().BoolVar(&reference, "reference", false, "Reference preset: transcript IDs, organelle chromosomes skipped")
	markRequired(cmd, "gtf", "out")
	return cmd
}

func newConsensusCmd() *cobra.Command {
	var (
		inDir   string
		outPath string
		keepDir string
	)

	cmd := &cobra.Command{
		Use:   "consensus",
		Short: "Keep isoforms reconstructed in several replicates",
		Long: `Extract every GTF in a directory as one replicate and keep the isoforms
found in at least --min-reps replicates.`,
		Example: `  isobench consensus --in-dir stringtie/ --out stringtie.tsv --min-reps 2`,
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			minReps := viper.GetInt("consensus.min_reps")
			if minReps < 1 {
				return usageError{fmt.Errorf("min-reps must be at least 1, got %d", minReps)}
			}

			c := isoform.NewConsensus(minReps)
			c.SetLogger(logger)
			if keepDir != "" {
				c.KeepIntermediate(keepDir)
			}
			_, err := c.Run(inDir, outPath)
			return err
		},
	}

	cmd.Flags().StringVar(&inDir, "in-dir", "", "Directory of replicate GTF files")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output isoform file")
	cmd.Flags().Int("min-reps", 2, "Minimum number of replicates")
	cmd.Flags().StringVar(&keepDir, "keep-dir", "", "Keep per-replicate structure files in this directory")
	bindFlag(cmd, "consensus.min_reps", "min-reps")
	markRequired(cmd, "in-dir", "out")
	return cmd
}
