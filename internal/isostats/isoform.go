// Package isostats computes per-isoform and per-gene structure statistics of
// reference and reconstructed isoform sets.
package isostats

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/inodb/isobench/internal/isoform"
	"github.com/inodb/isobench/internal/output"
)

// Mode selects how isoform boundaries are reported.
type Mode int

const (
	// ModeReference reports point boundaries.
	ModeReference Mode = iota
	// ModeRange also reports the widths of the start and end regions.
	ModeRange
)

var (
	referenceColumns = []string{"#Chromosome", "strand", "isoform_id", "introns number",
		"isoform len", "mean introns len", "mean exons len", "sum exons len"}
	rangeColumns = []string{"#Chromosome", "strand", "isoform_id", "introns number",
		"start len", "end len", "isoform len", "mean introns len", "mean exons len", "sum exons len"}
)

// Columns returns the header of the isoform statistics table.
func (m Mode) Columns() []string {
	if m == ModeRange {
		return rangeColumns
	}
	return referenceColumns
}

// Exons derives the exons of an isoform from its intron chain, from the
// leftmost to the rightmost boundary.
func Exons(iso *isoform.Isoform) []isoform.Region {
	start, end := iso.Span()
	exons := make([]isoform.Region, 0, len(iso.Introns)+1)
	next := start
	for _, in := range iso.Introns {
		exons = append(exons, isoform.Region{Start: next, End: in.Start - 1})
		next = in.End + 1
	}
	return append(exons, isoform.Region{Start: next, End: end})
}

// IsoformStats holds the statistics of one isoform.
type IsoformStats struct {
	Chrom      string
	Strand     string
	ID         string
	Introns    int
	StartLen   int64 // transcription start region width, strand-aware
	EndLen     int64
	Len        int64
	IntronLens []int64
	ExonLens   []int64
}

// Compute returns the statistics of an isoform.
func Compute(iso *isoform.Isoform) IsoformStats {
	start, end := iso.Span()
	st := IsoformStats{
		Chrom:    iso.Chrom,
		Strand:   iso.Strand,
		ID:       iso.ID(),
		Introns:  len(iso.Introns),
		StartLen: iso.Start.Len(),
		EndLen:   iso.End.Len(),
		Len:      end - start + 1,
	}
	if iso.Strand == isoform.StrandReverse {
		st.StartLen, st.EndLen = st.EndLen, st.StartLen
	}
	for _, in := range iso.Introns {
		st.IntronLens = append(st.IntronLens, in.Len())
	}
	for _, ex := range Exons(iso) {
		st.ExonLens = append(st.ExonLens, ex.Len())
	}
	return st
}

// SumExons returns the total exon length.
func (st IsoformStats) SumExons() int64 {
	var sum int64
	for _, l := range st.ExonLens {
		sum += l
	}
	return sum
}

// Row formats the statistics as a table row for the given mode.
func (st IsoformStats) Row(m Mode) []string {
	row := []string{st.Chrom, st.Strand, st.ID, output.Int(st.Introns)}
	if m == ModeRange {
		row = append(row, output.Int(st.StartLen), output.Int(st.EndLen))
	}
	return append(row,
		output.Int(st.Len),
		output.Mean(st.IntronLens),
		output.Mean(st.ExonLens),
		output.Int(st.SumExons()))
}

// WriteIsoformStats writes one statistics row per isoform read from r.
func WriteIsoformStats(w io.Writer, r *isoform.Reader, m Mode) (int, error) {
	tw := output.NewTabWriter(w, m.Columns()...)
	if err := tw.WriteHeader(); err != nil {
		return 0, err
	}
	for {
		iso, err := r.Next()
		if err != nil {
			return tw.Rows(), err
		}
		if iso == nil {
			break
		}
		if err := tw.Write(Compute(iso).Row(m)...); err != nil {
			return tw.Rows(), err
		}
	}
	return tw.Rows(), tw.Flush()
}

// IsoformStatsFile computes isoform statistics of inPath into outPath.
func IsoformStatsFile(inPath, outPath string, m Mode, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r, err := isoform.Open(inPath)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	f, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("create isoform stats: %w", err)
	}
	defer f.Close()

	n, err := WriteIsoformStats(f, r, m)
	if err != nil {
		return n, fmt.Errorf("isoform stats %s: %w", inPath, err)
	}
	if err := f.Close(); err != nil {
		return n, err
	}
	logger.Info("wrote isoform statistics", zap.String("path", outPath), zap.Int("isoforms", n))
	return n, nil
}
