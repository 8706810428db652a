package peaks

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/isobench/internal/fileio"
	"github.com/inodb/isobench/internal/genes"
	"github.com/inodb/isobench/internal/output"
)

// Width table header columns.
var widthColumns = []string{"#gene_id", "TSS_width", "PA_width"}

// GeneWidth holds the widest TSS and PA peak of a gene.
type GeneWidth struct {
	GeneID string
	TSS    int64
	PA     int64
}

// Halves returns the TSS and PA widths halved, ties rounded to even.
func (gw GeneWidth) Halves() (tss, pa int64) {
	return halfEven(gw.TSS), halfEven(gw.PA)
}

func halfEven(w int64) int64 {
	return int64(output.RoundHalfEven(float64(w)/2, 0))
}

// WidthTable maps gene IDs to their peak widths.
type WidthTable struct {
	byGene map[string]GeneWidth
}

// NewWidthTable creates a table from the given rows.
func NewWidthTable(rows []GeneWidth) *WidthTable {
	wt := &WidthTable{byGene: make(map[string]GeneWidth, len(rows))}
	for _, r := range rows {
		wt.byGene[r.GeneID] = r
	}
	return wt
}

// Get returns the widths of a gene.
func (wt *WidthTable) Get(geneID string) (GeneWidth, bool) {
	gw, ok := wt.byGene[geneID]
	return gw, ok
}

// Has reports whether the gene has widths.
func (wt *WidthTable) Has(geneID string) bool {
	_, ok := wt.byGene[geneID]
	return ok
}

// Len returns the number of genes in the table.
func (wt *WidthTable) Len() int {
	return len(wt.byGene)
}

// Rows returns the table rows sorted by gene ID.
func (wt *WidthTable) Rows() []GeneWidth {
	rows := make([]GeneWidth, 0, len(wt.byGene))
	for _, gw := range wt.byGene {
		rows = append(rows, gw)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].GeneID < rows[j].GeneID })
	return rows
}

// MaxWidthByGene assigns each peak to the first overlapping gene and keeps the
// widest peak per gene. Returns the widths and the number of unassigned peaks.
func MaxWidthByGene(idx *genes.Index, peaks []*Peak) (map[string]int64, int) {
	widths := make(map[string]int64)
	unassigned := 0
	for _, p := range peaks {
		g := idx.FirstOverlap(p.Chrom, p.Strand, p.Start, p.End)
		if g == nil {
			unassigned++
			continue
		}
		if w, ok := widths[g.ID]; !ok || p.Width() > w {
			widths[g.ID] = p.Width()
		}
	}
	return widths, unassigned
}

// BuildWidthTable combines TSS and PA peak widths for genes that have both.
func BuildWidthTable(idx *genes.Index, tss, pa []*Peak, logger *zap.Logger) *WidthTable {
	if logger == nil {
		logger = zap.NewNop()
	}

	tssWidths, tssUnassigned := MaxWidthByGene(idx, tss)
	paWidths, paUnassigned := MaxWidthByGene(idx, pa)

	var rows []GeneWidth
	for gene, tw := range tssWidths {
		if pw, ok := paWidths[gene]; ok {
			rows = append(rows, GeneWidth{GeneID: gene, TSS: tw, PA: pw})
		}
	}

	logger.Info("peak widths by gene",
		zap.Int("tss_genes", len(tssWidths)),
		zap.Int("pa_genes", len(paWidths)),
		zap.Int("common_genes", len(rows)),
		zap.Int("unassigned_tss_peaks", tssUnassigned),
		zap.Int("unassigned_pa_peaks", paUnassigned))
	return NewWidthTable(rows)
}

// WriteWidthTable writes the table with its header to path.
func WriteWidthTable(path string, wt *WidthTable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create width table: %w", err)
	}
	defer f.Close()

	tw := output.NewTabWriter(f, widthColumns...)
	if err := tw.WriteHeader(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	for _, r := range wt.Rows() {
		if err := tw.Write(r.GeneID, output.Int(r.TSS), output.Int(r.PA)); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadWidthTable reads a table written by WriteWidthTable.
func ReadWidthTable(path string) (*WidthTable, error) {
	rc, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open width table: %w", err)
	}
	defer rc.Close()

	var rows []GeneWidth
	scanner := fileio.NewScanner(rc)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		fields := fileio.SplitTSV(line)
		if len(fields) != 3 {
			return nil, &fileio.ParseError{Path: path, Line: lineNumber,
				Message: fmt.Sprintf("expected 3 columns, found %d", len(fields))}
		}
		tss, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, &fileio.ParseError{Path: path, Line: lineNumber, Message: "invalid TSS width: " + err.Error()}
		}
		pa, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, &fileio.ParseError{Path: path, Line: lineNumber, Message: "invalid PA width: " + err.Error()}
		}
		rows = append(rows, GeneWidth{GeneID: fields[0], TSS: tss, PA: pa})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read width table: %w", err)
	}
	return NewWidthTable(rows), nil
}

// PeakWidths computes the width table from a gene annotation and TSS and PA
// peak files and writes it to outPath.
func PeakWidths(gtfPath, tssPath, paPath, outPath string, logger *zap.Logger) (*WidthTable, error) {
	idx, err := genes.Load(gtfPath, logger)
	if err != nil {
		return nil, err
	}
	tss, err := ReadPeaks(tssPath)
	if err != nil {
		return nil, err
	}
	pa, err := ReadPeaks(paPath)
	if err != nil {
		return nil, err
	}

	wt := BuildWidthTable(idx, tss, pa, logger)
	if err := WriteWidthTable(outPath, wt); err != nil {
		return nil, err
	}
	return wt, nil
}
