package genes

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/inodb/isobench/internal/fileio"
	"github.com/inodb/isobench/internal/isoform"
)

// Default overlap thresholds for gene assignment.
const (
	DefaultMinFraction    = 0.1
	DefaultAcceptFraction = 0.8
)

// AssignOptions controls gene assignment.
type AssignOptions struct {
	// MinFraction is the smallest overlap fraction for a gene to be a candidate.
	MinFraction float64
	// AcceptFraction is the overlap fraction at which a gene is taken at once.
	AcceptFraction float64
}

// DefaultAssignOptions returns the default thresholds.
func DefaultAssignOptions() AssignOptions {
	return AssignOptions{
		MinFraction:    DefaultMinFraction,
		AcceptFraction: DefaultAcceptFraction,
	}
}

// Validate checks that both fractions lie in (0, 1] and that MinFraction
// does not exceed AcceptFraction.
func (o AssignOptions) Validate() error {
	if o.MinFraction <= 0 || o.MinFraction > 1 {
		return fmt.Errorf("min fraction %v out of range (0, 1]", o.MinFraction)
	}
	if o.AcceptFraction <= 0 || o.AcceptFraction > 1 {
		return fmt.Errorf("accept fraction %v out of range (0, 1]", o.AcceptFraction)
	}
	if o.MinFraction > o.AcceptFraction {
		return fmt.Errorf("min fraction %v exceeds accept fraction %v", o.MinFraction, o.AcceptFraction)
	}
	return nil
}

// Assign returns the gene ID best overlapping [start, end] on the given
// chromosome and strand, or Unassigned.
//
// The overlap fraction is the overlap divided by the shorter of the gene and
// the query. The first gene in annotation order reaching AcceptFraction wins
// outright. Otherwise the gene with the greatest fraction of at least
// MinFraction wins, ties going to the earlier gene.
func (idx *Index) Assign(chrom, strand string, start, end int64, opts AssignOptions) string {
	best := Unassigned
	bestFraction := 0.0
	queryLen := spanLen(start, end)

	for _, g := range idx.overlapping(chrom, strand, start, end) {
		ov := overlap(g.Start, g.End, start, end)
		if ov <= 0 {
			continue
		}
		fraction := float64(ov) / float64(min(g.Len(), queryLen))
		if fraction < opts.MinFraction {
			continue
		}
		if fraction > bestFraction {
			best = g.ID
			bestFraction = fraction
		}
		if fraction >= opts.AcceptFraction {
			return g.ID
		}
	}
	return best
}

// Assigner appends gene IDs to reconstructed isoform files.
type Assigner struct {
	index  *Index
	opts   AssignOptions
	logger *zap.Logger
}

// NewAssigner creates an assigner over a loaded gene index.
func NewAssigner(idx *Index, opts AssignOptions) *Assigner {
	return &Assigner{index: idx, opts: opts, logger: zap.NewNop()}
}

// SetLogger sets the logger for progress messages.
func (a *Assigner) SetLogger(l *zap.Logger) {
	a.logger = l
}

// AssignIsoform returns a copy of iso holding its five structure columns and
// the assigned gene ID. The query spans the start region's first position to
// the end region's last position.
func (a *Assigner) AssignIsoform(iso *isoform.Isoform) *isoform.Isoform {
	start, end := iso.Span()
	gene := a.index.Assign(iso.Chrom, iso.Strand, start, end, a.opts)
	return &isoform.Isoform{
		Chrom:   iso.Chrom,
		Strand:  iso.Strand,
		Start:   iso.Start,
		Introns: iso.Introns,
		End:     iso.End,
		Extra:   []string{gene},
	}
}

// AssignFile assigns genes to every isoform in inPath and writes the result
// to outPath. Returns the number of records written and the number left
// unassigned.
func (a *Assigner) AssignFile(inPath, outPath string) (written, unassigned int, err error) {
	r, err := isoform.Open(inPath)
	if err != nil {
		return 0, 0, err
	}
	defer r.Close()

	w, err := isoform.Create(outPath)
	if err != nil {
		return 0, 0, err
	}

	for {
		iso, err := r.Next()
		if err != nil {
			w.Close()
			return 0, 0, err
		}
		if iso == nil {
			break
		}
		assigned := a.AssignIsoform(iso)
		if assigned.ID() == Unassigned {
			unassigned++
		}
		if err := w.Write(assigned); err != nil {
			w.Close()
			return 0, 0, fmt.Errorf("write %s: %w", outPath, err)
		}
	}
	if err := w.Close(); err != nil {
		return 0, 0, fmt.Errorf("write %s: %w", outPath, err)
	}

	a.logger.Info("assigned genes",
		zap.String("input", inPath),
		zap.String("output", outPath),
		zap.Int("isoforms", w.Count()),
		zap.Int("unassigned", unassigned))
	return w.Count(), unassigned, nil
}

// AssignDir runs AssignFile for every file in inDir, writing each result
// under the same name in outDir. outDir is created if missing.
func (a *Assigner) AssignDir(inDir, outDir string) error {
	files, err := fileio.ListFiles(inDir)
	if err != nil {
		return err
	}
	if err := fileio.EnsureDir(outDir); err != nil {
		return err
	}
	for _, path := range files {
		if _, _, err := a.AssignFile(path, filepath.Join(outDir, filepath.Base(path))); err != nil {
			return err
		}
	}
	return nil
}
