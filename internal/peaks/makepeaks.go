package peaks

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/inodb/isobench/internal/fileio"
	"github.com/inodb/isobench/internal/isoform"
)

// widen returns [pos-half, pos+half] with the lower bound clamped to 1.
func widen(pos, half int64) isoform.Region {
	return isoform.Region{Start: max(pos-half, 1), End: pos + half}
}

// MakePeaks widens point boundaries of iso into ranges sized by its gene's
// peak widths. On "+" the start takes the TSS half-width and the end the PA
// half-width; on "-" they swap. Isoforms whose start is already a range are
// returned unchanged. The second result is false when the gene, taken from
// the last column, is not in the table.
func (wt *WidthTable) MakePeaks(iso *isoform.Isoform) (*isoform.Isoform, bool) {
	gw, ok := wt.Get(iso.ID())
	if !ok {
		return nil, false
	}
	if !iso.Start.IsPoint() {
		return iso, true
	}

	tssHalf, paHalf := gw.Halves()
	startHalf, endHalf := tssHalf, paHalf
	if iso.Strand != isoform.StrandForward {
		startHalf, endHalf = paHalf, tssHalf
	}

	out := *iso
	out.Start = widen(iso.Start.Start, startHalf)
	out.End = widen(iso.End.End, endHalf)
	return &out, true
}

// PeakMaker writes peak-range isoform files for genes with known peak widths.
type PeakMaker struct {
	table  *WidthTable
	logger *zap.Logger
}

// NewPeakMaker creates a peak maker over a width table.
func NewPeakMaker(wt *WidthTable) *PeakMaker {
	return &PeakMaker{table: wt, logger: zap.NewNop()}
}

// SetLogger sets the logger for progress messages.
func (m *PeakMaker) SetLogger(l *zap.Logger) {
	m.logger = l
}

// MakeFile widens the isoforms of inPath into outPath, dropping those whose
// gene has no widths. Returns the number of isoforms kept and dropped.
func (m *PeakMaker) MakeFile(inPath, outPath string) (kept, dropped int, err error) {
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
		out, ok := m.table.MakePeaks(iso)
		if !ok {
			dropped++
			continue
		}
		if err := w.Write(out); err != nil {
			w.Close()
			return 0, 0, fmt.Errorf("write %s: %w", outPath, err)
		}
	}
	if err := w.Close(); err != nil {
		return 0, 0, fmt.Errorf("write %s: %w", outPath, err)
	}

	m.logger.Info("made isoform peaks",
		zap.String("input", inPath),
		zap.String("output", outPath),
		zap.Int("kept", w.Count()),
		zap.Int("dropped", dropped))
	return w.Count(), dropped, nil
}

// MakeDir runs MakeFile for every file in inDir, writing each result under
// the same name in outDir. outDir is created if missing.
func (m *PeakMaker) MakeDir(inDir, outDir string) error {
	files, err := fileio.ListFiles(inDir)
	if err != nil {
		return err
	}
	if err := fileio.EnsureDir(outDir); err != nil {
		return err
	}
	for _, path := range files {
		if _, _, err := m.MakeFile(path, filepath.Join(outDir, filepath.Base(path))); err != nil {
			return err
		}
	}
	return nil
}

// FilterReference keeps the reference isoforms of inPath whose gene, the
// transcript ID without its version suffix, is in the width table.
// Returns the number of isoforms kept.
func FilterReference(inPath, outPath string, wt *WidthTable, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	all, err := isoform.ReadAll(inPath)
	if err != nil {
		return 0, err
	}
	var kept []*isoform.Isoform
	for _, iso := range all {
		if wt.Has(fileio.TrimVersion(iso.ID())) {
			kept = append(kept, iso)
		}
	}
	if err := isoform.WriteFile(outPath, kept); err != nil {
		return 0, err
	}

	logger.Info("filtered reference isoforms",
		zap.String("input", inPath),
		zap.Int("total", len(all)),
		zap.Int("kept", len(kept)))
	return len(kept), nil
}
