package peaks

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/isobench/internal/isoform"
)

// peakKey identifies a peak by location.
type peakKey struct {
	chrom  string
	strand string
	region isoform.Region
}

func (k peakKey) String() string {
	return fmt.Sprintf("%s*%s*%d-%d", k.chrom, k.strand, k.region.Start, k.region.End)
}

// SummitTable maps peak regions to their summits.
//
// The left table holds the genomically leftmost isoform boundary: TSS peaks on
// "+" and PA peaks on "-". The right table holds TSS peaks on "-" and PA peaks
// on "+".
type SummitTable struct {
	left  map[peakKey]int64
	right map[peakKey]int64
}

// NewSummitTable builds a summit table from TSS and PA peak calls.
// Later peaks with the same location replace earlier ones.
func NewSummitTable(tss, pa []*Peak) *SummitTable {
	st := &SummitTable{
		left:  make(map[peakKey]int64),
		right: make(map[peakKey]int64),
	}
	add := func(peaks []*Peak, forward, reverse map[peakKey]int64) {
		for _, p := range peaks {
			key := peakKey{chrom: p.Chrom, strand: p.Strand, region: p.Region()}
			if p.Strand == isoform.StrandForward {
				forward[key] = p.Summit()
			} else {
				reverse[key] = p.Summit()
			}
		}
	}
	add(tss, st.left, st.right)
	add(pa, st.right, st.left)
	return st
}

// Len returns the number of left and right entries.
func (st *SummitTable) Len() (left, right int) {
	return len(st.left), len(st.right)
}

// ToPoints returns a copy of iso whose start and end regions are replaced by
// the summits of the peaks they name. The last trailing column is dropped.
func (st *SummitTable) ToPoints(iso *isoform.Isoform) (*isoform.Isoform, error) {
	startKey := peakKey{chrom: iso.Chrom, strand: iso.Strand, region: iso.Start}
	start, ok := st.left[startKey]
	if !ok {
		return nil, fmt.Errorf("no peak %s for isoform start", startKey)
	}
	endKey := peakKey{chrom: iso.Chrom, strand: iso.Strand, region: iso.End}
	end, ok := st.right[endKey]
	if !ok {
		return nil, fmt.Errorf("no peak %s for isoform end", endKey)
	}

	out := &isoform.Isoform{
		Chrom:   iso.Chrom,
		Strand:  iso.Strand,
		Start:   isoform.Point(start),
		Introns: iso.Introns,
		End:     isoform.Point(end),
	}
	if n := len(iso.Extra); n > 1 {
		out.Extra = append([]string(nil), iso.Extra[:n-1]...)
	}
	return out, nil
}

// PeakPoints reads the TSS and PA peak files, converts every isoform in
// isoPath to summit points and writes them to outPath.
// Returns the number of isoforms written.
func PeakPoints(tssPath, paPath, isoPath, outPath string, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tss, err := ReadPeaks(tssPath)
	if err != nil {
		return 0, err
	}
	pa, err := ReadPeaks(paPath)
	if err != nil {
		return 0, err
	}
	st := NewSummitTable(tss, pa)

	r, err := isoform.Open(isoPath)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	w, err := isoform.Create(outPath)
	if err != nil {
		return 0, err
	}
	for {
		iso, err := r.Next()
		if err != nil {
			w.Close()
			return 0, err
		}
		if iso == nil {
			break
		}
		pt, err := st.ToPoints(iso)
		if err != nil {
			w.Close()
			return 0, fmt.Errorf("%s: %w", isoPath, err)
		}
		if err := w.Write(pt); err != nil {
			w.Close()
			return 0, fmt.Errorf("write %s: %w", outPath, err)
		}
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("write %s: %w", outPath, err)
	}

	left, right := st.Len()
	logger.Info("converted peaks to summit points",
		zap.Int("tss_peaks", len(tss)),
		zap.Int("pa_peaks", len(pa)),
		zap.Int("left_summits", left),
		zap.Int("right_summits", right),
		zap.Int("isoforms", w.Count()))
	return w.Count(), nil
}
