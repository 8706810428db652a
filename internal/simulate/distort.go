package simulate

import (
	"fmt"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/inodb/isobench/internal/gtf"
)

// Distorter shifts transcript boundaries by randomly drawn modes.
type Distorter struct {
	shift  int64
	random *rand.Rand
	logger *zap.Logger
}

// NewDistorter creates a distorter. The same seed reproduces the same modes
// for the same annotation.
func NewDistorter(shift, seed int64) *Distorter {
	return &Distorter{
		shift:  shift,
		random: rand.New(rand.NewSource(seed)),
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for progress messages.
func (d *Distorter) SetLogger(l *zap.Logger) {
	d.logger = l
}

// DrawModes draws a uniform mode for every transcript in annotation order.
// A repeated transcript ID is drawn again and keeps its first position.
func (d *Distorter) DrawModes(features []*gtf.Feature) (Modes, error) {
	var modes Modes
	pos := make(map[string]int)
	for _, f := range features {
		if f.Type != gtf.FeatureTranscript {
			continue
		}
		id := f.TranscriptID()
		if id == "" {
			return nil, fmt.Errorf("transcript at %s:%d has no transcript_id", f.Chrom, f.Start)
		}
		m := Mode(d.random.Intn(NumModes))
		if i, ok := pos[id]; ok {
			modes[i].Mode = m
			continue
		}
		pos[id] = len(modes)
		modes = append(modes, Assignment{TranscriptID: id, Mode: m})
	}
	return modes, nil
}

// span is a closed coordinate range.
type span struct {
	start, end int64
}

// Apply rewrites the annotation with the given transcript modes.
//
// Transcripts are shifted, genes are set to the span of their shifted
// transcripts, and each transcript's exons are trimmed to its new span with
// the outer exon boundaries moved onto it. The result holds gene lines and
// transcript lines in input order, each transcript followed by its exons.
// Other feature types are dropped.
func (d *Distorter) Apply(features []*gtf.Feature, modes map[string]Mode) ([]*gtf.Feature, error) {
	geneSpans := make(map[string]*span)
	transcriptSpans := make(map[string]span)
	exons := make(map[string][]*gtf.Feature)

	for _, f := range features {
		switch f.Type {
		case gtf.FeatureTranscript:
			id := f.TranscriptID()
			m, ok := modes[id]
			if !ok {
				return nil, fmt.Errorf("transcript %s has no mode", id)
			}
			start, end := Shift(f.Start, f.End, f.Strand, m, d.shift)
			transcriptSpans[id] = span{start, end}

			gene := f.GeneID()
			gs, ok := geneSpans[gene]
			if !ok {
				gs = &span{start, end}
				geneSpans[gene] = gs
			}
			gs.start = min(gs.start, start)
			gs.end = max(gs.end, end)

			exons[id] = nil

		case gtf.FeatureExon:
			id := f.TranscriptID()
			if _, ok := exons[id]; !ok {
				d.logger.Warn("exon without transcript",
					zap.String("transcript_id", id),
					zap.String("chrom", f.Chrom),
					zap.Int64("start", f.Start))
				continue
			}
			exons[id] = append(exons[id], f)
		}
	}

	var out []*gtf.Feature
	for _, f := range features {
		switch f.Type {
		case gtf.FeatureGene:
			g := f.Clone()
			if gs, ok := geneSpans[f.GeneID()]; ok {
				g.Start, g.End = gs.start, gs.end
			}
			out = append(out, g)

		case gtf.FeatureTranscript:
			id := f.TranscriptID()
			ts := transcriptSpans[id]
			t := f.Clone()
			t.Start, t.End = ts.start, ts.end
			out = append(out, t)
			out = append(out, trimExons(exons[id], ts)...)
		}
	}
	return out, nil
}

// trimExons keeps the exons overlapping the transcript span, sorted by
// start, and moves the first exon start and last exon end onto the span.
// When no exon overlaps, the last exon is kept.
func trimExons(exons []*gtf.Feature, ts span) []*gtf.Feature {
	if len(exons) == 0 {
		return nil
	}

	sorted := make([]*gtf.Feature, len(exons))
	copy(sorted, exons)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var kept []*gtf.Feature
	for _, e := range sorted {
		if e.End > ts.start && e.Start < ts.end {
			kept = append(kept, e.Clone())
		}
	}
	if len(kept) == 0 {
		kept = append(kept, sorted[len(sorted)-1].Clone())
	}

	kept[0].Start = ts.start
	kept[len(kept)-1].End = ts.end
	return kept
}

// Distort draws modes for every transcript and applies them.
func (d *Distorter) Distort(features []*gtf.Feature) ([]*gtf.Feature, Modes, error) {
	modes, err := d.DrawModes(features)
	if err != nil {
		return nil, nil, err
	}
	out, err := d.Apply(features, modes.Map())
	if err != nil {
		return nil, nil, err
	}
	return out, modes, nil
}

// DistortFile distorts the annotation at inPath, writing the new annotation
// to outPath and the transcript modes to modesPath.
func (d *Distorter) DistortFile(inPath, outPath, modesPath string) error {
	features, err := gtf.ReadAll(inPath)
	if err != nil {
		return err
	}

	out, modes, err := d.Distort(features)
	if err != nil {
		return fmt.Errorf("distort %s: %w", inPath, err)
	}
	if err := WriteModes(modesPath, modes); err != nil {
		return err
	}

	w, err := gtf.Create(outPath)
	if err != nil {
		return err
	}
	for _, f := range out {
		if err := w.Write(f); err != nil {
			w.Close()
			return fmt.Errorf("write %s: %w", outPath, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	counts := make([]int, NumModes)
	for _, a := range modes {
		counts[a.Mode]++
	}
	d.logger.Info("distorted annotation",
		zap.String("input", inPath),
		zap.String("output", outPath),
		zap.Int("transcripts", len(modes)),
		zap.Ints("mode_counts", counts),
		zap.Int64("shift", d.shift))
	return nil
}
