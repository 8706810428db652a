package isoform

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/inodb/isobench/internal/gtf"
)

// IDMode selects the identifier column written after each extracted isoform.
type IDMode string

const (
	// IDNone writes the five structure columns only.
	IDNone IDMode = "none"
	// IDTranscript writes the transcript_id attribute.
	IDTranscript IDMode = "transcript"
	// IDGeneCounter writes gene_id.N where N numbers the gene's transcripts from 1.
	IDGeneCounter IDMode = "gene-counter"
)

// ParseIDMode validates an identifier mode name.
func ParseIDMode(s string) (IDMode, error) {
	switch m := IDMode(s); m {
	case IDNone, IDTranscript, IDGeneCounter:
		return m, nil
	}
	return "", fmt.Errorf("unknown id mode %q (want none, transcript or gene-counter)", s)
}

// OrganelleChromosomes are the TAIR10 chloroplast and mitochondrion sequences
// left out of the reference isoform set.
var OrganelleChromosomes = []string{"NC_000932.1", "NC_037304.1"}

// Extractor turns GTF transcripts into isoform structures.
// Exons are expected in transcription order, as written by the assemblers and
// by RefSeq/GENCODE annotations.
type Extractor struct {
	idMode   IDMode
	excluded map[string]bool
	logger   *zap.Logger
}

// NewExtractor creates an extractor with the given identifier mode.
func NewExtractor(mode IDMode) *Extractor {
	return &Extractor{
		idMode:   mode,
		excluded: make(map[string]bool),
		logger:   zap.NewNop(),
	}
}

// ExcludeChromosomes drops every feature on the given chromosomes.
func (e *Extractor) ExcludeChromosomes(chroms ...string) {
	for _, c := range chroms {
		e.excluded[c] = true
	}
}

// SetLogger sets the logger for progress messages.
func (e *Extractor) SetLogger(l *zap.Logger) {
	e.logger = l
}

// openTranscript accumulates introns for the transcript being read.
type openTranscript struct {
	iso      *Isoform
	introns  Introns
	prevEdge int64
	hasEdge  bool
}

func (t *openTranscript) addExon(strand string, start, end int64) {
	switch strand {
	case StrandForward:
		if t.hasEdge {
			t.introns = append(t.introns, Intron{Start: t.prevEdge + 1, End: start - 1})
		}
		t.prevEdge = end
		t.hasEdge = true
	case StrandReverse:
		if t.hasEdge {
			t.introns = append(t.introns, Intron{Start: end + 1, End: t.prevEdge - 1})
		}
		t.prevEdge = start
		t.hasEdge = true
	}
}

func (t *openTranscript) finish() *Isoform {
	t.iso.Introns = NormalizeIntrons(t.introns)
	return t.iso
}

// Extract reads features from r and calls emit for each finished isoform, in file order.
func (e *Extractor) Extract(r *gtf.Reader, emit func(*Isoform) error) error {
	var current *openTranscript
	perGene := make(map[string]int)

	for {
		feat, err := r.Next()
		if err != nil {
			return err
		}
		if feat == nil {
			break
		}
		if e.excluded[feat.Chrom] {
			continue
		}

		switch feat.Type {
		case gtf.FeatureTranscript:
			if current != nil {
				if err := emit(current.finish()); err != nil {
					return err
				}
			}
			iso := &Isoform{
				Chrom:  feat.Chrom,
				Strand: feat.Strand,
				Start:  Point(feat.Start),
				End:    Point(feat.End),
			}
			id, err := e.identifier(feat, perGene)
			if err != nil {
				return err
			}
			if id != "" {
				iso.Extra = []string{id}
			}
			current = &openTranscript{iso: iso}

		case gtf.FeatureExon:
			if current == nil {
				continue
			}
			current.addExon(feat.Strand, feat.Start, feat.End)
		}
	}

	if current != nil {
		return emit(current.finish())
	}
	return nil
}

func (e *Extractor) identifier(feat *gtf.Feature, perGene map[string]int) (string, error) {
	switch e.idMode {
	case IDTranscript:
		id := feat.TranscriptID()
		if id == "" {
			return "", fmt.Errorf("transcript at %s:%d has no transcript_id", feat.Chrom, feat.Start)
		}
		return id, nil
	case IDGeneCounter:
		gene := feat.GeneID()
		if gene == "" {
			return "", fmt.Errorf("transcript at %s:%d has no gene_id", feat.Chrom, feat.Start)
		}
		perGene[gene]++
		return gene + "." + strconv.Itoa(perGene[gene]), nil
	}
	return "", nil
}

// ExtractFile extracts isoforms from the GTF at gtfPath into outPath.
// Returns the number of isoforms written.
func (e *Extractor) ExtractFile(gtfPath, outPath string) (int, error) {
	r, err := gtf.Open(gtfPath)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	w, err := Create(outPath)
	if err != nil {
		return 0, err
	}

	if err := e.Extract(r, w.Write); err != nil {
		w.Close()
		return 0, fmt.Errorf("extract %s: %w", gtfPath, err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("write %s: %w", outPath, err)
	}

	e.logger.Info("extracted isoform structures",
		zap.String("gtf", gtfPath),
		zap.String("output", outPath),
		zap.Int("isoforms", w.Count()))
	return w.Count(), nil
}
