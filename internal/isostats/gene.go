package isostats

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/isobench/internal/isoform"
	"github.com/inodb/isobench/internal/output"
)

var geneColumns = []string{"gene_id", "n_iso", "n_starts", "n_ends", "exon_skip", "exon_extra",
	"alt_introns_5", "alt_introns_3", "introns_retention", "n_exons"}

// IntronEvents counts the intron differences between a compared isoform and
// the major isoform of its gene. Alt5 and Alt3 are in genomic orientation.
type IntronEvents struct {
	ExonSkip  int
	ExonExtra int
	Alt5      int
	Alt3      int
	Retention int
}

func (e *IntronEvents) add(o IntronEvents) {
	e.ExonSkip += o.ExonSkip
	e.ExonExtra += o.ExonExtra
	e.Alt5 += o.Alt5
	e.Alt3 += o.Alt3
	e.Retention += o.Retention
}

// intronsIntersect reports whether min(end) - max(start) > 0.
func intronsIntersect(a, b isoform.Intron) bool {
	return min(a.End, b.End)-max(a.Start, b.Start) > 0
}

// difference returns the introns of a absent from b, sorted.
func difference(a, b isoform.Introns) isoform.Introns {
	in := make(map[isoform.Intron]bool, len(b))
	for _, x := range b {
		in[x] = true
	}
	var out isoform.Introns
	for _, x := range a {
		if !in[x] {
			out = append(out, x)
		}
	}
	return isoform.NormalizeIntrons(out)
}

// CompareIntrons classifies how compared differs from major.
//
// A major intron missing from compared that lies outside the compared intron
// chain counts as retained when it falls within the compared transcript. One
// inside the chain is matched against the compared-only introns it
// intersects: a compared intron hit by several major introns is an exon skip,
// a major intron hitting several compared introns is an extra exon, and each
// remaining differing boundary is an alternative 5' or 3' site. A major
// intron intersecting nothing is retained.
func CompareIntrons(major, compared *isoform.Isoform) IntronEvents {
	var ev IntronEvents

	majorOnly := difference(major.Introns, compared.Introns)
	comparedOnly := difference(compared.Introns, major.Introns)
	compStart, compEnd := compared.Span()

	chainStart, chainEnd := compEnd, compStart
	if len(compared.Introns) > 0 {
		chainStart, chainEnd = compared.Introns[0].Start, compared.Introns[0].End
		for _, in := range compared.Introns[1:] {
			chainStart = min(chainStart, in.Start)
			chainEnd = max(chainEnd, in.End)
		}
	}

	hitCompared := make(map[isoform.Intron]bool)
	var extra int
	for _, m := range majorOnly {
		if m.End < chainStart {
			if m.Start > compStart {
				ev.Retention++
			}
			continue
		}
		if m.Start > chainEnd {
			if m.End < compEnd {
				ev.Retention++
			}
			continue
		}

		hits := 0
		for _, c := range comparedOnly {
			if !intronsIntersect(m, c) {
				continue
			}
			hits++
			if hitCompared[c] {
				ev.ExonSkip++
			}
			if m.Start != c.Start {
				ev.Alt5++
			}
			if m.End != c.End {
				ev.Alt3++
			}
			hitCompared[c] = true
		}
		if hits == 0 {
			ev.Retention++
		}
		if hits > 1 {
			extra++
		}
	}

	ev.ExonExtra = extra
	ev.Alt5 -= ev.ExonSkip + ev.ExonExtra
	ev.Alt3 -= ev.ExonSkip + ev.ExonExtra
	return ev
}

// GeneStats holds the statistics of one gene.
type GeneStats struct {
	GeneID   string
	Strand   string
	Isoforms int
	Starts   int // distinct transcription start regions
	Ends     int
	Events   IntronEvents // Alt5 and Alt3 in transcript orientation
	Exons    int          // exons of the major isoform
}

// Row formats the statistics as a table row.
func (gs GeneStats) Row() []string {
	return []string{
		gs.GeneID,
		output.Int(gs.Isoforms),
		output.Int(gs.Starts),
		output.Int(gs.Ends),
		output.Int(gs.Events.ExonSkip),
		output.Int(gs.Events.ExonExtra),
		output.Int(gs.Events.Alt5),
		output.Int(gs.Events.Alt3),
		output.Int(gs.Events.Retention),
		output.Int(gs.Exons),
	}
}

type geneKey struct {
	gene   string
	strand string
}

// geneGroup holds the isoforms of one gene keyed by isoform ID in first-seen order.
type geneGroup struct {
	key  geneKey
	ids  []string
	byID map[string]*isoform.Isoform
}

// groupByGene groups isoforms by the part of their ID before the first '.'
// and by strand, keeping first-seen order. A repeated isoform ID replaces the
// earlier structure in place.
func groupByGene(isos []*isoform.Isoform) []*geneGroup {
	index := make(map[geneKey]*geneGroup)
	var groups []*geneGroup
	for _, iso := range isos {
		id := iso.ID()
		gene, _, _ := strings.Cut(id, ".")
		key := geneKey{gene: gene, strand: iso.Strand}
		g, ok := index[key]
		if !ok {
			g = &geneGroup{key: key, byID: make(map[string]*isoform.Isoform)}
			index[key] = g
			groups = append(groups, g)
		}
		if _, seen := g.byID[id]; !seen {
			g.ids = append(g.ids, id)
		}
		g.byID[id] = iso
	}
	return groups
}

// isoforms returns the gene isoforms with the major one first: most introns,
// then longest span, ties kept in file order.
func (g *geneGroup) isoforms() []*isoform.Isoform {
	out := make([]*isoform.Isoform, len(g.ids))
	for i, id := range g.ids {
		out[i] = g.byID[id]
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].Introns) != len(out[j].Introns) {
			return len(out[i].Introns) > len(out[j].Introns)
		}
		return spanLen(out[i]) > spanLen(out[j])
	})
	return out
}

func spanLen(iso *isoform.Isoform) int64 {
	start, end := iso.Span()
	return end - start
}

func (g *geneGroup) stats() GeneStats {
	isos := g.isoforms()
	major := isos[0]
	forward := g.key.strand == isoform.StrandForward

	left := make(map[isoform.Region]bool)
	right := make(map[isoform.Region]bool)
	for _, iso := range isos {
		left[iso.Start] = true
		right[iso.End] = true
	}

	gs := GeneStats{
		GeneID:   g.key.gene,
		Strand:   g.key.strand,
		Isoforms: len(isos),
		Starts:   len(left),
		Ends:     len(right),
		Exons:    len(major.Introns) + 1,
	}
	if !forward {
		gs.Starts, gs.Ends = gs.Ends, gs.Starts
	}

	for _, iso := range isos[1:] {
		ev := CompareIntrons(major, iso)
		if !forward {
			ev.Alt5, ev.Alt3 = ev.Alt3, ev.Alt5
		}
		gs.Events.add(ev)
	}
	return gs
}

// ComputeGenes returns the statistics of every gene in first-seen order.
func ComputeGenes(isos []*isoform.Isoform) []GeneStats {
	groups := groupByGene(isos)
	out := make([]GeneStats, len(groups))
	for i, g := range groups {
		out[i] = g.stats()
	}
	return out
}

// WriteGeneStats writes the gene statistics table.
func WriteGeneStats(w io.Writer, stats []GeneStats) error {
	tw := output.NewTabWriter(w, geneColumns...)
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, gs := range stats {
		if err := tw.Write(gs.Row()...); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// GeneStatsFile computes gene statistics of inPath into outPath.
func GeneStatsFile(inPath, outPath string, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	isos, err := isoform.ReadAll(inPath)
	if err != nil {
		return 0, err
	}
	stats := ComputeGenes(isos)

	f, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("create gene stats: %w", err)
	}
	defer f.Close()

	if err := WriteGeneStats(f, stats); err != nil {
		return 0, fmt.Errorf("write %s: %w", outPath, err)
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	logger.Info("wrote gene statistics",
		zap.String("path", outPath),
		zap.Int("isoforms", len(isos)),
		zap.Int("genes", len(stats)))
	return len(stats), nil
}
