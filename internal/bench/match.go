package bench

import (
	"github.com/inodb/isobench/internal/isoform"
)

// Matches reports whether a reference isoform agrees with a reconstruction:
// identical intron chains, and reference start and end inside the
// reconstructed start and end regions.
func Matches(ref, rec *isoform.Isoform) bool {
	refStart, refEnd := ref.Span()
	return rec.Introns.Equal(ref.Introns) &&
		rec.Start.Contains(refStart) &&
		rec.End.Contains(refEnd)
}

// Match finds the first reference isoform of the reconstruction's gene, taken
// from its last column, that matches it. inSet is false when the gene has no
// isoforms in the set.
func (gs *GeneSet) Match(rec *isoform.Isoform) (transcriptID string, inSet bool) {
	candidates, ok := gs.byGene[rec.ID()]
	if !ok {
		return "", false
	}
	for _, c := range candidates {
		if Matches(c.iso, rec) {
			return c.id, true
		}
	}
	return "", true
}

// Outcome counts the matches of a reconstruction against one gene set.
type Outcome struct {
	// Matched holds the distinct matched transcript IDs in first-match order.
	Matched []string
	// Unmatched counts reconstructions of genes in the set that matched nothing.
	Unmatched int
}

// MatchAll matches every reconstructed isoform against the set.
func (gs *GeneSet) MatchAll(recs []*isoform.Isoform) Outcome {
	var out Outcome
	seen := make(map[string]bool)
	for _, rec := range recs {
		id, inSet := gs.Match(rec)
		switch {
		case !inSet:
		case id == "":
			out.Unmatched++
		case !seen[id]:
			seen[id] = true
			out.Matched = append(out.Matched, id)
		}
	}
	return out
}
