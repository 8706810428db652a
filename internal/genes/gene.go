// Package genes indexes reference gene loci by chromosome and strand and
// assigns genes to reconstructed isoforms and CAGE peaks by coordinate overlap.
package genes

import (
	"github.com/biogo/store/interval"
)

// Unassigned is the gene ID given to queries that overlap no gene well enough.
const Unassigned = "unassigned_gene"

// Gene represents a reference gene locus.
type Gene struct {
	ID     string // gene_id attribute
	Chrom  string // Chromosome
	Strand string // "+" or "-"
	Start  int64  // Gene start position (1-based)
	End    int64  // Gene end position (1-based, inclusive)

	order int // position in the annotation, used for tie-breaking
}

// Len returns End - Start, with an empty gene counted as length 1.
func (g *Gene) Len() int64 {
	return spanLen(g.Start, g.End)
}

func spanLen(start, end int64) int64 {
	if n := end - start; n != 0 {
		return n
	}
	return 1
}

// overlap returns min(end) - max(start), which is not positive for disjoint
// or abutting ranges.
func overlap(aStart, aEnd, bStart, bEnd int64) int64 {
	return min(aEnd, bEnd) - max(aStart, bStart)
}

// geneInterval stores a gene in the interval tree.
// Closed coordinates are stored half-open as [Start, End+1).
type geneInterval struct {
	*Gene
}

func (g geneInterval) Overlap(b interval.IntRange) bool {
	return int(g.Start) < b.End && b.Start < int(g.End)+1
}

func (g geneInterval) ID() uintptr { return uintptr(g.order) }

func (g geneInterval) Range() interval.IntRange {
	return interval.IntRange{Start: int(g.Start), End: int(g.End) + 1}
}

// query is a closed range used to search the tree.
type query struct {
	start, end int64
}

func (q query) Overlap(b interval.IntRange) bool {
	return b.Start < int(q.end)+1 && int(q.start) < b.End
}

func (q query) ID() uintptr { return 0 }

func (q query) Range() interval.IntRange {
	return interval.IntRange{Start: int(q.start), End: int(q.end) + 1}
}
