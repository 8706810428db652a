package genes

import (
	"fmt"
	"sort"

	"github.com/biogo/store/interval"
	"go.uber.org/zap"

	"github.com/inodb/isobench/internal/gtf"
)

// partitionKey identifies one chromosome and strand.
type partitionKey struct {
	chrom  string
	strand string
}

// partition holds the genes of one chromosome and strand.
type partition struct {
	tree   interval.IntTree
	byLoci map[[2]int64]*Gene
}

// Index provides overlap queries over reference genes, partitioned by
// chromosome and strand.
type Index struct {
	partitions map[partitionKey]*partition
	count      int
	built      bool
}

// NewIndex creates an empty gene index.
func NewIndex() *Index {
	return &Index{partitions: make(map[partitionKey]*partition)}
}

// Add adds a gene to the index.
// A gene with the same coordinates as an earlier one on the same chromosome
// and strand replaces its ID but keeps the earlier position in file order.
func (idx *Index) Add(g *Gene) error {
	if g.End < g.Start {
		return fmt.Errorf("gene %s: end %d before start %d", g.ID, g.End, g.Start)
	}

	key := partitionKey{g.Chrom, g.Strand}
	p, ok := idx.partitions[key]
	if !ok {
		p = &partition{byLoci: make(map[[2]int64]*Gene)}
		idx.partitions[key] = p
	}

	loci := [2]int64{g.Start, g.End}
	if prev, ok := p.byLoci[loci]; ok {
		prev.ID = g.ID
		return nil
	}

	stored := *g
	stored.order = idx.count
	idx.count++
	p.byLoci[loci] = &stored
	if err := p.tree.Insert(geneInterval{&stored}, true); err != nil {
		return fmt.Errorf("index gene %s: %w", g.ID, err)
	}
	idx.built = false
	return nil
}

// Len returns the number of indexed gene loci.
func (idx *Index) Len() int {
	return idx.count
}

// overlapping returns the genes of a partition sharing at least one position
// with [start, end], in annotation order.
func (idx *Index) overlapping(chrom, strand string, start, end int64) []*Gene {
	idx.build()

	p, ok := idx.partitions[partitionKey{chrom, strand}]
	if !ok {
		return nil
	}

	hits := p.tree.Get(query{start: start, end: end})
	if len(hits) == 0 {
		return nil
	}
	result := make([]*Gene, len(hits))
	for i, h := range hits {
		result[i] = h.(geneInterval).Gene
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].order < result[j].order
	})
	return result
}

func (idx *Index) build() {
	if idx.built {
		return
	}
	for _, p := range idx.partitions {
		p.tree.AdjustRanges()
	}
	idx.built = true
}

// FirstOverlap returns the earliest gene in annotation order whose overlap
// with [start, end] is positive, or nil if there is none.
func (idx *Index) FirstOverlap(chrom, strand string, start, end int64) *Gene {
	for _, g := range idx.overlapping(chrom, strand, start, end) {
		if overlap(g.Start, g.End, start, end) > 0 {
			return g
		}
	}
	return nil
}

// Load builds an index from the gene features of a GTF file.
func Load(gtfPath string, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	idx := NewIndex()
	err := gtf.ForEach(gtfPath, func(f *gtf.Feature) error {
		if f.Type != gtf.FeatureGene {
			return nil
		}
		id := f.GeneID()
		if id == "" {
			return fmt.Errorf("gene at %s:%d has no gene_id", f.Chrom, f.Start)
		}
		return idx.Add(&Gene{
			ID:     id,
			Chrom:  f.Chrom,
			Strand: f.Strand,
			Start:  f.Start,
			End:    f.End,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load genes: %w", err)
	}

	logger.Info("loaded gene index",
		zap.String("path", gtfPath),
		zap.Int("genes", idx.Len()),
		zap.Int("partitions", len(idx.partitions)))
	return idx, nil
}
