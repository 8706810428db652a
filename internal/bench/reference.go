// Package bench scores reconstructed isoforms against the simulated ground
// truth and reports precision, recall and F1.
package bench

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/isobench/internal/fileio"
	"github.com/inodb/isobench/internal/isoform"
)

// Default expression thresholds.
const (
	DefaultMinReps  = 2
	DefaultMinCount = 5
)

// ExpressionOptions decides which simulated transcripts count as expressed.
type ExpressionOptions struct {
	// MinReps is the number of replicates that must have at least one read.
	MinReps int
	// MinCount is the read count at least one replicate must reach.
	MinCount int64
}

// DefaultExpressionOptions returns the default thresholds.
func DefaultExpressionOptions() ExpressionOptions {
	return ExpressionOptions{MinReps: DefaultMinReps, MinCount: DefaultMinCount}
}

// Expressed reports whether per-replicate counts pass the thresholds.
func (o ExpressionOptions) Expressed(counts []int64) bool {
	detected := 0
	high := false
	for _, c := range counts {
		if c >= 1 {
			detected++
		}
		if c >= o.MinCount {
			high = true
		}
	}
	return detected >= o.MinReps && high
}

// Reference holds the reference isoforms keyed by transcript ID.
type Reference struct {
	isoforms map[string]*isoform.Isoform
}

// LoadReference reads a reference isoform file whose last column is the
// transcript ID. A repeated ID keeps the last structure.
func LoadReference(path string) (*Reference, error) {
	all, err := isoform.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("load reference: %w", err)
	}
	ref := &Reference{isoforms: make(map[string]*isoform.Isoform, len(all))}
	for _, iso := range all {
		id := iso.ID()
		if id == "" {
			return nil, fmt.Errorf("load reference: %s: isoform without transcript ID", path)
		}
		ref.isoforms[id] = iso
	}
	return ref, nil
}

// Len returns the number of reference transcripts.
func (r *Reference) Len() int {
	return len(r.isoforms)
}

// Get returns the structure of a reference transcript.
func (r *Reference) Get(id string) (*isoform.Isoform, bool) {
	iso, ok := r.isoforms[id]
	return iso, ok
}

// Counts holds simulated read counts per reference transcript and replicate.
type Counts struct {
	replicates int
	order      []string
	counts     map[string][]int64
}

// ReadCounts reads every file in simDir as one replicate, in sorted name order.
// Each line is "<any>\t<transcript_id>\t...\t<count>"; counts of transcripts
// absent from the reference are ignored and repeated lines are summed.
func ReadCounts(simDir string, ref *Reference) (*Counts, error) {
	files, err := fileio.ListFiles(simDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no simulated count files in %s", simDir)
	}

	c := &Counts{replicates: len(files), counts: make(map[string][]int64)}
	for rep, path := range files {
		if err := c.readReplicate(path, rep, ref); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Counts) readReplicate(path string, rep int, ref *Reference) error {
	rc, err := fileio.Open(path)
	if err != nil {
		return fmt.Errorf("open counts: %w", err)
	}
	defer rc.Close()

	scanner := fileio.NewScanner(rc)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		fields := fileio.SplitTSV(line)
		if len(fields) < 3 {
			return &fileio.ParseError{Path: path, Line: lineNumber,
				Message: fmt.Sprintf("expected at least 3 columns, found %d", len(fields))}
		}
		id := fields[1]
		if _, ok := ref.Get(id); !ok {
			continue
		}
		n, err := strconv.ParseInt(fields[len(fields)-1], 10, 64)
		if err != nil {
			return &fileio.ParseError{Path: path, Line: lineNumber, Message: "invalid count: " + err.Error()}
		}

		counts, ok := c.counts[id]
		if !ok {
			counts = make([]int64, c.replicates)
			c.counts[id] = counts
			c.order = append(c.order, id)
		}
		counts[rep] += n
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read counts %s: %w", path, err)
	}
	return nil
}

// Replicates returns the number of replicates read.
func (c *Counts) Replicates() int {
	return c.replicates
}

// Get returns the per-replicate counts of a transcript.
func (c *Counts) Get(id string) []int64 {
	return c.counts[id]
}

// refIsoform is a reference isoform with its transcript ID.
type refIsoform struct {
	id  string
	iso *isoform.Isoform
}

// GeneSet groups reference isoforms by gene, keeping first-seen order.
type GeneSet struct {
	byGene map[string][]refIsoform
	size   int
}

func newGeneSet() *GeneSet {
	return &GeneSet{byGene: make(map[string][]refIsoform)}
}

func (gs *GeneSet) add(id string, iso *isoform.Isoform) {
	gene := fileio.TrimVersion(id)
	gs.byGene[gene] = append(gs.byGene[gene], refIsoform{id: id, iso: iso})
	gs.size++
}

// Len returns the number of transcripts in the set.
func (gs *GeneSet) Len() int {
	return gs.size
}

// Genes returns the number of genes in the set.
func (gs *GeneSet) Genes() int {
	return len(gs.byGene)
}

// Split divides the simulated transcripts into expressed (positive) and
// non-expressed (negative) sets grouped by gene. Reference transcripts with
// no simulated reads in any replicate belong to neither set.
func Split(ref *Reference, counts *Counts, opts ExpressionOptions, logger *zap.Logger) (pos, neg *GeneSet) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pos, neg = newGeneSet(), newGeneSet()
	for _, id := range counts.order {
		iso, _ := ref.Get(id)
		if opts.Expressed(counts.counts[id]) {
			pos.add(id, iso)
		} else {
			neg.add(id, iso)
		}
	}

	logger.Info("split reference by expression",
		zap.Int("reference", ref.Len()),
		zap.Int("replicates", counts.replicates),
		zap.Int("expressed", pos.Len()),
		zap.Int("not_expressed", neg.Len()),
		zap.Int("expressed_genes", pos.Genes()))
	return pos, neg
}
