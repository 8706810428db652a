package isoform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/isobench/internal/fileio"
)

// Consensus keeps isoforms reconstructed in at least a minimum number of replicates.
type Consensus struct {
	minReps   int
	keepDir   string
	extractor *Extractor
	logger    *zap.Logger
}

// NewConsensus creates a consensus builder.
// An isoform is kept when it appears in at least minReps replicate files.
func NewConsensus(minReps int) *Consensus {
	return &Consensus{
		minReps:   minReps,
		extractor: NewExtractor(IDNone),
		logger:    zap.NewNop(),
	}
}

// KeepIntermediate writes the per-replicate structure files to dir instead of
// a temporary directory that is removed afterwards.
func (c *Consensus) KeepIntermediate(dir string) {
	c.keepDir = dir
}

// SetLogger sets the logger for progress messages.
func (c *Consensus) SetLogger(l *zap.Logger) {
	c.logger = l
	c.extractor.SetLogger(l)
}

// replicateCount tracks the replicates an isoform was seen in.
type replicateCount struct {
	iso  *Isoform
	reps map[int]bool
}

// Run extracts every GTF in inDir (sorted by name, one replicate per file),
// and writes the isoforms found in at least minReps replicates to outPath in
// first-seen order. Returns the number of isoforms written.
func (c *Consensus) Run(inDir, outPath string) (int, error) {
	files, err := fileio.ListFiles(inDir)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no GTF files in %s", inDir)
	}

	workDir := c.keepDir
	if workDir == "" {
		workDir, err = os.MkdirTemp("", "isobench-consensus-")
		if err != nil {
			return 0, fmt.Errorf("create temporary directory: %w", err)
		}
		defer os.RemoveAll(workDir)
	} else if err := fileio.EnsureDir(workDir); err != nil {
		return 0, err
	}

	counts := make(map[string]*replicateCount)
	var order []string

	for rep, path := range files {
		structPath := filepath.Join(workDir, structFileName(path))
		if _, err := c.extractor.ExtractFile(path, structPath); err != nil {
			return 0, err
		}

		isoforms, err := ReadAll(structPath)
		if err != nil {
			return 0, err
		}
		for _, iso := range isoforms {
			key := iso.Core()
			rc, ok := counts[key]
			if !ok {
				rc = &replicateCount{iso: iso, reps: make(map[int]bool)}
				counts[key] = rc
				order = append(order, key)
			}
			rc.reps[rep] = true
		}
	}

	w, err := Create(outPath)
	if err != nil {
		return 0, err
	}
	for _, key := range order {
		rc := counts[key]
		if len(rc.reps) < c.minReps {
			continue
		}
		if err := w.Write(rc.iso); err != nil {
			w.Close()
			return 0, fmt.Errorf("write %s: %w", outPath, err)
		}
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("write %s: %w", outPath, err)
	}

	c.logger.Info("replicate consensus",
		zap.Int("replicates", len(files)),
		zap.Int("distinct", len(order)),
		zap.Int("kept", w.Count()),
		zap.Int("min_reps", c.minReps))
	return w.Count(), nil
}

// structFileName maps "rep1.gtf" to "rep1.tsv".
func structFileName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".gz")
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".tsv"
}
