package bench

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/inodb/isobench/internal/fileio"
	"github.com/inodb/isobench/internal/isoform"
	"github.com/inodb/isobench/internal/simulate"
)

// Recorder stores benchmark results.
type Recorder interface {
	RecordBenchmark(file string, st *Stats) error
}

// Benchmark scores reconstructions against a prepared reference.
type Benchmark struct {
	total  int
	pos    *GeneSet
	neg    *GeneSet
	modes  map[string]simulate.Mode
	logger *zap.Logger
}

// Config names the benchmark inputs.
type Config struct {
	RefPath    string // reference isoforms, last column transcript ID
	SimDir     string // simulated counts, one file per replicate
	ModesPath  string // transcript modes
	Expression ExpressionOptions
}

// New prepares the reference once for scoring any number of reconstructions.
func New(cfg Config, logger *zap.Logger) (*Benchmark, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ref, err := LoadReference(cfg.RefPath)
	if err != nil {
		return nil, err
	}
	counts, err := ReadCounts(cfg.SimDir, ref)
	if err != nil {
		return nil, err
	}
	modes, err := simulate.ReadModes(cfg.ModesPath)
	if err != nil {
		return nil, err
	}

	pos, neg := Split(ref, counts, cfg.Expression, logger)
	return &Benchmark{
		total:  ref.Len(),
		pos:    pos,
		neg:    neg,
		modes:  modes.Map(),
		logger: logger,
	}, nil
}

// Score computes the statistics of a set of reconstructed isoforms.
func (b *Benchmark) Score(recs []*isoform.Isoform) *Stats {
	posOutcome := b.pos.MatchAll(recs)
	negOutcome := b.neg.MatchAll(recs)

	st := &Stats{
		TP: len(posOutcome.Matched),
		FP: posOutcome.Unmatched,
		FN: b.total - len(posOutcome.Matched),
		TN: negOutcome.Unmatched,
	}
	for _, id := range posOutcome.Matched {
		if m, ok := b.modes[id]; ok {
			st.ModeCounts[m]++
		}
	}
	return st
}

// ScoreFile scores the reconstruction at recPath.
func (b *Benchmark) ScoreFile(recPath string) (*Stats, error) {
	recs, err := isoform.ReadAll(recPath)
	if err != nil {
		return nil, err
	}
	st := b.Score(recs)
	b.logger.Info("scored reconstruction",
		zap.String("path", recPath),
		zap.Int("isoforms", len(recs)),
		zap.Int("tp", st.TP),
		zap.Int("fp", st.FP),
		zap.Int("fn", st.FN),
		zap.Int("tn", st.TN),
		zap.Float64("f1", st.F1()))
	return st, nil
}

// ScoreDir scores every file in recDir and writes a report of the same name
// to outDir. Results are also passed to rec when it is not nil.
func (b *Benchmark) ScoreDir(recDir, outDir string, rec Recorder) error {
	files, err := fileio.ListFiles(recDir)
	if err != nil {
		return err
	}
	if err := fileio.EnsureDir(outDir); err != nil {
		return err
	}

	for _, path := range files {
		st, err := b.ScoreFile(path)
		if err != nil {
			return err
		}
		name := filepath.Base(path)
		if err := st.WriteFile(filepath.Join(outDir, name)); err != nil {
			return err
		}
		if rec != nil {
			if err := rec.RecordBenchmark(name, st); err != nil {
				return fmt.Errorf("record %s: %w", name, err)
			}
		}
	}
	return nil
}
