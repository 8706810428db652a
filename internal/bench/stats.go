package bench

import (
	"fmt"
	"io"
	"os"

	"github.com/inodb/isobench/internal/output"
	"github.com/inodb/isobench/internal/simulate"
)

// Stats is the benchmark result of one reconstruction.
type Stats struct {
	TP int
	FP int
	FN int
	TN int
	// ModeCounts counts true positives per distortion mode.
	ModeCounts [simulate.NumModes]int
}

// ratio returns num/den, or 0 when den is 0.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Precision returns TP / (TP + FP).
func (s *Stats) Precision() float64 {
	return ratio(float64(s.TP), float64(s.TP+s.FP))
}

// Recall returns TP / (TP + FN).
func (s *Stats) Recall() float64 {
	return ratio(float64(s.TP), float64(s.TP+s.FN))
}

// F1 returns the harmonic mean of precision and recall.
func (s *Stats) F1() float64 {
	p, r := s.Precision(), s.Recall()
	return ratio(2*p*r, p+r)
}

// Write writes the statistics report.
func (s *Stats) Write(w io.Writer) error {
	tw := output.NewTabWriter(w)
	rows := [][]string{
		{"Precision", output.Fixed(s.Precision(), 4)},
		{"Recall", output.Fixed(s.Recall(), 4)},
		{"f1-score", output.Fixed(s.F1(), 4)},
		{"TP", output.Int(s.TP)},
		{"FP", output.Int(s.FP)},
		{"FN", output.Int(s.FN)},
		{"TN", output.Int(s.TN)},
		{"Stat by modes:"},
	}
	for m, n := range s.ModeCounts {
		rows = append(rows, []string{output.Int(m), output.Int(n)})
	}
	for _, row := range rows {
		if err := tw.Write(row...); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteFile writes the statistics report to path.
func (s *Stats) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create stats file: %w", err)
	}
	defer f.Close()

	if err := s.Write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
