package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/isobench/internal/bench"
	"github.com/inodb/isobench/internal/output"
	"github.com/inodb/isobench/internal/simulate"
)

// FileFingerprint identifies a scored reconstruction file by name, size and
// modification time.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Name is the file name results are stored under.
func (fp FileFingerprint) Name() string {
	return filepath.Base(fp.Path)
}

// Fingerprint stats path.
func Fingerprint(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, fmt.Errorf("fingerprint %s: %w", path, err)
	}
	return FileFingerprint{Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// BenchmarkRow is one stored benchmark result.
type BenchmarkRow struct {
	Run       string
	File      string
	Size      int64
	ModTime   time.Time
	Precision float64
	Recall    float64
	F1        float64
	TP        int64
	FP        int64
	FN        int64
	TN        int64
	// ModeCounts counts true positives per distortion mode.
	ModeCounts [simulate.NumModes]int64
}

// WriteBenchmark stores the result of scoring one reconstruction file under
// the given run, replacing an earlier result for the same run and file.
func (s *Store) WriteBenchmark(run string, file FileFingerprint, st *bench.Stats) error {
	ctx := context.Background()
	name := file.Name()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	for _, table := range []string{"benchmark_summary", "benchmark_modes"} {
		if _, err := conn.ExecContext(ctx, "DELETE FROM "+table+" WHERE run=? AND file=?", run, name); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	summary, err := newAppender(conn.Raw, "benchmark_summary")
	if err != nil {
		return err
	}
	defer summary.Close()

	if err := summary.AppendRow(
		run, name, file.Size, file.ModTime.UTC(),
		st.Precision(), st.Recall(), st.F1(),
		int64(st.TP), int64(st.FP), int64(st.FN), int64(st.TN),
	); err != nil {
		return fmt.Errorf("append benchmark summary: %w", err)
	}
	if err := summary.Flush(); err != nil {
		return fmt.Errorf("flush benchmark summary: %w", err)
	}

	modes, err := newAppender(conn.Raw, "benchmark_modes")
	if err != nil {
		return err
	}
	defer modes.Close()

	for m, n := range st.ModeCounts {
		if err := modes.AppendRow(run, name, int32(m), int64(n)); err != nil {
			return fmt.Errorf("append benchmark mode: %w", err)
		}
	}
	return modes.Flush()
}

func newAppender(raw func(func(any) error) error, table string) (*goduckdb.Appender, error) {
	var appender *goduckdb.Appender
	if err := raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return nil, fmt.Errorf("create appender for %s: %w", table, err)
	}
	return appender, nil
}

// Benchmarks returns stored results ordered by run and file.
// An empty run returns every run.
func (s *Store) Benchmarks(run string) ([]BenchmarkRow, error) {
	query := `SELECT run, file, file_size, file_mtime,
		precision_ratio, recall_ratio, f1_score, tp, fp, fn, tn
		FROM benchmark_summary`
	var args []any
	if run != "" {
		query += " WHERE run=?"
		args = append(args, run)
	}
	query += " ORDER BY run, file"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query benchmarks: %w", err)
	}
	defer rows.Close()

	var results []BenchmarkRow
	index := make(map[[2]string]int)
	for rows.Next() {
		var r BenchmarkRow
		if err := rows.Scan(
			&r.Run, &r.File, &r.Size, &r.ModTime,
			&r.Precision, &r.Recall, &r.F1, &r.TP, &r.FP, &r.FN, &r.TN,
		); err != nil {
			return nil, fmt.Errorf("scan benchmark: %w", err)
		}
		index[[2]string{r.Run, r.File}] = len(results)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate benchmarks: %w", err)
	}

	if err := s.loadModes(results, index); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Store) loadModes(results []BenchmarkRow, index map[[2]string]int) error {
	rows, err := s.db.Query("SELECT run, file, mode, matched FROM benchmark_modes")
	if err != nil {
		return fmt.Errorf("query benchmark modes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var run, file string
		var mode int32
		var matched int64
		if err := rows.Scan(&run, &file, &mode, &matched); err != nil {
			return fmt.Errorf("scan benchmark mode: %w", err)
		}
		i, ok := index[[2]string{run, file}]
		if !ok || mode < 0 || int(mode) >= simulate.NumModes {
			continue
		}
		results[i].ModeCounts[mode] = matched
	}
	return rows.Err()
}

// ClearRun removes every result of a run.
func (s *Store) ClearRun(run string) error {
	for _, table := range []string{"benchmark_summary", "benchmark_modes"} {
		if _, err := s.db.Exec("DELETE FROM "+table+" WHERE run=?", run); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Recorder stores the results of one benchmark run as files are scored.
type Recorder struct {
	store *Store
	run   string
	dir   string
}

// Recorder returns a recorder for files scored from dir under the given run.
func (s *Store) Recorder(run, dir string) *Recorder {
	return &Recorder{store: s, run: run, dir: dir}
}

// RecordBenchmark stores the result of one scored file.
func (r *Recorder) RecordBenchmark(file string, st *bench.Stats) error {
	fp, err := Fingerprint(filepath.Join(r.dir, file))
	if err != nil {
		return err
	}
	return r.store.WriteBenchmark(r.run, fp, st)
}

var reportColumns = []string{"run", "file", "precision", "recall", "f1", "TP", "FP", "FN", "TN"}

// WriteReport writes stored results as a tab-delimited table with one column
// per distortion mode.
func WriteReport(w io.Writer, rows []BenchmarkRow) error {
	columns := append([]string(nil), reportColumns...)
	for m := simulate.Mode(0); m < simulate.NumModes; m++ {
		columns = append(columns, "mode_"+m.String())
	}

	tw := output.NewTabWriter(w, columns...)
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, r := range rows {
		values := []string{
			r.Run, r.File,
			output.Fixed(r.Precision, 4), output.Fixed(r.Recall, 4), output.Fixed(r.F1, 4),
			output.Int(r.TP), output.Int(r.FP), output.Int(r.FN), output.Int(r.TN),
		}
		for _, n := range r.ModeCounts {
			values = append(values, output.Int(n))
		}
		if err := tw.Write(values...); err != nil {
			return err
		}
	}
	return tw.Flush()
}
