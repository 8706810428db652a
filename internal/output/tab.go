// Package output provides tab-delimited table writers and value formatting
// shared by the benchmark reports.
package output

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
)

// TabWriter writes rows in tab-delimited format under an optional header.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
	rows    int
}

// NewTabWriter creates a new tab-delimited writer with the given header columns.
func NewTabWriter(w io.Writer, columns ...string) *TabWriter {
	return &TabWriter{
		w:       bufio.NewWriter(w),
		columns: columns,
	}
}

// Columns returns the header columns.
func (tw *TabWriter) Columns() []string {
	return tw.columns
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single row.
func (tw *TabWriter) Write(values ...string) error {
	tw.rows++
	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Rows returns the number of rows written, not counting the header.
func (tw *TabWriter) Rows() int {
	return tw.rows
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// Int formats an integer column.
func Int[T ~int | ~int64](v T) string {
	return strconv.FormatInt(int64(v), 10)
}

// Mean returns the mean of values rounded half to even at one decimal,
// formatted with at least one decimal place. An empty list gives "NA".
func Mean[T ~int | ~int64](values []T) string {
	if len(values) == 0 {
		return "NA"
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return Decimal(RoundHalfEven(sum/float64(len(values)), 1))
}

// RoundHalfEven rounds v to the given number of decimal places, ties to even.
func RoundHalfEven(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.RoundToEven(v*scale) / scale
}

// Decimal formats v with the shortest representation that keeps at least
// one decimal place, e.g. 3 -> "3.0", 2.25 -> "2.25".
func Decimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

// Fixed formats v with exactly the given number of decimal places.
func Fixed(v float64, places int) string {
	return strconv.FormatFloat(v, 'f', places, 64)
}
