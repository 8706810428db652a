// Package isoform provides the simplified isoform representation shared by all
// benchmark steps: chromosome, strand, start region, sorted intron chain, end
// region, and optional trailing identifier columns.
package isoform

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/inodb/isobench/internal/fileio"
)

// Strand values.
const (
	StrandForward = "+"
	StrandReverse = "-"
)

// Isoform is one isoform structure record.
// Start and End hold the genomic leftmost and rightmost boundaries regardless of strand.
type Isoform struct {
	Chrom   string
	Strand  string
	Start   Region
	Introns Introns
	End     Region
	Extra   []string // columns after the end region, kept verbatim
}

// ID returns the last extra column, or "" if there is none.
func (iso *Isoform) ID() string {
	if len(iso.Extra) == 0 {
		return ""
	}
	return iso.Extra[len(iso.Extra)-1]
}

// IsForward returns true if the isoform is on the forward strand.
func (iso *Isoform) IsForward() bool {
	return iso.Strand == StrandForward
}

// Span returns the leftmost and rightmost positions covered by the boundary regions.
func (iso *Isoform) Span() (int64, int64) {
	return iso.Start.Start, iso.End.End
}

// Core returns the five structure columns joined by tabs.
func (iso *Isoform) Core() string {
	return strings.Join([]string{
		iso.Chrom,
		iso.Strand,
		iso.Start.String(),
		iso.Introns.String(),
		iso.End.String(),
	}, "\t")
}

// String returns the full TSV line without the trailing newline.
func (iso *Isoform) String() string {
	if len(iso.Extra) == 0 {
		return iso.Core()
	}
	return iso.Core() + "\t" + strings.Join(iso.Extra, "\t")
}

// ParseLine parses one isoform TSV line.
func ParseLine(line string) (*Isoform, error) {
	fields := fileio.SplitTSV(line)
	if len(fields) < 5 {
		return nil, fmt.Errorf("expected at least 5 columns, found %d", len(fields))
	}

	start, err := ParseRegion(fields[2])
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	introns, err := ParseIntrons(fields[3])
	if err != nil {
		return nil, fmt.Errorf("introns: %w", err)
	}
	end, err := ParseRegion(fields[4])
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}

	iso := &Isoform{
		Chrom:   fields[0],
		Strand:  fields[1],
		Start:   start,
		Introns: introns,
		End:     end,
	}
	if len(fields) > 5 {
		iso.Extra = append([]string(nil), fields[5:]...)
	}
	return iso, nil
}

// Reader reads isoform records from a TSV stream.
type Reader struct {
	scanner    *bufio.Scanner
	closer     io.Closer
	path       string
	lineNumber int
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: fileio.NewScanner(r)}
}

// Open opens an isoform file for reading.
func Open(path string) (*Reader, error) {
	rc, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open isoform file: %w", err)
	}
	r := NewReader(rc)
	r.closer = rc
	r.path = path
	return r, nil
}

// Close closes the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Next returns the next isoform.
// Returns nil, nil when there are no more records.
func (r *Reader) Next() (*Isoform, error) {
	for r.scanner.Scan() {
		r.lineNumber++
		line := r.scanner.Text()

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		iso, err := ParseLine(line)
		if err != nil {
			return nil, &fileio.ParseError{Path: r.path, Line: r.lineNumber, Message: err.Error()}
		}
		return iso, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan isoforms: %w", err)
	}
	return nil, nil
}

// ReadAll reads every isoform in the file at path.
func ReadAll(path string) ([]*Isoform, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var all []*Isoform
	for {
		iso, err := r.Next()
		if err != nil {
			return nil, err
		}
		if iso == nil {
			return all, nil
		}
		all = append(all, iso)
	}
}

// Writer writes isoform records as TSV lines.
type Writer struct {
	w     *bufio.Writer
	file  *os.File
	count int
}

// NewWriter creates a new isoform writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Create creates (or truncates) the file at path and returns a writer for it.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create isoform file: %w", err)
	}
	w := NewWriter(f)
	w.file = f
	return w, nil
}

// Write writes a single isoform.
func (w *Writer) Write(iso *Isoform) error {
	w.count++
	_, err := w.w.WriteString(iso.String() + "\n")
	return err
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	return w.count
}

// Flush flushes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Close flushes and closes the file opened by Create.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		if w.file != nil {
			w.file.Close()
		}
		return err
	}
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

// WriteFile writes isoforms to path.
func WriteFile(path string, isoforms []*Isoform) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	for _, iso := range isoforms {
		if err := w.Write(iso); err != nil {
			w.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return w.Close()
}
