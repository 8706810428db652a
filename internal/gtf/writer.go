package gtf

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Clone returns a copy of the feature that can be edited independently.
// The attribute map is shared.
func (f *Feature) Clone() *Feature {
	c := *f
	return &c
}

// ReadAll reads every feature in the file at path.
func ReadAll(path string) ([]*Feature, error) {
	var all []*Feature
	err := ForEach(path, func(f *Feature) error {
		all = append(all, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// Writer writes features as GTF lines.
type Writer struct {
	w     *bufio.Writer
	file  *os.File
	count int
}

// NewWriter creates a new GTF writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Create creates (or truncates) the file at path and returns a writer for it.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create GTF file: %w", err)
	}
	w := NewWriter(f)
	w.file = f
	return w, nil
}

// Write writes a single feature.
func (w *Writer) Write(f *Feature) error {
	w.count++
	_, err := w.w.WriteString(f.Line() + "\n")
	return err
}

// Count returns the number of features written.
func (w *Writer) Count() int {
	return w.count
}

// Close flushes buffered lines and closes the file opened by Create.
func (w *Writer) Close() error {
	err := w.w.Flush()
	if w.file != nil {
		if cerr := w.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
