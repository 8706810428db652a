// Package peaks converts CAGEfightR TSS and PA peak calls into isoform
// boundary estimates: summit points, per-gene peak widths and peak ranges.
package peaks

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/inodb/isobench/internal/fileio"
	"github.com/inodb/isobench/internal/isoform"
)

// Peak is one BED-like peak call.
// Start and SummitStart are 0-based; End and SummitEnd are 1-based inclusive.
type Peak struct {
	Chrom       string
	Start       int64
	End         int64
	Name        string
	Score       string
	Strand      string
	SummitStart int64
	SummitEnd   int64
}

// Region returns the peak as a 1-based closed region.
func (p *Peak) Region() isoform.Region {
	return isoform.Region{Start: p.Start + 1, End: p.End}
}

// Width returns End - Start.
func (p *Peak) Width() int64 {
	return p.End - p.Start
}

// Summit returns the midpoint of the 1-based summit range, ties rounded to even.
func (p *Peak) Summit() int64 {
	first := p.SummitStart + 1
	return int64(math.RoundToEven(float64(p.SummitEnd-first)/2 + float64(first)))
}

// ParseLine parses one peak line.
func ParseLine(line string) (*Peak, error) {
	fields := fileio.SplitTSV(line)
	if len(fields) < 8 {
		return nil, fmt.Errorf("expected at least 8 columns, found %d", len(fields))
	}

	var ints [4]int64
	for i, col := range []int{1, 2, 6, 7} {
		v, err := strconv.ParseInt(fields[col], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate in column %d: %w", col+1, err)
		}
		ints[i] = v
	}

	return &Peak{
		Chrom:       fields[0],
		Start:       ints[0],
		End:         ints[1],
		Name:        fields[3],
		Score:       fields[4],
		Strand:      fields[5],
		SummitStart: ints[2],
		SummitEnd:   ints[3],
	}, nil
}

// Reader reads peaks from a BED-like stream.
type Reader struct {
	scanner    *bufio.Scanner
	closer     io.Closer
	path       string
	lineNumber int
}

// NewReader creates a peak reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: fileio.NewScanner(r)}
}

// Open opens a peak file for reading.
func Open(path string) (*Reader, error) {
	rc, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open peak file: %w", err)
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

// Next returns the next peak.
// Returns nil, nil when there are no more peaks.
func (r *Reader) Next() (*Peak, error) {
	for r.scanner.Scan() {
		r.lineNumber++
		line := r.scanner.Text()

		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		p, err := ParseLine(line)
		if err != nil {
			return nil, &fileio.ParseError{Path: r.path, Line: r.lineNumber, Message: err.Error()}
		}
		return p, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan peaks: %w", err)
	}
	return nil, nil
}

// ReadPeaks reads every peak in the file at path.
func ReadPeaks(path string) ([]*Peak, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var all []*Peak
	for {
		p, err := r.Next()
		if err != nil {
			return nil, err
		}
		if p == nil {
			return all, nil
		}
		all = append(all, p)
	}
}
