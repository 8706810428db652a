// Package gtf provides streaming GTF annotation parsing.
package gtf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/isobench/internal/fileio"
)

// Feature types used by the pipeline.
const (
	FeatureGene       = "gene"
	FeatureTranscript = "transcript"
	FeatureExon       = "exon"
)

// Feature represents a parsed GTF line.
type Feature struct {
	Chrom      string
	Source     string
	Type       string
	Start      int64 // 1-based, inclusive
	End        int64 // 1-based, inclusive
	Score      string
	Strand     string
	Frame      string
	Attributes map[string]string

	rawAttributes string
}

// GeneID returns the gene_id attribute.
func (f *Feature) GeneID() string {
	return f.Attributes["gene_id"]
}

// TranscriptID returns the transcript_id attribute.
func (f *Feature) TranscriptID() string {
	return f.Attributes["transcript_id"]
}

// Line formats the feature as a GTF line without the trailing newline.
// The attribute column is written exactly as it was read.
func (f *Feature) Line() string {
	return strings.Join([]string{
		f.Chrom,
		f.Source,
		f.Type,
		strconv.FormatInt(f.Start, 10),
		strconv.FormatInt(f.End, 10),
		f.Score,
		f.Strand,
		f.Frame,
		f.rawAttributes,
	}, "\t")
}

// Reader reads features from a GTF stream.
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

// Open opens a plain or gzipped GTF file.
func Open(path string) (*Reader, error) {
	rc, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open GTF file: %w", err)
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

// Next returns the next feature.
// Returns nil, nil when there are no more features.
func (r *Reader) Next() (*Feature, error) {
	for r.scanner.Scan() {
		r.lineNumber++
		line := r.scanner.Text()

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		feat, err := ParseLine(line)
		if err != nil {
			return nil, &fileio.ParseError{Path: r.path, Line: r.lineNumber, Message: err.Error()}
		}
		return feat, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan GTF: %w", err)
	}
	return nil, nil
}

// ForEach calls fn for every feature in the file at path.
func ForEach(path string, fn func(*Feature) error) error {
	r, err := Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for {
		feat, err := r.Next()
		if err != nil {
			return err
		}
		if feat == nil {
			return nil
		}
		if err := fn(feat); err != nil {
			return err
		}
	}
}

// ParseLine parses a single GTF line.
func ParseLine(line string) (*Feature, error) {
	fields := fileio.SplitTSV(line)
	if len(fields) < 9 {
		return nil, fmt.Errorf("invalid GTF line: expected 9 fields, got %d", len(fields))
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse start: %w", err)
	}

	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse end: %w", err)
	}

	return &Feature{
		Chrom:         fields[0],
		Source:        fields[1],
		Type:          fields[2],
		Start:         start,
		End:           end,
		Score:         fields[5],
		Strand:        fields[6],
		Frame:         fields[7],
		Attributes:    ParseAttributes(fields[8]),
		rawAttributes: fields[8],
	}, nil
}

// ParseAttributes parses the GTF attribute column.
// Format: key "value"; key "value"; ...
// When a key repeats the last value wins.
func ParseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)

	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		// Find the first space to separate key from value
		idx := strings.IndexAny(part, " \t")
		if idx == -1 {
			continue
		}

		key := part[:idx]
		value := strings.TrimSpace(part[idx+1:])
		attrs[key] = strings.Trim(value, "\"")
	}

	return attrs
}
