// Package simulate prepares the ground truth for the simulation study: it
// distorts transcript boundaries of a reference annotation and tracks which
// distortion each transcript received.
package simulate

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/inodb/isobench/internal/fileio"
	"github.com/inodb/isobench/internal/isoform"
	"github.com/inodb/isobench/internal/output"
)

// Mode is a transcript distortion class.
type Mode int

// Distortion modes.
const (
	ModeControl Mode = iota
	ModeShorter5
	ModeShorter3
	ModeLonger5
	ModeLonger3
	ModeShorterBoth
	ModeLongerBoth
)

// NumModes is the number of distortion modes.
const NumModes = 7

// DefaultShift is the default boundary shift in bases.
const DefaultShift = 100

var modeDescriptions = [NumModes]string{
	"control",
	"5' shorter",
	"3' shorter",
	"5' longer",
	"3' longer",
	"5' and 3' shorter",
	"5' and 3' longer",
}

// shiftSigns holds the sign of the (5', 3') shift of each mode on the "+" strand.
var shiftSigns = [NumModes][2]int64{
	{0, 0},
	{1, 0},
	{0, -1},
	{-1, 0},
	{0, 1},
	{1, -1},
	{-1, 1},
}

func (m Mode) String() string {
	return strconv.Itoa(int(m))
}

// Description returns a human readable name of the mode.
func (m Mode) Description() string {
	if m < 0 || m >= NumModes {
		return "unknown"
	}
	return modeDescriptions[m]
}

// ParseMode parses a mode number 0..6.
func ParseMode(s string) (Mode, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= NumModes {
		return 0, fmt.Errorf("invalid transcript mode %q", s)
	}
	return Mode(n), nil
}

// Shift applies mode m with magnitude shift to a transcript span.
// On "-" the start column moves by the negated 3' shift and the end column
// by the negated 5' shift. A result that would not have end > start leaves
// the span unchanged.
func Shift(start, end int64, strand string, m Mode, shift int64) (int64, int64) {
	a := shiftSigns[m][0] * shift
	b := shiftSigns[m][1] * shift

	var newStart, newEnd int64
	if strand == isoform.StrandForward {
		newStart, newEnd = start+a, end+b
	} else {
		newStart, newEnd = start-b, end-a
	}
	if newEnd-newStart > 0 {
		return newStart, newEnd
	}
	return start, end
}

// Assignment records the mode of one transcript.
type Assignment struct {
	TranscriptID string
	Mode         Mode
}

// Modes is an ordered list of transcript modes.
type Modes []Assignment

// Map returns the modes keyed by transcript ID.
func (ms Modes) Map() map[string]Mode {
	m := make(map[string]Mode, len(ms))
	for _, a := range ms {
		m[a.TranscriptID] = a.Mode
	}
	return m
}

// ReadModes reads a "transcript_id<TAB>mode" file.
// A repeated transcript keeps its first position and takes the last mode.
func ReadModes(path string) (Modes, error) {
	rc, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open modes file: %w", err)
	}
	defer rc.Close()

	var modes Modes
	pos := make(map[string]int)
	scanner := fileio.NewScanner(rc)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		fields := fileio.SplitTSV(line)
		if len(fields) != 2 {
			return nil, &fileio.ParseError{Path: path, Line: lineNumber,
				Message: fmt.Sprintf("expected 2 columns, found %d", len(fields))}
		}
		m, err := ParseMode(fields[1])
		if err != nil {
			return nil, &fileio.ParseError{Path: path, Line: lineNumber, Message: err.Error()}
		}
		if i, ok := pos[fields[0]]; ok {
			modes[i].Mode = m
			continue
		}
		pos[fields[0]] = len(modes)
		modes = append(modes, Assignment{TranscriptID: fields[0], Mode: m})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read modes file: %w", err)
	}
	return modes, nil
}

// WriteModes writes modes in order to path.
func WriteModes(path string, modes Modes) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create modes file: %w", err)
	}
	defer f.Close()

	tw := output.NewTabWriter(f)
	for _, a := range modes {
		if err := tw.Write(a.TranscriptID, a.Mode.String()); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
