package isoform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Region is a closed genomic range [Start, End]. A point has Start == End.
type Region struct {
	Start int64
	End   int64
}

// Point returns a Region covering a single position.
func Point(pos int64) Region {
	return Region{Start: pos, End: pos}
}

// IsPoint returns true if the region covers a single position.
func (r Region) IsPoint() bool {
	return r.Start == r.End
}

// Contains returns true if pos lies within the region, bounds inclusive.
func (r Region) Contains(pos int64) bool {
	return pos >= r.Start && pos <= r.End
}

// Len returns the number of positions covered by the region.
func (r Region) Len() int64 {
	return r.End - r.Start + 1
}

// String formats a point as "n" and a range as "s-e".
func (r Region) String() string {
	if r.IsPoint() {
		return strconv.FormatInt(r.Start, 10)
	}
	return strconv.FormatInt(r.Start, 10) + "-" + strconv.FormatInt(r.End, 10)
}

// ParseRegion parses "n" or "s-e".
func ParseRegion(s string) (Region, error) {
	startStr, endStr, isRange := strings.Cut(s, "-")
	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return Region{}, fmt.Errorf("invalid region %q: %w", s, err)
	}
	if !isRange {
		return Point(start), nil
	}
	end, err := strconv.ParseInt(endStr, 10, 64)
	if err != nil {
		return Region{}, fmt.Errorf("invalid region %q: %w", s, err)
	}
	if end < start {
		return Region{}, fmt.Errorf("invalid region %q: end before start", s)
	}
	return Region{Start: start, End: end}, nil
}

// Intron is a closed genomic range [Start, End] between two exons.
type Intron struct {
	Start int64
	End   int64
}

// Len returns the intron length in bases.
func (in Intron) Len() int64 {
	return in.End - in.Start + 1
}

func (in Intron) String() string {
	return strconv.FormatInt(in.Start, 10) + "-" + strconv.FormatInt(in.End, 10)
}

// Introns is an intron chain.
type Introns []Intron

// String joins the chain as "s1-e1;s2-e2". An empty chain is "".
func (c Introns) String() string {
	if len(c) == 0 {
		return ""
	}
	parts := make([]string, len(c))
	for i, in := range c {
		parts[i] = in.String()
	}
	return strings.Join(parts, ";")
}

// Equal returns true if both chains hold the same introns in the same order.
func (c Introns) Equal(o Introns) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// ParseIntrons parses a chain written by Introns.String.
func ParseIntrons(s string) (Introns, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ";")
	chain := make(Introns, 0, len(parts))
	for _, p := range parts {
		startStr, endStr, ok := strings.Cut(p, "-")
		if !ok {
			return nil, fmt.Errorf("invalid intron %q", p)
		}
		start, err := strconv.ParseInt(startStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid intron %q: %w", p, err)
		}
		end, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid intron %q: %w", p, err)
		}
		chain = append(chain, Intron{Start: start, End: end})
	}
	return chain, nil
}

// NormalizeIntrons returns the chain de-duplicated and sorted by start, then end.
func NormalizeIntrons(c Introns) Introns {
	if len(c) == 0 {
		return nil
	}
	seen := make(map[Intron]bool, len(c))
	out := make(Introns, 0, len(c))
	for _, in := range c {
		if seen[in] {
			continue
		}
		seen[in] = true
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}
