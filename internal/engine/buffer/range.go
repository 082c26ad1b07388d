package buffer

import "fmt"

// Range is a half-open span [Start, End) of rune offsets.
type Range struct {
	Start int
	End   int
}

// NewRange creates a range, swapping the bounds when given reversed.
func NewRange(start, end int) Range {
	if start > end {
		start, end = end, start
	}
	return Range{Start: start, End: end}
}

// Len returns the number of runes covered.
func (r Range) Len() int {
	return r.End - r.Start
}

// IsEmpty reports whether the range covers nothing.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// Contains reports whether offset lies within [Start, End].
func (r Range) Contains(offset int) bool {
	return offset >= r.Start && offset <= r.End
}

// Overlaps reports whether two ranges share at least one position.
// Empty ranges overlap anything that contains their position.
func (r Range) Overlaps(other Range) bool {
	if r.IsEmpty() {
		return other.Contains(r.Start)
	}
	if other.IsEmpty() {
		return r.Contains(other.Start)
	}
	return r.Start < other.End && other.Start < r.End
}

// Clamp returns the range with both bounds limited to [0, max].
func (r Range) Clamp(max int) Range {
	return Range{Start: clamp(r.Start, max), End: clamp(r.End, max)}
}

// Shift returns the range moved by delta.
func (r Range) Shift(delta int) Range {
	return Range{Start: r.Start + delta, End: r.End + delta}
}

// String returns a string representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
