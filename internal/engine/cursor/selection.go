package cursor

import (
	"fmt"

	"github.com/dshills/imebridge/internal/engine/buffer"
)

// Range is an alias for buffer.Range for convenience.
type Range = buffer.Range

// Selection is a normalized [Start, End] pair of rune offsets.
// When Start == End it represents a caret with no extent.
type Selection struct {
	Start int
	End   int
}

// NewSelection creates a selection, swapping bounds given in reverse.
func NewSelection(start, end int) Selection {
	if start > end {
		start, end = end, start
	}
	return Selection{Start: start, End: end}
}

// NewCaret creates a selection with no extent.
func NewCaret(offset int) Selection {
	return Selection{Start: offset, End: offset}
}

// Clamped creates a selection whose bounds are limited to [0, length] and
// normalized. This is the only way host-supplied offsets enter the model.
func Clamped(start, end, length int) Selection {
	return NewSelection(clamp(start, length), clamp(end, length))
}

// IsEmpty returns true if the selection has no extent.
func (s Selection) IsEmpty() bool {
	return s.Start == s.End
}

// Len returns the number of selected runes.
func (s Selection) Len() int {
	return s.End - s.Start
}

// Range returns the selection as a buffer range.
func (s Selection) Range() Range {
	return Range{Start: s.Start, End: s.End}
}

// Clamp returns the selection limited to [0, length].
func (s Selection) Clamp(length int) Selection {
	return Clamped(s.Start, s.End, length)
}

// Collapse returns a caret at the selection end.
func (s Selection) Collapse() Selection {
	return NewCaret(s.End)
}

// Equals returns true if two selections cover the same range.
func (s Selection) Equals(other Selection) bool {
	return s.Start == other.Start && s.End == other.End
}

// String returns a string representation of the selection.
func (s Selection) String() string {
	if s.IsEmpty() {
		return fmt.Sprintf("Caret(%d)", s.Start)
	}
	return fmt.Sprintf("Selection(%d→%d)", s.Start, s.End)
}

// CaretAfter computes where the caret lands after text was placed at r,
// following the host convention for cursor bias: a positive bias is
// relative to the end of the text (1 means just after it), zero or a
// negative bias is relative to its start.
func CaretAfter(r Range, bias, length int) Selection {
	var pos int
	if bias > 0 {
		pos = r.End + bias - 1
	} else {
		pos = r.Start + bias
	}
	return NewCaret(clamp(pos, length))
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
