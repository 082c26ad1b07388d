package buffer

import (
	"errors"
	"strings"

	"github.com/rivo/uniseg"
)

// Errors returned by buffer operations.
var (
	ErrRangeInvalid = errors.New("invalid range")
)

// Buffer is a rune buffer with range annotations.
type Buffer struct {
	runes []rune

	composing    Range
	hasComposing bool
	styles       []Annotation

	normalize bool
	maxLen    int
	revision  uint64
}

// NewBuffer creates a new empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{normalize: true}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewBufferFromString creates a buffer with initial content.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := NewBuffer(opts...)
	b.runes = b.prepare(s, 0)
	return b
}

func (b *Buffer) prepare(s string, room int) []rune {
	if b.normalize {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
	}
	r := []rune(s)
	if b.maxLen > 0 {
		limit := b.maxLen - room
		if limit < 0 {
			limit = 0
		}
		if len(r) > limit {
			r = r[:limit]
		}
	}
	return r
}

// Read Operations

// Text returns the full buffer content.
func (b *Buffer) Text() string {
	return string(b.runes)
}

// Len returns the length in runes.
func (b *Buffer) Len() int {
	return len(b.runes)
}

// IsEmpty reports whether the buffer has no text.
func (b *Buffer) IsEmpty() bool {
	return len(b.runes) == 0
}

// Revision increments on every mutation.
func (b *Buffer) Revision() uint64 {
	return b.revision
}

// TextRange returns the text in r. Out-of-range bounds are clamped.
func (b *Buffer) TextRange(r Range) string {
	r = NewRange(r.Start, r.End).Clamp(len(b.runes))
	return string(b.runes[r.Start:r.End])
}

// TextBefore returns up to n runes ending at offset.
func (b *Buffer) TextBefore(offset, n int) string {
	if n <= 0 {
		return ""
	}
	offset = clamp(offset, len(b.runes))
	return b.TextRange(Range{Start: offset - n, End: offset})
}

// TextAfter returns up to n runes starting at offset.
func (b *Buffer) TextAfter(offset, n int) string {
	if n <= 0 {
		return ""
	}
	offset = clamp(offset, len(b.runes))
	return b.TextRange(Range{Start: offset, End: offset + n})
}

// Write Operations

// Replace replaces the text in r with text and returns the range now
// occupied by the inserted text. Annotations after r are shifted;
// annotations overlapping r are dropped.
func (b *Buffer) Replace(r Range, text string) Range {
	r = NewRange(r.Start, r.End).Clamp(len(b.runes))
	ins := b.prepare(text, len(b.runes)-r.Len())

	out := make([]rune, 0, len(b.runes)-r.Len()+len(ins))
	out = append(out, b.runes[:r.Start]...)
	out = append(out, ins...)
	out = append(out, b.runes[r.End:]...)
	b.runes = out
	b.revision++

	delta := len(ins) - r.Len()
	if b.hasComposing {
		if c, ok := adjust(b.composing, r, delta); ok {
			b.composing = c
		} else {
			b.hasComposing = false
		}
	}
	kept := b.styles[:0]
	for _, a := range b.styles {
		if rr, ok := adjust(a.Range, r, delta); ok {
			a.Range = rr
			kept = append(kept, a)
		}
	}
	b.styles = kept

	return Range{Start: r.Start, End: r.Start + len(ins)}
}

// adjust repositions a for an edit of r that changed the length by delta.
func adjust(a, r Range, delta int) (Range, bool) {
	switch {
	case a.Start >= r.End:
		return a.Shift(delta), true
	case a.End <= r.Start:
		return a, true
	default:
		return Range{}, false
	}
}

// Insert inserts text at offset.
func (b *Buffer) Insert(offset int, text string) Range {
	return b.Replace(Range{Start: offset, End: offset}, text)
}

// Delete removes the text in r.
func (b *Buffer) Delete(r Range) {
	b.Replace(r, "")
}

// SetText overwrites the whole buffer and strips all annotations.
func (b *Buffer) SetText(s string) {
	b.runes = b.prepare(s, 0)
	b.hasComposing = false
	b.styles = nil
	b.revision++
}

// Annotations

// Composing returns the composing range, if any.
func (b *Buffer) Composing() (Range, bool) {
	return b.composing, b.hasComposing
}

// SetComposing marks r as the composing range, replacing any previous one.
func (b *Buffer) SetComposing(r Range) error {
	r = NewRange(r.Start, r.End)
	if r.Start < 0 || r.End > len(b.runes) {
		return ErrRangeInvalid
	}
	b.composing = r
	b.hasComposing = true
	return nil
}

// ClearComposing removes the composing range and its style annotations.
func (b *Buffer) ClearComposing() {
	b.hasComposing = false
	b.styles = nil
}

// AddAnnotation attaches a style annotation. The range is clamped.
func (b *Buffer) AddAnnotation(a Annotation) {
	a.Range = NewRange(a.Start, a.End).Clamp(len(b.runes))
	if a.IsEmpty() {
		return
	}
	b.styles = append(b.styles, a)
}

// Annotations returns a copy of the style annotations.
func (b *Buffer) Annotations() []Annotation {
	if len(b.styles) == 0 {
		return nil
	}
	out := make([]Annotation, len(b.styles))
	copy(out, b.styles)
	return out
}

// ClearAnnotations strips the style annotations but keeps the composing range.
func (b *Buffer) ClearAnnotations() {
	b.styles = nil
}

// Graphemes

// LastClusterLen returns the rune length of the last grapheme cluster in r.
func (b *Buffer) LastClusterLen(r Range) int {
	return LastClusterLen(b.TextRange(r))
}

// LastClusterLen returns the rune length of the last grapheme cluster of s.
func LastClusterLen(s string) int {
	n := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		n = len(g.Runes())
	}
	return n
}

// ClusterCount returns the number of grapheme clusters (user-perceived
// characters) in s.
func ClusterCount(s string) int {
	return uniseg.GraphemeClusterCount(s)
}
