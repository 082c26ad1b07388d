package buffer

import "strings"

// RangeKind categorizes a composition span for the remote engine.
type RangeKind uint8

const (
	// KindRawInput marks text still being typed.
	KindRawInput RangeKind = iota + 1
	// KindConvertedText marks text the input method has converted
	// (a selected candidate).
	KindConvertedText
)

// String returns the kind name.
func (k RangeKind) String() string {
	switch k {
	case KindRawInput:
		return "raw-input"
	case KindConvertedText:
		return "converted-text"
	default:
		return "unknown"
	}
}

// StyleFlags describe which style attributes an annotation carries.
type StyleFlags uint8

const (
	StyleUnderline StyleFlags = 1 << iota
	StyleForeColor
	StyleBackColor
)

// Has reports whether all bits of f are set.
func (s StyleFlags) Has(f StyleFlags) bool {
	return s&f == f
}

// String returns a "|"-joined flag list.
func (s StyleFlags) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	if s.Has(StyleUnderline) {
		parts = append(parts, "underline")
	}
	if s.Has(StyleForeColor) {
		parts = append(parts, "fore")
	}
	if s.Has(StyleBackColor) {
		parts = append(parts, "back")
	}
	return strings.Join(parts, "|")
}

// Span is a style span supplied by the host with composing text.
// Offsets are relative to the start of the composing text.
type Span struct {
	Start     int
	End       int
	Underline bool
	Fore      uint32 // ARGB, zero when unset
	Back      uint32 // ARGB, zero when unset
}

// Annotation is a styled range attached to buffer text.
type Annotation struct {
	Range
	Kind  RangeKind
	Style StyleFlags
	Fore  uint32
	Back  uint32
}

// AnnotationFromSpan converts a host span to an annotation anchored at base.
// Spans with a background color are treated as converted text.
func AnnotationFromSpan(base int, s Span) Annotation {
	a := Annotation{
		Range: NewRange(base+s.Start, base+s.End),
		Kind:  KindRawInput,
		Fore:  s.Fore,
		Back:  s.Back,
	}
	if s.Underline {
		a.Style |= StyleUnderline
	}
	if s.Fore != 0 {
		a.Style |= StyleForeColor
	}
	if s.Back != 0 {
		a.Style |= StyleBackColor
		a.Kind = KindConvertedText
	}
	return a
}
