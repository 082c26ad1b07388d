package outbound

import (
	"fmt"

	"github.com/dshills/imebridge/internal/engine/buffer"
	"github.com/dshills/imebridge/internal/input/key"
)

// Kind identifies an outbound event. The set is closed.
type Kind uint8

const (
	KindCompositionBegin Kind = iota + 1
	KindCompositionEnd
	KindSetSelection
	KindSetText
	KindAddRangeAnnotation
	KindDeleteText
	KindKeyInput
	// KindSyncMarker carries a Gate the consumer must release once every
	// earlier event has been processed.
	KindSyncMarker
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{
	KindCompositionBegin,
	KindCompositionEnd,
	KindSetSelection,
	KindSetText,
	KindAddRangeAnnotation,
	KindDeleteText,
	KindKeyInput,
	KindSyncMarker,
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindCompositionBegin:
		return "CompositionBegin"
	case KindCompositionEnd:
		return "CompositionEnd"
	case KindSetSelection:
		return "SetSelection"
	case KindSetText:
		return "SetText"
	case KindAddRangeAnnotation:
		return "AddRangeAnnotation"
	case KindDeleteText:
		return "DeleteText"
	case KindKeyInput:
		return "KeyInput"
	case KindSyncMarker:
		return "SyncMarker"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Event is an immutable message to the remote engine. Which fields are set
// depends on Kind; use the constructors.
type Event struct {
	Kind Kind

	// Seq is assigned by the Channel on send and increases strictly.
	Seq uint64

	// Start and Length address a span for SetSelection and
	// AddRangeAnnotation.
	Start  int
	Length int

	// Caret and Text belong to SetText.
	Caret int
	Text  string

	// Annotation fields belong to AddRangeAnnotation.
	RangeKind buffer.RangeKind
	Style     buffer.StyleFlags
	Fore      uint32
	Back      uint32

	// Key belongs to KeyInput.
	Key key.Event

	gate *Gate
}

// CompositionBegin starts a composition at the engine's current selection.
func CompositionBegin() Event {
	return Event{Kind: KindCompositionBegin}
}

// CompositionEnd ends the engine's composition, keeping its text.
func CompositionEnd() Event {
	return Event{Kind: KindCompositionEnd}
}

// SetSelection selects [start, start+length).
func SetSelection(start, length int) Event {
	return Event{Kind: KindSetSelection, Start: start, Length: length}
}

// SetText replaces the selection with text and moves the caret to the
// absolute offset caret.
func SetText(caret int, text string) Event {
	return Event{Kind: KindSetText, Caret: caret, Text: text}
}

// AddRangeAnnotation attaches a style span to [start, start+length).
func AddRangeAnnotation(start, length int, kind buffer.RangeKind, style buffer.StyleFlags, fore, back uint32) Event {
	return Event{
		Kind:      KindAddRangeAnnotation,
		Start:     start,
		Length:    length,
		RangeKind: kind,
		Style:     style,
		Fore:      fore,
		Back:      back,
	}
}

// AnnotationEvent converts a buffer annotation.
func AnnotationEvent(a buffer.Annotation) Event {
	return AddRangeAnnotation(a.Start, a.Len(), a.Kind, a.Style, a.Fore, a.Back)
}

// DeleteText deletes the engine's current selection.
func DeleteText() Event {
	return Event{Kind: KindDeleteText}
}

// KeyInput delivers a key event.
func KeyInput(ev key.Event) Event {
	return Event{Kind: KindKeyInput, Key: ev}
}

// SyncMarker wraps g in a marker event.
func SyncMarker(g *Gate) Event {
	return Event{Kind: KindSyncMarker, gate: g}
}

// Gate returns the gate carried by a sync marker, or nil.
func (e Event) Gate() *Gate {
	return e.gate
}

// String returns a compact description for logs.
func (e Event) String() string {
	switch e.Kind {
	case KindSetSelection:
		return fmt.Sprintf("SetSelection(%d,%d)", e.Start, e.Length)
	case KindSetText:
		return fmt.Sprintf("SetText(%d,%q)", e.Caret, e.Text)
	case KindAddRangeAnnotation:
		return fmt.Sprintf("AddRangeAnnotation(%d,%d,%s,%s)", e.Start, e.Length, e.RangeKind, e.Style)
	case KindKeyInput:
		return fmt.Sprintf("KeyInput(%s)", e.Key)
	default:
		return e.Kind.String()
	}
}
