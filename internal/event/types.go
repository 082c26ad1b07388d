package event

import (
	"fmt"
	"time"

	"github.com/dshills/imebridge/internal/capability"
)

// Kind identifies an engine notification. The set is closed.
type Kind uint8

const (
	// KindResetInputState: the engine discarded the active composition.
	KindResetInputState Kind = iota + 1
	// KindSetOpenState: the engine asks for the keyboard to open or close.
	KindSetOpenState
	// KindCancelComposition: the engine cancelled the composition.
	KindCancelComposition
	// KindFocusChange: an editable element gained or lost focus.
	KindFocusChange
	// KindIMEEnabled: new capabilities for the focused element.
	KindIMEEnabled
	// KindTextChange: the canonical text changed.
	KindTextChange
	// KindSelectionChange: only the canonical selection changed.
	KindSelectionChange

	kindCount
)

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := KindResetInputState; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Valid reports whether k is in the closed set.
func (k Kind) Valid() bool {
	return k >= KindResetInputState && k < kindCount
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindResetInputState:
		return "ResetInputState"
	case KindSetOpenState:
		return "SetOpenState"
	case KindCancelComposition:
		return "CancelComposition"
	case KindFocusChange:
		return "FocusChange"
	case KindIMEEnabled:
		return "IMEEnabled"
	case KindTextChange:
		return "TextChange"
	case KindSelectionChange:
		return "SelectionChange"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Notification is one engine-origin state change. Which fields are set
// depends on Kind.
type Notification struct {
	Kind      Kind
	Timestamp time.Time

	// Open is the requested state for SetOpenState; Focused is the new
	// focus for FocusChange.
	Open    bool
	Focused bool

	// Capabilities belongs to IMEEnabled.
	Capabilities capability.Capabilities

	// Text, selection and NewEnd belong to TextChange and SelectionChange.
	Text     string
	SelStart int
	SelEnd   int
	NewEnd   int
}

// String returns a compact description for logs.
func (n Notification) String() string {
	switch n.Kind {
	case KindFocusChange:
		return fmt.Sprintf("FocusChange(%t)", n.Focused)
	case KindSetOpenState:
		return fmt.Sprintf("SetOpenState(%t)", n.Open)
	case KindIMEEnabled:
		return fmt.Sprintf("IMEEnabled(%s)", n.Capabilities)
	case KindTextChange:
		return fmt.Sprintf("TextChange(%q,%d,%d,%d)", n.Text, n.SelStart, n.SelEnd, n.NewEnd)
	case KindSelectionChange:
		return fmt.Sprintf("SelectionChange(%d,%d)", n.SelStart, n.SelEnd)
	default:
		return n.Kind.String()
	}
}

// Priority determines handler execution order.
// Lower values execute first.
type Priority int

const (
	// PriorityCritical is for the bridge handlers that keep the mirror in
	// sync.
	PriorityCritical Priority = 0

	// PriorityHigh is for handlers that react to the synced state.
	PriorityHigh Priority = 100

	// PriorityNormal is the default priority.
	PriorityNormal Priority = 200

	// PriorityLow is for metrics and logging handlers that run last.
	PriorityLow Priority = 300
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch {
	case p <= PriorityCritical:
		return "critical"
	case p <= PriorityHigh:
		return "high"
	case p <= PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// Handler processes a notification.
type Handler func(n Notification) error
