// Package host declares the collaborators the bridge talks to: the host
// platform's input method manager and clipboard, and the notification
// surface the remote engine calls back into.
package host

import (
	"fmt"

	"github.com/dshills/imebridge/internal/capability"
	"github.com/dshills/imebridge/internal/engine"
)

// InputMethodManager is the host input framework service. All methods are
// called on the UI loop.
type InputMethodManager interface {
	// RestartInput drops the current input connection and creates a new
	// one, re-reading the editor info.
	RestartInput()
	ShowSoftInput()
	HideSoftInput()
	// UpdateSelection reports the selection and composing range. Composing
	// offsets are -1 without a composition.
	UpdateSelection(selStart, selEnd, compStart, compEnd int)
	// UpdateExtractedText pushes a snapshot to a subscribed extract view.
	UpdateExtractedText(token int, text engine.Extracted)
	IsFullscreenMode() bool
	ShowInputMethodPicker()
	// IsActive reports whether the bridge's view is the one the input
	// method is serving.
	IsActive() bool
}

// Clipboard is the host clipboard.
type Clipboard interface {
	Text() (string, bool)
	SetText(text string)
}

// IMEKind is the kind argument of Notifier.NotifyIME.
type IMEKind uint8

const (
	IMEResetInputState IMEKind = iota + 1
	IMESetOpenState
	IMECancelComposition
	IMEFocusChange
)

// String returns the kind name.
func (k IMEKind) String() string {
	switch k {
	case IMEResetInputState:
		return "ResetInputState"
	case IMESetOpenState:
		return "SetOpenState"
	case IMECancelComposition:
		return "CancelComposition"
	case IMEFocusChange:
		return "FocusChange"
	default:
		return fmt.Sprintf("IMEKind(%d)", uint8(k))
	}
}

// Notifier receives engine-origin notifications. Methods are called on the
// engine loop and must not touch UI state directly.
type Notifier interface {
	// NotifyIME carries a state flag: open/closed for SetOpenState,
	// focused/blurred for FocusChange, unused otherwise.
	NotifyIME(kind IMEKind, state int)
	NotifyIMEEnabled(state capability.State, typeHint, actionHint string)
	// NotifyIMEChange reports the canonical text and selection. A negative
	// newEnd means only the selection changed.
	NotifyIMEChange(text string, selStart, selEnd, newEnd int)
}
