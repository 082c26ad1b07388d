package key

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Action is the phase of a key event.
type Action uint8

const (
	ActionDown Action = iota
	ActionUp
	// ActionMultiple carries either a repeat count or a string of
	// characters that could not be mapped to single keys.
	ActionMultiple
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionDown:
		return "down"
	case ActionUp:
		return "up"
	case ActionMultiple:
		return "multiple"
	default:
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
}

// Event represents a single key action.
type Event struct {
	Code   Code
	Action Action

	// Rune is the character the key produces with the current modifiers,
	// or 0 for non-printing keys.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier

	// Repeat is the repeat count for ActionMultiple.
	Repeat int

	// Chars holds the characters of an ActionMultiple event with
	// CodeUnknown.
	Chars string

	// Synthesized is set on events generated from committed text rather
	// than delivered by a keyboard.
	Synthesized bool

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// NewEvent creates a key event with the current timestamp.
func NewEvent(code Code, action Action, r rune, mods Modifier) Event {
	return Event{
		Code:      code,
		Action:    action,
		Rune:      r,
		Modifiers: mods,
		Timestamp: time.Now(),
	}
}

// Down creates a key-down event.
func Down(code Code, r rune, mods Modifier) Event {
	return NewEvent(code, ActionDown, r, mods)
}

// Up creates a key-up event.
func Up(code Code, r rune, mods Modifier) Event {
	return NewEvent(code, ActionUp, r, mods)
}

// Multiple creates an ActionMultiple event carrying characters.
func Multiple(chars string) Event {
	return Event{
		Code:      CodeUnknown,
		Action:    ActionMultiple,
		Chars:     chars,
		Repeat:    1,
		Timestamp: time.Now(),
	}
}

// IsDown reports whether this is a key-down event.
func (e Event) IsDown() bool {
	return e.Action == ActionDown
}

// IsChar returns true if the event produces a printable character.
func (e Event) IsChar() bool {
	return e.Rune != 0 && unicode.IsPrint(e.Rune)
}

// IsModified returns true if a modifier other than Shift is held.
func (e Event) IsModified() bool {
	return e.Modifiers&(ModCtrl|ModAlt|ModMeta) != 0
}

// String returns a compact representation like "down:Shift+A('A')".
func (e Event) String() string {
	var b strings.Builder
	b.WriteString(e.Action.String())
	b.WriteByte(':')
	if mods := e.Modifiers.String(); mods != "" {
		b.WriteString(mods)
		b.WriteByte('+')
	}
	b.WriteString(e.Code.String())
	if e.IsChar() {
		fmt.Fprintf(&b, "(%q)", e.Rune)
	}
	if e.Action == ActionMultiple && e.Chars != "" {
		fmt.Fprintf(&b, "(%q)", e.Chars)
	}
	return b.String()
}
