// Package hosttest provides recording fakes for the host interfaces.
package hosttest

import (
	"fmt"
	"sync"

	"github.com/dshills/imebridge/internal/engine"
)

// IMM is a recording InputMethodManager. Safe for concurrent use.
type IMM struct {
	mu         sync.Mutex
	calls      []string
	extracted  []engine.Extracted
	fullscreen bool
	active     bool
	onCall     func(name string)
}

// NewIMM creates an active, non-fullscreen fake.
func NewIMM() *IMM {
	return &IMM{active: true}
}

// OnCall registers a hook run after each recorded call.
func (m *IMM) OnCall(fn func(name string)) {
	m.mu.Lock()
	m.onCall = fn
	m.mu.Unlock()
}

func (m *IMM) record(name string) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	fn := m.onCall
	m.mu.Unlock()
	if fn != nil {
		fn(name)
	}
}

func (m *IMM) RestartInput()          { m.record("RestartInput") }
func (m *IMM) ShowSoftInput()         { m.record("ShowSoftInput") }
func (m *IMM) HideSoftInput()         { m.record("HideSoftInput") }
func (m *IMM) ShowInputMethodPicker() { m.record("ShowInputMethodPicker") }

func (m *IMM) UpdateSelection(selStart, selEnd, compStart, compEnd int) {
	m.record(fmt.Sprintf("UpdateSelection(%d,%d,%d,%d)", selStart, selEnd, compStart, compEnd))
}

func (m *IMM) UpdateExtractedText(token int, text engine.Extracted) {
	m.mu.Lock()
	m.extracted = append(m.extracted, text)
	m.mu.Unlock()
	m.record(fmt.Sprintf("UpdateExtractedText(%d)", token))
}

func (m *IMM) IsFullscreenMode() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fullscreen
}

func (m *IMM) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// SetActive changes the IsActive result.
func (m *IMM) SetActive(active bool) {
	m.mu.Lock()
	m.active = active
	m.mu.Unlock()
}

// SetFullscreen changes the IsFullscreenMode result.
func (m *IMM) SetFullscreen(fs bool) {
	m.mu.Lock()
	m.fullscreen = fs
	m.mu.Unlock()
}

// Calls returns a copy of the recorded calls.
func (m *IMM) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Count returns how many times the named method was called. Calls with
// arguments are matched by their name prefix.
func (m *IMM) Count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name || (len(c) > len(name) && c[:len(name)] == name && c[len(name)] == '(') {
			n++
		}
	}
	return n
}

// Extracted returns the pushed extract snapshots.
func (m *IMM) Extracted() []engine.Extracted {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]engine.Extracted(nil), m.extracted...)
}

// Reset clears the recorded calls.
func (m *IMM) Reset() {
	m.mu.Lock()
	m.calls = nil
	m.extracted = nil
	m.mu.Unlock()
}

// Clipboard is an in-memory clipboard.
type Clipboard struct {
	mu   sync.Mutex
	text string
	set  bool
}

// Text returns the clipboard text.
func (c *Clipboard) Text() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, c.set
}

// SetText replaces the clipboard text.
func (c *Clipboard) SetText(text string) {
	c.mu.Lock()
	c.text = text
	c.set = true
	c.mu.Unlock()
}
