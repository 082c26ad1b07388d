// Package terminal is a tcell based host for running the bridge in a
// terminal. Terminal plays the host input method manager and draws the
// mirror next to the engine's canonical document; Keyboard turns terminal
// keys into input connection calls.
package terminal

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/imebridge/internal/engine"
)

// Terminal implements host.InputMethodManager over a tcell screen. The
// manager methods are called on the UI loop; drawing may happen anywhere.
type Terminal struct {
	mu     sync.Mutex
	screen tcell.Screen

	visible   bool
	restarts  int
	selection [4]int
	extracted engine.Extracted
	message   string
	active    bool

	onRestart func()
}

// New wraps screen. Use tcell.NewScreen for a real terminal or
// tcell.NewSimulationScreen in tests.
func New(screen tcell.Screen) *Terminal {
	return &Terminal{screen: screen, active: true, selection: [4]int{0, 0, -1, -1}}
}

// Init prepares the screen.
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.EnablePaste()
	return nil
}

// Fini restores the terminal.
func (t *Terminal) Fini() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Fini()
}

// PollEvent blocks for the next terminal event. It returns nil after Fini.
func (t *Terminal) PollEvent() tcell.Event {
	return t.screen.PollEvent()
}

// OnRestart sets the callback run when the bridge asks for a new input
// connection.
func (t *Terminal) OnRestart(fn func()) {
	t.mu.Lock()
	t.onRestart = fn
	t.mu.Unlock()
}

// SetActive controls what IsActive reports.
func (t *Terminal) SetActive(active bool) {
	t.mu.Lock()
	t.active = active
	t.mu.Unlock()
}

// RestartInput implements host.InputMethodManager.
func (t *Terminal) RestartInput() {
	t.mu.Lock()
	t.restarts++
	fn := t.onRestart
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// ShowSoftInput implements host.InputMethodManager.
func (t *Terminal) ShowSoftInput() { t.setVisible(true) }

// HideSoftInput implements host.InputMethodManager.
func (t *Terminal) HideSoftInput() { t.setVisible(false) }

func (t *Terminal) setVisible(v bool) {
	t.mu.Lock()
	t.visible = v
	t.mu.Unlock()
}

// UpdateSelection implements host.InputMethodManager.
func (t *Terminal) UpdateSelection(selStart, selEnd, compStart, compEnd int) {
	t.mu.Lock()
	t.selection = [4]int{selStart, selEnd, compStart, compEnd}
	t.mu.Unlock()
}

// UpdateExtractedText implements host.InputMethodManager.
func (t *Terminal) UpdateExtractedText(_ int, text engine.Extracted) {
	t.mu.Lock()
	t.extracted = text
	t.mu.Unlock()
}

// IsFullscreenMode implements host.InputMethodManager.
func (t *Terminal) IsFullscreenMode() bool { return false }

// ShowInputMethodPicker implements host.InputMethodManager.
func (t *Terminal) ShowInputMethodPicker() {
	t.Notice("input method picker requested")
}

// IsActive implements host.InputMethodManager.
func (t *Terminal) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Notice sets the status message.
func (t *Terminal) Notice(msg string) {
	t.mu.Lock()
	t.message = msg
	t.mu.Unlock()
}

// State is the host-side view of the keyboard.
type State struct {
	Visible   bool
	Restarts  int
	Selection [4]int
	Extracted engine.Extracted
	Message   string
}

// State returns a snapshot of what the bridge has told the host.
func (t *Terminal) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{
		Visible:   t.visible,
		Restarts:  t.restarts,
		Selection: t.selection,
		Extracted: t.extracted,
		Message:   t.message,
	}
}

// View is everything drawn in one frame.
type View struct {
	Mirror    string
	Composing engine.Range
	HasComp   bool
	Caret     int
	Engine    string
	Word      string
	Mode      Mode
	Info      string
	Stats     string
}

var (
	styleLabel = tcell.StyleDefault.Bold(true)
	styleComp  = tcell.StyleDefault.Underline(true)
	styleCaret = tcell.StyleDefault.Reverse(true)
	styleDim   = tcell.StyleDefault.Dim(true)
)

// Draw renders v and the host state.
func (t *Terminal) Draw(v View) {
	st := t.State()

	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.screen
	s.Clear()

	kb := "hidden"
	if st.Visible {
		kb = "shown"
	}
	t.text(0, 0, styleLabel, "imebridge")
	t.text(10, 0, styleDim, fmt.Sprintf("keyboard %s  restarts %d  mode %s  %s", kb, st.Restarts, v.Mode, v.Info))

	t.text(0, 2, styleLabel, "mirror ")
	t.field(7, 2, v)
	t.text(0, 3, styleLabel, "engine ")
	t.text(7, 3, tcell.StyleDefault, v.Engine)

	sel := st.Selection
	t.text(0, 5, styleDim, fmt.Sprintf("selection %d..%d  composing %d..%d  word %q", sel[0], sel[1], sel[2], sel[3], v.Word))
	t.text(0, 6, styleDim, v.Stats)
	if st.Message != "" {
		t.text(0, 7, tcell.StyleDefault, st.Message)
	}

	_, h := s.Size()
	t.text(0, h-1, styleDim, "type to compose  space/enter commit  ^T mode  ^A ^X ^C ^V  F2 reset  F3 clear  F4 focus  F5 picker  Esc quit")
	s.Show()
}

// field draws the mirror text with the composing span underlined and the
// caret in reverse video. Offsets are in runes.
func (t *Terminal) field(x, y int, v View) {
	i := 0
	for _, r := range v.Mirror {
		style := tcell.StyleDefault
		if v.HasComp && i >= v.Composing.Start && i < v.Composing.End {
			style = styleComp
		}
		if i == v.Caret {
			style = styleCaret
		}
		x += t.put(x, y, style, r)
		i++
	}
	if v.Caret >= i {
		t.screen.SetContent(x, y, ' ', nil, styleCaret)
	}
}

func (t *Terminal) text(x, y int, style tcell.Style, s string) {
	for _, r := range s {
		x += t.put(x, y, style, r)
	}
}

// put draws one rune and returns its cell width.
func (t *Terminal) put(x, y int, style tcell.Style, r rune) int {
	w := uniseg.StringWidth(string(r))
	if w == 0 {
		w = 1
	}
	t.screen.SetContent(x, y, r, nil, style)
	return w
}
