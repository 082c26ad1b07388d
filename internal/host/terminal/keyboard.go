package terminal

import (
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/imebridge/internal/bridge"
	"github.com/dshills/imebridge/internal/input/key"
)

// Mode selects how the keyboard turns letters into edits.
type Mode uint8

const (
	// ModeCompose collects letters into a composing word that is committed
	// on space, enter or punctuation.
	ModeCompose Mode = iota
	// ModeDirect commits every character on its own.
	ModeDirect
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeDirect {
		return "direct"
	}
	return "compose"
}

// Keyboard is a small input method driving a bridge connection from
// terminal key events. It must be used on the UI loop.
type Keyboard struct {
	conn bridge.Connection
	word []rune
	mode Mode
}

// NewKeyboard creates a detached keyboard in compose mode.
func NewKeyboard() *Keyboard {
	return &Keyboard{}
}

// Attach switches to a new connection and forgets the composing word.
func (k *Keyboard) Attach(conn bridge.Connection) {
	k.conn = conn
	k.word = nil
}

// Word returns the word being composed.
func (k *Keyboard) Word() string {
	return string(k.word)
}

// Mode returns the current mode.
func (k *Keyboard) Mode() Mode {
	return k.mode
}

// ToggleMode flips between compose and direct entry, committing any word.
func (k *Keyboard) ToggleMode() {
	k.flush()
	if k.mode == ModeCompose {
		k.mode = ModeDirect
	} else {
		k.mode = ModeCompose
	}
}

// Handle applies ev and reports whether it was consumed.
func (k *Keyboard) Handle(ev *tcell.EventKey) bool {
	if k.conn == nil {
		return false
	}
	switch ev.Key() {
	case tcell.KeyRune:
		k.typeRune(ev.Rune())
	case tcell.KeyEnter:
		if len(k.word) > 0 {
			k.flush()
			return true
		}
		k.press(key.CodeEnter, '\n')
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		k.backspace()
	case tcell.KeyDelete:
		k.flush()
		k.press(key.CodeForwardDel, 0)
	case tcell.KeyLeft:
		k.finish()
		k.press(key.CodeDpadLeft, 0)
	case tcell.KeyRight:
		k.finish()
		k.press(key.CodeDpadRight, 0)
	case tcell.KeyHome:
		k.finish()
		k.press(key.CodeMoveHome, 0)
	case tcell.KeyEnd:
		k.finish()
		k.press(key.CodeMoveEnd, 0)
	case tcell.KeyCtrlA:
		k.flush()
		k.conn.PerformContextAction(bridge.ActionSelectAll)
	case tcell.KeyCtrlX:
		k.flush()
		k.conn.PerformContextAction(bridge.ActionCut)
	case tcell.KeyCtrlC:
		k.conn.PerformContextAction(bridge.ActionCopy)
	case tcell.KeyCtrlV:
		k.flush()
		k.conn.PerformContextAction(bridge.ActionPaste)
	case tcell.KeyCtrlT:
		k.ToggleMode()
	default:
		return false
	}
	return true
}

func (k *Keyboard) typeRune(r rune) {
	if k.mode == ModeCompose && unicode.IsLetter(r) {
		k.word = append(k.word, r)
		k.conn.SetComposingText(string(k.word), 1)
		return
	}
	k.flush()
	k.conn.CommitText(string(r), 1)
}

func (k *Keyboard) backspace() {
	switch len(k.word) {
	case 0:
		k.press(key.CodeDel, 0)
	case 1:
		k.word = nil
		k.conn.SetComposingText("", 1)
		k.conn.FinishComposingText()
	default:
		k.word = k.word[:len(k.word)-1]
		k.conn.SetComposingText(string(k.word), 1)
	}
}

// flush commits the composing word.
func (k *Keyboard) flush() {
	if len(k.word) == 0 {
		return
	}
	k.conn.CommitText(string(k.word), 1)
	k.word = nil
}

// finish keeps the composing word in place as plain text.
func (k *Keyboard) finish() {
	if len(k.word) == 0 {
		return
	}
	k.conn.FinishComposingText()
	k.word = nil
}

func (k *Keyboard) press(code key.Code, r rune) {
	k.conn.KeyDown(key.Down(code, r, key.ModNone))
	k.conn.KeyUp(key.Up(code, r, key.ModNone))
}
