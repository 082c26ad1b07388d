package terminal

import (
	"fmt"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"

	"github.com/dshills/imebridge/internal/bridge"
	"github.com/dshills/imebridge/internal/engine"
	"github.com/dshills/imebridge/internal/input/key"
)

// fakeConn records the calls the keyboard makes. Methods the keyboard
// never uses fall through to the nil embedded interface.
type fakeConn struct {
	bridge.Connection
	calls []string
}

func (c *fakeConn) CommitText(text string, _ int) bool {
	c.calls = append(c.calls, fmt.Sprintf("commit %q", text))
	return true
}

func (c *fakeConn) SetComposingText(text string, _ int, _ ...engine.Span) bool {
	c.calls = append(c.calls, fmt.Sprintf("compose %q", text))
	return true
}

func (c *fakeConn) FinishComposingText() bool {
	c.calls = append(c.calls, "finish")
	return true
}

func (c *fakeConn) KeyDown(ev key.Event) bool {
	c.calls = append(c.calls, "down "+ev.Code.String())
	return true
}

func (c *fakeConn) KeyUp(ev key.Event) bool {
	c.calls = append(c.calls, "up "+ev.Code.String())
	return true
}

func (c *fakeConn) PerformContextAction(a bridge.ContextAction) bool {
	c.calls = append(c.calls, "action "+a.String())
	return true
}

func runes(k *Keyboard, s string) {
	for _, r := range s {
		k.Handle(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
}

func special(k *Keyboard, kk tcell.Key) bool {
	return k.Handle(tcell.NewEventKey(kk, 0, tcell.ModNone))
}

func TestKeyboardDetachedIgnoresKeys(t *testing.T) {
	k := NewKeyboard()
	assert.False(t, special(k, tcell.KeyEnter))
}

func TestKeyboardComposesWords(t *testing.T) {
	c := &fakeConn{}
	k := NewKeyboard()
	k.Attach(c)

	runes(k, "hi ")
	assert.Equal(t, []string{
		`compose "h"`,
		`compose "hi"`,
		`commit "hi"`,
		`commit " "`,
	}, c.calls)
	assert.Empty(t, k.Word())
}

func TestKeyboardEnterCommitsWordFirst(t *testing.T) {
	c := &fakeConn{}
	k := NewKeyboard()
	k.Attach(c)

	runes(k, "ok")
	assert.True(t, special(k, tcell.KeyEnter))
	assert.Equal(t, `commit "ok"`, c.calls[len(c.calls)-1])

	c.calls = nil
	special(k, tcell.KeyEnter)
	assert.Equal(t, []string{"down " + key.CodeEnter.String(), "up " + key.CodeEnter.String()}, c.calls)
}

func TestKeyboardBackspace(t *testing.T) {
	c := &fakeConn{}
	k := NewKeyboard()
	k.Attach(c)

	runes(k, "ab")
	c.calls = nil
	special(k, tcell.KeyBackspace2)
	assert.Equal(t, []string{`compose "a"`}, c.calls)
	assert.Equal(t, "a", k.Word())

	c.calls = nil
	special(k, tcell.KeyBackspace2)
	assert.Equal(t, []string{`compose ""`, "finish"}, c.calls)
	assert.Empty(t, k.Word())

	c.calls = nil
	special(k, tcell.KeyBackspace2)
	assert.Equal(t, []string{"down " + key.CodeDel.String(), "up " + key.CodeDel.String()}, c.calls)
}

func TestKeyboardArrowsKeepWord(t *testing.T) {
	c := &fakeConn{}
	k := NewKeyboard()
	k.Attach(c)

	runes(k, "ab")
	c.calls = nil
	special(k, tcell.KeyLeft)
	assert.Equal(t, []string{"finish", "down " + key.CodeDpadLeft.String(), "up " + key.CodeDpadLeft.String()}, c.calls)
}

func TestKeyboardDirectMode(t *testing.T) {
	c := &fakeConn{}
	k := NewKeyboard()
	k.Attach(c)

	runes(k, "a")
	special(k, tcell.KeyCtrlT)
	assert.Equal(t, ModeDirect, k.Mode())
	assert.Equal(t, `commit "a"`, c.calls[len(c.calls)-1])

	c.calls = nil
	runes(k, "bc")
	assert.Equal(t, []string{`commit "b"`, `commit "c"`}, c.calls)

	special(k, tcell.KeyCtrlT)
	assert.Equal(t, ModeCompose, k.Mode())
	assert.Equal(t, "compose", k.Mode().String())
}

func TestKeyboardContextActions(t *testing.T) {
	c := &fakeConn{}
	k := NewKeyboard()
	k.Attach(c)

	for _, kk := range []tcell.Key{tcell.KeyCtrlA, tcell.KeyCtrlC, tcell.KeyCtrlX, tcell.KeyCtrlV} {
		assert.True(t, special(k, kk))
	}
	assert.Equal(t, []string{"action selectAll", "action copy", "action cut", "action paste"}, c.calls)
}

func TestKeyboardAttachDropsWord(t *testing.T) {
	k := NewKeyboard()
	k.Attach(&fakeConn{})
	runes(k, "xy")

	c := &fakeConn{}
	k.Attach(c)
	assert.Empty(t, k.Word())
	assert.False(t, special(k, tcell.KeyF12))
	assert.Empty(t, c.calls)
}
