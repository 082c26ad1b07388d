package bridge

import (
	"fmt"

	"github.com/dshills/imebridge/internal/engine"
	"github.com/dshills/imebridge/internal/input/key"
)

// ContextAction is a clipboard or selection command from the host's
// context menu.
type ContextAction uint8

const (
	ActionSelectAll ContextAction = iota + 1
	ActionCut
	ActionCopy
	ActionPaste
)

// String returns the action name.
func (a ContextAction) String() string {
	switch a {
	case ActionSelectAll:
		return "selectAll"
	case ActionCut:
		return "cut"
	case ActionCopy:
		return "copy"
	case ActionPaste:
		return "paste"
	default:
		return fmt.Sprintf("ContextAction(%d)", uint8(a))
	}
}

// Connection is the host input framework's view of an editable field.
// Mutating methods return false when the connection is no longer current.
// All methods must be called on the UI loop.
type Connection interface {
	CommitText(text string, cursorBias int) bool
	SetComposingText(text string, cursorBias int, spans ...engine.Span) bool
	SetComposingRegion(start, end int) bool
	FinishComposingText() bool
	SetSelection(start, end int) bool
	DeleteSurroundingText(before, after int) bool

	TextBeforeCursor(n int) string
	TextAfterCursor(n int) string
	SelectedText() string
	ExtractedText(req ExtractRequest) (engine.Extracted, bool)

	KeyDown(ev key.Event) bool
	KeyUp(ev key.Event) bool
	KeyMultiple(ev key.Event) bool
	KeyLongPress(ev key.Event) bool

	BeginBatchEdit() bool
	EndBatchEdit() bool
	PerformContextAction(action ContextAction) bool

	// Close detaches the connection. Later calls return false.
	Close()
}

// connection is the Connection handed out by Context.Connect.
type connection struct {
	ctx    *Context
	id     uint64
	closed bool
}

// mirror asserts the calling loop and returns the mirror, or nil when the
// connection is stale.
func (c *connection) mirror() *engine.Mirror {
	c.ctx.ui.AssertCurrent()
	if c.closed || c.ctx.closed.Load() {
		return nil
	}
	return c.ctx.ensureMirror()
}

func (c *connection) CommitText(text string, cursorBias int) bool {
	m := c.mirror()
	if m == nil {
		return false
	}
	m.CommitText(text, cursorBias)
	return true
}

func (c *connection) SetComposingText(text string, cursorBias int, spans ...engine.Span) bool {
	m := c.mirror()
	if m == nil {
		return false
	}
	m.SetComposingText(text, cursorBias, spans...)
	return true
}

func (c *connection) SetComposingRegion(start, end int) bool {
	m := c.mirror()
	if m == nil {
		return false
	}
	m.SetComposingRegion(start, end)
	return true
}

func (c *connection) FinishComposingText() bool {
	m := c.mirror()
	if m == nil {
		return false
	}
	m.FinishComposingText()
	return true
}

func (c *connection) SetSelection(start, end int) bool {
	m := c.mirror()
	if m == nil {
		return false
	}
	m.SetSelection(start, end)
	return true
}

func (c *connection) DeleteSurroundingText(before, after int) bool {
	m := c.mirror()
	if m == nil {
		return false
	}
	m.DeleteSurroundingText(before, after)
	return true
}

func (c *connection) TextBeforeCursor(n int) string {
	m := c.mirror()
	if m == nil {
		return ""
	}
	return m.TextBeforeCursor(n)
}

func (c *connection) TextAfterCursor(n int) string {
	m := c.mirror()
	if m == nil {
		return ""
	}
	return m.TextAfterCursor(n)
}

func (c *connection) SelectedText() string {
	m := c.mirror()
	if m == nil {
		return ""
	}
	return m.SelectedText()
}

// ExtractedText returns a snapshot of the field. A monitoring request
// replaces any earlier one; a plain request cancels it.
func (c *connection) ExtractedText(req ExtractRequest) (engine.Extracted, bool) {
	m := c.mirror()
	if m == nil {
		return engine.Extracted{}, false
	}
	if req.Monitor {
		c.ctx.extract = &req
	} else {
		c.ctx.extract = nil
	}
	return m.Extract(), true
}

// KeyDown forwards a key press. A delete while composing first shrinks
// the composition; the key only reaches the engine once the composition
// is down to a single cluster.
func (c *connection) KeyDown(ev key.Event) bool {
	m := c.mirror()
	if m == nil {
		return false
	}
	ev.Action = key.ActionDown
	if ev.Code == key.CodeDel && !ev.IsModified() && m.IsComposing() {
		if !m.OnKeyDel() {
			return true
		}
	}
	m.Key(ev)
	return true
}

func (c *connection) KeyUp(ev key.Event) bool {
	m := c.mirror()
	if m == nil {
		return false
	}
	ev.Action = key.ActionUp
	m.Key(ev)
	return true
}

func (c *connection) KeyMultiple(ev key.Event) bool {
	m := c.mirror()
	if m == nil {
		return false
	}
	ev.Action = key.ActionMultiple
	m.Key(ev)
	return true
}

// KeyLongPress is not handled; the host applies its own default.
func (c *connection) KeyLongPress(key.Event) bool {
	c.ctx.ui.AssertCurrent()
	return false
}

func (c *connection) BeginBatchEdit() bool {
	m := c.mirror()
	if m == nil {
		return false
	}
	m.BeginBatchEdit()
	return true
}

func (c *connection) EndBatchEdit() bool {
	m := c.mirror()
	if m == nil {
		return false
	}
	m.EndBatchEdit()
	return true
}

func (c *connection) PerformContextAction(action ContextAction) bool {
	m := c.mirror()
	if m == nil {
		return false
	}
	cb := c.ctx.clipboard
	switch action {
	case ActionSelectAll:
		m.SelectAll()
		return true
	case ActionCopy, ActionCut:
		if cb == nil {
			return false
		}
		sel := m.SelectedText()
		if sel == "" {
			return false
		}
		cb.SetText(sel)
		if action == ActionCut {
			m.DeleteSelection()
		}
		return true
	case ActionPaste:
		if cb == nil {
			return false
		}
		text, ok := cb.Text()
		if !ok || text == "" {
			return false
		}
		m.CommitText(text, 1)
		return true
	default:
		return false
	}
}

func (c *connection) Close() {
	c.ctx.ui.AssertCurrent()
	c.closed = true
	if c.ctx.conn == c {
		c.ctx.extract = nil
	}
}
