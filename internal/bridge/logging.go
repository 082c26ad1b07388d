package bridge

import (
	"github.com/dshills/imebridge/internal/engine"
	"github.com/dshills/imebridge/internal/input/key"
	"github.com/dshills/imebridge/internal/logging"
)

// loggingConnection traces every call to the wrapped connection.
type loggingConnection struct {
	next Connection
	log  *logging.Logger
}

// NewLoggingConnection wraps next so that every call and its result is
// logged at debug level.
func NewLoggingConnection(next Connection, l *logging.Logger) Connection {
	if l == nil {
		l = logging.NullLogger
	}
	return &loggingConnection{next: next, log: l.WithComponent("connection")}
}

func (c *loggingConnection) CommitText(text string, cursorBias int) bool {
	ok := c.next.CommitText(text, cursorBias)
	c.log.Debug("commitText(%q, %d) = %t", text, cursorBias, ok)
	return ok
}

func (c *loggingConnection) SetComposingText(text string, cursorBias int, spans ...engine.Span) bool {
	ok := c.next.SetComposingText(text, cursorBias, spans...)
	c.log.Debug("setComposingText(%q, %d, %d spans) = %t", text, cursorBias, len(spans), ok)
	return ok
}

func (c *loggingConnection) SetComposingRegion(start, end int) bool {
	ok := c.next.SetComposingRegion(start, end)
	c.log.Debug("setComposingRegion(%d, %d) = %t", start, end, ok)
	return ok
}

func (c *loggingConnection) FinishComposingText() bool {
	ok := c.next.FinishComposingText()
	c.log.Debug("finishComposingText() = %t", ok)
	return ok
}

func (c *loggingConnection) SetSelection(start, end int) bool {
	ok := c.next.SetSelection(start, end)
	c.log.Debug("setSelection(%d, %d) = %t", start, end, ok)
	return ok
}

func (c *loggingConnection) DeleteSurroundingText(before, after int) bool {
	ok := c.next.DeleteSurroundingText(before, after)
	c.log.Debug("deleteSurroundingText(%d, %d) = %t", before, after, ok)
	return ok
}

func (c *loggingConnection) TextBeforeCursor(n int) string {
	s := c.next.TextBeforeCursor(n)
	c.log.Debug("getTextBeforeCursor(%d) = %q", n, s)
	return s
}

func (c *loggingConnection) TextAfterCursor(n int) string {
	s := c.next.TextAfterCursor(n)
	c.log.Debug("getTextAfterCursor(%d) = %q", n, s)
	return s
}

func (c *loggingConnection) SelectedText() string {
	s := c.next.SelectedText()
	c.log.Debug("getSelectedText() = %q", s)
	return s
}

func (c *loggingConnection) ExtractedText(req ExtractRequest) (engine.Extracted, bool) {
	et, ok := c.next.ExtractedText(req)
	c.log.Debug("getExtractedText(token=%d, monitor=%t) = %q [%d,%d] %t",
		req.Token, req.Monitor, et.Text, et.SelectionStart, et.SelectionEnd, ok)
	return et, ok
}

func (c *loggingConnection) KeyDown(ev key.Event) bool {
	ok := c.next.KeyDown(ev)
	c.log.Debug("onKeyDown(%s) = %t", ev, ok)
	return ok
}

func (c *loggingConnection) KeyUp(ev key.Event) bool {
	ok := c.next.KeyUp(ev)
	c.log.Debug("onKeyUp(%s) = %t", ev, ok)
	return ok
}

func (c *loggingConnection) KeyMultiple(ev key.Event) bool {
	ok := c.next.KeyMultiple(ev)
	c.log.Debug("onKeyMultiple(%s) = %t", ev, ok)
	return ok
}

func (c *loggingConnection) KeyLongPress(ev key.Event) bool {
	ok := c.next.KeyLongPress(ev)
	c.log.Debug("onKeyLongPress(%s) = %t", ev, ok)
	return ok
}

func (c *loggingConnection) BeginBatchEdit() bool {
	ok := c.next.BeginBatchEdit()
	c.log.Debug("beginBatchEdit() = %t", ok)
	return ok
}

func (c *loggingConnection) EndBatchEdit() bool {
	ok := c.next.EndBatchEdit()
	c.log.Debug("endBatchEdit() = %t", ok)
	return ok
}

func (c *loggingConnection) PerformContextAction(action ContextAction) bool {
	ok := c.next.PerformContextAction(action)
	c.log.Debug("performContextAction(%s) = %t", action, ok)
	return ok
}

func (c *loggingConnection) Close() {
	c.next.Close()
	c.log.Debug("close()")
}
