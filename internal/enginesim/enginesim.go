// Package enginesim is an in-process stand-in for the remote content
// engine.
//
// The engine owns the canonical document and runs on its own loop. A pump
// goroutine drains the outbound channel and posts each event to that loop
// in order; sync markers are released only after every earlier event has
// been applied. Document changes that did not originate from the bridge
// (page scripts, cancelled key defaults, external API calls) are reported
// back through host.Notifier.
package enginesim

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/imebridge/internal/capability"
	"github.com/dshills/imebridge/internal/engine/buffer"
	"github.com/dshills/imebridge/internal/engine/cursor"
	"github.com/dshills/imebridge/internal/host"
	"github.com/dshills/imebridge/internal/input/key"
	"github.com/dshills/imebridge/internal/logging"
	"github.com/dshills/imebridge/internal/loop"
	"github.com/dshills/imebridge/internal/outbound"
	"github.com/dshills/imebridge/internal/script"
)

// DefaultHistory is how many processed events are kept for inspection.
const DefaultHistory = 1024

// Source is the consumer side of the outbound channel.
type Source interface {
	Next(ctx context.Context) (outbound.Event, error)
}

// drainer is a Source that can hand over queued events without blocking.
type drainer interface {
	TryNext() (outbound.Event, bool)
}

// Document is a snapshot of the canonical document.
type Document struct {
	Text         string
	Selection    cursor.Selection
	Composing    buffer.Range
	HasComposing bool
	Annotations  []buffer.Annotation
	Focused      bool
	Capabilities capability.Capabilities
}

// Engine is the simulated remote engine.
type Engine struct {
	in       Source
	notifier host.Notifier
	loop     *loop.Loop
	script   *script.Runtime
	logger   *logging.Logger
	ackDelay time.Duration
	maxHist  int

	// Engine loop state.
	buf       *buffer.Buffer
	sel       cursor.Selection
	composing bool
	focused   bool
	caps      capability.Capabilities
	history   []outbound.Event
	inScript  bool
	changed   bool

	processed atomic.Uint64
	cancel    context.CancelFunc
	pumpDone  chan struct{}
	startOnce sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithScript attaches a page script runtime. The engine binds the
// runtime's doc module to its document.
func WithScript(rt *script.Runtime) Option {
	return func(e *Engine) {
		e.script = rt
	}
}

// WithAckDelay delays every sync marker acknowledgment by d.
func WithAckDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.ackDelay = d
	}
}

// WithHistory sets how many processed events are retained.
func WithHistory(n int) Option {
	return func(e *Engine) {
		e.maxHist = n
	}
}

// WithContent sets the initial document text, caret at the end.
func WithContent(text string) Option {
	return func(e *Engine) {
		e.buf.SetText(text)
		e.sel = cursor.NewCaret(e.buf.Len())
	}
}

// New creates an engine reading events from in and reporting to notifier.
func New(in Source, notifier host.Notifier, opts ...Option) *Engine {
	e := &Engine{
		in:       in,
		notifier: notifier,
		loop:     loop.New("engine"),
		logger:   logging.NullLogger,
		maxHist:  DefaultHistory,
		buf:      buffer.NewBuffer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithComponent("enginesim")
	if e.script != nil {
		e.script.Bind(scriptDoc{e})
	}
	return e
}

// Start launches the engine loop and the pump.
func (e *Engine) Start() error {
	if err := e.loop.Start(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.pumpDone = make(chan struct{})
	go e.pump(ctx)
	return nil
}

// Stop waits for the pump to finish and stops the engine loop. Close the
// channel first to let queued events drain; otherwise the pump is
// cancelled when ctx ends and whatever is still queued is discarded.
func (e *Engine) Stop(ctx context.Context) error {
	if e.pumpDone == nil {
		return loop.ErrNotRunning
	}
	select {
	case <-e.pumpDone:
	case <-ctx.Done():
		e.cancel()
		<-e.pumpDone
		e.discardPending()
	}
	return e.loop.Stop()
}

// discardPending drops what the pump never read, releasing barrier gates
// so a sender blocked in Sync returns.
func (e *Engine) discardPending() {
	d, ok := e.in.(drainer)
	if !ok {
		return
	}
	n := 0
	for {
		ev, ok := d.TryNext()
		if !ok {
			break
		}
		if g := ev.Gate(); g != nil {
			g.Release()
		}
		n++
	}
	if n > 0 {
		e.logger.Warn("stop: discarded %d pending events", n)
	}
}

// Loop returns the engine loop.
func (e *Engine) Loop() *loop.Loop {
	return e.loop
}

// Processed returns the number of events applied.
func (e *Engine) Processed() uint64 {
	return e.processed.Load()
}

func (e *Engine) pump(ctx context.Context) {
	defer close(e.pumpDone)
	for {
		ev, err := e.in.Next(ctx)
		if err != nil {
			if !errors.Is(err, outbound.ErrClosed) && !errors.Is(err, context.Canceled) {
				e.logger.Warn("pump: %v", err)
			}
			return
		}
		if err := e.loop.Post(func() { e.apply(ev) }); err != nil {
			// A stopped loop never releases the gate; do it here so the
			// UI loop is not wedged on a dead engine.
			if g := ev.Gate(); g != nil {
				g.Release()
			}
			return
		}
	}
}

// Snapshot returns the canonical document.
func (e *Engine) Snapshot() Document {
	var d Document
	e.invoke(func() {
		c, ok := e.buf.Composing()
		d = Document{
			Text:         e.buf.Text(),
			Selection:    e.sel,
			Composing:    c,
			HasComposing: ok && e.composing,
			Annotations:  e.buf.Annotations(),
			Focused:      e.focused,
			Capabilities: e.caps,
		}
	})
	return d
}

// History returns the most recent processed events, oldest first.
func (e *Engine) History() []outbound.Event {
	var out []outbound.Event
	e.invoke(func() {
		out = append(out, e.history...)
	})
	return out
}

func (e *Engine) invoke(fn func()) {
	if err := e.loop.Invoke(fn); err != nil {
		e.logger.Debug("invoke: %v", err)
	}
}

func (e *Engine) post(fn func()) {
	if err := e.loop.Post(fn); err != nil {
		e.logger.Debug("post: %v", err)
	}
}

// Event application

func (e *Engine) apply(ev outbound.Event) {
	e.processed.Add(1)
	e.record(ev)

	switch ev.Kind {
	case outbound.KindCompositionBegin:
		e.composing = true
		_ = e.buf.SetComposing(e.sel.Range())
	case outbound.KindCompositionEnd:
		e.composing = false
		e.buf.ClearComposing()
	case outbound.KindSetSelection:
		e.sel = cursor.Clamped(ev.Start, ev.Start+ev.Length, e.buf.Len())
	case outbound.KindSetText:
		e.setText(ev.Caret, ev.Text)
	case outbound.KindAddRangeAnnotation:
		e.buf.AddAnnotation(buffer.Annotation{
			Range: buffer.NewRange(ev.Start, ev.Start+ev.Length),
			Kind:  ev.RangeKind,
			Style: ev.Style,
			Fore:  ev.Fore,
			Back:  ev.Back,
		})
	case outbound.KindDeleteText:
		r := e.sel.Range()
		e.buf.Delete(r)
		e.sel = cursor.NewCaret(r.Start)
		e.inputChanged()
	case outbound.KindKeyInput:
		e.key(ev.Key)
	case outbound.KindSyncMarker:
		if e.ackDelay > 0 {
			time.Sleep(e.ackDelay)
		}
		if g := ev.Gate(); g != nil {
			g.Release()
		}
	}
}

func (e *Engine) record(ev outbound.Event) {
	if e.maxHist <= 0 {
		return
	}
	if len(e.history) >= e.maxHist {
		e.history = append(e.history[:0], e.history[1:]...)
	}
	e.history = append(e.history, ev)
}

func (e *Engine) setText(caret int, text string) {
	nr := e.buf.Replace(e.sel.Range(), text)
	if e.composing {
		e.buf.ClearAnnotations()
		_ = e.buf.SetComposing(nr)
	}
	e.sel = cursor.Clamped(caret, caret, e.buf.Len())
	e.inputChanged()
}

func (e *Engine) key(ev key.Event) {
	switch ev.Action {
	case key.ActionMultiple:
		if ev.Chars != "" {
			e.insert(ev.Chars)
			e.inputChanged()
		}
		return
	case key.ActionUp:
		return
	}

	notify := false
	if e.script != nil {
		e.changed = false
		allow, err := e.runScript(func() (bool, error) {
			return e.script.OnKeyDown(int(ev.Code), int(ev.Modifiers))
		})
		if err != nil {
			e.logger.Warn("on_keydown: %v", err)
		}
		if !allow {
			// The bridge applied the default optimistically; tell it the
			// real text.
			e.logger.Debug("key %s cancelled by script", ev)
			e.notifyText()
			return
		}
		notify = e.changed
	}
	if e.keyDefault(ev) {
		e.inputChanged()
	}
	if notify {
		e.notifyText()
	}
}

// keyDefault applies the default action of a key press and reports
// whether the text changed.
func (e *Engine) keyDefault(ev key.Event) bool {
	if ev.IsModified() {
		return false
	}
	n := e.buf.Len()
	r := e.sel.Range()
	switch ev.Code {
	case key.CodeDel:
		if r.IsEmpty() {
			r.Start -= e.buf.LastClusterLen(buffer.Range{Start: 0, End: r.Start})
		}
		return e.delete(r)
	case key.CodeForwardDel:
		if r.IsEmpty() {
			r.End = min(r.End+1, n)
		}
		return e.delete(r)
	case key.CodeEnter:
		e.insert("\n")
		return true
	case key.CodeDpadLeft:
		e.sel = cursor.Clamped(e.sel.Start-1, e.sel.Start-1, n)
	case key.CodeDpadRight:
		e.sel = cursor.Clamped(e.sel.End+1, e.sel.End+1, n)
	case key.CodeMoveHome:
		e.sel = cursor.NewCaret(0)
	case key.CodeMoveEnd:
		e.sel = cursor.NewCaret(n)
	default:
		if ev.IsChar() {
			e.insert(string(ev.Rune))
			return true
		}
	}
	return false
}

func (e *Engine) insert(text string) {
	nr := e.buf.Replace(e.sel.Range(), text)
	e.sel = cursor.NewCaret(nr.End)
}

func (e *Engine) delete(r buffer.Range) bool {
	if r.IsEmpty() {
		return false
	}
	e.buf.Delete(r)
	e.sel = cursor.NewCaret(r.Start)
	return true
}

// inputChanged runs the page's on_input listener and reports any change
// the script made.
func (e *Engine) inputChanged() {
	if e.script == nil || e.inScript {
		return
	}
	e.changed = false
	_, err := e.runScript(func() (bool, error) {
		return true, e.script.OnInput(e.buf.Text())
	})
	if err != nil {
		e.logger.Warn("on_input: %v", err)
	}
	if e.changed {
		e.notifyText()
	}
}

func (e *Engine) runScript(fn func() (bool, error)) (bool, error) {
	e.inScript = true
	defer func() { e.inScript = false }()
	allow, err := fn()
	if err != nil {
		return true, err
	}
	return allow, nil
}

// replaceDocument is a script or API initiated overwrite. An active
// composition is dropped first, as a real engine resets the IME before
// changing text under it.
func (e *Engine) replaceDocument(text string) {
	if e.composing {
		e.composing = false
		e.buf.ClearComposing()
		e.notifier.NotifyIME(host.IMEResetInputState, 0)
	}
	e.buf.SetText(text)
	e.sel = cursor.NewCaret(e.buf.Len())
	e.changed = true
}

func (e *Engine) notifyText() {
	e.notifier.NotifyIMEChange(e.buf.Text(), e.sel.Start, e.sel.End, e.buf.Len())
}

// External API. These simulate page activity and may be called from any
// goroutine.

// Focus focuses an editable element with the given capabilities.
func (e *Engine) Focus(caps capability.Capabilities) {
	e.post(func() {
		e.focused = true
		e.caps = caps
		e.notifier.NotifyIME(host.IMEFocusChange, 1)
		e.notifier.NotifyIMEEnabled(caps.State, caps.TypeHint, caps.ActionHint)
		e.notifyText()
	})
}

// Blur removes focus from the element.
func (e *Engine) Blur() {
	e.post(func() {
		e.focused = false
		e.composing = false
		e.buf.ClearComposing()
		e.caps = capability.Capabilities{}
		e.notifier.NotifyIME(host.IMEFocusChange, 0)
		e.notifier.NotifyIMEEnabled(capability.StateDisabled, "", "")
	})
}

// SetCapabilities reports new capabilities for the focused element.
func (e *Engine) SetCapabilities(caps capability.Capabilities) {
	e.post(func() {
		e.caps = caps
		e.notifier.NotifyIMEEnabled(caps.State, caps.TypeHint, caps.ActionHint)
	})
}

// ResetInputState drops the composition, keeping its text.
func (e *Engine) ResetInputState() {
	e.post(func() {
		e.composing = false
		e.buf.ClearComposing()
		e.notifier.NotifyIME(host.IMEResetInputState, 0)
	})
}

// CancelComposition drops the composition, keeping its text.
func (e *Engine) CancelComposition() {
	e.post(func() {
		e.composing = false
		e.buf.ClearComposing()
		e.notifier.NotifyIME(host.IMECancelComposition, 0)
	})
}

// SetOpenState asks the host to open or close the keyboard.
func (e *Engine) SetOpenState(open bool) {
	state := 0
	if open {
		state = 1
	}
	e.post(func() {
		e.notifier.NotifyIME(host.IMESetOpenState, state)
	})
}

// SetText replaces the document, as page script would.
func (e *Engine) SetText(text string) {
	e.post(func() {
		e.replaceDocument(text)
		e.notifyText()
		e.changed = false
	})
}

// SetSelection moves the selection, as page script would.
func (e *Engine) SetSelection(start, end int) {
	e.post(func() {
		e.sel = cursor.Clamped(start, end, e.buf.Len())
		e.notifier.NotifyIMEChange("", e.sel.Start, e.sel.End, -1)
	})
}

// scriptDoc exposes the document to page scripts. Its methods run on the
// engine loop, inside a script call.
type scriptDoc struct{ e *Engine }

func (d scriptDoc) Text() string {
	return d.e.buf.Text()
}

func (d scriptDoc) SetText(text string) {
	d.e.replaceDocument(text)
}

func (d scriptDoc) Selection() (int, int) {
	return d.e.sel.Start, d.e.sel.End
}
