package engine

import (
	"github.com/dshills/imebridge/internal/engine/buffer"
	"github.com/dshills/imebridge/internal/engine/composition"
	"github.com/dshills/imebridge/internal/engine/cursor"
	"github.com/dshills/imebridge/internal/input/key"
	"github.com/dshills/imebridge/internal/logging"
	"github.com/dshills/imebridge/internal/outbound"
)

// Re-export commonly used types for convenience.
type (
	// Range is a rune range in the buffer.
	Range = buffer.Range

	// Selection is a clamped selection.
	Selection = cursor.Selection

	// Span is a host style span relative to the composing text.
	Span = buffer.Span
)

// Update describes the mirror after a completed edit.
type Update struct {
	Text         string
	Selection    Selection
	Composing    Range
	HasComposing bool
	Revision     uint64
}

// Extracted is a snapshot of the field for the host's extracted-text query.
type Extracted struct {
	Text               string
	StartOffset        int
	PartialStartOffset int
	PartialEndOffset   int
	SelectionStart     int
	SelectionEnd       int
}

// Mirror is the UI-owned copy of an editable field.
type Mirror struct {
	buf  *buffer.Buffer
	sel  Selection
	comp *composition.Machine

	out    outbound.Sender
	synth  KeySynthesizer
	logger *logging.Logger

	committing bool
	batchDepth int
	dirty      bool
	listeners  []func(Update)

	bufOpts     []buffer.Option
	initContent string
}

// NewMirror creates a mirror that reports edits to out.
func NewMirror(out outbound.Sender, opts ...Option) *Mirror {
	m := &Mirror{
		comp:   composition.New(),
		out:    out,
		logger: logging.NullLogger,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.buf = buffer.NewBufferFromString(m.initContent, m.bufOpts...)
	m.sel = cursor.NewCaret(m.buf.Len())
	m.comp.OnTransition(func(tr composition.Transition) {
		m.logger.Debug("composition %s -> %s (%s)", tr.From, tr.To, tr.Cause)
	})
	return m
}

// OnUpdate registers a listener called after every edit, or once at the
// end of the outermost batch edit.
func (m *Mirror) OnUpdate(fn func(Update)) {
	if fn != nil {
		m.listeners = append(m.listeners, fn)
	}
}

// OnTransition registers a composition transition observer.
func (m *Mirror) OnTransition(fn func(composition.Transition)) {
	m.comp.OnTransition(fn)
}

// Read Operations

// Text returns the mirrored text.
func (m *Mirror) Text() string {
	return m.buf.Text()
}

// Len returns the text length in runes.
func (m *Mirror) Len() int {
	return m.buf.Len()
}

// Selection returns the current selection.
func (m *Mirror) Selection() Selection {
	return m.sel
}

// Composing returns the composing range, if any.
func (m *Mirror) Composing() (Range, bool) {
	return m.buf.Composing()
}

// State returns the composition state.
func (m *Mirror) State() composition.State {
	return m.comp.Current()
}

// IsComposing reports whether a composition is active.
func (m *Mirror) IsComposing() bool {
	return m.comp.IsComposing()
}

// Annotations returns the style annotations on the composing text.
func (m *Mirror) Annotations() []buffer.Annotation {
	return m.buf.Annotations()
}

// TextBeforeCursor returns up to n runes before the selection start.
func (m *Mirror) TextBeforeCursor(n int) string {
	return m.buf.TextBefore(m.sel.Start, n)
}

// TextAfterCursor returns up to n runes after the selection end.
func (m *Mirror) TextAfterCursor(n int) string {
	return m.buf.TextAfter(m.sel.End, n)
}

// SelectedText returns the selected text.
func (m *Mirror) SelectedText() string {
	return m.buf.TextRange(m.sel.Range())
}

// Extract returns the whole field as an extracted-text snapshot.
func (m *Mirror) Extract() Extracted {
	return Extracted{
		Text:               m.buf.Text(),
		PartialStartOffset: -1,
		PartialEndOffset:   -1,
		SelectionStart:     m.sel.Start,
		SelectionEnd:       m.sel.End,
	}
}

// Batch edits

// BeginBatchEdit defers update notifications until the matching
// EndBatchEdit. Batches nest.
func (m *Mirror) BeginBatchEdit() {
	m.batchDepth++
}

// EndBatchEdit closes a batch. Closing the outermost batch publishes a
// single update if anything changed.
func (m *Mirror) EndBatchEdit() {
	if m.batchDepth == 0 {
		m.logger.Contract("%v", ErrUnbalancedBatch)
		return
	}
	m.batchDepth--
	if m.batchDepth == 0 && m.dirty {
		m.publish()
	}
}

// InBatchEdit reports whether a batch is open.
func (m *Mirror) InBatchEdit() bool {
	return m.batchDepth > 0
}

func (m *Mirror) touch() {
	m.dirty = true
	if m.batchDepth == 0 {
		m.publish()
	}
}

func (m *Mirror) publish() {
	m.dirty = false
	if len(m.listeners) == 0 {
		return
	}
	c, ok := m.buf.Composing()
	u := Update{
		Text:         m.buf.Text(),
		Selection:    m.sel,
		Composing:    c,
		HasComposing: ok,
		Revision:     m.buf.Revision(),
	}
	for _, fn := range m.listeners {
		fn(u)
	}
}

func (m *Mirror) send(ev outbound.Event) {
	if err := m.out.Send(ev); err != nil {
		m.logger.Warn("drop %s: %v", ev, err)
	}
}

func (m *Mirror) sync() {
	if err := m.out.Sync(); err != nil {
		m.logger.Warn("sync: %v", err)
	}
}

// Write Operations

// CommitText finalizes text. An active composition is replaced by text and
// ended; otherwise text replaces the selection. A single character with no
// composition is delivered as synthesized key events followed by the sync
// barrier, so CommitText does not return until the engine has applied it.
func (m *Mirror) CommitText(text string, bias int) {
	if m.committing {
		m.logger.Contract("%v: commitText(%q) while committing", ErrReentrantCommit, text)
	}
	prev := m.committing
	m.committing = true
	defer func() { m.committing = prev }()

	m.BeginBatchEdit()
	defer m.EndBatchEdit()

	if m.comp.IsComposing() {
		r, ok := m.buf.Composing()
		if !ok {
			m.logger.Contract("%v: commitText", ErrCompositionLost)
			r = m.sel.Range()
		}
		m.replace(r, text, bias)
		m.finish(composition.CauseCommit)
		return
	}

	if m.synth != nil {
		if runes := []rune(text); len(runes) == 1 {
			events, err := m.synth.Synthesize(runes[0])
			if err == nil {
				m.commitKeys(text, bias, events)
				return
			}
			m.logger.Debug("synthesize %q: %v, sending text", runes[0], err)
		}
	}
	m.replace(m.sel.Range(), text, bias)
}

func (m *Mirror) commitKeys(text string, bias int, events []key.Event) {
	r := m.sel.Range()
	m.send(outbound.SetSelection(r.Start, r.Len()))

	nr := m.buf.Replace(r, text)
	m.sel = cursor.CaretAfter(nr, bias, m.buf.Len())
	for _, ev := range events {
		m.send(outbound.KeyInput(ev))
	}
	if m.sel.Start != nr.End {
		m.send(outbound.SetSelection(m.sel.Start, 0))
	}
	m.touch()
	m.sync()
}

// replace swaps the text in r and sends the matching events. Empty text
// is sent as a deletion.
func (m *Mirror) replace(r Range, text string, bias int) Range {
	if text == "" {
		if r.IsEmpty() {
			return r
		}
		m.send(outbound.SetSelection(r.Start, r.Len()))
		m.send(outbound.DeleteText())
		m.buf.Delete(r)
		m.sel = cursor.CaretAfter(Range{Start: r.Start, End: r.Start}, bias, m.buf.Len())
		m.touch()
		return Range{Start: r.Start, End: r.Start}
	}

	m.send(outbound.SetSelection(r.Start, r.Len()))
	nr := m.buf.Replace(r, text)
	m.sel = cursor.CaretAfter(nr, bias, m.buf.Len())
	m.send(outbound.SetText(m.sel.Start, m.buf.TextRange(nr)))
	m.touch()
	return nr
}

// SetComposingText replaces the composing text, starting a composition at
// the selection if none is active. An empty text with no composition is
// ignored. Spans style the new text; without spans the whole text is
// underlined as raw input.
func (m *Mirror) SetComposingText(text string, bias int, spans ...Span) {
	if text == "" && !m.comp.IsComposing() {
		m.logger.Debug("empty setComposingText while idle ignored")
		return
	}

	m.BeginBatchEdit()
	defer m.EndBatchEdit()

	var r Range
	if m.comp.IsComposing() {
		var ok bool
		if r, ok = m.buf.Composing(); !ok {
			m.logger.Contract("%v: setComposingText", ErrCompositionLost)
			r = m.sel.Range()
		}
	} else {
		r = m.sel.Range()
		m.comp.Begin(r.Start, composition.CauseComposingText)
		m.send(outbound.CompositionBegin())
	}

	m.send(outbound.SetSelection(r.Start, r.Len()))
	nr := m.buf.Replace(r, text)
	m.comp.Rebase(nr.Start)
	m.sel = cursor.CaretAfter(nr, bias, m.buf.Len())
	m.send(outbound.SetText(m.sel.Start, m.buf.TextRange(nr)))
	m.markComposing(nr, spans)
	m.touch()
}

// markComposing sets nr as the composing range, styles it and sends the
// annotations.
func (m *Mirror) markComposing(nr Range, spans []Span) {
	m.buf.ClearAnnotations()
	if err := m.buf.SetComposing(nr); err != nil {
		m.logger.Warn("set composing %s: %v", nr, err)
		return
	}
	if len(spans) == 0 {
		m.buf.AddAnnotation(buffer.Annotation{Range: nr, Kind: buffer.KindRawInput, Style: buffer.StyleUnderline})
	}
	for _, s := range spans {
		a := buffer.AnnotationFromSpan(nr.Start, s)
		a.Range = buffer.NewRange(a.Start, a.End).Clamp(nr.End)
		if a.Start < nr.Start {
			a.Start = nr.Start
		}
		m.buf.AddAnnotation(a)
	}
	for _, a := range m.buf.Annotations() {
		m.send(outbound.AnnotationEvent(a))
	}
}

// SetComposingRegion marks existing text as the composition. Offsets are
// clamped and swapped. An empty region finishes the composition.
func (m *Mirror) SetComposingRegion(start, end int) {
	r := cursor.Clamped(start, end, m.buf.Len()).Range()

	m.BeginBatchEdit()
	defer m.EndBatchEdit()

	if c, ok := m.buf.Composing(); ok && !c.Overlaps(r) {
		m.finish(composition.CauseNonOverlapping)
	}
	if r.IsEmpty() {
		m.finish(composition.CauseComposingRegion)
		return
	}

	if m.comp.IsComposing() {
		m.comp.Rebase(r.Start)
	} else {
		m.comp.Begin(r.Start, composition.CauseComposingRegion)
		m.send(outbound.CompositionBegin())
	}

	m.send(outbound.SetSelection(r.Start, r.Len()))
	m.send(outbound.SetText(m.sel.Start, m.buf.TextRange(r)))
	if !m.sel.IsEmpty() {
		m.send(outbound.SetSelection(m.sel.Start, m.sel.Len()))
	}
	m.markComposing(r, nil)
	m.touch()
}

// FinishComposingText ends the active composition, keeping its text and
// stripping its annotations. Without a composition it does nothing.
func (m *Mirror) FinishComposingText() {
	m.BeginBatchEdit()
	defer m.EndBatchEdit()

	if !m.finish(composition.CauseFinish) {
		m.logger.Contract("%v: finishComposingText", ErrNoComposition)
	}
}

// finish ends the composition. Remote causes are not echoed to the engine.
func (m *Mirror) finish(cause composition.Cause) bool {
	if !m.comp.IsComposing() {
		return false
	}
	m.buf.ClearComposing()
	m.comp.End(cause)
	if !cause.Remote() {
		m.send(outbound.CompositionEnd())
	}
	m.touch()
	return true
}

// SetSelection moves the selection. Offsets are clamped and swapped. A
// selection outside the composing range ends the composition first.
func (m *Mirror) SetSelection(start, end int) {
	s := cursor.Clamped(start, end, m.buf.Len())

	m.BeginBatchEdit()
	defer m.EndBatchEdit()

	if c, ok := m.buf.Composing(); ok && !c.Overlaps(s.Range()) {
		m.finish(composition.CauseNonOverlapping)
	}
	m.sel = s
	m.send(outbound.SetSelection(s.Start, s.Len()))
	m.touch()
}

// SelectAll selects the whole text.
func (m *Mirror) SelectAll() {
	m.SetSelection(0, m.buf.Len())
}

// DeleteSelection removes the selected text.
func (m *Mirror) DeleteSelection() {
	if m.sel.IsEmpty() {
		return
	}
	m.BeginBatchEdit()
	defer m.EndBatchEdit()

	m.finish(composition.CauseDelete)
	m.replace(m.sel.Range(), "", 0)
}

// DeleteSurroundingText removes up to before runes before the selection
// and up to after runes after it. The selection itself is kept.
func (m *Mirror) DeleteSurroundingText(before, after int) {
	before = max(before, 0)
	after = max(after, 0)
	n := m.buf.Len()
	ra := Range{Start: m.sel.End, End: min(m.sel.End+after, n)}
	rb := Range{Start: max(m.sel.Start-before, 0), End: m.sel.Start}
	if ra.IsEmpty() && rb.IsEmpty() {
		return
	}

	m.BeginBatchEdit()
	defer m.EndBatchEdit()

	m.finish(composition.CauseDelete)
	sel := m.sel
	for _, r := range []Range{ra, rb} {
		if r.IsEmpty() {
			continue
		}
		m.send(outbound.SetSelection(r.Start, r.Len()))
		m.send(outbound.DeleteText())
		m.buf.Delete(r)
		sel = cursor.TransformSelection(sel, r, 0)
	}
	m.sel = sel.Clamp(m.buf.Len())
	m.send(outbound.SetSelection(m.sel.Start, m.sel.Len()))
	m.touch()
}

// OnKeyDel handles a delete key while composing. Composing text longer
// than one character loses its last grapheme cluster and the composition
// continues; otherwise the composition ends. It returns true when the
// platform should perform the physical delete.
func (m *Mirror) OnKeyDel() bool {
	if !m.comp.IsComposing() {
		return true
	}
	c, _ := m.buf.Composing()
	text := m.buf.TextRange(c)
	if buffer.ClusterCount(text) > 1 {
		runes := []rune(text)
		cut := buffer.LastClusterLen(text)
		m.SetComposingText(string(runes[:len(runes)-cut]), 1)
		return false
	}

	m.BeginBatchEdit()
	defer m.EndBatchEdit()
	m.finish(composition.CauseCommit)
	return true
}

// Key forwards a host key event to the engine and applies its default
// action to the mirror. The engine performs the same default action when
// it processes the event.
func (m *Mirror) Key(ev key.Event) {
	m.BeginBatchEdit()
	defer m.EndBatchEdit()

	if ev.Action != key.ActionUp && !ev.Code.IsModifier() {
		m.finish(composition.CauseKey)
	}
	m.send(outbound.KeyInput(ev))

	switch ev.Action {
	case key.ActionDown:
		m.applyKeyDefault(ev)
	case key.ActionMultiple:
		if ev.Chars != "" {
			m.insertLocal(ev.Chars)
		}
	}
}

func (m *Mirror) applyKeyDefault(ev key.Event) {
	if ev.IsModified() {
		return
	}
	n := m.buf.Len()
	switch ev.Code {
	case key.CodeDel:
		r := m.sel.Range()
		if r.IsEmpty() {
			r.Start -= m.buf.LastClusterLen(Range{Start: 0, End: r.Start})
		}
		m.deleteLocal(r)
	case key.CodeForwardDel:
		r := m.sel.Range()
		if r.IsEmpty() {
			r.End = min(r.End+1, n)
		}
		m.deleteLocal(r)
	case key.CodeEnter:
		m.insertLocal("\n")
	case key.CodeDpadLeft:
		m.moveLocal(m.sel.Start - 1)
	case key.CodeDpadRight:
		m.moveLocal(m.sel.End + 1)
	case key.CodeMoveHome:
		m.moveLocal(0)
	case key.CodeMoveEnd:
		m.moveLocal(n)
	default:
		if ev.IsChar() {
			m.insertLocal(string(ev.Rune))
		}
	}
}

func (m *Mirror) insertLocal(text string) {
	nr := m.buf.Replace(m.sel.Range(), text)
	m.sel = cursor.NewCaret(nr.End)
	m.touch()
}

func (m *Mirror) deleteLocal(r Range) {
	if r.IsEmpty() {
		return
	}
	m.buf.Delete(r)
	m.sel = cursor.NewCaret(r.Start)
	m.touch()
}

func (m *Mirror) moveLocal(offset int) {
	m.sel = cursor.Clamped(offset, offset, m.buf.Len())
	m.touch()
}

// Remote synchronization

// ApplyRemoteText overwrites the mirror with the engine's canonical text
// and selection. It is ignored while composing. Returns true if the mirror
// changed.
func (m *Mirror) ApplyRemoteText(text string, selStart, selEnd int) bool {
	if m.comp.IsComposing() {
		m.logger.Debug("remote text change ignored while composing")
		return false
	}
	if m.buf.Text() == text && m.sel.Equals(cursor.Clamped(selStart, selEnd, m.buf.Len())) {
		return false
	}
	m.buf.SetText(text)
	m.sel = cursor.Clamped(selStart, selEnd, m.buf.Len())
	m.touch()
	return true
}

// ApplyRemoteSelection moves the selection to match the engine. It is
// ignored while composing.
func (m *Mirror) ApplyRemoteSelection(selStart, selEnd int) bool {
	if m.comp.IsComposing() {
		m.logger.Debug("remote selection change ignored while composing")
		return false
	}
	s := cursor.Clamped(selStart, selEnd, m.buf.Len())
	if m.sel.Equals(s) {
		return false
	}
	m.sel = s
	m.touch()
	return true
}

// Abandon drops the active composition without telling the engine, which
// already discarded it. The composed text stays in the mirror. Returns
// true if a composition was active.
func (m *Mirror) Abandon(cause composition.Cause) bool {
	if !m.comp.IsComposing() {
		return false
	}
	m.buf.ClearComposing()
	m.comp.End(cause)
	m.touch()
	return true
}

// Reset clears the mirror on connection teardown. Nothing is sent.
func (m *Mirror) Reset() {
	m.buf.ClearComposing()
	m.comp.End(composition.CauseTeardown)
	m.buf.SetText("")
	m.sel = cursor.NewCaret(0)
	m.batchDepth = 0
	m.committing = false
	m.touch()
}
