package bridge

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/imebridge/internal/capability"
	"github.com/dshills/imebridge/internal/engine"
	"github.com/dshills/imebridge/internal/engine/buffer"
	"github.com/dshills/imebridge/internal/engine/composition"
	"github.com/dshills/imebridge/internal/event"
	"github.com/dshills/imebridge/internal/host"
	"github.com/dshills/imebridge/internal/input/key"
	"github.com/dshills/imebridge/internal/logging"
	"github.com/dshills/imebridge/internal/loop"
	"github.com/dshills/imebridge/internal/metrics"
	"github.com/dshills/imebridge/internal/outbound"
	"github.com/dshills/imebridge/internal/remote"
	"github.com/dshills/imebridge/internal/updater"
)

// ExtractRequest asks for an extracted-text snapshot. With Monitor set the
// host receives a fresh snapshot, tagged with Token, after every edit.
type ExtractRequest struct {
	Token   int
	Monitor bool
}

// Context is the per-view bridge state.
type Context struct {
	id string

	ui        *loop.Loop
	out       outbound.Sender
	imm       host.InputMethodManager
	clipboard host.Clipboard
	synth     engine.KeySynthesizer
	metrics   *metrics.Metrics
	logger    *logging.Logger

	registry   *event.Registry
	notifier   *remote.Handler
	negotiator *capability.Negotiator
	updater    *updater.Updater

	updateDelay time.Duration
	logCalls    bool
	bufOpts     []buffer.Option

	// UI loop state.
	mirror      *engine.Mirror
	extract     *ExtractRequest
	conn        *connection
	connections uint64
	subs        []event.Subscription
	// lastDoc is the engine's last reported document, used to seed a
	// mirror created after the notification arrived.
	lastDoc remoteDoc

	closed atomic.Bool
}

type remoteDoc struct {
	text             string
	selStart, selEnd int
	known            bool
}

// NewContext creates a context whose host operations run on ui and whose
// edits are sent to out.
func NewContext(ui *loop.Loop, out outbound.Sender, imm host.InputMethodManager, opts ...Option) (*Context, error) {
	switch {
	case ui == nil:
		return nil, ErrNilLoop
	case out == nil:
		return nil, ErrNilSender
	case imm == nil:
		return nil, ErrNilHost
	}

	c := &Context{
		id:     uuid.NewString(),
		ui:     ui,
		out:    out,
		imm:    imm,
		logger: logging.NullLogger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("bridge").WithField("context", c.id[:8])

	if c.metrics != nil && c.synth != nil {
		c.synth = &countingSynth{next: c.synth, metrics: c.metrics}
	}

	c.registry = event.NewRegistry(event.WithLogger(c.logger))
	remoteOpts := []remote.Option{remote.WithLogger(c.logger)}
	if c.metrics != nil {
		remoteOpts = append(remoteOpts, remote.WithObserver(c.metrics))
	}
	c.notifier = remote.NewHandler(ui, c.registry, remoteOpts...)

	updOpts := []updater.Option{updater.WithLogger(c.logger), updater.WithDelay(c.updateDelay)}
	if c.metrics != nil {
		updOpts = append(updOpts, updater.WithObserver(c.metrics))
	}
	c.updater = updater.New(imm, ui, func() bool { return c.negotiator.Enabled() }, updOpts...)
	c.negotiator = capability.NewNegotiator(c.updater,
		capability.WithTargetCheck(imm.IsActive),
		capability.WithLogger(c.logger),
	)

	if err := c.subscribe(); err != nil {
		return nil, err
	}
	return c, nil
}

// ID returns the context identifier.
func (c *Context) ID() string {
	return c.id
}

// Notifier returns the surface the remote engine calls back into.
func (c *Context) Notifier() host.Notifier {
	return c.notifier
}

// Registry returns the notification registry. Extra subscribers should
// use a priority below PriorityCritical so they see the synced mirror.
func (c *Context) Registry() *event.Registry {
	return c.registry
}

// Connect creates an input connection for the focused view and returns the
// keyboard configuration for it. A previous connection stops accepting
// calls. Must be called on the UI loop.
func (c *Context) Connect() (Connection, capability.EditorInfo) {
	c.ui.AssertCurrent()
	if c.conn != nil {
		c.conn.closed = true
	}
	c.connections++
	c.conn = &connection{ctx: c, id: c.connections}
	c.ensureMirror()

	info := c.negotiator.EditorInfo()
	c.logger.Debug("connect #%d %s", c.connections, info)

	var conn Connection = c.conn
	if c.logCalls {
		conn = NewLoggingConnection(conn, c.logger)
	}
	return conn, info
}

// EditorInfo returns the current keyboard configuration. Must be called on
// the UI loop.
func (c *Context) EditorInfo() capability.EditorInfo {
	c.ui.AssertCurrent()
	return c.negotiator.EditorInfo()
}

// Capabilities returns the last engine-reported capabilities. Must be
// called on the UI loop.
func (c *Context) Capabilities() capability.Capabilities {
	c.ui.AssertCurrent()
	return c.negotiator.Capabilities()
}

// Focused reports whether the engine has an editable element focused. Must
// be called on the UI loop.
func (c *Context) Focused() bool {
	c.ui.AssertCurrent()
	return c.negotiator.Focused()
}

// Mirror returns the active mirror, or nil when torn down. Must be called
// on the UI loop.
func (c *Context) Mirror() *engine.Mirror {
	c.ui.AssertCurrent()
	return c.mirror
}

// ShowInputMethodPicker forwards to the host.
func (c *Context) ShowInputMethodPicker() {
	c.ui.AssertCurrent()
	c.imm.ShowInputMethodPicker()
}

// Close stops the updater, drops the subscriptions and tears down the
// mirror. Safe to call from any goroutine, more than once.
func (c *Context) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	c.updater.Stop()
	for _, s := range c.subs {
		_ = c.registry.Unsubscribe(s.ID())
	}
	err := c.ui.Invoke(func() {
		if c.conn != nil {
			c.conn.closed = true
		}
		c.teardown(composition.CauseTeardown)
	})
	if err != nil {
		c.logger.Debug("close: %v", err)
	}
	return nil
}

// ensureMirror returns the mirror, creating it on first use after a
// teardown.
func (c *Context) ensureMirror() *engine.Mirror {
	if c.mirror != nil {
		return c.mirror
	}
	opts := []engine.Option{
		engine.WithLogger(c.logger),
		engine.WithBufferOptions(c.bufOpts...),
	}
	if c.synth != nil {
		opts = append(opts, engine.WithSynthesizer(c.synth))
	}
	m := engine.NewMirror(c.out, opts...)
	if c.lastDoc.known {
		m.ApplyRemoteText(c.lastDoc.text, c.lastDoc.selStart, c.lastDoc.selEnd)
	}
	m.OnUpdate(c.mirrorUpdated)
	c.mirror = m
	return m
}

func (c *Context) teardown(cause composition.Cause) {
	if c.mirror == nil {
		return
	}
	c.mirror.Abandon(cause)
	c.mirror = nil
	c.extract = nil
}

// mirrorUpdated reports the edit to the host.
func (c *Context) mirrorUpdated(u engine.Update) {
	compStart, compEnd := -1, -1
	if u.HasComposing {
		compStart, compEnd = u.Composing.Start, u.Composing.End
	}
	c.imm.UpdateSelection(u.Selection.Start, u.Selection.End, compStart, compEnd)
	if c.extract != nil && c.mirror != nil {
		c.imm.UpdateExtractedText(c.extract.Token, c.mirror.Extract())
	}
}

// Notification handling. All handlers run on the UI loop.

func (c *Context) subscribe() error {
	handlers := map[event.Kind]event.Handler{
		event.KindResetInputState:   c.onReset,
		event.KindCancelComposition: c.onReset,
		event.KindFocusChange:       c.onFocus,
		event.KindSetOpenState:      c.onOpenState,
		event.KindIMEEnabled:        c.onEnabled,
		event.KindTextChange:        c.onChange,
		event.KindSelectionChange:   c.onChange,
	}
	for _, k := range event.Kinds() {
		sub, err := c.registry.Subscribe(k, handlers[k], event.WithPriority(event.PriorityCritical))
		if err != nil {
			return err
		}
		c.subs = append(c.subs, sub)
	}
	return nil
}

func (c *Context) onReset(n event.Notification) error {
	cause := composition.CauseRemoteReset
	if n.Kind == event.KindCancelComposition {
		cause = composition.CauseRemoteCancel
	}
	if c.mirror != nil && c.mirror.Abandon(cause) {
		c.logger.Debug("%s dropped the composition", n.Kind)
	}
	c.updater.RequestReset()
	return nil
}

func (c *Context) onFocus(n event.Notification) error {
	c.negotiator.SetFocus(n.Focused)
	if !n.Focused {
		c.teardown(composition.CauseTeardown)
	}
	c.updater.RequestReset()
	return nil
}

func (c *Context) onOpenState(n event.Notification) error {
	c.logger.Debug("open state %t", n.Open)
	c.updater.RequestEnable()
	return nil
}

func (c *Context) onEnabled(n event.Notification) error {
	c.negotiator.Update(n.Capabilities)
	return nil
}

func (c *Context) onChange(n event.Notification) error {
	if n.Kind == event.KindTextChange {
		c.lastDoc = remoteDoc{text: n.Text, selStart: n.SelStart, selEnd: n.SelEnd, known: true}
	} else {
		c.lastDoc.selStart, c.lastDoc.selEnd = n.SelStart, n.SelEnd
	}
	if c.mirror == nil {
		return nil
	}
	if c.mirror.IsComposing() {
		if c.metrics != nil {
			c.metrics.NotificationIgnored(n.Kind)
		}
		c.logger.Debug("%s ignored while composing", n)
		return nil
	}
	if n.Kind == event.KindTextChange {
		c.mirror.ApplyRemoteText(n.Text, n.SelStart, n.SelEnd)
	} else {
		c.mirror.ApplyRemoteSelection(n.SelStart, n.SelEnd)
	}
	return nil
}

// countingSynth records which path each single-character commit took.
type countingSynth struct {
	next    engine.KeySynthesizer
	metrics *metrics.Metrics
}

func (s *countingSynth) Synthesize(r rune) ([]key.Event, error) {
	events, err := s.next.Synthesize(r)
	if err != nil {
		s.metrics.Synthesized("text")
	} else {
		s.metrics.Synthesized("keys")
	}
	return events, err
}
