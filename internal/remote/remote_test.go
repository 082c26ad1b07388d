package remote

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/imebridge/internal/capability"
	"github.com/dshills/imebridge/internal/event"
	"github.com/dshills/imebridge/internal/host"
	"github.com/dshills/imebridge/internal/loop"
)

type collector struct {
	mu     sync.Mutex
	got    []event.Notification
	onLoop []bool
}

func (c *collector) snapshot() ([]event.Notification, []bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Notification(nil), c.got...), append([]bool(nil), c.onLoop...)
}

type kindCounter struct {
	mu    sync.Mutex
	kinds []event.Kind
}

func (k *kindCounter) Notification(kind event.Kind) {
	k.mu.Lock()
	k.kinds = append(k.kinds, kind)
	k.mu.Unlock()
}

func setup(t *testing.T) (*Handler, *loop.Loop, *collector, *kindCounter) {
	t.Helper()
	ui := loop.New("ui")
	require.NoError(t, ui.Start())
	t.Cleanup(func() { _ = ui.Stop() })

	reg := event.NewRegistry()
	c := &collector{}
	_, err := reg.SubscribeAll(func(n event.Notification) error {
		c.mu.Lock()
		c.got = append(c.got, n)
		c.onLoop = append(c.onLoop, ui.IsCurrent())
		c.mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	obs := &kindCounter{}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h := NewHandler(ui, reg, WithObserver(obs), WithClock(func() time.Time { return fixed }))
	return h, ui, c, obs
}

func waitFor(t *testing.T, c *collector, n int) []event.Notification {
	t.Helper()
	require.Eventually(t, func() bool {
		got, _ := c.snapshot()
		return len(got) >= n
	}, time.Second, 2*time.Millisecond)
	got, _ := c.snapshot()
	return got
}

func TestNotificationsArePostedToUILoop(t *testing.T) {
	h, _, c, _ := setup(t)

	h.NotifyIME(host.IMEResetInputState, 0)
	h.NotifyIME(host.IMESetOpenState, 1)
	h.NotifyIME(host.IMEFocusChange, 0)
	h.NotifyIME(host.IMECancelComposition, 0)

	got := waitFor(t, c, 4)
	_, onLoop := c.snapshot()
	assert.Equal(t, []bool{true, true, true, true}, onLoop)

	assert.Equal(t, event.KindResetInputState, got[0].Kind)
	assert.Equal(t, event.KindSetOpenState, got[1].Kind)
	assert.True(t, got[1].Open)
	assert.Equal(t, event.KindFocusChange, got[2].Kind)
	assert.False(t, got[2].Focused)
	assert.Equal(t, event.KindCancelComposition, got[3].Kind)
	assert.Equal(t, 2026, got[0].Timestamp.Year())
}

func TestChangeClassification(t *testing.T) {
	h, _, c, obs := setup(t)

	h.NotifyIMEChange("hello", 5, 5, 5)
	h.NotifyIMEChange("ignored", 1, 3, -1)

	got := waitFor(t, c, 2)
	assert.Equal(t, event.KindTextChange, got[0].Kind)
	assert.Equal(t, "hello", got[0].Text)
	assert.Equal(t, event.KindSelectionChange, got[1].Kind)
	assert.Empty(t, got[1].Text)
	assert.Equal(t, 1, got[1].SelStart)
	assert.Equal(t, 3, got[1].SelEnd)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, []event.Kind{event.KindTextChange, event.KindSelectionChange}, obs.kinds)
}

func TestEnabledCarriesCapabilities(t *testing.T) {
	h, _, c, _ := setup(t)
	h.NotifyIMEEnabled(capability.StateEnabled, "email", "send")

	got := waitFor(t, c, 1)
	assert.Equal(t, event.KindIMEEnabled, got[0].Kind)
	assert.Equal(t, capability.Capabilities{
		State: capability.StateEnabled, TypeHint: "email", ActionHint: "send",
	}, got[0].Capabilities)
}

func TestPostedEvenFromUILoop(t *testing.T) {
	h, ui, c, _ := setup(t)

	var inline int
	require.NoError(t, ui.Invoke(func() {
		h.NotifyIME(host.IMEResetInputState, 0)
		got, _ := c.snapshot()
		inline = len(got)
	}))
	assert.Equal(t, 0, inline, "delivery must not run inside the caller")
	waitFor(t, c, 1)
}

func TestUnknownKindDropped(t *testing.T) {
	h, _, c, obs := setup(t)
	h.NotifyIME(host.IMEKind(99), 0)
	h.NotifyIME(host.IMEResetInputState, 0)
	got := waitFor(t, c, 1)
	assert.Len(t, got, 1)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Len(t, obs.kinds, 1)
}

func TestStoppedLoopDropsQuietly(t *testing.T) {
	h, ui, c, _ := setup(t)
	require.NoError(t, ui.Stop())
	h.NotifyIME(host.IMEResetInputState, 0)
	got, _ := c.snapshot()
	assert.Empty(t, got)
}
