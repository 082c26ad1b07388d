package enginesim

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/imebridge/internal/capability"
	"github.com/dshills/imebridge/internal/engine/buffer"
	"github.com/dshills/imebridge/internal/host"
	"github.com/dshills/imebridge/internal/input/key"
	"github.com/dshills/imebridge/internal/outbound"
	"github.com/dshills/imebridge/internal/script"
)

type notes struct {
	mu    sync.Mutex
	calls []string
}

func (n *notes) add(s string) {
	n.mu.Lock()
	n.calls = append(n.calls, s)
	n.mu.Unlock()
}

func (n *notes) NotifyIME(kind host.IMEKind, state int) {
	n.add(fmt.Sprintf("%s(%d)", kind, state))
}

func (n *notes) NotifyIMEEnabled(state capability.State, typeHint, actionHint string) {
	n.add(fmt.Sprintf("Enabled(%s,%s,%s)", state, typeHint, actionHint))
}

func (n *notes) NotifyIMEChange(text string, selStart, selEnd, newEnd int) {
	n.add(fmt.Sprintf("Change(%q,%d,%d,%d)", text, selStart, selEnd, newEnd))
}

func (n *notes) list() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

func start(t *testing.T, opts ...Option) (*Engine, *outbound.Channel, *notes) {
	t.Helper()
	ch := outbound.NewChannel()
	n := &notes{}
	e := New(ch, n, opts...)
	require.NoError(t, e.Start())
	t.Cleanup(func() {
		ch.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = e.Stop(ctx)
	})
	return e, ch, n
}

func send(t *testing.T, ch *outbound.Channel, evs ...outbound.Event) {
	t.Helper()
	for _, ev := range evs {
		require.NoError(t, ch.Send(ev))
	}
	require.NoError(t, ch.Sync())
}

func TestCompositionLifecycle(t *testing.T) {
	e, ch, n := start(t, WithContent("ab"))

	send(t, ch,
		outbound.CompositionBegin(),
		outbound.SetSelection(2, 0),
		outbound.SetText(4, "cd"),
		outbound.AddRangeAnnotation(2, 2, buffer.KindRawInput, buffer.StyleUnderline, 0, 0),
	)
	doc := e.Snapshot()
	assert.Equal(t, "abcd", doc.Text)
	assert.True(t, doc.HasComposing)
	assert.Equal(t, buffer.NewRange(2, 4), doc.Composing)
	require.Len(t, doc.Annotations, 1)
	assert.Equal(t, 4, doc.Selection.Start)

	send(t, ch, outbound.SetSelection(2, 2), outbound.SetText(5, "cde"), outbound.CompositionEnd())
	doc = e.Snapshot()
	assert.Equal(t, "abcde", doc.Text)
	assert.False(t, doc.HasComposing)
	assert.Empty(t, doc.Annotations)
	assert.Empty(t, n.list(), "bridge-originated edits are not echoed")
}

func TestKeyDefaults(t *testing.T) {
	e, ch, _ := start(t, WithContent("xy"))

	send(t, ch,
		outbound.KeyInput(key.Down(key.CodeA, 'a', 0)),
		outbound.KeyInput(key.Up(key.CodeA, 'a', 0)),
		outbound.KeyInput(key.Down(key.CodeDpadLeft, 0, 0)),
		outbound.KeyInput(key.Down(key.CodeDel, 0, 0)),
		outbound.KeyInput(key.Down(key.CodeEnter, 0, 0)),
		outbound.KeyInput(key.Multiple("!!")),
		outbound.KeyInput(key.Down(key.CodeA, 'a', key.ModCtrl)),
	)
	doc := e.Snapshot()
	assert.Equal(t, "x\n!!a", doc.Text)
	assert.Equal(t, 4, doc.Selection.Start)
}

func TestDeleteTextAndHistory(t *testing.T) {
	e, ch, _ := start(t, WithContent("hello"), WithHistory(3))
	send(t, ch, outbound.SetSelection(1, 3), outbound.DeleteText())

	assert.Equal(t, "ho", e.Snapshot().Text)
	hist := e.History()
	require.Len(t, hist, 3)
	assert.Equal(t, outbound.KindSetSelection, hist[0].Kind)
	assert.Equal(t, outbound.KindDeleteText, hist[1].Kind)
	assert.Equal(t, outbound.KindSyncMarker, hist[2].Kind)
	assert.Equal(t, uint64(3), e.Processed())
}

func TestAckDelay(t *testing.T) {
	_, ch, _ := start(t, WithAckDelay(20*time.Millisecond))
	begin := time.Now()
	require.NoError(t, ch.Sync())
	assert.GreaterOrEqual(t, time.Since(begin), 20*time.Millisecond)
}

func TestScriptCancelsKey(t *testing.T) {
	rt := script.New()
	defer rt.Close()
	require.NoError(t, rt.LoadString(fmt.Sprintf(
		`function on_keydown(code, mods) if code == %d then return false end end`, key.CodeA+1), "page"))

	e, ch, n := start(t, WithScript(rt))
	send(t, ch,
		outbound.KeyInput(key.Down(key.CodeA, 'a', 0)),
		outbound.KeyInput(key.Down(key.CodeA+1, 'b', 0)),
	)
	assert.Equal(t, "a", e.Snapshot().Text)
	assert.Equal(t, []string{`Change("a",1,1,1)`}, n.list())
}

func TestScriptRewritesInput(t *testing.T) {
	rt := script.New()
	defer rt.Close()
	require.NoError(t, rt.LoadString(`
		function on_input(text)
		  if text == "hi" then doc.set_text("HI") end
		end`, "page"))

	e, ch, n := start(t, WithScript(rt))
	send(t, ch, outbound.SetSelection(0, 0), outbound.SetText(2, "hi"))
	assert.Equal(t, "HI", e.Snapshot().Text)
	assert.Equal(t, []string{`Change("HI",2,2,2)`}, n.list())
}

func TestScriptChangeDuringCompositionResets(t *testing.T) {
	rt := script.New()
	defer rt.Close()
	require.NoError(t, rt.LoadString(`
		function on_input(text)
		  if text == "x" then doc.set_text("") end
		end`, "page"))

	e, ch, n := start(t, WithScript(rt))
	send(t, ch, outbound.CompositionBegin(), outbound.SetSelection(0, 0), outbound.SetText(1, "x"))
	assert.False(t, e.Snapshot().HasComposing)
	assert.Equal(t, []string{"ResetInputState(0)", `Change("",0,0,0)`}, n.list())
}

func TestExternalAPI(t *testing.T) {
	e, ch, n := start(t)
	caps := capability.Capabilities{State: capability.StateEnabled, TypeHint: "email", ActionHint: "send"}
	e.Focus(caps)
	e.SetText("abc")
	e.SetSelection(3, 1)
	e.SetOpenState(true)
	e.ResetInputState()
	e.CancelComposition()
	e.Blur()
	require.NoError(t, ch.Sync())

	assert.Equal(t, []string{
		"FocusChange(1)",
		"Enabled(enabled,email,send)",
		`Change("",0,0,0)`,
		`Change("abc",3,3,3)`,
		`Change("",1,3,-1)`,
		"SetOpenState(1)",
		"ResetInputState(0)",
		"CancelComposition(0)",
		"FocusChange(0)",
		"Enabled(disabled,,)",
	}, n.list())
	assert.False(t, e.Snapshot().Focused)
}

// stalledSource never delivers through Next, leaving everything queued
// for the drain on Stop.
type stalledSource struct {
	*outbound.Channel
}

func (s stalledSource) Next(ctx context.Context) (outbound.Event, error) {
	<-ctx.Done()
	return outbound.Event{}, ctx.Err()
}

func TestStopReleasesPendingBarriers(t *testing.T) {
	ch := outbound.NewChannel()
	e := New(stalledSource{ch}, &notes{})
	require.NoError(t, e.Start())

	require.NoError(t, ch.Send(outbound.SetText(1, "x")))
	synced := make(chan error, 1)
	go func() { synced <- ch.Sync() }()
	require.Eventually(t, func() bool { return ch.Len() == 2 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, e.Stop(ctx))

	select {
	case err := <-synced:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Sync still blocked after Stop")
	}
	assert.Zero(t, ch.Len())
	assert.Zero(t, e.Processed())
}
