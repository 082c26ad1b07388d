package event

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/imebridge/internal/capability"
)

func TestKindsClosedSet(t *testing.T) {
	kinds := Kinds()
	assert.Len(t, kinds, 7)
	for _, k := range kinds {
		assert.True(t, k.Valid(), k.String())
	}
	assert.False(t, Kind(0).Valid())
	assert.False(t, kindCount.Valid())
}

func TestSubscribeRejectsInvalid(t *testing.T) {
	r := NewRegistry()
	_, err := r.Subscribe(Kind(42), func(Notification) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidKind)

	_, err = r.Subscribe(KindFocusChange, nil)
	assert.ErrorIs(t, err, ErrNilHandler)

	assert.ErrorIs(t, r.Publish(Notification{Kind: 99}), ErrInvalidKind)
}

func TestPublishPriorityOrder(t *testing.T) {
	r := NewRegistry()
	var order []string
	add := func(name string, p Priority) {
		_, err := r.Subscribe(KindFocusChange, func(Notification) error {
			order = append(order, name)
			return nil
		}, WithPriority(p))
		require.NoError(t, err)
	}
	add("low", PriorityLow)
	add("critical", PriorityCritical)
	add("normal-1", PriorityNormal)
	add("normal-2", PriorityNormal)

	require.NoError(t, r.Publish(Notification{Kind: KindFocusChange, Focused: true}))
	assert.Equal(t, []string{"critical", "normal-1", "normal-2", "low"}, order)
}

func TestPublishFiltersByKind(t *testing.T) {
	r := NewRegistry()
	var focus, all int
	_, err := r.Subscribe(KindFocusChange, func(Notification) error { focus++; return nil })
	require.NoError(t, err)
	_, err = r.SubscribeAll(func(Notification) error { all++; return nil })
	require.NoError(t, err)

	require.NoError(t, r.Publish(Notification{Kind: KindIMEEnabled, Capabilities: capability.Capabilities{State: capability.StateEnabled}}))
	require.NoError(t, r.Publish(Notification{Kind: KindFocusChange}))
	assert.Equal(t, 1, focus)
	assert.Equal(t, 2, all)
}

func TestPublishReentrantRejected(t *testing.T) {
	r := NewRegistry()
	var inner error
	_, err := r.Subscribe(KindResetInputState, func(Notification) error {
		inner = r.Publish(Notification{Kind: KindCancelComposition})
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, r.Publish(Notification{Kind: KindResetInputState}))
	assert.ErrorIs(t, inner, ErrReentrantDelivery)

	require.NoError(t, r.Publish(Notification{Kind: KindCancelComposition}), "flag cleared after delivery")
}

func TestPublishRecoversPanics(t *testing.T) {
	r := NewRegistry()
	var reached bool
	_, _ = r.Subscribe(KindTextChange, func(Notification) error { panic("boom") }, WithPriority(PriorityCritical))
	_, _ = r.Subscribe(KindTextChange, func(Notification) error { return errors.New("nope") })
	_, _ = r.Subscribe(KindTextChange, func(Notification) error { reached = true; return nil }, WithPriority(PriorityLow))

	err := r.Publish(Notification{Kind: KindTextChange, Text: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHandlerPanic)
	var he *HandlerError
	assert.ErrorAs(t, err, &he)
	assert.True(t, reached)

	stats := r.Stats()
	assert.Equal(t, uint64(2), stats.Failed)
	assert.Equal(t, uint64(1), stats.Delivered)
}

func TestSubscriptionLifecycle(t *testing.T) {
	r := NewRegistry()
	var n int
	sub, err := r.Subscribe(KindSelectionChange, func(Notification) error { n++; return nil })
	require.NoError(t, err)
	_, perr := uuid.Parse(sub.ID())
	assert.NoError(t, perr)

	sub.Pause()
	_ = r.Publish(Notification{Kind: KindSelectionChange})
	sub.Resume()
	_ = r.Publish(Notification{Kind: KindSelectionChange})
	assert.Equal(t, 1, n)

	require.NoError(t, r.Unsubscribe(sub.ID()))
	assert.ErrorIs(t, r.Unsubscribe(sub.ID()), ErrSubscriptionNotFound)
	_ = r.Publish(Notification{Kind: KindSelectionChange})
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, r.Count())
}

func TestOnceAndFilter(t *testing.T) {
	r := NewRegistry()
	var once, focused int
	_, _ = r.Subscribe(KindFocusChange, func(Notification) error { once++; return nil }, WithOnce())
	_, _ = r.Subscribe(KindFocusChange, func(Notification) error { focused++; return nil },
		WithFilter(func(n Notification) bool { return n.Focused }))

	_ = r.Publish(Notification{Kind: KindFocusChange, Focused: false})
	_ = r.Publish(Notification{Kind: KindFocusChange, Focused: true})
	assert.Equal(t, 1, once)
	assert.Equal(t, 1, focused)
}

func TestNotificationString(t *testing.T) {
	n := Notification{Kind: KindTextChange, Text: "ab", SelStart: 2, SelEnd: 2, NewEnd: 2}
	assert.Equal(t, `TextChange("ab",2,2,2)`, n.String())
	assert.Equal(t, "ResetInputState", Notification{Kind: KindResetInputState}.String())
	assert.Equal(t, "critical", PriorityCritical.String())
}
