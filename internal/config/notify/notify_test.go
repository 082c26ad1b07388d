package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathScoping(t *testing.T) {
	n := New()
	var all, bridge, delay []string
	n.Subscribe(func(c Change) { all = append(all, c.Path) })
	n.SubscribePath("bridge", func(c Change) { bridge = append(bridge, c.Path) })
	n.SubscribePath("bridge.update_delay", func(c Change) { delay = append(delay, c.Path) })

	n.Notify(Change{Path: "bridge.update_delay", Type: ChangeSet})
	n.Notify(Change{Path: "bridge.log_calls", Type: ChangeSet})
	n.Notify(Change{Path: "bridgework.x", Type: ChangeSet})
	n.Notify(Change{Type: ChangeReload})

	assert.Equal(t, []string{"bridge.update_delay", "bridge.log_calls", "bridgework.x", ""}, all)
	assert.Equal(t, []string{"bridge.update_delay", "bridge.log_calls", ""}, bridge)
	assert.Equal(t, []string{"bridge.update_delay", ""}, delay)
}

func TestSubscriptionOrderAndUnsubscribe(t *testing.T) {
	n := New()
	var order []int
	s1 := n.Subscribe(func(Change) { order = append(order, 1) })
	n.Subscribe(func(Change) { order = append(order, 2) })
	n.Notify(Change{Path: "a"})
	assert.Equal(t, []int{1, 2}, order)

	s1.Unsubscribe()
	s1.Unsubscribe()
	assert.Equal(t, 1, n.Count())
	order = nil
	n.Notify(Change{Path: "a"})
	assert.Equal(t, []int{2}, order)
}

func TestObserverMayUnsubscribeDuringDelivery(t *testing.T) {
	n := New()
	calls := 0
	var sub *Subscription
	sub = n.Subscribe(func(Change) {
		calls++
		sub.Unsubscribe()
	})
	n.Notify(Change{Path: "a"})
	n.Notify(Change{Path: "a"})
	assert.Equal(t, 1, calls)
}

func TestChangeTypeString(t *testing.T) {
	assert.Equal(t, "set", ChangeSet.String())
	assert.Equal(t, "delete", ChangeDelete.String())
	assert.Equal(t, "reload", ChangeReload.String())
}
