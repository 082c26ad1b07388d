package composition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMachineStartsIdle(t *testing.T) {
	m := New()
	assert.False(t, m.IsComposing())
	assert.Equal(t, State{Phase: Idle}, m.Current())
	assert.Equal(t, "Idle", m.Current().String())
}

func TestBeginEnd(t *testing.T) {
	m := New()
	var seen []Transition
	m.OnTransition(func(tr Transition) { seen = append(seen, tr) })

	assert.True(t, m.Begin(4, CauseComposingText))
	assert.Equal(t, "Composing(4)", m.Current().String())
	assert.False(t, m.Begin(9, CauseComposingText), "second begin is ignored")
	assert.Equal(t, 4, m.Current().Start)

	assert.True(t, m.End(CauseFinish))
	assert.False(t, m.End(CauseFinish), "end is idempotent")

	begins, ends := m.Counts()
	assert.Equal(t, uint64(1), begins)
	assert.Equal(t, uint64(1), ends)

	if assert.Len(t, seen, 2) {
		assert.Equal(t, Idle, seen[0].From.Phase)
		assert.Equal(t, Composing, seen[0].To.Phase)
		assert.Equal(t, CauseFinish, seen[1].Cause)
	}
}

func TestRebase(t *testing.T) {
	m := New()
	m.Rebase(3)
	assert.Equal(t, 0, m.Current().Start, "rebase while idle is a no-op")

	m.Begin(1, CauseComposingRegion)
	m.Rebase(3)
	assert.Equal(t, 3, m.Current().Start)
}

func TestCauseRemote(t *testing.T) {
	assert.True(t, CauseRemoteReset.Remote())
	assert.True(t, CauseRemoteCancel.Remote())
	assert.False(t, CauseCommit.Remote())
	assert.False(t, CauseNonOverlapping.Remote())
	assert.Equal(t, "non-overlapping-edit", CauseNonOverlapping.String())
}
