package loop

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T, opts ...Option) *Loop {
	t.Helper()
	l := New("test", opts...)
	require.NoError(t, l.Start())
	t.Cleanup(func() { _ = l.Stop() })
	return l
}

func TestLoopRunsTasksInPostOrder(t *testing.T) {
	l := startLoop(t)

	var mu sync.Mutex
	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.NoError(t, l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	require.NoError(t, l.Invoke(func() {}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoopIsCurrent(t *testing.T) {
	l := startLoop(t)
	assert.False(t, l.IsCurrent())

	var inside bool
	require.NoError(t, l.Invoke(func() { inside = l.IsCurrent() }))
	assert.True(t, inside)
}

func TestInvokeFromLoopRunsInline(t *testing.T) {
	l := startLoop(t)

	var order []string
	require.NoError(t, l.Invoke(func() {
		order = append(order, "outer")
		require.NoError(t, l.Invoke(func() { order = append(order, "inner") }))
		order = append(order, "after")
	}))
	assert.Equal(t, []string{"outer", "inner", "after"}, order)
}

func TestAssertCurrentStrict(t *testing.T) {
	l := startLoop(t, WithStrictThreading(true))

	defer func() {
		r := recover()
		require.NotNil(t, r)
		wt, ok := r.(*WrongThreadError)
		require.True(t, ok)
		assert.Equal(t, "test", wt.Loop)
		assert.NotEqual(t, wt.Expected, wt.Actual)
	}()
	l.AssertCurrent()
}

func TestAssertCurrentRelaxedIsNoop(t *testing.T) {
	l := startLoop(t)
	assert.NotPanics(t, l.AssertCurrent)
	assert.False(t, l.Strict())
}

func TestAssertCurrentOnLoop(t *testing.T) {
	l := startLoop(t, WithStrictThreading(true))
	require.NoError(t, l.Invoke(func() {
		assert.NotPanics(t, l.AssertCurrent)
	}))
}

func TestPostAfterStop(t *testing.T) {
	l := New("stopped")
	require.NoError(t, l.Start())
	require.NoError(t, l.Stop())

	assert.ErrorIs(t, l.Post(func() {}), ErrStopped)
	assert.ErrorIs(t, l.Stop(), ErrNotRunning)
	assert.ErrorIs(t, l.Start(), ErrStopped)
}

func TestStopDrainsQueue(t *testing.T) {
	l := New("drain")
	require.NoError(t, l.Start())

	block := make(chan struct{})
	require.NoError(t, l.Post(func() { <-block }))
	ran := 0
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Post(func() { ran++ }))
	}
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(block)
	}()
	require.NoError(t, l.Stop())
	assert.Equal(t, 5, ran)
}

func TestPanickingTaskDoesNotKillLoop(t *testing.T) {
	var recovered any
	l := startLoop(t, WithPanicHandler(func(_ string, r any, _ []byte) { recovered = r }))

	require.NoError(t, l.Post(func() { panic("boom") }))
	var after bool
	require.NoError(t, l.Invoke(func() { after = true }))

	assert.True(t, after)
	assert.Equal(t, "boom", recovered)
	_, panicked := l.Stats()
	assert.Equal(t, uint64(1), panicked)
}

func TestPostDoesNotBlockWhileLoopBusy(t *testing.T) {
	l := startLoop(t)

	release := make(chan struct{})
	require.NoError(t, l.Post(func() { <-release }))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			_ = l.Post(func() {})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Post blocked while loop was busy")
	}
	assert.GreaterOrEqual(t, l.Pending(), 10000)
	close(release)
}
