package autosave

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	saved map[string][]int
}

func newRecorder() *recorder {
	return &recorder{saved: make(map[string][]int)}
}

func (r *recorder) save(_ context.Context, key string, v int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved[key] = append(r.saved[key], v)
	return nil
}

func (r *recorder) get(key string) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.saved[key]...)
}

func TestTrailingSaveKeepsLastValue(t *testing.T) {
	rec := newRecorder()
	d := New[string, int](30*time.Millisecond, rec.save, nil)

	for i := 1; i <= 5; i++ {
		require.True(t, d.Schedule("alice", i))
	}
	d.Schedule("bob", 42)

	assert.Eventually(t, func() bool {
		return len(rec.get("alice")) == 1 && len(rec.get("bob")) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []int{5}, rec.get("alice"))
	assert.Equal(t, []int{42}, rec.get("bob"))
	assert.Zero(t, d.Pending())
}

func TestStopFlushesAndRefuses(t *testing.T) {
	rec := newRecorder()
	d := New[string, int](time.Hour, rec.save, nil)

	d.Schedule("alice", 1)
	d.Schedule("alice", 2)
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, []int{2}, rec.get("alice"))
	assert.False(t, d.Schedule("alice", 3))
}

func TestCancelDropsPendingValue(t *testing.T) {
	rec := newRecorder()
	d := New[string, int](time.Hour, rec.save, nil)

	d.Schedule("alice", 1)
	d.Cancel("alice")
	require.NoError(t, d.Flush(context.Background()))

	assert.Empty(t, rec.get("alice"))
}

func TestCancelWaitsForRunningSave(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	save := func(_ context.Context, _ string, _ int) error {
		close(started)
		<-release
		finished.Store(true)
		return nil
	}
	d := New[string, int](time.Millisecond, save, nil)

	d.Schedule("alice", 1)
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("save never started")
	}

	cancelled := make(chan struct{})
	go func() {
		d.Cancel("alice")
		close(cancelled)
	}()

	select {
	case <-cancelled:
		t.Fatal("Cancel returned while the save was still running")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("Cancel did not return after the save finished")
	}
	assert.True(t, finished.Load())
}

func TestCancelOtherKeyDoesNotWait(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	save := func(_ context.Context, _ string, _ int) error {
		close(started)
		<-release
		return nil
	}
	d := New[string, int](time.Millisecond, save, nil)

	d.Schedule("alice", 1)
	<-started

	done := make(chan struct{})
	go func() {
		d.Cancel("bob")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Cancel blocked on another key's save")
	}
}
