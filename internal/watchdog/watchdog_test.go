package watchdog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	mu     sync.Mutex
	active int
}

func (f *fakeCounter) CountActive() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeCounter) set(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = n
}

type triggerRecorder struct {
	mu      sync.Mutex
	reasons []string
}

func (t *triggerRecorder) record(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reasons = append(t.reasons, reason)
}

func (t *triggerRecorder) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.reasons)
}

func TestTickSkipsTriggerWhenTasksActive(t *testing.T) {
	counter := &fakeCounter{active: 1}
	rec := &triggerRecorder{}
	w := New(Config{CPUThreshold: -1, RAMThreshold: -1, IdleTimeout: -1}, counter, nil, rec.record)

	w.tick(context.Background())

	assert.Equal(t, 0, rec.count())
}

func TestTickFiresOnIdleTimeoutWithNoActiveTasks(t *testing.T) {
	counter := &fakeCounter{active: 0}
	rec := &triggerRecorder{}
	w := New(Config{CPUThreshold: 1000, RAMThreshold: 1000, IdleTimeout: 0}, counter, nil, rec.record)
	w.lastActivity.Store(time.Now().Add(-time.Hour).UnixNano())

	w.tick(context.Background())

	require.Equal(t, 1, rec.count())
	assert.Equal(t, "idle timeout exceeded", rec.reasons[0])
}

func TestTouchResetsIdleClock(t *testing.T) {
	counter := &fakeCounter{active: 0}
	rec := &triggerRecorder{}
	w := New(Config{CPUThreshold: 1000, RAMThreshold: 1000, IdleTimeout: time.Hour}, counter, nil, rec.record)
	w.lastActivity.Store(time.Now().Add(-2 * time.Hour).UnixNano())

	w.Touch()
	w.tick(context.Background())

	assert.Equal(t, 0, rec.count())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	counter := &fakeCounter{active: 1}
	w := New(Config{Interval: time.Millisecond, StartupGrace: 0}, counter, nil, func(string) {})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
