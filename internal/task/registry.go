package task

import (
	"crypto/rand"
	"fmt"
	"os"
	"sync"

	"github.com/f2lnk/f2lnk-go/internal/events"
	"github.com/f2lnk/f2lnk-go/internal/logging"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

var logger = logging.ForService("task")

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
const idLength = 6

// Registry is the in-memory map of active tasks keyed by task id. It is
// safe for concurrent use: mutated by the task lifecycle code, read by
// command/callback handlers.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task)}
}

// NewID draws random 6-char lowercase alphanumeric strings until one is
// absent from the registry.
func (r *Registry) NewID() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for attempt := 0; attempt < 1000; attempt++ {
		id, err := randomID()
		if err != nil {
			return "", err
		}
		if _, exists := r.tasks[id]; !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("task: exhausted id generation attempts")
}

func randomID() (string, error) {
	buf := make([]byte, idLength)
	if _, err := rand.Read(buf); err != nil {
		return "", xerrors.New(err).Category(xerrors.CategoryTask).Build()
	}
	out := make([]byte, idLength)
	for i, b := range buf {
		out[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(out), nil
}

// Register adds t to the registry under t.ID. Returns an error if the id
// is already present (callers should draw ids via NewID to avoid this).
func (r *Registry) Register(t *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tasks[t.ID]; exists {
		return fmt.Errorf("task: id %s already registered", t.ID)
	}
	r.tasks[t.ID] = t
	return nil
}

// Get returns the task with the given id, or nil if absent.
func (r *Registry) Get(id string) *Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tasks[id]
}

// Remove deletes id from the registry. Idempotent: removing an absent id
// is a no-op. Remove does not touch WorkDir; callers that reach a
// terminal stage must clean up files themselves before or after calling
// Remove.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
}

// Iter returns a snapshot slice of all currently registered tasks.
func (r *Registry) Iter() []*Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	return out
}

// ForOwnerInStage returns tasks owned by owner currently sitting in
// stage — used by the Interactive Config callback router to match a
// button click to the task that issued the prompt.
func (r *Registry) ForOwnerInStage(owner int64, stage Stage) []*Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Task
	for _, t := range r.tasks {
		if t.Owner == owner && t.Stage() == stage {
			out = append(out, t)
		}
	}
	return out
}

// CountActive returns the number of tasks currently registered, used by
// the watchdog's "active tasks == 0" trigger condition.
func (r *Registry) CountActive() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Advance moves t to next, enforcing monotonicity (§3 invariant 4):
// terminal stages absorb, and any other move must be the next linear
// stage or a jump straight to a terminal/cancelling stage, except that a
// task already in Cancelling may move to any stage. An illegal
// move is a programmer error and panics rather than silently corrupting
// state.
func (r *Registry) Advance(t *Task, next Stage) {
	t.stageMu.Lock()
	cur := t.stage
	if !cur.canAdvanceTo(next) {
		t.stageMu.Unlock()
		panic(fmt.Sprintf("task %s: illegal stage transition %s -> %s", t.ID, cur, next))
	}
	t.stage = next
	t.stageMu.Unlock()

	logger.Info("task stage transition", "task_id", t.ID, "from", cur, "to", next)

	if bus := events.GetEventBus(); bus != nil {
		bus.TryPublish(events.TaskEvent{
			TaskID:    t.ID,
			Owner:     t.Owner,
			Kind:      string(t.Kind),
			FromStage: string(cur),
			ToStage:   string(next),
		})
	}

	if next.IsTerminal() {
		if err := os.RemoveAll(t.WorkDir); err != nil {
			logger.Warn("failed to remove task work dir", "task_id", t.ID, "work_dir", t.WorkDir, "error", err)
		}
	}
}

// Fail transitions t to Failed and publishes the causing error on the
// event bus so notification consumers can act on it.
func (r *Registry) Fail(t *Task, cause error) {
	t.stageMu.Lock()
	cur := t.stage
	if cur.IsTerminal() {
		t.stageMu.Unlock()
		return
	}
	t.stage = StageFailed
	t.stageMu.Unlock()

	logger.Error("task failed", "task_id", t.ID, "from", cur, "error", cause)

	if bus := events.GetEventBus(); bus != nil {
		bus.TryPublish(events.TaskEvent{
			TaskID:    t.ID,
			Owner:     t.Owner,
			Kind:      string(t.Kind),
			FromStage: string(cur),
			ToStage:   string(StageFailed),
			Err:       cause,
		})
	}

	if err := os.RemoveAll(t.WorkDir); err != nil {
		logger.Warn("failed to remove task work dir", "task_id", t.ID, "work_dir", t.WorkDir, "error", err)
	}
}
