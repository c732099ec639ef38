package task

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InputKind distinguishes how an input descriptor resolves to bytes.
type InputKind string

const (
	InputMessage InputKind = "message" // platform-message reference
	InputURL     InputKind = "url"
	InputMagnet  InputKind = "magnet"
)

// Input is one ordered item a task must download in stage D. Index is
// the input's stable position, preserved through the pipeline
// independent of download completion order.
type Input struct {
	Index     int
	Kind      InputKind
	MessageID int64  // set when Kind == InputMessage
	URL       string // set when Kind == InputURL or InputMagnet
}

// Downloaded is the stage-D output for one Input: its local path, still
// keyed by the same Index so later stages can process in input order.
type Downloaded struct {
	Index int
	Path  string
}

// Subprocess is a handle to a child process spawned on behalf of a task,
// stored so the cancellation path can terminate it without relying on
// pipe EOF alone.
type Subprocess interface {
	Kill() error
}

// Task is the central entity tracked by the orchestration engine: a
// typed state container carrying its own cancel signal and child
// process handles. Outside of construction and the cancellation path,
// a Task is mutated only by the single goroutine driving its pipeline.
type Task struct {
	ID    string
	Owner int64
	Chat  int64
	Kind  Kind

	stage   Stage
	stageMu sync.RWMutex

	RequestedCount int
	OutputName     string
	Config         Config

	Inputs     []Input
	Downloaded []Downloaded

	WorkDir string

	CreatedAt           time.Time
	StatusMessageHandle int64

	childrenMu sync.Mutex
	children   []Subprocess

	cancelOnce   sync.Once
	cancelCtx    context.Context
	cancelFunc   context.CancelFunc

	downloadsStarted   int
	downloadsCompleted int
	countMu            sync.Mutex
}

// New constructs a Task rooted under tasksRoot/<id>, normalising
// outputName's extension and initialising the cancel signal. id must
// already be reserved in the Registry before calling New.
func New(id string, owner, chat int64, kind Kind, outputName, tasksRoot string) *Task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{
		ID:         id,
		Owner:      owner,
		Chat:       chat,
		Kind:       kind,
		stage:      StageCollect,
		OutputName: normalizeOutputName(outputName, kind),
		WorkDir:    filepath.Join(tasksRoot, id),
		CreatedAt:  time.Now(),
		cancelCtx:  ctx,
		cancelFunc: cancel,
	}
	return t
}

// normalizeOutputName appends a default extension when the requested
// output name has none, mirroring the original bot's __post_init__
// behaviour of assuming .mp4 for video-producing kinds.
func normalizeOutputName(name string, kind Kind) string {
	if name == "" {
		name = "output"
	}
	if ext := filepath.Ext(name); ext != "" {
		return name
	}
	switch kind {
	case KindZip:
		return name + ".zip"
	case KindMediaInfo:
		return name + ".txt"
	default:
		return name + ".mp4"
	}
}

// NewScratchName builds a collision-resistant name for scratch files a
// tool needs beyond the task's own work dir (e.g. intermediate concat
// segments), using a UUID suffix rather than a counter so concurrent
// tools never collide.
func NewScratchName(prefix, ext string) string {
	return strings.TrimSuffix(prefix, "_") + "_" + uuid.NewString()[:8] + ext
}

// Stage returns the task's current stage.
func (t *Task) Stage() Stage {
	t.stageMu.RLock()
	defer t.stageMu.RUnlock()
	return t.stage
}

// IsCancellable reports whether the task's current stage accepts a
// cancel signal.
func (t *Task) IsCancellable() bool {
	return t.Stage().IsCancellable()
}

// Context returns the task's cancellation context; pipeline code should
// select on Context().Done() at every suspension point.
func (t *Task) Context() context.Context {
	return t.cancelCtx
}

// Cancel broadcasts the one-shot cancel signal and kills every
// registered child subprocess. Idempotent: subsequent calls are no-ops.
func (t *Task) Cancel() {
	t.cancelOnce.Do(func() {
		t.cancelFunc()
		t.childrenMu.Lock()
		children := make([]Subprocess, len(t.children))
		copy(children, t.children)
		t.childrenMu.Unlock()
		for _, c := range children {
			_ = c.Kill()
		}
	})
}

// RegisterChild records a subprocess handle so Cancel can reach it. If
// the task has already been cancelled, the child is killed immediately
// instead of being tracked, closing the race between "task cancelled"
// and "child about to start".
func (t *Task) RegisterChild(c Subprocess) {
	select {
	case <-t.cancelCtx.Done():
		_ = c.Kill()
		return
	default:
	}
	t.childrenMu.Lock()
	t.children = append(t.children, c)
	t.childrenMu.Unlock()
}

// IncDownloadsStarted increments the started-download counter.
func (t *Task) IncDownloadsStarted() {
	t.countMu.Lock()
	t.downloadsStarted++
	t.countMu.Unlock()
}

// IncDownloadsCompleted increments the completed-download counter.
func (t *Task) IncDownloadsCompleted() {
	t.countMu.Lock()
	t.downloadsCompleted++
	t.countMu.Unlock()
}

// DownloadProgress returns (started, completed) download counts.
func (t *Task) DownloadProgress() (started, completed int) {
	t.countMu.Lock()
	defer t.countMu.Unlock()
	return t.downloadsStarted, t.downloadsCompleted
}
