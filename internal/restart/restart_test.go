package restart

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f2lnk/f2lnk-go/internal/chatapi"
	"github.com/f2lnk/f2lnk-go/internal/task"
)

type recordingTransport struct {
	mu   sync.Mutex
	sent []struct {
		chatID int64
		text   string
	}
}

func (r *recordingTransport) GetMessages(context.Context, int64, int64, int) ([]chatapi.Message, error) {
	return nil, nil
}
func (r *recordingTransport) Download(context.Context, int64, int64, io.Writer) error { return nil }
func (r *recordingTransport) Upload(context.Context, int64, string, string, int64) (int64, error) {
	return 0, nil
}
func (r *recordingTransport) SendText(_ context.Context, chatID int64, text string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, struct {
		chatID int64
		text   string
	}{chatID, text})
	return 1, nil
}
func (r *recordingTransport) EditText(context.Context, int64, int64, string) error { return nil }
func (r *recordingTransport) AskText(context.Context, int64, int64, string, time.Duration) (string, error) {
	return "", nil
}
func (r *recordingTransport) AskButtons(context.Context, int64, int64, string, [][]chatapi.Button, time.Duration) (string, error) {
	return "", nil
}

func withFakeExit(t *testing.T) *int {
	t.Helper()
	origExit, origSleep := exitFn, sleepFn
	code := new(int)
	exitCalled := make(chan struct{})
	exitFn = func(c int) {
		*code = c
		close(exitCalled)
		panic("restart test exit sentinel")
	}
	sleepFn = func(time.Duration) {}
	t.Cleanup(func() {
		exitFn, sleepFn = origExit, origSleep
	})
	go func() {
		<-exitCalled
	}()
	return code
}

func triggerAndRecoverExit(t *testing.T, c *Coordinator, reason string, chatID int64) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			if msg, ok := r.(string); !ok || msg != "restart test exit sentinel" {
				panic(r)
			}
		}
	}()
	c.Trigger(context.Background(), reason, chatID)
}

func TestTriggerNotifiesTriggeringChatAndOwners(t *testing.T) {
	withFakeExit(t)
	transport := &recordingTransport{}
	c := New(task.NewRegistry(), transport, nil, []int64{100, 200}, nil)

	triggerAndRecoverExit(t, c, "manual restart", 100)

	require.Len(t, transport.sent, 2)
	assert.Equal(t, int64(100), transport.sent[0].chatID)
	assert.Equal(t, int64(200), transport.sent[1].chatID)
}

func TestTriggerCancelsActiveTasks(t *testing.T) {
	withFakeExit(t)
	dir := t.TempDir()
	reg := task.NewRegistry()
	id, err := reg.NewID()
	require.NoError(t, err)
	tk := task.New(id, 1, 1, task.KindLeech, "out.mp4", dir)
	require.NoError(t, reg.Register(tk))

	c := New(reg, &recordingTransport{}, nil, nil, nil)
	triggerAndRecoverExit(t, c, "test", 0)

	assert.Error(t, tk.Context().Err())
}

func TestTriggerCleansScratchDirs(t *testing.T) {
	withFakeExit(t)
	dir := t.TempDir()
	scratch := filepath.Join(dir, "scratch")
	require.NoError(t, os.MkdirAll(scratch, 0o755))

	c := New(task.NewRegistry(), &recordingTransport{}, nil, nil, []string{scratch})
	triggerAndRecoverExit(t, c, "test", 0)

	_, err := os.Stat(scratch)
	assert.True(t, os.IsNotExist(err))
}

func TestTriggerIgnoresSecondCallWhileInProgress(t *testing.T) {
	origSleep := sleepFn
	sleepFn = func(time.Duration) {}
	defer func() { sleepFn = origSleep }()

	c := New(task.NewRegistry(), &recordingTransport{}, nil, nil, nil)
	c.inProgress.Store(true)

	// Should return immediately without calling exitFn (which we leave
	// pointed at the real os.Exit here deliberately: if the guard fails
	// to short-circuit, the test process itself would exit).
	c.Trigger(context.Background(), "second", 0)
}
