package engine

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f2lnk/f2lnk-go/internal/chatapi"
	"github.com/f2lnk/f2lnk-go/internal/download"
	"github.com/f2lnk/f2lnk-go/internal/quota"
	"github.com/f2lnk/f2lnk-go/internal/task"
	"github.com/f2lnk/f2lnk-go/internal/torrentrpc"
	"github.com/f2lnk/f2lnk-go/internal/tweetapi"
)

type fakeTransport struct {
	uploads []struct {
		chatID  int64
		path    string
		caption string
	}
	sent []string
}

func (f *fakeTransport) GetMessages(context.Context, int64, int64, int) ([]chatapi.Message, error) {
	return nil, nil
}
func (f *fakeTransport) Download(context.Context, int64, int64, io.Writer) error { return nil }
func (f *fakeTransport) Upload(_ context.Context, chatID int64, path, caption string, _ int64) (int64, error) {
	f.uploads = append(f.uploads, struct {
		chatID  int64
		path    string
		caption string
	}{chatID, path, caption})
	return int64(len(f.uploads)), nil
}
func (f *fakeTransport) SendText(_ context.Context, _ int64, text string) (int64, error) {
	f.sent = append(f.sent, text)
	return 1, nil
}
func (f *fakeTransport) EditText(context.Context, int64, int64, string) error { return nil }
func (f *fakeTransport) AskText(context.Context, int64, int64, string, time.Duration) (string, error) {
	return "", nil
}
func (f *fakeTransport) AskButtons(context.Context, int64, int64, string, [][]chatapi.Button, time.Duration) (string, error) {
	return "", nil
}

type fakeQuotaStore struct {
	records map[int64]*quota.Record
}

func (s *fakeQuotaStore) GetRecord(_ context.Context, userID int64) (*quota.Record, error) {
	if rec, ok := s.records[userID]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, nil
}
func (s *fakeQuotaStore) SaveRecord(_ context.Context, rec *quota.Record) error {
	cp := *rec
	s.records[rec.UserID] = &cp
	return nil
}

func newTestGate() *quota.Gate {
	store := &fakeQuotaStore{records: make(map[int64]*quota.Record)}
	return quota.NewGate(store, quota.TierLimits{"free": 10 * 1024 * 1024 * 1024}, "free", nil)
}

type fakeTweetClient struct {
	items []tweetapi.MediaItem
	err   error
}

func (c *fakeTweetClient) Resolve(context.Context, string) ([]tweetapi.MediaItem, error) {
	return c.items, c.err
}

type fakeTorrentClient struct {
	files []string
}

func (c *fakeTorrentClient) Submit(context.Context, []byte, bool) (string, error) { return "job1", nil }
func (c *fakeTorrentClient) Poll(context.Context, string) (torrentrpc.Status, error) {
	return torrentrpc.Status{State: torrentrpc.StateSeeding, Files: c.files}, nil
}
func (c *fakeTorrentClient) Remove(context.Context, string, bool) error { return nil }

func TestRunTaskTwitterKindSkipsDialogAndProcessing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fake-video-bytes"))
	}))
	defer srv.Close()

	tasksRoot := t.TempDir()
	reg := task.NewRegistry()
	transport := &fakeTransport{}
	gate := newTestGate()

	e := New(reg, transport, gate, download.New(time.Millisecond))
	e.TweetClient = &fakeTweetClient{items: []tweetapi.MediaItem{{Kind: tweetapi.MediaVideo, URL: srv.URL}}}

	tk, err := e.CollectSingleURL(10, 20, task.KindTwitter, "https://twitter.com/x/status/1", "clip", tasksRoot)
	require.NoError(t, err)

	err = e.RunTask(context.Background(), tk)
	require.NoError(t, err)
	assert.Equal(t, task.StageCompleted, tk.Stage())
	require.Len(t, transport.uploads, 1)
	assert.Equal(t, int64(10), transport.uploads[0].chatID)
}

func TestRunTaskQblKindFansOutTorrentFiles(t *testing.T) {
	tasksRoot := t.TempDir()
	srcDir := t.TempDir()

	file1 := filepath.Join(srcDir, "a.mkv")
	file2 := filepath.Join(srcDir, "b.mkv")
	require.NoError(t, os.WriteFile(file1, []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(file2, []byte("two"), 0o644))

	reg := task.NewRegistry()
	transport := &fakeTransport{}
	gate := newTestGate()

	e := New(reg, transport, gate, download.New(time.Millisecond))
	e.TorrentClient = &fakeTorrentClient{files: []string{file1, file2}}

	tk, err := e.CollectSingleURL(10, 20, task.KindQbl, "magnet:?xt=urn:btih:fake", "show", tasksRoot)
	require.NoError(t, err)

	err = e.RunTask(context.Background(), tk)
	require.NoError(t, err)
	assert.Equal(t, task.StageCompleted, tk.Stage())
	assert.Len(t, transport.uploads, 2)
}

func TestRunTaskCancelledTaskReachesCancelledStageNotFailed(t *testing.T) {
	tasksRoot := t.TempDir()
	reg := task.NewRegistry()
	transport := &fakeTransport{}
	gate := newTestGate()

	e := New(reg, transport, gate, download.New(time.Millisecond))
	e.TweetClient = &fakeTweetClient{err: context.Canceled}

	tk, err := e.CollectSingleURL(10, 20, task.KindTwitter, "https://twitter.com/x/status/1", "clip", tasksRoot)
	require.NoError(t, err)

	e.Registry.Advance(tk, task.StageCancelling)
	tk.Cancel()

	err = e.RunTask(context.Background(), tk)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, task.StageCancelled, tk.Stage())
	require.Len(t, transport.sent, 1)
	assert.Contains(t, transport.sent[0], "cancelled")
}

func TestRunTaskFailsTaskAndNotifiesOnQuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fake-video-bytes-too-big"))
	}))
	defer srv.Close()

	tasksRoot := t.TempDir()
	reg := task.NewRegistry()
	transport := &fakeTransport{}

	store := &fakeQuotaStore{records: make(map[int64]*quota.Record)}
	gate := quota.NewGate(store, quota.TierLimits{"free": 1}, "free", nil)

	e := New(reg, transport, gate, download.New(time.Millisecond))
	e.TweetClient = &fakeTweetClient{items: []tweetapi.MediaItem{{Kind: tweetapi.MediaVideo, URL: srv.URL}}}

	tk, err := e.CollectSingleURL(10, 20, task.KindTwitter, "https://twitter.com/x/status/1", "clip", tasksRoot)
	require.NoError(t, err)

	err = e.RunTask(context.Background(), tk)
	assert.Error(t, err)
	assert.Equal(t, task.StageFailed, tk.Stage())
	require.Len(t, transport.sent, 1)
	assert.Contains(t, transport.sent[0], "failed")
}
