package task

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryNewIDUniqueness(t *testing.T) {
	r := NewRegistry()
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		id, err := r.NewID()
		require.NoError(t, err)
		_, dup := seen[id]
		assert.False(t, dup, "id %s generated twice", id)
		seen[id] = struct{}{}

		tk := New(id, 1, 1, KindVt, "out.mp4", t.TempDir())
		require.NoError(t, r.Register(tk))
	}
}

func TestRegistryRemoveThenReuseID(t *testing.T) {
	r := NewRegistry()
	tk := New("abc123", 1, 1, KindVt, "out.mp4", t.TempDir())
	require.NoError(t, r.Register(tk))

	r.Remove("abc123")

	tk2 := New("abc123", 2, 2, KindVt, "out.mp4", t.TempDir())
	require.NoError(t, r.Register(tk2))
}

func TestStageMonotonicity(t *testing.T) {
	root := t.TempDir()
	r := NewRegistry()
	tk := New("stg001", 1, 1, KindLeech, "out.mp4", root)
	require.NoError(t, os.MkdirAll(tk.WorkDir, 0o755))
	require.NoError(t, r.Register(tk))

	r.Advance(tk, StageConfigure)
	r.Advance(tk, StageDownload)
	r.Advance(tk, StageProcess)
	r.Advance(tk, StageUpload)
	r.Advance(tk, StageCompleted)

	assert.Equal(t, StageCompleted, tk.Stage())

	assert.Panics(t, func() {
		r.Advance(tk, StageDownload)
	}, "terminal stage must absorb further transitions")
}

func TestTerminalTransitionRemovesWorkDir(t *testing.T) {
	root := t.TempDir()
	r := NewRegistry()
	tk := New("term01", 1, 1, KindLeech, "out.mp4", root)
	require.NoError(t, os.MkdirAll(tk.WorkDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tk.WorkDir, "scratch.bin"), []byte("x"), 0o644))
	require.NoError(t, r.Register(tk))

	r.Advance(tk, StageConfigure)
	r.Advance(tk, StageCancelling)
	r.Advance(tk, StageCancelled)

	_, err := os.Stat(tk.WorkDir)
	assert.True(t, os.IsNotExist(err), "work_dir must be removed after a terminal transition")
}

func TestCancellingStageDoesNotBlockFurtherAdvance(t *testing.T) {
	root := t.TempDir()
	r := NewRegistry()
	tk := New("cncl01", 1, 1, KindLeech, "out.mp4", root)
	require.NoError(t, os.MkdirAll(tk.WorkDir, 0o755))
	require.NoError(t, r.Register(tk))

	r.Advance(tk, StageCancelling)

	assert.NotPanics(t, func() {
		r.Advance(tk, StageConfigure)
	}, "a cancel signal observed before the pipeline's next stage check must not panic the stage machine")
	assert.Equal(t, StageConfigure, tk.Stage())
}

func TestOutputNameExtensionNormalization(t *testing.T) {
	tk := New("ext001", 1, 1, KindLeech, "myfile", t.TempDir())
	assert.Equal(t, "myfile.mp4", tk.OutputName)

	tk2 := New("ext002", 1, 1, KindLeech, "myfile.mkv", t.TempDir())
	assert.Equal(t, "myfile.mkv", tk2.OutputName)
}

func TestCancelIsIdempotentAndReachesChildren(t *testing.T) {
	tk := New("can001", 1, 1, KindLeech, "out.mp4", t.TempDir())

	killed := 0
	child := killerFunc(func() error { killed++; return nil })
	tk.RegisterChild(child)

	tk.Cancel()
	tk.Cancel()

	assert.Equal(t, 1, killed, "Cancel must be idempotent: child killed exactly once")
	select {
	case <-tk.Context().Done():
	default:
		t.Fatal("task context must be cancelled")
	}
}

type killerFunc func() error

func (k killerFunc) Kill() error { return k() }
