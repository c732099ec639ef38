package upload

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f2lnk/f2lnk-go/internal/chatapi"
)

type fakeTransport struct {
	uploads []struct {
		path    string
		caption string
	}
	nextID int64
}

func (f *fakeTransport) GetMessages(context.Context, int64, int64, int) ([]chatapi.Message, error) {
	return nil, nil
}
func (f *fakeTransport) Download(context.Context, int64, int64, io.Writer) error {
	return nil
}
func (f *fakeTransport) Upload(_ context.Context, _ int64, path, caption string, _ int64) (int64, error) {
	f.nextID++
	f.uploads = append(f.uploads, struct {
		path    string
		caption string
	}{path, caption})
	return f.nextID, nil
}
func (f *fakeTransport) SendText(context.Context, int64, string) (int64, error) { return 0, nil }
func (f *fakeTransport) EditText(context.Context, int64, int64, string) error   { return nil }
func (f *fakeTransport) AskText(context.Context, int64, int64, string, time.Duration) (string, error) {
	return "", nil
}
func (f *fakeTransport) AskButtons(context.Context, int64, int64, string, [][]chatapi.Button, time.Duration) (string, error) {
	return "", nil
}

func writeFileOfSize(t *testing.T, path string, size int64) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.Truncate(size))
	// Fill with a repeating byte pattern so round-trip concatenation can
	// be checked for content, not just length.
	buf := make([]byte, 4096)
	for i := range buf {
		buf[i] = byte(i % 251)
	}
	var written int64
	for written < size {
		n := int64(len(buf))
		if size-written < n {
			n = size - written
		}
		_, err := f.WriteAt(buf[:n], written)
		require.NoError(t, err)
		written += n
	}
}

func TestSplitFileReturnsOriginalWhenUnderLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "small.bin")
	writeFileOfSize(t, path, 100)

	parts, err := SplitFile(path, 1000)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, parts)
}

func TestSplitFileRoundTripsByteForByte(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.bin")
	const total = 25000
	writeFileOfSize(t, path, total)

	parts, err := SplitFile(path, 10000)
	require.NoError(t, err)
	require.Len(t, parts, 3)

	original, err := os.ReadFile(path)
	require.NoError(t, err)

	var reassembled []byte
	for _, p := range parts {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		reassembled = append(reassembled, data...)
	}
	assert.Equal(t, original, reassembled)
}

func TestFileUploadsSmallFileDirectly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	writeFileOfSize(t, path, 500)

	transport := &fakeTransport{}
	results, err := File(context.Background(), transport, 1, path, "caption", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Len(t, transport.uploads, 1)
	assert.Equal(t, path, transport.uploads[0].path)
}

func TestFileSplitsAndUploadsOversizeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.mp4")
	writeFileOfSize(t, path, 25000)

	transport := &fakeTransport{}
	results, err := fileWithLimit(context.Background(), transport, 1, path, "caption", 0, 10000)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Len(t, transport.uploads, 3)

	for _, u := range transport.uploads {
		_, statErr := os.Stat(u.path)
		assert.True(t, os.IsNotExist(statErr), "part %s should be removed after upload", u.path)
	}

	_, err = os.Stat(filepath.Join(dir, "movie.mp4_parts"))
	assert.True(t, os.IsNotExist(err))
}
