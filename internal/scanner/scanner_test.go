package scanner

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/f2lnk/f2lnk-go/internal/chatapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport serves GetMessages from a fixed in-memory slice,
// returning up to window messages of chatID starting at fromID.
type fakeTransport struct {
	all []chatapi.Message
}

func (f *fakeTransport) GetMessages(_ context.Context, chatID, fromID int64, window int) ([]chatapi.Message, error) {
	var out []chatapi.Message
	for _, m := range f.all {
		if m.ChatID != chatID || m.ID < fromID {
			continue
		}
		out = append(out, m)
		if len(out) == window {
			break
		}
	}
	return out, nil
}

func (f *fakeTransport) Download(context.Context, int64, int64, io.Writer) error { return nil }
func (f *fakeTransport) Upload(context.Context, int64, string, string, int64) (int64, error) {
	return 0, nil
}
func (f *fakeTransport) SendText(context.Context, int64, string) (int64, error) { return 0, nil }
func (f *fakeTransport) EditText(context.Context, int64, int64, string) error   { return nil }
func (f *fakeTransport) AskText(context.Context, int64, int64, string, time.Duration) (string, error) {
	return "", nil
}
func (f *fakeTransport) AskButtons(context.Context, int64, int64, string, [][]chatapi.Button, time.Duration) (string, error) {
	return "", nil
}

func TestScanReturnsExactCountInOrder(t *testing.T) {
	tr := &fakeTransport{all: []chatapi.Message{
		{ID: 1, ChatID: 10, AuthorID: 99, Kind: chatapi.MediaNone},    // bot reply, not media
		{ID: 2, ChatID: 10, AuthorID: 7, Kind: chatapi.MediaVideo},    // different author
		{ID: 3, ChatID: 10, AuthorID: 99, Kind: chatapi.MediaVideo},   // match 1
		{ID: 4, ChatID: 10, AuthorID: 99, Kind: chatapi.MediaNone},    // no media
		{ID: 5, ChatID: 10, AuthorID: 99, Kind: chatapi.MediaPhoto},   // match 2
		{ID: 6, ChatID: 10, AuthorID: 99, Kind: chatapi.MediaDocument}, // match 3, extra
	}}

	got, err := Scan(context.Background(), tr, 10, 1, 99, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, int64(5), got[1].ID)
}

func TestScanShorterThanRequestedWhenChatExhausted(t *testing.T) {
	tr := &fakeTransport{all: []chatapi.Message{
		{ID: 1, ChatID: 10, AuthorID: 99, Kind: chatapi.MediaVideo},
	}}

	got, err := Scan(context.Background(), tr, 10, 1, 99, 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestScanDeduplicatesByMessageID(t *testing.T) {
	tr := &fakeTransport{all: []chatapi.Message{
		{ID: 1, ChatID: 10, AuthorID: 99, Kind: chatapi.MediaVideo},
		{ID: 2, ChatID: 10, AuthorID: 99, Kind: chatapi.MediaVideo},
	}}

	got, err := Scan(context.Background(), tr, 10, 1, 99, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestScanZeroNeededReturnsNil(t *testing.T) {
	tr := &fakeTransport{}
	got, err := Scan(context.Background(), tr, 10, 1, 99, 0)
	require.NoError(t, err)
	assert.Nil(t, got)
}
