package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/f2lnk/f2lnk-go/internal/download"
	"github.com/f2lnk/f2lnk-go/internal/fetch"
	"github.com/f2lnk/f2lnk-go/internal/task"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

// fetchFor returns a download.Fetch bound to t, routing each of its
// Inputs to the strategy matching its Kind. Only InputMessage and
// InputURL pass through here: InputMagnet tasks are KindQbl, which
// RunTask routes to downloadTorrent instead, since a single submitted
// torrent job can yield many files rather than one file per Input.
func (e *Engine) fetchFor(t *task.Task) download.Fetch {
	return func(ctx context.Context, in task.Input, destDir string) (string, error) {
		switch in.Kind {
		case task.InputMessage:
			return e.fetchMessage(ctx, t.Chat, in, destDir)
		case task.InputURL:
			return fetch.URL(ctx, in.URL, destDir)
		default:
			return "", xerrors.Newf("engine: no fetch strategy for input kind %s", in.Kind).
				Category(xerrors.CategoryFetch).Component("engine").Build()
		}
	}
}

func (e *Engine) fetchMessage(ctx context.Context, chatID int64, in task.Input, destDir string) (string, error) {
	path := filepath.Join(destDir, fmt.Sprintf("msg_%d", in.MessageID))
	f, err := os.Create(path)
	if err != nil {
		return "", xerrors.New(err).Category(xerrors.CategoryFileIO).Component("engine").FileContext(path, 0).Build()
	}
	defer f.Close()

	if err := e.Transport.Download(ctx, chatID, in.MessageID, f); err != nil {
		return "", xerrors.Wrap(err).Category(xerrors.CategoryFetch).Component("engine").
			Context("message_id", in.MessageID).Build()
	}
	return path, nil
}

// downloadTorrent submits t's single magnet/payload input to the
// torrent daemon and fans its resulting files out into synthetic
// task.Downloaded entries, since torrentrpc.Client.Submit takes one
// payload for the whole task rather than per-Input like every other
// kind's fetch strategy.
func (e *Engine) downloadTorrent(ctx context.Context, t *task.Task) ([]task.Downloaded, error) {
	if len(t.Inputs) == 0 {
		return nil, xerrors.Newf("engine: qbl task %s has no input", t.ID).
			Category(xerrors.CategoryValidation).Component("engine").Build()
	}
	in := t.Inputs[0]
	isMagnet := in.Kind == task.InputMagnet

	t.IncDownloadsStarted()
	files, err := fetch.Torrent(t.Context(), e.TorrentClient, []byte(in.URL), isMagnet)
	if err != nil {
		t.Cancel()
		return nil, err
	}

	downloaded := make([]task.Downloaded, 0, len(files))
	for i, src := range files {
		dst := filepath.Join(t.WorkDir, fmt.Sprintf("%03d_%s", i, filepath.Base(src)))
		if err := os.Rename(src, dst); err != nil {
			return nil, xerrors.New(err).Category(xerrors.CategoryFileIO).Component("engine").FileContext(src, 0).Build()
		}
		downloaded = append(downloaded, task.Downloaded{Index: i, Path: dst})
	}
	t.IncDownloadsCompleted()
	return downloaded, nil
}

// downloadTweet resolves t's tweet URL input and fans its media items
// out the same way downloadTorrent does, for the same one-job/
// many-files reason.
func (e *Engine) downloadTweet(ctx context.Context, t *task.Task) ([]task.Downloaded, error) {
	if len(t.Inputs) == 0 {
		return nil, xerrors.Newf("engine: twitter task %s has no input", t.ID).
			Category(xerrors.CategoryValidation).Component("engine").Build()
	}
	in := t.Inputs[0]

	t.IncDownloadsStarted()
	files, err := fetch.Tweet(t.Context(), e.TweetClient, in.URL, t.WorkDir)
	if err != nil {
		t.Cancel()
		return nil, err
	}

	downloaded := make([]task.Downloaded, len(files))
	for i, path := range files {
		downloaded[i] = task.Downloaded{Index: i, Path: path}
	}
	t.IncDownloadsCompleted()
	return downloaded, nil
}
