// Package upload implements §4.H's Uploader/Splitter: send a local
// file to the chat, transparently splitting it into sequential
// byte-range parts first if it exceeds the platform's single-file
// ceiling.
package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/f2lnk/f2lnk-go/internal/chatapi"
	"github.com/f2lnk/f2lnk-go/internal/logging"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

var logger = logging.ForService("upload")

// MaxFileBytes is the platform's effective single-file ceiling,
// shaved below the documented 2GiB limit the way the reference bot
// does to leave headroom for protocol overhead.
const MaxFileBytes = int64(1_950_000_000)

// Result is one sent message, in send order.
type Result struct {
	MessageID int64
	FileName  string
	Size      int64
}

// File uploads path to chatID with caption and an optional replyTo
// anchor (0 means none). A file over MaxFileBytes is split into
// sequential parts first (§4.H); each part is sent as its own message,
// captioned with the original file name, a "(k/N)" marker, the part's
// name and its size (caption itself precedes only the first part's
// caption), and deleted from disk once its send succeeds. Parts are numbered so a receiver can reassemble
// the original by concatenating them in order.
func File(ctx context.Context, transport chatapi.Transport, chatID int64, path, caption string, replyTo int64) ([]Result, error) {
	return fileWithLimit(ctx, transport, chatID, path, caption, replyTo, MaxFileBytes)
}

// fileWithLimit is File's implementation with the split threshold
// parameterised so tests can exercise the split path without writing a
// near-2GiB fixture.
func fileWithLimit(ctx context.Context, transport chatapi.Transport, chatID int64, path, caption string, replyTo, maxBytes int64) ([]Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, xerrors.New(err).Category(xerrors.CategoryFileIO).Component("upload").FileContext(path, 0).Build()
	}

	if info.Size() <= maxBytes {
		id, err := transport.Upload(ctx, chatID, path, caption, replyTo)
		if err != nil {
			return nil, xerrors.Wrap(err).Category(xerrors.CategoryUpload).Component("upload").
				FileContext(path, info.Size()).Build()
		}
		return []Result{{MessageID: id, FileName: filepath.Base(path), Size: info.Size()}}, nil
	}

	return splitAndUpload(ctx, transport, chatID, path, caption, replyTo, info.Size(), maxBytes)
}

func splitAndUpload(ctx context.Context, transport chatapi.Transport, chatID int64, path, caption string, replyTo, size, maxBytes int64) ([]Result, error) {
	logger.Info("splitting oversized file for upload", "path", path, "size", size)
	parts, err := SplitFile(path, maxBytes)
	if err != nil {
		return nil, err
	}

	var results []Result
	for i, part := range parts {
		partInfo, err := os.Stat(part)
		if err != nil {
			return nil, xerrors.New(err).Category(xerrors.CategoryFileIO).Component("upload").FileContext(part, 0).Build()
		}

		partCaption := fmt.Sprintf("%s (%d/%d)\n%s — %s", filepath.Base(path), i+1, len(parts), filepath.Base(part), humanize.Bytes(uint64(partInfo.Size())))
		if i == 0 && caption != "" {
			partCaption = caption + "\n\n" + partCaption
		}

		id, err := transport.Upload(ctx, chatID, part, partCaption, replyTo)
		if err != nil {
			return nil, xerrors.Wrap(err).Category(xerrors.CategoryUpload).Component("upload").
				FileContext(part, partInfo.Size()).Context("part_index", i).Build()
		}
		results = append(results, Result{MessageID: id, FileName: filepath.Base(part), Size: partInfo.Size()})

		if err := os.Remove(part); err != nil {
			logger.Warn("failed to remove uploaded split part", "path", part, "error", err)
		}
	}

	if dir := filepath.Dir(parts[0]); dir != filepath.Dir(path) {
		if err := os.Remove(dir); err != nil {
			logger.Warn("failed to remove split directory", "dir", dir, "error", err)
		}
	}

	return results, nil
}
