// Package scanner implements the File Scanner (§4.C): given a chat, an
// anchor message id, a filter user id, and a needed count, it returns
// up to that many media-bearing messages authored by that user,
// deduplicated and in ascending message-id order; fewer when the chat
// runs out of matches within the scan's iteration bound.
//
// Chats interleave bot replies with user files, so a naive contiguous
// read of N messages after the anchor misses files; the scanner widens
// its read window and repeats until satisfied or bounded out.
package scanner

import (
	"context"

	"github.com/f2lnk/f2lnk-go/internal/chatapi"
	"github.com/f2lnk/f2lnk-go/internal/logging"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

var logger = logging.ForService("scanner")

// windowMultiplier sets the per-iteration read window relative to the
// still-needed count, compensating for non-matching messages between
// the user's files.
const windowMultiplier = 4

// maxIterations bounds the scan so a sparse or stalled chat cannot spin
// the caller forever.
const maxIterations = 5

// Scan returns up to needed media messages authored by userID in
// chatID, starting at message id anchorID, in ascending id order. The
// result may be shorter than needed if the chat runs out of matching
// messages within maxIterations widenings.
func Scan(ctx context.Context, transport chatapi.Transport, chatID, anchorID, userID int64, needed int) ([]chatapi.Message, error) {
	if needed <= 0 {
		return nil, nil
	}

	var collected []chatapi.Message
	seen := make(map[int64]struct{})
	cursor := anchorID

	for iter := 0; iter < maxIterations && len(collected) < needed; iter++ {
		remaining := needed - len(collected)
		window := remaining * windowMultiplier

		msgs, err := transport.GetMessages(ctx, chatID, cursor, window)
		if err != nil {
			return nil, xerrors.New(err).
				Category(xerrors.CategoryFetch).
				Component("scanner").
				Context("chat_id", chatID).
				Context("anchor_id", cursor).
				Build()
		}
		if len(msgs) == 0 {
			break
		}

		for _, m := range msgs {
			if _, dup := seen[m.ID]; dup {
				continue
			}
			if m.AuthorID != userID {
				continue
			}
			if !m.HasMedia() {
				continue
			}
			seen[m.ID] = struct{}{}
			collected = append(collected, m)
			if len(collected) == needed {
				break
			}
		}

		// Advance past the highest id seen this round regardless of
		// whether it matched, so the window keeps moving forward.
		cursor = msgs[len(msgs)-1].ID + 1
	}

	logger.Debug("scan complete", "chat_id", chatID, "user_id", userID, "needed", needed, "found", len(collected))

	return collected, nil
}
