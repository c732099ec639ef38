// Package chatapi defines the contract between the Task Orchestration
// Engine and the chat transport. The transport itself (message
// send/edit/ask, media up/download primitives, callback buttons) is
// deliberately out of scope of this module; only its interface is
// specified here, the same way the teacher's internal/birdweather and
// internal/mqtt packages consume an externally-provided broker/endpoint
// through a narrow interface rather than embedding a client.
package chatapi

import (
	"context"
	"io"
	"time"
)

// MessageKind classifies the media a chat message carries, independent
// of file extension.
type MessageKind string

const (
	MediaVideo    MessageKind = "video"
	MediaAudio    MessageKind = "audio"
	MediaDocument MessageKind = "document"
	MediaPhoto    MessageKind = "photo"
	MediaNone     MessageKind = "none"
)

// Message is the transport-agnostic view of one chat message the File
// Scanner and Download Pool need.
type Message struct {
	ID       int64
	ChatID   int64
	AuthorID int64
	Kind     MessageKind
	FileName string
	FileSize int64
	URL      string // present for link-bearing text messages
}

// HasMedia reports whether the message carries downloadable media by
// semantic kind or a recognised file extension, per §4.C's scan filter.
func (m Message) HasMedia() bool {
	return m.Kind == MediaVideo || m.Kind == MediaAudio ||
		m.Kind == MediaDocument || m.Kind == MediaPhoto
}

// Button is one entry in an inline keyboard row presented to the user
// during Interactive Config.
type Button struct {
	Label string
	Data  string
}

// Transport is the full contract the engine requires from the chat
// platform. Implementations live outside this module; the engine never
// constructs one, only receives it at wiring time.
type Transport interface {
	// GetMessages returns messages in [chatID] with id >= fromID, up to
	// window items, ordered by ascending id. Missing ids are simply
	// absent from the result, not zero-valued.
	GetMessages(ctx context.Context, chatID, fromID int64, window int) ([]Message, error)

	// Download streams the media referenced by messageID to dst.
	Download(ctx context.Context, chatID, messageID int64, dst io.Writer) error

	// Upload sends a local file as a chat message. replyTo of 0 means no
	// anchor. Returns the new message's id.
	Upload(ctx context.Context, chatID int64, path, caption string, replyTo int64) (int64, error)

	// SendText posts a plain message, returning its id so callers can
	// retain it as a status-message handle.
	SendText(ctx context.Context, chatID int64, text string) (int64, error)

	// EditText updates a previously sent message's text in place, used
	// for progress updates against a single status message handle.
	EditText(ctx context.Context, chatID, messageID int64, text string) error

	// AskText prompts the user with text and waits for a reply within
	// timeout, returning the replied text. A timeout error is returned
	// as context.DeadlineExceeded.
	AskText(ctx context.Context, chatID, ownerID int64, prompt string, timeout time.Duration) (string, error)

	// AskButtons presents a closed set of inline options and waits for a
	// callback within timeout, returning the clicked button's Data.
	AskButtons(ctx context.Context, chatID, ownerID int64, prompt string, buttons [][]Button, timeout time.Duration) (string, error)
}
