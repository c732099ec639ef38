// Package torrentrpc defines the contract against the external torrent
// client daemon consumed via its remote control protocol. The daemon
// itself is out of scope; this module only submits jobs and polls them,
// the way the teacher's internal/birdweather package only calls a
// remote HTTP API without owning the service on the other end.
package torrentrpc

import (
	"context"
	"time"
)

// State is a torrent's lifecycle state as reported by the daemon.
type State string

const (
	StateDownloading State = "downloading"
	StateSeeding      State = "uploading"
	StatePausedUp     State = "paused-up"
	StateError        State = "error"
	StateStalled      State = "stalled"
)

// IsTerminal reports whether a further poll would not change the
// outcome: either the transfer is done and ready to harvest (Seeding or
// PausedUp), or it has failed.
func (s State) IsTerminal() bool {
	switch s {
	case StateSeeding, StatePausedUp, StateError:
		return true
	default:
		return false
	}
}

// IsSuccess reports whether a terminal state represents a completed
// download rather than a failure.
func (s State) IsSuccess() bool {
	return s == StateSeeding || s == StatePausedUp
}

// Status is one poll's result for a submitted job.
type Status struct {
	State    State
	Progress float64 // 0..1
	Files    []string
	Error    string
}

// Client is the contract the Fetcher's torrent adapter requires.
type Client interface {
	// Submit hands a magnet URI or raw .torrent payload to the daemon
	// and returns a daemon-assigned job id.
	Submit(ctx context.Context, magnetOrPayload []byte, isMagnet bool) (jobID string, err error)

	// Poll returns the current status of jobID.
	Poll(ctx context.Context, jobID string) (Status, error)

	// Remove tells the daemon to forget jobID, optionally deleting its
	// downloaded data (used on task cancellation).
	Remove(ctx context.Context, jobID string, deleteData bool) error
}

// PollInterval is the Fetcher's torrent adapter poll cadence (§4.G).
const PollInterval = 5 * time.Second
