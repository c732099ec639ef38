package fetch

import (
	"context"
	"time"

	"github.com/f2lnk/f2lnk-go/internal/torrentrpc"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

// Torrent submits payload (a magnet link or raw .torrent bytes) to
// client, polls it to a terminal state at torrentrpc.PollInterval, and
// returns the files it produced. A terminal error state (or an error
// state the RPC reports mid-poll) fails the whole operation, since §4.G
// lists torrent error states as non-recoverable from this adapter's
// point of view.
func Torrent(ctx context.Context, client torrentrpc.Client, payload []byte, isMagnet bool) ([]string, error) {
	jobID, err := client.Submit(ctx, payload, isMagnet)
	if err != nil {
		return nil, xerrors.Wrap(err).Category(xerrors.CategoryIntegration).Component("fetch").Build()
	}

	ticker := time.NewTicker(torrentrpc.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			status, err := client.Poll(ctx, jobID)
			if err != nil {
				return nil, xerrors.Wrap(err).Category(xerrors.CategoryIntegration).Component("fetch").
					Context("job_id", jobID).Build()
			}
			if !status.IsTerminal() {
				continue
			}
			if !status.IsSuccess() {
				return nil, xerrors.Newf("torrent job %s failed: %s", jobID, status.Error).
					Category(xerrors.CategoryFetch).Component("fetch").Build()
			}
			if len(status.Files) == 0 {
				return nil, xerrors.Newf("torrent job %s completed with no files", jobID).
					Category(xerrors.CategoryFetch).Component("fetch").Build()
			}
			return status.Files, nil
		}
	}
}
