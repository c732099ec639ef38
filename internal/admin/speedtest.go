package admin

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

// SpeedtestResult is the report admin.py's speed_test command renders.
type SpeedtestResult struct {
	BytesTransferred int64
	Duration         time.Duration
	MbitsPerSecond   float64
}

// String renders the result the way admin.py formats its reply.
func (r SpeedtestResult) String() string {
	return "Server Speed Test Complete\n\nFile Size: " + humanize.Bytes(uint64(r.BytesTransferred)) +
		"\nTime Taken: " + r.Duration.Round(10 * time.Millisecond).String() +
		"\nSpeed: " + humanize.FtoaWithDigits(r.MbitsPerSecond, 2) + " Mbps"
}

// Speedtest downloads downloadURL and reports throughput, the same GET
//-and-measure shape as admin.py's speed_test (an aiohttp GET timed from
// first byte to EOF), using the standard library directly here rather
// than internal/fetch's strategies since those are built around writing
// a file to disk, not discarding bytes for a pure throughput measurement.
func Speedtest(ctx context.Context, downloadURL string) (SpeedtestResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return SpeedtestResult{}, xerrors.Wrap(err).Category(xerrors.CategoryFetch).Component("admin").Build()
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return SpeedtestResult{}, xerrors.Wrap(err).Category(xerrors.CategoryFetch).Component("admin").Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return SpeedtestResult{}, xerrors.Newf("speedtest: unexpected status %d from %s", resp.StatusCode, downloadURL).
			Category(xerrors.CategoryFetch).Component("admin").Build()
	}

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return SpeedtestResult{}, xerrors.Wrap(err).Category(xerrors.CategoryFetch).Component("admin").Build()
	}
	elapsed := time.Since(start)
	if elapsed <= 0 {
		return SpeedtestResult{BytesTransferred: n, Duration: elapsed}, nil
	}

	mbps := (float64(n) * 8) / elapsed.Seconds() / (1024 * 1024)
	return SpeedtestResult{BytesTransferred: n, Duration: elapsed, MbitsPerSecond: mbps}, nil
}
