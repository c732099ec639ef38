package fetch

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/f2lnk/f2lnk-go/internal/subproc"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

// transcodeHLS re-encodes an m3u8 playlist into a single mp4 via
// ffmpeg, forwarding browser-like headers and the originating page as
// Referer so CDN-gated streams don't reject the request. Re-encoding
// (rather than a stream copy) smooths over the timestamp
// discontinuities common in scraped HLS playlists.
func transcodeHLS(ctx context.Context, streamURL, referer, destDir string) (string, error) {
	outPath := filepath.Join(destDir, "stream.mp4")
	headers := strings.Join([]string{
		"User-Agent: " + browserUserAgent,
		"Referer: " + referer,
	}, "\r\n") + "\r\n"

	args := []string{
		"-y",
		"-headers", headers,
		"-i", streamURL,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-b:a", "128k",
		"-crf", "23",
		"-movflags", "+faststart",
		outPath,
	}

	res, err := subproc.Run(ctx, "ffmpeg", args, subproc.Options{})
	if err != nil {
		tail := ""
		if res != nil {
			tail = string(res.Stderr)
		}
		return "", xerrors.Wrap(err).Category(xerrors.CategoryFetch).Component("fetch").
			Context("stream_url", streamURL).Context("stderr_tail", tail).Build()
	}
	return outPath, nil
}
