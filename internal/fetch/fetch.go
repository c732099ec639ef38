// Package fetch implements §4.G's universal URL ingester: given a page
// URL it tries, in order, a yt-dlp extraction, an HTML scrape of the
// page for embedded media, then a direct HTTP fetch of the URL itself.
// The first strategy to yield a non-empty file wins; earlier strategies
// failing or finding nothing is not itself an error, only the final one
// running out of options is.
package fetch

import (
	"context"
	"net/http"

	"github.com/f2lnk/f2lnk-go/internal/logging"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

var logger = logging.ForService("fetch")

// browserUserAgent is forwarded on every scrape/direct request so sites
// that gate on User-Agent don't bounce the fetcher to a block page.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// httpClient is shared across strategies; no per-request timeout is set
// here since large media bodies are streamed under the caller's ctx.
var httpClient = &http.Client{}

// maxFileBytes mirrors the platform's single-file upload ceiling; a
// candidate whose Content-Length exceeds it is skipped before any bytes
// are pulled, matching the reference bot's pre-download size check.
const maxFileBytes = int64(1_950_000_000)

// URL runs the three-strategy fallback against pageURL, writing the
// winning candidate into destDir and returning its path.
func URL(ctx context.Context, pageURL, destDir string) (string, error) {
	if path, err := tryYtDlp(ctx, pageURL, destDir); err == nil {
		logger.Debug("fetch succeeded via yt-dlp", "url", pageURL)
		return path, nil
	} else {
		logger.Debug("yt-dlp strategy yielded nothing, falling back to scrape", "url", pageURL, "error", err)
	}

	if path, err := tryScrape(ctx, pageURL, destDir); err == nil {
		logger.Debug("fetch succeeded via html scrape", "url", pageURL)
		return path, nil
	} else {
		logger.Debug("scrape strategy yielded nothing, falling back to direct http", "url", pageURL, "error", err)
	}

	path, err := tryDirect(ctx, pageURL, destDir)
	if err != nil {
		return "", xerrors.Wrap(err).
			Category(xerrors.CategoryFetch).
			Component("fetch").
			Context("url", pageURL).
			Build()
	}
	logger.Debug("fetch succeeded via direct http", "url", pageURL)
	return path, nil
}

func newRequest(ctx context.Context, method, url, referer string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	return req, nil
}
