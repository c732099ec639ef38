package fetch

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

// tryDirect implements §4.G strategy 3: treat the URL itself as a file.
// It refuses to download a response whose content type is HTML, since
// that means the URL is a page rather than media and the earlier
// strategies have already done what can be done with a page.
func tryDirect(ctx context.Context, pageURL, destDir string) (string, error) {
	req, err := newRequest(ctx, "GET", pageURL, "")
	if err != nil {
		return "", err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", xerrors.Newf("direct: HTTP %d for %s", resp.StatusCode, pageURL).
			Category(xerrors.CategoryFetch).Component("fetch").Build()
	}
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") {
		return "", xerrors.Newf("direct: %s resolved to an HTML page, not media", pageURL).
			Category(xerrors.CategoryFetch).Component("fetch").Build()
	}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if size, err := strconv.ParseInt(cl, 10, 64); err == nil && size > maxFileBytes {
			return "", xerrors.Newf("direct: %s is %d bytes, over the upload ceiling", pageURL, size).
				Category(xerrors.CategoryLimit).Component("fetch").Build()
		}
	}

	name := filenameFromDisposition(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = filenameFromURL(pageURL)
	}
	return writeResponseBody(resp.Body, destDir, name)
}

// downloadDirect is the chunked-fetch leg used by the scrape strategy
// once it has already resolved a concrete media URL, so it always
// forwards the originating page as Referer.
func downloadDirect(ctx context.Context, mediaURL, referer, destDir string) (string, error) {
	req, err := newRequest(ctx, "GET", mediaURL, referer)
	if err != nil {
		return "", err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return "", xerrors.Newf("scrape candidate: HTTP %d for %s", resp.StatusCode, mediaURL).
			Category(xerrors.CategoryFetch).Component("fetch").Build()
	}
	return writeResponseBody(resp.Body, destDir, filenameFromURL(mediaURL))
}

func writeResponseBody(body io.Reader, destDir, name string) (string, error) {
	outPath := filepath.Join(destDir, name)
	f, err := os.Create(outPath)
	if err != nil {
		return "", xerrors.New(err).Category(xerrors.CategoryFileIO).Component("fetch").FileContext(outPath, 0).Build()
	}
	defer f.Close()

	written, err := io.Copy(f, io.LimitReader(body, maxFileBytes+1))
	if err != nil {
		return "", xerrors.New(err).Category(xerrors.CategoryFileIO).Component("fetch").FileContext(outPath, 0).Build()
	}
	if written == 0 {
		return "", xerrors.Newf("downloaded file is empty").Category(xerrors.CategoryFetch).Component("fetch").Build()
	}
	if written > maxFileBytes {
		os.Remove(outPath)
		return "", xerrors.Newf("downloaded file exceeds upload ceiling").Category(xerrors.CategoryLimit).Component("fetch").Build()
	}
	return outPath, nil
}

func filenameFromDisposition(cd string) string {
	if cd == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	return params["filename"]
}
