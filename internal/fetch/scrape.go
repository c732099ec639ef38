package fetch

import (
	"context"
	"io"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

// mediaPatterns scans the raw page body for common embed conventions
// when the DOM walk below finds no <video>/<source> tag, in the order
// they're tried.
var mediaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"file"\s*:\s*"([^"]+\.(?:mp4|m3u8|mkv|webm)[^"]*)"`),
	regexp.MustCompile(`"src"\s*:\s*"([^"]+\.(?:mp4|m3u8|mkv|webm)[^"]*)"`),
	regexp.MustCompile(`"url"\s*:\s*"([^"]+\.(?:mp4|m3u8|mkv|webm)[^"]*)"`),
	regexp.MustCompile(`"source"\s*:\s*"([^"]+\.(?:mp4|m3u8|mkv|webm)[^"]*)"`),
	regexp.MustCompile(`"video_url"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`"stream_url"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`"hls"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`<meta[^>]+property=["']og:video["'][^>]+content=["']([^"']+)["']`),
	regexp.MustCompile(`https?://[^\s"'<>]+\.(?:mp4|mkv|webm|m3u8)[^\s"'<>]*`),
}

const maxScrapeCandidates = 5

// tryScrape implements §4.G strategy 2: fetch pageURL with browser
// headers and the page itself as Referer, collect every media
// candidate it can find, rank by extension preference, and attempt the
// top few in order.
func tryScrape(ctx context.Context, pageURL, destDir string) (string, error) {
	req, err := newRequest(ctx, "GET", pageURL, pageURL)
	if err != nil {
		return "", err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return "", xerrors.Newf("scrape: HTTP %d for %s", resp.StatusCode, pageURL).
			Category(xerrors.CategoryFetch).Component("fetch").Build()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return "", err
	}

	candidates := rankCandidates(extractCandidates(body))
	if len(candidates) == 0 {
		return "", xerrors.Newf("scrape: no media candidates found on %s", pageURL).
			Category(xerrors.CategoryFetch).Component("fetch").Build()
	}
	if len(candidates) > maxScrapeCandidates {
		candidates = candidates[:maxScrapeCandidates]
	}

	for _, c := range candidates {
		resolved := resolveURL(pageURL, c)
		var (
			outPath string
			err     error
		)
		if strings.Contains(resolved, ".m3u8") {
			outPath, err = transcodeHLS(ctx, resolved, pageURL, destDir)
		} else {
			outPath, err = downloadDirect(ctx, resolved, pageURL, destDir)
		}
		if err == nil {
			return outPath, nil
		}
		logger.Debug("scrape candidate failed", "candidate", resolved, "error", err)
	}
	return "", xerrors.Newf("scrape: all %d candidates failed for %s", len(candidates), pageURL).
		Category(xerrors.CategoryFetch).Component("fetch").Build()
}

// extractCandidates walks the parsed DOM for <video>/<source> src
// attributes first, then falls back to regexing the raw body for the
// JSON-embed and og:video conventions sites commonly use instead.
func extractCandidates(body []byte) []string {
	var out []string

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err == nil {
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.ElementNode && (n.Data == "video" || n.Data == "source") {
				for _, a := range n.Attr {
					if a.Key == "src" && a.Val != "" {
						out = append(out, a.Val)
					}
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(doc)
	}

	if len(out) > 0 {
		return out
	}

	seen := make(map[string]bool)
	for _, pattern := range mediaPatterns {
		if m := pattern.FindStringSubmatch(string(body)); m != nil {
			candidate := m[0]
			if len(m) > 1 {
				candidate = m[1]
			}
			if !seen[candidate] {
				seen[candidate] = true
				out = append(out, candidate)
			}
		}
	}
	return out
}

// rankCandidates sorts by extension preference (.mp4, then .m3u8, then
// .webm, then anything else) while keeping stable relative order
// within each bucket.
func rankCandidates(raw []string) []string {
	rank := func(s string) int {
		switch {
		case strings.Contains(s, ".mp4"):
			return 0
		case strings.Contains(s, ".m3u8"):
			return 1
		case strings.Contains(s, ".webm"):
			return 2
		default:
			return 3
		}
	}
	sort.SliceStable(raw, func(i, j int) bool { return rank(raw[i]) < rank(raw[j]) })
	return raw
}

func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func filenameFromURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return "media"
	}
	base := path.Base(parsed.Path)
	if base == "" || base == "." || base == "/" {
		return "media"
	}
	return base
}
