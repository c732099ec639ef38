package fetch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/f2lnk/f2lnk-go/internal/subproc"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

// ytdlpFormats is the download-strategy sequence from §4.G, tried in
// order against the same URL until one produces a non-empty file.
var ytdlpFormats = []string{
	"bv*+ba/b/best",
	"best/bv+ba",
	"best",
	"force-generic:best",
}

// tryYtDlp runs yt-dlp against pageURL, trying each format string in
// ytdlpFormats until one downloads something. yt-dlp's own extractor
// selection (including its generic extractor) decides whether the URL
// is playable at all; a non-zero exit or an empty output directory
// counts as "this strategy found nothing" rather than a hard error, so
// the caller can fall through to the scrape strategy.
func tryYtDlp(ctx context.Context, pageURL, destDir string) (string, error) {
	for _, format := range ytdlpFormats {
		args := []string{
			"--no-playlist",
			"--no-progress",
			"-o", filepath.Join(destDir, "%(title).200s.%(ext)s"),
		}
		if format == "force-generic:best" {
			args = append(args, "--force-generic-extractor", "-f", "best")
		} else {
			args = append(args, "-f", format)
		}
		args = append(args, pageURL)

		before := snapshotDir(destDir)
		res, err := subproc.Run(ctx, "yt-dlp", args, subproc.Options{})
		if err != nil || res.ExitCode != 0 {
			continue
		}
		if path, ok := newestNewFile(destDir, before); ok {
			return path, nil
		}
	}
	return "", xerrors.Newf("yt-dlp found no playable media for %s", pageURL).
		Category(xerrors.CategoryFetch).Component("fetch").Build()
}

// snapshotDir records the file names present in dir so a later call can
// detect which file yt-dlp just produced, since yt-dlp names its own
// output from the page's metadata rather than a path we choose.
func snapshotDir(dir string) map[string]bool {
	seen := map[string]bool{}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		seen[e.Name()] = true
	}
	return seen
}

func newestNewFile(dir string, before map[string]bool) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if before[e.Name()] || e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		return filepath.Join(dir, e.Name()), true
	}
	return "", false
}
