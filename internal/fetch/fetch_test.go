package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCandidatesFindsVideoTag(t *testing.T) {
	body := []byte(`<html><body><video><source src="https://cdn.example/a.mp4"></source></video></body></html>`)
	got := extractCandidates(body)
	require.Len(t, got, 1)
	assert.Equal(t, "https://cdn.example/a.mp4", got[0])
}

func TestExtractCandidatesFallsBackToRegex(t *testing.T) {
	body := []byte(`<script>var player = {"file": "https://cdn.example/b.m3u8", "other": 1};</script>`)
	got := extractCandidates(body)
	require.Len(t, got, 1)
	assert.Equal(t, "https://cdn.example/b.m3u8", got[0])
}

func TestRankCandidatesPrefersMp4OverM3u8OverWebm(t *testing.T) {
	in := []string{"https://x/one.webm", "https://x/two.m3u8", "https://x/three.mp4"}
	got := rankCandidates(in)
	assert.Equal(t, []string{"https://x/three.mp4", "https://x/two.m3u8", "https://x/one.webm"}, got)
}

func TestFilenameFromURLDerivesBaseName(t *testing.T) {
	assert.Equal(t, "clip.mp4", filenameFromURL("https://cdn.example/path/clip.mp4?token=abc"))
}

func TestFilenameFromDispositionParsesAttachment(t *testing.T) {
	assert.Equal(t, "report.pdf", filenameFromDisposition(`attachment; filename="report.pdf"`))
	assert.Equal(t, "", filenameFromDisposition(""))
}

func TestTryDirectDownloadsNonHTMLResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Disposition", `attachment; filename="movie.mp4"`)
		w.Write([]byte("fake-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path, err := tryDirect(context.Background(), srv.URL, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "movie.mp4"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fake-bytes", string(data))
}

func TestTryDirectRejectsHTMLContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	_, err := tryDirect(context.Background(), srv.URL, t.TempDir())
	assert.Error(t, err)
}

func TestTryDirectRejectsOversizeContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Length", "9999999999999")
		w.Write([]byte("irrelevant"))
	}))
	defer srv.Close()

	_, err := tryDirect(context.Background(), srv.URL, t.TempDir())
	assert.Error(t, err)
}

func TestTryScrapeFindsAndDownloadsVideoTag(t *testing.T) {
	var mediaURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><video src="` + mediaURL + `"></video></body></html>`))
	})
	mux.HandleFunc("/clip.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("video-bytes"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mediaURL = srv.URL + "/clip.mp4"

	dir := t.TempDir()
	path, err := tryScrape(context.Background(), srv.URL+"/page", dir)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "video-bytes", string(data))
}

func TestTryScrapeReturnsErrorWhenNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>nothing here</body></html>`))
	}))
	defer srv.Close()

	_, err := tryScrape(context.Background(), srv.URL, t.TempDir())
	assert.Error(t, err)
}
