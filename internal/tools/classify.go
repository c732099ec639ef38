package tools

import (
	"strings"

	"github.com/f2lnk/f2lnk-go/internal/task"
)

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mkv": {}, ".avi": {}, ".webm": {}, ".mov": {}, ".flv": {}, ".ts": {}, ".m4v": {},
}

var audioExtensions = map[string]struct{}{
	".mp3": {}, ".aac": {}, ".ogg": {}, ".flac": {}, ".wav": {}, ".m4a": {}, ".opus": {},
}

var subtitleExtensions = map[string]struct{}{
	".srt": {}, ".ass": {}, ".ssa": {}, ".vtt": {},
}

// classify buckets a downloaded path as "video", "audio", "subtitle",
// or "unknown" purely from its extension, mirroring the original's
// file-extension fallback path (the message-semantic check lives in
// chatapi.Message.Kind and is applied before a file ever reaches here).
func classify(path string) string {
	ext := strings.ToLower(extOf(path))
	if _, ok := videoExtensions[ext]; ok {
		return "video"
	}
	if _, ok := audioExtensions[ext]; ok {
		return "audio"
	}
	if _, ok := subtitleExtensions[ext]; ok {
		return "subtitle"
	}
	return "unknown"
}

type splitFiles struct {
	videos    []task.Downloaded
	audios    []task.Downloaded
	subtitles []task.Downloaded
	unknowns  []task.Downloaded
}

// splitByKind buckets downloaded inputs by classify, preserving each
// bucket's relative input-index order.
func splitByKind(downloaded []task.Downloaded) splitFiles {
	var s splitFiles
	for _, d := range downloaded {
		switch classify(d.Path) {
		case "video":
			s.videos = append(s.videos, d)
		case "audio":
			s.audios = append(s.audios, d)
		case "subtitle":
			s.subtitles = append(s.subtitles, d)
		default:
			s.unknowns = append(s.unknowns, d)
		}
	}
	return s
}
