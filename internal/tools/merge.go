package tools

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/f2lnk/f2lnk-go/internal/task"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

// concatVideoVideo implements §4.F's Video+Video concat: N videos of
// compatible codecs stream-copied into one container, order = input
// index.
func concatVideoVideo(ctx context.Context, t *task.Task, downloaded []task.Downloaded, sink StatusSink) ([]Output, error) {
	if len(downloaded) < 2 {
		return nil, xerrors.Newf("video+video merge requires at least 2 inputs, got %d", len(downloaded)).
			Category(xerrors.CategoryValidation).Component("tools").Build()
	}
	paths := make([]string, len(downloaded))
	for i, d := range downloaded {
		paths[i] = d.Path
	}

	listPath, err := writeConcatFile(t.WorkDir, "concat.txt", paths)
	if err != nil {
		return nil, err
	}

	sink("merging videos")
	outPath := filepath.Join(t.WorkDir, t.OutputName)
	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", outPath}
	if err := runFFmpeg(ctx, t, "vv-concat", args); err != nil {
		return nil, err
	}
	return []Output{{Path: outPath}}, nil
}

// muxVideoAudio implements §4.F's Video+Audio mux: exactly one video
// input plus one or more audio inputs, each uploaded audio becoming a
// separate selectable stream, forced into a container (mkv) that
// supports independent multi-audio streams.
func muxVideoAudio(ctx context.Context, t *task.Task, downloaded []task.Downloaded, sink StatusSink) ([]Output, error) {
	s := splitByKind(downloaded)
	if len(s.videos) == 0 {
		return nil, xerrors.Newf("video+audio merge requires exactly 1 video, got 0").
			Category(xerrors.CategoryValidation).Component("tools").Build()
	}
	if len(s.videos) > 1 {
		return nil, xerrors.Newf("video+audio merge requires exactly 1 video, got %d", len(s.videos)).
			Category(xerrors.CategoryValidation).Component("tools").Build()
	}
	if len(s.audios) == 0 {
		return nil, xerrors.Newf("video+audio merge requires at least 1 audio input").
			Category(xerrors.CategoryValidation).Component("tools").Build()
	}

	sink("merging video with audio tracks")

	args := []string{"-y", "-i", s.videos[0].Path}
	for _, a := range s.audios {
		args = append(args, "-i", a.Path)
	}
	args = append(args, "-map", "0:v")
	if t.Config.Merge.AudioMode == task.MergeKeepOriginalAudio {
		args = append(args, "-map", "0:a?")
	}
	for i := range s.audios {
		args = append(args, "-map", strconv.Itoa(i+1)+":a")
	}
	args = append(args, "-c", "copy")

	outName := forceExtension(t.OutputName, ".mkv")
	outPath := filepath.Join(t.WorkDir, outName)
	args = append(args, outPath)

	if err := runFFmpeg(ctx, t, "va-mux", args); err != nil {
		return nil, err
	}
	return []Output{{Path: outPath}}, nil
}

// concatAudioAudio implements §4.F's Audio+Audio concat. Output
// extension defaults to mp3 when the task's output name still carries
// a video extension (the caller never changed it from the kind's
// default .mp4 normalisation).
func concatAudioAudio(ctx context.Context, t *task.Task, downloaded []task.Downloaded, sink StatusSink) ([]Output, error) {
	s := splitByKind(downloaded)
	if len(s.videos) > 0 {
		return nil, xerrors.Newf("audio+audio merge requires only audio inputs, found %d video(s)", len(s.videos)).
			Category(xerrors.CategoryValidation).Component("tools").Build()
	}

	paths := make([]string, len(downloaded))
	for i, d := range downloaded {
		paths[i] = d.Path
	}
	listPath, err := writeConcatFile(t.WorkDir, "concat.txt", paths)
	if err != nil {
		return nil, err
	}

	sink("merging audio tracks")

	outName := t.OutputName
	if extOf(outName) == ".mp4" {
		outName = forceExtension(outName, ".mp3")
	}
	outPath := filepath.Join(t.WorkDir, outName)
	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", outPath}
	if err := runFFmpeg(ctx, t, "aa-concat", args); err != nil {
		return nil, err
	}
	return []Output{{Path: outPath}}, nil
}

// muxVideoSubtitle implements §4.F's Video+Subtitle tool. BurnIn
// selects mode 1 (re-encode, burn the chosen subtitle); the soft mode
// adds every subtitle input as a selectable stream.
func muxVideoSubtitle(ctx context.Context, t *task.Task, downloaded []task.Downloaded, sink StatusSink) ([]Output, error) {
	s := splitByKind(downloaded)
	if len(s.videos) != 1 {
		return nil, xerrors.Newf("video+subtitle merge requires exactly 1 video, got %d", len(s.videos)).
			Category(xerrors.CategoryValidation).Component("tools").Build()
	}
	if len(s.subtitles) == 0 {
		return nil, xerrors.Newf("video+subtitle merge requires at least 1 subtitle input").
			Category(xerrors.CategoryValidation).Component("tools").Build()
	}

	videoPath := s.videos[0].Path

	if t.Config.Subtitle.BurnIn {
		idx := t.Config.Subtitle.ChosenIndex
		if idx < 0 || idx >= len(s.subtitles) {
			idx = 0
		}
		subPath := escapeFilterPath(s.subtitles[idx].Path)

		sink("burning subtitle into video")
		outPath := filepath.Join(t.WorkDir, forceExtension(t.OutputName, ".mp4"))
		args := []string{"-y", "-i", videoPath, "-vf", "subtitles=" + subPath, "-c:a", "copy", outPath}
		if err := runFFmpeg(ctx, t, "vs-hardsub", args); err != nil {
			return nil, err
		}
		return []Output{{Path: outPath}}, nil
	}

	sink("adding subtitles as soft streams")
	args := []string{"-y", "-i", videoPath}
	for _, sub := range s.subtitles {
		args = append(args, "-i", sub.Path)
	}
	args = append(args, "-c:v", "copy", "-c:a", "copy", "-c:s", "srt", "-map", "0:v", "-map", "0:a?")
	for i := range s.subtitles {
		args = append(args, "-map", strconv.Itoa(i+1)+":s")
	}
	outPath := filepath.Join(t.WorkDir, forceExtension(t.OutputName, ".mkv"))
	args = append(args, outPath)
	if err := runFFmpeg(ctx, t, "vs-softsub", args); err != nil {
		return nil, err
	}
	return []Output{{Path: outPath}}, nil
}

func forceExtension(name, ext string) string {
	base := name[:len(name)-len(extOf(name))]
	return base + ext
}

// escapeFilterPath survives the ffmpeg filtergraph argument layer,
// where a bare colon in a Windows-style or config-escaped path would
// otherwise be parsed as a filter option separator.
func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.ReplaceAll(p, ":", `\:`)
	return p
}
