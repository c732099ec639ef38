package tools

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/f2lnk/f2lnk-go/internal/task"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

var audioFormatExt = map[task.AudioCodec]string{
	task.AudioMP3: ".mp3",
	task.AudioAAC: ".aac",
	task.AudioWAV: ".wav",
}

var audioFormatCodec = map[task.AudioCodec]string{
	task.AudioMP3: "libmp3lame",
	task.AudioAAC: "aac",
	task.AudioWAV: "pcm_s16le",
}

// extractAudio implements §4.F's Extract Audio tool: strips video,
// producing one output per input.
func extractAudio(ctx context.Context, t *task.Task, downloaded []task.Downloaded, sink StatusSink) ([]Output, error) {
	if len(downloaded) == 0 {
		return nil, xerrors.Newf("extract audio requires at least 1 input").
			Category(xerrors.CategoryValidation).Component("tools").Build()
	}

	codec := t.Config.ExtractAudio.Codec
	if codec == "" {
		codec = task.AudioMP3
	}

	stem := stemOf(t.OutputName)
	total := len(downloaded)
	var outputs []Output

	for i, d := range downloaded {
		if err := checkCancel(t); err != nil {
			return nil, err
		}
		sink(fmt.Sprintf("extracting audio %d/%d", i+1, total))

		var args []string
		var outName string
		if codec == task.AudioKeepOriginal {
			outName = numberedOutputFromStem(stem, ".aac", i, total)
			args = []string{"-y", "-i", d.Path, "-vn", "-c:a", "copy"}
		} else {
			ext := audioFormatExt[codec]
			outName = numberedOutputFromStem(stem, ext, i, total)
			args = []string{"-y", "-i", d.Path, "-vn", "-c:a", audioFormatCodec[codec]}
		}
		outPath := filepath.Join(t.WorkDir, outName)
		args = append(args, outPath)

		if err := runFFmpeg(ctx, t, "extract-audio", args); err != nil {
			return nil, err
		}
		outputs = append(outputs, Output{Path: outPath})
	}
	return outputs, nil
}

// extractVideo implements §4.F's Extract Video tool: strip all audio,
// stream-copy video.
func extractVideo(ctx context.Context, t *task.Task, downloaded []task.Downloaded, sink StatusSink) ([]Output, error) {
	if len(downloaded) == 0 {
		return nil, xerrors.Newf("extract video requires at least 1 input").
			Category(xerrors.CategoryValidation).Component("tools").Build()
	}

	total := len(downloaded)
	var outputs []Output
	for i, d := range downloaded {
		if err := checkCancel(t); err != nil {
			return nil, err
		}
		sink(fmt.Sprintf("extracting video %d/%d", i+1, total))

		outName := numberedOutput(forceExtension(t.OutputName, ".mp4"), i, total)
		outPath := filepath.Join(t.WorkDir, outName)
		args := []string{"-y", "-i", d.Path, "-an", "-c:v", "copy", outPath}
		if err := runFFmpeg(ctx, t, "extract-video", args); err != nil {
			return nil, err
		}
		outputs = append(outputs, Output{Path: outPath})
	}
	return outputs, nil
}

func stemOf(name string) string {
	return name[:len(name)-len(extOf(name))]
}

func numberedOutputFromStem(stem, ext string, i, total int) string {
	if total <= 1 {
		return stem + ext
	}
	return fmt.Sprintf("%s_%d%s", stem, i+1, ext)
}
