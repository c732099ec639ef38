package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/f2lnk/f2lnk-go/internal/task"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

// trimVideo implements §4.F's Trim tool: extract [start,end],
// stream-copy, run per input with _k suffixing when multiple inputs
// were supplied.
func trimVideo(ctx context.Context, t *task.Task, downloaded []task.Downloaded, sink StatusSink) ([]Output, error) {
	start, end := t.Config.TrimCut.Start, t.Config.TrimCut.End
	if end <= start {
		return nil, xerrors.Newf("trim requires end time after start time").
			Category(xerrors.CategoryValidation).Component("tools").Build()
	}

	var outputs []Output
	total := len(downloaded)
	for i, d := range downloaded {
		if err := checkCancel(t); err != nil {
			return nil, err
		}
		outName := numberedOutput(t.OutputName, i, total)
		outPath := filepath.Join(t.WorkDir, outName)
		sink(fmt.Sprintf("trimming %d/%d", i+1, total))

		args := []string{"-y", "-i", d.Path, "-ss", formatDuration(start), "-to", formatDuration(end), "-c", "copy", outPath}
		if err := runFFmpeg(ctx, t, "trim", args); err != nil {
			return nil, err
		}
		outputs = append(outputs, Output{Path: outPath})
	}
	return outputs, nil
}

// cutVideo implements §4.F's Cut tool: remove [start,end], keeping
// [0,start] and [end,EOF] stitched together via a three-step
// materialise-then-concat.
func cutVideo(ctx context.Context, t *task.Task, downloaded []task.Downloaded, sink StatusSink) ([]Output, error) {
	start, end := t.Config.TrimCut.Start, t.Config.TrimCut.End
	if end <= start {
		return nil, xerrors.Newf("cut requires end time after start time").
			Category(xerrors.CategoryValidation).Component("tools").Build()
	}

	var outputs []Output
	total := len(downloaded)
	for i, d := range downloaded {
		if err := checkCancel(t); err != nil {
			return nil, err
		}
		outName := numberedOutput(t.OutputName, i, total)
		outPath := filepath.Join(t.WorkDir, outName)
		sink(fmt.Sprintf("cutting %d/%d", i+1, total))

		ext := extOf(t.OutputName)
		partA := filepath.Join(t.WorkDir, fmt.Sprintf("cut_%d_partA%s", i, ext))
		partB := filepath.Join(t.WorkDir, fmt.Sprintf("cut_%d_partB%s", i, ext))

		if err := runFFmpeg(ctx, t, "cut-part-a", []string{"-y", "-i", d.Path, "-to", formatDuration(start), "-c", "copy", partA}); err != nil {
			return nil, err
		}
		if err := checkCancel(t); err != nil {
			return nil, err
		}
		if err := runFFmpeg(ctx, t, "cut-part-b", []string{"-y", "-i", d.Path, "-ss", formatDuration(end), "-c", "copy", partB}); err != nil {
			return nil, err
		}
		if err := checkCancel(t); err != nil {
			return nil, err
		}

		listPath, err := writeConcatFile(t.WorkDir, fmt.Sprintf("cut_%d_concat.txt", i), []string{partA, partB})
		if err != nil {
			return nil, err
		}
		if err := runFFmpeg(ctx, t, "cut-concat", []string{"-y", "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", outPath}); err != nil {
			return nil, err
		}

		for _, tmp := range []string{partA, partB, listPath} {
			_ = os.Remove(tmp)
		}

		outputs = append(outputs, Output{Path: outPath})
	}
	return outputs, nil
}

func formatDuration(d time.Duration) string {
	total := int64(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
