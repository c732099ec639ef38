package tools

import (
	"context"

	"github.com/f2lnk/f2lnk-go/internal/subproc"
	"github.com/f2lnk/f2lnk-go/internal/task"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

// runFFmpeg invokes ffmpeg with args, registering the subprocess with t
// so a mid-run cancellation kills it immediately, and wraps a non-zero
// exit with the recipe name for easier triage.
func runFFmpeg(ctx context.Context, t *task.Task, recipe string, args []string) error {
	proc, resultCh := subproc.RunAsync(ctx, "ffmpeg", args, subproc.Options{})
	t.RegisterChild(proc)

	res, err := (<-resultCh).Get()
	if err != nil {
		return xerrors.Wrap(err).
			Category(xerrors.CategorySubprocess).
			Component("tools").
			Context("recipe", recipe).
			Context("task_id", t.ID).
			Build()
	}
	_ = res
	return nil
}

// probeJSON runs ffprobe in JSON format/streams mode, used by the
// target-size compress mode to read duration and audio bitrate.
func probeJSON(ctx context.Context, path string) ([]byte, error) {
	res, err := subproc.Probe(ctx, "ffprobe", "-v", "error", "-show_format", "-show_streams", "-print_format", "json", path)
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}
