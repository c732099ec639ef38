// Package tools implements Tool Dispatch (§4.F): a table of ~10
// ffmpeg/7z/mediainfo recipes, each taking a task, its downloaded
// inputs, and a status sink, and producing one or more output files in
// the task's work_dir. Every recipe honours the task's cancel signal
// between subprocess invocations.
package tools

import (
	"context"
	"fmt"

	"github.com/f2lnk/f2lnk-go/internal/logging"
	"github.com/f2lnk/f2lnk-go/internal/task"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

var logger = logging.ForService("tools")

// StatusSink receives human-readable progress updates during a recipe's
// run, typically wired to chatapi.Transport.EditText against the
// task's status message handle.
type StatusSink func(text string)

// Output is one produced artifact, named for upload.
type Output struct {
	Path string
}

// Recipe processes a task's downloaded inputs into one or more Outputs.
type Recipe func(ctx context.Context, t *task.Task, downloaded []task.Downloaded, sink StatusSink) ([]Output, error)

// Dispatch routes t to the recipe matching its Kind, and for KindLeech
// and KindVt, its Config.Tool tag.
func Dispatch(ctx context.Context, t *task.Task, downloaded []task.Downloaded, sink StatusSink) ([]Output, error) {
	recipe, ok := recipeFor(t)
	if !ok {
		return nil, xerrors.Newf("tools: no recipe for kind %s tool %s", t.Kind, t.Config.Tool).
			Category(xerrors.CategoryTask).
			Component("tools").
			Build()
	}
	return recipe(ctx, t, downloaded, sink)
}

func recipeFor(t *task.Task) (Recipe, bool) {
	switch t.Kind {
	case task.KindZip:
		return zipRecipe, true
	case task.KindUnzip:
		return unzipRecipe, true
	case task.KindMediaInfo:
		return mediaInfoRecipe, true
	case task.KindLeech, task.KindVt:
		switch t.Config.Tool {
		case task.ToolVideoVideo:
			return concatVideoVideo, true
		case task.ToolVideoAudio:
			return muxVideoAudio, true
		case task.ToolAudioAudio:
			return concatAudioAudio, true
		case task.ToolVideoSubtitle:
			return muxVideoSubtitle, true
		case task.ToolCompress:
			return compressVideo, true
		case task.ToolWatermark:
			return watermarkVideo, true
		case task.ToolTrim:
			return trimVideo, true
		case task.ToolCut:
			return cutVideo, true
		case task.ToolRemoveAudio:
			return extractVideo, true
		case task.ToolExtractAudio:
			return extractAudio, true
		}
	}
	return nil, false
}

// numberedOutput returns the task's output name, suffixed with _k when
// more than one output is being produced from a single task, per §4.F's
// count-mismatch edge-case rule.
func numberedOutput(base string, i, total int) string {
	if total <= 1 {
		return base
	}
	ext := extOf(base)
	stem := base[:len(base)-len(ext)]
	return fmt.Sprintf("%s_%d%s", stem, i+1, ext)
}

func extOf(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i:]
		}
		if name[i] == '/' {
			break
		}
	}
	return ""
}

// checkCancel returns the task's context error if it has been
// cancelled, so recipes can bail out between ffmpeg invocations.
func checkCancel(t *task.Task) error {
	select {
	case <-t.Context().Done():
		return t.Context().Err()
	default:
		return nil
	}
}
