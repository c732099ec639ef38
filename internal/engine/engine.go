// Package engine wires the previously independent stage packages
// (dialog, download, tools, upload) plus the quota gate and chat
// transport into the single pipeline a Task rides from collection
// through upload, mirroring the way bot.py's handlers call into each
// plugin module in sequence rather than each plugin driving itself.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/f2lnk/f2lnk-go/internal/admin"
	"github.com/f2lnk/f2lnk-go/internal/chatapi"
	"github.com/f2lnk/f2lnk-go/internal/dialog"
	"github.com/f2lnk/f2lnk-go/internal/download"
	"github.com/f2lnk/f2lnk-go/internal/logging"
	"github.com/f2lnk/f2lnk-go/internal/notify"
	"github.com/f2lnk/f2lnk-go/internal/quota"
	"github.com/f2lnk/f2lnk-go/internal/task"
	"github.com/f2lnk/f2lnk-go/internal/tools"
	"github.com/f2lnk/f2lnk-go/internal/torrentrpc"
	"github.com/f2lnk/f2lnk-go/internal/tweetapi"
	"github.com/f2lnk/f2lnk-go/internal/upload"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

var logger = logging.ForService("engine")

// Toucher is the idle-clock reset hook, satisfied by *watchdog.Watchdog
// and held in Engine.Watchdog. No command handler or download path in
// this package calls it, so the engine never resets the idle clock.
type Toucher interface {
	Touch()
}

// Engine owns the collaborators a task's pipeline run needs and exposes
// RunTask as the single entry point that drives a task from Configure
// through Upload. Collection (turning a command plus a reply-scan into
// a registered Task with Inputs) happens in the command handlers in
// commands.go, which call RunTask once a Task is built.
type Engine struct {
	Registry   *task.Registry
	Transport  chatapi.Transport
	Gate       *quota.Gate
	Pool       *download.Pool
	Admin      *admin.Admin
	Dispatcher *notify.Dispatcher
	Watchdog   Toucher
	IsOwner    func(userID int64) bool

	TorrentClient torrentrpc.Client
	TweetClient   tweetapi.Client
}

// New builds an Engine from its collaborators. Watchdog, Admin, and
// Dispatcher may be nil in tests that don't exercise those paths.
func New(registry *task.Registry, transport chatapi.Transport, gate *quota.Gate, pool *download.Pool) *Engine {
	return &Engine{Registry: registry, Transport: transport, Gate: gate, Pool: pool}
}

// RunTask drives t through Configure, Download, Process, and Upload in
// order, advancing the Registry at each boundary and failing the task
// on the first error. Collection (stage Collect) must already be done
// by the caller: t.Inputs populated and t registered. RunTask returns
// only once the task has reached a terminal stage; callers typically
// invoke it in its own goroutine per task.
func (e *Engine) RunTask(ctx context.Context, t *task.Task) error {
	if err := os.MkdirAll(t.WorkDir, 0o755); err != nil {
		return e.fail(t, xerrors.New(err).Category(xerrors.CategoryFileIO).Component("engine").Build())
	}

	if needsDialog(t.Kind) {
		e.Registry.Advance(t, task.StageConfigure)
		if err := dialog.Run(ctx, e.Transport, t, dialog.BuildSteps); err != nil {
			return e.fail(t, err)
		}
	} else {
		presetTool(t)
		e.Registry.Advance(t, task.StageConfigure)
	}

	e.Registry.Advance(t, task.StageDownload)
	downloaded, err := e.download(ctx, t)
	if err != nil {
		return e.fail(t, err)
	}
	t.Downloaded = downloaded

	e.Registry.Advance(t, task.StageProcess)
	sink := func(text string) {
		if t.StatusMessageHandle == 0 {
			return
		}
		if err := e.Transport.EditText(ctx, t.Chat, t.StatusMessageHandle, text); err != nil {
			logger.Debug("engine: status update failed", "task_id", t.ID, "error", err)
		}
	}
	outputs, err := e.process(ctx, t, downloaded, sink)
	if err != nil {
		return e.fail(t, err)
	}

	e.Registry.Advance(t, task.StageUpload)
	if err := e.upload(ctx, t, outputs); err != nil {
		return e.fail(t, err)
	}

	e.Registry.Advance(t, task.StageCompleted)
	return nil
}

// fail routes a stage error to its terminal stage: a cancellation
// signal (the task's own context, or the caller's ctx, observed as
// context.Canceled at a suspension point) drives Cancelling -> Cancelled
// with a cancellation notice; anything else is a genuine failure.
func (e *Engine) fail(t *task.Task, err error) error {
	if errors.Is(err, context.Canceled) {
		return e.cancelled(t, err)
	}

	e.Registry.Fail(t, err)
	if e.Transport != nil {
		msg := fmt.Sprintf("Task `%s` failed: %v", t.ID, err)
		if _, sendErr := e.Transport.SendText(context.Background(), t.Chat, msg); sendErr != nil {
			logger.Warn("engine: failed to notify chat of task failure", "task_id", t.ID, "error", sendErr)
		}
	}
	return err
}

// cancelled transitions t to Cancelled (from Cancelling, or from
// whatever stage it was in if the cancel signal arrived ahead of
// HandleCancel's own Advance) and tells the chat the task was
// cancelled rather than that it failed.
func (e *Engine) cancelled(t *task.Task, err error) error {
	e.Registry.Advance(t, task.StageCancelled)
	if e.Transport != nil {
		msg := fmt.Sprintf("Task `%s` cancelled.", t.ID)
		if _, sendErr := e.Transport.SendText(context.Background(), t.Chat, msg); sendErr != nil {
			logger.Warn("engine: failed to notify chat of task cancellation", "task_id", t.ID, "error", sendErr)
		}
	}
	return err
}

// download bypasses the staggered Download Pool for the two kinds whose
// fetch strategy (torrentrpc, the tweet media proxy) natively produces
// several files from a single submitted job rather than one file per
// task.Input; every other kind routes through e.Pool keyed by each
// Input's own fetch strategy.
func (e *Engine) download(ctx context.Context, t *task.Task) ([]task.Downloaded, error) {
	switch t.Kind {
	case task.KindQbl:
		return e.downloadTorrent(ctx, t)
	case task.KindTwitter:
		return e.downloadTweet(ctx, t)
	default:
		return e.Pool.Run(ctx, t, e.fetchFor(t))
	}
}

func (e *Engine) process(ctx context.Context, t *task.Task, downloaded []task.Downloaded, sink tools.StatusSink) ([]tools.Output, error) {
	switch t.Kind {
	case task.KindTwitter, task.KindURLUpload, task.KindJl, task.KindQbl:
		// These kinds upload exactly what was fetched; no ffmpeg/7z
		// recipe applies, matching the reference bot sending leeched
		// files straight back without a processing step.
		outputs := make([]tools.Output, len(downloaded))
		for i, d := range downloaded {
			outputs[i] = tools.Output{Path: d.Path}
		}
		return outputs, nil
	default:
		return tools.Dispatch(ctx, t, downloaded, sink)
	}
}

func (e *Engine) upload(ctx context.Context, t *task.Task, outputs []tools.Output) error {
	for i, out := range outputs {
		info, err := os.Stat(out.Path)
		if err != nil {
			return xerrors.New(err).Category(xerrors.CategoryFileIO).Component("engine").FileContext(out.Path, 0).Build()
		}

		if e.Gate != nil {
			decision, err := e.Gate.Admit(ctx, t.Owner, info.Size())
			if err != nil {
				return err
			}
			if !decision.Allowed {
				return xerrors.Newf("quota exceeded: %s", decision.Reason).
					Category(xerrors.CategoryQuota).Component("engine").Context("task_id", t.ID).Build()
			}
		}

		caption := e.applyFooter(ctx, t.Owner, captionFor(t, i, len(outputs)))
		if _, err := upload.File(ctx, e.Transport, t.Chat, out.Path, caption, 0); err != nil {
			return err
		}

		if e.Gate != nil {
			if err := e.Gate.Commit(ctx, t.Owner, info.Size()); err != nil {
				logger.Warn("engine: quota commit failed", "task_id", t.ID, "owner", t.Owner, "error", err)
			}
		}
	}
	return nil
}

func captionFor(t *task.Task, index, total int) string {
	if total <= 1 {
		return t.OutputName
	}
	return fmt.Sprintf("%s (%d/%d)", t.OutputName, index+1, total)
}

// needsDialog reports whether a kind's Config must be filled in via
// Interactive Config before processing can run. Leech and Vt are the
// only kinds whose processing recipe is user-selected; the rest have a
// single, fixed recipe per kind.
func needsDialog(k task.Kind) bool {
	return k == task.KindLeech || k == task.KindVt
}

// presetTool fills in the Config.Tool a non-dialog kind's single fixed
// recipe needs, since internal/tools.recipeFor switches on it directly
// for zip/unzip/mediainfo the same way it does for Leech's
// dialog-selected tools.
func presetTool(t *task.Task) {
	switch t.Kind {
	case task.KindZip:
		t.Config.Tool = task.ToolZip
	case task.KindUnzip:
		t.Config.Tool = task.ToolUnzip
	case task.KindMediaInfo:
		t.Config.Tool = task.ToolMediaInfo
	}
}
