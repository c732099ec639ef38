package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/f2lnk/f2lnk-go/internal/scanner"
	"github.com/f2lnk/f2lnk-go/internal/task"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

// Collect implements stage Collect for the reply-scan kinds (§4.C):
// given the message a user replied to with a command, it widens a scan
// from that anchor for requestedCount media files authored by the same
// user, builds a task rooted at tasksRoot, and registers it. The
// returned task still needs Configure run via RunTask; Collect only
// gets it from "nothing" to a registered task with Inputs populated.
func (e *Engine) Collect(ctx context.Context, chatID, ownerID, anchorID int64, kind task.Kind, requestedCount int, outputName, tasksRoot string) (*task.Task, error) {
	msgs, err := scanner.Scan(ctx, e.Transport, chatID, anchorID, ownerID, requestedCount)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, xerrors.Newf("no matching media found starting from message %d", anchorID).
			Category(xerrors.CategoryValidation).Component("engine").Build()
	}

	id, err := e.Registry.NewID()
	if err != nil {
		return nil, xerrors.Wrap(err).Category(xerrors.CategoryTask).Component("engine").Build()
	}

	t := task.New(id, ownerID, chatID, kind, outputName, tasksRoot)
	t.RequestedCount = requestedCount
	t.Inputs = make([]task.Input, len(msgs))
	for i, m := range msgs {
		t.Inputs[i] = task.Input{Index: i, Kind: task.InputMessage, MessageID: m.ID}
	}

	if err := e.Registry.Register(t); err != nil {
		return nil, xerrors.Wrap(err).Category(xerrors.CategoryTask).Component("engine").Build()
	}
	return t, nil
}

// CollectSingleURL builds a one-Input task for the URL/torrent/tweet
// commands (§6's /urlupload, /jl, /qbl, tweet links), which take a
// single reference directly from the command rather than scanning the
// chat for media messages.
func (e *Engine) CollectSingleURL(chatID, ownerID int64, kind task.Kind, rawURL, outputName, tasksRoot string) (*task.Task, error) {
	id, err := e.Registry.NewID()
	if err != nil {
		return nil, xerrors.Wrap(err).Category(xerrors.CategoryTask).Component("engine").Build()
	}

	t := task.New(id, ownerID, chatID, kind, outputName, tasksRoot)
	inputKind := task.InputURL
	if kind == task.KindQbl {
		inputKind = task.InputMagnet
	}
	t.Inputs = []task.Input{{Index: 0, Kind: inputKind, URL: rawURL}}

	if err := e.Registry.Register(t); err != nil {
		return nil, xerrors.Wrap(err).Category(xerrors.CategoryTask).Component("engine").Build()
	}
	return t, nil
}

// HandleCancel implements /cancel TASK_ID: only the task's owner or a
// bot owner may cancel it, matching the original bot's ownership check
// before honouring a cancel request.
func (e *Engine) HandleCancel(requesterID int64, isOwner bool, taskID string) string {
	t := e.Registry.Get(taskID)
	if t == nil {
		return fmt.Sprintf("No active task found with ID `%s`.", taskID)
	}
	if t.Owner != requesterID && !isOwner {
		return "You can only cancel your own tasks."
	}
	if !t.IsCancellable() {
		return fmt.Sprintf("Task `%s` is in stage %s and can no longer be cancelled.", taskID, t.Stage())
	}
	e.Registry.Advance(t, task.StageCancelling)
	t.Cancel()
	return fmt.Sprintf("Task `%s` has been cancelled.", taskID)
}

// HandleMyPlan implements /myplan: reports the caller's daily limit,
// usage today, and remaining budget (the tier name is not shown), reusing Gate.Admit's zero-size decision
// rather than adding a read-only duplicate of its limit-lookup logic.
func (e *Engine) HandleMyPlan(ctx context.Context, userID int64) (string, error) {
	if e.Gate == nil {
		return "", xerrors.Newf("quota gate not configured").Category(xerrors.CategoryConfiguration).Component("engine").Build()
	}
	decision, err := e.Gate.Admit(ctx, userID, 0)
	if err != nil {
		return "", err
	}
	remaining := decision.TierLimit - decision.DailyUsed
	if remaining < 0 {
		remaining = 0
	}
	return fmt.Sprintf(
		"Your Plan\n\nDaily Limit: %s\nUsed Today: %s\nRemaining: %s",
		humanize.Bytes(uint64(decision.TierLimit)),
		humanize.Bytes(uint64(decision.DailyUsed)),
		humanize.Bytes(uint64(remaining)),
	), nil
}

// HandleAddFooter implements /add_footer TEXT: sets the caption suffix
// appended to every future upload's caption for the caller.
func (e *Engine) HandleAddFooter(ctx context.Context, userID int64, footer string) (string, error) {
	footer = strings.TrimSpace(footer)
	if footer == "" {
		return "Usage: /add_footer <text>", nil
	}
	if err := e.Gate.SetFooter(ctx, userID, footer); err != nil {
		return "", err
	}
	return "Footer set. It will be appended to your uploads' captions.", nil
}

// HandleRemoveFooter implements /remove_footer: clears the caller's
// caption footer.
func (e *Engine) HandleRemoveFooter(ctx context.Context, userID int64) (string, error) {
	if err := e.Gate.SetFooter(ctx, userID, ""); err != nil {
		return "", err
	}
	return "Footer removed.", nil
}

// restartTrigger is the Restart Coordinator entry point, wired in at
// startup, that HandleRestart delegates the owner-only /restart command
// (§5.4) to.
type restartTrigger interface {
	Trigger(ctx context.Context, reason string, chatID int64)
}

// HandleRestart asks coordinator to begin the wind-down/exit sequence.
// It returns immediately; the coordinator's own notifications cover
// user-facing feedback since the process exits before this handler's
// caller could reply again anyway.
func (e *Engine) HandleRestart(ctx context.Context, coordinator restartTrigger, chatID int64, reason string) {
	if reason == "" {
		reason = "manual restart"
	}
	go coordinator.Trigger(ctx, reason, chatID)
}

// applyFooter appends userID's configured caption footer to caption, the
// hook upload captions run through so /add_footer's effect is visible
// without every caller having to remember to call Gate.Footer itself.
func (e *Engine) applyFooter(ctx context.Context, userID int64, caption string) string {
	if e.Gate == nil {
		return caption
	}
	footer, err := e.Gate.Footer(ctx, userID)
	if err != nil || footer == "" {
		return caption
	}
	return caption + "\n" + footer
}
