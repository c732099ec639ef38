// Package dialog implements §4.I's Interactive Config: a bounded
// per-task prompt sequence built on chatapi.Transport's AskText/
// AskButtons primitives, which already own the wait-for-one-reply and
// timeout mechanics. This package only decides what to ask, in what
// order, and how an answer mutates a task.Config.
package dialog

import (
	"context"
	"errors"
	"time"

	"github.com/f2lnk/f2lnk-go/internal/chatapi"
	"github.com/f2lnk/f2lnk-go/internal/logging"
	"github.com/f2lnk/f2lnk-go/internal/task"
	"github.com/f2lnk/f2lnk-go/internal/xerrors"
)

var logger = logging.ForService("dialog")

// DefaultTimeout is used when a Step doesn't set its own.
const DefaultTimeout = 60 * time.Second

// ErrCancelled is returned from Run when the user replies with /cancel
// at any step.
var ErrCancelled = errors.New("dialog: cancelled by user")

// ErrReopenToolSelection is the sentinel a Step's Apply returns to send
// control back to the tool-selection step, modelling §4.I's "a new tool
// button re-opens tool selection" rule.
var ErrReopenToolSelection = errors.New("dialog: reopen tool selection")

// Step is one prompt in a sequence. Exactly one of Buttons or (neither)
// is set: a nil Buttons means a free-text prompt via AskText, a non-nil
// Buttons means AskButtons.
type Step struct {
	Prompt  string
	Buttons [][]chatapi.Button // nil for free-text steps
	Timeout time.Duration

	// Apply mutates cfg with the user's answer (button Data or raw
	// text). Returning ErrReopenToolSelection sends Run back to the
	// tool-selection step, after which the sequence is rebuilt by
	// buildToolSteps for the newly chosen Tool; any other error aborts
	// the dialog.
	Apply func(answer string, cfg *task.Config) error
}

// Run asks the leading tool-selection step, then drives the rest of
// the tool-specific sequence built by buildToolSteps for whatever tool
// was picked. If a later step's Apply signals a tool-selection reopen
// (the user picked a new tool button partway through), Run goes back to
// asking tool selection and starts that tool's sequence over, so
// changing tools mid-dialog doesn't require a new task. A timeout or
// /cancel fails the dialog; callers are expected to transition the task
// to Failed and clean up on a non-nil return.
func Run(ctx context.Context, transport chatapi.Transport, t *task.Task, buildToolSteps func(task.ToolTag) []Step) error {
	for {
		if err := runStep(ctx, transport, t, toolSelectionStep()); err != nil {
			return err
		}

		reopened, err := runSequence(ctx, transport, t, buildToolSteps(t.Config.Tool))
		if err != nil {
			return err
		}
		if !reopened {
			return nil
		}
		logger.Debug("dialog: tool selection reopened", "task_id", t.ID)
	}
}

// runSequence drives steps in order, returning (true, nil) if a step's
// Apply requested a tool-selection reopen.
func runSequence(ctx context.Context, transport chatapi.Transport, t *task.Task, steps []Step) (bool, error) {
	for _, step := range steps {
		if err := runStep(ctx, transport, t, step); err != nil {
			if errors.Is(err, ErrReopenToolSelection) {
				return true, nil
			}
			return false, err
		}
	}
	return false, nil
}

func runStep(ctx context.Context, transport chatapi.Transport, t *task.Task, step Step) error {
	timeout := step.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	answer, err := ask(ctx, transport, t, step, timeout)
	if err != nil {
		return err
	}
	if isCancel(answer) {
		return ErrCancelled
	}
	return step.Apply(answer, &t.Config)
}

func ask(ctx context.Context, transport chatapi.Transport, t *task.Task, step Step, timeout time.Duration) (string, error) {
	var (
		answer string
		err    error
	)
	if step.Buttons != nil {
		answer, err = transport.AskButtons(ctx, t.Chat, t.Owner, step.Prompt, step.Buttons, timeout)
	} else {
		answer, err = transport.AskText(ctx, t.Chat, t.Owner, step.Prompt, timeout)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", xerrors.Wrap(err).
				Category(xerrors.CategoryTimeout).
				Component("dialog").
				Context("task_id", t.ID).
				Build()
		}
		return "", xerrors.Wrap(err).Category(xerrors.CategoryDialog).Component("dialog").Context("task_id", t.ID).Build()
	}
	return answer, nil
}

func isCancel(answer string) bool {
	return answer == "/cancel"
}
