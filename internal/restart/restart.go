// Package restart implements §4.L's Restart Coordinator: the graceful
// shutdown sequence the Watchdog (§4.K) or a manual /restart command
// triggers, grounded line for line on
// original_source/f2lnk/bot/plugins/restart.py's _do_restart.
package restart

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/f2lnk/f2lnk-go/internal/chatapi"
	"github.com/f2lnk/f2lnk-go/internal/logging"
	"github.com/f2lnk/f2lnk-go/internal/notify"
	"github.com/f2lnk/f2lnk-go/internal/task"
)

var logger = logging.ForService("restart")

// windDownDelay is how long Trigger waits after cancelling active tasks
// before cleaning scratch directories, giving in-flight ffmpeg/yt-dlp
// children a chance to exit from the cancel signal rather than being
// cleaned out from under a process still holding their files open.
const windDownDelay = 3 * time.Second

// exitFn and sleepFn are indirected so tests can observe a full Trigger
// run without actually terminating the test binary.
var (
	exitFn  = os.Exit
	sleepFn = time.Sleep
)

// Coordinator owns the one restart sequence that may run at a time.
type Coordinator struct {
	registry    *task.Registry
	transport   chatapi.Transport
	dispatcher  *notify.Dispatcher
	ownerIDs    []int64
	scratchDirs []string

	inProgress atomic.Bool
}

// New builds a Coordinator. scratchDirs are the work-directory roots to
// remove after tasks wind down (tasks root, download root, and any
// tool-specific temp dirs), matching restart.py's hardcoded
// downloads/leech_tasks/vt_temp/zip_temp/mediainfo_temp list.
func New(registry *task.Registry, transport chatapi.Transport, dispatcher *notify.Dispatcher, ownerIDs []int64, scratchDirs []string) *Coordinator {
	return &Coordinator{
		registry:    registry,
		transport:   transport,
		dispatcher:  dispatcher,
		ownerIDs:    ownerIDs,
		scratchDirs: scratchDirs,
	}
}

// Trigger runs the restart sequence: notify, cancel active tasks, wait
// briefly, clean scratch directories, then exit the process so the
// surrounding supervisor (a restart loop in start.sh's idiom) brings it
// back up. A second call while one is already in flight is a no-op,
// matching restart.py's _restart_in_progress guard. chatID is the
// chat that asked for the restart, 0 if it was watchdog-triggered.
func (c *Coordinator) Trigger(ctx context.Context, reason string, chatID int64) {
	if !c.inProgress.CompareAndSwap(false, true) {
		logger.Debug("restart: trigger ignored, one already in progress", "reason", reason)
		return
	}

	logger.Info("restart: triggered", "reason", reason)
	c.notifyChats(ctx, reason, chatID)
	c.cancelActiveTasks()

	sleepFn(windDownDelay)
	c.cleanScratchDirs()

	logger.Info("restart: exiting process for supervisor restart")
	sleepFn(time.Second)
	exitFn(0)
}

func (c *Coordinator) notifyChats(ctx context.Context, reason string, chatID int64) {
	text := "Bot is restarting.\nReason: " + reason + "\nPlease wait a few seconds."

	if chatID != 0 && c.transport != nil {
		if _, err := c.transport.SendText(ctx, chatID, text); err != nil {
			logger.Warn("restart: failed to notify triggering chat", "chat_id", chatID, "error", err)
		}
	}
	if c.transport != nil {
		for _, owner := range c.ownerIDs {
			if owner == chatID {
				continue
			}
			if _, err := c.transport.SendText(ctx, owner, text); err != nil {
				logger.Warn("restart: failed to notify owner", "owner_id", owner, "error", err)
			}
		}
	}
	if c.dispatcher != nil {
		if err := c.dispatcher.RestartNotice(reason); err != nil {
			logger.Warn("restart: webhook notice failed", "error", err)
		}
	}
}

func (c *Coordinator) cancelActiveTasks() {
	if c.registry == nil {
		return
	}
	for _, t := range c.registry.Iter() {
		if t.IsCancellable() {
			t.Cancel()
			logger.Info("restart: cancelled task for restart", "task_id", t.ID)
		}
	}
}

func (c *Coordinator) cleanScratchDirs() {
	for _, dir := range c.scratchDirs {
		if dir == "" {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("restart: failed to clean scratch dir", "dir", dir, "error", err)
			continue
		}
		logger.Info("restart: cleaned scratch dir", "dir", dir)
	}
}
