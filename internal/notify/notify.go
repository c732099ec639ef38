// Package notify delivers operational alerts — restart notices, fatal
// task failures — to whatever webhook endpoint the operator configured,
// independent of the chat transport used for in-chat user messages.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/f2lnk/f2lnk-go/internal/events"
	"github.com/f2lnk/f2lnk-go/internal/logging"
	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
)

var logger = logging.ForService("notify")

// Dispatcher sends messages through a shoutrrr router built from a
// single service URL (Slack/Discord/generic webhook/...). It is a no-op
// when no URL is configured, so callers never need to branch on whether
// notifications are enabled.
type Dispatcher struct {
	mu         sync.Mutex
	sender     *router.ServiceRouter
	lastFailAt time.Time
	failCount  int
}

// NewDispatcher builds a Dispatcher from a shoutrrr service URL. An empty
// url produces a disabled Dispatcher whose Send calls always succeed
// silently.
func NewDispatcher(url string) (*Dispatcher, error) {
	if url == "" {
		return &Dispatcher{}, nil
	}
	sender, err := shoutrrr.CreateSender(url)
	if err != nil {
		return nil, fmt.Errorf("notify: create sender: %w", err)
	}
	return &Dispatcher{sender: sender}, nil
}

// circuitOpen reports whether recent consecutive failures should
// suppress further send attempts for a cooldown window, so a dead
// webhook doesn't add latency to every restart/failure path.
func (d *Dispatcher) circuitOpen() bool {
	const (
		failThreshold = 3
		cooldown      = 2 * time.Minute
	)
	return d.failCount >= failThreshold && time.Since(d.lastFailAt) < cooldown
}

// Send delivers message, returning nil immediately if disabled or if the
// circuit breaker is open.
func (d *Dispatcher) Send(message string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sender == nil {
		return nil
	}
	if d.circuitOpen() {
		logger.Debug("notify circuit open, suppressing send", "fail_count", d.failCount)
		return nil
	}

	errs := d.sender.Send(message, nil)
	for _, err := range errs {
		if err != nil {
			d.failCount++
			d.lastFailAt = time.Now()
			logger.Warn("notification send failed", "error", err)
			return err
		}
	}
	d.failCount = 0
	return nil
}

// RestartNotice formats and sends the Restart Coordinator's owner
// notification.
func (d *Dispatcher) RestartNotice(reason string) error {
	return d.Send(fmt.Sprintf("f2lnk restarting: %s", reason))
}

// TaskFailureNotice formats and sends a critical task failure alert.
func (d *Dispatcher) TaskFailureNotice(taskID, kind string, cause error) error {
	return d.Send(fmt.Sprintf("task %s (%s) failed: %v", taskID, kind, cause))
}

// Consumer adapts a Dispatcher into an events.EventConsumer, forwarding
// only task events that ended in failure.
type Consumer struct {
	dispatcher *Dispatcher
}

// NewConsumer returns an events.EventConsumer that raises a notification
// for every TaskEvent whose ToStage is "failed".
func NewConsumer(dispatcher *Dispatcher) *Consumer {
	return &Consumer{dispatcher: dispatcher}
}

func (c *Consumer) Name() string { return "notify" }

func (c *Consumer) ProcessEvent(event events.Event) error {
	te, ok := event.(events.TaskEvent)
	if !ok || te.ToStage != "failed" {
		return nil
	}
	return c.dispatcher.TaskFailureNotice(te.TaskID, te.Kind, te.Err)
}
