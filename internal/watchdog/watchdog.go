// Package watchdog implements §4.K: a fixed-interval sampler that
// triggers the Restart Coordinator when the process is both idle (no
// active tasks) and either resource-starved (CPU or RAM over threshold)
// or simply unused for IdleTimeout, grounded on the ticker+ctx.Done
// loop shape of the teacher's internal/audiocore/health_monitor.go.
package watchdog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/f2lnk/f2lnk-go/internal/events"
	"github.com/f2lnk/f2lnk-go/internal/logging"
)

var logger = logging.ForService("watchdog")

// ActiveCounter reports how many tasks are currently in flight. Satisfied
// structurally by *task.Registry's CountActive, no import needed here.
type ActiveCounter interface {
	CountActive() int
}

// Config holds the thresholds spec.md §4.K names, all with the
// documented defaults applied by conf's validateSettings.
type Config struct {
	Interval     time.Duration
	StartupGrace time.Duration
	CPUThreshold float64
	RAMThreshold float64
	IdleTimeout  time.Duration
}

// Watchdog samples CPU%, RAM%, and active task count on Interval (after
// an initial StartupGrace) and calls Trigger when either the resource
// condition or the idle condition fires with zero active tasks.
type Watchdog struct {
	cfg     Config
	counter ActiveCounter
	bus     *events.EventBus
	trigger func(reason string)

	lastActivity atomic.Int64 // unix nanos
	mu           sync.Mutex
}

// New builds a Watchdog. trigger is called with a human-readable reason
// when a restart condition fires; the caller wires it to
// internal/restart.Coordinator.Trigger.
func New(cfg Config, counter ActiveCounter, bus *events.EventBus, trigger func(reason string)) *Watchdog {
	w := &Watchdog{cfg: cfg, counter: counter, bus: bus, trigger: trigger}
	w.lastActivity.Store(time.Now().UnixNano())
	return w
}

// Touch records user activity, resetting the idle clock. The command
// handlers in internal/engine do not call it, so without another caller
// the idle clock counts from New.
func (w *Watchdog) Touch() {
	w.lastActivity.Store(time.Now().UnixNano())
}

// Run blocks samping on cfg.Interval until ctx is cancelled, after an
// initial cfg.StartupGrace delay that avoids firing on transient
// startup resource spikes.
func (w *Watchdog) Run(ctx context.Context) {
	grace := w.cfg.StartupGrace
	if grace <= 0 {
		grace = 0
	}
	select {
	case <-time.After(grace):
	case <-ctx.Done():
		return
	}

	interval := w.cfg.Interval
	if interval <= 0 {
		interval = 300 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watchdog) tick(ctx context.Context) {
	cpuPct := w.sampleCPU(ctx)
	ramPct := w.sampleRAM()
	active := w.counter.CountActive()
	idleFor := time.Since(time.Unix(0, w.lastActivity.Load()))

	if w.bus != nil {
		w.bus.TryPublish(events.ResourceEvent{
			CPUPercent:  cpuPct,
			RAMPercent:  ramPct,
			ActiveTasks: active,
			IdleFor:     idleFor,
			Timestamp:   time.Now(),
		})
	}

	cpuPercentGauge.Set(cpuPct)
	ramPercentGauge.Set(ramPct)
	activeTasksGauge.Set(float64(active))
	idleSecondsGauge.Set(idleFor.Seconds())

	if active != 0 {
		return
	}

	switch {
	case cpuPct > w.cfg.CPUThreshold:
		logger.Warn("watchdog: cpu over threshold with no active tasks, triggering restart", "cpu_percent", cpuPct)
		w.fire("cpu threshold exceeded")
	case ramPct > w.cfg.RAMThreshold:
		logger.Warn("watchdog: ram over threshold with no active tasks, triggering restart", "ram_percent", ramPct)
		w.fire("ram threshold exceeded")
	case idleFor > w.cfg.IdleTimeout:
		logger.Info("watchdog: idle timeout exceeded with no active tasks, triggering restart", "idle_for", idleFor)
		w.fire("idle timeout exceeded")
	}
}

// fire is mutex-guarded so a slow trigger callback from one tick can't
// overlap a second tick's call while the first is still unwinding.
func (w *Watchdog) fire(reason string) {
	if w.trigger == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.trigger(reason)
}

func (w *Watchdog) sampleCPU(ctx context.Context) float64 {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil || len(percents) == 0 {
		logger.Debug("watchdog: cpu sample failed", "error", err)
		return 0
	}
	return percents[0]
}

func (w *Watchdog) sampleRAM() float64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		logger.Debug("watchdog: ram sample failed", "error", err)
		return 0
	}
	return vm.UsedPercent
}
