// Package events provides an asynchronous event bus that decouples task
// lifecycle and resource reporting from their consumers (notifications,
// metrics), so a slow consumer never blocks the pipeline goroutine that
// published the event.
package events

import "time"

// Event is the common interface for everything the bus carries. Task
// lifecycle transitions and watchdog resource samples both satisfy it.
type Event interface {
	// GetComponent returns the component that generated the event.
	GetComponent() string

	// GetCategory groups events for routing/metrics (e.g. "task", "resource").
	GetCategory() string

	// GetContext returns additional structured data about the event.
	GetContext() map[string]any

	// GetTimestamp returns when the event occurred.
	GetTimestamp() time.Time
}

// TaskEvent reports a task stage transition.
type TaskEvent struct {
	TaskID    string
	Owner     int64
	Kind      string
	FromStage string
	ToStage   string
	Err       error
	Timestamp time.Time
}

func (e TaskEvent) GetComponent() string { return "task" }
func (e TaskEvent) GetCategory() string  { return "task" }
func (e TaskEvent) GetContext() map[string]any {
	ctx := map[string]any{
		"task_id":    e.TaskID,
		"owner":      e.Owner,
		"kind":       e.Kind,
		"from_stage": e.FromStage,
		"to_stage":   e.ToStage,
	}
	if e.Err != nil {
		ctx["error"] = e.Err.Error()
	}
	return ctx
}
func (e TaskEvent) GetTimestamp() time.Time { return e.Timestamp }

// ResourceEvent reports a watchdog CPU/RAM/activity sample.
type ResourceEvent struct {
	CPUPercent  float64
	RAMPercent  float64
	ActiveTasks int
	IdleFor     time.Duration
	Timestamp   time.Time
}

func (e ResourceEvent) GetComponent() string { return "watchdog" }
func (e ResourceEvent) GetCategory() string  { return "resource" }
func (e ResourceEvent) GetContext() map[string]any {
	return map[string]any{
		"cpu_percent":  e.CPUPercent,
		"ram_percent":  e.RAMPercent,
		"active_tasks": e.ActiveTasks,
		"idle_for_sec": e.IdleFor.Seconds(),
	}
}
func (e ResourceEvent) GetTimestamp() time.Time { return e.Timestamp }

// EventConsumer processes events pulled off the bus by a worker goroutine.
type EventConsumer interface {
	Name() string
	ProcessEvent(event Event) error
}

// EventBusStats contains runtime statistics for monitoring.
type EventBusStats struct {
	EventsReceived  uint64
	EventsProcessed uint64
	EventsDropped   uint64
	ConsumerErrors  uint64
}
