package watchdog

import "github.com/prometheus/client_golang/prometheus"

// metrics are the DOMAIN STACK's Prometheus gauges for the watchdog's own
// samples, registered once at package init so internal/engine's HTTP
// control API can expose them at /metrics via promhttp without the
// watchdog needing to know about HTTP at all.
var (
	cpuPercentGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "f2lnk",
		Subsystem: "watchdog",
		Name:      "cpu_percent",
		Help:      "Most recently sampled process-wide CPU utilization percentage.",
	})
	ramPercentGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "f2lnk",
		Subsystem: "watchdog",
		Name:      "ram_percent",
		Help:      "Most recently sampled system RAM utilization percentage.",
	})
	activeTasksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "f2lnk",
		Subsystem: "watchdog",
		Name:      "active_tasks",
		Help:      "Active task count as of the most recent watchdog tick.",
	})
	idleSecondsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "f2lnk",
		Subsystem: "watchdog",
		Name:      "idle_seconds",
		Help:      "Seconds since the last Touch() call, as of the most recent tick.",
	})
)

func init() {
	prometheus.MustRegister(cpuPercentGauge, ramPercentGauge, activeTasksGauge, idleSecondsGauge)
}
