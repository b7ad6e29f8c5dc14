// Package metrics provides Prometheus metrics for sidekick.
// Counters cover launches, regenerations, settings writes and wake events;
// they are exported on /metrics by the preferences API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Launcher ───────────────────────────────────────────────────────────────

// Launches tracks launcher runs by outcome and widget.
var Launches = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sidekick",
	Name:      "launches_total",
	Help:      "Launcher runs by outcome (launched, disabled, no_display, remote) and widget.",
}, []string{"outcome", "widget"})

// WidgetsTerminated tracks widget processes killed before a launch or on stop.
var WidgetsTerminated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "sidekick",
	Name:      "widgets_terminated_total",
	Help:      "Widget processes terminated by sidekick.",
})

// LaunchLatency tracks time from launcher start to widget spawn.
var LaunchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "sidekick",
	Name:      "launch_latency_seconds",
	Help:      "Time from launcher start to widget spawn, settle delay included.",
	Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5},
})

// ─── Settings ───────────────────────────────────────────────────────────────

// Regenerations tracks autolock script regenerations by selected widget.
var Regenerations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sidekick",
	Name:      "autolock_regenerations_total",
	Help:      "Autolock script regenerations by selected widget.",
}, []string{"widget"})

// SettingsWrites tracks settings saves by result.
var SettingsWrites = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sidekick",
	Name:      "settings_writes_total",
	Help:      "Settings file writes by result (ok, error).",
}, []string{"result"})

// ResolutionFallbacks tracks unknown screensaver_type values that fell back to Matrix.
var ResolutionFallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "sidekick",
	Name:      "resolution_fallbacks_total",
	Help:      "Unknown screensaver_type values resolved to the default widget.",
})

// ─── Wake ───────────────────────────────────────────────────────────────────

// WakeEvents tracks input activity that ended a screensaver.
var WakeEvents = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "sidekick",
	Name:      "wake_events_total",
	Help:      "USB/HID activity bursts that stopped the running widget.",
})

// InterruptDelta tracks the USB/HID interrupt delta seen per sample.
var InterruptDelta = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "sidekick",
	Name:      "input_interrupt_delta",
	Help:      "USB/HID interrupt count change between watcher samples.",
	Buckets:   []float64{0, 5, 10, 25, 50, 100, 250, 1000},
})
