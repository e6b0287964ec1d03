// Package metrics exposes Prometheus metrics for launches and the event channel.
// Labels stay low-cardinality: no profile or launch ids.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Launch outcomes used as label values.
const (
	OutcomeStopped = "stopped"
	OutcomeCrashed = "crashed"
	OutcomeAborted = "aborted"
	OutcomeFailed  = "failed"
	OutcomeReaped  = "reaped"
)

var (
	ActiveLaunches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "launcher_active_launches",
		Help: "Current number of profiles with an in-flight launch.",
	})

	LaunchesStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "launcher_launches_started_total",
		Help: "Total number of accepted launch requests.",
	})

	// LaunchesRejectedTotal counts launch requests refused before a task started.
	LaunchesRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launcher_launches_rejected_total",
		Help: "Total number of rejected launch requests, by reason.",
	}, []string{"reason"})

	LaunchesFinishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launcher_launches_finished_total",
		Help: "Total number of launches that reached a terminal state, by outcome.",
	}, []string{"outcome"})

	LaunchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "launcher_launch_duration_seconds",
		Help:    "Time from registration to removal of a launch, by outcome.",
		Buckets: []float64{1, 5, 15, 60, 300, 900, 3600, 4 * 3600},
	}, []string{"outcome"})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launcher_events_published_total",
		Help: "Total number of state events published, by event type.",
	}, []string{"event_type"})

	// EventsDroppedTotal counts deliveries dropped because a subscriber queue was full.
	EventsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launcher_events_dropped_total",
		Help: "Total number of state event deliveries dropped, by event type.",
	}, []string{"event_type"})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "launcher_websocket_clients",
		Help: "Current number of connected websocket clients.",
	})
)

func RecordLaunchStarted() {
	LaunchesStartedTotal.Inc()
	ActiveLaunches.Inc()
}

func RecordLaunchRejected(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	LaunchesRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordLaunchFinished records the terminal outcome of a launch that was started.
func RecordLaunchFinished(outcome string, seconds float64) {
	ActiveLaunches.Dec()
	LaunchesFinishedTotal.WithLabelValues(outcome).Inc()
	LaunchDuration.WithLabelValues(outcome).Observe(seconds)
}

func RecordEventPublished(eventType string) {
	EventsPublishedTotal.WithLabelValues(eventType).Inc()
}

func RecordEventDropped(eventType string) {
	if eventType == "" {
		eventType = "unknown"
	}
	EventsDroppedTotal.WithLabelValues(eventType).Inc()
}

// Handler returns the scrape handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
