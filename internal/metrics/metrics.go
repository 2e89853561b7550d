// Package metrics exposes daemon telemetry: refresh cycle health, assistant
// round-trips, and action dispatch counts.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	// RefreshTotal counts completed data refreshes by outcome.
	RefreshTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "scdash",
		Name:      "refresh_total",
		Help:      "Completed dashboard data refreshes by outcome.",
	}, []string{"outcome"})

	// RefreshDuration observes how long a full refresh takes.
	RefreshDuration = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: "scdash",
		Name:      "refresh_duration_seconds",
		Help:      "Duration of dashboard data refreshes.",
		Buckets:   prometheus.DefBuckets,
	})

	// AssistantDuration observes assistant backend round-trip time.
	AssistantDuration = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: "scdash",
		Name:      "assistant_roundtrip_seconds",
		Help:      "Duration of assistant backend round-trips.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
	})

	// AssistantActions counts dispatched assistant actions by command and
	// outcome (executed, rejected, failed).
	AssistantActions = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "scdash",
		Name:      "assistant_actions_total",
		Help:      "Assistant actions by command and outcome.",
	}, []string{"command", "outcome"})

	// MaintenanceToggles counts maintenance flips by new status.
	MaintenanceToggles = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "scdash",
		Name:      "maintenance_toggles_total",
		Help:      "Maintenance mode toggles by resulting status.",
	}, []string{"status"})
)

func init() {
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Handler serves the registry over HTTP.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
