// Package metrics exposes Prometheus instrumentation for the conversation
// engine.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of inbound updates labeled by kind and status",
		},
		[]string{"kind", "status"},
	)
	updateDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "update_duration_seconds",
			Help:    "Duration of update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_transitions_total",
			Help: "Total number of flow state transitions",
		},
		[]string{"from", "to"},
	)
	executionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "executions_total",
			Help: "Total number of orchestrated executions by flow and status",
		},
		[]string{"flow", "status"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by kind and severity",
		},
		[]string{"kind", "severity"},
	)
	pageCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "page_cache_total",
			Help: "Page cache lookups by result (hit or miss)",
		},
		[]string{"result"},
	)
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Current number of live user sessions",
		},
	)
	sessionsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sessions_by_state",
			Help: "Number of sessions per flow state",
		},
		[]string{"state"},
	)
)

// RecordUpdate increments update counters and records duration.
func RecordUpdate(kind, status string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	updatesTotal.WithLabelValues(kind, status).Inc()
	updateDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordStateTransition tracks flow transitions.
func RecordStateTransition(from, to string) {
	if from == "" {
		from = "idle"
	}
	if to == "" {
		to = "idle"
	}

	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordExecution counts orchestrated executions.
func RecordExecution(flow, status string) {
	executionsTotal.WithLabelValues(flow, status).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(kind, severity string) {
	if kind == "" {
		kind = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(kind, severity).Inc()
}

// RecordPageCache counts a page cache hit or miss.
func RecordPageCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}

	pageCacheTotal.WithLabelValues(result).Inc()
}

// SessionCollector periodically polls session counts per state and emits
// gauges until its context is cancelled.
type SessionCollector struct {
	source   func() map[string]int
	interval time.Duration
}

// NewSessionCollector builds a collector over a state-count source.
func NewSessionCollector(source func() map[string]int, interval time.Duration) *SessionCollector {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &SessionCollector{source: source, interval: interval}
}

// Run polls the source until ctx is cancelled.
func (c *SessionCollector) Run(ctx context.Context) {
	if c == nil || c.source == nil {
		return
	}

	for {
		c.collect()

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}

func (c *SessionCollector) collect() {
	counts := c.source()

	total := 0
	for state, count := range counts {
		if state == "" {
			state = "idle"
		}
		sessionsByState.WithLabelValues(state).Set(float64(count))
		total += count
	}

	activeSessions.Set(float64(total))
}
