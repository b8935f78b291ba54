// Package telemetry exposes Prometheus metrics for the conversions relay.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Relay outcomes recorded per event.
const (
	OutcomeRelayed     = "relayed"
	OutcomeRejected    = "rejected"
	OutcomeError       = "error"
	OutcomeSkippedBot  = "skipped_bot"
	OutcomeConfigError = "config_error"
)

// Metrics holds the relay Prometheus metrics.
type Metrics struct {
	// EventsTotal counts relayed events by event name and outcome.
	EventsTotal *prometheus.CounterVec

	// UpstreamDuration tracks latency of outbound Conversions API calls.
	UpstreamDuration prometheus.Histogram

	// PIIFieldsDropped counts user-data fields omitted because they failed
	// normalization.
	PIIFieldsDropped *prometheus.CounterVec

	// StateTruncated counts state values longer than a two-letter code,
	// which lose information when truncated for hashing.
	StateTruncated prometheus.Counter
}

// New registers the relay metrics with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "conversions_relay_events_total",
			Help: "Total tracked events handled, by event name and outcome",
		}, []string{"event_name", "outcome"}),

		UpstreamDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "conversions_relay_upstream_duration_seconds",
			Help:    "Latency of outbound Conversions API requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}),

		PIIFieldsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "conversions_relay_pii_fields_dropped_total",
			Help: "User-data fields omitted after failing normalization",
		}, []string{"field"}),

		StateTruncated: factory.NewCounter(prometheus.CounterOpts{
			Name: "conversions_relay_state_truncated_total",
			Help: "State values truncated to two letters before hashing",
		}),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordEvent increments the events counter. Safe on a nil receiver.
func (m *Metrics) RecordEvent(eventName, outcome string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(eventName, outcome).Inc()
}

// ObserveUpstream records one outbound request duration. Safe on a nil receiver.
func (m *Metrics) ObserveUpstream(d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamDuration.Observe(d.Seconds())
}

// RecordDroppedField counts one omitted user-data field. Safe on a nil receiver.
func (m *Metrics) RecordDroppedField(field string) {
	if m == nil {
		return
	}
	m.PIIFieldsDropped.WithLabelValues(field).Inc()
}

// RecordStateTruncated counts one truncated state value. Safe on a nil receiver.
func (m *Metrics) RecordStateTruncated() {
	if m == nil {
		return
	}
	m.StateTruncated.Inc()
}
