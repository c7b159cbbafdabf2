package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the verification engine and
// its ingestion channels.
type Metrics struct {
	ReportsIngested    *prometheus.CounterVec // labels: origin
	VerificationPasses *prometheus.CounterVec // labels: outcome={verified_true,verified_false,needs_drone,canceled}
	VotesRecorded      *prometheus.CounterVec // labels: direction={up,down}
	AutoVerified       prometheus.Counter
	SignalFailures     *prometheus.CounterVec // labels: source={vision,satellite,weather,reasoning,geocode,social}
	IncidentCount      prometheus.Gauge
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsIngested,
		m.VerificationPasses,
		m.VotesRecorded,
		m.AutoVerified,
		m.SignalFailures,
		m.IncidentCount,
	)
	return m
}

// NewMetricsForTesting creates Metrics without touching the default registry
// to avoid "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodline",
			Name:      "reports_ingested_total",
			Help:      "Incident reports accepted by ingestion channel.",
		}, []string{"origin"}),
		VerificationPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodline",
			Name:      "verification_passes_total",
			Help:      "Completed verification passes by outcome.",
		}, []string{"outcome"}),
		VotesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodline",
			Name:      "votes_recorded_total",
			Help:      "Crowd votes recorded by direction.",
		}, []string{"direction"}),
		AutoVerified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodline",
			Name:      "auto_verified_total",
			Help:      "Incidents promoted to verified-true by corroboration count.",
		}),
		SignalFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodline",
			Name:      "signal_failures_total",
			Help:      "Adapter failures absorbed into fallback values, by source.",
		}, []string{"source"}),
		IncidentCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "floodline",
			Name:      "incident_count",
			Help:      "Incidents held in the session store.",
		}),
	}
}
