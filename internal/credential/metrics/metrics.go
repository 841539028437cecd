// Package metrics provides Prometheus metrics for the credential lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the credential engine's counters and histograms.
type Metrics struct {
	CredentialsIssued  *prometheus.CounterVec   // by credential type
	CredentialsRevoked prometheus.Counter
	Presentations      *prometheus.CounterVec   // by outcome (verified, rejected)
	PresentationFails  *prometheus.CounterVec   // by reason
	ChallengesIssued   prometheus.Counter
	OperationDuration  *prometheus.HistogramVec // by operation
	BackendErrors      *prometheus.CounterVec   // by backend (content, registry, challenge, metadata, events)
}

// New registers the metrics with reg. Pass prometheus.DefaultRegisterer in
// the server and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CredentialsIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idverse_credentials_issued_total",
			Help: "Total number of credentials issued, labeled by credential type",
		}, []string{"type"}),
		CredentialsRevoked: f.NewCounter(prometheus.CounterOpts{
			Name: "idverse_credentials_revoked_total",
			Help: "Total number of credentials revoked",
		}),
		Presentations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idverse_presentations_total",
			Help: "Total number of presentations, labeled by outcome",
		}, []string{"outcome"}),
		PresentationFails: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idverse_presentation_failures_total",
			Help: "Total number of failed presentation checks, labeled by reason",
		}, []string{"reason"}),
		ChallengesIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "idverse_challenges_issued_total",
			Help: "Total number of presentation challenges issued",
		}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idverse_credential_operation_duration_seconds",
			Help:    "Duration of credential engine operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
		BackendErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idverse_credential_backend_errors_total",
			Help: "Total number of backend failures seen by the engine, labeled by backend",
		}, []string{"backend"}),
	}
}

func (m *Metrics) IncIssued(credentialType string) {
	if m == nil {
		return
	}
	m.CredentialsIssued.WithLabelValues(credentialType).Inc()
}

func (m *Metrics) IncRevoked() {
	if m == nil {
		return
	}
	m.CredentialsRevoked.Inc()
}

// RecordPresentation counts the outcome and each failure reason.
func (m *Metrics) RecordPresentation(verified bool, reasons []string) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if verified {
		outcome = "verified"
	}
	m.Presentations.WithLabelValues(outcome).Inc()
	for _, r := range reasons {
		m.PresentationFails.WithLabelValues(r).Inc()
	}
}

func (m *Metrics) IncChallenges() {
	if m == nil {
		return
	}
	m.ChallengesIssued.Inc()
}

func (m *Metrics) ObserveDuration(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(seconds)
}

func (m *Metrics) IncBackendError(backend string) {
	if m == nil {
		return
	}
	m.BackendErrors.WithLabelValues(backend).Inc()
}
