package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for verification operations.
type Metrics struct {
	Outcomes            *prometheus.CounterVec
	CardErrors          *prometheus.CounterVec
	CardReadLatency     prometheus.Histogram
	AttestationsIssued  prometheus.Counter
	AttestationVerified *prometheus.CounterVec
}

// New registers and returns verification collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inro_verifications_total",
			Help: "Total number of age verifications, labeled by status and birth date source",
		}, []string{"status", "source"}),
		CardErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inro_card_errors_total",
			Help: "Total number of failed card reads, labeled by error kind",
		}, []string{"kind"}),
		CardReadLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "inro_card_read_duration_seconds",
			Help:    "Time from session start to card read outcome",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		AttestationsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "inro_attestations_issued_total",
			Help: "Total number of age attestations issued",
		}),
		AttestationVerified: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inro_attestation_verifications_total",
			Help: "Total number of attestation verifications, labeled by result",
		}, []string{"result"}),
	}
}

// IncOutcome counts one verification verdict.
func (m *Metrics) IncOutcome(status, source string) {
	m.Outcomes.WithLabelValues(status, source).Inc()
}

// IncCardError counts a failed card read by kind.
func (m *Metrics) IncCardError(kind string) {
	m.CardErrors.WithLabelValues(kind).Inc()
}

// ObserveCardRead records the latency of one card session.
func (m *Metrics) ObserveCardRead(seconds float64) {
	m.CardReadLatency.Observe(seconds)
}

func (m *Metrics) IncAttestationIssued() {
	m.AttestationsIssued.Inc()
}

// IncAttestationVerified counts a verification attempt; result is valid or invalid.
func (m *Metrics) IncAttestationVerified(result string) {
	m.AttestationVerified.WithLabelValues(result).Inc()
}
