package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the compliance module.
type Metrics struct {
	// Evaluation latency by kind
	EvaluateLatency *prometheus.HistogramVec

	// Evaluated statuses by kind and status string
	Evaluations *prometheus.CounterVec

	// Applied changes by kind and what changed
	StatusChanges *prometheus.CounterVec

	// Owner refresh latency
	RefreshLatency prometheus.Histogram
}

// New creates a new Metrics instance with all compliance metrics registered.
func New() *Metrics {
	return &Metrics{
		EvaluateLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "candlepin_compliance_evaluate_duration_seconds",
			Help:    "Duration of a consumer evaluation including data loading",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"kind"}), // kind: "compliance", "system_purpose"

		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "candlepin_compliance_evaluations_total",
			Help: "Evaluated statuses by kind and resulting status",
		}, []string{"kind", "status"}),

		StatusChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "candlepin_compliance_status_changes_total",
			Help: "Applied status changes by kind and changed field",
		}, []string{"kind", "field"}), // field: "hash", "status"

		RefreshLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "candlepin_compliance_owner_refresh_duration_seconds",
			Help:    "Duration of owner-wide compliance refreshes",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
	}
}

// ObserveEvaluateLatency records one evaluation.
func (m *Metrics) ObserveEvaluateLatency(kind string, d time.Duration) {
	if m != nil {
		m.EvaluateLatency.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// IncrementEvaluation records an evaluated status.
func (m *Metrics) IncrementEvaluation(kind, status string) {
	if m != nil {
		m.Evaluations.WithLabelValues(kind, status).Inc()
	}
}

// IncrementChange records a changed hash or status string.
func (m *Metrics) IncrementChange(kind, field string) {
	if m != nil {
		m.StatusChanges.WithLabelValues(kind, field).Inc()
	}
}

// ObserveRefreshLatency records an owner-wide refresh.
func (m *Metrics) ObserveRefreshLatency(d time.Duration) {
	if m != nil {
		m.RefreshLatency.Observe(d.Seconds())
	}
}
