package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the rule script host.
type Metrics struct {
	Compilations   *prometheus.CounterVec
	InvokeLatency  *prometheus.HistogramVec
	InvokeErrors   *prometheus.CounterVec
	FallbackCalls  *prometheus.CounterVec
	TimestampCache *prometheus.CounterVec
}

// New creates a new Metrics instance with all rules metrics registered.
func New() *Metrics {
	return &Metrics{
		Compilations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "candlepin_rules_compilations_total",
			Help: "Rule script compilations by result",
		}, []string{"result"}), // result: "ok", "failed"

		InvokeLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "candlepin_rules_invoke_duration_seconds",
			Help:    "Duration of rule function invocations",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}, []string{"function"}),

		InvokeErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "candlepin_rules_invoke_errors_total",
			Help: "Rule function invocations that raised an error",
		}, []string{"function"}),

		FallbackCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "candlepin_rules_fallback_calls_total",
			Help: "Invocations served by a built-in fallback",
		}, []string{"function"}),

		TimestampCache: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "candlepin_rules_timestamp_cache_total",
			Help: "Rules updated-timestamp cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss", "error", "bypass"
	}
}

func (m *Metrics) IncrementCompilation(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.Compilations.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveInvoke(function string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.InvokeLatency.WithLabelValues(function).Observe(d.Seconds())
	if err != nil {
		m.InvokeErrors.WithLabelValues(function).Inc()
	}
}

func (m *Metrics) IncrementFallback(function string) {
	if m != nil {
		m.FallbackCalls.WithLabelValues(function).Inc()
	}
}

func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.TimestampCache.WithLabelValues(result).Inc()
	}
}
