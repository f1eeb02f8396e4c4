package metrics

import "github.com/prometheus/client_golang/prometheus"

// Usage-engine Prometheus metrics.
var (
	ConsumeDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studymeter",
			Name:      "consume_decisions_total",
			Help:      "Consume decisions by feature and outcome",
		},
		[]string{"feature", "outcome"}, // outcome: allowed / window_denied / feature_denied
	)

	StreakAdvancesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "studymeter",
			Name:      "streak_advances_total",
			Help:      "Total daily streak advances",
		},
	)
)

var usageMetricsRegistered bool

// RegisterUsageMetrics registers Prometheus usage metrics. Must be called once from main.
func RegisterUsageMetrics() {
	if usageMetricsRegistered {
		return
	}
	prometheus.MustRegister(ConsumeDecisionsTotal)
	prometheus.MustRegister(StreakAdvancesTotal)
	usageMetricsRegistered = true
}
