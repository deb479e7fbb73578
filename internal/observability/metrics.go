package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	insightRequestsTotal  *prometheus.CounterVec
	insightLatencySeconds *prometheus.HistogramVec
	insightErrorsTotal    *prometheus.CounterVec
	reportsSavedTotal     *prometheus.CounterVec
	predictionsRegistered prometheus.Counter
	predictionsVerified   prometheus.Counter
	strategiesRegistered  prometheus.Counter
	achievementsAwarded   *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used for insight observability.
func RegisterMetrics() {
	registerOnce.Do(func() {
		insightRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insight_requests_total",
			Help: "Total number of insight API requests served.",
		}, []string{"method", "route", "status"})

		insightLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "insight_latency_seconds",
			Help:    "Latency distribution for insight API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		insightErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insight_errors_total",
			Help: "Total number of error responses returned by insight endpoints.",
		}, []string{"method", "route", "status"})

		reportsSavedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insight_reports_saved_total",
			Help: "Total number of analysis reports saved, by kind.",
		}, []string{"kind"})

		predictionsRegistered = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "insight_predictions_registered_total",
			Help: "Total number of score predictions registered.",
		})

		predictionsVerified = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "insight_predictions_verified_total",
			Help: "Total number of predictions verified against outcomes.",
		})

		strategiesRegistered = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "insight_strategies_registered_total",
			Help: "Total number of prescribed strategy records registered.",
		})

		achievementsAwarded = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insight_achievements_awarded_total",
			Help: "Total number of achievements awarded, by badge code.",
		}, []string{"code"})

		prometheus.MustRegister(
			insightRequestsTotal,
			insightLatencySeconds,
			insightErrorsTotal,
			reportsSavedTotal,
			predictionsRegistered,
			predictionsVerified,
			strategiesRegistered,
			achievementsAwarded,
		)
	})
}

// InsightRequests exposes the counter for insight requests.
func InsightRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return insightRequestsTotal
}

// InsightLatency exposes the latency histogram for insight requests.
func InsightLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return insightLatencySeconds
}

// InsightErrors exposes the counter for insight error responses.
func InsightErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return insightErrorsTotal
}

// ReportsSaved exposes the per-kind saved report counter.
func ReportsSaved() *prometheus.CounterVec {
	RegisterMetrics()
	return reportsSavedTotal
}

// PredictionsRegistered exposes the registered prediction counter.
func PredictionsRegistered() prometheus.Counter {
	RegisterMetrics()
	return predictionsRegistered
}

// PredictionsVerified exposes the verified prediction counter.
func PredictionsVerified() prometheus.Counter {
	RegisterMetrics()
	return predictionsVerified
}

// StrategiesRegistered exposes the registered strategy counter.
func StrategiesRegistered() prometheus.Counter {
	RegisterMetrics()
	return strategiesRegistered
}

// AchievementsAwarded exposes the per-badge award counter.
func AchievementsAwarded() *prometheus.CounterVec {
	RegisterMetrics()
	return achievementsAwarded
}
