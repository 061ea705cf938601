// Package metrics exposes Prometheus metrics for the rating and stress-test
// engines and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "abfi"

// Outcome labels for rating calculations
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds every collector the service records into. All methods are
// safe on a nil receiver so components can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	ratingCalculations *prometheus.CounterVec
	compositeScore     prometheus.Histogram
	stressTests        *prometheus.CounterVec
	stressRiskScore    *prometheus.HistogramVec
	rescoreDuration    prometheus.Histogram
	rescoreFeedstocks  *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry that also carries the
// standard Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		ratingCalculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rating_calculations_total",
			Help:      "ABFI rating calculations by outcome.",
		}, []string{"outcome"}),
		compositeScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rating_composite_score",
			Help:      "Distribution of composite ABFI scores.",
			Buckets:   []float64{40, 55, 70, 85, 100},
		}),
		stressTests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stress_tests_total",
			Help:      "Stress tests run by scenario and covenant verdict.",
		}, []string{"scenario", "covenant"}),
		stressRiskScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stress_test_risk_score",
			Help:      "Distribution of stress test risk scores.",
			Buckets:   []float64{30, 50, 70, 100},
		}, []string{"scenario"}),
		rescoreDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rescore_duration_seconds",
			Help:      "Wall time of batch rescoring runs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		}),
		rescoreFeedstocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rescore_feedstocks_total",
			Help:      "Feedstocks processed by batch rescoring, by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.ratingCalculations,
		m.compositeScore,
		m.stressTests,
		m.stressRiskScore,
		m.rescoreDuration,
		m.rescoreFeedstocks,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RatingCalculated records a successful rating.
func (m *Metrics) RatingCalculated(score int) {
	if m == nil {
		return
	}
	m.ratingCalculations.WithLabelValues(OutcomeSuccess).Inc()
	m.compositeScore.Observe(float64(score))
}

// RatingFailed records a rating that returned an error.
func (m *Metrics) RatingFailed() {
	if m == nil {
		return
	}
	m.ratingCalculations.WithLabelValues(OutcomeError).Inc()
}

// StressTestRun records a completed stress test.
func (m *Metrics) StressTestRun(scenario, covenant string, riskScore int) {
	if m == nil {
		return
	}
	m.stressTests.WithLabelValues(scenario, covenant).Inc()
	m.stressRiskScore.WithLabelValues(scenario).Observe(float64(riskScore))
}

// RescoreCompleted records a batch rescoring run.
func (m *Metrics) RescoreCompleted(d time.Duration, scored, failed int) {
	if m == nil {
		return
	}
	m.rescoreDuration.Observe(d.Seconds())
	m.rescoreFeedstocks.WithLabelValues(OutcomeSuccess).Add(float64(scored))
	m.rescoreFeedstocks.WithLabelValues(OutcomeError).Add(float64(failed))
}

// HTTPRequest records one served request. route should be the route pattern,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) HTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
