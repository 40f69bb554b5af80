// Package metrics provides Prometheus metrics for the quotation backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kpcalc/backend/internal/domain"
)

const namespace = "kpcalc"

// Recorder owns a registry and the collectors registered on it.
// It implements domain.PipelineObserver.
type Recorder struct {
	registry *prometheus.Registry

	matchedLines     *prometheus.CounterVec
	diagnostics      *prometheus.CounterVec
	pricingRuns      *prometheus.CounterVec
	pricingDuration  prometheus.Histogram
	lastShortfall    prometheus.Gauge
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	rateLimitRejects prometheus.Counter
}

// NewRecorder creates a recorder with a fresh registry, including Go runtime and process collectors
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		matchedLines: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "matching",
				Name:      "lines_total",
				Help:      "Total number of matched request lines by competitor outcome",
			},
			[]string{"competitor"},
		),

		diagnostics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "matching",
				Name:      "diagnostics_total",
				Help:      "Total number of line diagnostics by code and severity",
			},
			[]string{"code", "severity"},
		),

		pricingRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pricing",
				Name:      "runs_total",
				Help:      "Total number of pricing runs by target outcome",
			},
			[]string{"target"},
		),

		pricingDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pricing",
				Name:      "duration_seconds",
				Help:      "Duration of pricing runs in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),

		lastShortfall: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pricing",
				Name:      "last_shortfall",
				Help:      "Shortfall of the most recent pricing run in currency units",
			},
		),

		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests by route and status",
			},
			[]string{"method", "route", "status_code"},
		),

		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "route"},
		),

		rateLimitRejects: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "rejections_total",
				Help:      "Total number of requests rejected by the per-client rate limiter",
			},
		),
	}
}

// ObserveMatch records the outcome and diagnostics of one matched line
func (r *Recorder) ObserveMatch(line domain.MatchedLine) {
	outcome := "missing"
	if line.HasCompetitor {
		outcome = "found"
	}
	r.matchedLines.WithLabelValues(outcome).Inc()

	for _, d := range line.Diagnostics {
		r.diagnostics.WithLabelValues(string(d.Code), string(d.Severity)).Inc()
	}
}

// ObservePricing records one pricing run
func (r *Recorder) ObservePricing(result *domain.PricingResult, elapsed time.Duration) {
	target := "met"
	if result.HasShortfall() {
		target = "shortfall"
	}
	r.pricingRuns.WithLabelValues(target).Inc()
	r.pricingDuration.Observe(elapsed.Seconds())
	r.lastShortfall.Set(result.Shortfall)
}

// RecordHTTPRequest records one served HTTP request
func (r *Recorder) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordRateLimitRejection counts a request refused by the rate limiter
func (r *Recorder) RecordRateLimitRejection() {
	r.rateLimitRejects.Inc()
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
