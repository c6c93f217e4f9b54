package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
)

const namespace = "iam_dashboard_"

// PrometheusCollector implements the MetricsCollector interface using Prometheus
type PrometheusCollector struct {
	factory    promauto.Factory
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewPrometheusCollector creates a collector registering on reg. Pass
// prometheus.DefaultRegisterer to expose the metrics through promhttp.Handler.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	collector := &PrometheusCollector{
		factory:    promauto.With(reg),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}

	collector.initializeMetrics()

	return collector
}

var _ interfaces.MetricsCollector = (*PrometheusCollector)(nil)

func (p *PrometheusCollector) initializeMetrics() {
	// Dashboard HTTP metrics
	p.RegisterCustomCounter("http_requests_total", "Total number of HTTP requests",
		[]string{"method", "endpoint", "status_code"})
	p.RegisterCustomHistogram("http_request_duration_seconds", "HTTP request duration in seconds",
		[]string{"method", "endpoint", "status_code"}, nil)

	// IAM backend metrics
	p.RegisterCustomCounter("backend_requests_total", "Total number of IAM backend requests",
		[]string{"resource", "operation", "status"})
	p.RegisterCustomHistogram("backend_request_duration_seconds", "IAM backend request duration in seconds",
		[]string{"resource", "operation"}, []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0})

	p.RegisterCustomCounter("logins_total", "Total number of dashboard sign-in attempts",
		[]string{"status"})

	// Request tester metrics
	p.RegisterCustomCounter("tester_runs_total", "Total number of API explorer test runs",
		[]string{"endpoint", "outcome"}) // outcome: success, failure, cors
	p.RegisterCustomHistogram("tester_run_duration_seconds", "API explorer test run duration in seconds",
		[]string{"endpoint"}, []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0})

	p.RegisterCustomGauge("workspaces_active", "Number of live API explorer workspaces", []string{})
}

// IncrementCounter increments a counter metric
func (p *PrometheusCollector) IncrementCounter(name string, labels map[string]string) {
	counter, exists := p.counters[name]
	if !exists {
		return
	}

	counter.With(labels).Inc()
}

// RecordDuration records a duration in a histogram
func (p *PrometheusCollector) RecordDuration(name string, duration float64, labels map[string]string) {
	histogram, exists := p.histograms[name]
	if !exists {
		return
	}

	histogram.With(labels).Observe(duration)
}

// SetGauge sets a gauge value
func (p *PrometheusCollector) SetGauge(name string, value float64, labels map[string]string) {
	gauge, exists := p.gauges[name]
	if !exists {
		return
	}

	gauge.With(labels).Set(value)
}

// RegisterCustomCounter registers a new counter metric
func (p *PrometheusCollector) RegisterCustomCounter(name, help string, labels []string) {
	if _, exists := p.counters[name]; exists {
		return
	}

	p.counters[name] = p.factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: namespace + name,
			Help: help,
		},
		labels,
	)
}

// RegisterCustomHistogram registers a new histogram metric
func (p *PrometheusCollector) RegisterCustomHistogram(name, help string, labels []string, buckets []float64) {
	if _, exists := p.histograms[name]; exists {
		return
	}

	if buckets == nil {
		buckets = prometheus.DefBuckets
	}

	p.histograms[name] = p.factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    namespace + name,
			Help:    help,
			Buckets: buckets,
		},
		labels,
	)
}

// RegisterCustomGauge registers a new gauge metric
func (p *PrometheusCollector) RegisterCustomGauge(name, help string, labels []string) {
	if _, exists := p.gauges[name]; exists {
		return
	}

	p.gauges[name] = p.factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: namespace + name,
			Help: help,
		},
		labels,
	)
}
