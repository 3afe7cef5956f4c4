package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for pave resolution runs.
type Metrics struct {
	config MetricsConfig

	// Resolution metrics
	resolutionsStarted   *prometheus.CounterVec
	resolutionsCompleted *prometheus.CounterVec
	resolutionDuration   *prometheus.HistogramVec

	// Component metrics
	componentsResolved *prometheus.CounterVec
	componentFailures  *prometheus.CounterVec

	// Binding metrics
	grantsIssued    *prometheus.CounterVec
	bindingFailures *prometheus.CounterVec

	// Defaults cache metrics
	defaultsCacheLoads *prometheus.CounterVec

	// Error metrics
	errorsByKind *prometheus.CounterVec

	// System metrics
	activeResolutions prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// No-op instance: every recorder checks for nil vectors.
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		resolutionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_started_total",
				Help:      "Total number of resolution runs started",
			},
			[]string{"service", "environment"},
		),
		resolutionsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_completed_total",
				Help:      "Total number of resolution runs completed",
			},
			[]string{"state"},
		),
		resolutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolution_duration_seconds",
				Help:      "Duration of resolution runs in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"state"},
		),

		componentsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "components_resolved_total",
				Help:      "Total number of components resolved",
			},
			[]string{"component_type"},
		),
		componentFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "component_failures_total",
				Help:      "Total number of component resolution failures",
			},
			[]string{"component_type", "kind"},
		),

		grantsIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "access_grants_issued_total",
				Help:      "Total number of access grants issued",
			},
			[]string{"capability", "access"},
		),
		bindingFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "binding_failures_total",
				Help:      "Total number of binding resolution failures",
			},
			[]string{"capability"},
		),

		defaultsCacheLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "defaults_cache_loads_total",
				Help:      "Total number of compliance defaults document loads",
			},
			[]string{"framework"},
		),

		errorsByKind: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_kind_total",
				Help:      "Total number of resolution errors by kind",
			},
			[]string{"kind"},
		),

		activeResolutions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_resolutions",
				Help:      "Current number of in-flight resolution runs",
			},
		),
	}

	registry.MustRegister(
		m.resolutionsStarted,
		m.resolutionsCompleted,
		m.resolutionDuration,
		m.componentsResolved,
		m.componentFailures,
		m.grantsIssued,
		m.bindingFailures,
		m.defaultsCacheLoads,
		m.errorsByKind,
		m.activeResolutions,
	)

	return m, nil
}

// RecordResolutionStarted increments the counter for started runs.
func (m *Metrics) RecordResolutionStarted(service, environment string) {
	if m.resolutionsStarted == nil {
		return
	}
	m.resolutionsStarted.WithLabelValues(service, environment).Inc()
	m.activeResolutions.Inc()
}

// RecordResolutionCompleted records a finished run with its terminal state
// and duration.
func (m *Metrics) RecordResolutionCompleted(state string, duration time.Duration) {
	if m.resolutionsCompleted == nil {
		return
	}
	m.resolutionsCompleted.WithLabelValues(state).Inc()
	m.resolutionDuration.WithLabelValues(state).Observe(duration.Seconds())
	m.activeResolutions.Dec()
}

// RecordComponentResolved records a successfully resolved component.
func (m *Metrics) RecordComponentResolved(componentType string) {
	if m.componentsResolved == nil {
		return
	}
	m.componentsResolved.WithLabelValues(componentType).Inc()
}

// RecordComponentFailure records a component resolution failure by error kind.
func (m *Metrics) RecordComponentFailure(componentType, kind string) {
	if m.componentFailures == nil {
		return
	}
	m.componentFailures.WithLabelValues(componentType, kind).Inc()
}

// RecordGrantIssued records an issued access grant.
func (m *Metrics) RecordGrantIssued(capability, access string) {
	if m.grantsIssued == nil {
		return
	}
	m.grantsIssued.WithLabelValues(capability, access).Inc()
}

// RecordBindingFailure records a failed binding resolution.
func (m *Metrics) RecordBindingFailure(capability string) {
	if m.bindingFailures == nil {
		return
	}
	m.bindingFailures.WithLabelValues(capability).Inc()
}

// RecordDefaultsLoad records a compliance defaults document load.
func (m *Metrics) RecordDefaultsLoad(framework string) {
	if m.defaultsCacheLoads == nil {
		return
	}
	m.defaultsCacheLoads.WithLabelValues(framework).Inc()
}

// RecordError records a resolution error by kind.
func (m *Metrics) RecordError(kind string) {
	if m.errorsByKind == nil {
		return
	}
	m.errorsByKind.WithLabelValues(kind).Inc()
}

// Handler returns an HTTP handler serving the metrics registry.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing the metrics endpoint. It blocks, so
// callers run it in a goroutine.
func (m *Metrics) Serve() error {
	if !m.config.Enabled {
		return nil
	}
	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	if err := http.ListenAndServe(m.config.ListenAddress, mux); err != nil {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

// Registry exposes the underlying Prometheus registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
