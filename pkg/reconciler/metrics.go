package reconciler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "reconciler").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "reconciler",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors updated by the reconciler.
type Metrics struct {
	rendersTotal   *prometheus.CounterVec
	renderDuration prometheus.Histogram
	yieldsTotal    prometheus.Counter
	restartsTotal  prometheus.Counter
	commitsTotal   prometheus.Counter
	hostMutations  *prometheus.CounterVec
	passiveEffects *prometheus.CounterVec
	renderErrors   prometheus.Counter
}

// NewMetrics registers the reconciler collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Render passes by lane and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"lane", "status"}),

		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Duration of one render slice in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		yieldsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "yields_total",
			Help:        "Time-sliced renders that yielded to the scheduler",
			ConstLabels: config.ConstLabels,
		}),

		restartsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_restarts_total",
			Help:        "In-flight renders discarded for a different lane or root",
			ConstLabels: config.ConstLabels,
		}),

		commitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commits_total",
			Help:        "Committed trees",
			ConstLabels: config.ConstLabels,
		}),

		hostMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "host_mutations_total",
			Help:        "Host mutations applied during commit by operation",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		passiveEffects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passive_effects_total",
			Help:        "Passive effect callbacks run by phase",
			ConstLabels: config.ConstLabels,
		}, []string{"phase"}),

		renderErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_errors_total",
			Help:        "Renders abandoned because a component panicked",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// The record methods accept a nil receiver so call sites need no checks.

func (m *Metrics) render(l string, status string, seconds float64) {
	if m == nil {
		return
	}
	m.rendersTotal.WithLabelValues(l, status).Inc()
	m.renderDuration.Observe(seconds)
}

func (m *Metrics) yield() {
	if m == nil {
		return
	}
	m.yieldsTotal.Inc()
}

func (m *Metrics) restart() {
	if m == nil {
		return
	}
	m.restartsTotal.Inc()
}

func (m *Metrics) commit() {
	if m == nil {
		return
	}
	m.commitsTotal.Inc()
}

func (m *Metrics) mutation(op string) {
	if m == nil {
		return
	}
	m.hostMutations.WithLabelValues(op).Inc()
}

func (m *Metrics) passive(phase string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.passiveEffects.WithLabelValues(phase).Add(float64(n))
}

func (m *Metrics) renderError() {
	if m == nil {
		return
	}
	m.renderErrors.Inc()
}
