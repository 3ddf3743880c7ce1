// Package metrics provides Prometheus metrics for lootscale runs.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the lootscale collectors on one registry.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	rowsTotal         *prometheus.CounterVec
	fieldChangesTotal *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	runDuration       *prometheus.HistogramVec
	lastRunTimestamp  prometheus.Gauge
	tableRows         prometheus.Gauge
}

var (
	globalMu       sync.RWMutex
	globalManager  *Manager           //nolint:gochecknoglobals // package-level helpers record into it
	customRegistry *prometheus.Registry //nolint:gochecknoglobals // keeps Go runtime collectors out of the textfile
)

func init() { //nolint:gochecknoinits // global metrics setup
	Reset()
}

// Reset replaces the global registry and manager. Tests use it to start from
// zeroed counters.
func Reset() {
	globalMu.Lock()
	defer globalMu.Unlock()
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "lootscale",
		subsystem:        "engine",
		histogramBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.rowsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_total",
		Help:        "Rows visited by the table walker, by classification",
		ConstLabels: m.constLabels,
	}, []string{"classification"})

	m.fieldChangesTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "field_changes_total",
		Help:        "Fields written by the row transformer, by field and adjustment",
		ConstLabels: m.constLabels,
	}, []string{"field", "adjustment"})

	m.errorsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_total",
		Help:        "Fatal run errors by kind",
		ConstLabels: m.constLabels,
	}, []string{"kind"})

	m.runDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "run_duration_seconds",
		Help:        "Duration of run stages in seconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"stage"})

	m.lastRunTimestamp = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_run_timestamp_seconds",
		Help:        "Unix time of the last completed run",
		ConstLabels: m.constLabels,
	})

	m.tableRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "table_rows",
		Help:        "Rows in the last table processed",
		ConstLabels: m.constLabels,
	})
}

// RecordRows adds n rows of the given classification.
func (m *Manager) RecordRows(classification string, n int) {
	m.rowsTotal.WithLabelValues(classification).Add(float64(n))
}

// RecordFieldChange counts one written field.
func (m *Manager) RecordFieldChange(field, adjustment string) {
	m.fieldChangesTotal.WithLabelValues(field, adjustment).Inc()
}

// RecordError counts one fatal error of the given kind.
func (m *Manager) RecordError(kind string) {
	m.errorsTotal.WithLabelValues(kind).Inc()
}

// ObserveStage records how long a run stage took.
func (m *Manager) ObserveStage(stage string, d time.Duration) {
	m.runDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// MarkRun stamps a completed run over a table of rows records.
func (m *Manager) MarkRun(at time.Time, rows int) {
	m.lastRunTimestamp.Set(float64(at.Unix()))
	m.tableRows.Set(float64(rows))
}

func current() *Manager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalManager
}

// RecordRows adds rows to the global manager.
func RecordRows(classification string, n int) { current().RecordRows(classification, n) }

// RecordFieldChange counts a written field on the global manager.
func RecordFieldChange(field, adjustment string) { current().RecordFieldChange(field, adjustment) }

// RecordError counts a fatal error on the global manager.
func RecordError(kind string) { current().RecordError(kind) }

// ObserveStage records a stage duration on the global manager.
func ObserveStage(stage string, d time.Duration) { current().ObserveStage(stage, d) }

// MarkRun stamps a completed run on the global manager.
func MarkRun(at time.Time, rows int) { current().MarkRun(at, rows) }

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return customRegistry
}

// WriteTextfile writes the global registry in the text exposition format for
// the node_exporter textfile collector.
func WriteTextfile(path string) error {
	if path == "" {
		return ErrNoTextfile
	}
	if err := prometheus.WriteToTextfile(path, GetRegistry()); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTextfile, err)
	}
	return nil
}
