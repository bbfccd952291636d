package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ReconcileOutcomeOK    = "ok"
	ReconcileOutcomeError = "error"
)

// ReconcileMetrics captures reconcile worker health signals.
type ReconcileMetrics struct {
	runs              *prometheus.CounterVec
	runDuration       prometheus.Observer
	trackedContracts  prometheus.Gauge
	overdueContracts  prometheus.Gauge
	snapshotsExamined prometheus.Counter
}

var (
	reconcileMetricsOnce sync.Once
	reconcileMetrics     *ReconcileMetrics
)

// Reconcile returns the singleton reconcile metrics registry.
func Reconcile() *ReconcileMetrics {
	return ReconcileWithConfig(Config{})
}

// ReconcileWithConfig returns the singleton reconcile metrics registry using config labels.
func ReconcileWithConfig(cfg Config) *ReconcileMetrics {
	reconcileMetricsOnce.Do(func() {
		reconcileMetrics = newReconcileMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return reconcileMetrics
}

// ResetReconcileMetricsForTest resets the reconcile metrics singleton for tests.
func ResetReconcileMetricsForTest() {
	reconcileMetricsOnce = sync.Once{}
	reconcileMetrics = nil
}

func newReconcileMetrics(registerer prometheus.Registerer, cfg Config) *ReconcileMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "tradewind"
	}
	constLabels := prometheus.Labels{"service": serviceName}

	runs := registerCounterVec(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "tradewind_reconcile_runs_total",
		Help:        "Reconcile worker runs by outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"}))

	duration := registerHistogramVec(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "tradewind_reconcile_run_duration_seconds",
		Help:        "Reconcile worker run latency.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: constLabels,
	}, []string{}))

	tracked := registerGauge(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "tradewind_reconcile_tracked_contracts",
		Help:        "Contracts with at least one snapshot after the latest run.",
		ConstLabels: constLabels,
	}))

	overdue := registerGauge(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "tradewind_reconcile_overdue_contracts",
		Help:        "Open contracts whose effective deadline has passed.",
		ConstLabels: constLabels,
	}))

	examined := registerCounterVec(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "tradewind_reconcile_snapshots_examined_total",
		Help:        "Snapshots examined across reconcile runs.",
		ConstLabels: constLabels,
	}, []string{}))

	return &ReconcileMetrics{
		runs:              runs,
		runDuration:       duration.WithLabelValues(),
		trackedContracts:  tracked,
		overdueContracts:  overdue,
		snapshotsExamined: examined.WithLabelValues(),
	}
}

// ObserveRun records one worker pass.
func (m *ReconcileMetrics) ObserveRun(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = ReconcileOutcomeOK
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}

// SetTrackedContracts records the contract population size.
func (m *ReconcileMetrics) SetTrackedContracts(count int) {
	if m == nil {
		return
	}
	m.trackedContracts.Set(float64(count))
}

// SetOverdueContracts records how many open contracts are past deadline.
func (m *ReconcileMetrics) SetOverdueContracts(count int) {
	if m == nil {
		return
	}
	m.overdueContracts.Set(float64(count))
}

// AddSnapshotsExamined accumulates examined snapshot counts.
func (m *ReconcileMetrics) AddSnapshotsExamined(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.snapshotsExamined.Add(float64(count))
}
