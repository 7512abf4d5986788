package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the backup and restore counters served on /metrics.
type Metrics struct {
	backupCycles     *prometheus.CounterVec
	backupDuration   prometheus.Histogram
	snapshotBytes    prometheus.Gauge
	snapshotsDeleted prometheus.Counter
	restoreRuns      *prometheus.CounterVec
	restoredRecords  prometheus.Counter
}

// NewMetrics registers the collectors with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		backupCycles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grindvault_backup_cycles_total",
			Help: "Backup cycles by terminal result",
		}, []string{"result"}),
		backupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "grindvault_backup_duration_seconds",
			Help:    "Duration of backup cycles",
			Buckets: prometheus.DefBuckets,
		}),
		snapshotBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "grindvault_snapshot_size_bytes",
			Help: "Size of the most recent snapshot payload",
		}),
		snapshotsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "grindvault_snapshots_deleted_total",
			Help: "Remote snapshots deleted by retention cleanup",
		}),
		restoreRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grindvault_restore_runs_total",
			Help: "Restore invocations by terminal result",
		}, []string{"result"}),
		restoredRecords: factory.NewCounter(prometheus.CounterOpts{
			Name: "grindvault_restored_questions_total",
			Help: "Questions newly created by restore runs",
		}),
	}
}

// ObserveBackup records one finished backup cycle.
func (m *Metrics) ObserveBackup(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.backupCycles.WithLabelValues(result).Inc()
	m.backupDuration.Observe(duration.Seconds())
}

// SetSnapshotSize records the payload size of the latest snapshot.
func (m *Metrics) SetSnapshotSize(bytes int) {
	if m == nil {
		return
	}
	m.snapshotBytes.Set(float64(bytes))
}

// AddSnapshotsDeleted counts snapshots removed during retention cleanup.
func (m *Metrics) AddSnapshotsDeleted(n int) {
	if m == nil {
		return
	}
	m.snapshotsDeleted.Add(float64(n))
}

// ObserveRestore records one finished restore run.
func (m *Metrics) ObserveRestore(result string, created int) {
	if m == nil {
		return
	}
	m.restoreRuns.WithLabelValues(result).Inc()
	if created > 0 {
		m.restoredRecords.Add(float64(created))
	}
}
