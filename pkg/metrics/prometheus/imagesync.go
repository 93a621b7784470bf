// Package prometheus implements engine metrics on the shared registry.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Wysakm/weather-app-backend-sub001/pkg/imagesync"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/metrics"
)

// imageSyncMetrics is the Prometheus implementation of imagesync.Metrics.
type imageSyncMetrics struct {
	runsTotal      *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	lastRun        prometheus.Gauge
	brokenRefs     prometheus.Gauge
	orphanObjects  prometheus.Gauge
	outcomesTotal  *prometheus.CounterVec
	orphansRemoved prometheus.Counter
	itemErrors     *prometheus.CounterVec
}

// NewImageSyncMetrics returns nil when metrics are disabled.
//
// The result must be checked against nil before being stored in an
// imagesync.Options, otherwise the interface holds a typed nil.
func NewImageSyncMetrics() imagesync.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return newImageSyncMetrics(metrics.GetRegistry())
}

func newImageSyncMetrics(reg prometheus.Registerer) *imageSyncMetrics {
	f := promauto.With(reg)
	return &imageSyncMetrics{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imgsync_runs_total",
				Help: "Total number of reconciliation runs by mode, dry-run flag and status",
			},
			[]string{"mode", "dry_run", "status"},
		),
		runDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "imgsync_run_duration_seconds",
				Help: "Wall time of reconciliation runs",
				Buckets: []float64{
					0.1, // small buckets
					0.5,
					1,
					5,
					15,
					60, // full scans of large buckets
					300,
				},
			},
			[]string{"mode"},
		),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "imgsync_last_run_timestamp_seconds",
			Help: "Unix time of the last finished run",
		}),
		brokenRefs: f.NewGauge(prometheus.GaugeOpts{
			Name: "imgsync_broken_references",
			Help: "Broken image references found by the last run",
		}),
		orphanObjects: f.NewGauge(prometheus.GaugeOpts{
			Name: "imgsync_orphan_objects",
			Help: "Orphan objects found by the last run",
		}),
		outcomesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imgsync_repair_outcomes_total",
				Help: "Repair outcomes by kind and dry-run flag",
			},
			[]string{"kind", "dry_run"},
		),
		orphansRemoved: f.NewCounter(prometheus.CounterOpts{
			Name: "imgsync_orphans_removed_total",
			Help: "Orphan objects deleted",
		}),
		itemErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imgsync_item_errors_total",
				Help: "Per-item failures by operation",
			},
			[]string{"operation"},
		),
	}
}

func (m *imageSyncMetrics) ObserveRun(mode imagesync.Mode, dryRun bool, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(string(mode), strconv.FormatBool(dryRun), status).Inc()
	m.runDuration.WithLabelValues(string(mode)).Observe(d.Seconds())
	m.lastRun.SetToCurrentTime()
}

func (m *imageSyncMetrics) SetDiscrepancies(broken, orphans int) {
	if m == nil {
		return
	}
	m.brokenRefs.Set(float64(broken))
	m.orphanObjects.Set(float64(orphans))
}

func (m *imageSyncMetrics) RecordOutcome(kind string, dryRun bool) {
	if m == nil {
		return
	}
	m.outcomesTotal.WithLabelValues(kind, strconv.FormatBool(dryRun)).Inc()
}

func (m *imageSyncMetrics) RecordOrphansRemoved(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.orphansRemoved.Add(float64(n))
}

func (m *imageSyncMetrics) RecordItemErrors(operation string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.itemErrors.WithLabelValues(operation).Add(float64(n))
}
