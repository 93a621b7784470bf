package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/Wysakm/weather-app-backend-sub001/pkg/imagesync"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/metrics"
)

func TestNewImageSyncMetrics_Disabled(t *testing.T) {
	metrics.Reset()
	assert.Nil(t, NewImageSyncMetrics())
}

func TestNewImageSyncMetrics_Enabled(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(metrics.Reset)

	assert.NotNil(t, NewImageSyncMetrics())
}

func TestImageSyncMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newImageSyncMetrics(reg)

	m.ObserveRun(imagesync.ModeReconcile, false, "ok", 2*time.Second)
	m.ObserveRun(imagesync.ModeAnalyze, true, "error", time.Second)
	m.SetDiscrepancies(3, 7)
	m.RecordOutcome(imagesync.OutcomeReplaced, false)
	m.RecordOutcome(imagesync.OutcomeReplaced, false)
	m.RecordOutcome(imagesync.OutcomeCleared, true)
	m.RecordOrphansRemoved(4)
	m.RecordOrphansRemoved(0)
	m.RecordItemErrors("delete", 1)
	m.RecordItemErrors("update", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("reconcile", "false", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("analyze", "true", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.brokenRefs))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.orphanObjects))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.outcomesTotal.WithLabelValues("replaced", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outcomesTotal.WithLabelValues("cleared", "true")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.orphansRemoved))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.itemErrors.WithLabelValues("delete")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.itemErrors), "zero counts create no series")
}

func TestImageSyncMetrics_NilSafe(t *testing.T) {
	var m *imageSyncMetrics
	assert.NotPanics(t, func() {
		m.ObserveRun(imagesync.ModeAnalyze, true, "ok", 0)
		m.SetDiscrepancies(1, 1)
		m.RecordOutcome("replaced", true)
		m.RecordOrphansRemoved(1)
		m.RecordItemErrors("delete", 1)
	})
}
