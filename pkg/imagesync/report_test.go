package imagesync

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestReportBuilder(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("CountsAndErrors", func(t *testing.T) {
		b := NewReportBuilder("run-1", ModeReconcile, false, start)
		b.AddAnalysis(&Analysis{References: 4, WithLocator: 3, Objects: 5, Matched: 1,
			Broken:  []BrokenReference{{EntityID: "A"}, {EntityID: "B"}},
			Orphans: []string{"posts/x.jpg"},
		}, true)

		b.AddOutcome(Replaced{EntityID: "A", NewLocator: "https://h/b/k", Key: "k"})
		b.AddOutcome(Failed{EntityID: "B", Err: errors.New("locked")})
		b.AddReclaim(ReclaimResult{Removed: 1, Errors: []string{"Failed to delete posts/y.jpg: gone"}})

		r := b.Build(start.Add(2 * time.Second))

		assert.Equal(t, 4, r.ReferencesScanned)
		assert.Equal(t, 5, r.ObjectsScanned)
		assert.Equal(t, 2, r.BrokenCount)
		assert.Equal(t, 1, r.OrphanCount)
		assert.Equal(t, 1, r.FixedCount)
		assert.Equal(t, 1, r.RemovedOrphanCount)
		assert.Equal(t, []string{
			"Failed to update B: locked",
			"Failed to delete posts/y.jpg: gone",
		}, r.Errors)
		assert.Equal(t, 2*time.Second, r.Duration())
	})

	t.Run("BuildReturnsIndependentCopies", func(t *testing.T) {
		b := NewReportBuilder("run-1", ModeCleanup, true, start)
		first := b.Build(start)
		b.AddReclaim(ReclaimResult{Errors: []string{"Failed to delete k: x"}})
		second := b.Build(start)

		assert.Empty(t, first.Errors)
		assert.Len(t, second.Errors, 1)
	})

	t.Run("CancelIsIdempotent", func(t *testing.T) {
		b := NewReportBuilder("run-1", ModeRepair, false, start)
		b.Cancel()
		b.AddReclaim(ReclaimResult{Cancelled: true})

		r := b.Build(start)
		assert.True(t, r.Cancelled)
		assert.Equal(t, []string{"cancelled"}, r.Errors)
	})

	t.Run("LimitSkipMarksLimitReached", func(t *testing.T) {
		b := NewReportBuilder("run-1", ModeRepair, false, start)
		b.AddOutcome(Skipped{EntityID: "A", Reason: ReasonCandidateVanished})
		assert.False(t, b.Build(start).LimitReached)

		b.AddOutcome(Skipped{EntityID: "B", Reason: ReasonRepairLimit})
		assert.True(t, b.Build(start).LimitReached)
	})
}

func TestRecordOf(t *testing.T) {
	assert.Equal(t, OutcomeRecord{EntityID: "A", Kind: OutcomeCleared}, RecordOf(Cleared{EntityID: "A"}))
	assert.Equal(t, OutcomeRecord{EntityID: "A", Kind: OutcomeFailed}, RecordOf(Failed{EntityID: "A"}))
	assert.Equal(t, OutcomeSkipped, KindOf(Skipped{EntityID: "A", Reason: "r"}))
	assert.Equal(t, "unknown(<nil>)", KindOf(nil))
}

func TestReportEncoding(t *testing.T) {
	r := NewReportBuilder("run-1", ModeAnalyze, true, time.Time{}).Build(time.Time{})

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"errors":[]`)
	assert.Contains(t, string(data), `"fixed_count":0`)
	assert.NotContains(t, string(data), "cancelled")

	out, err := yaml.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), "mode: analyze")
	assert.Contains(t, string(out), "dry_run: true")
}
