package imagesync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobmemory "github.com/Wysakm/weather-app-backend-sub001/pkg/blob/memory"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/reference"
	refmemory "github.com/Wysakm/weather-app-backend-sub001/pkg/reference/memory"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, refs ReferenceStore, objects ObjectStore, opts Options) *Engine {
	t.Helper()
	if opts.Locator.Bucket == "" {
		opts.Locator.Bucket = "my-bucket"
	}
	opts.NewRunID = func() string { return "run-1" }
	opts.Now = func() time.Time { return testStart }

	e, err := New(refs, objects, opts)
	require.NoError(t, err)
	return e
}

// cancelOnUpdate cancels the run after the first successful update.
type cancelOnUpdate struct {
	*refmemory.Store
	cancel context.CancelFunc
}

func (c *cancelOnUpdate) UpdateImageReference(ctx context.Context, id string, locator *string) error {
	err := c.Store.UpdateImageReference(ctx, id, locator)
	c.cancel()
	return err
}

// vanishAfterList deletes a key right after the listing that saw it.
type vanishAfterList struct {
	*blobmemory.Store
	key string
}

func (v *vanishAfterList) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	keys, err := v.Store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return keys, v.Store.DeleteObject(ctx, v.key)
}

type fakeMetrics struct {
	runs     []string
	broken   int
	orphans  int
	outcomes map[string]int
	removed  int
	errs     map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{outcomes: map[string]int{}, errs: map[string]int{}}
}

func (f *fakeMetrics) ObserveRun(mode Mode, _ bool, status string, _ time.Duration) {
	f.runs = append(f.runs, string(mode)+":"+status)
}
func (f *fakeMetrics) SetDiscrepancies(broken, orphans int) { f.broken, f.orphans = broken, orphans }
func (f *fakeMetrics) RecordOutcome(kind string, _ bool)    { f.outcomes[kind]++ }
func (f *fakeMetrics) RecordOrphansRemoved(n int)           { f.removed += n }
func (f *fakeMetrics) RecordItemErrors(op string, n int)    { f.errs[op] += n }

func TestNew_Validation(t *testing.T) {
	refs, objects := refmemory.New(), blobmemory.New()

	_, err := New(nil, objects, Options{Locator: Locator{Bucket: "b"}})
	assert.Error(t, err)
	_, err = New(refs, nil, Options{Locator: Locator{Bucket: "b"}})
	assert.Error(t, err)
	_, err = New(refs, objects, Options{})
	assert.Error(t, err)

	e, err := New(refs, objects, Options{Locator: Locator{Bucket: "b"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultStorageHost, e.Rules().Locator.Host)
	assert.Equal(t, DefaultPrefix, e.Rules().Locator.Prefix)
	assert.Equal(t, DefaultPrefixLength, e.Rules().Matcher.PrefixLength)
}

func TestEngine_Analyze(t *testing.T) {
	refs := refmemory.New(ref("A", "posts/1-x.jpg"))
	objects := blobmemory.New("posts/1-x.jpg", "posts/2-orphan.jpg")
	e := newTestEngine(t, refs, objects, Options{})

	report, err := e.Run(context.Background(), ModeAnalyze, false)
	require.NoError(t, err)

	assert.True(t, report.DryRun, "analyze is always a dry run")
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, ModeAnalyze, report.Mode)
	assert.Zero(t, report.BrokenCount)
	assert.Equal(t, 1, report.OrphanCount)
	assert.Equal(t, []string{"posts/2-orphan.jpg"}, report.Orphans)
	assert.Empty(t, report.Errors)
	assert.Zero(t, objects.DeleteCalls())
}

func TestEngine_ReplacesWithCandidate(t *testing.T) {
	newStores := func() (*refmemory.Store, *blobmemory.Store) {
		return refmemory.New(ref("D", "https://storage.googleapis.com/my-bucket/posts/99-timestamp-sunset-beach.jpg")),
			blobmemory.New("posts/5-other-sunset-beach-resized.jpg")
	}
	want := "https://storage.googleapis.com/my-bucket/posts/5-other-sunset-beach-resized.jpg"

	t.Run("Execute", func(t *testing.T) {
		refs, objects := newStores()
		e := newTestEngine(t, refs, objects, Options{})

		report, err := e.Reconcile(context.Background(), false)
		require.NoError(t, err)

		assert.Equal(t, 1, report.FixedCount)
		require.Len(t, report.Outcomes, 1)
		assert.Equal(t, OutcomeReplaced, report.Outcomes[0].Kind)
		assert.Equal(t, want, report.Outcomes[0].NewLocator)

		loc, ok := refs.Get("D")
		require.True(t, ok)
		require.NotNil(t, loc)
		assert.Equal(t, want, *loc)

		// The adopted candidate is not reclaimed as an orphan.
		assert.Zero(t, report.RemovedOrphanCount)
		assert.Equal(t, []string{"posts/5-other-sunset-beach-resized.jpg"}, objects.Keys())
	})

	t.Run("DryRun", func(t *testing.T) {
		refs, objects := newStores()
		e := newTestEngine(t, refs, objects, Options{})

		report, err := e.Repair(context.Background(), true)
		require.NoError(t, err)

		assert.Equal(t, 1, report.FixedCount)
		assert.Equal(t, OutcomeReplaced, report.Outcomes[0].Kind)
		assert.Zero(t, refs.UpdateCalls())
		assert.Zero(t, objects.ExistsCalls())
	})
}

func TestEngine_ClearsWithoutCandidate(t *testing.T) {
	refs := refmemory.New(ref("E", "posts/7-1700000000-mountain-view.jpg"))
	objects := blobmemory.New("posts/1-1699999999-harbor-lights.jpg")
	e := newTestEngine(t, refs, objects, Options{})

	report, err := e.Repair(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.FixedCount)
	assert.Equal(t, OutcomeCleared, report.Outcomes[0].Kind)

	loc, ok := refs.Get("E")
	require.True(t, ok)
	assert.Nil(t, loc)

	// Repair mode leaves orphans alone.
	assert.Zero(t, objects.DeleteCalls())
}

func TestEngine_DryRunMutatesNothing(t *testing.T) {
	refs := refmemory.New(
		ref("A", "posts/1-a-alps.jpg"),
		ref("B", "posts/2-b-gone.jpg"),
		ref("C", "https://storage.googleapis.com/my-bucket/posts/3-c-sunset-beach.jpg"),
		reference.ImageReference{EntityID: "N"},
	)
	objects := blobmemory.New("posts/1-a-alps.jpg", "posts/4-d-sunset-beach.jpg", "posts/5-1-stale-upload.jpg")
	before := refs.Snapshot()
	keysBefore := objects.Keys()

	e := newTestEngine(t, refs, objects, Options{})
	report, err := e.Reconcile(context.Background(), true)
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.BrokenCount)
	assert.Equal(t, 2, report.FixedCount)
	assert.Zero(t, report.RemovedOrphanCount)

	assert.Zero(t, refs.UpdateCalls())
	assert.Zero(t, objects.DeleteCalls())
	assert.Zero(t, objects.ExistsCalls())
	assert.Equal(t, before, refs.Snapshot())
	assert.Equal(t, keysBefore, objects.Keys())
}

func TestEngine_CleanupIsIdempotent(t *testing.T) {
	refs := refmemory.New(ref("A", "posts/1-x.jpg"))
	objects := blobmemory.New("posts/1-x.jpg", "posts/2-orphan.jpg", "posts/3-orphan.jpg")
	e := newTestEngine(t, refs, objects, Options{})
	ctx := context.Background()

	first, err := e.Cleanup(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, first.RemovedOrphanCount)

	second, err := e.Cleanup(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, second.OrphanCount)
	assert.Zero(t, second.RemovedOrphanCount)
	assert.Empty(t, second.Errors)
	assert.Equal(t, []string{"posts/1-x.jpg"}, objects.Keys())
}

func TestEngine_ItemFailuresAreReportedInOrder(t *testing.T) {
	refs := refmemory.New(
		ref("A", "posts/1-a-gone.jpg"),
		ref("B", "posts/2-b-lost.jpg"),
	)
	refs.FailUpdate("B", errors.New("db down"))
	objects := blobmemory.New("posts/9-1-stale-upload.jpg", "posts/8-1-old-banner.jpg")
	objects.FailDelete("posts/9-1-stale-upload.jpg", errors.New("forbidden"))
	metrics := newFakeMetrics()

	e := newTestEngine(t, refs, objects, Options{Metrics: metrics})
	report, err := e.Reconcile(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.FixedCount)
	assert.Equal(t, 1, report.RemovedOrphanCount)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, "Failed to update B: memory update B: db down", report.Errors[0])
	assert.Equal(t, "Failed to delete posts/9-1-stale-upload.jpg: memory delete posts/9-1-stale-upload.jpg: forbidden", report.Errors[1])

	loc, _ := refs.Get("A")
	assert.Nil(t, loc)
	loc, _ = refs.Get("B")
	require.NotNil(t, loc)
	assert.Equal(t, "posts/2-b-lost.jpg", *loc)

	assert.Equal(t, []string{"reconcile:ok"}, metrics.runs)
	assert.Equal(t, 2, metrics.broken)
	assert.Equal(t, 2, metrics.orphans)
	assert.Equal(t, 1, metrics.outcomes[OutcomeCleared])
	assert.Equal(t, 1, metrics.outcomes[OutcomeFailed])
	assert.Equal(t, 1, metrics.removed)
	assert.Equal(t, 1, metrics.errs["update"])
	assert.Equal(t, 1, metrics.errs["delete"])
}

func TestEngine_ListingFailureAbortsRun(t *testing.T) {
	cause := errors.New("connection refused")

	t.Run("References", func(t *testing.T) {
		refs := refmemory.New(ref("A", "posts/1-x.jpg"))
		refs.FailList(cause)
		metrics := newFakeMetrics()
		e := newTestEngine(t, refs, blobmemory.New("posts/1-x.jpg"), Options{Metrics: metrics})

		report, err := e.Reconcile(context.Background(), false)
		require.Error(t, err)
		assert.Nil(t, report)
		assert.ErrorIs(t, err, ErrCollaboratorUnavailable)
		assert.ErrorIs(t, err, cause)

		var collab *CollaboratorError
		require.ErrorAs(t, err, &collab)
		assert.Equal(t, SourceReferences, collab.Source)
		assert.Equal(t, []string{"reconcile:error"}, metrics.runs)
	})

	t.Run("Storage", func(t *testing.T) {
		objects := blobmemory.New("posts/1-x.jpg")
		objects.FailList(cause)
		e := newTestEngine(t, refmemory.New(), objects, Options{})

		_, err := e.Analyze(context.Background())

		var collab *CollaboratorError
		require.ErrorAs(t, err, &collab)
		assert.Equal(t, SourceStorage, collab.Source)
		assert.Zero(t, objects.DeleteCalls())
	})
}

func TestEngine_CancellationStopsRepair(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inner := refmemory.New(
		ref("A", "posts/1-a-gone.jpg"),
		ref("B", "posts/2-b-lost.jpg"),
		ref("C", "posts/3-c-missing.jpg"),
	)
	objects := blobmemory.New("posts/9-1-stale-upload.jpg")
	e := newTestEngine(t, &cancelOnUpdate{Store: inner, cancel: cancel}, objects, Options{})

	report, err := e.Reconcile(ctx, false)
	require.NoError(t, err)

	assert.True(t, report.Cancelled)
	assert.Equal(t, 1, report.FixedCount)
	assert.Equal(t, []string{"cancelled"}, report.Errors)
	assert.Equal(t, 1, inner.UpdateCalls())
	assert.Zero(t, objects.DeleteCalls(), "reclaim is skipped after cancellation")
}

func TestEngine_SkipsVanishedCandidate(t *testing.T) {
	refs := refmemory.New(ref("D", "posts/99-timestamp-sunset-beach.jpg"))
	objects := &vanishAfterList{
		Store: blobmemory.New("posts/5-other-sunset-beach-resized.jpg"),
		key:   "posts/5-other-sunset-beach-resized.jpg",
	}
	e := newTestEngine(t, refs, objects, Options{})

	report, err := e.Repair(context.Background(), false)
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, OutcomeSkipped, report.Outcomes[0].Kind)
	assert.Equal(t, ReasonCandidateVanished, report.Outcomes[0].Reason)
	assert.Zero(t, report.FixedCount)
	assert.Zero(t, refs.UpdateCalls())
}

func TestEngine_Limits(t *testing.T) {
	t.Run("MaxRepairs", func(t *testing.T) {
		refs := refmemory.New(
			ref("A", "posts/1-a-gone.jpg"),
			ref("B", "posts/2-b-lost.jpg"),
			ref("C", "posts/3-c-missing.jpg"),
		)
		e := newTestEngine(t, refs, blobmemory.New(), Options{MaxRepairs: 2})

		report, err := e.Repair(context.Background(), false)
		require.NoError(t, err)

		assert.Equal(t, 2, report.FixedCount)
		assert.True(t, report.LimitReached)
		require.Len(t, report.Outcomes, 3)
		assert.Equal(t, OutcomeSkipped, report.Outcomes[2].Kind)
		assert.Equal(t, ReasonRepairLimit, report.Outcomes[2].Reason)
		assert.Equal(t, 2, refs.UpdateCalls())
	})

	t.Run("MaxDeletions", func(t *testing.T) {
		objects := blobmemory.New("posts/1-o.jpg", "posts/2-o.jpg", "posts/3-o.jpg")
		e := newTestEngine(t, refmemory.New(), objects, Options{MaxDeletions: 1})

		report, err := e.Cleanup(context.Background(), false)
		require.NoError(t, err)

		assert.Equal(t, 1, report.RemovedOrphanCount)
		assert.True(t, report.LimitReached)
		assert.Len(t, objects.Keys(), 2)
	})
}
