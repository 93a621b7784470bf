package imagesync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Wysakm/weather-app-backend-sub001/internal/logger"
	"github.com/Wysakm/weather-app-backend-sub001/internal/telemetry"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/blob"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/reference"
)

// ReferenceStore is the relational collaborator.
type ReferenceStore interface {
	reference.Lister
	reference.Updater
}

// ObjectStore is the blob-storage collaborator.
type ObjectStore interface {
	blob.Lister
	blob.Checker
	blob.Deleter
}

// Options configures an Engine.
type Options struct {
	// Locator describes how locators embed object keys. Host defaults to
	// storage.googleapis.com and Prefix to "posts/".
	Locator Locator

	// PrefixLength is the match length of the name heuristic (default 20).
	PrefixLength int

	// MaxRepairs caps Replaced+Cleared outcomes per run. 0 means unlimited.
	MaxRepairs int

	// MaxDeletions caps orphan delete attempts per run. 0 means unlimited.
	MaxDeletions int

	// Metrics receives observations. May be nil.
	Metrics Metrics

	// Now and NewRunID are overridable for tests.
	Now      func() time.Time
	NewRunID func() string
}

// Engine runs reconciliation passes. It holds no state between runs and is
// safe for concurrent use, though concurrent mutating runs against the same
// stores are not coordinated.
type Engine struct {
	refs    ReferenceStore
	objects ObjectStore
	rules   Rules
	opts    Options
}

// New creates an engine over the two collaborators.
func New(refs ReferenceStore, objects ObjectStore, opts Options) (*Engine, error) {
	if refs == nil {
		return nil, errors.New("imagesync: reference store is required")
	}
	if objects == nil {
		return nil, errors.New("imagesync: object store is required")
	}
	if opts.Locator.Bucket == "" {
		return nil, errors.New("imagesync: bucket is required")
	}
	if opts.Locator.Host == "" {
		opts.Locator.Host = DefaultStorageHost
	}
	if opts.Locator.Prefix == "" {
		opts.Locator.Prefix = DefaultPrefix
	}
	if opts.PrefixLength <= 0 {
		opts.PrefixLength = DefaultPrefixLength
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}

	return &Engine{
		refs:    refs,
		objects: objects,
		rules: Rules{
			Locator: opts.Locator,
			Matcher: Matcher{PrefixLength: opts.PrefixLength},
		},
		opts: opts,
	}, nil
}

// Rules returns the locator format and matcher in use.
func (e *Engine) Rules() Rules {
	return e.rules
}

// Snapshot is the pair of listings a run classifies.
type Snapshot struct {
	References []reference.ImageReference
	Keys       *KeySet
}

// Snapshot lists references and objects concurrently. Either failure aborts
// both and is returned as a *CollaboratorError.
func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanSnapshot)
	defer span.End()

	var (
		refs []reference.ImageReference
		keys []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if refs, err = e.refs.ListImageReferences(gctx); err != nil {
			return &CollaboratorError{Source: SourceReferences, Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if keys, err = e.objects.ListObjects(gctx, e.rules.Locator.Prefix); err != nil {
			return &CollaboratorError{Source: SourceStorage, Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	snap := &Snapshot{References: refs, Keys: NewKeySet(keys)}
	span.SetAttributes(
		telemetry.Count(telemetry.AttrReferences, len(snap.References)),
		telemetry.Count(telemetry.AttrObjects, snap.Keys.Len()),
	)
	return snap, nil
}

// Analyze classifies discrepancies without mutating anything.
func (e *Engine) Analyze(ctx context.Context) (*Report, error) {
	return e.Run(ctx, ModeAnalyze, true)
}

// Repair plans and, unless dryRun, applies a fix for every broken reference.
func (e *Engine) Repair(ctx context.Context, dryRun bool) (*Report, error) {
	return e.Run(ctx, ModeRepair, dryRun)
}

// Cleanup reports and, unless dryRun, deletes every orphan object.
func (e *Engine) Cleanup(ctx context.Context, dryRun bool) (*Report, error) {
	return e.Run(ctx, ModeCleanup, dryRun)
}

// Reconcile repairs broken references, then deletes the orphans that no
// repair adopted, in a single run over one snapshot.
func (e *Engine) Reconcile(ctx context.Context, dryRun bool) (*Report, error) {
	return e.Run(ctx, ModeReconcile, dryRun)
}

// Run executes one pass in the given mode. The only error it returns is a
// listing failure wrapping ErrCollaboratorUnavailable; item failures and
// cancellation are reported in the Report.
func (e *Engine) Run(ctx context.Context, mode Mode, dryRun bool) (*Report, error) {
	if mode == ModeAnalyze {
		dryRun = true
	}

	runID := e.opts.NewRunID()
	started := e.opts.Now()

	ctx = logger.WithContext(ctx, logger.NewLogContext(runID, string(mode), dryRun))
	ctx, span := telemetry.StartRunSpan(ctx, runID, string(mode), dryRun)
	defer span.End()
	ctx = telemetry.WithLogContext(ctx)

	logger.InfoCtx(ctx, "Image sync run started",
		logger.KeyBucket, e.rules.Locator.Bucket,
		logger.KeyPrefix, e.rules.Locator.Prefix)

	snap, err := e.Snapshot(ctx)
	if err != nil {
		logger.ErrorCtx(ctx, "Image sync run aborted", logger.KeyError, err)
		if e.opts.Metrics != nil {
			e.opts.Metrics.ObserveRun(mode, dryRun, "error", e.opts.Now().Sub(started))
		}
		return nil, fmt.Errorf("imagesync %s: %w", mode, err)
	}

	_, aspan := telemetry.StartSpan(ctx, telemetry.SpanAnalyze)
	analysis := e.rules.Analyze(snap.References, snap.Keys)
	aspan.End()

	if e.opts.Metrics != nil {
		e.opts.Metrics.SetDiscrepancies(len(analysis.Broken), len(analysis.Orphans))
	}
	logger.InfoCtx(ctx, "Snapshot classified",
		"references", analysis.References,
		"objects", analysis.Objects,
		"matched", analysis.Matched,
		"broken", len(analysis.Broken),
		"orphans", len(analysis.Orphans))

	b := NewReportBuilder(runID, mode, dryRun, started)
	b.AddAnalysis(analysis, true)

	adopted := map[string]struct{}{}
	if mode == ModeRepair || mode == ModeReconcile {
		adopted = e.repair(ctx, analysis, snap.Keys, dryRun, b)
	}

	if (mode == ModeCleanup || mode == ModeReconcile) && !b.Cancelled() {
		orphans := make([]string, 0, len(analysis.Orphans))
		for _, key := range analysis.Orphans {
			if _, ok := adopted[key]; !ok {
				orphans = append(orphans, key)
			}
		}
		b.AddReclaim(e.reclaim(ctx, orphans, dryRun))
	}

	report := b.Build(e.opts.Now())
	e.finish(ctx, report)
	return report, nil
}

// repair processes broken references in order and returns the keys adopted
// by Replaced outcomes.
func (e *Engine) repair(ctx context.Context, a *Analysis, keys *KeySet, dryRun bool, b *ReportBuilder) map[string]struct{} {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanRepair)
	defer span.End()

	adopted := make(map[string]struct{})
	fixed := 0

	for _, broken := range a.Broken {
		if ctx.Err() != nil {
			logger.InfoCtx(ctx, "Repair: cancelled", "fixed", fixed)
			b.Cancel()
			break
		}

		var outcome RepairOutcome
		switch {
		case e.opts.MaxRepairs > 0 && fixed >= e.opts.MaxRepairs:
			outcome = Skipped{EntityID: broken.EntityID, Reason: ReasonRepairLimit}
		case dryRun:
			outcome = e.rules.PlanRepair(broken, keys)
		default:
			outcome = e.apply(ctx, e.rules.PlanRepair(broken, keys))
		}

		switch o := outcome.(type) {
		case Replaced:
			adopted[o.Key] = struct{}{}
			fixed++
		case Cleared:
			fixed++
		case Failed:
			logger.WarnCtx(ctx, "Repair: update failed",
				logger.KeyEntityID, o.EntityID,
				logger.KeyError, o.Err)
		}

		logger.DebugCtx(ctx, "Repair: outcome",
			logger.KeyEntityID, broken.EntityID,
			logger.KeyLocator, broken.Locator,
			logger.KeyOutcome, KindOf(outcome))

		b.AddOutcome(outcome)
		if e.opts.Metrics != nil {
			e.opts.Metrics.RecordOutcome(KindOf(outcome), dryRun)
		}
	}

	span.SetAttributes(telemetry.Count(telemetry.AttrFixed, fixed))
	return adopted
}

// apply performs the store mutation for a planned outcome.
func (e *Engine) apply(ctx context.Context, planned RepairOutcome) RepairOutcome {
	switch o := planned.(type) {
	case Replaced:
		exists, err := e.objects.ObjectExists(ctx, o.Key)
		if err != nil {
			return Failed{EntityID: o.EntityID, Err: fmt.Errorf("check candidate %s: %w", o.Key, err)}
		}
		if !exists {
			return Skipped{EntityID: o.EntityID, Reason: ReasonCandidateVanished}
		}
		locator := o.NewLocator
		if err := e.refs.UpdateImageReference(ctx, o.EntityID, &locator); err != nil {
			return Failed{EntityID: o.EntityID, Err: err}
		}
		return o

	case Cleared:
		if err := e.refs.UpdateImageReference(ctx, o.EntityID, nil); err != nil {
			return Failed{EntityID: o.EntityID, Err: err}
		}
		return o
	}
	return planned
}

func (e *Engine) reclaim(ctx context.Context, orphans []string, dryRun bool) ReclaimResult {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanReclaim)
	defer span.End()

	res := Reclaim(ctx, e.objects, orphans, ReclaimOptions{
		DryRun:       dryRun,
		MaxDeletions: e.opts.MaxDeletions,
	})

	span.SetAttributes(telemetry.Count(telemetry.AttrRemoved, res.Removed))
	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordOrphansRemoved(res.Removed)
		e.opts.Metrics.RecordItemErrors("delete", len(res.Errors))
	}
	return res
}

func (e *Engine) finish(ctx context.Context, r *Report) {
	status := "ok"
	if r.Cancelled {
		status = "cancelled"
	}

	telemetry.SetAttributes(ctx,
		telemetry.Count(telemetry.AttrBroken, r.BrokenCount),
		telemetry.Count(telemetry.AttrOrphans, r.OrphanCount),
		telemetry.Count(telemetry.AttrFixed, r.FixedCount),
		telemetry.Count(telemetry.AttrRemoved, r.RemovedOrphanCount),
		telemetry.Count(telemetry.AttrErrors, len(r.Errors)),
	)

	if e.opts.Metrics != nil {
		failedUpdates := 0
		for _, o := range r.Outcomes {
			if o.Kind == OutcomeFailed {
				failedUpdates++
			}
		}
		e.opts.Metrics.RecordItemErrors("update", failedUpdates)
		e.opts.Metrics.ObserveRun(r.Mode, r.DryRun, status, r.Duration())
	}

	logger.InfoCtx(ctx, "Image sync run finished",
		"fixed", r.FixedCount,
		"removed", r.RemovedOrphanCount,
		"errors", len(r.Errors),
		"status", status,
		logger.KeyDurationMs, float64(r.Duration().Microseconds())/1000.0)
}
