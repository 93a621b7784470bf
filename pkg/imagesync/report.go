package imagesync

import (
	"time"
)

// Mode names the pathway a run took.
type Mode string

const (
	ModeAnalyze   Mode = "analyze"
	ModeRepair    Mode = "repair"
	ModeCleanup   Mode = "cleanup"
	ModeReconcile Mode = "reconcile"
)

// Report summarizes one run. It is never modified after being returned.
//
// FixedCount counts Replaced and Cleared outcomes: planned in dry-run,
// applied otherwise. RemovedOrphanCount is always 0 in dry-run.
type Report struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	Mode       Mode      `json:"mode" yaml:"mode"`
	DryRun     bool      `json:"dry_run" yaml:"dry_run"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	ReferencesScanned int `json:"references_scanned" yaml:"references_scanned"`
	ObjectsScanned    int `json:"objects_scanned" yaml:"objects_scanned"`
	MatchedCount      int `json:"matched_count" yaml:"matched_count"`
	BrokenCount       int `json:"broken_count" yaml:"broken_count"`
	OrphanCount       int `json:"orphan_count" yaml:"orphan_count"`

	FixedCount         int      `json:"fixed_count" yaml:"fixed_count"`
	RemovedOrphanCount int      `json:"removed_orphan_count" yaml:"removed_orphan_count"`
	Errors             []string `json:"errors" yaml:"errors"`

	Broken   []BrokenReference `json:"broken,omitempty" yaml:"broken,omitempty"`
	Orphans  []string          `json:"orphans,omitempty" yaml:"orphans,omitempty"`
	Outcomes []OutcomeRecord   `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`

	// LimitReached is set when max_repairs or max_deletions cut the run short.
	LimitReached bool `json:"limit_reached,omitempty" yaml:"limit_reached,omitempty"`

	// Cancelled is set when the context ended mid-run; Errors then ends
	// with "cancelled".
	Cancelled bool `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// ReportBuilder folds analysis, repair outcomes and reclaim results into a
// Report. It performs no I/O. Errors keep the order they were added in.
type ReportBuilder struct {
	r Report
}

// NewReportBuilder starts a report.
func NewReportBuilder(runID string, mode Mode, dryRun bool, startedAt time.Time) *ReportBuilder {
	return &ReportBuilder{r: Report{
		RunID:     runID,
		Mode:      mode,
		DryRun:    dryRun,
		StartedAt: startedAt,
		Errors:    []string{},
	}}
}

// AddAnalysis records scan counts and, when includeDetails is set, the
// discrepancies themselves.
func (b *ReportBuilder) AddAnalysis(a *Analysis, includeDetails bool) {
	b.r.ReferencesScanned = a.References
	b.r.ObjectsScanned = a.Objects
	b.r.MatchedCount = a.Matched
	b.r.BrokenCount = len(a.Broken)
	b.r.OrphanCount = len(a.Orphans)

	if includeDetails {
		b.r.Broken = append([]BrokenReference{}, a.Broken...)
		b.r.Orphans = append([]string{}, a.Orphans...)
	}
}

// AddOutcome records one repair outcome.
func (b *ReportBuilder) AddOutcome(o RepairOutcome) {
	b.r.Outcomes = append(b.r.Outcomes, RecordOf(o))

	switch o := o.(type) {
	case Replaced, Cleared:
		b.r.FixedCount++
	case Failed:
		b.r.Errors = append(b.r.Errors, failureMessage(o))
	case Skipped:
		if o.Reason == ReasonRepairLimit {
			b.r.LimitReached = true
		}
	}
}

// AddReclaim records the orphan reclamation result.
func (b *ReportBuilder) AddReclaim(res ReclaimResult) {
	b.r.RemovedOrphanCount += res.Removed
	b.r.Errors = append(b.r.Errors, res.Errors...)
	if res.LimitReached {
		b.r.LimitReached = true
	}
	if res.Cancelled {
		b.Cancel()
	}
}

// Cancel marks the report as cancelled. Calling it twice has no extra effect.
func (b *ReportBuilder) Cancel() {
	if b.r.Cancelled {
		return
	}
	b.r.Cancelled = true
	b.r.Errors = append(b.r.Errors, ErrCancelled.Error())
}

// Cancelled reports whether Cancel was called.
func (b *ReportBuilder) Cancelled() bool {
	return b.r.Cancelled
}

// Build returns an independent copy of the report.
func (b *ReportBuilder) Build(finishedAt time.Time) *Report {
	r := b.r
	r.FinishedAt = finishedAt
	r.Errors = append([]string{}, b.r.Errors...)
	if b.r.Broken != nil {
		r.Broken = append([]BrokenReference{}, b.r.Broken...)
	}
	if b.r.Orphans != nil {
		r.Orphans = append([]string{}, b.r.Orphans...)
	}
	if b.r.Outcomes != nil {
		r.Outcomes = append([]OutcomeRecord{}, b.r.Outcomes...)
	}
	return &r
}
