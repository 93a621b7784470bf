package imagesync

import "time"

// Metrics receives engine observations. A nil Metrics disables collection.
type Metrics interface {
	// ObserveRun records a finished run. status is "ok", "cancelled" or "error".
	ObserveRun(mode Mode, dryRun bool, status string, duration time.Duration)

	// SetDiscrepancies records the latest broken and orphan counts.
	SetDiscrepancies(broken, orphans int)

	// RecordOutcome counts one repair outcome by kind.
	RecordOutcome(kind string, dryRun bool)

	// RecordOrphansRemoved counts deleted orphans.
	RecordOrphansRemoved(n int)

	// RecordItemErrors counts per-item failures by operation ("update", "delete").
	RecordItemErrors(operation string, n int)
}
