package logger

import "log/slog"

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Run
	// ========================================================================
	KeyRunID  = "run_id"  // Reconciliation run identifier
	KeyMode   = "mode"    // analyze, repair, cleanup, reconcile
	KeyDryRun = "dry_run" // Whether mutations are simulated
	KeyPhase  = "phase"   // snapshot, analyze, repair, reclaim

	// ========================================================================
	// Relational side
	// ========================================================================
	KeyEntityID   = "entity_id"   // Entity owning an image reference
	KeyLocator    = "locator"     // Stored image locator (URL or relative path)
	KeyNewLocator = "new_locator" // Locator written by a repair
	KeyTable      = "table"       // Reference table name
	KeyDatabase   = "database"    // Database type: sqlite, postgres, mysql

	// ========================================================================
	// Blob side
	// ========================================================================
	KeyObjectKey = "object_key" // Object key relative to the bucket
	KeyCandidate = "candidate"  // Replacement object key chosen by the planner
	KeyBucket    = "bucket"     // Bucket name
	KeyPrefix    = "prefix"     // Listing prefix
	KeyStoreType = "store_type" // memory, fs, s3, gcs

	// ========================================================================
	// Outcomes
	// ========================================================================
	KeyOutcome    = "outcome"     // replaced, cleared, skipped, failed
	KeyReason     = "reason"      // Skip reason
	KeyCount      = "count"       // Generic item count
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// RunID returns a slog.Attr for the run identifier
func RunID(id string) slog.Attr {
	return slog.String(KeyRunID, id)
}

// EntityID returns a slog.Attr for an entity identifier
func EntityID(id string) slog.Attr {
	return slog.String(KeyEntityID, id)
}

// Locator returns a slog.Attr for an image locator
func Locator(l string) slog.Attr {
	return slog.String(KeyLocator, l)
}

// ObjectKey returns a slog.Attr for an object key
func ObjectKey(k string) slog.Attr {
	return slog.String(KeyObjectKey, k)
}

// Bucket returns a slog.Attr for a bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Outcome returns a slog.Attr for a repair outcome kind
func Outcome(kind string) slog.Attr {
	return slog.String(KeyOutcome, kind)
}

// Count returns a slog.Attr for an item count
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
