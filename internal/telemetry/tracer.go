package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for reconciliation spans.
const (
	AttrRunID  = "imgsync.run_id"
	AttrMode   = "imgsync.mode"
	AttrDryRun = "imgsync.dry_run"

	AttrReferences = "imgsync.references" // References scanned
	AttrObjects    = "imgsync.objects"    // Objects scanned
	AttrBroken     = "imgsync.broken"     // Broken references found
	AttrOrphans    = "imgsync.orphans"    // Orphan objects found
	AttrFixed      = "imgsync.fixed"      // References replaced or cleared
	AttrRemoved    = "imgsync.removed"    // Orphans deleted
	AttrErrors     = "imgsync.errors"     // Item errors

	AttrEntityID = "reference.entity_id"
	AttrTable    = "reference.table"
	AttrDatabase = "reference.database"

	AttrStoreType = "storage.type"
	AttrBucket    = "storage.bucket"
	AttrPrefix    = "storage.prefix"
	AttrKey       = "storage.key"
)

// Span names. Format: <component>.<operation>
const (
	SpanRun      = "imgsync.run"
	SpanSnapshot = "imgsync.snapshot"
	SpanAnalyze  = "imgsync.analyze"
	SpanRepair   = "imgsync.repair"
	SpanReclaim  = "imgsync.reclaim"

	SpanListReferences = "reference.list"
	SpanUpdateRef      = "reference.update"
	SpanListObjects    = "storage.list"
	SpanObjectExists   = "storage.exists"
	SpanDeleteObject   = "storage.delete"
)

// RunID returns an attribute for the run identifier
func RunID(id string) attribute.KeyValue {
	return attribute.String(AttrRunID, id)
}

// Mode returns an attribute for the run mode
func Mode(mode string) attribute.KeyValue {
	return attribute.String(AttrMode, mode)
}

// DryRun returns an attribute for the dry-run flag
func DryRun(v bool) attribute.KeyValue {
	return attribute.Bool(AttrDryRun, v)
}

// EntityID returns an attribute for an entity identifier
func EntityID(id string) attribute.KeyValue {
	return attribute.String(AttrEntityID, id)
}

// StoreType returns an attribute for the blob backend
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// Bucket returns an attribute for a bucket name
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// Prefix returns an attribute for a listing prefix
func Prefix(p string) attribute.KeyValue {
	return attribute.String(AttrPrefix, p)
}

// StorageKey returns an attribute for an object key
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// Count returns an int attribute for one of the count keys above
func Count(key string, n int) attribute.KeyValue {
	return attribute.Int(key, n)
}

// StartRunSpan starts the root span for a reconciliation run.
func StartRunSpan(ctx context.Context, runID, mode string, dryRun bool) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanRun,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(RunID(runID), Mode(mode), DryRun(dryRun)),
	)
}

// StartStorageSpan starts a client span for a blob store call.
func StartStorageSpan(ctx context.Context, name, storeType, bucket string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{StoreType(storeType), Bucket(bucket)}, attrs...)
	return StartSpan(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(all...),
	)
}

// StartReferenceSpan starts a client span for a reference store call.
func StartReferenceSpan(ctx context.Context, name, database, table string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{
		attribute.String(AttrDatabase, database),
		attribute.String(AttrTable, table),
	}, attrs...)
	return StartSpan(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(all...),
	)
}
