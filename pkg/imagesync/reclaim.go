package imagesync

import (
	"context"
	"fmt"

	"github.com/Wysakm/weather-app-backend-sub001/internal/logger"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/blob"
)

// ReclaimOptions configures orphan reclamation.
type ReclaimOptions struct {
	// DryRun reports orphans without deleting them.
	DryRun bool

	// MaxDeletions stops after this many delete attempts. 0 means unlimited.
	MaxDeletions int
}

// ReclaimResult summarizes a reclamation pass.
type ReclaimResult struct {
	Candidates   int      // orphans offered for deletion
	Removed      int      // successful deletions
	Deleted      []string // keys removed, in order
	Errors       []string // "Failed to delete <key>: <cause>"
	LimitReached bool
	Cancelled    bool
}

// Reclaim deletes orphans one at a time. A failed delete is recorded and the
// pass continues; there is no rollback. The context is checked between
// deletions. In dry-run mode Reclaim performs no I/O at all.
func Reclaim(ctx context.Context, deleter blob.Deleter, orphans []string, opts ReclaimOptions) ReclaimResult {
	res := ReclaimResult{Candidates: len(orphans), Errors: []string{}}

	if opts.DryRun {
		logger.DebugCtx(ctx, "Reclaim: dry run, nothing deleted", logger.KeyCount, len(orphans))
		return res
	}

	attempts := 0
	for _, key := range orphans {
		if ctx.Err() != nil {
			logger.InfoCtx(ctx, "Reclaim: cancelled", "removed", res.Removed)
			res.Cancelled = true
			return res
		}

		if opts.MaxDeletions > 0 && attempts >= opts.MaxDeletions {
			logger.WarnCtx(ctx, "Reclaim: reached max deletions limit",
				"limit", opts.MaxDeletions,
				"remaining", len(orphans)-attempts)
			res.LimitReached = true
			return res
		}
		attempts++

		if err := deleter.DeleteObject(ctx, key); err != nil {
			logger.WarnCtx(ctx, "Reclaim: failed to delete orphan",
				logger.KeyObjectKey, key,
				logger.KeyError, err)
			res.Errors = append(res.Errors, fmt.Sprintf("Failed to delete %s: %v", key, err))
			continue
		}

		logger.DebugCtx(ctx, "Reclaim: deleted orphan", logger.KeyObjectKey, key)
		res.Removed++
		res.Deleted = append(res.Deleted, key)
	}

	return res
}
