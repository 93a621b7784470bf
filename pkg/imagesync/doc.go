// Package imagesync reconciles the image locators stored per post with the
// objects actually present in the bucket.
//
// A run takes two snapshots (every reference, every object under the
// prefix), classifies the difference, and optionally acts on it:
//
//	references ─┐
//	            ├─> Analyze ─┬─> PlanRepair ─> UpdateImageReference
//	objects ────┘            └─> Reclaim ────> DeleteObject
//
// Broken references are entities whose locator does not resolve to an
// existing object. They are repaired by pointing them at a similarly named
// object, or cleared when none exists. Orphan objects are objects no
// reference points at; they are deleted.
//
// Every mutating pathway is dry-run by default. In dry-run mode the engine
// computes and reports the plan without calling UpdateImageReference or
// DeleteObject.
//
// Items are processed one at a time so error order is deterministic and no
// entity or key is ever touched concurrently. The two listings are the only
// concurrent calls.
package imagesync
