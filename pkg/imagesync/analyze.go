package imagesync

import (
	"github.com/Wysakm/weather-app-backend-sub001/pkg/reference"
)

// Rules bundles the locator format and the matching heuristic of a bucket.
type Rules struct {
	Locator Locator
	Matcher Matcher
}

// Analysis is the classified difference between one reference snapshot and
// one storage snapshot.
type Analysis struct {
	References  int // references listed, null locators included
	WithLocator int // references with a non-null locator
	Objects     int // distinct keys listed
	Matched     int // references whose key exists in storage

	Broken  []BrokenReference // reference order
	Orphans []string          // storage listing order
}

// Discrepancies returns broken references followed by orphan objects.
func (a *Analysis) Discrepancies() []Discrepancy {
	out := make([]Discrepancy, 0, len(a.Broken)+len(a.Orphans))
	for _, b := range a.Broken {
		out = append(out, b)
	}
	for _, k := range a.Orphans {
		out = append(out, OrphanObject{Key: k})
	}
	return out
}

// Analyze classifies refs against keys in O(R+S).
//
// A reference with a non-null locator is broken when its locator is not
// extractable or its key is not in keys; each such entity gets its own
// record. A key is an orphan when no reference extracts to it. Null
// locators are ignored.
func (r Rules) Analyze(refs []reference.ImageReference, keys *KeySet) *Analysis {
	a := &Analysis{
		References: len(refs),
		Objects:    keys.Len(),
		Broken:     []BrokenReference{},
		Orphans:    []string{},
	}

	referenced := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if !ref.HasLocator() {
			continue
		}
		a.WithLocator++

		locator := *ref.Locator
		key, ok := r.Locator.ExtractKey(locator)
		if ok {
			referenced[key] = struct{}{}
			if keys.Contains(key) {
				a.Matched++
				continue
			}
		}

		broken := BrokenReference{
			EntityID:     ref.EntityID,
			Locator:      locator,
			ExtractedKey: key,
			Cause:        ErrObjectMissing,
		}
		if !ok {
			broken.Cause = ErrExtraction
		}
		broken.CandidateKey, _ = r.Matcher.Candidate(locator, keys)
		a.Broken = append(a.Broken, broken)
	}

	for _, key := range keys.Keys() {
		if _, ok := referenced[key]; !ok {
			a.Orphans = append(a.Orphans, key)
		}
	}

	return a
}

// PlanRepair decides what to do with a broken reference. It never performs I/O.
//
// The first key in listing order that matches the locator's base name wins
// and yields Replaced with a fully qualified locator. No match yields Cleared.
func (r Rules) PlanRepair(broken BrokenReference, keys *KeySet) RepairOutcome {
	key, ok := r.Matcher.Candidate(broken.Locator, keys)
	if !ok {
		return Cleared{EntityID: broken.EntityID}
	}
	return Replaced{
		EntityID:   broken.EntityID,
		NewLocator: r.Locator.URL(key),
		Key:        key,
	}
}
