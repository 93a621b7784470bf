package imagesync

import "fmt"

// Discrepancy is either a BrokenReference or an OrphanObject.
type Discrepancy interface {
	isDiscrepancy()
}

// BrokenReference is an entity whose locator resolves to no existing object.
type BrokenReference struct {
	EntityID string `json:"entity_id" yaml:"entity_id"`
	Locator  string `json:"locator" yaml:"locator"`

	// ExtractedKey is the key the locator maps to, or "" when the locator
	// is not extractable.
	ExtractedKey string `json:"extracted_key,omitempty" yaml:"extracted_key,omitempty"`

	// CandidateKey is the replacement the planner would choose, or "".
	// When set it is always a member of the storage snapshot of the run.
	CandidateKey string `json:"candidate_key,omitempty" yaml:"candidate_key,omitempty"`

	// Cause is ErrExtraction or ErrObjectMissing.
	Cause error `json:"-" yaml:"-"`
}

// OrphanObject is an object no reference points at.
type OrphanObject struct {
	Key string `json:"key" yaml:"key"`
}

func (BrokenReference) isDiscrepancy() {}
func (OrphanObject) isDiscrepancy()    {}

// RepairOutcome is one of Replaced, Cleared, Skipped or Failed.
type RepairOutcome interface {
	// Entity returns the entity the outcome applies to.
	Entity() string
	isOutcome()
}

// Replaced points the entity at an existing object.
type Replaced struct {
	EntityID   string
	NewLocator string
	Key        string
}

// Cleared sets the entity's locator to null.
type Cleared struct {
	EntityID string
}

// Skipped leaves the entity untouched.
type Skipped struct {
	EntityID string
	Reason   string
}

// Failed records an update that the reference store rejected.
type Failed struct {
	EntityID string
	Err      error
}

func (o Replaced) Entity() string { return o.EntityID }
func (o Cleared) Entity() string  { return o.EntityID }
func (o Skipped) Entity() string  { return o.EntityID }
func (o Failed) Entity() string   { return o.EntityID }

func (Replaced) isOutcome() {}
func (Cleared) isOutcome()  {}
func (Skipped) isOutcome()  {}
func (Failed) isOutcome()   {}

// Outcome kinds as they appear in reports and metrics.
const (
	OutcomeReplaced = "replaced"
	OutcomeCleared  = "cleared"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Skip reasons.
const (
	ReasonCandidateVanished = "candidate no longer exists"
	ReasonRepairLimit       = "repair limit reached"
)

// OutcomeRecord is the flat, serializable form of a RepairOutcome.
type OutcomeRecord struct {
	EntityID   string `json:"entity_id" yaml:"entity_id"`
	Kind       string `json:"kind" yaml:"kind"`
	NewLocator string `json:"new_locator,omitempty" yaml:"new_locator,omitempty"`
	Key        string `json:"key,omitempty" yaml:"key,omitempty"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RecordOf flattens an outcome.
func RecordOf(o RepairOutcome) OutcomeRecord {
	switch o := o.(type) {
	case Replaced:
		return OutcomeRecord{EntityID: o.EntityID, Kind: OutcomeReplaced, NewLocator: o.NewLocator, Key: o.Key}
	case Cleared:
		return OutcomeRecord{EntityID: o.EntityID, Kind: OutcomeCleared}
	case Skipped:
		return OutcomeRecord{EntityID: o.EntityID, Kind: OutcomeSkipped, Reason: o.Reason}
	case Failed:
		rec := OutcomeRecord{EntityID: o.EntityID, Kind: OutcomeFailed}
		if o.Err != nil {
			rec.Error = o.Err.Error()
		}
		return rec
	default:
		return OutcomeRecord{Kind: fmt.Sprintf("unknown(%T)", o)}
	}
}

// KindOf returns the outcome kind.
func KindOf(o RepairOutcome) string {
	return RecordOf(o).Kind
}

// failureMessage is the report line for a failed update.
func failureMessage(o Failed) string {
	return fmt.Sprintf("Failed to update %s: %v", o.EntityID, o.Err)
}
