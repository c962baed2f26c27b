package domain

import "time"

// SuspenseReason explains why auto-matching gave up on a line.
type SuspenseReason string

const (
	ReasonNoCandidate        SuspenseReason = "NO_CANDIDATE"
	ReasonAmbiguousCandidate SuspenseReason = "AMBIGUOUS_CANDIDATE"
)

// SuspenseOutcome is how an operator resolved a suspense item. Empty means untouched.
type SuspenseOutcome string

const (
	OutcomeNone                SuspenseOutcome = ""
	OutcomeConvertedToMovement SuspenseOutcome = "CONVERTED_TO_MOVEMENT"
	OutcomeWrittenOff          SuspenseOutcome = "WRITTEN_OFF"
	OutcomeStillPending        SuspenseOutcome = "STILL_PENDING"
	OutcomeManuallyMatched     SuspenseOutcome = "MANUALLY_MATCHED"
)

// IsFinal is true once the item no longer needs operator attention.
func (o SuspenseOutcome) IsFinal() bool {
	return o == OutcomeConvertedToMovement || o == OutcomeWrittenOff || o == OutcomeManuallyMatched
}

// SuspenseItem is a statement line auto-matching could not settle.
type SuspenseItem struct {
	ItemID        string          `json:"itemID"`
	PeriodID      string          `json:"periodID"`
	LineID        string          `json:"lineID"`
	Reason        SuspenseReason  `json:"reason"`
	AssignedTo    string          `json:"assignedTo,omitempty"`
	Outcome       SuspenseOutcome `json:"outcome,omitempty"`
	Justification string          `json:"justification,omitempty"`
	MovementID    *string         `json:"movementID,omitempty"`
	ResolvedBy    string          `json:"resolvedBy,omitempty"`
	ResolvedAt    *time.Time      `json:"resolvedAt,omitempty"`
	AuditFields
}

// IsOpen is true while the item still blocks or informs closing.
func (s SuspenseItem) IsOpen() bool {
	return !s.Outcome.IsFinal()
}

// PeriodCounts aggregates a period's statement lines for closing validation.
// Suspense excludes lines whose item was written off; StillPending is a subset of Suspense.
type PeriodCounts struct {
	Unmatched    int `json:"unmatchedCount"`
	Matched      int `json:"matchedCount"`
	Suspense     int `json:"suspenseCount"`
	StillPending int `json:"stillPendingCount"`
	WrittenOff   int `json:"writtenOffCount"`
}

// Pending is the number of lines that still block a non-forced close.
func (c PeriodCounts) Pending() int {
	return c.Unmatched + c.Suspense
}
