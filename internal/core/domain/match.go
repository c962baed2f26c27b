package domain

import "time"

// MatchType tells how a link was created.
type MatchType string

const (
	MatchAuto   MatchType = "AUTO"
	MatchManual MatchType = "MANUAL"
)

// MatchLink ties one statement line to one or more ledger movements.
// A line has at most one active link; unmatching deletes it.
type MatchLink struct {
	LinkID      string    `json:"linkID"`
	LineID      string    `json:"lineID"`
	PeriodID    string    `json:"periodID"`
	MovementIDs []string  `json:"movementIDs"`
	Type        MatchType `json:"type"`
	Confidence  float64   `json:"confidence"` // 1 for manual links
	// ResolvedSuspenseItemID is set when creating the link closed an open suspense item.
	ResolvedSuspenseItemID *string `json:"resolvedSuspenseItemID,omitempty"`
	// PriorSuspenseOutcome is restored on the item when the link is removed.
	PriorSuspenseOutcome SuspenseOutcome `json:"priorSuspenseOutcome,omitempty"`
	CreatedBy            string          `json:"createdBy"`
	CreatedAt            time.Time       `json:"createdAt"`
}

// MatchCandidate is a ledger movement considered for a statement line, with its ranking inputs.
type MatchCandidate struct {
	Movement       LedgerMovement `json:"movement"`
	ReferenceMatch bool           `json:"referenceMatch"`
	DayDistance    int            `json:"dayDistance"`
	Confidence     float64        `json:"confidence"`
}
