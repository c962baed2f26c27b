package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AuditKind discriminates the payload variants stored on audit entries.
type AuditKind string

const (
	AuditPeriodOpened      AuditKind = "PeriodOpened"
	AuditStatementImported AuditKind = "StatementImported"
	AuditMatchCreated      AuditKind = "MatchCreated"
	AuditMatchRemoved      AuditKind = "MatchRemoved"
	AuditSuspenseCreated   AuditKind = "SuspenseCreated"
	AuditSuspenseResolved  AuditKind = "SuspenseResolved"
	AuditPeriodClosed      AuditKind = "PeriodClosed"
	AuditPeriodReopened    AuditKind = "PeriodReopened"
	AuditAdjustmentPosted  AuditKind = "AdjustmentPosted"
)

// Entity types recorded on audit entries.
const (
	EntityPeriod        = "RECONCILIATION_PERIOD"
	EntityStatementLine = "STATEMENT_LINE"
	EntitySuspenseItem  = "SUSPENSE_ITEM"
	EntityAdjustment    = "CLOSING_ADJUSTMENT"
	EntityBatch         = "STATEMENT_BATCH"
)

// AuditPayload is implemented by every payload variant.
type AuditPayload interface {
	Kind() AuditKind
}

type PeriodOpenedPayload struct {
	AccountID   string          `json:"accountID"`
	PeriodStart time.Time       `json:"periodStart"`
	PeriodEnd   time.Time       `json:"periodEnd"`
	BankBalance decimal.Decimal `json:"bankBalance"`
}

type StatementImportedPayload struct {
	BatchRef  string          `json:"batchRef"`
	LineCount int             `json:"lineCount"`
	Total     decimal.Decimal `json:"total"`
}

type MatchCreatedPayload struct {
	LinkID                 string          `json:"linkID"`
	LineID                 string          `json:"lineID"`
	MovementIDs            []string        `json:"movementIDs"`
	Type                   MatchType       `json:"type"`
	Confidence             float64         `json:"confidence"`
	Amount                 decimal.Decimal `json:"amount"`
	ResolvedSuspenseItemID *string         `json:"resolvedSuspenseItemID,omitempty"`
}

// MatchRemovedPayload keeps the whole removed link for traceability.
type MatchRemovedPayload struct {
	Link                   MatchLink   `json:"link"`
	RestoredLineStatus     MatchStatus `json:"restoredLineStatus"`
	ReopenedSuspenseItemID *string     `json:"reopenedSuspenseItemID,omitempty"`
}

type SuspenseCreatedPayload struct {
	ItemID         string         `json:"itemID"`
	LineID         string         `json:"lineID"`
	Reason         SuspenseReason `json:"reason"`
	CandidateCount int            `json:"candidateCount"`
}

type SuspenseResolvedPayload struct {
	ItemID        string          `json:"itemID"`
	LineID        string          `json:"lineID"`
	Outcome       SuspenseOutcome `json:"outcome"`
	Justification string          `json:"justification,omitempty"`
	MovementID    *string         `json:"movementID,omitempty"`
	AssignedTo    string          `json:"assignedTo,omitempty"`
}

type PeriodClosedPayload struct {
	PreviousState    PeriodState     `json:"previousState"`
	NewState         PeriodState     `json:"newState"`
	TotalDifference  decimal.Decimal `json:"totalDifference"`
	AdjustmentPosted bool            `json:"adjustmentPosted"`
	AdjustmentID     *string         `json:"adjustmentID,omitempty"`
	PendingCount     int             `json:"pendingCount"`
	ForceClose       bool            `json:"forceClose"`
}

type PeriodReopenedPayload struct {
	PreviousState PeriodState `json:"previousState"`
	Reason        string      `json:"reason"`
}

type AdjustmentPostedPayload struct {
	AdjustmentID string          `json:"adjustmentID"`
	MovementID   string          `json:"movementID"`
	Type         AdjustmentType  `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
}

func (PeriodOpenedPayload) Kind() AuditKind      { return AuditPeriodOpened }
func (StatementImportedPayload) Kind() AuditKind { return AuditStatementImported }
func (MatchCreatedPayload) Kind() AuditKind      { return AuditMatchCreated }
func (MatchRemovedPayload) Kind() AuditKind      { return AuditMatchRemoved }
func (SuspenseCreatedPayload) Kind() AuditKind   { return AuditSuspenseCreated }
func (SuspenseResolvedPayload) Kind() AuditKind  { return AuditSuspenseResolved }
func (PeriodClosedPayload) Kind() AuditKind      { return AuditPeriodClosed }
func (PeriodReopenedPayload) Kind() AuditKind    { return AuditPeriodReopened }
func (AdjustmentPostedPayload) Kind() AuditKind  { return AuditAdjustmentPosted }

// AuditEntry is an immutable record of a create or state transition.
type AuditEntry struct {
	EntryID     string       `json:"entryID"`
	PeriodID    string       `json:"periodID"`
	EntityType  string       `json:"entityType"`
	EntityID    string       `json:"entityID"`
	BeforeState string       `json:"beforeState,omitempty"`
	AfterState  string       `json:"afterState,omitempty"`
	Actor       string       `json:"actor"`
	Timestamp   time.Time    `json:"timestamp"`
	Payload     AuditPayload `json:"payload"`
}

// Kind returns the payload discriminator, or "" for an entry without payload.
func (e AuditEntry) Kind() AuditKind {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Kind()
}

// EncodeAuditPayload serialises a payload for storage.
func EncodeAuditPayload(p AuditPayload) (AuditKind, []byte, error) {
	if p == nil {
		return "", nil, fmt.Errorf("audit payload is required")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode %s payload: %w", p.Kind(), err)
	}
	return p.Kind(), data, nil
}

// DecodeAuditPayload is the inverse of EncodeAuditPayload.
func DecodeAuditPayload(kind AuditKind, data []byte) (AuditPayload, error) {
	var p AuditPayload
	switch kind {
	case AuditPeriodOpened:
		p = &PeriodOpenedPayload{}
	case AuditStatementImported:
		p = &StatementImportedPayload{}
	case AuditMatchCreated:
		p = &MatchCreatedPayload{}
	case AuditMatchRemoved:
		p = &MatchRemovedPayload{}
	case AuditSuspenseCreated:
		p = &SuspenseCreatedPayload{}
	case AuditSuspenseResolved:
		p = &SuspenseResolvedPayload{}
	case AuditPeriodClosed:
		p = &PeriodClosedPayload{}
	case AuditPeriodReopened:
		p = &PeriodReopenedPayload{}
	case AuditAdjustmentPosted:
		p = &AdjustmentPostedPayload{}
	default:
		return nil, fmt.Errorf("unknown audit kind %q", kind)
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", kind, err)
	}
	return derefPayload(p), nil
}

// derefPayload hands back value variants so callers can type-switch on plain structs.
func derefPayload(p AuditPayload) AuditPayload {
	switch v := p.(type) {
	case *PeriodOpenedPayload:
		return *v
	case *StatementImportedPayload:
		return *v
	case *MatchCreatedPayload:
		return *v
	case *MatchRemovedPayload:
		return *v
	case *SuspenseCreatedPayload:
		return *v
	case *SuspenseResolvedPayload:
		return *v
	case *PeriodClosedPayload:
		return *v
	case *PeriodReopenedPayload:
		return *v
	case *AdjustmentPostedPayload:
		return *v
	}
	return p
}
