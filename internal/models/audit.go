package models

import "time"

// AuditEntry represents a row of audit_entries. Payload holds the JSON of the variant named by Kind.
type AuditEntry struct {
	Seq         int64     `db:"seq"`
	EntryID     string    `db:"entry_id"`
	PeriodID    string    `db:"period_id"`
	EntityType  string    `db:"entity_type"`
	EntityID    string    `db:"entity_id"`
	Kind        string    `db:"kind"`
	BeforeState string    `db:"before_state"`
	AfterState  string    `db:"after_state"`
	Actor       string    `db:"actor"`
	OccurredAt  time.Time `db:"occurred_at"`
	Payload     []byte    `db:"payload"`
}
