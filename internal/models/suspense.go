package models

import "database/sql"

// SuspenseItem represents a row of suspense_items.
type SuspenseItem struct {
	ItemID        string         `db:"item_id"`
	PeriodID      string         `db:"period_id"`
	LineID        string         `db:"line_id"`
	Reason        string         `db:"reason"`
	AssignedTo    string         `db:"assigned_to"`
	Outcome       string         `db:"outcome"`
	Justification string         `db:"justification"`
	MovementID    sql.NullString `db:"movement_id"`
	ResolvedBy    string         `db:"resolved_by"`
	ResolvedAt    sql.NullTime   `db:"resolved_at"`
	AuditFields
}
