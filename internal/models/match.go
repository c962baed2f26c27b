package models

import (
	"database/sql"
	"time"
)

// MatchLink represents a row of match_links joined with its movement ids.
type MatchLink struct {
	LinkID                 string         `db:"link_id"`
	LineID                 string         `db:"line_id"`
	PeriodID               string         `db:"period_id"`
	MatchType              string         `db:"match_type"`
	Confidence             float64        `db:"confidence"`
	ResolvedSuspenseItemID sql.NullString `db:"resolved_suspense_item_id"`
	PriorSuspenseOutcome   string         `db:"prior_suspense_outcome"`
	CreatedAt              time.Time      `db:"created_at"`
	CreatedBy              string         `db:"created_by"`
	MovementIDs            []string       `db:"movement_ids"` // ordered by position
}
