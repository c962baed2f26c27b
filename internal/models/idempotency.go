package models

import "time"

// IdempotencyRecord represents a row of idempotency_records.
type IdempotencyRecord struct {
	Scope        string    `db:"scope"`
	Operation    string    `db:"operation"`
	Token        string    `db:"token"`
	Status       string    `db:"status"`
	RequestHash  string    `db:"request_hash"`
	Response     []byte    `db:"response"`
	ErrorMessage string    `db:"error_message"`
	ExpiresAt    time.Time `db:"expires_at"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
