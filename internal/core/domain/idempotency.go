package domain

import "time"

// IdempotencyStatus is the lifecycle of a guarded execution.
type IdempotencyStatus string

const (
	IdempotencyProcessing IdempotencyStatus = "PROCESSING"
	IdempotencyCompleted  IdempotencyStatus = "COMPLETED"
	IdempotencyFailed     IdempotencyStatus = "FAILED"
)

// IdempotencyKey identifies one guarded operation invocation.
type IdempotencyKey struct {
	Scope     string
	Operation string
	Token     string
}

// IdempotencyRecord is the persisted state of a guarded execution.
type IdempotencyRecord struct {
	IdempotencyKey
	Status       IdempotencyStatus
	RequestHash  string
	Response     []byte
	ErrorMessage string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the record is past its TTL at now.
func (r IdempotencyRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Claimable is true when a new execution may overwrite this record.
func (r IdempotencyRecord) Claimable(now time.Time) bool {
	return r.Status == IdempotencyFailed || r.Expired(now)
}
