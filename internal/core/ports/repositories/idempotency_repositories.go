package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// IdempotencyRepository persists guard records. Every method commits on its own so a
// PROCESSING claim is visible to concurrent requests before the guarded work starts.
type IdempotencyRepository interface {
	// ClaimIdempotencyKey atomically writes a PROCESSING record when none exists or the existing
	// one is FAILED or expired. When the claim loses, the current record is returned instead.
	ClaimIdempotencyKey(ctx context.Context, record domain.IdempotencyRecord, now time.Time) (claimed bool, existing *domain.IdempotencyRecord, err error)

	// CompleteIdempotencyKey stores the response and marks the record COMPLETED.
	CompleteIdempotencyKey(ctx context.Context, key domain.IdempotencyKey, response []byte, now time.Time) error

	// FailIdempotencyKey marks the record FAILED so the key can be claimed again.
	FailIdempotencyKey(ctx context.Context, key domain.IdempotencyKey, errMsg string, now time.Time) error

	FindIdempotencyRecord(ctx context.Context, key domain.IdempotencyKey) (*domain.IdempotencyRecord, error)

	// DeleteExpiredIdempotencyRecords removes expired COMPLETED and FAILED records.
	DeleteExpiredIdempotencyRecords(ctx context.Context, now time.Time) (int64, error)
}
