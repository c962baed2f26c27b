package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	"github.com/SscSPs/bank_reconciliation/internal/models"
	"github.com/SscSPs/bank_reconciliation/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxIdempotencyRepository always runs on the pool: each statement commits on its own.
type PgxIdempotencyRepository struct {
	BaseRepository
}

func newPgxIdempotencyRepository(pool *pgxpool.Pool) *PgxIdempotencyRepository {
	return &PgxIdempotencyRepository{BaseRepository: BaseRepository{DB: pool}}
}

var _ portsrepo.IdempotencyRepository = (*PgxIdempotencyRepository)(nil)

// ClaimIdempotencyKey inserts a PROCESSING record, taking over an existing row only when it is
// FAILED or expired. An empty RETURNING means someone else holds the key.
func (r *PgxIdempotencyRepository) ClaimIdempotencyKey(ctx context.Context, record domain.IdempotencyRecord, now time.Time) (bool, *domain.IdempotencyRecord, error) {
	m := mapping.ToModelIdempotencyRecord(record)
	query := `
		INSERT INTO idempotency_records (scope, operation, token, status, request_hash, response, error_message, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, 'PROCESSING', $4, NULL, '', $5, $6, $6)
		ON CONFLICT (scope, operation, token) DO UPDATE
		SET status = 'PROCESSING',
			request_hash = EXCLUDED.request_hash,
			response = NULL,
			error_message = '',
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
		WHERE idempotency_records.status = 'FAILED' OR idempotency_records.expires_at <= $6
		RETURNING token;`
	var token string
	err := r.DB.QueryRow(ctx, query, m.Scope, m.Operation, m.Token, m.RequestHash, m.ExpiresAt, now).Scan(&token)
	if err == nil {
		return true, nil, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, nil, apperrors.NewAppError(500, "failed to claim idempotency key", err)
	}

	existing, err := r.FindIdempotencyRecord(ctx, record.IdempotencyKey)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// purged between the two statements; treat as still contended
			return false, nil, nil
		}
		return false, nil, err
	}
	return false, existing, nil
}

func (r *PgxIdempotencyRepository) CompleteIdempotencyKey(ctx context.Context, key domain.IdempotencyKey, response []byte, now time.Time) error {
	query := `
		UPDATE idempotency_records
		SET status = 'COMPLETED', response = $4, updated_at = $5
		WHERE scope = $1 AND operation = $2 AND token = $3;`
	return r.update(ctx, query, key, response, now)
}

func (r *PgxIdempotencyRepository) FailIdempotencyKey(ctx context.Context, key domain.IdempotencyKey, errMsg string, now time.Time) error {
	query := `
		UPDATE idempotency_records
		SET status = 'FAILED', error_message = $4, updated_at = $5
		WHERE scope = $1 AND operation = $2 AND token = $3;`
	return r.update(ctx, query, key, errMsg, now)
}

func (r *PgxIdempotencyRepository) update(ctx context.Context, query string, key domain.IdempotencyKey, value any, now time.Time) error {
	tag, err := r.DB.Exec(ctx, query, key.Scope, key.Operation, key.Token, value, now)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update idempotency record", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: idempotency record %s/%s", apperrors.ErrNotFound, key.Scope, key.Operation)
	}
	return nil
}

func (r *PgxIdempotencyRepository) FindIdempotencyRecord(ctx context.Context, key domain.IdempotencyKey) (*domain.IdempotencyRecord, error) {
	query := `
		SELECT scope, operation, token, status, request_hash, response, error_message, expires_at, created_at, updated_at
		FROM idempotency_records
		WHERE scope = $1 AND operation = $2 AND token = $3;`
	var m models.IdempotencyRecord
	err := r.DB.QueryRow(ctx, query, key.Scope, key.Operation, key.Token).Scan(
		&m.Scope, &m.Operation, &m.Token, &m.Status, &m.RequestHash, &m.Response, &m.ErrorMessage, &m.ExpiresAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, "idempotency record", key.Scope+"/"+key.Operation)
	}
	d := mapping.ToDomainIdempotencyRecord(m)
	return &d, nil
}

// DeleteExpiredIdempotencyRecords leaves PROCESSING rows; an expired one is reclaimed by the next claim.
func (r *PgxIdempotencyRepository) DeleteExpiredIdempotencyRecords(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, `DELETE FROM idempotency_records WHERE status <> 'PROCESSING' AND expires_at <= $1;`, now)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to purge idempotency records", err)
	}
	return tag.RowsAffected(), nil
}
