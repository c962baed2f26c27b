package memory

import (
	"context"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

func (s *Store) ClaimIdempotencyKey(_ context.Context, record domain.IdempotencyRecord, now time.Time) (bool, *domain.IdempotencyRecord, error) {
	s.idemMu.Lock()
	defer s.idemMu.Unlock()
	if existing, ok := s.idempotency[record.IdempotencyKey]; ok && !existing.Claimable(now) {
		return false, &existing, nil
	}
	record.Status = domain.IdempotencyProcessing
	record.Response = nil
	record.ErrorMessage = ""
	record.CreatedAt = now
	record.UpdatedAt = now
	s.idempotency[record.IdempotencyKey] = record
	return true, nil, nil
}

func (s *Store) CompleteIdempotencyKey(_ context.Context, key domain.IdempotencyKey, response []byte, now time.Time) error {
	s.idemMu.Lock()
	defer s.idemMu.Unlock()
	record, ok := s.idempotency[key]
	if !ok {
		return apperrors.ErrNotFound
	}
	record.Status = domain.IdempotencyCompleted
	record.Response = append([]byte(nil), response...)
	record.UpdatedAt = now
	s.idempotency[key] = record
	return nil
}

func (s *Store) FailIdempotencyKey(_ context.Context, key domain.IdempotencyKey, errMsg string, now time.Time) error {
	s.idemMu.Lock()
	defer s.idemMu.Unlock()
	record, ok := s.idempotency[key]
	if !ok {
		return apperrors.ErrNotFound
	}
	record.Status = domain.IdempotencyFailed
	record.ErrorMessage = errMsg
	record.UpdatedAt = now
	s.idempotency[key] = record
	return nil
}

func (s *Store) FindIdempotencyRecord(_ context.Context, key domain.IdempotencyKey) (*domain.IdempotencyRecord, error) {
	s.idemMu.Lock()
	defer s.idemMu.Unlock()
	record, ok := s.idempotency[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &record, nil
}

// DeleteExpiredIdempotencyRecords leaves PROCESSING records alone even when expired;
// an expired one is simply claimable again.
func (s *Store) DeleteExpiredIdempotencyRecords(_ context.Context, now time.Time) (int64, error) {
	s.idemMu.Lock()
	defer s.idemMu.Unlock()
	var deleted int64
	for key, record := range s.idempotency {
		if record.Status != domain.IdempotencyProcessing && record.Expired(now) {
			delete(s.idempotency, key)
			deleted++
		}
	}
	return deleted, nil
}
