package memory

import (
	"context"
	"fmt"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/utils/pagination"
)

// AppendAuditEntry keeps entries in insertion order, which is also timestamp order.
func (s *Store) AppendAuditEntry(_ context.Context, entry domain.AuditEntry) error {
	if entry.Payload == nil {
		return fmt.Errorf("%w: audit entry %s has no payload", apperrors.ErrValidation, entry.EntryID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.audit = append(s.data.audit, entry)
	return nil
}

func (s *Store) ListAuditEntriesByPeriod(_ context.Context, periodID string, limit int, nextToken *string) ([]domain.AuditEntry, *string, error) {
	limit = pagination.NormalizeLimit(limit)
	cursorID := ""
	if nextToken != nil && *nextToken != "" {
		_, id, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		}
		cursorID = id
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AuditEntry
	skipping := cursorID != ""
	for _, e := range s.data.audit {
		if e.PeriodID != periodID {
			continue
		}
		if skipping {
			if e.EntryID == cursorID {
				skipping = false
			}
			continue
		}
		out = append(out, e)
	}

	var next *string
	if len(out) > limit {
		last := out[limit-1]
		token := pagination.EncodeToken(last.Timestamp, last.EntryID)
		next = &token
		out = out[:limit]
	}
	return out, next, nil
}

func (s *Store) ListAuditEntriesByEntity(_ context.Context, entityType, entityID string) ([]domain.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AuditEntry
	for _, e := range s.data.audit {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}
