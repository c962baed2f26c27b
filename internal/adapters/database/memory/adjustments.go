package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

func (s *Store) FindAdjustmentByID(_ context.Context, adjustmentID string) (*domain.ClosingAdjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.data.adjustments[adjustmentID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &a, nil
}

func (s *Store) ListAdjustmentsByPeriod(_ context.Context, periodID string) ([]domain.ClosingAdjustment, error) {
	s.mu.RLock()
	var out []domain.ClosingAdjustment
	for _, a := range s.data.adjustments {
		if a.PeriodID == periodID {
			out = append(out, a)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].AdjustmentID < out[j].AdjustmentID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) SaveAdjustment(_ context.Context, adjustment domain.ClosingAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data.adjustments[adjustment.AdjustmentID]; exists {
		return fmt.Errorf("%w: adjustment %s", apperrors.ErrDuplicate, adjustment.AdjustmentID)
	}
	s.data.adjustments[adjustment.AdjustmentID] = adjustment
	return nil
}
