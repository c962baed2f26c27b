package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/utils/pagination"
)

func clonePeriod(p domain.ReconciliationPeriod) domain.ReconciliationPeriod {
	p.Justifications = slices.Clone(p.Justifications)
	return p
}

func (s *Store) FindPeriodByID(_ context.Context, periodID string) (*domain.ReconciliationPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.data.periods[periodID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	p = clonePeriod(p)
	return &p, nil
}

// FindPeriodByIDForUpdate needs no row lock: RunInTx already holds the store exclusively.
func (s *Store) FindPeriodByIDForUpdate(ctx context.Context, periodID string) (*domain.ReconciliationPeriod, error) {
	return s.FindPeriodByID(ctx, periodID)
}

func (s *Store) FindPeriodByAccountAndRange(_ context.Context, accountID string, start, end time.Time) (*domain.ReconciliationPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start, end = domain.DateOnly(start), domain.DateOnly(end)
	for _, p := range s.data.periods {
		if p.AccountID == accountID && domain.DateOnly(p.PeriodStart).Equal(start) && domain.DateOnly(p.PeriodEnd).Equal(end) {
			p = clonePeriod(p)
			return &p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *Store) ListPeriodsByAccount(_ context.Context, accountID string, limit int, nextToken *string) ([]domain.ReconciliationPeriod, *string, error) {
	limit = pagination.NormalizeLimit(limit)
	s.mu.RLock()
	var all []domain.ReconciliationPeriod
	for _, p := range s.data.periods {
		if p.AccountID == accountID {
			all = append(all, clonePeriod(p))
		}
	}
	s.mu.RUnlock()

	// newest first
	sort.Slice(all, func(i, j int) bool {
		if all[i].PeriodStart.Equal(all[j].PeriodStart) {
			return all[i].PeriodID > all[j].PeriodID
		}
		return all[i].PeriodStart.After(all[j].PeriodStart)
	})

	if nextToken != nil && *nextToken != "" {
		cursorKey, cursorID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		}
		filtered := all[:0]
		for _, p := range all {
			// descending order: keep rows strictly before the cursor
			if pagination.After(cursorKey, cursorID, p.PeriodStart, p.PeriodID) {
				filtered = append(filtered, p)
			}
		}
		all = filtered
	}

	var next *string
	if len(all) > limit {
		last := all[limit-1]
		token := pagination.EncodeToken(last.PeriodStart, last.PeriodID)
		next = &token
		all = all[:limit]
	}
	return all, next, nil
}

func (s *Store) SavePeriod(_ context.Context, period domain.ReconciliationPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data.periods[period.PeriodID]; exists {
		return fmt.Errorf("%w: period %s already exists", apperrors.ErrDuplicate, period.PeriodID)
	}
	start, end := domain.DateOnly(period.PeriodStart), domain.DateOnly(period.PeriodEnd)
	for _, p := range s.data.periods {
		if p.AccountID == period.AccountID && domain.DateOnly(p.PeriodStart).Equal(start) && domain.DateOnly(p.PeriodEnd).Equal(end) {
			return fmt.Errorf("%w: account %s already has a period for this range", apperrors.ErrDuplicate, period.AccountID)
		}
	}
	s.data.periods[period.PeriodID] = clonePeriod(period)
	return nil
}

func (s *Store) UpdatePeriod(_ context.Context, period domain.ReconciliationPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data.periods[period.PeriodID]; !exists {
		return apperrors.ErrNotFound
	}
	s.data.periods[period.PeriodID] = clonePeriod(period)
	return nil
}
