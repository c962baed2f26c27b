package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (s *Store) GetMovement(_ context.Context, movementID string) (*domain.LedgerMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.data.movements[movementID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &m, nil
}

func (s *Store) FindMovementsByIDs(_ context.Context, movementIDs []string) ([]domain.LedgerMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LedgerMovement, 0, len(movementIDs))
	for _, id := range movementIDs {
		if m, ok := s.data.movements[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) ListMovementsInWindow(_ context.Context, accountID string, from, to time.Time) ([]domain.LedgerMovement, error) {
	from, to = domain.DateOnly(from), domain.DateOnly(to)
	s.mu.RLock()
	var out []domain.LedgerMovement
	for _, m := range s.data.movements {
		d := domain.DateOnly(m.MovementDate)
		if m.AccountID == accountID && !d.Before(from) && !d.After(to) {
			out = append(out, m)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].MovementID < out[j].MovementID })
	return out, nil
}

func (s *Store) CurrentBalance(_ context.Context, accountID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	balance, ok := s.data.balances[accountID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: bank account %s", apperrors.ErrNotFound, accountID)
	}
	return balance, nil
}

func (s *Store) CreateMovement(_ context.Context, draft domain.MovementDraft) (*domain.LedgerMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.data.balances[draft.AccountID]
	if !ok {
		return nil, fmt.Errorf("%w: bank account %s", apperrors.ErrNotFound, draft.AccountID)
	}
	m := domain.LedgerMovement{
		MovementID:    uuid.NewString(),
		AccountID:     draft.AccountID,
		Amount:        draft.Amount,
		MovementDate:  draft.Date,
		SourceRef:     draft.SourceRef,
		Description:   draft.Description,
		BalanceBefore: balance,
		BalanceAfter:  accounting.ApplyMovement(balance, draft.Amount),
		CreatedAt:     draft.CreatedAt,
		CreatedBy:     draft.CreatedBy,
	}
	s.data.balances[draft.AccountID] = m.BalanceAfter
	s.data.movements[m.MovementID] = m
	return &m, nil
}
