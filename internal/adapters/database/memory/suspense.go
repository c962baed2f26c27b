package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

func (s *Store) FindSuspenseItemByID(_ context.Context, itemID string) (*domain.SuspenseItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.data.suspense[itemID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &item, nil
}

func (s *Store) FindSuspenseItemByIDForUpdate(ctx context.Context, itemID string) (*domain.SuspenseItem, error) {
	return s.FindSuspenseItemByID(ctx, itemID)
}

func (s *Store) FindSuspenseItemByLineIDForUpdate(ctx context.Context, lineID string) (*domain.SuspenseItem, error) {
	s.mu.RLock()
	itemID, ok := s.data.suspenseByLine[lineID]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return s.FindSuspenseItemByID(ctx, itemID)
}

func (s *Store) ListSuspenseItemsByPeriod(_ context.Context, periodID string, includeResolved bool) ([]domain.SuspenseItem, error) {
	s.mu.RLock()
	var items []domain.SuspenseItem
	for _, item := range s.data.suspense {
		if item.PeriodID != periodID || (!includeResolved && !item.IsOpen()) {
			continue
		}
		items = append(items, item)
	}
	s.mu.RUnlock()
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ItemID < items[j].ItemID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) SaveSuspenseItem(_ context.Context, item domain.SuspenseItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data.suspense[item.ItemID]; exists {
		return fmt.Errorf("%w: suspense item %s", apperrors.ErrDuplicate, item.ItemID)
	}
	if _, exists := s.data.suspenseByLine[item.LineID]; exists {
		return fmt.Errorf("%w: line %s already has a suspense item", apperrors.ErrDuplicate, item.LineID)
	}
	s.data.suspense[item.ItemID] = item
	s.data.suspenseByLine[item.LineID] = item.ItemID
	return nil
}

func (s *Store) UpdateSuspenseItem(_ context.Context, item domain.SuspenseItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data.suspense[item.ItemID]; !exists {
		return apperrors.ErrNotFound
	}
	s.data.suspense[item.ItemID] = item
	return nil
}
