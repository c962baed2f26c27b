package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

func cloneLink(l domain.MatchLink) domain.MatchLink {
	l.MovementIDs = slices.Clone(l.MovementIDs)
	return l
}

func (s *Store) FindActiveLinkByLineID(_ context.Context, lineID string) (*domain.MatchLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	linkID, ok := s.data.linkByLine[lineID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	l := cloneLink(s.data.links[linkID])
	return &l, nil
}

func (s *Store) FindLinkedMovementIDs(_ context.Context, movementIDs []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	linked := make(map[string]string)
	for _, id := range movementIDs {
		if linkID, ok := s.data.linkByMovement[id]; ok {
			linked[id] = s.data.links[linkID].LineID
		}
	}
	return linked, nil
}

func (s *Store) ListLinksByPeriod(_ context.Context, periodID string) ([]domain.MatchLink, error) {
	s.mu.RLock()
	var links []domain.MatchLink
	for _, l := range s.data.links {
		if l.PeriodID == periodID {
			links = append(links, cloneLink(l))
		}
	}
	s.mu.RUnlock()
	sort.Slice(links, func(i, j int) bool {
		if links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].LinkID < links[j].LinkID
		}
		return links[i].CreatedAt.Before(links[j].CreatedAt)
	})
	return links, nil
}

func (s *Store) SaveLink(_ context.Context, link domain.MatchLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data.linkByLine[link.LineID]; exists {
		return fmt.Errorf("%w: line %s", apperrors.ErrAlreadyMatched, link.LineID)
	}
	for _, id := range link.MovementIDs {
		if _, exists := s.data.linkByMovement[id]; exists {
			return fmt.Errorf("%w: movement %s", apperrors.ErrAlreadyMatched, id)
		}
	}
	s.data.links[link.LinkID] = cloneLink(link)
	s.data.linkByLine[link.LineID] = link.LinkID
	for _, id := range link.MovementIDs {
		s.data.linkByMovement[id] = link.LinkID
	}
	return nil
}

func (s *Store) DeleteLink(_ context.Context, linkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.data.links[linkID]
	if !ok {
		return apperrors.ErrNotFound
	}
	delete(s.data.links, linkID)
	delete(s.data.linkByLine, link.LineID)
	for _, id := range link.MovementIDs {
		delete(s.data.linkByMovement, id)
	}
	return nil
}
