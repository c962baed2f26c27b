package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/utils/pagination"
)

func sortLines(lines []domain.StatementLine) {
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].ValueDate.Equal(lines[j].ValueDate) {
			return lines[i].LineID < lines[j].LineID
		}
		return lines[i].ValueDate.Before(lines[j].ValueDate)
	})
}

func (s *Store) SaveBatch(_ context.Context, batch domain.StatementBatch, lines []domain.StatementLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := batchKey{PeriodID: batch.PeriodID, BatchRef: batch.BatchRef}
	if _, exists := s.data.batches[key]; exists {
		return &apperrors.DuplicateImportError{PeriodID: batch.PeriodID, BatchRef: batch.BatchRef}
	}
	for _, l := range lines {
		if _, exists := s.data.lines[l.LineID]; exists {
			return fmt.Errorf("%w: statement line %s already exists", apperrors.ErrDuplicate, l.LineID)
		}
	}
	s.data.batches[key] = batch
	for _, l := range lines {
		s.data.lines[l.LineID] = l
	}
	return nil
}

func (s *Store) FindLineByID(_ context.Context, lineID string) (*domain.StatementLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.data.lines[lineID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &l, nil
}

func (s *Store) FindLineByIDForUpdate(ctx context.Context, lineID string) (*domain.StatementLine, error) {
	return s.FindLineByID(ctx, lineID)
}

func (s *Store) ListLinesByStatus(_ context.Context, periodID string, status *domain.MatchStatus, limit int, nextToken *string) ([]domain.StatementLine, *string, error) {
	limit = pagination.NormalizeLimit(limit)
	var (
		cursorKey time.Time
		cursorID  string
		hasCursor bool
	)
	if nextToken != nil && *nextToken != "" {
		var err error
		cursorKey, cursorID, err = pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		}
		hasCursor = true
	}

	s.mu.RLock()
	var lines []domain.StatementLine
	for _, l := range s.data.lines {
		if l.PeriodID != periodID || (status != nil && l.Status != *status) {
			continue
		}
		if hasCursor && !pagination.After(l.ValueDate, l.LineID, cursorKey, cursorID) {
			continue
		}
		lines = append(lines, l)
	}
	s.mu.RUnlock()

	sortLines(lines)
	var next *string
	if len(lines) > limit {
		last := lines[limit-1]
		token := pagination.EncodeToken(last.ValueDate, last.LineID)
		next = &token
		lines = lines[:limit]
	}
	return lines, next, nil
}

func (s *Store) ListLinesForAutoMatch(_ context.Context, periodID string) ([]domain.StatementLine, error) {
	s.mu.RLock()
	var lines []domain.StatementLine
	for _, l := range s.data.lines {
		switch l.Status {
		case domain.LineUnmatched:
		case domain.LineSuspense:
			if itemID, ok := s.data.suspenseByLine[l.LineID]; ok && !s.data.suspense[itemID].IsOpen() {
				continue
			}
		default:
			continue
		}
		if l.PeriodID == periodID {
			lines = append(lines, l)
		}
	}
	s.mu.RUnlock()
	sortLines(lines)
	return lines, nil
}

func (s *Store) UpdateLineStatus(_ context.Context, lineID string, status domain.MatchStatus, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.data.lines[lineID]
	if !ok {
		return apperrors.ErrNotFound
	}
	l.Status = status
	l.Touch(userID, at)
	s.data.lines[lineID] = l
	return nil
}

func (s *Store) CountPeriodLines(_ context.Context, periodID string) (domain.PeriodCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var counts domain.PeriodCounts
	for _, l := range s.data.lines {
		if l.PeriodID != periodID {
			continue
		}
		switch l.Status {
		case domain.LineUnmatched:
			counts.Unmatched++
		case domain.LineMatched:
			counts.Matched++
		case domain.LineSuspense:
			var outcome domain.SuspenseOutcome
			if itemID, ok := s.data.suspenseByLine[l.LineID]; ok {
				outcome = s.data.suspense[itemID].Outcome
			}
			switch outcome {
			case domain.OutcomeWrittenOff:
				counts.WrittenOff++
			case domain.OutcomeStillPending:
				counts.StillPending++
				counts.Suspense++
			default:
				counts.Suspense++
			}
		}
	}
	return counts, nil
}
