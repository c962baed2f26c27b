package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
	"github.com/SscSPs/bank_reconciliation/internal/utils/accounting"
	"github.com/google/uuid"
)

// matchingService builds candidates, runs auto-match and applies manual match/unmatch.
type matchingService struct {
	BaseService
	repos      portsrepo.RepositoryProvider
	guard      *idempotencyGuard
	windowDays int
}

func newMatchingService(repos portsrepo.RepositoryProvider, guard *idempotencyGuard, cfg serviceConfig) *matchingService {
	return &matchingService{
		BaseService: newBaseService(cfg),
		repos:       repos,
		guard:       guard,
		windowDays:  cfg.matchWindowDays,
	}
}

var _ portssvc.MatchingSvcFacade = (*matchingService)(nil)

// Candidates ranks the line's unlinked movements. Lines already matched have none.
func (s *matchingService) Candidates(ctx context.Context, lineID string) (*dto.ListCandidatesResponse, error) {
	line, err := s.repos.Statements.FindLineByID(ctx, lineID)
	if err != nil {
		return nil, wrapNotFound(err, "statement line", lineID)
	}
	resp := &dto.ListCandidatesResponse{LineID: lineID, Candidates: []dto.CandidateResponse{}}
	if line.Status == domain.LineMatched {
		return resp, nil
	}
	period, err := s.repos.Periods.FindPeriodByID(ctx, line.PeriodID)
	if err != nil {
		return nil, wrapNotFound(err, "reconciliation period", line.PeriodID)
	}

	movements, err := s.unlinkedMovements(ctx, s.repos.Movements, s.repos.Matches, period.AccountID, *line, *line)
	if err != nil {
		s.LogError(ctx, err, "Failed to load candidate movements", slog.String("line_id", lineID))
		return nil, err
	}
	resp.Candidates = dto.ToCandidateResponses(buildCandidates(*line, movements, s.windowDays))
	return resp, nil
}

// unlinkedMovements lists the account's movements in the window spanned by first and last,
// minus those already owned by a link.
func (s *matchingService) unlinkedMovements(ctx context.Context, movements portsrepo.LedgerMovementReader, matches portsrepo.MatchLinkReader, accountID string, first, last domain.StatementLine) ([]domain.LedgerMovement, error) {
	from := first.ValueDate.AddDate(0, 0, -s.windowDays)
	to := last.ValueDate.AddDate(0, 0, s.windowDays)
	pool, err := movements.ListMovementsInWindow(ctx, accountID, from, to)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, nil
	}
	ids := make([]string, len(pool))
	for i, m := range pool {
		ids[i] = m.MovementID
	}
	linked, err := matches.FindLinkedMovementIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	free := pool[:0]
	for _, m := range pool {
		if _, taken := linked[m.MovementID]; !taken {
			free = append(free, m)
		}
	}
	return free, nil
}

func (s *matchingService) AutoMatch(ctx context.Context, periodID string, userID string, idempotencyKey string) (*dto.AutoMatchResponse, error) {
	return guarded(ctx, s.guard, idempotencyKey, periodID, opAutoMatch, userID, nil,
		func(ctx context.Context) (*dto.AutoMatchResponse, error) {
			resp := &dto.AutoMatchResponse{PeriodID: periodID}
			err := s.repos.Tx.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
				period, err := lockOpenPeriod(ctx, tx, periodID)
				if err != nil {
					return err
				}
				resp.Matched, resp.Suspense, err = s.autoMatchInTx(ctx, tx, period, userID, s.Now())
				return err
			})
			if err != nil {
				if !apperrors.IsClientError(err) && !errors.Is(err, apperrors.ErrPeriodNotOpen) && !errors.Is(err, apperrors.ErrNotFound) {
					s.LogError(ctx, err, "Auto-match failed", slog.String("period_id", periodID))
				}
				return nil, err
			}
			s.LogInfo(ctx, "Auto-match completed",
				slog.String("period_id", periodID),
				slog.Int("matched", resp.Matched),
				slog.Int("suspense", resp.Suspense))
			return resp, nil
		})
}

// autoMatchInTx runs the auto-match policy over the period's UNMATCHED lines inside tx.
// The caller holds the period lock. Lines that cannot be matched go to suspense.
func (s *matchingService) autoMatchInTx(ctx context.Context, tx portsrepo.TxRepositories, period *domain.ReconciliationPeriod, actor string, now time.Time) (matched, suspense int, err error) {
	lines, err := tx.Statements.ListLinesForAutoMatch(ctx, period.PeriodID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list lines for auto-match: %w", err)
	}
	if len(lines) == 0 {
		return 0, 0, nil
	}

	pool, err := s.unlinkedMovements(ctx, tx.Movements, tx.Matches, period.AccountID, lines[0], lines[len(lines)-1])
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load movements for auto-match: %w", err)
	}
	consumed := make(map[string]bool)

	for _, line := range lines {
		available := make([]domain.LedgerMovement, 0, len(pool))
		for _, m := range pool {
			if !consumed[m.MovementID] {
				available = append(available, m)
			}
		}
		candidates := buildCandidates(line, available, s.windowDays)
		chosen, reason := selectAutoMatch(candidates)

		if chosen != nil {
			if _, _, err := s.createMatchInTx(ctx, tx, &line, []domain.LedgerMovement{chosen.Movement},
				domain.MatchAuto, chosen.Confidence, domain.OutcomeManuallyMatched, actor, now); err != nil {
				return 0, 0, err
			}
			consumed[chosen.Movement.MovementID] = true
			matched++
			continue
		}
		if line.Status == domain.LineSuspense {
			continue
		}

		item := domain.SuspenseItem{
			ItemID:      uuid.NewString(),
			PeriodID:    period.PeriodID,
			LineID:      line.LineID,
			Reason:      reason,
			AuditFields: domain.NewAuditFields(actor, now),
		}
		if err := tx.Suspense.SaveSuspenseItem(ctx, item); err != nil {
			return 0, 0, fmt.Errorf("failed to save suspense item for line %s: %w", line.LineID, err)
		}
		if err := tx.Statements.UpdateLineStatus(ctx, line.LineID, domain.LineSuspense, actor, now); err != nil {
			return 0, 0, fmt.Errorf("failed to move line %s to suspense: %w", line.LineID, err)
		}
		if err := s.appendAudit(ctx, tx.Audit, period.PeriodID, domain.EntitySuspenseItem, item.ItemID,
			"", suspenseState(domain.OutcomeNone), actor, now,
			domain.SuspenseCreatedPayload{
				ItemID:         item.ItemID,
				LineID:         line.LineID,
				Reason:         reason,
				CandidateCount: len(candidates),
			}); err != nil {
			return 0, 0, err
		}
		suspense++
	}
	return matched, suspense, nil
}

// createMatchInTx links line to movements, marks the line MATCHED and writes MatchCreated.
// A line sitting in suspense has its open item resolved with resolveOutcome; the prior
// outcome is kept on the link so unmatching can restore it. The caller has validated amounts.
func (s *matchingService) createMatchInTx(ctx context.Context, tx portsrepo.TxRepositories, line *domain.StatementLine, movements []domain.LedgerMovement, matchType domain.MatchType, confidence float64, resolveOutcome domain.SuspenseOutcome, actor string, now time.Time) (*domain.MatchLink, *domain.SuspenseItem, error) {
	ids := make([]string, len(movements))
	for i, m := range movements {
		ids[i] = m.MovementID
	}
	link := domain.MatchLink{
		LinkID:      uuid.NewString(),
		LineID:      line.LineID,
		PeriodID:    line.PeriodID,
		MovementIDs: ids,
		Type:        matchType,
		Confidence:  confidence,
		CreatedBy:   actor,
		CreatedAt:   now,
	}

	var item *domain.SuspenseItem
	if line.Status == domain.LineSuspense {
		var err error
		item, err = tx.Suspense.FindSuspenseItemByLineIDForUpdate(ctx, line.LineID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("failed to load suspense item of line %s: %w", line.LineID, err)
		}
		if item != nil {
			if item.Outcome.IsFinal() {
				return nil, nil, fmt.Errorf("%w: item %s of line %s is %s", apperrors.ErrSuspenseAlreadyResolved, item.ItemID, line.LineID, item.Outcome)
			}
			link.ResolvedSuspenseItemID = &item.ItemID
			link.PriorSuspenseOutcome = item.Outcome
			item.Outcome = resolveOutcome
			item.ResolvedBy = actor
			item.ResolvedAt = &now
			item.Touch(actor, now)
			if err := tx.Suspense.UpdateSuspenseItem(ctx, *item); err != nil {
				return nil, nil, fmt.Errorf("failed to resolve suspense item %s: %w", item.ItemID, err)
			}
		}
	}

	if err := tx.Matches.SaveLink(ctx, link); err != nil {
		return nil, nil, err
	}
	if err := tx.Statements.UpdateLineStatus(ctx, line.LineID, domain.LineMatched, actor, now); err != nil {
		return nil, nil, fmt.Errorf("failed to mark line %s matched: %w", line.LineID, err)
	}
	if err := s.appendAudit(ctx, tx.Audit, line.PeriodID, domain.EntityStatementLine, line.LineID,
		string(line.Status), string(domain.LineMatched), actor, now,
		domain.MatchCreatedPayload{
			LinkID:                 link.LinkID,
			LineID:                 line.LineID,
			MovementIDs:            ids,
			Type:                   matchType,
			Confidence:             confidence,
			Amount:                 accounting.SumMovements(movements),
			ResolvedSuspenseItemID: link.ResolvedSuspenseItemID,
		}); err != nil {
		return nil, nil, err
	}
	return &link, item, nil
}

// ManualMatch links a line to movements of its account whose amounts add up exactly to the line amount.
func (s *matchingService) ManualMatch(ctx context.Context, lineID string, req dto.ManualMatchRequest, userID string, idempotencyKey string) (*dto.MatchLinkResponse, error) {
	if err := s.ValidateStruct(req); err != nil {
		return nil, err
	}
	return guarded(ctx, s.guard, idempotencyKey, lineID, opManualMatch, userID, req,
		func(ctx context.Context) (*dto.MatchLinkResponse, error) {
			link, err := s.manualMatch(ctx, lineID, req.MovementIDs, userID)
			if err != nil {
				return nil, err
			}
			resp := dto.ToMatchLinkResponse(link)
			return &resp, nil
		})
}

func (s *matchingService) manualMatch(ctx context.Context, lineID string, movementIDs []string, userID string) (*domain.MatchLink, error) {
	logger := s.GetLogger(ctx).With(slog.String("line_id", lineID))

	current, err := s.repos.Statements.FindLineByID(ctx, lineID)
	if err != nil {
		return nil, wrapNotFound(err, "statement line", lineID)
	}

	var link *domain.MatchLink
	err = s.repos.Tx.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		period, err := lockOpenPeriod(ctx, tx, current.PeriodID)
		if err != nil {
			return err
		}
		line, err := tx.Statements.FindLineByIDForUpdate(ctx, lineID)
		if err != nil {
			return wrapNotFound(err, "statement line", lineID)
		}
		if line.Status == domain.LineMatched {
			return fmt.Errorf("%w: line %s", apperrors.ErrAlreadyMatched, lineID)
		}

		movements, err := tx.Movements.FindMovementsByIDs(ctx, movementIDs)
		if err != nil {
			return fmt.Errorf("failed to load movements: %w", err)
		}
		if len(movements) != len(movementIDs) {
			found := make(map[string]bool, len(movements))
			for _, m := range movements {
				found[m.MovementID] = true
			}
			for _, id := range movementIDs {
				if !found[id] {
					return fmt.Errorf("%w: ledger movement %s", apperrors.ErrNotFound, id)
				}
			}
		}
		for _, m := range movements {
			if m.AccountID != period.AccountID {
				return fmt.Errorf("%w: movement %s belongs to account %s, not %s", apperrors.ErrValidation, m.MovementID, m.AccountID, period.AccountID)
			}
		}

		linked, err := tx.Matches.FindLinkedMovementIDs(ctx, movementIDs)
		if err != nil {
			return fmt.Errorf("failed to check movement links: %w", err)
		}
		for _, id := range movementIDs {
			if owner, taken := linked[id]; taken {
				return fmt.Errorf("%w: movement %s is linked to line %s", apperrors.ErrAlreadyMatched, id, owner)
			}
		}

		total := accounting.SumMovements(movements)
		if !total.Equal(line.Amount) {
			return &apperrors.AmountMismatchError{
				LineID:   lineID,
				Expected: line.Amount.String(),
				Actual:   total.String(),
			}
		}

		link, _, err = s.createMatchInTx(ctx, tx, line, movements, domain.MatchManual, manualConfidence,
			domain.OutcomeManuallyMatched, userID, s.Now())
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrAmountMismatch) || errors.Is(err, apperrors.ErrAlreadyMatched) {
			logger.Warn("Manual match rejected", slog.String("reason", err.Error()))
		} else if !apperrors.IsClientError(err) && !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrPeriodNotOpen) {
			logger.Error("Manual match failed", slog.String("error", err.Error()))
		}
		return nil, err
	}

	logger.Info("Line matched manually", slog.String("link_id", link.LinkID), slog.Int("movements", len(link.MovementIDs)))
	return link, nil
}

// Unmatch deletes the line's link. The line goes back to UNMATCHED, or to SUSPENSE with its
// item's prior outcome restored when the link had resolved a suspense item.
func (s *matchingService) Unmatch(ctx context.Context, lineID string, userID string, idempotencyKey string) (*dto.UnmatchResponse, error) {
	return guarded(ctx, s.guard, idempotencyKey, lineID, opUnmatch, userID, nil,
		func(ctx context.Context) (*dto.UnmatchResponse, error) {
			return s.unmatch(ctx, lineID, userID)
		})
}

func (s *matchingService) unmatch(ctx context.Context, lineID string, userID string) (*dto.UnmatchResponse, error) {
	logger := s.GetLogger(ctx).With(slog.String("line_id", lineID))

	current, err := s.repos.Statements.FindLineByID(ctx, lineID)
	if err != nil {
		return nil, wrapNotFound(err, "statement line", lineID)
	}

	var resp *dto.UnmatchResponse
	err = s.repos.Tx.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		if _, err := lockOpenPeriod(ctx, tx, current.PeriodID); err != nil {
			return err
		}
		line, err := tx.Statements.FindLineByIDForUpdate(ctx, lineID)
		if err != nil {
			return wrapNotFound(err, "statement line", lineID)
		}
		link, err := tx.Matches.FindActiveLinkByLineID(ctx, lineID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return &apperrors.NotMatchedError{LineID: lineID}
			}
			return err
		}

		now := s.Now()
		if err := tx.Matches.DeleteLink(ctx, link.LinkID); err != nil {
			return fmt.Errorf("failed to delete link %s: %w", link.LinkID, err)
		}

		restored := domain.LineUnmatched
		if link.ResolvedSuspenseItemID != nil {
			item, err := tx.Suspense.FindSuspenseItemByIDForUpdate(ctx, *link.ResolvedSuspenseItemID)
			if err != nil {
				return fmt.Errorf("failed to load suspense item %s: %w", *link.ResolvedSuspenseItemID, err)
			}
			item.Outcome = link.PriorSuspenseOutcome
			item.MovementID = nil
			if item.Outcome == domain.OutcomeNone {
				item.ResolvedBy = ""
				item.ResolvedAt = nil
			}
			item.Touch(userID, now)
			if err := tx.Suspense.UpdateSuspenseItem(ctx, *item); err != nil {
				return fmt.Errorf("failed to reopen suspense item %s: %w", item.ItemID, err)
			}
			restored = domain.LineSuspense
		}

		if err := tx.Statements.UpdateLineStatus(ctx, lineID, restored, userID, now); err != nil {
			return fmt.Errorf("failed to restore line %s: %w", lineID, err)
		}
		if err := s.appendAudit(ctx, tx.Audit, line.PeriodID, domain.EntityStatementLine, lineID,
			string(line.Status), string(restored), userID, now,
			domain.MatchRemovedPayload{
				Link:                   *link,
				RestoredLineStatus:     restored,
				ReopenedSuspenseItemID: link.ResolvedSuspenseItemID,
			}); err != nil {
			return err
		}

		resp = &dto.UnmatchResponse{
			LineID:      lineID,
			LineStatus:  restored,
			RemovedLink: dto.ToMatchLinkResponse(link),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotMatched) {
			logger.Warn("Unmatch requested for unmatched line")
		} else if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrPeriodNotOpen) {
			logger.Error("Unmatch failed", slog.String("error", err.Error()))
		}
		return nil, err
	}

	logger.Info("Line unmatched", slog.String("restored_status", string(resp.LineStatus)))
	return resp, nil
}
