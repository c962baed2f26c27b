package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
)

const maxJustificationLength = 500

type suspenseService struct {
	BaseService
	repos   portsrepo.RepositoryProvider
	matcher *matchingService
	guard   *idempotencyGuard
}

func newSuspenseService(repos portsrepo.RepositoryProvider, matcher *matchingService, guard *idempotencyGuard, cfg serviceConfig) *suspenseService {
	return &suspenseService{
		BaseService: newBaseService(cfg),
		repos:       repos,
		matcher:     matcher,
		guard:       guard,
	}
}

var _ portssvc.SuspenseSvcFacade = (*suspenseService)(nil)

func (s *suspenseService) ListSuspenseItems(ctx context.Context, periodID string, params dto.ListSuspenseParams) (*dto.ListSuspenseResponse, error) {
	if _, err := s.repos.Periods.FindPeriodByID(ctx, periodID); err != nil {
		return nil, wrapNotFound(err, "reconciliation period", periodID)
	}
	items, err := s.repos.Suspense.ListSuspenseItemsByPeriod(ctx, periodID, params.IncludeResolved)
	if err != nil {
		s.LogError(ctx, err, "Failed to list suspense items", slog.String("period_id", periodID))
		return nil, err
	}
	resp := &dto.ListSuspenseResponse{Items: make([]dto.SuspenseItemResponse, len(items))}
	for i := range items {
		resp.Items[i] = dto.ToSuspenseItemResponse(&items[i])
	}
	return resp, nil
}

func normalizeJustification(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: justification is required", apperrors.ErrValidation)
	}
	if len([]rune(text)) > maxJustificationLength {
		return "", fmt.Errorf("%w: justification exceeds %d characters", apperrors.ErrValidation, maxJustificationLength)
	}
	return text, nil
}

// withOpenItem runs fn inside a transaction with the item's period and the item locked.
// Items already in a final outcome are rejected.
func (s *suspenseService) withOpenItem(ctx context.Context, itemID string, fn func(ctx context.Context, tx portsrepo.TxRepositories, item *domain.SuspenseItem, now time.Time) error) error {
	current, err := s.repos.Suspense.FindSuspenseItemByID(ctx, itemID)
	if err != nil {
		return wrapNotFound(err, "suspense item", itemID)
	}
	return s.repos.Tx.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		if _, err := lockOpenPeriod(ctx, tx, current.PeriodID); err != nil {
			return err
		}
		item, err := tx.Suspense.FindSuspenseItemByIDForUpdate(ctx, itemID)
		if err != nil {
			return wrapNotFound(err, "suspense item", itemID)
		}
		if item.Outcome.IsFinal() {
			return fmt.Errorf("%w: item %s is %s", apperrors.ErrSuspenseAlreadyResolved, itemID, item.Outcome)
		}
		return fn(ctx, tx, item, s.Now())
	})
}

func (s *suspenseService) logResolveError(ctx context.Context, err error, action, itemID string) {
	if errors.Is(err, apperrors.ErrSuspenseAlreadyResolved) || errors.Is(err, apperrors.ErrPeriodNotOpen) ||
		errors.Is(err, apperrors.ErrNotFound) || apperrors.IsClientError(err) {
		s.GetLogger(ctx).Warn("Suspense "+action+" rejected", slog.String("item_id", itemID), slog.String("reason", err.Error()))
		return
	}
	s.LogError(ctx, err, "Suspense "+action+" failed", slog.String("item_id", itemID))
}

// AssignSuspenseItem records who is working the item. It changes no outcome and is not audited.
func (s *suspenseService) AssignSuspenseItem(ctx context.Context, itemID string, req dto.AssignSuspenseRequest, userID string) (*dto.SuspenseItemResponse, error) {
	if err := s.ValidateStruct(req); err != nil {
		return nil, err
	}
	var updated *domain.SuspenseItem
	err := s.withOpenItem(ctx, itemID, func(ctx context.Context, tx portsrepo.TxRepositories, item *domain.SuspenseItem, now time.Time) error {
		item.AssignedTo = strings.TrimSpace(req.AssignedTo)
		item.Touch(userID, now)
		if err := tx.Suspense.UpdateSuspenseItem(ctx, *item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		s.logResolveError(ctx, err, "assign", itemID)
		return nil, err
	}
	resp := dto.ToSuspenseItemResponse(updated)
	return &resp, nil
}

// ResolveBySkip marks the item STILL_PENDING. It keeps counting toward the period's pending lines.
func (s *suspenseService) ResolveBySkip(ctx context.Context, itemID string, req dto.ResolveSuspenseRequest, userID string, idempotencyKey string) (*dto.SuspenseItemResponse, error) {
	return s.resolveWithJustification(ctx, itemID, req, userID, idempotencyKey, opSuspenseSkip, domain.OutcomeStillPending)
}

// ResolveByWriteOff marks the item WRITTEN_OFF. The line stays in suspense for history but
// no longer counts as pending.
func (s *suspenseService) ResolveByWriteOff(ctx context.Context, itemID string, req dto.ResolveSuspenseRequest, userID string, idempotencyKey string) (*dto.SuspenseItemResponse, error) {
	return s.resolveWithJustification(ctx, itemID, req, userID, idempotencyKey, opSuspenseWriteOff, domain.OutcomeWrittenOff)
}

func (s *suspenseService) resolveWithJustification(ctx context.Context, itemID string, req dto.ResolveSuspenseRequest, userID, idempotencyKey, operation string, outcome domain.SuspenseOutcome) (*dto.SuspenseItemResponse, error) {
	justification, err := normalizeJustification(req.Justification)
	if err != nil {
		return nil, err
	}
	return guarded(ctx, s.guard, idempotencyKey, itemID, operation, userID, req,
		func(ctx context.Context) (*dto.SuspenseItemResponse, error) {
			var updated *domain.SuspenseItem
			err := s.withOpenItem(ctx, itemID, func(ctx context.Context, tx portsrepo.TxRepositories, item *domain.SuspenseItem, now time.Time) error {
				before := item.Outcome
				item.Outcome = outcome
				item.Justification = justification
				if outcome.IsFinal() {
					item.ResolvedBy = userID
					item.ResolvedAt = &now
				}
				item.Touch(userID, now)
				if err := tx.Suspense.UpdateSuspenseItem(ctx, *item); err != nil {
					return fmt.Errorf("failed to update suspense item %s: %w", itemID, err)
				}
				if err := s.appendAudit(ctx, tx.Audit, item.PeriodID, domain.EntitySuspenseItem, itemID,
					suspenseState(before), suspenseState(outcome), userID, now,
					domain.SuspenseResolvedPayload{
						ItemID:        itemID,
						LineID:        item.LineID,
						Outcome:       outcome,
						Justification: justification,
						AssignedTo:    item.AssignedTo,
					}); err != nil {
					return err
				}
				updated = item
				return nil
			})
			if err != nil {
				s.logResolveError(ctx, err, strings.ToLower(string(outcome)), itemID)
				return nil, err
			}
			s.LogInfo(ctx, "Suspense item resolved", slog.String("item_id", itemID), slog.String("outcome", string(outcome)))
			resp := dto.ToSuspenseItemResponse(updated)
			return &resp, nil
		})
}

// ResolveByMovementCreation records a ledger movement mirroring the suspense line and links
// the line to it through the manual-match path, all in one transaction.
func (s *suspenseService) ResolveByMovementCreation(ctx context.Context, itemID string, req dto.ConvertSuspenseRequest, userID string, idempotencyKey string) (*dto.SuspenseItemResponse, error) {
	if err := s.ValidateStruct(req); err != nil {
		return nil, err
	}
	return guarded(ctx, s.guard, idempotencyKey, itemID, opSuspenseConvert, userID, req,
		func(ctx context.Context) (*dto.SuspenseItemResponse, error) {
			var updated *domain.SuspenseItem
			err := s.withOpenItem(ctx, itemID, func(ctx context.Context, tx portsrepo.TxRepositories, item *domain.SuspenseItem, now time.Time) error {
				period, err := tx.Periods.FindPeriodByID(ctx, item.PeriodID)
				if err != nil {
					return wrapNotFound(err, "reconciliation period", item.PeriodID)
				}
				line, err := tx.Statements.FindLineByIDForUpdate(ctx, item.LineID)
				if err != nil {
					return wrapNotFound(err, "statement line", item.LineID)
				}
				if line.Status == domain.LineMatched {
					return fmt.Errorf("%w: line %s", apperrors.ErrAlreadyMatched, line.LineID)
				}

				movement, err := tx.Movements.CreateMovement(ctx, movementDraftFor(period, line, item, req, userID, now))
				if err != nil {
					return fmt.Errorf("failed to create ledger movement for suspense item %s: %w", itemID, err)
				}
				if _, _, err := s.matcher.createMatchInTx(ctx, tx, line, []domain.LedgerMovement{*movement},
					domain.MatchManual, manualConfidence, domain.OutcomeConvertedToMovement, userID, now); err != nil {
					return err
				}

				// createMatchInTx resolved the item; reload it to attach the movement.
				resolved, err := tx.Suspense.FindSuspenseItemByIDForUpdate(ctx, itemID)
				if err != nil {
					return err
				}
				resolved.MovementID = &movement.MovementID
				if err := tx.Suspense.UpdateSuspenseItem(ctx, *resolved); err != nil {
					return fmt.Errorf("failed to update suspense item %s: %w", itemID, err)
				}
				if err := s.appendAudit(ctx, tx.Audit, item.PeriodID, domain.EntitySuspenseItem, itemID,
					suspenseState(item.Outcome), suspenseState(domain.OutcomeConvertedToMovement), userID, now,
					domain.SuspenseResolvedPayload{
						ItemID:     itemID,
						LineID:     item.LineID,
						Outcome:    domain.OutcomeConvertedToMovement,
						MovementID: resolved.MovementID,
						AssignedTo: resolved.AssignedTo,
					}); err != nil {
					return err
				}
				updated = resolved
				return nil
			})
			if err != nil {
				s.logResolveError(ctx, err, "conversion", itemID)
				return nil, err
			}
			s.LogInfo(ctx, "Suspense item converted to movement",
				slog.String("item_id", itemID),
				slog.String("movement_id", *updated.MovementID))
			resp := dto.ToSuspenseItemResponse(updated)
			return &resp, nil
		})
}

// movementDraftFor mirrors the line. Request fields override date, reference and description.
func movementDraftFor(period *domain.ReconciliationPeriod, line *domain.StatementLine, item *domain.SuspenseItem, req dto.ConvertSuspenseRequest, userID string, now time.Time) domain.MovementDraft {
	draft := domain.MovementDraft{
		AccountID:   period.AccountID,
		Amount:      line.Amount,
		Date:        line.ValueDate,
		SourceRef:   strings.TrimSpace(req.SourceRef),
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		CreatedBy:   userID,
	}
	if req.Date != nil {
		draft.Date = domain.DateOnly(*req.Date)
	}
	if draft.SourceRef == "" {
		draft.SourceRef = line.ExternalReference
	}
	if draft.SourceRef == "" {
		draft.SourceRef = "SUSPENSE-" + item.ItemID
	}
	if draft.Description == "" {
		draft.Description = line.Description
	}
	return draft
}

// suspenseState renders an outcome for the audit before/after columns.
func suspenseState(o domain.SuspenseOutcome) string {
	if o == domain.OutcomeNone {
		return "OPEN"
	}
	return string(o)
}
