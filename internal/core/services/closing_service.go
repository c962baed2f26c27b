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
	"github.com/SscSPs/bank_reconciliation/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const adjustmentSourcePrefix = "AJUSTE-CIERRE-"

// closingService drives the period state machine.
type closingService struct {
	BaseService
	repos portsrepo.RepositoryProvider
	guard *idempotencyGuard
}

func newClosingService(repos portsrepo.RepositoryProvider, guard *idempotencyGuard, cfg serviceConfig) *closingService {
	return &closingService{
		BaseService: newBaseService(cfg),
		repos:       repos,
		guard:       guard,
	}
}

var _ portssvc.ClosingSvcFacade = (*closingService)(nil)

func (s *closingService) GetSummary(ctx context.Context, periodID string) (*dto.PeriodSummaryResponse, error) {
	period, err := s.repos.Periods.FindPeriodByID(ctx, periodID)
	if err != nil {
		return nil, wrapNotFound(err, "reconciliation period", periodID)
	}
	counts, err := s.repos.Statements.CountPeriodLines(ctx, periodID)
	if err != nil {
		s.LogError(ctx, err, "Failed to count period lines", slog.String("period_id", periodID))
		return nil, err
	}
	balance, err := s.repos.Movements.CurrentBalance(ctx, period.AccountID)
	if err != nil {
		return nil, wrapNotFound(err, "bank account", period.AccountID)
	}
	links, err := s.repos.Matches.ListLinksByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	adjustments, err := s.repos.Adjustments.ListAdjustmentsByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}

	resp := &dto.PeriodSummaryResponse{
		PeriodID:             periodID,
		State:                period.State,
		PendingCount:         counts.Pending(),
		Counts:               counts,
		BankBalance:          period.BankBalance,
		CurrentLedgerBalance: balance,
		MatchedLinks:         len(links),
		Adjustments:          make([]dto.AdjustmentResponse, len(adjustments)),
	}
	for i := range adjustments {
		resp.Adjustments[i] = dto.ToAdjustmentResponse(&adjustments[i])
	}
	return resp, nil
}

// ClosePeriod validates and closes an OPEN period in one transaction. Every failure leaves
// the period OPEN with nothing posted.
func (s *closingService) ClosePeriod(ctx context.Context, req dto.ClosePeriodRequest, userID string, idempotencyKey string) (*dto.ClosePeriodResponse, error) {
	if err := s.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.SaldoBancarioReal != nil {
		if err := checkAmountScale("saldoBancarioReal", *req.SaldoBancarioReal); err != nil {
			return nil, err
		}
	}
	justifications := make([]domain.DifferenceJustification, len(req.DifferenceJustifications))
	for i, j := range req.DifferenceJustifications {
		concept := strings.TrimSpace(j.Concepto)
		text, err := normalizeJustification(j.Justificacion)
		if err != nil {
			return nil, err
		}
		if concept == "" {
			return nil, fmt.Errorf("%w: differenceJustifications[%d] concept is required", apperrors.ErrValidation, i)
		}
		if err := checkAmountScale(fmt.Sprintf("differenceJustifications[%d].monto", i), j.Monto); err != nil {
			return nil, err
		}
		justifications[i] = domain.DifferenceJustification{Amount: j.Monto, Concept: concept, Justification: text}
	}

	return guarded(ctx, s.guard, idempotencyKey, req.StatementID, opClosePeriod, userID, req,
		func(ctx context.Context) (*dto.ClosePeriodResponse, error) {
			return s.closePeriod(ctx, req, justifications, userID)
		})
}

func (s *closingService) closePeriod(ctx context.Context, req dto.ClosePeriodRequest, justifications []domain.DifferenceJustification, userID string) (*dto.ClosePeriodResponse, error) {
	periodID := req.StatementID
	logger := s.GetLogger(ctx).With(slog.String("period_id", periodID))

	var resp *dto.ClosePeriodResponse
	err := s.repos.Tx.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		now := s.Now()
		period, err := tx.Periods.FindPeriodByIDForUpdate(ctx, periodID)
		if err != nil {
			return wrapNotFound(err, "reconciliation period", periodID)
		}
		previous := period.State
		if !domain.CanTransition(previous, domain.PeriodClosing) {
			return &apperrors.InvalidStateTransitionError{
				Entity: "reconciliation period",
				From:   string(previous),
				To:     string(domain.PeriodClosing),
			}
		}
		period.State = domain.PeriodClosing
		period.Touch(userID, now)
		if err := tx.Periods.UpdatePeriod(ctx, *period); err != nil {
			return fmt.Errorf("failed to mark period closing: %w", err)
		}

		counts, err := tx.Statements.CountPeriodLines(ctx, periodID)
		if err != nil {
			return fmt.Errorf("failed to count period lines: %w", err)
		}
		pending := counts.Pending()
		if pending > 0 && !req.ForzarCierre {
			return &apperrors.UnresolvedItemsError{PeriodID: periodID, Counts: toPendingCounts(counts)}
		}
		if pending > 0 && len(justifications) == 0 {
			return &apperrors.MissingJustificationError{PeriodID: periodID, Counts: toPendingCounts(counts)}
		}

		total := accounting.TotalDifference(justifications)
		resp = &dto.ClosePeriodResponse{
			PeriodID:        periodID,
			PreviousState:   previous,
			TotalDifference: total,
			Counts:          toPendingCounts(counts),
			ClosedAt:        now,
		}

		if adjType, amount, ok := accounting.AdjustmentFor(total); req.GenerarAjuste && ok {
			adjustment, err := s.postAdjustment(ctx, tx, period, total, adjType, amount, justifications, userID, now)
			if err != nil {
				return err
			}
			period.AdjustmentID = &adjustment.AdjustmentID
			resp.AdjustmentID = &adjustment.AdjustmentID
			resp.AdjustmentType = adjustment.Type
			resp.AdjustmentAmount = &adjustment.Amount
		}

		final := domain.PeriodCompleted
		if pending > 0 {
			final = domain.PeriodWithDifferences
		}
		balance, err := tx.Movements.CurrentBalance(ctx, period.AccountID)
		if err != nil {
			return fmt.Errorf("failed to read ledger balance: %w", err)
		}

		period.State = final
		period.ClosingNotes = strings.TrimSpace(req.NotasCierre)
		period.Justifications = justifications
		period.TotalDifference = total
		period.AccountingBalance = balance
		if req.SaldoBancarioReal != nil {
			period.BankBalance = *req.SaldoBancarioReal
		}
		period.ClosedAt = &now
		period.ClosedBy = userID
		period.Touch(userID, now)
		if err := tx.Periods.UpdatePeriod(ctx, *period); err != nil {
			return fmt.Errorf("failed to persist closed period: %w", err)
		}

		if err := s.appendAudit(ctx, tx.Audit, periodID, domain.EntityPeriod, periodID,
			string(previous), string(final), userID, now,
			domain.PeriodClosedPayload{
				PreviousState:    previous,
				NewState:         final,
				TotalDifference:  total,
				AdjustmentPosted: resp.AdjustmentID != nil,
				AdjustmentID:     resp.AdjustmentID,
				PendingCount:     pending,
				ForceClose:       req.ForzarCierre,
			}); err != nil {
			return err
		}

		resp.State = final
		resp.AccountingBalance = period.AccountingBalance
		resp.BankBalance = period.BankBalance
		return nil
	})
	if err != nil {
		var unresolved *apperrors.UnresolvedItemsError
		switch {
		case errors.As(err, &unresolved):
			logger.Warn("Close rejected: pending items", slog.Int("pending", unresolved.Counts.Pending))
		case apperrors.IsClientError(err), errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Close rejected", slog.String("reason", err.Error()))
		default:
			logger.Error("Failed to close period", slog.String("error", err.Error()))
		}
		return nil, err
	}

	logger.Info("Period closed",
		slog.String("state", string(resp.State)),
		slog.String("total_difference", resp.TotalDifference.String()),
		slog.Bool("adjustment_posted", resp.AdjustmentID != nil))
	return resp, nil
}

// postAdjustment records the balancing movement through the collaborator and stores the adjustment.
func (s *closingService) postAdjustment(ctx context.Context, tx portsrepo.TxRepositories, period *domain.ReconciliationPeriod, total decimal.Decimal, adjType domain.AdjustmentType, amount decimal.Decimal, justifications []domain.DifferenceJustification, userID string, now time.Time) (*domain.ClosingAdjustment, error) {
	concepts := make([]string, len(justifications))
	texts := make([]string, len(justifications))
	for i, j := range justifications {
		concepts[i] = j.Concept
		texts[i] = j.Concept + ": " + j.Justification
	}

	movement, err := tx.Movements.CreateMovement(ctx, domain.MovementDraft{
		AccountID:   period.AccountID,
		Amount:      total,
		Date:        domain.DateOnly(period.PeriodEnd),
		SourceRef:   adjustmentSourcePrefix + period.PeriodID,
		Description: strings.Join(concepts, "; "),
		CreatedAt:   now,
		CreatedBy:   userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to post closing adjustment movement: %w", err)
	}

	adjustment := domain.ClosingAdjustment{
		AdjustmentID:  uuid.NewString(),
		PeriodID:      period.PeriodID,
		MovementID:    movement.MovementID,
		Amount:        amount,
		Type:          adjType,
		Justification: strings.Join(texts, "\n"),
		CreatedBy:     userID,
		CreatedAt:     now,
	}
	if err := tx.Adjustments.SaveAdjustment(ctx, adjustment); err != nil {
		return nil, fmt.Errorf("failed to save closing adjustment: %w", err)
	}
	if err := s.appendAudit(ctx, tx.Audit, period.PeriodID, domain.EntityAdjustment, adjustment.AdjustmentID,
		"", string(adjType), userID, now,
		domain.AdjustmentPostedPayload{
			AdjustmentID: adjustment.AdjustmentID,
			MovementID:   movement.MovementID,
			Type:         adjType,
			Amount:       amount,
		}); err != nil {
		return nil, err
	}
	return &adjustment, nil
}

// ReopenPeriod moves a closed period through REOPENED back to OPEN. Posted adjustments stay.
func (s *closingService) ReopenPeriod(ctx context.Context, periodID string, req dto.ReopenPeriodRequest, userID string, idempotencyKey string) (*dto.ReopenPeriodResponse, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reopen reason is required", apperrors.ErrValidation)
	}
	if err := s.ValidateStruct(req); err != nil {
		return nil, err
	}

	return guarded(ctx, s.guard, idempotencyKey, periodID, opReopenPeriod, userID, req,
		func(ctx context.Context) (*dto.ReopenPeriodResponse, error) {
			var resp *dto.ReopenPeriodResponse
			err := s.repos.Tx.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
				now := s.Now()
				period, err := tx.Periods.FindPeriodByIDForUpdate(ctx, periodID)
				if err != nil {
					return wrapNotFound(err, "reconciliation period", periodID)
				}
				previous := period.State
				if !domain.CanTransition(previous, domain.PeriodReopened) {
					return &apperrors.InvalidStateTransitionError{
						Entity: "reconciliation period",
						From:   string(previous),
						To:     string(domain.PeriodReopened),
					}
				}

				if err := s.appendAudit(ctx, tx.Audit, periodID, domain.EntityPeriod, periodID,
					string(previous), string(domain.PeriodReopened), userID, now,
					domain.PeriodReopenedPayload{PreviousState: previous, Reason: reason}); err != nil {
					return err
				}
				if err := s.appendAudit(ctx, tx.Audit, periodID, domain.EntityPeriod, periodID,
					string(domain.PeriodReopened), string(domain.PeriodOpen), userID, now,
					domain.PeriodOpenedPayload{
						AccountID:   period.AccountID,
						PeriodStart: period.PeriodStart,
						PeriodEnd:   period.PeriodEnd,
						BankBalance: period.BankBalance,
					}); err != nil {
					return err
				}

				period.State = domain.PeriodOpen
				period.ClosedAt = nil
				period.ClosedBy = ""
				period.Touch(userID, now)
				if err := tx.Periods.UpdatePeriod(ctx, *period); err != nil {
					return fmt.Errorf("failed to reopen period: %w", err)
				}
				resp = &dto.ReopenPeriodResponse{
					PeriodID:      periodID,
					PreviousState: previous,
					State:         domain.PeriodOpen,
					ReopenedAt:    now,
				}
				return nil
			})
			if err != nil {
				if errors.Is(err, apperrors.ErrInvalidStateTransition) || errors.Is(err, apperrors.ErrNotFound) {
					s.GetLogger(ctx).Warn("Reopen rejected", slog.String("period_id", periodID), slog.String("reason", err.Error()))
				} else {
					s.LogError(ctx, err, "Failed to reopen period", slog.String("period_id", periodID))
				}
				return nil, err
			}
			s.LogInfo(ctx, "Period reopened", slog.String("period_id", periodID), slog.String("previous_state", string(resp.PreviousState)))
			return resp, nil
		})
}
