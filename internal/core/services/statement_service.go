package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
	"github.com/SscSPs/bank_reconciliation/internal/utils/accounting"
	"github.com/google/uuid"
)

// statementService owns periods and the statement line store.
type statementService struct {
	BaseService
	repos   portsrepo.RepositoryProvider
	matcher *matchingService
	guard   *idempotencyGuard
}

func newStatementService(repos portsrepo.RepositoryProvider, matcher *matchingService, guard *idempotencyGuard, cfg serviceConfig) *statementService {
	return &statementService{
		BaseService: newBaseService(cfg),
		repos:       repos,
		matcher:     matcher,
		guard:       guard,
	}
}

var _ portssvc.StatementSvcFacade = (*statementService)(nil)

func (s *statementService) GetPeriod(ctx context.Context, periodID string) (*domain.ReconciliationPeriod, error) {
	period, err := s.repos.Periods.FindPeriodByID(ctx, periodID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, wrapNotFound(err, "reconciliation period", periodID)
		}
		s.LogError(ctx, err, "Failed to get period", slog.String("period_id", periodID))
		return nil, err
	}
	return period, nil
}

// OpenPeriod returns the account's period for the same window when one exists,
// so retried opens do not fail.
func (s *statementService) OpenPeriod(ctx context.Context, req dto.OpenPeriodRequest, userID string) (*domain.ReconciliationPeriod, error) {
	if err := s.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := checkAmountScale("bankBalance", req.BankBalance); err != nil {
		return nil, err
	}
	logger := s.GetLogger(ctx).With(slog.String("account_id", req.AccountID))

	balance, err := s.repos.Movements.CurrentBalance(ctx, req.AccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, wrapNotFound(err, "bank account", req.AccountID)
		}
		logger.Error("Failed to read ledger balance", slog.String("error", err.Error()))
		return nil, err
	}

	start, end := domain.DateOnly(req.PeriodStart), domain.DateOnly(req.PeriodEnd)
	existing, err := s.repos.Periods.FindPeriodByAccountAndRange(ctx, req.AccountID, start, end)
	if err == nil {
		logger.Info("Period already open for window", slog.String("period_id", existing.PeriodID))
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := s.Now()
	period := domain.ReconciliationPeriod{
		PeriodID:          uuid.NewString(),
		AccountID:         req.AccountID,
		PeriodStart:       start,
		PeriodEnd:         end,
		AccountingBalance: balance,
		BankBalance:       req.BankBalance,
		State:             domain.PeriodOpen,
		AuditFields:       domain.NewAuditFields(userID, now),
	}

	err = s.repos.Tx.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		if err := tx.Periods.SavePeriod(ctx, period); err != nil {
			return err
		}
		return s.appendAudit(ctx, tx.Audit, period.PeriodID, domain.EntityPeriod, period.PeriodID,
			"", string(domain.PeriodOpen), userID, now,
			domain.PeriodOpenedPayload{
				AccountID:   period.AccountID,
				PeriodStart: period.PeriodStart,
				PeriodEnd:   period.PeriodEnd,
				BankBalance: period.BankBalance,
			})
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Lost a race with a concurrent open of the same window.
			return s.repos.Periods.FindPeriodByAccountAndRange(ctx, req.AccountID, start, end)
		}
		logger.Error("Failed to open period", slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Reconciliation period opened", slog.String("period_id", period.PeriodID))
	return &period, nil
}

func (s *statementService) ListLines(ctx context.Context, periodID string, params dto.ListLinesParams) (*dto.ListLinesResponse, error) {
	if err := s.ValidateStruct(params); err != nil {
		return nil, err
	}
	if _, err := s.GetPeriod(ctx, periodID); err != nil {
		return nil, err
	}

	var status *domain.MatchStatus
	if params.Status != "" {
		st := domain.MatchStatus(params.Status)
		status = &st
	}
	lines, nextToken, err := s.repos.Statements.ListLinesByStatus(ctx, periodID, status, params.Limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list statement lines", slog.String("period_id", periodID))
		return nil, err
	}
	return &dto.ListLinesResponse{
		Lines:     dto.ToStatementLineResponses(lines),
		NextToken: nextToken,
	}, nil
}

// ImportStatement stores a batch as UNMATCHED lines and, unless disabled, auto-matches
// the period within the same transaction. A repeated batch reference fails with
// DuplicateImportError and changes nothing.
func (s *statementService) ImportStatement(ctx context.Context, periodID string, req dto.ImportStatementRequest, userID string, idempotencyKey string) (*dto.ImportStatementResponse, error) {
	if err := s.ValidateStruct(req); err != nil {
		return nil, err
	}
	return guarded(ctx, s.guard, idempotencyKey, periodID, opImportStatement, userID, req,
		func(ctx context.Context) (*dto.ImportStatementResponse, error) {
			return s.importStatement(ctx, periodID, req, userID)
		})
}

func (s *statementService) importStatement(ctx context.Context, periodID string, req dto.ImportStatementRequest, userID string) (*dto.ImportStatementResponse, error) {
	logger := s.GetLogger(ctx).With(
		slog.String("period_id", periodID),
		slog.String("batch_ref", req.BatchRef),
	)
	now := s.Now()
	batchRef := strings.TrimSpace(req.BatchRef)

	rows := make([]domain.StatementRow, len(req.Rows))
	lines := make([]domain.StatementLine, len(req.Rows))
	for i, r := range req.Rows {
		if r.Amount.IsZero() {
			return nil, fmt.Errorf("%w: row %d has a zero amount", apperrors.ErrValidation, i)
		}
		if err := checkAmountScale(fmt.Sprintf("row %d amount", i), r.Amount); err != nil {
			return nil, err
		}
		rows[i] = domain.StatementRow{
			Amount:            r.Amount,
			ValueDate:         domain.DateOnly(r.ValueDate),
			Description:       strings.TrimSpace(r.Description),
			ExternalReference: strings.TrimSpace(r.ExternalReference),
		}
		lines[i] = domain.StatementLine{
			LineID:            uuid.NewString(),
			PeriodID:          periodID,
			BatchRef:          batchRef,
			Amount:            rows[i].Amount,
			ValueDate:         rows[i].ValueDate,
			Description:       rows[i].Description,
			ExternalReference: rows[i].ExternalReference,
			Status:            domain.LineUnmatched,
			AuditFields:       domain.NewAuditFields(userID, now),
		}
	}

	resp := &dto.ImportStatementResponse{
		PeriodID:      periodID,
		BatchRef:      batchRef,
		ImportedCount: len(lines),
	}
	err := s.repos.Tx.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		period, err := lockOpenPeriod(ctx, tx, periodID)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if !period.Contains(r.ValueDate) {
				return fmt.Errorf("%w: value date %s is outside period %s..%s", apperrors.ErrValidation,
					r.ValueDate.Format("2006-01-02"), period.PeriodStart.Format("2006-01-02"), period.PeriodEnd.Format("2006-01-02"))
			}
		}

		batch := domain.StatementBatch{
			PeriodID:   periodID,
			BatchRef:   batchRef,
			LineCount:  len(lines),
			ImportedAt: now,
			ImportedBy: userID,
		}
		if err := tx.Statements.SaveBatch(ctx, batch, lines); err != nil {
			return err
		}
		if err := s.appendAudit(ctx, tx.Audit, periodID, domain.EntityBatch, batchRef,
			"", string(domain.LineUnmatched), userID, now,
			domain.StatementImportedPayload{
				BatchRef:  batchRef,
				LineCount: len(lines),
				Total:     accounting.SumRows(rows),
			}); err != nil {
			return err
		}

		if req.AutoMatch != nil && !*req.AutoMatch {
			return nil
		}
		resp.Matched, resp.Suspense, err = s.matcher.autoMatchInTx(ctx, tx, period, userID, now)
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateImport) {
			logger.Warn("Statement batch already imported")
		} else if !apperrors.IsClientError(err) {
			logger.Error("Failed to import statement", slog.String("error", err.Error()))
		}
		return nil, err
	}

	logger.Info("Statement imported",
		slog.Int("lines", resp.ImportedCount),
		slog.Int("matched", resp.Matched),
		slog.Int("suspense", resp.Suspense))
	return resp, nil
}
