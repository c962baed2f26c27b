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
	"github.com/SscSPs/bank_reconciliation/internal/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BaseService provides common functionality for all services
type BaseService struct {
	now      func() time.Time
	validate *validator.Validate
}

func newBaseService(cfg serviceConfig) BaseService {
	return BaseService{now: cfg.now, validate: cfg.validate}
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// Now returns the service clock in UTC.
func (s *BaseService) Now() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

// ValidateStruct applies the same `binding` rules gin uses, so direct callers get identical checks.
func (s *BaseService) ValidateStruct(v any) error {
	if s.validate == nil {
		return nil
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: field %s failed on '%s'", apperrors.ErrValidation, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return nil
}

// appendAudit writes one audit entry inside the caller's transaction.
func (s *BaseService) appendAudit(ctx context.Context, repo portsrepo.AuditEntryWriter, periodID, entityType, entityID, before, after, actor string, at time.Time, payload domain.AuditPayload) error {
	entry := domain.AuditEntry{
		EntryID:     uuid.NewString(),
		PeriodID:    periodID,
		EntityType:  entityType,
		EntityID:    entityID,
		BeforeState: before,
		AfterState:  after,
		Actor:       actor,
		Timestamp:   at,
		Payload:     payload,
	}
	if err := repo.AppendAuditEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to append %s audit entry for %s %s: %w", payload.Kind(), entityType, entityID, err)
	}
	return nil
}

// lockOpenPeriod locks the period for the rest of the transaction and requires it to be OPEN.
func lockOpenPeriod(ctx context.Context, tx portsrepo.TxRepositories, periodID string) (*domain.ReconciliationPeriod, error) {
	period, err := tx.Periods.FindPeriodByIDForUpdate(ctx, periodID)
	if err != nil {
		return nil, wrapNotFound(err, "reconciliation period", periodID)
	}
	if period.State != domain.PeriodOpen {
		return nil, fmt.Errorf("%w: period %s is %s", apperrors.ErrPeriodNotOpen, periodID, period.State)
	}
	return period, nil
}

// wrapNotFound names the missing entity while keeping errors.Is(err, ErrNotFound) true.
func wrapNotFound(err error, entity, id string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, entity, id)
	}
	return err
}

// amountScale is the fraction precision of every NUMERIC(20, 4) amount column.
const amountScale = 4

// checkAmountScale rejects amounts the store would otherwise round.
func checkAmountScale(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(amountScale)) {
		return fmt.Errorf("%w: %s has more than %d decimal places", apperrors.ErrValidation, field, amountScale)
	}
	return nil
}

func toPendingCounts(c domain.PeriodCounts) apperrors.PendingCounts {
	return apperrors.PendingCounts{
		Pending:      c.Pending(),
		Unmatched:    c.Unmatched,
		Suspense:     c.Suspense,
		StillPending: c.StillPending,
		WrittenOff:   c.WrittenOff,
	}
}
