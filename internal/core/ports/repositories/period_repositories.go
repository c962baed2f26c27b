package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// PeriodReader defines read operations for reconciliation periods
type PeriodReader interface {
	// FindPeriodByID retrieves a period by its unique identifier.
	FindPeriodByID(ctx context.Context, periodID string) (*domain.ReconciliationPeriod, error)

	// FindPeriodByAccountAndRange retrieves the period of an account covering exactly [start, end].
	FindPeriodByAccountAndRange(ctx context.Context, accountID string, start, end time.Time) (*domain.ReconciliationPeriod, error)

	// ListPeriodsByAccount retrieves a paginated list of an account's periods, newest first.
	ListPeriodsByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.ReconciliationPeriod, *string, error)
}

// PeriodWriter defines write operations for reconciliation periods
type PeriodWriter interface {
	// FindPeriodByIDForUpdate reads a period and locks it until the transaction ends.
	FindPeriodByIDForUpdate(ctx context.Context, periodID string) (*domain.ReconciliationPeriod, error)

	// SavePeriod inserts a new period. A second period for the same account and range yields ErrDuplicate.
	SavePeriod(ctx context.Context, period domain.ReconciliationPeriod) error

	// UpdatePeriod persists state, balances, closing data and audit fields.
	UpdatePeriod(ctx context.Context, period domain.ReconciliationPeriod) error
}

// PeriodRepositoryFacade combines all period-related repository interfaces
type PeriodRepositoryFacade interface {
	PeriodReader
	PeriodWriter
}
