package repositories

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// SuspenseItemReader defines read operations for suspense items
type SuspenseItemReader interface {
	FindSuspenseItemByID(ctx context.Context, itemID string) (*domain.SuspenseItem, error)

	// ListSuspenseItemsByPeriod lists a period's items by creation time. Final items are
	// skipped unless includeResolved is set.
	ListSuspenseItemsByPeriod(ctx context.Context, periodID string, includeResolved bool) ([]domain.SuspenseItem, error)
}

// SuspenseItemWriter defines write operations for suspense items
type SuspenseItemWriter interface {
	SaveSuspenseItem(ctx context.Context, item domain.SuspenseItem) error
	FindSuspenseItemByIDForUpdate(ctx context.Context, itemID string) (*domain.SuspenseItem, error)

	// FindSuspenseItemByLineIDForUpdate returns the line's item (a line has at most one) or ErrNotFound.
	FindSuspenseItemByLineIDForUpdate(ctx context.Context, lineID string) (*domain.SuspenseItem, error)

	UpdateSuspenseItem(ctx context.Context, item domain.SuspenseItem) error
}

// SuspenseItemRepositoryFacade combines all suspense repository interfaces
type SuspenseItemRepositoryFacade interface {
	SuspenseItemReader
	SuspenseItemWriter
}
