package repositories

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// ClosingAdjustmentReader defines read operations for closing adjustments
type ClosingAdjustmentReader interface {
	FindAdjustmentByID(ctx context.Context, adjustmentID string) (*domain.ClosingAdjustment, error)
	ListAdjustmentsByPeriod(ctx context.Context, periodID string) ([]domain.ClosingAdjustment, error)
}

// ClosingAdjustmentWriter defines write operations for closing adjustments
type ClosingAdjustmentWriter interface {
	SaveAdjustment(ctx context.Context, adjustment domain.ClosingAdjustment) error
}

// ClosingAdjustmentRepositoryFacade combines all adjustment repository interfaces
type ClosingAdjustmentRepositoryFacade interface {
	ClosingAdjustmentReader
	ClosingAdjustmentWriter
}
