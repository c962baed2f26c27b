package services

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/dto"
)

// ClosingReaderSvc defines read operations of the closing workflow
type ClosingReaderSvc interface {
	// GetSummary reports the counts a close would validate against right now.
	GetSummary(ctx context.Context, periodID string) (*dto.PeriodSummaryResponse, error)
}

// ClosingWriterSvc defines the closing workflow transitions
type ClosingWriterSvc interface {
	ClosePeriod(ctx context.Context, req dto.ClosePeriodRequest, userID string, idempotencyKey string) (*dto.ClosePeriodResponse, error)
	ReopenPeriod(ctx context.Context, periodID string, req dto.ReopenPeriodRequest, userID string, idempotencyKey string) (*dto.ReopenPeriodResponse, error)
}

// ClosingSvcFacade combines all closing service interfaces
type ClosingSvcFacade interface {
	ClosingReaderSvc
	ClosingWriterSvc
}
