package services

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
)

// PeriodReaderSvc defines read operations for reconciliation periods
type PeriodReaderSvc interface {
	// GetPeriod retrieves a period by its ID.
	GetPeriod(ctx context.Context, periodID string) (*domain.ReconciliationPeriod, error)
}

// PeriodWriterSvc defines write operations for reconciliation periods
type PeriodWriterSvc interface {
	// OpenPeriod creates the period for an account window, or returns the existing one.
	OpenPeriod(ctx context.Context, req dto.OpenPeriodRequest, userID string) (*domain.ReconciliationPeriod, error)
}

// StatementReaderSvc defines read operations for statement lines
type StatementReaderSvc interface {
	// ListLines pages through a period's lines, optionally filtered by status.
	ListLines(ctx context.Context, periodID string, params dto.ListLinesParams) (*dto.ListLinesResponse, error)
}

// StatementWriterSvc defines write operations for statement lines
type StatementWriterSvc interface {
	// ImportStatement appends a batch of lines as UNMATCHED. Guarded by idempotencyKey when present.
	ImportStatement(ctx context.Context, periodID string, req dto.ImportStatementRequest, userID string, idempotencyKey string) (*dto.ImportStatementResponse, error)
}

// StatementSvcFacade combines all period and statement service interfaces
type StatementSvcFacade interface {
	PeriodReaderSvc
	PeriodWriterSvc
	StatementReaderSvc
	StatementWriterSvc
}
