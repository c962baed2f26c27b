package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// StatementLineReader defines read operations for imported statement lines
type StatementLineReader interface {
	// FindLineByID retrieves a statement line by its unique identifier.
	FindLineByID(ctx context.Context, lineID string) (*domain.StatementLine, error)

	// ListLinesByStatus pages through a period's lines ordered by value date then line id.
	// A nil status lists every line.
	ListLinesByStatus(ctx context.Context, periodID string, status *domain.MatchStatus, limit int, nextToken *string) ([]domain.StatementLine, *string, error)

	// CountPeriodLines aggregates line statuses and suspense outcomes for closing.
	CountPeriodLines(ctx context.Context, periodID string) (domain.PeriodCounts, error)
}

// StatementLineWriter defines write operations for imported statement lines
type StatementLineWriter interface {
	// SaveBatch stores the batch marker and its lines. A repeated batch reference yields DuplicateImportError.
	SaveBatch(ctx context.Context, batch domain.StatementBatch, lines []domain.StatementLine) error

	// FindLineByIDForUpdate reads a line and locks it until the transaction ends.
	FindLineByIDForUpdate(ctx context.Context, lineID string) (*domain.StatementLine, error)

	// ListLinesForAutoMatch returns the period's UNMATCHED lines plus SUSPENSE lines with an open item,
	// oldest value date first, locked.
	ListLinesForAutoMatch(ctx context.Context, periodID string) ([]domain.StatementLine, error)

	// UpdateLineStatus changes a line's match status.
	UpdateLineStatus(ctx context.Context, lineID string, status domain.MatchStatus, userID string, at time.Time) error
}

// StatementLineRepositoryFacade combines all statement line repository interfaces
type StatementLineRepositoryFacade interface {
	StatementLineReader
	StatementLineWriter
}
