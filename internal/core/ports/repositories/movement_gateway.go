package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerMovementReader reads movements owned by the ledger collaborator.
type LedgerMovementReader interface {
	GetMovement(ctx context.Context, movementID string) (*domain.LedgerMovement, error)

	// FindMovementsByIDs returns the movements found, in the order of ids. Missing ids are skipped.
	FindMovementsByIDs(ctx context.Context, movementIDs []string) ([]domain.LedgerMovement, error)

	// ListMovementsInWindow lists an account's movements dated within [from, to] by calendar day,
	// ordered by movement id.
	ListMovementsInWindow(ctx context.Context, accountID string, from, to time.Time) ([]domain.LedgerMovement, error)

	CurrentBalance(ctx context.Context, accountID string) (decimal.Decimal, error)
}

// LedgerMovementWriter records new movements and moves the account's running balance exactly once.
type LedgerMovementWriter interface {
	CreateMovement(ctx context.Context, draft domain.MovementDraft) (*domain.LedgerMovement, error)
}

// LedgerMovementGateway is the core's whole view of the ledger collaborator.
type LedgerMovementGateway interface {
	LedgerMovementReader
	LedgerMovementWriter
}
