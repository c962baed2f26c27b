package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	"github.com/SscSPs/bank_reconciliation/internal/models"
	"github.com/SscSPs/bank_reconciliation/internal/utils/accounting"
	"github.com/SscSPs/bank_reconciliation/internal/utils/mapping"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const movementColumns = `movement_id, account_id, amount, movement_date, source_ref, description, balance_before, balance_after, created_at, created_by`

// PgxMovementGateway reads and writes the ledger tables shared with the ledger collaborator.
type PgxMovementGateway struct {
	BaseRepository
}

func newPgxMovementGateway(db querier) *PgxMovementGateway {
	return &PgxMovementGateway{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.LedgerMovementGateway = (*PgxMovementGateway)(nil)

func scanMovement(row pgx.Row) (models.LedgerMovement, error) {
	var m models.LedgerMovement
	err := row.Scan(&m.MovementID, &m.AccountID, &m.Amount, &m.MovementDate, &m.SourceRef, &m.Description, &m.BalanceBefore, &m.BalanceAfter, &m.CreatedAt, &m.CreatedBy)
	return m, err
}

func collectMovements(rows pgx.Rows) ([]domain.LedgerMovement, error) {
	defer rows.Close()
	var ms []models.LedgerMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan ledger movement row", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating ledger movement rows", err)
	}
	return mapping.ToDomainMovementSlice(ms), nil
}

func (g *PgxMovementGateway) GetMovement(ctx context.Context, movementID string) (*domain.LedgerMovement, error) {
	m, err := scanMovement(g.DB.QueryRow(ctx, `SELECT `+movementColumns+` FROM ledger_movements WHERE movement_id = $1;`, movementID))
	if err != nil {
		return nil, notFoundOr(err, "ledger movement", movementID)
	}
	d := mapping.ToDomainMovement(m)
	return &d, nil
}

// FindMovementsByIDs keeps the caller's order and skips ids that do not exist.
func (g *PgxMovementGateway) FindMovementsByIDs(ctx context.Context, movementIDs []string) ([]domain.LedgerMovement, error) {
	if len(movementIDs) == 0 {
		return []domain.LedgerMovement{}, nil
	}
	rows, err := g.DB.Query(ctx, `SELECT `+movementColumns+` FROM ledger_movements WHERE movement_id = ANY($1);`, movementIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to find ledger movements", err)
	}
	found, err := collectMovements(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.LedgerMovement, len(found))
	for _, m := range found {
		byID[m.MovementID] = m
	}
	out := make([]domain.LedgerMovement, 0, len(found))
	for _, id := range movementIDs {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (g *PgxMovementGateway) ListMovementsInWindow(ctx context.Context, accountID string, from, to time.Time) ([]domain.LedgerMovement, error) {
	query := `SELECT ` + movementColumns + `
		FROM ledger_movements
		WHERE account_id = $1 AND movement_date BETWEEN $2 AND $3
		ORDER BY movement_id ASC;`
	rows, err := g.DB.Query(ctx, query, accountID, domain.DateOnly(from), domain.DateOnly(to))
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list ledger movements for account "+accountID, err)
	}
	return collectMovements(rows)
}

func (g *PgxMovementGateway) CurrentBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	if err := g.DB.QueryRow(ctx, `SELECT balance FROM bank_accounts WHERE account_id = $1;`, accountID).Scan(&balance); err != nil {
		return decimal.Zero, notFoundOr(err, "bank account", accountID)
	}
	return balance, nil
}

// CreateMovement locks the account row, records the movement with its running balance and
// moves the account balance once. It must run inside the caller's transaction.
func (g *PgxMovementGateway) CreateMovement(ctx context.Context, draft domain.MovementDraft) (*domain.LedgerMovement, error) {
	var balance decimal.Decimal
	err := g.DB.QueryRow(ctx, `SELECT balance FROM bank_accounts WHERE account_id = $1 FOR UPDATE;`, draft.AccountID).Scan(&balance)
	if err != nil {
		return nil, notFoundOr(err, "bank account", draft.AccountID)
	}

	m := models.LedgerMovement{
		MovementID:    uuid.NewString(),
		AccountID:     draft.AccountID,
		Amount:        draft.Amount,
		MovementDate:  domain.DateOnly(draft.Date),
		SourceRef:     draft.SourceRef,
		Description:   draft.Description,
		BalanceBefore: balance,
		BalanceAfter:  accounting.ApplyMovement(balance, draft.Amount),
		CreatedAt:     draft.CreatedAt,
		CreatedBy:     draft.CreatedBy,
	}
	insert := `INSERT INTO ledger_movements (` + movementColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`
	if _, err := g.DB.Exec(ctx, insert, m.MovementID, m.AccountID, m.Amount, m.MovementDate, m.SourceRef, m.Description, m.BalanceBefore, m.BalanceAfter, m.CreatedAt, m.CreatedBy); err != nil {
		return nil, apperrors.NewAppError(500, "failed to insert ledger movement", err)
	}

	update := `UPDATE bank_accounts SET balance = $2, last_updated_at = $3, last_updated_by = $4 WHERE account_id = $1;`
	if _, err := g.DB.Exec(ctx, update, m.AccountID, m.BalanceAfter, m.CreatedAt, draft.CreatedBy); err != nil {
		return nil, apperrors.NewAppError(500, fmt.Sprintf("failed to update balance of account %s", m.AccountID), err)
	}

	d := mapping.ToDomainMovement(m)
	return &d, nil
}
