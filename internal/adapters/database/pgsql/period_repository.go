package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	"github.com/SscSPs/bank_reconciliation/internal/models"
	"github.com/SscSPs/bank_reconciliation/internal/utils/mapping"
	"github.com/SscSPs/bank_reconciliation/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
)

const periodColumns = `
	period_id, account_id, period_start, period_end, accounting_balance, bank_balance, state,
	closing_notes, justifications, total_difference, adjustment_id, closed_at, closed_by,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxPeriodRepository struct {
	BaseRepository
}

func newPgxPeriodRepository(db querier) *PgxPeriodRepository {
	return &PgxPeriodRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.PeriodRepositoryFacade = (*PgxPeriodRepository)(nil)

func scanPeriod(row pgx.Row) (*domain.ReconciliationPeriod, error) {
	var m models.ReconciliationPeriod
	err := row.Scan(
		&m.PeriodID, &m.AccountID, &m.PeriodStart, &m.PeriodEnd, &m.AccountingBalance, &m.BankBalance, &m.State,
		&m.ClosingNotes, &m.Justifications, &m.TotalDifference, &m.AdjustmentID, &m.ClosedAt, &m.ClosedBy,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	p, err := mapping.ToDomainPeriod(m)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PgxPeriodRepository) findOne(ctx context.Context, query string, id string, args ...any) (*domain.ReconciliationPeriod, error) {
	p, err := scanPeriod(r.DB.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, notFoundOr(err, "reconciliation period", id)
	}
	return p, nil
}

// FindPeriodByID retrieves a period by its unique identifier.
func (r *PgxPeriodRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.ReconciliationPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM reconciliation_periods WHERE period_id = $1;`
	return r.findOne(ctx, query, periodID, periodID)
}

// FindPeriodByIDForUpdate locks the period row until the surrounding transaction ends.
func (r *PgxPeriodRepository) FindPeriodByIDForUpdate(ctx context.Context, periodID string) (*domain.ReconciliationPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM reconciliation_periods WHERE period_id = $1 FOR UPDATE;`
	return r.findOne(ctx, query, periodID, periodID)
}

func (r *PgxPeriodRepository) FindPeriodByAccountAndRange(ctx context.Context, accountID string, start, end time.Time) (*domain.ReconciliationPeriod, error) {
	query := `SELECT ` + periodColumns + `
		FROM reconciliation_periods
		WHERE account_id = $1 AND period_start = $2 AND period_end = $3;`
	return r.findOne(ctx, query, accountID, accountID, domain.DateOnly(start), domain.DateOnly(end))
}

// ListPeriodsByAccount pages newest first by period start.
func (r *PgxPeriodRepository) ListPeriodsByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.ReconciliationPeriod, *string, error) {
	limit = pagination.NormalizeLimit(limit)
	args := []any{accountID}
	query := `SELECT ` + periodColumns + ` FROM reconciliation_periods WHERE account_id = $1`
	if nextToken != nil && *nextToken != "" {
		cursorKey, cursorID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		}
		query += ` AND (period_start, period_id) < ($2, $3)`
		args = append(args, domain.DateOnly(cursorKey), cursorID)
	}
	query += fmt.Sprintf(` ORDER BY period_start DESC, period_id DESC LIMIT $%d;`, len(args)+1)
	args = append(args, limit+1)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list periods for account "+accountID, err)
	}
	defer rows.Close()

	var periods []domain.ReconciliationPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan period row", err)
		}
		periods = append(periods, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating period rows", err)
	}

	var next *string
	if len(periods) > limit {
		last := periods[limit-1]
		token := pagination.EncodeToken(last.PeriodStart, last.PeriodID)
		next = &token
		periods = periods[:limit]
	}
	return periods, next, nil
}

// SavePeriod inserts a new period. The (account, start, end) unique key rejects a second opening.
func (r *PgxPeriodRepository) SavePeriod(ctx context.Context, period domain.ReconciliationPeriod) error {
	m, err := mapping.ToModelPeriod(period)
	if err != nil {
		return apperrors.NewAppError(500, "failed to map period", err)
	}
	query := `
		INSERT INTO reconciliation_periods (` + periodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);`
	_, err = r.DB.Exec(ctx, query,
		m.PeriodID, m.AccountID, m.PeriodStart, m.PeriodEnd, m.AccountingBalance, m.BankBalance, m.State,
		m.ClosingNotes, string(m.Justifications), m.TotalDifference, m.AdjustmentID, m.ClosedAt, m.ClosedBy,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account %s already has a period for this range", apperrors.ErrDuplicate, m.AccountID)
		}
		if pgErrorCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("%w: bank account %s", apperrors.ErrNotFound, m.AccountID)
		}
		return apperrors.NewAppError(500, "failed to insert period "+m.PeriodID, err)
	}
	return nil
}

func (r *PgxPeriodRepository) UpdatePeriod(ctx context.Context, period domain.ReconciliationPeriod) error {
	m, err := mapping.ToModelPeriod(period)
	if err != nil {
		return apperrors.NewAppError(500, "failed to map period", err)
	}
	query := `
		UPDATE reconciliation_periods
		SET accounting_balance = $2, bank_balance = $3, state = $4, closing_notes = $5, justifications = $6,
			total_difference = $7, adjustment_id = $8, closed_at = $9, closed_by = $10,
			last_updated_at = $11, last_updated_by = $12
		WHERE period_id = $1;`
	tag, err := r.DB.Exec(ctx, query,
		m.PeriodID, m.AccountingBalance, m.BankBalance, m.State, m.ClosingNotes, string(m.Justifications),
		m.TotalDifference, m.AdjustmentID, m.ClosedAt, m.ClosedBy,
		m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update period "+m.PeriodID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: reconciliation period %s", apperrors.ErrNotFound, m.PeriodID)
	}
	return nil
}
