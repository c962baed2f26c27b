package pgsql

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	"github.com/SscSPs/bank_reconciliation/internal/models"
	"github.com/SscSPs/bank_reconciliation/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

const adjustmentColumns = `adjustment_id, period_id, movement_id, amount, adjustment_type, justification, created_at, created_by`

type PgxAdjustmentRepository struct {
	BaseRepository
}

func newPgxAdjustmentRepository(db querier) *PgxAdjustmentRepository {
	return &PgxAdjustmentRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.ClosingAdjustmentRepositoryFacade = (*PgxAdjustmentRepository)(nil)

func scanAdjustment(row pgx.Row) (domain.ClosingAdjustment, error) {
	var m models.ClosingAdjustment
	if err := row.Scan(&m.AdjustmentID, &m.PeriodID, &m.MovementID, &m.Amount, &m.AdjustmentType, &m.Justification, &m.CreatedAt, &m.CreatedBy); err != nil {
		return domain.ClosingAdjustment{}, err
	}
	return mapping.ToDomainAdjustment(m), nil
}

func (r *PgxAdjustmentRepository) FindAdjustmentByID(ctx context.Context, adjustmentID string) (*domain.ClosingAdjustment, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM closing_adjustments WHERE adjustment_id = $1;`
	adj, err := scanAdjustment(r.DB.QueryRow(ctx, query, adjustmentID))
	if err != nil {
		return nil, notFoundOr(err, "closing adjustment", adjustmentID)
	}
	return &adj, nil
}

func (r *PgxAdjustmentRepository) ListAdjustmentsByPeriod(ctx context.Context, periodID string) ([]domain.ClosingAdjustment, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM closing_adjustments WHERE period_id = $1 ORDER BY created_at ASC, adjustment_id ASC;`
	rows, err := r.DB.Query(ctx, query, periodID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list closing adjustments for period "+periodID, err)
	}
	defer rows.Close()
	var adjustments []domain.ClosingAdjustment
	for rows.Next() {
		adj, err := scanAdjustment(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan closing adjustment row", err)
		}
		adjustments = append(adjustments, adj)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating closing adjustment rows", err)
	}
	return adjustments, nil
}

func (r *PgxAdjustmentRepository) SaveAdjustment(ctx context.Context, adjustment domain.ClosingAdjustment) error {
	m := mapping.ToModelAdjustment(adjustment)
	query := `INSERT INTO closing_adjustments (` + adjustmentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	_, err := r.DB.Exec(ctx, query, m.AdjustmentID, m.PeriodID, m.MovementID, m.Amount, m.AdjustmentType, m.Justification, m.CreatedAt, m.CreatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert closing adjustment "+m.AdjustmentID, err)
	}
	return nil
}
