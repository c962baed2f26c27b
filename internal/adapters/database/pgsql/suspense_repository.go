package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	"github.com/SscSPs/bank_reconciliation/internal/models"
	"github.com/SscSPs/bank_reconciliation/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

const suspenseColumns = `
	item_id, period_id, line_id, reason, assigned_to, outcome, justification, movement_id, resolved_by, resolved_at,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxSuspenseRepository struct {
	BaseRepository
}

func newPgxSuspenseRepository(db querier) *PgxSuspenseRepository {
	return &PgxSuspenseRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.SuspenseItemRepositoryFacade = (*PgxSuspenseRepository)(nil)

func scanSuspenseItem(row pgx.Row) (domain.SuspenseItem, error) {
	var m models.SuspenseItem
	err := row.Scan(
		&m.ItemID, &m.PeriodID, &m.LineID, &m.Reason, &m.AssignedTo, &m.Outcome, &m.Justification, &m.MovementID, &m.ResolvedBy, &m.ResolvedAt,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return domain.SuspenseItem{}, err
	}
	return mapping.ToDomainSuspenseItem(m), nil
}

func (r *PgxSuspenseRepository) findItem(ctx context.Context, query, id string) (*domain.SuspenseItem, error) {
	item, err := scanSuspenseItem(r.DB.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "suspense item", id)
	}
	return &item, nil
}

func (r *PgxSuspenseRepository) FindSuspenseItemByID(ctx context.Context, itemID string) (*domain.SuspenseItem, error) {
	return r.findItem(ctx, `SELECT `+suspenseColumns+` FROM suspense_items WHERE item_id = $1;`, itemID)
}

func (r *PgxSuspenseRepository) FindSuspenseItemByIDForUpdate(ctx context.Context, itemID string) (*domain.SuspenseItem, error) {
	return r.findItem(ctx, `SELECT `+suspenseColumns+` FROM suspense_items WHERE item_id = $1 FOR UPDATE;`, itemID)
}

func (r *PgxSuspenseRepository) FindSuspenseItemByLineIDForUpdate(ctx context.Context, lineID string) (*domain.SuspenseItem, error) {
	return r.findItem(ctx, `SELECT `+suspenseColumns+` FROM suspense_items WHERE line_id = $1 FOR UPDATE;`, lineID)
}

func (r *PgxSuspenseRepository) ListSuspenseItemsByPeriod(ctx context.Context, periodID string, includeResolved bool) ([]domain.SuspenseItem, error) {
	query := `SELECT ` + suspenseColumns + ` FROM suspense_items WHERE period_id = $1`
	args := []any{periodID}
	if !includeResolved {
		query += ` AND outcome NOT IN ($2, $3, $4)`
		args = append(args,
			string(domain.OutcomeConvertedToMovement),
			string(domain.OutcomeWrittenOff),
			string(domain.OutcomeManuallyMatched),
		)
	}
	query += ` ORDER BY created_at ASC, item_id ASC;`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list suspense items for period "+periodID, err)
	}
	defer rows.Close()
	var items []domain.SuspenseItem
	for rows.Next() {
		item, err := scanSuspenseItem(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan suspense item row", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating suspense item rows", err)
	}
	return items, nil
}

func (r *PgxSuspenseRepository) SaveSuspenseItem(ctx context.Context, item domain.SuspenseItem) error {
	m := mapping.ToModelSuspenseItem(item)
	query := `
		INSERT INTO suspense_items (` + suspenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);`
	_, err := r.DB.Exec(ctx, query,
		m.ItemID, m.PeriodID, m.LineID, m.Reason, m.AssignedTo, m.Outcome, m.Justification, m.MovementID, m.ResolvedBy, m.ResolvedAt,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: statement line %s already has a suspense item", apperrors.ErrDuplicate, m.LineID)
		}
		return apperrors.NewAppError(500, "failed to insert suspense item "+m.ItemID, err)
	}
	return nil
}

func (r *PgxSuspenseRepository) UpdateSuspenseItem(ctx context.Context, item domain.SuspenseItem) error {
	m := mapping.ToModelSuspenseItem(item)
	query := `
		UPDATE suspense_items
		SET assigned_to = $2, outcome = $3, justification = $4, movement_id = $5, resolved_by = $6, resolved_at = $7,
			last_updated_at = $8, last_updated_by = $9
		WHERE item_id = $1;`
	tag, err := r.DB.Exec(ctx, query,
		m.ItemID, m.AssignedTo, m.Outcome, m.Justification, m.MovementID, m.ResolvedBy, m.ResolvedAt,
		m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update suspense item "+m.ItemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: suspense item %s", apperrors.ErrNotFound, m.ItemID)
	}
	return nil
}
