package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	"github.com/SscSPs/bank_reconciliation/internal/models"
	"github.com/SscSPs/bank_reconciliation/internal/utils/mapping"
	"github.com/SscSPs/bank_reconciliation/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
)

const auditColumns = `seq, entry_id, period_id, entity_type, entity_id, kind, before_state, after_state, actor, occurred_at, payload`

// PgxAuditRepository appends to audit_entries. There is no update or delete path.
type PgxAuditRepository struct {
	BaseRepository
}

func newPgxAuditRepository(db querier) *PgxAuditRepository {
	return &PgxAuditRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.AuditEntryRepositoryFacade = (*PgxAuditRepository)(nil)

func (r *PgxAuditRepository) AppendAuditEntry(ctx context.Context, entry domain.AuditEntry) error {
	m, err := mapping.ToModelAuditEntry(entry)
	if err != nil {
		return fmt.Errorf("%w: audit entry %s: %v", apperrors.ErrValidation, entry.EntryID, err)
	}
	query := `
		INSERT INTO audit_entries (entry_id, period_id, entity_type, entity_id, kind, before_state, after_state, actor, occurred_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`
	_, err = r.DB.Exec(ctx, query,
		m.EntryID, m.PeriodID, m.EntityType, m.EntityID, m.Kind, m.BeforeState, m.AfterState, m.Actor, m.OccurredAt, string(m.Payload),
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to append audit entry "+m.EntryID, err)
	}
	return nil
}

func collectAuditEntries(rows pgx.Rows) ([]domain.AuditEntry, error) {
	defer rows.Close()
	var entries []domain.AuditEntry
	for rows.Next() {
		var m models.AuditEntry
		if err := rows.Scan(&m.Seq, &m.EntryID, &m.PeriodID, &m.EntityType, &m.EntityID, &m.Kind, &m.BeforeState, &m.AfterState, &m.Actor, &m.OccurredAt, &m.Payload); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan audit entry row", err)
		}
		e, err := mapping.ToDomainAuditEntry(m)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to decode audit entry "+m.EntryID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating audit entry rows", err)
	}
	return entries, nil
}

// ListAuditEntriesByPeriod pages in insertion order. The cursor carries the last entry id,
// whose seq positions the next page.
func (r *PgxAuditRepository) ListAuditEntriesByPeriod(ctx context.Context, periodID string, limit int, nextToken *string) ([]domain.AuditEntry, *string, error) {
	limit = pagination.NormalizeLimit(limit)
	args := []any{periodID}
	query := `SELECT ` + auditColumns + ` FROM audit_entries WHERE period_id = $1`
	if nextToken != nil && *nextToken != "" {
		_, cursorID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		}
		args = append(args, cursorID)
		query += ` AND seq > COALESCE((SELECT seq FROM audit_entries WHERE entry_id = $2), 0)`
	}
	args = append(args, limit+1)
	query += fmt.Sprintf(` ORDER BY seq ASC LIMIT $%d;`, len(args))

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list audit entries for period "+periodID, err)
	}
	entries, err := collectAuditEntries(rows)
	if err != nil {
		return nil, nil, err
	}

	var next *string
	if len(entries) > limit {
		last := entries[limit-1]
		token := pagination.EncodeToken(last.Timestamp, last.EntryID)
		next = &token
		entries = entries[:limit]
	}
	return entries, next, nil
}

func (r *PgxAuditRepository) ListAuditEntriesByEntity(ctx context.Context, entityType, entityID string) ([]domain.AuditEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_entries WHERE entity_type = $1 AND entity_id = $2 ORDER BY seq ASC;`
	rows, err := r.DB.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list audit entries for "+entityType+" "+entityID, err)
	}
	return collectAuditEntries(rows)
}
