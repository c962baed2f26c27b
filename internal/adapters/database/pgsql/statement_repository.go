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

const lineColumns = `
	line_id, period_id, batch_ref, amount, value_date, description, external_reference, status,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxStatementRepository struct {
	BaseRepository
}

func newPgxStatementRepository(db querier) *PgxStatementRepository {
	return &PgxStatementRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.StatementLineRepositoryFacade = (*PgxStatementRepository)(nil)

func scanLine(row pgx.Row) (models.StatementLine, error) {
	var m models.StatementLine
	err := row.Scan(
		&m.LineID, &m.PeriodID, &m.BatchRef, &m.Amount, &m.ValueDate, &m.Description, &m.ExternalReference, &m.Status,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

func collectLines(rows pgx.Rows) ([]domain.StatementLine, error) {
	defer rows.Close()
	var lines []models.StatementLine
	for rows.Next() {
		m, err := scanLine(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan statement line row", err)
		}
		lines = append(lines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating statement line rows", err)
	}
	return mapping.ToDomainStatementLineSlice(lines), nil
}

// SaveBatch inserts the batch marker first so a repeated batch reference fails before any line is written.
func (r *PgxStatementRepository) SaveBatch(ctx context.Context, batch domain.StatementBatch, lines []domain.StatementLine) error {
	mb := mapping.ToModelBatch(batch)
	batchQuery := `
		INSERT INTO statement_batches (period_id, batch_ref, line_count, imported_at, imported_by)
		VALUES ($1, $2, $3, $4, $5);`
	if _, err := r.DB.Exec(ctx, batchQuery, mb.PeriodID, mb.BatchRef, mb.LineCount, mb.ImportedAt, mb.ImportedBy); err != nil {
		if isUniqueViolation(err) {
			return &apperrors.DuplicateImportError{PeriodID: mb.PeriodID, BatchRef: mb.BatchRef}
		}
		return apperrors.NewAppError(500, "failed to insert statement batch "+mb.BatchRef, err)
	}

	if len(lines) == 0 {
		return nil
	}
	pgBatch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO statement_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`
	for _, l := range lines {
		m := mapping.ToModelStatementLine(l)
		pgBatch.Queue(lineQuery,
			m.LineID, m.PeriodID, m.BatchRef, m.Amount, m.ValueDate, m.Description, m.ExternalReference, m.Status,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
	}

	br := r.DB.SendBatch(ctx, pgBatch)
	defer br.Close()
	for range lines {
		if _, err := br.Exec(); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: statement line already exists", apperrors.ErrDuplicate)
			}
			return apperrors.NewAppError(500, "failed to insert statement lines of batch "+mb.BatchRef, err)
		}
	}
	return nil
}

func (r *PgxStatementRepository) FindLineByID(ctx context.Context, lineID string) (*domain.StatementLine, error) {
	return r.findLine(ctx, `SELECT `+lineColumns+` FROM statement_lines WHERE line_id = $1;`, lineID)
}

func (r *PgxStatementRepository) FindLineByIDForUpdate(ctx context.Context, lineID string) (*domain.StatementLine, error) {
	return r.findLine(ctx, `SELECT `+lineColumns+` FROM statement_lines WHERE line_id = $1 FOR UPDATE;`, lineID)
}

func (r *PgxStatementRepository) findLine(ctx context.Context, query, lineID string) (*domain.StatementLine, error) {
	m, err := scanLine(r.DB.QueryRow(ctx, query, lineID))
	if err != nil {
		return nil, notFoundOr(err, "statement line", lineID)
	}
	l := mapping.ToDomainStatementLine(m)
	return &l, nil
}

// ListLinesByStatus pages by (value_date, line_id) ascending.
func (r *PgxStatementRepository) ListLinesByStatus(ctx context.Context, periodID string, status *domain.MatchStatus, limit int, nextToken *string) ([]domain.StatementLine, *string, error) {
	limit = pagination.NormalizeLimit(limit)
	args := []any{periodID}
	query := `SELECT ` + lineColumns + ` FROM statement_lines WHERE period_id = $1`
	if status != nil {
		args = append(args, string(*status))
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if nextToken != nil && *nextToken != "" {
		cursorKey, cursorID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		}
		args = append(args, domain.DateOnly(cursorKey), cursorID)
		query += fmt.Sprintf(` AND (value_date, line_id) > ($%d, $%d)`, len(args)-1, len(args))
	}
	args = append(args, limit+1)
	query += fmt.Sprintf(` ORDER BY value_date ASC, line_id ASC LIMIT $%d;`, len(args))

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list statement lines for period "+periodID, err)
	}
	lines, err := collectLines(rows)
	if err != nil {
		return nil, nil, err
	}

	var next *string
	if len(lines) > limit {
		last := lines[limit-1]
		token := pagination.EncodeToken(last.ValueDate, last.LineID)
		next = &token
		lines = lines[:limit]
	}
	return lines, next, nil
}

// ListLinesForAutoMatch locks the period's UNMATCHED lines and the SUSPENSE lines whose item is still open.
func (r *PgxStatementRepository) ListLinesForAutoMatch(ctx context.Context, periodID string) ([]domain.StatementLine, error) {
	query := `SELECT ` + lineColumns + `
		FROM statement_lines
		WHERE period_id = $1
		  AND (status = $2
		    OR (status = $3 AND NOT EXISTS (
		      SELECT 1 FROM suspense_items s
		      WHERE s.line_id = statement_lines.line_id
		        AND s.outcome NOT IN ('', $4))))
		ORDER BY value_date ASC, line_id ASC
		FOR UPDATE;`
	rows, err := r.DB.Query(ctx, query, periodID, string(domain.LineUnmatched),
		string(domain.LineSuspense), string(domain.OutcomeStillPending))
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list unmatched lines for period "+periodID, err)
	}
	return collectLines(rows)
}

func (r *PgxStatementRepository) UpdateLineStatus(ctx context.Context, lineID string, status domain.MatchStatus, userID string, at time.Time) error {
	query := `
		UPDATE statement_lines
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE line_id = $1;`
	tag, err := r.DB.Exec(ctx, query, lineID, string(status), at, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status of statement line "+lineID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: statement line %s", apperrors.ErrNotFound, lineID)
	}
	return nil
}

// CountPeriodLines counts in one pass. Written-off suspense lines leave the suspense bucket.
func (r *PgxStatementRepository) CountPeriodLines(ctx context.Context, periodID string) (domain.PeriodCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE l.status = 'UNMATCHED'),
			COUNT(*) FILTER (WHERE l.status = 'MATCHED'),
			COUNT(*) FILTER (WHERE l.status = 'SUSPENSE' AND COALESCE(s.outcome, '') <> 'WRITTEN_OFF'),
			COUNT(*) FILTER (WHERE l.status = 'SUSPENSE' AND s.outcome = 'STILL_PENDING'),
			COUNT(*) FILTER (WHERE l.status = 'SUSPENSE' AND s.outcome = 'WRITTEN_OFF')
		FROM statement_lines l
		LEFT JOIN suspense_items s ON s.line_id = l.line_id
		WHERE l.period_id = $1;`
	var c domain.PeriodCounts
	err := r.DB.QueryRow(ctx, query, periodID).Scan(&c.Unmatched, &c.Matched, &c.Suspense, &c.StillPending, &c.WrittenOff)
	if err != nil {
		return domain.PeriodCounts{}, apperrors.NewAppError(500, "failed to count statement lines for period "+periodID, err)
	}
	return c, nil
}
