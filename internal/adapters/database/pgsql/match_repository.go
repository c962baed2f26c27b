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

const linkSelect = `
	SELECT ml.link_id, ml.line_id, ml.period_id, ml.match_type, ml.confidence,
		ml.resolved_suspense_item_id, ml.prior_suspense_outcome, ml.created_at, ml.created_by,
		ARRAY(SELECT mlm.movement_id FROM match_link_movements mlm WHERE mlm.link_id = ml.link_id ORDER BY mlm.position)
	FROM match_links ml`

type PgxMatchRepository struct {
	BaseRepository
}

func newPgxMatchRepository(db querier) *PgxMatchRepository {
	return &PgxMatchRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.MatchLinkRepositoryFacade = (*PgxMatchRepository)(nil)

func scanLink(row pgx.Row) (domain.MatchLink, error) {
	var m models.MatchLink
	err := row.Scan(
		&m.LinkID, &m.LineID, &m.PeriodID, &m.MatchType, &m.Confidence,
		&m.ResolvedSuspenseItemID, &m.PriorSuspenseOutcome, &m.CreatedAt, &m.CreatedBy,
		&m.MovementIDs,
	)
	if err != nil {
		return domain.MatchLink{}, err
	}
	return mapping.ToDomainMatchLink(m), nil
}

func (r *PgxMatchRepository) FindActiveLinkByLineID(ctx context.Context, lineID string) (*domain.MatchLink, error) {
	link, err := scanLink(r.DB.QueryRow(ctx, linkSelect+` WHERE ml.line_id = $1;`, lineID))
	if err != nil {
		return nil, notFoundOr(err, "match link for line", lineID)
	}
	return &link, nil
}

func (r *PgxMatchRepository) FindLinkedMovementIDs(ctx context.Context, movementIDs []string) (map[string]string, error) {
	linked := make(map[string]string)
	if len(movementIDs) == 0 {
		return linked, nil
	}
	query := `
		SELECT mlm.movement_id, ml.line_id
		FROM match_link_movements mlm
		JOIN match_links ml ON ml.link_id = mlm.link_id
		WHERE mlm.movement_id = ANY($1);`
	rows, err := r.DB.Query(ctx, query, movementIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to find linked movements", err)
	}
	defer rows.Close()
	for rows.Next() {
		var movementID, lineID string
		if err := rows.Scan(&movementID, &lineID); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan linked movement row", err)
		}
		linked[movementID] = lineID
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating linked movement rows", err)
	}
	return linked, nil
}

func (r *PgxMatchRepository) ListLinksByPeriod(ctx context.Context, periodID string) ([]domain.MatchLink, error) {
	rows, err := r.DB.Query(ctx, linkSelect+` WHERE ml.period_id = $1 ORDER BY ml.created_at, ml.link_id;`, periodID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list match links for period "+periodID, err)
	}
	defer rows.Close()
	var links []domain.MatchLink
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan match link row", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating match link rows", err)
	}
	return links, nil
}

// SaveLink relies on the unique keys on match_links.line_id and match_link_movements.movement_id
// to reject a second link for the same line or movement.
func (r *PgxMatchRepository) SaveLink(ctx context.Context, link domain.MatchLink) error {
	m := mapping.ToModelMatchLink(link)
	linkQuery := `
		INSERT INTO match_links (link_id, line_id, period_id, match_type, confidence, resolved_suspense_item_id, prior_suspense_outcome, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`

	batch := &pgx.Batch{}
	batch.Queue(linkQuery, m.LinkID, m.LineID, m.PeriodID, m.MatchType, m.Confidence,
		m.ResolvedSuspenseItemID, m.PriorSuspenseOutcome, m.CreatedAt, m.CreatedBy)
	movementQuery := `INSERT INTO match_link_movements (link_id, movement_id, position) VALUES ($1, $2, $3);`
	for i, movementID := range m.MovementIDs {
		batch.Queue(movementQuery, m.LinkID, movementID, i)
	}

	br := r.DB.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: line %s or one of its movements is already linked", apperrors.ErrAlreadyMatched, m.LineID)
			}
			return apperrors.NewAppError(500, "failed to insert match link "+m.LinkID, err)
		}
	}
	return nil
}

// DeleteLink removes the link; its movement rows go with it through ON DELETE CASCADE.
func (r *PgxMatchRepository) DeleteLink(ctx context.Context, linkID string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM match_links WHERE link_id = $1;`, linkID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete match link "+linkID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: match link %s", apperrors.ErrNotFound, linkID)
	}
	return nil
}
