package repositories

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// MatchLinkReader defines read operations for match links
type MatchLinkReader interface {
	// FindActiveLinkByLineID returns the line's link or ErrNotFound.
	FindActiveLinkByLineID(ctx context.Context, lineID string) (*domain.MatchLink, error)

	// FindLinkedMovementIDs reports which of the given movements already belong to a link,
	// mapped to the owning line id.
	FindLinkedMovementIDs(ctx context.Context, movementIDs []string) (map[string]string, error)

	// ListLinksByPeriod lists every active link of a period.
	ListLinksByPeriod(ctx context.Context, periodID string) ([]domain.MatchLink, error)
}

// MatchLinkWriter defines write operations for match links
type MatchLinkWriter interface {
	// SaveLink stores a link and its movements. Linking a line or movement twice yields ErrAlreadyMatched.
	SaveLink(ctx context.Context, link domain.MatchLink) error

	// DeleteLink removes a link and releases its movements.
	DeleteLink(ctx context.Context, linkID string) error
}

// MatchLinkRepositoryFacade combines all match link repository interfaces
type MatchLinkRepositoryFacade interface {
	MatchLinkReader
	MatchLinkWriter
}
