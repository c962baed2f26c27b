package repositories

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
)

// AuditEntryReader defines read operations for the audit trail
type AuditEntryReader interface {
	// ListAuditEntriesByPeriod pages through a period's entries in the order they were written.
	ListAuditEntriesByPeriod(ctx context.Context, periodID string, limit int, nextToken *string) ([]domain.AuditEntry, *string, error)

	// ListAuditEntriesByEntity lists every entry written for one entity.
	ListAuditEntriesByEntity(ctx context.Context, entityType, entityID string) ([]domain.AuditEntry, error)
}

// AuditEntryWriter appends to the audit trail. Entries are never updated or deleted.
type AuditEntryWriter interface {
	AppendAuditEntry(ctx context.Context, entry domain.AuditEntry) error
}

// AuditEntryRepositoryFacade combines all audit repository interfaces
type AuditEntryRepositoryFacade interface {
	AuditEntryReader
	AuditEntryWriter
}
