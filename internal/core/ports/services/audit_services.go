package services

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/dto"
)

// AuditSvcFacade exposes the audit trail.
type AuditSvcFacade interface {
	ListPeriodAudit(ctx context.Context, periodID string, params dto.ListAuditParams) (*dto.ListAuditResponse, error)
}

// IdempotencyMaintenanceSvc is used by the background collector.
type IdempotencyMaintenanceSvc interface {
	// PurgeExpired deletes expired terminal records and returns how many were removed.
	PurgeExpired(ctx context.Context) (int64, error)
}
