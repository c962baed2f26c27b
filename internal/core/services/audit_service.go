package services

import (
	"context"
	"log/slog"

	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
)

// auditService exposes the period audit trail. Entries are written by the other services.
type auditService struct {
	BaseService
	periods portsrepo.PeriodReader
	audit   portsrepo.AuditEntryReader
}

func newAuditService(periods portsrepo.PeriodReader, audit portsrepo.AuditEntryReader, cfg serviceConfig) *auditService {
	return &auditService{
		BaseService: newBaseService(cfg),
		periods:     periods,
		audit:       audit,
	}
}

var _ portssvc.AuditSvcFacade = (*auditService)(nil)

func (s *auditService) ListPeriodAudit(ctx context.Context, periodID string, params dto.ListAuditParams) (*dto.ListAuditResponse, error) {
	if _, err := s.periods.FindPeriodByID(ctx, periodID); err != nil {
		return nil, wrapNotFound(err, "reconciliation period", periodID)
	}

	entries, nextToken, err := s.audit.ListAuditEntriesByPeriod(ctx, periodID, params.Limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list audit entries", slog.String("period_id", periodID))
		return nil, err
	}
	return &dto.ListAuditResponse{
		Entries:   dto.ToAuditEntryResponses(entries),
		NextToken: nextToken,
	}, nil
}
