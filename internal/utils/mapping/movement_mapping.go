package mapping

import (
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/models"
)

// ToDomainMovement converts a model LedgerMovement to a domain LedgerMovement
func ToDomainMovement(m models.LedgerMovement) domain.LedgerMovement {
	return domain.LedgerMovement{
		MovementID:    m.MovementID,
		AccountID:     m.AccountID,
		Amount:        m.Amount,
		MovementDate:  domain.DateOnly(m.MovementDate),
		SourceRef:     m.SourceRef,
		Description:   m.Description,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		CreatedAt:     m.CreatedAt.UTC(),
		CreatedBy:     m.CreatedBy,
	}
}

// ToDomainMovementSlice converts a slice of model LedgerMovements to a slice of domain LedgerMovements
func ToDomainMovementSlice(ms []models.LedgerMovement) []domain.LedgerMovement {
	ds := make([]domain.LedgerMovement, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainMovement(m)
	}
	return ds
}
