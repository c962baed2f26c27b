package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/models"
)

// ToModelPeriod converts a domain ReconciliationPeriod to a model ReconciliationPeriod
func ToModelPeriod(d domain.ReconciliationPeriod) (models.ReconciliationPeriod, error) {
	justifications := d.Justifications
	if justifications == nil {
		justifications = []domain.DifferenceJustification{}
	}
	data, err := json.Marshal(justifications)
	if err != nil {
		return models.ReconciliationPeriod{}, fmt.Errorf("failed to encode justifications of period %s: %w", d.PeriodID, err)
	}
	m := models.ReconciliationPeriod{
		PeriodID:          d.PeriodID,
		AccountID:         d.AccountID,
		PeriodStart:       domain.DateOnly(d.PeriodStart),
		PeriodEnd:         domain.DateOnly(d.PeriodEnd),
		AccountingBalance: d.AccountingBalance,
		BankBalance:       d.BankBalance,
		State:             models.PeriodState(d.State),
		ClosingNotes:      d.ClosingNotes,
		Justifications:    data,
		TotalDifference:   d.TotalDifference,
		AdjustmentID:      toNullString(d.AdjustmentID),
		ClosedAt:          toNullTime(d.ClosedAt),
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
	if d.ClosedBy != "" {
		m.ClosedBy.String, m.ClosedBy.Valid = d.ClosedBy, true
	}
	return m, nil
}

// ToDomainPeriod converts a model ReconciliationPeriod to a domain ReconciliationPeriod
func ToDomainPeriod(m models.ReconciliationPeriod) (domain.ReconciliationPeriod, error) {
	var justifications []domain.DifferenceJustification
	if len(m.Justifications) > 0 {
		if err := json.Unmarshal(m.Justifications, &justifications); err != nil {
			return domain.ReconciliationPeriod{}, fmt.Errorf("failed to decode justifications of period %s: %w", m.PeriodID, err)
		}
	}
	if len(justifications) == 0 {
		justifications = nil
	}
	return domain.ReconciliationPeriod{
		PeriodID:          m.PeriodID,
		AccountID:         m.AccountID,
		PeriodStart:       domain.DateOnly(m.PeriodStart),
		PeriodEnd:         domain.DateOnly(m.PeriodEnd),
		AccountingBalance: m.AccountingBalance,
		BankBalance:       m.BankBalance,
		State:             domain.PeriodState(m.State),
		ClosingNotes:      m.ClosingNotes,
		Justifications:    justifications,
		TotalDifference:   m.TotalDifference,
		AdjustmentID:      fromNullString(m.AdjustmentID),
		ClosedAt:          fromNullTime(m.ClosedAt),
		ClosedBy:          m.ClosedBy.String,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}, nil
}
