package mapping

import (
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/models"
)

// ToModelBatch converts a domain StatementBatch to a model StatementBatch
func ToModelBatch(d domain.StatementBatch) models.StatementBatch {
	return models.StatementBatch{
		PeriodID:   d.PeriodID,
		BatchRef:   d.BatchRef,
		LineCount:  d.LineCount,
		ImportedAt: d.ImportedAt,
		ImportedBy: d.ImportedBy,
	}
}

// ToModelStatementLine converts a domain StatementLine to a model StatementLine
func ToModelStatementLine(d domain.StatementLine) models.StatementLine {
	return models.StatementLine{
		LineID:            d.LineID,
		PeriodID:          d.PeriodID,
		BatchRef:          d.BatchRef,
		Amount:            d.Amount,
		ValueDate:         domain.DateOnly(d.ValueDate),
		Description:       d.Description,
		ExternalReference: d.ExternalReference,
		Status:            string(d.Status),
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainStatementLine converts a model StatementLine to a domain StatementLine
func ToDomainStatementLine(m models.StatementLine) domain.StatementLine {
	return domain.StatementLine{
		LineID:            m.LineID,
		PeriodID:          m.PeriodID,
		BatchRef:          m.BatchRef,
		Amount:            m.Amount,
		ValueDate:         domain.DateOnly(m.ValueDate),
		Description:       m.Description,
		ExternalReference: m.ExternalReference,
		Status:            domain.MatchStatus(m.Status),
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainStatementLineSlice converts a slice of model StatementLines to a slice of domain StatementLines
func ToDomainStatementLineSlice(ms []models.StatementLine) []domain.StatementLine {
	ds := make([]domain.StatementLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainStatementLine(m)
	}
	return ds
}
