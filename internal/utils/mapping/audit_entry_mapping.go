package mapping

import (
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/models"
)

// ToModelAuditEntry converts a domain AuditEntry to a model AuditEntry, encoding its payload.
func ToModelAuditEntry(d domain.AuditEntry) (models.AuditEntry, error) {
	kind, payload, err := domain.EncodeAuditPayload(d.Payload)
	if err != nil {
		return models.AuditEntry{}, err
	}
	return models.AuditEntry{
		EntryID:     d.EntryID,
		PeriodID:    d.PeriodID,
		EntityType:  d.EntityType,
		EntityID:    d.EntityID,
		Kind:        string(kind),
		BeforeState: d.BeforeState,
		AfterState:  d.AfterState,
		Actor:       d.Actor,
		OccurredAt:  d.Timestamp,
		Payload:     payload,
	}, nil
}

// ToDomainAuditEntry converts a model AuditEntry to a domain AuditEntry, decoding its payload.
func ToDomainAuditEntry(m models.AuditEntry) (domain.AuditEntry, error) {
	payload, err := domain.DecodeAuditPayload(domain.AuditKind(m.Kind), m.Payload)
	if err != nil {
		return domain.AuditEntry{}, err
	}
	return domain.AuditEntry{
		EntryID:     m.EntryID,
		PeriodID:    m.PeriodID,
		EntityType:  m.EntityType,
		EntityID:    m.EntityID,
		BeforeState: m.BeforeState,
		AfterState:  m.AfterState,
		Actor:       m.Actor,
		Timestamp:   m.OccurredAt.UTC(),
		Payload:     payload,
	}, nil
}
