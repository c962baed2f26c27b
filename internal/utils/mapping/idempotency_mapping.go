package mapping

import (
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/models"
)

// ToModelIdempotencyRecord converts a domain IdempotencyRecord to a model IdempotencyRecord
func ToModelIdempotencyRecord(d domain.IdempotencyRecord) models.IdempotencyRecord {
	return models.IdempotencyRecord{
		Scope:        d.Scope,
		Operation:    d.Operation,
		Token:        d.Token,
		Status:       string(d.Status),
		RequestHash:  d.RequestHash,
		Response:     d.Response,
		ErrorMessage: d.ErrorMessage,
		ExpiresAt:    d.ExpiresAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// ToDomainIdempotencyRecord converts a model IdempotencyRecord to a domain IdempotencyRecord
func ToDomainIdempotencyRecord(m models.IdempotencyRecord) domain.IdempotencyRecord {
	return domain.IdempotencyRecord{
		IdempotencyKey: domain.IdempotencyKey{Scope: m.Scope, Operation: m.Operation, Token: m.Token},
		Status:         domain.IdempotencyStatus(m.Status),
		RequestHash:    m.RequestHash,
		Response:       m.Response,
		ErrorMessage:   m.ErrorMessage,
		ExpiresAt:      m.ExpiresAt.UTC(),
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}
