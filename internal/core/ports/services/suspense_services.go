package services

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/dto"
)

// SuspenseReaderSvc defines read operations for suspense items
type SuspenseReaderSvc interface {
	ListSuspenseItems(ctx context.Context, periodID string, params dto.ListSuspenseParams) (*dto.ListSuspenseResponse, error)
}

// SuspenseResolverSvc defines the operator actions on suspense items
type SuspenseResolverSvc interface {
	AssignSuspenseItem(ctx context.Context, itemID string, req dto.AssignSuspenseRequest, userID string) (*dto.SuspenseItemResponse, error)
	ResolveBySkip(ctx context.Context, itemID string, req dto.ResolveSuspenseRequest, userID string, idempotencyKey string) (*dto.SuspenseItemResponse, error)
	ResolveByWriteOff(ctx context.Context, itemID string, req dto.ResolveSuspenseRequest, userID string, idempotencyKey string) (*dto.SuspenseItemResponse, error)
	ResolveByMovementCreation(ctx context.Context, itemID string, req dto.ConvertSuspenseRequest, userID string, idempotencyKey string) (*dto.SuspenseItemResponse, error)
}

// SuspenseSvcFacade combines all suspense service interfaces
type SuspenseSvcFacade interface {
	SuspenseReaderSvc
	SuspenseResolverSvc
}
