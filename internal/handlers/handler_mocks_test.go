package handlers_test

import (
	"context"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
	"github.com/stretchr/testify/mock"
)

// --- Mock StatementService ---
type MockStatementService struct {
	mock.Mock
}

func (m *MockStatementService) GetPeriod(ctx context.Context, periodID string) (*domain.ReconciliationPeriod, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationPeriod), args.Error(1)
}
func (m *MockStatementService) OpenPeriod(ctx context.Context, req dto.OpenPeriodRequest, userID string) (*domain.ReconciliationPeriod, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationPeriod), args.Error(1)
}
func (m *MockStatementService) ListLines(ctx context.Context, periodID string, params dto.ListLinesParams) (*dto.ListLinesResponse, error) {
	args := m.Called(ctx, periodID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListLinesResponse), args.Error(1)
}
func (m *MockStatementService) ImportStatement(ctx context.Context, periodID string, req dto.ImportStatementRequest, userID string, idempotencyKey string) (*dto.ImportStatementResponse, error) {
	args := m.Called(ctx, periodID, req, userID, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ImportStatementResponse), args.Error(1)
}

var _ portssvc.StatementSvcFacade = (*MockStatementService)(nil)

// --- Mock MatchingService ---
type MockMatchingService struct {
	mock.Mock
}

func (m *MockMatchingService) Candidates(ctx context.Context, lineID string) (*dto.ListCandidatesResponse, error) {
	args := m.Called(ctx, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListCandidatesResponse), args.Error(1)
}
func (m *MockMatchingService) AutoMatch(ctx context.Context, periodID string, userID string, idempotencyKey string) (*dto.AutoMatchResponse, error) {
	args := m.Called(ctx, periodID, userID, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AutoMatchResponse), args.Error(1)
}
func (m *MockMatchingService) ManualMatch(ctx context.Context, lineID string, req dto.ManualMatchRequest, userID string, idempotencyKey string) (*dto.MatchLinkResponse, error) {
	args := m.Called(ctx, lineID, req, userID, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MatchLinkResponse), args.Error(1)
}
func (m *MockMatchingService) Unmatch(ctx context.Context, lineID string, userID string, idempotencyKey string) (*dto.UnmatchResponse, error) {
	args := m.Called(ctx, lineID, userID, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UnmatchResponse), args.Error(1)
}

var _ portssvc.MatchingSvcFacade = (*MockMatchingService)(nil)

// --- Mock SuspenseService ---
type MockSuspenseService struct {
	mock.Mock
}

func (m *MockSuspenseService) ListSuspenseItems(ctx context.Context, periodID string, params dto.ListSuspenseParams) (*dto.ListSuspenseResponse, error) {
	args := m.Called(ctx, periodID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListSuspenseResponse), args.Error(1)
}
func (m *MockSuspenseService) AssignSuspenseItem(ctx context.Context, itemID string, req dto.AssignSuspenseRequest, userID string) (*dto.SuspenseItemResponse, error) {
	args := m.Called(ctx, itemID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SuspenseItemResponse), args.Error(1)
}
func (m *MockSuspenseService) ResolveBySkip(ctx context.Context, itemID string, req dto.ResolveSuspenseRequest, userID string, idempotencyKey string) (*dto.SuspenseItemResponse, error) {
	args := m.Called(ctx, itemID, req, userID, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SuspenseItemResponse), args.Error(1)
}
func (m *MockSuspenseService) ResolveByWriteOff(ctx context.Context, itemID string, req dto.ResolveSuspenseRequest, userID string, idempotencyKey string) (*dto.SuspenseItemResponse, error) {
	args := m.Called(ctx, itemID, req, userID, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SuspenseItemResponse), args.Error(1)
}
func (m *MockSuspenseService) ResolveByMovementCreation(ctx context.Context, itemID string, req dto.ConvertSuspenseRequest, userID string, idempotencyKey string) (*dto.SuspenseItemResponse, error) {
	args := m.Called(ctx, itemID, req, userID, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SuspenseItemResponse), args.Error(1)
}

var _ portssvc.SuspenseSvcFacade = (*MockSuspenseService)(nil)

// --- Mock ClosingService ---
type MockClosingService struct {
	mock.Mock
}

func (m *MockClosingService) GetSummary(ctx context.Context, periodID string) (*dto.PeriodSummaryResponse, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PeriodSummaryResponse), args.Error(1)
}
func (m *MockClosingService) ClosePeriod(ctx context.Context, req dto.ClosePeriodRequest, userID string, idempotencyKey string) (*dto.ClosePeriodResponse, error) {
	args := m.Called(ctx, req, userID, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ClosePeriodResponse), args.Error(1)
}
func (m *MockClosingService) ReopenPeriod(ctx context.Context, periodID string, req dto.ReopenPeriodRequest, userID string, idempotencyKey string) (*dto.ReopenPeriodResponse, error) {
	args := m.Called(ctx, periodID, req, userID, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReopenPeriodResponse), args.Error(1)
}

var _ portssvc.ClosingSvcFacade = (*MockClosingService)(nil)

// --- Mock AuditService ---
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) ListPeriodAudit(ctx context.Context, periodID string, params dto.ListAuditParams) (*dto.ListAuditResponse, error) {
	args := m.Called(ctx, periodID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListAuditResponse), args.Error(1)
}

var _ portssvc.AuditSvcFacade = (*MockAuditService)(nil)
