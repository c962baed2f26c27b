package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
	"github.com/SscSPs/bank_reconciliation/internal/handlers"
	"github.com/SscSPs/bank_reconciliation/internal/middleware"
	"github.com/SscSPs/bank_reconciliation/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ReconciliationHandlerTestSuite struct {
	suite.Suite
	router        *gin.Engine
	jwtSecret     string
	userID        string
	statementSvc  *MockStatementService
	matchingSvc   *MockMatchingService
	suspenseSvc   *MockSuspenseService
	closingSvc    *MockClosingService
	auditSvc      *MockAuditService
	serviceHolder *portssvc.ServiceContainer
}

// generateTestToken creates a signed JWT for the given subject.
func (suite *ReconciliationHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "reconciliation-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *ReconciliationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.userID = uuid.NewString()

	suite.statementSvc = new(MockStatementService)
	suite.matchingSvc = new(MockMatchingService)
	suite.suspenseSvc = new(MockSuspenseService)
	suite.closingSvc = new(MockClosingService)
	suite.auditSvc = new(MockAuditService)
	suite.serviceHolder = &portssvc.ServiceContainer{
		Statement: suite.statementSvc,
		Matching:  suite.matchingSvc,
		Suspense:  suite.suspenseSvc,
		Closing:   suite.closingSvc,
		Audit:     suite.auditSvc,
	}

	v1 := suite.router.Group("/api/v1", middleware.AuthMiddleware(suite.jwtSecret), middleware.IdempotencyKeyMiddleware())
	handlers.RegisterReconciliationRoutes(v1, suite.serviceHolder)
}

func (suite *ReconciliationHandlerTestSuite) do(method, url string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(suite.userID))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *ReconciliationHandlerTestSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func (suite *ReconciliationHandlerTestSuite) TestImportStatement_Accepted() {
	periodID := uuid.NewString()
	expected := &dto.ImportStatementResponse{PeriodID: periodID, BatchRef: "B-1", ImportedCount: 2, Matched: 1, Suspense: 1}

	suite.statementSvc.On("ImportStatement",
		mock.Anything,
		periodID,
		mock.MatchedBy(func(r dto.ImportStatementRequest) bool {
			return r.BatchRef == "B-1" && len(r.Rows) == 2 && r.Rows[0].Amount.Equal(decimal.RequireFromString("125.50"))
		}),
		suite.userID,
		"import-key-1",
	).Return(expected, nil).Once()

	body := map[string]any{
		"batchRef": "B-1",
		"rows": []map[string]any{
			{"amount": "125.50", "valueDate": "2024-05-02T00:00:00Z", "description": "Transfer INV-77"},
			{"amount": "-40", "valueDate": "2024-05-03T00:00:00Z", "description": "Bank fee"},
		},
	}
	w := suite.do(http.MethodPost, "/api/v1/periods/"+periodID+"/statements", body, map[string]string{middleware.IdempotencyHeader: "import-key-1"})

	suite.Equal(http.StatusAccepted, w.Code, w.Body.String())
	var resp dto.ImportStatementResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(*expected, resp)
	suite.statementSvc.AssertExpectations(suite.T())
}

func (suite *ReconciliationHandlerTestSuite) TestImportStatement_DuplicateBatch() {
	periodID := uuid.NewString()
	suite.statementSvc.On("ImportStatement", mock.Anything, periodID, mock.Anything, suite.userID, "").
		Return(nil, &apperrors.DuplicateImportError{PeriodID: periodID, BatchRef: "B-1"}).Once()

	body := map[string]any{
		"batchRef": "B-1",
		"rows":     []map[string]any{{"amount": "10", "valueDate": "2024-05-02T00:00:00Z"}},
	}
	w := suite.do(http.MethodPost, "/api/v1/periods/"+periodID+"/statements", body, nil)

	suite.Equal(http.StatusConflict, w.Code)
	suite.statementSvc.AssertExpectations(suite.T())
}

func (suite *ReconciliationHandlerTestSuite) TestImportStatement_EmptyRowsRejected() {
	w := suite.do(http.MethodPost, "/api/v1/periods/p-1/statements", map[string]any{"batchRef": "B-1", "rows": []any{}}, nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.statementSvc.AssertNotCalled(suite.T(), "ImportStatement")
}

func (suite *ReconciliationHandlerTestSuite) TestMissingToken_Unauthorized() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/periods/p-1", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.statementSvc.AssertNotCalled(suite.T(), "GetPeriod")
}

func (suite *ReconciliationHandlerTestSuite) TestIdempotencyKeyTooLong_Rejected() {
	w := suite.do(http.MethodPost, "/api/v1/periods/p-1/auto-match", nil, map[string]string{middleware.IdempotencyHeader: strings.Repeat("k", 256)})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.matchingSvc.AssertNotCalled(suite.T(), "AutoMatch")
}

func (suite *ReconciliationHandlerTestSuite) TestGetPeriod_NotFound() {
	suite.statementSvc.On("GetPeriod", mock.Anything, "missing").
		Return(nil, apperrors.NewNotFoundError("period missing not found")).Once()

	w := suite.do(http.MethodGet, "/api/v1/periods/missing", nil, nil)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.statementSvc.AssertExpectations(suite.T())
}

func (suite *ReconciliationHandlerTestSuite) TestManualMatch_AmountMismatch() {
	lineID := uuid.NewString()
	suite.matchingSvc.On("ManualMatch", mock.Anything, lineID, dto.ManualMatchRequest{MovementIDs: []string{"m-1", "m-2"}}, suite.userID, "").
		Return(nil, &apperrors.AmountMismatchError{LineID: lineID, Expected: "100", Actual: "99.99"}).Once()

	w := suite.do(http.MethodPost, "/api/v1/lines/"+lineID+"/match", map[string]any{"movementIDs": []string{"m-1", "m-2"}}, nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	body := suite.decode(w)
	suite.Equal("100", body["expected"])
	suite.Equal("99.99", body["actual"])
	suite.matchingSvc.AssertExpectations(suite.T())
}

func (suite *ReconciliationHandlerTestSuite) TestManualMatch_DuplicateMovementIDsRejected() {
	w := suite.do(http.MethodPost, "/api/v1/lines/l-1/match", map[string]any{"movementIDs": []string{"m-1", "m-1"}}, nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.matchingSvc.AssertNotCalled(suite.T(), "ManualMatch")
}

func (suite *ReconciliationHandlerTestSuite) TestManualMatch_KeyReusedWithDifferentRequest() {
	suite.matchingSvc.On("ManualMatch", mock.Anything, "l-1", mock.Anything, suite.userID, "k-1").
		Return(nil, apperrors.ErrIdempotencyKeyReuse).Once()

	w := suite.do(http.MethodPost, "/api/v1/lines/l-1/match", map[string]any{"movementIDs": []string{"m-9"}}, map[string]string{middleware.IdempotencyHeader: "k-1"})

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *ReconciliationHandlerTestSuite) TestManualMatch_ConcurrentRequest() {
	suite.matchingSvc.On("ManualMatch", mock.Anything, "l-1", mock.Anything, suite.userID, "k-1").
		Return(nil, &apperrors.ConcurrentOperationError{Scope: "l-1", Operation: "manual_match"}).Once()

	w := suite.do(http.MethodPost, "/api/v1/lines/l-1/match", map[string]any{"movementIDs": []string{"m-1"}}, map[string]string{middleware.IdempotencyHeader: "k-1"})

	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("1", w.Header().Get("Retry-After"))
}

func (suite *ReconciliationHandlerTestSuite) TestUnmatch_NotMatched() {
	suite.matchingSvc.On("Unmatch", mock.Anything, "l-1", suite.userID, "").
		Return(nil, &apperrors.NotMatchedError{LineID: "l-1"}).Once()

	w := suite.do(http.MethodDelete, "/api/v1/lines/l-1/match", nil, nil)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.matchingSvc.AssertExpectations(suite.T())
}

func (suite *ReconciliationHandlerTestSuite) TestAutoMatch_InternalErrorIsHidden() {
	suite.matchingSvc.On("AutoMatch", mock.Anything, "p-1", suite.userID, "").
		Return(nil, errors.New("connection reset by peer")).Once()

	w := suite.do(http.MethodPost, "/api/v1/periods/p-1/auto-match", nil, nil)

	suite.Equal(http.StatusInternalServerError, w.Code)
	body := suite.decode(w)
	suite.Equal("Failed to auto-match", body["error"])
}

func (suite *ReconciliationHandlerTestSuite) TestClosePeriod_UnresolvedItems() {
	counts := apperrors.PendingCounts{Pending: 2, Unmatched: 1, Suspense: 1}
	suite.closingSvc.On("ClosePeriod", mock.Anything,
		mock.MatchedBy(func(r dto.ClosePeriodRequest) bool { return r.StatementID == "p-1" && !r.ForzarCierre }),
		suite.userID, "close-1").
		Return(nil, &apperrors.UnresolvedItemsError{PeriodID: "p-1", Counts: counts}).Once()

	w := suite.do(http.MethodPost, "/api/v1/reconciliation/close", map[string]any{"statementId": "p-1"}, map[string]string{middleware.IdempotencyHeader: "close-1"})

	suite.Equal(http.StatusConflict, w.Code)
	body := suite.decode(w)
	reported, ok := body["counts"].(map[string]any)
	suite.Require().True(ok)
	suite.EqualValues(2, reported["pendingCount"])
	suite.EqualValues(1, reported["suspenseCount"])
}

func (suite *ReconciliationHandlerTestSuite) TestClosePeriod_ForcedWithDifferences() {
	closedAt := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	expected := &dto.ClosePeriodResponse{
		PeriodID:        "p-1",
		PreviousState:   domain.PeriodOpen,
		State:           domain.PeriodWithDifferences,
		TotalDifference: decimal.RequireFromString("-15.25"),
		ClosedAt:        closedAt,
	}
	suite.closingSvc.On("ClosePeriod", mock.Anything,
		mock.MatchedBy(func(r dto.ClosePeriodRequest) bool {
			return r.ForzarCierre && len(r.DifferenceJustifications) == 1 && r.DifferenceJustifications[0].Concepto == "Bank fee"
		}),
		suite.userID, "").
		Return(expected, nil).Once()

	body := map[string]any{
		"statementId":  "p-1",
		"forzarCierre": true,
		"differenceJustifications": []map[string]any{
			{"monto": "-15.25", "concepto": "Bank fee", "justificacion": "Charged after cut-off"},
		},
	}
	w := suite.do(http.MethodPost, "/api/v1/reconciliation/close", body, nil)

	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.ClosePeriodResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(domain.PeriodWithDifferences, resp.State)
	suite.True(resp.TotalDifference.Equal(expected.TotalDifference))
	suite.closingSvc.AssertExpectations(suite.T())
}

func (suite *ReconciliationHandlerTestSuite) TestClosePeriod_MissingJustification() {
	suite.closingSvc.On("ClosePeriod", mock.Anything, mock.Anything, suite.userID, "").
		Return(nil, &apperrors.MissingJustificationError{PeriodID: "p-1", Counts: apperrors.PendingCounts{Pending: 3, Unmatched: 3}}).Once()

	w := suite.do(http.MethodPost, "/api/v1/reconciliation/close", map[string]any{"statementId": "p-1", "forzarCierre": true}, nil)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *ReconciliationHandlerTestSuite) TestReopenPeriod_NotClosed() {
	suite.closingSvc.On("ReopenPeriod", mock.Anything, "p-1", dto.ReopenPeriodRequest{Reason: "late entries"}, suite.userID, "").
		Return(nil, &apperrors.InvalidStateTransitionError{Entity: "period p-1", From: "OPEN", To: "REOPENED"}).Once()

	w := suite.do(http.MethodPost, "/api/v1/periods/p-1/reopen", map[string]any{"reason": "late entries"}, nil)

	suite.Equal(http.StatusConflict, w.Code)
	body := suite.decode(w)
	suite.Equal("OPEN", body["from"])
	suite.Equal("REOPENED", body["to"])
}

func (suite *ReconciliationHandlerTestSuite) TestReopenPeriod_ReasonRequired() {
	w := suite.do(http.MethodPost, "/api/v1/periods/p-1/reopen", map[string]any{}, nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.closingSvc.AssertNotCalled(suite.T(), "ReopenPeriod")
}

func (suite *ReconciliationHandlerTestSuite) TestConvertSuspense_EmptyBody() {
	movementID := "mov-1"
	suite.suspenseSvc.On("ResolveByMovementCreation", mock.Anything, "s-1", dto.ConvertSuspenseRequest{}, suite.userID, "conv-1").
		Return(&dto.SuspenseItemResponse{ItemID: "s-1", Outcome: domain.OutcomeConvertedToMovement, MovementID: &movementID}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/suspense/s-1/convert", nil, map[string]string{middleware.IdempotencyHeader: "conv-1"})

	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.SuspenseItemResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Require().NotNil(resp.MovementID)
	suite.Equal(movementID, *resp.MovementID)
	suite.suspenseSvc.AssertExpectations(suite.T())
}

func (suite *ReconciliationHandlerTestSuite) TestSkipSuspense_AlreadyResolved() {
	suite.suspenseSvc.On("ResolveBySkip", mock.Anything, "s-1", dto.ResolveSuspenseRequest{Justification: "duplicate"}, suite.userID, "").
		Return(nil, apperrors.ErrSuspenseAlreadyResolved).Once()

	w := suite.do(http.MethodPost, "/api/v1/suspense/s-1/skip", map[string]any{"justification": "duplicate"}, nil)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *ReconciliationHandlerTestSuite) TestWriteOff_JustificationRequired() {
	w := suite.do(http.MethodPost, "/api/v1/suspense/s-1/write-off", map[string]any{"justification": ""}, nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.suspenseSvc.AssertNotCalled(suite.T(), "ResolveByWriteOff")
}

func (suite *ReconciliationHandlerTestSuite) TestListLines_InvalidStatus() {
	w := suite.do(http.MethodGet, "/api/v1/periods/p-1/lines?status=PENDING", nil, nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.statementSvc.AssertNotCalled(suite.T(), "ListLines")
}

func (suite *ReconciliationHandlerTestSuite) TestListLines_PassesFilterAndCursor() {
	suite.statementSvc.On("ListLines", mock.Anything, "p-1",
		mock.MatchedBy(func(p dto.ListLinesParams) bool {
			return p.Status == "SUSPENSE" && p.Limit == 10 && p.NextToken != nil && *p.NextToken == "abc"
		}),
	).Return(&dto.ListLinesResponse{Lines: []dto.StatementLineResponse{{LineID: "l-1"}}}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/periods/p-1/lines?status=SUSPENSE&limit=10&nextToken=abc", nil, nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListLinesResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Lines, 1)
	suite.statementSvc.AssertExpectations(suite.T())
}

func (suite *ReconciliationHandlerTestSuite) TestListAudit_DefaultLimit() {
	suite.auditSvc.On("ListPeriodAudit", mock.Anything, "p-1",
		mock.MatchedBy(func(p dto.ListAuditParams) bool { return p.Limit == 50 && p.NextToken == nil }),
	).Return(&dto.ListAuditResponse{Entries: []dto.AuditEntryResponse{}}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/periods/p-1/audit", nil, nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.auditSvc.AssertExpectations(suite.T())
}

func TestReconciliationHandler(t *testing.T) {
	suite.Run(t, new(ReconciliationHandlerTestSuite))
}

func TestRegisterRoutes_Health(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers.RegisterRoutes(r, &config.Config{JWTSecret: "secret", IsProduction: true}, &portssvc.ServiceContainer{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
