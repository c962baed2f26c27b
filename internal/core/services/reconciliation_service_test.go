package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/adapters/database/memory"
	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/core/services"
	"github.com/SscSPs/bank_reconciliation/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const (
	testAccountID = "acc-operating"
	testUserID    = "user-recon"
)

var testOpeningBalance = decimal.NewFromInt(10000)

type ReconciliationServiceTestSuite struct {
	suite.Suite
	store *memory.Store
	svc   *portssvc.ServiceContainer
	now   time.Time
	ctx   context.Context
}

func (suite *ReconciliationServiceTestSuite) SetupTest() {
	suite.store = memory.NewStore()
	suite.store.SeedAccount(testAccountID, testOpeningBalance)
	suite.now = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	suite.ctx = context.Background()
	suite.svc = services.NewServiceContainer(nil, memory.NewRepositoryProvider(suite.store),
		services.WithClock(func() time.Time { return suite.now }),
		services.WithMatchDateWindow(3),
		services.WithIdempotencyTTL(time.Hour),
	)
}

func TestReconciliationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}

// --- helpers ---

func day(d int) time.Time {
	return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (suite *ReconciliationServiceTestSuite) seedMovement(id, amt string, date time.Time, sourceRef string) {
	err := suite.store.SeedMovement(domain.LedgerMovement{
		MovementID:   id,
		AccountID:    testAccountID,
		Amount:       amount(amt),
		MovementDate: date,
		SourceRef:    sourceRef,
		CreatedBy:    "ledger",
	})
	suite.Require().NoError(err)
}

func (suite *ReconciliationServiceTestSuite) openPeriod() *domain.ReconciliationPeriod {
	period, err := suite.svc.Statement.OpenPeriod(suite.ctx, dto.OpenPeriodRequest{
		AccountID:   testAccountID,
		PeriodStart: day(1),
		PeriodEnd:   day(31),
		BankBalance: amount("11300"),
	}, testUserID)
	suite.Require().NoError(err)
	return period
}

func row(amt string, valueDate time.Time, description string) dto.StatementRowRequest {
	return dto.StatementRowRequest{Amount: amount(amt), ValueDate: valueDate, Description: description}
}

func (suite *ReconciliationServiceTestSuite) importRows(periodID, batchRef string, rows ...dto.StatementRowRequest) *dto.ImportStatementResponse {
	resp, err := suite.svc.Statement.ImportStatement(suite.ctx, periodID, dto.ImportStatementRequest{
		BatchRef: batchRef,
		Rows:     rows,
	}, testUserID, "")
	suite.Require().NoError(err)
	return resp
}

func (suite *ReconciliationServiceTestSuite) linesByStatus(periodID string, status domain.MatchStatus) []dto.StatementLineResponse {
	resp, err := suite.svc.Statement.ListLines(suite.ctx, periodID, dto.ListLinesParams{Status: string(status)})
	suite.Require().NoError(err)
	return resp.Lines
}

func (suite *ReconciliationServiceTestSuite) openSuspense(periodID string) []dto.SuspenseItemResponse {
	resp, err := suite.svc.Suspense.ListSuspenseItems(suite.ctx, periodID, dto.ListSuspenseParams{})
	suite.Require().NoError(err)
	return resp.Items
}

func (suite *ReconciliationServiceTestSuite) auditKinds(periodID string) []domain.AuditKind {
	resp, err := suite.svc.Audit.ListPeriodAudit(suite.ctx, periodID, dto.ListAuditParams{Limit: 500})
	suite.Require().NoError(err)
	kinds := make([]domain.AuditKind, len(resp.Entries))
	for i, e := range resp.Entries {
		kinds[i] = e.Kind
	}
	return kinds
}

func countKind(kinds []domain.AuditKind, kind domain.AuditKind) int {
	n := 0
	for _, k := range kinds {
		if k == kind {
			n++
		}
	}
	return n
}

func (suite *ReconciliationServiceTestSuite) balance() decimal.Decimal {
	summary, err := suite.svc.Closing.GetSummary(suite.ctx, suite.openPeriod().PeriodID)
	suite.Require().NoError(err)
	return summary.CurrentLedgerBalance
}

var errAuditUnavailable = errors.New("audit store unavailable")

// failingAuditTx hands the unit of work an audit writer that rejects entries of one kind.
type failingAuditTx struct {
	portsrepo.TransactionManager
	kind domain.AuditKind
}

func (f failingAuditTx) RunInTx(ctx context.Context, fn func(ctx context.Context, repos portsrepo.TxRepositories) error) error {
	return f.TransactionManager.RunInTx(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		repos.Audit = failingAudit{AuditEntryRepositoryFacade: repos.Audit, kind: f.kind}
		return fn(ctx, repos)
	})
}

type failingAudit struct {
	portsrepo.AuditEntryRepositoryFacade
	kind domain.AuditKind
}

func (a failingAudit) AppendAuditEntry(ctx context.Context, entry domain.AuditEntry) error {
	if entry.Kind() == a.kind {
		return errAuditUnavailable
	}
	return a.AuditEntryRepositoryFacade.AppendAuditEntry(ctx, entry)
}

func (suite *ReconciliationServiceTestSuite) servicesFailingAudit(kind domain.AuditKind) *portssvc.ServiceContainer {
	provider := memory.NewRepositoryProvider(suite.store)
	provider.Tx = failingAuditTx{TransactionManager: provider.Tx, kind: kind}
	return services.NewServiceContainer(nil, provider,
		services.WithClock(func() time.Time { return suite.now }),
		services.WithMatchDateWindow(3),
		services.WithIdempotencyTTL(time.Hour),
	)
}

func justification(monto, concepto, texto string) dto.DifferenceJustificationRequest {
	return dto.DifferenceJustificationRequest{Monto: amount(monto), Concepto: concepto, Justificacion: texto}
}

// --- periods and import ---

func (suite *ReconciliationServiceTestSuite) TestOpenPeriod_ReturnsExistingForSameWindow() {
	first := suite.openPeriod()
	second := suite.openPeriod()

	suite.Equal(first.PeriodID, second.PeriodID)
	suite.Equal(domain.PeriodOpen, first.State)
	suite.True(first.AccountingBalance.Equal(testOpeningBalance))
	suite.Equal([]domain.AuditKind{domain.AuditPeriodOpened}, suite.auditKinds(first.PeriodID))
}

func (suite *ReconciliationServiceTestSuite) TestOpenPeriod_UnknownAccount() {
	_, err := suite.svc.Statement.OpenPeriod(suite.ctx, dto.OpenPeriodRequest{
		AccountID:   "acc-missing",
		PeriodStart: day(1),
		PeriodEnd:   day(31),
	}, testUserID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *ReconciliationServiceTestSuite) TestOpenPeriod_RejectsBankBalanceBeyondFourDecimals() {
	_, err := suite.svc.Statement.OpenPeriod(suite.ctx, dto.OpenPeriodRequest{
		AccountID:   testAccountID,
		PeriodStart: day(1),
		PeriodEnd:   day(31),
		BankBalance: amount("11300.123456"),
	}, testUserID)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ReconciliationServiceTestSuite) TestOpenPeriod_EndBeforeStart() {
	_, err := suite.svc.Statement.OpenPeriod(suite.ctx, dto.OpenPeriodRequest{
		AccountID:   testAccountID,
		PeriodStart: day(31),
		PeriodEnd:   day(1),
	}, testUserID)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ReconciliationServiceTestSuite) TestImport_AutoMatchesAndSendsLeftoversToSuspense() {
	suite.seedMovement("mov-a", "1000", day(10), "FAC-1001")
	suite.seedMovement("mov-b", "500", day(12), "")
	period := suite.openPeriod()

	resp := suite.importRows(period.PeriodID, "batch-may",
		row("1000", day(10), "Transferencia FAC-1001"),
		row("500", day(13), "Deposito"),
		row("-200", day(15), "Cargo desconocido"),
	)

	suite.Equal(3, resp.ImportedCount)
	suite.Equal(2, resp.Matched)
	suite.Equal(1, resp.Suspense)
	suite.Len(suite.linesByStatus(period.PeriodID, domain.LineMatched), 2)

	suspenseLines := suite.linesByStatus(period.PeriodID, domain.LineSuspense)
	suite.Require().Len(suspenseLines, 1)
	suite.True(suspenseLines[0].Amount.Equal(amount("-200")))

	items := suite.openSuspense(period.PeriodID)
	suite.Require().Len(items, 1)
	suite.Equal(domain.ReasonNoCandidate, items[0].Reason)
	suite.Equal(suspenseLines[0].LineID, items[0].LineID)

	kinds := suite.auditKinds(period.PeriodID)
	suite.Equal(1, countKind(kinds, domain.AuditStatementImported))
	suite.Equal(2, countKind(kinds, domain.AuditMatchCreated))
	suite.Equal(1, countKind(kinds, domain.AuditSuspenseCreated))
}

func (suite *ReconciliationServiceTestSuite) TestImport_DuplicateBatchChangesNothing() {
	period := suite.openPeriod()
	suite.importRows(period.PeriodID, "batch-1", row("75", day(3), "Interes"))

	_, err := suite.svc.Statement.ImportStatement(suite.ctx, period.PeriodID, dto.ImportStatementRequest{
		BatchRef: "batch-1",
		Rows:     []dto.StatementRowRequest{row("80", day(4), "Otro")},
	}, testUserID, "")

	var dup *apperrors.DuplicateImportError
	suite.Require().ErrorAs(err, &dup)
	suite.Equal("batch-1", dup.BatchRef)
	suite.ErrorIs(err, apperrors.ErrDuplicateImport)

	all, err := suite.svc.Statement.ListLines(suite.ctx, period.PeriodID, dto.ListLinesParams{})
	suite.Require().NoError(err)
	suite.Len(all.Lines, 1)
}

func (suite *ReconciliationServiceTestSuite) TestImport_RejectsRowsOutsideThePeriod() {
	period := suite.openPeriod()
	_, err := suite.svc.Statement.ImportStatement(suite.ctx, period.PeriodID, dto.ImportStatementRequest{
		BatchRef: "batch-late",
		Rows:     []dto.StatementRowRequest{row("10", time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), "Junio")},
	}, testUserID, "")
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ReconciliationServiceTestSuite) TestImport_RejectsAmountsBeyondFourDecimals() {
	period := suite.openPeriod()
	_, err := suite.svc.Statement.ImportStatement(suite.ctx, period.PeriodID, dto.ImportStatementRequest{
		BatchRef: "batch-precision",
		Rows:     []dto.StatementRowRequest{row("10.12345", day(3), "Interes")},
	}, testUserID, "")
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Empty(suite.linesByStatus(period.PeriodID, ""))

	// trailing zeros carry no extra precision
	resp := suite.importRows(period.PeriodID, "batch-precision", row("10.12340", day(3), "Interes"))
	suite.Equal(1, resp.ImportedCount)
}

func (suite *ReconciliationServiceTestSuite) TestImport_WithoutAutoMatchLeavesLinesUnmatched() {
	suite.seedMovement("mov-a", "1000", day(10), "")
	period := suite.openPeriod()
	autoMatch := false

	resp, err := suite.svc.Statement.ImportStatement(suite.ctx, period.PeriodID, dto.ImportStatementRequest{
		BatchRef:  "batch-manual",
		Rows:      []dto.StatementRowRequest{row("1000", day(10), "Pago")},
		AutoMatch: &autoMatch,
	}, testUserID, "")
	suite.Require().NoError(err)
	suite.Equal(0, resp.Matched)
	suite.Len(suite.linesByStatus(period.PeriodID, domain.LineUnmatched), 1)

	run, err := suite.svc.Matching.AutoMatch(suite.ctx, period.PeriodID, testUserID, "")
	suite.Require().NoError(err)
	suite.Equal(1, run.Matched)
	suite.Equal(0, run.Suspense)
}

func (suite *ReconciliationServiceTestSuite) TestListLines_Paginates() {
	period := suite.openPeriod()
	autoMatch := false
	_, err := suite.svc.Statement.ImportStatement(suite.ctx, period.PeriodID, dto.ImportStatementRequest{
		BatchRef:  "batch-pages",
		Rows:      []dto.StatementRowRequest{row("1", day(1), "a"), row("2", day(2), "b"), row("3", day(3), "c")},
		AutoMatch: &autoMatch,
	}, testUserID, "")
	suite.Require().NoError(err)

	page1, err := suite.svc.Statement.ListLines(suite.ctx, period.PeriodID, dto.ListLinesParams{Limit: 2})
	suite.Require().NoError(err)
	suite.Require().Len(page1.Lines, 2)
	suite.Require().NotNil(page1.NextToken)
	suite.Equal("a", page1.Lines[0].Description)

	page2, err := suite.svc.Statement.ListLines(suite.ctx, period.PeriodID, dto.ListLinesParams{Limit: 2, NextToken: page1.NextToken})
	suite.Require().NoError(err)
	suite.Require().Len(page2.Lines, 1)
	suite.Equal("c", page2.Lines[0].Description)
	suite.Nil(page2.NextToken)
}

// --- matching ---

func (suite *ReconciliationServiceTestSuite) TestAutoMatch_AmbiguousWithoutReference() {
	suite.seedMovement("mov-1", "250", day(9), "")
	suite.seedMovement("mov-2", "250", day(11), "")
	period := suite.openPeriod()

	resp := suite.importRows(period.PeriodID, "batch", row("250", day(10), "Deposito"))
	suite.Equal(0, resp.Matched)

	items := suite.openSuspense(period.PeriodID)
	suite.Require().Len(items, 1)
	suite.Equal(domain.ReasonAmbiguousCandidate, items[0].Reason)
}

func (suite *ReconciliationServiceTestSuite) TestAutoMatch_ReferenceDominates() {
	suite.seedMovement("mov-1", "250", day(10), "REC-9")
	suite.seedMovement("mov-2", "250", day(10), "REC-7")
	period := suite.openPeriod()

	resp := suite.importRows(period.PeriodID, "batch", row("250", day(12), "Cobro rec-7 cliente"))
	suite.Equal(1, resp.Matched)

	lines := suite.linesByStatus(period.PeriodID, domain.LineMatched)
	suite.Require().Len(lines, 1)
	candidates, err := suite.svc.Matching.Candidates(suite.ctx, lines[0].LineID)
	suite.Require().NoError(err)
	suite.Empty(candidates.Candidates)

	unmatched, err := suite.svc.Matching.Unmatch(suite.ctx, lines[0].LineID, testUserID, "")
	suite.Require().NoError(err)
	suite.Equal([]string{"mov-2"}, unmatched.RemovedLink.MovementIDs)
	suite.Equal(domain.MatchAuto, unmatched.RemovedLink.Type)
}

func (suite *ReconciliationServiceTestSuite) TestAutoMatch_ConsumedMovementsLeaveThePool() {
	suite.seedMovement("mov-1", "300", day(5), "")
	period := suite.openPeriod()

	resp := suite.importRows(period.PeriodID, "batch",
		row("300", day(5), "Primero"),
		row("300", day(6), "Segundo"),
	)
	suite.Equal(1, resp.Matched)
	suite.Equal(1, resp.Suspense)

	items := suite.openSuspense(period.PeriodID)
	suite.Require().Len(items, 1)
	suite.Equal(domain.ReasonNoCandidate, items[0].Reason)
}

func (suite *ReconciliationServiceTestSuite) TestAutoMatch_IgnoresMovementsOutsideWindow() {
	suite.seedMovement("mov-1", "300", day(1), "")
	period := suite.openPeriod()

	resp := suite.importRows(period.PeriodID, "batch", row("300", day(5), "Fuera de ventana"))
	suite.Equal(0, resp.Matched)
	suite.Equal(1, resp.Suspense)
}

func (suite *ReconciliationServiceTestSuite) TestAutoMatch_LateMovementResolvesOpenSuspense() {
	period := suite.openPeriod()
	resp := suite.importRows(period.PeriodID, "batch", row("-200", day(15), "Cargo FAC-77"))
	suite.Equal(1, resp.Suspense)
	itemBefore := suite.openSuspense(period.PeriodID)[0]

	suite.seedMovement("mov-late", "-200", day(15), "FAC-77")

	result, err := suite.svc.Matching.AutoMatch(suite.ctx, period.PeriodID, testUserID, "")
	suite.Require().NoError(err)
	suite.Equal(1, result.Matched)
	suite.Equal(0, result.Suspense)

	suite.Len(suite.linesByStatus(period.PeriodID, domain.LineMatched), 1)
	suite.Empty(suite.linesByStatus(period.PeriodID, domain.LineSuspense))
	suite.Empty(suite.openSuspense(period.PeriodID))

	all, err := suite.svc.Suspense.ListSuspenseItems(suite.ctx, period.PeriodID, dto.ListSuspenseParams{IncludeResolved: true})
	suite.Require().NoError(err)
	suite.Require().Len(all.Items, 1)
	suite.Equal(itemBefore.ItemID, all.Items[0].ItemID)
	suite.Equal(domain.OutcomeManuallyMatched, all.Items[0].Outcome)
	suite.Equal(testUserID, all.Items[0].ResolvedBy)

	kinds := suite.auditKinds(period.PeriodID)
	suite.Equal(1, countKind(kinds, domain.AuditSuspenseCreated))
	suite.Equal(1, countKind(kinds, domain.AuditMatchCreated))

	// unmatching puts the line back in suspense under the same item
	unmatched, err := suite.svc.Matching.Unmatch(suite.ctx, suite.linesByStatus(period.PeriodID, domain.LineMatched)[0].LineID, testUserID, "")
	suite.Require().NoError(err)
	suite.Equal(domain.LineSuspense, unmatched.LineStatus)
	items := suite.openSuspense(period.PeriodID)
	suite.Require().Len(items, 1)
	suite.Equal(itemBefore.ItemID, items[0].ItemID)
}

func (suite *ReconciliationServiceTestSuite) TestAutoMatch_RerunKeepsSingleSuspenseItem() {
	period := suite.openPeriod()
	suite.importRows(period.PeriodID, "batch", row("-35", day(4), "Cargo"), row("-60", day(5), "Cargo 2"))
	items := suite.openSuspense(period.PeriodID)
	suite.Require().Len(items, 2)

	_, err := suite.svc.Suspense.ResolveBySkip(suite.ctx, items[0].ItemID, dto.ResolveSuspenseRequest{Justification: "Pendiente banco"}, testUserID, "")
	suite.Require().NoError(err)

	result, err := suite.svc.Matching.AutoMatch(suite.ctx, period.PeriodID, testUserID, "")
	suite.Require().NoError(err)
	suite.Equal(0, result.Matched)
	suite.Equal(0, result.Suspense)

	suite.Len(suite.openSuspense(period.PeriodID), 2)
	suite.Equal(2, countKind(suite.auditKinds(period.PeriodID), domain.AuditSuspenseCreated))
}

func (suite *ReconciliationServiceTestSuite) TestAutoMatch_StillPendingItemMatchesLateMovement() {
	period := suite.openPeriod()
	suite.importRows(period.PeriodID, "batch", row("-35", day(4), "Cargo"))
	item := suite.openSuspense(period.PeriodID)[0]
	_, err := suite.svc.Suspense.ResolveBySkip(suite.ctx, item.ItemID, dto.ResolveSuspenseRequest{Justification: "Pendiente banco"}, testUserID, "")
	suite.Require().NoError(err)

	suite.seedMovement("mov-late", "-35", day(5), "")

	result, err := suite.svc.Matching.AutoMatch(suite.ctx, period.PeriodID, testUserID, "")
	suite.Require().NoError(err)
	suite.Equal(1, result.Matched)
	suite.Empty(suite.openSuspense(period.PeriodID))

	summary, err := suite.svc.Closing.GetSummary(suite.ctx, period.PeriodID)
	suite.Require().NoError(err)
	suite.Equal(0, summary.PendingCount)
}

func (suite *ReconciliationServiceTestSuite) TestAutoMatch_WrittenOffLineStaysOut() {
	period := suite.openPeriod()
	suite.importRows(period.PeriodID, "batch", row("-35", day(4), "Cargo"))
	item := suite.openSuspense(period.PeriodID)[0]
	_, err := suite.svc.Suspense.ResolveByWriteOff(suite.ctx, item.ItemID, dto.ResolveSuspenseRequest{Justification: "Importe menor"}, testUserID, "")
	suite.Require().NoError(err)

	suite.seedMovement("mov-late", "-35", day(4), "")

	result, err := suite.svc.Matching.AutoMatch(suite.ctx, period.PeriodID, testUserID, "")
	suite.Require().NoError(err)
	suite.Equal(0, result.Matched)
	suite.Empty(suite.linesByStatus(period.PeriodID, domain.LineMatched))
}

func (suite *ReconciliationServiceTestSuite) TestCandidates_RankedByReferenceThenDistance() {
	suite.seedMovement("mov-c", "90", day(10), "")
	suite.seedMovement("mov-b", "90", day(12), "")
	suite.seedMovement("mov-a", "90", day(13), "REF-1")
	suite.seedMovement("mov-x", "91", day(10), "")
	period := suite.openPeriod()
	autoMatch := false
	_, err := suite.svc.Statement.ImportStatement(suite.ctx, period.PeriodID, dto.ImportStatementRequest{
		BatchRef:  "batch",
		Rows:      []dto.StatementRowRequest{row("90", day(10), "pago REF-1")},
		AutoMatch: &autoMatch,
	}, testUserID, "")
	suite.Require().NoError(err)

	line := suite.linesByStatus(period.PeriodID, domain.LineUnmatched)[0]
	resp, err := suite.svc.Matching.Candidates(suite.ctx, line.LineID)
	suite.Require().NoError(err)
	suite.Require().Len(resp.Candidates, 3)
	suite.Equal("mov-a", resp.Candidates[0].MovementID)
	suite.True(resp.Candidates[0].ReferenceMatch)
	suite.Equal("mov-c", resp.Candidates[1].MovementID)
	suite.Equal("mov-b", resp.Candidates[2].MovementID)
	suite.Greater(resp.Candidates[0].Confidence, resp.Candidates[1].Confidence)
}

func (suite *ReconciliationServiceTestSuite) TestManualMatch_SplitAcrossMovements() {
	suite.seedMovement("mov-1", "600", day(2), "")
	suite.seedMovement("mov-2", "400", day(20), "")
	period := suite.openPeriod()
	suite.importRows(period.PeriodID, "batch", row("1000", day(10), "Lote"))
	line := suite.linesByStatus(period.PeriodID, domain.LineSuspense)[0]

	link, err := suite.svc.Matching.ManualMatch(suite.ctx, line.LineID, dto.ManualMatchRequest{
		MovementIDs: []string{"mov-1", "mov-2"},
	}, testUserID, "")
	suite.Require().NoError(err)
	suite.Equal(domain.MatchManual, link.Type)
	suite.Equal(1.0, link.Confidence)
	suite.ElementsMatch([]string{"mov-1", "mov-2"}, link.MovementIDs)
	suite.Require().NotNil(link.ResolvedSuspenseItemID)

	suite.Empty(suite.openSuspense(period.PeriodID))
	resolved, err := suite.svc.Suspense.ListSuspenseItems(suite.ctx, period.PeriodID, dto.ListSuspenseParams{IncludeResolved: true})
	suite.Require().NoError(err)
	suite.Require().Len(resolved.Items, 1)
	suite.Equal(domain.OutcomeManuallyMatched, resolved.Items[0].Outcome)
}

func (suite *ReconciliationServiceTestSuite) TestManualMatch_AmountMismatch() {
	suite.seedMovement("mov-1", "600", day(2), "")
	period := suite.openPeriod()
	suite.importRows(period.PeriodID, "batch", row("1000", day(10), "Lote"))
	line := suite.linesByStatus(period.PeriodID, domain.LineSuspense)[0]

	_, err := suite.svc.Matching.ManualMatch(suite.ctx, line.LineID, dto.ManualMatchRequest{
		MovementIDs: []string{"mov-1"},
	}, testUserID, "")

	var mismatch *apperrors.AmountMismatchError
	suite.Require().ErrorAs(err, &mismatch)
	suite.Equal("1000", mismatch.Expected)
	suite.Equal("600", mismatch.Actual)
	suite.Len(suite.linesByStatus(period.PeriodID, domain.LineSuspense), 1)
}

func (suite *ReconciliationServiceTestSuite) TestManualMatch_RejectsLinkedMovementAndUnknownIDs() {
	suite.seedMovement("mov-1", "50", day(10), "")
	period := suite.openPeriod()
	suite.importRows(period.PeriodID, "batch", row("50", day(10), "A"), row("50", day(20), "B"))
	suspended := suite.linesByStatus(period.PeriodID, domain.LineSuspense)
	suite.Require().Len(suspended, 1)

	_, err := suite.svc.Matching.ManualMatch(suite.ctx, suspended[0].LineID, dto.ManualMatchRequest{
		MovementIDs: []string{"mov-1"},
	}, testUserID, "")
	suite.ErrorIs(err, apperrors.ErrAlreadyMatched)

	_, err = suite.svc.Matching.ManualMatch(suite.ctx, suspended[0].LineID, dto.ManualMatchRequest{
		MovementIDs: []string{"mov-404"},
	}, testUserID, "")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *ReconciliationServiceTestSuite) TestManualMatchThenUnmatch_RestoresPriorState() {
	period := suite.openPeriod()
	suite.importRows(period.PeriodID, "batch", row("-200", day(15), "Comision"))
	line := suite.linesByStatus(period.PeriodID, domain.LineSuspense)[0]
	itemBefore := suite.openSuspense(period.PeriodID)[0]
	suite.seedMovement("mov-fee", "-200", day(15), "")

	_, err := suite.svc.Matching.ManualMatch(suite.ctx, line.LineID, dto.ManualMatchRequest{
		MovementIDs: []string{"mov-fee"},
	}, testUserID, "")
	suite.Require().NoError(err)

	resp, err := suite.svc.Matching.Unmatch(suite.ctx, line.LineID, testUserID, "")
	suite.Require().NoError(err)
	suite.Equal(domain.LineSuspense, resp.LineStatus)

	items := suite.openSuspense(period.PeriodID)
	suite.Require().Len(items, 1)
	suite.Equal(itemBefore.ItemID, items[0].ItemID)
	suite.Equal(domain.OutcomeNone, items[0].Outcome)
	suite.Empty(items[0].ResolvedBy)
	suite.Nil(items[0].ResolvedAt)

	summary, err := suite.svc.Closing.GetSummary(suite.ctx, period.PeriodID)
	suite.Require().NoError(err)
	suite.Equal(0, summary.MatchedLinks)
	suite.Equal(1, summary.Counts.Suspense)

	kinds := suite.auditKinds(period.PeriodID)
	suite.Equal(1, countKind(kinds, domain.AuditMatchCreated))
	suite.Equal(1, countKind(kinds, domain.AuditMatchRemoved))

	// the movement is free again
	candidates, err := suite.svc.Matching.Candidates(suite.ctx, line.LineID)
	suite.Require().NoError(err)
	suite.Require().Len(candidates.Candidates, 1)
	suite.Equal("mov-fee", candidates.Candidates[0].MovementID)
}

func (suite *ReconciliationServiceTestSuite) TestUnmatch_UnmatchedLine() {
	period := suite.openPeriod()
	suite.importRows(period.PeriodID, "batch", row("10", day(1), "x"))
	line := suite.linesByStatus(period.PeriodID, domain.LineSuspense)[0]

	_, err := suite.svc.Matching.Unmatch(suite.ctx, line.LineID, testUserID, "")
	var notMatched *apperrors.NotMatchedError
	suite.Require().ErrorAs(err, &notMatched)
	suite.Equal(line.LineID, notMatched.LineID)
}

// --- suspense ---

func (suite *ReconciliationServiceTestSuite) TestSuspense_SkipKeepsItemPending() {
	period := suite.openPeriod()
	suite.importRows(period.PeriodID, "batch", row("-35", day(4), "Cargo"))
	item := suite.openSuspense(period.PeriodID)[0]

	resp, err := suite.svc.Suspense.ResolveBySkip(suite.ctx, item.ItemID, dto.ResolveSuspenseRequest{
		Justification: "  Esperando respuesta del banco  ",
	}, testUserID, "")
	suite.Require().NoError(err)
	suite.Equal(domain.OutcomeStillPending, resp.Outcome)
	suite.Equal("Esperando respuesta del banco", resp.Justification)

	summary, err := suite.svc.Closing.GetSummary(suite.ctx, period.PeriodID)
	suite.Require().NoError(err)
	suite.Equal(1, summary.PendingCount)
	suite.Equal(1, summary.Counts.StillPending)
}

func (suite *ReconciliationServiceTestSuite) TestSuspense_BlankJustificationRejected() {
	period := suite.openPeriod()
	suite.importRows(period.PeriodID, "batch", row("-35", day(4), "Cargo"))
	item := suite.openSuspense(period.PeriodID)[0]

	_, err := suite.svc.Suspense.ResolveByWriteOff(suite.ctx, item.ItemID, dto.ResolveSuspenseRequest{Justification: "   "}, testUserID, "")
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ReconciliationServiceTestSuite) TestSuspense_WriteOffExcludesFromPending() {
	period := suite.openPeriod()
	suite.importRows(period.PeriodID, "batch", row("-35", day(4), "Cargo"))
	item := suite.openSuspense(period.PeriodID)[0]

	resp, err := suite.svc.Suspense.ResolveByWriteOff(suite.ctx, item.ItemID, dto.ResolveSuspenseRequest{
		Justification: "Importe menor",
	}, testUserID, "")
	suite.Require().NoError(err)
	suite.Equal(domain.OutcomeWrittenOff, resp.Outcome)
	suite.Equal(testUserID, resp.ResolvedBy)

	summary, err := suite.svc.Closing.GetSummary(suite.ctx, period.PeriodID)
	suite.Require().NoError(err)
	suite.Equal(0, summary.PendingCount)
	suite.Equal(1, summary.Counts.WrittenOff)

	_, err = suite.svc.Suspense.ResolveBySkip(suite.ctx, item.ItemID, dto.ResolveSuspenseRequest{Justification: "otra vez"}, testUserID, "")
	suite.ErrorIs(err, apperrors.ErrSuspenseAlreadyResolved)
}

func (suite *ReconciliationServiceTestSuite) TestSuspense_ConvertCreatesMovementAndMatches() {
	period := suite.openPeriod()
	suite.importRows(period.PeriodID, "batch", dto.StatementRowRequest{
		Amount:            amount("-42.10"),
		ValueDate:         day(8),
		Description:       "Comision mantenimiento",
		ExternalReference: "BNK-77",
	})
	item := suite.openSuspense(period.PeriodID)[0]

	resp, err := suite.svc.Suspense.ResolveByMovementCreation(suite.ctx, item.ItemID, dto.ConvertSuspenseRequest{}, testUserID, "")
	suite.Require().NoError(err)
	suite.Equal(domain.OutcomeConvertedToMovement, resp.Outcome)
	suite.Require().NotNil(resp.MovementID)

	movement, err := suite.store.GetMovement(suite.ctx, *resp.MovementID)
	suite.Require().NoError(err)
	suite.Equal(suite.now, movement.CreatedAt)

	suite.Len(suite.linesByStatus(period.PeriodID, domain.LineMatched), 1)
	suite.True(suite.balance().Equal(amount("9957.90")))

	kinds := suite.auditKinds(period.PeriodID)
	suite.Equal(1, countKind(kinds, domain.AuditMatchCreated))
	suite.Equal(1, countKind(kinds, domain.AuditSuspenseResolved))
}

func (suite *ReconciliationServiceTestSuite) TestSuspense_Assign() {
	period := suite.openPeriod()
	suite.importRows(period.PeriodID, "batch", row("-35", day(4), "Cargo"))
	item := suite.openSuspense(period.PeriodID)[0]

	resp, err := suite.svc.Suspense.AssignSuspenseItem(suite.ctx, item.ItemID, dto.AssignSuspenseRequest{AssignedTo: "tesoreria"}, testUserID)
	suite.Require().NoError(err)
	suite.Equal("tesoreria", resp.AssignedTo)
	suite.Equal(domain.OutcomeNone, resp.Outcome)
}

// --- closing ---

func (suite *ReconciliationServiceTestSuite) TestClose_NoPendingCompletes() {
	suite.seedMovement("mov-a", "1000", day(10), "")
	period := suite.openPeriod()
	suite.importRows(period.PeriodID, "batch", row("1000", day(10), "Pago"))

	resp, err := suite.svc.Closing.ClosePeriod(suite.ctx, dto.ClosePeriodRequest{
		StatementID:   period.PeriodID,
		GenerarAjuste: true,
	}, testUserID, "")
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodCompleted, resp.State)
	suite.Equal(domain.PeriodOpen, resp.PreviousState)
	suite.Nil(resp.AdjustmentID)

	stored, err := suite.svc.Statement.GetPeriod(suite.ctx, period.PeriodID)
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodCompleted, stored.State)
	suite.Require().NotNil(stored.ClosedAt)
	suite.Equal(testUserID, stored.ClosedBy)
}

func (suite *ReconciliationServiceTestSuite) twoPendingLines() *domain.ReconciliationPeriod {
	period := suite.openPeriod()
	suite.importRows(period.PeriodID, "batch", row("-200", day(15), "Cargo"), row("-300", day(16), "Cargo 2"))
	return period
}

func (suite *ReconciliationServiceTestSuite) TestClose_UnresolvedWithoutForce() {
	period := suite.twoPendingLines()

	_, err := suite.svc.Closing.ClosePeriod(suite.ctx, dto.ClosePeriodRequest{StatementID: period.PeriodID}, testUserID, "")

	var unresolved *apperrors.UnresolvedItemsError
	suite.Require().ErrorAs(err, &unresolved)
	suite.Equal(2, unresolved.Counts.Pending)
	suite.Equal(2, unresolved.Counts.Suspense)

	stored, err := suite.svc.Statement.GetPeriod(suite.ctx, period.PeriodID)
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodOpen, stored.State)
}

func (suite *ReconciliationServiceTestSuite) TestClose_ForcedWithoutJustification() {
	period := suite.twoPendingLines()

	_, err := suite.svc.Closing.ClosePeriod(suite.ctx, dto.ClosePeriodRequest{
		StatementID:   period.PeriodID,
		ForzarCierre:  true,
		GenerarAjuste: true,
	}, testUserID, "")

	var missing *apperrors.MissingJustificationError
	suite.Require().ErrorAs(err, &missing)
	suite.Equal(2, missing.Counts.Pending)

	stored, err := suite.svc.Statement.GetPeriod(suite.ctx, period.PeriodID)
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodOpen, stored.State)
	suite.Equal(0, countKind(suite.auditKinds(period.PeriodID), domain.AuditPeriodClosed))
}

func (suite *ReconciliationServiceTestSuite) TestClose_ForcedPostsIngresoAdjustment() {
	period := suite.twoPendingLines()

	resp, err := suite.svc.Closing.ClosePeriod(suite.ctx, dto.ClosePeriodRequest{
		StatementID:              period.PeriodID,
		ForzarCierre:             true,
		GenerarAjuste:            true,
		DifferenceJustifications: []dto.DifferenceJustificationRequest{justification("150.50", "Comisión bancaria", "Comisión no registrada")},
		NotasCierre:              "Cierre mayo",
	}, testUserID, "")
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodWithDifferences, resp.State)
	suite.Require().NotNil(resp.AdjustmentID)
	suite.Equal(domain.AdjustmentIngreso, resp.AdjustmentType)
	suite.Require().NotNil(resp.AdjustmentAmount)
	suite.True(resp.AdjustmentAmount.Equal(amount("150.50")))
	suite.True(resp.AccountingBalance.Equal(amount("10150.50")))

	summary, err := suite.svc.Closing.GetSummary(suite.ctx, period.PeriodID)
	suite.Require().NoError(err)
	suite.Require().Len(summary.Adjustments, 1)
	suite.Equal(domain.AdjustmentIngreso, summary.Adjustments[0].Type)

	adjustmentMovement, err := suite.store.GetMovement(suite.ctx, summary.Adjustments[0].MovementID)
	suite.Require().NoError(err)
	suite.Equal(suite.now, adjustmentMovement.CreatedAt)
	suite.True(summary.CurrentLedgerBalance.Equal(amount("10150.50")))

	stored, err := suite.svc.Statement.GetPeriod(suite.ctx, period.PeriodID)
	suite.Require().NoError(err)
	suite.Equal("Cierre mayo", stored.ClosingNotes)
	suite.Require().Len(stored.Justifications, 1)
	suite.Equal("Comisión bancaria", stored.Justifications[0].Concept)

	kinds := suite.auditKinds(period.PeriodID)
	suite.Equal(1, countKind(kinds, domain.AuditAdjustmentPosted))
	suite.Equal(1, countKind(kinds, domain.AuditPeriodClosed))
}

func (suite *ReconciliationServiceTestSuite) TestClose_AuditFailureRollsBackAdjustment() {
	period := suite.twoPendingLines()
	req := dto.ClosePeriodRequest{
		StatementID:              period.PeriodID,
		ForzarCierre:             true,
		GenerarAjuste:            true,
		DifferenceJustifications: []dto.DifferenceJustificationRequest{justification("150.50", "Comisión bancaria", "Comisión no registrada")},
	}

	_, err := suite.servicesFailingAudit(domain.AuditPeriodClosed).Closing.ClosePeriod(suite.ctx, req, testUserID, "close-1")
	suite.Require().ErrorIs(err, errAuditUnavailable)

	stored, err := suite.svc.Statement.GetPeriod(suite.ctx, period.PeriodID)
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodOpen, stored.State)
	suite.Nil(stored.AdjustmentID)
	suite.Nil(stored.ClosedAt)

	summary, err := suite.svc.Closing.GetSummary(suite.ctx, period.PeriodID)
	suite.Require().NoError(err)
	suite.Empty(summary.Adjustments)
	suite.True(summary.CurrentLedgerBalance.Equal(testOpeningBalance))

	movements, err := suite.store.ListMovementsInWindow(suite.ctx, testAccountID, day(1), day(31))
	suite.Require().NoError(err)
	suite.Empty(movements)

	kinds := suite.auditKinds(period.PeriodID)
	suite.Equal(0, countKind(kinds, domain.AuditAdjustmentPosted))
	suite.Equal(0, countKind(kinds, domain.AuditPeriodClosed))

	// the failed attempt released the key, so the same request can be retried
	resp, err := suite.svc.Closing.ClosePeriod(suite.ctx, req, testUserID, "close-1")
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodWithDifferences, resp.State)
	suite.Require().NotNil(resp.AdjustmentID)
	suite.True(suite.balance().Equal(amount("10150.50")))
}

func (suite *ReconciliationServiceTestSuite) TestClose_NegativeDifferencePostsEgreso() {
	period := suite.twoPendingLines()

	resp, err := suite.svc.Closing.ClosePeriod(suite.ctx, dto.ClosePeriodRequest{
		StatementID:              period.PeriodID,
		ForzarCierre:             true,
		GenerarAjuste:            true,
		DifferenceJustifications: []dto.DifferenceJustificationRequest{justification("-80", "Cargo", "Cargo bancario")},
	}, testUserID, "")
	suite.Require().NoError(err)
	suite.Equal(domain.AdjustmentEgreso, resp.AdjustmentType)
	suite.True(resp.AdjustmentAmount.Equal(amount("80")))
	suite.True(resp.AccountingBalance.Equal(amount("9920")))
}

func (suite *ReconciliationServiceTestSuite) TestClose_ZeroDifferencePostsNothing() {
	period := suite.twoPendingLines()

	resp, err := suite.svc.Closing.ClosePeriod(suite.ctx, dto.ClosePeriodRequest{
		StatementID:   period.PeriodID,
		ForzarCierre:  true,
		GenerarAjuste: true,
		DifferenceJustifications: []dto.DifferenceJustificationRequest{
			justification("50", "Deposito", "Deposito en transito"),
			justification("-50", "Cheque", "Cheque en transito"),
		},
	}, testUserID, "")
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodWithDifferences, resp.State)
	suite.Nil(resp.AdjustmentID)
	suite.True(resp.TotalDifference.IsZero())

	summary, err := suite.svc.Closing.GetSummary(suite.ctx, period.PeriodID)
	suite.Require().NoError(err)
	suite.Empty(summary.Adjustments)
	suite.True(summary.CurrentLedgerBalance.Equal(testOpeningBalance))
}

func (suite *ReconciliationServiceTestSuite) TestClose_RejectsAmountsBeyondFourDecimals() {
	period := suite.twoPendingLines()
	reported := amount("11250.00001")

	_, err := suite.svc.Closing.ClosePeriod(suite.ctx, dto.ClosePeriodRequest{
		StatementID:       period.PeriodID,
		SaldoBancarioReal: &reported,
	}, testUserID, "")
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.svc.Closing.ClosePeriod(suite.ctx, dto.ClosePeriodRequest{
		StatementID:              period.PeriodID,
		ForzarCierre:             true,
		GenerarAjuste:            true,
		DifferenceJustifications: []dto.DifferenceJustificationRequest{justification("0.00005", "Redondeo", "Diferencia minima")},
	}, testUserID, "")
	suite.ErrorIs(err, apperrors.ErrValidation)

	stored, err := suite.svc.Statement.GetPeriod(suite.ctx, period.PeriodID)
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodOpen, stored.State)
	suite.True(suite.balance().Equal(testOpeningBalance))
}

func (suite *ReconciliationServiceTestSuite) TestClose_BankBalanceOverride() {
	period := suite.openPeriod()
	reported := amount("11250.75")

	resp, err := suite.svc.Closing.ClosePeriod(suite.ctx, dto.ClosePeriodRequest{
		StatementID:       period.PeriodID,
		SaldoBancarioReal: &reported,
	}, testUserID, "")
	suite.Require().NoError(err)
	suite.True(resp.BankBalance.Equal(reported))
}

func (suite *ReconciliationServiceTestSuite) TestClose_AlreadyClosed() {
	period := suite.openPeriod()
	_, err := suite.svc.Closing.ClosePeriod(suite.ctx, dto.ClosePeriodRequest{StatementID: period.PeriodID}, testUserID, "")
	suite.Require().NoError(err)

	_, err = suite.svc.Closing.ClosePeriod(suite.ctx, dto.ClosePeriodRequest{StatementID: period.PeriodID}, testUserID, "")
	var transition *apperrors.InvalidStateTransitionError
	suite.Require().ErrorAs(err, &transition)
	suite.Equal(string(domain.PeriodCompleted), transition.From)

	_, err = suite.svc.Matching.AutoMatch(suite.ctx, period.PeriodID, testUserID, "")
	suite.ErrorIs(err, apperrors.ErrPeriodNotOpen)
}

func (suite *ReconciliationServiceTestSuite) TestReopen() {
	period := suite.twoPendingLines()

	_, err := suite.svc.Closing.ReopenPeriod(suite.ctx, period.PeriodID, dto.ReopenPeriodRequest{Reason: "aun abierto"}, testUserID, "")
	suite.ErrorIs(err, apperrors.ErrInvalidStateTransition)

	_, err = suite.svc.Closing.ClosePeriod(suite.ctx, dto.ClosePeriodRequest{
		StatementID:              period.PeriodID,
		ForzarCierre:             true,
		GenerarAjuste:            true,
		DifferenceJustifications: []dto.DifferenceJustificationRequest{justification("10", "Ajuste", "Redondeo")},
	}, testUserID, "")
	suite.Require().NoError(err)

	_, err = suite.svc.Closing.ReopenPeriod(suite.ctx, period.PeriodID, dto.ReopenPeriodRequest{Reason: "  "}, testUserID, "")
	suite.ErrorIs(err, apperrors.ErrValidation)

	resp, err := suite.svc.Closing.ReopenPeriod(suite.ctx, period.PeriodID, dto.ReopenPeriodRequest{Reason: "Extracto corregido"}, testUserID, "")
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodWithDifferences, resp.PreviousState)
	suite.Equal(domain.PeriodOpen, resp.State)

	stored, err := suite.svc.Statement.GetPeriod(suite.ctx, period.PeriodID)
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodOpen, stored.State)
	suite.Nil(stored.ClosedAt)

	// the adjustment stays posted
	summary, err := suite.svc.Closing.GetSummary(suite.ctx, period.PeriodID)
	suite.Require().NoError(err)
	suite.Len(summary.Adjustments, 1)
	suite.True(summary.CurrentLedgerBalance.Equal(amount("10010")))

	kinds := suite.auditKinds(period.PeriodID)
	suite.Equal(1, countKind(kinds, domain.AuditPeriodReopened))
	suite.Equal(domain.AuditPeriodOpened, kinds[len(kinds)-1])
}

// --- idempotency ---

func (suite *ReconciliationServiceTestSuite) TestIdempotentClose_ReplaysIdenticalResponse() {
	period := suite.twoPendingLines()
	req := dto.ClosePeriodRequest{
		StatementID:              period.PeriodID,
		ForzarCierre:             true,
		GenerarAjuste:            true,
		DifferenceJustifications: []dto.DifferenceJustificationRequest{justification("150.50", "Comisión bancaria", "Comisión no registrada")},
	}

	first, err := suite.svc.Closing.ClosePeriod(suite.ctx, req, testUserID, "close-token-1")
	suite.Require().NoError(err)
	suite.now = suite.now.Add(5 * time.Minute)
	second, err := suite.svc.Closing.ClosePeriod(suite.ctx, req, testUserID, "close-token-1")
	suite.Require().NoError(err)

	firstJSON, err := json.Marshal(first)
	suite.Require().NoError(err)
	secondJSON, err := json.Marshal(second)
	suite.Require().NoError(err)
	suite.Equal(string(firstJSON), string(secondJSON))

	summary, err := suite.svc.Closing.GetSummary(suite.ctx, period.PeriodID)
	suite.Require().NoError(err)
	suite.Len(summary.Adjustments, 1)
	suite.Equal(1, countKind(suite.auditKinds(period.PeriodID), domain.AuditPeriodClosed))
}

func (suite *ReconciliationServiceTestSuite) TestIdempotentImport_DifferentPayloadRejected() {
	period := suite.openPeriod()
	req := dto.ImportStatementRequest{BatchRef: "b1", Rows: []dto.StatementRowRequest{row("5", day(2), "x")}}
	_, err := suite.svc.Statement.ImportStatement(suite.ctx, period.PeriodID, req, testUserID, "import-1")
	suite.Require().NoError(err)

	req.BatchRef = "b2"
	_, err = suite.svc.Statement.ImportStatement(suite.ctx, period.PeriodID, req, testUserID, "import-1")
	suite.ErrorIs(err, apperrors.ErrIdempotencyKeyReuse)
}

func (suite *ReconciliationServiceTestSuite) TestIdempotentImport_FailedAttemptCanBeRetried() {
	period := suite.openPeriod()
	req := dto.ImportStatementRequest{BatchRef: "b1", Rows: []dto.StatementRowRequest{row("5", day(2), "x")}}
	suite.importRows(period.PeriodID, "b1", row("5", day(2), "x"))

	_, err := suite.svc.Statement.ImportStatement(suite.ctx, period.PeriodID, req, testUserID, "import-retry")
	suite.Require().ErrorIs(err, apperrors.ErrDuplicateImport)

	// the key was released, so the retry executes again and fails the same way
	_, err = suite.svc.Statement.ImportStatement(suite.ctx, period.PeriodID, req, testUserID, "import-retry")
	suite.ErrorIs(err, apperrors.ErrDuplicateImport)
	suite.False(errors.Is(err, apperrors.ErrConcurrentOperation))
}

func (suite *ReconciliationServiceTestSuite) TestIdempotentManualMatch_SingleAuditEntry() {
	suite.seedMovement("mov-1", "70", day(25), "")
	period := suite.openPeriod()
	suite.importRows(period.PeriodID, "batch", row("70", day(10), "x"))
	line := suite.linesByStatus(period.PeriodID, domain.LineSuspense)[0]
	req := dto.ManualMatchRequest{MovementIDs: []string{"mov-1"}}

	first, err := suite.svc.Matching.ManualMatch(suite.ctx, line.LineID, req, testUserID, "match-1")
	suite.Require().NoError(err)
	second, err := suite.svc.Matching.ManualMatch(suite.ctx, line.LineID, req, testUserID, "match-1")
	suite.Require().NoError(err)
	suite.Equal(first.LinkID, second.LinkID)
	suite.Equal(1, countKind(suite.auditKinds(period.PeriodID), domain.AuditMatchCreated))

	// without a token the second call runs and is rejected
	_, err = suite.svc.Matching.ManualMatch(suite.ctx, line.LineID, req, testUserID, "")
	suite.ErrorIs(err, apperrors.ErrAlreadyMatched)
}

func (suite *ReconciliationServiceTestSuite) TestPurgeExpired() {
	period := suite.openPeriod()
	_, err := suite.svc.Matching.AutoMatch(suite.ctx, period.PeriodID, testUserID, "auto-1")
	suite.Require().NoError(err)

	deleted, err := suite.svc.Idempotency.PurgeExpired(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(int64(0), deleted)

	suite.now = suite.now.Add(2 * time.Hour)
	deleted, err = suite.svc.Idempotency.PurgeExpired(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(int64(1), deleted)
}
