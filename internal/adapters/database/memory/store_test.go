package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/adapters/database/memory"
	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var may10 = time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

func newLine(id, periodID string, status domain.MatchStatus) domain.StatementLine {
	return domain.StatementLine{
		LineID:    id,
		PeriodID:  periodID,
		Amount:    decimal.NewFromInt(10),
		ValueDate: may10,
		Status:    status,
	}
}

func TestRunInTx_RollsBackOnError(t *testing.T) {
	store := memory.NewStore()
	store.SeedAccount("acc", decimal.NewFromInt(100))
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		_, err := tx.Movements.CreateMovement(ctx, domain.MovementDraft{AccountID: "acc", Amount: decimal.NewFromInt(50), Date: may10})
		require.NoError(t, err)
		require.NoError(t, tx.Periods.SavePeriod(ctx, domain.ReconciliationPeriod{PeriodID: "p1", AccountID: "acc"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	balance, err := store.CurrentBalance(ctx, "acc")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(100)))
	_, err = store.FindPeriodByID(ctx, "p1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRunInTx_CommitsOnSuccess(t *testing.T) {
	store := memory.NewStore()
	store.SeedAccount("acc", decimal.NewFromInt(100))
	ctx := context.Background()

	var created *domain.LedgerMovement
	err := store.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		var err error
		created, err = tx.Movements.CreateMovement(ctx, domain.MovementDraft{AccountID: "acc", Amount: decimal.NewFromInt(-30), Date: may10, CreatedAt: may10.Add(9 * time.Hour)})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, may10.Add(9*time.Hour), created.CreatedAt)
	assert.True(t, created.BalanceBefore.Equal(decimal.NewFromInt(100)))
	assert.True(t, created.BalanceAfter.Equal(decimal.NewFromInt(70)))

	balance, err := store.CurrentBalance(ctx, "acc")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(70)))
}

func TestSaveBatch_Duplicate(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	batch := domain.StatementBatch{PeriodID: "p1", BatchRef: "b1"}

	require.NoError(t, store.SaveBatch(ctx, batch, []domain.StatementLine{newLine("l1", "p1", domain.LineUnmatched)}))
	err := store.SaveBatch(ctx, batch, []domain.StatementLine{newLine("l2", "p1", domain.LineUnmatched)})

	var dup *apperrors.DuplicateImportError
	require.ErrorAs(t, err, &dup)
	_, err = store.FindLineByID(ctx, "l2")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// the same reference is fine for another period
	assert.NoError(t, store.SaveBatch(ctx, domain.StatementBatch{PeriodID: "p2", BatchRef: "b1"}, nil))
}

func TestCountPeriodLines(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	lines := []domain.StatementLine{
		newLine("l1", "p1", domain.LineUnmatched),
		newLine("l2", "p1", domain.LineMatched),
		newLine("l3", "p1", domain.LineSuspense),
		newLine("l4", "p1", domain.LineSuspense),
		newLine("l5", "p1", domain.LineSuspense),
		newLine("x1", "p2", domain.LineUnmatched),
	}
	require.NoError(t, store.SaveBatch(ctx, domain.StatementBatch{PeriodID: "p1", BatchRef: "b"}, lines))
	require.NoError(t, store.SaveSuspenseItem(ctx, domain.SuspenseItem{ItemID: "s3", PeriodID: "p1", LineID: "l3"}))
	require.NoError(t, store.SaveSuspenseItem(ctx, domain.SuspenseItem{ItemID: "s4", PeriodID: "p1", LineID: "l4", Outcome: domain.OutcomeStillPending}))
	require.NoError(t, store.SaveSuspenseItem(ctx, domain.SuspenseItem{ItemID: "s5", PeriodID: "p1", LineID: "l5", Outcome: domain.OutcomeWrittenOff}))

	counts, err := store.CountPeriodLines(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodCounts{Unmatched: 1, Matched: 1, Suspense: 2, StillPending: 1, WrittenOff: 1}, counts)
	assert.Equal(t, 3, counts.Pending())

	err = store.SaveSuspenseItem(ctx, domain.SuspenseItem{ItemID: "s6", PeriodID: "p1", LineID: "l3"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestSaveLink_MovementOwnedOnce(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, store.SaveLink(ctx, domain.MatchLink{LinkID: "k1", LineID: "l1", MovementIDs: []string{"m1", "m2"}}))
	err := store.SaveLink(ctx, domain.MatchLink{LinkID: "k2", LineID: "l2", MovementIDs: []string{"m2"}})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyMatched)

	linked, err := store.FindLinkedMovementIDs(ctx, []string{"m1", "m2", "m3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"m1": "l1", "m2": "l1"}, linked)

	require.NoError(t, store.DeleteLink(ctx, "k1"))
	linked, err = store.FindLinkedMovementIDs(ctx, []string{"m1", "m2"})
	require.NoError(t, err)
	assert.Empty(t, linked)
	_, err = store.FindActiveLinkByLineID(ctx, "l1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListMovementsInWindow(t *testing.T) {
	store := memory.NewStore()
	store.SeedAccount("acc", decimal.Zero)
	store.SeedAccount("other", decimal.Zero)
	for _, m := range []domain.LedgerMovement{
		{MovementID: "m3", AccountID: "acc", Amount: decimal.NewFromInt(1), MovementDate: may10.AddDate(0, 0, 3)},
		{MovementID: "m1", AccountID: "acc", Amount: decimal.NewFromInt(1), MovementDate: may10.Add(20 * time.Hour)},
		{MovementID: "m4", AccountID: "acc", Amount: decimal.NewFromInt(1), MovementDate: may10.AddDate(0, 0, 4)},
		{MovementID: "m2", AccountID: "other", Amount: decimal.NewFromInt(1), MovementDate: may10},
	} {
		require.NoError(t, store.SeedMovement(m))
	}

	out, err := store.ListMovementsInWindow(context.Background(), "acc", may10.AddDate(0, 0, -3), may10.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "m1", out[0].MovementID)
	assert.Equal(t, "m3", out[1].MovementID)
}

func TestIdempotencyClaim(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	key := domain.IdempotencyKey{Scope: "p1", Operation: "close_period", Token: "t"}
	record := domain.IdempotencyRecord{IdempotencyKey: key, RequestHash: "h", ExpiresAt: now.Add(time.Hour)}

	claimed, existing, err := store.ClaimIdempotencyKey(ctx, record, now)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Nil(t, existing)

	claimed, existing, err = store.ClaimIdempotencyKey(ctx, record, now)
	require.NoError(t, err)
	assert.False(t, claimed)
	require.NotNil(t, existing)
	assert.Equal(t, domain.IdempotencyProcessing, existing.Status)

	require.NoError(t, store.CompleteIdempotencyKey(ctx, key, []byte(`{"ok":true}`), now))
	deleted, err := store.DeleteExpiredIdempotencyRecords(ctx, now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, deleted)

	claimed, _, err = store.ClaimIdempotencyKey(ctx, record, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, claimed, "expired record is claimable")

	require.NoError(t, store.FailIdempotencyKey(ctx, key, "boom", now))
	deleted, err = store.DeleteExpiredIdempotencyRecords(ctx, now.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestAuditPagination(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	for i, id := range []string{"e1", "e2", "e3"} {
		require.NoError(t, store.AppendAuditEntry(ctx, domain.AuditEntry{
			EntryID:   id,
			PeriodID:  "p1",
			Timestamp: may10.Add(time.Duration(i) * time.Minute),
			Payload:   domain.PeriodReopenedPayload{Reason: id},
		}))
	}

	page, next, err := store.ListAuditEntriesByPeriod(ctx, "p1", 2, nil)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)

	page, next, err = store.ListAuditEntriesByPeriod(ctx, "p1", 2, next)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "e3", page[0].EntryID)
	assert.Nil(t, next)

	err = store.AppendAuditEntry(ctx, domain.AuditEntry{EntryID: "bad", PeriodID: "p1"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
