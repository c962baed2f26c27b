package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditPayload_EncodeDecode(t *testing.T) {
	itemID := "item-1"
	adjID := "adj-1"
	payloads := []domain.AuditPayload{
		domain.PeriodOpenedPayload{AccountID: "acc", PeriodStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), PeriodEnd: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), BankBalance: decimal.NewFromInt(10)},
		domain.StatementImportedPayload{BatchRef: "b1", LineCount: 3, Total: decimal.NewFromInt(1300)},
		domain.MatchCreatedPayload{LinkID: "l1", LineID: "line", MovementIDs: []string{"m1"}, Type: domain.MatchAuto, Confidence: 0.9, Amount: decimal.NewFromInt(5)},
		domain.MatchRemovedPayload{Link: domain.MatchLink{LinkID: "l1", MovementIDs: []string{"m1", "m2"}}, RestoredLineStatus: domain.LineSuspense, ReopenedSuspenseItemID: &itemID},
		domain.SuspenseCreatedPayload{ItemID: itemID, LineID: "line", Reason: domain.ReasonAmbiguousCandidate, CandidateCount: 2},
		domain.SuspenseResolvedPayload{ItemID: itemID, LineID: "line", Outcome: domain.OutcomeWrittenOff, Justification: "menor"},
		domain.PeriodClosedPayload{PreviousState: domain.PeriodOpen, NewState: domain.PeriodWithDifferences, TotalDifference: decimal.NewFromInt(-3), AdjustmentPosted: true, AdjustmentID: &adjID, PendingCount: 2, ForceClose: true},
		domain.PeriodReopenedPayload{PreviousState: domain.PeriodCompleted, Reason: "correccion"},
		domain.AdjustmentPostedPayload{AdjustmentID: adjID, MovementID: "m9", Type: domain.AdjustmentEgreso, Amount: decimal.NewFromInt(3)},
	}

	for _, p := range payloads {
		t.Run(string(p.Kind()), func(t *testing.T) {
			kind, data, err := domain.EncodeAuditPayload(p)
			require.NoError(t, err)
			assert.Equal(t, p.Kind(), kind)

			decoded, err := domain.DecodeAuditPayload(kind, data)
			require.NoError(t, err)
			assert.Equal(t, p.Kind(), decoded.Kind())
			assert.IsType(t, p, decoded)

			_, again, err := domain.EncodeAuditPayload(decoded)
			require.NoError(t, err)
			assert.JSONEq(t, string(data), string(again))
		})
	}
}

func TestDecodeAuditPayload_UnknownKind(t *testing.T) {
	_, err := domain.DecodeAuditPayload("Nope", []byte(`{}`))
	assert.Error(t, err)

	_, _, err = domain.EncodeAuditPayload(nil)
	assert.Error(t, err)
}

func TestAdjustment_SignedAmount(t *testing.T) {
	in := domain.ClosingAdjustment{Type: domain.AdjustmentIngreso, Amount: decimal.RequireFromString("150.50")}
	out := domain.ClosingAdjustment{Type: domain.AdjustmentEgreso, Amount: decimal.RequireFromString("150.50")}
	assert.True(t, in.SignedAmount().Equal(decimal.RequireFromString("150.50")))
	assert.True(t, out.SignedAmount().Equal(decimal.RequireFromString("-150.50")))
}
