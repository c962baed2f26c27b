package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to domain.PeriodState
		want     bool
	}{
		{domain.PeriodOpen, domain.PeriodClosing, true},
		{domain.PeriodClosing, domain.PeriodCompleted, true},
		{domain.PeriodClosing, domain.PeriodWithDifferences, true},
		{domain.PeriodCompleted, domain.PeriodReopened, true},
		{domain.PeriodWithDifferences, domain.PeriodReopened, true},
		{domain.PeriodReopened, domain.PeriodOpen, true},
		{domain.PeriodOpen, domain.PeriodReopened, false},
		{domain.PeriodOpen, domain.PeriodCompleted, false},
		{domain.PeriodClosing, domain.PeriodClosing, false},
		{domain.PeriodCompleted, domain.PeriodOpen, false},
		{domain.PeriodReopened, domain.PeriodClosing, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, domain.CanTransition(tt.from, tt.to))
		})
	}
}

func TestPeriodState_IsTerminal(t *testing.T) {
	assert.True(t, domain.PeriodCompleted.IsTerminal())
	assert.True(t, domain.PeriodWithDifferences.IsTerminal())
	assert.False(t, domain.PeriodOpen.IsTerminal())
	assert.False(t, domain.PeriodClosing.IsTerminal())
	assert.False(t, domain.PeriodReopened.IsTerminal())
}

func TestReconciliationPeriod_Contains(t *testing.T) {
	p := domain.ReconciliationPeriod{
		PeriodStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, p.Contains(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.Contains(time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 13, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, domain.DaysBetween(a, b))
	assert.Equal(t, 3, domain.DaysBetween(b, a))
	assert.Equal(t, 0, domain.DaysBetween(a, a.Add(30*time.Minute)))
}

func TestSuspenseOutcome_IsFinal(t *testing.T) {
	assert.False(t, domain.OutcomeNone.IsFinal())
	assert.False(t, domain.OutcomeStillPending.IsFinal())
	assert.True(t, domain.OutcomeWrittenOff.IsFinal())
	assert.True(t, domain.OutcomeConvertedToMovement.IsFinal())
	assert.True(t, domain.OutcomeManuallyMatched.IsFinal())
}

func TestPeriodCounts_Pending(t *testing.T) {
	c := domain.PeriodCounts{Unmatched: 2, Matched: 10, Suspense: 3, StillPending: 1, WrittenOff: 4}
	assert.Equal(t, 5, c.Pending())
}

func TestIdempotencyRecord_Claimable(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	live := domain.IdempotencyRecord{Status: domain.IdempotencyCompleted, ExpiresAt: now.Add(time.Minute)}
	assert.False(t, live.Claimable(now))
	assert.True(t, live.Claimable(now.Add(time.Minute)))

	processing := domain.IdempotencyRecord{Status: domain.IdempotencyProcessing, ExpiresAt: now.Add(time.Minute)}
	assert.False(t, processing.Claimable(now))

	failed := domain.IdempotencyRecord{Status: domain.IdempotencyFailed, ExpiresAt: now.Add(time.Minute)}
	assert.True(t, failed.Claimable(now))
}
