package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/adapters/database/memory"
	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type guardFixture struct {
	store *memory.Store
	guard *idempotencyGuard
	now   time.Time
}

func newGuardFixture() *guardFixture {
	f := &guardFixture{
		store: memory.NewStore(),
		now:   time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC),
	}
	cfg := newServiceConfig(WithClock(func() time.Time { return f.now }), WithIdempotencyTTL(time.Hour))
	f.guard = newIdempotencyGuard(f.store, cfg)
	return f
}

func TestGuard_NoTokenAlwaysExecutes(t *testing.T) {
	f := newGuardFixture()
	calls := 0
	exec := func(context.Context) ([]byte, error) {
		calls++
		return []byte(`{}`), nil
	}

	for i := 0; i < 2; i++ {
		_, err := f.guard.Execute(context.Background(), "", "period-1", opClosePeriod, "u1", nil, exec)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

func TestGuard_ReplaysCompletedResponse(t *testing.T) {
	f := newGuardFixture()
	calls := 0
	exec := func(context.Context) ([]byte, error) {
		calls++
		return []byte(`{"state":"COMPLETED"}`), nil
	}

	first, err := f.guard.Execute(context.Background(), "tok", "period-1", opClosePeriod, "u1", map[string]int{"a": 1}, exec)
	require.NoError(t, err)
	second, err := f.guard.Execute(context.Background(), "tok", "period-1", opClosePeriod, "u1", map[string]int{"a": 1}, exec)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	record, err := f.store.FindIdempotencyRecord(context.Background(), domain.IdempotencyKey{Scope: "period-1", Operation: opClosePeriod, Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, domain.IdempotencyCompleted, record.Status)
	assert.Equal(t, f.now.Add(time.Hour), record.ExpiresAt)
}

func TestGuard_SameTokenOtherScopeIsIndependent(t *testing.T) {
	f := newGuardFixture()
	calls := 0
	exec := func(context.Context) ([]byte, error) {
		calls++
		return []byte(`{}`), nil
	}

	_, err := f.guard.Execute(context.Background(), "tok", "period-1", opClosePeriod, "u1", nil, exec)
	require.NoError(t, err)
	_, err = f.guard.Execute(context.Background(), "tok", "period-2", opClosePeriod, "u1", nil, exec)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGuard_ConcurrentCallFailsFast(t *testing.T) {
	f := newGuardFixture()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := f.guard.Execute(context.Background(), "tok", "line-1", opManualMatch, "u1", nil, func(context.Context) ([]byte, error) {
			close(started)
			<-release
			return []byte(`{}`), nil
		})
		done <- err
	}()
	<-started

	_, err := f.guard.Execute(context.Background(), "tok", "line-1", opManualMatch, "u1", nil, func(context.Context) ([]byte, error) {
		t.Fatal("second execution must not run")
		return nil, nil
	})
	var concurrent *apperrors.ConcurrentOperationError
	require.ErrorAs(t, err, &concurrent)
	assert.Equal(t, opManualMatch, concurrent.Operation)

	close(release)
	require.NoError(t, <-done)
}

func TestGuard_InFlightKeyWinsOverPayloadMismatch(t *testing.T) {
	f := newGuardFixture()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := f.guard.Execute(context.Background(), "tok", "period-1", opImportStatement, "u1", "batch-a", func(context.Context) ([]byte, error) {
			close(started)
			<-release
			return []byte(`{}`), nil
		})
		done <- err
	}()
	<-started

	_, err := f.guard.Execute(context.Background(), "tok", "period-1", opImportStatement, "u1", "batch-b", func(context.Context) ([]byte, error) {
		t.Fatal("second execution must not run")
		return nil, nil
	})
	var concurrent *apperrors.ConcurrentOperationError
	require.ErrorAs(t, err, &concurrent)
	assert.NotErrorIs(t, err, apperrors.ErrIdempotencyKeyReuse)

	close(release)
	require.NoError(t, <-done)

	// once completed, the mismatched payload is a reuse
	_, err = f.guard.Execute(context.Background(), "tok", "period-1", opImportStatement, "u1", "batch-b", func(context.Context) ([]byte, error) {
		t.Fatal("completed key must not run again")
		return nil, nil
	})
	assert.ErrorIs(t, err, apperrors.ErrIdempotencyKeyReuse)
}

func TestGuard_FailureReleasesKey(t *testing.T) {
	f := newGuardFixture()
	boom := errors.New("store unavailable")

	_, err := f.guard.Execute(context.Background(), "tok", "period-1", opClosePeriod, "u1", nil, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	record, err := f.store.FindIdempotencyRecord(context.Background(), domain.IdempotencyKey{Scope: "period-1", Operation: opClosePeriod, Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, domain.IdempotencyFailed, record.Status)
	assert.Equal(t, boom.Error(), record.ErrorMessage)

	resp, err := f.guard.Execute(context.Background(), "tok", "period-1", opClosePeriod, "u1", nil, func(context.Context) ([]byte, error) {
		return []byte(`"ok"`), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte(`"ok"`), resp)
}

func TestGuard_ExpiredRecordRunsAgain(t *testing.T) {
	f := newGuardFixture()
	calls := 0
	exec := func(context.Context) ([]byte, error) {
		calls++
		return []byte(`{}`), nil
	}

	_, err := f.guard.Execute(context.Background(), "tok", "period-1", opReopenPeriod, "u1", nil, exec)
	require.NoError(t, err)
	f.now = f.now.Add(time.Hour)
	_, err = f.guard.Execute(context.Background(), "tok", "period-1", opReopenPeriod, "u1", nil, exec)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGuard_DifferentActorIsKeyReuse(t *testing.T) {
	f := newGuardFixture()
	exec := func(context.Context) ([]byte, error) { return []byte(`{}`), nil }

	_, err := f.guard.Execute(context.Background(), "tok", "item-1", opSuspenseSkip, "u1", "same body", exec)
	require.NoError(t, err)
	_, err = f.guard.Execute(context.Background(), "tok", "item-1", opSuspenseSkip, "u2", "same body", exec)
	assert.ErrorIs(t, err, apperrors.ErrIdempotencyKeyReuse)
}

func TestFingerprint(t *testing.T) {
	a, err := fingerprint("u1", map[string]string{"x": "1"})
	require.NoError(t, err)
	b, err := fingerprint("u1", map[string]string{"x": "1"})
	require.NoError(t, err)
	c, err := fingerprint("u1", map[string]string{"x": "2"})
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
