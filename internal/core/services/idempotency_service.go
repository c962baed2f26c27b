package services

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"golang.org/x/crypto/blake2b"
)

// Guarded operation names, stored on idempotency records.
const (
	opImportStatement  = "import_statement"
	opAutoMatch        = "auto_match"
	opManualMatch      = "manual_match"
	opUnmatch          = "unmatch"
	opSuspenseSkip     = "suspense_skip"
	opSuspenseWriteOff = "suspense_write_off"
	opSuspenseConvert  = "suspense_convert"
	opClosePeriod      = "close_period"
	opReopenPeriod     = "reopen_period"
)

// idempotencyGuard gives mutating operations at-most-once semantics per caller token.
type idempotencyGuard struct {
	BaseService
	repo portsrepo.IdempotencyRepository
	ttl  time.Duration
}

func newIdempotencyGuard(repo portsrepo.IdempotencyRepository, cfg serviceConfig) *idempotencyGuard {
	return &idempotencyGuard{
		BaseService: newBaseService(cfg),
		repo:        repo,
		ttl:         cfg.idempotencyTTL,
	}
}

var _ portssvc.IdempotencyMaintenanceSvc = (*idempotencyGuard)(nil)

// fingerprint hashes the actor and request body so a token cannot be replayed for a different call.
func fingerprint(actor string, request any) (string, error) {
	body, err := json.Marshal(struct {
		Actor   string `json:"actor"`
		Request any    `json:"request"`
	}{actor, request})
	if err != nil {
		return "", apperrors.NewAppError(500, "failed to fingerprint request", err)
	}
	sum := blake2b.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

// Execute runs exec at most once per (scope, operation, token).
// Without a token exec runs directly. A PROCESSING record fails fast with ConcurrentOperationError
// whatever the payload. A COMPLETED unexpired record replays its stored bytes when the request
// fingerprint matches and fails with ErrIdempotencyKeyReuse otherwise. FAILED, expired or absent
// records are claimed and exec runs; its error is propagated unchanged after marking FAILED.
func (g *idempotencyGuard) Execute(ctx context.Context, token, scope, operation, actor string, request any, exec func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if token == "" {
		return exec(ctx)
	}
	logger := g.GetLogger(ctx).With(
		slog.String("idempotency_scope", scope),
		slog.String("idempotency_operation", operation),
	)

	hash, err := fingerprint(actor, request)
	if err != nil {
		return nil, err
	}
	key := domain.IdempotencyKey{Scope: scope, Operation: operation, Token: token}
	now := g.Now()

	claimed, existing, err := g.repo.ClaimIdempotencyKey(ctx, domain.IdempotencyRecord{
		IdempotencyKey: key,
		RequestHash:    hash,
		ExpiresAt:      now.Add(g.ttl),
	}, now)
	if err != nil {
		logger.Error("Failed to claim idempotency key", slog.String("error", err.Error()))
		return nil, err
	}

	if !claimed {
		if existing == nil || existing.Status != domain.IdempotencyCompleted {
			logger.Warn("Operation already in progress")
			return nil, &apperrors.ConcurrentOperationError{Scope: scope, Operation: operation}
		}
		if existing.RequestHash != hash {
			logger.Warn("Idempotency key reused with a different request")
			return nil, fmt.Errorf("%w: token already used for another %s request on %s", apperrors.ErrIdempotencyKeyReuse, operation, scope)
		}
		logger.Info("Replaying completed operation")
		return existing.Response, nil
	}

	response, execErr := exec(ctx)

	// Finish the record even if the caller went away; the guarded work has already committed or rolled back.
	finishCtx := context.WithoutCancel(ctx)
	if execErr != nil {
		if err := g.repo.FailIdempotencyKey(finishCtx, key, execErr.Error(), g.Now()); err != nil {
			logger.Error("Failed to mark idempotency key as failed", slog.String("error", err.Error()))
		}
		return nil, execErr
	}
	if err := g.repo.CompleteIdempotencyKey(finishCtx, key, response, g.Now()); err != nil {
		// The key stays PROCESSING until it expires, so retries are rejected rather than re-executed.
		logger.Error("Failed to store idempotent response", slog.String("error", err.Error()))
	}
	return response, nil
}

// PurgeExpired deletes expired COMPLETED and FAILED records.
func (g *idempotencyGuard) PurgeExpired(ctx context.Context) (int64, error) {
	deleted, err := g.repo.DeleteExpiredIdempotencyRecords(ctx, g.Now())
	if err != nil {
		g.LogError(ctx, err, "Failed to purge expired idempotency records")
		return 0, err
	}
	if deleted > 0 {
		g.LogInfo(ctx, "Purged expired idempotency records", slog.Int64("deleted", deleted))
	}
	return deleted, nil
}

// guarded runs fn through the guard and hands back the decoded response. The first
// execution and every replay decode the same stored bytes, so callers see identical results.
func guarded[T any](ctx context.Context, g *idempotencyGuard, token, scope, operation, actor string, request any, fn func(ctx context.Context) (*T, error)) (*T, error) {
	raw, err := g.Execute(ctx, token, scope, operation, actor, request, func(ctx context.Context) ([]byte, error) {
		result, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(result)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to encode "+operation+" response", err)
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperrors.NewAppError(500, "failed to decode stored "+operation+" response", err)
	}
	return &out, nil
}
