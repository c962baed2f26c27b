package pgsql

import (
	"context"

	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxTxManager runs units of work in one PostgreSQL transaction each.
type PgxTxManager struct {
	pool *pgxpool.Pool
}

var _ portsrepo.TransactionManager = (*PgxTxManager)(nil)

// RunInTx begins a transaction, hands fn repositories bound to it and commits when fn succeeds.
func (m *PgxTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context, repos portsrepo.TxRepositories) error) error {
	tx, err := BeginFrom(ctx, m.pool)
	if err != nil {
		return err
	}
	// Will be ignored if transaction is committed successfully
	defer Rollback(context.WithoutCancel(ctx), tx)

	if err := fn(ctx, txRepositories(tx)); err != nil {
		return err
	}
	return Commit(ctx, tx)
}

func txRepositories(tx pgx.Tx) portsrepo.TxRepositories {
	return portsrepo.TxRepositories{
		Periods:     newPgxPeriodRepository(tx),
		Statements:  newPgxStatementRepository(tx),
		Matches:     newPgxMatchRepository(tx),
		Suspense:    newPgxSuspenseRepository(tx),
		Adjustments: newPgxAdjustmentRepository(tx),
		Audit:       newPgxAuditRepository(tx),
		Movements:   newPgxMovementGateway(tx),
	}
}

// NewRepositoryProvider wires pool-backed readers, the transaction manager and the idempotency store.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		Tx:          &PgxTxManager{pool: dbPool},
		Periods:     newPgxPeriodRepository(dbPool),
		Statements:  newPgxStatementRepository(dbPool),
		Matches:     newPgxMatchRepository(dbPool),
		Suspense:    newPgxSuspenseRepository(dbPool),
		Adjustments: newPgxAdjustmentRepository(dbPool),
		Audit:       newPgxAuditRepository(dbPool),
		Movements:   newPgxMovementGateway(dbPool),
		Idempotency: newPgxIdempotencyRepository(dbPool),
	}
}
