package repositories

import "context"

// TxRepositories are the repositories bound to a single store transaction.
// Everything done through them commits or rolls back together.
type TxRepositories struct {
	Periods     PeriodRepositoryFacade
	Statements  StatementLineRepositoryFacade
	Matches     MatchLinkRepositoryFacade
	Suspense    SuspenseItemRepositoryFacade
	Adjustments ClosingAdjustmentRepositoryFacade
	Audit       AuditEntryRepositoryFacade
	Movements   LedgerMovementGateway
}

// TransactionManager runs a unit of work atomically.
type TransactionManager interface {
	// RunInTx commits when fn returns nil and rolls back otherwise, returning fn's error unchanged.
	RunInTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}
