package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// Readers here run outside any transaction; writes go through Tx.
type RepositoryProvider struct {
	Tx          TransactionManager
	Periods     PeriodReader
	Statements  StatementLineReader
	Matches     MatchLinkReader
	Suspense    SuspenseItemReader
	Adjustments ClosingAdjustmentReader
	Audit       AuditEntryReader
	Movements   LedgerMovementReader
	Idempotency IdempotencyRepository
}
