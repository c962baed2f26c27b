package services

// ServiceContainer holds instances of all the application services.
// It is the entry point handlers use to reach the core.
type ServiceContainer struct {
	Statement   StatementSvcFacade
	Matching    MatchingSvcFacade
	Suspense    SuspenseSvcFacade
	Closing     ClosingSvcFacade
	Audit       AuditSvcFacade
	Idempotency IdempotencyMaintenanceSvc
}
