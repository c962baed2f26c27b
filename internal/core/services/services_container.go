package services

import (
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/pkg/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// Options passed by the caller win over values taken from cfg.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, opts ...ServiceOption) *portssvc.ServiceContainer {
	var base []ServiceOption
	if cfg != nil {
		base = append(base,
			WithMatchDateWindow(cfg.MatchDateWindowDays),
			WithIdempotencyTTL(cfg.IdempotencyTTL),
		)
	}
	svcCfg := newServiceConfig(append(base, opts...)...)

	// The guard and the matcher are shared: import auto-matches and suspense conversion
	// reuses the manual-match path.
	guard := newIdempotencyGuard(repos.Idempotency, svcCfg)
	matcher := newMatchingService(repos, guard, svcCfg)

	return &portssvc.ServiceContainer{
		Statement:   newStatementService(repos, matcher, guard, svcCfg),
		Matching:    matcher,
		Suspense:    newSuspenseService(repos, matcher, guard, svcCfg),
		Closing:     newClosingService(repos, guard, svcCfg),
		Audit:       newAuditService(repos.Periods, repos.Audit, svcCfg),
		Idempotency: guard,
	}
}
