// Package memory is an in-process implementation of every repository port.
// Transactions are serialized and rolled back from a snapshot, which is enough
// for local runs and tests but gives no isolation to readers outside RunInTx.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

type batchKey struct {
	PeriodID string
	BatchRef string
}

// tables is everything RunInTx snapshots. Idempotency records live outside it
// because they commit independently of the guarded work.
type tables struct {
	balances       map[string]decimal.Decimal
	movements      map[string]domain.LedgerMovement
	periods        map[string]domain.ReconciliationPeriod
	batches        map[batchKey]domain.StatementBatch
	lines          map[string]domain.StatementLine
	links          map[string]domain.MatchLink
	linkByLine     map[string]string
	linkByMovement map[string]string
	suspense       map[string]domain.SuspenseItem
	suspenseByLine map[string]string
	adjustments    map[string]domain.ClosingAdjustment
	audit          []domain.AuditEntry
}

func newTables() tables {
	return tables{
		balances:       make(map[string]decimal.Decimal),
		movements:      make(map[string]domain.LedgerMovement),
		periods:        make(map[string]domain.ReconciliationPeriod),
		batches:        make(map[batchKey]domain.StatementBatch),
		lines:          make(map[string]domain.StatementLine),
		links:          make(map[string]domain.MatchLink),
		linkByLine:     make(map[string]string),
		linkByMovement: make(map[string]string),
		suspense:       make(map[string]domain.SuspenseItem),
		suspenseByLine: make(map[string]string),
		adjustments:    make(map[string]domain.ClosingAdjustment),
	}
}

// clone copies every map. Stored values are never mutated in place, so a shallow copy is a snapshot.
func (t tables) clone() tables {
	return tables{
		balances:       maps.Clone(t.balances),
		movements:      maps.Clone(t.movements),
		periods:        maps.Clone(t.periods),
		batches:        maps.Clone(t.batches),
		lines:          maps.Clone(t.lines),
		links:          maps.Clone(t.links),
		linkByLine:     maps.Clone(t.linkByLine),
		linkByMovement: maps.Clone(t.linkByMovement),
		suspense:       maps.Clone(t.suspense),
		suspenseByLine: maps.Clone(t.suspenseByLine),
		adjustments:    maps.Clone(t.adjustments),
		audit:          append([]domain.AuditEntry(nil), t.audit...),
	}
}

// Store implements all repository ports and the ledger movement gateway in memory.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data tables

	idemMu      sync.Mutex
	idempotency map[domain.IdempotencyKey]domain.IdempotencyRecord
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		data:        newTables(),
		idempotency: make(map[domain.IdempotencyKey]domain.IdempotencyRecord),
	}
}

var (
	_ portsrepo.TransactionManager                = (*Store)(nil)
	_ portsrepo.PeriodRepositoryFacade            = (*Store)(nil)
	_ portsrepo.StatementLineRepositoryFacade     = (*Store)(nil)
	_ portsrepo.MatchLinkRepositoryFacade         = (*Store)(nil)
	_ portsrepo.SuspenseItemRepositoryFacade      = (*Store)(nil)
	_ portsrepo.ClosingAdjustmentRepositoryFacade = (*Store)(nil)
	_ portsrepo.AuditEntryRepositoryFacade        = (*Store)(nil)
	_ portsrepo.LedgerMovementGateway             = (*Store)(nil)
	_ portsrepo.IdempotencyRepository             = (*Store)(nil)
)

// NewRepositoryProvider wires a store into the provider used by the service container.
func NewRepositoryProvider(store *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		Tx:          store,
		Periods:     store,
		Statements:  store,
		Matches:     store,
		Suspense:    store,
		Adjustments: store,
		Audit:       store,
		Movements:   store,
		Idempotency: store,
	}
}

// RunInTx runs fn with exclusive access to the store and restores the prior state when fn fails.
// Calls must not nest.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, repos portsrepo.TxRepositories) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	defer func() {
		if r := recover(); r != nil {
			s.restore(snapshot)
			panic(r)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()

	if err = ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, portsrepo.TxRepositories{
		Periods:     s,
		Statements:  s,
		Matches:     s,
		Suspense:    s,
		Adjustments: s,
		Audit:       s,
		Movements:   s,
	})
}

func (s *Store) restore(snapshot tables) {
	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
}

// SeedAccount registers a bank account with an opening balance.
func (s *Store) SeedAccount(accountID string, openingBalance decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.balances[accountID] = openingBalance
}

// SeedMovement records a movement produced elsewhere in the ledger and moves the account balance.
func (s *Store) SeedMovement(m domain.LedgerMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.data.balances[m.AccountID]
	if !ok {
		return fmt.Errorf("seed movement %s: unknown account %s", m.MovementID, m.AccountID)
	}
	if _, exists := s.data.movements[m.MovementID]; exists {
		return fmt.Errorf("seed movement %s: already exists", m.MovementID)
	}
	m.BalanceBefore = balance
	m.BalanceAfter = balance.Add(m.Amount)
	s.data.balances[m.AccountID] = m.BalanceAfter
	s.data.movements[m.MovementID] = m
	return nil
}
