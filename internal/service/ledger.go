package service

import (
	"context"
	"fmt"
	"sync"

	"iap-entitlement-service/internal/repository"
)

const balanceKeyPrefix = "consumable.balance."

// Ledger tracks consumable balances. The storefront keeps no entitlement
// record for consumables, so this local ledger is the only evidence of an
// unspent credit. Balances never go below zero: a consume that exceeds the
// balance fails without mutating anything.
//
// Ledger serializes with its own mutex, independent of the service state
// lock, so check-then-act on a balance is atomic against concurrent calls.
type Ledger struct {
	mu       sync.Mutex
	store    repository.BalanceStore
	balances map[string]int // in-memory mirror, strictly positive entries after Load
}

func NewLedger(store repository.BalanceStore) *Ledger {
	return &Ledger{
		store:    store,
		balances: make(map[string]int),
	}
}

// Load scans the given product ids and mirrors every strictly positive
// persisted balance into memory.
func (l *Ledger) Load(ctx context.Context, productIDs []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	balances := make(map[string]int)
	for _, id := range productIDs {
		val, err := l.store.Get(ctx, balanceKeyPrefix+id)
		if err != nil {
			return fmt.Errorf("load balance for %s: %w", id, err)
		}
		if val > 0 {
			balances[id] = val
		}
	}
	l.balances = balances
	return nil
}

// Balance returns the current balance, 0 for unknown products.
func (l *Ledger) Balance(productID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[productID]
}

// Add credits the balance and persists it. Amounts <= 0 are no-ops. On a
// persistence failure the in-memory balance is left unchanged and the caller
// must treat the resulting state as unknown (recheck or retry).
func (l *Ledger) Add(ctx context.Context, productID string, amount int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.balances[productID]
	if amount <= 0 {
		return current, nil
	}

	next := current + amount
	if err := l.store.Set(ctx, balanceKeyPrefix+productID, next); err != nil {
		return current, fmt.Errorf("persist balance for %s: %w", productID, err)
	}
	l.setLocked(productID, next)
	return next, nil
}

// Consume debits the balance iff it covers the amount; otherwise nothing is
// mutated and ok is false. This is the only path that spends a credit.
func (l *Ledger) Consume(ctx context.Context, productID string, amount int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount <= 0 {
		return false, nil
	}

	current := l.balances[productID]
	if current < amount {
		return false, nil
	}

	next := current - amount
	if err := l.store.Set(ctx, balanceKeyPrefix+productID, next); err != nil {
		return false, fmt.Errorf("persist balance for %s: %w", productID, err)
	}
	l.setLocked(productID, next)
	return true, nil
}

// Snapshot returns the non-zero balances.
func (l *Ledger) Snapshot() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := make(map[string]int, len(l.balances))
	for id, val := range l.balances {
		if val > 0 {
			snapshot[id] = val
		}
	}
	return snapshot
}

func (l *Ledger) setLocked(productID string, value int) {
	if value > 0 {
		l.balances[productID] = value
	} else {
		delete(l.balances, productID)
	}
}
