package service

import (
	"context"
	"errors"
	"testing"

	"iap-entitlement-service/internal/repository"
)

// failingStore rejects every write, simulating storage I/O failure.
type failingStore struct {
	values map[string]int
	err    error
}

func (s *failingStore) Get(ctx context.Context, key string) (int, error) {
	return s.values[key], nil
}

func (s *failingStore) Set(ctx context.Context, key string, value int) error {
	return s.err
}

func TestLedgerAddAndConsume(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(repository.NewMemoryBalanceStore())

	if got := l.Balance("credits.pack"); got != 0 {
		t.Fatalf("Balance() for unknown id = %d, want 0", got)
	}

	if got, err := l.Add(ctx, "credits.pack", 3); err != nil || got != 3 {
		t.Fatalf("Add(3) = (%d, %v), want (3, nil)", got, err)
	}

	ok, err := l.Consume(ctx, "credits.pack", 2)
	if err != nil || !ok {
		t.Fatalf("Consume(2) = (%v, %v), want (true, nil)", ok, err)
	}
	if got := l.Balance("credits.pack"); got != 1 {
		t.Errorf("Balance() = %d, want 1", got)
	}
}

func TestLedgerConsumeInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(repository.NewMemoryBalanceStore())

	if _, err := l.Add(ctx, "credits.pack", 2); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	ok, err := l.Consume(ctx, "credits.pack", 5)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if ok {
		t.Error("Consume(5) with balance 2 = true, want false")
	}
	if got := l.Balance("credits.pack"); got != 2 {
		t.Errorf("Balance() after failed consume = %d, want 2 (unchanged)", got)
	}
}

func TestLedgerNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(repository.NewMemoryBalanceStore())

	tests := []struct {
		name   string
		amount int
	}{
		{"zero", 0},
		{"negative", -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, err := l.Add(ctx, "credits.pack", tt.amount); err != nil || got != 0 {
				t.Errorf("Add(%d) = (%d, %v), want no-op", tt.amount, got, err)
			}
			if ok, err := l.Consume(ctx, "credits.pack", tt.amount); err != nil || ok {
				t.Errorf("Consume(%d) = (%v, %v), want (false, nil)", tt.amount, ok, err)
			}
		})
	}
}

func TestLedgerSnapshotOmitsZeroBalances(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(repository.NewMemoryBalanceStore())

	if _, err := l.Add(ctx, "credits.pack", 1); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := l.Add(ctx, "tokens.small", 2); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if ok, err := l.Consume(ctx, "credits.pack", 1); err != nil || !ok {
		t.Fatalf("Consume() = (%v, %v)", ok, err)
	}

	snapshot := l.Snapshot()
	if len(snapshot) != 1 || snapshot["tokens.small"] != 2 {
		t.Errorf("Snapshot() = %v, want only tokens.small=2", snapshot)
	}
}

func TestLedgerLoadMirrorsPositiveBalances(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryBalanceStore()

	if err := store.Set(ctx, "consumable.balance.credits.pack", 4); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "consumable.balance.tokens.small", 0); err != nil {
		t.Fatal(err)
	}

	l := NewLedger(store)
	if err := l.Load(ctx, []string{"credits.pack", "tokens.small", "never.bought"}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := l.Balance("credits.pack"); got != 4 {
		t.Errorf("Balance(credits.pack) = %d, want 4", got)
	}
	snapshot := l.Snapshot()
	if len(snapshot) != 1 {
		t.Errorf("Snapshot() = %v, want only the positive balance", snapshot)
	}
}

func TestLedgerPersistFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	ioErr := errors.New("disk full")
	store := &failingStore{
		values: map[string]int{"consumable.balance.credits.pack": 2},
		err:    ioErr,
	}

	l := NewLedger(store)
	if err := l.Load(ctx, []string{"credits.pack"}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, err := l.Add(ctx, "credits.pack", 1); !errors.Is(err, ioErr) {
		t.Errorf("Add() error = %v, want wrapped %v", err, ioErr)
	}
	if got := l.Balance("credits.pack"); got != 2 {
		t.Errorf("Balance() after failed add = %d, want 2", got)
	}

	ok, err := l.Consume(ctx, "credits.pack", 1)
	if !errors.Is(err, ioErr) {
		t.Errorf("Consume() error = %v, want wrapped %v", err, ioErr)
	}
	if ok {
		t.Error("Consume() = true despite persistence failure")
	}
	if got := l.Balance("credits.pack"); got != 2 {
		t.Errorf("Balance() after failed consume = %d, want 2", got)
	}
}
