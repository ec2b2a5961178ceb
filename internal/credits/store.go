package credits

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"prizepool/internal/engine"
)

// ErrInsufficientCredits means a bet debit would take a player negative.
var ErrInsufficientCredits = errors.New("insufficient credits")

// Store holds player credit accounts. Bets debit credits immediately and
// irreversibly; wins credit back. Amounts are fixed-point with the pool's
// smallest denomination.
type Store interface {
	Balance(ctx context.Context, playerID string) (decimal.Decimal, error)
	// Debit removes amount atomically, all or nothing.
	Debit(ctx context.Context, playerID string, amount decimal.Decimal) (decimal.Decimal, error)
	Credit(ctx context.Context, playerID string, amount decimal.Decimal) (decimal.Decimal, error)
	// Set overwrites a balance; admin/funding surface only.
	Set(ctx context.Context, playerID string, balance decimal.Decimal) error
}

// units converts an amount to integer smallest-denomination units so the
// backing store can mutate balances with integer atomics.
func units(amount decimal.Decimal) (int64, error) {
	shifted := amount.Shift(engine.DefaultScale)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %s is below the smallest denomination", amount)
	}
	return shifted.IntPart(), nil
}

func fromUnits(u int64) decimal.Decimal {
	return decimal.New(u, -engine.DefaultScale)
}

// MemoryStore is an in-process Store for tests and simulations.
type MemoryStore struct {
	mu       sync.Mutex
	balances map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{balances: make(map[string]int64)}
}

func (s *MemoryStore) Balance(ctx context.Context, playerID string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fromUnits(s.balances[playerID]), nil
}

func (s *MemoryStore) Debit(ctx context.Context, playerID string, amount decimal.Decimal) (decimal.Decimal, error) {
	u, err := units(amount)
	if err != nil {
		return decimal.Zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.balances[playerID] < u {
		return fromUnits(s.balances[playerID]), ErrInsufficientCredits
	}
	s.balances[playerID] -= u
	return fromUnits(s.balances[playerID]), nil
}

func (s *MemoryStore) Credit(ctx context.Context, playerID string, amount decimal.Decimal) (decimal.Decimal, error) {
	u, err := units(amount)
	if err != nil {
		return decimal.Zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.balances[playerID] += u
	return fromUnits(s.balances[playerID]), nil
}

func (s *MemoryStore) Set(ctx context.Context, playerID string, balance decimal.Decimal) error {
	u, err := units(balance)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.balances[playerID] = u
	return nil
}
