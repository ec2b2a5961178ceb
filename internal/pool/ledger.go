package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"prizepool/internal/engine"
)

// ErrInsufficientPool marks a debit that would overdraw the pool. Rare under
// the ledger's serialization, but a named, handled case: an unpaid win must
// surface to the operator, never be swallowed.
var ErrInsufficientPool = errors.New("insufficient pool balance")

// InsufficientPoolError carries the amounts involved so the failed settlement
// can be reconciled manually.
type InsufficientPoolError struct {
	Requested decimal.Decimal
	Balance   decimal.Decimal
}

func (e *InsufficientPoolError) Error() string {
	return fmt.Sprintf("insufficient pool: requested %s, balance %s", e.Requested, e.Balance)
}

func (e *InsufficientPoolError) Unwrap() error {
	return ErrInsufficientPool
}

// Store persists ledger balance mutations. Implementations must apply Save
// before the ledger exposes the new balance; a Save failure aborts the
// mutation.
type Store interface {
	// Load returns the persisted balance; found is false on first boot.
	Load(ctx context.Context) (balance decimal.Decimal, found bool, err error)
	Save(ctx context.Context, balance decimal.Decimal) error
}

// Snapshot is an immutable view of the pool taken at a point in time.
// Sessions compute rewards against their snapshot, not the live balance.
type Snapshot struct {
	Balance decimal.Decimal
	Terms   engine.Terms
}

// Ledger is the single shared mutable resource of the system. All balance
// mutations run under one mutex so payout bounds are evaluated against a
// consistent balance at the moment of debit, never a stale read. Everything
// around it is pure.
type Ledger struct {
	mu      sync.Mutex
	balance decimal.Decimal
	terms   engine.Terms
	store   Store
	log     *slog.Logger
}

// NewLedger creates a ledger with an opening balance. store may be nil for
// tests and simulations.
func NewLedger(opening decimal.Decimal, terms engine.Terms, store Store) (*Ledger, error) {
	if opening.Sign() < 0 {
		return nil, fmt.Errorf("opening balance %s is negative", opening)
	}
	return &Ledger{
		balance: opening,
		terms:   terms,
		store:   store,
		log:     slog.Default().With("component", "pool"),
	}, nil
}

// Open restores a ledger from its store, falling back to the opening balance
// on first boot.
func Open(ctx context.Context, opening decimal.Decimal, terms engine.Terms, store Store) (*Ledger, error) {
	l, err := NewLedger(opening, terms, store)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return l, nil
	}

	persisted, found, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading pool balance: %w", err)
	}
	if found {
		l.balance = persisted
	} else if err := store.Save(ctx, opening); err != nil {
		return nil, fmt.Errorf("seeding pool balance: %w", err)
	}
	return l, nil
}

func (l *Ledger) Balance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Available is the balance minus the permanent reserve.
func (l *Ledger) Available() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.terms.Available(l.balance)
}

func (l *Ledger) Terms() engine.Terms {
	return l.terms
}

// Snapshot captures the balance and terms for a session's lifetime.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{Balance: l.balance, Terms: l.terms}
}

// Debit removes amount from the pool, all or nothing. A rejected debit leaves
// the balance untouched and returns InsufficientPoolError.
func (l *Ledger) Debit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("debit amount %s is negative", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if amount.GreaterThan(l.balance) {
		return l.balance, &InsufficientPoolError{Requested: amount, Balance: l.balance}
	}

	next := l.balance.Sub(amount)
	if err := l.persist(ctx, next); err != nil {
		return l.balance, err
	}
	l.balance = next

	l.log.Debug("pool debited", "amount", amount.String(), "balance", next.String())
	return next, nil
}

// Credit adds an external funding inflow (tax/fee top-up) to the pool.
func (l *Ledger) Credit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("credit amount %s is negative", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.balance.Add(amount)
	if err := l.persist(ctx, next); err != nil {
		return l.balance, err
	}
	l.balance = next

	l.log.Debug("pool credited", "amount", amount.String(), "balance", next.String())
	return next, nil
}

// PayOutcome computes the bounded payout for a resolved outcome against the
// balance as it stands right now and debits it in the same critical section.
// This is what makes "no single payout above 50% of the pool" hold under
// concurrent winners, not just in a single-threaded run.
func (l *Ledger) PayOutcome(ctx context.Context, o engine.Outcome) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	amount := engine.CalculatePayout(o, l.balance, l.terms)
	if amount.IsZero() {
		return decimal.Zero, nil
	}

	next := l.balance.Sub(amount)
	if err := l.persist(ctx, next); err != nil {
		return decimal.Zero, err
	}
	l.balance = next

	l.log.Info("payout settled", "outcome", o.ID, "amount", amount.String(), "balance", next.String())
	return amount, nil
}

func (l *Ledger) persist(ctx context.Context, balance decimal.Decimal) error {
	if l.store == nil {
		return nil
	}
	if err := l.store.Save(ctx, balance); err != nil {
		return fmt.Errorf("persisting pool balance: %w", err)
	}
	return nil
}
