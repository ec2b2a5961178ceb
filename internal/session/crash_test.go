package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"prizepool/internal/credits"
	"prizepool/internal/engine"
	"prizepool/internal/pool"
)

func newTestCrash(t *testing.T, poolBalance float64) (*Crash, *credits.MemoryStore, *pool.Ledger) {
	t.Helper()
	ledger, err := pool.NewLedger(decimal.NewFromFloat(poolBalance), engine.DefaultTerms(), nil)
	if err != nil {
		t.Fatalf("creating ledger: %v", err)
	}
	creditStore := credits.NewMemoryStore()
	creditStore.Set(context.Background(), "p1", decimal.NewFromInt(100))

	rules := CrashRules{
		Bet:   BetRules{MinBet: decimal.NewFromInt(1)},
		Speed: 0.1,
	}
	return NewCrash(rules, ledger, creditStore, NewMemoryStore()), creditStore, ledger
}

// forceCrashPoint pins the hidden crash point so the race against the clock
// is scriptable.
func forceCrashPoint(t *testing.T, c *Crash, sessionID string, point float64) {
	t.Helper()
	s, err := c.store.Get(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}
	s.CrashPoint = point
	if err := c.store.Save(context.Background(), s); err != nil {
		t.Fatalf("saving session: %v", err)
	}
}

func activeCrashSession(t *testing.T, c *Crash, bet decimal.Decimal, crashPoint float64) *Session {
	t.Helper()
	ctx := context.Background()
	s, err := c.PlaceBet(ctx, "p1", "client_seed", bet)
	if err != nil {
		t.Fatalf("placing bet: %v", err)
	}
	forceCrashPoint(t, c, s.ID, crashPoint)
	s, err = c.Confirm(ctx, s.ID)
	if err != nil {
		t.Fatalf("confirming: %v", err)
	}
	return s
}

func TestCrash_PlaceBet(t *testing.T) {
	ctx := context.Background()

	t.Run("crash point drawn from committed seeds", func(t *testing.T) {
		c, _, _ := newTestCrash(t, 100)
		s, err := c.PlaceBet(ctx, "p1", "my_seed", decimal.NewFromInt(1))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		draw := engine.DrawFromSeeds(s.ServerSeed, s.ClientSeed, s.Nonce)
		if got := engine.CrashPoint(draw); got != s.CrashPoint {
			t.Errorf("crash point %v not reproducible from seeds (want %v)", s.CrashPoint, got)
		}
		if s.Commitment != engine.HashCommitment(s.ServerSeed) {
			t.Error("commitment does not hash the server seed")
		}
	})

	t.Run("one session per player", func(t *testing.T) {
		c, _, _ := newTestCrash(t, 100)
		if _, err := c.PlaceBet(ctx, "p1", "", decimal.NewFromInt(1)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := c.PlaceBet(ctx, "p1", "", decimal.NewFromInt(1)); !errors.Is(err, ErrPendingSession) {
			t.Errorf("err = %v, want ErrPendingSession", err)
		}
	})

	t.Run("seat survives a process restart", func(t *testing.T) {
		c1, creditStore, ledger := newTestCrash(t, 100)
		if _, err := c1.PlaceBet(ctx, "p1", "", decimal.NewFromInt(1)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		c2 := NewCrash(c1.rules, ledger, creditStore, c1.store)
		if _, err := c2.PlaceBet(ctx, "p1", "", decimal.NewFromInt(1)); !errors.Is(err, ErrPendingSession) {
			t.Errorf("err = %v, want ErrPendingSession", err)
		}
	})

	t.Run("invalid bet rejected", func(t *testing.T) {
		c, _, _ := newTestCrash(t, 100)
		if _, err := c.PlaceBet(ctx, "p1", "", decimal.NewFromFloat(0.5)); !errors.Is(err, ErrInvalidBet) {
			t.Errorf("err = %v, want ErrInvalidBet", err)
		}
	})
}

func TestCrash_Multiplier(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCrash(t, 100)

	start := time.Now()
	c.now = func() time.Time { return start }
	s := activeCrashSession(t, c, decimal.NewFromInt(1), 100)

	t.Run("starts at 1.00", func(t *testing.T) {
		m, crashed, err := c.Multiplier(ctx, s.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m != 1.00 || crashed {
			t.Errorf("multiplier = %v crashed = %v, want 1.00 false", m, crashed)
		}
	})

	t.Run("grows exponentially with elapsed time", func(t *testing.T) {
		// e^(10s * 0.1) = e ~ 2.71 floored to 2 decimals.
		c.now = func() time.Time { return start.Add(10 * time.Second) }
		m, _, err := c.Multiplier(ctx, s.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m != 2.71 {
			t.Errorf("multiplier = %v, want 2.71", m)
		}
	})

	t.Run("caps at the crash point", func(t *testing.T) {
		forceCrashPoint(t, c, s.ID, 2.0)
		m, crashed, err := c.Multiplier(ctx, s.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m != 2.0 || !crashed {
			t.Errorf("multiplier = %v crashed = %v, want 2.0 true", m, crashed)
		}
	})
}

func TestCrash_CashOut(t *testing.T) {
	ctx := context.Background()

	t.Run("before crash pays bet times multiplier", func(t *testing.T) {
		c, creditStore, ledger := newTestCrash(t, 100)
		start := time.Now()
		c.now = func() time.Time { return start }
		s := activeCrashSession(t, c, decimal.NewFromInt(1), 100)

		c.now = func() time.Time { return start.Add(10 * time.Second) }
		s, m, err := c.CashOut(ctx, s.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m != 2.71 {
			t.Errorf("multiplier = %v, want 2.71", m)
		}
		if !s.Payout.Equal(decimal.NewFromFloat(2.71)) {
			t.Errorf("payout = %v, want 2.71", s.Payout)
		}
		if !ledger.Balance().Equal(decimal.NewFromFloat(97.29)) {
			t.Errorf("pool = %v, want 97.29", ledger.Balance())
		}
		// 100 credits - 1 bet + 2.71 win.
		got, _ := creditStore.Balance(ctx, "p1")
		if !got.Equal(decimal.NewFromFloat(101.71)) {
			t.Errorf("credits = %v, want 101.71", got)
		}
	})

	t.Run("after crash is a terminal loss", func(t *testing.T) {
		c, creditStore, ledger := newTestCrash(t, 100)
		start := time.Now()
		c.now = func() time.Time { return start }
		s := activeCrashSession(t, c, decimal.NewFromInt(1), 1.5)

		// e^(10s * 0.1) = 2.71 >= 1.5: too late.
		c.now = func() time.Time { return start.Add(10 * time.Second) }
		s, m, err := c.CashOut(ctx, s.ID)
		if !errors.Is(err, ErrCrashed) {
			t.Fatalf("err = %v, want ErrCrashed", err)
		}
		if m != 1.5 {
			t.Errorf("reported crash point = %v, want 1.5", m)
		}
		if s.Status != StatusLost {
			t.Errorf("status = %s, want LOST", s.Status)
		}
		if !ledger.Balance().Equal(decimal.NewFromInt(100)) {
			t.Errorf("pool = %v, want untouched 100", ledger.Balance())
		}
		got, _ := creditStore.Balance(ctx, "p1")
		if !got.Equal(decimal.NewFromInt(99)) {
			t.Errorf("credits = %v, want forfeited bet (99)", got)
		}

		// The seat frees up after the loss.
		if _, err := c.PlaceBet(ctx, "p1", "", decimal.NewFromInt(1)); err != nil {
			t.Errorf("new bet after crash rejected: %v", err)
		}
	})

	t.Run("payout bounded by snapshot constraints", func(t *testing.T) {
		c, _, _ := newTestCrash(t, 10)
		start := time.Now()
		c.now = func() time.Time { return start }
		s := activeCrashSession(t, c, decimal.NewFromInt(50), 10000)

		// e^(60s * 0.1) = e^6 ~ 403x on a 50 bet: far past every bound.
		// Snapshot 10 with default terms clamps to 50% of balance = 5.
		c.now = func() time.Time { return start.Add(60 * time.Second) }
		s, _, err := c.CashOut(ctx, s.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !s.Payout.Equal(decimal.NewFromInt(5)) {
			t.Errorf("payout = %v, want 5", s.Payout)
		}
	})

	t.Run("live pool shrank below snapshot payout", func(t *testing.T) {
		c, creditStore, ledger := newTestCrash(t, 100)
		start := time.Now()
		c.now = func() time.Time { return start }
		s := activeCrashSession(t, c, decimal.NewFromInt(1), 100)

		if _, err := ledger.Debit(ctx, decimal.NewFromFloat(99.5)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		before, _ := creditStore.Balance(ctx, "p1")
		c.now = func() time.Time { return start.Add(10 * time.Second) }
		s, _, err := c.CashOut(ctx, s.ID)
		if !errors.Is(err, ErrSettlementFailed) {
			t.Fatalf("err = %v, want ErrSettlementFailed", err)
		}
		if s.Status != StatusSettlementFailed {
			t.Errorf("status = %s, want SETTLEMENT_FAILED", s.Status)
		}
		after, _ := creditStore.Balance(ctx, "p1")
		if !after.Equal(before) {
			t.Error("credits moved on a failed settlement")
		}
	})

	t.Run("double cash-out rejected", func(t *testing.T) {
		c, _, _ := newTestCrash(t, 100)
		start := time.Now()
		c.now = func() time.Time { return start }
		s := activeCrashSession(t, c, decimal.NewFromInt(1), 100)

		if _, _, err := c.CashOut(ctx, s.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, _, err := c.CashOut(ctx, s.ID); !errors.Is(err, ErrNotActive) {
			t.Errorf("err = %v, want ErrNotActive", err)
		}
	})
}
