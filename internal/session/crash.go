package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"prizepool/internal/credits"
	"prizepool/internal/engine"
	"prizepool/internal/pool"
)

// CrashRules parameterizes the crash variant. The multiplier grows
// continuously as e^(elapsed * Speed); the crash point is drawn from the
// session's committed seeds at bet time and stays hidden until the session
// ends.
type CrashRules struct {
	Bet   BetRules
	Speed float64 // e-folding rate per second
}

// Crash runs crash sessions: the multiplier climbs from 1.00 and the player
// must cash out before it passes the hidden crash point. Unlike hi-lo there
// are no discrete guesses, only the race against the clock.
type Crash struct {
	mu      sync.Mutex
	rules   CrashRules
	ledger  *pool.Ledger
	credits credits.Store
	store   Store
	now     func() time.Time
	log     *slog.Logger
}

func NewCrash(rules CrashRules, ledger *pool.Ledger, creditStore credits.Store, store Store) *Crash {
	if rules.Speed <= 0 {
		rules.Speed = 0.1
	}
	return &Crash{
		rules:   rules,
		ledger:  ledger,
		credits: creditStore,
		store:   store,
		now:     time.Now,
		log:     slog.Default().With("component", "crash"),
	}
}

// PlaceBet debits the bet, draws the hidden crash point from freshly
// committed seeds, and creates the session in Betting.
func (c *Crash) PlaceBet(ctx context.Context, playerID, clientSeed string, amount decimal.Decimal) (*Session, error) {
	if err := c.rules.Bet.Validate(amount); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.NewString()
	seated, err := c.store.AcquireSeat(ctx, "crash", playerID, id)
	if err != nil {
		return nil, err
	}
	if !seated {
		return nil, ErrPendingSession
	}

	if _, err := c.credits.Debit(ctx, playerID, amount); err != nil {
		c.store.ReleaseSeat(ctx, "crash", playerID)
		return nil, err
	}

	src := engine.NewCommittedSource(clientSeed)
	draw := src.Draw()

	s := &Session{
		ID:           id,
		PlayerID:     playerID,
		Game:         "crash",
		BetAmount:    amount,
		CrashPoint:   engine.CrashPoint(draw),
		ServerSeed:   src.ServerSeed,
		ClientSeed:   src.ClientSeed,
		Commitment:   src.Commitment(),
		Nonce:        src.Nonce(),
		Status:       StatusBetting,
		PoolSnapshot: decimal.Zero,
		CreatedAt:    c.now(),
	}

	if err := c.store.Save(ctx, s); err != nil {
		c.credits.Credit(ctx, playerID, amount)
		c.store.ReleaseSeat(ctx, "crash", playerID)
		return nil, err
	}

	c.log.Info("bet placed", "session", s.ID, "player", playerID, "amount", amount.String())
	return s, nil
}

// Confirm moves Betting -> Active: the pool is snapshotted and the multiplier
// clock starts.
func (c *Crash) Confirm(ctx context.Context, sessionID string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusBetting {
		return nil, ErrNotActive
	}

	s.PoolSnapshot = c.ledger.Snapshot().Balance
	s.StartedAt = c.now()
	s.Status = StatusActive

	if err := c.store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Multiplier returns the live multiplier for an active session, capped at the
// crash point once it has passed.
func (c *Crash) Multiplier(ctx context.Context, sessionID string) (float64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return 0, false, err
	}
	if s.Status != StatusActive {
		return 0, s.Status == StatusLost, ErrNotActive
	}

	m := c.multiplierAt(s, c.now())
	crashed := m >= s.CrashPoint
	if crashed {
		m = s.CrashPoint
	}
	return m, crashed, nil
}

// CashOut settles an active crash session at the current multiplier. Valid
// only while the multiplier is below the crash point; a late cash-out is a
// terminal loss of the already-debited bet. The payout is bet * multiplier
// bounded by the snapshot's reserve and max-single constraints, then debited
// from the live pool with the same SettlementFailed discipline as hi-lo.
func (c *Crash) CashOut(ctx context.Context, sessionID string) (*Session, float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if s.Status != StatusActive {
		return nil, 0, ErrNotActive
	}

	now := c.now()
	m := c.multiplierAt(s, now)
	s.EndedAt = now
	c.store.ReleaseSeat(ctx, "crash", s.PlayerID)

	if m >= s.CrashPoint {
		s.Status = StatusLost
		s.PotentialPayout = decimal.Zero
		if err := c.store.Save(ctx, s); err != nil {
			return nil, 0, err
		}
		c.log.Info("crashed", "session", s.ID, "crash_point", s.CrashPoint)
		return s, s.CrashPoint, ErrCrashed
	}

	raw := s.BetAmount.Mul(decimal.NewFromFloat(m))
	amount := engine.ClampPayout(raw, s.PoolSnapshot, c.ledger.Terms())

	if amount.IsPositive() {
		if _, err := c.ledger.Debit(ctx, amount); err != nil {
			var poolErr *pool.InsufficientPoolError
			if errors.As(err, &poolErr) {
				s.Status = StatusSettlementFailed
				s.Payout = amount
				c.store.Save(ctx, s)
				c.log.Warn("cash-out settlement failed",
					"session", s.ID, "amount", amount.String(), "pool", poolErr.Balance.String())
				return s, m, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
			}
			return nil, 0, err
		}
		if _, err := c.credits.Credit(ctx, s.PlayerID, amount); err != nil {
			return nil, 0, err
		}
	}

	s.Status = StatusCashedOut
	s.Payout = amount
	if err := c.store.Save(ctx, s); err != nil {
		return nil, 0, err
	}

	c.log.Info("cashed out", "session", s.ID, "multiplier", m, "payout", amount.String())
	return s, m, nil
}

// Get returns a session by ID.
func (c *Crash) Get(ctx context.Context, sessionID string) (*Session, error) {
	return c.store.Get(ctx, sessionID)
}

// multiplierAt is e^(elapsed * speed) rounded down to 2 decimal places, never
// below 1.00.
func (c *Crash) multiplierAt(s *Session, at time.Time) float64 {
	elapsed := at.Sub(s.StartedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	m := math.Exp(elapsed * c.rules.Speed)
	m = math.Floor(m*100) / 100
	if m < engine.MinCrashMultiplier {
		return engine.MinCrashMultiplier
	}
	return m
}
