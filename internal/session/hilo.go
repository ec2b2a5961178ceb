package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"prizepool/internal/credits"
	"prizepool/internal/engine"
	"prizepool/internal/pool"
)

const hiloCardRanks = 13

// Guess is the player's call on the next card.
type Guess string

const (
	GuessHigher Guess = "higher"
	GuessLower  Guess = "lower"
)

// StreakTier maps a reached streak length to its reward terms. Tiers must be
// declared in ascending MinStreak order; the highest tier at or below the
// current streak applies.
type StreakTier struct {
	MinStreak   int
	PoolPercent float64
	MaxPayout   decimal.Decimal
}

// HiLoRules parameterizes the press-your-luck state machine.
type HiLoRules struct {
	Bet   BetRules
	Tiers []StreakTier
}

// GuessResult describes one guess cycle.
type GuessResult struct {
	Card    int  `json:"card"`
	Correct bool `json:"correct"`
	Push    bool `json:"push"`
}

// HiLo runs hi-lo sessions: place a bet, call higher/lower on successive
// cards, and cash out before a wrong call forfeits the bet. Rewards escalate
// with streak length and are always computed from the session's pool
// snapshot, never the live pool.
type HiLo struct {
	mu      sync.Mutex
	rules   HiLoRules
	ledger  *pool.Ledger
	credits credits.Store
	rng     engine.RandomSource
	store   Store
	log     *slog.Logger
}

func NewHiLo(rules HiLoRules, ledger *pool.Ledger, creditStore credits.Store, rng engine.RandomSource, store Store) *HiLo {
	return &HiLo{
		rules:   rules,
		ledger:  ledger,
		credits: creditStore,
		rng:     rng,
		store:   store,
		log:     slog.Default().With("component", "hilo"),
	}
}

// PlaceBet debits the bet immediately and irreversibly (credits are spent on
// placement, not on loss) and creates the session in Betting.
func (h *HiLo) PlaceBet(ctx context.Context, playerID, clientSeed string, amount decimal.Decimal) (*Session, error) {
	if err := h.rules.Bet.Validate(amount); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.NewString()
	seated, err := h.store.AcquireSeat(ctx, "hilo", playerID, id)
	if err != nil {
		return nil, err
	}
	if !seated {
		return nil, ErrPendingSession
	}

	if _, err := h.credits.Debit(ctx, playerID, amount); err != nil {
		h.store.ReleaseSeat(ctx, "hilo", playerID)
		return nil, err
	}

	src := engine.NewCommittedSource(clientSeed)
	s := &Session{
		ID:           id,
		PlayerID:     playerID,
		Game:         "hilo",
		BetAmount:    amount,
		ServerSeed:   src.ServerSeed,
		ClientSeed:   src.ClientSeed,
		Commitment:   src.Commitment(),
		Status:       StatusBetting,
		PoolSnapshot: decimal.Zero,
		CreatedAt:    time.Now(),
	}

	if err := h.store.Save(ctx, s); err != nil {
		// The bet is already taken; refund rather than strand the player.
		h.credits.Credit(ctx, playerID, amount)
		h.store.ReleaseSeat(ctx, "hilo", playerID)
		return nil, err
	}

	h.log.Info("bet placed", "session", s.ID, "player", playerID, "amount", amount.String())
	return s, nil
}

// Confirm moves Betting -> Active: the pool balance is snapshotted into the
// session and the first card is dealt. Everything after this point prices
// rewards off the snapshot.
func (h *HiLo) Confirm(ctx context.Context, sessionID string) (*Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, err := h.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusBetting {
		return nil, ErrNotActive
	}

	s.PoolSnapshot = h.ledger.Snapshot().Balance
	s.CurrentCard = h.dealCard(s)
	s.Status = StatusActive
	s.PotentialPayout = h.potential(s)

	if err := h.store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Guess deals the next card and advances or ends the session. An equal rank
// is a push: streak and session unchanged. A wrong call is terminal; the bet
// was forfeited at placement.
func (h *HiLo) Guess(ctx context.Context, sessionID string, guess Guess) (*Session, GuessResult, error) {
	if guess != GuessHigher && guess != GuessLower {
		return nil, GuessResult{}, fmt.Errorf("unknown guess %q", guess)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	s, err := h.store.Get(ctx, sessionID)
	if err != nil {
		return nil, GuessResult{}, err
	}
	if s.Status != StatusActive {
		return nil, GuessResult{}, ErrNotActive
	}

	card := h.dealCard(s)
	res := GuessResult{Card: card}

	switch {
	case card == s.CurrentCard:
		res.Push = true
	case (guess == GuessHigher) == (card > s.CurrentCard):
		res.Correct = true
		s.Streak++
	default:
		s.Status = StatusLost
		s.EndedAt = time.Now()
		s.PotentialPayout = decimal.Zero
		h.store.ReleaseSeat(ctx, "hilo", s.PlayerID)
	}

	s.CurrentCard = card
	if s.Status == StatusActive {
		s.PotentialPayout = h.potential(s)
	}

	if err := h.store.Save(ctx, s); err != nil {
		return nil, GuessResult{}, err
	}

	h.log.Debug("guess resolved", "session", s.ID, "card", card, "streak", s.Streak, "status", string(s.Status))
	return s, res, nil
}

// CashOut settles an active session. The payout is computed against the
// session's snapshot, then debited from the live pool; if the pool shrank
// below the computed amount in the meantime the session parks in
// SettlementFailed with ErrSettlementFailed, never a silent recompute.
func (h *HiLo) CashOut(ctx context.Context, sessionID string) (*Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, err := h.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status != StatusActive {
		return nil, ErrNotActive
	}

	amount := h.potential(s)
	s.EndedAt = time.Now()
	h.store.ReleaseSeat(ctx, "hilo", s.PlayerID)

	if amount.IsPositive() {
		if _, err := h.ledger.Debit(ctx, amount); err != nil {
			var poolErr *pool.InsufficientPoolError
			if errors.As(err, &poolErr) {
				s.Status = StatusSettlementFailed
				s.Payout = amount
				h.store.Save(ctx, s)
				h.log.Warn("cash-out settlement failed",
					"session", s.ID, "amount", amount.String(), "pool", poolErr.Balance.String())
				return s, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
			}
			return nil, err
		}
		if _, err := h.credits.Credit(ctx, s.PlayerID, amount); err != nil {
			return nil, err
		}
	}

	s.Status = StatusCashedOut
	s.Payout = amount
	if err := h.store.Save(ctx, s); err != nil {
		return nil, err
	}

	h.log.Info("cashed out", "session", s.ID, "streak", s.Streak, "payout", amount.String())
	return s, nil
}

// Get returns a session by ID.
func (h *HiLo) Get(ctx context.Context, sessionID string) (*Session, error) {
	return h.store.Get(ctx, sessionID)
}

// dealCard derives the next card from the session's committed seeds; an
// injected source (tests, external oracle) takes precedence.
func (h *HiLo) dealCard(s *Session) int {
	s.Nonce++
	var draw float64
	if h.rng != nil {
		draw = h.rng.Draw()
	} else {
		draw = engine.DrawFromSeeds(s.ServerSeed, s.ClientSeed, s.Nonce)
	}
	card := int(draw*hiloCardRanks) + 1
	if card > hiloCardRanks {
		card = hiloCardRanks
	}
	return card
}

// potential prices the current streak against the snapshot.
func (h *HiLo) potential(s *Session) decimal.Decimal {
	tier, ok := h.tierFor(s.Streak)
	if !ok {
		return decimal.Zero
	}
	o := engine.Outcome{
		ID:          fmt.Sprintf("streak_%d", tier.MinStreak),
		PoolPercent: tier.PoolPercent,
		MaxPayout:   tier.MaxPayout,
	}
	return engine.CalculatePayout(o, s.PoolSnapshot, h.ledger.Terms())
}

func (h *HiLo) tierFor(streak int) (StreakTier, bool) {
	var best StreakTier
	found := false
	for _, tier := range h.rules.Tiers {
		if tier.MinStreak <= streak {
			best = tier
			found = true
		}
	}
	return best, found
}
