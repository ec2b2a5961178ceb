package session

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a play session.
//
//	Idle -> Betting -> Active -> CashedOut | Lost
//
// Idle is implicit (no session exists). SettlementFailed is a parked terminal
// state: the win was computed but the live pool could not cover it, and the
// operator reconciles manually.
type Status string

const (
	StatusBetting          Status = "BETTING"
	StatusActive           Status = "ACTIVE"
	StatusCashedOut        Status = "CASHED_OUT"
	StatusLost             Status = "LOST"
	StatusSettlementFailed Status = "SETTLEMENT_FAILED"
)

var (
	// ErrInvalidBet means the amount is below minimum, above maximum, or
	// not in the configured step list.
	ErrInvalidBet = errors.New("invalid bet amount")

	// ErrPendingSession means the player already has a live session; one
	// at a time per player.
	ErrPendingSession = errors.New("player already has an active session")

	ErrSessionNotFound = errors.New("session not found")

	// ErrNotActive means the requested transition is illegal for the
	// session's current status.
	ErrNotActive = errors.New("session is not active")

	// ErrCrashed means the multiplier passed the crash point before the
	// cash-out arrived; the bet is forfeited.
	ErrCrashed = errors.New("crashed before cash-out")

	// ErrSettlementFailed wraps a cash-out whose computed payout the live
	// pool could not cover. Distinct from "you won 0" on every surface.
	ErrSettlementFailed = errors.New("cash-out settlement failed")
)

// Session is the per-player ephemeral state of a streak game. The pool
// snapshot is captured once, when the session activates, and all reward math
// for the session's lifetime runs against it so concurrent pool movement by
// other players cannot grief or inflate a running session.
type Session struct {
	ID        string          `json:"session_id"`
	PlayerID  string          `json:"player_id"`
	Game      string          `json:"game"`
	BetAmount decimal.Decimal `json:"bet_amount"`

	Streak      int `json:"streak"`
	CurrentCard int `json:"current_card,omitempty"`

	CrashPoint float64   `json:"-"` // hidden until the session ends
	StartedAt  time.Time `json:"started_at,omitempty"`

	PoolSnapshot    decimal.Decimal `json:"pool_snapshot"`
	PotentialPayout decimal.Decimal `json:"potential_payout"`
	Payout          decimal.Decimal `json:"payout"`

	ServerSeed string `json:"-"` // revealed in the response once terminal
	Commitment string `json:"commitment"`
	ClientSeed string `json:"client_seed"`
	Nonce      int    `json:"nonce"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
}

// Terminal reports whether the session can take no further transitions.
func (s *Session) Terminal() bool {
	switch s.Status {
	case StatusCashedOut, StatusLost, StatusSettlementFailed:
		return true
	}
	return false
}

// BetRules validates bet amounts. An empty step list accepts any amount in
// [MinBet, MaxBet]; a non-empty list accepts only its members.
type BetRules struct {
	MinBet decimal.Decimal
	MaxBet decimal.Decimal
	Steps  []decimal.Decimal
}

func (r BetRules) Validate(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidBet
	}
	if r.MinBet.IsPositive() && amount.LessThan(r.MinBet) {
		return ErrInvalidBet
	}
	if r.MaxBet.IsPositive() && amount.GreaterThan(r.MaxBet) {
		return ErrInvalidBet
	}
	if len(r.Steps) > 0 {
		for _, step := range r.Steps {
			if amount.Equal(step) {
				return nil
			}
		}
		return ErrInvalidBet
	}
	return nil
}
