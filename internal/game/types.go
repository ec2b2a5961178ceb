package game

import (
	"github.com/shopspring/decimal"

	"prizepool/internal/session"
)

// PlayRequest is one instant play: wheel spin, chest open, slots pull. Tier
// selects the chest table and is ignored by the single-table games.
type PlayRequest struct {
	PlayerID   string          `json:"player_id"`
	Tier       string          `json:"tier,omitempty"`
	ClientSeed string          `json:"client_seed,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
}

// PlayResponse reports the resolved outcome together with the full fairness
// proof. Instant games reveal the server seed immediately; there is nothing
// left to hide once the play settled.
type PlayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	PlayID  string `json:"play_id,omitempty"`

	Outcome string          `json:"outcome,omitempty"`
	Label   string          `json:"label,omitempty"`
	Payout  decimal.Decimal `json:"payout"`
	Balance decimal.Decimal `json:"balance"`

	Draw       float64 `json:"draw,omitempty"`
	ServerSeed string  `json:"server_seed,omitempty"`
	ClientSeed string  `json:"client_seed,omitempty"`
	Commitment string  `json:"commitment,omitempty"`
	Nonce      int     `json:"nonce,omitempty"`
}

// VerifyRequest lets a player re-check a settled play against its revealed
// seeds.
type VerifyRequest struct {
	ServerSeed string  `json:"server_seed"`
	ClientSeed string  `json:"client_seed"`
	Nonce      int     `json:"nonce"`
	Draw       float64 `json:"draw"`
}

type VerifyResponse struct {
	Valid      bool    `json:"valid"`
	Draw       float64 `json:"draw"`
	Commitment string  `json:"commitment"`
}

// SessionBetRequest opens a hi-lo or crash session.
type SessionBetRequest struct {
	PlayerID   string          `json:"player_id"`
	ClientSeed string          `json:"client_seed,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
}

// SessionRequest addresses an already open session.
type SessionRequest struct {
	SessionID string `json:"session_id"`
	Guess     string `json:"guess,omitempty"`
}

// SessionResponse is the common session view. Multiplier and Card are only
// set by the game that uses them.
type SessionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`

	Session    *session.Session     `json:"session,omitempty"`
	Card       *session.GuessResult `json:"card,omitempty"`
	Multiplier float64              `json:"multiplier,omitempty"`
	Crashed    bool                 `json:"crashed,omitempty"`
}

// WSMessage is the broadcast envelope.
type WSMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// PrizeWonMessage announces a settled win to every connected client.
type PrizeWonMessage struct {
	PlayerID string          `json:"player_id"`
	Game     Type            `json:"game"`
	Outcome  string          `json:"outcome"`
	Label    string          `json:"label"`
	Payout   decimal.Decimal `json:"payout"`
}

// PoolUpdateMessage publishes the pool balance after every settlement.
type PoolUpdateMessage struct {
	Balance decimal.Decimal `json:"balance"`
}
