package game

import (
	"context"
	"errors"
	"fmt"

	"prizepool/internal/credits"
	"prizepool/internal/session"
)

// HiLoEngine adapts the hi-lo session machine to the Engine interface.
// PlaceBet opens a session; card play and settlement go through
// ProcessAction so the transport layer stays game-agnostic.
type HiLoEngine struct {
	hilo *session.HiLo
	hub  *Hub
}

func NewHiLoEngine(hilo *session.HiLo, hub *Hub) *HiLoEngine {
	return &HiLoEngine{hilo: hilo, hub: hub}
}

func (h *HiLoEngine) Type() Type {
	return TypeHiLo
}

func (h *HiLoEngine) Start(ctx context.Context) error {
	return nil
}

func (h *HiLoEngine) Stop() error {
	return nil
}

func (h *HiLoEngine) State() any {
	return map[string]any{"game": TypeHiLo}
}

// PlaceBet opens a session in BETTING. The commitment is in the response;
// the first card is not dealt until the confirm action.
func (h *HiLoEngine) PlaceBet(ctx context.Context, req any) (any, error) {
	bet, ok := req.(SessionBetRequest)
	if !ok {
		return nil, errors.New("invalid request type")
	}

	s, err := h.hilo.PlaceBet(ctx, bet.PlayerID, bet.ClientSeed, bet.Amount)
	if err != nil {
		if resp, handled := sessionFailure(err); handled {
			return resp, nil
		}
		return nil, err
	}
	return SessionResponse{Success: true, Session: s}, nil
}

func (h *HiLoEngine) ProcessAction(ctx context.Context, action string, req any) (any, error) {
	sr, ok := req.(SessionRequest)
	if !ok {
		return nil, errors.New("invalid request type")
	}

	switch action {
	case "confirm":
		s, err := h.hilo.Confirm(ctx, sr.SessionID)
		return h.respond(s, nil, err)

	case "guess":
		s, res, err := h.hilo.Guess(ctx, sr.SessionID, session.Guess(sr.Guess))
		return h.respond(s, &res, err)

	case "cashout":
		s, err := h.hilo.CashOut(ctx, sr.SessionID)
		resp, respErr := h.respond(s, nil, err)
		if r, ok := resp.(SessionResponse); ok && r.Success && h.hub != nil && s.Payout.IsPositive() {
			h.hub.Broadcast(WSMessage{Type: "prize_won", Data: PrizeWonMessage{
				PlayerID: s.PlayerID,
				Game:     TypeHiLo,
				Outcome:  fmt.Sprintf("streak_%d", s.Streak),
				Label:    fmt.Sprintf("Streak of %d", s.Streak),
				Payout:   s.Payout,
			}})
		}
		return resp, respErr

	case "state":
		s, err := h.hilo.Get(ctx, sr.SessionID)
		return h.respond(s, nil, err)

	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}

func (h *HiLoEngine) respond(s *session.Session, card *session.GuessResult, err error) (any, error) {
	if err != nil {
		if resp, handled := sessionFailure(err); handled {
			resp.Session = s
			resp.Card = card
			return resp, nil
		}
		return nil, err
	}
	return SessionResponse{Success: true, Session: s, Card: card}, nil
}

// sessionFailure maps the expected play-flow errors to a user-facing
// response; anything else stays an error for the transport to 500 on.
func sessionFailure(err error) (SessionResponse, bool) {
	for _, known := range []error{
		credits.ErrInsufficientCredits,
		session.ErrInvalidBet,
		session.ErrPendingSession,
		session.ErrSessionNotFound,
		session.ErrNotActive,
		session.ErrCrashed,
		session.ErrSettlementFailed,
	} {
		if errors.Is(err, known) {
			return SessionResponse{Success: false, Message: err.Error()}, true
		}
	}
	return SessionResponse{}, false
}
