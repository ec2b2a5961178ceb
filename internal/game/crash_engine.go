package game

import (
	"context"
	"errors"
	"fmt"

	"prizepool/internal/session"
)

// CrashEngine adapts the crash session machine to the Engine interface.
type CrashEngine struct {
	crash *session.Crash
	hub   *Hub
}

func NewCrashEngine(crash *session.Crash, hub *Hub) *CrashEngine {
	return &CrashEngine{crash: crash, hub: hub}
}

func (c *CrashEngine) Type() Type {
	return TypeCrash
}

func (c *CrashEngine) Start(ctx context.Context) error {
	return nil
}

func (c *CrashEngine) Stop() error {
	return nil
}

func (c *CrashEngine) State() any {
	return map[string]any{"game": TypeCrash}
}

// PlaceBet opens a session with the crash point already drawn and hidden
// behind the commitment.
func (c *CrashEngine) PlaceBet(ctx context.Context, req any) (any, error) {
	bet, ok := req.(SessionBetRequest)
	if !ok {
		return nil, errors.New("invalid request type")
	}

	s, err := c.crash.PlaceBet(ctx, bet.PlayerID, bet.ClientSeed, bet.Amount)
	if err != nil {
		if resp, handled := sessionFailure(err); handled {
			return resp, nil
		}
		return nil, err
	}
	return SessionResponse{Success: true, Session: s}, nil
}

func (c *CrashEngine) ProcessAction(ctx context.Context, action string, req any) (any, error) {
	sr, ok := req.(SessionRequest)
	if !ok {
		return nil, errors.New("invalid request type")
	}

	switch action {
	case "confirm":
		s, err := c.crash.Confirm(ctx, sr.SessionID)
		if err != nil {
			if resp, handled := sessionFailure(err); handled {
				return resp, nil
			}
			return nil, err
		}
		return SessionResponse{Success: true, Session: s}, nil

	case "multiplier":
		m, crashed, err := c.crash.Multiplier(ctx, sr.SessionID)
		if err != nil && !errors.Is(err, session.ErrNotActive) {
			if resp, handled := sessionFailure(err); handled {
				return resp, nil
			}
			return nil, err
		}
		return SessionResponse{Success: err == nil, Multiplier: m, Crashed: crashed}, nil

	case "cashout":
		s, m, err := c.crash.CashOut(ctx, sr.SessionID)
		if err != nil {
			if resp, handled := sessionFailure(err); handled {
				resp.Session = s
				resp.Multiplier = m
				resp.Crashed = errors.Is(err, session.ErrCrashed)
				return resp, nil
			}
			return nil, err
		}
		if c.hub != nil && s.Payout.IsPositive() {
			c.hub.Broadcast(WSMessage{Type: "prize_won", Data: PrizeWonMessage{
				PlayerID: s.PlayerID,
				Game:     TypeCrash,
				Outcome:  "cashout",
				Label:    fmt.Sprintf("%.2fx", m),
				Payout:   s.Payout,
			}})
		}
		return SessionResponse{Success: true, Session: s, Multiplier: m}, nil

	case "state":
		s, err := c.crash.Get(ctx, sr.SessionID)
		if err != nil {
			if resp, handled := sessionFailure(err); handled {
				return resp, nil
			}
			return nil, err
		}
		return SessionResponse{Success: true, Session: s}, nil

	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}
