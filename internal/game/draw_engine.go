package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"prizepool/internal/credits"
	"prizepool/internal/engine"
	"prizepool/internal/pool"
	"prizepool/internal/session"
)

const playRecordTTL = time.Hour

// playRecord is the settled play as archived in Redis for the history and
// verification endpoints.
type playRecord struct {
	PlayID     string          `json:"play_id"`
	PlayerID   string          `json:"player_id"`
	Game       Type            `json:"game"`
	Tier       string          `json:"tier,omitempty"`
	BetAmount  decimal.Decimal `json:"bet_amount"`
	Outcome    string          `json:"outcome"`
	Payout     decimal.Decimal `json:"payout"`
	Draw       float64         `json:"draw"`
	ServerSeed string          `json:"server_seed"`
	ClientSeed string          `json:"client_seed"`
	Nonce      int             `json:"nonce"`
	CreatedAt  time.Time       `json:"created_at"`
}

// DrawEngine runs the instant games: one committed draw resolves an outcome
// table and the payout settles in the same request. Wheel, chest and slots
// differ only in their tables; chest selects one of several tier tables per
// play.
type DrawEngine struct {
	typ         Type
	tables      map[string]*engine.Table
	defaultTier string
	bet         session.BetRules
	ledger      *pool.Ledger
	credits     credits.Store
	hub         *Hub
	rdb         *redis.Client
	log         *slog.Logger
}

// NewDrawEngine creates an instant-game engine over a set of outcome tables.
// Single-table games pass one table under defaultTier. rdb may be nil; play
// records are then not archived.
func NewDrawEngine(typ Type, tables map[string]*engine.Table, defaultTier string, bet session.BetRules,
	ledger *pool.Ledger, creditStore credits.Store, hub *Hub, rdb *redis.Client) *DrawEngine {
	return &DrawEngine{
		typ:         typ,
		tables:      tables,
		defaultTier: defaultTier,
		bet:         bet,
		ledger:      ledger,
		credits:     creditStore,
		hub:         hub,
		rdb:         rdb,
		log:         slog.Default().With("component", string(typ)),
	}
}

func (d *DrawEngine) Type() Type {
	return d.typ
}

func (d *DrawEngine) Start(ctx context.Context) error {
	return nil
}

func (d *DrawEngine) Stop() error {
	return nil
}

// State exposes the declared tables so clients can render odds and visuals.
func (d *DrawEngine) State() any {
	tables := make(map[string][]engine.Outcome, len(d.tables))
	for tier, t := range d.tables {
		tables[tier] = t.Outcomes()
	}
	return map[string]any{
		"game":   d.typ,
		"tables": tables,
	}
}

// PlaceBet resolves one play end to end: bet debit, committed draw, table
// resolution, bounded payout from the pool, credit of the win. The response
// carries the revealed seeds so the player can verify the draw immediately.
func (d *DrawEngine) PlaceBet(ctx context.Context, req any) (any, error) {
	play, ok := req.(PlayRequest)
	if !ok {
		return nil, errors.New("invalid request type")
	}

	if err := d.bet.Validate(play.Amount); err != nil {
		return PlayResponse{Success: false, Message: err.Error()}, nil
	}

	tier := play.Tier
	if tier == "" {
		tier = d.defaultTier
	}
	table, ok := d.tables[tier]
	if !ok {
		return PlayResponse{Success: false, Message: fmt.Sprintf("unknown tier %q", tier)}, nil
	}

	if _, err := d.credits.Debit(ctx, play.PlayerID, play.Amount); err != nil {
		if errors.Is(err, credits.ErrInsufficientCredits) {
			balance, _ := d.credits.Balance(ctx, play.PlayerID)
			return PlayResponse{Success: false, Message: "insufficient credits", Balance: balance}, nil
		}
		return nil, err
	}

	src := engine.NewCommittedSource(play.ClientSeed)
	draw := src.Draw()
	outcome := table.Resolve(draw)

	// Payout is computed and debited against the live balance in one
	// critical section; concurrent winners each see the balance their own
	// bound was checked against.
	payout, err := d.ledger.PayOutcome(ctx, outcome)
	if err != nil {
		d.credits.Credit(ctx, play.PlayerID, play.Amount)
		return nil, fmt.Errorf("settling %s play: %w", d.typ, err)
	}

	balance := decimal.Zero
	if payout.IsPositive() {
		if balance, err = d.credits.Credit(ctx, play.PlayerID, payout); err != nil {
			return nil, err
		}
	} else if balance, err = d.credits.Balance(ctx, play.PlayerID); err != nil {
		return nil, err
	}

	rec := playRecord{
		PlayID:     uuid.NewString(),
		PlayerID:   play.PlayerID,
		Game:       d.typ,
		Tier:       play.Tier,
		BetAmount:  play.Amount,
		Outcome:    outcome.ID,
		Payout:     payout,
		Draw:       draw,
		ServerSeed: src.ServerSeed,
		ClientSeed: src.ClientSeed,
		Nonce:      src.Nonce(),
		CreatedAt:  time.Now(),
	}
	d.archive(ctx, rec)

	if payout.IsPositive() && d.hub != nil {
		d.hub.Broadcast(WSMessage{Type: "prize_won", Data: PrizeWonMessage{
			PlayerID: play.PlayerID,
			Game:     d.typ,
			Outcome:  outcome.ID,
			Label:    outcome.Label,
			Payout:   payout,
		}})
		d.hub.Broadcast(WSMessage{Type: "pool_update", Data: PoolUpdateMessage{
			Balance: d.ledger.Balance(),
		}})
	}

	d.log.Info("play settled",
		"play", rec.PlayID, "player", play.PlayerID, "outcome", outcome.ID, "payout", payout.String())

	return PlayResponse{
		Success:    true,
		PlayID:     rec.PlayID,
		Outcome:    outcome.ID,
		Label:      outcome.Label,
		Payout:     payout,
		Balance:    balance,
		Draw:       draw,
		ServerSeed: src.ServerSeed,
		ClientSeed: src.ClientSeed,
		Commitment: src.Commitment(),
		Nonce:      src.Nonce(),
	}, nil
}

// ProcessAction supports "verify": replaying a revealed seed pair against a
// claimed draw.
func (d *DrawEngine) ProcessAction(ctx context.Context, action string, req any) (any, error) {
	switch action {
	case "verify":
		v, ok := req.(VerifyRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}
		return VerifyResponse{
			Valid:      engine.VerifyDraw(v.ServerSeed, v.ClientSeed, v.Nonce, v.Draw),
			Draw:       engine.DrawFromSeeds(v.ServerSeed, v.ClientSeed, v.Nonce),
			Commitment: engine.HashCommitment(v.ServerSeed),
		}, nil
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}

func (d *DrawEngine) archive(ctx context.Context, rec playRecord) {
	if d.rdb == nil {
		return
	}
	key := fmt.Sprintf("play:%s:%s", d.typ, rec.PlayID)
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := d.rdb.Set(ctx, key, data, playRecordTTL).Err(); err != nil {
		d.log.Warn("archiving play failed", "play", rec.PlayID, "error", err)
	}
}
