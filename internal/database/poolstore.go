package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PoolStore persists the prize pool balance and the settlement audit trail.
// The ledger row is a singleton; every balance change overwrites it, and the
// in-memory ledger serializes writers, so no row locking is needed here.
type PoolStore struct {
	pool *pgxpool.Pool
}

func NewPoolStore(pool *pgxpool.Pool) *PoolStore {
	return &PoolStore{pool: pool}
}

func (s *PoolStore) Load(ctx context.Context) (decimal.Decimal, bool, error) {
	var raw string
	err := s.pool.QueryRow(ctx,
		`SELECT balance::text FROM pool_ledger WHERE id = 1`,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("loading pool balance: %w", err)
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parsing pool balance %q: %w", raw, err)
	}
	return balance, true, nil
}

func (s *PoolStore) Save(ctx context.Context, balance decimal.Decimal) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO pool_ledger (id, balance, updated_at)
		 VALUES (1, $1, now())
		 ON CONFLICT (id) DO UPDATE SET balance = $1, updated_at = now()`,
		balance.String(),
	)
	if err != nil {
		return fmt.Errorf("saving pool balance: %w", err)
	}
	return nil
}

// Settlement is one audited payout event, including failed ones.
type Settlement struct {
	ID        string
	PlayerID  string
	Game      string
	Outcome   string
	Amount    decimal.Decimal
	Status    string
	CreatedAt time.Time
}

const (
	SettlementPaid   = "paid"
	SettlementFailed = "failed"
)

// RecordSettlement appends to the audit trail. Failures here are logged by
// the caller, never allowed to undo an already-settled payout.
func (s *PoolStore) RecordSettlement(ctx context.Context, st Settlement) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO settlements (id, player_id, game, outcome, amount, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		st.ID, st.PlayerID, st.Game, st.Outcome, st.Amount.String(), st.Status,
	)
	if err != nil {
		return fmt.Errorf("recording settlement: %w", err)
	}
	return nil
}

// RecentSettlements returns the newest settlements for the operator view.
func (s *PoolStore) RecentSettlements(ctx context.Context, limit int) ([]Settlement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, player_id, game, outcome, amount::text, status, created_at
		 FROM settlements ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing settlements: %w", err)
	}
	defer rows.Close()

	var out []Settlement
	for rows.Next() {
		var st Settlement
		var raw string
		if err := rows.Scan(&st.ID, &st.PlayerID, &st.Game, &st.Outcome, &raw, &st.Status, &st.CreatedAt); err != nil {
			return nil, err
		}
		if st.Amount, err = decimal.NewFromString(raw); err != nil {
			return nil, fmt.Errorf("parsing settlement amount %q: %w", raw, err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
