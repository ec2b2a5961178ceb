package session

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBetRules_Validate(t *testing.T) {
	tests := []struct {
		name   string
		rules  BetRules
		amount decimal.Decimal
		wantOK bool
	}{
		{
			name:   "zero amount",
			rules:  BetRules{},
			amount: decimal.Zero,
			wantOK: false,
		},
		{
			name:   "negative amount",
			rules:  BetRules{},
			amount: decimal.NewFromInt(-5),
			wantOK: false,
		},
		{
			name:   "below minimum",
			rules:  BetRules{MinBet: decimal.NewFromInt(10)},
			amount: decimal.NewFromInt(9),
			wantOK: false,
		},
		{
			name:   "at minimum",
			rules:  BetRules{MinBet: decimal.NewFromInt(10)},
			amount: decimal.NewFromInt(10),
			wantOK: true,
		},
		{
			name:   "above maximum",
			rules:  BetRules{MaxBet: decimal.NewFromInt(100)},
			amount: decimal.NewFromInt(101),
			wantOK: false,
		},
		{
			name: "in step list",
			rules: BetRules{Steps: []decimal.Decimal{
				decimal.NewFromInt(10), decimal.NewFromInt(50), decimal.NewFromInt(100),
			}},
			amount: decimal.NewFromInt(50),
			wantOK: true,
		},
		{
			name: "between steps",
			rules: BetRules{Steps: []decimal.Decimal{
				decimal.NewFromInt(10), decimal.NewFromInt(50), decimal.NewFromInt(100),
			}},
			amount: decimal.NewFromInt(30),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rules.Validate(tt.amount)
			if tt.wantOK && err != nil {
				t.Errorf("Validate(%v) = %v, want nil", tt.amount, err)
			}
			if !tt.wantOK && !errors.Is(err, ErrInvalidBet) {
				t.Errorf("Validate(%v) = %v, want ErrInvalidBet", tt.amount, err)
			}
		})
	}
}

func TestMemoryStore_Sessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	t.Run("missing session", func(t *testing.T) {
		_, err := store.Get(ctx, "nope")
		if !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("err = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("save and load round trip", func(t *testing.T) {
		s := &Session{ID: "s1", PlayerID: "p1", Game: "hilo", Status: StatusActive, Streak: 3}
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := store.Get(ctx, "s1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Streak != 3 || got.Status != StatusActive {
			t.Errorf("loaded %+v, want streak 3 ACTIVE", got)
		}

		// The loaded copy is detached from the stored record.
		got.Streak = 99
		again, _ := store.Get(ctx, "s1")
		if again.Streak != 3 {
			t.Error("mutating a loaded session leaked into the store")
		}
	})
}

func TestSession_Terminal(t *testing.T) {
	for _, tt := range []struct {
		status Status
		want   bool
	}{
		{StatusBetting, false},
		{StatusActive, false},
		{StatusCashedOut, true},
		{StatusLost, true},
		{StatusSettlementFailed, true},
	} {
		s := &Session{Status: tt.status}
		if got := s.Terminal(); got != tt.want {
			t.Errorf("Terminal() for %s = %v, want %v", tt.status, got, tt.want)
		}
	}
}
