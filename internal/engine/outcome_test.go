package engine

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func bronzeChestTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable("chest_bronze", []Outcome{
		{ID: "medium", Probability: 0.02, PoolPercent: 0.02, MaxPayout: decimal.NewFromFloat(0.2), Rank: 2},
		{ID: "small_win", Probability: 0.03, PoolPercent: 0.01, MaxPayout: decimal.NewFromFloat(0.1), Rank: 1},
		{ID: "no_win", Probability: 0.95, PoolPercent: 0, Rank: 0},
	})
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	return table
}

func TestNewTable_Validation(t *testing.T) {
	t.Run("rejects empty table", func(t *testing.T) {
		_, err := NewTable("empty", nil)
		if !errors.Is(err, ErrEmptyTable) {
			t.Errorf("err = %v, want ErrEmptyTable", err)
		}
	})

	t.Run("rejects sum below one", func(t *testing.T) {
		_, err := NewTable("short", []Outcome{
			{ID: "win", Probability: 0.099999, PoolPercent: 0.1},
			{ID: "no_win", Probability: 0.9, PoolPercent: 0},
		})
		var sumErr *ProbabilitySumError
		if !errors.As(err, &sumErr) {
			t.Fatalf("err = %v, want ProbabilitySumError", err)
		}
	})

	t.Run("rejects sum of 1.3", func(t *testing.T) {
		_, err := NewTable("long", []Outcome{
			{ID: "win", Probability: 0.4, PoolPercent: 0.1},
			{ID: "no_win", Probability: 0.9, PoolPercent: 0},
		})
		var sumErr *ProbabilitySumError
		if !errors.As(err, &sumErr) {
			t.Fatalf("err = %v, want ProbabilitySumError", err)
		}
		if sumErr.Sum != 1.3 {
			t.Errorf("reported sum = %v, want 1.3", sumErr.Sum)
		}
	})

	t.Run("accepts drift within epsilon", func(t *testing.T) {
		_, err := NewTable("drift", []Outcome{
			{ID: "win", Probability: 0.1 - 1e-10, PoolPercent: 0.1},
			{ID: "no_win", Probability: 0.9, PoolPercent: 0},
		})
		if err != nil {
			t.Errorf("sub-epsilon drift rejected: %v", err)
		}
	})

	t.Run("rejects table without no-win outcome", func(t *testing.T) {
		_, err := NewTable("all_wins", []Outcome{
			{ID: "a", Probability: 0.5, PoolPercent: 0.1},
			{ID: "b", Probability: 0.5, PoolPercent: 0.2},
		})
		if !errors.Is(err, ErrNoWinMissing) {
			t.Errorf("err = %v, want ErrNoWinMissing", err)
		}
	})

	t.Run("rejects probability outside range", func(t *testing.T) {
		_, err := NewTable("bad", []Outcome{
			{ID: "a", Probability: -0.1, PoolPercent: 0.1},
			{ID: "no_win", Probability: 1.1, PoolPercent: 0},
		})
		var outErr *OutcomeError
		if !errors.As(err, &outErr) {
			t.Errorf("err = %v, want OutcomeError", err)
		}
	})
}

func TestTable_Resolve(t *testing.T) {
	table := bronzeChestTable(t)

	t.Run("deterministic for fixed draw", func(t *testing.T) {
		for _, draw := range []float64{0.0, 0.5, 0.999999} {
			first := table.Resolve(draw)
			for i := 0; i < 10; i++ {
				if got := table.Resolve(draw); got.ID != first.ID {
					t.Fatalf("Resolve(%v) flapped: %q then %q", draw, first.ID, got.ID)
				}
			}
		}
	})

	t.Run("draw zero hits first outcome", func(t *testing.T) {
		if got := table.Resolve(0.0); got.ID != "medium" {
			t.Errorf("Resolve(0) = %q, want medium", got.ID)
		}
	})

	t.Run("draw near one hits last outcome", func(t *testing.T) {
		if got := table.Resolve(0.999999); got.ID != "no_win" {
			t.Errorf("Resolve(0.999999) = %q, want no_win", got.ID)
		}
	})

	t.Run("draw exactly at cumulative boundary", func(t *testing.T) {
		// Cumulative: medium [0, 0.02), small_win [0.02, 0.05), no_win [0.05, 1).
		// A draw equal to a boundary belongs to the next outcome.
		if got := table.Resolve(0.02); got.ID != "small_win" {
			t.Errorf("Resolve(0.02) = %q, want small_win", got.ID)
		}
		if got := table.Resolve(0.05); got.ID != "no_win" {
			t.Errorf("Resolve(0.05) = %q, want no_win", got.ID)
		}
	})

	t.Run("chest bronze draw 0.04 is small_win", func(t *testing.T) {
		// medium covers 0-2%, small_win 2-5%; 4% lands in small_win.
		if got := table.Resolve(0.04); got.ID != "small_win" {
			t.Errorf("Resolve(0.04) = %q, want small_win", got.ID)
		}
	})

	t.Run("drift fallback returns no-win", func(t *testing.T) {
		// Sum is 1 - 1e-10: legal at construction, and a draw beyond the
		// cumulative mass must degrade to no-win, never panic.
		drifted, err := NewTable("drift", []Outcome{
			{ID: "win", Probability: 0.1 - 1e-10, PoolPercent: 0.1},
			{ID: "no_win", Probability: 0.9, PoolPercent: 0},
		})
		if err != nil {
			t.Fatalf("building table: %v", err)
		}
		if got := drifted.Resolve(0.9999999999999999); got.ID != "no_win" {
			t.Errorf("fallback = %q, want no_win", got.ID)
		}
	})

	t.Run("presentation weight never affects resolution", func(t *testing.T) {
		// Same probabilities, wildly different visual weights.
		reweighted, err := NewTable("reweighted", []Outcome{
			{ID: "medium", Probability: 0.02, Weight: 300, PoolPercent: 0.02},
			{ID: "small_win", Probability: 0.03, Weight: 5, PoolPercent: 0.01},
			{ID: "no_win", Probability: 0.95, Weight: 55, PoolPercent: 0},
		})
		if err != nil {
			t.Fatalf("building table: %v", err)
		}
		for _, draw := range []float64{0.0, 0.01, 0.04, 0.5, 0.99} {
			if a, b := table.Resolve(draw), reweighted.Resolve(draw); a.ID != b.ID {
				t.Errorf("draw %v: %q vs %q after reweighting", draw, a.ID, b.ID)
			}
		}
	})
}

func TestTable_Immutable(t *testing.T) {
	outcomes := []Outcome{
		{ID: "win", Probability: 0.1, PoolPercent: 0.1},
		{ID: "no_win", Probability: 0.9, PoolPercent: 0},
	}
	table, err := NewTable("frozen", outcomes)
	if err != nil {
		t.Fatalf("building table: %v", err)
	}

	// Mutating the input slice or a returned copy must not leak in.
	outcomes[0].Probability = 0.9
	got := table.Outcomes()
	got[0].Probability = 0.5

	if table.Outcomes()[0].Probability != 0.1 {
		t.Error("table outcomes mutated after construction")
	}
}

func TestTable_NoWin(t *testing.T) {
	table := bronzeChestTable(t)
	if got := table.NoWin(); got.ID != "no_win" {
		t.Errorf("NoWin() = %q, want no_win", got.ID)
	}
	if !table.NoWin().NoWin() {
		t.Error("designated no-win outcome should report NoWin()")
	}
}
