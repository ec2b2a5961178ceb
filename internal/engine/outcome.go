package engine

import (
	"github.com/shopspring/decimal"
)

// ProbabilityEpsilon is the tolerance on the probability sum of a table.
const ProbabilityEpsilon = 1e-9

// Outcome is one prize tier. Probability carries the true odds; Weight is
// presentation-only (e.g. the visual sector size on a wheel) and is never
// consulted during resolution. The two are deliberately independent so a
// designer can reflow the visuals without touching the odds.
type Outcome struct {
	ID          string
	Label       string
	Probability float64
	Weight      int
	PoolPercent float64
	MaxPayout   decimal.Decimal // hard absolute cap; zero or negative means uncapped
	Rank        int
}

// NoWin reports whether this outcome pays nothing.
func (o Outcome) NoWin() bool {
	return o.PoolPercent <= 0
}

// Table is an ordered, immutable sequence of outcomes. Ordering is part of
// the contract: resolution walks the declared order, so reordering changes
// which outcome wins at floating-point boundaries.
type Table struct {
	name     string
	outcomes []Outcome
	noWin    int
}

// NewTable validates and freezes an outcome table. It fails if the table is
// empty, any probability is outside [0,1], the probabilities do not sum to
// 1 +- ProbabilityEpsilon, or no no-win outcome (PoolPercent 0) exists.
func NewTable(name string, outcomes []Outcome) (*Table, error) {
	if len(outcomes) == 0 {
		return nil, ErrEmptyTable
	}

	sum := 0.0
	noWin := -1
	for i, o := range outcomes {
		if o.Probability < 0 || o.Probability > 1 {
			return nil, &OutcomeError{Table: name, Outcome: o.ID, Reason: "probability outside [0,1]"}
		}
		if o.PoolPercent < 0 || o.PoolPercent > 1 {
			return nil, &OutcomeError{Table: name, Outcome: o.ID, Reason: "pool percent outside [0,1]"}
		}
		sum += o.Probability
		if noWin == -1 && o.NoWin() {
			noWin = i
		}
	}

	if sum < 1-ProbabilityEpsilon || sum > 1+ProbabilityEpsilon {
		return nil, &ProbabilitySumError{Table: name, Sum: sum}
	}
	if noWin == -1 {
		return nil, ErrNoWinMissing
	}

	frozen := make([]Outcome, len(outcomes))
	copy(frozen, outcomes)

	return &Table{name: name, outcomes: frozen, noWin: noWin}, nil
}

// MustTable is NewTable for static configuration known good at compile time.
func MustTable(name string, outcomes []Outcome) *Table {
	t, err := NewTable(name, outcomes)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Name() string {
	return t.name
}

// Outcomes returns a copy of the declared outcomes in order.
func (t *Table) Outcomes() []Outcome {
	out := make([]Outcome, len(t.outcomes))
	copy(out, t.outcomes)
	return out
}

// NoWin returns the designated no-win outcome.
func (t *Table) NoWin() Outcome {
	return t.outcomes[t.noWin]
}

// Resolve maps a uniform draw in [0,1) to exactly one outcome by cumulative
// probability search in declared order. If rounding drift leaves the draw
// unconsumed after the full pass, the designated no-win outcome is returned:
// tables are human-authored and a table summing to 0.999999999 must degrade
// to "no win", not crash.
func (t *Table) Resolve(draw float64) Outcome {
	cumulative := 0.0
	for _, o := range t.outcomes {
		cumulative += o.Probability
		if draw < cumulative {
			return o
		}
	}
	return t.outcomes[t.noWin]
}
