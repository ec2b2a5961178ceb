package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrOracleTimeout means the randomness oracle never delivered a draw.
	// Surfaced to the caller for manual cancel/refund, never auto-retried.
	ErrOracleTimeout = errors.New("randomness oracle timed out")

	// ErrNoWinMissing means a table was built without a designated no-win
	// outcome to absorb floating-point drift.
	ErrNoWinMissing = errors.New("outcome table has no no-win outcome")

	// ErrEmptyTable means a table was built with no outcomes at all.
	ErrEmptyTable = errors.New("outcome table is empty")
)

// ProbabilitySumError is raised at table construction when the declared
// probabilities do not sum to 1 within tolerance. Human-authored tables are
// rejected up front so resolution never has to guess.
type ProbabilitySumError struct {
	Table string
	Sum   float64
}

func (e *ProbabilitySumError) Error() string {
	return fmt.Sprintf("outcome table %q probabilities sum to %.12f, want 1", e.Table, e.Sum)
}

// OutcomeError reports a malformed outcome inside a table under construction.
type OutcomeError struct {
	Table   string
	Outcome string
	Reason  string
}

func (e *OutcomeError) Error() string {
	return fmt.Sprintf("outcome table %q: outcome %q: %s", e.Table, e.Outcome, e.Reason)
}
