package engine

import (
	"github.com/shopspring/decimal"
)

// DefaultScale is the exponent of the smallest payable denomination
// (1e-8, the smallest on-chain unit the pool settles in).
const DefaultScale int32 = 8

// Terms are the pool-level payout constraints applied to every win.
type Terms struct {
	// ReservePercent is the fraction of the balance permanently excluded
	// from payout calculation.
	ReservePercent decimal.Decimal
	// MaxSinglePayoutPercent caps any one payout as a fraction of the
	// current balance, so a single win cannot drain the pool.
	MaxSinglePayoutPercent decimal.Decimal
	// Scale is the exponent of the smallest denomination; the final amount
	// is floored to it so rounding can never overdraw the pool.
	Scale int32
}

// DefaultTerms returns the standard 10% reserve / 50% max-single terms.
func DefaultTerms() Terms {
	return Terms{
		ReservePercent:         decimal.NewFromFloat(0.10),
		MaxSinglePayoutPercent: decimal.NewFromFloat(0.50),
		Scale:                  DefaultScale,
	}
}

// Available returns the part of balance payouts may be computed from.
func (t Terms) Available(balance decimal.Decimal) decimal.Decimal {
	return balance.Mul(decimal.NewFromInt(1).Sub(t.ReservePercent))
}

// CalculatePayout converts a resolved outcome into a bounded amount against
// the given pool balance:
//
//	available = balance * (1 - reserve)
//	base      = available * outcome.PoolPercent
//	capped    = min(base, outcome.MaxPayout)
//	final     = min(capped, balance * maxSinglePayout), floored to Scale
//
// The result is always >= 0 and <= balance. Pure: callers decide which
// balance (live or session snapshot) the amount is computed from.
func CalculatePayout(o Outcome, balance decimal.Decimal, terms Terms) decimal.Decimal {
	if o.NoWin() || balance.Sign() <= 0 {
		return decimal.Zero
	}

	base := terms.Available(balance).Mul(decimal.NewFromFloat(o.PoolPercent))

	capped := base
	if o.MaxPayout.IsPositive() && capped.GreaterThan(o.MaxPayout) {
		capped = o.MaxPayout
	}

	return clamp(capped, balance, terms)
}

// ClampPayout bounds an externally computed raw amount (e.g. bet * crash
// multiplier) by the same reserve and max-single constraints.
func ClampPayout(raw, balance decimal.Decimal, terms Terms) decimal.Decimal {
	if raw.Sign() <= 0 || balance.Sign() <= 0 {
		return decimal.Zero
	}
	capped := raw
	if available := terms.Available(balance); capped.GreaterThan(available) {
		capped = available
	}
	return clamp(capped, balance, terms)
}

func clamp(amount, balance decimal.Decimal, terms Terms) decimal.Decimal {
	maxSingle := balance.Mul(terms.MaxSinglePayoutPercent)
	if amount.GreaterThan(maxSingle) {
		amount = maxSingle
	}

	scale := terms.Scale
	if scale == 0 {
		scale = DefaultScale
	}
	// Floor, never round up: the pool must not go negative on rounding.
	amount = amount.RoundDown(scale)

	if amount.Sign() < 0 {
		return decimal.Zero
	}
	return amount
}
