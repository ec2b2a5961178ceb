package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"prizepool/internal/engine"
	"prizepool/internal/session"
)

// Config is the static game configuration: pool terms, outcome tables, bet
// rules. Loaded once at startup; tables are never hot-reloaded mid-play.
type Config struct {
	Pool  PoolConfig  `yaml:"pool"`
	Games GamesConfig `yaml:"games"`
}

type PoolConfig struct {
	OpeningBalance         string  `yaml:"opening_balance"`
	ReservePercent         float64 `yaml:"reserve_percent"`
	MaxSinglePayoutPercent float64 `yaml:"max_single_payout_percent"`
}

type GamesConfig struct {
	Wheel DrawGameConfig `yaml:"wheel"`
	Chest ChestConfig    `yaml:"chest"`
	Slots DrawGameConfig `yaml:"slots"`
	HiLo  HiLoConfig     `yaml:"hilo"`
	Crash CrashConfig    `yaml:"crash"`
}

type DrawGameConfig struct {
	Bet      BetConfig       `yaml:"bet"`
	Outcomes []OutcomeConfig `yaml:"outcomes"`
}

type ChestConfig struct {
	Bet   BetConfig                  `yaml:"bet"`
	Tiers map[string][]OutcomeConfig `yaml:"tiers"`
}

type HiLoConfig struct {
	Bet   BetConfig          `yaml:"bet"`
	Tiers []StreakTierConfig `yaml:"tiers"`
}

type CrashConfig struct {
	Bet   BetConfig `yaml:"bet"`
	Speed float64   `yaml:"speed"`
}

type BetConfig struct {
	Min   string   `yaml:"min"`
	Max   string   `yaml:"max"`
	Steps []string `yaml:"steps"`
}

// OutcomeConfig mirrors engine.Outcome. Probability carries the odds; Weight
// is the visual share (wheel sector angle, chest art slot) and is free to
// disagree with the odds.
type OutcomeConfig struct {
	ID          string  `yaml:"id"`
	Label       string  `yaml:"label"`
	Probability float64 `yaml:"probability"`
	Weight      int     `yaml:"weight"`
	PoolPercent float64 `yaml:"pool_percent"`
	MaxPayout   string  `yaml:"max_payout"`
	Rank        int     `yaml:"rank"`
}

type StreakTierConfig struct {
	MinStreak   int     `yaml:"min_streak"`
	PoolPercent float64 `yaml:"pool_percent"`
	MaxPayout   string  `yaml:"max_payout"`
}

// Load reads a YAML config file. Missing sections fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Bundle is the validated, ready-to-wire product of a Config. Table
// construction errors (probability sums, missing no-win) surface here, at
// startup, never at resolution time.
type Bundle struct {
	OpeningBalance decimal.Decimal
	Terms          engine.Terms

	WheelTable  *engine.Table
	WheelBet    session.BetRules
	ChestTables map[string]*engine.Table
	ChestBet    session.BetRules
	SlotsTable  *engine.Table
	SlotsBet    session.BetRules

	HiLo  session.HiLoRules
	Crash session.CrashRules
}

// Build validates the whole configuration and assembles engine values.
func (c *Config) Build() (*Bundle, error) {
	opening, err := parseAmount(c.Pool.OpeningBalance, "pool.opening_balance")
	if err != nil {
		return nil, err
	}

	// A reserve above 1 silently zeroes every payout; catch it here with the
	// same startup-time failure the tables get.
	if c.Pool.ReservePercent < 0 || c.Pool.ReservePercent > 1 {
		return nil, fmt.Errorf("pool.reserve_percent: %v is outside [0, 1]", c.Pool.ReservePercent)
	}
	if c.Pool.MaxSinglePayoutPercent < 0 || c.Pool.MaxSinglePayoutPercent > 1 {
		return nil, fmt.Errorf("pool.max_single_payout_percent: %v is outside [0, 1]", c.Pool.MaxSinglePayoutPercent)
	}

	b := &Bundle{
		OpeningBalance: opening,
		Terms: engine.Terms{
			ReservePercent:         decimal.NewFromFloat(c.Pool.ReservePercent),
			MaxSinglePayoutPercent: decimal.NewFromFloat(c.Pool.MaxSinglePayoutPercent),
			Scale:                  engine.DefaultScale,
		},
		ChestTables: make(map[string]*engine.Table),
	}

	if b.WheelTable, err = buildTable("wheel", c.Games.Wheel.Outcomes); err != nil {
		return nil, err
	}
	if b.WheelBet, err = buildBetRules(c.Games.Wheel.Bet, "games.wheel.bet"); err != nil {
		return nil, err
	}

	for tier, outcomes := range c.Games.Chest.Tiers {
		table, err := buildTable("chest_"+tier, outcomes)
		if err != nil {
			return nil, err
		}
		b.ChestTables[tier] = table
	}
	if b.ChestBet, err = buildBetRules(c.Games.Chest.Bet, "games.chest.bet"); err != nil {
		return nil, err
	}

	if b.SlotsTable, err = buildTable("slots", c.Games.Slots.Outcomes); err != nil {
		return nil, err
	}
	if b.SlotsBet, err = buildBetRules(c.Games.Slots.Bet, "games.slots.bet"); err != nil {
		return nil, err
	}

	hiloBet, err := buildBetRules(c.Games.HiLo.Bet, "games.hilo.bet")
	if err != nil {
		return nil, err
	}
	tiers := make([]session.StreakTier, 0, len(c.Games.HiLo.Tiers))
	for _, tc := range c.Games.HiLo.Tiers {
		maxPay, err := parseAmount(tc.MaxPayout, "games.hilo.tiers.max_payout")
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, session.StreakTier{
			MinStreak:   tc.MinStreak,
			PoolPercent: tc.PoolPercent,
			MaxPayout:   maxPay,
		})
	}
	b.HiLo = session.HiLoRules{Bet: hiloBet, Tiers: tiers}

	crashBet, err := buildBetRules(c.Games.Crash.Bet, "games.crash.bet")
	if err != nil {
		return nil, err
	}
	b.Crash = session.CrashRules{Bet: crashBet, Speed: c.Games.Crash.Speed}

	return b, nil
}

func buildTable(name string, outcomes []OutcomeConfig) (*engine.Table, error) {
	built := make([]engine.Outcome, 0, len(outcomes))
	for _, oc := range outcomes {
		maxPay := decimal.Zero
		if oc.MaxPayout != "" {
			var err error
			if maxPay, err = parseAmount(oc.MaxPayout, name+".max_payout"); err != nil {
				return nil, err
			}
		}
		built = append(built, engine.Outcome{
			ID:          oc.ID,
			Label:       oc.Label,
			Probability: oc.Probability,
			Weight:      oc.Weight,
			PoolPercent: oc.PoolPercent,
			MaxPayout:   maxPay,
			Rank:        oc.Rank,
		})
	}
	return engine.NewTable(name, built)
}

func buildBetRules(bc BetConfig, where string) (session.BetRules, error) {
	var rules session.BetRules
	var err error

	if bc.Min != "" {
		if rules.MinBet, err = parseAmount(bc.Min, where+".min"); err != nil {
			return rules, err
		}
	}
	if bc.Max != "" {
		if rules.MaxBet, err = parseAmount(bc.Max, where+".max"); err != nil {
			return rules, err
		}
	}
	for _, step := range bc.Steps {
		amount, err := parseAmount(step, where+".steps")
		if err != nil {
			return rules, err
		}
		rules.Steps = append(rules.Steps, amount)
	}
	return rules, nil
}

func parseAmount(s, where string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: bad amount %q: %w", where, s, err)
	}
	if d.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("%s: amount %q is negative", where, s)
	}
	return d, nil
}
