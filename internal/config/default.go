package config

// Default returns the built-in game configuration. Weight values are visual
// shares (wheel degrees out of 360); the odds live in Probability alone.
func Default() *Config {
	return &Config{
		Pool: PoolConfig{
			OpeningBalance:         "100",
			ReservePercent:         0.10,
			MaxSinglePayoutPercent: 0.50,
		},
		Games: GamesConfig{
			Wheel: DrawGameConfig{
				Bet: BetConfig{Min: "1", Max: "10000"},
				Outcomes: []OutcomeConfig{
					{ID: "super_jackpot", Label: "Super Jackpot", Probability: 0.00005, Weight: 7, PoolPercent: 0.30, MaxPayout: "10", Rank: 7},
					{ID: "jackpot", Label: "Jackpot", Probability: 0.0002, Weight: 15, PoolPercent: 0.20, MaxPayout: "5", Rank: 6},
					{ID: "mega", Label: "Mega Win", Probability: 0.002, Weight: 25, PoolPercent: 0.10, MaxPayout: "1", Rank: 5},
					{ID: "big", Label: "Big Win", Probability: 0.004, Weight: 30, PoolPercent: 0.05, MaxPayout: "0.3", Rank: 4},
					{ID: "medium", Label: "Medium Win", Probability: 0.0125, Weight: 40, PoolPercent: 0.02, MaxPayout: "0.1", Rank: 3},
					{ID: "small", Label: "Small Win", Probability: 0.025, Weight: 50, PoolPercent: 0.01, MaxPayout: "0.05", Rank: 2},
					{ID: "consolation", Label: "Consolation", Probability: 0.05, Weight: 60, PoolPercent: 0.005, MaxPayout: "0.02", Rank: 1},
					{ID: "none", Label: "No Win", Probability: 0.90625, Weight: 133, PoolPercent: 0, Rank: 0},
				},
			},
			Chest: ChestConfig{
				Bet: BetConfig{Min: "1", Max: "10000"},
				Tiers: map[string][]OutcomeConfig{
					"bronze": {
						{ID: "medium", Label: "Medium Win", Probability: 0.02, PoolPercent: 0.02, MaxPayout: "0.2", Rank: 2},
						{ID: "small_win", Label: "Small Win", Probability: 0.03, PoolPercent: 0.01, MaxPayout: "0.1", Rank: 1},
						{ID: "no_win", Label: "Empty Chest", Probability: 0.95, PoolPercent: 0, Rank: 0},
					},
					"silver": {
						{ID: "big", Label: "Big Win", Probability: 0.01, PoolPercent: 0.05, MaxPayout: "0.5", Rank: 3},
						{ID: "medium", Label: "Medium Win", Probability: 0.04, PoolPercent: 0.02, MaxPayout: "0.2", Rank: 2},
						{ID: "small_win", Label: "Small Win", Probability: 0.05, PoolPercent: 0.01, MaxPayout: "0.1", Rank: 1},
						{ID: "no_win", Label: "Empty Chest", Probability: 0.90, PoolPercent: 0, Rank: 0},
					},
					"gold": {
						{ID: "jackpot", Label: "Jackpot", Probability: 0.005, PoolPercent: 0.15, MaxPayout: "2", Rank: 4},
						{ID: "big", Label: "Big Win", Probability: 0.03, PoolPercent: 0.05, MaxPayout: "0.5", Rank: 3},
						{ID: "medium", Label: "Medium Win", Probability: 0.065, PoolPercent: 0.02, MaxPayout: "0.2", Rank: 2},
						{ID: "small_win", Label: "Small Win", Probability: 0.10, PoolPercent: 0.01, MaxPayout: "0.1", Rank: 1},
						{ID: "no_win", Label: "Empty Chest", Probability: 0.80, PoolPercent: 0, Rank: 0},
					},
				},
			},
			Slots: DrawGameConfig{
				Bet: BetConfig{Min: "1", Max: "10000"},
				Outcomes: []OutcomeConfig{
					{ID: "triple_seven", Label: "Triple Seven", Probability: 0.0002, PoolPercent: 0.25, MaxPayout: "5", Rank: 5},
					{ID: "triple_bar", Label: "Triple Bar", Probability: 0.0018, PoolPercent: 0.10, MaxPayout: "1", Rank: 4},
					{ID: "triple_cherry", Label: "Triple Cherry", Probability: 0.01, PoolPercent: 0.05, MaxPayout: "0.5", Rank: 3},
					{ID: "double_match", Label: "Double Match", Probability: 0.04, PoolPercent: 0.02, MaxPayout: "0.2", Rank: 2},
					{ID: "single_cherry", Label: "Single Cherry", Probability: 0.12, PoolPercent: 0.005, MaxPayout: "0.05", Rank: 1},
					{ID: "no_win", Label: "No Win", Probability: 0.828, PoolPercent: 0, Rank: 0},
				},
			},
			HiLo: HiLoConfig{
				Bet: BetConfig{Steps: []string{"10000", "25000", "50000", "100000"}},
				Tiers: []StreakTierConfig{
					{MinStreak: 1, PoolPercent: 0.005, MaxPayout: "0.05"},
					{MinStreak: 2, PoolPercent: 0.01, MaxPayout: "0.1"},
					{MinStreak: 3, PoolPercent: 0.02, MaxPayout: "0.2"},
					{MinStreak: 5, PoolPercent: 0.10, MaxPayout: "0.8"},
					{MinStreak: 7, PoolPercent: 0.20, MaxPayout: "2"},
				},
			},
			Crash: CrashConfig{
				Bet:   BetConfig{Min: "1", Max: "10000"},
				Speed: 0.06,
			},
		},
	}
}
