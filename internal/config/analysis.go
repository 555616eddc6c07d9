package config

import "strings"

// MinBookiesFor returns the minimum-bookie gate for a provider market key
func (a AnalysisConfig) MinBookiesFor(marketKey string) int {
	if n, ok := a.MinBookiesOverrides[strings.ToLower(marketKey)]; ok && n > 0 {
		return n
	}
	return a.MinBookies
}

// IsMultiOutcome reports whether the market key is priced as one market
// across all of its players
func (a AnalysisConfig) IsMultiOutcome(marketKey string) bool {
	for _, k := range a.MultiOutcomeMarkets {
		if strings.EqualFold(k, marketKey) {
			return true
		}
	}
	return false
}

// BucketIndex returns the index of the overround bucket the odds fall into
func (o OverroundConfig) BucketIndex(odds int) int {
	for i, b := range o.Buckets {
		if b.UpTo == nil || odds <= *b.UpTo {
			return i
		}
	}
	return len(o.Buckets) - 1
}

func intPtr(v int) *int { return &v }

// DefaultOverroundBuckets returns the assumed overround per odds bucket
func DefaultOverroundBuckets() []OverroundBucket {
	return []OverroundBucket{
		{UpTo: intPtr(-300), Overround: 1.030},
		{UpTo: intPtr(-200), Overround: 1.035},
		{UpTo: intPtr(-150), Overround: 1.040},
		{UpTo: intPtr(-110), Overround: 1.045},
		{UpTo: intPtr(110), Overround: 1.045},
		{UpTo: intPtr(150), Overround: 1.050},
		{UpTo: intPtr(200), Overround: 1.055},
		{UpTo: intPtr(300), Overround: 1.060},
		{UpTo: intPtr(500), Overround: 1.070},
		{UpTo: intPtr(800), Overround: 1.085},
		{UpTo: intPtr(1200), Overround: 1.100},
		{Overround: 1.150},
	}
}

// DefaultMultiOutcomeMarkets lists markets whose outcomes are mutually
// exclusive across players
func DefaultMultiOutcomeMarkets() []string {
	return []string{
		"player_1st_td",
		"player_last_td",
		"player_goal_scorer_first",
		"player_goal_scorer_last",
		"batter_first_home_run",
	}
}

// DefaultPropMarkets lists the per-event prop markets fetched per sport
func DefaultPropMarkets() map[string][]string {
	return map[string][]string{
		"americanfootball_nfl": {
			"player_pass_yds",
			"player_pass_tds",
			"player_pass_interceptions",
			"player_pass_longest_completion",
			"player_rush_yds",
			"player_rush_attempts",
			"player_rush_longest",
			"player_reception_yds",
			"player_receptions",
			"player_reception_longest",
			"player_rush_reception_yds",
			"player_rush_reception_tds",
			"player_pass_rush_reception_tds",
			"player_pass_rush_reception_yds",
			"player_field_goals",
			"player_1st_td",
			"player_anytime_td",
			"player_last_td",
		},
		"basketball_nba": {
			"player_points",
			"player_rebounds",
			"player_assists",
			"player_threes",
			"player_points_rebounds_assists",
			"player_double_double",
		},
	}
}

// DefaultMinBookiesOverrides lowers the gate for markets few bookies quote
func DefaultMinBookiesOverrides() map[string]int {
	return map[string]int{
		"batter_doubles":      1,
		"batter_triples":      1,
		"player_field_goals":  2,
		"player_rush_longest": 2,
	}
}

// DefaultAnalysisConfig returns the analysis tunables used when the
// configuration file leaves them unset
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Stake:               100,
		MaxOdds:             50000,
		MinBookies:          3,
		MinBookiesOverrides: DefaultMinBookiesOverrides(),
		EVTarget:            1.0,
		ZScoreCeiling:       2.5,
		ZScoreMinSamples:    3,
		MultiOutcomeMarkets: DefaultMultiOutcomeMarkets(),
		Overround: OverroundConfig{
			Buckets:             DefaultOverroundBuckets(),
			LongshotThreshold:   400,
			LongshotInflation:   0.05,
			FavoriteThreshold:   -300,
			FavoriteDeflation:   0.02,
			MinSamples:          5,
			MultiOutcomeDefault: 1.20,
		},
		Arbitrage: ArbitrageConfig{
			TotalStake:          100,
			MinProfitPercentage: 1.0,
		},
	}
}
