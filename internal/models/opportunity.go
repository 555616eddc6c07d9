package models

import "time"

// EVCandidate is a single bet whose price beats the fair probability
type EVCandidate struct {
	GameID             string     `db:"game_id" json:"game_id"`
	SportType          string     `db:"sport_type" json:"sport_type"`
	Bookie             string     `db:"bookie" json:"bookie"`
	MarketType         MarketType `db:"market_type" json:"market_type"`
	MarketKey          string     `db:"market_key" json:"market_key"`
	Participant        string     `db:"participant" json:"participant,omitempty"`
	Selector           string     `db:"selector" json:"selector"`
	BettingPoint       string     `db:"betting_point" json:"betting_point"`
	Odds               int        `db:"odds" json:"odds"`
	ExpectedValue      float64    `db:"expected_value" json:"expected_value"`
	FairProbability    float64    `db:"fair_probability" json:"fair_probability"`
	ImpliedProbability float64    `db:"implied_probability" json:"implied_probability"`
	MarketOverround    float64    `db:"market_overround" json:"market_overround"`
	Source             FairSource `db:"source" json:"source"`
	NumBookies         int        `db:"num_bookies" json:"num_bookies"`
	ZScore             *float64   `db:"z_score" json:"z_score,omitempty"`
	EventTime          time.Time  `db:"event_timestamp" json:"event_timestamp"`
	LastUpdated        time.Time  `db:"last_updated_timestamp" json:"last_updated_timestamp"`
}

// CandidateKey is the uniqueness key of an EV candidate
type CandidateKey struct {
	GameID       string
	MarketKey    string
	Participant  string
	Selector     string
	BettingPoint string
}

// Key returns the uniqueness key of the candidate
func (c EVCandidate) Key() CandidateKey {
	return CandidateKey{
		GameID:       c.GameID,
		MarketKey:    c.MarketKey,
		Participant:  c.Participant,
		Selector:     c.Selector,
		BettingPoint: c.BettingPoint,
	}
}

// ArbitrageOpportunity pairs the best prices of both sides of a binary
// market from two different bookies
type ArbitrageOpportunity struct {
	GameID           string     `db:"game_id" json:"game_id"`
	SportType        string     `db:"sport_type" json:"sport_type"`
	MarketType       MarketType `db:"market_type" json:"market_type"`
	MarketKey        string     `db:"market_key" json:"market_key"`
	Participant      string     `db:"participant" json:"participant,omitempty"`
	BettingPoint     string     `db:"betting_point" json:"betting_point"`
	SelectorOne      string     `db:"selector_one" json:"selector_one"`
	BookieOne        string     `db:"bookie_one" json:"bookie_one"`
	OddsOne          int        `db:"odds_one" json:"odds_one"`
	BetAmountOne     float64    `db:"bet_amount_one" json:"bet_amount_one"`
	SelectorTwo      string     `db:"selector_two" json:"selector_two"`
	BookieTwo        string     `db:"bookie_two" json:"bookie_two"`
	OddsTwo          int        `db:"odds_two" json:"odds_two"`
	BetAmountTwo     float64    `db:"bet_amount_two" json:"bet_amount_two"`
	InverseSum       float64    `db:"inverse_sum" json:"inverse_sum"`
	ProfitPercentage float64    `db:"profit_percentage" json:"profit_percentage"`
	EventTime        time.Time  `db:"event_timestamp" json:"event_timestamp"`
	LastUpdated      time.Time  `db:"last_updated_timestamp" json:"last_updated_timestamp"`
}
