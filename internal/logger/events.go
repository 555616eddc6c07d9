package logger

// Event types separate intentional exclusions from real failures. Operators
// alert on failure and fatal; filter lines only explain why output shrank.
const (
	EventFilter  = "filter"
	EventFailure = "failure"
	EventFatal   = "fatal"
	EventSummary = "summary"
)

// Exclusion reasons
const (
	ReasonMaxOdds       = "max_odds_cap"
	ReasonMinBookies    = "min_bookies_gate"
	ReasonEVBelowTarget = "ev_below_target"
	ReasonZScore        = "z_score_ceiling"
	ReasonMalformed     = "malformed_market"
	ReasonInvalidOdds   = "invalid_odds"
	ReasonNoProfit      = "below_min_profit"
)
