package models

import (
	"strings"
	"time"
)

// NoPoint is stored in betting_point when the provider sends no line.
const NoPoint = "N/A"

// MarketType is the coarse category a quote is persisted under
type MarketType string

const (
	MarketMoneyline MarketType = "moneyline"
	MarketSpread    MarketType = "spread"
	MarketTotal     MarketType = "total"
	MarketProp      MarketType = "prop"
)

// IsGameLine reports whether the market type is one of the binary game markets
func (t MarketType) IsGameLine() bool {
	return t == MarketMoneyline || t == MarketSpread || t == MarketTotal
}

// Common selectors
const (
	SelectorOver  = "over"
	SelectorUnder = "under"
	SelectorYes   = "yes"
	SelectorNo    = "no"
)

// Quote is one bookie's price for one outcome of one market at one instant
type Quote struct {
	GameID       string     `db:"game_id" json:"game_id" validate:"required"`
	SportType    string     `db:"sport_type" json:"sport_type" validate:"required"`
	Bookie       string     `db:"bookie" json:"bookie" validate:"required"`
	MarketType   MarketType `db:"market_type" json:"market_type" validate:"required,oneof=moneyline spread total prop"`
	MarketKey    string     `db:"market_key" json:"market_key" validate:"required"`
	Participant  string     `db:"participant" json:"participant,omitempty" validate:"required_if=MarketType prop"`
	Selector     string     `db:"selector" json:"selector" validate:"required"`
	BettingPoint string     `db:"betting_point" json:"betting_point" validate:"required"`
	Odds         int        `db:"odds" json:"odds" validate:"american_odds"`
	EventTime    time.Time  `db:"event_timestamp" json:"event_timestamp" validate:"required"`
	LastUpdated  time.Time  `db:"last_updated_timestamp" json:"last_updated_timestamp" validate:"required"`
}

// QuoteIdentity identifies the slot a quote occupies. A newer quote with
// the same identity supersedes an older one.
type QuoteIdentity struct {
	GameID       string
	Bookie       string
	MarketKey    string
	Participant  string
	Selector     string
	BettingPoint string
}

// Identity returns the supersession key of the quote
func (q Quote) Identity() QuoteIdentity {
	return QuoteIdentity{
		GameID:       q.GameID,
		Bookie:       q.Bookie,
		MarketKey:    q.MarketKey,
		Participant:  q.Participant,
		Selector:     q.Selector,
		BettingPoint: q.BettingPoint,
	}
}

// Outcome names the outcome the quote prices. Player props combine the
// player with the bet type ("Josh Allen over"), spreads carry the signed
// line ("Buffalo Bills -3.5"), everything else is the selector alone.
func (q Quote) Outcome() string {
	switch {
	case q.Participant != "":
		return q.Participant + " " + q.Selector
	case q.MarketType == MarketSpread:
		return q.Selector + " " + q.BettingPoint
	default:
		return q.Selector
	}
}

// IsYes reports whether the quote is the "yes" side of a prop
func (q Quote) IsYes() bool {
	return strings.EqualFold(q.Selector, SelectorYes)
}

// Supersedes reports whether q replaces other for the same identity
func (q Quote) Supersedes(other Quote) bool {
	return q.Identity() == other.Identity() && q.LastUpdated.After(other.LastUpdated)
}

// LatestQuotes drops quotes superseded by a newer quote with the same identity.
// Input order is preserved for the survivors.
func LatestQuotes(quotes []Quote) []Quote {
	latest := make(map[QuoteIdentity]int, len(quotes))
	for i, q := range quotes {
		id := q.Identity()
		if j, ok := latest[id]; !ok || q.Supersedes(quotes[j]) {
			latest[id] = i
		}
	}

	out := make([]Quote, 0, len(latest))
	for i, q := range quotes {
		if latest[q.Identity()] == i {
			out = append(out, q)
		}
	}
	return out
}
