package models

import "sort"

// MarketKind distinguishes binary markets from multi-outcome markets
type MarketKind string

const (
	KindTwoWay       MarketKind = "two_way"
	KindMultiOutcome MarketKind = "multi_outcome"
)

// MarketKey is the composite grouping key of a market. It is a comparable
// struct and is used directly as a map key: two quotes belong to the same
// market iff every field is equal.
//
// Group holds the player for per-player props and is empty for game lines
// and for multi-outcome markets, which span players. BettingPoint is the
// shared line of the market. Spreads use the signed line of the game's
// anchor outcome, the first team by name; the other side's point is negated
// into it, so Bills -3.5 and Jets +3.5 share one market while Bills +3.5
// keys a different one.
type MarketKey struct {
	GameID       string
	MarketType   MarketType
	MarketKey    string
	Group        string
	BettingPoint string
}

// Market is the set of quotes sharing one MarketKey
type Market struct {
	Key       MarketKey
	Kind      MarketKind
	SportType string
	Quotes    []Quote
}

// Outcomes returns the distinct outcome names quoted in the market, sorted
func (m *Market) Outcomes() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, q := range m.Quotes {
		o := q.Outcome()
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}

// QuotesFor returns the quotes of a single outcome
func (m *Market) QuotesFor(outcome string) []Quote {
	var out []Quote
	for _, q := range m.Quotes {
		if q.Outcome() == outcome {
			out = append(out, q)
		}
	}
	return out
}

// Bookies returns the distinct bookies quoting the given outcome
func (m *Market) Bookies(outcome string) int {
	seen := make(map[string]struct{})
	for _, q := range m.Quotes {
		if q.Outcome() == outcome {
			seen[q.Bookie] = struct{}{}
		}
	}
	return len(seen)
}

// FairSource records which estimation path produced a probability
type FairSource string

const (
	SourceObserved FairSource = "observed"
	SourceAssumed  FairSource = "assumed"
)

// FairProbability is the de-vigged probability of one outcome of a market
type FairProbability struct {
	Outcome     string     `json:"outcome"`
	Probability float64    `json:"probability"`
	Source      FairSource `json:"source"`
	Overround   float64    `json:"overround"`
}
