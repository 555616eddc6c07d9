package repository

import (
	"sort"

	"github.com/yourusername/oddsedge/internal/database"
	"github.com/yourusername/oddsedge/internal/models"
)

var quoteColumns = []string{
	"game_id", "sport_type", "bookie", "market_key", "participant", "selector",
	"betting_point", "odds", "event_timestamp", "last_updated_timestamp",
}

var evColumns = []string{
	"game_id", "sport_type", "bookie", "market_type", "market_key", "participant",
	"selector", "betting_point", "odds", "expected_value", "fair_probability",
	"implied_probability", "market_overround", "source", "num_bookies", "z_score",
	"event_timestamp", "last_updated_timestamp",
}

var arbitrageColumns = []string{
	"game_id", "sport_type", "market_type", "market_key", "participant", "betting_point",
	"selector_one", "bookie_one", "odds_one", "bet_amount_one",
	"selector_two", "bookie_two", "odds_two", "bet_amount_two",
	"inverse_sum", "profit_percentage", "event_timestamp", "last_updated_timestamp",
}

// QuoteTable returns the table a quote of the given market type is stored in
func QuoteTable(mt models.MarketType, latest bool) string {
	var table string
	switch mt {
	case models.MarketMoneyline:
		table = database.TableMoneyline
	case models.MarketSpread:
		table = database.TableSpreads
	case models.MarketTotal:
		table = database.TableOverUnder
	default:
		table = database.TableProps
	}
	if latest {
		return "latest_" + table
	}
	return table
}

// EVTable returns the table an EV candidate of the given market type is
// stored in
func EVTable(mt models.MarketType) string {
	if mt == models.MarketProp {
		return database.TableEVProps
	}
	return database.TableEVMoneyline
}

// PartitionQuotes routes quotes to their tables as insert rows
func PartitionQuotes(quotes []models.Quote, latest bool) map[string][]Row {
	out := make(map[string][]Row)
	for _, q := range quotes {
		table := QuoteTable(q.MarketType, latest)
		out[table] = append(out[table], quoteRow(q))
	}
	return out
}

// PartitionCandidates routes EV candidates to their tables as insert rows
func PartitionCandidates(cs []models.EVCandidate) map[string][]Row {
	out := make(map[string][]Row)
	for _, c := range cs {
		table := EVTable(c.MarketType)
		out[table] = append(out[table], evRow(c))
	}
	return out
}

func quoteRow(q models.Quote) Row {
	return Row{
		GameID: q.GameID,
		Values: []any{
			q.GameID, q.SportType, q.Bookie, q.MarketKey, q.Participant, q.Selector,
			q.BettingPoint, q.Odds, q.EventTime, q.LastUpdated,
		},
	}
}

func evRow(c models.EVCandidate) Row {
	return Row{
		GameID: c.GameID,
		Values: []any{
			c.GameID, c.SportType, c.Bookie, string(c.MarketType), c.MarketKey, c.Participant,
			c.Selector, c.BettingPoint, c.Odds, c.ExpectedValue, c.FairProbability,
			c.ImpliedProbability, c.MarketOverround, string(c.Source), c.NumBookies, c.ZScore,
			c.EventTime, c.LastUpdated,
		},
	}
}

func arbitrageRow(a models.ArbitrageOpportunity) Row {
	return Row{
		GameID: a.GameID,
		Values: []any{
			a.GameID, a.SportType, string(a.MarketType), a.MarketKey, a.Participant, a.BettingPoint,
			a.SelectorOne, a.BookieOne, a.OddsOne, a.BetAmountOne,
			a.SelectorTwo, a.BookieTwo, a.OddsTwo, a.BetAmountTwo,
			a.InverseSum, a.ProfitPercentage, a.EventTime, a.LastUpdated,
		},
	}
}

func sortedTables(m map[string][]Row) []string {
	tables := make([]string, 0, len(m))
	for t := range m {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables
}
