package models

import "time"

// Sport is an entry of the provider's sport catalogue
type Sport struct {
	Key          string `json:"key"`
	Group        string `json:"group"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	HasOutrights bool   `json:"has_outrights"`
}

// Game is the parent row every quote and opportunity references
type Game struct {
	ID          string    `db:"game_id" json:"game_id" validate:"required"`
	SportKey    string    `db:"sport_key" json:"sport_key"`
	SportTitle  string    `db:"sport_title" json:"sport_title"`
	GameTime    time.Time `db:"game_time" json:"game_time" validate:"required"`
	Completed   bool      `db:"completed" json:"completed"`
	HomeTeam    string    `db:"home_team" json:"home_team"`
	HomeScore   *int      `db:"home_score" json:"home_score,omitempty"`
	AwayTeam    string    `db:"away_team" json:"away_team"`
	AwayScore   *int      `db:"away_score" json:"away_score,omitempty"`
	LastUpdated time.Time `db:"last_updated_timestamp" json:"last_updated_timestamp"`
}

// Status returns the lifecycle status persisted for the game
func (g *Game) Status() string {
	switch {
	case g.Completed:
		return "completed"
	case g.HomeScore != nil || g.AwayScore != nil:
		return "in_progress"
	default:
		return "scheduled"
	}
}

// IsStale reports whether the game started longer ago than maxAge
func (g *Game) IsStale(now time.Time, maxAge time.Duration) bool {
	return !g.Completed && g.GameTime.Before(now.Add(-maxAge))
}
