package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/oddsedge/internal/models"
	"github.com/yourusername/oddsedge/internal/oddsmath"
)

// DataValidator validates normalized quotes and games before they enter
// the analysis engine
type DataValidator struct {
	validate *validator.Validate
	now      func() time.Time
}

// NewDataValidator creates a new data validator
func NewDataValidator() *DataValidator {
	v := validator.New()
	_ = v.RegisterValidation("american_odds", func(fl validator.FieldLevel) bool {
		return oddsmath.Validate(int(fl.Field().Int())) == nil
	})
	return &DataValidator{validate: v, now: time.Now}
}

// ValidateQuote returns the list of problems with a quote; empty means valid
func (v *DataValidator) ValidateQuote(q *models.Quote) []string {
	var problems []string

	if err := v.validate.Struct(q); err != nil {
		problems = append(problems, describe(err)...)
	}

	if q.LastUpdated.After(v.now().Add(time.Hour)) {
		problems = append(problems, fmt.Sprintf("last_updated %s is in the future", q.LastUpdated.Format(time.RFC3339)))
	}

	switch q.MarketType {
	case models.MarketTotal:
		if q.Selector != models.SelectorOver && q.Selector != models.SelectorUnder {
			problems = append(problems, fmt.Sprintf("total selector must be over or under, got %q", q.Selector))
		}
		if q.BettingPoint == models.NoPoint {
			problems = append(problems, "total requires a betting point")
		}
	case models.MarketSpread:
		if q.BettingPoint == models.NoPoint {
			problems = append(problems, "spread requires a betting point")
		}
	}

	return problems
}

// ValidateGame returns the list of problems with a game; empty means valid
func (v *DataValidator) ValidateGame(g *models.Game) []string {
	var problems []string
	if err := v.validate.Struct(g); err != nil {
		problems = append(problems, describe(err)...)
	}
	if g.HomeTeam == "" || g.AwayTeam == "" {
		problems = append(problems, "home_team and away_team are required")
	}
	return problems
}

func describe(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return out
}
