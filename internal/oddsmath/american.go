// Package oddsmath converts American odds and computes the quantities the
// analysis engine is built on.
package oddsmath

import (
	"fmt"

	"github.com/yourusername/oddsedge/internal/models"
)

// ReferenceStake is the unit stake EV is quoted against
const ReferenceStake = 100.0

// Validate rejects odds that cannot be American prices. Values strictly
// between -100 and +100 have no meaning in the American format.
func Validate(american int) error {
	if american > -100 && american < 100 {
		return fmt.Errorf("%w: %d", models.ErrInvalidOdds, american)
	}
	return nil
}

// ImpliedProbability converts American odds to the bookie's implied probability
// American -150 → 0.60
// American +130 → 0.4348
func ImpliedProbability(american int) (float64, error) {
	if err := Validate(american); err != nil {
		return 0, err
	}

	if american > 0 {
		return 100.0 / (float64(american) + 100.0), nil
	}
	neg := float64(-american)
	return neg / (neg + 100.0), nil
}

// AmericanToDecimal converts American odds to decimal odds
// American +150 → Decimal 2.50
// American -200 → Decimal 1.50
func AmericanToDecimal(american int) (float64, error) {
	if err := Validate(american); err != nil {
		return 0, err
	}

	if american > 0 {
		return float64(american)/100.0 + 1.0, nil
	}
	return 100.0/float64(-american) + 1.0, nil
}

// Payout returns the profit of a winning bet of stake at the given odds
func Payout(american int, stake float64) (float64, error) {
	if err := Validate(american); err != nil {
		return 0, err
	}

	if american > 0 {
		return float64(american) / 100.0 * stake, nil
	}
	return 100.0 / float64(-american) * stake, nil
}

// ExpectedValue is the average profit of a bet of stake at the given odds
// when the outcome has probability fair
func ExpectedValue(american int, fair, stake float64) (float64, error) {
	payout, err := Payout(american, stake)
	if err != nil {
		return 0, err
	}
	return fair*payout - (1-fair)*stake, nil
}

// NoVigPair removes the margin from a pair of implied probabilities.
// The returned probabilities sum to 1.
func NoVigPair(impliedA, impliedB float64) (float64, float64, error) {
	total := impliedA + impliedB
	if impliedA <= 0 || impliedB <= 0 || total <= 0 {
		return 0, 0, fmt.Errorf("invalid implied probabilities: %f, %f", impliedA, impliedB)
	}
	pa := impliedA / total
	return pa, 1 - pa, nil
}
