package oddsmath

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// Median returns the median of values; 0 for an empty slice
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// MedianOdds returns the median of American odds, measured on the implied
// probability scale so that -110 and +110 average to even money rather
// than to zero.
func MedianOdds(odds []int) (int, error) {
	probs := make([]float64, 0, len(odds))
	for _, o := range odds {
		p, err := ImpliedProbability(o)
		if err != nil {
			return 0, err
		}
		probs = append(probs, p)
	}
	if len(probs) == 0 {
		return 0, nil
	}
	return ProbabilityToAmerican(Median(probs)), nil
}

// ProbabilityToAmerican converts a probability in (0,1) to American odds
func ProbabilityToAmerican(p float64) int {
	if p >= 0.5 {
		return -int(math.Round(p / (1 - p) * 100))
	}
	return int(math.Round((1 - p) / p * 100))
}

// Mean returns the arithmetic mean of values
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of values
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// ZScore returns the standard score of x within values. ok is false when
// the distribution is degenerate (fewer than two values or zero spread).
func ZScore(x float64, values []float64) (z float64, ok bool) {
	sd := StdDev(values)
	if sd == 0 {
		return 0, false
	}
	return (x - Mean(values)) / sd, true
}

// Round rounds to the given number of decimal places half away from zero
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
