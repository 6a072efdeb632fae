package economy

import (
	"errors"
	"fmt"
	"math"
)

// SecondsPerDay is one sim-day.
const SecondsPerDay = 24 * 60 * 60

var (
	ErrInvalidInterval = errors.New("decay interval must be positive")
	ErrInvalidRate     = errors.New("daily decay rate must be in [0, 1)")
)

// DecayRates are per-interval fractions removed from buy and sale pressure.
type DecayRates struct {
	Buy  float64
	Sale float64
}

// IntervalsPerDay returns how many decay intervals of the given length fit in a day.
func IntervalsPerDay(intervalSeconds float64) (float64, error) {
	if !(intervalSeconds > 0) || math.IsInf(intervalSeconds, 0) {
		return 0, fmt.Errorf("%w: %v seconds", ErrInvalidInterval, intervalSeconds)
	}
	n := SecondsPerDay / intervalSeconds
	if !(n > 0) {
		return 0, fmt.Errorf("%w: %v intervals per day", ErrInvalidInterval, n)
	}
	return n, nil
}

// IntervalRate converts a daily decay rate into the per-interval rate that
// compounds to it exactly over one day:
//
//	(1-interval)^intervalsPerDay = 1-day
func IntervalRate(dayRate, intervalsPerDay float64) (float64, error) {
	if dayRate < 0 || dayRate >= 1 || math.IsNaN(dayRate) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRate, dayRate)
	}
	if !(intervalsPerDay > 0) {
		return 0, fmt.Errorf("%w: %v intervals per day", ErrInvalidInterval, intervalsPerDay)
	}
	return 1 - math.Pow(1-dayRate, 1/intervalsPerDay), nil
}

// IntervalRates converts both daily rates of a parameter set.
func IntervalRates(p CurveParams, intervalSeconds float64) (DecayRates, error) {
	n, err := IntervalsPerDay(intervalSeconds)
	if err != nil {
		return DecayRates{}, err
	}
	buy, err := IntervalRate(p.BuyDecayPerDay, n)
	if err != nil {
		return DecayRates{}, fmt.Errorf("buy decay: %w", err)
	}
	sale, err := IntervalRate(p.SaleDecayPerDay, n)
	if err != nil {
		return DecayRates{}, fmt.Errorf("sale decay: %w", err)
	}
	return DecayRates{Buy: buy, Sale: sale}, nil
}
