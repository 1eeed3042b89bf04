package indicators

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidPeriod = errors.New("indicator period must be positive")

func checkPeriod(name string, period int) error {
	if period <= 0 {
		return fmt.Errorf("%s period %d: %w", name, period, ErrInvalidPeriod)
	}
	return nil
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// EMA computes the exponential moving average of prices. The first value is
// the simple average of the first period prices; earlier entries are NaN.
func EMA(prices []float64, period int) ([]float64, error) {
	if err := checkPeriod("ema", period); err != nil {
		return nil, err
	}
	return emaFrom(prices, firstDefined(prices), period), nil
}

// emaFrom runs the average over values[start:], which must hold no NaN.
func emaFrom(values []float64, start, period int) []float64 {
	ema := nanSlice(len(values))
	seed := start + period - 1
	if start < 0 || seed >= len(values) {
		return ema
	}

	sum := 0.0
	for _, v := range values[start : seed+1] {
		sum += v
	}
	ema[seed] = sum / float64(period)

	multiplier := 2.0 / float64(period+1)
	for i := seed + 1; i < len(values); i++ {
		ema[i] = (values[i]-ema[i-1])*multiplier + ema[i-1]
	}
	return ema
}

// firstDefined is the index of the first non-NaN value, or -1.
func firstDefined(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}

// SMA is the rolling mean over period values, NaN until the window fills.
func SMA(values []float64, period int) ([]float64, error) {
	if err := checkPeriod("sma", period); err != nil {
		return nil, err
	}
	out := nanSlice(len(values))
	start := firstDefined(values)
	if start < 0 {
		return out, nil
	}
	sum := 0.0
	for i := start; i < len(values); i++ {
		sum += values[i]
		if i-start >= period {
			sum -= values[i-period]
		}
		if i-start >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out, nil
}
