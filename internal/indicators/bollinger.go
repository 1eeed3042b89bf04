package indicators

import (
	"fmt"
	"math"
)

type BBandsResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// BollingerBands uses the population standard deviation over the window.
func BollingerBands(prices []float64, period int, deviations float64) (*BBandsResult, error) {
	if err := checkPeriod("bollinger", period); err != nil {
		return nil, err
	}
	if deviations <= 0 {
		return nil, fmt.Errorf("bollinger deviations %v must be positive: %w", deviations, ErrInvalidPeriod)
	}

	upper := nanSlice(len(prices))
	middle := nanSlice(len(prices))
	lower := nanSlice(len(prices))

	for i := period - 1; i < len(prices); i++ {
		subset := prices[i-period+1 : i+1]

		sum := 0.0
		for _, price := range subset {
			sum += price
		}
		sma := sum / float64(period)

		squareSum := 0.0
		for _, price := range subset {
			diff := price - sma
			squareSum += diff * diff
		}
		stdDev := math.Sqrt(squareSum / float64(period))

		middle[i] = sma
		upper[i] = sma + deviations*stdDev
		lower[i] = sma - deviations*stdDev
	}

	return &BBandsResult{Upper: upper, Middle: middle, Lower: lower}, nil
}
