package indicators

import "fmt"

type StochasticResult struct {
	K []float64 // fast %K
	D []float64 // %K smoothed over the smoothing window
}

// Stochastic computes %K over kPeriod bars and %D as its simple average over
// smooth bars. A flat window yields a %K of 50.
func Stochastic(highs, lows, closes []float64, kPeriod, smooth int) (*StochasticResult, error) {
	if len(highs) != len(closes) || len(lows) != len(closes) {
		return nil, fmt.Errorf("stochastic: %d highs, %d lows, %d closes", len(highs), len(lows), len(closes))
	}
	if err := checkPeriod("stochastic k", kPeriod); err != nil {
		return nil, err
	}
	if err := checkPeriod("stochastic smooth", smooth); err != nil {
		return nil, err
	}

	k := nanSlice(len(closes))
	for i := kPeriod - 1; i < len(closes); i++ {
		lowest, highest := lows[i], highs[i]
		for j := i - kPeriod + 1; j < i; j++ {
			lowest = min(lowest, lows[j])
			highest = max(highest, highs[j])
		}
		if highest == lowest {
			k[i] = 50
			continue
		}
		k[i] = 100 * (closes[i] - lowest) / (highest - lowest)
	}

	d, err := SMA(k, smooth)
	if err != nil {
		return nil, err
	}
	return &StochasticResult{K: k, D: d}, nil
}
