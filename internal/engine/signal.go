package engine

import (
	"errors"
	"fmt"

	"walkforward/types"
)

var (
	ErrNoIndicators     = errors.New("no indicator series to combine")
	ErrSeriesLength     = errors.New("indicator series length does not match candles")
	ErrInvalidThreshold = errors.New("vote threshold outside [1, indicator count]")
)

// CombineSignals turns per-indicator votes into one majority decision per
// candle. A candle where any indicator is still warming up is dropped along
// with its signal, so the returned slices are shorter but stay aligned.
func CombineSignals(candles []types.Candle, series []types.IndicatorSeries, threshold int) ([]types.Candle, []types.CombinedSignal, error) {
	if len(series) == 0 {
		return nil, nil, ErrNoIndicators
	}
	if threshold < 1 || threshold > len(series) {
		return nil, nil, fmt.Errorf("threshold %d of %d: %w", threshold, len(series), ErrInvalidThreshold)
	}
	for _, s := range series {
		if len(s.Signals) != len(candles) {
			return nil, nil, fmt.Errorf("%s has %d signals for %d candles: %w", s.Name, len(s.Signals), len(candles), ErrSeriesLength)
		}
	}

	aligned := make([]types.Candle, 0, len(candles))
	combined := make([]types.CombinedSignal, 0, len(candles))
	for i, candle := range candles {
		buys, sells := 0, 0
		valid := true
		for _, s := range series {
			sig := s.Signals[i]
			if !sig.Valid {
				valid = false
				break
			}
			if sig.Buy {
				buys++
			}
			if sig.Sell {
				sells++
			}
		}
		if !valid {
			continue
		}
		aligned = append(aligned, candle)
		combined = append(combined, types.CombinedSignal{
			Buy:  buys >= threshold,
			Sell: sells >= threshold,
		})
	}
	return aligned, combined, nil
}
