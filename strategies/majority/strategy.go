package majority

import (
	"errors"
	"fmt"
	"math"

	"walkforward/internal/indicators"
	"walkforward/types"
)

var ErrInvalidWindows = errors.New("short window must be below long window")

const (
	NameRSI        = "rsi"
	NameEMA        = "ema"
	NameMACD       = "macd"
	NameBollinger  = "bollinger"
	NameStochastic = "stochastic"
)

// Strategy turns candles into one vote series per enabled indicator. It
// keeps no state between calls.
type Strategy struct{}

func New() *Strategy { return &Strategy{} }

func (s *Strategy) Signals(candles []types.Candle, params types.StrategyParams) ([]types.IndicatorSeries, error) {
	closes := types.Closes(candles)

	var out []types.IndicatorSeries
	add := func(name string, signals []types.IndicatorSignal, err error) error {
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, types.IndicatorSeries{Name: name, Signals: signals})
		return nil
	}

	if params.RSI.Enabled {
		sig, err := rsiSignals(closes, params.RSI)
		if err := add(NameRSI, sig, err); err != nil {
			return nil, err
		}
	}
	if params.EMA.Enabled {
		sig, err := emaSignals(closes, params.EMA)
		if err := add(NameEMA, sig, err); err != nil {
			return nil, err
		}
	}
	if params.MACD.Enabled {
		sig, err := macdSignals(closes, params.MACD)
		if err := add(NameMACD, sig, err); err != nil {
			return nil, err
		}
	}
	if params.Bollinger.Enabled {
		sig, err := bollingerSignals(closes, params.Bollinger)
		if err := add(NameBollinger, sig, err); err != nil {
			return nil, err
		}
	}
	if params.Stochastic.Enabled {
		st, err := stochasticSignals(types.Highs(candles), types.Lows(candles), closes, params.Stochastic)
		if err := add(NameStochastic, st, err); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Buy below the lower level, sell above the upper one.
func rsiSignals(closes []float64, p types.RSIParams) ([]types.IndicatorSignal, error) {
	rsi, err := indicators.RSI(closes, p.Window)
	if err != nil {
		return nil, err
	}
	return mapSignals(len(closes), func(i int) (types.IndicatorSignal, bool) {
		if math.IsNaN(rsi[i]) {
			return types.IndicatorSignal{}, false
		}
		return types.IndicatorSignal{Buy: rsi[i] < p.Lower, Sell: rsi[i] > p.Upper}, true
	}), nil
}

// Buy while the short average is above the long one, sell while below.
func emaSignals(closes []float64, p types.EMAParams) ([]types.IndicatorSignal, error) {
	if p.ShortWindow >= p.LongWindow {
		return nil, fmt.Errorf("ema %d/%d: %w", p.ShortWindow, p.LongWindow, ErrInvalidWindows)
	}
	short, err := indicators.EMA(closes, p.ShortWindow)
	if err != nil {
		return nil, err
	}
	long, err := indicators.EMA(closes, p.LongWindow)
	if err != nil {
		return nil, err
	}
	return crossSignals(short, long), nil
}

func macdSignals(closes []float64, p types.MACDParams) ([]types.IndicatorSignal, error) {
	if p.ShortWindow >= p.LongWindow {
		return nil, fmt.Errorf("macd %d/%d: %w", p.ShortWindow, p.LongWindow, ErrInvalidWindows)
	}
	res, err := indicators.MACD(closes, p.ShortWindow, p.LongWindow, p.SignalWindow)
	if err != nil {
		return nil, err
	}
	return crossSignals(res.MACD, res.Signal), nil
}

// Buy on a close under the lower band, sell on a close over the upper band.
func bollingerSignals(closes []float64, p types.BollingerParams) ([]types.IndicatorSignal, error) {
	bands, err := indicators.BollingerBands(closes, p.Window, p.NumStdDev)
	if err != nil {
		return nil, err
	}
	return mapSignals(len(closes), func(i int) (types.IndicatorSignal, bool) {
		if math.IsNaN(bands.Middle[i]) {
			return types.IndicatorSignal{}, false
		}
		return types.IndicatorSignal{Buy: closes[i] < bands.Lower[i], Sell: closes[i] > bands.Upper[i]}, true
	}), nil
}

// Votes on %D against the lower and upper thresholds.
func stochasticSignals(highs, lows, closes []float64, p types.StochasticParams) ([]types.IndicatorSignal, error) {
	res, err := indicators.Stochastic(highs, lows, closes, p.KWindow, p.SmoothWindow)
	if err != nil {
		return nil, err
	}
	return mapSignals(len(closes), func(i int) (types.IndicatorSignal, bool) {
		d := res.D[i]
		if math.IsNaN(d) {
			return types.IndicatorSignal{}, false
		}
		return types.IndicatorSignal{Buy: d < p.LowerThreshold, Sell: d > p.UpperThreshold}, true
	}), nil
}

func crossSignals(fast, slow []float64) []types.IndicatorSignal {
	return mapSignals(len(fast), func(i int) (types.IndicatorSignal, bool) {
		if math.IsNaN(fast[i]) || math.IsNaN(slow[i]) {
			return types.IndicatorSignal{}, false
		}
		return types.IndicatorSignal{Buy: fast[i] > slow[i], Sell: fast[i] < slow[i]}, true
	})
}

func mapSignals(n int, at func(i int) (types.IndicatorSignal, bool)) []types.IndicatorSignal {
	out := make([]types.IndicatorSignal, n)
	for i := range out {
		sig, ok := at(i)
		sig.Valid = ok
		out[i] = sig
	}
	return out
}
