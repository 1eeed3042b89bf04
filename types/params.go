package types

import (
	"errors"
	"fmt"
)

var ErrInvalidParams = errors.New("invalid strategy params")

type SizingMode string

const (
	// SizingFraction commits a fraction of the available cash to each entry.
	SizingFraction SizingMode = "fraction"
	// SizingFixed opens every position with the same quantity.
	SizingFixed SizingMode = "fixed"
)

type RSIParams struct {
	Enabled bool    `yaml:"enabled" json:"enabled"`
	Window  int     `yaml:"window" json:"window"`
	Lower   float64 `yaml:"lower" json:"lower"`
	Upper   float64 `yaml:"upper" json:"upper"`
}

type EMAParams struct {
	Enabled     bool `yaml:"enabled" json:"enabled"`
	ShortWindow int  `yaml:"short_window" json:"shortWindow"`
	LongWindow  int  `yaml:"long_window" json:"longWindow"`
}

type MACDParams struct {
	Enabled      bool `yaml:"enabled" json:"enabled"`
	ShortWindow  int  `yaml:"short_window" json:"shortWindow"`
	LongWindow   int  `yaml:"long_window" json:"longWindow"`
	SignalWindow int  `yaml:"signal_window" json:"signalWindow"`
}

type BollingerParams struct {
	Enabled   bool    `yaml:"enabled" json:"enabled"`
	Window    int     `yaml:"window" json:"window"`
	NumStdDev float64 `yaml:"num_std_dev" json:"numStdDev"`
}

type StochasticParams struct {
	Enabled        bool    `yaml:"enabled" json:"enabled"`
	KWindow        int     `yaml:"k_window" json:"kWindow"`
	SmoothWindow   int     `yaml:"smooth_window" json:"smoothWindow"`
	LowerThreshold float64 `yaml:"lower_threshold" json:"lowerThreshold"`
	UpperThreshold float64 `yaml:"upper_threshold" json:"upperThreshold"`
}

// StrategyParams is everything a single backtest run needs besides the
// account configuration. It is never mutated once a run starts.
type StrategyParams struct {
	RSI        RSIParams        `yaml:"rsi" json:"rsi"`
	EMA        EMAParams        `yaml:"ema" json:"ema"`
	MACD       MACDParams       `yaml:"macd" json:"macd"`
	Bollinger  BollingerParams  `yaml:"bollinger" json:"bollinger"`
	Stochastic StochasticParams `yaml:"stochastic" json:"stochastic"`

	StopLoss        float64    `yaml:"stop_loss" json:"stopLoss"`
	TakeProfit      float64    `yaml:"take_profit" json:"takeProfit"`
	Sizing          SizingMode `yaml:"sizing" json:"sizing"`
	CapitalFraction float64    `yaml:"capital_fraction" json:"capitalFraction"`
	FixedQuantity   float64    `yaml:"fixed_quantity" json:"fixedQuantity"`
	VoteThreshold   int        `yaml:"vote_threshold" json:"voteThreshold"`
}

// DefaultStrategyParams are the best parameters found for 5 minute AAPL bars.
func DefaultStrategyParams() StrategyParams {
	return StrategyParams{
		RSI:        RSIParams{Enabled: true, Window: 37, Lower: 25, Upper: 88},
		EMA:        EMAParams{Enabled: true, ShortWindow: 13, LongWindow: 46},
		MACD:       MACDParams{Enabled: true, ShortWindow: 16, LongWindow: 44, SignalWindow: 8},
		Bollinger:  BollingerParams{Enabled: true, Window: 11, NumStdDev: 2.9481},
		Stochastic: StochasticParams{Enabled: true, KWindow: 7, SmoothWindow: 3, LowerThreshold: 29.2803, UpperThreshold: 88.2503},

		StopLoss:        0.2445,
		TakeProfit:      0.2587,
		Sizing:          SizingFraction,
		CapitalFraction: 0.1378,
		VoteThreshold:   2,
	}
}

// IndicatorCount is the number of indicators that vote.
func (p StrategyParams) IndicatorCount() int {
	n := 0
	for _, on := range []bool{p.RSI.Enabled, p.EMA.Enabled, p.MACD.Enabled, p.Bollinger.Enabled, p.Stochastic.Enabled} {
		if on {
			n++
		}
	}
	return n
}

// Validate checks the risk and sizing fields. Indicator windows are checked
// by the strategy that consumes them.
func (p StrategyParams) Validate() error {
	if p.StopLoss <= 0 || p.StopLoss >= 1 {
		return fmt.Errorf("stop loss %v outside (0,1): %w", p.StopLoss, ErrInvalidParams)
	}
	if p.TakeProfit <= 0 || p.TakeProfit >= 1 {
		return fmt.Errorf("take profit %v outside (0,1): %w", p.TakeProfit, ErrInvalidParams)
	}
	switch p.Sizing {
	case SizingFraction:
		if p.CapitalFraction <= 0 || p.CapitalFraction > 1 {
			return fmt.Errorf("capital fraction %v outside (0,1]: %w", p.CapitalFraction, ErrInvalidParams)
		}
	case SizingFixed:
		if p.FixedQuantity <= 0 {
			return fmt.Errorf("fixed quantity %v must be positive: %w", p.FixedQuantity, ErrInvalidParams)
		}
	default:
		return fmt.Errorf("sizing mode %q: %w", p.Sizing, ErrInvalidParams)
	}
	if p.VoteThreshold < 1 {
		return fmt.Errorf("vote threshold %d must be at least 1: %w", p.VoteThreshold, ErrInvalidParams)
	}
	return nil
}
