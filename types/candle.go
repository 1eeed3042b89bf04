package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrUnorderedCandles = errors.New("candles are not strictly ordered by timestamp")
var ErrNoCandles = errors.New("no candles to process")

type Candle struct {
	Ticker    string          `json:"ticker"`
	Open      decimal.Decimal `json:"open"`
	Close     decimal.Decimal `json:"close"`
	High      decimal.Decimal `json:"high" `
	Low       decimal.Decimal `json:"low"`
	Volume    decimal.Decimal `json:"volume"`
	Interval  Interval        `json:"interval"`
	Timestamp time.Time       `json:"timestamp"`
}

// ValidateCandles reports the first pair of candles that breaks strict
// chronological order. Equal timestamps count as duplicates.
func ValidateCandles(candles []Candle) error {
	if len(candles) == 0 {
		return ErrNoCandles
	}
	for i := 1; i < len(candles); i++ {
		prev, cur := candles[i-1].Timestamp, candles[i].Timestamp
		if !cur.After(prev) {
			return fmt.Errorf("index %d (%s after %s): %w",
				i, cur.Format(time.RFC3339), prev.Format(time.RFC3339), ErrUnorderedCandles)
		}
	}
	return nil
}

// Closes returns the close prices as floats for indicator math.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close.InexactFloat64()
	}
	return out
}

func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High.InexactFloat64()
	}
	return out
}

func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low.InexactFloat64()
	}
	return out
}
