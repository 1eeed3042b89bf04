package engine

import (
	"context"
	"fmt"
	"time"

	"walkforward/types"
)

type candleStore interface {
	GetCandles(ctx context.Context, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error)
}

type DataFeed struct {
	Ticker   string
	Interval types.Interval
	Start    time.Time
	End      time.Time
}

// Load fetches the feed's candles and rejects series that are out of order
// or contain duplicate timestamps.
func (df DataFeed) Load(ctx context.Context, store candleStore) ([]types.Candle, error) {
	candles, err := store.GetCandles(ctx, df.Ticker, df.Interval, df.Start, df.End)
	if err != nil {
		return nil, fmt.Errorf("load %s candles: %w", df.Ticker, err)
	}
	if err := types.ValidateCandles(candles); err != nil {
		return nil, fmt.Errorf("load %s candles: %w", df.Ticker, err)
	}
	return candles, nil
}
