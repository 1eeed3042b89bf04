package engine

import (
	"errors"
	"reflect"
	"testing"

	"walkforward/types"
)

func series(name string, sigs ...types.IndicatorSignal) types.IndicatorSeries {
	return types.IndicatorSeries{Name: name, Signals: sigs}
}

var (
	warm = types.IndicatorSignal{}
	buy  = types.IndicatorSignal{Buy: true, Valid: true}
	sell = types.IndicatorSignal{Sell: true, Valid: true}
	hold = types.IndicatorSignal{Valid: true}
)

func TestCombineSignals(t *testing.T) {
	candles := mockCandles(1, 2, 3, 4)
	tests := []struct {
		name        string
		series      []types.IndicatorSeries
		threshold   int
		wantCandles int
		want        []types.CombinedSignal
		wantErr     error
	}{
		{
			name: "majority of three",
			series: []types.IndicatorSeries{
				series("rsi", buy, buy, sell, hold),
				series("ema", buy, hold, sell, sell),
				series("macd", hold, hold, buy, sell),
			},
			threshold:   2,
			wantCandles: 4,
			want: []types.CombinedSignal{
				{Buy: true}, {}, {Sell: true}, {Sell: true},
			},
		},
		{
			name: "threshold one lets buy and sell coexist",
			series: []types.IndicatorSeries{
				series("rsi", buy, hold, hold, hold),
				series("ema", sell, hold, hold, hold),
			},
			threshold:   1,
			wantCandles: 4,
			want:        []types.CombinedSignal{{Buy: true, Sell: true}, {}, {}, {}},
		},
		{
			name: "warm-up rows dropped",
			series: []types.IndicatorSeries{
				series("rsi", warm, warm, buy, buy),
				series("ema", warm, buy, buy, hold),
			},
			threshold:   2,
			wantCandles: 2,
			want:        []types.CombinedSignal{{Buy: true}, {}},
		},
		{
			name:      "no indicators",
			threshold: 1,
			wantErr:   ErrNoIndicators,
		},
		{
			name:      "threshold above count",
			series:    []types.IndicatorSeries{series("rsi", buy, buy, buy, buy)},
			threshold: 2,
			wantErr:   ErrInvalidThreshold,
		},
		{
			name:      "threshold zero",
			series:    []types.IndicatorSeries{series("rsi", buy, buy, buy, buy)},
			threshold: 0,
			wantErr:   ErrInvalidThreshold,
		},
		{
			name:      "short series",
			series:    []types.IndicatorSeries{series("rsi", buy)},
			threshold: 1,
			wantErr:   ErrSeriesLength,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotCandles, got, err := CombineSignals(candles, tt.series, tt.threshold)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CombineSignals() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if len(gotCandles) != tt.wantCandles || len(got) != tt.wantCandles {
				t.Fatalf("got %d candles %d signals, want %d", len(gotCandles), len(got), tt.wantCandles)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CombineSignals() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCombineSignals_KeepsCandleAlignment(t *testing.T) {
	candles := mockCandles(10, 20, 30)
	aligned, _, err := CombineSignals(candles, []types.IndicatorSeries{series("rsi", warm, hold, hold)}, 1)
	if err != nil {
		t.Fatalf("CombineSignals() error = %v", err)
	}
	if !aligned[0].Timestamp.Equal(candles[1].Timestamp) {
		t.Errorf("first aligned candle = %s, want %s", aligned[0].Timestamp, candles[1].Timestamp)
	}
}
