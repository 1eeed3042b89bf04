package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"walkforward/types"

	"github.com/shopspring/decimal"
)

// hourlyCandles returns n candles one hour apart with close = 100 + i.
func hourlyCandles(ticker string, start time.Time, n int) []types.Candle {
	candles := make([]types.Candle, n)
	for i := range candles {
		price := decimal.NewFromInt(int64(100 + i))
		candles[i] = types.Candle{
			Ticker:    ticker,
			Open:      price,
			High:      price.Add(decimal.NewFromFloat(0.5)),
			Low:       price.Sub(decimal.NewFromFloat(0.5)),
			Close:     price,
			Volume:    decimal.NewFromInt(1000),
			Interval:  types.Hour,
			Timestamp: start.Add(time.Duration(i) * time.Hour),
		}
	}
	return candles
}

func assertCandles(t *testing.T, got, want []types.Candle) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d candles, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Timestamp.Equal(want[i].Timestamp) {
			t.Errorf("candle %d timestamp = %s, want %s", i, got[i].Timestamp, want[i].Timestamp)
		}
		if !got[i].Close.Equal(want[i].Close) || !got[i].High.Equal(want[i].High) || !got[i].Low.Equal(want[i].Low) {
			t.Errorf("candle %d prices = %s/%s/%s, want %s/%s/%s", i,
				got[i].High, got[i].Low, got[i].Close, want[i].High, want[i].Low, want[i].Close)
		}
		if got[i].Interval != want[i].Interval {
			t.Errorf("candle %d interval = %s, want %s", i, got[i].Interval, want[i].Interval)
		}
	}
}

func TestOpen_UnknownSource(t *testing.T) {
	_, err := Open(context.Background(), Source("ftp"), "somewhere")
	if !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("Open() error = %v, want %v", err, ErrUnknownSource)
	}
}

func TestOpen_FileSources(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		source   Source
		location string
	}{
		{SourceParquet, dir},
		{SourceSQLite, filepath.Join(dir, "candles.db")},
		{SourceCSV, filepath.Join(dir, "candles.csv")},
	}
	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			store, err := Open(context.Background(), tt.source, tt.location)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if err := store.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}
}

func TestInRange(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	tests := []struct {
		name       string
		ts         time.Time
		start, end time.Time
		want       bool
	}{
		{"start is inclusive", start, start, end, true},
		{"end is exclusive", end, start, end, false},
		{"before start", start.Add(-time.Minute), start, end, false},
		{"open start", start.Add(-time.Hour), time.Time{}, end, true},
		{"open end", end.Add(time.Hour), start, time.Time{}, true},
		{"fully open", start, time.Time{}, time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inRange(tt.ts, tt.start, tt.end); got != tt.want {
				t.Errorf("inRange() = %v, want %v", got, tt.want)
			}
		})
	}
}
