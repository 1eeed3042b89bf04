package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"walkforward/internal/engine"
	"walkforward/types"

	"github.com/shopspring/decimal"
)

const orderedCSV = `Datetime,Open,High,Low,Close,Volume
2024-01-01 00:00:00+00:00,100,101,99,100.5,100
2024-01-01 01:00:00+00:00,101,102,100,101.5,200
2024-01-01 02:00:00+00:00,102,103,101,102.5,300
`

const sampleCSV = `Datetime,Open,High,Low,Close,Adj Close,Volume
2024-01-01 02:00:00+00:00,102,103,101,102.5,102.5,300
2024-01-01 00:00:00+00:00,100,101,99,100.5,100.5,100
2024-01-01 01:00:00+00:00,101,102,100,101.5,101.5,200
`

func TestReadCandlesCSV(t *testing.T) {
	got, err := ReadCandlesCSV(context.Background(), strings.NewReader(sampleCSV), "AAPL", types.Hour)
	if err != nil {
		t.Fatalf("ReadCandlesCSV() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ReadCandlesCSV() len = %d, want 3", len(got))
	}
	first := got[0]
	if !first.Timestamp.Equal(time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %s", first.Timestamp)
	}
	if !first.Close.Equal(decimal.RequireFromString("102.5")) || !first.Volume.Equal(decimal.NewFromInt(300)) {
		t.Errorf("close/volume = %s/%s", first.Close, first.Volume)
	}
	if first.Ticker != "AAPL" || first.Interval != types.Hour {
		t.Errorf("ticker/interval = %s/%s", first.Ticker, first.Interval)
	}
}

func TestReadCandlesCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"missing close column", "Date,Open,High,Low\n2024-01-01,1,2,0\n", ErrMissingColumn},
		{"bad price", "Date,Open,High,Low,Close\n2024-01-01,1,2,0,abc\n", nil},
		{"bad datetime", "Date,Open,High,Low,Close\nyesterday,1,2,0,1\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCandlesCSV(context.Background(), strings.NewReader(tt.input), "X", types.Day)
			if err == nil {
				t.Fatal("ReadCandlesCSV() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ReadCandlesCSV() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aapl.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCSVStore_GetCandles(t *testing.T) {
	store := NewCSVStore(writeCSV(t, orderedCSV))
	ctx := context.Background()

	got, err := store.GetCandles(ctx, "AAPL", types.Hour, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("GetCandles() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("GetCandles() len = %d, want 3", len(got))
	}

	start := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	got, err = store.GetCandles(ctx, "AAPL", types.Hour, start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetCandles() ranged error = %v", err)
	}
	if len(got) != 1 || !got[0].Close.Equal(decimal.RequireFromString("101.5")) {
		t.Errorf("GetCandles() ranged = %v", got)
	}

	_, err = store.GetCandles(ctx, "AAPL", types.Hour, start.AddDate(1, 0, 0), time.Time{})
	if !errors.Is(err, ErrNoCandles) {
		t.Errorf("GetCandles() error = %v, want %v", err, ErrNoCandles)
	}
}

func TestCSVStore_KeepsFileOrder(t *testing.T) {
	store := NewCSVStore(writeCSV(t, sampleCSV))

	got, err := store.GetCandles(context.Background(), "AAPL", types.Hour, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("GetCandles() error = %v", err)
	}
	if want := time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC); !got[0].Timestamp.Equal(want) {
		t.Errorf("GetCandles() first timestamp = %s, want %s", got[0].Timestamp, want)
	}

	feed := engine.DataFeed{Ticker: "AAPL", Interval: types.Hour}
	if _, err := feed.Load(context.Background(), store); !errors.Is(err, types.ErrUnorderedCandles) {
		t.Errorf("DataFeed.Load() error = %v, want %v", err, types.ErrUnorderedCandles)
	}
}
