package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"walkforward/types"
)

func TestParquetStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewParquetStore(t.TempDir())
	start := time.Date(2023, 12, 31, 22, 0, 0, 0, time.UTC)
	candles := hourlyCandles("aapl", start, 6)

	if err := store.WriteCandles(ctx, candles); err != nil {
		t.Fatalf("WriteCandles() error = %v", err)
	}
	for _, year := range []string{"2023", "2024"} {
		path := filepath.Join(store.dir, string(types.Hour), "AAPL", year+".parquet")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected year file %s: %v", path, err)
		}
	}

	got, err := store.GetCandles(ctx, "aapl", types.Hour, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("GetCandles() error = %v", err)
	}
	assertCandles(t, got, candles)

	got, err = store.GetCandles(ctx, "aapl", types.Hour, candles[1].Timestamp, candles[4].Timestamp)
	if err != nil {
		t.Fatalf("GetCandles() ranged error = %v", err)
	}
	assertCandles(t, got, candles[1:4])
}

func TestParquetStore_WriteMerges(t *testing.T) {
	ctx := context.Background()
	store := NewParquetStore(t.TempDir())
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := hourlyCandles("MSFT", start, 5)

	if err := store.WriteCandles(ctx, candles[:3]); err != nil {
		t.Fatalf("WriteCandles() error = %v", err)
	}
	if err := store.WriteCandles(ctx, candles[2:]); err != nil {
		t.Fatalf("WriteCandles() error = %v", err)
	}

	got, err := store.GetCandles(ctx, "MSFT", types.Hour, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("GetCandles() error = %v", err)
	}
	assertCandles(t, got, candles)
}

func TestParquetStore_Missing(t *testing.T) {
	store := NewParquetStore(t.TempDir())
	_, err := store.GetCandles(context.Background(), "NONE", types.Hour, time.Time{}, time.Time{})
	if !errors.Is(err, ErrNoCandles) {
		t.Fatalf("GetCandles() error = %v, want %v", err, ErrNoCandles)
	}
}
