package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"walkforward/types"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
)

// ParquetStore keeps candles in Parquet files on disk, one file per ticker,
// interval and year:
//
//	<dir>/<interval>/<TICKER>/<YYYY>.parquet
type ParquetStore struct {
	dir string
}

func NewParquetStore(dir string) *ParquetStore {
	return &ParquetStore{dir: dir}
}

// candleRecord is the on-disk schema.
type candleRecord struct {
	Ticker    string  `parquet:"ticker"`
	Interval  string  `parquet:"interval"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

func (s *ParquetStore) tickerDir(ticker string, interval types.Interval) string {
	return filepath.Join(s.dir, string(interval), strings.ToUpper(ticker))
}

// WriteCandles merges candles into the year files they belong to. A candle
// with the timestamp of a stored one replaces it.
func (s *ParquetStore) WriteCandles(_ context.Context, candles []types.Candle) error {
	type key struct {
		ticker   string
		interval types.Interval
		year     int
	}
	groups := make(map[key][]candleRecord)
	for _, c := range candles {
		k := key{ticker: c.Ticker, interval: c.Interval, year: c.Timestamp.UTC().Year()}
		groups[k] = append(groups[k], candleRecord{
			Ticker:    c.Ticker,
			Interval:  string(c.Interval),
			Timestamp: c.Timestamp.UnixMilli(),
			Open:      c.Open.InexactFloat64(),
			High:      c.High.InexactFloat64(),
			Low:       c.Low.InexactFloat64(),
			Close:     c.Close.InexactFloat64(),
			Volume:    c.Volume.InexactFloat64(),
		})
	}

	for k, records := range groups {
		path := filepath.Join(s.tickerDir(k.ticker, k.interval), strconv.Itoa(k.year)+".parquet")

		existing, err := readParquetFile[candleRecord](path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := writeParquetFile(path, mergeCandleRecords(existing, records)); err != nil {
			return fmt.Errorf("writing candles for %s/%d: %w", k.ticker, k.year, err)
		}
	}
	return nil
}

// GetCandles reads the year files overlapping [start, end). Zero bounds
// read every year on disk.
func (s *ParquetStore) GetCandles(_ context.Context, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error) {
	dir := s.tickerDir(ticker, interval)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s %s: %w", ticker, interval, ErrNoCandles)
		}
		return nil, err
	}

	var candles []types.Candle
	for _, e := range entries {
		year, err := strconv.Atoi(strings.TrimSuffix(e.Name(), ".parquet"))
		if err != nil || e.IsDir() {
			continue
		}
		if (!start.IsZero() && year < start.UTC().Year()) || (!end.IsZero() && year > end.UTC().Year()) {
			continue
		}
		records, err := readParquetFile[candleRecord](filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if !inRange(ts, start, end) {
				continue
			}
			candles = append(candles, types.Candle{
				Ticker:    r.Ticker,
				Open:      decimal.NewFromFloat(r.Open),
				High:      decimal.NewFromFloat(r.High),
				Low:       decimal.NewFromFloat(r.Low),
				Close:     decimal.NewFromFloat(r.Close),
				Volume:    decimal.NewFromFloat(r.Volume),
				Interval:  interval,
				Timestamp: ts,
			})
		}
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s %s: %w", ticker, interval, ErrNoCandles)
	}
	sortCandles(candles)
	return candles, nil
}

func (s *ParquetStore) Close() error { return nil }

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeCandleRecords deduplicates by timestamp, preferring incoming records.
func mergeCandleRecords(existing, incoming []candleRecord) []candleRecord {
	seen := make(map[int64]candleRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}

	merged := make([]candleRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
