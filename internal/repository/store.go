package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"walkforward/types"
)

var ErrUnknownSource = errors.New("unknown data source")

// CandleStore is a read side source of candles for one ticker and interval.
type CandleStore interface {
	GetCandles(ctx context.Context, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error)
	Close() error
}

// CandleWriter is implemented by stores that can be filled from another
// source.
type CandleWriter interface {
	WriteCandles(ctx context.Context, candles []types.Candle) error
}

type Source string

const (
	SourcePostgres Source = "postgres"
	SourceParquet  Source = "parquet"
	SourceSQLite   Source = "sqlite"
	SourceCSV      Source = "csv"
)

// Compile-time interface checks.
var (
	_ CandleStore  = (*Database)(nil)
	_ CandleStore  = (*ParquetStore)(nil)
	_ CandleStore  = (*SQLiteStore)(nil)
	_ CandleStore  = (*CSVStore)(nil)
	_ CandleWriter = (*ParquetStore)(nil)
	_ CandleWriter = (*SQLiteStore)(nil)
)

// Open connects to the store for source. location is a database URL for
// postgres, a directory for parquet and a file path otherwise.
func Open(ctx context.Context, source Source, location string) (CandleStore, error) {
	switch source {
	case SourcePostgres:
		db, err := NewDatabase(ctx, location)
		if err != nil {
			return nil, err
		}
		return db, nil
	case SourceParquet:
		return NewParquetStore(location), nil
	case SourceSQLite:
		st, err := NewSQLiteStore(ctx, location)
		if err != nil {
			return nil, err
		}
		return st, nil
	case SourceCSV:
		return NewCSVStore(location), nil
	default:
		return nil, fmt.Errorf("%q: %w", source, ErrUnknownSource)
	}
}

// inRange treats a zero bound as open. start is inclusive, end exclusive,
// matching the Postgres query.
func inRange(ts, start, end time.Time) bool {
	if !start.IsZero() && ts.Before(start) {
		return false
	}
	if !end.IsZero() && !ts.Before(end) {
		return false
	}
	return true
}

func sortCandles(candles []types.Candle) {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
}
