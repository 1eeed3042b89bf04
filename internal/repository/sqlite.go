package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"walkforward/types"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const createCandlesTable = `
CREATE TABLE IF NOT EXISTS candles (
	ticker   TEXT    NOT NULL,
	interval TEXT    NOT NULL,
	ts       INTEGER NOT NULL,
	open     TEXT    NOT NULL,
	high     TEXT    NOT NULL,
	low      TEXT    NOT NULL,
	close    TEXT    NOT NULL,
	volume   TEXT    NOT NULL,
	PRIMARY KEY (ticker, interval, ts)
)`

const upsertCandle = `
INSERT OR REPLACE INTO candles (ticker, interval, ts, open, high, low, close, volume)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

const selectCandles = `
SELECT ts, open, high, low, close, volume
FROM candles
WHERE ticker = ? AND interval = ? AND ts >= ? AND ts < ?
ORDER BY ts`

// SQLiteStore keeps candles in a single SQLite file. Prices are stored as
// decimal strings so they round-trip exactly.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, createCandlesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating candles table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) WriteCandles(ctx context.Context, candles []types.Candle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertCandle)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err := stmt.ExecContext(ctx,
			strings.ToUpper(c.Ticker), string(c.Interval), c.Timestamp.UnixMilli(),
			c.Open.String(), c.High.String(), c.Low.String(), c.Close.String(), c.Volume.String(),
		)
		if err != nil {
			return fmt.Errorf("writing candle %s %s: %w", c.Ticker, c.Timestamp.Format(time.RFC3339), err)
		}
	}
	return tx.Commit()
}

// GetCandles returns candles in [start, end) ordered by time. Zero bounds are
// open.
func (s *SQLiteStore) GetCandles(ctx context.Context, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error) {
	lo, hi := int64(-1<<63), int64(1<<63-1)
	if !start.IsZero() {
		lo = start.UnixMilli()
	}
	if !end.IsZero() {
		hi = end.UnixMilli()
	}

	rows, err := s.db.QueryContext(ctx, selectCandles, strings.ToUpper(ticker), string(interval), lo, hi)
	if err != nil {
		return nil, fmt.Errorf("querying candles: %w", err)
	}
	defer rows.Close()

	var candles []types.Candle
	for rows.Next() {
		var (
			ts     int64
			fields [5]string
		)
		if err := rows.Scan(&ts, &fields[0], &fields[1], &fields[2], &fields[3], &fields[4]); err != nil {
			return nil, err
		}
		var values [5]decimal.Decimal
		for i, f := range fields {
			if values[i], err = decimal.NewFromString(f); err != nil {
				return nil, fmt.Errorf("parsing stored price %q: %w", f, err)
			}
		}
		candles = append(candles, types.Candle{
			Ticker:    ticker,
			Open:      values[0],
			High:      values[1],
			Low:       values[2],
			Close:     values[3],
			Volume:    values[4],
			Interval:  interval,
			Timestamp: time.UnixMilli(ts).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s %s: %w", ticker, interval, ErrNoCandles)
	}
	return candles, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
