package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"walkforward/types"

	"github.com/shopspring/decimal"
)

var ErrMissingColumn = errors.New("missing csv column")

var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CSVStore reads candles from a single file with a header row of
// Datetime,Open,High,Low,Close and an optional Volume column. Other columns
// are ignored. The file holds one ticker; rows are returned as the
// requested ticker and interval, in file order.
type CSVStore struct {
	path string
}

func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

func (s *CSVStore) GetCandles(ctx context.Context, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open candles file: %w", err)
	}
	defer f.Close()

	candles, err := ReadCandlesCSV(ctx, f, ticker, interval)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	out := candles[:0]
	for _, c := range candles {
		if inRange(c.Timestamp, start, end) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoCandles
	}
	return out, nil
}

func (s *CSVStore) Close() error { return nil }

// ReadCandlesCSV parses every row of r. Column names match case
// insensitively.
func ReadCandlesCSV(ctx context.Context, r io.Reader, ticker string, interval types.Interval) ([]types.Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	idx := func(names ...string) (int, error) {
		for _, name := range names {
			if i, ok := cols[name]; ok {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%s: %w", names[0], ErrMissingColumn)
	}

	var pos [5]int
	for i, names := range [][]string{{"datetime", "date", "timestamp"}, {"open"}, {"high"}, {"low"}, {"close"}} {
		if pos[i], err = idx(names...); err != nil {
			return nil, err
		}
	}
	volumeCol, _ := idx("volume")

	var candles []types.Candle
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		c, err := parseCandleRecord(record, pos, volumeCol)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		c.Ticker = ticker
		c.Interval = interval
		candles = append(candles, c)
	}
	return candles, nil
}

func parseCandleRecord(record []string, pos [5]int, volumeCol int) (types.Candle, error) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	ts, err := parseTime(field(pos[0]))
	if err != nil {
		return types.Candle{}, err
	}
	var prices [4]decimal.Decimal
	for i := range prices {
		if prices[i], err = decimal.NewFromString(field(pos[i+1])); err != nil {
			return types.Candle{}, fmt.Errorf("column %d: %w", pos[i+1]+1, err)
		}
	}
	volume := decimal.Zero
	if v := field(volumeCol); v != "" {
		if volume, err = decimal.NewFromString(v); err != nil {
			return types.Candle{}, fmt.Errorf("volume: %w", err)
		}
	}
	return types.Candle{
		Open:      prices[0],
		High:      prices[1],
		Low:       prices[2],
		Close:     prices[3],
		Volume:    volume,
		Timestamp: ts,
	}, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range csvTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", s)
}
