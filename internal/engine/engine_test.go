package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"walkforward/types"
)

type mockStrategy struct {
	series []types.IndicatorSeries
	err    error
}

func (m mockStrategy) Signals(candles []types.Candle, params types.StrategyParams) ([]types.IndicatorSeries, error) {
	return m.series, m.err
}

type mockCandleStore struct {
	candles []types.Candle
	err     error
}

func (m mockCandleStore) GetCandles(ctx context.Context, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error) {
	return m.candles, m.err
}

func TestEngine_Prepare(t *testing.T) {
	cfg := mockConfig(t, "1000", "0")
	candles := mockCandles(100, 101, 102, 103)
	params := fixedParams(1, 0.1, 0.1)

	t.Run("drops warm-up", func(t *testing.T) {
		e := NewEngine(cfg, mockStrategy{series: []types.IndicatorSeries{series("rsi", warm, warm, buy, hold)}})
		aligned, signals, err := e.Prepare(candles, params)
		if err != nil {
			t.Fatalf("Prepare() error = %v", err)
		}
		if len(aligned) != 2 || len(signals) != 2 || !signals[0].Buy {
			t.Errorf("Prepare() = %d candles %+v", len(aligned), signals)
		}
	})

	t.Run("all warm-up", func(t *testing.T) {
		e := NewEngine(cfg, mockStrategy{series: []types.IndicatorSeries{series("rsi", warm, warm, warm, warm)}})
		if _, _, err := e.Prepare(candles, params); !errors.Is(err, types.ErrNoCandles) {
			t.Errorf("Prepare() error = %v, want ErrNoCandles", err)
		}
	})

	t.Run("strategy error", func(t *testing.T) {
		boom := errors.New("boom")
		e := NewEngine(cfg, mockStrategy{err: boom})
		if _, _, err := e.Prepare(candles, params); !errors.Is(err, boom) {
			t.Errorf("Prepare() error = %v, want boom", err)
		}
	})
}

func TestEngine_BacktestAndExport(t *testing.T) {
	cfg := mockConfig(t, "1000", "0")
	candles := mockCandles(100, 100, 120, 120)
	e := NewEngine(cfg, mockStrategy{series: []types.IndicatorSeries{series("rsi", warm, buy, hold, hold)}})

	result, err := e.Backtest(candles, fixedParams(1, 0.1, 0.1))
	if err != nil {
		t.Fatalf("Backtest() error = %v", err)
	}
	if result.NLongTrades != 1 || len(result.EquityCurve) != 4 {
		t.Fatalf("Backtest() trades = %d equity = %v", result.NLongTrades, result.EquityCurve)
	}
	if result.ClosedLongs[0].ExitReason != types.ExitTakeProfit {
		t.Errorf("exit = %s, want TAKE_PROFIT", result.ClosedLongs[0].ExitReason)
	}

	dir := t.TempDir()
	trades := filepath.Join(dir, "trades.csv")
	equity := filepath.Join(dir, "equity.csv")
	if err := e.Export(result, NewReportingConfig(trades, equity)); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	for path, wantLines := range map[string]int{trades: 2, equity: 5} {
		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if got := len(strings.Split(strings.TrimSpace(string(raw)), "\n")); got != wantLines {
			t.Errorf("%s has %d lines, want %d", filepath.Base(path), got, wantLines)
		}
	}
}

func TestDataFeed_Load(t *testing.T) {
	feed := DataFeed{Ticker: "AAPL", Interval: types.Hour, Start: testStart, End: testStart.Add(24 * time.Hour)}
	ordered := mockCandles(1, 2, 3)
	unordered := []types.Candle{ordered[1], ordered[0]}
	storeErr := errors.New("connection refused")

	tests := []struct {
		name    string
		store   mockCandleStore
		wantLen int
		wantErr error
	}{
		{"ordered", mockCandleStore{candles: ordered}, 3, nil},
		{"unordered", mockCandleStore{candles: unordered}, 0, types.ErrUnorderedCandles},
		{"empty", mockCandleStore{}, 0, types.ErrNoCandles},
		{"store failure", mockCandleStore{err: storeErr}, 0, storeErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := feed.Load(context.Background(), tt.store)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.wantLen {
				t.Errorf("Load() len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestNewBacktestConfig(t *testing.T) {
	tests := []struct {
		name       string
		capital    string
		commission string
		periods    float64
		wantErr    error
	}{
		{"valid", "1000", "0.001", 252, nil},
		{"zero capital", "0", "0.001", 252, ErrInvalidCapital},
		{"negative commission", "1000", "-0.1", 252, ErrInvalidCommission},
		{"full commission", "1000", "1", 252, ErrInvalidCommission},
		{"no periods", "1000", "0", 0, ErrInvalidPeriods},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBacktestConfig("AAPL", d(tt.capital), d(tt.commission), tt.periods)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewBacktestConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
