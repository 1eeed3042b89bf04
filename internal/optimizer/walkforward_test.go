package optimizer

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"walkforward/internal/engine"
	"walkforward/types"

	"github.com/shopspring/decimal"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func mockCandles(n int) []types.Candle {
	out := make([]types.Candle, n)
	for i := range out {
		price := decimal.NewFromInt(int64(100 + i%7 + i/5))
		out[i] = types.Candle{
			Ticker:    "AAPL",
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Interval:  types.Hour,
			Timestamp: testStart.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func alternatingSignals(n int) []types.CombinedSignal {
	out := make([]types.CombinedSignal, n)
	for i := range out {
		out[i] = types.CombinedSignal{Buy: i%2 == 0, Sell: i%3 == 0}
	}
	return out
}

func mockConfig(t *testing.T) engine.BacktestConfig {
	t.Helper()
	cfg, err := engine.NewBacktestConfig("AAPL", decimal.NewFromInt(10000), decimal.RequireFromString("0.001"), 24*365)
	if err != nil {
		t.Fatalf("NewBacktestConfig() error = %v", err)
	}
	return cfg
}

func TestSplitFolds(t *testing.T) {
	tests := []struct {
		name    string
		n, k    int
		want    [][2]int
		wantErr error
	}{
		{"even", 10, 4, [][2]int{{2, 4}, {4, 6}, {6, 8}, {8, 10}}, nil},
		{"remainder goes to training", 11, 2, [][2]int{{5, 8}, {8, 11}}, nil},
		{"single fold", 5, 1, [][2]int{{3, 5}}, nil},
		{"zero folds", 10, 0, nil, ErrInvalidFoldCount},
		{"too many folds", 3, 3, nil, ErrInvalidFoldCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			folds, err := SplitFolds(tt.n, tt.k)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SplitFolds() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(folds) != len(tt.want) {
				t.Fatalf("SplitFolds() = %d folds, want %d", len(folds), len(tt.want))
			}
			for i, f := range folds {
				if f.TestStart != tt.want[i][0] || f.TestEnd != tt.want[i][1] {
					t.Errorf("fold %d = [%d,%d), want %v", i, f.TestStart, f.TestEnd, tt.want[i])
				}
				if f.TrainStart != 0 || f.TrainEnd != f.TestStart {
					t.Errorf("fold %d train = [%d,%d), want [0,%d)", i, f.TrainStart, f.TrainEnd, f.TestStart)
				}
				if i > 0 && folds[i-1].TestEnd != f.TestStart {
					t.Errorf("fold %d does not follow fold %d", i, i-1)
				}
			}
		})
	}
}

func TestRunFolds_FoldsAreIndependent(t *testing.T) {
	candles := mockCandles(90)
	signals := alternatingSignals(len(candles))
	cfg := mockConfig(t)
	params := types.DefaultStrategyParams()
	params.StopLoss, params.TakeProfit = 0.02, 0.03

	folds, err := SplitFolds(len(candles), 3)
	if err != nil {
		t.Fatalf("SplitFolds() error = %v", err)
	}
	results, err := RunFolds(context.Background(), candles, signals, folds, cfg, params)
	if err != nil {
		t.Fatalf("RunFolds() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("RunFolds() = %d results, want 3", len(results))
	}
	for i, res := range results {
		if res.EquityCurve[0] != 10000 {
			t.Errorf("fold %d starts at %v, want initial capital", i, res.EquityCurve[0])
		}
		if len(res.EquityCurve) != folds[i].TestLen()+1 {
			t.Errorf("fold %d equity len = %d, want %d", i, len(res.EquityCurve), folds[i].TestLen()+1)
		}
	}

	// the last fold alone gives the same result
	last := folds[2]
	alone, err := engine.Simulate(candles[last.TestStart:last.TestEnd], signals[last.TestStart:last.TestEnd], cfg, params)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if !reflect.DeepEqual(alone.EquityCurve, results[2].EquityCurve) {
		t.Errorf("last fold depends on earlier folds")
	}

	// moving prices inside fold 0 leaves fold 1 untouched
	moved := append([]types.Candle(nil), candles...)
	for i := folds[0].TestStart; i < folds[0].TestEnd; i++ {
		moved[i].Close = moved[i].Close.Mul(decimal.NewFromFloat(1.3))
	}
	again, err := RunFolds(context.Background(), moved, signals, folds, cfg, params)
	if err != nil {
		t.Fatalf("RunFolds() error = %v", err)
	}
	if !reflect.DeepEqual(again[1].EquityCurve, results[1].EquityCurve) {
		t.Errorf("fold 1 changed when only fold 0 prices moved")
	}
}

func TestRunFolds_Errors(t *testing.T) {
	candles := mockCandles(10)
	cfg := mockConfig(t)
	params := types.DefaultStrategyParams()
	folds, _ := SplitFolds(10, 2)

	if _, err := RunFolds(context.Background(), candles, alternatingSignals(9), folds, cfg, params); !errors.Is(err, engine.ErrSignalLength) {
		t.Errorf("RunFolds() error = %v, want ErrSignalLength", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RunFolds(ctx, candles, alternatingSignals(10), folds, cfg, params); !errors.Is(err, context.Canceled) {
		t.Errorf("RunFolds() error = %v, want context.Canceled", err)
	}

	bad := []Fold{{Index: 0, TestStart: 5, TestEnd: 20}}
	if _, err := RunFolds(context.Background(), candles, alternatingSignals(10), bad, cfg, params); !errors.Is(err, ErrInvalidFoldCount) {
		t.Errorf("RunFolds() error = %v, want ErrInvalidFoldCount", err)
	}
}

func TestMeanScore(t *testing.T) {
	if got := meanScore(nil); got != 0 {
		t.Errorf("meanScore(nil) = %v, want 0", got)
	}
	if got := meanScore([]float64{1, 2, 6}); got != 3 {
		t.Errorf("meanScore() = %v, want 3", got)
	}
}
