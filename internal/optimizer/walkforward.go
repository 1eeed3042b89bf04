package optimizer

import (
	"context"
	"errors"
	"fmt"

	"walkforward/internal/engine"
	"walkforward/types"
)

var ErrInvalidFoldCount = errors.New("fold count must be at least 1 and below the bar count")

// Fold is one expanding-window split. Train covers every bar before the
// test segment; only the test segment is simulated.
type Fold struct {
	Index      int
	TrainStart int
	TrainEnd   int
	TestStart  int
	TestEnd    int
}

func (f Fold) TestLen() int { return f.TestEnd - f.TestStart }

// SplitFolds divides n ordered bars into k test windows of n/(k+1) bars.
// Windows are contiguous, never overlap and end at the last bar, so any
// remainder from the division lands in the first training segment.
func SplitFolds(n, k int) ([]Fold, error) {
	if k < 1 {
		return nil, fmt.Errorf("%d folds: %w", k, ErrInvalidFoldCount)
	}
	size := n / (k + 1)
	if size < 1 {
		return nil, fmt.Errorf("%d folds over %d bars: %w", k, n, ErrInvalidFoldCount)
	}
	folds := make([]Fold, k)
	for i := range folds {
		start := n - (k-i)*size
		folds[i] = Fold{
			Index:      i,
			TrainStart: 0,
			TrainEnd:   start,
			TestStart:  start,
			TestEnd:    start + size,
		}
	}
	return folds, nil
}

// RunFolds simulates params on every fold's test segment. Each fold starts
// from the configured initial capital. ctx is checked between folds.
func RunFolds(ctx context.Context, candles []types.Candle, signals []types.CombinedSignal, folds []Fold, config engine.BacktestConfig, params types.StrategyParams) ([]*engine.Result, error) {
	if len(candles) != len(signals) {
		return nil, fmt.Errorf("%d candles, %d signals: %w", len(candles), len(signals), engine.ErrSignalLength)
	}
	results := make([]*engine.Result, 0, len(folds))
	for _, f := range folds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.TestStart < 0 || f.TestEnd > len(candles) || f.TestStart >= f.TestEnd {
			return nil, fmt.Errorf("fold %d [%d,%d) of %d bars: %w", f.Index, f.TestStart, f.TestEnd, len(candles), ErrInvalidFoldCount)
		}
		res, err := engine.Simulate(candles[f.TestStart:f.TestEnd], signals[f.TestStart:f.TestEnd], config, params)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", f.Index, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// foldScores pulls metric out of every fold result.
func foldScores(results []*engine.Result, metric string) []float64 {
	scores := make([]float64, len(results))
	for i, res := range results {
		scores[i] = res.Metrics[metric]
	}
	return scores
}

func meanScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
