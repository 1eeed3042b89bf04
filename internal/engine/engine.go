package engine

import (
	"walkforward/types"

	"github.com/rs/zerolog"
)

type strategy interface {
	Signals(candles []types.Candle, params types.StrategyParams) ([]types.IndicatorSeries, error)
}

// Engine ties a signal strategy to the simulation for one account config.
// It holds no run state and is safe to share between goroutines.
type Engine struct {
	config   BacktestConfig
	strategy strategy
	log      zerolog.Logger
}

func NewEngine(config BacktestConfig, strat strategy, opts ...Option) *Engine {
	o := buildOptions(opts)
	return &Engine{
		config:   config,
		strategy: strat,
		log:      o.log,
	}
}

func (e *Engine) Config() BacktestConfig { return e.config }

// Prepare computes the indicator votes for params and returns the candles
// that survive warm-up together with their combined signals.
func (e *Engine) Prepare(candles []types.Candle, params types.StrategyParams) ([]types.Candle, []types.CombinedSignal, error) {
	if len(candles) == 0 {
		return nil, nil, types.ErrNoCandles
	}
	series, err := e.strategy.Signals(candles, params)
	if err != nil {
		return nil, nil, err
	}
	aligned, signals, err := CombineSignals(candles, series, params.VoteThreshold)
	if err != nil {
		return nil, nil, err
	}
	if len(aligned) == 0 {
		return nil, nil, types.ErrNoCandles
	}
	return aligned, signals, nil
}

// Backtest runs params over the full candle range.
func (e *Engine) Backtest(candles []types.Candle, params types.StrategyParams) (*Result, error) {
	aligned, signals, err := e.Prepare(candles, params)
	if err != nil {
		return nil, err
	}
	e.log.Debug().
		Int("candles", len(candles)).
		Int("warmup_dropped", len(candles)-len(aligned)).
		Msg("signals prepared")
	return Simulate(aligned, signals, e.config, params, WithLogger(e.log))
}

// Export writes the trade and equity CSVs configured in rc.
func (e *Engine) Export(result *Result, rc ReportingConfig) error {
	if rc.tradesPath != "" {
		if err := writeTradesCSVFile(rc.tradesPath, result); err != nil {
			return err
		}
		e.log.Info().Str("path", rc.tradesPath).Msg("trades written")
	}
	if rc.equityPath != "" {
		if err := writeEquityCSVFile(rc.equityPath, result); err != nil {
			return err
		}
		e.log.Info().Str("path", rc.equityPath).Msg("equity curve written")
	}
	return nil
}
