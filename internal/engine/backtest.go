package engine

import (
	"errors"
	"fmt"
	"time"

	"walkforward/types"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var ErrSignalLength = errors.New("signal count does not match candle count")

// Result is what a single run hands back for reporting and scoring.
type Result struct {
	Report         *Report
	Metrics        map[string]float64
	NLongTrades    int
	NShortTrades   int
	EquityCurve    []float64 // initial capital, then one sample per candle
	Timestamps     []time.Time
	FinalCapital   decimal.Decimal
	ClosedLongs    []Position
	ClosedShorts   []Position
	SkippedEntries int
}

type Option func(*options)

type options struct {
	log zerolog.Logger
}

func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

func buildOptions(opts []Option) options {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type backtester struct {
	config     BacktestConfig
	params     types.StrategyParams
	stopLoss   decimal.Decimal
	takeProfit decimal.Decimal
	fraction   decimal.Decimal
	fixedQty   decimal.Decimal
	portfolio  *portfolio
}

func newBacktester(config BacktestConfig, params types.StrategyParams, log zerolog.Logger) *backtester {
	return &backtester{
		config:     config,
		params:     params,
		stopLoss:   decimal.NewFromFloat(params.StopLoss),
		takeProfit: decimal.NewFromFloat(params.TakeProfit),
		fraction:   decimal.NewFromFloat(params.CapitalFraction),
		fixedQty:   decimal.NewFromFloat(params.FixedQuantity),
		portfolio:  newPortfolio(config.ticker, config.initialCapital, config.commission, log),
	}
}

// run walks the candles in order. Within a candle exits are settled before
// entries, so a position closed on this bar cannot be reopened by its signal.
func (b *backtester) run(candles []types.Candle, signals []types.CombinedSignal) error {
	for i, candle := range candles {
		if err := b.portfolio.processExits(candle); err != nil {
			return fmt.Errorf("exits at %s: %w", candle.Timestamp, err)
		}
		if signals[i].Buy {
			b.portfolio.open(types.SideLong, candle, b.quantity(candle.Close), b.stopLoss, b.takeProfit)
		}
		if signals[i].Sell {
			b.portfolio.open(types.SideShort, candle, b.quantity(candle.Close), b.stopLoss, b.takeProfit)
		}
		b.portfolio.recordEquity(candle.Close)
	}
	return b.portfolio.closeAll(candles[len(candles)-1])
}

func (b *backtester) quantity(price decimal.Decimal) decimal.Decimal {
	if b.params.Sizing == types.SizingFixed {
		return b.fixedQty
	}
	if !price.IsPositive() {
		return decimal.Zero
	}
	return b.fraction.Mul(b.portfolio.cash).Div(price)
}

// Simulate runs one backtest over candles that already carry a combined
// signal each. It never fails on a skipped entry; errors are reserved for
// invalid input.
func Simulate(candles []types.Candle, signals []types.CombinedSignal, config BacktestConfig, params types.StrategyParams, opts ...Option) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, types.ErrNoCandles
	}
	if len(candles) != len(signals) {
		return nil, fmt.Errorf("%d candles, %d signals: %w", len(candles), len(signals), ErrSignalLength)
	}
	o := buildOptions(opts)

	bt := newBacktester(config, params, o.log)
	if err := bt.run(candles, signals); err != nil {
		return nil, err
	}

	p := bt.portfolio
	timestamps := make([]time.Time, len(candles))
	for i, c := range candles {
		timestamps[i] = c.Timestamp
	}
	equity := p.equityCurve()
	report := GenerateReport(equity, p.closedLongs, p.closedShorts, config.initialCapital, p.cash, config.periodsPerYear)

	return &Result{
		Report:         report,
		Metrics:        report.Metrics(),
		NLongTrades:    p.longTrades,
		NShortTrades:   p.shortTrades,
		EquityCurve:    equity,
		Timestamps:     timestamps,
		FinalCapital:   p.cash,
		ClosedLongs:    p.closedLongs,
		ClosedShorts:   p.closedShorts,
		SkippedEntries: p.skipped,
	}, nil
}
