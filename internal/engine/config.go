package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCapital    = errors.New("initial capital must be positive")
	ErrInvalidCommission = errors.New("commission must be in [0,1)")
	ErrInvalidPeriods    = errors.New("periods per year must be positive")
)

// BacktestConfig holds the account settings of a run. It is built through
// NewBacktestConfig so an invalid config never reaches the simulation.
type BacktestConfig struct {
	ticker         string
	initialCapital decimal.Decimal
	commission     decimal.Decimal
	periodsPerYear float64
}

func NewBacktestConfig(ticker string, initialCapital, commission decimal.Decimal, periodsPerYear float64) (BacktestConfig, error) {
	cfg := BacktestConfig{
		ticker:         ticker,
		initialCapital: initialCapital,
		commission:     commission,
		periodsPerYear: periodsPerYear,
	}
	if err := cfg.Validate(); err != nil {
		return BacktestConfig{}, err
	}
	return cfg, nil
}

func (c BacktestConfig) Validate() error {
	if !c.initialCapital.IsPositive() {
		return fmt.Errorf("initial capital %s: %w", c.initialCapital, ErrInvalidCapital)
	}
	if c.commission.IsNegative() || c.commission.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("commission %s: %w", c.commission, ErrInvalidCommission)
	}
	if c.periodsPerYear <= 0 {
		return fmt.Errorf("periods per year %v: %w", c.periodsPerYear, ErrInvalidPeriods)
	}
	return nil
}

func (c BacktestConfig) Ticker() string                  { return c.ticker }
func (c BacktestConfig) InitialCapital() decimal.Decimal { return c.initialCapital }
func (c BacktestConfig) Commission() decimal.Decimal     { return c.commission }
func (c BacktestConfig) PeriodsPerYear() float64         { return c.periodsPerYear }

type ReportingConfig struct {
	tradesPath string
	equityPath string
}

// NewReportingConfig configures the CSV exports. An empty path disables
// that export.
func NewReportingConfig(tradesPath, equityPath string) ReportingConfig {
	return ReportingConfig{
		tradesPath: tradesPath,
		equityPath: equityPath,
	}
}
