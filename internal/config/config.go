package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"walkforward/internal/engine"
	"walkforward/internal/optimizer"
	"walkforward/internal/repository"
	"walkforward/types"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// Config is the top-level configuration of a backtester invocation.
type Config struct {
	Backtest     Backtest             `yaml:"backtest"`
	Data         Data                 `yaml:"data"`
	Strategy     types.StrategyParams `yaml:"strategy"`
	Optimization Optimization         `yaml:"optimization"`
	Reporting    Reporting            `yaml:"reporting"`
	Logging      Logging              `yaml:"logging"`
}

// Money is a decimal amount that decodes from a YAML scalar without a float
// round trip.
type Money struct {
	decimal.Decimal
}

func (m *Money) UnmarshalYAML(value *yaml.Node) error {
	d, err := decimal.NewFromString(strings.TrimSpace(value.Value))
	if err != nil {
		return fmt.Errorf("line %d: %q is not a decimal: %w", value.Line, value.Value, err)
	}
	m.Decimal = d
	return nil
}

type Backtest struct {
	InitialCapital Money `yaml:"initial_capital"`
	Commission     Money `yaml:"commission"`
	// PeriodsPerYear overrides the value derived from the data interval.
	PeriodsPerYear float64 `yaml:"periods_per_year"`
}

type Data struct {
	Source      repository.Source `yaml:"source"`
	Ticker      string            `yaml:"ticker"`
	Interval    string            `yaml:"interval"`
	Start       string            `yaml:"start"`
	End         string            `yaml:"end"`
	Path        string            `yaml:"path"`
	DatabaseURL string            `yaml:"database_url"`
}

type Optimization struct {
	Trials       int                   `yaml:"trials"`
	Folds        int                   `yaml:"folds"`
	Metric       string                `yaml:"metric"`
	Direction    optimizer.Direction   `yaml:"direction"`
	Sampler      optimizer.SamplerKind `yaml:"sampler"`
	Workers      int                   `yaml:"workers"`
	Seed         int64                 `yaml:"seed"`
	TrialTimeout time.Duration         `yaml:"trial_timeout"`
	Progress     bool                  `yaml:"progress"`
	Top          int                   `yaml:"top"`
}

type Reporting struct {
	TradesPath string `yaml:"trades_path"`
	EquityPath string `yaml:"equity_path"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default is the configuration used for any field the file leaves out.
func Default() *Config {
	return &Config{
		Backtest: Backtest{
			InitialCapital: Money{decimal.NewFromInt(1_000_000)},
			Commission:     Money{decimal.RequireFromString("0.00125")},
		},
		Data: Data{
			Source:   repository.SourceCSV,
			Interval: "5m",
		},
		Strategy: types.DefaultStrategyParams(),
		Optimization: Optimization{
			Trials:    50,
			Folds:     5,
			Metric:    engine.MetricSharpe,
			Direction: optimizer.Maximize,
			Sampler:   optimizer.SamplerEvolution,
			Seed:      1,
			Progress:  true,
			Top:       5,
		},
		Logging: Logging{Level: "info", Format: "console"},
	}
}

// Load reads a .env file if one exists, decodes the YAML file at path over
// the defaults, applies environment overrides and validates the result.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("BACKTEST_DATABASE_URL"); v != "" {
		cfg.Data.DatabaseURL = v
	}
	if v := os.Getenv("BACKTEST_DATA_PATH"); v != "" {
		cfg.Data.Path = v
	}
	if v := os.Getenv("BACKTEST_DATA_SOURCE"); v != "" {
		cfg.Data.Source = repository.Source(v)
	}
	if v := os.Getenv("BACKTEST_TICKER"); v != "" {
		cfg.Data.Ticker = v
	}
	if v := os.Getenv("BACKTEST_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BACKTEST_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BACKTEST_WORKERS=%q: %w", v, ErrInvalidConfig)
		}
		cfg.Optimization.Workers = n
	}
	return nil
}

// Validate fails on the first field that would make a run impossible.
func (c *Config) Validate() error {
	if _, err := c.BacktestConfig(); err != nil {
		return err
	}
	if _, err := c.Feed(); err != nil {
		return err
	}
	if c.Data.Location() == "" {
		return fmt.Errorf("data source %s has no location: %w", c.Data.Source, ErrInvalidConfig)
	}
	if err := c.Strategy.Validate(); err != nil {
		return err
	}

	o := c.Optimization
	if o.Trials < 1 {
		return fmt.Errorf("optimization trials %d: %w", o.Trials, ErrInvalidConfig)
	}
	if o.Folds < 1 {
		return fmt.Errorf("optimization folds %d: %w", o.Folds, ErrInvalidConfig)
	}
	if !engine.IsMetric(o.Metric) {
		return fmt.Errorf("optimization metric %q: %w", o.Metric, ErrInvalidConfig)
	}
	if o.Direction != optimizer.Maximize && o.Direction != optimizer.Minimize {
		return fmt.Errorf("optimization direction %q: %w", o.Direction, ErrInvalidConfig)
	}
	if o.Sampler != optimizer.SamplerRandom && o.Sampler != optimizer.SamplerEvolution {
		return fmt.Errorf("optimization sampler %q: %w", o.Sampler, ErrInvalidConfig)
	}
	if o.Workers < 0 || o.TrialTimeout < 0 {
		return fmt.Errorf("optimization workers/timeout must not be negative: %w", ErrInvalidConfig)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging format %q: %w", c.Logging.Format, ErrInvalidConfig)
	}
	return nil
}

// BacktestConfig builds the account settings. The annualization constant
// comes from the data interval unless set explicitly.
func (c *Config) BacktestConfig() (engine.BacktestConfig, error) {
	ppy := c.Backtest.PeriodsPerYear
	if ppy == 0 {
		interval, err := types.ParseInterval(c.Data.Interval)
		if err != nil {
			return engine.BacktestConfig{}, err
		}
		if ppy, err = interval.PeriodsPerYear(); err != nil {
			return engine.BacktestConfig{}, err
		}
	}
	return engine.NewBacktestConfig(c.Data.Ticker, c.Backtest.InitialCapital.Decimal, c.Backtest.Commission.Decimal, ppy)
}

// Feed describes the candles to load.
func (c *Config) Feed() (engine.DataFeed, error) {
	if c.Data.Ticker == "" {
		return engine.DataFeed{}, fmt.Errorf("data ticker is empty: %w", ErrInvalidConfig)
	}
	interval, err := types.ParseInterval(c.Data.Interval)
	if err != nil {
		return engine.DataFeed{}, err
	}
	start, err := parseDate(c.Data.Start)
	if err != nil {
		return engine.DataFeed{}, fmt.Errorf("data start: %w", err)
	}
	end, err := parseDate(c.Data.End)
	if err != nil {
		return engine.DataFeed{}, fmt.Errorf("data end: %w", err)
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		return engine.DataFeed{}, fmt.Errorf("data start %s is not before end %s: %w", c.Data.Start, c.Data.End, ErrInvalidConfig)
	}
	return engine.DataFeed{
		Ticker:   c.Data.Ticker,
		Interval: interval,
		Start:    start,
		End:      end,
	}, nil
}

func (c *Config) ReportingConfig() engine.ReportingConfig {
	return engine.NewReportingConfig(c.Reporting.TradesPath, c.Reporting.EquityPath)
}

// Location is the database URL for postgres and the file or directory path
// for every other source.
func (d Data) Location() string {
	if d.Source == repository.SourcePostgres {
		return d.DatabaseURL
	}
	return d.Path
}

// parseDate accepts an empty string as an open bound.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a date: %w", s, ErrInvalidConfig)
}
