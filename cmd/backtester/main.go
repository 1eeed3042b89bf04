package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"walkforward/internal/config"
	"walkforward/internal/engine"
	"walkforward/internal/logging"
	"walkforward/internal/repository"
	"walkforward/strategies/majority"
	"walkforward/types"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "backtester",
	Short:         "Majority-vote long/short backtester with walk-forward optimization",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "backtest.yaml", "Path to the YAML config file")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app is what every subcommand needs once the config is loaded.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	engine *engine.Engine
}

func setup() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	bc, err := cfg.BacktestConfig()
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:    cfg,
		log:    log,
		engine: engine.NewEngine(bc, majority.New(), engine.WithLogger(log)),
	}, nil
}

func (a *app) loadCandles(ctx context.Context) ([]types.Candle, error) {
	feed, err := a.cfg.Feed()
	if err != nil {
		return nil, err
	}
	store, err := repository.Open(ctx, a.cfg.Data.Source, a.cfg.Data.Location())
	if err != nil {
		return nil, err
	}
	defer store.Close()

	candles, err := feed.Load(ctx, store)
	if err != nil {
		return nil, err
	}
	a.log.Info().
		Str("ticker", feed.Ticker).
		Str("interval", string(feed.Interval)).
		Str("source", string(a.cfg.Data.Source)).
		Int("candles", len(candles)).
		Msg("candles loaded")
	return candles, nil
}

// backtest runs params over candles and prints and exports the result.
func (a *app) backtest(cmd *cobra.Command, candles []types.Candle, params types.StrategyParams) error {
	result, err := a.engine.Backtest(candles, params)
	if err != nil {
		return err
	}
	engine.PrintReport(cmd.OutOrStdout(), result.Report)
	return a.engine.Export(result, a.cfg.ReportingConfig())
}
