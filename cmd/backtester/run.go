package main

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Backtest the configured strategy parameters",
	Long:  "Run a single backtest over the configured data range with the strategy parameters from the config file and print the report",
	Args:  cobra.NoArgs,
	RunE:  runBacktest,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	candles, err := a.loadCandles(cmd.Context())
	if err != nil {
		return err
	}
	return a.backtest(cmd, candles, a.cfg.Strategy)
}
