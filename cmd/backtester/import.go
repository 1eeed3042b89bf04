package main

import (
	"fmt"
	"os"

	"walkforward/internal/repository"
	"walkforward/types"

	"github.com/spf13/cobra"
)

var (
	importTicker   string
	importInterval string
	importTarget   string
	importLocation string
)

var importCmd = &cobra.Command{
	Use:   "import [csv file]",
	Short: "Copy candles from a CSV file into a parquet or sqlite store",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().StringVar(&importTicker, "ticker", "", "Ticker the file holds (required)")
	importCmd.Flags().StringVar(&importInterval, "interval", "5m", "Candle interval of the file")
	importCmd.Flags().StringVar(&importTarget, "to", string(repository.SourceParquet), "Target store: parquet or sqlite")
	importCmd.Flags().StringVar(&importLocation, "location", "", "Target directory (parquet) or database file (sqlite) (required)")

	importCmd.MarkFlagRequired("ticker")
	importCmd.MarkFlagRequired("location")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	interval, err := types.ParseInterval(importInterval)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	candles, err := repository.ReadCandlesCSV(ctx, f, importTicker, interval)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	store, err := repository.Open(ctx, repository.Source(importTarget), importLocation)
	if err != nil {
		return err
	}
	defer store.Close()

	writer, ok := store.(repository.CandleWriter)
	if !ok {
		return fmt.Errorf("store %q is read only", importTarget)
	}
	if err := writer.WriteCandles(ctx, candles); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d %s candles into %s\n", len(candles), importTicker, importLocation)
	return nil
}
