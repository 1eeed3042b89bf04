package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// writeTradesCSVFile writes closed positions to a CSV file at the given path.
func writeTradesCSVFile(path string, result *Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer f.Close()

	return WriteTradesCSV(f, result)
}

// WriteTradesCSV writes every closed position, longs first, to any io.Writer.
// You can pass os.Stdout for debugging, or a file.
func WriteTradesCSV(w io.Writer, result *Result) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"trade_id",
		"ticker",
		"side",
		"quantity",
		"entry_time", // RFC3339
		"entry_price",
		"stop_loss",
		"take_profit",
		"cost_basis",
		"exit_time",
		"exit_price",
		"exit_reason",
		"pnl",
		"is_win",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	id := 0
	for _, group := range [][]Position{result.ClosedLongs, result.ClosedShorts} {
		for _, pos := range group {
			if err := writePositionRow(cw, id, pos); err != nil {
				return err
			}
			id++
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writePositionRow(cw *csv.Writer, id int, pos Position) error {
	record := []string{
		strconv.Itoa(id),
		pos.Ticker,
		string(pos.Side),
		pos.Quantity.String(),
		pos.EntryTime.Format(time.RFC3339),
		pos.EntryPrice.String(),
		pos.StopLoss.String(),
		pos.TakeProfit.String(),
		pos.CostBasis.String(),
		pos.ExitTime.Format(time.RFC3339),
		pos.ExitPrice.String(),
		string(pos.ExitReason),
		pos.PnL().String(),
		strconv.FormatBool(pos.IsWin),
	}
	if err := cw.Write(record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func writeEquityCSVFile(path string, result *Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create equity file: %w", err)
	}
	defer f.Close()

	return WriteEquityCSV(f, result)
}

// WriteEquityCSV writes the equity curve. The first row is the initial
// capital and has no timestamp.
func WriteEquityCSV(w io.Writer, result *Result) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"index", "timestamp", "equity"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, equity := range result.EquityCurve {
		ts := ""
		if i > 0 && i-1 < len(result.Timestamps) {
			ts = result.Timestamps[i-1].Format(time.RFC3339)
		}
		record := []string{strconv.Itoa(i), ts, strconv.FormatFloat(equity, 'f', 6, 64)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
