package engine

import (
	"fmt"
	"io"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// Stable metric names. The optimizer accepts any of them as its objective.
const (
	MetricSharpe             = "Sharpe"
	MetricSortino            = "Sortino"
	MetricMaxDrawdown        = "Maximum Drawdown"
	MetricCalmar             = "Calmar"
	MetricWinRateLong        = "Win rate on long positions"
	MetricWinRateShort       = "Win rate on short positions"
	MetricWinRate            = "General win rate"
	MetricNetProfit          = "Net Profit"
	MetricReturnOnInvestment = "Return on Investment"
	MetricProfitFactor       = "Profit Factor"
)

var metricNames = []string{
	MetricSharpe,
	MetricSortino,
	MetricMaxDrawdown,
	MetricCalmar,
	MetricWinRateLong,
	MetricWinRateShort,
	MetricWinRate,
	MetricNetProfit,
	MetricReturnOnInvestment,
	MetricProfitFactor,
}

func MetricNames() []string { return slices.Clone(metricNames) }

func IsMetric(name string) bool { return slices.Contains(metricNames, name) }

type Report struct {
	TotalTrades int
	LongTrades  int
	ShortTrades int

	// Absolute performance
	InitialCapital     decimal.Decimal
	FinalCapital       decimal.Decimal
	NetProfit          decimal.Decimal
	ReturnOnInvestment float64

	// Trade-level distribution metrics
	WinRateLong  float64
	WinRateShort float64
	WinRate      float64
	AvgWin       decimal.Decimal
	AvgLoss      decimal.Decimal
	ProfitFactor float64

	// Drawdown & loss streak metrics
	MaxDrawdown          float64
	MaxConsecutiveLosses int

	// Risk-adjusted metrics
	SharpeRatio  float64
	SortinoRatio float64
	CalmarRatio  float64
}

// Metrics flattens the report into the stable string keyed map.
func (r *Report) Metrics() map[string]float64 {
	return map[string]float64{
		MetricSharpe:             r.SharpeRatio,
		MetricSortino:            r.SortinoRatio,
		MetricMaxDrawdown:        r.MaxDrawdown,
		MetricCalmar:             r.CalmarRatio,
		MetricWinRateLong:        r.WinRateLong,
		MetricWinRateShort:       r.WinRateShort,
		MetricWinRate:            r.WinRate,
		MetricNetProfit:          r.NetProfit.InexactFloat64(),
		MetricReturnOnInvestment: r.ReturnOnInvestment,
		MetricProfitFactor:       r.ProfitFactor,
	}
}

// GenerateReport is a pure function of the equity curve and the closed
// positions. periodsPerYear annualizes the per-bar return statistics.
func GenerateReport(equity []float64, closedLongs, closedShorts []Position, initial, final decimal.Decimal, periodsPerYear float64) *Report {
	report := &Report{
		TotalTrades:    len(closedLongs) + len(closedShorts),
		LongTrades:     len(closedLongs),
		ShortTrades:    len(closedShorts),
		InitialCapital: initial,
		FinalCapital:   final,
		NetProfit:      final.Sub(initial),
	}
	if initial.IsPositive() {
		report.ReturnOnInvestment = final.Sub(initial).Div(initial).InexactFloat64()
	}
	all := make([]Position, 0, report.TotalTrades)
	all = append(all, closedLongs...)
	all = append(all, closedShorts...)
	returns := calcReturns(equity)

	var wg sync.WaitGroup
	wg.Add(6)
	go func() {
		defer wg.Done()
		report.WinRateLong = calcWinRate(closedLongs)
		report.WinRateShort = calcWinRate(closedShorts)
		report.WinRate = calcWinRate(all)
	}()
	go func() {
		defer wg.Done()
		report.AvgWin, report.AvgLoss = calcAvgWinLoss(all)
	}()
	go func() {
		defer wg.Done()
		report.ProfitFactor = calcProfitFactor(all)
	}()
	go func() {
		defer wg.Done()
		report.MaxConsecutiveLosses = calcMaxConsecutiveLosses(all)
	}()
	go func() {
		defer wg.Done()
		report.SharpeRatio = calcSharpeRatio(returns, periodsPerYear)
		report.SortinoRatio = calcSortinoRatio(returns, periodsPerYear)
	}()
	go func() {
		defer wg.Done()
		report.MaxDrawdown = calcMaxDrawdown(equity)
	}()
	wg.Wait()

	// Calmar needs the drawdown, so it runs after the fan-out.
	report.CalmarRatio = calcCalmarRatio(returns, report.MaxDrawdown, periodsPerYear)
	return report
}

// calcReturns gives the simple return of every sample after the first.
func calcReturns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1]
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, equity[i]/prev-1)
	}
	return returns
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStd is the n-1 standard deviation; fewer than two values have none.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

func calcSharpeRatio(returns []float64, periodsPerYear float64) float64 {
	std := sampleStd(returns) * math.Sqrt(periodsPerYear)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return mean(returns) * periodsPerYear / std
}

func calcSortinoRatio(returns []float64, periodsPerYear float64) float64 {
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	down := sampleStd(downside) * math.Sqrt(periodsPerYear)
	if down == 0 || math.IsNaN(down) {
		return 0
	}
	return mean(returns) * periodsPerYear / down
}

// calcMaxDrawdown returns the largest decline from a running peak as a
// positive fraction of that peak.
func calcMaxDrawdown(equity []float64) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - e) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

func calcCalmarRatio(returns []float64, maxDrawdown, periodsPerYear float64) float64 {
	if maxDrawdown == 0 {
		return 0
	}
	return mean(returns) * periodsPerYear / maxDrawdown
}

func calcWinRate(closed []Position) float64 {
	if len(closed) == 0 {
		return 0
	}
	wins := 0
	for _, pos := range closed {
		if pos.IsWin {
			wins++
		}
	}
	return float64(wins) / float64(len(closed))
}

func calcAvgWinLoss(closed []Position) (decimal.Decimal, decimal.Decimal) {
	sumWins := decimal.Zero
	sumLosses := decimal.Zero // absolute loss amounts
	winCount := 0
	lossCount := 0

	for _, pos := range closed {
		pnl := pos.PnL()
		switch {
		case pnl.IsPositive():
			sumWins = sumWins.Add(pnl)
			winCount++
		case pnl.IsNegative():
			sumLosses = sumLosses.Add(pnl.Abs())
			lossCount++
		}
	}

	avgWin := decimal.Zero
	avgLoss := decimal.Zero
	if winCount > 0 {
		avgWin = sumWins.Div(decimal.NewFromInt(int64(winCount)))
	}
	if lossCount > 0 {
		avgLoss = sumLosses.Div(decimal.NewFromInt(int64(lossCount)))
	}
	return avgWin, avgLoss
}

// calcProfitFactor is gross profit over gross loss, 0 without losing trades.
func calcProfitFactor(closed []Position) float64 {
	gross := decimal.Zero
	loss := decimal.Zero
	for _, pos := range closed {
		pnl := pos.PnL()
		if pnl.IsPositive() {
			gross = gross.Add(pnl)
		} else {
			loss = loss.Add(pnl.Abs())
		}
	}
	if loss.IsZero() {
		return 0
	}
	return gross.Div(loss).InexactFloat64()
}

func calcMaxConsecutiveLosses(closed []Position) int {
	ordered := slices.Clone(closed)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ExitTime.Before(ordered[j].ExitTime)
	})

	maxLossStreak := 0
	currentStreak := 0
	for _, pos := range ordered {
		if pos.PnL().IsNegative() {
			currentStreak++
			if currentStreak > maxLossStreak {
				maxLossStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxLossStreak
}

func PrintReport(w io.Writer, report *Report) {
	fmt.Fprintln(w, "===== Backtest Report =====")
	fmt.Fprintf(w, "Total Trades:          %d (long %d, short %d)\n", report.TotalTrades, report.LongTrades, report.ShortTrades)

	fmt.Fprintln(w, "\n-- Absolute Performance --")
	fmt.Fprintf(w, "Initial Capital:       %s\n", report.InitialCapital.StringFixed(4))
	fmt.Fprintf(w, "Final Capital:         %s\n", report.FinalCapital.StringFixed(4))
	fmt.Fprintf(w, "Net Profit:            %s\n", report.NetProfit.StringFixed(4))
	fmt.Fprintf(w, "Return on Investment:  %.4f%%\n", report.ReturnOnInvestment*100)

	fmt.Fprintln(w, "\n-- Trade-Level Metrics --")
	fmt.Fprintf(w, "Win Rate (long):       %.4f\n", report.WinRateLong)
	fmt.Fprintf(w, "Win Rate (short):      %.4f\n", report.WinRateShort)
	fmt.Fprintf(w, "Win Rate (general):    %.4f\n", report.WinRate)
	fmt.Fprintf(w, "Avg Win:               %s\n", report.AvgWin.StringFixed(4))
	fmt.Fprintf(w, "Avg Loss:              %s\n", report.AvgLoss.StringFixed(4))
	fmt.Fprintf(w, "Profit Factor:         %.4f\n", report.ProfitFactor)

	fmt.Fprintln(w, "\n-- Drawdown Metrics --")
	fmt.Fprintf(w, "Max Drawdown:          %.4f%%\n", report.MaxDrawdown*100)
	fmt.Fprintf(w, "Max Consecutive Losses:%d\n", report.MaxConsecutiveLosses)

	fmt.Fprintln(w, "\n-- Risk-Adjusted Metrics --")
	fmt.Fprintf(w, "Sharpe Ratio:          %.4f\n", report.SharpeRatio)
	fmt.Fprintf(w, "Sortino Ratio:         %.4f\n", report.SortinoRatio)
	fmt.Fprintf(w, "Calmar Ratio:          %.4f\n", report.CalmarRatio)

	fmt.Fprintln(w, "===========================")
}
