package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"walkforward/internal/optimizer"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	optTrials  int
	optFolds   int
	optMetric  string
	optWorkers int
	optSeed    int64
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search strategy parameters by walk-forward optimization",
	Long:  "Search strategy parameters on expanding walk-forward folds, then backtest the best parameters over the full data range",
	Args:  cobra.NoArgs,
	RunE:  runOptimize,
}

func init() {
	optimizeCmd.Flags().IntVar(&optTrials, "trials", 0, "Number of trials (overrides config)")
	optimizeCmd.Flags().IntVar(&optFolds, "folds", 0, "Number of walk-forward folds (overrides config)")
	optimizeCmd.Flags().StringVar(&optMetric, "metric", "", "Metric to optimize (overrides config)")
	optimizeCmd.Flags().IntVar(&optWorkers, "workers", 0, "Parallel trial workers (overrides config)")
	optimizeCmd.Flags().Int64Var(&optSeed, "seed", 0, "Sampler seed (overrides config)")

	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	oc := a.cfg.Optimization
	if optTrials > 0 {
		oc.Trials = optTrials
	}
	if optFolds > 0 {
		oc.Folds = optFolds
	}
	if optMetric != "" {
		oc.Metric = optMetric
	}
	if optWorkers > 0 {
		oc.Workers = optWorkers
	}
	if cmd.Flags().Changed("seed") {
		oc.Seed = optSeed
	}

	candles, err := a.loadCandles(cmd.Context())
	if err != nil {
		return err
	}

	opts := []optimizer.Option{
		optimizer.WithSpace(optimizer.DefaultSpace(a.cfg.Strategy)),
		optimizer.WithSampler(oc.Sampler),
		optimizer.WithDirection(oc.Direction),
		optimizer.WithSeed(oc.Seed),
		optimizer.WithWorkers(oc.Workers),
		optimizer.WithTrialTimeout(oc.TrialTimeout),
		optimizer.WithLogger(a.log),
	}
	if oc.Progress {
		opts = append(opts, optimizer.WithProgress(os.Stderr))
	}

	res, err := optimizer.New(a.engine, opts...).Optimize(cmd.Context(), candles, oc.Trials, oc.Metric, oc.Folds)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := printOptimization(out, res, oc.Top); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return a.backtest(cmd, candles, res.BestParams)
}

func printOptimization(w io.Writer, res *optimizer.Result, top int) error {
	fmt.Fprintln(w, "===== Walk-Forward Optimization =====")
	fmt.Fprintf(w, "Trials:                %d\n", len(res.Trials))
	fmt.Fprintf(w, "Folds:                 %d\n", res.Folds)
	fmt.Fprintf(w, "Objective:             %s (%s)\n", res.Metric, res.Direction)
	fmt.Fprintf(w, "Best Trial:            #%d\n", res.BestTrial)
	fmt.Fprintf(w, "Best Score:            %.4f\n", res.BestScore)

	if top > 0 {
		fmt.Fprintln(w, "\n-- Top Trials --")
		for _, t := range res.TopTrials(top) {
			fmt.Fprintf(w, "#%-4d score %.4f  %s\n", t.Number, t.Score, formatValues(t.Values))
		}
	}

	fmt.Fprintln(w, "\n-- Best Parameters --")
	data, err := yaml.Marshal(res.BestParams)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func formatValues(values optimizer.ParameterSet) string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	s := ""
	for i, name := range names {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%.4g", name, values[name])
	}
	return s
}
