package optimizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"time"

	"walkforward/internal/engine"
	"walkforward/types"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownMetric     = errors.New("unknown metric")
	ErrInvalidBudget     = errors.New("trial budget must be positive")
	ErrUnknownDirection  = errors.New("direction must be maximize or minimize")
	ErrNoCompletedTrials = errors.New("no trial completed")
)

type Direction string

const (
	Maximize Direction = "maximize"
	Minimize Direction = "minimize"
)

type TrialState string

const (
	TrialComplete TrialState = "complete"
	TrialFailed   TrialState = "failed"
	TrialTimeout  TrialState = "timeout"
)

// Trial is the record of one evaluated candidate. FoldScores and Score are
// only meaningful for completed trials.
type Trial struct {
	Number     int
	Values     ParameterSet
	Params     types.StrategyParams
	FoldScores []float64
	Score      float64
	State      TrialState
	Err        error
	Duration   time.Duration
}

type Result struct {
	BestParams types.StrategyParams
	BestScore  float64
	BestTrial  int
	Metric     string
	Direction  Direction
	Folds      int
	Trials     []Trial
}

// TopTrials returns up to n completed trials, best first. Ties keep trial
// order.
func (r *Result) TopTrials(n int) []Trial {
	var done []Trial
	for _, t := range r.Trials {
		if t.State == TrialComplete {
			done = append(done, t)
		}
	}
	sort.SliceStable(done, func(i, j int) bool {
		return better(r.Direction, done[i].Score, done[j].Score)
	})
	if n >= 0 && n < len(done) {
		done = done[:n]
	}
	return done
}

func better(d Direction, a, b float64) bool {
	if d == Minimize {
		return a < b
	}
	return a > b
}

type preparer interface {
	Config() engine.BacktestConfig
	Prepare(candles []types.Candle, params types.StrategyParams) ([]types.Candle, []types.CombinedSignal, error)
}

type Option func(*Optimizer)

func WithWorkers(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.workers = n
		}
	}
}

func WithSeed(seed int64) Option { return func(o *Optimizer) { o.seed = seed } }

func WithDirection(d Direction) Option { return func(o *Optimizer) { o.direction = d } }

func WithSampler(kind SamplerKind) Option { return func(o *Optimizer) { o.sampler = kind } }

func WithSpace(space *Space) Option { return func(o *Optimizer) { o.space = space } }

// WithTrialTimeout caps a trial's wall clock time. The cap is checked
// between folds; a fold that has started always runs to the end.
func WithTrialTimeout(d time.Duration) Option { return func(o *Optimizer) { o.trialTimeout = d } }

// WithProgress draws a progress bar on w, one tick per finished trial.
func WithProgress(w io.Writer) Option { return func(o *Optimizer) { o.progress = w } }

func WithLogger(log zerolog.Logger) Option { return func(o *Optimizer) { o.log = log } }

// Optimizer searches strategy parameters by walk-forward evaluation.
type Optimizer struct {
	engine       preparer
	space        *Space
	sampler      SamplerKind
	workers      int
	seed         int64
	direction    Direction
	trialTimeout time.Duration
	progress     io.Writer
	log          zerolog.Logger
}

func New(eng preparer, opts ...Option) *Optimizer {
	o := &Optimizer{
		engine:    eng,
		sampler:   SamplerEvolution,
		workers:   runtime.NumCPU(),
		seed:      1,
		direction: Maximize,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.space == nil {
		o.space = DefaultSpace(types.DefaultStrategyParams())
	}
	return o
}

// Optimize runs budget trials and returns the best parameters by the mean of
// metric over nFolds walk-forward test windows. Proposals are made in
// batches of one per worker and observed in proposal order, so a fixed seed
// and worker count reproduce the same search.
func (o *Optimizer) Optimize(ctx context.Context, candles []types.Candle, budget int, metric string, nFolds int) (*Result, error) {
	if budget < 1 {
		return nil, fmt.Errorf("budget %d: %w", budget, ErrInvalidBudget)
	}
	if !engine.IsMetric(metric) {
		return nil, fmt.Errorf("%q: %w", metric, ErrUnknownMetric)
	}
	if o.direction != Maximize && o.direction != Minimize {
		return nil, fmt.Errorf("%q: %w", o.direction, ErrUnknownDirection)
	}
	if err := o.engine.Config().Validate(); err != nil {
		return nil, err
	}
	if err := types.ValidateCandles(candles); err != nil {
		return nil, err
	}
	if _, err := SplitFolds(len(candles), nFolds); err != nil {
		return nil, err
	}

	sampler := newSampler(o.sampler, o.space, o.seed)
	bar := o.initProgressBar(budget)
	start := time.Now()

	o.log.Info().
		Int("budget", budget).
		Int("folds", nFolds).
		Str("metric", metric).
		Str("direction", string(o.direction)).
		Str("sampler", string(o.sampler)).
		Int("workers", o.workers).
		Int("candles", len(candles)).
		Msg("starting walk-forward optimization")

	result := &Result{
		BestTrial: -1,
		Metric:    metric,
		Direction: o.direction,
		Folds:     nFolds,
		Trials:    make([]Trial, 0, budget),
	}

	for next := 0; next < budget; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch := make([]Trial, min(o.workers, budget-next))
		for i := range batch {
			batch[i] = Trial{Number: next + i, Values: sampler.Propose()}
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.workers)
		for i := range batch {
			i := i
			g.Go(func() error {
				return o.runTrial(gctx, &batch[i], candles, metric, nFolds)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for _, t := range batch {
			o.record(result, t)
			if t.State == TrialComplete {
				sampler.Observe(t.Values, o.fitness(t.Score))
			}
			if bar != nil {
				_ = bar.Add(1)
			}
		}
		next += len(batch)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if result.BestTrial < 0 {
		return nil, fmt.Errorf("%d trials: %w", budget, ErrNoCompletedTrials)
	}
	o.log.Info().
		Int("best_trial", result.BestTrial).
		Float64("best_score", result.BestScore).
		Dur("duration", time.Since(start)).
		Msg("walk-forward optimization complete")
	return result, nil
}

// runTrial fills in t. It only returns an error when ctx itself is done;
// a failed or timed out trial is reported through its state.
func (o *Optimizer) runTrial(ctx context.Context, t *Trial, candles []types.Candle, metric string, nFolds int) error {
	started := time.Now()
	defer func() { t.Duration = time.Since(started) }()

	tctx := ctx
	if o.trialTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, o.trialTimeout)
		defer cancel()
	}
	fail := func(err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			t.State = TrialTimeout
		} else {
			t.State = TrialFailed
		}
		t.Err = err
		return nil
	}

	params, err := o.space.Decode(t.Values)
	if err != nil {
		return fail(err)
	}
	t.Params = params

	aligned, signals, err := o.engine.Prepare(candles, params)
	if err != nil {
		return fail(err)
	}
	folds, err := SplitFolds(len(aligned), nFolds)
	if err != nil {
		return fail(err)
	}
	results, err := RunFolds(tctx, aligned, signals, folds, o.engine.Config(), params)
	if err != nil {
		return fail(err)
	}

	t.FoldScores = foldScores(results, metric)
	t.Score = meanScore(t.FoldScores)
	t.State = TrialComplete
	return nil
}

func (o *Optimizer) record(result *Result, t Trial) {
	result.Trials = append(result.Trials, t)
	if t.State != TrialComplete {
		o.log.Warn().
			Err(t.Err).
			Int("trial", t.Number).
			Str("state", string(t.State)).
			Msg("trial discarded")
		return
	}
	o.log.Debug().
		Int("trial", t.Number).
		Float64("score", t.Score).
		Floats64("fold_scores", t.FoldScores).
		Dur("duration", t.Duration).
		Msg("trial complete")

	if result.BestTrial < 0 || better(o.direction, t.Score, result.BestScore) {
		result.BestTrial = t.Number
		result.BestScore = t.Score
		result.BestParams = t.Params
		o.log.Info().
			Int("trial", t.Number).
			Float64("score", t.Score).
			Msg("new best trial")
	}
}

func (o *Optimizer) fitness(score float64) float64 {
	if o.direction == Minimize {
		return -score
	}
	return score
}

func (o *Optimizer) initProgressBar(maxTicks int) *progressbar.ProgressBar {
	if o.progress == nil {
		return nil
	}
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionSetWriter(o.progress),
		progressbar.OptionEnableColorCodes(o.progress == os.Stdout || o.progress == os.Stderr),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("Optimizing..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
