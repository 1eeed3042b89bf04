package optimizer

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"walkforward/types"
)

var ErrUnknownParameter = errors.New("unknown parameter")

type ParamKind string

const (
	KindInt         ParamKind = "int"
	KindFloat       ParamKind = "float"
	KindCategorical ParamKind = "categorical"
)

// Parameter is one searchable dimension. Categorical values are stored as
// the index into Choices.
type Parameter struct {
	Name    string
	Kind    ParamKind
	Min     float64
	Max     float64
	Choices []string
}

// ParameterSet maps parameter names to sampled values.
type ParameterSet map[string]float64

func (ps ParameterSet) Clone() ParameterSet {
	clone := make(ParameterSet, len(ps))
	for k, v := range ps {
		clone[k] = v
	}
	return clone
}

func (p Parameter) sample(rng *rand.Rand) float64 {
	switch p.Kind {
	case KindInt:
		lo, hi := int(p.Min), int(p.Max)
		return float64(lo + rng.Intn(hi-lo+1))
	case KindCategorical:
		return float64(rng.Intn(len(p.Choices)))
	default:
		return p.Min + rng.Float64()*(p.Max-p.Min)
	}
}

// mutate moves v by a gaussian step of scale times the range. Categorical
// values are redrawn.
func (p Parameter) mutate(rng *rand.Rand, v, scale float64) float64 {
	if p.Kind == KindCategorical {
		return p.sample(rng)
	}
	return p.clamp(v + rng.NormFloat64()*scale*(p.Max-p.Min))
}

func (p Parameter) clamp(v float64) float64 {
	switch p.Kind {
	case KindCategorical:
		return math.Max(0, math.Min(float64(len(p.Choices)-1), math.Round(v)))
	case KindInt:
		v = math.Round(v)
	}
	return math.Max(p.Min, math.Min(p.Max, v))
}

// Space is the set of searched parameters on top of a base parameter set.
// Fields the space does not name keep their base value.
type Space struct {
	base   types.StrategyParams
	params []Parameter
}

func NewSpace(base types.StrategyParams, params ...Parameter) *Space {
	return &Space{base: base, params: params}
}

// DefaultSpace searches every indicator window and threshold, the stop and
// target distances, the capital fraction and the vote threshold.
func DefaultSpace(base types.StrategyParams) *Space {
	thresholds := make([]string, 0, 5)
	for i := 1; i <= max(base.IndicatorCount(), 1); i++ {
		thresholds = append(thresholds, strconv.Itoa(i))
	}
	return NewSpace(base,
		Parameter{Name: "rsi_window", Kind: KindInt, Min: 8, Max: 50},
		Parameter{Name: "rsi_lower", Kind: KindInt, Min: 5, Max: 40},
		Parameter{Name: "rsi_upper", Kind: KindInt, Min: 60, Max: 90},
		Parameter{Name: "ema_short_window", Kind: KindInt, Min: 5, Max: 20},
		Parameter{Name: "ema_long_window", Kind: KindInt, Min: 21, Max: 100},
		Parameter{Name: "macd_short_window", Kind: KindInt, Min: 5, Max: 20},
		Parameter{Name: "macd_long_window", Kind: KindInt, Min: 21, Max: 100},
		Parameter{Name: "macd_signal_window", Kind: KindInt, Min: 5, Max: 30},
		Parameter{Name: "bollinger_window", Kind: KindInt, Min: 10, Max: 60},
		Parameter{Name: "bollinger_num_std_dev", Kind: KindFloat, Min: 0.5, Max: 3.5},
		Parameter{Name: "stoch_k_window", Kind: KindInt, Min: 5, Max: 30},
		Parameter{Name: "stoch_smooth_window", Kind: KindInt, Min: 2, Max: 10},
		Parameter{Name: "stoch_lower_threshold", Kind: KindFloat, Min: 5, Max: 30},
		Parameter{Name: "stoch_upper_threshold", Kind: KindFloat, Min: 70, Max: 95},
		Parameter{Name: "stop_loss", Kind: KindFloat, Min: 0.01, Max: 0.30},
		Parameter{Name: "take_profit", Kind: KindFloat, Min: 0.01, Max: 0.30},
		Parameter{Name: "capital_fraction", Kind: KindFloat, Min: 0.01, Max: 0.25},
		Parameter{Name: "vote_threshold", Kind: KindCategorical, Choices: thresholds},
	)
}

func (s *Space) Params() []Parameter { return s.params }

func (s *Space) Sample(rng *rand.Rand) ParameterSet {
	ps := make(ParameterSet, len(s.params))
	for _, p := range s.params {
		ps[p.Name] = p.sample(rng)
	}
	return ps
}

// Decode applies ps to the base parameters. Values are clamped into their
// range first; a parameter name with no matching field is an error.
func (s *Space) Decode(ps ParameterSet) (types.StrategyParams, error) {
	out := s.base
	for _, p := range s.params {
		v, ok := ps[p.Name]
		if !ok {
			continue
		}
		v = p.clamp(v)
		if p.Kind == KindCategorical {
			if err := applyChoice(&out, p.Name, p.Choices[int(v)]); err != nil {
				return types.StrategyParams{}, err
			}
			continue
		}
		if err := applyValue(&out, p.Name, v); err != nil {
			return types.StrategyParams{}, err
		}
	}
	return out, nil
}

func applyValue(p *types.StrategyParams, name string, v float64) error {
	switch name {
	case "rsi_window":
		p.RSI.Window = int(v)
	case "rsi_lower":
		p.RSI.Lower = v
	case "rsi_upper":
		p.RSI.Upper = v
	case "ema_short_window":
		p.EMA.ShortWindow = int(v)
	case "ema_long_window":
		p.EMA.LongWindow = int(v)
	case "macd_short_window":
		p.MACD.ShortWindow = int(v)
	case "macd_long_window":
		p.MACD.LongWindow = int(v)
	case "macd_signal_window":
		p.MACD.SignalWindow = int(v)
	case "bollinger_window":
		p.Bollinger.Window = int(v)
	case "bollinger_num_std_dev":
		p.Bollinger.NumStdDev = v
	case "stoch_k_window":
		p.Stochastic.KWindow = int(v)
	case "stoch_smooth_window":
		p.Stochastic.SmoothWindow = int(v)
	case "stoch_lower_threshold":
		p.Stochastic.LowerThreshold = v
	case "stoch_upper_threshold":
		p.Stochastic.UpperThreshold = v
	case "stop_loss":
		p.StopLoss = v
	case "take_profit":
		p.TakeProfit = v
	case "capital_fraction":
		p.CapitalFraction = v
	case "fixed_quantity":
		p.FixedQuantity = v
	case "vote_threshold":
		p.VoteThreshold = int(v)
	default:
		return fmt.Errorf("%q: %w", name, ErrUnknownParameter)
	}
	return nil
}

func applyChoice(p *types.StrategyParams, name, choice string) error {
	switch name {
	case "vote_threshold":
		n, err := strconv.Atoi(choice)
		if err != nil {
			return fmt.Errorf("vote threshold %q: %w", choice, err)
		}
		p.VoteThreshold = n
	case "sizing":
		p.Sizing = types.SizingMode(choice)
	default:
		return fmt.Errorf("%q: %w", name, ErrUnknownParameter)
	}
	return nil
}
