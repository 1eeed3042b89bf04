package types

// IndicatorSignal is one indicator's vote for a single bar. Valid is false
// while the indicator is still warming up; such bars carry no vote at all.
type IndicatorSignal struct {
	Buy   bool
	Sell  bool
	Valid bool
}

// IndicatorSeries is an indicator's output aligned to the candle index.
type IndicatorSeries struct {
	Name    string
	Signals []IndicatorSignal
}

// CombinedSignal is the majority-vote decision for a bar.
type CombinedSignal struct {
	Buy  bool
	Sell bool
}
