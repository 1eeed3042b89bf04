package indicators

import "fmt"

type MACDResult struct {
	MACD      []float64 // fast EMA minus slow EMA
	Signal    []float64 // EMA of the MACD line
	Histogram []float64
}

// MACD is defined from index slow+signal-2; earlier entries are NaN in all
// three lines.
func MACD(prices []float64, fast, slow, signal int) (*MACDResult, error) {
	if err := checkPeriod("macd fast", fast); err != nil {
		return nil, err
	}
	if err := checkPeriod("macd signal", signal); err != nil {
		return nil, err
	}
	if fast >= slow {
		return nil, fmt.Errorf("macd fast %d not below slow %d: %w", fast, slow, ErrInvalidPeriod)
	}

	fastEMA, err := EMA(prices, fast)
	if err != nil {
		return nil, err
	}
	slowEMA, err := EMA(prices, slow)
	if err != nil {
		return nil, err
	}

	line := nanSlice(len(prices))
	for i := range prices {
		line[i] = fastEMA[i] - slowEMA[i] // NaN propagates through warm-up
	}
	signalLine := emaFrom(line, firstDefined(line), signal)

	histogram := nanSlice(len(prices))
	for i := range prices {
		histogram[i] = line[i] - signalLine[i]
	}
	return &MACDResult{MACD: line, Signal: signalLine, Histogram: histogram}, nil
}
