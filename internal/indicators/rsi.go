package indicators

// RSI is the relative strength index with Wilder smoothing. The first value
// is at index period; everything before it is NaN.
func RSI(prices []float64, period int) ([]float64, error) {
	if err := checkPeriod("rsi", period); err != nil {
		return nil, err
	}
	rsi := nanSlice(len(prices))
	if len(prices) < period+1 {
		return rsi, nil
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := change(prices[i-1], prices[i])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	rsi[period] = rsiValue(avgGain, avgLoss)

	n := float64(period)
	for i := period + 1; i < len(prices); i++ {
		gain, loss := change(prices[i-1], prices[i])
		avgGain = (avgGain*(n-1) + gain) / n
		avgLoss = (avgLoss*(n-1) + loss) / n
		rsi[i] = rsiValue(avgGain, avgLoss)
	}
	return rsi, nil
}

func change(prev, cur float64) (gain, loss float64) {
	d := cur - prev
	if d > 0 {
		return d, 0
	}
	return 0, -d
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
