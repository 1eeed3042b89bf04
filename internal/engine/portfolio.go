package engine

import (
	"walkforward/types"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// portfolio is the state of one run. Nothing outside the owning backtester
// touches it, so trials can run side by side without locks.
type portfolio struct {
	ticker       string
	cash         decimal.Decimal
	commission   decimal.Decimal
	activeLongs  []*Position
	activeShorts []*Position
	closedLongs  []Position
	closedShorts []Position
	equity       []decimal.Decimal
	longTrades   int
	shortTrades  int
	skipped      int
	log          zerolog.Logger
}

func newPortfolio(ticker string, initialCash, commission decimal.Decimal, log zerolog.Logger) *portfolio {
	return &portfolio{
		ticker:     ticker,
		cash:       initialCash,
		commission: commission,
		equity:     []decimal.Decimal{initialCash},
		log:        log,
	}
}

// processExits closes every active position whose stop or target is crossed
// by the candle close. Longs are checked before shorts.
func (p *portfolio) processExits(candle types.Candle) error {
	var err error
	p.activeLongs, err = p.exitMatching(p.activeLongs, candle, &p.closedLongs)
	if err != nil {
		return err
	}
	p.activeShorts, err = p.exitMatching(p.activeShorts, candle, &p.closedShorts)
	return err
}

func (p *portfolio) exitMatching(active []*Position, candle types.Candle, closed *[]Position) ([]*Position, error) {
	kept := active[:0]
	for _, pos := range active {
		reason, ok := pos.exitReason(candle.Close)
		if !ok {
			kept = append(kept, pos)
			continue
		}
		cash, err := pos.close(candle.Close, candle.Timestamp, reason, p.commission)
		if err != nil {
			return nil, err
		}
		p.cash = p.cash.Add(cash)
		*closed = append(*closed, *pos)
	}
	clear(active[len(kept):])
	return kept, nil
}

// open commits cost to a new position if the cash covers it. It returns
// false when the entry was skipped.
func (p *portfolio) open(side types.Side, candle types.Candle, quantity, stopLoss, takeProfit decimal.Decimal) bool {
	price := candle.Close
	if !quantity.IsPositive() || !price.IsPositive() {
		return false
	}
	cost := quantity.Mul(price).Mul(one.Add(p.commission))
	if p.cash.LessThan(cost) {
		p.skipped++
		p.log.Debug().
			Str("side", string(side)).
			Time("time", candle.Timestamp).
			Str("cost", cost.StringFixed(2)).
			Str("cash", p.cash.StringFixed(2)).
			Msg("entry skipped, insufficient cash")
		return false
	}
	p.cash = p.cash.Sub(cost)

	pos := newPosition(p.ticker, side, quantity, price, cost, stopLoss, takeProfit, candle.Timestamp)
	if side == types.SideLong {
		p.activeLongs = append(p.activeLongs, pos)
		p.longTrades++
	} else {
		p.activeShorts = append(p.activeShorts, pos)
		p.shortTrades++
	}
	return true
}

func (p *portfolio) value(price decimal.Decimal) decimal.Decimal {
	value := p.cash
	for _, pos := range p.activeLongs {
		value = value.Add(pos.markToMarket(price))
	}
	for _, pos := range p.activeShorts {
		value = value.Add(pos.markToMarket(price))
	}
	return value
}

func (p *portfolio) recordEquity(price decimal.Decimal) {
	p.equity = append(p.equity, p.value(price))
}

// closeAll force closes what is left at the last close. Fees apply the same
// way they do for stop and target exits.
func (p *portfolio) closeAll(candle types.Candle) error {
	for _, group := range []struct {
		active *[]*Position
		closed *[]Position
	}{
		{&p.activeLongs, &p.closedLongs},
		{&p.activeShorts, &p.closedShorts},
	} {
		for _, pos := range *group.active {
			cash, err := pos.close(candle.Close, candle.Timestamp, types.ExitEndOfData, p.commission)
			if err != nil {
				return err
			}
			p.cash = p.cash.Add(cash)
			*group.closed = append(*group.closed, *pos)
		}
		*group.active = nil
	}
	return nil
}

func (p *portfolio) equityCurve() []float64 {
	out := make([]float64, len(p.equity))
	for i, e := range p.equity {
		out[i] = e.InexactFloat64()
	}
	return out
}
