package engine

import (
	"errors"
	"time"

	"walkforward/types"

	"github.com/shopspring/decimal"
)

var ErrPositionClosed = errors.New("position already closed")

var one = decimal.NewFromInt(1)

// Position is a single trade. Exit fields are zero until Status is closed.
type Position struct {
	Ticker     string
	Side       types.Side
	Status     types.PositionStatus
	Quantity   decimal.Decimal
	EntryPrice decimal.Decimal
	EntryTime  time.Time
	StopLoss   decimal.Decimal
	TakeProfit decimal.Decimal
	// CostBasis is the cash committed at open, fees included.
	CostBasis decimal.Decimal

	ExitPrice  decimal.Decimal
	ExitTime   time.Time
	ExitReason types.ExitReason
	Proceeds   decimal.Decimal
	IsWin      bool
}

func newPosition(ticker string, side types.Side, quantity, price, cost, stopLoss, takeProfit decimal.Decimal, at time.Time) *Position {
	pos := &Position{
		Ticker:     ticker,
		Side:       side,
		Status:     types.PositionOpen,
		Quantity:   quantity,
		EntryPrice: price,
		EntryTime:  at,
		CostBasis:  cost,
	}
	// Short stops sit above the entry and targets below it.
	if side == types.SideLong {
		pos.StopLoss = price.Mul(one.Sub(stopLoss))
		pos.TakeProfit = price.Mul(one.Add(takeProfit))
	} else {
		pos.StopLoss = price.Mul(one.Add(stopLoss))
		pos.TakeProfit = price.Mul(one.Sub(takeProfit))
	}
	return pos
}

// exitReason reports whether price crosses the stop or the target.
func (p *Position) exitReason(price decimal.Decimal) (types.ExitReason, bool) {
	if p.Side == types.SideLong {
		switch {
		case price.GreaterThan(p.TakeProfit):
			return types.ExitTakeProfit, true
		case price.LessThan(p.StopLoss):
			return types.ExitStopLoss, true
		}
		return "", false
	}
	switch {
	case price.GreaterThan(p.StopLoss):
		return types.ExitStopLoss, true
	case price.LessThan(p.TakeProfit):
		return types.ExitTakeProfit, true
	}
	return "", false
}

// proceeds is the cash returned to the account when closing at price.
func (p *Position) proceeds(price, commission decimal.Decimal) decimal.Decimal {
	if p.Side == types.SideLong {
		return price.Mul(p.Quantity).Mul(one.Sub(commission))
	}
	pnl := p.EntryPrice.Sub(price).Mul(p.Quantity).Mul(one.Sub(commission))
	return p.CostBasis.Add(pnl)
}

// markToMarket values an open position at price, fees on exit excluded.
func (p *Position) markToMarket(price decimal.Decimal) decimal.Decimal {
	if p.Side == types.SideLong {
		return p.Quantity.Mul(price)
	}
	return p.CostBasis.Add(p.EntryPrice.Sub(price).Mul(p.Quantity))
}

func (p *Position) close(price decimal.Decimal, at time.Time, reason types.ExitReason, commission decimal.Decimal) (decimal.Decimal, error) {
	if p.Status == types.PositionClosed {
		return decimal.Zero, ErrPositionClosed
	}
	cash := p.proceeds(price, commission)
	p.Status = types.PositionClosed
	p.ExitPrice = price
	p.ExitTime = at
	p.ExitReason = reason
	p.Proceeds = cash
	if p.Side == types.SideLong {
		p.IsWin = price.GreaterThan(p.EntryPrice)
	} else {
		p.IsWin = price.LessThan(p.EntryPrice)
	}
	return cash, nil
}

// PnL is the realized profit of a closed position, fees included.
func (p Position) PnL() decimal.Decimal {
	if p.Status != types.PositionClosed {
		return decimal.Zero
	}
	return p.Proceeds.Sub(p.CostBasis)
}
