package types

import "errors"

var ErrUnknownInterval = errors.New("unknown interval")

type Side string

type PositionStatus string

type ExitReason string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"

	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"

	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
	ExitEndOfData  ExitReason = "END_OF_DATA"
)
