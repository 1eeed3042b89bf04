package types

import (
	"fmt"
	"time"
)

type Interval string

const (
	OneMinute      Interval = "1"
	ThreeMinutes   Interval = "3"
	FiveMinutes    Interval = "5"
	FifteenMinutes Interval = "15"
	ThirtyMinutes  Interval = "30"
	Hour           Interval = "60"
	TwoHours       Interval = "120"
	FourHours      Interval = "240"
	Day            Interval = "D"
	Week           Interval = "W"
)

var IntervalToTime = map[Interval]time.Duration{
	OneMinute:      time.Minute,
	ThreeMinutes:   time.Minute * 3,
	FiveMinutes:    time.Minute * 5,
	FifteenMinutes: time.Minute * 15,
	ThirtyMinutes:  time.Minute * 30,
	Hour:           time.Hour,
	TwoHours:       time.Hour * 2,
	FourHours:      time.Hour * 4,
	Day:            time.Hour * 24,
	Week:           time.Hour * 24 * 7,
}

var ConvertInterval = map[string]Interval{
	"1":   OneMinute,
	"1m":  OneMinute,
	"3":   ThreeMinutes,
	"5":   FiveMinutes,
	"5m":  FiveMinutes,
	"15":  FifteenMinutes,
	"15m": FifteenMinutes,
	"30":  ThirtyMinutes,
	"60":  Hour,
	"1h":  Hour,
	"120": TwoHours,
	"240": FourHours,
	"4h":  FourHours,
	"D":   Day,
	"1d":  Day,
	"W":   Week,
}

const yearDuration = 365 * 24 * time.Hour

// PeriodsPerYear is the annualization constant for bars of this interval on a
// market that trades around the clock, e.g. 24*365 for hourly bars.
func (i Interval) PeriodsPerYear() (float64, error) {
	d, ok := IntervalToTime[i]
	if !ok {
		return 0, fmt.Errorf("interval %q: %w", i, ErrUnknownInterval)
	}
	return float64(yearDuration) / float64(d), nil
}

func ParseInterval(s string) (Interval, error) {
	i, ok := ConvertInterval[s]
	if !ok {
		return "", fmt.Errorf("interval %q: %w", s, ErrUnknownInterval)
	}
	return i, nil
}
