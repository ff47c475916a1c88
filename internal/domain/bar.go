package domain

import (
	"errors"
	"fmt"
	"time"
)

// Bar is one OHLC price sample for a fixed time interval.
// Bars are immutable once recorded.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume,omitempty"`
}

// Timeframe identifies the bar interval.
type Timeframe string

// Supported timeframes.
const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
)

// Series ordering errors.
var (
	ErrEmptySeries     = errors.New("empty bar series")
	ErrUnorderedSeries = errors.New("bar series must have strictly increasing timestamps")
)

// ValidateSeries checks that bars are ordered by strictly increasing
// timestamp with no duplicates.
func ValidateSeries(bars []Bar) error {
	if len(bars) == 0 {
		return ErrEmptySeries
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return fmt.Errorf("%w: bar %d (%s) not after bar %d (%s)",
				ErrUnorderedSeries,
				i, bars[i].Timestamp.Format(time.RFC3339),
				i-1, bars[i-1].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}
