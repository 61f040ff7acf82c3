// Package kline provides OHLC series handling and swing extraction for wave analysis.
package kline

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Candle represents a single OHLC sample. Volume is carried through for
// callers but unused by the analysis core.
type Candle struct {
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume,omitempty"`
	OpenTime time.Time `json:"open_time,omitempty"`
}

// Range returns the total range of the candle (High - Low).
func (c *Candle) Range() float64 {
	return c.High - c.Low
}

// IsBullish returns true if the candle is bullish (Close > Open).
func (c *Candle) IsBullish() bool {
	return c.Close > c.Open
}

// IsBearish returns true if the candle is bearish (Close < Open).
func (c *Candle) IsBearish() bool {
	return c.Close < c.Open
}

// Series is an ordered, time-indexed OHLC sequence (oldest first).
type Series []Candle

var (
	// ErrSeriesTooShort is returned when a series has fewer than two samples.
	ErrSeriesTooShort = errors.New("kline: series too short")
	// ErrMalformedSeries is returned when a sample has inconsistent or
	// non-finite prices.
	ErrMalformedSeries = errors.New("kline: malformed series")
)

// Validate checks that the series is long enough to analyze and that every
// sample carries consistent, finite prices. It never repairs data.
func (s Series) Validate() error {
	if len(s) < 2 {
		return fmt.Errorf("%w: %d samples", ErrSeriesTooShort, len(s))
	}
	for i, c := range s {
		for _, p := range [4]float64{c.Open, c.High, c.Low, c.Close} {
			if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
				return fmt.Errorf("%w: non-finite price at index %d", ErrMalformedSeries, i)
			}
		}
		if c.High < c.Low {
			return fmt.Errorf("%w: high %.8f below low %.8f at index %d", ErrMalformedSeries, c.High, c.Low, i)
		}
	}
	return nil
}
