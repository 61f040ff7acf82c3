// Package target projects forward price levels for a wave still in progress
// and the invalidation level at which the count fails.
package target

import (
	"fmt"
	"math"

	"example.com/elliott-wave-analyzer/internal/kline"
	"example.com/elliott-wave-analyzer/internal/wave"
)

// Level identifies a projection in order of statistical likelihood:
// T1 primary, T2 secondary, T3 extended.
type Level string

const (
	T1 Level = "T1"
	T2 Level = "T2"
	T3 Level = "T3"
)

// Status of a target relative to the reference price.
type Status string

const (
	StatusPending  Status = "pending"
	StatusReached  Status = "reached"
	StatusExceeded Status = "exceeded"
)

// reachedTolerance treats a target within 0.5% of the reference as reached.
const reachedTolerance = 0.005

// Target is one projected price level.
type Target struct {
	Level     Level   `json:"level"`
	Price     float64 `json:"price"`
	Method    string  `json:"method"`
	Weight    float64 `json:"weight"`
	Magnitude float64 `json:"magnitude"` // signed % distance from the reference price
	Status    Status  `json:"status"`
}

// Projection is the full target set for the next expected wave.
type Projection struct {
	Wave           string          `json:"wave"`
	Direction      kline.Direction `json:"direction"`
	BasePrice      float64         `json:"base_price"`
	ReferencePrice float64         `json:"reference_price"`
	Targets        []Target        `json:"targets"`
	// Invalidation is the price beyond which the pattern's hard rules break.
	// It is a stop condition for callers, not a target.
	Invalidation float64 `json:"invalidation"`
}

// Wave3Targets projects wave 3 from completed waves 1 and 2. The invalidation
// level is wave 1's origin: past it, wave 2 exceeds a full retracement.
func Wave3Targets(w1, w2 wave.Wave, refPrice float64) Projection {
	up := w1.Direction == kline.DirectionUp
	base := w2.EndPrice
	p := Projection{
		Wave:           "3",
		Direction:      w1.Direction,
		BasePrice:      base,
		ReferencePrice: refPrice,
		Invalidation:   w1.StartPrice,
	}
	p.Targets = []Target{
		project(T1, base, w1.Length(), 1.618, up, "1.618x wave 1", 0.70),
		project(T2, base, w1.Length(), 1.000, up, "1.0x wave 1", 0.50),
		project(T3, base, w1.Length(), 2.618, up, "2.618x wave 1", 0.40),
	}
	finish(&p, up, refPrice)
	return p
}

// Wave4Targets projects the wave 4 retracement of wave 3. The invalidation
// level is wave 1's extreme, where wave 4 would enter wave 1 territory.
func Wave4Targets(w1, w2, w3 wave.Wave, refPrice float64) Projection {
	up := w1.Direction == kline.DirectionUp
	base := w3.EndPrice
	p := Projection{
		Wave:           "4",
		Direction:      w1.Direction.Opposite(),
		BasePrice:      base,
		ReferencePrice: refPrice,
		Invalidation:   w1.EndPrice,
	}
	p.Targets = []Target{
		project(T1, base, w3.Length(), 0.382, !up, "38.2% retracement of wave 3", 0.75),
		project(T2, base, w3.Length(), 0.236, !up, "23.6% retracement of wave 3", 0.60),
		project(T3, base, w3.Length(), 0.500, !up, "50% retracement of wave 3", 0.50),
	}
	finish(&p, !up, refPrice)
	return p
}

// Wave5Targets projects wave 5 from four completed waves. The invalidation
// level is wave 4's extreme: price back beyond it reopens the wave 4 count.
func Wave5Targets(w1, w2, w3, w4 wave.Wave, refPrice float64) Projection {
	up := w1.Direction == kline.DirectionUp
	base := w4.EndPrice

	// Net advance from wave 1's origin to wave 3's extreme.
	span13 := w3.EndPrice - w1.StartPrice
	if !up {
		span13 = w1.StartPrice - w3.EndPrice
	}

	p := Projection{
		Wave:           "5",
		Direction:      w1.Direction,
		BasePrice:      base,
		ReferencePrice: refPrice,
		Invalidation:   w4.EndPrice,
	}
	p.Targets = []Target{
		project(T1, base, w1.Length(), 1.000, up, "1.0x wave 1 (equality)", 0.75),
		project(T2, base, w1.Length(), 0.618, up, "0.618x wave 1", 0.65),
		project(T3, base, span13, 0.618, up, "0.618x wave 1-3 span", 0.60),
	}
	finish(&p, up, refPrice)
	return p
}

// WaveCTargets projects wave C from completed waves A and B. The invalidation
// level is wave B's extreme: a new extreme there breaks the zigzag count.
func WaveCTargets(wA, wB wave.Wave, refPrice float64) Projection {
	down := wA.Direction == kline.DirectionDown
	base := wB.EndPrice
	p := Projection{
		Wave:           "C",
		Direction:      wA.Direction,
		BasePrice:      base,
		ReferencePrice: refPrice,
		Invalidation:   wB.EndPrice,
	}
	p.Targets = []Target{
		project(T1, base, wA.Length(), 1.000, !down, "1.0x wave A (equality)", 0.80),
		project(T2, base, wA.Length(), 1.618, !down, "1.618x wave A", 0.60),
		project(T3, base, wA.Length(), 2.618, !down, "2.618x wave A", 0.30),
	}
	finish(&p, !down, refPrice)
	return p
}

// ForPattern projects the next expected wave of a validated pattern:
// wave 5 when the shape is an impulse, wave C when it is a correction.
func ForPattern(p wave.Pattern, refPrice float64) (Projection, error) {
	switch p.Kind {
	case wave.KindImpulse:
		return Wave5Targets(p.Waves[0], p.Waves[1], p.Waves[2], p.Waves[3], refPrice), nil
	case wave.KindCorrection:
		return WaveCTargets(p.Waves[0], p.Waves[1], refPrice), nil
	default:
		return Projection{}, fmt.Errorf("target: unknown pattern kind %q", p.Kind)
	}
}

func project(level Level, base, refLength, multiple float64, up bool, method string, weight float64) Target {
	price := base + refLength*multiple
	if !up {
		price = base - refLength*multiple
	}
	return Target{Level: level, Price: price, Method: method, Weight: weight}
}

// finish fills magnitudes and statuses against the reference price. Magnitude
// is signed: targets above the reference are positive, below negative.
func finish(p *Projection, up bool, refPrice float64) {
	for i := range p.Targets {
		t := &p.Targets[i]
		if refPrice <= 0 {
			continue
		}
		dist := t.Price - refPrice
		t.Magnitude = round2(dist / refPrice * 100)
		switch {
		case abs(dist) < refPrice*reachedTolerance:
			t.Status = StatusReached
		case (up && dist > 0) || (!up && dist < 0):
			t.Status = StatusPending
		default:
			t.Status = StatusExceeded
		}
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
