// Package wave provides wave pattern types, combinatorial option enumeration,
// and assembly of swing groups into candidate patterns.
package wave

import (
	"fmt"

	"example.com/elliott-wave-analyzer/internal/kline"
)

// Kind identifies a pattern shape.
type Kind string

const (
	// KindImpulse is a 5-segment motive pattern (labels 1-5).
	KindImpulse Kind = "impulse"
	// KindCorrection is a 3-segment corrective pattern (labels A-C).
	KindCorrection Kind = "correction"
)

// Segments returns the number of logical waves the shape requires.
func (k Kind) Segments() int {
	if k == KindImpulse {
		return 5
	}
	return 3
}

// Labels returns the wave labels of the shape in order.
func (k Kind) Labels() []string {
	if k == KindImpulse {
		return []string{"1", "2", "3", "4", "5"}
	}
	return []string{"A", "B", "C"}
}

// Valid reports whether k names a known shape.
func (k Kind) Valid() bool {
	return k == KindImpulse || k == KindCorrection
}

// ParseKind parses a pattern shape name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("wave: unknown pattern kind %q", s)
	}
	return k, nil
}

// Wave is one logical wave: a collapsed group of consecutive swings.
type Wave struct {
	Label      string          `json:"label"`
	StartIdx   int             `json:"start_idx"`
	EndIdx     int             `json:"end_idx"`
	StartPrice float64         `json:"start_price"`
	EndPrice   float64         `json:"end_price"`
	Direction  kline.Direction `json:"direction"`
	SwingCount int             `json:"swing_count"`
}

// Length returns the absolute price distance covered by the wave.
func (w Wave) Length() float64 {
	if w.EndPrice > w.StartPrice {
		return w.EndPrice - w.StartPrice
	}
	return w.StartPrice - w.EndPrice
}

// Duration returns the number of indices the wave spans.
func (w Wave) Duration() int {
	return w.EndIdx - w.StartIdx
}

// Pattern is an ordered sequence of 5 (impulse) or 3 (correction) contiguous
// waves. It is immutable once validated; the analyzer that built it is its
// sole owner.
type Pattern struct {
	Kind  Kind   `json:"kind"`
	Waves []Wave `json:"waves"`

	// Diagonal waives the wave 4 / wave 1 overlap rule.
	Diagonal bool `json:"diagonal,omitempty"`
	// Zigzag applies the strict wave B retracement rule. Assembly leaves it
	// unset so the flat tolerance governs; callers that know the sub-variant
	// may set it.
	Zigzag bool `json:"zigzag,omitempty"`
}

// StartIdx returns the pattern's first index.
func (p Pattern) StartIdx() int { return p.Waves[0].StartIdx }

// EndIdx returns the pattern's last index.
func (p Pattern) EndIdx() int { return p.Waves[len(p.Waves)-1].EndIdx }

// StartPrice returns the price at the pattern's origin.
func (p Pattern) StartPrice() float64 { return p.Waves[0].StartPrice }

// EndPrice returns the price at the pattern's natural end.
func (p Pattern) EndPrice() float64 { return p.Waves[len(p.Waves)-1].EndPrice }

// Span returns the total number of indices the pattern covers.
func (p Pattern) Span() int { return p.EndIdx() - p.StartIdx() }

// Direction returns the trend direction, defined by the first wave.
func (p Pattern) Direction() kline.Direction { return p.Waves[0].Direction }
