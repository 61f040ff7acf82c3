// Package rules applies the hard structural constraints of wave patterns.
// A single failed check invalidates the whole pattern; there is no partial
// credit and no retry.
package rules

import (
	"fmt"

	"example.com/elliott-wave-analyzer/internal/kline"
	"example.com/elliott-wave-analyzer/internal/wave"
)

// Check is the outcome of one rule in the checklist.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

// Result holds the full checklist outcome for one pattern.
type Result struct {
	Checks []Check `json:"checks"`
}

// Passed reports whether every hard rule held.
func (r Result) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Violations returns the reasons of all failed checks.
func (r Result) Violations() []string {
	var out []string
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c.Reason)
		}
	}
	return out
}

// Validate runs the checklist for the pattern's shape.
func Validate(p wave.Pattern) Result {
	if p.Kind == wave.KindImpulse {
		return ValidateImpulse(p)
	}
	return ValidateCorrection(p)
}

// ValidateImpulse checks the three hard impulse rules plus structural
// soundness, top to bottom. Uptrend logic is mirrored for downtrend patterns.
func ValidateImpulse(p wave.Pattern) Result {
	var r Result
	if c, ok := checkStructure(p); !ok {
		r.Checks = append(r.Checks, c)
		return r
	}

	w1, w2, w3, w4, w5 := p.Waves[0], p.Waves[1], p.Waves[2], p.Waves[3], p.Waves[4]
	up := p.Direction() == kline.DirectionUp

	// Rule 1: wave 2 must not retrace beyond the start of wave 1.
	c := Check{Name: "wave2_retracement", Passed: true}
	if (up && w2.EndPrice <= w1.StartPrice) || (!up && w2.EndPrice >= w1.StartPrice) {
		c.Passed = false
		c.Reason = "wave 2 retraced more than 100% of wave 1"
	}
	r.Checks = append(r.Checks, c)

	// Rule 2: wave 3 is never the shortest of waves 1, 3, 5.
	c = Check{Name: "wave3_not_shortest", Passed: true}
	if w3.Length() < w1.Length() && w3.Length() < w5.Length() {
		c.Passed = false
		c.Reason = "wave 3 is the shortest wave"
	}
	r.Checks = append(r.Checks, c)

	// Rule 3: wave 4 stays out of wave 1 price territory, unless the pattern
	// is flagged as a diagonal variant.
	c = Check{Name: "wave4_overlap", Passed: true}
	if !p.Diagonal {
		if (up && w4.EndPrice <= w1.EndPrice) || (!up && w4.EndPrice >= w1.EndPrice) {
			c.Passed = false
			c.Reason = "wave 4 overlaps wave 1 price territory"
		}
	}
	r.Checks = append(r.Checks, c)

	return r
}

// ValidateCorrection checks the hard corrective rules. The expectation that
// wave C extends past wave A's end is a guideline, not a rule, so running
// variants survive validation.
func ValidateCorrection(p wave.Pattern) Result {
	var r Result
	if c, ok := checkStructure(p); !ok {
		r.Checks = append(r.Checks, c)
		return r
	}

	wA, wB, wC := p.Waves[0], p.Waves[1], p.Waves[2]
	down := p.Direction() == kline.DirectionDown

	// Rule 1: wave B must not retrace beyond wave A's start. The zigzag
	// sub-variant takes the start price as a hard boundary; flats get the
	// expanded tolerance of 140% of wave A.
	c := Check{Name: "waveB_retracement", Passed: true}
	if p.Zigzag {
		if (down && wB.EndPrice >= wA.StartPrice) || (!down && wB.EndPrice <= wA.StartPrice) {
			c.Passed = false
			c.Reason = "wave B retraced beyond wave A start"
		}
	} else if wA.Length() > 0 {
		ratio := wB.Length() / wA.Length()
		if ratio > 1.40 {
			c.Passed = false
			c.Reason = fmt.Sprintf("wave B retracement too large: %.2f", ratio)
		}
	}
	r.Checks = append(r.Checks, c)

	// Rule 2: wave C must reach at least half of wave A's length.
	c = Check{Name: "waveC_length", Passed: true}
	if wA.Length() > 0 {
		ratio := wC.Length() / wA.Length()
		if ratio < 0.50 {
			c.Passed = false
			c.Reason = fmt.Sprintf("wave C too short relative to wave A: %.2f", ratio)
		}
	}
	r.Checks = append(r.Checks, c)

	return r
}

// checkStructure rejects degenerate assemblies: wrong wave count, zero-length
// waves, or segment directions that fail to alternate (a collapsed group whose
// interior swings overpowered its nominal direction).
func checkStructure(p wave.Pattern) (Check, bool) {
	c := Check{Name: "structure", Passed: true}
	if len(p.Waves) != p.Kind.Segments() {
		c.Passed = false
		c.Reason = fmt.Sprintf("expected %d waves, got %d", p.Kind.Segments(), len(p.Waves))
		return c, false
	}
	for i, w := range p.Waves {
		if w.Length() <= 0 {
			c.Passed = false
			c.Reason = fmt.Sprintf("wave %s has zero length", w.Label)
			return c, false
		}
		if i > 0 && w.Direction == p.Waves[i-1].Direction {
			c.Passed = false
			c.Reason = fmt.Sprintf("wave %s does not alternate direction", w.Label)
			return c, false
		}
	}
	return c, true
}
