// Package score combines rule compliance, Fibonacci quality, guideline
// adherence, and structural clarity into one 0-100 probability per pattern.
package score

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"example.com/elliott-wave-analyzer/internal/fib"
	"example.com/elliott-wave-analyzer/internal/kline"
	"example.com/elliott-wave-analyzer/internal/rules"
	"example.com/elliott-wave-analyzer/internal/wave"
)

// Component weights of the overall probability.
const (
	WeightRules      = 0.40
	WeightFibonacci  = 0.30
	WeightGuidelines = 0.20
	WeightStructure  = 0.10
)

// Tier is the qualitative band of an overall probability.
type Tier string

const (
	TierVeryHigh Tier = "very_high" // >= 90
	TierHigh     Tier = "high"      // >= 75
	TierModerate Tier = "moderate"  // >= 60
	TierLow      Tier = "low"       // >= 50
	TierVeryLow  Tier = "very_low"
)

// Component is one weighted score contribution.
type Component struct {
	Score   float64  `json:"score"`
	Weight  float64  `json:"weight"`
	Details []string `json:"details,omitempty"`
}

// Probability is the full scoring breakdown for one pattern. Overall is the
// weighted sum of the four components; it is meaningless when Valid is false
// and callers must discard such candidates rather than trust any threshold.
type Probability struct {
	Valid           bool         `json:"valid"`
	Overall         float64      `json:"overall"`
	Tier            Tier         `json:"tier"`
	Rules           Component    `json:"rules"`
	Violations      []string     `json:"violations,omitempty"`
	Fibonacci       Component    `json:"fibonacci"`
	FibDetail       fib.Analysis `json:"fibonacci_detail"`
	Guidelines      Component    `json:"guidelines"`
	GuidelinesMet   int          `json:"guidelines_met"`
	GuidelinesTotal int          `json:"guidelines_total"`
	Structure       Component    `json:"structure"`
}

// Score validates and scores a pattern. Rule compliance is binary: any hard
// rule failure yields an invalid result with overall probability 0, computed
// without grading the remaining components.
func Score(p wave.Pattern) Probability {
	ruleRes := rules.Validate(p)

	out := Probability{
		Rules: Component{Weight: WeightRules},
	}
	if !ruleRes.Passed() {
		out.Violations = ruleRes.Violations()
		out.Tier = TierVeryLow
		return out
	}
	out.Valid = true
	out.Rules.Score = 100

	fa := fib.Analyze(p)
	out.FibDetail = fa
	out.Fibonacci = Component{Score: fa.Score, Weight: WeightFibonacci}

	var met, total int
	if p.Kind == wave.KindImpulse {
		out.Guidelines, met, total = impulseGuidelines(p)
	} else {
		out.Guidelines, met, total = correctionGuidelines(p)
	}
	out.GuidelinesMet = met
	out.GuidelinesTotal = total

	out.Structure = structureQuality(p)

	out.Overall = round2(out.Rules.Score*WeightRules +
		out.Fibonacci.Score*WeightFibonacci +
		out.Guidelines.Score*WeightGuidelines +
		out.Structure.Score*WeightStructure)
	out.Tier = tierOf(out.Overall)
	return out
}

func tierOf(p float64) Tier {
	switch {
	case p >= 90:
		return TierVeryHigh
	case p >= 75:
		return TierHigh
	case p >= 60:
		return TierModerate
	case p >= 50:
		return TierLow
	default:
		return TierVeryLow
	}
}

// impulseGuidelines scores the soft heuristics of an impulse. Each guideline
// grades 100/70/40 by how cleanly it holds, and the guideline component is
// their plain average.
func impulseGuidelines(p wave.Pattern) (Component, int, int) {
	w1, w2, w3, w4, w5 := p.Waves[0], p.Waves[1], p.Waves[2], p.Waves[3], p.Waves[4]
	var scores []float64
	var details []string

	add := func(s float64, d string) {
		scores = append(scores, s)
		details = append(details, d)
	}

	// Wave 3 is typically the longest.
	switch {
	case w3.Length() >= w1.Length() && w3.Length() >= w5.Length():
		add(100, "wave 3 is longest")
	case w3.Length() >= math.Max(w1.Length(), w5.Length())*0.9:
		add(70, "wave 3 is near longest")
	default:
		add(40, "wave 3 is not the longest")
	}

	// Wave 3 extension relative to wave 1.
	ext := 0.0
	if w1.Length() > 0 {
		ext = w3.Length() / w1.Length()
	}
	switch {
	case ext >= 1.50 && ext <= 2.70:
		add(100, fmt.Sprintf("wave 3 extension ideal: %.2fx", ext))
	case ext >= 1.20 && ext <= 3.20:
		add(70, fmt.Sprintf("wave 3 extension acceptable: %.2fx", ext))
	default:
		add(40, fmt.Sprintf("wave 3 extension weak: %.2fx", ext))
	}

	// Alternation: waves 2 and 4 should differ in retracement depth.
	r2, r4 := 0.0, 0.0
	if w1.Length() > 0 {
		r2 = w2.Length() / w1.Length()
	}
	if w3.Length() > 0 {
		r4 = w4.Length() / w3.Length()
	}
	diff := math.Abs(r2 - r4)
	switch {
	case diff > 0.20:
		add(100, "strong alternation between waves 2 and 4")
	case diff > 0.10:
		add(70, "moderate alternation between waves 2 and 4")
	default:
		add(40, "weak alternation between waves 2 and 4")
	}

	// Equality: when wave 3 extends, waves 1 and 5 tend toward equality.
	if w1.Length() > 0 && w3.Length() > w1.Length()*1.3 {
		eq := w5.Length() / w1.Length()
		switch {
		case eq >= 0.85 && eq <= 1.15:
			add(100, fmt.Sprintf("wave 1 and 5 equality: %.2f", eq))
		case eq >= 0.70 && eq <= 1.30:
			add(70, fmt.Sprintf("wave 1 and 5 near equality: %.2f", eq))
		default:
			add(40, fmt.Sprintf("wave 1 and 5 not equal: %.2f", eq))
		}
	} else {
		add(50, "wave 3 not extended, equality not applicable")
	}

	// Time proportionality between the corrective waves.
	if w2.Duration() > 0 && w4.Duration() > 0 {
		long := math.Max(float64(w2.Duration()), float64(w4.Duration()))
		short := math.Min(float64(w2.Duration()), float64(w4.Duration()))
		switch ratio := long / short; {
		case ratio <= 3:
			add(100, "time proportionality good")
		case ratio <= 6:
			add(70, "time proportionality acceptable")
		default:
			add(40, "time proportionality poor")
		}
	}

	return finishGuidelines(scores, details)
}

func correctionGuidelines(p wave.Pattern) (Component, int, int) {
	wA, wB, wC := p.Waves[0], p.Waves[1], p.Waves[2]
	var scores []float64
	var details []string

	add := func(s float64, d string) {
		scores = append(scores, s)
		details = append(details, d)
	}

	cVsA := 0.0
	if wA.Length() > 0 {
		cVsA = wC.Length() / wA.Length()
	}
	switch {
	case cVsA >= 0.90 && cVsA <= 1.70:
		add(100, fmt.Sprintf("wave C vs A ideal: %.2f", cVsA))
	case cVsA >= 0.60 && cVsA <= 2.70:
		add(70, fmt.Sprintf("wave C vs A acceptable: %.2f", cVsA))
	default:
		add(40, fmt.Sprintf("wave C vs A weak: %.2f", cVsA))
	}

	bVsA := 0.0
	if wA.Length() > 0 {
		bVsA = wB.Length() / wA.Length()
	}
	switch {
	case bVsA >= 0.38 && bVsA <= 0.80:
		add(100, fmt.Sprintf("wave B retracement ideal: %.2f", bVsA))
	case bVsA >= 0.20 && bVsA <= 1.00:
		add(70, fmt.Sprintf("wave B retracement acceptable: %.2f", bVsA))
	default:
		add(40, fmt.Sprintf("wave B retracement unusual: %.2f", bVsA))
	}

	// Wave C usually travels past wave A's end; running corrections fall
	// short and only lose guideline credit here.
	down := p.Direction() == kline.DirectionDown
	past := (down && wC.EndPrice < wA.EndPrice) || (!down && wC.EndPrice > wA.EndPrice)
	if past {
		add(100, "wave C extends past wave A end")
	} else {
		add(40, "running correction: wave C stops short of wave A end")
	}

	if wA.Duration() > 0 {
		timeRatio := float64(wC.Duration()) / float64(wA.Duration())
		switch {
		case timeRatio >= 0.5 && timeRatio <= 2.0:
			add(100, "time proportionality good")
		case timeRatio >= 0.3 && timeRatio <= 5.0:
			add(70, "time proportionality acceptable")
		default:
			add(40, "time proportionality poor")
		}
	}

	return finishGuidelines(scores, details)
}

func finishGuidelines(scores []float64, details []string) (Component, int, int) {
	met := 0
	for _, s := range scores {
		if s >= 70 {
			met++
		}
	}
	return Component{
		Score:   round2(stat.Mean(scores, nil)),
		Weight:  WeightGuidelines,
		Details: details,
	}, met, len(scores)
}

// structureQuality rewards clean, non-degenerate wave sizes and durations.
func structureQuality(p wave.Pattern) Component {
	lengths := make([]float64, len(p.Waves))
	var durations []float64
	for i, w := range p.Waves {
		lengths[i] = w.Length()
		if w.Duration() > 0 {
			durations = append(durations, float64(w.Duration()))
		}
	}

	var scores []float64
	var details []string

	avgLen := stat.Mean(lengths, nil)
	minLen := minOf(lengths)
	switch {
	case minLen > avgLen*0.15:
		scores = append(scores, 100)
		details = append(details, "all waves have substantial size")
	case minLen > avgLen*0.08:
		scores = append(scores, 70)
		details = append(details, "wave sizes acceptable")
	default:
		scores = append(scores, 40)
		details = append(details, "some waves very small")
	}

	if len(durations) > 0 {
		avgDur := stat.Mean(durations, nil)
		minDur := minOf(durations)
		switch {
		case minDur > avgDur*0.1:
			scores = append(scores, 100)
			details = append(details, "wave durations well proportioned")
		case minDur > avgDur*0.05:
			scores = append(scores, 70)
			details = append(details, "wave durations acceptable")
		default:
			scores = append(scores, 40)
			details = append(details, "some waves very brief")
		}
	}

	return Component{
		Score:   round2(stat.Mean(scores, nil)),
		Weight:  WeightStructure,
		Details: details,
	}
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
