package rules

import (
	"strings"
	"testing"

	"example.com/elliott-wave-analyzer/internal/kline"
	"example.com/elliott-wave-analyzer/internal/wave"
)

// mkPattern builds a pattern from turning-point prices, one index per turn.
func mkPattern(kind wave.Kind, prices ...float64) wave.Pattern {
	labels := kind.Labels()
	waves := make([]wave.Wave, 0, len(labels))
	for i := 1; i < len(prices); i++ {
		dir := kline.DirectionUp
		if prices[i] < prices[i-1] {
			dir = kline.DirectionDown
		}
		waves = append(waves, wave.Wave{
			Label:      labels[i-1],
			StartIdx:   i - 1,
			EndIdx:     i,
			StartPrice: prices[i-1],
			EndPrice:   prices[i],
			Direction:  dir,
			SwingCount: 1,
		})
	}
	return wave.Pattern{Kind: kind, Waves: waves, Zigzag: kind == wave.KindCorrection}
}

func failedCheck(r Result, name string) bool {
	for _, c := range r.Checks {
		if c.Name == name && !c.Passed {
			return true
		}
	}
	return false
}

func TestValidateImpulsePasses(t *testing.T) {
	// Wave lengths 10, 3, 18, 4, 9: a clean uptrend impulse.
	r := Validate(mkPattern(wave.KindImpulse, 100, 110, 107, 125, 121, 130))
	if !r.Passed() {
		t.Fatalf("expected pass, violations: %v", r.Violations())
	}
	if len(r.Checks) != 3 {
		t.Errorf("got %d checks, want 3", len(r.Checks))
	}
}

func TestValidateImpulseDowntrendMirror(t *testing.T) {
	r := Validate(mkPattern(wave.KindImpulse, 130, 120, 123, 105, 109, 100))
	if !r.Passed() {
		t.Fatalf("expected downtrend pass, violations: %v", r.Violations())
	}
}

func TestWave2FullRetracementFails(t *testing.T) {
	// Wave 2 falls back below wave 1's origin.
	r := ValidateImpulse(mkPattern(wave.KindImpulse, 100, 110, 99, 125, 121, 130))
	if r.Passed() {
		t.Fatal("expected failure")
	}
	if !failedCheck(r, "wave2_retracement") {
		t.Errorf("wrong check failed: %+v", r.Checks)
	}
}

func TestWave3ShortestFails(t *testing.T) {
	// Wave lengths 10, 3, 2, 1, 9: wave 3 shorter than both 1 and 5.
	r := ValidateImpulse(mkPattern(wave.KindImpulse, 100, 110, 107, 109, 108, 117))
	if r.Passed() {
		t.Fatal("expected failure")
	}
	if !failedCheck(r, "wave3_not_shortest") {
		t.Errorf("wrong check failed: %+v", r.Checks)
	}
}

func TestWave4OverlapFailsUnlessDiagonal(t *testing.T) {
	// Wave 4 ends at 108, inside wave 1 territory (100..110).
	p := mkPattern(wave.KindImpulse, 100, 110, 104, 125, 108, 130)
	r := ValidateImpulse(p)
	if !failedCheck(r, "wave4_overlap") {
		t.Fatalf("expected overlap failure: %+v", r.Checks)
	}

	p.Diagonal = true
	if r := ValidateImpulse(p); !r.Passed() {
		t.Errorf("diagonal should waive the overlap rule, violations: %v", r.Violations())
	}
}

func TestZigzagWaveBBeyondStartFails(t *testing.T) {
	// Downward zigzag: B rallies above A's origin.
	p := mkPattern(wave.KindCorrection, 100, 90, 101, 85)
	r := ValidateCorrection(p)
	if !failedCheck(r, "waveB_retracement") {
		t.Fatalf("expected wave B failure: %+v", r.Checks)
	}
}

func TestFlatWaveBExpandedTolerance(t *testing.T) {
	// Same geometry without the zigzag flag: B at 110% of A is fine for a
	// flat, 150% is not.
	p := mkPattern(wave.KindCorrection, 100, 90, 101, 85)
	p.Zigzag = false
	if r := ValidateCorrection(p); !r.Passed() {
		t.Errorf("flat with 110%% retracement should pass, violations: %v", r.Violations())
	}

	p = mkPattern(wave.KindCorrection, 100, 90, 105, 85)
	p.Zigzag = false
	r := ValidateCorrection(p)
	if !failedCheck(r, "waveB_retracement") {
		t.Errorf("flat with 150%% retracement should fail: %+v", r.Checks)
	}
}

func TestWaveCTooShortFails(t *testing.T) {
	// A drops 10, C drops only 4.
	p := mkPattern(wave.KindCorrection, 100, 90, 96, 92)
	r := ValidateCorrection(p)
	if !failedCheck(r, "waveC_length") {
		t.Fatalf("expected wave C failure: %+v", r.Checks)
	}
}

func TestRunningCorrectionSurvivesRules(t *testing.T) {
	// C stops short of A's end. That costs guideline credit, not validity.
	p := mkPattern(wave.KindCorrection, 100, 90, 96, 91)
	if r := ValidateCorrection(p); !r.Passed() {
		t.Errorf("running correction should pass rules, violations: %v", r.Violations())
	}
}

func TestStructureRejectsNonAlternating(t *testing.T) {
	p := mkPattern(wave.KindImpulse, 100, 110, 107, 125, 121, 130)
	p.Waves[1].Direction = kline.DirectionUp
	r := Validate(p)
	if r.Passed() {
		t.Fatal("expected structure failure")
	}
	if !failedCheck(r, "structure") {
		t.Errorf("wrong check failed: %+v", r.Checks)
	}
}

func TestStructureRejectsWrongWaveCount(t *testing.T) {
	p := mkPattern(wave.KindImpulse, 100, 110, 107, 125)
	r := Validate(p)
	if !failedCheck(r, "structure") {
		t.Errorf("expected structure failure: %+v", r.Checks)
	}
}

func TestViolationsCarryReasons(t *testing.T) {
	r := ValidateImpulse(mkPattern(wave.KindImpulse, 100, 110, 99, 125, 121, 130))
	vs := r.Violations()
	if len(vs) == 0 {
		t.Fatal("expected violations")
	}
	if !strings.Contains(vs[0], "wave 2") {
		t.Errorf("violation reason %q should name the wave", vs[0])
	}
}
