package wave

import (
	"testing"

	"example.com/elliott-wave-analyzer/internal/kline"
)

// chain builds an alternating swing chain from turning-point prices, one
// index per turn.
func chain(prices ...float64) []kline.Swing {
	var swings []kline.Swing
	for i := 1; i < len(prices); i++ {
		dir := kline.DirectionUp
		if prices[i] < prices[i-1] {
			dir = kline.DirectionDown
		}
		swings = append(swings, kline.Swing{
			StartIdx:   i - 1,
			EndIdx:     i,
			StartPrice: prices[i-1],
			EndPrice:   prices[i],
			Direction:  dir,
		})
	}
	return swings
}

func TestAssembleMinimalImpulse(t *testing.T) {
	swings := chain(100, 110, 107, 125, 121, 130)
	p, ok := Assemble(swings, 0, Option{Counts: []int{1, 1, 1, 1, 1}}, KindImpulse)
	if !ok {
		t.Fatal("assembly failed")
	}
	if len(p.Waves) != 5 {
		t.Fatalf("got %d waves, want 5", len(p.Waves))
	}

	labels := []string{"1", "2", "3", "4", "5"}
	for i, w := range p.Waves {
		if w.Label != labels[i] {
			t.Errorf("wave %d label = %q, want %q", i, w.Label, labels[i])
		}
		if w.SwingCount != 1 {
			t.Errorf("wave %s swing count = %d, want 1", w.Label, w.SwingCount)
		}
	}
	if p.Direction() != kline.DirectionUp {
		t.Errorf("direction = %s, want up", p.Direction())
	}
	if p.StartPrice() != 100 || p.EndPrice() != 130 {
		t.Errorf("endpoints = %.0f..%.0f, want 100..130", p.StartPrice(), p.EndPrice())
	}
}

func TestAssembleGroupsCollapse(t *testing.T) {
	// Wave 1 absorbs three swings: its endpoints are the group's extremes and
	// its direction is the net move.
	swings := chain(100, 110, 105, 120, 114, 135, 128, 150, 140)
	p, ok := Assemble(swings, 0, Option{Counts: []int{3, 1, 1}}, KindCorrection)
	if !ok {
		t.Fatal("assembly failed")
	}

	wA := p.Waves[0]
	if wA.StartPrice != 100 || wA.EndPrice != 120 {
		t.Errorf("wave A endpoints = %.0f..%.0f, want 100..120", wA.StartPrice, wA.EndPrice)
	}
	if wA.StartIdx != 0 || wA.EndIdx != 3 {
		t.Errorf("wave A indices = %d..%d, want 0..3", wA.StartIdx, wA.EndIdx)
	}
	if wA.Direction != kline.DirectionUp || wA.SwingCount != 3 {
		t.Errorf("wave A = %+v", wA)
	}
	if p.Zigzag {
		t.Error("assembly should not presume the zigzag sub-variant")
	}
}

func TestAssembleInsufficientSwings(t *testing.T) {
	swings := chain(100, 110, 107, 125)
	if _, ok := Assemble(swings, 0, Option{Counts: []int{1, 1, 1, 1, 1}}, KindImpulse); ok {
		t.Error("expected failure with too few swings")
	}
	if _, ok := Assemble(swings, 2, Option{Counts: []int{1, 1, 1}}, KindCorrection); ok {
		t.Error("expected failure when the start offset exhausts the chain")
	}
	if _, ok := Assemble(swings, 0, Option{Counts: []int{1, 1}}, KindCorrection); ok {
		t.Error("expected failure on segment count mismatch")
	}
}

func TestIntraInvalidated(t *testing.T) {
	// A retrace inside the wave-3 group that dips below wave 2's end breaks
	// the impulse even though the collapsed wave endpoints look fine.
	broken := chain(100, 110, 107, 118, 106, 125, 121, 130)
	opt := Option{Counts: []int{1, 1, 3, 1, 1}}
	if !IntraInvalidated(broken, 0, opt, KindImpulse) {
		t.Error("interior dip below wave 2 should invalidate")
	}

	clean := chain(100, 110, 107, 118, 112, 125, 121, 130)
	if IntraInvalidated(clean, 0, opt, KindImpulse) {
		t.Error("retraces holding above wave 2 should survive")
	}

	// Same rule for wave 5's group against wave 4's end.
	broken5 := chain(100, 110, 107, 125, 121, 127, 119, 130)
	opt5 := Option{Counts: []int{1, 1, 1, 1, 3}}
	if !IntraInvalidated(broken5, 0, opt5, KindImpulse) {
		t.Error("interior dip below wave 4 should invalidate")
	}

	if IntraInvalidated(broken, 0, opt, KindCorrection) {
		t.Error("corrections carry no intra-wave constraint")
	}
	if IntraInvalidated(broken, 5, opt, KindImpulse) {
		t.Error("out-of-range start should report false")
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("impulse"); err != nil || k != KindImpulse {
		t.Errorf("impulse: %v %v", k, err)
	}
	if k, err := ParseKind("correction"); err != nil || k != KindCorrection {
		t.Errorf("correction: %v %v", k, err)
	}
	if _, err := ParseKind("triangle"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
