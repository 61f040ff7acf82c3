package labeler

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"example.com/elliott-wave-analyzer/internal/analyzer"
	"example.com/elliott-wave-analyzer/internal/kline"
	"example.com/elliott-wave-analyzer/internal/score"
	"example.com/elliott-wave-analyzer/internal/wave"
)

func flat(prices ...float64) kline.Series {
	s := make(kline.Series, len(prices))
	for i, p := range prices {
		s[i] = kline.Candle{Open: p, High: p, Low: p, Close: p}
	}
	return s
}

func testLabeler(t *testing.T, mutate func(*Config)) *Labeler {
	t.Helper()
	an, err := analyzer.New(analyzer.Config{
		MinProbability: 50,
		MaxSwings:      15,
		MaxResults:     10,
		Workers:        2,
	}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	cfg := Config{
		MinProbability: 50,
		Stride:         1,
		MaxPerStart:    3,
		Strategy:       StrategyHighestProbability,
		MinWindow:      2,
		Workers:        2,
		Impulse:        true,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	lb, err := New(cfg, an, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return lb
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []string{"highest_probability", "longest_span", "chronological"} {
		if _, err := ParseStrategy(s); err != nil {
			t.Errorf("ParseStrategy(%q) = %v", s, err)
		}
	}
	if _, err := ParseStrategy("best_fit"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad_floor", func(c *Config) { c.MinProbability = 150 }},
		{"zero_stride", func(c *Config) { c.Stride = 0 }},
		{"zero_per_start", func(c *Config) { c.MaxPerStart = 0 }},
		{"bad_strategy", func(c *Config) { c.Strategy = "best_fit" }},
		{"no_shapes", func(c *Config) { c.Impulse = false; c.Correction = false }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{
				MinProbability: 50, Stride: 1, MaxPerStart: 1,
				Strategy: StrategyChronological, Impulse: true,
			}
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a configuration error")
			}
		})
	}
}

func TestLabelSingleImpulse(t *testing.T) {
	lb := testLabeler(t, nil)
	series := flat(100, 110, 107, 125, 121, 130)

	res, err := lb.Label(context.Background(), series)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Segments) != 5 {
		t.Fatalf("got %d segments, want 5: %+v", len(res.Segments), res.Segments)
	}
	wantLabels := []string{"1", "2", "3", "4", "5"}
	for i, seg := range res.Segments {
		if seg.Label != wantLabels[i] {
			t.Errorf("segment %d label = %q, want %q", i, seg.Label, wantLabels[i])
		}
		if i > 0 && seg.StartIdx != res.Segments[i-1].EndIdx {
			t.Errorf("segment %d does not chain: %+v", i, res.Segments)
		}
	}
	if res.Stats.PatternsAccepted != 1 {
		t.Errorf("accepted = %d, want 1", res.Stats.PatternsAccepted)
	}
	if res.Stats.SegmentsLabeled != 5 {
		t.Errorf("segments labeled = %d, want 5", res.Stats.SegmentsLabeled)
	}
	if res.Stats.LabelCounts["3"] != 1 {
		t.Errorf("label counts = %v", res.Stats.LabelCounts)
	}
	if res.Stats.KindCounts[wave.KindImpulse] != 1 {
		t.Errorf("kind counts = %v", res.Stats.KindCounts)
	}
}

func TestLabelDeterministic(t *testing.T) {
	lb := testLabeler(t, nil)
	series := flat(100, 110, 107, 125, 121, 130, 122, 126, 118)

	first, err := lb.Label(context.Background(), series)
	if err != nil {
		t.Fatal(err)
	}
	second, err := lb.Label(context.Background(), series)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first.Segments, second.Segments) {
		t.Errorf("segments differ between runs:\n%+v\n%+v", first.Segments, second.Segments)
	}
	if !reflect.DeepEqual(first.Patterns, second.Patterns) {
		t.Error("pattern records differ between runs")
	}
}

func TestLabelNoDoubleClaims(t *testing.T) {
	lb := testLabeler(t, func(c *Config) { c.Correction = true })
	series := flat(100, 110, 107, 125, 121, 130, 122, 126, 118, 123, 115)

	res, err := lb.Label(context.Background(), series)
	if err != nil {
		t.Fatal(err)
	}

	claimed := make(map[int]bool)
	for _, seg := range res.Segments {
		for i := seg.StartIdx; i < seg.EndIdx; i++ {
			if claimed[i] {
				t.Fatalf("index %d claimed twice: %+v", i, res.Segments)
			}
			claimed[i] = true
		}
	}
}

func TestLabelStreamEmitsEverySegment(t *testing.T) {
	lb := testLabeler(t, nil)
	series := flat(100, 110, 107, 125, 121, 130)

	var streamed []Segment
	res, err := lb.LabelStream(context.Background(), series, func(seg Segment) error {
		streamed = append(streamed, seg)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(streamed) != len(res.Segments) {
		t.Errorf("streamed %d segments, result has %d", len(streamed), len(res.Segments))
	}
}

func TestLabelCancelledContext(t *testing.T) {
	lb := testLabeler(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := lb.Label(ctx, flat(100, 110, 107, 125, 121, 130))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestResultMarshalsElapsedSeconds(t *testing.T) {
	lb := testLabeler(t, nil)
	res, err := lb.Label(context.Background(), flat(100, 110, 107, 125, 121, 130))
	if err != nil {
		t.Fatal(err)
	}

	b, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		t.Fatal(err)
	}
	if _, ok := fields["elapsed_seconds"]; !ok {
		t.Errorf("missing elapsed_seconds field: %s", b)
	}
	if res.ElapsedSeconds < 0 || res.ElapsedSeconds > 60 {
		t.Errorf("elapsed seconds = %f", res.ElapsedSeconds)
	}
}

func TestLabelShortSeries(t *testing.T) {
	lb := testLabeler(t, nil)
	if _, err := lb.Label(context.Background(), flat(100)); err == nil {
		t.Error("expected validation error")
	}
}

func rec(id int, kind wave.Kind, prob float64, waves ...wave.Wave) PatternRecord {
	return PatternRecord{
		ID:          id,
		Kind:        kind,
		StartIdx:    waves[0].StartIdx,
		EndIdx:      waves[len(waves)-1].EndIdx,
		Probability: prob,
		Candidate: analyzer.Candidate{
			Pattern:     wave.Pattern{Kind: kind, Waves: waves},
			Probability: score.Probability{Valid: true, Overall: prob},
		},
	}
}

func w(label string, start, end int) wave.Wave {
	return wave.Wave{Label: label, StartIdx: start, EndIdx: end, StartPrice: 1, EndPrice: 2}
}

func TestResolveFirstWriterWins(t *testing.T) {
	lb := testLabeler(t, nil)

	// Two overlapping corrections: the 80 claims 0..6, the 65 only keeps its
	// wave C beyond index 6.
	records := []PatternRecord{
		rec(0, wave.KindCorrection, 65, w("A", 2, 5), w("B", 5, 6), w("C", 6, 9)),
		rec(1, wave.KindCorrection, 80, w("A", 0, 3), w("B", 3, 4), w("C", 4, 6)),
	}

	res, err := lb.resolve(10, records, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Segments) != 4 {
		t.Fatalf("got %d segments, want 4: %+v", len(res.Segments), res.Segments)
	}
	for _, seg := range res.Segments {
		switch {
		case seg.PatternID == 1:
			// all three waves of the stronger pattern
		case seg.PatternID == 0 && seg.Label == "C":
			// the weaker pattern's only unclaimed wave
		default:
			t.Errorf("unexpected segment: %+v", seg)
		}
	}
	for _, p := range res.Patterns {
		if !p.Accepted {
			t.Errorf("pattern %d should be accepted at least partially", p.ID)
		}
	}
}

func TestResolveStrategyOrdering(t *testing.T) {
	short := rec(0, wave.KindImpulse, 90, w("1", 4, 6))
	long := rec(1, wave.KindImpulse, 70, w("1", 0, 10))

	records := []PatternRecord{short, long}

	orderCandidates(records, StrategyHighestProbability)
	if records[0].ID != 0 {
		t.Error("highest_probability should order the 90 first")
	}

	orderCandidates(records, StrategyLongestSpan)
	if records[0].ID != 1 {
		t.Error("longest_span should order the wider pattern first")
	}

	orderCandidates(records, StrategyChronological)
	if records[0].ID != 1 {
		t.Error("chronological should order the earlier start first")
	}
}

func TestResolveTieBreakDeterministic(t *testing.T) {
	a := rec(0, wave.KindImpulse, 75, w("1", 3, 8))
	b := rec(1, wave.KindImpulse, 75, w("1", 1, 8))
	records := []PatternRecord{a, b}

	orderCandidates(records, StrategyHighestProbability)
	if records[0].ID != 1 {
		t.Error("equal probability should fall back to the earlier start")
	}
}
