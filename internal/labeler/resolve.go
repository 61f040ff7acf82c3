package labeler

import (
	"runtime"
	"sort"

	"example.com/elliott-wave-analyzer/internal/wave"
)

// orderCandidates sorts records in the claim order a strategy demands. Every
// strategy ends in a total order, so resolution is deterministic.
func orderCandidates(records []PatternRecord, s Strategy) {
	span := func(r PatternRecord) int { return r.EndIdx - r.StartIdx }
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch s {
		case StrategyLongestSpan:
			if span(a) != span(b) {
				return span(a) > span(b)
			}
			if a.Probability != b.Probability {
				return a.Probability > b.Probability
			}
			return a.StartIdx < b.StartIdx
		case StrategyChronological:
			if a.StartIdx != b.StartIdx {
				return a.StartIdx < b.StartIdx
			}
			if a.Probability != b.Probability {
				return a.Probability > b.Probability
			}
			return span(a) < span(b)
		default: // highest probability
			if a.Probability != b.Probability {
				return a.Probability > b.Probability
			}
			if a.StartIdx != b.StartIdx {
				return a.StartIdx < b.StartIdx
			}
			if span(a) != span(b) {
				return span(a) < span(b)
			}
			return a.Kind == wave.KindImpulse && b.Kind != wave.KindImpulse
		}
	})
}

// resolve claims index ranges at segment granularity, first writer wins. A
// pattern contributes each wave whose half-open range [start,end) is still
// entirely unclaimed; a pattern is accepted when at least one of its waves
// lands.
func (l *Labeler) resolve(length int, records []PatternRecord, emit func(Segment) error) (Result, error) {
	ordered := make([]PatternRecord, len(records))
	copy(ordered, records)
	orderCandidates(ordered, l.cfg.Strategy)

	claimed := make([]bool, length)
	free := func(start, end int) bool {
		for i := start; i < end && i < length; i++ {
			if claimed[i] {
				return false
			}
		}
		return true
	}
	claim := func(start, end int) {
		for i := start; i < end && i < length; i++ {
			claimed[i] = true
		}
	}

	accepted := make(map[int]bool)
	var segments []Segment
	for _, rec := range ordered {
		for _, w := range rec.Candidate.Pattern.Waves {
			if w.StartIdx >= w.EndIdx || !free(w.StartIdx, w.EndIdx) {
				continue
			}
			claim(w.StartIdx, w.EndIdx)
			accepted[rec.ID] = true
			seg := Segment{
				PatternID:   rec.ID,
				Kind:        rec.Kind,
				Label:       w.Label,
				StartIdx:    w.StartIdx,
				EndIdx:      w.EndIdx,
				StartPrice:  w.StartPrice,
				EndPrice:    w.EndPrice,
				Direction:   w.Direction,
				Probability: rec.Probability,
			}
			segments = append(segments, seg)
			if emit != nil {
				if err := emit(seg); err != nil {
					return Result{}, err
				}
			}
		}
	}

	// Present segments chronologically whatever order they were claimed in.
	sort.Slice(segments, func(i, j int) bool {
		if segments[i].StartIdx != segments[j].StartIdx {
			return segments[i].StartIdx < segments[j].StartIdx
		}
		return segments[i].PatternID < segments[j].PatternID
	})

	final := make([]PatternRecord, len(records))
	copy(final, records)
	for i := range final {
		final[i].Accepted = accepted[final[i].ID]
	}
	return Result{Segments: segments, Patterns: final}, nil
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}
