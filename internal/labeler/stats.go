package labeler

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"example.com/elliott-wave-analyzer/internal/kline"
	"example.com/elliott-wave-analyzer/internal/wave"
)

// Stats summarizes one labeling run.
type Stats struct {
	PatternsConsidered int                     `json:"patterns_considered"`
	PatternsAccepted   int                     `json:"patterns_accepted"`
	SegmentsLabeled    int                     `json:"segments_labeled"`
	AvgProbability     float64                 `json:"avg_probability"`
	MedianProbability  float64                 `json:"median_probability"`
	AvgSegmentBars     float64                 `json:"avg_segment_bars"`
	LabelCounts        map[string]int          `json:"label_counts"`
	KindCounts         map[wave.Kind]int       `json:"kind_counts"`
	DirectionCounts    map[kline.Direction]int `json:"direction_counts"`
}

func computeStats(res Result) Stats {
	s := Stats{
		PatternsConsidered: len(res.Patterns),
		SegmentsLabeled:    len(res.Segments),
		LabelCounts:        make(map[string]int),
		KindCounts:         make(map[wave.Kind]int),
		DirectionCounts:    make(map[kline.Direction]int),
	}

	var probs []float64
	for _, rec := range res.Patterns {
		if rec.Accepted {
			s.PatternsAccepted++
			s.KindCounts[rec.Kind]++
			probs = append(probs, rec.Probability)
		}
	}

	var bars float64
	for _, seg := range res.Segments {
		s.LabelCounts[seg.Label]++
		s.DirectionCounts[seg.Direction]++
		bars += float64(seg.EndIdx - seg.StartIdx)
	}

	if len(probs) > 0 {
		sort.Float64s(probs)
		s.AvgProbability = round2(stat.Mean(probs, nil))
		s.MedianProbability = round2(stat.Quantile(0.5, stat.Empirical, probs, nil))
	}
	if len(res.Segments) > 0 {
		s.AvgSegmentBars = round2(bars / float64(len(res.Segments)))
	}
	return s
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
