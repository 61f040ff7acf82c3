package analyzer

import (
	"context"

	"gonum.org/v1/gonum/stat"

	"example.com/elliott-wave-analyzer/internal/kline"
	"example.com/elliott-wave-analyzer/internal/wave"
)

// Bucket summarizes the candidates falling into one probability range.
type Bucket struct {
	Range          string        `json:"range"`
	Count          int           `json:"count"`
	AvgProbability float64       `json:"avg_probability"`
	Options        []wave.Option `json:"options"`
}

// Variations groups every candidate above the floor into probability buckets,
// showing which segment allocations explain the data best.
type Variations struct {
	Found   bool       `json:"found"`
	Total   int        `json:"total"`
	Best    *Candidate `json:"best,omitempty"`
	Buckets []Bucket   `json:"buckets,omitempty"`
}

var bucketBounds = []struct {
	name string
	lo   float64
}{
	{"90-100%", 90},
	{"80-89%", 80},
	{"70-79%", 70},
	{"60-69%", 60},
	{"50-59%", 50},
}

// SegmentVariations analyzes how different segment allocations affect the
// probability of patterns starting at startIdx.
func (a *Analyzer) SegmentVariations(ctx context.Context, series kline.Series, startIdx int, kind wave.Kind, floor float64) (Variations, error) {
	if err := series.Validate(); err != nil {
		return Variations{}, err
	}
	swings := kline.ExtractSwings(series)

	// Widen the result cap for this call: the point is the distribution,
	// not the single best count.
	wide := *a
	wide.cfg.MaxResults = 100
	res, err := wide.analyzeSwings(ctx, swings, startIdx, kind)
	if err != nil || !res.Found {
		return Variations{}, err
	}

	var kept []Candidate
	for _, c := range res.Candidates {
		if c.Probability.Overall >= floor {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return Variations{}, nil
	}

	out := Variations{Found: true, Total: len(kept), Best: &kept[0]}
	for _, b := range bucketBounds {
		var probs []float64
		bucket := Bucket{Range: b.name}
		hi := b.lo + 10
		if b.lo == 90 {
			hi = 101 // the top bucket includes a perfect score
		}
		for _, c := range kept {
			p := c.Probability.Overall
			if p >= b.lo && p < hi {
				bucket.Count++
				bucket.Options = append(bucket.Options, c.Option)
				probs = append(probs, p)
			}
		}
		if bucket.Count > 0 {
			bucket.AvgProbability = stat.Mean(probs, nil)
			out.Buckets = append(out.Buckets, bucket)
		}
	}
	return out, nil
}
