// Package fib measures wave-to-wave price ratios against canonical Fibonacci
// levels and scores how closely a pattern conforms to them.
package fib

import "math"

// Relationship names a measured wave ratio.
type Relationship string

const (
	Wave2Retracement Relationship = "wave2_retracement"
	Wave3Extension   Relationship = "wave3_extension"
	Wave4Retracement Relationship = "wave4_retracement"
	Wave5VsWave1     Relationship = "wave5_vs_wave1"
	Wave5VsWave13    Relationship = "wave5_vs_wave13"
	Wave5InverseW4   Relationship = "wave5_inverse_wave4"
	WaveBVsWaveA     Relationship = "waveB_vs_waveA"
	WaveCVsWaveA     Relationship = "waveC_vs_waveA"
)

// Tolerance is the relative deviation band around a canonical level inside
// which a ratio still counts as a match. The match score decays linearly and
// symmetrically from 1 at the level to 0 at the band's edge.
const Tolerance = 0.05

// Canonical levels per relationship.
var levels = map[Relationship][]float64{
	Wave2Retracement: {0.382, 0.500, 0.618, 0.786, 0.854},
	Wave3Extension:   {1.000, 1.618, 2.000, 2.618, 3.236},
	Wave4Retracement: {0.146, 0.236, 0.382, 0.500},
	Wave5VsWave1:     {0.618, 1.000, 1.618},
	Wave5VsWave13:    {0.382, 0.618, 1.000},
	Wave5InverseW4:   {1.236, 1.382, 1.618, 2.000},
	WaveBVsWaveA:     {0.382, 0.500, 0.618, 0.786, 0.854},
	WaveCVsWaveA:     {0.618, 1.000, 1.236, 1.618, 2.618},
}

// Ideal ratio ranges per relationship, kept for reporting.
var idealRanges = map[Relationship][2]float64{
	Wave2Retracement: {0.500, 0.618},
	Wave3Extension:   {1.618, 2.618},
	Wave4Retracement: {0.236, 0.382},
	WaveCVsWaveA:     {1.000, 1.618},
}

// Match records one canonical level the measured ratio falls within tolerance
// of, with a 0-1 proximity score.
type Match struct {
	Level             float64 `json:"level"`
	Deviation         float64 `json:"deviation"`
	RelativeDeviation float64 `json:"relative_deviation"`
	Score             float64 `json:"score"`
}

// Measurement is the full reading for one relationship.
type Measurement struct {
	Relationship Relationship `json:"relationship"`
	Ratio        float64      `json:"ratio"`
	Nearest      float64      `json:"nearest_level"`
	Matches      []Match      `json:"matches,omitempty"`
	Quality      float64      `json:"quality"` // 0-100
	InIdealRange bool         `json:"in_ideal_range,omitempty"`
}

// Measure computes the reading of ratio against the relationship's canonical
// levels. Quality is 100 at an exact level, decays monotonically and
// symmetrically with distance, and is 0 outside the tolerance band of every
// level; multiple in-band levels earn a small bonus.
func Measure(rel Relationship, ratio float64) Measurement {
	m := Measurement{Relationship: rel, Ratio: ratio}
	canon := levels[rel]
	if len(canon) == 0 || ratio <= 0 {
		return m
	}

	nearestDist := math.Inf(1)
	for _, lvl := range canon {
		dev := math.Abs(ratio - lvl)
		if dev < nearestDist {
			nearestDist = dev
			m.Nearest = lvl
		}
		relDev := dev / lvl
		if relDev <= Tolerance {
			m.Matches = append(m.Matches, Match{
				Level:             lvl,
				Deviation:         dev,
				RelativeDeviation: relDev,
				Score:             1 - relDev/Tolerance,
			})
		}
	}
	sortMatches(m.Matches)

	if len(m.Matches) > 0 {
		bonus := math.Min(0.2, float64(len(m.Matches))*0.05)
		m.Quality = math.Min(1, m.Matches[0].Score+bonus) * 100
	}
	if r, ok := idealRanges[rel]; ok {
		m.InIdealRange = ratio >= r[0] && ratio <= r[1]
	}
	return m
}

func sortMatches(ms []Match) {
	// Insertion sort by descending score; match lists are tiny.
	for i := 1; i < len(ms); i++ {
		for j := i; j > 0 && ms[j].Score > ms[j-1].Score; j-- {
			ms[j], ms[j-1] = ms[j-1], ms[j]
		}
	}
}
