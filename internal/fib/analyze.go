package fib

import (
	"example.com/elliott-wave-analyzer/internal/kline"
	"example.com/elliott-wave-analyzer/internal/wave"
)

// Analysis aggregates the per-relationship readings of one pattern into a
// single 0-100 Fibonacci quality score.
type Analysis struct {
	Measurements  []Measurement `json:"measurements"`
	Score         float64       `json:"score"`
	Confirmations int           `json:"confirmations"`
}

// Analyze measures every meaningful relationship of the pattern's shape. Wave
// 5 is read against three references (wave 1, the wave 1-3 net move, and the
// inverse of wave 4) whose qualities average into one contribution.
func Analyze(p wave.Pattern) Analysis {
	if p.Kind == wave.KindImpulse {
		return analyzeImpulse(p)
	}
	return analyzeCorrection(p)
}

func analyzeImpulse(p wave.Pattern) Analysis {
	w1, w2, w3, w4, w5 := p.Waves[0], p.Waves[1], p.Waves[2], p.Waves[3], p.Waves[4]

	var a Analysis
	m2 := Measure(Wave2Retracement, ratio(w2.Length(), w1.Length()))
	m3 := Measure(Wave3Extension, ratio(w3.Length(), w1.Length()))
	m4 := Measure(Wave4Retracement, ratio(w4.Length(), w3.Length()))

	// Net advance from the origin of wave 1 to the extreme of wave 3.
	var span13 float64
	if p.Direction() == kline.DirectionUp {
		span13 = w3.EndPrice - w1.StartPrice
	} else {
		span13 = w1.StartPrice - w3.EndPrice
	}
	m5a := Measure(Wave5VsWave1, ratio(w5.Length(), w1.Length()))
	m5b := Measure(Wave5VsWave13, ratio(w5.Length(), span13))
	m5c := Measure(Wave5InverseW4, ratio(w5.Length(), w4.Length()))
	wave5Quality := (m5a.Quality + m5b.Quality + m5c.Quality) / 3

	a.Measurements = []Measurement{m2, m3, m4, m5a, m5b, m5c}
	a.Score = (m2.Quality + m3.Quality + m4.Quality + wave5Quality) / 4
	for _, q := range []float64{m2.Quality, m3.Quality, m4.Quality, wave5Quality} {
		if q >= 70 {
			a.Confirmations++
		}
	}
	return a
}

func analyzeCorrection(p wave.Pattern) Analysis {
	wA, wB, wC := p.Waves[0], p.Waves[1], p.Waves[2]

	var a Analysis
	mB := Measure(WaveBVsWaveA, ratio(wB.Length(), wA.Length()))
	mC := Measure(WaveCVsWaveA, ratio(wC.Length(), wA.Length()))

	a.Measurements = []Measurement{mB, mC}
	a.Score = (mB.Quality + mC.Quality) / 2
	for _, m := range a.Measurements {
		if m.Quality >= 70 {
			a.Confirmations++
		}
	}
	return a
}

func ratio(length, reference float64) float64 {
	if reference <= 0 {
		return 0
	}
	return length / reference
}
