// Package confirm flags reversal candles that print near a projected target
// or invalidation level. Signals are reporting aids for target tracking and
// never feed the probability score.
package confirm

import (
	talibcdl "github.com/iwat/talib-cdl-go"

	"example.com/elliott-wave-analyzer/internal/kline"
)

// Signal is one reversal candle found inside a level's tolerance zone.
type Signal struct {
	Pattern    string          `json:"pattern"`
	Direction  kline.Direction `json:"direction"` // implied reversal direction
	Index      int             `json:"index"`
	Confidence int             `json:"confidence"` // 0-100
}

// Checker scans a series for reversal candles around price levels.
type Checker struct {
	// Tolerance is the relative half-width of the zone around a level.
	Tolerance float64
}

// NewChecker returns a checker with a 0.5% zone, matching the tolerance used
// for target reached/exceeded status.
func NewChecker() *Checker {
	return &Checker{Tolerance: 0.005}
}

// toSeries converts candles to the talib-cdl-go series format.
// Candles must be in time order (oldest first, newest last).
func toSeries(candles kline.Series) talibcdl.SimpleSeries {
	n := len(candles)
	series := talibcdl.SimpleSeries{
		Opens:  make([]float64, n),
		Highs:  make([]float64, n),
		Lows:   make([]float64, n),
		Closes: make([]float64, n),
	}
	for i, c := range candles {
		series.Opens[i] = c.Open
		series.Highs[i] = c.High
		series.Lows[i] = c.Low
		series.Closes[i] = c.Close
	}
	return series
}

// AtLevel returns reversal signals on bars whose range touches the zone
// around level. Bars outside the zone are ignored even when they form a
// pattern.
func (ch *Checker) AtLevel(candles kline.Series, level float64) []Signal {
	if len(candles) < 3 || level <= 0 {
		return nil
	}

	series := toSeries(candles)
	lo := level * (1 - ch.Tolerance)
	hi := level * (1 + ch.Tolerance)

	var signals []Signal

	emit := func(results []int, name string) {
		for i, v := range results {
			if v == 0 {
				continue
			}
			if candles[i].Low > hi || candles[i].High < lo {
				continue
			}
			dir := kline.DirectionDown
			if v > 0 {
				dir = kline.DirectionUp
			}
			signals = append(signals, Signal{
				Pattern:    name,
				Direction:  dir,
				Index:      i,
				Confidence: absInt(v),
			})
		}
	}

	emit(talibcdl.Doji(series), "doji")
	emit(talibcdl.EveningStar(series, 0.3), "evening_star")
	emit(talibcdl.Piercing(series), "piercing")
	emit(talibcdl.ThreeWhiteSoldiers(series), "three_white_soldiers")
	emit(talibcdl.ThreeBlackCrows(series), "three_black_crows")

	for i := range candles {
		if candles[i].Low > hi || candles[i].High < lo {
			continue
		}
		if found, dir, conf := hammerAt(candles, i); found {
			signals = append(signals, Signal{Pattern: "hammer", Direction: dir, Index: i, Confidence: conf})
		}
		if found, dir, conf := shootingStarAt(candles, i); found {
			signals = append(signals, Signal{Pattern: "shooting_star", Direction: dir, Index: i, Confidence: conf})
		}
		if found, dir, conf := engulfingAt(candles, i); found {
			signals = append(signals, Signal{Pattern: "engulfing", Direction: dir, Index: i, Confidence: conf})
		}
	}

	return signals
}

// hammerAt checks for a hammer at index i: small body, lower shadow at least
// twice the body, negligible upper shadow, after a short downtrend.
func hammerAt(candles kline.Series, i int) (bool, kline.Direction, int) {
	if i < 3 {
		return false, "", 0
	}
	c := candles[i]
	body := abs(c.Close - c.Open)
	if body == 0 {
		body = c.Range() * 0.01
	}
	upper := c.High - maxOf(c.Open, c.Close)
	lower := minOf(c.Open, c.Close) - c.Low
	if lower >= body*2 && upper < body*0.3 && isDowntrend(candles[i-3:i]) {
		return true, kline.DirectionUp, 70
	}
	return false, "", 0
}

// shootingStarAt is the bearish mirror of hammerAt.
func shootingStarAt(candles kline.Series, i int) (bool, kline.Direction, int) {
	if i < 3 {
		return false, "", 0
	}
	c := candles[i]
	body := abs(c.Close - c.Open)
	if body == 0 {
		body = c.Range() * 0.01
	}
	upper := c.High - maxOf(c.Open, c.Close)
	lower := minOf(c.Open, c.Close) - c.Low
	if upper >= body*2 && lower < body*0.3 && isUptrend(candles[i-3:i]) {
		return true, kline.DirectionDown, 70
	}
	return false, "", 0
}

// engulfingAt checks whether bar i's body engulfs bar i-1's opposite body.
func engulfingAt(candles kline.Series, i int) (bool, kline.Direction, int) {
	if i < 1 {
		return false, "", 0
	}
	prev, cur := candles[i-1], candles[i]
	if prev.IsBearish() && cur.IsBullish() && cur.Open <= prev.Close && cur.Close >= prev.Open {
		return true, kline.DirectionUp, 80
	}
	if prev.IsBullish() && cur.IsBearish() && cur.Open >= prev.Close && cur.Close <= prev.Open {
		return true, kline.DirectionDown, 80
	}
	return false, "", 0
}

// isDowntrend: closing prices decreasing or at least 2/3 bearish bars.
func isDowntrend(candles kline.Series) bool {
	if len(candles) < 2 {
		return false
	}
	decreasing := true
	for i := 1; i < len(candles); i++ {
		if candles[i].Close >= candles[i-1].Close {
			decreasing = false
			break
		}
	}
	if decreasing {
		return true
	}
	bearish := 0
	for _, c := range candles {
		if c.IsBearish() {
			bearish++
		}
	}
	return bearish >= (len(candles)*2)/3
}

func isUptrend(candles kline.Series) bool {
	if len(candles) < 2 {
		return false
	}
	increasing := true
	for i := 1; i < len(candles); i++ {
		if candles[i].Close <= candles[i-1].Close {
			increasing = false
			break
		}
	}
	if increasing {
		return true
	}
	bullish := 0
	for _, c := range candles {
		if c.IsBullish() {
			bullish++
		}
	}
	return bullish >= (len(candles)*2)/3
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func maxOf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minOf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
