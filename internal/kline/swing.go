package kline

// Direction of a swing or wave.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Opposite returns the reversed direction.
func (d Direction) Opposite() Direction {
	if d == DirectionUp {
		return DirectionDown
	}
	return DirectionUp
}

// Swing is one uninterrupted directional price move (a monowave), the atomic
// unit of wave construction. Direction alternates between consecutive swings
// of a chain and Length is always positive.
type Swing struct {
	StartIdx   int       `json:"start_idx"`
	EndIdx     int       `json:"end_idx"`
	StartPrice float64   `json:"start_price"`
	EndPrice   float64   `json:"end_price"`
	Direction  Direction `json:"direction"`
}

// Length returns the absolute price distance covered by the swing.
func (s Swing) Length() float64 {
	if s.EndPrice > s.StartPrice {
		return s.EndPrice - s.StartPrice
	}
	return s.StartPrice - s.EndPrice
}

// Duration returns the number of indices the swing spans.
func (s Swing) Duration() int {
	return s.EndIdx - s.StartIdx
}

// ExtractSwings converts a series into an ordered chain of alternating swings
// covering the whole input. A swing keeps extending while the price makes new
// extremes in the active direction; a single bar that fails to extend closes
// the swing and starts the next one at the last extreme. A series shorter
// than two samples yields no swings.
func ExtractSwings(series Series) []Swing {
	if len(series) < 2 {
		return nil
	}

	dir := DirectionDown
	if series[1].High > series[0].High {
		dir = DirectionUp
	}

	anchorIdx := 0
	var anchorPrice float64
	if dir == DirectionUp {
		anchorPrice = series[0].Low
	} else {
		anchorPrice = series[0].High
	}

	extIdx := 1
	var extPrice float64
	if dir == DirectionUp {
		extPrice = series[1].High
	} else {
		extPrice = series[1].Low
	}

	var swings []Swing
	for i := 2; i < len(series); i++ {
		c := series[i]
		if dir == DirectionUp {
			if c.High >= extPrice {
				extPrice = c.High
				extIdx = i
				continue
			}
		} else {
			if c.Low <= extPrice {
				extPrice = c.Low
				extIdx = i
				continue
			}
		}

		// Reversal bar: close the active swing at its extreme and start
		// the opposite swing from there.
		if extPrice != anchorPrice {
			swings = append(swings, Swing{
				StartIdx:   anchorIdx,
				EndIdx:     extIdx,
				StartPrice: anchorPrice,
				EndPrice:   extPrice,
				Direction:  dir,
			})
			anchorIdx = extIdx
			anchorPrice = extPrice
		}
		dir = dir.Opposite()
		if dir == DirectionUp {
			extPrice = c.High
		} else {
			extPrice = c.Low
		}
		extIdx = i
	}

	if extIdx > anchorIdx && extPrice != anchorPrice {
		swings = append(swings, Swing{
			StartIdx:   anchorIdx,
			EndIdx:     extIdx,
			StartPrice: anchorPrice,
			EndPrice:   extPrice,
			Direction:  dir,
		})
	}

	return swings
}
