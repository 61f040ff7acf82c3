package wave

import "example.com/elliott-wave-analyzer/internal/kline"

// Assemble materializes a concrete pattern from an option by concatenating
// grouped swings per segment. Each group collapses into one logical wave whose
// endpoints are the group's outer extremes and whose direction is the net
// direction of the move. Assembly is a pure mapping and performs no rule
// validation; it fails only when the option needs more swings than remain
// after start.
func Assemble(swings []kline.Swing, start int, opt Option, kind Kind) (Pattern, bool) {
	if len(opt.Counts) != kind.Segments() {
		return Pattern{}, false
	}
	if start < 0 || start+opt.Total() > len(swings) {
		return Pattern{}, false
	}

	labels := kind.Labels()
	waves := make([]Wave, 0, len(opt.Counts))
	pos := start
	for seg, count := range opt.Counts {
		group := swings[pos : pos+count]
		first, last := group[0], group[count-1]

		dir := kline.DirectionUp
		if last.EndPrice < first.StartPrice {
			dir = kline.DirectionDown
		}
		waves = append(waves, Wave{
			Label:      labels[seg],
			StartIdx:   first.StartIdx,
			EndIdx:     last.EndIdx,
			StartPrice: first.StartPrice,
			EndPrice:   last.EndPrice,
			Direction:  dir,
			SwingCount: count,
		})
		pos += count
	}

	return Pattern{Kind: kind, Waves: waves}, true
}

// IntraInvalidated reports whether an impulse assembled from the option is
// broken from the inside: a retrace during wave 3 that takes out wave 2's
// extreme, or one during wave 5 that takes out wave 4's. Collapsing a group
// hides its interior swings, so collapsed endpoints alone cannot catch this.
// Corrections have no such constraint.
func IntraInvalidated(swings []kline.Swing, start int, opt Option, kind Kind) bool {
	if kind != KindImpulse || start < 0 || start+opt.Total() > len(swings) {
		return false
	}

	up := swings[start].Direction == kline.DirectionUp

	// Extreme of the wave preceding each motive group.
	pos := start
	var boundary [5]float64
	for seg, count := range opt.Counts {
		if seg > 0 {
			boundary[seg] = swings[pos-1].EndPrice
		}
		pos += count
	}

	pos = start
	for seg, count := range opt.Counts {
		if seg == 2 || seg == 4 {
			for _, s := range swings[pos : pos+count] {
				if (up && s.EndPrice < boundary[seg]) || (!up && s.EndPrice > boundary[seg]) {
					return true
				}
			}
		}
		pos += count
	}
	return false
}
