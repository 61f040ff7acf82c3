package wave

// Option is an ordered allocation of swing counts to the logical segments of
// a pattern shape. Counts are odd so that a segment's net direction matches
// the direction of its first swing (even counts would end a segment on a
// counter-swing).
type Option struct {
	Counts []int `json:"counts"`
}

// Total returns the number of swings the option consumes.
func (o Option) Total() int {
	n := 0
	for _, c := range o.Counts {
		n += c
	}
	return n
}

// OptionIterator lazily enumerates every way to partition a contiguous run of
// swings into the shape's segment count. The sequence is finite, deterministic
// and restartable; nothing is materialized up front.
type OptionIterator struct {
	segments int
	limit    int
	counts   []int
	done     bool
}

// NewOptionIterator returns an iterator over options for a shape with the
// given segment count. available is the number of swings on hand from the
// start position; maxSwings is the configured combinatorial limit. The
// iterator is empty when fewer swings are available than segments required.
func NewOptionIterator(segments, available, maxSwings int) *OptionIterator {
	limit := maxSwings
	if available < limit {
		limit = available
	}
	return &OptionIterator{segments: segments, limit: limit}
}

// Next returns the next option, or false when the enumeration is exhausted.
func (it *OptionIterator) Next() (Option, bool) {
	if it.done || it.limit < it.segments || it.segments <= 0 {
		return Option{}, false
	}

	if it.counts == nil {
		it.counts = make([]int, it.segments)
		for i := range it.counts {
			it.counts[i] = 1
		}
		return it.emit(), true
	}

	// Odometer over odd counts, pruned by the swing budget: when bumping a
	// position overflows the budget, every larger value there overflows too.
	for i := it.segments - 1; i >= 0; i-- {
		it.counts[i] += 2
		if it.total() <= it.limit {
			return it.emit(), true
		}
		it.counts[i] = 1
	}
	it.done = true
	return Option{}, false
}

// Reset restarts the enumeration from the first option.
func (it *OptionIterator) Reset() {
	it.counts = nil
	it.done = false
}

func (it *OptionIterator) total() int {
	n := 0
	for _, c := range it.counts {
		n += c
	}
	return n
}

func (it *OptionIterator) emit() Option {
	out := make([]int, it.segments)
	copy(out, it.counts)
	return Option{Counts: out}
}
