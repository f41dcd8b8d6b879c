package sim

import "math/rand"

// countingSource wraps a rand.Source64 and counts every value drawn
// from it. The draw count is the only extra state needed to restore
// the PRNG from a snapshot: re-seed and fast-forward by the recorded
// number of draws.
//
// Both Int63 and Uint64 advance the underlying generator by exactly
// one step, so replaying N draws of either kind reproduces the state.
type countingSource struct {
	src   rand.Source64
	draws uint64
}

func newCountingSource(seed int64) *countingSource {
	return &countingSource{src: rand.NewSource(seed).(rand.Source64)}
}

func (s *countingSource) Int63() int64 {
	s.draws++
	return s.src.Int63()
}

func (s *countingSource) Uint64() uint64 {
	s.draws++
	return s.src.Uint64()
}

func (s *countingSource) Seed(seed int64) {
	s.src.Seed(seed)
	s.draws = 0
}

// fastForward consumes n draws, bringing a freshly seeded source to a
// snapshotted position.
func (s *countingSource) fastForward(n uint64) {
	for i := uint64(0); i < n; i++ {
		s.src.Int63()
	}
	s.draws = n
}

// weightedIndex picks an index in [0,n) with probability proportional
// to weight(i). Weights at or below zero are clamped to a small
// positive floor so a fully degenerate weight set still draws
// uniformly. Walk order is the caller's slice order, which must be
// deterministic.
func weightedIndex(rng *rand.Rand, n int, weight func(int) float64) int {
	const floor = 0.01

	total := 0.0
	for i := 0; i < n; i++ {
		w := weight(i)
		if w < floor {
			w = floor
		}
		total += w
	}

	r := rng.Float64() * total
	for i := 0; i < n; i++ {
		w := weight(i)
		if w < floor {
			w = floor
		}
		r -= w
		if r < 0 {
			return i
		}
	}
	return n - 1
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
