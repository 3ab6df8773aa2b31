// Package rng is a seeded random number generator whose sequence depends
// only on the seed, so simulations replay identically.
package rng

// Source is a splitmix64 generator. The zero value is usable and seeded
// with 0.
type Source struct {
	seed  uint64
	state uint64
}

func New(seed uint64) *Source {
	return &Source{seed: seed, state: seed}
}

func (s *Source) Seed() uint64 { return s.seed }

// State returns the position in the sequence for Restore.
func (s *Source) State() uint64 { return s.state }

func (s *Source) Restore(state uint64) { s.state = state }

func (s *Source) Uint64() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Intn returns a value in [0, n). It panics if n <= 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		panic("rng: invalid argument to Intn")
	}
	bound := uint64(n)
	threshold := -bound % bound
	for {
		v := s.Uint64()
		if v >= threshold {
			return int(v % bound)
		}
	}
}

// Float64 returns a value in [0, 1).
func (s *Source) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}

// Range returns a value in [min, max).
func (s *Source) Range(min, max float64) float64 {
	return min + s.Float64()*(max-min)
}

// Chance reports true with probability p.
func (s *Source) Chance(p float64) bool {
	return s.Float64() < p
}
