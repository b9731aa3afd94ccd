// Package sim exercises a link without hardware: deterministic fault
// injection on the wire and generated key traffic.
package sim

// XorShift32 is a tiny deterministic generator. The same seed always
// produces the same fault pattern, so a failing run can be replayed.
type XorShift32 struct {
	state uint32
}

// NewXorShift32 seeds a generator. Seed zero is replaced, the
// sequence would stick there.
func NewXorShift32(seed uint32) *XorShift32 {
	if seed == 0 {
		seed = 1
	}
	return &XorShift32{state: seed}
}

// Next returns the next value in the sequence.
func (g *XorShift32) Next() uint32 {
	x := g.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	g.state = x
	return x
}

// Chance returns true with probability p.
func (g *XorShift32) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return float64(g.Next())/(1<<32) < p
}

// Intn returns a value in [0, n).
func (g *XorShift32) Intn(n int) int {
	return int(g.Next() % uint32(n))
}
