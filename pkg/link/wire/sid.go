package wire

// Sid is a frame sequence number, five bits wide.
type Sid byte

// SidModulus is the size of the sequence space. The transmit window spans
// the whole space, so a sid is never reused while still outstanding, and
// half the space separates frames ahead of the cursor from stale ones.
const SidModulus = 32

// Next returns the sequence number following s.
func (s Sid) Next() Sid {
	return (s + 1) % SidModulus
}

// Since returns how many increments separate s from base.
func (s Sid) Since(base Sid) byte {
	return byte(s-base) % SidModulus
}

// IsValid checks if it's a representable sequence number.
func (s Sid) IsValid() bool {
	return s < SidModulus
}
