package sim

import (
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/keebworks/sidelink.go/pkg/link/transport"
)

// FaultLine wraps a transport and randomly drops or corrupts written
// words, imitating a noisy wire.
type FaultLine struct {
	transport.WordReadWriter

	// DropRate and CorruptRate are per-word probabilities in [0, 1].
	DropRate    float64
	CorruptRate float64

	rng       *XorShift32
	dropped   uint64
	corrupted uint64
}

// NewFaultLine wraps t with faults drawn from seed.
func NewFaultLine(t transport.WordReadWriter, seed uint32) *FaultLine {
	return &FaultLine{WordReadWriter: t, rng: NewXorShift32(seed)}
}

// WriteWord implements transport.WordWriter.
func (f *FaultLine) WriteWord(w uint32) error {
	if f.rng.Chance(f.DropRate) {
		atomic.AddUint64(&f.dropped, 1)
		glog.V(2).Infof("dropped %08x", w)
		return nil
	}
	if f.rng.Chance(f.CorruptRate) {
		atomic.AddUint64(&f.corrupted, 1)
		bit := uint(f.rng.Intn(32))
		glog.V(2).Infof("flipped bit %d of %08x", bit, w)
		w ^= 1 << bit
	}
	return f.WordReadWriter.WriteWord(w)
}

// Dropped returns the number of words swallowed.
func (f *FaultLine) Dropped() uint64 {
	return atomic.LoadUint64(&f.dropped)
}

// Corrupted returns the number of words damaged.
func (f *FaultLine) Corrupted() uint64 {
	return atomic.LoadUint64(&f.corrupted)
}
