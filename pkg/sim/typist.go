package sim

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/keebworks/sidelink.go/pkg/keymap"
	"github.com/keebworks/sidelink.go/pkg/link"
)

// Typist generates random key presses and releases on one endpoint,
// imitating a human on that half of the board. It implements
// framework.Runnable.
type Typist struct {
	Endpoint *link.Endpoint
	// Rate is key events per second, 10 when zero.
	Rate float64
	Seed uint32

	sent uint64
}

// Name implements framework.Named.
func (t *Typist) Name() string {
	return "typist"
}

// Run types until ctx is canceled. A link that is down or busy skips
// beats instead of failing the run.
func (t *Typist) Run(ctx context.Context) error {
	rate := t.Rate
	if rate <= 0 {
		rate = 10
	}
	rng := NewXorShift32(t.Seed)
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()

	var down [][2]uint8
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		var err error
		if len(down) > 0 && rng.Chance(0.5) {
			i := rng.Intn(len(down))
			k := down[i]
			if err = t.Endpoint.Release(k[0], k[1]); err == nil {
				down = append(down[:i], down[i+1:]...)
			}
		} else {
			row, col := uint8(rng.Intn(keymap.Rows)), uint8(rng.Intn(keymap.Cols))
			if err = t.Endpoint.Press(row, col); err == nil {
				down = append(down, [2]uint8{row, col})
			}
		}
		switch err {
		case nil:
			atomic.AddUint64(&t.sent, 1)
		case link.ErrNotReady, link.ErrWindowFull:
		default:
			return err
		}
	}
}

// Sent returns the number of key events transmitted.
func (t *Typist) Sent() uint64 {
	return atomic.LoadUint64(&t.sent)
}
