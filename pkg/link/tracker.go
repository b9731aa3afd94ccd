package link

import (
	"time"

	"github.com/keebworks/sidelink.go/pkg/link/wire"
)

// verdict classifies a received frame against the expected cursor.
type verdict int

const (
	// verdictAccept means the frame is next in order.
	verdictAccept verdict = iota
	// verdictGap means frames before it went missing.
	verdictGap
	// verdictDuplicate means the frame was already accepted.
	verdictDuplicate
)

// tracker is the receive cursor. Frames are accepted strictly in order;
// everything else is a gap ahead of the cursor or a stale duplicate
// behind it, split at half the sequence space.
type tracker struct {
	next wire.Sid

	// last replay request, deduplicated so a burst of frames behind a
	// single loss asks only once per round trip
	lastReq   wire.Sid
	lastReqAt time.Time
	haveReq   bool
}

// classify places sid relative to the expected cursor.
func (t *tracker) classify(sid wire.Sid) verdict {
	switch d := sid.Since(t.next); {
	case d == 0:
		return verdictAccept
	case d < wire.SidModulus/2:
		return verdictGap
	default:
		return verdictDuplicate
	}
}

// advance moves the cursor past an accepted frame.
func (t *tracker) advance() {
	t.next = t.next.Next()
	t.haveReq = false
}

// shouldRequest reports whether a replay request for missing should go
// out now, recording it if so.
func (t *tracker) shouldRequest(missing wire.Sid, now time.Time, timeout time.Duration) bool {
	if t.haveReq && t.lastReq == missing && now.Sub(t.lastReqAt) < timeout {
		return false
	}
	t.lastReq, t.lastReqAt, t.haveReq = missing, now, true
	return true
}

// reset rewinds the cursor to the start of the sequence space.
func (t *tracker) reset() {
	t.next = 0
	t.haveReq = false
}
