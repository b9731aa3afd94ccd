package link

import (
	"time"

	"github.com/keebworks/sidelink.go/pkg/link/wire"
)

// slot holds one sent frame until the peer acknowledges it.
type slot struct {
	msg       wire.Message
	firstSent time.Time // never refreshed; bounds how long a frame may stay unacked
	sentAt    time.Time // refreshed on every retransmission
}

// window is the transmit side of the sequencing machinery. Capacity
// equals the sequence space, so a sid is never reused while outstanding.
// Outstanding slots always form the contiguous range [base, next).
type window struct {
	slots [wire.SidModulus]*slot
	base  wire.Sid
	next  wire.Sid
	count int
}

// enqueue assigns the next sequence number to m and stores it.
func (w *window) enqueue(m wire.Message, now time.Time) (wire.Message, error) {
	if w.count == len(w.slots) {
		return wire.Message{}, ErrWindowFull
	}
	m.Sid = w.next
	w.slots[m.Sid] = &slot{msg: m, firstSent: now, sentAt: now}
	w.next = w.next.Next()
	w.count++
	return m, nil
}

// onAck retires every slot from the window base through subject.
// Cumulative retirement is what clears Ack and Error slots, which are
// never acknowledged individually. Subjects not outstanding are ignored.
func (w *window) onAck(subject wire.Sid) int {
	if w.count == 0 {
		return 0
	}
	n := int(subject.Since(w.base)) + 1
	if n > w.count {
		return 0
	}
	for i := 0; i < n; i++ {
		w.slots[w.base] = nil
		w.base = w.base.Next()
	}
	w.count -= n
	return n
}

// onReplay returns the stored frame for sid so it can be resent,
// refreshing its send time. It reports false when the frame is no longer
// held, which happens when the replay request crossed the retiring ack.
func (w *window) onReplay(sid wire.Sid, now time.Time) (wire.Message, bool) {
	s := w.slots[sid%wire.SidModulus]
	if s == nil {
		return wire.Message{}, false
	}
	s.sentAt = now
	return s.msg, true
}

// tick collects frames overdue for retransmission. Ack and Error slots
// are skipped; they go out again only on an explicit replay request.
func (w *window) tick(now time.Time, ackTimeout time.Duration) []wire.Message {
	if w.count == 0 {
		return nil
	}
	var due []wire.Message
	sid := w.base
	for i := 0; i < w.count; i++ {
		if s := w.slots[sid]; s != nil && s.msg.Kind.Ackable() && now.Sub(s.sentAt) >= ackTimeout {
			s.sentAt = now
			due = append(due, s.msg)
		}
		sid = sid.Next()
	}
	return due
}

// oldestAckable returns the first-send time of the oldest frame still
// waiting for its acknowledgement.
func (w *window) oldestAckable() (time.Time, bool) {
	sid := w.base
	for i := 0; i < w.count; i++ {
		if s := w.slots[sid]; s != nil && s.msg.Kind.Ackable() {
			return s.firstSent, true
		}
		sid = sid.Next()
	}
	return time.Time{}, false
}

// outstanding returns how many frames await acknowledgement.
func (w *window) outstanding() int {
	return w.count
}

// clear drops every slot and rewinds the sequence space.
func (w *window) clear() {
	for i := range w.slots {
		w.slots[i] = nil
	}
	w.base, w.next, w.count = 0, 0, 0
}
