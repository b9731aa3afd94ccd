package mqtt

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/golang/glog"
)

// wordBuffer absorbs a burst of inbound words between ReadWord calls.
const wordBuffer = 256

// Roles of the two halves on the broker.
const (
	RoleLeft  = "left"
	RoleRight = "right"
)

// PeerRole returns the role of the other half.
func PeerRole(role string) string {
	if role == RoleLeft {
		return RoleRight
	}
	return RoleLeft
}

// ReadWriter carries link words through a Queue. Each half publishes
// under <role>/tx and reads from the peer's.
type ReadWriter struct {
	queue    *Queue
	pubTopic string
	sub      *Subscription

	words chan uint32

	closeOnce sync.Once
	closed    chan struct{}
}

// ForRole opens a ReadWriter for the half named by role.
func ForRole(q *Queue, role string) (*ReadWriter, error) {
	return Open(q, role+"/tx", PeerRole(role)+"/tx")
}

// Open opens a ReadWriter publishing to pubTopic and reading from
// subTopic, both under the queue's prefix.
func Open(q *Queue, pubTopic, subTopic string) (*ReadWriter, error) {
	rw := &ReadWriter{
		queue:    q,
		pubTopic: pubTopic,
		words:    make(chan uint32, wordBuffer),
		closed:   make(chan struct{}),
	}
	sub, err := q.Sub(subTopic, rw.onMessage)
	if err != nil {
		return nil, err
	}
	rw.sub = sub
	return rw, nil
}

func (rw *ReadWriter) onMessage(topic string, payload []byte) {
	if len(payload) != 4 {
		glog.Warningf("%q: dropped %d-byte payload", topic, len(payload))
		return
	}
	select {
	case rw.words <- binary.LittleEndian.Uint32(payload):
	default:
		glog.Warningf("%q: word buffer full", topic)
	}
}

// ReadWord implements transport.WordReader.
func (rw *ReadWriter) ReadWord() (uint32, error) {
	select {
	case w := <-rw.words:
		return w, nil
	case <-rw.closed:
		return 0, io.EOF
	}
}

// WriteWord implements transport.WordWriter.
func (rw *ReadWriter) WriteWord(w uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], w)
	return rw.queue.Pub(rw.pubTopic, b[:])
}

// Close stops reading. The shared Queue stays open.
func (rw *ReadWriter) Close() error {
	var err error
	rw.closeOnce.Do(func() {
		err = rw.sub.Close()
		close(rw.closed)
	})
	return err
}
