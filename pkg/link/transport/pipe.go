package transport

import (
	"io"
	"sync"
)

// DefaultPipeDepth is how many words each pipe direction buffers. It
// must exceed what a full transmit window puts in flight or two
// endpoints pumping each other can wedge on a full buffer.
const DefaultPipeDepth = 256

// PipeEnd is one end of an in-process word pipe.
type PipeEnd struct {
	rx <-chan uint32
	tx chan uint32

	lock   sync.Mutex
	closed bool
}

// Pipe creates two connected in-process ends. Words written to one end
// are read from the other. Each direction buffers up to depth words;
// depth <= 0 selects DefaultPipeDepth.
func Pipe(depth int) (*PipeEnd, *PipeEnd) {
	if depth <= 0 {
		depth = DefaultPipeDepth
	}
	ab := make(chan uint32, depth)
	ba := make(chan uint32, depth)
	return &PipeEnd{rx: ba, tx: ab}, &PipeEnd{rx: ab, tx: ba}
}

// ReadWord implements WordReader. It returns io.EOF after the peer end
// closes and the buffer drains.
func (p *PipeEnd) ReadWord() (uint32, error) {
	w, ok := <-p.rx
	if !ok {
		return 0, io.EOF
	}
	return w, nil
}

// WriteWord implements WordWriter. It blocks while the direction buffer
// is full.
func (p *PipeEnd) WriteWord(w uint32) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return io.ErrClosedPipe
	}
	p.tx <- w
	return nil
}

// Close shuts down the transmit direction. The peer's ReadWord drains
// buffered words, then returns io.EOF.
func (p *PipeEnd) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if !p.closed {
		p.closed = true
		close(p.tx)
	}
	return nil
}
