package link

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/keebworks/sidelink.go/pkg/link/transport"
	"github.com/keebworks/sidelink.go/pkg/link/wire"
)

// KeyHandler is called for each key transition delivered by the peer half.
type KeyHandler interface {
	HandleKey(ctx context.Context, row, col uint8, pressed bool)
}

// HandleKeyFunc is func type of KeyHandler.
type HandleKeyFunc func(ctx context.Context, row, col uint8, pressed bool)

// HandleKey implements KeyHandler.
func (f HandleKeyFunc) HandleKey(ctx context.Context, row, col uint8, pressed bool) {
	f(ctx, row, col, pressed)
}

// RgbHandler is called for RGB commands delivered by the peer half.
type RgbHandler interface {
	HandleRgbAnim(ctx context.Context, id uint8)
	HandleRgbLayer(ctx context.Context, layer uint8)
}

// StateNotifier is called when the link state changes.
type StateNotifier interface {
	StateChanged(ctx context.Context, state State)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(context.Context, State)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(ctx context.Context, state State) {
	f(ctx, state)
}

// Stats counts link activity since startup.
type Stats struct {
	WordsIn       uint64
	WordsOut      uint64
	FramesIn      uint64
	FramesOut     uint64
	ChecksumDrops uint64
	DecodeDrops   uint64
	Duplicates    uint64
	Gaps          uint64
	Retransmits   uint64
	AcksOut       uint64
	Timeouts      uint64
	Restarts      uint64
	Outstanding   int
}

// Timing defaults. The ack timeout covers a wire round trip with margin;
// the link timeout declares the peer dead.
const (
	DefaultAckTimeout   = 100 * time.Millisecond
	DefaultPingInterval = 3 * time.Second
	DefaultLinkTimeout  = 5 * time.Second
	DefaultTickInterval = 25 * time.Millisecond
)

// highWater is the occupancy at which a window holding only Ack and
// Error slots gets nudged with a Hello, whose acknowledgement then
// retires the backlog cumulatively.
const highWater = 24

// Endpoint drives one half of the link. It owns the transmit window, the
// receive cursor and the state machine, and pumps words through the
// transport. Collaborator callbacks run on the Run goroutine and must
// not block.
type Endpoint struct {
	Transport transport.WordReadWriter
	Keys      KeyHandler
	Rgb       RgbHandler
	Notifier  StateNotifier

	// Name tags log lines when several endpoints share a process.
	Name string
	// Initiator marks the half that opens the handshake, the right half
	// by convention. Exactly one half of a pair sets it.
	Initiator bool

	AckTimeout   time.Duration
	PingInterval time.Duration
	LinkTimeout  time.Duration
	TickInterval time.Duration

	lock    sync.Mutex
	state   State
	window  window
	tracker tracker
	stats   Stats

	lastRx    time.Time
	lastTx    time.Time
	lastWord  uint32
	pairArmed bool
}

// NewEndpoint creates an endpoint over t with default timing.
func NewEndpoint(t transport.WordReadWriter) *Endpoint {
	return &Endpoint{
		Transport:    t,
		AckTimeout:   DefaultAckTimeout,
		PingInterval: DefaultPingInterval,
		LinkTimeout:  DefaultLinkTimeout,
		TickInterval: DefaultTickInterval,
	}
}

// State gets the link state.
func (e *Endpoint) State() State {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.state
}

// Stats returns a snapshot of the activity counters.
func (e *Endpoint) Stats() Stats {
	e.lock.Lock()
	defer e.lock.Unlock()
	s := e.stats
	s.Outstanding = e.window.outstanding()
	return s
}

// Send transmits one frame to the peer half. It fails with ErrNotReady
// until the link is connected and with ErrWindowFull while every
// sequence number is outstanding.
func (e *Endpoint) Send(m wire.Message) error {
	now := time.Now()
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.state != Connected {
		return ErrNotReady
	}
	qm, err := e.window.enqueue(m, now)
	if err != nil {
		return err
	}
	e.stats.FramesOut++
	return e.writeFrameLocked(qm, now)
}

// Press reports a key down to the peer half.
func (e *Endpoint) Press(row, col uint8) error {
	return e.Send(wire.Press(row, col))
}

// Release reports a key up to the peer half.
func (e *Endpoint) Release(row, col uint8) error {
	return e.Send(wire.Release(row, col))
}

// RgbAnim switches the peer's RGB animation.
func (e *Endpoint) RgbAnim(id uint8) error {
	return e.Send(wire.RgbAnim(id))
}

// RgbLayer reports the active layer to the peer.
func (e *Endpoint) RgbLayer(layer uint8) error {
	return e.Send(wire.RgbLayer(layer))
}

// Ping probes the peer. The endpoint pings by itself when the link goes
// idle; manual pings are for diagnostics.
func (e *Endpoint) Ping() error {
	return e.Send(wire.Hello())
}

// Run pumps the link until ctx is canceled or the transport fails.
func (e *Endpoint) Run(ctx context.Context) error {
	e.applyDefaults()

	now := time.Now()
	var p pending
	e.lock.Lock()
	e.lastRx, e.lastTx = now, now
	var err error
	if e.Initiator {
		err = e.openLocked(&p, now)
	}
	e.lock.Unlock()
	p.dispatch(ctx, e)
	if err != nil {
		return err
	}

	wordCh, errCh := make(chan uint32), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go e.readLoop(subCtx, wordCh, errCh)

	ticker := time.NewTicker(e.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case w := <-wordCh:
			if err := e.handleWord(ctx, w); err != nil {
				return err
			}
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := e.tick(ctx); err != nil {
				return err
			}
		}
	}
}

func (e *Endpoint) applyDefaults() {
	if e.AckTimeout <= 0 {
		e.AckTimeout = DefaultAckTimeout
	}
	if e.PingInterval <= 0 {
		e.PingInterval = DefaultPingInterval
	}
	if e.LinkTimeout <= 0 {
		e.LinkTimeout = DefaultLinkTimeout
	}
	if e.TickInterval <= 0 {
		e.TickInterval = DefaultTickInterval
	}
}

func (e *Endpoint) readLoop(ctx context.Context, wordCh chan uint32, errCh chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			w, err := e.Transport.ReadWord()
			if err != nil {
				errCh <- err
				return
			}
			select {
			case wordCh <- w:
			case <-ctx.Done():
				return
			}
		}
	}
}

// handleWord runs the intake for one wire word: pair deduplication,
// checksum, decode, then the sequenced state machine.
func (e *Endpoint) handleWord(ctx context.Context, w uint32) error {
	now := time.Now()
	var p pending
	e.lock.Lock()
	e.stats.WordsIn++
	if e.pairArmed && w == e.lastWord {
		// second copy of the pair
		e.pairArmed = false
		e.lastRx = now
		e.lock.Unlock()
		return nil
	}
	if !wire.Verify(w) {
		e.stats.ChecksumDrops++
		e.lock.Unlock()
		glog.V(2).Infof("%s: bad checksum on %08x", e.name(), w)
		return nil
	}
	e.lastWord, e.pairArmed = w, true
	e.lastRx = now
	m, err := wire.Decode(w)
	if err != nil {
		e.stats.DecodeDrops++
		e.lock.Unlock()
		glog.Warningf("%s: %v: %08x", e.name(), err, w)
		return nil
	}
	glog.V(2).Infof("%s RCV %v", e.name(), m)
	werr := e.handleFrameLocked(m, now, &p)
	e.lock.Unlock()
	p.dispatch(ctx, e)
	return werr
}

func (e *Endpoint) handleFrameLocked(m wire.Message, now time.Time, p *pending) error {
	if e.state == Disconnected {
		// only a fresh Hello opens the link from this side
		if m.Kind != wire.KindHello || m.Sid != 0 {
			return nil
		}
		e.resetLocked()
		e.setStateLocked(p, Handshaking)
	} else if e.state == Connected && m.Kind == wire.KindHello && m.Sid == 0 &&
		e.tracker.classify(0) != verdictAccept {
		// an out-of-order Hello at the origin means the peer restarted;
		// resync both directions and take the handshake from the top
		glog.Warningf("%s: peer restarted, resyncing", e.name())
		e.stats.Restarts++
		e.resetLocked()
		e.setStateLocked(p, Handshaking)
	}

	switch e.tracker.classify(m.Sid) {
	case verdictAccept:
		e.tracker.advance()
		e.stats.FramesIn++
		return e.acceptLocked(m, now, p)
	case verdictDuplicate:
		e.stats.Duplicates++
		if m.Kind.Ackable() {
			// the peer missed our acknowledgement
			return e.controlLocked(wire.Ack(m.Sid), now)
		}
		return nil
	default:
		e.stats.Gaps++
		if e.tracker.shouldRequest(e.tracker.next, now, e.AckTimeout) {
			return e.controlLocked(wire.ReplayRequest(e.tracker.next), now)
		}
		return nil
	}
}

// acceptLocked consumes one in-order frame.
func (e *Endpoint) acceptLocked(m wire.Message, now time.Time, p *pending) error {
	switch m.Kind {
	case wire.KindAck:
		e.window.onAck(m.Subject())
		if e.state == Handshaking {
			var err error
			if e.Initiator {
				// acknowledge the peer's Ack so it can retire the slot;
				// this is the only time an Ack is itself acknowledged
				err = e.controlLocked(wire.Ack(m.Sid), now)
			}
			e.setStateLocked(p, Connected)
			return err
		}
		return nil
	case wire.KindError:
		if rm, ok := e.window.onReplay(m.Subject(), now); ok {
			e.stats.Retransmits++
			return e.writeFrameLocked(rm, now)
		}
		glog.Warningf("%s: no frame %d to replay", e.name(), m.Subject())
		return nil
	case wire.KindHello:
		err := e.controlLocked(wire.Ack(m.Sid), now)
		if e.state == Handshaking && e.Initiator {
			// both halves configured as initiator still converge
			glog.Warningf("%s: hello from another initiator", e.name())
		}
		return err
	default:
		err := e.controlLocked(wire.Ack(m.Sid), now)
		mm := m
		p.msg = &mm
		return err
	}
}

func (e *Endpoint) tick(ctx context.Context) error {
	now := time.Now()
	var p pending
	e.lock.Lock()
	err := e.tickLocked(&p, now)
	e.lock.Unlock()
	p.dispatch(ctx, e)
	return err
}

func (e *Endpoint) tickLocked(p *pending, now time.Time) error {
	if e.state == Disconnected {
		return nil
	}

	stuck := false
	if t, ok := e.window.oldestAckable(); ok && now.Sub(t) > e.LinkTimeout {
		stuck = true
	}
	if stuck || now.Sub(e.lastRx) > e.LinkTimeout {
		e.stats.Timeouts++
		glog.Warningf("%s: peer lost", e.name())
		e.resetLocked()
		e.setStateLocked(p, Disconnected)
		if e.Initiator {
			return e.openLocked(p, now)
		}
		return nil
	}

	for _, m := range e.window.tick(now, e.AckTimeout) {
		e.stats.Retransmits++
		if err := e.writeFrameLocked(m, now); err != nil {
			return err
		}
	}

	if e.state == Connected {
		if now.Sub(e.lastTx) > e.PingInterval {
			return e.controlLocked(wire.Hello(), now)
		}
		if e.window.outstanding() >= highWater {
			if _, ok := e.window.oldestAckable(); !ok {
				return e.controlLocked(wire.Hello(), now)
			}
		}
	}
	return nil
}

// openLocked resets both directions and starts a handshake.
func (e *Endpoint) openLocked(p *pending, now time.Time) error {
	e.resetLocked()
	e.setStateLocked(p, Handshaking)
	return e.controlLocked(wire.Hello(), now)
}

// controlLocked enqueues and transmits a frame of the protocol's own.
// When the window is full the frame is skipped with a warning; the
// peer's retransmissions recover anything that mattered.
func (e *Endpoint) controlLocked(m wire.Message, now time.Time) error {
	qm, err := e.window.enqueue(m, now)
	if err != nil {
		glog.Warningf("%s: dropped %v frame: %v", e.name(), m.Kind, err)
		return nil
	}
	e.stats.FramesOut++
	if m.Kind == wire.KindAck {
		e.stats.AcksOut++
	}
	return e.writeFrameLocked(qm, now)
}

// writeFrameLocked seals m and writes both wire copies.
func (e *Endpoint) writeFrameLocked(m wire.Message, now time.Time) error {
	glog.V(2).Infof("%s SND %v", e.name(), m)
	w := wire.Seal(m)
	for i := 0; i < 2; i++ {
		if err := e.Transport.WriteWord(w); err != nil {
			return err
		}
		e.stats.WordsOut++
	}
	e.lastTx = now
	return nil
}

// resetLocked clears both directions of the sequencing machinery.
func (e *Endpoint) resetLocked() {
	e.window.clear()
	e.tracker.reset()
	e.pairArmed = false
}

func (e *Endpoint) setStateLocked(p *pending, s State) {
	if e.state == s {
		return
	}
	glog.Infof("%s: %v -> %v", e.name(), e.state, s)
	e.state = s
	p.states = append(p.states, s)
}

func (e *Endpoint) name() string {
	if e.Name != "" {
		return e.Name
	}
	return "link"
}

// pending collects callbacks decided under the lock and invoked after it
// is released, so a handler calling back into the endpoint cannot
// deadlock.
type pending struct {
	states []State
	msg    *wire.Message
}

func (p *pending) dispatch(ctx context.Context, e *Endpoint) {
	for _, s := range p.states {
		if n := e.Notifier; n != nil {
			n.StateChanged(ctx, s)
		}
	}
	if p.msg == nil {
		return
	}
	switch m := p.msg; m.Kind {
	case wire.KindPress, wire.KindRelease:
		if h := e.Keys; h != nil {
			row, col := m.Key()
			h.HandleKey(ctx, row, col, m.Kind == wire.KindPress)
		}
	case wire.KindRgbAnim:
		if h := e.Rgb; h != nil {
			h.HandleRgbAnim(ctx, m.Value())
		}
	case wire.KindRgbLayer:
		if h := e.Rgb; h != nil {
			h.HandleRgbLayer(ctx, m.Value())
		}
	}
}
