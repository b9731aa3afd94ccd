package link

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/keebworks/sidelink.go/pkg/link/transport"
	"github.com/keebworks/sidelink.go/pkg/link/wire"
)

// wordFilter intercepts outgoing words for fault injection.
type wordFilter struct {
	transport.WordReadWriter
	lock sync.Mutex
	fn   func(uint32) (uint32, bool)
}

func (f *wordFilter) WriteWord(w uint32) error {
	f.lock.Lock()
	fn := f.fn
	f.lock.Unlock()
	if fn != nil {
		nw, keep := fn(w)
		if !keep {
			return nil
		}
		w = nw
	}
	return f.WordReadWriter.WriteWord(w)
}

func (f *wordFilter) set(fn func(uint32) (uint32, bool)) {
	f.lock.Lock()
	f.fn = fn
	f.lock.Unlock()
}

type keyEvent struct {
	row, col uint8
	pressed  bool
}

type keyRecorder struct {
	lock   sync.Mutex
	events []keyEvent
}

func (r *keyRecorder) HandleKey(_ context.Context, row, col uint8, pressed bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.events = append(r.events, keyEvent{row, col, pressed})
}

func (r *keyRecorder) list() []keyEvent {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]keyEvent(nil), r.events...)
}

type rgbRecorder struct {
	lock   sync.Mutex
	anims  []uint8
	layers []uint8
}

func (r *rgbRecorder) HandleRgbAnim(_ context.Context, id uint8) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.anims = append(r.anims, id)
}

func (r *rgbRecorder) HandleRgbLayer(_ context.Context, layer uint8) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.layers = append(r.layers, layer)
}

func (r *rgbRecorder) snapshot() (anims, layers []uint8) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]uint8(nil), r.anims...), append([]uint8(nil), r.layers...)
}

type stateRecorder struct {
	lock   sync.Mutex
	states []State
}

func (r *stateRecorder) StateChanged(_ context.Context, s State) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.states = append(r.states, s)
}

func (r *stateRecorder) list() []State {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]State(nil), r.states...)
}

func newTestEndpoint(name string, tr transport.WordReadWriter, initiator bool,
	keys *keyRecorder, rgb *rgbRecorder, states *stateRecorder) *Endpoint {
	e := &Endpoint{
		Transport:    tr,
		Name:         name,
		Initiator:    initiator,
		AckTimeout:   50 * time.Millisecond,
		PingInterval: 150 * time.Millisecond,
		LinkTimeout:  600 * time.Millisecond,
		TickInterval: 5 * time.Millisecond,
	}
	if keys != nil {
		e.Keys = keys
	}
	if rgb != nil {
		e.Rgb = rgb
	}
	if states != nil {
		e.Notifier = states
	}
	return e
}

func startEndpoint(e *Endpoint) (context.CancelFunc, chan error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- e.Run(ctx)
	}()
	return cancel, done
}

type linkPair struct {
	left, right             *Endpoint
	leftEnd, rightEnd       *wordFilter
	leftKeys, rightKeys     *keyRecorder
	leftRgb, rightRgb       *rgbRecorder
	leftStates, rightStates *stateRecorder

	aEnd, bEnd          *transport.PipeEnd
	stopLeft, stopRight context.CancelFunc
	leftDone, rightDone chan error
}

func newLinkPairRoles(leftInitiator, rightInitiator bool) *linkPair {
	a, b := transport.Pipe(0)
	p := &linkPair{
		aEnd: a, bEnd: b,
		leftEnd: &wordFilter{WordReadWriter: a}, rightEnd: &wordFilter{WordReadWriter: b},
		leftKeys: &keyRecorder{}, rightKeys: &keyRecorder{},
		leftRgb: &rgbRecorder{}, rightRgb: &rgbRecorder{},
		leftStates: &stateRecorder{}, rightStates: &stateRecorder{},
	}
	p.left = newTestEndpoint("left", p.leftEnd, leftInitiator, p.leftKeys, p.leftRgb, p.leftStates)
	p.right = newTestEndpoint("right", p.rightEnd, rightInitiator, p.rightKeys, p.rightRgb, p.rightStates)
	p.stopLeft, p.leftDone = startEndpoint(p.left)
	p.stopRight, p.rightDone = startEndpoint(p.right)
	return p
}

func newLinkPair() *linkPair {
	return newLinkPairRoles(false, true)
}

func (p *linkPair) stop() {
	p.stopLeft()
	p.stopRight()
	p.aEnd.Close()
	p.bEnd.Close()
	for _, done := range []chan error{p.leftDone, p.rightDone} {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	}
}

func (p *linkPair) connect(t *testing.T) {
	t.Helper()
	waitState(t, p.right, Connected)
	waitState(t, p.left, Connected)
}

func waitCond(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("timeout waiting for " + what)
}

func waitState(t *testing.T, e *Endpoint, s State) {
	t.Helper()
	waitCond(t, "state "+s.String(), func() bool { return e.State() == s })
}

func TestHandshake(t *testing.T) {
	p := newLinkPair()
	defer p.stop()
	p.connect(t)

	require.Equal(t, []State{Handshaking, Connected}, p.rightStates.list())
	require.Equal(t, []State{Handshaking, Connected}, p.leftStates.list())
}

func TestSendBeforeConnected(t *testing.T) {
	a, _ := transport.Pipe(0)
	e := NewEndpoint(a)
	require.Equal(t, ErrNotReady, e.Press(1, 2))
	require.Equal(t, ErrNotReady, e.Ping())
}

func TestKeyDelivery(t *testing.T) {
	p := newLinkPair()
	defer p.stop()
	p.connect(t)

	require.NoError(t, p.right.Press(3, 4))
	require.NoError(t, p.right.Release(3, 4))
	waitCond(t, "both key events", func() bool { return len(p.leftKeys.list()) == 2 })
	waitCond(t, "window drained", func() bool { return p.right.Stats().Outstanding == 0 })

	// nothing is delivered twice
	time.Sleep(150 * time.Millisecond)
	events := p.leftKeys.list()
	require.Equal(t, []keyEvent{{3, 4, true}, {3, 4, false}}, events)
}

func TestRgbDelivery(t *testing.T) {
	p := newLinkPair()
	defer p.stop()
	p.connect(t)

	require.NoError(t, p.right.RgbAnim(3))
	require.NoError(t, p.right.RgbLayer(2))
	waitCond(t, "rgb commands", func() bool {
		anims, layers := p.leftRgb.snapshot()
		return len(anims) == 1 && len(layers) == 1
	})
	anims, layers := p.leftRgb.snapshot()
	require.Equal(t, []uint8{3}, anims)
	require.Equal(t, []uint8{2}, layers)
}

func TestCorruptedCopyStillDelivers(t *testing.T) {
	p := newLinkPair()
	defer p.stop()
	p.connect(t)

	// damage the first wire copy of the press; the second copy carries it
	var hits int32
	p.rightEnd.set(func(w uint32) (uint32, bool) {
		m, err := wire.Decode(w)
		if err == nil && m.Kind == wire.KindPress && atomic.AddInt32(&hits, 1) == 1 {
			return w ^ 1, true
		}
		return w, true
	})
	require.NoError(t, p.right.Press(7, 2))

	waitCond(t, "press delivered", func() bool { return len(p.leftKeys.list()) == 1 })
	time.Sleep(150 * time.Millisecond)
	require.Equal(t, []keyEvent{{7, 2, true}}, p.leftKeys.list())
	require.NotZero(t, p.left.Stats().ChecksumDrops)
}

func TestLostFrameReplay(t *testing.T) {
	p := newLinkPair()
	defer p.stop()
	p.connect(t)

	// swallow both wire copies of the middle press once
	var dropped int32
	p.rightEnd.set(func(w uint32) (uint32, bool) {
		m, err := wire.Decode(w)
		if err == nil && m.Kind == wire.KindPress {
			if _, col := m.Key(); col == 2 && atomic.AddInt32(&dropped, 1) <= 2 {
				return 0, false
			}
		}
		return w, true
	})
	require.NoError(t, p.right.Press(0, 1))
	require.NoError(t, p.right.Press(0, 2))
	require.NoError(t, p.right.Press(0, 3))

	waitCond(t, "all presses", func() bool { return len(p.leftKeys.list()) == 3 })
	time.Sleep(150 * time.Millisecond)
	// delivered exactly once each, in send order
	require.Equal(t, []keyEvent{{0, 1, true}, {0, 2, true}, {0, 3, true}}, p.leftKeys.list())
	require.NotZero(t, p.left.Stats().Gaps)
	require.NotZero(t, p.right.Stats().Retransmits)
}

func TestLostAckNoDuplicateDelivery(t *testing.T) {
	p := newLinkPair()
	defer p.stop()
	p.connect(t)

	// blackhole every acknowledgement from the left for a while
	stop := time.Now().Add(120 * time.Millisecond)
	p.leftEnd.set(func(w uint32) (uint32, bool) {
		m, err := wire.Decode(w)
		if err == nil && m.Kind == wire.KindAck && time.Now().Before(stop) {
			return 0, false
		}
		return w, true
	})
	require.NoError(t, p.right.Press(5, 1))

	waitCond(t, "press delivered", func() bool { return len(p.leftKeys.list()) == 1 })
	waitCond(t, "window drained", func() bool { return p.right.Stats().Outstanding == 0 })
	time.Sleep(150 * time.Millisecond)
	require.Equal(t, []keyEvent{{5, 1, true}}, p.leftKeys.list())
	// the press was retransmitted and re-acknowledged, never re-delivered
	require.NotZero(t, p.left.Stats().Duplicates)
}

func TestIdlePingsKeepLinkAlive(t *testing.T) {
	p := newLinkPair()
	defer p.stop()
	p.connect(t)

	before := p.left.Stats().FramesIn
	// several ping intervals, a couple of link timeouts worth of silence
	// from the application
	time.Sleep(400 * time.Millisecond)
	require.Equal(t, Connected, p.left.State())
	require.Equal(t, Connected, p.right.State())
	require.True(t, p.left.Stats().FramesIn > before)
	require.NotContains(t, p.leftStates.list(), Disconnected)
	require.NotContains(t, p.rightStates.list(), Disconnected)
}

func TestLinkTimeoutDisconnects(t *testing.T) {
	p := newLinkPair()
	defer p.stop()
	p.connect(t)

	// kill the initiator; the passive half must notice and drop the link
	p.stopRight()
	select {
	case <-p.rightDone:
	case <-time.After(2 * time.Second):
		t.Fatal("right endpoint did not stop")
	}
	waitState(t, p.left, Disconnected)
	require.Equal(t, ErrNotReady, p.left.Press(0, 0))
	require.NotZero(t, p.left.Stats().Timeouts)
}

func TestInitiatorReconnects(t *testing.T) {
	p := newLinkPair()
	defer p.stop()
	p.connect(t)

	// kill the passive half; the initiator must fall back to handshaking
	p.stopLeft()
	select {
	case <-p.leftDone:
	case <-time.After(2 * time.Second):
		t.Fatal("left endpoint did not stop")
	}
	waitState(t, p.right, Handshaking)

	// a fresh passive half picks the handshake up again
	left2 := newTestEndpoint("left2", p.leftEnd, false, p.leftKeys, nil, &stateRecorder{})
	cancel, done := startEndpoint(left2)
	defer func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	}()
	waitState(t, p.right, Connected)
	waitState(t, left2, Connected)

	require.NoError(t, p.right.Press(9, 3))
	waitCond(t, "press after reconnect", func() bool { return len(p.leftKeys.list()) == 1 })
}

func TestPeerRestartResync(t *testing.T) {
	p := newLinkPair()
	defer p.stop()
	p.connect(t)

	// restart the initiator while the passive half still holds the old
	// cursors; its fresh Hello must force a resync
	p.stopRight()
	select {
	case <-p.rightDone:
	case <-time.After(2 * time.Second):
		t.Fatal("right endpoint did not stop")
	}
	right2 := newTestEndpoint("right2", p.rightEnd, true, p.rightKeys, nil, &stateRecorder{})
	cancel, done := startEndpoint(right2)
	defer func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	}()

	waitState(t, right2, Connected)
	waitState(t, p.left, Connected)
	require.NotZero(t, p.left.Stats().Restarts)

	require.NoError(t, right2.Press(1, 1))
	waitCond(t, "press after restart", func() bool { return len(p.leftKeys.list()) == 1 })
	time.Sleep(150 * time.Millisecond)
	require.Equal(t, []keyEvent{{1, 1, true}}, p.leftKeys.list())
}

func TestWindowFullBackpressure(t *testing.T) {
	p := newLinkPair()
	defer p.stop()
	p.connect(t)

	// with acknowledgements blackholed the window must fill and Send
	// must refuse rather than drop
	p.leftEnd.set(func(w uint32) (uint32, bool) {
		m, err := wire.Decode(w)
		if err == nil && m.Kind == wire.KindAck {
			return 0, false
		}
		return w, true
	})

	sent := 0
	var err error
	for i := 0; i < wire.SidModulus+1; i++ {
		err = p.right.Press(1, 2)
		if err != nil {
			break
		}
		sent++
	}
	require.Equal(t, ErrWindowFull, err)
	require.True(t, sent >= 20, "sent %d", sent)

	// acknowledgements flowing again drain the window without
	// re-delivering anything
	p.leftEnd.set(nil)
	waitCond(t, "window drained", func() bool { return p.right.Stats().Outstanding == 0 })
	time.Sleep(150 * time.Millisecond)
	require.Len(t, p.leftKeys.list(), sent)
}

func TestAckOnlyBacklogDrains(t *testing.T) {
	p := newLinkPair()
	defer p.stop()
	p.connect(t)

	// a half that only listens fills its window with un-ackable Ack
	// slots; the high-water Hello must drain them before the window jams
	const n = 26
	var expect []keyEvent
	for i := 0; i < n; i++ {
		row, col := uint8(i%16), uint8(i%8)
		require.NoError(t, p.right.Press(row, col))
		expect = append(expect, keyEvent{row, col, true})
		time.Sleep(8 * time.Millisecond)
	}

	waitCond(t, "all presses", func() bool { return len(p.leftKeys.list()) == n })
	waitCond(t, "ack backlog drained", func() bool { return p.left.Stats().Outstanding == 0 })
	require.Equal(t, expect, p.leftKeys.list())
	require.NotContains(t, p.leftStates.list(), Disconnected)
	require.NotContains(t, p.rightStates.list(), Disconnected)
}

func TestBidirectionalTraffic(t *testing.T) {
	p := newLinkPair()
	defer p.stop()
	p.connect(t)

	sendKey := func(e *Endpoint, row, col uint8) {
		t.Helper()
		for {
			err := e.Press(row, col)
			if err != ErrWindowFull {
				require.NoError(t, err)
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	const n = 20
	var expectLeft, expectRight []keyEvent
	for i := 0; i < n; i++ {
		row, col := uint8(i%16), uint8(i%8)
		sendKey(p.right, row, col)
		expectLeft = append(expectLeft, keyEvent{row, col, true})
		sendKey(p.left, col, row%8)
		expectRight = append(expectRight, keyEvent{col, row % 8, true})
	}

	waitCond(t, "left deliveries", func() bool { return len(p.leftKeys.list()) == n })
	waitCond(t, "right deliveries", func() bool { return len(p.rightKeys.list()) == n })
	waitCond(t, "windows drained", func() bool {
		return p.left.Stats().Outstanding == 0 && p.right.Stats().Outstanding == 0
	})
	require.Equal(t, expectLeft, p.leftKeys.list())
	require.Equal(t, expectRight, p.rightKeys.list())
}

func TestBothInitiatorsConverge(t *testing.T) {
	p := newLinkPairRoles(true, true)
	defer p.stop()
	p.connect(t)

	require.NoError(t, p.right.Press(2, 2))
	require.NoError(t, p.left.Press(3, 3))
	waitCond(t, "deliveries", func() bool {
		return len(p.leftKeys.list()) == 1 && len(p.rightKeys.list()) == 1
	})
}
