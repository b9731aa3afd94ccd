package wire

import "fmt"

// Kind is the 3-bit frame type tag.
type Kind byte

const (
	// KindAck acknowledges the frame named in the body.
	KindAck Kind = iota
	// KindError asks the peer to replay the frame named in the body.
	KindError
	// KindPress reports a key down at the matrix position in the body.
	KindPress
	// KindRelease reports a key up at the matrix position in the body.
	KindRelease
	// KindHello opens a handshake and doubles as the keepalive ping.
	KindHello
	// KindRgbAnim switches the active RGB animation.
	KindRgbAnim
	// KindRgbLayer reports the active layer for layer-aware animations.
	KindRgbLayer
	// tag 7 is reserved and never transmitted
)

var kindNames = [...]string{"ack", "error", "press", "release", "hello", "rgb-anim", "rgb-layer"}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Ackable indicates if frames of this kind expect an acknowledgement.
// Ack and Error frames retire through cumulative acknowledgement instead,
// which keeps the two halves from acknowledging each other forever.
func (k Kind) Ackable() bool {
	return k != KindAck && k != KindError
}

// Message is one logical frame, before sealing or after decoding.
type Message struct {
	Sid  Sid
	Kind Kind
	Body byte
}

// Ack builds an acknowledgement for the frame with sequence number
// subject. The sender assigns the frame's own sid separately.
func Ack(subject Sid) Message {
	return Message{Kind: KindAck, Body: byte(subject % SidModulus)}
}

// ReplayRequest builds an Error frame asking the peer to resend the
// frame with sequence number missing.
func ReplayRequest(missing Sid) Message {
	return Message{Kind: KindError, Body: byte(missing % SidModulus)}
}

// Press builds a key-down report for a matrix position.
func Press(row, col uint8) Message {
	return Message{Kind: KindPress, Body: keyBody(row, col)}
}

// Release builds a key-up report for a matrix position.
func Release(row, col uint8) Message {
	return Message{Kind: KindRelease, Body: keyBody(row, col)}
}

// Hello builds a handshake opener, also used as the keepalive ping.
func Hello() Message {
	return Message{Kind: KindHello}
}

// RgbAnim builds an animation switch command.
func RgbAnim(id uint8) Message {
	return Message{Kind: KindRgbAnim, Body: id}
}

// RgbLayer builds a layer change report.
func RgbLayer(layer uint8) Message {
	return Message{Kind: KindRgbLayer, Body: layer}
}

func keyBody(row, col uint8) byte {
	return (row&0x0f)<<3 | col&0x07
}

// Subject returns the sequence number an Ack or Error frame refers to.
func (m Message) Subject() Sid {
	return Sid(m.Body) % SidModulus
}

// Key returns the matrix position of a Press or Release frame.
func (m Message) Key() (row, col uint8) {
	return m.Body >> 3 & 0x0f, m.Body & 0x07
}

// Value returns the byte argument of an RgbAnim or RgbLayer frame.
func (m Message) Value() byte {
	return m.Body
}

// String implements fmt.Stringer.
func (m Message) String() string {
	switch m.Kind {
	case KindAck, KindError:
		return fmt.Sprintf("%v(%d)@%d", m.Kind, m.Subject(), m.Sid)
	case KindPress, KindRelease:
		row, col := m.Key()
		return fmt.Sprintf("%v(%d,%d)@%d", m.Kind, row, col, m.Sid)
	case KindHello:
		return fmt.Sprintf("%v@%d", m.Kind, m.Sid)
	default:
		return fmt.Sprintf("%v(%d)@%d", m.Kind, m.Body, m.Sid)
	}
}
