// Package link implements the reliable protocol between keyboard halves.
package link

// The halves exchange 32-bit words over a wire that corrupts and drops
// them. Every frame carries a five bit sequence number and stays in the
// sender's window until acknowledged. The receiver accepts frames
// strictly in order; a gap triggers a replay request and a duplicate is
// re-acknowledged without redelivery, so collaborators observe each
// frame exactly once, in send order.
//
// A three-frame Hello exchange brings a link up. Hello also serves as the
// keepalive ping; prolonged silence or an acknowledgement that never
// arrives drops the link, and the initiating half starts over.
//
// One Endpoint owns all sequencing state for a half. Its Run loop is the
// only goroutine that touches the wire; Send may be called from anywhere.
