package link

// State is the lifecycle state of a link endpoint.
type State int

const (
	// Disconnected means no live peer; nothing may be sent.
	Disconnected State = iota
	// Handshaking means a Hello exchange is in flight.
	Handshaking
	// Connected means both cursors are synchronized and traffic flows.
	Connected
)

var stateNames = [...]string{"disconnected", "handshaking", "connected"}

// String implements fmt.Stringer.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}
