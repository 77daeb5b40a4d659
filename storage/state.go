package storage

// ReadyState is the lifecycle state of the shared MongoDB connection.
//
// Transitions are linear: disconnected -> connecting -> connected | failed.
// A failed connection may move back to connecting on the next bootstrap call.
type ReadyState string

const (
	// StateDisconnected indicates no handshake has been attempted, or the connection was closed.
	StateDisconnected ReadyState = "disconnected"

	// StateConnecting indicates a handshake is in flight.
	StateConnecting ReadyState = "connecting"

	// StateConnected indicates the handshake succeeded and the handle is usable.
	StateConnected ReadyState = "connected"

	// StateFailed indicates the most recent handshake failed.
	StateFailed ReadyState = "failed"
)

// AllReadyStates lists every state in lifecycle order.
var AllReadyStates = []ReadyState{StateDisconnected, StateConnecting, StateConnected, StateFailed}

func (s ReadyState) String() string {
	return string(s)
}

// IsReady reports whether the connection can serve queries.
func (s ReadyState) IsReady() bool {
	return s == StateConnected
}

// InProgress reports whether a bootstrap call should join an existing attempt
// instead of starting its own.
func (s ReadyState) InProgress() bool {
	return s == StateConnecting
}
