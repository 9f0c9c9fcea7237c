// Package transport provides the UDP side of the bridge. It handles the
// conversion between wire format and domain objects, so the service layer
// works purely with domain types.
package transport

import "fmt"

// State is the lifecycle position of a transport.
type State int32

const (
	// StateUnbound is the initial state, and the state after a failed bind.
	StateUnbound State = iota
	// StateBound means the socket is open but not yet read from.
	StateBound
	// StateServing means the read loop is running.
	StateServing
	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBound:
		return "bound"
	case StateServing:
		return "serving"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// DefaultMaxInflight bounds concurrent datagram workers when no limit is given.
const DefaultMaxInflight = 256

// maxDatagramSize is the largest UDP payload the read loop accepts.
const maxDatagramSize = 65535
