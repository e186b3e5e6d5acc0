// Package domain contains entity types without logic, just meta-data.
package domain

type (
	CallID        string
	ParticipantID string
	// StreamID is platform-assigned and unique while the stream is live;
	// values may be reused after disposal.
	StreamID int
)

// CallState mirrors the platform call lifecycle. Unmapped platform states
// must surface as StateUnknown, never be coerced into a known state.
type CallState int

const (
	StateNone CallState = iota
	StateConnecting
	StateRinging
	StateEarlyMedia
	StateConnected
	StateLocalHold
	StateRemoteHold
	StateDisconnecting
	StateDisconnected
	StateUnknown
)

// String returns the wire vocabulary surfaced to the host.
func (s CallState) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateConnecting:
		return "connecting"
	case StateRinging:
		return "ringing"
	case StateEarlyMedia:
		return "earlyMedia"
	case StateConnected:
		return "connected"
	case StateLocalHold:
		return "onHold"
	case StateRemoteHold:
		return "remoteHold"
	case StateDisconnecting:
		return "disconnecting"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the call lifecycle.
func (s CallState) Terminal() bool {
	return s == StateDisconnected
}
