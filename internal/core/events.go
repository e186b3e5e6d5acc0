package core

import "github.com/tkachv/parley/internal/domain"

// EventKind discriminates the platform-pushed call events. A single typed
// feed replaces per-capability callback interfaces so delivery order is
// preserved trivially.
type EventKind int

const (
	// EventStateChanged reports a call state transition.
	EventStateChanged EventKind = iota
	// EventParticipantsUpdated reports remote participants added/removed.
	EventParticipantsUpdated
	// EventVideoStreamsUpdated reports one participant's streams changing.
	EventVideoStreamsUpdated
	// EventIncomingCall offers an inbound call to the agent.
	EventIncomingCall
)

// CallEvent is one platform push. CallID names the call the event belongs
// to; consumers must discard events whose CallID no longer matches the
// attached session (stale-callback guard). EventIncomingCall carries no
// CallID since no session exists yet.
type CallEvent struct {
	Kind   EventKind
	CallID domain.CallID

	// EventStateChanged
	State domain.CallState

	// EventParticipantsUpdated
	Added   []RemoteParticipant
	Removed []RemoteParticipant

	// EventVideoStreamsUpdated
	ParticipantID  domain.ParticipantID
	StreamsAdded   []StreamSource
	StreamsRemoved []StreamSource

	// EventIncomingCall
	Incoming IncomingCall
}
