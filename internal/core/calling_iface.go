// Package core declares the capability interfaces the orchestration layer
// consumes. One implementation exists per target platform; the core never
// imports a platform SDK directly.
package core

import (
	"context"

	"github.com/google/uuid"

	"github.com/tkachv/parley/internal/domain"
)

// CallingEngine is the entry point of a platform calling SDK.
type CallingEngine interface {
	// CreateAgent authenticates with the platform and returns an agent
	// bound to the token. A previous agent is not disposed implicitly.
	CreateAgent(ctx context.Context, accessToken string) (CallAgent, error)
	// DeviceManager enumerates media devices. Acquisition may fail on
	// platforms without media hardware; callers may retry lazily.
	DeviceManager(ctx context.Context) (DeviceManager, error)
	// RequestPermissions obtains the camera/microphone grant.
	RequestPermissions(ctx context.Context) (bool, error)
	// Renderers builds renderers for this engine's stream sources.
	Renderers() RendererFactory
}

// CallOptions carries per-call setup. Stream is nil for audio-only calls.
type CallOptions struct {
	Stream LocalStream
}

// CallAgent places and receives calls. Owned by the coordinator; Dispose
// detaches the event feed.
type CallAgent interface {
	StartCall(ctx context.Context, participants []domain.ParticipantID, opts CallOptions) (CallHandle, error)
	JoinCall(ctx context.Context, groupID uuid.UUID, opts CallOptions) (CallHandle, error)
	// Events is the single ordered feed of platform-pushed call events.
	// The channel is closed by Dispose.
	Events() <-chan CallEvent
	Dispose()
}

// CallHandle is one live platform call. All mutating operations may
// suspend on the platform and must honor ctx.
type CallHandle interface {
	ID() domain.CallID
	State() domain.CallState
	RemoteParticipants() []RemoteParticipant
	Hangup(ctx context.Context) error
	Mute(ctx context.Context) error
	Unmute(ctx context.Context) error
	StartVideo(ctx context.Context, stream LocalStream) error
	StopVideo(ctx context.Context, stream LocalStream) error
}

// RemoteParticipant is a read view over one remote endpoint of the call.
type RemoteParticipant interface {
	ID() domain.ParticipantID
	VideoStreams() []StreamSource
}

// IncomingCall is a platform-pushed call offer awaiting accept.
type IncomingCall interface {
	Accept(ctx context.Context, opts CallOptions) (CallHandle, error)
}

// DeviceManager exposes the order-stable camera list.
type DeviceManager interface {
	Cameras(ctx context.Context) ([]domain.CameraDevice, error)
	CreateLocalStream(ctx context.Context, camera domain.CameraDevice) (LocalStream, error)
}

// LocalStream is the local capture stream used for preview and outgoing
// video. The owner must call Dispose exactly once.
type LocalStream interface {
	Source() StreamSource
	SwitchSource(ctx context.Context, camera domain.CameraDevice) error
	Dispose()
}
