package app

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tkachv/parley/internal/core"
	"github.com/tkachv/parley/internal/domain"
)

// Notifier receives host-visible session events. Implementations must not
// call back into the coordinator.
type Notifier interface {
	Notify(event string, payload map[string]any)
}

// CallCoordinator owns the state machine for at most one active call,
// the agent/device capability objects, and the video registry. All
// mutation is serialized behind one mutex; platform events funnel through
// the agent's ordered feed into the same lock, so commands and events
// never interleave mid-transition.
type CallCoordinator struct {
	engine core.CallingEngine

	mu       sync.Mutex
	cred     *Credential
	agent    core.CallAgent
	devices  core.DeviceManager
	registry *VideoRegistry
	notifier Notifier

	call         core.CallHandle
	callState    domain.CallState
	participants []domain.ParticipantID
	localStream  core.LocalStream
	incoming     core.IncomingCall

	cameras   []domain.CameraDevice
	cameraIdx int
}

func NewCallCoordinator(engine core.CallingEngine) *CallCoordinator {
	return &CallCoordinator{
		engine:    engine,
		registry:  NewVideoRegistry(engine.Renderers()),
		cameraIdx: -1,
	}
}

// SetNotifier installs the host event sink. Pass nil to detach.
func (c *CallCoordinator) SetNotifier(n Notifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifier = n
}

func (c *CallCoordinator) notify(event string, payload map[string]any) {
	if c.notifier != nil {
		c.notifier.Notify(event, payload)
	}
}

// Initialize builds the call agent and credential holder from the token.
// Re-initialization replaces the prior agent and credential; it is
// rejected while a call is live, since orphaning an attached session
// would break the single-session and registry invariants.
func (c *CallCoordinator) Initialize(ctx context.Context, accessToken string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.call != nil {
		return core.NewError(core.CodeInitializationError, "call in progress; end it before re-initializing")
	}

	cred, err := NewCredential(accessToken)
	if err != nil {
		return err
	}

	agent, err := c.engine.CreateAgent(ctx, cred.Token())
	if err != nil {
		return core.WrapError(core.CodeInitializationError, err)
	}

	if c.agent != nil {
		c.agent.Dispose()
	}
	c.cred = cred
	c.agent = agent

	// Device manager acquisition is best-effort here; video paths retry.
	if dm, err := c.engine.DeviceManager(ctx); err != nil {
		log.Warn().Err(err).Str("module", "app.coordinator").Msg("device manager unavailable")
	} else {
		c.devices = dm
	}

	go c.runEvents(agent)

	if exp, ok := cred.ExpiresAt(); ok {
		log.Info().Str("module", "app.coordinator").Time("token_exp", exp).Msg("calling initialized")
	} else {
		log.Info().Str("module", "app.coordinator").Msg("calling initialized")
	}
	return nil
}

// RequestPermissions obtains the camera/microphone grant from the engine.
func (c *CallCoordinator) RequestPermissions(ctx context.Context) (bool, error) {
	return c.engine.RequestPermissions(ctx)
}

// StartCall places an outgoing call. With video requested, the local
// stream is acquired before the platform start; zero enumerable cameras
// means the call proceeds without video.
func (c *CallCoordinator) StartCall(ctx context.Context, participants []domain.ParticipantID, withVideo bool) (domain.CallID, domain.CallState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(participants) == 0 {
		return "", domain.StateNone, core.NewError(core.CodeInvalidArgument, "participants list is required")
	}
	if c.agent == nil {
		return "", domain.StateNone, core.NewError(core.CodeNotInitialized, "call agent not initialized")
	}

	opts, freshPreview, err := c.videoOptions(ctx, withVideo, core.CodeCallStartFailed)
	if err != nil {
		return "", domain.StateNone, err
	}

	call, err := c.agent.StartCall(ctx, participants, opts)
	if err != nil {
		if freshPreview {
			c.registry.ReleaseLocal()
		}
		return "", domain.StateNone, core.WrapError(core.CodeCallStartFailed, err)
	}

	c.attachCall(call)
	log.Info().Str("module", "app.coordinator").Str("call_id", string(call.ID())).Bool("video", opts.Stream != nil).Msg("call started")
	return call.ID(), c.callState, nil
}

// JoinCall joins a group call by locator. The id is parsed before any
// platform interaction.
func (c *CallCoordinator) JoinCall(ctx context.Context, groupCallID string, withVideo bool) (domain.CallID, domain.CallState, error) {
	groupID, err := uuid.Parse(groupCallID)
	if err != nil {
		return "", domain.StateNone, core.NewError(core.CodeInvalidArgument, "valid group call ID is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.agent == nil {
		return "", domain.StateNone, core.NewError(core.CodeNotInitialized, "call agent not initialized")
	}

	opts, freshPreview, err := c.videoOptions(ctx, withVideo, core.CodeCallJoinFailed)
	if err != nil {
		return "", domain.StateNone, err
	}

	call, err := c.agent.JoinCall(ctx, groupID, opts)
	if err != nil {
		if freshPreview {
			c.registry.ReleaseLocal()
		}
		return "", domain.StateNone, core.WrapError(core.CodeCallJoinFailed, err)
	}

	c.attachCall(call)
	log.Info().Str("module", "app.coordinator").Str("call_id", string(call.ID())).Msg("call joined")
	return call.ID(), c.callState, nil
}

// videoOptions acquires the local stream and preview when video is
// requested. A missing camera is not an error; stream or renderer
// failures surface under failCode. freshPreview reports that the preview
// slot was filled by this command and may be rolled back on failure.
// Caller holds c.mu.
func (c *CallCoordinator) videoOptions(ctx context.Context, withVideo bool, failCode string) (opts core.CallOptions, freshPreview bool, err error) {
	if !withVideo {
		return opts, false, nil
	}
	stream, err := c.ensureLocalStream(ctx)
	if err != nil {
		return opts, false, core.WrapError(failCode, err)
	}
	if stream == nil {
		return opts, false, nil
	}
	freshPreview = !c.registry.HasLocal()
	if _, err := c.registry.AcquireLocal(stream.Source()); err != nil {
		return opts, false, core.WrapError(failCode, err)
	}
	opts.Stream = stream
	return opts, freshPreview, nil
}

// EndCall hangs up the active call. On success all session resources are
// released before returning; on failure the session stays attached so the
// caller may retry.
func (c *CallCoordinator) EndCall(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.call == nil {
		return core.NewError(core.CodeNoActiveCall, "no active call to end")
	}
	if err := c.call.Hangup(ctx); err != nil {
		return core.WrapError(core.CodeHangupFailed, err)
	}
	c.teardownLocked()
	return nil
}

// SetAudioMuted mutes or unmutes outgoing audio.
func (c *CallCoordinator) SetAudioMuted(ctx context.Context, muted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.call == nil {
		return core.NewError(core.CodeNoActiveCall, "no active call")
	}
	if muted {
		if err := c.call.Mute(ctx); err != nil {
			return core.WrapError(core.CodeMuteFailed, err)
		}
		return nil
	}
	if err := c.call.Unmute(ctx); err != nil {
		return core.WrapError(core.CodeUnmuteFailed, err)
	}
	return nil
}

// StartVideo acquires the local preview and, when a call is live, starts
// sending it.
func (c *CallCoordinator) StartVideo(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stream, err := c.ensureLocalStream(ctx)
	if err != nil {
		return core.WrapError(core.CodeVideoStartFailed, err)
	}
	if stream == nil {
		return core.NewError(core.CodeVideoUnavailable, "camera not available")
	}
	if _, err := c.registry.AcquireLocal(stream.Source()); err != nil {
		return core.WrapError(core.CodeVideoUnavailable, err)
	}
	if c.call == nil {
		return nil
	}
	if err := c.call.StartVideo(ctx, stream); err != nil {
		return core.WrapError(core.CodeVideoStartFailed, err)
	}
	return nil
}

// StopVideo releases the local preview stream and its registry entry.
// With no active local stream it is a successful no-op.
func (c *CallCoordinator) StopVideo(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.localStream == nil {
		c.registry.ReleaseLocal()
		return nil
	}
	if c.call != nil {
		if err := c.call.StopVideo(ctx, c.localStream); err != nil {
			return core.WrapError(core.CodeVideoStopFailed, err)
		}
	}
	c.releaseLocalStreamLocked()
	return nil
}

// SwitchCamera advances the current camera circularly through the
// enumerated device list. With a single device it succeeds and leaves the
// camera unchanged.
func (c *CallCoordinator) SwitchCamera(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.localStream == nil {
		return core.NewError(core.CodeVideoUnavailable, "no active camera stream")
	}
	dm, err := c.ensureDeviceManager(ctx)
	if err != nil {
		return core.NewError(core.CodeVideoUnavailable, "no cameras detected")
	}
	cameras, err := dm.Cameras(ctx)
	if err != nil || len(cameras) == 0 {
		return core.NewError(core.CodeVideoUnavailable, "no cameras detected")
	}

	idx := c.cameraIdx
	if idx < 0 || idx >= len(cameras) {
		idx = 0
	}
	next := (idx + 1) % len(cameras)
	if err := c.localStream.SwitchSource(ctx, cameras[next]); err != nil {
		return core.WrapError(core.CodeSwitchCameraFailed, err)
	}
	c.cameras = cameras
	c.cameraIdx = next
	log.Info().Str("module", "app.coordinator").Str("camera", cameras[next].ID).Msg("switched camera")
	return nil
}

// State reports the current call state; StateNone when no call exists.
func (c *CallCoordinator) State() domain.CallState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.call == nil {
		return domain.StateNone
	}
	return c.callState
}

// CallID reports the attached call id, empty when no call exists.
func (c *CallCoordinator) CallID() domain.CallID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.call == nil {
		return ""
	}
	return c.call.ID()
}

// Participants reports the tracked remote participants in arrival order.
func (c *CallCoordinator) Participants() []domain.ParticipantID {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ParticipantID, len(c.participants))
	copy(out, c.participants)
	return out
}

// Registry exposes the video registry for mount plumbing.
func (c *CallCoordinator) Registry() *VideoRegistry { return c.registry }

// ensureDeviceManager retries acquisition that was skipped at Initialize.
// Caller holds c.mu.
func (c *CallCoordinator) ensureDeviceManager(ctx context.Context) (core.DeviceManager, error) {
	if c.devices != nil {
		return c.devices, nil
	}
	dm, err := c.engine.DeviceManager(ctx)
	if err != nil {
		return nil, err
	}
	c.devices = dm
	return dm, nil
}

// ensureLocalStream returns the cached local stream or creates one from
// the first enumerated camera. (nil, nil) means no camera exists. Caller
// holds c.mu.
func (c *CallCoordinator) ensureLocalStream(ctx context.Context) (core.LocalStream, error) {
	if c.localStream != nil {
		return c.localStream, nil
	}
	dm, err := c.ensureDeviceManager(ctx)
	if err != nil {
		return nil, nil
	}
	cameras, err := dm.Cameras(ctx)
	if err != nil || len(cameras) == 0 {
		return nil, nil
	}
	stream, err := dm.CreateLocalStream(ctx, cameras[0])
	if err != nil {
		return nil, err
	}
	c.cameras = cameras
	c.cameraIdx = 0
	c.localStream = stream
	return stream, nil
}

// releaseLocalStreamLocked drops the preview entry and disposes the
// stream. Caller holds c.mu.
func (c *CallCoordinator) releaseLocalStreamLocked() {
	c.registry.ReleaseLocal()
	if c.localStream != nil {
		c.localStream.Dispose()
		c.localStream = nil
	}
	c.cameraIdx = -1
}
