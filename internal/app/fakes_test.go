package app

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tkachv/parley/internal/core"
	"github.com/tkachv/parley/internal/domain"
)

type fakeStream struct {
	id domain.StreamID
}

func (s fakeStream) StreamID() domain.StreamID { return s.id }

type fakeParticipant struct {
	id      domain.ParticipantID
	streams []core.StreamSource
}

func (p *fakeParticipant) ID() domain.ParticipantID          { return p.id }
func (p *fakeParticipant) VideoStreams() []core.StreamSource { return p.streams }

type fakeView struct {
	unmounts int
}

func (v *fakeView) ViewID() string { return "fake-view" }
func (v *fakeView) Unmount()       { v.unmounts++ }

type fakeRenderer struct {
	view     *fakeView
	disposes int
}

func (r *fakeRenderer) CreateView() (core.MountableView, error) { return r.view, nil }
func (r *fakeRenderer) Dispose()                                { r.disposes++ }

type fakeRendererFactory struct {
	mu        sync.Mutex
	failFor   map[domain.StreamID]error
	renderers map[domain.StreamID]*fakeRenderer
	created   int
}

func newFakeRendererFactory() *fakeRendererFactory {
	return &fakeRendererFactory{
		failFor:   make(map[domain.StreamID]error),
		renderers: make(map[domain.StreamID]*fakeRenderer),
	}
}

func (f *fakeRendererFactory) CreateRenderer(src core.StreamSource) (core.Renderer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[src.StreamID()]; ok {
		return nil, err
	}
	r := &fakeRenderer{view: &fakeView{}}
	f.renderers[src.StreamID()] = r
	f.created++
	return r, nil
}

func (f *fakeRendererFactory) rendererFor(id domain.StreamID) *fakeRenderer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renderers[id]
}

type fakeLocalStream struct {
	src       fakeStream
	camera    domain.CameraDevice
	switched  []domain.CameraDevice
	switchErr error
	disposes  int
}

func (s *fakeLocalStream) Source() core.StreamSource { return s.src }

func (s *fakeLocalStream) SwitchSource(ctx context.Context, camera domain.CameraDevice) error {
	if s.switchErr != nil {
		return s.switchErr
	}
	s.camera = camera
	s.switched = append(s.switched, camera)
	return nil
}

func (s *fakeLocalStream) Dispose() { s.disposes++ }

type fakeDeviceManager struct {
	cameras   []domain.CameraDevice
	createErr error
	streams   []*fakeLocalStream
	nextID    domain.StreamID
}

func (d *fakeDeviceManager) Cameras(ctx context.Context) ([]domain.CameraDevice, error) {
	return d.cameras, nil
}

func (d *fakeDeviceManager) CreateLocalStream(ctx context.Context, camera domain.CameraDevice) (core.LocalStream, error) {
	if d.createErr != nil {
		return nil, d.createErr
	}
	d.nextID++
	s := &fakeLocalStream{src: fakeStream{id: 1000 + d.nextID}, camera: camera}
	d.streams = append(d.streams, s)
	return s, nil
}

type fakeCall struct {
	id      domain.CallID
	state   domain.CallState
	remotes []core.RemoteParticipant

	hangupErr     error
	muteErr       error
	unmuteErr     error
	startVideoErr error
	stopVideoErr  error

	hangups     int
	mutes       int
	unmutes     int
	videoStarts int
	videoStops  int
}

func (c *fakeCall) ID() domain.CallID                         { return c.id }
func (c *fakeCall) State() domain.CallState                   { return c.state }
func (c *fakeCall) RemoteParticipants() []core.RemoteParticipant { return c.remotes }

func (c *fakeCall) Hangup(ctx context.Context) error {
	if c.hangupErr != nil {
		return c.hangupErr
	}
	c.hangups++
	return nil
}

func (c *fakeCall) Mute(ctx context.Context) error {
	if c.muteErr != nil {
		return c.muteErr
	}
	c.mutes++
	return nil
}

func (c *fakeCall) Unmute(ctx context.Context) error {
	if c.unmuteErr != nil {
		return c.unmuteErr
	}
	c.unmutes++
	return nil
}

func (c *fakeCall) StartVideo(ctx context.Context, stream core.LocalStream) error {
	if c.startVideoErr != nil {
		return c.startVideoErr
	}
	c.videoStarts++
	return nil
}

func (c *fakeCall) StopVideo(ctx context.Context, stream core.LocalStream) error {
	if c.stopVideoErr != nil {
		return c.stopVideoErr
	}
	c.videoStops++
	return nil
}

type fakeIncoming struct {
	call      *fakeCall
	acceptErr error
	accepted  int
	lastOpts  core.CallOptions
}

func (i *fakeIncoming) Accept(ctx context.Context, opts core.CallOptions) (core.CallHandle, error) {
	i.accepted++
	i.lastOpts = opts
	if i.acceptErr != nil {
		return nil, i.acceptErr
	}
	return i.call, nil
}

type fakeAgent struct {
	events   chan core.CallEvent
	call     *fakeCall
	startErr error
	joinErr  error

	started  [][]domain.ParticipantID
	joined   []uuid.UUID
	lastOpts core.CallOptions
	disposed int
}

func newFakeAgent(call *fakeCall) *fakeAgent {
	return &fakeAgent{events: make(chan core.CallEvent, 16), call: call}
}

func (a *fakeAgent) StartCall(ctx context.Context, participants []domain.ParticipantID, opts core.CallOptions) (core.CallHandle, error) {
	if a.startErr != nil {
		return nil, a.startErr
	}
	a.started = append(a.started, participants)
	a.lastOpts = opts
	return a.call, nil
}

func (a *fakeAgent) JoinCall(ctx context.Context, groupID uuid.UUID, opts core.CallOptions) (core.CallHandle, error) {
	if a.joinErr != nil {
		return nil, a.joinErr
	}
	a.joined = append(a.joined, groupID)
	a.lastOpts = opts
	return a.call, nil
}

func (a *fakeAgent) Events() <-chan core.CallEvent { return a.events }

func (a *fakeAgent) Dispose() {
	a.disposed++
	if a.disposed == 1 {
		close(a.events)
	}
}

type fakeEngine struct {
	agent      *fakeAgent
	createErr  error
	devices    *fakeDeviceManager
	devicesErr error
	factory    *fakeRendererFactory
	granted    bool
}

func newFakeEngine(agent *fakeAgent, devices *fakeDeviceManager) *fakeEngine {
	return &fakeEngine{
		agent:   agent,
		devices: devices,
		factory: newFakeRendererFactory(),
		granted: true,
	}
}

func (e *fakeEngine) CreateAgent(ctx context.Context, accessToken string) (core.CallAgent, error) {
	if e.createErr != nil {
		return nil, e.createErr
	}
	return e.agent, nil
}

func (e *fakeEngine) DeviceManager(ctx context.Context) (core.DeviceManager, error) {
	if e.devicesErr != nil {
		return nil, e.devicesErr
	}
	return e.devices, nil
}

func (e *fakeEngine) RequestPermissions(ctx context.Context) (bool, error) {
	return e.granted, nil
}

func (e *fakeEngine) Renderers() core.RendererFactory { return e.factory }

type recordedEvent struct {
	name    string
	payload map[string]any
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *fakeNotifier) Notify(event string, payload map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{name: event, payload: payload})
}

func (n *fakeNotifier) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.name
	}
	return out
}
