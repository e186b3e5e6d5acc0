// Package webrtc is a self-contained calling engine for development and
// demos. Both call legs live in-process as pion peer connections, so the
// orchestration layer can be exercised end to end without a cloud
// platform behind it.
package webrtc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/tkachv/parley/internal/core"
	"github.com/tkachv/parley/internal/domain"
)

type Engine struct {
	rtcCfg   webrtc.Configuration
	cameras  []domain.CameraDevice
	streamID atomic.Int64
}

func NewEngine(stunURLs []string, cameraNames []string) *Engine {
	cfg := webrtc.Configuration{}
	if len(stunURLs) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: stunURLs}}
	}
	cams := make([]domain.CameraDevice, len(cameraNames))
	for i, name := range cameraNames {
		cams[i] = domain.CameraDevice{ID: fmt.Sprintf("cam-%d", i), Name: name}
	}
	return &Engine{rtcCfg: cfg, cameras: cams}
}

func (e *Engine) nextStreamID() domain.StreamID {
	return domain.StreamID(e.streamID.Add(1))
}

func (e *Engine) CreateAgent(ctx context.Context, accessToken string) (core.CallAgent, error) {
	if accessToken == "" {
		return nil, errors.New("empty access token")
	}
	return &agent{engine: e, events: make(chan core.CallEvent, 64)}, nil
}

func (e *Engine) DeviceManager(ctx context.Context) (core.DeviceManager, error) {
	return &deviceManager{engine: e}, nil
}

// RequestPermissions always grants; a headless loopback has no OS prompt.
func (e *Engine) RequestPermissions(ctx context.Context) (bool, error) {
	return true, nil
}

func (e *Engine) Renderers() core.RendererFactory {
	return rendererFactory{}
}

type agent struct {
	engine *Engine

	mu       sync.Mutex
	events   chan core.CallEvent
	disposed bool
}

func (a *agent) Events() <-chan core.CallEvent { return a.events }

func (a *agent) Dispose() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return
	}
	a.disposed = true
	close(a.events)
}

// push delivers one event to the coordinator feed, dropping it if the
// agent was disposed underneath an in-flight call.
func (a *agent) push(ev core.CallEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return
	}
	select {
	case a.events <- ev:
	default:
		log.Warn().Str("module", "platform.webrtc").Str("call_id", string(ev.CallID)).Msg("event feed full, dropping")
	}
}

func (a *agent) StartCall(ctx context.Context, participants []domain.ParticipantID, opts core.CallOptions) (core.CallHandle, error) {
	return a.dial(ctx, participants, opts)
}

func (a *agent) JoinCall(ctx context.Context, groupID uuid.UUID, opts core.CallOptions) (core.CallHandle, error) {
	return a.dial(ctx, []domain.ParticipantID{domain.ParticipantID("group:" + groupID.String())}, opts)
}
