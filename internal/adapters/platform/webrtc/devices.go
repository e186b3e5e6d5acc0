package webrtc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tkachv/parley/internal/core"
	"github.com/tkachv/parley/internal/domain"
)

type deviceManager struct {
	engine *Engine
}

func (d *deviceManager) Cameras(ctx context.Context) ([]domain.CameraDevice, error) {
	out := make([]domain.CameraDevice, len(d.engine.cameras))
	copy(out, d.engine.cameras)
	return out, nil
}

func (d *deviceManager) CreateLocalStream(ctx context.Context, camera domain.CameraDevice) (core.LocalStream, error) {
	return &localStream{
		src:    loopStream{id: d.engine.nextStreamID()},
		camera: camera,
	}, nil
}

type localStream struct {
	mu       sync.Mutex
	src      loopStream
	camera   domain.CameraDevice
	disposed bool
}

func (s *localStream) Source() core.StreamSource { return s.src }

func (s *localStream) SwitchSource(ctx context.Context, camera domain.CameraDevice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return errors.New("stream disposed")
	}
	s.camera = camera
	log.Debug().Str("module", "platform.webrtc").Str("camera", camera.ID).Msg("switched capture source")
	return nil
}

func (s *localStream) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
}

type rendererFactory struct{}

func (rendererFactory) CreateRenderer(src core.StreamSource) (core.Renderer, error) {
	return &renderer{src: src}, nil
}

type renderer struct {
	src      core.StreamSource
	mu       sync.Mutex
	disposed bool
}

func (r *renderer) CreateView() (core.MountableView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return nil, errors.New("renderer disposed")
	}
	return &view{id: fmt.Sprintf("view-%d", r.src.StreamID())}, nil
}

func (r *renderer) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disposed = true
}

type view struct {
	id string
}

func (v *view) ViewID() string { return v.id }
func (v *view) Unmount()       {}
