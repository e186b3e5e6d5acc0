package webrtc

import (
	"context"
	"testing"

	"github.com/tkachv/parley/internal/core"
	"github.com/tkachv/parley/internal/domain"
)

func TestCreateAgentRequiresToken(t *testing.T) {
	e := NewEngine(nil, []string{"front"})
	if _, err := e.CreateAgent(context.Background(), ""); err == nil {
		t.Fatal("CreateAgent(\"\") succeeded")
	}
	if _, err := e.CreateAgent(context.Background(), "token"); err != nil {
		t.Fatalf("CreateAgent() error = %v", err)
	}
}

func TestDeviceManagerEnumeratesConfiguredCameras(t *testing.T) {
	e := NewEngine(nil, []string{"front", "back"})
	dm, err := e.DeviceManager(context.Background())
	if err != nil {
		t.Fatalf("DeviceManager() error = %v", err)
	}
	cams, err := dm.Cameras(context.Background())
	if err != nil {
		t.Fatalf("Cameras() error = %v", err)
	}
	if len(cams) != 2 || cams[0].Name != "front" || cams[1].Name != "back" {
		t.Errorf("cameras = %v, want front and back", cams)
	}
	if cams[0].ID == cams[1].ID {
		t.Error("camera ids not unique")
	}
}

func TestLocalStreamLifecycle(t *testing.T) {
	e := NewEngine(nil, []string{"front", "back"})
	dm, _ := e.DeviceManager(context.Background())
	cams, _ := dm.Cameras(context.Background())

	s1, err := dm.CreateLocalStream(context.Background(), cams[0])
	if err != nil {
		t.Fatalf("CreateLocalStream() error = %v", err)
	}
	s2, err := dm.CreateLocalStream(context.Background(), cams[1])
	if err != nil {
		t.Fatalf("CreateLocalStream() error = %v", err)
	}
	if s1.Source().StreamID() == s2.Source().StreamID() {
		t.Error("stream ids not unique")
	}

	if err := s1.SwitchSource(context.Background(), cams[1]); err != nil {
		t.Fatalf("SwitchSource() error = %v", err)
	}
	s1.Dispose()
	if err := s1.SwitchSource(context.Background(), cams[0]); err == nil {
		t.Error("SwitchSource() on disposed stream succeeded")
	}
}

func TestRendererCreateViewAfterDispose(t *testing.T) {
	e := NewEngine(nil, nil)
	factory := e.Renderers()

	r, err := factory.CreateRenderer(loopStream{id: domain.StreamID(7)})
	if err != nil {
		t.Fatalf("CreateRenderer() error = %v", err)
	}
	v, err := r.CreateView()
	if err != nil {
		t.Fatalf("CreateView() error = %v", err)
	}
	if v.ViewID() == "" {
		t.Error("empty view id")
	}
	v.Unmount()
	r.Dispose()
	if _, err := r.CreateView(); err == nil {
		t.Error("CreateView() on disposed renderer succeeded")
	}
}

func TestAgentDisposeClosesFeed(t *testing.T) {
	e := NewEngine(nil, nil)
	a, err := e.CreateAgent(context.Background(), "token")
	if err != nil {
		t.Fatalf("CreateAgent() error = %v", err)
	}
	a.Dispose()
	a.Dispose()
	if _, ok := <-a.Events(); ok {
		t.Error("event feed still open after Dispose")
	}

	// Pushing after dispose must not panic on the closed channel.
	a.(*agent).push(core.CallEvent{Kind: core.EventStateChanged, CallID: "c1"})
}
