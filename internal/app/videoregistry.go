package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tkachv/parley/internal/core"
	"github.com/tkachv/parley/internal/domain"
)

type videoEntry struct {
	renderer core.Renderer
	view     core.MountableView
}

func (e *videoEntry) dispose() {
	e.view.Unmount()
	e.renderer.Dispose()
}

// VideoRegistry guarantees a strict acquire/dispose pairing for rendering
// resources keyed by stream id. Remote streams are keyed entries; the
// local preview uses a singleton slot with the same discipline. A key
// exists if and only if a renderer has been created and not yet disposed
// for that stream id.
type VideoRegistry struct {
	mu      sync.Mutex
	factory core.RendererFactory
	remote  map[domain.StreamID]*videoEntry
	local   *videoEntry
	localID domain.StreamID
}

func NewVideoRegistry(factory core.RendererFactory) *VideoRegistry {
	return &VideoRegistry{
		factory: factory,
		remote:  make(map[domain.StreamID]*videoEntry),
	}
}

func (r *VideoRegistry) newEntry(src core.StreamSource) (*videoEntry, error) {
	renderer, err := r.factory.CreateRenderer(src)
	if err != nil {
		return nil, err
	}
	view, err := renderer.CreateView()
	if err != nil {
		renderer.Dispose()
		return nil, err
	}
	return &videoEntry{renderer: renderer, view: view}, nil
}

// Acquire returns the mountable view for a remote stream, creating the
// renderer on first use. Acquiring an already-live key returns the
// existing view.
func (r *VideoRegistry) Acquire(src core.StreamSource) (core.MountableView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := src.StreamID()
	if e, ok := r.remote[id]; ok {
		return e.view, nil
	}
	e, err := r.newEntry(src)
	if err != nil {
		return nil, err
	}
	r.remote[id] = e
	log.Debug().Str("module", "app.videoregistry").Int("stream_id", int(id)).Msg("acquired remote stream")
	return e.view, nil
}

// Release disposes the entry for id. Missing entry is a no-op; calling
// twice is safe.
func (r *VideoRegistry) Release(id domain.StreamID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.remote[id]
	if !ok {
		return
	}
	delete(r.remote, id)
	e.dispose()
	log.Debug().Str("module", "app.videoregistry").Int("stream_id", int(id)).Msg("released remote stream")
}

// AcquireLocal fills the local preview slot. Re-acquiring while the slot
// is live returns the existing view.
func (r *VideoRegistry) AcquireLocal(src core.StreamSource) (core.MountableView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.local != nil {
		return r.local.view, nil
	}
	e, err := r.newEntry(src)
	if err != nil {
		return nil, err
	}
	r.local = e
	r.localID = src.StreamID()
	log.Debug().Str("module", "app.videoregistry").Int("stream_id", int(r.localID)).Msg("acquired local preview")
	return e.view, nil
}

// ReleaseLocal empties the local preview slot. No-op when empty.
func (r *VideoRegistry) ReleaseLocal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.local == nil {
		return
	}
	e := r.local
	r.local = nil
	e.dispose()
	log.Debug().Str("module", "app.videoregistry").Int("stream_id", int(r.localID)).Msg("released local preview")
}

// ClearRemote releases every remote entry, leaving the local slot alone.
// Used when a new session is attached over an old one: the old session's
// remote streams must be gone before any event of the new session is
// processed, while the local stream may already belong to the new call.
func (r *VideoRegistry) ClearRemote() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.remote {
		delete(r.remote, id)
		e.dispose()
	}
}

// Clear releases every entry, local slot included. Used during teardown.
func (r *VideoRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.remote {
		delete(r.remote, id)
		e.dispose()
	}
	if r.local != nil {
		e := r.local
		r.local = nil
		e.dispose()
	}
	log.Debug().Str("module", "app.videoregistry").Msg("registry cleared")
}

// RemoteCount reports the number of live remote entries.
func (r *VideoRegistry) RemoteCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.remote)
}

// HasLocal reports whether the local preview slot is live.
func (r *VideoRegistry) HasLocal() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.local != nil
}
