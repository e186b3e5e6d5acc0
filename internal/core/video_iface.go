package core

import "github.com/tkachv/parley/internal/domain"

// StreamSource identifies a renderable video stream, local or remote.
type StreamSource interface {
	StreamID() domain.StreamID
}

// RendererFactory constructs renderers. The factory itself is stateless;
// resource ownership lives with the registry that calls it.
type RendererFactory interface {
	CreateRenderer(src StreamSource) (Renderer, error)
}

// Renderer decodes one stream onto views derived from it.
type Renderer interface {
	CreateView() (MountableView, error)
	Dispose()
}

// MountableView is the host-mountable rendering surface.
type MountableView interface {
	ViewID() string
	Unmount()
}
