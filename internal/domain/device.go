package domain

// CameraDevice is one entry of the platform-enumerated camera list.
// The list is order-stable; the current camera is an index into it,
// not an owning reference.
type CameraDevice struct {
	ID   string
	Name string
}
