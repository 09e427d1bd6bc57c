package switcher

import (
	"fmt"
	"sync"

	winerrors "binocular/internal/infrastructure/errors"
	"binocular/internal/platform"
)

// Thumbnail is a live preview registration. The compositor keeps rendering
// until Release is called, so every Thumbnail must be released by its owner.
type Thumbnail struct {
	compositor  platform.Compositor
	id          platform.ThumbnailID
	Source      platform.Handle
	Destination platform.Handle
	Width       int32
	Height      int32

	once       sync.Once
	releaseErr error
}

// ID returns the compositor's identifier for the registration
func (t *Thumbnail) ID() platform.ThumbnailID {
	return t.id
}

// Release unregisters the thumbnail. Calls after the first return the
// first call's result without touching the compositor again.
func (t *Thumbnail) Release() error {
	t.once.Do(func() {
		if err := t.compositor.UnregisterThumbnail(t.id); err != nil {
			t.releaseErr = winerrors.NewThumbnailError("release thumbnail", uintptr(t.Source), uintptr(t.Destination), err)
		}
	})
	return t.releaseErr
}

// Thumbnail registers a live, opaque, immediately visible preview of source
// drawn into destination's client area at width*height.
func (r *Registry) Thumbnail(source, destination platform.Handle, width, height int32) (*Thumbnail, error) {
	if width <= 0 || height <= 0 {
		return nil, winerrors.NewThumbnailError("register thumbnail", uintptr(source), uintptr(destination),
			fmt.Errorf("invalid size %dx%d", width, height))
	}

	id, err := r.sys.RegisterThumbnail(source, destination, width, height)
	if err != nil {
		return nil, winerrors.NewThumbnailError("register thumbnail", uintptr(source), uintptr(destination), err)
	}

	return &Thumbnail{
		compositor:  r.sys,
		id:          id,
		Source:      source,
		Destination: destination,
		Width:       width,
		Height:      height,
	}, nil
}
