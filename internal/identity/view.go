package identity

import (
	"context"
	"sync"
)

// View is the lifetime of one rendered login page. The page signals when its
// sign-in container exists with Mount; Unmount cancels everything still
// pending for the page.
type View struct {
	ctx    context.Context
	cancel context.CancelFunc

	once    sync.Once
	mounted chan struct{}
	mount   Mount
}

// NewView creates a view bound to ctx.
func NewView(ctx context.Context) *View {
	ctx, cancel := context.WithCancel(ctx)
	return &View{
		ctx:     ctx,
		cancel:  cancel,
		mounted: make(chan struct{}),
	}
}

// Mount records the mount point and signals that it exists. Only the first
// call has an effect.
func (v *View) Mount(m Mount) {
	v.once.Do(func() {
		v.mount = m
		close(v.mounted)
	})
}

// Mounted is closed once Mount has been called.
func (v *View) Mounted() <-chan struct{} {
	return v.mounted
}

// MountPoint returns the mount point. Valid only after Mounted is closed.
func (v *View) MountPoint() Mount {
	<-v.mounted
	return v.mount
}

// Unmount tears the view down.
func (v *View) Unmount() {
	v.cancel()
}

// Context is done once the view is unmounted or its parent is done.
func (v *View) Context() context.Context {
	return v.ctx
}

// Done is shorthand for Context().Done().
func (v *View) Done() <-chan struct{} {
	return v.ctx.Done()
}
