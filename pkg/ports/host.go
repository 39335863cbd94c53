package ports

import (
	"context"
	"time"
)

// FrameHandle identifies a scheduled animation frame callback.
// The zero handle is never issued.
type FrameHandle uint64

// FrameCallback is invoked once with the frame timestamp.
type FrameCallback func(now time.Time)

// FrameScheduler is the host's per-frame scheduling primitive.
type FrameScheduler interface {
	// RequestAnimationFrame schedules cb for the next display frame.
	RequestAnimationFrame(cb FrameCallback) FrameHandle

	// CancelAnimationFrame removes a pending callback.
	// Unknown or already fired handles are ignored.
	CancelAnimationFrame(h FrameHandle)
}

// Dispatcher runs functions on the single application context.
type Dispatcher interface {
	// Post queues fn and returns immediately.
	Post(fn func())

	// Do runs fn on the application context and waits for it.
	// It must not be called from the application context itself.
	Do(ctx context.Context, fn func()) error
}
