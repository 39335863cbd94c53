// Package host provides the single cooperative execution context of the
// application: a task queue plus an animation-frame scheduler driven by
// the display refresh.
//
// Every piece of session state is mutated from tasks or frame callbacks
// running on Run's goroutine, so no further locking is needed there.
package host

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/user/bgswap/pkg/ports"
)

// ErrStopped is returned by Do once the loop has exited.
var ErrStopped = errors.New("host: loop stopped")

// Options configures a Loop.
type Options struct {
	// RefreshRate is the display refresh in Hz. Ignored when Vsync is set.
	RefreshRate float64

	// Vsync overrides the refresh clock. Each receive is one display frame.
	Vsync <-chan time.Time
}

// Loop is the application event loop.
type Loop struct {
	opts Options

	mu      sync.Mutex
	tasks   []func()
	wake    chan struct{}
	frames  map[ports.FrameHandle]ports.FrameCallback
	order   []ports.FrameHandle
	next    ports.FrameHandle
	stopped chan struct{}
	once    sync.Once
}

// New creates a Loop. It does nothing until Run is called.
func New(opts Options) *Loop {
	if opts.RefreshRate <= 0 {
		opts.RefreshRate = 60
	}
	return &Loop{
		opts:    opts,
		wake:    make(chan struct{}, 1),
		frames:  make(map[ports.FrameHandle]ports.FrameCallback),
		stopped: make(chan struct{}),
	}
}

// Run processes tasks and frames until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.stopped) })

	vsync := l.opts.Vsync
	if vsync == nil {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / l.opts.RefreshRate))
		defer ticker.Stop()
		vsync = ticker.C
	}

	for {
		l.drainTasks()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		case now := <-vsync:
			l.drainTasks()
			l.runFrame(now)
		}
	}
}

// Post queues fn to run on the loop.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrStopped
	}
}

// RequestAnimationFrame schedules cb for the next display frame.
// Callbacks requested while a frame is running fire on the following one.
func (l *Loop) RequestAnimationFrame(cb ports.FrameCallback) ports.FrameHandle {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.next++
	h := l.next
	l.frames[h] = cb
	l.order = append(l.order, h)
	return h
}

// CancelAnimationFrame removes a pending callback.
func (l *Loop) CancelAnimationFrame(h ports.FrameHandle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.frames, h)
}

// Pending returns the number of scheduled frame callbacks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.frames)
}

func (l *Loop) drainTasks() {
	for {
		l.mu.Lock()
		tasks := l.tasks
		l.tasks = nil
		l.mu.Unlock()

		if len(tasks) == 0 {
			return
		}
		for _, fn := range tasks {
			fn()
		}
	}
}

// runFrame fires the callbacks that were pending when the frame began.
// A callback cancelled by an earlier one in the same frame does not fire.
func (l *Loop) runFrame(now time.Time) {
	l.mu.Lock()
	order := l.order
	l.order = nil
	l.mu.Unlock()

	for _, h := range order {
		l.mu.Lock()
		cb, ok := l.frames[h]
		delete(l.frames, h)
		l.mu.Unlock()

		if ok {
			cb(now)
		}
	}
}

var (
	_ ports.FrameScheduler = (*Loop)(nil)
	_ ports.Dispatcher     = (*Loop)(nil)
)
