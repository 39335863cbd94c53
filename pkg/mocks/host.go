package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/user/bgswap/pkg/ports"
)

// Scheduler is a manual ports.FrameScheduler. Frames fire only when the
// test calls Frame.
type Scheduler struct {
	mu        sync.Mutex
	next      ports.FrameHandle
	pending   map[ports.FrameHandle]ports.FrameCallback
	order     []ports.FrameHandle
	Requested int
	Cancelled int
}

// NewScheduler creates a Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[ports.FrameHandle]ports.FrameCallback)}
}

func (m *Scheduler) RequestAnimationFrame(cb ports.FrameCallback) ports.FrameHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.pending[m.next] = cb
	m.order = append(m.order, m.next)
	m.Requested++
	return m.next
}

func (m *Scheduler) CancelAnimationFrame(h ports.FrameHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[h]; ok {
		m.Cancelled++
	}
	delete(m.pending, h)
}

// Frame fires every callback pending at the time of the call and returns
// how many ran.
func (m *Scheduler) Frame() int {
	m.mu.Lock()
	order := m.order
	m.order = nil
	m.mu.Unlock()

	ran := 0
	for _, h := range order {
		m.mu.Lock()
		cb, ok := m.pending[h]
		delete(m.pending, h)
		m.mu.Unlock()
		if ok {
			cb(time.Now())
			ran++
		}
	}
	return ran
}

// Pending returns the number of scheduled callbacks.
func (m *Scheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

var _ ports.FrameScheduler = (*Scheduler)(nil)

// Dispatcher runs everything inline on the calling goroutine.
type Dispatcher struct {
	mu sync.Mutex
}

func (m *Dispatcher) Post(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}

func (m *Dispatcher) Do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.Post(fn)
	return nil
}

var _ ports.Dispatcher = (*Dispatcher)(nil)
