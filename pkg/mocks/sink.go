package mocks

import (
	"image"
	"sync"

	"github.com/user/bgswap/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	SourceFrames   map[uint64]image.Image
	Masks          map[uint64]image.Image
	ComposedFrames map[uint64]image.Image
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:        enabled,
		SourceFrames:   make(map[uint64]image.Image),
		Masks:          make(map[uint64]image.Image),
		ComposedFrames: make(map[uint64]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveSourceFrame(index uint64, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourceFrames[index] = img
	return nil
}

func (m *DebugSink) SaveMask(index uint64, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Masks[index] = img
	return nil
}

func (m *DebugSink) SaveComposedFrame(index uint64, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ComposedFrames[index] = img
	return nil
}

// ComposedCount returns the number of saved composed frames.
func (m *DebugSink) ComposedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ComposedFrames)
}

var _ ports.DebugSink = (*DebugSink)(nil)
