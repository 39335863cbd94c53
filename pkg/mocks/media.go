package mocks

import (
	"context"
	"image"
	"sync"

	"github.com/user/bgswap/pkg/ports"
)

// MediaDevices is a mock implementation of ports.MediaDevices.
type MediaDevices struct {
	GetUserMediaFunc     func(ctx context.Context, c ports.Constraints) (ports.MediaStream, error)
	EnumerateDevicesFunc func(ctx context.Context) ([]ports.DeviceInfo, error)

	mu       sync.Mutex
	Requests []ports.Constraints
}

func (m *MediaDevices) GetUserMedia(ctx context.Context, c ports.Constraints) (ports.MediaStream, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, c)
	m.mu.Unlock()
	if m.GetUserMediaFunc != nil {
		return m.GetUserMediaFunc(ctx, c)
	}
	return nil, ports.ErrDeviceNotFound
}

func (m *MediaDevices) EnumerateDevices(ctx context.Context) ([]ports.DeviceInfo, error) {
	if m.EnumerateDevicesFunc != nil {
		return m.EnumerateDevicesFunc(ctx)
	}
	return nil, nil
}

// RequestCount returns the number of GetUserMedia calls.
func (m *MediaDevices) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

var _ ports.MediaDevices = (*MediaDevices)(nil)

// FrameSource is a settable ports.FrameSource.
type FrameSource struct {
	mu    sync.Mutex
	frame ports.VideoFrame
	ok    bool
}

// Show makes img the current frame.
func (m *FrameSource) Show(img image.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frame = ports.VideoFrame{Image: img, Seq: m.frame.Seq + 1}
	m.ok = true
}

// Blank makes the source show nothing.
func (m *FrameSource) Blank() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ok = false
}

func (m *FrameSource) CurrentFrame() (ports.VideoFrame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame, m.ok
}

var _ ports.FrameSource = (*FrameSource)(nil)

// FrameSink records written frames.
type FrameSink struct {
	WriteFrameFunc func(frame ports.VideoFrame) error

	mu     sync.Mutex
	Frames []ports.VideoFrame
	Closed bool
}

func (m *FrameSink) WriteFrame(frame ports.VideoFrame) error {
	if m.WriteFrameFunc != nil {
		return m.WriteFrameFunc(frame)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames = append(m.Frames, frame)
	return nil
}

func (m *FrameSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Count returns the number of written frames.
func (m *FrameSink) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Frames)
}

var _ ports.FrameSink = (*FrameSink)(nil)
