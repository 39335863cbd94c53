// Package jpegpreview keeps a JPEG file updated with the latest output
// frame so that external viewers can poll it.
package jpegpreview

import (
	"fmt"
	"sync"
	"time"

	"github.com/user/bgswap/pkg/ports"
)

const (
	// DefaultQuality is the JPEG quality of preview files.
	DefaultQuality = 85

	// DefaultInterval is the minimum time between two preview writes.
	DefaultInterval = 200 * time.Millisecond
)

// Preview is a ports.FrameSink writing frames to one JPEG file. Each write
// goes to a temporary file renamed over the target, so readers never see
// a partial image.
type Preview struct {
	path     string
	fs       ports.FileSystem
	renderer ports.Renderer
	quality  int
	interval time.Duration

	// now replaces time.Now in tests.
	now func() time.Time

	mu      sync.Mutex
	last    time.Time
	written int
}

// New creates a Preview writing to path at most once per interval.
func New(path string, fs ports.FileSystem, renderer ports.Renderer, interval time.Duration) *Preview {
	return &Preview{
		path:     path,
		fs:       fs,
		renderer: renderer,
		quality:  DefaultQuality,
		interval: interval,
		now:      time.Now,
	}
}

// Written returns the number of preview files written.
func (p *Preview) Written() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written
}

// WriteFrame replaces the preview with frame unless the last write is
// more recent than the interval.
func (p *Preview) WriteFrame(frame ports.VideoFrame) error {
	if frame.Image == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.written > 0 && now.Sub(p.last) < p.interval {
		return nil
	}

	data, err := p.renderer.EncodeImage(frame.Image, ports.FormatJPEG, p.quality)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}

	tmp := p.path + ".tmp"
	if err := p.fs.WriteFile(tmp, data); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	if err := p.fs.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("replace preview: %w", err)
	}

	p.last = now
	p.written++
	return nil
}

// Close leaves the last preview in place.
func (p *Preview) Close() error {
	return nil
}

var _ ports.FrameSink = (*Preview)(nil)
