// Package capture provides the visible output surface and the synthetic
// stream captured from it.
package capture

import (
	"image"
	"sync"
	"time"

	"github.com/user/bgswap/pkg/media"
	"github.com/user/bgswap/pkg/pipeline"
	"github.com/user/bgswap/pkg/ports"
)

// Surface is the visible output canvas. The compositor presents every
// drawn frame to it; capture streams and previews read it.
type Surface struct {
	size pipeline.Dimension

	mu      sync.RWMutex
	img     image.Image
	version uint64
}

// NewSurface creates an empty surface of the given size.
func NewSurface(size pipeline.Dimension) *Surface {
	return &Surface{size: size}
}

// Size returns the fixed surface size.
func (s *Surface) Size() pipeline.Dimension { return s.size }

// Present replaces the surface content.
func (s *Surface) Present(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = img
	s.version++
}

// Latest returns the current content and its version.
// The version is zero until the first Present.
func (s *Surface) Latest() (image.Image, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.img, s.version
}

// Clear drops the current content.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = nil
	s.version++
}

// CaptureStream returns a live stream whose single video track publishes
// the surface content at most fps times per second. A frame is published
// only when the surface changed since the previous one. Stopping the track
// stops the capture.
func CaptureStream(s *Surface, fps float64) ports.MediaStream {
	if fps <= 0 {
		fps = pipeline.DefaultFPS
	}

	stop := make(chan struct{})
	var once sync.Once
	track := media.NewVideoTrack("canvas", fps, s.size.Point(), func() {
		once.Do(func() { close(stop) })
	})

	go func() {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
		defer ticker.Stop()

		var last uint64
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				img, version := s.Latest()
				if version == last || img == nil {
					continue
				}
				last = version
				if !track.Publish(img) {
					return
				}
			}
		}
	}()

	return media.NewStream(track)
}
