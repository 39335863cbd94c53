// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/user/bgswap/pkg/ports"
)

// Sink discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false so callers can skip encoding work.
func (s *Sink) Enabled() bool {
	return false
}

func (s *Sink) SaveSourceFrame(index uint64, img image.Image) error   { return nil }
func (s *Sink) SaveMask(index uint64, img image.Image) error          { return nil }
func (s *Sink) SaveComposedFrame(index uint64, img image.Image) error { return nil }

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
