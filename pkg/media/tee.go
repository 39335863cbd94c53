package media

import (
	"errors"

	"github.com/user/bgswap/pkg/ports"
)

// Tee forwards frames to every sink. Nil sinks are skipped.
type Tee []ports.FrameSink

// NewTee returns a sink fanning out to the non-nil sinks, or nil when
// there are none.
func NewTee(sinks ...ports.FrameSink) ports.FrameSink {
	var t Tee
	for _, s := range sinks {
		if s != nil {
			t = append(t, s)
		}
	}
	if len(t) == 0 {
		return nil
	}
	return t
}

// WriteFrame writes to all sinks and joins their errors.
func (t Tee) WriteFrame(frame ports.VideoFrame) error {
	var errs []error
	for _, s := range t {
		if err := s.WriteFrame(frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes all sinks and joins their errors.
func (t Tee) Close() error {
	var errs []error
	for _, s := range t {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ ports.FrameSink = Tee(nil)
