// Package devices implements the device selector: permission unlock,
// enumeration of video inputs and acquisition by exact device id.
package devices

import (
	"context"
	"fmt"

	"github.com/user/bgswap/pkg/pipeline"
	"github.com/user/bgswap/pkg/ports"
)

// Selector enumerates and opens cameras.
type Selector struct {
	media  ports.MediaDevices
	logger ports.Logger
}

// NewSelector creates a new selector.
func NewSelector(media ports.MediaDevices, logger ports.Logger) *Selector {
	return &Selector{
		media:  media,
		logger: logger.WithComponent("devices"),
	}
}

// Enumerate requests combined audio and video permission, releases the
// acquired tracks at once (the request only unlocks device labels) and
// returns the video inputs.
func (s *Selector) Enumerate(ctx context.Context) ([]ports.DeviceInfo, error) {
	stream, err := s.media.GetUserMedia(ctx, ports.Constraints{
		Audio: true,
		Video: &ports.VideoConstraints{},
	})
	if err != nil {
		return nil, fmt.Errorf("request device permission: %w", err)
	}
	ports.StopTracks(stream)

	all, err := s.media.EnumerateDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	videos := FilterVideoInputs(all)
	s.logger.Debug("Found %d video inputs among %d devices", len(videos), len(all))
	return videos, nil
}

// FilterVideoInputs keeps only video input devices, in order.
func FilterVideoInputs(all []ports.DeviceInfo) []ports.DeviceInfo {
	out := make([]ports.DeviceInfo, 0, len(all))
	for _, d := range all {
		if d.Kind == ports.KindVideoInput {
			out = append(out, d)
		}
	}
	return out
}

// Acquire opens the device with the exact id at the session size.
// The returned stream has a live video track; the caller owns it.
func (s *Selector) Acquire(ctx context.Context, id string, size pipeline.Dimension) (ports.MediaStream, error) {
	if id == "" || id == pipeline.NoneDeviceID {
		return nil, fmt.Errorf("acquire %q: %w", id, ports.ErrDeviceNotFound)
	}

	stream, err := s.media.GetUserMedia(ctx, ports.Constraints{
		Video: &ports.VideoConstraints{
			DeviceID: id,
			Width:    size.Width,
			Height:   size.Height,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", id, err)
	}

	for _, t := range stream.VideoTracks() {
		if t.ReadyState() == ports.TrackLive {
			s.logger.Debug("Acquired %s (%s)", id, t.Label())
			return stream, nil
		}
	}

	ports.StopTracks(stream)
	return nil, fmt.Errorf("acquire %s: no live video track: %w", id, ports.ErrDeviceNotFound)
}
