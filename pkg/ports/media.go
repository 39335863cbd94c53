// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"image"
)

// DeviceKind classifies a media device.
type DeviceKind string

const (
	KindVideoInput  DeviceKind = "videoinput"
	KindAudioInput  DeviceKind = "audioinput"
	KindAudioOutput DeviceKind = "audiooutput"
)

// DeviceInfo describes one enumerated media device.
type DeviceInfo struct {
	DeviceID string
	Label    string
	Kind     DeviceKind
	GroupID  string
}

// VideoConstraints narrows a video request.
// An empty DeviceID lets the implementation pick a default device.
type VideoConstraints struct {
	DeviceID string // Exact device id
	Width    int
	Height   int
}

// Constraints describes what GetUserMedia should acquire.
type Constraints struct {
	Audio bool
	Video *VideoConstraints // nil means no video
}

// MediaDevices abstracts camera enumeration and acquisition.
type MediaDevices interface {
	// GetUserMedia acquires a live stream matching the constraints.
	// Returns ErrPermissionDenied or ErrDeviceNotFound on failure.
	GetUserMedia(ctx context.Context, c Constraints) (MediaStream, error)

	// EnumerateDevices lists all known devices, of every kind.
	EnumerateDevices(ctx context.Context) ([]DeviceInfo, error)
}

// TrackState is the ready state of a track.
type TrackState int

const (
	TrackLive TrackState = iota
	TrackEnded
)

// MediaTrack is a single audio or video track of a stream.
type MediaTrack interface {
	ID() string
	Kind() DeviceKind
	Label() string
	ReadyState() TrackState

	// Stop ends the track and releases the underlying device.
	// Stopping an ended track is a no-op.
	Stop()
}

// VideoTrack is a track that presents frames.
type VideoTrack interface {
	MediaTrack

	// LatestFrame returns the most recently presented frame.
	// ok is false before the first frame and after the track ends.
	LatestFrame() (frame VideoFrame, ok bool)

	// FrameRate is the nominal presentation rate in frames per second.
	FrameRate() float64

	// Size is the frame size the track was opened with.
	Size() image.Point
}

// MediaStream groups the tracks acquired together.
type MediaStream interface {
	ID() string
	Tracks() []MediaTrack
	VideoTracks() []VideoTrack
}

// StopTracks stops every track of the stream.
func StopTracks(s MediaStream) {
	if s == nil {
		return
	}
	for _, t := range s.Tracks() {
		t.Stop()
	}
}

// VideoFrame is a presented frame.
type VideoFrame struct {
	Image       image.Image
	Seq         uint64 // Increments with every presented frame of a track
	TimestampMs int64
}

// FrameSource yields the frame currently shown by a video element.
type FrameSource interface {
	CurrentFrame() (VideoFrame, bool)
}

// FrameSink consumes frames played by a video element.
type FrameSink interface {
	// WriteFrame receives each newly presented frame in order.
	WriteFrame(frame VideoFrame) error

	// Close flushes and releases the sink.
	Close() error
}
