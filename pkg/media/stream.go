// Package media provides the stream and track building blocks shared by
// camera adapters and the canvas capture, and the VideoElement that plays
// a stream.
package media

import (
	"image"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/user/bgswap/pkg/ports"
)

// Stream is a fixed set of tracks acquired together.
type Stream struct {
	id     string
	tracks []ports.MediaTrack
}

// NewStream creates a stream with a fresh id.
func NewStream(tracks ...ports.MediaTrack) *Stream {
	return &Stream{
		id:     ksuid.New().String(),
		tracks: tracks,
	}
}

// ID returns the stream id.
func (s *Stream) ID() string { return s.id }

// Tracks returns every track of the stream.
func (s *Stream) Tracks() []ports.MediaTrack {
	return append([]ports.MediaTrack(nil), s.tracks...)
}

// VideoTracks returns the video tracks of the stream.
func (s *Stream) VideoTracks() []ports.VideoTrack {
	var out []ports.VideoTrack
	for _, t := range s.tracks {
		if vt, ok := t.(ports.VideoTrack); ok {
			out = append(out, vt)
		}
	}
	return out
}

var _ ports.MediaStream = (*Stream)(nil)

// VideoTrack is a live video track fed by a producer through Publish.
// Producers are camera capture goroutines and the canvas capture.
type VideoTrack struct {
	id    string
	label string
	fps   float64
	size  image.Point

	mu     sync.RWMutex
	frame  ports.VideoFrame
	has    bool
	state  ports.TrackState
	onStop func()
	start  time.Time
}

// NewVideoTrack creates a live track. onStop runs once when the track is
// stopped and is where the producer releases its device.
func NewVideoTrack(label string, fps float64, size image.Point, onStop func()) *VideoTrack {
	return &VideoTrack{
		id:     ksuid.New().String(),
		label:  label,
		fps:    fps,
		size:   size,
		onStop: onStop,
		start:  time.Now(),
	}
}

// Publish presents a new frame. Frames published after Stop are dropped.
// It returns false once the track has ended.
func (t *VideoTrack) Publish(img image.Image) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == ports.TrackEnded {
		return false
	}
	t.frame = ports.VideoFrame{
		Image:       img,
		Seq:         t.frame.Seq + 1,
		TimestampMs: time.Since(t.start).Milliseconds(),
	}
	t.has = true
	return true
}

// LatestFrame returns the last published frame.
func (t *VideoTrack) LatestFrame() (ports.VideoFrame, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.has || t.state == ports.TrackEnded {
		return ports.VideoFrame{}, false
	}
	return t.frame, true
}

// Stop ends the track.
func (t *VideoTrack) Stop() {
	t.mu.Lock()
	if t.state == ports.TrackEnded {
		t.mu.Unlock()
		return
	}
	t.state = ports.TrackEnded
	t.frame = ports.VideoFrame{}
	t.has = false
	onStop := t.onStop
	t.mu.Unlock()

	if onStop != nil {
		onStop()
	}
}

// ReadyState reports whether the track is live.
func (t *VideoTrack) ReadyState() ports.TrackState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *VideoTrack) ID() string             { return t.id }
func (t *VideoTrack) Kind() ports.DeviceKind { return ports.KindVideoInput }
func (t *VideoTrack) Label() string          { return t.label }
func (t *VideoTrack) FrameRate() float64     { return t.fps }
func (t *VideoTrack) Size() image.Point      { return t.size }

var _ ports.VideoTrack = (*VideoTrack)(nil)

// AudioTrack is a placeholder for acquired audio. Nothing consumes audio;
// it exists so permission requests can return and stop it like any track.
type AudioTrack struct {
	id    string
	label string

	mu    sync.Mutex
	state ports.TrackState
}

// NewAudioTrack creates a live audio track.
func NewAudioTrack(label string) *AudioTrack {
	return &AudioTrack{id: ksuid.New().String(), label: label}
}

func (t *AudioTrack) ID() string             { return t.id }
func (t *AudioTrack) Kind() ports.DeviceKind { return ports.KindAudioInput }
func (t *AudioTrack) Label() string          { return t.label }

// ReadyState reports whether the track is live.
func (t *AudioTrack) ReadyState() ports.TrackState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Stop ends the track.
func (t *AudioTrack) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = ports.TrackEnded
}

var _ ports.MediaTrack = (*AudioTrack)(nil)
