package media

import (
	"errors"
	"image"
	"sync"
	"time"

	"github.com/user/bgswap/pkg/ports"
)

// ErrNoSource is returned by Play when no stream is bound.
var ErrNoSource = errors.New("media: no source bound")

// VideoElement plays the first video track of a bound stream.
//
// While playing it exposes the current frame (ports.FrameSource) and, when
// a sink is attached, forwards every newly presented frame to it.
type VideoElement struct {
	name   string
	sink   ports.FrameSink
	logger ports.Logger

	mu      sync.Mutex
	src     ports.MediaStream
	playing bool
	stop    chan struct{}
	done    chan struct{}
}

// NewVideoElement creates a paused element. sink may be nil.
func NewVideoElement(name string, sink ports.FrameSink, logger ports.Logger) *VideoElement {
	return &VideoElement{
		name:   name,
		sink:   sink,
		logger: logger.WithComponent(name),
	}
}

// SetSrcObject binds a stream, or clears the source when s is nil.
// Playback of the previous source stops. Tracks are not stopped: they
// belong to whoever acquired the stream.
func (v *VideoElement) SetSrcObject(s ports.MediaStream) {
	v.Pause()

	v.mu.Lock()
	defer v.mu.Unlock()
	v.src = s
}

// SrcObject returns the bound stream, or nil.
func (v *VideoElement) SrcObject() ports.MediaStream {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.src
}

// Play starts playback of the bound stream.
func (v *VideoElement) Play() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.src == nil {
		return ErrNoSource
	}
	track := firstLiveVideoTrack(v.src)
	if track == nil {
		return ports.ErrTrackEnded
	}
	if v.playing {
		return nil
	}
	v.playing = true

	if v.sink != nil {
		v.stop = make(chan struct{})
		v.done = make(chan struct{})
		go v.playback(track, v.stop, v.done)
	}
	v.logger.Debug("Playing stream %s", v.src.ID())
	return nil
}

// Pause stops playback. The source stays bound.
func (v *VideoElement) Pause() {
	v.mu.Lock()
	if !v.playing {
		v.mu.Unlock()
		return
	}
	v.playing = false
	stop, done := v.stop, v.done
	v.stop, v.done = nil, nil
	v.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

// Paused reports whether playback is stopped.
func (v *VideoElement) Paused() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.playing
}

// CurrentFrame returns the frame being shown. Nothing is shown while
// paused, without a source, or once the track has ended.
func (v *VideoElement) CurrentFrame() (ports.VideoFrame, bool) {
	v.mu.Lock()
	src, playing := v.src, v.playing
	v.mu.Unlock()

	if !playing || src == nil {
		return ports.VideoFrame{}, false
	}
	track := firstLiveVideoTrack(src)
	if track == nil {
		return ports.VideoFrame{}, false
	}
	return track.LatestFrame()
}

// Size returns the frame size of the bound video track.
func (v *VideoElement) Size() image.Point {
	src := v.SrcObject()
	if src == nil {
		return image.Point{}
	}
	if track := firstLiveVideoTrack(src); track != nil {
		return track.Size()
	}
	return image.Point{}
}

// playback polls the track at its frame rate and forwards new frames.
func (v *VideoElement) playback(track ports.VideoTrack, stop, done chan struct{}) {
	defer close(done)

	fps := track.FrameRate()
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if track.ReadyState() == ports.TrackEnded {
			v.logger.Debug("Track %s ended, playback stopped", track.ID())
			return
		}
		frame, ok := track.LatestFrame()
		if !ok || frame.Seq == lastSeq {
			continue
		}
		lastSeq = frame.Seq
		if err := v.sink.WriteFrame(frame); err != nil {
			v.logger.Warn("Failed to write frame %d: %s", frame.Seq, err)
		}
	}
}

func firstLiveVideoTrack(s ports.MediaStream) ports.VideoTrack {
	for _, t := range s.VideoTracks() {
		if t.ReadyState() == ports.TrackLive {
			return t
		}
	}
	return nil
}

var _ ports.FrameSource = (*VideoElement)(nil)
