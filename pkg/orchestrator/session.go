// Package orchestrator coordinates the device selector, the background
// provider and the compositor loop for one session.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ideamans/go-l10n"

	"github.com/user/bgswap/pkg/capture"
	"github.com/user/bgswap/pkg/compositor"
	"github.com/user/bgswap/pkg/media"
	"github.com/user/bgswap/pkg/pipeline"
	"github.com/user/bgswap/pkg/ports"
	"github.com/user/bgswap/pkg/stages/background"
	"github.com/user/bgswap/pkg/stages/devices"
)

// Config contains the fixed session geometry.
type Config struct {
	Size pipeline.Dimension
	FPS  float64 // Capture rate of the output stream
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Size: pipeline.DefaultSize(),
		FPS:  pipeline.DefaultFPS,
	}
}

// Session wires the pieces of one compositing session together.
//
// Device switches and teardown run on the host context through the
// dispatcher; device acquisition runs on the caller's goroutine so the
// host keeps drawing meanwhile.
type Session struct {
	config     Config
	dispatcher ports.Dispatcher
	selector   *devices.Selector
	background *background.Provider
	loop       *compositor.Loop
	surface    *capture.Surface
	source     *media.VideoElement
	output     *media.VideoElement
	segmenter  ports.Segmenter
	logger     ports.Logger

	selections atomic.Uint64

	// Owned by the host context.
	camera  ports.MediaStream
	capture ports.MediaStream

	mu       sync.Mutex
	mounted  bool
	closed   bool
	inputs   []ports.DeviceInfo
	deviceID string
	label    string
}

// New creates a new Session. The source and output elements must be
// bound to nothing.
func New(
	config Config,
	dispatcher ports.Dispatcher,
	selector *devices.Selector,
	background *background.Provider,
	loop *compositor.Loop,
	surface *capture.Surface,
	source *media.VideoElement,
	output *media.VideoElement,
	segmenter ports.Segmenter,
	logger ports.Logger,
) *Session {
	if config.FPS <= 0 {
		config.FPS = pipeline.DefaultFPS
	}
	return &Session{
		config:     config,
		dispatcher: dispatcher,
		selector:   selector,
		background: background,
		loop:       loop,
		surface:    surface,
		source:     source,
		output:     output,
		segmenter:  segmenter,
		logger:     logger,
	}
}

// Mount unlocks device labels and lists the video inputs.
func (s *Session) Mount(ctx context.Context) error {
	inputs, err := s.selector.Enumerate(ctx)
	if err != nil {
		s.logger.Error(l10n.F("Failed to list devices: %s", err))
		return fmt.Errorf("mount: %w", err)
	}

	s.mu.Lock()
	s.inputs = inputs
	s.mounted = true
	s.mu.Unlock()

	s.logger.Info(l10n.F("Found %d video inputs", len(inputs)))
	return nil
}

// Devices returns the video inputs found by Mount.
func (s *Session) Devices() []ports.DeviceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.DeviceInfo(nil), s.inputs...)
}

// SelectDevice switches the session to the device with the given id, or
// stops it when id is pipeline.NoneDeviceID.
//
// A failed acquisition returns an error and changes nothing. When a newer
// selection starts before this one finishes, this one returns
// ports.ErrSuperseded and releases what it acquired.
func (s *Session) SelectDevice(ctx context.Context, id string) error {
	if !s.isMounted() {
		return ports.ErrNotMounted
	}
	seq := s.selections.Add(1)

	if id == pipeline.NoneDeviceID {
		if err := s.dispatcher.Do(ctx, s.teardown); err != nil {
			return fmt.Errorf("select none: %w", err)
		}
		s.logger.Info(l10n.T("Stopped"))
		return nil
	}

	stream, err := s.selector.Acquire(ctx, id, s.config.Size)
	if err != nil {
		s.logger.Warn(l10n.F("Failed to open device %s: %s", id, err))
		return fmt.Errorf("select %s: %w", id, err)
	}

	var bindErr error
	err = s.dispatcher.Do(ctx, func() {
		if seq != s.selections.Load() {
			bindErr = ports.ErrSuperseded
			return
		}
		bindErr = s.bind(stream)
	})
	if err == nil {
		err = bindErr
	}
	if err != nil {
		ports.StopTracks(stream)
		if !errors.Is(err, ports.ErrSuperseded) {
			s.logger.Warn(l10n.F("Failed to open device %s: %s", id, err))
		}
		return fmt.Errorf("select %s: %w", id, err)
	}

	label := id
	if tracks := stream.VideoTracks(); len(tracks) > 0 && tracks[0].Label() != "" {
		label = tracks[0].Label()
	}
	s.mu.Lock()
	s.deviceID, s.label = id, label
	s.mu.Unlock()

	s.logger.Info(l10n.F("Switched to %s", label))
	return nil
}

// bind runs on the host context: stop the loop, bind the new camera,
// restart the loop and republish the output surface.
func (s *Session) bind(stream ports.MediaStream) error {
	s.loop.Stop()

	previous := s.camera
	s.source.SetSrcObject(stream)
	if err := s.source.Play(); err != nil {
		// Put the previous binding back so nothing is half started.
		s.source.SetSrcObject(previous)
		if previous != nil && s.source.Play() == nil {
			s.loop.Start(s.source)
		}
		return fmt.Errorf("play source: %w", err)
	}
	ports.StopTracks(previous)
	s.camera = stream

	s.loop.Start(s.source)

	out := capture.CaptureStream(s.surface, s.config.FPS)
	s.output.SetSrcObject(out)
	ports.StopTracks(s.capture)
	s.capture = out
	if err := s.output.Play(); err != nil {
		s.logger.Warn(l10n.F("Failed to play output: %s", err))
	}
	return nil
}

// teardown runs on the host context: stop the loop, clear both elements
// and release the streams.
func (s *Session) teardown() {
	s.loop.Stop()

	s.output.SetSrcObject(nil)
	ports.StopTracks(s.capture)
	s.capture = nil

	s.source.SetSrcObject(nil)
	ports.StopTracks(s.camera)
	s.camera = nil

	s.surface.Clear()

	s.mu.Lock()
	s.deviceID, s.label = "", ""
	s.mu.Unlock()
}

// ChooseBackground replaces the background with the file at path.
func (s *Session) ChooseBackground(path string) error {
	if !s.isMounted() {
		return ports.ErrNotMounted
	}
	if err := s.background.Choose(path); err != nil {
		s.logger.Warn(l10n.F("Failed to load background %s: %s", path, err))
		return err
	}
	s.logger.Info(l10n.F("Background set to %s", path))
	return nil
}

// Status is a snapshot of the session.
type Status struct {
	DeviceID      string
	DeviceLabel   string
	State         compositor.State
	Generation    uint64
	Stats         compositor.Stats
	BackgroundURL string
	HasBackground bool
	OutputPlaying bool
}

// Status returns the current session status.
func (s *Session) Status() Status {
	s.mu.Lock()
	st := Status{DeviceID: s.deviceID, DeviceLabel: s.label}
	s.mu.Unlock()

	st.State = s.loop.State()
	st.Generation = s.loop.Generation()
	st.Stats = s.loop.Stats()
	st.BackgroundURL = s.background.URL()
	st.HasBackground = s.background.Current() != nil
	st.OutputPlaying = !s.output.Paused()
	return st
}

// Close stops the session and releases the background and the model.
// It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.selections.Add(1)
	if err := s.dispatcher.Do(context.Background(), s.teardown); err != nil {
		// The host has exited; nothing else runs concurrently.
		s.teardown()
	}
	s.background.Release()

	if err := s.segmenter.Close(); err != nil {
		return fmt.Errorf("close segmenter: %w", err)
	}
	return nil
}

func (s *Session) isMounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted && !s.closed
}
