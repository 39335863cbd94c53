// Package compositor implements the frame-driven compositing loop.
//
// The loop runs on the host's single execution context. Every animation
// frame it submits the current source frame to the segmenter; every result
// is drawn by the composite stage and presented to the output surface.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/user/bgswap/pkg/pipeline"
	"github.com/user/bgswap/pkg/ports"
)

// State is the loop state.
type State int

const (
	Idle State = iota
	Running
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// Stats counts loop activity across generations.
type Stats struct {
	Submitted   uint64 // Frames accepted by the segmenter
	Drawn       uint64 // Results composed and presented
	Stale       uint64 // Results dropped for a wrong generation or after stop
	SkippedBusy uint64 // Ticks skipped while a submission was outstanding
	Errors      uint64 // Failed submissions, results and draws
}

// BackgroundSource yields the decoded background, or nil.
type BackgroundSource interface {
	Current() image.Image
}

// Presenter receives every composed frame.
type Presenter interface {
	Present(img image.Image)
}

// DefaultSubmitTimeout is how long an unanswered submission blocks new ones.
const DefaultSubmitTimeout = 2 * time.Second

// errorLogInterval limits repeated failure warnings.
const errorLogInterval = 15 * time.Second

// Options configures a Loop.
type Options struct {
	Scheduler     ports.FrameScheduler
	Dispatcher    ports.Dispatcher
	Segmenter     ports.Segmenter
	Stage         pipeline.Stage[pipeline.CompositeInput, pipeline.CompositeResult]
	Background    BackgroundSource // may be nil
	Output        Presenter
	SubmitTimeout time.Duration
	Logger        ports.Logger

	// Now replaces time.Now in tests.
	Now func() time.Time
}

// Loop is the compositor loop. Start, Stop and the frame callbacks run on
// the host context; State, Stats and Generation are safe from anywhere.
type Loop struct {
	opts   Options
	logger ports.Logger

	// Owned by the host context.
	source       ports.FrameSource
	handle       ports.FrameHandle
	ctx          context.Context
	cancel       context.CancelFunc
	pending      bool
	pendingSince time.Time
	seq          uint64 // last submission; only its result is drawn
	lastWarn     time.Time
	suppressed   int

	mu    sync.Mutex
	state State
	gen   uint64
	stats Stats
}

// New creates an idle loop and registers it as the segmenter's result
// handler.
func New(opts Options) *Loop {
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = DefaultSubmitTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	l := &Loop{
		opts:   opts,
		logger: opts.Logger.WithComponent("compositor"),
	}
	opts.Segmenter.OnResults(l.onResults)
	return l
}

// Start begins a new generation drawing from source. A running loop is
// stopped first so that at most one generation is ever scheduled.
func (l *Loop) Start(source ports.FrameSource) {
	l.Stop()

	l.source = source
	l.pending = false
	l.ctx, l.cancel = context.WithCancel(context.Background())

	l.mu.Lock()
	l.gen++
	l.state = Running
	gen := l.gen
	l.mu.Unlock()

	l.handle = l.opts.Scheduler.RequestAnimationFrame(l.tick)
	l.logger.Debug("Loop started, generation %d", gen)
}

// Stop cancels the pending frame. Results still in flight are discarded
// when they arrive. Stopping an idle loop is a no-op.
func (l *Loop) Stop() {
	if l.handle != 0 {
		l.opts.Scheduler.CancelAnimationFrame(l.handle)
		l.handle = 0
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.source = nil
	l.pending = false

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Running {
		l.state = Idle
		l.logger.Debug("Loop stopped, generation %d", l.gen)
	}
}

// State returns the current state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Generation returns the number of the current or last generation.
func (l *Loop) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

// Stats returns a copy of the counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// tick is one animation frame: submit the current frame, then schedule
// the next tick.
func (l *Loop) tick(now time.Time) {
	l.handle = 0
	if l.State() != Running {
		return
	}
	defer func() {
		l.handle = l.opts.Scheduler.RequestAnimationFrame(l.tick)
	}()

	if l.pending {
		if l.opts.Now().Sub(l.pendingSince) < l.opts.SubmitTimeout {
			l.count(func(s *Stats) { s.SkippedBusy++ })
			return
		}
		l.logger.Debug("Submission timed out after %s", l.opts.SubmitTimeout)
		l.pending = false
	}

	frame, ok := l.source.CurrentFrame()
	if !ok {
		return
	}

	input := ports.SegmentationInput{Image: frame.Image, Tag: l.Generation(), Seq: l.seq + 1}
	err := l.opts.Segmenter.Send(l.ctx, input)
	if errors.Is(err, ports.ErrSegmenterBusy) {
		l.count(func(s *Stats) { s.SkippedBusy++ })
		return
	}
	if err != nil {
		l.count(func(s *Stats) { s.Errors++ })
		l.warn("Failed to submit frame: %s", err)
		return
	}
	l.seq = input.Seq
	l.pending = true
	l.pendingSince = l.opts.Now()
	l.count(func(s *Stats) { s.Submitted++ })
}

// onResults is the segmenter handler. It may run on any goroutine.
func (l *Loop) onResults(result ports.SegmentationResult, err error) {
	l.opts.Dispatcher.Post(func() { l.draw(result, err) })
}

// draw runs on the host context. A result is current only when it
// answers the latest submission of the running generation; results of
// timed-out submissions are stale and leave the pending one in place.
func (l *Loop) draw(result ports.SegmentationResult, err error) {
	l.mu.Lock()
	current := l.state == Running && result.Tag == l.gen && result.Seq == l.seq
	if !current {
		l.stats.Stale++
	}
	l.mu.Unlock()
	if !current {
		l.logger.Debug("Dropped stale result %d for generation %d", result.Seq, result.Tag)
		return
	}

	l.pending = false

	if err != nil {
		l.count(func(s *Stats) { s.Errors++ })
		l.warn("Segmentation failed: %s", err)
		return
	}

	var bg image.Image
	if l.opts.Background != nil {
		bg = l.opts.Background.Current()
	}

	out, err := l.opts.Stage.Execute(l.ctx, pipeline.CompositeInput{Result: result, Background: bg})
	if err != nil {
		l.count(func(s *Stats) { s.Errors++ })
		l.warn("Failed to compose frame: %s", fmt.Errorf("generation %d: %w", result.Tag, err))
		return
	}

	l.opts.Output.Present(out.Image)
	l.count(func(s *Stats) { s.Drawn++ })
}

func (l *Loop) count(fn func(s *Stats)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.stats)
}

// warn logs at most once per errorLogInterval and reports how many
// warnings were suppressed in between.
func (l *Loop) warn(msg string, args ...interface{}) {
	now := l.opts.Now()
	if !l.lastWarn.IsZero() && now.Sub(l.lastWarn) < errorLogInterval {
		l.suppressed++
		return
	}
	if l.suppressed > 0 {
		l.logger.Warn("%d similar warnings suppressed", l.suppressed)
		l.suppressed = 0
	}
	l.lastWarn = now
	l.logger.Warn(msg, args...)
}
