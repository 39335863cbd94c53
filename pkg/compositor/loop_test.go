package compositor

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/bgswap/pkg/capture"
	"github.com/user/bgswap/pkg/mocks"
	"github.com/user/bgswap/pkg/pipeline"
	"github.com/user/bgswap/pkg/ports"
)

type fixedBackground struct{ img image.Image }

func (b fixedBackground) Current() image.Image { return b.img }

type harness struct {
	loop      *Loop
	scheduler *mocks.Scheduler
	segmenter *mocks.Segmenter
	surface   *capture.Surface
	logger    *mocks.Logger
	inputs    []pipeline.CompositeInput
	now       time.Time
}

func newHarness(t *testing.T, bg image.Image) *harness {
	t.Helper()
	h := &harness{
		scheduler: mocks.NewScheduler(),
		segmenter: &mocks.Segmenter{},
		surface:   capture.NewSurface(pipeline.Dimension{Width: 4, Height: 4}),
		logger:    mocks.NewLogger(),
		now:       time.Unix(1000, 0),
	}
	stage := pipeline.StageFunc[pipeline.CompositeInput, pipeline.CompositeResult](
		func(ctx context.Context, in pipeline.CompositeInput) (pipeline.CompositeResult, error) {
			h.inputs = append(h.inputs, in)
			return pipeline.CompositeResult{Image: in.Result.Image}, nil
		})
	opts := Options{
		Scheduler:     h.scheduler,
		Dispatcher:    &mocks.Dispatcher{},
		Segmenter:     h.segmenter,
		Stage:         stage,
		Output:        h.surface,
		SubmitTimeout: time.Second,
		Logger:        h.logger,
		Now:           func() time.Time { return h.now },
	}
	if bg != nil {
		opts.Background = fixedBackground{img: bg}
	}
	h.loop = New(opts)
	return h
}

func sourceWith(img image.Image) *mocks.FrameSource {
	src := &mocks.FrameSource{}
	src.Show(img)
	return src
}

func frame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 4, 4))
}

func result(in ports.SegmentationInput) ports.SegmentationResult {
	return ports.SegmentationResult{SegmentationMask: frame(), Image: in.Image, Tag: in.Tag, Seq: in.Seq}
}

func TestLoop_StartSubmitsAndDraws(t *testing.T) {
	h := newHarness(t, nil)
	img := frame()

	assert.Equal(t, Idle, h.loop.State())
	h.loop.Start(sourceWith(img))
	assert.Equal(t, Running, h.loop.State())
	assert.Equal(t, uint64(1), h.loop.Generation())
	assert.Equal(t, 1, h.scheduler.Pending())

	require.Equal(t, 1, h.scheduler.Frame())
	assert.Equal(t, 1, h.scheduler.Pending(), "tick reschedules itself")

	in, ok := h.segmenter.LastSent()
	require.True(t, ok)
	assert.Equal(t, uint64(1), in.Tag)
	assert.Same(t, img, in.Image)

	h.segmenter.Deliver(result(in), nil)

	drawn, version := h.surface.Latest()
	assert.Equal(t, uint64(1), version)
	assert.Same(t, img, drawn)
	assert.Equal(t, Stats{Submitted: 1, Drawn: 1}, h.loop.Stats())
}

func TestLoop_PassesBackground(t *testing.T) {
	bg := frame()
	h := newHarness(t, bg)

	h.loop.Start(sourceWith(frame()))
	h.scheduler.Frame()
	in, _ := h.segmenter.LastSent()
	h.segmenter.Deliver(result(in), nil)

	require.Len(t, h.inputs, 1)
	assert.Same(t, bg, h.inputs[0].Background)
}

func TestLoop_SkipsWhileBusy(t *testing.T) {
	h := newHarness(t, nil)
	h.loop.Start(sourceWith(frame()))

	h.scheduler.Frame()
	h.scheduler.Frame()
	h.scheduler.Frame()

	assert.Equal(t, 1, h.segmenter.SentCount(), "at most one outstanding submission")
	assert.Equal(t, uint64(2), h.loop.Stats().SkippedBusy)

	in, _ := h.segmenter.LastSent()
	h.segmenter.Deliver(result(in), nil)
	h.scheduler.Frame()
	assert.Equal(t, 2, h.segmenter.SentCount())
}

func TestLoop_SubmitTimeoutReleasesBusy(t *testing.T) {
	h := newHarness(t, nil)
	h.loop.Start(sourceWith(frame()))

	h.scheduler.Frame()
	h.now = h.now.Add(2 * time.Second)
	h.scheduler.Frame()

	assert.Equal(t, 2, h.segmenter.SentCount())
}

func TestLoop_LateResultAfterTimeoutIsStale(t *testing.T) {
	h := newHarness(t, nil)
	h.loop.Start(sourceWith(frame()))

	h.scheduler.Frame()
	first, _ := h.segmenter.LastSent()
	h.now = h.now.Add(2 * time.Second)
	h.scheduler.Frame()
	second, _ := h.segmenter.LastSent()
	require.Equal(t, 2, h.segmenter.SentCount())
	assert.Equal(t, first.Tag, second.Tag)
	assert.NotEqual(t, first.Seq, second.Seq)

	// The timed-out submission answers late: dropped, second still pending.
	h.segmenter.Deliver(result(first), nil)
	assert.Equal(t, uint64(0), h.loop.Stats().Drawn)
	assert.Equal(t, uint64(1), h.loop.Stats().Stale)
	h.scheduler.Frame()
	assert.Equal(t, 2, h.segmenter.SentCount(), "at most one outstanding submission")

	h.segmenter.Deliver(result(second), nil)
	assert.Equal(t, uint64(1), h.loop.Stats().Drawn)
	h.scheduler.Frame()
	assert.Equal(t, 3, h.segmenter.SentCount())
}

func TestLoop_NoFrameNoSubmit(t *testing.T) {
	h := newHarness(t, nil)
	h.loop.Start(&mocks.FrameSource{})

	h.scheduler.Frame()

	assert.Equal(t, 0, h.segmenter.SentCount())
	assert.Equal(t, 1, h.scheduler.Pending())
}

func TestLoop_StopPreventsDraws(t *testing.T) {
	h := newHarness(t, nil)
	h.loop.Start(sourceWith(frame()))
	h.scheduler.Frame()
	in, _ := h.segmenter.LastSent()

	h.loop.Stop()
	assert.Equal(t, Idle, h.loop.State())
	assert.Equal(t, 0, h.scheduler.Pending())

	// The in-flight result arrives after stop.
	h.segmenter.Deliver(result(in), nil)

	assert.Equal(t, 0, h.scheduler.Frame())
	_, version := h.surface.Latest()
	assert.Zero(t, version, "no draw after stop")
	assert.Equal(t, uint64(1), h.loop.Stats().Stale)
}

func TestLoop_StopIsIdempotent(t *testing.T) {
	h := newHarness(t, nil)

	h.loop.Stop()
	h.loop.Start(sourceWith(frame()))
	h.loop.Stop()
	h.loop.Stop()

	assert.Equal(t, Idle, h.loop.State())
	assert.Equal(t, 1, h.scheduler.Cancelled)
}

func TestLoop_SwitchDropsPreviousGeneration(t *testing.T) {
	h := newHarness(t, nil)
	imgA, imgB := frame(), frame()

	h.loop.Start(sourceWith(imgA))
	h.scheduler.Frame()
	inA, _ := h.segmenter.LastSent()

	// Switch to B without stopping first.
	h.loop.Start(sourceWith(imgB))
	assert.Equal(t, uint64(2), h.loop.Generation())
	assert.Equal(t, 1, h.scheduler.Pending(), "only one loop is scheduled")

	// A's result arrives late and must not be drawn.
	h.segmenter.Deliver(result(inA), nil)
	_, version := h.surface.Latest()
	assert.Zero(t, version)

	require.Equal(t, 1, h.scheduler.Frame())
	inB, _ := h.segmenter.LastSent()
	assert.Equal(t, uint64(2), inB.Tag)
	assert.Same(t, imgB, inB.Image)

	h.segmenter.Deliver(result(inB), nil)
	drawn, _ := h.surface.Latest()
	assert.Same(t, imgB, drawn)

	stats := h.loop.Stats()
	assert.Equal(t, uint64(1), stats.Stale)
	assert.Equal(t, uint64(1), stats.Drawn)
}

func TestLoop_ResultErrorSkipsDraw(t *testing.T) {
	h := newHarness(t, nil)
	h.loop.Start(sourceWith(frame()))
	h.scheduler.Frame()
	in, _ := h.segmenter.LastSent()

	h.segmenter.Deliver(ports.SegmentationResult{Tag: in.Tag, Seq: in.Seq}, errors.New("inference failed"))

	_, version := h.surface.Latest()
	assert.Zero(t, version)
	assert.Equal(t, uint64(1), h.loop.Stats().Errors)

	// The next tick submits again.
	h.scheduler.Frame()
	assert.Equal(t, 2, h.segmenter.SentCount())
}

func TestLoop_SendErrorIsRateLimited(t *testing.T) {
	h := newHarness(t, nil)
	h.segmenter.SendFunc = func(ctx context.Context, in ports.SegmentationInput) error {
		return ports.ErrSegmenterClosed
	}
	h.loop.Start(sourceWith(frame()))

	for i := 0; i < 5; i++ {
		h.scheduler.Frame()
	}
	assert.Equal(t, uint64(5), h.loop.Stats().Errors)
	assert.Len(t, h.logger.Entries(ports.LevelWarn), 1)

	h.now = h.now.Add(16 * time.Second)
	h.scheduler.Frame()

	// One summary of the suppressed warnings plus the new warning.
	assert.Len(t, h.logger.Entries(ports.LevelWarn), 3)
}

func TestLoop_BusySegmenterIsNotAnError(t *testing.T) {
	h := newHarness(t, nil)
	h.segmenter.SendFunc = func(ctx context.Context, in ports.SegmentationInput) error {
		return ports.ErrSegmenterBusy
	}
	h.loop.Start(sourceWith(frame()))

	h.scheduler.Frame()
	h.scheduler.Frame()

	stats := h.loop.Stats()
	assert.Equal(t, uint64(2), stats.SkippedBusy)
	assert.Zero(t, stats.Errors)
	assert.Zero(t, stats.Submitted)
	assert.Empty(t, h.logger.Entries(ports.LevelWarn))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
}
