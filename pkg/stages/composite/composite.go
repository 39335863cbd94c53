// Package composite implements the frame composition stage.
package composite

import (
	"context"
	"errors"
	"image"

	"github.com/user/bgswap/pkg/pipeline"
	"github.com/user/bgswap/pkg/ports"
)

// ErrNoMask is returned when a result carries no mask or no frame image.
var ErrNoMask = errors.New("composite: result has no mask or image")

// Stage draws one segmentation result over the optional background.
//
// It owns the visible output canvas and the offscreen cut-out canvas, both
// pinned to the session size. Execute must be called from a single
// goroutine (the host loop).
type Stage struct {
	size      pipeline.Dimension
	visible   ports.Canvas
	offscreen ports.Canvas
	sink      ports.DebugSink
	logger    ports.Logger
	frames    uint64
}

// NewStage creates a new composite stage.
func NewStage(renderer ports.Renderer, size pipeline.Dimension, sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		size:      size,
		visible:   renderer.CreateCanvas(size.Width, size.Height),
		offscreen: renderer.CreateCanvas(size.Width, size.Height),
		sink:      sink,
		logger:    logger.WithComponent("composite"),
	}
}

// Execute composes a frame:
//  1. clear the visible canvas
//  2. draw the background stretched to fill, if any
//  3. draw the mask offscreen, then the frame with source-in to cut out the subject
//  4. draw the cut-out over the background
func (s *Stage) Execute(ctx context.Context, input pipeline.CompositeInput) (pipeline.CompositeResult, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.CompositeResult{}, err
	}
	mask, frame := input.Result.SegmentationMask, input.Result.Image
	if mask == nil || frame == nil {
		return pipeline.CompositeResult{}, ErrNoMask
	}

	w, h := s.size.Width, s.size.Height

	s.visible.SetCompositeOperation(ports.SourceOver)
	s.visible.ClearRect(0, 0, w, h)
	if input.Background != nil {
		s.visible.DrawImageScaled(input.Background, 0, 0, w, h)
	}

	s.offscreen.SetCompositeOperation(ports.SourceOver)
	s.offscreen.ClearRect(0, 0, w, h)
	s.offscreen.DrawImageScaled(mask, 0, 0, w, h)
	s.offscreen.SetCompositeOperation(ports.SourceIn)
	s.offscreen.DrawImageScaled(frame, 0, 0, w, h)
	s.offscreen.SetCompositeOperation(ports.SourceOver)

	s.visible.DrawImage(s.offscreen.ToImage(), 0, 0)

	out := s.visible.Snapshot()
	s.frames++
	s.saveDebug(s.frames, input.Result, out)

	return pipeline.CompositeResult{Image: out}, nil
}

// Clear blanks the visible canvas.
func (s *Stage) Clear() {
	s.visible.SetCompositeOperation(ports.SourceOver)
	s.visible.ClearRect(0, 0, s.size.Width, s.size.Height)
}

// Size returns the canvas size.
func (s *Stage) Size() pipeline.Dimension {
	return s.size
}

func (s *Stage) saveDebug(index uint64, result ports.SegmentationResult, out image.Image) {
	if s.sink == nil || !s.sink.Enabled() {
		return
	}
	if err := s.sink.SaveSourceFrame(index, result.Image); err != nil {
		s.logger.Debug("Failed to save debug source frame %d: %s", index, err)
	}
	if err := s.sink.SaveMask(index, result.SegmentationMask); err != nil {
		s.logger.Debug("Failed to save debug mask %d: %s", index, err)
	}
	if err := s.sink.SaveComposedFrame(index, out); err != nil {
		s.logger.Debug("Failed to save debug frame %d: %s", index, err)
	}
}

var _ pipeline.Stage[pipeline.CompositeInput, pipeline.CompositeResult] = (*Stage)(nil)
