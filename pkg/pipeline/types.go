// Package pipeline holds the types and constants shared by the session,
// the compositor and its drawing stage.
package pipeline

import (
	"context"
	"image"

	"github.com/user/bgswap/pkg/ports"
)

// =============================================================================
// Common Types
// =============================================================================

// Dimension represents width and height.
type Dimension struct {
	Width  int
	Height int
}

// Point returns the dimension as an image.Point.
func (d Dimension) Point() image.Point {
	return image.Pt(d.Width, d.Height)
}

const (
	// DefaultWidth and DefaultHeight pin every element of a session:
	// source video, output canvas and output video.
	DefaultWidth  = 128 * 5
	DefaultHeight = 72 * 5

	// DefaultFPS is the capture rate of the synthetic output stream.
	DefaultFPS = 30.0

	// DefaultRefreshRate is the display refresh driving animation frames.
	DefaultRefreshRate = 60.0

	// DefaultModelSelection picks the landscape segmentation model.
	DefaultModelSelection = 1

	// NoneDeviceID is the sentinel selection that stops the session.
	NoneDeviceID = "none"

	// NoneDeviceLabel is shown for the sentinel entry.
	NoneDeviceLabel = "Select a video input device"
)

// DefaultSize returns the default session resolution.
func DefaultSize() Dimension {
	return Dimension{Width: DefaultWidth, Height: DefaultHeight}
}

// =============================================================================
// Composite Stage Types
// =============================================================================

// CompositeInput contains everything needed to draw one output frame.
type CompositeInput struct {
	Result     ports.SegmentationResult
	Background image.Image // nil when no background is ready
}

// CompositeResult contains the composed frame.
type CompositeResult struct {
	Image image.Image // Copy of the output surface after drawing
}

// Stage draws or transforms one frame. The compositor runs a Stage on the
// host context for every accepted segmentation result.
type Stage[In, Out any] interface {
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc adapts a function to Stage.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

// Execute calls f.
func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}
