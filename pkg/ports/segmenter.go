package ports

import (
	"context"
	"image"
)

// SegmenterOptions configures a segmentation model.
type SegmenterOptions struct {
	// ModelSelection picks the model variant: 0 general (square input),
	// 1 landscape (faster, wide input).
	ModelSelection int

	// AssetDir is where the model files are located.
	AssetDir string

	// InputLayout is the tensor layout the model expects: "nhwc" for
	// exports that keep the TensorFlow layout, "nchw" otherwise. Empty
	// means "nhwc".
	InputLayout string
}

// SegmentationInput is one frame submitted for segmentation.
type SegmentationInput struct {
	Image image.Image
	Tag   uint64 // Echoed back in SegmentationResult
	Seq   uint64 // Echoed back in SegmentationResult
}

// SegmentationResult is produced once per submitted frame.
type SegmentationResult struct {
	// SegmentationMask carries the subject in its alpha channel:
	// opaque where the subject is, transparent elsewhere.
	SegmentationMask image.Image

	// Image is the frame the mask was computed for.
	Image image.Image

	Tag uint64
	Seq uint64
}

// ResultsHandler receives segmentation results. err is non-nil when the
// submission with result.Tag failed; the mask and image are then nil.
type ResultsHandler func(result SegmentationResult, err error)

// Segmenter abstracts the person segmentation model.
//
// The model is configured once; a single handler receives every result.
// Send returns immediately and each accepted submission produces exactly
// one handler call, possibly on another goroutine.
type Segmenter interface {
	// SetOptions (re)configures the model.
	SetOptions(opts SegmenterOptions) error

	// OnResults replaces the registered handler.
	OnResults(handler ResultsHandler)

	// Send submits a frame. An error means the frame was not accepted and
	// no handler call will follow for it.
	Send(ctx context.Context, input SegmentationInput) error

	// Close releases the model.
	Close() error
}
