package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving per-frame compositing inputs and outputs.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveSourceFrame saves the frame that was submitted for segmentation.
	SaveSourceFrame(index uint64, img image.Image) error

	// SaveMask saves a segmentation mask.
	SaveMask(index uint64, img image.Image) error

	// SaveComposedFrame saves a composed output frame.
	SaveComposedFrame(index uint64, img image.Image) error
}
