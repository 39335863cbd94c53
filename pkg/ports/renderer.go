package ports

import (
	"image"
)

// Renderer abstracts image decoding, encoding and drawing surfaces.
type Renderer interface {
	// CreateCanvas creates a transparent drawing surface.
	CreateCanvas(width, height int) Canvas

	// DecodeImage decodes image data into an image.Image.
	DecodeImage(data []byte, format ImageFormat) (image.Image, error)

	// EncodeImage encodes an image to the specified format.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// ResizeImage resizes an image to the specified dimensions.
	ResizeImage(img image.Image, width, height int) image.Image
}

// CompositeOperation selects how new pixels combine with the surface.
type CompositeOperation int

const (
	// SourceOver draws new pixels on top of existing content.
	SourceOver CompositeOperation = iota
	// SourceIn keeps new pixels only where the surface already has
	// content, weighted by its alpha, and clears everything else.
	SourceIn
)

// String returns the canvas name of the operation.
func (op CompositeOperation) String() string {
	switch op {
	case SourceOver:
		return "source-over"
	case SourceIn:
		return "source-in"
	default:
		return "unknown"
	}
}

// Canvas is a 2D drawing surface.
type Canvas interface {
	// Width and Height are fixed at creation.
	Width() int
	Height() int

	// SetCompositeOperation sets the mode used by subsequent draws.
	SetCompositeOperation(op CompositeOperation)

	// ClearRect makes the rectangle fully transparent.
	ClearRect(x, y, w, h int)

	// DrawImage draws an image at the specified position.
	DrawImage(img image.Image, x, y int)

	// DrawImageScaled draws an image stretched to the specified dimensions.
	DrawImageScaled(img image.Image, x, y, width, height int)

	// ToImage returns the live backing image. It changes with later draws.
	ToImage() image.Image

	// Snapshot returns a copy of the current content.
	Snapshot() *image.RGBA
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatAuto ImageFormat = iota
	FormatJPEG
	FormatPNG
)
