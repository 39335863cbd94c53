// Package ggrenderer provides a renderer implementation using the gg library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/bgswap/pkg/ports"
)

// Renderer implements ports.Renderer using the gg library.
type Renderer struct{}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{}
}

// CreateCanvas creates a new transparent drawing canvas.
func (r *Renderer) CreateCanvas(width, height int) ports.Canvas {
	return &Canvas{dc: gg.NewContext(width, height), op: ports.SourceOver}
}

// DecodeImage decodes image data into an image.Image.
func (r *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	reader := bytes.NewReader(data)

	switch format {
	case ports.FormatJPEG:
		return jpeg.Decode(reader)
	case ports.FormatPNG:
		return png.Decode(reader)
	default:
		// Try to auto-detect
		img, _, err := image.Decode(reader)
		return img, err
	}
}

// EncodeImage encodes an image to the specified format.
// FormatAuto encodes PNG so that alpha survives.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		opts := &jpeg.Options{Quality: quality}
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG, ports.FormatAuto:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// ResizeImage resizes an image to the specified dimensions.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// Ensure Renderer implements ports.Renderer
var _ ports.Renderer = (*Renderer)(nil)

// Canvas implements ports.Canvas using gg.Context.
type Canvas struct {
	dc *gg.Context
	op ports.CompositeOperation
}

// Width returns the canvas width.
func (c *Canvas) Width() int { return c.dc.Width() }

// Height returns the canvas height.
func (c *Canvas) Height() int { return c.dc.Height() }

// SetCompositeOperation sets the mode used by subsequent draws.
func (c *Canvas) SetCompositeOperation(op ports.CompositeOperation) {
	c.op = op
}

// ClearRect makes the rectangle fully transparent.
func (c *Canvas) ClearRect(x, y, w, h int) {
	dst := c.rgba()
	r := image.Rect(x, y, x+w, y+h).Intersect(dst.Bounds())
	draw.Draw(dst, r, image.Transparent, image.Point{}, draw.Src)
}

// DrawImage draws an image at the specified position.
func (c *Canvas) DrawImage(img image.Image, x, y int) {
	b := img.Bounds()
	c.DrawImageScaled(img, x, y, b.Dx(), b.Dy())
}

// DrawImageScaled draws an image scaled to the specified dimensions.
func (c *Canvas) DrawImageScaled(img image.Image, x, y, width, height int) {
	bounds := img.Bounds()
	if width <= 0 || height <= 0 || bounds.Empty() {
		return
	}

	if c.op == ports.SourceIn {
		c.drawSourceIn(img, x, y, width, height)
		return
	}

	if bounds.Dx() == width && bounds.Dy() == height {
		dst := c.rgba()
		r := image.Rect(x, y, x+width, y+height)
		draw.Draw(dst, r, img, bounds.Min, draw.Over)
		return
	}

	c.dc.Push()
	defer c.dc.Pop()

	scaleX := float64(width) / float64(bounds.Dx())
	scaleY := float64(height) / float64(bounds.Dy())

	c.dc.Translate(float64(x), float64(y))
	c.dc.Scale(scaleX, scaleY)
	c.dc.DrawImage(img, 0, 0)
}

// drawSourceIn keeps the new pixels weighted by the existing alpha and
// clears everything else, including the area outside the drawn rectangle.
func (c *Canvas) drawSourceIn(img image.Image, x, y, width, height int) {
	dst := c.rgba()
	full := dst.Bounds()

	// Existing coverage becomes the mask.
	mask := image.NewAlpha(full)
	draw.Draw(mask, full, dst, full.Min, draw.Src)

	// New pixels laid out on a transparent layer of the canvas size.
	layer := image.NewRGBA(full)
	target := image.Rect(x, y, x+width, y+height)
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		draw.Draw(layer, target, img, b.Min, draw.Src)
	} else {
		draw.BiLinear.Scale(layer, target, img, b, draw.Src, nil)
	}

	draw.Draw(dst, full, image.Transparent, image.Point{}, draw.Src)
	draw.DrawMask(dst, full, layer, full.Min, mask, full.Min, draw.Over)
}

// ToImage returns the live backing image.
func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

// Snapshot returns a copy of the current content.
func (c *Canvas) Snapshot() *image.RGBA {
	src := c.rgba()
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	return out
}

func (c *Canvas) rgba() *image.RGBA {
	if im, ok := c.dc.Image().(*image.RGBA); ok {
		return im
	}
	// gg always backs its context with *image.RGBA
	panic("ggrenderer: unexpected backing image type")
}

// Ensure Canvas implements ports.Canvas
var _ ports.Canvas = (*Canvas)(nil)
