package mocks

import (
	"image"
	"image/draw"
	"sync"

	"github.com/user/bgswap/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	CreateCanvasFunc func(width, height int) ports.Canvas
	DecodeImageFunc  func(data []byte, format ports.ImageFormat) (image.Image, error)
	EncodeImageFunc  func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
	ResizeImageFunc  func(img image.Image, width, height int) image.Image

	mu       sync.Mutex
	Canvases []*Canvas
}

func (m *Renderer) CreateCanvas(width, height int) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(width, height)
	}
	c := &Canvas{width: width, height: height}
	m.mu.Lock()
	m.Canvases = append(m.Canvases, c)
	m.mu.Unlock()
	return c
}

func (m *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	if m.DecodeImageFunc != nil {
		return m.DecodeImageFunc(data, format)
	}
	return image.NewRGBA(image.Rect(0, 0, 100, 100)), nil
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte{}, nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

var _ ports.Renderer = (*Renderer)(nil)

// CanvasOp records one call made on a Canvas.
type CanvasOp struct {
	Name  string // "clear", "op", "draw", "drawScaled"
	Op    ports.CompositeOperation
	Image image.Image
	Rect  image.Rectangle
}

// Canvas is a mock implementation of ports.Canvas that records calls.
type Canvas struct {
	width  int
	height int
	op     ports.CompositeOperation

	mu  sync.Mutex
	Ops []CanvasOp
}

func (m *Canvas) record(op CanvasOp) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ops = append(m.Ops, op)
}

func (m *Canvas) Width() int  { return m.width }
func (m *Canvas) Height() int { return m.height }

func (m *Canvas) SetCompositeOperation(op ports.CompositeOperation) {
	m.op = op
	m.record(CanvasOp{Name: "op", Op: op})
}

func (m *Canvas) ClearRect(x, y, w, h int) {
	m.record(CanvasOp{Name: "clear", Op: m.op, Rect: image.Rect(x, y, x+w, y+h)})
}

func (m *Canvas) DrawImage(img image.Image, x, y int) {
	b := img.Bounds()
	m.record(CanvasOp{Name: "draw", Op: m.op, Image: img, Rect: image.Rect(x, y, x+b.Dx(), y+b.Dy())})
}

func (m *Canvas) DrawImageScaled(img image.Image, x, y, width, height int) {
	m.record(CanvasOp{Name: "drawScaled", Op: m.op, Image: img, Rect: image.Rect(x, y, x+width, y+height)})
}

func (m *Canvas) ToImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, m.width, m.height))
}

func (m *Canvas) Snapshot() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, m.width, m.height))
	draw.Draw(dst, dst.Bounds(), m.ToImage(), image.Point{}, draw.Src)
	return dst
}

// Calls returns the recorded operations.
func (m *Canvas) Calls() []CanvasOp {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CanvasOp(nil), m.Ops...)
}

var _ ports.Canvas = (*Canvas)(nil)
