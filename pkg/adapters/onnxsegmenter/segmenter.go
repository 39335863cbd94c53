// Package onnxsegmenter runs a selfie segmentation model through the
// OpenCV dnn module.
//
// The model files in the asset directory are MediaPipe selfie segmentation
// models converted to ONNX: one RGB input scaled to 0..1 at the model size
// and one output of per-pixel subject scores in 0..1, shaped
// [1, H, W, 1] or [1, 1, H, W]. tf2onnx conversions keep the NHWC input
// [1, H, W, 3], which is the default layout; models exported as NCHW
// [1, 3, H, W] need SegmenterOptions.InputLayout "nchw".
package onnxsegmenter

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"sync"

	"github.com/nfnt/resize"
	"gocv.io/x/gocv"

	"github.com/user/bgswap/pkg/adapters/segworker"
	"github.com/user/bgswap/pkg/ports"
)

// ErrNoModel is returned by Send before SetOptions loaded a model.
var ErrNoModel = errors.New("no segmentation model loaded")

// Input tensor layouts.
const (
	LayoutNHWC = "nhwc"
	LayoutNCHW = "nchw"
)

// Model describes one model variant.
type Model struct {
	File string
	Size image.Point // Input width and height
}

// Models indexed by SegmenterOptions.ModelSelection.
var Models = []Model{
	{File: "selfie_segmentation.onnx", Size: image.Pt(256, 256)},
	{File: "selfie_segmentation_landscape.onnx", Size: image.Pt(256, 144)},
}

// ModelFor returns the model of a selection.
func ModelFor(selection int) (Model, error) {
	if selection < 0 || selection >= len(Models) {
		return Model{}, fmt.Errorf("model selection %d out of range", selection)
	}
	return Models[selection], nil
}

// Segmenter implements ports.Segmenter. Model scores at or above the
// threshold become opaque mask pixels.
type Segmenter struct {
	*segworker.Worker

	logger    ports.Logger
	threshold float32

	mu     sync.Mutex
	net    gocv.Net
	model  Model
	layout string
	ready  bool
}

// New creates a Segmenter without a model. Call SetOptions to load one.
func New(threshold float64, logger ports.Logger) *Segmenter {
	s := &Segmenter{
		logger:    logger.WithComponent("onnxsegmenter"),
		threshold: float32(threshold),
	}
	s.Worker = segworker.New(s.segment, s.logger)
	return s
}

// SetOptions loads the selected model from opts.AssetDir, replacing the
// previous one.
func (s *Segmenter) SetOptions(opts ports.SegmenterOptions) error {
	model, err := ModelFor(opts.ModelSelection)
	if err != nil {
		return err
	}

	layout := opts.InputLayout
	if layout == "" {
		layout = LayoutNHWC
	}
	if layout != LayoutNHWC && layout != LayoutNCHW {
		return fmt.Errorf("unknown input layout %q", layout)
	}

	path := filepath.Join(opts.AssetDir, model.File)
	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		return fmt.Errorf("load model %s: %w", path, ErrNoModel)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		s.net.Close()
	}
	s.net = net
	s.model = model
	s.layout = layout
	s.ready = true
	s.logger.Debug("Loaded model %s (%dx%d, %s)", path, model.Size.X, model.Size.Y, layout)
	return nil
}

// Close stops the worker and releases the model.
func (s *Segmenter) Close() error {
	err := s.Worker.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		s.net.Close()
		s.ready = false
	}
	return err
}

func (s *Segmenter) segment(ctx context.Context, img image.Image) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil, ErrNoModel
	}

	blob, err := s.input(img)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	s.net.SetInput(blob, "")
	out := s.net.Forward("")
	defer out.Close()

	scores, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read model output: %w", err)
	}

	mask, err := ScoresToMask(scores, s.model.Size, s.threshold)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	return Upscale(mask, b.Dx(), b.Dy()), nil
}

// input builds the model input tensor for img.
func (s *Segmenter) input(img image.Image) (gocv.Mat, error) {
	if s.layout == LayoutNHWC {
		w, h := s.model.Size.X, s.model.Size.Y
		data := NHWCTensor(img, s.model.Size)
		buf := make([]byte, 4*len(data))
		for i, v := range data {
			binary.NativeEndian.PutUint32(buf[4*i:], math.Float32bits(v))
		}
		m, err := gocv.NewMatWithSizesFromBytes([]int{1, h, w, 3}, gocv.MatTypeCV32F, buf)
		if err != nil {
			return gocv.Mat{}, fmt.Errorf("build input tensor: %w", err)
		}
		return m, nil
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("convert frame: %w", err)
	}
	defer src.Close()

	// ImageToMatRGB yields BGR order; swapRB feeds the model RGB in 0..1.
	return gocv.BlobFromImage(src, 1.0/255.0, s.model.Size, gocv.NewScalar(0, 0, 0, 0), true, false), nil
}

// NHWCTensor resizes img to size and returns its RGB values in 0..1,
// row-major with interleaved channels.
func NHWCTensor(img image.Image, size image.Point) []float32 {
	b := img.Bounds()
	if b.Dx() != size.X || b.Dy() != size.Y {
		img = resize.Resize(uint(size.X), uint(size.Y), img, resize.Bilinear)
		b = img.Bounds()
	}
	out := make([]float32, 0, size.X*size.Y*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out = append(out, float32(r)/0xffff, float32(g)/0xffff, float32(bl)/0xffff)
		}
	}
	return out
}

// ScoresToMask thresholds per-pixel subject scores into an alpha mask of
// the model size.
func ScoresToMask(scores []float32, size image.Point, threshold float32) (*image.Alpha, error) {
	if len(scores) < size.X*size.Y {
		return nil, fmt.Errorf("model output has %d scores, want %d", len(scores), size.X*size.Y)
	}
	mask := image.NewAlpha(image.Rect(0, 0, size.X, size.Y))
	for i := 0; i < size.X*size.Y; i++ {
		if scores[i] >= threshold {
			mask.Pix[i] = 0xff
		}
	}
	return mask, nil
}

// Upscale resamples a model-resolution mask to the frame size.
func Upscale(mask image.Image, width, height int) image.Image {
	b := mask.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return mask
	}
	return resize.Resize(uint(width), uint(height), mask, resize.Bilinear)
}

var _ ports.Segmenter = (*Segmenter)(nil)
