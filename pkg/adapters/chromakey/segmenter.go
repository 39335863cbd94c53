// Package chromakey segments frames against a solid key color. It needs no
// model files and serves setups with a green screen and tests.
package chromakey

import (
	"context"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/user/bgswap/pkg/adapters/segworker"
	"github.com/user/bgswap/pkg/ports"
)

// Segmenter implements ports.Segmenter with a color distance key.
type Segmenter struct {
	*segworker.Worker

	mu        sync.RWMutex
	key       color.RGBA
	tolerance float64
	opts      ports.SegmenterOptions
}

// New creates a Segmenter keyed on key. Pixels whose normalized RGB
// distance to key is within tolerance (0..1) are background.
func New(key color.RGBA, tolerance float64, logger ports.Logger) *Segmenter {
	s := &Segmenter{key: key, tolerance: tolerance}
	s.Worker = segworker.New(s.segment, logger.WithComponent("chromakey"))
	return s
}

// SetOptions records the options. Model selection does not apply to a
// color key.
func (s *Segmenter) SetOptions(opts ports.SegmenterOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts = opts
	return nil
}

// Options returns the last options set.
func (s *Segmenter) Options() ports.SegmenterOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

func (s *Segmenter) segment(ctx context.Context, img image.Image) (image.Image, error) {
	s.mu.RLock()
	key, tol := s.key, s.tolerance
	s.mu.RUnlock()
	return Mask(ctx, img, key, tol)
}

// maxDistance is the RGB distance between black and white.
var maxDistance = math.Sqrt(3 * 255 * 255)

// Mask returns an alpha mask of img: transparent where the pixel matches
// key within tolerance, opaque elsewhere.
func Mask(ctx context.Context, img image.Image, key color.RGBA, tolerance float64) (*image.Alpha, error) {
	b := img.Bounds()
	mask := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	limit := tolerance * maxDistance

	for y := b.Min.Y; y < b.Max.Y; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			dr := float64(c.R) - float64(key.R)
			dg := float64(c.G) - float64(key.G)
			db := float64(c.B) - float64(key.B)
			if math.Sqrt(dr*dr+dg*dg+db*db) > limit {
				mask.Pix[(y-b.Min.Y)*mask.Stride+(x-b.Min.X)] = 0xff
			}
		}
	}
	return mask, nil
}

var _ ports.Segmenter = (*Segmenter)(nil)
