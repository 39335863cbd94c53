package ggrenderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/user/bgswap/pkg/ports"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestRenderer_CreateCanvas(t *testing.T) {
	r := New()

	canvas := r.CreateCanvas(100, 80)
	if canvas == nil {
		t.Fatal("expected canvas to be created")
	}

	if canvas.Width() != 100 || canvas.Height() != 80 {
		t.Errorf("expected 100x80, got %dx%d", canvas.Width(), canvas.Height())
	}

	_, _, _, a := canvas.ToImage().At(50, 40).RGBA()
	if a != 0 {
		t.Errorf("expected transparent canvas, got alpha %d", a)
	}
}

func TestRenderer_EncodeDecodeJPEG(t *testing.T) {
	r := New()

	img := solid(50, 50, color.RGBA{R: 255, A: 255})

	data, err := r.EncodeImage(img, ports.FormatJPEG, 80)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty data")
	}

	decoded, err := r.DecodeImage(data, ports.FormatJPEG)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 50 {
		t.Errorf("expected 50x50, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderer_EncodeDecodeAuto(t *testing.T) {
	r := New()

	img := image.NewRGBA(image.Rect(0, 0, 30, 30))

	data, err := r.EncodeImage(img, ports.FormatAuto, 0)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}

	decoded, err := r.DecodeImage(data, ports.FormatAuto)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() != 30 || bounds.Dy() != 30 {
		t.Errorf("expected 30x30, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderer_DecodeInvalid(t *testing.T) {
	r := New()

	if _, err := r.DecodeImage([]byte("not an image"), ports.FormatAuto); err == nil {
		t.Error("expected error for invalid data")
	}
}

func TestRenderer_ResizeImage(t *testing.T) {
	r := New()

	img := image.NewRGBA(image.Rect(0, 0, 100, 100))

	resized := r.ResizeImage(img, 50, 50)

	bounds := resized.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 50 {
		t.Errorf("expected 50x50, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestCanvas_DrawImage(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100)

	canvas.DrawImage(solid(20, 20, color.RGBA{R: 255, A: 255}), 10, 10)

	img := canvas.ToImage()

	if got := color.RGBAModel.Convert(img.At(15, 15)); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("expected red pixel from drawn image, got %v", got)
	}
	if _, _, _, a := img.At(50, 50).RGBA(); a != 0 {
		t.Error("expected pixel outside image to stay transparent")
	}
}

func TestCanvas_DrawImageScaled(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100)

	canvas.DrawImageScaled(solid(10, 10, color.RGBA{B: 255, A: 255}), 0, 0, 100, 100)

	if got := color.RGBAModel.Convert(canvas.ToImage().At(50, 50)); got != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("expected blue center pixel, got %v", got)
	}
}

func TestCanvas_ClearRect(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(40, 40)
	canvas.DrawImage(solid(40, 40, color.RGBA{G: 255, A: 255}), 0, 0)

	canvas.ClearRect(0, 0, 20, 40)

	img := canvas.ToImage()
	if _, _, _, a := img.At(5, 5).RGBA(); a != 0 {
		t.Error("expected cleared pixel to be transparent")
	}
	if _, _, _, a := img.At(30, 5).RGBA(); a == 0 {
		t.Error("expected pixel outside cleared rect to be kept")
	}
}

func TestCanvas_SourceIn(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(4, 1)

	// Left half opaque, right half transparent.
	mask := image.NewRGBA(image.Rect(0, 0, 4, 1))
	mask.SetRGBA(0, 0, color.RGBA{A: 255})
	mask.SetRGBA(1, 0, color.RGBA{A: 255})

	canvas.DrawImage(mask, 0, 0)
	canvas.SetCompositeOperation(ports.SourceIn)
	canvas.DrawImage(solid(4, 1, color.RGBA{R: 200, G: 100, B: 50, A: 255}), 0, 0)

	img := canvas.Snapshot()
	if got := img.RGBAAt(0, 0); got != (color.RGBA{R: 200, G: 100, B: 50, A: 255}) {
		t.Errorf("expected source pixel inside mask, got %v", got)
	}
	if got := img.RGBAAt(3, 0); got.A != 0 {
		t.Errorf("expected transparent pixel outside mask, got %v", got)
	}
}

func TestCanvas_SourceInClearsOutsideDrawnRect(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(10, 10)
	canvas.DrawImage(solid(10, 10, color.RGBA{A: 255}), 0, 0)

	canvas.SetCompositeOperation(ports.SourceIn)
	canvas.DrawImage(solid(5, 5, color.RGBA{R: 255, A: 255}), 0, 0)

	img := canvas.Snapshot()
	if got := img.RGBAAt(2, 2); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("expected drawn pixel, got %v", got)
	}
	if got := img.RGBAAt(8, 8); got.A != 0 {
		t.Errorf("expected cleared pixel outside drawn rect, got %v", got)
	}
}

func TestCanvas_SnapshotIsCopy(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(4, 4)

	snap := canvas.Snapshot()
	canvas.DrawImage(solid(4, 4, color.RGBA{R: 255, A: 255}), 0, 0)

	if snap.RGBAAt(1, 1).A != 0 {
		t.Error("expected snapshot to be unaffected by later draws")
	}
}
