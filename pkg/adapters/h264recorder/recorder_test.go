package h264recorder

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/user/bgswap/pkg/adapters/logger"
	"github.com/user/bgswap/pkg/mocks"
	"github.com/user/bgswap/pkg/ports"
)

// createTestImage creates a gradient that changes with the frame number.
func createTestImage(width, height int, frameNum int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x*255/width + frameNum*10) % 256)
			g := uint8((y*255/height + frameNum*5) % 256)
			b := uint8((x + y + frameNum*3) % 256)
			img.Set(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}

func nal(header byte, payload ...byte) []byte {
	return append([]byte{0, 0, 0, 1, header}, payload...)
}

func TestParseAnnexB(t *testing.T) {
	stream := append(nal(0x67, 1, 2), append([]byte{0, 0, 1, 0x68, 3}, nal(0x65, 0x88)...)...)

	nalus := parseAnnexB(stream)
	if len(nalus) != 3 {
		t.Fatalf("expected 3 NAL units, got %d", len(nalus))
	}
	if !bytes.Equal(nalus[0], []byte{0x67, 1, 2}) {
		t.Errorf("unexpected SPS: %v", nalus[0])
	}
	if !bytes.Equal(nalus[1], []byte{0x68, 3}) {
		t.Errorf("unexpected PPS: %v", nalus[1])
	}
	if !bytes.Equal(nalus[2], []byte{0x65, 0x88}) {
		t.Errorf("unexpected slice: %v", nalus[2])
	}
}

func TestConvertToAVCC(t *testing.T) {
	au := append(append(nal(0x09, 0xf0), nal(0x67, 1)...), nal(0x65, 0x88, 0x84)...)

	got := convertToAVCC(au)
	want := []byte{0, 0, 0, 3, 0x65, 0x88, 0x84}
	if !bytes.Equal(got, want) {
		t.Errorf("convertToAVCC = %v, want %v", got, want)
	}
}

func TestSplitAccessUnits(t *testing.T) {
	var stream []byte
	stream = append(stream, nal(0x67, 1)...)       // SPS
	stream = append(stream, nal(0x68, 2)...)       // PPS
	stream = append(stream, nal(0x65, 0x88)...)    // IDR, first_mb 0
	stream = append(stream, nal(0x65, 0x40)...)    // IDR, second slice of the same picture
	stream = append(stream, nal(0x41, 0x9a)...)    // P, first_mb 0
	stream = append(stream, nal(0x06, 5)...)       // SEI opens the next picture
	stream = append(stream, nal(0x41, 0x9a, 1)...) // P

	units := splitAccessUnits(stream, 25)
	if len(units) != 3 {
		t.Fatalf("expected 3 access units, got %d", len(units))
	}

	if !units[0].isKeyframe || units[1].isKeyframe || units[2].isKeyframe {
		t.Errorf("unexpected keyframes: %v %v %v", units[0].isKeyframe, units[1].isKeyframe, units[2].isKeyframe)
	}
	if got := len(parseAnnexB(units[0].data)); got != 4 {
		t.Errorf("first picture has %d NAL units, want 4", got)
	}
	if got := len(parseAnnexB(units[2].data)); got != 2 {
		t.Errorf("third picture has %d NAL units, want 2", got)
	}

	for i, want := range []int64{0, 40000, 80000} {
		if units[i].timestampUs != want {
			t.Errorf("unit %d timestamp = %d, want %d", i, units[i].timestampUs, want)
		}
	}
}

func TestBuildMP4_NoFrames(t *testing.T) {
	if _, err := buildMP4(nil, 64, 36, 30); !errors.Is(err, ErrNoFrames) {
		t.Errorf("expected ErrNoFrames, got %v", err)
	}
}

func TestExtractSPSPPS_Missing(t *testing.T) {
	units := []accessUnit{{data: nal(0x65, 0x88), isKeyframe: true}}
	if _, _, err := extractSPSPPS(units); err == nil {
		t.Error("expected error without SPS")
	}
}

func TestRecorder_CloseWithoutFrames(t *testing.T) {
	r := newRecorder("ffmpeg", "out.mp4", image.Pt(64, 36), 30, mocks.NewFileSystem(), logger.NewNoop())

	if err := r.Close(); !errors.Is(err, ErrNoFrames) {
		t.Errorf("expected ErrNoFrames, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	err := r.WriteFrame(ports.VideoFrame{Image: createTestImage(64, 36, 0)})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestRecorder_RecordsMP4(t *testing.T) {
	fs := mocks.NewFileSystem()
	r, err := New("out.mp4", image.Pt(64, 36), 30, fs, logger.NewNoop())
	if errors.Is(err, ErrFFmpegNotFound) {
		t.Skip("ffmpeg not available")
	}
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for i := 0; i < 15; i++ {
		// Half the frames arrive at a different size and are scaled.
		w, h := 64, 36
		if i%2 == 1 {
			w, h = 128, 72
		}
		if err := r.WriteFrame(ports.VideoFrame{Image: createTestImage(w, h, i)}); err != nil {
			t.Fatalf("WriteFrame %d failed: %v", i, err)
		}
	}
	if r.Frames() != 15 {
		t.Errorf("Frames = %d, want 15", r.Frames())
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, ok := fs.GetFile("out.mp4")
	if !ok {
		t.Fatal("no output written")
	}
	if len(data) < 8 || string(data[4:8]) != "ftyp" {
		t.Errorf("expected ftyp box at start of output")
	}
}
