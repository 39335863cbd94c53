// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/bgswap/pkg/ports"
)

// Sink saves per-frame compositing inputs and outputs under baseDir:
//
//	frames/source/frame-NNNNNN.jpg
//	frames/mask/frame-NNNNNN.png
//	frames/composed/frame-NNNNNN.png
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
	every    uint64
}

// New creates a new FileSink that saves every nth frame. every <= 1 saves
// all frames.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer, every int) *Sink {
	if every < 1 {
		every = 1
	}
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
		every:    uint64(every),
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveSourceFrame saves the frame that was segmented as JPEG.
func (s *Sink) SaveSourceFrame(index uint64, img image.Image) error {
	return s.save("source", index, img, ports.FormatJPEG)
}

// SaveMask saves a segmentation mask as PNG.
func (s *Sink) SaveMask(index uint64, img image.Image) error {
	return s.save("mask", index, img, ports.FormatPNG)
}

// SaveComposedFrame saves a composed frame as PNG.
func (s *Sink) SaveComposedFrame(index uint64, img image.Image) error {
	return s.save("composed", index, img, ports.FormatPNG)
}

func (s *Sink) save(kind string, index uint64, img image.Image, format ports.ImageFormat) error {
	if index%s.every != 0 {
		return nil
	}
	if img == nil {
		return fmt.Errorf("save %s frame %d: no image", kind, index)
	}

	dir := filepath.Join(s.baseDir, "frames", kind)
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}

	data, err := s.renderer.EncodeImage(img, format, 85)
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", kind, err)
	}

	ext := "png"
	if format == ports.FormatJPEG {
		ext = "jpg"
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%06d.%s", index, ext))
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
