// Package h264recorder records the output stream to an H.264 MP4 file.
// Frames are encoded by an ffmpeg subprocess and muxed with mp4ff.
package h264recorder

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os/exec"
	"sync"

	"golang.org/x/image/draw"

	"github.com/user/bgswap/pkg/ports"
)

// DefaultCRF is the x264 constant rate factor used for recordings.
const DefaultCRF = 23

// Recorder is a ports.FrameSink that writes an MP4 file on Close.
type Recorder struct {
	ffmpegPath string
	path       string
	size       image.Point
	fps        float64
	crf        int
	fs         ports.FileSystem
	logger     ports.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout bytes.Buffer
	stderr bytes.Buffer
	frame  *image.RGBA
	frames int
	closed bool
}

// New creates a Recorder writing to path. Frames are scaled to size.
func New(path string, size image.Point, fps float64, fs ports.FileSystem, logger ports.Logger) (*Recorder, error) {
	ffmpegPath, err := FindFFmpeg()
	if err != nil {
		return nil, err
	}
	return newRecorder(ffmpegPath, path, size, fps, fs, logger), nil
}

func newRecorder(ffmpegPath, path string, size image.Point, fps float64, fs ports.FileSystem, logger ports.Logger) *Recorder {
	if fps <= 0 {
		fps = 30
	}
	return &Recorder{
		ffmpegPath: ffmpegPath,
		path:       path,
		size:       size,
		fps:        fps,
		crf:        DefaultCRF,
		fs:         fs,
		logger:     logger.WithComponent("h264recorder"),
		frame:      image.NewRGBA(image.Rect(0, 0, size.X, size.Y)),
	}
}

// Frames returns the number of frames handed to the encoder.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// WriteFrame encodes one frame. The encoder starts with the first frame.
func (r *Recorder) WriteFrame(frame ports.VideoFrame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if frame.Image == nil {
		return nil
	}
	if r.cmd == nil {
		if err := r.start(); err != nil {
			return err
		}
	}

	b := frame.Image.Bounds()
	if b.Dx() == r.size.X && b.Dy() == r.size.Y {
		draw.Draw(r.frame, r.frame.Bounds(), frame.Image, b.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(r.frame, r.frame.Bounds(), frame.Image, b, draw.Src, nil)
	}

	if _, err := r.stdin.Write(r.frame.Pix); err != nil {
		return fmt.Errorf("write frame: %w\nstderr: %s", err, r.stderr.String())
	}
	r.frames++
	return nil
}

func (r *Recorder) start() error {
	r.cmd = exec.Command(r.ffmpegPath, ffmpegArgs(r.size.X, r.size.Y, r.fps, r.crf)...)
	r.cmd.Stdout = &r.stdout
	r.cmd.Stderr = &r.stderr

	stdin, err := r.cmd.StdinPipe()
	if err != nil {
		r.cmd = nil
		return fmt.Errorf("stdin pipe: %w", err)
	}
	if err := r.cmd.Start(); err != nil {
		r.cmd = nil
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	r.stdin = stdin
	r.logger.Debug("Started %s for %dx%d at %.1f fps", r.ffmpegPath, r.size.X, r.size.Y, r.fps)
	return nil
}

// Close finishes encoding and writes the MP4 file. It returns ErrNoFrames
// when nothing was recorded. Closing twice is a no-op.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if r.cmd == nil {
		return ErrNoFrames
	}

	r.stdin.Close()
	if err := r.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg: %w\nstderr: %s", err, r.stderr.String())
	}

	units := splitAccessUnits(r.stdout.Bytes(), r.fps)
	data, err := buildMP4(units, r.size.X, r.size.Y, r.fps)
	if err != nil {
		return err
	}
	if err := r.fs.WriteFile(r.path, data); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}

	r.logger.Info("Recorded %d frames to %s", len(units), r.path)
	return nil
}

var _ ports.FrameSink = (*Recorder)(nil)
