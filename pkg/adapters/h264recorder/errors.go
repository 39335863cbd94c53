package h264recorder

import "errors"

var (
	// ErrFFmpegNotFound is returned when no ffmpeg executable can be located.
	ErrFFmpegNotFound = errors.New("h264recorder: ffmpeg not found")

	// ErrNoFrames is returned when a recording ends before any frame was encoded.
	ErrNoFrames = errors.New("h264recorder: no frames recorded")

	// ErrClosed is returned by WriteFrame after Close.
	ErrClosed = errors.New("h264recorder: recorder closed")
)
