package ports

import "errors"

var (
	// ErrPermissionDenied is returned when device access is refused.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrDeviceNotFound is returned when no device matches the constraints.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrTrackEnded is returned when a stopped track is used.
	ErrTrackEnded = errors.New("track ended")

	// ErrSegmenterClosed is returned by Send after Close.
	ErrSegmenterClosed = errors.New("segmenter closed")

	// ErrSegmenterBusy is returned by Send while an earlier frame is still
	// being processed.
	ErrSegmenterBusy = errors.New("segmenter busy")

	// ErrBlobNotFound is returned for revoked or unknown object URLs.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrSuperseded is returned when a newer device selection won the race.
	ErrSuperseded = errors.New("superseded by a newer selection")

	// ErrNotMounted is returned when a session is used before Mount.
	ErrNotMounted = errors.New("session not mounted")
)
