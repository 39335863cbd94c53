// Package gocvcamera provides ports.MediaDevices for local cameras opened
// through OpenCV.
package gocvcamera

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/user/bgswap/pkg/media"
	"github.com/user/bgswap/pkg/ports"
)

const idPrefix = "camera-"

// readRetryDelay paces reads from a camera that returns no frames.
const readRetryDelay = 10 * time.Millisecond

// maxReadFailures consecutive failed reads (about 3 s) end the track.
const maxReadFailures = 300

// Camera enumerates OpenCV capture indices 0..maxProbe-1.
type Camera struct {
	maxProbe    int
	retryDelay  time.Duration
	maxFailures int
	logger      ports.Logger

	mu     sync.Mutex
	opened map[int]bool // Indices held by live tracks
}

// New creates a Camera.
func New(maxProbe int, logger ports.Logger) *Camera {
	if maxProbe <= 0 {
		maxProbe = 1
	}
	return &Camera{
		maxProbe:    maxProbe,
		retryDelay:  readRetryDelay,
		maxFailures: maxReadFailures,
		logger:      logger.WithComponent("gocvcamera"),
		opened:      make(map[int]bool),
	}
}

// DeviceID returns the device id of a capture index.
func DeviceID(index int) string {
	return fmt.Sprintf("%s%d", idPrefix, index)
}

// ParseDeviceID returns the capture index of a device id.
func ParseDeviceID(id string) (int, error) {
	var index int
	if _, err := fmt.Sscanf(id, idPrefix+"%d", &index); err != nil || index < 0 {
		return 0, fmt.Errorf("device id %q: %w", id, ports.ErrDeviceNotFound)
	}
	return index, nil
}

// EnumerateDevices probes each index. Indices currently held by this
// Camera are listed without reopening them.
func (c *Camera) EnumerateDevices(ctx context.Context) ([]ports.DeviceInfo, error) {
	var out []ports.DeviceInfo
	for i := 0; i < c.maxProbe; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !c.isOpen(i) {
			vc, err := gocv.OpenVideoCapture(i)
			if err != nil {
				continue
			}
			ok := vc.IsOpened()
			vc.Close()
			if !ok {
				continue
			}
		}
		out = append(out, ports.DeviceInfo{
			DeviceID: DeviceID(i),
			Label:    fmt.Sprintf("Camera %d", i),
			Kind:     ports.KindVideoInput,
			GroupID:  DeviceID(i),
		})
	}
	c.logger.Debug("Probed %d indices, found %d cameras", c.maxProbe, len(out))
	return out, nil
}

// GetUserMedia opens the requested camera. Audio capture is not supported
// and a request for it yields no audio track.
func (c *Camera) GetUserMedia(ctx context.Context, cons ports.Constraints) (ports.MediaStream, error) {
	if cons.Video == nil {
		return media.NewStream(), nil
	}

	index := 0
	if cons.Video.DeviceID != "" {
		var err error
		if index, err = ParseDeviceID(cons.Video.DeviceID); err != nil {
			return nil, err
		}
	}

	vc, err := gocv.VideoCaptureDevice(index)
	if err != nil || !vc.IsOpened() {
		if vc != nil {
			vc.Close()
		}
		return nil, fmt.Errorf("open camera %d: %w", index, ports.ErrDeviceNotFound)
	}
	if cons.Video.Width > 0 && cons.Video.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cons.Video.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cons.Video.Height))
	}

	fps := vc.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = 30
	}
	size := image.Pt(cons.Video.Width, cons.Video.Height)
	if size.X <= 0 || size.Y <= 0 {
		size = image.Pt(int(vc.Get(gocv.VideoCaptureFrameWidth)), int(vc.Get(gocv.VideoCaptureFrameHeight)))
	}

	stop := make(chan struct{})
	track := media.NewVideoTrack(fmt.Sprintf("Camera %d", index), fps, size, func() { close(stop) })

	c.mu.Lock()
	c.opened[index] = true
	c.mu.Unlock()

	go c.read(index, vc, track, size, stop)

	c.logger.Debug("Opened camera %d at %dx%d, %.1f fps", index, size.X, size.Y, fps)
	return media.NewStream(track), nil
}

// read publishes frames until the track stops, then releases the device.
func (c *Camera) read(index int, vc *gocv.VideoCapture, track *media.VideoTrack, size image.Point, stop <-chan struct{}) {
	defer func() {
		vc.Close()
		c.mu.Lock()
		delete(c.opened, index)
		c.mu.Unlock()
	}()

	mat := gocv.NewMat()
	defer mat.Close()
	resized := gocv.NewMat()
	defer resized.Close()

	c.pump(index, func() (image.Image, bool) {
		if ok := vc.Read(&mat); !ok || mat.Empty() {
			return nil, false
		}
		frame := &mat
		if mat.Cols() != size.X || mat.Rows() != size.Y {
			gocv.Resize(mat, &resized, size, 0, 0, gocv.InterpolationLinear)
			frame = &resized
		}
		img, err := frame.ToImage()
		if err != nil {
			c.logger.Debug("Camera %d frame conversion failed: %s", index, err)
			return nil, false
		}
		return img, true
	}, track, stop)
}

// pump moves frames from grab into track. A camera that fails maxFailures
// reads in a row (unplugged, taken by another process) ends the track so
// consumers see it as ended instead of showing a frozen frame.
func (c *Camera) pump(index int, grab func() (image.Image, bool), track *media.VideoTrack, stop <-chan struct{}) {
	failures := 0
	for {
		select {
		case <-stop:
			return
		default:
		}

		img, ok := grab()
		if !ok {
			failures++
			if failures >= c.maxFailures {
				c.logger.Warn("Camera %d stopped delivering frames", index)
				track.Stop()
				return
			}
			time.Sleep(c.retryDelay)
			continue
		}
		failures = 0
		if !track.Publish(img) {
			return
		}
	}
}

func (c *Camera) isOpen(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened[index]
}

var _ ports.MediaDevices = (*Camera)(nil)
