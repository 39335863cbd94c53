// Package filecamera provides ports.MediaDevices backed by directories of
// still images. Each declared device replays its frames in a loop, which
// lets sessions run without camera hardware.
package filecamera

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/user/bgswap/pkg/media"
	"github.com/user/bgswap/pkg/ports"
)

// Device declares one replayed device.
type Device struct {
	ID    string
	Label string
	Kind  ports.DeviceKind
	Dir   string  // Frames, played in name order
	FPS   float64 // Replay rate
}

// Camera implements ports.MediaDevices over declared devices.
type Camera struct {
	devices  []Device
	fs       ports.FileSystem
	renderer ports.Renderer
	logger   ports.Logger
}

// New creates a Camera.
func New(devices []Device, fs ports.FileSystem, renderer ports.Renderer, logger ports.Logger) *Camera {
	return &Camera{
		devices:  devices,
		fs:       fs,
		renderer: renderer,
		logger:   logger.WithComponent("filecamera"),
	}
}

// EnumerateDevices lists every declared device.
func (c *Camera) EnumerateDevices(ctx context.Context) ([]ports.DeviceInfo, error) {
	out := make([]ports.DeviceInfo, 0, len(c.devices))
	for _, d := range c.devices {
		out = append(out, ports.DeviceInfo{
			DeviceID: d.ID,
			Label:    d.Label,
			Kind:     d.Kind,
			GroupID:  d.ID,
		})
	}
	return out, nil
}

// GetUserMedia opens the requested device. An empty video device id picks
// the first video device. Audio is granted only if an audio device is
// declared; otherwise the stream carries no audio track.
func (c *Camera) GetUserMedia(ctx context.Context, cons ports.Constraints) (ports.MediaStream, error) {
	var tracks []ports.MediaTrack

	if cons.Audio {
		if d, ok := c.find("", ports.KindAudioInput); ok {
			tracks = append(tracks, media.NewAudioTrack(d.Label))
		}
	}

	if cons.Video != nil {
		d, ok := c.find(cons.Video.DeviceID, ports.KindVideoInput)
		if !ok {
			ports.StopTracks(media.NewStream(tracks...))
			return nil, fmt.Errorf("video input %q: %w", cons.Video.DeviceID, ports.ErrDeviceNotFound)
		}
		track, err := c.open(ctx, d, cons.Video.Width, cons.Video.Height)
		if err != nil {
			ports.StopTracks(media.NewStream(tracks...))
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if len(tracks) == 0 {
		return nil, fmt.Errorf("no audio or video requested: %w", ports.ErrDeviceNotFound)
	}
	return media.NewStream(tracks...), nil
}

func (c *Camera) find(id string, kind ports.DeviceKind) (Device, bool) {
	for _, d := range c.devices {
		if d.Kind != kind {
			continue
		}
		if id == "" || d.ID == id {
			return d, true
		}
	}
	return Device{}, false
}

// open loads the frames of d, scaled to the requested size, and starts
// replaying them.
func (c *Camera) open(ctx context.Context, d Device, width, height int) (*media.VideoTrack, error) {
	frames, err := c.load(ctx, d.Dir, width, height)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.ID, err)
	}

	size := frames[0].Bounds().Size()
	fps := d.FPS
	if fps <= 0 {
		fps = 30
	}

	stop := make(chan struct{})
	track := media.NewVideoTrack(d.Label, fps, size, func() { close(stop) })
	track.Publish(frames[0])

	go func() {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
		defer ticker.Stop()
		for i := 1; ; i++ {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if !track.Publish(frames[i%len(frames)]) {
					return
				}
			}
		}
	}()

	c.logger.Debug("Opened %s: %d frames at %dx%d, %.1f fps", d.ID, len(frames), size.X, size.Y, fps)
	return track, nil
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

func (c *Camera) load(ctx context.Context, dir string, width, height int) ([]image.Image, error) {
	names, err := c.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", ports.ErrDeviceNotFound)
	}

	var frames []image.Image
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !imageExts[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		data, err := c.fs.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read frame %s: %w", name, err)
		}
		img, err := c.renderer.DecodeImage(data, ports.FormatAuto)
		if err != nil {
			c.logger.Debug("Skipping undecodable frame %s: %s", name, err)
			continue
		}
		if width > 0 && height > 0 {
			if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
				img = c.renderer.ResizeImage(img, width, height)
			}
		}
		frames = append(frames, img)
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames in %s: %w", dir, ports.ErrDeviceNotFound)
	}
	return frames, nil
}

var _ ports.MediaDevices = (*Camera)(nil)
