package filecamera

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/bgswap/pkg/adapters/ggrenderer"
	"github.com/user/bgswap/pkg/adapters/logger"
	"github.com/user/bgswap/pkg/mocks"
	"github.com/user/bgswap/pkg/ports"
)

func pngFrame(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newCamera(t *testing.T) *Camera {
	t.Helper()
	fs := mocks.NewFileSystem()
	dir := filepath.Join("frames", "front")
	require.NoError(t, fs.WriteFile(filepath.Join(dir, "0001.png"), pngFrame(t, 16, 9, color.RGBA{R: 255, A: 255})))
	require.NoError(t, fs.WriteFile(filepath.Join(dir, "0002.png"), pngFrame(t, 16, 9, color.RGBA{G: 255, A: 255})))
	require.NoError(t, fs.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored")))

	return New([]Device{
		{ID: "mic-1", Label: "Desk mic", Kind: ports.KindAudioInput},
		{ID: "cam-1", Label: "Front", Kind: ports.KindVideoInput, Dir: dir, FPS: 100},
		{ID: "cam-empty", Label: "Empty", Kind: ports.KindVideoInput, Dir: "nowhere"},
	}, fs, ggrenderer.New(), logger.NewNoop())
}

func TestCamera_EnumerateDevices(t *testing.T) {
	devices, err := newCamera(t).EnumerateDevices(context.Background())
	require.NoError(t, err)

	require.Len(t, devices, 3)
	assert.Equal(t, ports.KindAudioInput, devices[0].Kind)
	assert.Equal(t, "cam-1", devices[1].DeviceID)
	assert.Equal(t, "Front", devices[1].Label)
}

func TestCamera_OpenScalesAndReplays(t *testing.T) {
	cam := newCamera(t)

	stream, err := cam.GetUserMedia(context.Background(), ports.Constraints{
		Video: &ports.VideoConstraints{DeviceID: "cam-1", Width: 32, Height: 18},
	})
	require.NoError(t, err)
	defer ports.StopTracks(stream)

	tracks := stream.VideoTracks()
	require.Len(t, tracks, 1)
	track := tracks[0]
	assert.Equal(t, image.Pt(32, 18), track.Size())
	assert.Equal(t, "Front", track.Label())

	first, ok := track.LatestFrame()
	require.True(t, ok, "first frame is available at once")
	assert.Equal(t, image.Rect(0, 0, 32, 18), first.Image.Bounds())

	require.Eventually(t, func() bool {
		f, ok := track.LatestFrame()
		return ok && f.Seq > first.Seq
	}, time.Second, 5*time.Millisecond)
}

func TestCamera_PermissionRequest(t *testing.T) {
	cam := newCamera(t)

	stream, err := cam.GetUserMedia(context.Background(), ports.Constraints{
		Audio: true,
		Video: &ports.VideoConstraints{},
	})
	require.NoError(t, err)
	assert.Len(t, stream.Tracks(), 2)
	assert.Len(t, stream.VideoTracks(), 1)

	ports.StopTracks(stream)
	for _, tr := range stream.Tracks() {
		assert.Equal(t, ports.TrackEnded, tr.ReadyState())
	}
}

func TestCamera_Errors(t *testing.T) {
	cam := newCamera(t)
	ctx := context.Background()

	_, err := cam.GetUserMedia(ctx, ports.Constraints{Video: &ports.VideoConstraints{DeviceID: "cam-9"}})
	assert.ErrorIs(t, err, ports.ErrDeviceNotFound)

	_, err = cam.GetUserMedia(ctx, ports.Constraints{Video: &ports.VideoConstraints{DeviceID: "cam-empty"}})
	assert.ErrorIs(t, err, ports.ErrDeviceNotFound)

	_, err = cam.GetUserMedia(ctx, ports.Constraints{})
	assert.ErrorIs(t, err, ports.ErrDeviceNotFound)

	// Requesting the audio device as video fails.
	_, err = cam.GetUserMedia(ctx, ports.Constraints{Video: &ports.VideoConstraints{DeviceID: "mic-1"}})
	assert.ErrorIs(t, err, ports.ErrDeviceNotFound)
}

func TestCamera_AudioWithoutDevice(t *testing.T) {
	fs := mocks.NewFileSystem()
	require.NoError(t, fs.WriteFile("frames/0001.png", pngFrame(t, 4, 4, color.RGBA{B: 255, A: 255})))
	cam := New([]Device{{ID: "cam", Kind: ports.KindVideoInput, Dir: "frames"}}, fs, ggrenderer.New(), logger.NewNoop())

	stream, err := cam.GetUserMedia(context.Background(), ports.Constraints{Audio: true, Video: &ports.VideoConstraints{}})
	require.NoError(t, err)
	defer ports.StopTracks(stream)

	assert.Len(t, stream.Tracks(), 1)
	assert.Len(t, stream.VideoTracks(), 1)

	_, err = cam.GetUserMedia(context.Background(), ports.Constraints{Audio: true})
	assert.ErrorIs(t, err, ports.ErrDeviceNotFound)
}
