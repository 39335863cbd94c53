package segworker

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/bgswap/pkg/adapters/logger"
	"github.com/user/bgswap/pkg/ports"
)

type collector struct {
	mu      sync.Mutex
	results []ports.SegmentationResult
	errs    []error
}

func (c *collector) handle(r ports.SegmentationResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
	c.errs = append(c.errs, err)
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

func frame() image.Image { return image.NewRGBA(image.Rect(0, 0, 4, 4)) }

func TestWorker_DeliversTaggedResult(t *testing.T) {
	mask := image.NewAlpha(image.Rect(0, 0, 4, 4))
	w := New(func(ctx context.Context, img image.Image) (image.Image, error) {
		return mask, nil
	}, logger.NewNoop())
	defer w.Close()

	c := &collector{}
	w.OnResults(c.handle)

	in := frame()
	require.NoError(t, w.Send(context.Background(), ports.SegmentationInput{Image: in, Tag: 7, Seq: 12}))
	require.Eventually(t, func() bool { return c.count() == 1 }, time.Second, time.Millisecond)

	assert.Equal(t, uint64(7), c.results[0].Tag)
	assert.Equal(t, uint64(12), c.results[0].Seq)
	assert.Same(t, mask, c.results[0].SegmentationMask)
	assert.Equal(t, in, c.results[0].Image)
	assert.NoError(t, c.errs[0])
}

func TestWorker_ProcessError(t *testing.T) {
	boom := errors.New("boom")
	w := New(func(ctx context.Context, img image.Image) (image.Image, error) {
		return nil, boom
	}, logger.NewNoop())
	defer w.Close()

	c := &collector{}
	w.OnResults(c.handle)

	require.NoError(t, w.Send(context.Background(), ports.SegmentationInput{Image: frame(), Tag: 3}))
	require.Eventually(t, func() bool { return c.count() == 1 }, time.Second, time.Millisecond)
	assert.ErrorIs(t, c.errs[0], boom)
	assert.Equal(t, uint64(3), c.results[0].Tag)
	assert.Nil(t, c.results[0].SegmentationMask)
}

func TestWorker_BusyWhileMailboxFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	w := New(func(ctx context.Context, img image.Image) (image.Image, error) {
		started <- struct{}{}
		<-release
		return img, nil
	}, logger.NewNoop())

	c := &collector{}
	w.OnResults(c.handle)
	ctx := context.Background()

	require.NoError(t, w.Send(ctx, ports.SegmentationInput{Image: frame(), Tag: 1}))
	<-started
	require.NoError(t, w.Send(ctx, ports.SegmentationInput{Image: frame(), Tag: 2}))
	assert.ErrorIs(t, w.Send(ctx, ports.SegmentationInput{Image: frame(), Tag: 3}), ErrBusy)

	close(release)
	require.Eventually(t, func() bool { return c.count() >= 1 }, time.Second, time.Millisecond)
	require.NoError(t, w.Close())

	// Both accepted submissions are answered exactly once.
	assert.Equal(t, 2, c.count())
}

func TestWorker_SendAfterClose(t *testing.T) {
	w := New(func(ctx context.Context, img image.Image) (image.Image, error) {
		return img, nil
	}, logger.NewNoop())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	err := w.Send(context.Background(), ports.SegmentationInput{Image: frame()})
	assert.ErrorIs(t, err, ports.ErrSegmenterClosed)
}

func TestWorker_RejectsEmptyInput(t *testing.T) {
	w := New(func(ctx context.Context, img image.Image) (image.Image, error) {
		return img, nil
	}, logger.NewNoop())
	defer w.Close()

	assert.Error(t, w.Send(context.Background(), ports.SegmentationInput{}))
}
