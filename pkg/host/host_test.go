package host

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/bgswap/pkg/ports"
)

func startLoop(t *testing.T) (*Loop, chan time.Time) {
	t.Helper()
	vsync := make(chan time.Time)
	l := New(Options{Vsync: vsync})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return l, vsync
}

// frame delivers one vsync and waits until its callbacks have run.
func frame(t *testing.T, l *Loop, vsync chan time.Time) {
	t.Helper()
	vsync <- time.Now()
	require.NoError(t, l.Do(context.Background(), func() {}))
}

func TestLoop_DoRunsOnLoop(t *testing.T) {
	l, _ := startLoop(t)

	ran := false
	require.NoError(t, l.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestLoop_PostOrder(t *testing.T) {
	l, _ := startLoop(t)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	require.NoError(t, l.Do(context.Background(), func() {}))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoop_AnimationFrameFiresOnce(t *testing.T) {
	l, vsync := startLoop(t)

	calls := 0
	l.RequestAnimationFrame(func(time.Time) { calls++ })

	frame(t, l, vsync)
	frame(t, l, vsync)
	assert.Equal(t, 1, calls)
}

func TestLoop_RequestDuringFrameFiresNextFrame(t *testing.T) {
	l, vsync := startLoop(t)

	var ticks []int
	n := 0
	var tick func(time.Time)
	tick = func(time.Time) {
		n++
		ticks = append(ticks, n)
		if n < 3 {
			l.RequestAnimationFrame(tick)
		}
	}
	l.RequestAnimationFrame(tick)

	frame(t, l, vsync)
	assert.Equal(t, []int{1}, ticks)
	frame(t, l, vsync)
	frame(t, l, vsync)
	frame(t, l, vsync)
	assert.Equal(t, []int{1, 2, 3}, ticks)
	assert.Equal(t, 0, l.Pending())
}

func TestLoop_CancelAnimationFrame(t *testing.T) {
	l, vsync := startLoop(t)

	fired := false
	h := l.RequestAnimationFrame(func(time.Time) { fired = true })
	l.CancelAnimationFrame(h)
	// Cancelling twice, or an unknown handle, is a no-op.
	l.CancelAnimationFrame(h)
	l.CancelAnimationFrame(h + 100)

	frame(t, l, vsync)
	assert.False(t, fired)
}

func TestLoop_CancelFromEarlierCallbackInSameFrame(t *testing.T) {
	l, vsync := startLoop(t)

	var second uint64
	secondFired := false
	l.RequestAnimationFrame(func(time.Time) {
		l.CancelAnimationFrame(ports.FrameHandle(second))
	})
	second = uint64(l.RequestAnimationFrame(func(time.Time) { secondFired = true }))

	frame(t, l, vsync)
	assert.False(t, secondFired)
	assert.Equal(t, 0, l.Pending())
}

func TestLoop_DoAfterStop(t *testing.T) {
	l := New(Options{Vsync: make(chan time.Time)})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Run(ctx)
	}()
	cancel()
	<-done

	err := l.Do(context.Background(), func() {})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestLoop_HandlesAreNonZero(t *testing.T) {
	l := New(Options{})
	h := l.RequestAnimationFrame(func(time.Time) {})
	assert.NotZero(t, h)
	assert.Equal(t, 1, l.Pending())
}
