// Package segworker runs a segmentation model on its own goroutine behind
// the ports.Segmenter submission contract.
package segworker

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/user/bgswap/pkg/ports"
)

// ErrBusy is returned by Send while a submission is still being processed.
var ErrBusy = ports.ErrSegmenterBusy

// ProcessFunc computes the subject mask of one frame.
type ProcessFunc func(ctx context.Context, img image.Image) (image.Image, error)

// Worker owns a single-slot mailbox and one processing goroutine. Every
// accepted submission produces exactly one handler call, including those
// still queued when the worker closes.
type Worker struct {
	process ProcessFunc
	logger  ports.Logger

	mu      sync.Mutex
	handler ports.ResultsHandler
	closed  bool

	inbox  chan ports.SegmentationInput
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New starts a worker.
func New(process ProcessFunc, logger ports.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		process: process,
		logger:  logger,
		inbox:   make(chan ports.SegmentationInput, 1),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// OnResults replaces the registered handler.
func (w *Worker) OnResults(handler ports.ResultsHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handler = handler
}

// Send queues a frame. It fails with ErrBusy when the mailbox is full and
// with ports.ErrSegmenterClosed after Close.
func (w *Worker) Send(ctx context.Context, input ports.SegmentationInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if input.Image == nil {
		return errors.New("segmentation input has no image")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ports.ErrSegmenterClosed
	}
	select {
	case w.inbox <- input:
		return nil
	default:
		return ErrBusy
	}
}

// Close stops the worker and waits for it. Queued submissions are
// answered with ports.ErrSegmenterClosed.
func (w *Worker) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.inbox)
	w.mu.Unlock()

	w.cancel()
	<-w.done
	return nil
}

func (w *Worker) run() {
	defer close(w.done)
	for input := range w.inbox {
		if w.ctx.Err() != nil {
			w.deliver(ports.SegmentationResult{Tag: input.Tag, Seq: input.Seq}, ports.ErrSegmenterClosed)
			continue
		}
		mask, err := w.process(w.ctx, input.Image)
		if err != nil {
			w.logger.Debug("Segmentation of tag %d failed: %s", input.Tag, err)
			w.deliver(ports.SegmentationResult{Tag: input.Tag, Seq: input.Seq}, err)
			continue
		}
		w.deliver(ports.SegmentationResult{
			SegmentationMask: mask,
			Image:            input.Image,
			Tag:              input.Tag,
			Seq:              input.Seq,
		}, nil)
	}
}

func (w *Worker) deliver(result ports.SegmentationResult, err error) {
	w.mu.Lock()
	h := w.handler
	w.mu.Unlock()
	if h != nil {
		h(result, err)
	}
}
