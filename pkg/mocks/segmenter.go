package mocks

import (
	"context"
	"sync"

	"github.com/user/bgswap/pkg/ports"
)

// Segmenter is a mock implementation of ports.Segmenter.
// Submissions are recorded; tests deliver results with Deliver.
type Segmenter struct {
	SetOptionsFunc func(opts ports.SegmenterOptions) error
	SendFunc       func(ctx context.Context, input ports.SegmentationInput) error

	mu      sync.Mutex
	handler ports.ResultsHandler
	Options ports.SegmenterOptions
	Sent    []ports.SegmentationInput
	Closed  bool
}

func (m *Segmenter) SetOptions(opts ports.SegmenterOptions) error {
	if m.SetOptionsFunc != nil {
		return m.SetOptionsFunc(opts)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Options = opts
	return nil
}

func (m *Segmenter) OnResults(handler ports.ResultsHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

func (m *Segmenter) Send(ctx context.Context, input ports.SegmentationInput) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, input); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed {
		return ports.ErrSegmenterClosed
	}
	m.Sent = append(m.Sent, input)
	return nil
}

func (m *Segmenter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Deliver invokes the registered handler as the model would.
func (m *Segmenter) Deliver(result ports.SegmentationResult, err error) {
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	if h != nil {
		h(result, err)
	}
}

// SentCount returns the number of accepted submissions.
func (m *Segmenter) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// LastSent returns the most recent submission.
func (m *Segmenter) LastSent() (ports.SegmentationInput, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return ports.SegmentationInput{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}

var _ ports.Segmenter = (*Segmenter)(nil)
