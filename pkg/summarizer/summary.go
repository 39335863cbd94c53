// Package summarizer reports what a compositing session did.
package summarizer

import (
	"time"

	"github.com/user/bgswap/pkg/compositor"
	"github.com/user/bgswap/pkg/orchestrator"
)

// Summary contains the data collected over one session.
type Summary struct {
	GeneratedAt time.Time
	StartedAt   time.Time
	Duration    time.Duration

	Session  SessionInfo
	Settings Settings
	Loop     compositor.Stats
	Outputs  Outputs
}

// SessionInfo is the final state of the session.
type SessionInfo struct {
	DeviceID      string
	DeviceLabel   string
	Background    string
	HasBackground bool
	Generations   uint64
}

// Settings contains the session configuration.
type Settings struct {
	Width          int
	Height         int
	FPS            float64
	Camera         string
	Segmenter      string
	ModelSelection int
	SubmitTimeout  time.Duration
}

// Outputs lists where the output stream went.
type Outputs struct {
	RecordPath   string
	RecordFrames int
	PreviewPath  string
	DebugDir     string
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a Builder for a session started at startedAt.
func NewBuilder(startedAt time.Time) *Builder {
	return &Builder{
		summary: &Summary{StartedAt: startedAt},
	}
}

// WithStatus copies the session status.
func (b *Builder) WithStatus(st orchestrator.Status) *Builder {
	b.summary.Session = SessionInfo{
		DeviceID:      st.DeviceID,
		DeviceLabel:   st.DeviceLabel,
		Background:    st.BackgroundURL,
		HasBackground: st.HasBackground,
		Generations:   st.Generation,
	}
	b.summary.Loop = st.Stats
	return b
}

// WithBackground records the background file chosen by the user.
func (b *Builder) WithBackground(path string) *Builder {
	b.summary.Session.Background = path
	return b
}

// WithSettings sets the session configuration.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithOutputs sets the output consumers.
func (b *Builder) WithOutputs(outputs Outputs) *Builder {
	b.summary.Outputs = outputs
	return b
}

// Build stamps the summary at now and returns it.
func (b *Builder) Build(now time.Time) *Summary {
	b.summary.GeneratedAt = now
	b.summary.Duration = now.Sub(b.summary.StartedAt)
	return b.summary
}
