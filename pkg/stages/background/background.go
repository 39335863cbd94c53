// Package background implements the background provider: the chosen file
// is held behind an object URL and decoded asynchronously.
package background

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/user/bgswap/pkg/ports"
)

// Provider holds the current background image.
//
// Choosing a file revokes the previous object URL before the new one is
// assigned. The image is absent until the new file has decoded, and stays
// absent if it never decodes.
type Provider struct {
	fs       ports.FileSystem
	blobs    ports.BlobStore
	renderer ports.Renderer
	logger   ports.Logger

	mu   sync.Mutex
	url  string
	img  image.Image
	gen  uint64
	done chan struct{}
	err  error
}

// NewProvider creates an empty provider.
func NewProvider(fs ports.FileSystem, blobs ports.BlobStore, renderer ports.Renderer, logger ports.Logger) *Provider {
	return &Provider{
		fs:       fs,
		blobs:    blobs,
		renderer: renderer,
		logger:   logger.WithComponent("background"),
	}
}

// Choose reads path and starts decoding it. File type is not validated;
// an undecodable file simply never becomes the background.
// A read failure leaves the current background untouched.
func (p *Provider) Choose(path string) error {
	data, err := p.fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read background %s: %w", path, err)
	}

	p.mu.Lock()
	if p.url != "" {
		p.blobs.RevokeObjectURL(p.url)
	}
	p.url = p.blobs.CreateObjectURL(data)
	p.img = nil
	p.err = nil
	p.gen++
	gen, url := p.gen, p.url
	done := make(chan struct{})
	p.done = done
	p.mu.Unlock()

	p.logger.Debug("Background %s assigned to %s", path, url)
	go p.decode(gen, url, done)
	return nil
}

func (p *Provider) decode(gen uint64, url string, done chan struct{}) {
	defer close(done)

	var img image.Image
	data, contentType, err := p.blobs.Fetch(url)
	if err == nil {
		p.logger.Debug("Decoding %s (%s, %d bytes)", url, contentType, len(data))
		img, err = p.renderer.DecodeImage(data, ports.FormatAuto)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return
	}
	if err != nil {
		p.err = fmt.Errorf("decode background: %w", err)
		p.logger.Warn("Background could not be decoded: %s", err)
		return
	}
	p.img = img
}

// Current returns the decoded background, or nil when none is ready.
func (p *Provider) Current() image.Image {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.img
}

// URL returns the current object URL, or "".
func (p *Provider) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Loaded waits for the latest choice to finish decoding and returns its
// decode error. It returns nil at once when nothing was chosen.
func (p *Provider) Loaded(ctx context.Context) error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if done != p.done {
		// Superseded while waiting; the newer choice decides.
		return nil
	}
	return p.err
}

// Release revokes the object URL and drops the image.
func (p *Provider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.url != "" {
		p.blobs.RevokeObjectURL(p.url)
	}
	p.url = ""
	p.img = nil
	p.err = nil
	p.gen++
	p.done = nil
}
