// Package metadata caches the read-only reference lists (categories,
// difficulty levels, labels, units) for the lifetime of a session.
package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/raphaelgruber/recipebox/internal/models"
)

// Source fetches metadata from the backend.
type Source interface {
	FetchMetadata(ctx context.Context) (*models.Metadata, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*models.Metadata, error)

func (f SourceFunc) FetchMetadata(ctx context.Context) (*models.Metadata, error) {
	return f(ctx)
}

// Provider loads metadata once and serves it read-only afterwards.
// Concurrent Load calls share a single fetch; a failed fetch may be retried.
type Provider struct {
	src    Source
	logger *slog.Logger

	mu      sync.RWMutex
	data    *models.Metadata
	loading chan struct{} // non-nil while a fetch is in flight
	ready   chan struct{} // closed by the first successful load
	lastErr error
}

// NewProvider creates a provider backed by src.
func NewProvider(src Source, log *slog.Logger) *Provider {
	if log == nil {
		log = slog.Default()
	}
	return &Provider{
		src:    src,
		logger: log.With("component", "metadata"),
		ready:  make(chan struct{}),
	}
}

// NewStatic returns a provider that is already loaded with md.
func NewStatic(md *models.Metadata) *Provider {
	p := NewProvider(nil, nil)
	p.data = md
	close(p.ready)
	return p
}

// Load fetches metadata unless it is already loaded.
func (p *Provider) Load(ctx context.Context) error {
	p.mu.Lock()
	if p.data != nil {
		p.mu.Unlock()
		return nil
	}
	if wait := p.loading; wait != nil {
		p.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
		p.mu.RLock()
		defer p.mu.RUnlock()
		if p.data != nil {
			return nil
		}
		return p.lastErr
	}
	done := make(chan struct{})
	p.loading = done
	p.mu.Unlock()

	md, err := p.src.FetchMetadata(ctx)
	if err == nil && md == nil {
		err = fmt.Errorf("fetch metadata: empty response")
	}

	p.mu.Lock()
	if err != nil {
		p.lastErr = err
		p.logger.Warn("metadata load failed", "error", err)
	} else {
		p.data = md
		p.lastErr = nil
		close(p.ready)
		p.logger.Debug("metadata loaded",
			"categories", len(md.Categories), "levels", len(md.Levels),
			"labels", len(md.Labels), "units", len(md.Units))
	}
	p.loading = nil
	close(done)
	p.mu.Unlock()

	return err
}

// Loading reports whether a fetch is in flight.
func (p *Provider) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading != nil
}

// Loaded reports whether metadata is available.
func (p *Provider) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data != nil
}

// Ready returns a channel that is closed once metadata is loaded.
func (p *Provider) Ready() <-chan struct{} {
	return p.ready
}

// Err returns the error of the last failed load, if any.
func (p *Provider) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

// Metadata returns the loaded lists, or nil before the first successful load.
func (p *Provider) Metadata() *models.Metadata {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data
}

func (p *Provider) Categories() []models.Option { return p.Options(models.KindCategory) }
func (p *Provider) Levels() []models.Option     { return p.Options(models.KindLevel) }
func (p *Provider) Labels() []models.Option     { return p.Options(models.KindLabel) }
func (p *Provider) Units() []models.Option      { return p.Options(models.KindUnit) }

// Options returns the list for kind; nil before loading.
func (p *Provider) Options(kind models.OptionKind) []models.Option {
	return p.Metadata().Options(kind)
}

// Find looks up an option by key.
func (p *Provider) Find(kind models.OptionKind, key string) (models.Option, bool) {
	return p.Metadata().Find(kind, key)
}

// LabelFor returns the display label for key, or key itself when it cannot be resolved.
func (p *Provider) LabelFor(kind models.OptionKind, key string) string {
	if opt, ok := p.Find(kind, key); ok && opt.Label != "" {
		return opt.Label
	}
	return key
}
