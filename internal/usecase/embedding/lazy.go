package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// Factory builds the underlying embedder.
type Factory func() (domain.Embedder, error)

// LazyEmbedder builds its embedder on first use and reuses it for every later call.
// A construction error is remembered and returned on every call; there is no teardown.
type LazyEmbedder struct {
	factory Factory
	once    sync.Once
	inner   domain.Embedder
	err     error
}

// NewLazyEmbedder creates a LazyEmbedder around factory.
func NewLazyEmbedder(factory Factory) *LazyEmbedder {
	return &LazyEmbedder{factory: factory}
}

func (l *LazyEmbedder) get() (domain.Embedder, error) {
	l.once.Do(func() {
		l.inner, l.err = l.factory()
		if l.err == nil && l.inner == nil {
			l.err = fmt.Errorf("embedder factory returned nil: %w", domain.ErrEmbedderUnavailable)
		}
	})
	return l.inner, l.err
}

// Embed implements domain.Embedder.
func (l *LazyEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	e, err := l.get()
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("init embedder: %w", err)
	}
	return e.Embed(ctx, text) //nolint:wrapcheck // transparent decorator
}

// BatchEmbed implements domain.BatchEmbedder.
func (l *LazyEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	e, err := l.get()
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("init embedder: %w", err)
	}
	if be, ok := e.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts) //nolint:wrapcheck // transparent decorator
	}
	return domain.BatchFallback(ctx, e, texts)
}

// HealthCheck delegates to the underlying embedder when it supports health checks.
func (l *LazyEmbedder) HealthCheck(ctx context.Context) error {
	e, err := l.get()
	if err != nil {
		return err
	}
	return domain.CheckHealth(ctx, e)
}
