package catalog

import (
	"context"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
)

// ProductWriter persists validated products.
type ProductWriter interface {
	UpsertMany(ctx context.Context, products []product.Product) (int, error)
}

// Embedder vectorizes product texts. Implementations that also satisfy
// domain.BatchEmbedder are called once per batch.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
