package search

import (
	"context"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
)

// CandidateSource supplies the products to rank. Implementations may pre-filter by
// criteria; the ranking engine re-applies the filter regardless.
type CandidateSource interface {
	Candidates(ctx context.Context, criteria filter.Criteria) ([]product.Product, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
