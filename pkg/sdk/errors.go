package prodsearch

import "github.com/kailas-cloud/prodsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrInvalidMode            = domain.ErrInvalidMode
	ErrMissingField           = domain.ErrMissingField
	ErrInvalidProduct         = domain.ErrInvalidProduct
	ErrDimensionMismatch      = domain.ErrDimensionMismatch
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrEmbedderUnavailable    = domain.ErrEmbedderUnavailable
)
