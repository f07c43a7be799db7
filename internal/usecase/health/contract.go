package health

import "context"

// Catalog checks product storage availability and size.
type Catalog interface {
	Ping(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
