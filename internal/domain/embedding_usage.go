package domain

import "context"

type embeddingUsageKey struct{}

// EmbeddingUsage collects embedding token usage for a single HTTP request.
// The handler places a pointer in the context, the search service records into it,
// and the handler reads it back for response headers.
type EmbeddingUsage struct {
	TotalTokens int
	Calls       int
}

// NewContextWithUsage returns a context carrying a fresh usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// Record counts one embedding call. Cache hits record zero tokens.
func (u *EmbeddingUsage) Record(tokens int) {
	if u == nil {
		return
	}
	u.TotalTokens += tokens
	u.Calls++
}

// Used reports whether any embedding call was made.
func (u *EmbeddingUsage) Used() bool { return u != nil && u.Calls > 0 }
