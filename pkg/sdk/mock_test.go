package prodsearch

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// keywordEmbedder maps texts to one-hot vectors by keyword.
type keywordEmbedder struct {
	calls atomic.Int32
	err   error
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	e.calls.Add(1)
	if e.err != nil {
		return EmbeddingResult{}, e.err
	}
	return EmbeddingResult{Embedding: keywordVector(text), TotalTokens: 1}, nil
}

func keywordVector(text string) []float32 {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "phone"):
		return []float32{1, 0, 0}
	case strings.Contains(t, "teapot"):
		return []float32{0, 1, 0}
	default:
		return []float32{0, 0, 1}
	}
}

// batchKeywordEmbedder also implements BatchEmbedder.
type batchKeywordEmbedder struct {
	keywordEmbedder
	batches atomic.Int32
}

func (e *batchKeywordEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	e.batches.Add(1)
	out := BatchEmbeddingResult{Embeddings: make([][]float32, len(texts)), TotalTokens: len(texts)}
	for i, t := range texts {
		out.Embeddings[i] = keywordVector(t)
	}
	return out, nil
}

type unhealthyEmbedder struct{ keywordEmbedder }

func (*unhealthyEmbedder) HealthCheck(context.Context) error { return errors.New("provider down") }

var catalogFixture = []Product{
	{ID: "P1", Name: "Acme Phone", Category: "Electronics", Price: 50000, Rating: 4.5, Specifications: "camera"},
	{ID: "P2", Name: "Clay Teapot", Category: "Kitchen", Price: 40, Rating: 3.9, Specifications: "ceramic"},
}

func newSQLiteClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	return openSQLiteClient(t, filepath.Join(t.TempDir(), "catalog.db"), opts...)
}

func openSQLiteClient(t *testing.T, path string, opts ...Option) *Client {
	t.Helper()
	c, err := New(context.Background(), append([]Option{WithSQLite(path)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}
