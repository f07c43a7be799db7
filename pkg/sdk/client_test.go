package prodsearch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_NoStore(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no store configured")
	}
}

func TestToConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     clientConfig
		wantErr bool
	}{
		{"unknown driver", clientConfig{driver: "mongo"}, true},
		{"redis without addr", clientConfig{driver: "redis", addrs: []string{""}}, true},
		{"sqlite without path", clientConfig{driver: "sqlite"}, true},
		{"sqlite", clientConfig{driver: "sqlite", sqlitePath: "x.db"}, false},
		{"redis", clientConfig{driver: "redis", addrs: []string{"localhost:6379"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := tt.cfg.toConfig()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && cfg.Storage.KeyPrefix != "prodsearch:" {
				t.Errorf("key prefix default not applied: %q", cfg.Storage.KeyPrefix)
			}
		})
	}
}

func TestClient_IngestSearchRecommend(t *testing.T) {
	ctx := context.Background()
	emb := &batchKeywordEmbedder{}
	c := newSQLiteClient(t, WithEmbedder(emb))

	products := append([]Product{}, catalogFixture...)
	products = append(products, Product{ID: "P3", Category: "Kitchen", Price: 10, Rating: 3})

	report, err := c.Ingest(ctx, products)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if report.Total != 3 || report.Stored != 2 || report.Rejected != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.Failures[0].ID != "P3" || !errors.Is(report.Failures[0].Err, ErrMissingField) {
		t.Errorf("unexpected failure %+v", report.Failures[0])
	}
	if emb.batches.Load() == 0 {
		t.Error("expected BatchEmbed to be used")
	}

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	results, err := c.Search(ctx, Query{Text: "phone"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Product.ID != "P1" {
		t.Fatalf("additive-rating results = %+v", results)
	}

	results, err = c.Search(ctx, Query{Text: "phone", Mode: ModeWeightedBlend})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 || results[0].Product.ID != "P1" || results[0].MatchType != MatchExact {
		t.Fatalf("weighted-blend results = %+v", results)
	}

	results, err = c.Search(ctx, Query{Text: "phone", Category: "Kitchen", Mode: ModeWeightedBlend})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Product.ID != "P2" {
		t.Fatalf("category-filtered results = %+v", results)
	}

	rec, err := c.Recommend(ctx, "I need a phone")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if rec.Best.Product.ID != "P1" || len(rec.Results) == 0 {
		t.Errorf("recommendation = %+v", rec)
	}

	_, err = c.Recommend(ctx, "garden hose")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	h := c.Health(ctx)
	if h.Status != "ok" || h.Products != 2 || h.Checks["database"] != "ok" {
		t.Errorf("health = %+v", h)
	}
}

func TestClient_InvalidQuery(t *testing.T) {
	c := newSQLiteClient(t, WithEmbedder(&keywordEmbedder{}))

	_, err := c.Search(context.Background(), Query{Text: "phone", Mode: "fuzzy"})
	if !errors.Is(err, ErrInvalidMode) {
		t.Errorf("expected ErrInvalidMode, got %v", err)
	}
	_, err = c.Search(context.Background(), Query{Text: "phone", MinPrice: 100, MaxPrice: 10})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestClient_NoEmbedder(t *testing.T) {
	ctx := context.Background()
	c := newSQLiteClient(t)

	results, err := c.Search(ctx, Query{Text: "phone"})
	if err != nil {
		t.Fatalf("Search without embedder should degrade, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}

	report, err := c.Ingest(ctx, catalogFixture)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if report.Stored != 0 || report.Rejected != 2 {
		t.Errorf("report = %+v", report)
	}

	if h := c.Health(ctx); h.Status != "degraded" || h.Checks["embedding"] != "error" {
		t.Errorf("health = %+v", h)
	}
}

func TestClient_UnhealthyEmbedder(t *testing.T) {
	c := newSQLiteClient(t, WithEmbedder(&unhealthyEmbedder{}))
	if h := c.Health(context.Background()); h.Status != "degraded" {
		t.Errorf("status = %q, want degraded", h.Status)
	}
}

func TestClient_EmbedderError(t *testing.T) {
	c := newSQLiteClient(t, WithEmbedder(&keywordEmbedder{err: errors.New("quota")}))

	_, err := c.Search(context.Background(), Query{Text: "phone"})
	if !errors.Is(err, ErrEmbeddingProviderError) {
		t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestClient_Observability(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newSQLiteClient(t,
		WithEmbedder(&keywordEmbedder{}),
		WithPrometheus(reg),
		WithLogger(logger),
	)
	if _, err := c.Ingest(ctx, catalogFixture); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if _, err := c.Search(ctx, Query{Text: "phone"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	_, _ = c.Search(ctx, Query{Text: "phone", Mode: "fuzzy"})

	m := c.obs.metrics
	if got := testutil.ToFloat64(m.operations.WithLabelValues("search", "ok")); got != 1 {
		t.Errorf("search ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("search", "error")); got != 1 {
		t.Errorf("search error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("ingest", "ok")); got != 1 {
		t.Errorf("ingest ok = %v, want 1", got)
	}
	if testutil.CollectAndCount(m.results) == 0 {
		t.Error("expected ranking results histogram to be observed")
	}
	if !bytes.Contains(logs.Bytes(), []byte("operation failed")) {
		t.Errorf("expected failure log, got %s", logs.String())
	}

	// A second client on the same registry reuses collectors.
	c2 := newSQLiteClient(t, WithPrometheus(reg))
	if c2.obs.metrics.operations != m.operations {
		t.Error("expected collectors to be shared")
	}
}

func TestClient_SkipDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")
	c := openSQLiteClient(t, path, WithEmbedder(&keywordEmbedder{}))
	if _, err := c.Ingest(ctx, catalogFixture); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	// Same store, different embedder dimension.
	wide := openSQLiteClient(t, path, WithEmbedder(&wideEmbedder{}), WithSkipDimensionMismatch())
	results, err := wide.Search(ctx, Query{Text: "phone", Mode: ModeWeightedBlend})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected mismatched products to be skipped, got %d", len(results))
	}

	strict := openSQLiteClient(t, path, WithEmbedder(&wideEmbedder{}))
	_, err = strict.Search(ctx, Query{Text: "phone"})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

type wideEmbedder struct{}

func (wideEmbedder) Embed(context.Context, string) (EmbeddingResult, error) {
	return EmbeddingResult{Embedding: []float32{1, 0, 0, 0}}, nil
}
