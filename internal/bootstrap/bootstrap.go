// Package bootstrap assembles storage, embedders and the ranking engine from config.
// It is shared by the server and the ingest CLI.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/config"
	"github.com/kailas-cloud/prodsearch/internal/db"
	dbredis "github.com/kailas-cloud/prodsearch/internal/db/redis"
	"github.com/kailas-cloud/prodsearch/internal/domain"
	domprod "github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
	"github.com/kailas-cloud/prodsearch/internal/repository/embcache"
	productrepo "github.com/kailas-cloud/prodsearch/internal/repository/product"
	openaiemb "github.com/kailas-cloud/prodsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/prodsearch/internal/usecase/embedding"
	"github.com/kailas-cloud/prodsearch/internal/usecase/ranking"
)

// Catalog is the product storage surface used by the services.
type Catalog interface {
	Candidates(ctx context.Context, criteria filter.Criteria) ([]domprod.Product, error)
	UpsertMany(ctx context.Context, products []domprod.Product) (int, error)
	Ping(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// Resources holds opened storage handles.
type Resources struct {
	Catalog Catalog
	// cache backs the embedding cache; nil for the sqlite driver.
	cache   db.KVStore
	closers []func()
}

// Open connects the catalog selected by cfg.Database.Driver.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Resources, error) {
	switch cfg.Database.Driver {
	case config.DriverRedis:
		store, err := dbredis.NewStore(dbredis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		return &Resources{
			Catalog: productrepo.NewHashRepo(store, cfg.Storage.KeyPrefix, logger),
			cache:   store,
			closers: []func(){store.Close},
		}, nil

	case config.DriverSQLite:
		repo, err := productrepo.OpenSQLite(ctx, cfg.Database.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite catalog: %w", err)
		}
		return &Resources{
			Catalog: repo,
			closers: []func(){func() { _ = repo.Close() }},
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// Close releases storage handles in reverse order.
func (r *Resources) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// Embedder builds the decorator chain OpenAI -> Cached -> Instrumented -> Instruction,
// deferred behind a LazyEmbedder so the provider is constructed on first use.
func (r *Resources) Embedder(
	cfg *config.Config, instruction string, logger *zap.Logger,
) *embeddinguc.LazyEmbedder {
	ec := cfg.Embedding
	prefix := cfg.Storage.KeyPrefix

	return embeddinguc.NewLazyEmbedder(func() (domain.Embedder, error) {
		if ec.APIKey == "" && ec.BaseURL == "" {
			return nil, fmt.Errorf("%w: embedding.api_key or embedding.base_url must be set",
				domain.ErrEmbedderUnavailable)
		}

		metrics.RegisterEmbeddingMetrics()

		var emb domain.Embedder = openaiemb.NewEmbedder(&openaiemb.Config{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Provider:   ec.Provider,
			Logger:     logger,
		})

		if r.cache != nil {
			emb = embcache.New(emb, r.cache, embcache.Config{
				KeyPrefix: prefix,
				Model:     ec.Model,
				TTL:       time.Duration(ec.CacheTTLSec) * time.Second,
			}, metrics.EmbeddingCacheTotal, logger)
		}

		emb = embeddinguc.NewInstrumentedEmbedder(emb, ec.Provider, ec.Model, ec.Dimensions, logger)

		// Outermost: the cache key includes the instruction.
		if instruction != "" {
			emb = domain.NewInstructionEmbedder(emb, instruction)
		}

		logger.Info("Embedder initialized",
			zap.String("provider", ec.Provider),
			zap.String("model", ec.Model),
			zap.Int("dimensions", ec.Dimensions),
			zap.Bool("cached", r.cache != nil),
		)
		return emb, nil
	})
}

// Engine builds the ranking engine. reg may be nil to skip metrics.
func Engine(cfg *config.SearchConfig, reg prometheus.Registerer, logger *zap.Logger) *ranking.Engine {
	opts := []ranking.Option{ranking.WithLogger(logger)}
	if cfg.SkipDimensionMismatch {
		opts = append(opts, ranking.WithSkipMismatched())
	}
	if reg != nil {
		opts = append(opts, ranking.WithObserver(metrics.NewRankingMetrics(reg)))
	}
	return ranking.New(opts...)
}
