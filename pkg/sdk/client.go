package prodsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/bootstrap"
	"github.com/kailas-cloud/prodsearch/internal/config"
	"github.com/kailas-cloud/prodsearch/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/prodsearch/internal/usecase/health"
	"github.com/kailas-cloud/prodsearch/internal/usecase/ranking"
	searchuc "github.com/kailas-cloud/prodsearch/internal/usecase/search"
)

// Client is the prodsearch SDK entry point.
type Client struct {
	res     *bootstrap.Resources
	search  *searchuc.Service
	catalog *catalog.Service
	health  *healthuc.Service
	obs     *observer
}

// New creates a Client and connects to the catalog store.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	appCfg, err := cfg.toConfig()
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	// Internal services log through zap; SDK callers observe via slog.
	nop := zap.NewNop()
	res, err := bootstrap.Open(ctx, appCfg, nop)
	if err != nil {
		return nil, fmt.Errorf("prodsearch: %w", err)
	}

	rankOpts := []ranking.Option{ranking.WithObserver(obs)}
	if cfg.skipMismatch {
		rankOpts = append(rankOpts, ranking.WithSkipMismatched())
	}
	engine := ranking.New(rankOpts...)

	emb := adaptEmbedder(cfg.embedder)
	return &Client{
		res:    res,
		search: searchuc.New(res.Catalog, emb, engine, cfg.chatMaxPrice, nop),
		catalog: catalog.New(res.Catalog, emb, catalog.Config{
			Workers:   cfg.workers,
			BatchSize: cfg.batchSize,
		}, nop),
		health: healthuc.New(res.Catalog, emb, nop),
		obs:    obs,
	}, nil
}

func (c *clientConfig) toConfig() (*config.Config, error) {
	var cfg config.Config
	switch c.driver {
	case "redis":
		if len(c.addrs) == 0 || c.addrs[0] == "" {
			return nil, errors.New("prodsearch: redis address required")
		}
		cfg.Database.Driver = config.DriverRedis
		cfg.Database.Addrs = c.addrs
		cfg.Database.Password = c.password
	case "sqlite":
		if c.sqlitePath == "" {
			return nil, errors.New("prodsearch: sqlite path required")
		}
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.SQLitePath = c.sqlitePath
	case "":
		return nil, errors.New("prodsearch: catalog store required (use WithRedis or WithSQLite)")
	default:
		return nil, fmt.Errorf("prodsearch: unknown driver %q", c.driver)
	}
	cfg.Storage.KeyPrefix = c.keyPrefix
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.res != nil {
		c.res.Close()
	}
}

// Ping checks catalog store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.res.Catalog.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search embeds q.Text and ranks the stored catalog. q.Embedding is ignored.
func (c *Client) Search(ctx context.Context, q Query) (_ []Result, err error) {
	start := time.Now()
	var n int
	defer func() { c.obs.observe("search", start, err, "mode", q.Mode, "results", n) }()

	req, err := toRequest(q)
	if err != nil {
		return nil, err
	}
	ranked, err := c.search.Search(ctx, &req)
	if err != nil {
		return nil, err
	}
	n = ranked.Len()
	return fromRanking(ranked), nil
}

// Recommend returns the best additive-rating match for a free-form message.
// ErrNotFound means nothing matched.
func (c *Client) Recommend(ctx context.Context, message string) (_ Recommendation, err error) {
	start := time.Now()
	defer func() { c.obs.observe("recommend", start, err) }()

	rec, err := c.search.Recommend(ctx, message)
	if err != nil {
		return Recommendation{}, err
	}
	return Recommendation{
		Best:    fromCandidate(rec.Best),
		Results: fromRanking(rec.Ranking),
	}, nil
}

// Ingest embeds and stores products. Product.Embedding is ignored.
// Per-product failures are reported, not returned.
func (c *Client) Ingest(ctx context.Context, products []Product) (_ IngestReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err, "products", len(products)) }()

	items := make([]catalog.Item, len(products))
	for i, p := range products {
		items[i] = catalog.Item{
			ID:             p.ID,
			Name:           p.Name,
			Category:       p.Category,
			Price:          p.Price,
			Rating:         p.Rating,
			Specifications: p.Specifications,
		}
	}

	report, err := c.catalog.Ingest(ctx, items)
	if err != nil {
		return IngestReport{}, err
	}

	out := IngestReport{
		Total:    report.Total(),
		Stored:   report.Stored(),
		Rejected: report.Rejected(),
	}
	for _, f := range report.Failures() {
		out.Failures = append(out.Failures, IngestFailure{ID: f.ID(), Err: f.Err()})
	}
	return out, nil
}
