package prodsearch

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver     string // "redis" or "sqlite"
	addrs      []string
	password   string
	sqlitePath string
	keyPrefix  string

	embedder     Embedder
	skipMismatch bool
	chatMaxPrice float64
	workers      int
	batchSize    int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis stores the catalog in a Redis or Valkey instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithSQLite stores the catalog in a local SQLite file.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite"
		c.sqlitePath = path
	})
}

// WithKeyPrefix sets the Redis key prefix. Default: "prodsearch:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithEmbedder sets the text embedding provider.
// Without it Search returns no results and Ingest rejects every product.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithSkipDimensionMismatch drops stored products whose vector length differs
// from the query instead of failing the search.
func WithSkipDimensionMismatch() Option {
	return optionFunc(func(c *clientConfig) {
		c.skipMismatch = true
	})
}

// WithChatMaxPrice sets the price ceiling used by Recommend. Default: 1,000,000.
func WithChatMaxPrice(p float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.chatMaxPrice = p
	})
}

// WithIngestConcurrency sets Ingest worker count and batch size. Zero keeps defaults.
func WithIngestConcurrency(workers, batchSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = workers
		c.batchSize = batchSize
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK and ranking metrics on the given registerer.
// Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
