package catalog

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	dombatch "github.com/kailas-cloud/prodsearch/internal/domain/batch"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
)

// Ingest defaults.
const (
	DefaultBatchSize = 64
	MaxBatchSize     = 1024
)

// Item is a raw catalog record before embedding.
type Item struct {
	ID             string
	Name           string
	Category       string
	Price          float64
	Rating         float64
	Specifications string
}

// Config tunes ingest concurrency. Zero values select defaults.
type Config struct {
	Workers   int
	BatchSize int
}

// Service embeds catalog records and stores them as products.
type Service struct {
	repo      ProductWriter
	embed     Embedder
	workers   int
	batchSize int
	logger    *zap.Logger
}

// New creates a catalog ingest service.
func New(repo ProductWriter, embed Embedder, cfg Config, logger *zap.Logger) *Service {
	workers := cfg.Workers
	if workers < 1 {
		workers = max(runtime.NumCPU()/2, 1)
	}
	size := cfg.BatchSize
	if size < 1 {
		size = DefaultBatchSize
	}
	size = min(size, MaxBatchSize)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, embed: embed, workers: workers, batchSize: size, logger: logger}
}

// Ingest embeds "<name> <category> <specifications>" for every item, validates the
// resulting products and upserts them. Batches run concurrently on a worker pool.
// Per-item failures land in the report; the returned error is reserved for
// cancellation and pool failures.
func (s *Service) Ingest(ctx context.Context, items []Item) (dombatch.Report, error) {
	results := make([]dombatch.Result, len(items))
	if len(items) == 0 {
		return dombatch.NewReport(results), nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return dombatch.Report{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	start := time.Now()
	var wg sync.WaitGroup

	for off := 0; off < len(items); off += s.batchSize {
		end := min(off+s.batchSize, len(items))
		chunk, out := items[off:end], results[off:end]

		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			s.ingestBatch(ctx, chunk, out)
		}); err != nil {
			wg.Done()
			rejectAll(chunk, out, fmt.Errorf("submit batch: %w", err))
		}
	}

	wg.Wait()

	report := dombatch.NewReport(results)
	s.logger.Info("Catalog ingest finished",
		zap.Int("total", report.Total()),
		zap.Int("stored", report.Stored()),
		zap.Int("rejected", report.Rejected()),
		zap.Duration("duration", time.Since(start)),
	)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("ingest interrupted: %w", err)
	}
	return report, nil
}

// ingestBatch fills out[i] for every chunk[i]. Slices are disjoint per batch.
func (s *Service) ingestBatch(ctx context.Context, chunk []Item, out []dombatch.Result) {
	if err := ctx.Err(); err != nil {
		rejectAll(chunk, out, err)
		return
	}

	// Scalar fields are checked before paying for an embedding.
	pending := make([]int, 0, len(chunk))
	texts := make([]string, 0, len(chunk))
	for i, it := range chunk {
		if _, err := it.toProduct(placeholderVector); err != nil {
			out[i] = dombatch.NewRejected(it.ID, err)
			continue
		}
		pending = append(pending, i)
		texts = append(texts, product.EmbeddingText(it.Name, it.Category, it.Specifications))
	}
	if len(pending) == 0 {
		return
	}

	emb, err := s.batchEmbed(ctx, texts)
	if err != nil {
		s.logger.Error("Batch embedding failed", zap.Int("items", len(pending)), zap.Error(err))
		for _, i := range pending {
			out[i] = dombatch.NewRejected(chunk[i].ID, err)
		}
		return
	}

	valid := make([]product.Product, 0, len(pending))
	stored := make([]int, 0, len(pending))
	for k, i := range pending {
		p, err := chunk[i].toProduct(emb.Embeddings[k])
		if err != nil {
			out[i] = dombatch.NewRejected(chunk[i].ID, err)
			continue
		}
		valid = append(valid, p)
		stored = append(stored, i)
	}
	if len(valid) == 0 {
		return
	}

	if _, err := s.repo.UpsertMany(ctx, valid); err != nil {
		err = fmt.Errorf("upsert products: %w", err)
		for _, i := range stored {
			out[i] = dombatch.NewRejected(chunk[i].ID, err)
		}
		return
	}
	for _, i := range stored {
		out[i] = dombatch.NewStored(chunk[i].ID)
	}

	s.logger.Debug("Catalog batch stored",
		zap.Int("stored", len(stored)),
		zap.Int("total_tokens", emb.TotalTokens),
	)
}

func (s *Service) batchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	var (
		res domain.BatchEmbeddingResult
		err error
	)
	if be, ok := s.embed.(domain.BatchEmbedder); ok {
		res, err = be.BatchEmbed(ctx, texts)
	} else {
		res, err = domain.BatchFallback(ctx, s.embed, texts)
	}
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed products: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf(
			"%w: got %d embeddings for %d texts",
			domain.ErrEmbeddingProviderError, len(res.Embeddings), len(texts),
		)
	}
	return res, nil
}

var placeholderVector = []float32{0}

func (it Item) toProduct(vec []float32) (product.Product, error) {
	return product.New(it.ID, it.Name, it.Category, it.Price, it.Rating, it.Specifications, vec)
}

func rejectAll(chunk []Item, out []dombatch.Result, err error) {
	for i, it := range chunk {
		out[i] = dombatch.NewRejected(it.ID, err)
	}
}
