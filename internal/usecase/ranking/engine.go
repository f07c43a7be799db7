// Package ranking scores a candidate list against a query and returns the top-K
// products. It performs no I/O and is safe for concurrent use.
package ranking

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/keyword"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/query"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/domain/vector"
)

// Stats counts candidates through each ranking stage.
type Stats struct {
	Input    int // candidates supplied
	Filtered int // survived price and category filters
	Skipped  int // dropped for dimension mismatch (lenient policy only)
	Relevant int // survived fusion (relevance floor)
	Returned int // after truncation
}

// Observer receives per-call ranking statistics.
type Observer interface {
	ObserveRanking(m mode.Mode, stats Stats, elapsed time.Duration)
}

// Engine ranks products: filter, score, fuse, sort, truncate.
type Engine struct {
	skipMismatched bool
	logger         *zap.Logger
	observer       Observer
}

// Option configures the Engine.
type Option func(*Engine)

// WithSkipMismatched skips candidates whose embedding length differs from the
// query's instead of failing the whole call.
func WithSkipMismatched() Option {
	return func(e *Engine) { e.skipMismatched = true }
}

// WithLogger sets the logger used for skipped candidates.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver sets the stats observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// New creates a ranking engine. Dimension mismatches are fatal unless WithSkipMismatched is given.
func New(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Rank filters candidates by q's criteria, scores survivors under mode m,
// and returns at most m.Limit() candidates in descending score order.
// Ties keep the input order. A query without an embedding yields an empty ranking.
// Neither q nor candidates are modified.
func (e *Engine) Rank(q query.Query, candidates []product.Product, m mode.Mode) (result.Ranking, error) {
	if !m.IsValid() {
		return result.Ranking{}, fmt.Errorf("%w: %q", domain.ErrInvalidMode, m)
	}
	if !q.HasEmbedding() {
		return result.Empty(m), nil
	}

	start := time.Now()
	stats := Stats{Input: len(candidates)}
	qvec := q.Embedding()
	criteria := q.Criteria()

	scored := make([]result.Candidate, 0, len(candidates))
	for _, p := range candidates {
		if !criteria.Matches(p) {
			continue
		}
		stats.Filtered++

		if p.Dimensions() != len(qvec) {
			if !e.skipMismatched {
				return result.Ranking{}, &domain.DimensionMismatchError{
					ProductID: p.ID(), Expected: len(qvec), Actual: p.Dimensions(),
				}
			}
			stats.Skipped++
			e.logger.Warn("skipping candidate with mismatched embedding",
				zap.String("product_id", p.ID()),
				zap.Int("expected", len(qvec)),
				zap.Int("actual", p.Dimensions()),
			)
			continue
		}

		sim, err := vector.Cosine(qvec, p.Embedding())
		if err != nil {
			return result.Ranking{}, fmt.Errorf("score %s: %w", p.ID(), err)
		}
		s := signals{
			similarity: sim,
			boost:      keyword.Boost(q.Text(), p.Name()),
			rating:     p.Rating(),
		}
		score, mt, keep := fuse(m, s)
		if !keep {
			continue
		}
		scored = append(scored, result.NewCandidate(p, score, s.similarity, s.boost, mt))
	}
	stats.Relevant = len(scored)

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score() > scored[j].Score()
	})

	if len(scored) > m.Limit() {
		scored = scored[:m.Limit()]
	}
	stats.Returned = len(scored)

	if e.observer != nil {
		e.observer.ObserveRanking(m, stats, time.Since(start))
	}

	return result.NewRanking(m, scored), nil
}
