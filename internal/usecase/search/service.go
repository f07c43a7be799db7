package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/query"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/request"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/prodsearch/internal/logger"
	"github.com/kailas-cloud/prodsearch/internal/usecase/ranking"
)

// DefaultChatMaxPrice is the upper price bound used by Recommend.
const DefaultChatMaxPrice = 1_000_000

// Recommendation is the outcome of a conversational lookup.
type Recommendation struct {
	Best    result.Candidate
	Ranking result.Ranking
}

// Service embeds queries, fetches candidates and ranks them.
type Service struct {
	source       CandidateSource
	embed        Embedder
	engine       *ranking.Engine
	chatMaxPrice float64
	logger       *zap.Logger
}

// New creates a search service. A non-positive chatMaxPrice selects DefaultChatMaxPrice.
func New(
	source CandidateSource, embed Embedder, engine *ranking.Engine,
	chatMaxPrice float64, logger *zap.Logger,
) *Service {
	if chatMaxPrice <= 0 {
		chatMaxPrice = DefaultChatMaxPrice
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source:       source,
		embed:        embed,
		engine:       engine,
		chatMaxPrice: chatMaxPrice,
		logger:       logger,
	}
}

// Search ranks the catalog against req. An empty query, or an embedder that yields
// no vector, produces an empty ranking rather than an error.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Ranking, error) {
	if req.IsEmpty() {
		return result.Empty(req.Mode()), nil
	}

	start := time.Now()
	ctx = logpkg.With(ctx, zap.String("search_mode", string(req.Mode())))

	vec, err := s.vectorize(ctx, req.Query())
	if err != nil {
		return result.Ranking{}, err
	}
	if len(vec) == 0 {
		return result.Empty(req.Mode()), nil
	}

	candidates, err := s.source.Candidates(ctx, req.Criteria())
	if err != nil {
		return result.Ranking{}, fmt.Errorf("fetch candidates: %w", err)
	}

	ranked, err := s.engine.Rank(query.New(req.Query(), vec, req.Criteria()), candidates, req.Mode())
	if err != nil {
		return result.Ranking{}, fmt.Errorf("rank: %w", err)
	}

	s.log(ctx).Debug("Search completed",
		zap.String("mode", string(req.Mode())),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", ranked.Len()),
		zap.Duration("duration", time.Since(start)),
	)

	return ranked, nil
}

// Recommend runs an additive-rating search over every category up to the chat price
// ceiling and returns the best match. domain.ErrNotFound means nothing qualified.
func (s *Service) Recommend(ctx context.Context, message string) (Recommendation, error) {
	req, err := request.New(message, 0, s.chatMaxPrice, filter.CategoryAll, mode.AdditiveRating)
	if err != nil {
		return Recommendation{}, fmt.Errorf("build chat request: %w", err)
	}

	ranked, err := s.Search(ctx, &req)
	if err != nil {
		return Recommendation{}, err
	}

	best, ok := ranked.Best()
	if !ok {
		return Recommendation{}, fmt.Errorf("no product matches %q: %w", req.Query(), domain.ErrNotFound)
	}
	return Recommendation{Best: best, Ranking: ranked}, nil
}

func (s *Service) vectorize(ctx context.Context, text string) ([]float32, error) {
	res, err := s.embed.Embed(ctx, text)
	switch {
	case errors.Is(err, domain.ErrEmbedderUnavailable):
		s.log(ctx).Warn("Embedder unavailable, returning empty result", zap.Error(err))
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("vectorize query: %w", err)
	case res.Empty():
		s.log(ctx).Warn("Embedder returned no vector, returning empty result",
			zap.Error(domain.ErrEmbedderUnavailable))
		return nil, nil
	}
	return res.Embedding, nil
}

// log prefers the request-scoped logger carried by ctx.
func (s *Service) log(ctx context.Context) *zap.Logger {
	return logpkg.FromContextOr(ctx, s.logger)
}
