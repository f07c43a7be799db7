package prodsearch

import (
	"fmt"

	domprod "github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/query"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/request"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/usecase/ranking"
)

// Rank scores caller-supplied products against q.Embedding without touching storage.
// Products are validated first; an invalid product fails the call. Empty text or
// an empty query embedding yields no results. A product whose embedding length
// differs from the query yields ErrDimensionMismatch.
func Rank(q Query, products []Product) ([]Result, error) {
	req, err := toRequest(q)
	if err != nil {
		return nil, err
	}
	if req.IsEmpty() {
		return nil, nil
	}

	candidates := make([]domprod.Product, 0, len(products))
	for i := range products {
		p, err := toDomainProduct(&products[i], products[i].Embedding)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", i, err)
		}
		candidates = append(candidates, p)
	}

	ranked, err := ranking.New().Rank(query.New(req.Query(), q.Embedding, req.Criteria()), candidates, req.Mode())
	if err != nil {
		return nil, err
	}
	return fromRanking(ranked), nil
}

func toRequest(q Query) (request.Request, error) {
	maxPrice := q.MaxPrice
	if maxPrice == 0 {
		maxPrice = DefaultMaxPrice
	}
	category := q.Category
	if category == "" {
		category = CategoryAll
	}
	return request.New(q.Text, q.MinPrice, maxPrice, category, mode.Mode(q.Mode))
}

func toDomainProduct(p *Product, embedding []float32) (domprod.Product, error) {
	return domprod.New(p.ID, p.Name, p.Category, p.Price, p.Rating, p.Specifications, embedding)
}

func fromProduct(p domprod.Product) Product {
	return Product{
		ID:             p.ID(),
		Name:           p.Name(),
		Category:       p.Category(),
		Price:          p.Price(),
		Rating:         p.Rating(),
		Specifications: p.Specifications(),
		Embedding:      p.Embedding(),
	}
}

func fromCandidate(c result.Candidate) Result {
	return Result{
		Product:      fromProduct(c.Product()),
		Score:        c.Score(),
		Similarity:   c.Similarity(),
		KeywordBoost: c.KeywordBoost(),
		MatchType:    MatchType(c.MatchType()),
	}
}

func fromRanking(r result.Ranking) []Result {
	out := make([]Result, 0, r.Len())
	for _, c := range r.Candidates() {
		out = append(out, fromCandidate(c))
	}
	return out
}
