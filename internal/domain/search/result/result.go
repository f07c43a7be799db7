package result

import (
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
)

// MatchType labels why a candidate ranked.
type MatchType string

// Match types. Keyword and Semantic are produced by additive-rating fusion,
// Exact and Recommended by weighted-blend.
const (
	Keyword     MatchType = "keyword"
	Semantic    MatchType = "semantic"
	Exact       MatchType = "exact"
	Recommended MatchType = "recommended"
)

// Candidate is a scored product.
type Candidate struct {
	product    product.Product
	score      float64
	similarity float64
	boost      float64
	matchType  MatchType
}

// NewCandidate creates a scored candidate.
func NewCandidate(p product.Product, score, similarity, boost float64, mt MatchType) Candidate {
	return Candidate{
		product: p, score: score, similarity: similarity,
		boost: boost, matchType: mt,
	}
}

// Product returns the underlying product.
func (c Candidate) Product() product.Product { return c.product }

// Score returns the fused score.
func (c Candidate) Score() float64 { return c.score }

// Similarity returns the cosine similarity to the query.
func (c Candidate) Similarity() float64 { return c.similarity }

// KeywordBoost returns the lexical boost.
func (c Candidate) KeywordBoost() float64 { return c.boost }

// MatchType returns the match label.
func (c Candidate) MatchType() MatchType { return c.matchType }

// Ranking is the ordered output of one Rank call.
type Ranking struct {
	mode       mode.Mode
	candidates []Candidate
}

// NewRanking creates a Ranking. Candidates must already be sorted and truncated.
func NewRanking(m mode.Mode, candidates []Candidate) Ranking {
	return Ranking{mode: m, candidates: candidates}
}

// Empty returns a ranking with no candidates.
func Empty(m mode.Mode) Ranking {
	return Ranking{mode: m, candidates: []Candidate{}}
}

// Mode returns the fusion mode that produced the ranking.
func (r Ranking) Mode() mode.Mode { return r.mode }

// Candidates returns the ranked candidates, best first.
func (r Ranking) Candidates() []Candidate { return r.candidates }

// Len returns the number of ranked candidates.
func (r Ranking) Len() int { return len(r.candidates) }

// Best returns the top candidate.
func (r Ranking) Best() (Candidate, bool) {
	if len(r.candidates) == 0 {
		return Candidate{}, false
	}
	return r.candidates[0], true
}
