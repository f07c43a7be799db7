package ranking

import (
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
)

// Fusion constants.
const (
	// ratingScale turns a 0-5 rating into a 1.0-1.5 multiplier.
	ratingScale = 10.0
	maxRating   = 5.0

	similarityWeight = 0.7
	ratingWeight     = 0.3

	// exactThreshold is the similarity above which weighted-blend labels a hit "exact".
	exactThreshold = 0.8
)

// signals are the per-candidate inputs to fusion.
type signals struct {
	similarity float64
	boost      float64
	rating     float64
}

// fuse computes the final score for a candidate. keep is false when the
// candidate must be dropped (additive-rating relevance floor).
func fuse(m mode.Mode, s signals) (score float64, mt result.MatchType, keep bool) {
	switch m {
	case mode.AdditiveRating:
		return fuseAdditive(s)
	case mode.WeightedBlend:
		return fuseWeighted(s)
	default:
		return 0, "", false
	}
}

// fuseAdditive: (similarity + boost) * (1 + rating/10).
func fuseAdditive(s signals) (float64, result.MatchType, bool) {
	if !filter.Relevant(s.similarity, s.boost) {
		return 0, "", false
	}
	mt := result.Semantic
	if s.boost > 0 {
		mt = result.Keyword
	}
	return (s.similarity + s.boost) * (1 + s.rating/ratingScale), mt, true
}

// fuseWeighted: similarity*0.7 + rating/5*0.3. Keyword boost does not contribute.
func fuseWeighted(s signals) (float64, result.MatchType, bool) {
	mt := result.Recommended
	if s.similarity > exactThreshold {
		mt = result.Exact
	}
	return s.similarity*similarityWeight + s.rating/maxRating*ratingWeight, mt, true
}
