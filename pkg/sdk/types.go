package prodsearch

// Mode selects the score fusion strategy.
type Mode string

// Mode constants.
const (
	// ModeAdditiveRating scores (similarity + keyword boost) * (1 + rating/10).
	ModeAdditiveRating Mode = "additive-rating"
	// ModeWeightedBlend scores similarity*0.7 + rating/5*0.3.
	ModeWeightedBlend Mode = "weighted-blend"

	// DefaultMode is used when Query.Mode is empty.
	DefaultMode = ModeAdditiveRating
)

// MatchType labels why a result ranked.
type MatchType string

// MatchType constants.
const (
	MatchKeyword     MatchType = "keyword"
	MatchSemantic    MatchType = "semantic"
	MatchExact       MatchType = "exact"
	MatchRecommended MatchType = "recommended"
)

// Query defaults applied to zero values.
const (
	DefaultMaxPrice = 500000
	CategoryAll     = "All"
)

// Product is a catalog record. Embedding is required for Rank and
// ignored by Client.Ingest, which computes it.
type Product struct {
	ID             string
	Name           string
	Category       string
	Price          float64
	Rating         float64
	Specifications string
	Embedding      []float32
}

// Query describes a search. Zero MaxPrice means DefaultMaxPrice,
// empty Category means CategoryAll, empty Mode means ModeAdditiveRating.
// Embedding is used by Rank only; Client.Search embeds Text itself.
type Query struct {
	Text      string
	Embedding []float32
	MinPrice  float64
	MaxPrice  float64
	Category  string
	Mode      Mode
}

// Result is a single ranked product.
type Result struct {
	Product      Product
	Score        float64
	Similarity   float64
	KeywordBoost float64
	MatchType    MatchType
}

// Recommendation is the best match for a chat message plus the full ranking.
type Recommendation struct {
	Best    Result
	Results []Result
}

// IngestFailure describes a rejected product.
type IngestFailure struct {
	ID  string
	Err error
}

// IngestReport summarizes a Client.Ingest call.
type IngestReport struct {
	Total    int
	Stored   int
	Rejected int
	Failures []IngestFailure
}
