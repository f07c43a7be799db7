package chi

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/prodsearch/internal/usecase/search"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeInvalidMode            ErrorCode = "invalid_mode"
	CodeNotFound               ErrorCode = "not_found"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeDimensionMismatch      ErrorCode = "vector_dimension_mismatch"
	CodeCorruptRecord          ErrorCode = "corrupt_catalog_record"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeEmbedderUnavailable    ErrorCode = "embedder_unavailable"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the POST /api/v1/search body. Omitted fields take the defaults
// of request.New.
type SearchRequest struct {
	Query    string   `json:"query" validate:"max=4096"`
	MinPrice *float64 `json:"min_price" validate:"omitempty,gte=0"`
	MaxPrice *float64 `json:"max_price" validate:"omitempty,gte=0"`
	Category *string  `json:"category" validate:"omitempty,max=256"`
	Mode     *string  `json:"mode"`
}

// ChatRequest is the POST /api/v1/chat body.
type ChatRequest struct {
	Message string `json:"message" validate:"max=4096"`
}

// ProductItem is a ranked product without its embedding.
type ProductItem struct {
	ProductID      string  `json:"product_id"`
	ProductName    string  `json:"product_name"`
	Category       string  `json:"category"`
	Price          float64 `json:"price"`
	Rating         float64 `json:"rating"`
	Specifications string  `json:"specifications"`
	Score          float64 `json:"score"`
	Similarity     float64 `json:"similarity"`
	KeywordBoost   float64 `json:"keyword_boost"`
	MatchType      string  `json:"match_type"`
}

// SearchResponse is the search result list.
type SearchResponse struct {
	Items []ProductItem `json:"items"`
	Total int           `json:"total"`
	Mode  string        `json:"mode"`
}

// ChatResponse is the conversational reply.
type ChatResponse struct {
	Response  string       `json:"response"`
	ProductID *string      `json:"product_id,omitempty"`
	BestMatch *ProductItem `json:"best_match,omitempty"`
}

// RootResponse is the GET / body.
type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Products int               `json:"products"`
}

const noMatchReply = "I'm sorry, I couldn't find any products matching your requirements. " +
	"Could you try describing it differently?"

func candidateToItem(c *result.Candidate) ProductItem {
	p := c.Product()
	return ProductItem{
		ProductID:      p.ID(),
		ProductName:    p.Name(),
		Category:       p.Category(),
		Price:          p.Price(),
		Rating:         p.Rating(),
		Specifications: p.Specifications(),
		Score:          c.Score(),
		Similarity:     c.Similarity(),
		KeywordBoost:   c.KeywordBoost(),
		MatchType:      string(c.MatchType()),
	}
}

func rankingToResponse(r result.Ranking) SearchResponse {
	cands := r.Candidates()
	items := make([]ProductItem, len(cands))
	for i := range cands {
		items[i] = candidateToItem(&cands[i])
	}
	return SearchResponse{Items: items, Total: len(items), Mode: string(r.Mode())}
}

func recommendationToResponse(rec *searchuc.Recommendation) ChatResponse {
	item := candidateToItem(&rec.Best)
	id := item.ProductID
	return ChatResponse{
		Response:  recommendationReply(&item),
		ProductID: &id,
		BestMatch: &item,
	}
}

func recommendationReply(item *ProductItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on your request, I highly recommend the **%s**. ", item.ProductName)
	fmt.Fprintf(&b, "It's currently priced at ₹%s. ", humanize.Commaf(item.Price))
	if item.Specifications != "" {
		fmt.Fprintf(&b, "It features: %s. ", strings.ReplaceAll(item.Specifications, "|", ", "))
	}
	fmt.Fprintf(&b, "It has a solid rating of %.1f/5.0 from verified users. ", item.Rating)
	b.WriteString("Would you like me to find more details or show you similar options?")
	return b.String()
}
