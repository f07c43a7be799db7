package request

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
)

// Search parameter limits and defaults.
const (
	// MaxQueryLength is the maximum allowed search query length in characters.
	MaxQueryLength  = 4096
	DefaultMinPrice = 0
	DefaultMaxPrice = 500000
	DefaultMode     = mode.AdditiveRating
)

// Request is a validated search query.
type Request struct {
	query      string
	criteria   filter.Criteria
	searchMode mode.Mode
}

// New validates and normalizes search parameters.
// The query is kept verbatim: surrounding whitespace takes part in phrase matching.
// A blank query is allowed (the search yields no results). Empty mode means DefaultMode,
// empty category means filter.CategoryAll.
func New(query string, minPrice, maxPrice float64, category string, m mode.Mode) (Request, error) {
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if m == "" {
		m = DefaultMode
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: %q", domain.ErrInvalidMode, m)
	}
	r, err := filter.NewRange(minPrice, maxPrice)
	if err != nil {
		return Request{}, err
	}

	return Request{
		query:      query,
		criteria:   filter.NewCriteria(r, category),
		searchMode: m,
	}, nil
}

// Query returns the search text as given.
func (r *Request) Query() string { return r.query }

// Criteria returns the price and category filters.
func (r *Request) Criteria() filter.Criteria { return r.criteria }

// Mode returns the fusion mode.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// IsEmpty reports whether there is no text to search for.
func (r *Request) IsEmpty() bool { return strings.TrimSpace(r.query) == "" }
