package filter

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
)

// CategoryAll disables the category constraint.
const CategoryAll = "All"

// RelevanceFloor is the minimum cosine similarity a candidate without any
// keyword support needs to survive additive-rating fusion.
const RelevanceFloor = 0.4

// Range is an inclusive price interval.
type Range struct {
	min float64
	max float64
}

// NewRange validates and creates an inclusive price Range.
func NewRange(lower, upper float64) (Range, error) {
	if math.IsNaN(lower) || math.IsNaN(upper) {
		return Range{}, fmt.Errorf("%w: price bounds must be numbers", domain.ErrInvalidRequest)
	}
	if lower < 0 || upper < 0 {
		return Range{}, fmt.Errorf("%w: price bounds must be non-negative", domain.ErrInvalidRequest)
	}
	if lower > upper {
		return Range{}, fmt.Errorf("%w: min_price %.2f exceeds max_price %.2f",
			domain.ErrInvalidRequest, lower, upper)
	}
	return Range{min: lower, max: upper}, nil
}

// Min returns the lower bound.
func (r Range) Min() float64 { return r.min }

// Max returns the upper bound.
func (r Range) Max() float64 { return r.max }

// Contains reports whether price lies within [min, max].
func (r Range) Contains(price float64) bool {
	return price >= r.min && price <= r.max
}

// Criteria holds the hard filters applied before scoring.
type Criteria struct {
	price    Range
	category string
}

// NewCriteria creates Criteria. An empty category means CategoryAll.
func NewCriteria(price Range, category string) Criteria {
	if category == "" {
		category = CategoryAll
	}
	return Criteria{price: price, category: category}
}

// Price returns the price range.
func (c Criteria) Price() Range { return c.price }

// Category returns the category label or CategoryAll.
func (c Criteria) Category() string { return c.category }

// AnyCategory reports whether the category constraint is disabled.
func (c Criteria) AnyCategory() bool { return c.category == CategoryAll }

// Matches applies the price and category constraints. Category comparison is case-sensitive.
func (c Criteria) Matches(p product.Product) bool {
	if !c.price.Contains(p.Price()) {
		return false
	}
	return c.AnyCategory() || p.Category() == c.category
}

// Relevant reports whether a scored candidate passes the relevance floor:
// any keyword support keeps it, otherwise similarity must reach RelevanceFloor.
func Relevant(similarity, boost float64) bool {
	return boost != 0 || similarity >= RelevanceFloor
}
