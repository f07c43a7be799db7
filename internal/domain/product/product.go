package product

import (
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// Rating bounds.
const (
	MinRating = 0.0
	MaxRating = 5.0
)

// Product is the immutable catalog record the ranking engine scores.
type Product struct {
	id             string
	name           string
	category       string
	price          float64
	rating         float64
	specifications string
	embedding      []float32
}

// New validates and creates a Product. Empty id, name, category or embedding
// yield a *domain.MissingFieldError; a negative price or a rating outside
// [0, 5] yields domain.ErrInvalidProduct. The embedding is copied.
func New(
	id, name, category string, price, rating float64,
	specifications string, embedding []float32,
) (Product, error) {
	switch {
	case strings.TrimSpace(id) == "":
		return Product{}, domain.NewMissingField("product_id")
	case strings.TrimSpace(name) == "":
		return Product{}, domain.NewMissingField("product_name")
	case strings.TrimSpace(category) == "":
		return Product{}, domain.NewMissingField("category")
	case len(embedding) == 0:
		return Product{}, domain.NewMissingField("vector")
	}
	if math.IsNaN(price) || price < 0 {
		return Product{}, fmt.Errorf("%w: price must be non-negative, got %v", domain.ErrInvalidProduct, price)
	}
	if math.IsNaN(rating) || rating < MinRating || rating > MaxRating {
		return Product{}, fmt.Errorf("%w: rating must be between %.1f and %.1f, got %v",
			domain.ErrInvalidProduct, MinRating, MaxRating, rating)
	}

	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	return Product{
		id:             id,
		name:           name,
		category:       category,
		price:          price,
		rating:         rating,
		specifications: specifications,
		embedding:      vec,
	}, nil
}

// Reconstruct creates a Product without validation (storage hydration).
func Reconstruct(
	id, name, category string, price, rating float64,
	specifications string, embedding []float32,
) Product {
	return Product{
		id: id, name: name, category: category,
		price: price, rating: rating,
		specifications: specifications, embedding: embedding,
	}
}

// ID returns the product identifier.
func (p Product) ID() string { return p.id }

// Name returns the display name.
func (p Product) Name() string { return p.name }

// Category returns the category label.
func (p Product) Category() string { return p.category }

// Price returns the price.
func (p Product) Price() float64 { return p.price }

// Rating returns the user rating in [0, 5].
func (p Product) Rating() float64 { return p.rating }

// Specifications returns the free-text specification line.
func (p Product) Specifications() string { return p.specifications }

// Embedding returns the precomputed embedding. Callers must not modify it.
func (p Product) Embedding() []float32 { return p.embedding }

// Dimensions returns the embedding length.
func (p Product) Dimensions() int { return len(p.embedding) }

// SpecList splits the specification line on "|" and trims each entry.
func (p Product) SpecList() []string {
	if p.specifications == "" {
		return nil
	}
	parts := strings.Split(p.specifications, "|")
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// EmbeddingText is the text a catalog item is embedded from: name, category and specifications.
func EmbeddingText(name, category, specifications string) string {
	return fmt.Sprintf("%s %s %s", name, category, specifications)
}
