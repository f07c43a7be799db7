package product

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/prodsearch/internal/db"
	"github.com/kailas-cloud/prodsearch/internal/domain"
	domprod "github.com/kailas-cloud/prodsearch/internal/domain/product"
)

// Hash field names.
const (
	fieldName           = "name"
	fieldCategory       = "category"
	fieldPrice          = "price"
	fieldRating         = "rating"
	fieldSpecifications = "specifications"
	fieldVector         = "vector"
)

// buildHashFields converts a Product into a flat map for HSET.
func buildHashFields(p *domprod.Product) map[string]string {
	return map[string]string{
		fieldName:           p.Name(),
		fieldCategory:       p.Category(),
		fieldPrice:          strconv.FormatFloat(p.Price(), 'f', -1, 64),
		fieldRating:         strconv.FormatFloat(p.Rating(), 'f', -1, 64),
		fieldSpecifications: p.Specifications(),
		fieldVector:         string(db.EncodeVector(p.Embedding())),
	}
}

// requiredFields must be present and non-blank in every stored hash.
var requiredFields = []string{fieldName, fieldCategory, fieldPrice, fieldRating}

// parseHashFields converts a hash back into a Product. An absent or blank
// required field yields a *domain.MissingFieldError.
func parseHashFields(id string, m map[string]string) (domprod.Product, error) {
	for _, f := range requiredFields {
		if strings.TrimSpace(m[f]) == "" {
			return domprod.Product{}, domain.NewMissingField(f)
		}
	}
	if m[fieldVector] == "" {
		return domprod.Product{}, domain.NewMissingField(fieldVector)
	}
	price, err := strconv.ParseFloat(m[fieldPrice], 64)
	if err != nil {
		return domprod.Product{}, fmt.Errorf("%w: price of %s: %w", domain.ErrInvalidProduct, id, err)
	}
	rating, err := strconv.ParseFloat(m[fieldRating], 64)
	if err != nil {
		return domprod.Product{}, fmt.Errorf("%w: rating of %s: %w", domain.ErrInvalidProduct, id, err)
	}
	vec, err := db.DecodeVector([]byte(m[fieldVector]))
	if err != nil {
		return domprod.Product{}, fmt.Errorf("%w: vector of %s: %w", domain.ErrInvalidProduct, id, err)
	}
	return domprod.Reconstruct(
		id, m[fieldName], m[fieldCategory], price, rating,
		m[fieldSpecifications], vec,
	), nil
}
