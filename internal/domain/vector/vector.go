// Package vector holds the numeric primitives used to compare embeddings.
// All accumulation happens in float64 regardless of the float32 storage type.
package vector

import (
	"math"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// Norm returns the Euclidean norm sqrt(sum(v_i^2)).
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product of a and b.
// Fails with domain.ErrDimensionMismatch when the lengths differ.
func Dot(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.NewDimensionMismatch(len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum, nil
}

// Cosine returns dot(a,b) / (norm(a)*norm(b)).
// Returns exactly 0 when either vector has zero norm. The result is not clamped,
// so float noise may land marginally outside [-1, 1].
func Cosine(a, b []float32) (float64, error) {
	dot, err := Dot(a, b)
	if err != nil {
		return 0, err
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (na * nb), nil
}
