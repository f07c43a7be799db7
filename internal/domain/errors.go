package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a malformed search or chat request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidMode signals an unknown fusion mode.
	ErrInvalidMode = errors.New("invalid fusion mode")
	// ErrMissingField signals a product record without a required field.
	ErrMissingField = errors.New("missing field")
	// ErrInvalidProduct signals a product record with an out-of-domain value.
	ErrInvalidProduct = errors.New("invalid product")
	// ErrDimensionMismatch signals that query and candidate embeddings differ in length.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrCorruptRecord signals a stored product that cannot be hydrated.
	ErrCorruptRecord = errors.New("corrupt catalog record")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbedderUnavailable signals that the embedder produced no vector.
	ErrEmbedderUnavailable = errors.New("embedder unavailable")
)

// DimensionMismatchError wraps ErrDimensionMismatch with the offending lengths.
// ProductID is empty when the mismatch is detected outside of a ranking pass.
type DimensionMismatchError struct {
	ProductID string
	Expected  int
	Actual    int
}

func (e *DimensionMismatchError) Error() string {
	if e.ProductID == "" {
		return fmt.Sprintf("%s: expected %d, got %d", ErrDimensionMismatch.Error(), e.Expected, e.Actual)
	}
	return fmt.Sprintf("%s: product %q has %d dimensions, query has %d",
		ErrDimensionMismatch.Error(), e.ProductID, e.Actual, e.Expected)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(expected, actual int) error {
	return &DimensionMismatchError{Expected: expected, Actual: actual}
}

// MissingFieldError wraps ErrMissingField with the field name.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField.Error(), e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return &MissingFieldError{Field: field}
}
