package mode

import (
	"fmt"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// Mode is the score fusion strategy.
type Mode string

// Fusion mode constants.
const (
	// AdditiveRating adds keyword boost to similarity and scales by rating.
	// Low-relevance candidates without keyword support are dropped.
	AdditiveRating Mode = "additive-rating"
	// WeightedBlend blends similarity and normalized rating. No relevance floor.
	WeightedBlend Mode = "weighted-blend"
)

// Result limits per mode.
const (
	AdditiveRatingLimit = 10
	WeightedBlendLimit  = 20
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == AdditiveRating || m == WeightedBlend
}

// Limit returns the maximum number of ranked results for the mode.
func (m Mode) Limit() int {
	switch m {
	case AdditiveRating:
		return AdditiveRatingLimit
	case WeightedBlend:
		return WeightedBlendLimit
	default:
		return 0
	}
}

// Parse converts a string to a Mode.
func Parse(s string) (Mode, error) {
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidMode, s)
	}
	return m, nil
}
