// Package keyword computes the lexical boost of a product name against raw query text.
//
// Matching is plain substring containment on lowercased text, not tokenized or
// stemmed matching: "phone" matches "iPhone 15" and "smartphone" alike.
package keyword

import (
	"strings"
	"unicode/utf8"
)

// Boost weights.
const (
	// PhraseBoost is added once when the whole query occurs in the name.
	PhraseBoost = 10.0
	// TokenBoost is added for every qualifying query token found in the name.
	TokenBoost = 2.0
	// MinTokenLength is the exclusive lower bound on token length (in characters).
	MinTokenLength = 3
)

// Boost returns the keyword boost for query against name.
// Both inputs are lowercased first. Token boosts are cumulative and uncapped;
// a token repeated in the query counts every time it appears.
func Boost(query, name string) float64 {
	q := strings.ToLower(query)
	if strings.TrimSpace(q) == "" {
		return 0
	}
	n := strings.ToLower(name)

	var boost float64
	if strings.Contains(n, q) {
		boost += PhraseBoost
	}
	for _, tok := range strings.Fields(q) {
		if utf8.RuneCountInString(tok) > MinTokenLength && strings.Contains(n, tok) {
			boost += TokenBoost
		}
	}
	return boost
}
