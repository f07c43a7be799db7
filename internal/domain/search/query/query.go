package query

import "github.com/kailas-cloud/prodsearch/internal/domain/search/filter"

// Query is what the ranking engine scores candidates against.
type Query struct {
	text      string
	embedding []float32
	criteria  filter.Criteria
}

// New creates a Query. A nil or empty embedding means no semantic signal is available.
func New(text string, embedding []float32, criteria filter.Criteria) Query {
	return Query{text: text, embedding: embedding, criteria: criteria}
}

// Text returns the raw query text used for keyword boosting.
func (q Query) Text() string { return q.text }

// Embedding returns the query vector.
func (q Query) Embedding() []float32 { return q.embedding }

// Criteria returns the hard filters.
func (q Query) Criteria() filter.Criteria { return q.criteria }

// HasEmbedding reports whether a query vector is present.
func (q Query) HasEmbedding() bool { return len(q.embedding) > 0 }
