package domain

// DefaultKeyPrefix namespaces every key written to the key-value store.
const DefaultKeyPrefix = "prodsearch:"

// VectorConfig holds the embedding model defaults.
type VectorConfig struct {
	Model      string
	Dimensions int
}

// DefaultVectorConfig returns the default configuration tuned for all-MiniLM-L6-v2.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:      "sentence-transformers/all-MiniLM-L6-v2",
		Dimensions: 384,
	}
}
