// Package embed defines the text-embedding collaborator used by the semantic
// relationship detector, plus the vector math shared by its consumers.
//
// A Provider must be deterministic for a fixed model version: the same input
// list always yields the same vectors. The semantic detector relies on this
// for reproducible candidate sets.
package embed

import (
	"context"
	"math"
)

// Provider maps a list of texts to a list of equal-length numeric vectors.
type Provider interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float64, error)

	// Name identifies the provider and model for logging.
	Name() string
}

// Cosine returns the cosine similarity of two vectors.
// Returns 0 when either vector has zero magnitude or lengths differ.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
