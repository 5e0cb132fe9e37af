package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

const defaultDimensions = 128

// Hashing is a local, dependency-free Provider that embeds text by hashing
// its tokens and character trigrams into a fixed-dimension vector.
//
// It is far weaker than a trained model but shares the properties the
// semantic detector needs: identical texts map to identical vectors, texts
// sharing tokens score high, and the output is fully deterministic. It is
// the default provider when no embedding service is configured, and the one
// used in tests.
type Hashing struct {
	dims int
}

// NewHashing creates a hashing embedder. dims <= 0 uses the default (128).
func NewHashing(dims int) *Hashing {
	if dims <= 0 {
		dims = defaultDimensions
	}
	return &Hashing{dims: dims}
}

func (h *Hashing) Name() string { return "hashing" }

// Embed maps each text to an L2-normalised vector. Never fails.
func (h *Hashing) Embed(_ context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = h.embedOne(text)
	}
	return vectors, nil
}

func (h *Hashing) embedOne(text string) []float64 {
	vec := make([]float64, h.dims)

	for _, token := range tokenize(text) {
		// Whole tokens carry more weight than trigrams so exact word
		// overlap dominates sub-word similarity.
		h.add(vec, token, 1.0)
		for _, gram := range trigrams(token) {
			h.add(vec, gram, 0.25)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// add folds a feature into the vector with a hash-derived index and sign.
func (h *Hashing) add(vec []float64, feature string, weight float64) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()

	idx := int(sum % uint64(h.dims))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}

func trigrams(token string) []string {
	if len(token) < 3 {
		return nil
	}
	grams := make([]string, 0, len(token)-2)
	for i := 0; i+3 <= len(token); i++ {
		grams = append(grams, token[i:i+3])
	}
	return grams
}
