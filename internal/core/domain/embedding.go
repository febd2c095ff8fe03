package domain

import (
	"fmt"
	"math"
)

// EmbeddingDimensions is the fixed size of every stored and queried vector.
const EmbeddingDimensions = 384

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-length copy of v.
// A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	n := Norm(v)
	for i, x := range v {
		if n > 0 {
			out[i] = float32(float64(x) / n)
		} else {
			out[i] = x
		}
	}
	return out
}

// CosineSimilarity returns dot(a, b) / (|a| * |b|).
// The boolean is false when the similarity is undefined: lengths differ,
// a vector is empty, or either norm is zero.
func CosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, false
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}

// ValidateEmbeddings checks that there is exactly one embedding per paragraph
// and that every embedding has EmbeddingDimensions values.
func ValidateEmbeddings(paragraphs []string, embeddings [][]float32) error {
	if len(paragraphs) != len(embeddings) {
		return fmt.Errorf("%w: %d paragraphs, %d embeddings",
			ErrDimensionMismatch, len(paragraphs), len(embeddings))
	}
	for i, e := range embeddings {
		if len(e) != EmbeddingDimensions {
			return fmt.Errorf("%w: embedding %d has %d dimensions, want %d",
				ErrDimensionMismatch, i, len(e), EmbeddingDimensions)
		}
	}
	return nil
}
