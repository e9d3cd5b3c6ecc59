// Package vecmath provides similarity math over embedding vectors.
package vecmath

import (
	"errors"
	"math"
)

var (
	// ErrDimensionMismatch is returned when the two vectors differ in length.
	ErrDimensionMismatch = errors.New("vectors have different dimensions")

	// ErrZeroVector is returned when either vector has zero magnitude,
	// which makes cosine similarity undefined.
	ErrZeroVector = errors.New("vector has zero magnitude")
)

// Cosine computes the cosine similarity between two embedding vectors.
// The result is in [-1, 1]. Accumulation happens in float64 to limit
// rounding drift on long vectors.
func Cosine(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}
