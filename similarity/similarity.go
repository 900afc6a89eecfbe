// Package similarity provides various similarity algorithms for comparing embedding vectors.
package similarity

import "errors"

// ErrZeroMagnitude indicates cosine similarity was computed on a
// zero-magnitude vector, for which the result is undefined.
var ErrZeroMagnitude = errors.New("cosine similarity undefined for zero-magnitude vector")

// SimilarityFunc represents a function that computes similarity between two
// embedding vectors. It should return a score where higher values indicate
// greater similarity, or an error when the score is undefined for the inputs.
type SimilarityFunc func(a, b []float32) (float32, error)
