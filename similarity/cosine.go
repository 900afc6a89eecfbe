package similarity

import "math"

// CosineSimilarity computes the cosine of the angle between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction,
// independent of magnitude. Returns ErrZeroMagnitude if either vector has
// zero magnitude, since the result is undefined there.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, nil
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroMagnitude
	}

	return dot / float32(math.Sqrt(float64(normA))*math.Sqrt(float64(normB))), nil
}
