package semantic

import "math"

// cosineSimilarity computes the cosine similarity between two embedding
// vectors.
//
// Formula: similarity = (a · b) / (||a|| * ||b||)
// where · is dot product and ||x|| is the L2 norm (Euclidean length).
// Returns 0 for mismatched lengths or zero vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
