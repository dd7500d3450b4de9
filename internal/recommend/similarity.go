package recommend

import "math"

// CosineSimilarity computes the cosine similarity between two embedding
// vectors, clamped into [0,1]. Empty or mismatched-length vectors yield 0
// rather than an error: a candidate without a usable embedding simply earns
// no semantic score. Negative similarities are clamped to 0; ingredient
// composition vectors are not meaningfully anti-correlated in this domain.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(0, math.Min(1, sim))
}
