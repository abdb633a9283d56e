package semantic

import "math"

// CosineSimilarity returns the cosine of the angle between a and b in
// [-1, 1], or 0 when either vector is zero or the dimensions differ.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
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
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// NormalizeScore clamps a raw cosine similarity into [0, 1]. Negative
// similarities carry no useful signal for preference matching.
func NormalizeScore(similarity float32) float32 {
	if similarity < 0 {
		return 0
	}
	if similarity > 1 {
		return 1
	}
	return similarity
}
