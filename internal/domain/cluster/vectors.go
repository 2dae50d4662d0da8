package cluster

import "gonum.org/v1/gonum/floats"

// Normalize L2-normalizes each embedding to unit length, matching the
// original's embeddings_norm preprocessing before the k-NN graph is built.
// A vector whose norm is effectively zero (an unembedded article that still
// carries the provider-failure zero vector) is returned unchanged so its
// cosine similarity to every other point is 0 (distance 1) instead of NaN.
func Normalize(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	norm := floats.Norm(out, 2)
	if norm < 1e-10 {
		return out
	}
	floats.Scale(1/norm, out)
	return out
}

// CosineSimilarity assumes both vectors are already unit-normalized, so it
// reduces to a dot product.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	return floats.Dot(a, b)
}

// CosineDistance is the DBSCAN metric: 1 - cosine similarity.
func CosineDistance(a, b []float64) float64 {
	return 1 - CosineSimilarity(a, b)
}

// MeanPairwiseSimilarity is the cluster-quality score used both to accept a
// k-means sub-cluster (SubdivSim) and to decide whether a reference cluster
// is cohesive enough to join its target group (NewGroupSim). A singleton or
// empty set has no pairs and scores 0.
func MeanPairwiseSimilarity(vectors [][]float64) float64 {
	n := len(vectors)
	if n < 2 {
		return 0
	}
	var sum float64
	var count int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum += CosineSimilarity(vectors[i], vectors[j])
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
