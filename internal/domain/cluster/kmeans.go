package cluster

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// maxKMeansIterations bounds Lloyd's algorithm; with the small per-cluster
// batches this subdivides, convergence happens well before this is hit.
const maxKMeansIterations = 100

// KMeansSubdivide partitions vectors into k clusters via Lloyd's algorithm
// over euclidean distance in the (unit-normalized) embedding space, with
// k-means++ seeded initialization for determinism across runs given the
// same input and seed. Mirrors the original's
// KMeans(n_clusters=k, random_state=42) subdivision step. Returns one
// label per input vector in [0, k).
func KMeansSubdivide(vectors [][]float64, k int, seed int64) []int {
	n := len(vectors)
	labels := make([]int, n)
	if n == 0 {
		return labels
	}
	if k >= n {
		for i := range labels {
			labels[i] = i
		}
		return labels
	}

	rng := rand.New(rand.NewSource(seed))
	centroids := kmeansPlusPlusInit(vectors, k, rng)

	for iter := 0; iter < maxKMeansIterations; iter++ {
		changed := false
		for i, v := range vectors {
			best, bestDist := 0, sqDist(v, centroids[0])
			for c := 1; c < k; c++ {
				if d := sqDist(v, centroids[c]); d < bestDist {
					best, bestDist = c, d
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		dim := len(vectors[0])
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, v := range vectors {
			c := labels[i]
			floats.Add(sums[c], v)
			counts[c]++
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			centroids[c] = sums[c]
		}
	}
	return labels
}

func kmeansPlusPlusInit(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(vectors)
	centroids := make([][]float64, 0, k)
	first := rng.Intn(n)
	centroids = append(centroids, append([]float64{}, vectors[first]...))

	dist := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i, v := range vectors {
			d := sqDist(v, centroids[len(centroids)-1])
			if len(centroids) == 1 || d < dist[i] {
				dist[i] = d
			}
			total += dist[i]
		}
		if total == 0 {
			centroids = append(centroids, append([]float64{}, vectors[rng.Intn(n)]...))
			continue
		}
		target := rng.Float64() * total
		var acc float64
		chosen := n - 1
		for i, d := range dist {
			acc += d
			if acc >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, append([]float64{}, vectors[chosen]...))
	}
	return centroids
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
