package cluster

import "sort"

// Neighbor is one entry of a point's k-nearest-neighbor list.
type Neighbor struct {
	Index    int
	Distance float64
}

// KNearest builds a directed k-NN graph over the given (already normalized)
// vectors, one neighbor list per point, sorted by ascending cosine
// distance and capped at k entries. A point is never its own neighbor.
// This mirrors sklearn's NearestNeighbors(metric="cosine").kneighbors_graph
// call in the original, with k clamped to min(NeighborK, N-1).
func KNearest(vectors [][]float64, k int) [][]Neighbor {
	n := len(vectors)
	graph := make([][]Neighbor, n)
	if n <= 1 {
		for i := range graph {
			graph[i] = nil
		}
		return graph
	}
	if k > n-1 {
		k = n - 1
	}
	for i := 0; i < n; i++ {
		neighbors := make([]Neighbor, 0, n-1)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			neighbors = append(neighbors, Neighbor{Index: j, Distance: CosineDistance(vectors[i], vectors[j])})
		}
		sort.Slice(neighbors, func(a, b int) bool { return neighbors[a].Distance < neighbors[b].Distance })
		if len(neighbors) > k {
			neighbors = neighbors[:k]
		}
		graph[i] = neighbors
	}
	return graph
}
