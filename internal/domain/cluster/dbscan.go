package cluster

// DBSCAN clusters normalized embedding vectors using a precomputed k-NN
// cosine-distance graph, mirroring the original's
// NearestNeighbors(metric="cosine").kneighbors_graph(...) followed by
// DBSCAN(eps=..., min_samples=..., metric="precomputed").fit_predict. Each
// point's neighborhood is its own k-NN list filtered to entries within eps;
// a point is a core point once itself plus its in-eps neighbors reach
// minSamples. Returned labels are 0-based cluster ids, or -1 for noise.
func DBSCAN(vectors [][]float64, eps float64, minSamples, k int) []int {
	n := len(vectors)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	if n == 0 {
		return labels
	}

	graph := KNearest(vectors, k)
	region := func(i int) []int {
		neighbors := make([]int, 0, len(graph[i]))
		for _, nb := range graph[i] {
			if nb.Distance <= eps {
				neighbors = append(neighbors, nb.Index)
			}
		}
		return neighbors
	}

	visited := make([]bool, n)
	clusterID := 0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true
		neighbors := region(i)
		if len(neighbors)+1 < minSamples {
			continue
		}

		labels[i] = clusterID
		seeds := append([]int{}, neighbors...)
		for idx := 0; idx < len(seeds); idx++ {
			j := seeds[idx]
			if !visited[j] {
				visited[j] = true
				jNeighbors := region(j)
				if len(jNeighbors)+1 >= minSamples {
					seeds = append(seeds, jNeighbors...)
				}
			}
			if labels[j] == -1 {
				labels[j] = clusterID
			}
		}
		clusterID++
	}
	return labels
}
