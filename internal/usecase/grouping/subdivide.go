package grouping

import (
	"neutralnews/internal/domain/cluster"
)

// subdivideClamp bounds the k-means cluster count to [2, 5], per
// clamp(max(2, |items|/TARGET_SUBGROUP_SIZE), 2, 5).
func subdivideClamp(n int) int {
	k := n / cluster.TargetSubgroupSize
	if k < 2 {
		k = 2
	}
	if k > 5 {
		k = 5
	}
	if k > n {
		k = n
	}
	return k
}

// subdivide splits an oversized cluster with k-means and accepts only the
// sub-clusters whose mean pairwise cosine similarity clears SubdivSim and
// whose size is at least 2 (§4.6 step 5). Every member ends up in the
// returned map: accepted sub-clusters get a fresh 7-digit id derived from
// parentID, everything else falls back to parentID itself.
func subdivide(members []clusterMember, parentID int64, alloc *idAllocator) map[string]int64 {
	result := make(map[string]int64, len(members))
	n := len(members)
	if n == 0 {
		return result
	}

	k := subdivideClamp(n)
	vectors := make([][]float64, n)
	for i, m := range members {
		vectors[i] = m.vector
	}
	labels := cluster.KMeansSubdivide(vectors, k, cluster.KMeansSeed)

	groups := make(map[int][]int, k)
	for i, label := range labels {
		groups[label] = append(groups[label], i)
	}

	base := alloc.deriveBaseID(parentID, k)
	subIndex := int64(0)
	for label := 0; label < k; label++ {
		idxs, ok := groups[label]
		if !ok {
			subIndex++
			continue
		}
		subVectors := make([][]float64, len(idxs))
		for j, i := range idxs {
			subVectors[j] = vectors[i]
		}
		if len(idxs) >= 2 && cluster.MeanPairwiseSimilarity(subVectors) >= cluster.SubdivSim {
			id := base + subIndex
			for _, i := range idxs {
				result[members[i].articleID] = id
			}
		}
		subIndex++
	}

	for _, m := range members {
		if _, ok := result[m.articleID]; !ok {
			result[m.articleID] = parentID
		}
	}
	return result
}
