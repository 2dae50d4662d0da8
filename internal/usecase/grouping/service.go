package grouping

import (
	"context"
	"sort"

	"neutralnews/internal/domain/cluster"
	"neutralnews/internal/domain/entity"
	"neutralnews/internal/repository"
)

// AssignGroupIDs runs the full C6 algorithm over one batch of grouping
// candidates (§4.6) and returns the final per-article group assignments
// after density clustering, subdivision, and per-outlet deduplication.
// A nil GroupID means the article ends the run ungrouped.
func AssignGroupIDs(ctx context.Context, store repository.ArticleStore, candidates []repository.GroupingCandidate) ([]Assignment, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	var referenceCount, newCount int
	for _, c := range candidates {
		if c.Reference {
			referenceCount++
		} else {
			newCount++
		}
	}
	if newCount == 0 {
		return nil, nil
	}
	if newCount == 1 && referenceCount == 0 {
		return []Assignment{{ArticleID: candidates[0].Article.ArticleID, GroupID: nil}}, nil
	}

	members := make([]clusterMember, len(candidates))
	vectors := make([][]float64, len(candidates))
	for i, c := range candidates {
		vec := cluster.Normalize(c.Article.Embedding)
		members[i] = clusterMember{
			articleID:       c.Article.ArticleID,
			outlet:          c.Article.Outlet,
			reference:       c.Reference,
			existingGroupID: c.Article.GroupID,
			vector:          vec,
			order:           i,
		}
		vectors[i] = vec
	}

	labels := cluster.DBSCAN(vectors, cluster.Eps, entity.MinSources, cluster.NeighborK)

	maxKnown, err := store.MaxGroupID(ctx)
	if err != nil {
		return nil, err
	}
	alloc := newIDAllocator(maxKnown)

	raw := make(map[string]*int64, len(candidates))
	extra := make([]clusterMember, 0) // existing store members pulled in by a reference subdivision

	byLabel := make(map[int][]int)
	for i, label := range labels {
		byLabel[label] = append(byLabel[label], i)
	}

	// Outliers: references keep their group, new items end ungrouped.
	for _, i := range byLabel[-1] {
		if members[i].reference {
			raw[members[i].articleID] = members[i].existingGroupID
		} else {
			raw[members[i].articleID] = nil
		}
	}

	clusterLabels := make([]int, 0, len(byLabel))
	for label := range byLabel {
		if label != -1 {
			clusterLabels = append(clusterLabels, label)
		}
	}
	sort.Ints(clusterLabels)

	for _, label := range clusterLabels {
		idxs := byLabel[label]
		var refIdxs, newIdxs []int
		for _, i := range idxs {
			if members[i].reference {
				refIdxs = append(refIdxs, i)
			} else {
				newIdxs = append(newIdxs, i)
			}
		}

		if len(refIdxs) == 0 {
			assignFreshCluster(newIdxs, members, alloc, raw)
			continue
		}

		targetID := mostFrequentGroupID(refIdxs, members)
		if err := assignReferenceCluster(ctx, store, targetID, idxs, refIdxs, newIdxs, members, vectors, alloc, raw, &extra); err != nil {
			return nil, err
		}
	}

	allMembers := append(members, extra...)
	return finalize(allMembers, raw), nil
}

func assignFreshCluster(newIdxs []int, members []clusterMember, alloc *idAllocator, raw map[string]*int64) {
	clusterSize := len(newIdxs)
	if clusterSize == 0 {
		return
	}
	if clusterSize > entity.MaxGroupSize && clusterSize > entity.MinSubdivisionSize {
		parent := alloc.mintTopLevel()
		sub := subdivide(membersAt(members, newIdxs), parent, alloc)
		for id, gid := range sub {
			gid := gid
			raw[id] = &gid
		}
		return
	}
	id := alloc.mintTopLevel()
	for _, i := range newIdxs {
		gid := id
		raw[members[i].articleID] = &gid
	}
}

func assignReferenceCluster(
	ctx context.Context,
	store repository.ArticleStore,
	targetID int64,
	allIdxs, refIdxs, newIdxs []int,
	members []clusterMember,
	vectors [][]float64,
	alloc *idAllocator,
	raw map[string]*int64,
	extra *[]clusterMember,
) error {
	alloc.markTaken(targetID)

	liveSize, err := store.CountGroupItems(ctx, targetID)
	if err != nil {
		return err
	}
	needsSubdivision := liveSize+len(newIdxs) > entity.MaxGroupSize && len(allIdxs) > entity.MinSubdivisionSize

	if needsSubdivision {
		existing, err := store.ListGroupItems(ctx, targetID)
		if err != nil {
			return err
		}
		inBatch := make(map[string]bool, len(members))
		for _, m := range members {
			inBatch[m.articleID] = true
		}
		storeMembers := make([]clusterMember, 0, len(existing))
		for _, a := range existing {
			if inBatch[a.ArticleID] {
				continue
			}
			vec := cluster.Normalize(a.Embedding)
			storeMembers = append(storeMembers, clusterMember{articleID: a.ArticleID, outlet: a.Outlet, reference: true, vector: vec})
		}
		combined := make([]clusterMember, 0, len(storeMembers)+len(newIdxs))
		combined = append(combined, storeMembers...)
		for _, i := range newIdxs {
			combined = append(combined, members[i])
		}
		sub := subdivide(combined, targetID, alloc)
		for id, gid := range sub {
			gid := gid
			raw[id] = &gid
		}
		*extra = append(*extra, storeMembers...)
	} else {
		clusterVecs := make([][]float64, len(allIdxs))
		for j, i := range allIdxs {
			clusterVecs[j] = vectors[i]
		}
		similarity := cluster.MeanPairwiseSimilarity(clusterVecs)
		if similarity < cluster.NewGroupSim {
			id := alloc.mintTopLevel()
			for _, i := range newIdxs {
				gid := id
				raw[members[i].articleID] = &gid
			}
		} else {
			for _, i := range newIdxs {
				gid := targetID
				raw[members[i].articleID] = &gid
			}
		}
	}

	// Step 6: reference items always keep their original group id,
	// regardless of where the cluster's new members landed.
	for _, i := range refIdxs {
		raw[members[i].articleID] = members[i].existingGroupID
	}
	return nil
}

func membersAt(members []clusterMember, idxs []int) []clusterMember {
	out := make([]clusterMember, len(idxs))
	for j, i := range idxs {
		out[j] = members[i]
	}
	return out
}

func mostFrequentGroupID(refIdxs []int, members []clusterMember) int64 {
	counts := make(map[int64]int)
	order := make([]int64, 0)
	for _, i := range refIdxs {
		gid := members[i].existingGroupID
		if gid == nil {
			continue
		}
		if counts[*gid] == 0 {
			order = append(order, *gid)
		}
		counts[*gid]++
	}
	best := order[0]
	for _, id := range order[1:] {
		if counts[id] > counts[best] {
			best = id
		}
	}
	return best
}
