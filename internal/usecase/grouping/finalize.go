package grouping

import (
	"sort"

	"neutralnews/internal/domain/entity"
)

// finalize applies §4.6 step 7: within each group, keep at most one article
// per outlet (reference items win ties, then density-cluster insertion
// order); drop groups that fall under MinSources with no surviving
// reference, emitting their members ungrouped. If every member in the
// whole batch ends up ungrouped, a sequential-id fallback kicks in so the
// run never produces a completely empty result.
func finalize(members []clusterMember, raw map[string]*int64) []Assignment {
	buckets := make(map[int64][]clusterMember)
	var ungrouped []clusterMember

	for _, m := range members {
		gid, ok := raw[m.articleID]
		if !ok || gid == nil {
			ungrouped = append(ungrouped, m)
			continue
		}
		buckets[*gid] = append(buckets[*gid], m)
	}

	final := make(map[string]*int64, len(members))
	for gid, bucket := range buckets {
		keep, losers := dedupByOutlet(bucket)

		hasReference := false
		for _, m := range keep {
			if m.reference {
				hasReference = true
				break
			}
		}
		if len(keep) < entity.MinSources && !hasReference {
			for _, m := range keep {
				final[m.articleID] = nil
			}
		} else {
			id := gid
			for _, m := range keep {
				final[m.articleID] = &id
			}
		}
		for _, m := range losers {
			final[m.articleID] = nil
		}
	}
	for _, m := range ungrouped {
		final[m.articleID] = nil
	}

	allGrouped := false
	for _, gid := range final {
		if gid != nil {
			allGrouped = true
			break
		}
	}
	if !allGrouped && len(final) > 0 {
		assignSequentialFallback(members, final)
	}

	assignments := make([]Assignment, 0, len(final))
	for _, m := range members {
		assignments = append(assignments, Assignment{ArticleID: m.articleID, GroupID: final[m.articleID]})
	}
	return assignments
}

// dedupByOutlet keeps at most one member per outlet, preferring reference
// members and otherwise the earliest density-cluster insertion order.
func dedupByOutlet(bucket []clusterMember) (keep, losers []clusterMember) {
	sorted := make([]clusterMember, len(bucket))
	copy(sorted, bucket)
	sort.SliceStable(sorted, func(i, j int) bool { return rank(sorted[i], sorted[j]) })

	seen := make(map[string]bool)
	for _, m := range sorted {
		if seen[m.outlet] {
			losers = append(losers, m)
			continue
		}
		seen[m.outlet] = true
		keep = append(keep, m)
	}
	return keep, losers
}

// rank reports whether a sorts before b: references first, then by
// original insertion order.
func rank(a, b clusterMember) bool {
	if a.reference != b.reference {
		return a.reference
	}
	return a.order < b.order
}

func assignSequentialFallback(members []clusterMember, final map[string]*int64) {
	var next int64
	for _, m := range members {
		id := next
		final[m.articleID] = &id
		next++
	}
}
