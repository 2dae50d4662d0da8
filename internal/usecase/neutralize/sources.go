package neutralize

import (
	"sort"

	"neutralnews/internal/domain/entity"
)

// significantIncreaseSteps lists the original's step thresholds: when a
// group held oldCount sources, reaching the mapped newCount counts as a
// significant increase. needsUpdate re-runs the LLM only when this and the
// change_ratio gate (below) both hold.
var significantIncreaseSteps = map[int]int{3: 6, 6: 9, 9: 12, 12: 14}

// needsUpdateRatio is the minimum fractional growth (or shrinkage) in
// source count a re-synthesis needs, together with a significant increase
// (check_if_update_needed).
const needsUpdateRatio = 0.5

// SelectSources runs the full source-selection pipeline (§4.7): sort by
// recency, drop incomplete articles, keep one per outlet (most recent
// wins), cap at entity.SourcesLimit, and sanity-check the survivor count.
// It mutates neither members nor the store; it only narrows the slice the
// caller will send to the model. The second return is every article §4.7
// steps 3b/3d mark for unassignment: per-outlet dedup losers and
// SOURCES_LIMIT overflow. Incomplete articles dropped in step 3a are not
// included — the original's validate_initial_sources filters them without
// touching the store. dropped is still populated when err is non-nil, so
// callers can propagate those unassignments even when the group itself is
// skipped for insufficient sources.
func SelectSources(members []*entity.Article) (selected, dropped []*entity.Article, err error) {
	sorted := append([]*entity.Article(nil), members...)
	sortByRecency(sorted)

	selected = dropIncomplete(sorted)
	selected, outletLosers := dedupeByOutlet(selected)
	selected, overflow := applySourcesLimit(selected)
	dropped = append(outletLosers, overflow...)

	if len(selected) < entity.MinSources {
		return nil, dropped, ErrInsufficientSources
	}
	return selected, dropped, nil
}

// needsUpdate decides whether a KindChanged group's member-set delta is
// large enough to warrant calling the model again, versus patching
// source_ids alone and leaving the prior neutral text in place
// (check_if_update_needed skips when change_ratio < 0.5 OR not
// significant_increase, i.e. proceeds only when both hold).
func needsUpdate(oldCount, newCount int) bool {
	if oldCount == 0 {
		return true
	}
	changeRatio := float64(abs(newCount-oldCount)) / float64(oldCount)
	if changeRatio < needsUpdateRatio {
		return false
	}
	return significantIncrease(oldCount, newCount)
}

// significantIncrease reports whether newCount cleared the step threshold
// recorded for oldCount in significantIncreaseSteps; an oldCount with no
// listed step never counts as significant.
func significantIncrease(oldCount, newCount int) bool {
	threshold, ok := significantIncreaseSteps[oldCount]
	return ok && newCount >= threshold
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sortByRecency(members []*entity.Article) {
	sort.SliceStable(members, func(i, j int) bool {
		if !members[i].PubDate.Equal(members[j].PubDate) {
			return members[i].PubDate.After(members[j].PubDate)
		}
		return members[i].CreatedAt.After(members[j].CreatedAt)
	})
}

// dropIncomplete removes articles missing the fields the prompt needs:
// title and some description (validate_initial_sources).
func dropIncomplete(members []*entity.Article) []*entity.Article {
	out := make([]*entity.Article, 0, len(members))
	for _, m := range members {
		if m.Title == "" {
			continue
		}
		if m.ScrapedDescription == "" && m.RawDescription == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

// dedupeByOutlet keeps a single article per outlet, preferring the most
// recently published (ties broken by CreatedAt), mirroring
// deduplicate_sources_by_medium. members must already be sorted by
// recency; the first-seen-per-outlet entry is always the winner. The
// second return is every loser, for the caller to unassign from the
// store (§4.7 step 3b).
func dedupeByOutlet(members []*entity.Article) (kept, losers []*entity.Article) {
	seen := make(map[string]bool, len(members))
	kept = make([]*entity.Article, 0, len(members))
	for _, m := range members {
		if seen[m.Outlet] {
			losers = append(losers, m)
			continue
		}
		seen[m.Outlet] = true
		kept = append(kept, m)
	}
	return kept, losers
}

// applySourcesLimit caps members at entity.SourcesLimit, returning the
// overflow separately so the caller can unassign it (§4.7 step 3d).
func applySourcesLimit(members []*entity.Article) (kept, overflow []*entity.Article) {
	if len(members) <= entity.SourcesLimit {
		return members, nil
	}
	return members[:entity.SourcesLimit], members[entity.SourcesLimit:]
}
