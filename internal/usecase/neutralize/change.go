package neutralize

import (
	"sort"

	"neutralnews/internal/domain/entity"
)

// classifyChange compares a group's existing recorded source_ids against
// its current member set, mirroring neutralize_and_more's classification
// step: identical sorted id lists mean no update is needed at all.
func classifyChange(existing *entity.NeutralGroup, members []*entity.Article) ChangeKind {
	if existing == nil {
		return KindNew
	}

	current := sortedCopy(existing.SourceIDs)
	updated := make([]string, 0, len(members))
	for _, m := range members {
		updated = append(updated, m.ArticleID)
	}
	updated = sortedCopy(updated)

	if stringSlicesEqual(current, updated) {
		return KindUnchanged
	}
	return KindChanged
}

func sortedCopy(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
