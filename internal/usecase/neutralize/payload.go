package neutralize

import (
	"sort"

	"neutralnews/internal/domain/entity"
	"neutralnews/internal/infra/llm"
)

// minTruncationLimit is the floor the original applies even when the
// average description is short (prepare_sources_for_api): truncate only
// past max(2*avg, 10000) characters.
const minTruncationLimit = 10000

// truncationSuffix marks a description that was cut for length.
const truncationSuffix = "... [descripción truncada]"

// buildPayload shapes the selected articles into the model's source list,
// truncating any description past max(2*avg, 10000) chars so a handful of
// long articles don't blow the whole prompt's token budget.
func buildPayload(members []*entity.Article) []llm.SourceInput {
	descs := make([]string, len(members))
	total := 0
	for i, m := range members {
		descs[i] = describe(m)
		total += len(descs[i])
	}

	limit := minTruncationLimit
	if len(members) > 0 {
		if avg2 := 2 * (total / len(members)); avg2 > limit {
			limit = avg2
		}
	}

	out := make([]llm.SourceInput, len(members))
	for i, m := range members {
		out[i] = llm.SourceInput{
			Outlet:      m.Outlet,
			Title:       m.Title,
			Description: truncate(descs[i], limit, truncationSuffix),
		}
	}
	return out
}

// shortestSourcesFallback rebuilds the payload from only the 3 shortest
// selected articles at 5000/3000/2000-char limits, the original's
// last-ditch retry for a context_length_exceeded error
// (generate_neutral_analysis_single's fallback branch).
func shortestSourcesFallback(members []*entity.Article) []llm.SourceInput {
	sorted := append([]*entity.Article(nil), members...)
	sort.Slice(sorted, func(i, j int) bool {
		return len(describe(sorted[i])) < len(describe(sorted[j]))
	})

	limits := []int{5000, 3000, 2000}
	n := len(limits)
	if len(sorted) < n {
		n = len(sorted)
	}

	out := make([]llm.SourceInput, n)
	for i := 0; i < n; i++ {
		out[i] = llm.SourceInput{
			Outlet:      sorted[i].Outlet,
			Title:       sorted[i].Title,
			Description: truncate(describe(sorted[i]), limits[i], truncationSuffix),
		}
	}
	return out
}

func describe(a *entity.Article) string {
	if a.ScrapedDescription != "" {
		return a.ScrapedDescription
	}
	return a.RawDescription
}

func truncate(s string, limit int, suffix string) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + suffix
}
