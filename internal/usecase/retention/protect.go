package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"neutralnews/internal/repository"
)

// ProtectedSet collects the union of source_ids across every NeutralGroup
// still active (date >= threshold), mirroring protect.py's
// protect_referenced_news: those articles must survive the sweep
// regardless of their own created_at.
func ProtectedSet(ctx context.Context, store repository.ArticleStore, threshold time.Time) (map[string]struct{}, error) {
	groups, err := store.QueryRecentGroups(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("ProtectedSet: QueryRecentGroups: %w", err)
	}

	protected := make(map[string]struct{})
	for _, g := range groups {
		for _, id := range g.SourceIDs {
			protected[id] = struct{}{}
		}
	}
	slog.Info("retention: computed protected set",
		slog.Int("active_groups", len(groups)), slog.Int("protected_articles", len(protected)))
	return protected, nil
}
