package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"neutralnews/internal/repository"
)

// Result summarizes one sweep run for logging/metrics.
type Result struct {
	ProtectedArticles int
	DeletedArticles   int
	DeletedGroups     int
	Duration          time.Duration
}

// Sweep runs the full C8 algorithm (§4.8): compute the protected set from
// active groups, delete unprotected articles older than the threshold in
// ArticleBatchSize batches, then delete NeutralGroups older than the
// threshold in repository.BatchSize batches.
func Sweep(ctx context.Context, store repository.ArticleStore, cfg Config) (Result, error) {
	start := time.Now()
	threshold := cfg.Threshold(time.Now().UTC())

	protected, err := ProtectedSet(ctx, store, threshold)
	if err != nil {
		return Result{}, err
	}

	deletedArticles, err := sweepArticles(ctx, store, threshold, protected)
	if err != nil {
		return Result{}, fmt.Errorf("Sweep: articles: %w", err)
	}

	deletedGroups, err := sweepGroups(ctx, store, threshold)
	if err != nil {
		return Result{}, fmt.Errorf("Sweep: groups: %w", err)
	}

	result := Result{
		ProtectedArticles: len(protected),
		DeletedArticles:   deletedArticles,
		DeletedGroups:     deletedGroups,
		Duration:          time.Since(start),
	}
	slog.Info("retention sweep completed",
		slog.Int("deleted_articles", result.DeletedArticles),
		slog.Int("deleted_groups", result.DeletedGroups),
		slog.Int("protected_articles", result.ProtectedArticles),
		slog.Duration("duration", result.Duration))
	return result, nil
}

func sweepArticles(ctx context.Context, store repository.ArticleStore, threshold time.Time, protected map[string]struct{}) (int, error) {
	ids, err := store.ListArticleIDsCreatedBefore(ctx, threshold)
	if err != nil {
		return 0, fmt.Errorf("ListArticleIDsCreatedBefore: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	toDelete := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := protected[id]; ok {
			continue
		}
		toDelete = append(toDelete, id)
	}
	if len(toDelete) == 0 {
		return 0, nil
	}

	for start := 0; start < len(toDelete); start += ArticleBatchSize {
		end := start + ArticleBatchSize
		if end > len(toDelete) {
			end = len(toDelete)
		}
		if err := store.DeleteArticles(ctx, toDelete[start:end]); err != nil {
			return start, fmt.Errorf("DeleteArticles: %w", err)
		}
	}
	return len(toDelete), nil
}

func sweepGroups(ctx context.Context, store repository.ArticleStore, threshold time.Time) (int, error) {
	ids, err := store.ListGroupIDsCreatedBefore(ctx, threshold)
	if err != nil {
		return 0, fmt.Errorf("ListGroupIDsCreatedBefore: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := store.DeleteGroups(ctx, ids); err != nil {
		return 0, fmt.Errorf("DeleteGroups: %w", err)
	}
	return len(ids), nil
}
