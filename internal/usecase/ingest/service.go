// Package ingest wires the per-run pipeline (§4, C2-C7): fetch every
// outlet's feed, enrich new items into articles, embed and group them, and
// neutralize every group the grouping pass touched. It is the use-case
// layer cmd/worker's cron job calls once per tick, generalizing the
// teacher's CrawlAllSources shape across the wider pipeline.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"neutralnews/internal/domain/entity"
	"neutralnews/internal/infra/enrich"
	"neutralnews/internal/infra/feed"
	"neutralnews/internal/repository"
	"neutralnews/internal/usecase/embedding"
	"neutralnews/internal/usecase/grouping"
	"neutralnews/internal/usecase/neutralize"

	"golang.org/x/sync/errgroup"
)

// RecentWindow bounds how far back list_for_grouping looks for grouping
// candidates and list_group_ids_recent looks for reference groups
// (RECENT_WINDOW_HOURS=48).
const RecentWindow = 48 * time.Hour

// EnrichParallelism bounds concurrent C3 enrichment workers (§5).
const EnrichParallelism = 20

// Stats summarizes one ingest run for logging and metrics.
type Stats struct {
	Outlets       int
	FeedItems     int
	Enriched      int
	Inserted      int
	Embedded      int
	GroupsTouched int
	Neutralized   int
	Duration      time.Duration
}

// Service holds every dependency one ingest run needs.
type Service struct {
	Store             repository.ArticleStore
	Fetcher           *feed.Fetcher
	Enricher          *enrich.Enricher
	EmbeddingProvider embedding.Provider
	Neutralizer       *neutralize.Neutralizer
}

func New(store repository.ArticleStore, fetcher *feed.Fetcher, enricher *enrich.Enricher, embeddingProvider embedding.Provider, neutralizer *neutralize.Neutralizer) *Service {
	return &Service{
		Store:             store,
		Fetcher:           fetcher,
		Enricher:          enricher,
		EmbeddingProvider: embeddingProvider,
		Neutralizer:       neutralizer,
	}
}

// Run executes one full ingest-and-neutralize pass: C2 fetch, C3 enrich,
// C4 persist, C5 embed, C6 group, C7 neutralize. A failure in one stage for
// one item never aborts the run; only store-level errors that would make
// every later stage meaningless (grouping, neutralization) are returned.
func (s *Service) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	stats := Stats{}

	s.Enricher.ResetDedup()

	outlets := entity.AllOutlets()
	stats.Outlets = len(outlets)

	items := s.Fetcher.FetchAll(ctx, outlets)
	stats.FeedItems = len(items)

	items = s.filterAlreadyStored(ctx, items)

	articles := s.enrichAll(ctx, items, &stats)
	stats.Enriched = len(articles)

	inserted := s.persistAll(ctx, articles, &stats)

	if s.EmbeddingProvider != nil && len(inserted) > 0 {
		if err := embedding.EncodeAndPersist(ctx, s.Store, s.EmbeddingProvider, inserted); err != nil {
			slog.Warn("embedding pass finished with errors", slog.Any("error", err))
		}
		stats.Embedded = len(inserted)
	}

	touched, err := s.groupAll(ctx)
	if err != nil {
		return stats, fmt.Errorf("group: %w", err)
	}
	stats.GroupsTouched = len(touched)

	if len(touched) > 0 && s.Neutralizer != nil {
		jobs, err := s.buildGroupJobs(ctx, touched)
		if err != nil {
			return stats, fmt.Errorf("build group jobs: %w", err)
		}
		outcomes := s.Neutralizer.Run(ctx, jobs)
		for _, o := range outcomes {
			if o.Success {
				stats.Neutralized++
			} else {
				slog.Warn("neutralize failed", slog.Int64("group_id", o.GroupID), slog.String("reason", o.Reason))
			}
		}
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// filterAlreadyStored is C3's mandatory "first filter" (§4.3): drop any
// fetched item whose normalized link already exists in the store for
// that outlet, before it ever reaches full-body scraping. Links are
// looked up once per outlet rather than once per item.
func (s *Service) filterAlreadyStored(ctx context.Context, items []feed.Item) []feed.Item {
	byOutlet := make(map[string][]feed.Item)
	for _, it := range items {
		byOutlet[it.Outlet] = append(byOutlet[it.Outlet], it)
	}

	kept := make([]feed.Item, 0, len(items))
	for outlet, outletItems := range byOutlet {
		existingLinks, err := s.Store.ListLinksByOutlet(ctx, outlet)
		if err != nil {
			slog.Warn("list_links_by_outlet failed, skipping first filter for outlet",
				slog.String("outlet", outlet), slog.Any("error", err))
			kept = append(kept, outletItems...)
			continue
		}
		for _, it := range outletItems {
			if _, ok := existingLinks[entity.NormalizeLink(it.Link)]; ok {
				continue
			}
			kept = append(kept, it)
		}
	}
	return kept
}

// enrichAll runs C3 over every fetched item, bounded to EnrichParallelism
// concurrent workers; a single item's failure is logged and skipped.
func (s *Service) enrichAll(ctx context.Context, items []feed.Item, stats *Stats) []*entity.Article {
	sem := make(chan struct{}, EnrichParallelism)
	var mu sync.Mutex
	var articles []*entity.Article

	eg, egCtx := errgroup.WithContext(ctx)
	for _, item := range items {
		it := item
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			article, err := s.Enricher.Enrich(egCtx, it)
			if err != nil {
				slog.Warn("enrich failed", slog.String("outlet", it.Outlet), slog.String("link", it.Link), slog.Any("error", err))
				return nil
			}
			if article == nil {
				return nil
			}
			mu.Lock()
			articles = append(articles, article)
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()
	return articles
}

// persistAll writes every enriched article through C4, skipping links
// already stored (PutArticle's own idempotency) and returning only the
// articles that were actually new, for C5 to embed.
func (s *Service) persistAll(ctx context.Context, articles []*entity.Article, stats *Stats) []*entity.Article {
	var inserted []*entity.Article
	for _, a := range articles {
		ok, err := s.Store.PutArticle(ctx, a)
		if err != nil {
			slog.Warn("put_article failed", slog.String("link", a.Link), slog.Any("error", err))
			continue
		}
		if ok {
			stats.Inserted++
			inserted = append(inserted, a)
		}
	}
	return inserted
}

// groupAll runs C6 over the recent-window candidate set and applies every
// resulting group_id delta, returning the distinct group ids touched this
// run (the set C7 must (re-)neutralize).
func (s *Service) groupAll(ctx context.Context) ([]int64, error) {
	candidates, err := s.Store.ListForGrouping(ctx, RecentWindow)
	if err != nil {
		return nil, fmt.Errorf("list_for_grouping: %w", err)
	}

	assignments, err := grouping.AssignGroupIDs(ctx, s.Store, candidates)
	if err != nil {
		return nil, fmt.Errorf("assign_group_ids: %w", err)
	}

	seen := make(map[int64]bool)
	var touched []int64
	for _, a := range assignments {
		if err := s.Store.UpdateGroupID(ctx, a.ArticleID, a.GroupID); err != nil {
			slog.Warn("update_group_id failed", slog.String("article_id", a.ArticleID), slog.Any("error", err))
			continue
		}
		if a.GroupID == nil {
			continue
		}
		if !seen[*a.GroupID] {
			seen[*a.GroupID] = true
			touched = append(touched, *a.GroupID)
		}
	}
	return touched, nil
}

// buildGroupJobs loads each touched group's current members and (if any)
// existing NeutralGroup row, sorted by most recent pub_date first so the
// freshest work runs first (§4.7 step 2).
func (s *Service) buildGroupJobs(ctx context.Context, groupIDs []int64) ([]neutralize.GroupJob, error) {
	jobs := make([]neutralize.GroupJob, 0, len(groupIDs))
	for _, id := range groupIDs {
		members, err := s.Store.ListGroupItems(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list_group_items(%d): %w", id, err)
		}
		if len(members) == 0 {
			continue
		}
		existing, err := s.Store.GetGroup(ctx, id)
		if err != nil {
			existing = nil
		}
		jobs = append(jobs, neutralize.GroupJob{GroupID: id, Existing: existing, Members: members})
	}
	sortJobsByRecency(jobs)
	return jobs, nil
}

func sortJobsByRecency(jobs []neutralize.GroupJob) {
	for i := 1; i < len(jobs); i++ {
		for j := i; j > 0 && newestPubDate(jobs[j].Members).After(newestPubDate(jobs[j-1].Members)); j-- {
			jobs[j], jobs[j-1] = jobs[j-1], jobs[j]
		}
	}
}

func newestPubDate(members []*entity.Article) time.Time {
	var newest time.Time
	for _, m := range members {
		if m.PubDate.After(newest) {
			newest = m.PubDate
		}
	}
	return newest
}
