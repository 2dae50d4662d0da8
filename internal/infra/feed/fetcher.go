package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"neutralnews/internal/domain/entity"
	"neutralnews/internal/resilience/circuitbreaker"
	"neutralnews/internal/resilience/retry"
	"neutralnews/internal/robots"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
)

// MaxWorkers bounds the number of outlets polled concurrently (§5).
const MaxWorkers = 16

// Gate restricts fetching to allowed URLs, satisfied by *robots.Gate.
type Gate interface {
	Allow(ctx context.Context, rawURL string, purpose robots.Purpose) (bool, error)
}

// Fetcher is the C2 feed fetcher: one instance polls every configured
// outlet, returning raw items for C3 enrichment.
type Fetcher struct {
	client  *http.Client
	gate    Gate
	parser  *gofeed.Parser
	retryCf retry.Config

	mu      sync.Mutex
	circuit map[string]*circuitbreaker.CircuitBreaker
}

func NewFetcher(client *http.Client, gate Gate) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	fp := gofeed.NewParser()
	fp.UserAgent = "NeutralNewsBot/1.0"
	fp.Client = client

	return &Fetcher{
		client:  client,
		gate:    gate,
		parser:  fp,
		retryCf: retry.FeedFetchConfig(),
		circuit: make(map[string]*circuitbreaker.CircuitBreaker),
	}
}

func (f *Fetcher) breakerFor(outlet string) *circuitbreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := f.circuit[outlet]; ok {
		return cb
	}
	cfg := circuitbreaker.FeedFetchConfig()
	cfg.Name = "feed-fetch-" + outlet
	cb := circuitbreaker.New(cfg)
	f.circuit[outlet] = cb
	return cb
}

// FetchAll polls every outlet in the registry concurrently (bounded by
// MaxWorkers) and returns every item collected. A single outlet's failure
// never aborts the batch, matching fetch_all_rss's per-medium isolation.
func (f *Fetcher) FetchAll(ctx context.Context, outlets []entity.Outlet) []Item {
	sem := make(chan struct{}, MaxWorkers)
	var mu sync.Mutex
	var all []Item

	eg, egCtx := errgroup.WithContext(ctx)
	for _, outlet := range outlets {
		o := outlet
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			items, err := f.FetchOutlet(egCtx, o)
			if err != nil {
				slog.Warn("feed fetch failed",
					slog.String("outlet", o.Tag), slog.Any("error", err))
				return nil
			}
			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()
	return all
}

// FetchOutlet fetches and parses a single outlet's feed, wrapped in
// per-outlet retry and circuit breaking.
func (f *Fetcher) FetchOutlet(ctx context.Context, outlet entity.Outlet) ([]Item, error) {
	if f.gate != nil {
		allowed, err := f.gate.Allow(ctx, outlet.FeedURL, robots.PurposeFeed)
		if err != nil {
			slog.Warn("robots check failed, proceeding", slog.String("outlet", outlet.Tag), slog.Any("error", err))
		} else if !allowed {
			slog.Warn("feed possibly blocked by robots.txt, continuing", slog.String("outlet", outlet.Tag))
		}
	}

	cb := f.breakerFor(outlet.Tag)
	var items []Item

	retryErr := retry.WithBackoff(ctx, f.retryCf, func() error {
		result, err := cb.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, outlet)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open",
					slog.String("outlet", outlet.Tag), slog.String("state", cb.State().String()))
			}
			return err
		}
		items = result.([]Item)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return items, nil
}

func (f *Fetcher) doFetch(ctx context.Context, outlet entity.Outlet) ([]Item, error) {
	parsed, err := f.parser.ParseURLWithContext(outlet.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", outlet.Tag, err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		link := it.Link
		if link == "" {
			continue
		}

		pubDate := time.Now().UTC()
		if it.Published != "" {
			if parsedTime, ok := entity.ParsePubDate(it.Published); ok {
				pubDate = parsedTime
			}
		} else if it.PublishedParsed != nil {
			pubDate = it.PublishedParsed.UTC()
		}

		items = append(items, Item{
			Outlet:      outlet.Tag,
			Title:       it.Title,
			Link:        link,
			Description: it.Description,
			Category:    firstCategory(it.Categories),
			ImageURL:    extractImageURL(it),
			PubDate:     pubDate,
		})
	}
	return items, nil
}
