package enrich

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"neutralnews/internal/domain/entity"
	"neutralnews/internal/infra/feed"
	"neutralnews/internal/resilience/circuitbreaker"
	"neutralnews/internal/robots"

	"github.com/go-shiori/go-readability"
	"github.com/google/uuid"
)

// Gate restricts body fetches to allowed URLs, satisfied by *robots.Gate.
type Gate interface {
	Allow(ctx context.Context, rawURL string, purpose robots.Purpose) (bool, error)
}

// Enricher is the C3 article enricher: it turns a raw feed item into a
// persistable entity.Article, fetching the full body when the feed
// description is too thin.
type Enricher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	gate           Gate
	dedup          *ContentDedup
	config         Config
}

func NewEnricher(config Config, gate Gate) *Enricher {
	cbConfig := circuitbreaker.Config{
		Name:             "article-enrich",
		MaxRequests:      5,
		Interval:         60 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}

	e := &Enricher{
		circuitBreaker: circuitbreaker.New(cbConfig),
		gate:           gate,
		dedup:          NewContentDedup(),
		config:         config,
	}

	e.client = &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= e.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if err := validateURL(req.URL.String(), e.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}
	return e
}

// Enrich implements the per-item algorithm of §4.3: fetch the body when the
// feed description is too thin and robots allows it, reject empty/short/
// duplicate bodies, and emit a fresh Article. It returns (nil, nil) when the
// item is rejected rather than erroring, since rejections are routine and
// only ever observed through the per-outlet counters.
func (e *Enricher) Enrich(ctx context.Context, item feed.Item) (*entity.Article, error) {
	recordEvent(item.Outlet, eventRequestsMade)

	body := item.Description
	if wordCount(item.Description) < e.config.MinWords {
		allowed := true
		if e.gate != nil {
			var err error
			allowed, err = e.gate.Allow(ctx, item.Link, robots.PurposeBody)
			if err != nil {
				slog.Warn("robots check failed, proceeding", slog.String("link", item.Link), slog.Any("error", err))
				allowed = true
			}
		}
		if !allowed {
			recordEvent(item.Outlet, eventBlockedByRobots)
			body = item.Description
		} else if scraped, err := e.fetchBody(ctx, item.Link); err == nil {
			body = scraped
		} else {
			slog.Debug("body fetch failed, keeping rss description",
				slog.String("link", item.Link), slog.Any("error", err))
		}
	}

	if body == "" {
		recordEvent(item.Outlet, eventEmptyContent)
		return nil, nil
	}

	scraped := body != item.Description
	if scraped {
		if wordCount(body) < e.config.MinScrapedWords {
			recordEvent(item.Outlet, eventShortContent)
			return nil, nil
		}
		if e.dedup.SeenOrAdd(body) {
			recordEvent(item.Outlet, eventDuplicateContent)
			return nil, nil
		}
	}

	recordEvent(item.Outlet, eventSuccessfulScrapes)

	article := &entity.Article{
		ArticleID:      uuid.New().String(),
		Outlet:         item.Outlet,
		Link:           item.Link,
		Title:          item.Title,
		RawDescription: item.Description,
		Category:       item.Category,
		ImageURL:       item.ImageURL,
		PubDate:        item.PubDate,
		CreatedAt:      time.Now().UTC(),
	}
	if scraped {
		article.ScrapedDescription = body
	}
	return article, nil
}

// ResetDedup clears the content-hash set. The caller must invoke this once
// at the start of every ingest run — the Enricher itself lives for the
// whole process, but content-hash dedup is scoped to a single run (§4.3).
func (e *Enricher) ResetDedup() {
	e.dedup.Reset()
}

// fetchBody retrieves and extracts the article body at link, wrapped in the
// circuit breaker and the shared size/redirect/SSRF protections.
func (e *Enricher) fetchBody(ctx context.Context, link string) (string, error) {
	if err := validateURL(link, e.config.DenyPrivateIPs); err != nil {
		return "", err
	}
	result, err := e.circuitBreaker.Execute(func() (interface{}, error) {
		return e.doFetch(ctx, link)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (e *Enricher) doFetch(ctx context.Context, link string) (interface{}, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", "NeutralNewsBot/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: request exceeded %v", ErrTimeout, e.config.Timeout)
		}
		if urlErr, ok := err.(*url.Error); ok && urlErr.Err != nil {
			return "", urlErr.Err
		}
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, resp.Status)
	}

	limited := io.LimitReader(resp.Body, e.config.MaxBodySize+1)
	htmlBytes, err := io.ReadAll(limited)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(htmlBytes)) > e.config.MaxBodySize {
		return "", fmt.Errorf("%w: %d bytes exceeds limit %d", ErrBodyTooLarge, len(htmlBytes), e.config.MaxBodySize)
	}

	parsedURL, err := url.Parse(link)
	if err != nil {
		parsedURL = nil
	}
	if resp.Request != nil && resp.Request.URL != nil {
		parsedURL = resp.Request.URL
	}

	htmlReader := io.NopCloser(bytes.NewReader(htmlBytes))
	article, err := readability.FromReader(htmlReader, parsedURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadabilityFailed, err)
	}

	if article.TextContent == "" {
		if article.Content == "" {
			return "", fmt.Errorf("%w: no readable content found", ErrReadabilityFailed)
		}
		return article.Content, nil
	}
	return article.TextContent, nil
}
