package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"neutralnews/internal/infra/feed"
	"neutralnews/internal/robots"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const longArticleHTML = `<!DOCTYPE html>
<html><head><title>Test Article</title></head><body>
<article>
<h1>Test Article Title</h1>
<p>` + strings.Repeat("word ", 150) + `</p>
</article>
</body></html>`

type alwaysAllow struct{}

func (alwaysAllow) Allow(ctx context.Context, rawURL string, purpose robots.Purpose) (bool, error) {
	return true, nil
}

type alwaysDeny struct{}

func (alwaysDeny) Allow(ctx context.Context, rawURL string, purpose robots.Purpose) (bool, error) {
	return false, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Timeout = 2 * time.Second
	cfg.DenyPrivateIPs = false // httptest servers listen on loopback
	return cfg
}

func TestEnricher_Enrich_KeepsRSSDescriptionWhenLongEnough(t *testing.T) {
	e := NewEnricher(testConfig(), alwaysAllow{})
	item := feed.Item{
		Outlet:      "test-outlet",
		Link:        "https://example.com/a1",
		Title:       "Headline",
		Description: strings.Repeat("word ", 150),
		PubDate:     time.Now(),
	}

	article, err := e.Enrich(context.Background(), item)
	require.NoError(t, err)
	require.NotNil(t, article)
	assert.Equal(t, item.Description, article.RawDescription)
	assert.Empty(t, article.ScrapedDescription)
}

func TestEnricher_Enrich_FetchesBodyWhenDescriptionThin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(longArticleHTML))
	}))
	defer srv.Close()

	e := NewEnricher(testConfig(), alwaysAllow{})
	item := feed.Item{
		Outlet:      "test-outlet",
		Link:        srv.URL,
		Title:       "Headline",
		Description: "short",
		PubDate:     time.Now(),
	}

	article, err := e.Enrich(context.Background(), item)
	require.NoError(t, err)
	require.NotNil(t, article)
	assert.NotEmpty(t, article.ScrapedDescription)
	assert.Equal(t, "short", article.RawDescription)
}

func TestEnricher_Enrich_BlockedByRobotsKeepsRawDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(longArticleHTML))
	}))
	defer srv.Close()

	e := NewEnricher(testConfig(), alwaysDeny{})
	item := feed.Item{
		Outlet:      "test-outlet",
		Link:        srv.URL,
		Title:       "Headline",
		Description: "short",
		PubDate:     time.Now(),
	}

	article, err := e.Enrich(context.Background(), item)
	require.NoError(t, err)
	require.NotNil(t, article)
	assert.Empty(t, article.ScrapedDescription)
	assert.Equal(t, "short", article.RawDescription)
}

func TestEnricher_Enrich_RejectsShortScrapedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>too short</p></body></html>`))
	}))
	defer srv.Close()

	e := NewEnricher(testConfig(), alwaysAllow{})
	item := feed.Item{
		Outlet:      "test-outlet",
		Link:        srv.URL,
		Title:       "Headline",
		Description: "short",
		PubDate:     time.Now(),
	}

	article, err := e.Enrich(context.Background(), item)
	require.NoError(t, err)
	assert.Nil(t, article)
}

func TestEnricher_Enrich_RejectsDuplicateScrapedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(longArticleHTML))
	}))
	defer srv.Close()

	e := NewEnricher(testConfig(), alwaysAllow{})
	item := feed.Item{
		Outlet:      "test-outlet",
		Link:        srv.URL,
		Title:       "Headline",
		Description: "short",
		PubDate:     time.Now(),
	}

	first, err := e.Enrich(context.Background(), item)
	require.NoError(t, err)
	require.NotNil(t, first)

	item.Link = srv.URL + "/other"
	second, err := e.Enrich(context.Background(), item)
	require.NoError(t, err)
	assert.Nil(t, second)
}

func TestEnricher_ResetDedup_AllowsSameContentInALaterRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(longArticleHTML))
	}))
	defer srv.Close()

	e := NewEnricher(testConfig(), alwaysAllow{})
	item := feed.Item{
		Outlet:      "test-outlet",
		Link:        srv.URL,
		Title:       "Headline",
		Description: "short",
		PubDate:     time.Now(),
	}

	first, err := e.Enrich(context.Background(), item)
	require.NoError(t, err)
	require.NotNil(t, first)

	item.Link = srv.URL + "/other"
	dup, err := e.Enrich(context.Background(), item)
	require.NoError(t, err)
	assert.Nil(t, dup, "same-run duplicate still rejected")

	e.ResetDedup()

	item.Link = srv.URL + "/yet-another"
	afterReset, err := e.Enrich(context.Background(), item)
	require.NoError(t, err)
	assert.NotNil(t, afterReset, "identical content in a later run must not be treated as a duplicate")
}

func TestContentHash_NormalizesWhitespaceAndCase(t *testing.T) {
	a := contentHash("Hello   World")
	b := contentHash("hello world")
	assert.Equal(t, a, b)
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 3, wordCount("one two three"))
	assert.Equal(t, 0, wordCount(""))
}
