package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"neutralnews/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
<title>Test Outlet</title>
<item>
<title>Breaking news</title>
<link>https://example.com/a1</link>
<description><![CDATA[<p>Some description <img src="https://example.com/fallback.jpg"/></p>]]></description>
<pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
<category>politica</category>
<media:content url="https://example.com/media.jpg"/>
</item>
</channel>
</rss>`

func TestFetcher_FetchOutlet_ParsesItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil)
	outlet := entity.Outlet{Tag: "test-outlet", FeedURL: srv.URL}

	items, err := f.FetchOutlet(context.Background(), outlet)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "test-outlet", item.Outlet)
	assert.Equal(t, "https://example.com/a1", item.Link)
	assert.Equal(t, "politica", item.Category)
	assert.Equal(t, "https://example.com/media.jpg", item.ImageURL)
}

func TestFetcher_FetchAll_IsolatesFailures(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	f := NewFetcher(nil, nil)
	f.retryCf.MaxAttempts = 1
	outlets := []entity.Outlet{
		{Tag: "good", FeedURL: good.URL},
		{Tag: "bad", FeedURL: bad.URL},
	}

	items := f.FetchAll(context.Background(), outlets)
	require.Len(t, items, 1)
	assert.Equal(t, "good", items[0].Outlet)
}

func TestFirstCategory_FallsBackToDefault(t *testing.T) {
	assert.Equal(t, "sinCategoria", firstCategory(nil))
	assert.Equal(t, "politica", firstCategory([]string{"politica"}))
}
