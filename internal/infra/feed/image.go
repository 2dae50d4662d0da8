package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// extractImageURL applies the media:content -> enclosure -> first <img> in
// the description priority chain used by the original fetcher's
// process_feed_items_parallel.
func extractImageURL(item *gofeed.Item) string {
	if url := mediaContentURL(item); url != "" {
		return url
	}
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return firstImgSrc(item.Description)
}

func mediaContentURL(item *gofeed.Item) string {
	if item.Extensions == nil {
		return ""
	}
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	contents, ok := media["content"]
	if !ok {
		return ""
	}
	for _, c := range contents {
		if url, ok := c.Attrs["url"]; ok && url != "" {
			return url
		}
	}
	return ""
}

func firstImgSrc(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	return src
}

// firstCategory returns the first feed category, or a fallback when none is
// present, matching the original's "sinCategoria" default.
func firstCategory(categories []string) string {
	for _, c := range categories {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return "sinCategoria"
}
