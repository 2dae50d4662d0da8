// Package feed implements the feed fetcher (C2): per-outlet RSS/Atom
// polling and image-priority extraction. Filtering out links that are
// already stored happens later, in internal/usecase/ingest.
package feed

import "time"

// Item is a single raw entry parsed from an outlet's feed, before
// enrichment (C3) or persistence (C4).
type Item struct {
	Outlet      string
	Title       string
	Link        string
	Description string
	Category    string
	ImageURL    string
	PubDate     time.Time
}
