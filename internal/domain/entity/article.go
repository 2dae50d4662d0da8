// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects - Article, NeutralGroup, and the Outlet
// registry - along with their validation rules and domain-specific errors.
package entity

import "time"

// Article represents a single fetched/enriched news item. Identity is ArticleID,
// opaque and unique; Link is globally unique across all persisted articles.
type Article struct {
	ArticleID          string
	Outlet             string
	Link               string
	Title              string
	RawDescription     string
	ScrapedDescription string
	Category           string
	ImageURL           string
	PubDate            time.Time
	CreatedAt          time.Time
	UpdatedAt          *time.Time
	GroupID            *int64
	Embedding          []float32
	NeutralScore       *int
}

// HasEmbedding reports whether the article already carries a non-empty embedding.
func (a *Article) HasEmbedding() bool {
	return len(a.Embedding) > 0
}

// IsReference reports whether this article entered the grouping stage already
// attached to a prior group, used as a stability anchor during clustering.
func (a *Article) IsReference() bool {
	return a.GroupID != nil
}

// EmbeddingInput builds the text fed to the embedding provider: title plus the
// best available description, preferring the scraped body over the raw one.
func (a *Article) EmbeddingInput() string {
	desc := a.ScrapedDescription
	if desc == "" {
		desc = a.RawDescription
	}
	if desc == "" {
		return a.Title
	}
	return a.Title + " " + desc
}

// NeutralGroup is the neutral rendition of a set of same-event articles from
// distinct outlets, plus the metadata produced by the neutralizer.
type NeutralGroup struct {
	GroupID            int64
	NeutralTitle       string
	NeutralDescription string
	Category           string
	Relevance          int
	SourceIDs          []string
	ImageURL           string
	ImageMedium        string
	Date               time.Time
	CreatedAt          time.Time
	UpdatedAt          *time.Time
}

// MinSources is the minimum article count a NeutralGroup may hold.
const MinSources = 3

// SourcesLimit is the maximum article count a NeutralGroup may hold.
const SourcesLimit = 16

// MaxGroupSize triggers subdivision when a density cluster exceeds it.
const MaxGroupSize = 25

// MinSubdivisionSize is the minimum cluster size eligible for subdivision.
const MinSubdivisionSize = 5

// IsSubdivisionID reports whether a group id was minted by the subdivision
// step rather than as a fresh top-level id: subdivision ids are always
// exactly 7 decimal digits (see deriveBaseID in internal/usecase/grouping).
func IsSubdivisionID(groupID int64) bool {
	return groupID >= 1_000_000 && groupID <= 9_999_999
}
