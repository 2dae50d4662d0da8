// Package repository defines the store-gateway contracts the core pipeline
// depends on (§6.3). Implementations live under internal/infra/adapter/persistence.
package repository

import (
	"context"
	"time"

	"neutralnews/internal/domain/entity"
)

// BatchSize is the generic write-batch ceiling; callers re-batch on overflow.
const BatchSize = 450

// GroupingCandidate is an article tagged for the grouping stage: Reference is
// true when the article already carries a group_id from a prior run and
// should anchor clustering rather than be freely reassigned.
type GroupingCandidate struct {
	Article   *entity.Article
	Reference bool
}

// GroupPatch carries the fields C7 may update on an existing NeutralGroup.
// Nil fields are left untouched.
type GroupPatch struct {
	NeutralTitle       *string
	NeutralDescription *string
	Category           *string
	Relevance          *int
	SourceIDs          []string
	Date               *time.Time
	ImageURL           *string
	ImageMedium        *string
}

// ArticleStore is the article-store gateway contract (C4, §6.3): idempotent
// persistence, embedding cache, and the reference queries the grouping and
// neutralization stages issue. A single implementation instance is shared,
// safe for concurrent use; per-batch write objects are never shared (§5).
type ArticleStore interface {
	// PutArticle is idempotent on Link: an existing link is skipped and
	// inserted reports false with a nil error.
	PutArticle(ctx context.Context, article *entity.Article) (inserted bool, err error)
	ExistsByLink(ctx context.Context, link string) (bool, error)
	// ListLinksByOutlet returns the set of normalized links already stored
	// for outlet, used by C3's per-outlet dedup filter.
	ListLinksByOutlet(ctx context.Context, outlet string) (map[string]struct{}, error)
	// QueryArticles returns articles with PubDate >= pubDateSince. When
	// groupIDIn is non-empty, results are further restricted to those ids.
	QueryArticles(ctx context.Context, pubDateSince time.Time, groupIDIn []int64) ([]*entity.Article, error)
	// ListForGrouping returns every article with PubDate within the recent
	// window, tagging members of a recently-seen group as Reference.
	ListForGrouping(ctx context.Context, recentWindow time.Duration) ([]GroupingCandidate, error)
	// ListRecentGroupIDs returns the set of group ids seen on NeutralGroups
	// whose Date falls within the recent window (list_group_ids_recent).
	ListRecentGroupIDs(ctx context.Context, since time.Time) (map[int64]struct{}, error)

	PutEmbedding(ctx context.Context, articleID string, vec []float32) error
	ListGroupItems(ctx context.Context, groupID int64) ([]*entity.Article, error)
	CountGroupItems(ctx context.Context, groupID int64) (int, error)
	UpdateGroupID(ctx context.Context, articleID string, groupID *int64) error
	UpdateNeutralScore(ctx context.Context, articleID string, score int) error
	DeleteArticles(ctx context.Context, ids []string) error
	// ListArticleIDsCreatedBefore returns the ids of every article whose
	// created_at predates threshold, for the retention sweeper (C8).
	ListArticleIDsCreatedBefore(ctx context.Context, threshold time.Time) ([]string, error)

	GetGroup(ctx context.Context, groupID int64) (*entity.NeutralGroup, error)
	PutGroup(ctx context.Context, group *entity.NeutralGroup) error
	PatchGroup(ctx context.Context, groupID int64, patch GroupPatch) error
	DeleteGroup(ctx context.Context, groupID int64) error
	// DeleteGroups removes multiple NeutralGroups in a single gateway call,
	// batched internally by the implementation (C8's sweep).
	DeleteGroups(ctx context.Context, ids []int64) error
	QueryRecentGroups(ctx context.Context, since time.Time) ([]*entity.NeutralGroup, error)
	RemoveSourceFromGroup(ctx context.Context, groupID int64, articleID string) error
	// ListGroupIDsCreatedBefore returns the ids of every NeutralGroup whose
	// created_at predates threshold, for the retention sweeper (C8).
	ListGroupIDsCreatedBefore(ctx context.Context, threshold time.Time) ([]int64, error)

	// MaxGroupID returns the largest top-level (non-subdivision) group id in
	// use, used by C6 to mint fresh ids. Returns 0 if no group exists yet.
	MaxGroupID(ctx context.Context) (int64, error)
}
