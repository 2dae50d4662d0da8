package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neutralnews/internal/domain/entity"
	"neutralnews/internal/infra/feed"
	"neutralnews/internal/repository"
)

// stubStore embeds the interface so only the methods under test need
// implementations, matching the idiom used by the grouping/neutralize
// use-case tests.
type stubStore struct {
	repository.ArticleStore

	putArticleResults map[string]bool
	putArticleErr     map[string]error

	groupingCandidates []repository.GroupingCandidate
	listForGroupingErr error

	updateGroupIDErr map[string]error
	updatedGroupIDs  map[string]*int64

	groupItems map[int64][]*entity.Article
	groups     map[int64]*entity.NeutralGroup

	linksByOutlet   map[string]map[string]struct{}
	listLinksErrors map[string]error
}

func newStubStore() *stubStore {
	return &stubStore{
		putArticleResults: make(map[string]bool),
		putArticleErr:     make(map[string]error),
		updateGroupIDErr:  make(map[string]error),
		updatedGroupIDs:   make(map[string]*int64),
		groupItems:        make(map[int64][]*entity.Article),
		groups:            make(map[int64]*entity.NeutralGroup),
	}
}

func (s *stubStore) PutArticle(ctx context.Context, a *entity.Article) (bool, error) {
	if err, ok := s.putArticleErr[a.Link]; ok {
		return false, err
	}
	return s.putArticleResults[a.Link], nil
}

func (s *stubStore) ListForGrouping(ctx context.Context, recentWindow time.Duration) ([]repository.GroupingCandidate, error) {
	return s.groupingCandidates, s.listForGroupingErr
}

func (s *stubStore) UpdateGroupID(ctx context.Context, articleID string, groupID *int64) error {
	if err, ok := s.updateGroupIDErr[articleID]; ok {
		return err
	}
	s.updatedGroupIDs[articleID] = groupID
	return nil
}

func (s *stubStore) MaxGroupID(ctx context.Context) (int64, error) { return 0, nil }

func (s *stubStore) ListGroupItems(ctx context.Context, groupID int64) ([]*entity.Article, error) {
	return s.groupItems[groupID], nil
}

func (s *stubStore) CountGroupItems(ctx context.Context, groupID int64) (int, error) {
	return len(s.groupItems[groupID]), nil
}

func (s *stubStore) GetGroup(ctx context.Context, groupID int64) (*entity.NeutralGroup, error) {
	g, ok := s.groups[groupID]
	if !ok {
		return nil, errors.New("not found")
	}
	return g, nil
}

func (s *stubStore) ListLinksByOutlet(ctx context.Context, outlet string) (map[string]struct{}, error) {
	if err, ok := s.listLinksErrors[outlet]; ok {
		return nil, err
	}
	return s.linksByOutlet[outlet], nil
}

func article(id, link, outlet string, pubDate time.Time) *entity.Article {
	return &entity.Article{ArticleID: id, Link: link, Outlet: outlet, Title: "title-" + id, PubDate: pubDate}
}

func TestPersistAll_SkipsExistingLinksAndErrors(t *testing.T) {
	store := newStubStore()
	store.putArticleResults["new-link"] = true
	store.putArticleResults["dup-link"] = false
	store.putArticleErr["bad-link"] = errors.New("write failed")

	svc := &Service{Store: store}
	stats := &Stats{}
	articles := []*entity.Article{
		article("a1", "new-link", "outletA", time.Now()),
		article("a2", "dup-link", "outletA", time.Now()),
		article("a3", "bad-link", "outletA", time.Now()),
	}

	inserted := svc.persistAll(context.Background(), articles, stats)

	require.Len(t, inserted, 1)
	assert.Equal(t, "a1", inserted[0].ArticleID)
	assert.Equal(t, 1, stats.Inserted)
}

func TestFilterAlreadyStored_DropsLinksAlreadyInStoreForOutlet(t *testing.T) {
	store := newStubStore()
	store.linksByOutlet = map[string]map[string]struct{}{
		"outletA": {"example.com/already-seen": {}},
	}

	svc := &Service{Store: store}
	items := []feed.Item{
		{Outlet: "outletA", Link: "https://example.com/already-seen"},
		{Outlet: "outletA", Link: "https://example.com/brand-new"},
		{Outlet: "outletB", Link: "https://other.com/unseen"},
	}

	kept := svc.filterAlreadyStored(context.Background(), items)

	require.Len(t, kept, 2)
	links := []string{kept[0].Link, kept[1].Link}
	assert.ElementsMatch(t, []string{"https://example.com/brand-new", "https://other.com/unseen"}, links)
}

func TestFilterAlreadyStored_KeepsOutletItemsWhenListLinksFails(t *testing.T) {
	store := newStubStore()
	store.listLinksErrors = map[string]error{"outletA": errors.New("db down")}

	svc := &Service{Store: store}
	items := []feed.Item{{Outlet: "outletA", Link: "https://example.com/x"}}

	kept := svc.filterAlreadyStored(context.Background(), items)

	require.Len(t, kept, 1)
}

func TestGroupAll_OnlyReferencesIsNoopAndTouchesNothing(t *testing.T) {
	// Clustering itself is covered by the grouping package's own tests;
	// this only exercises groupAll's delta-application/touched-set
	// bookkeeping around it, using the documented only-references-noop
	// case so the result is independent of clustering internals.
	gid := int64(10)
	store := newStubStore()
	store.groupingCandidates = []repository.GroupingCandidate{
		{Article: article("a1", "l1", "outletA", time.Now()), Reference: true},
	}
	store.groupingCandidates[0].Article.GroupID = &gid

	svc := &Service{Store: store}
	touched, err := svc.groupAll(context.Background())

	require.NoError(t, err)
	assert.Empty(t, touched)
	assert.Empty(t, store.updatedGroupIDs)
}

func TestGroupAll_PropagatesListForGroupingError(t *testing.T) {
	store := newStubStore()
	store.listForGroupingErr = errors.New("db down")

	svc := &Service{Store: store}
	_, err := svc.groupAll(context.Background())

	assert.Error(t, err)
}

func TestBuildGroupJobs_SortsByMostRecentMemberFirst(t *testing.T) {
	now := time.Now()
	store := newStubStore()
	store.groupItems[1] = []*entity.Article{article("a1", "l1", "outletA", now.Add(-2*time.Hour))}
	store.groupItems[2] = []*entity.Article{article("a2", "l2", "outletB", now)}
	store.groupItems[3] = []*entity.Article{article("a3", "l3", "outletC", now.Add(-time.Hour))}

	svc := &Service{Store: store}
	jobs, err := svc.buildGroupJobs(context.Background(), []int64{1, 2, 3})

	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, int64(2), jobs[0].GroupID)
	assert.Equal(t, int64(3), jobs[1].GroupID)
	assert.Equal(t, int64(1), jobs[2].GroupID)
}

func TestBuildGroupJobs_SkipsGroupsWithNoMembers(t *testing.T) {
	store := newStubStore()
	store.groupItems[1] = []*entity.Article{article("a1", "l1", "outletA", time.Now())}
	// groupItems[2] left empty.

	svc := &Service{Store: store}
	jobs, err := svc.buildGroupJobs(context.Background(), []int64{1, 2})

	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, int64(1), jobs[0].GroupID)
}
