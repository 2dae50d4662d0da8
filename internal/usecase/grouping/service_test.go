package grouping

import (
	"context"
	"testing"

	"neutralnews/internal/domain/entity"
	"neutralnews/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore embeds the interface so only the methods under test need
// implementations.
type stubStore struct {
	repository.ArticleStore
	maxGroupID  int64
	groupItems  map[int64][]*entity.Article
	groupCounts map[int64]int
}

func newStubStore() *stubStore {
	return &stubStore{groupItems: make(map[int64][]*entity.Article), groupCounts: make(map[int64]int)}
}

func (s *stubStore) MaxGroupID(ctx context.Context) (int64, error) { return s.maxGroupID, nil }

func (s *stubStore) ListGroupItems(ctx context.Context, groupID int64) ([]*entity.Article, error) {
	return s.groupItems[groupID], nil
}

func (s *stubStore) CountGroupItems(ctx context.Context, groupID int64) (int, error) {
	if n, ok := s.groupCounts[groupID]; ok {
		return n, nil
	}
	return len(s.groupItems[groupID]), nil
}

func article(id, outlet string, embedding []float32, groupID *int64) *entity.Article {
	return &entity.Article{ArticleID: id, Outlet: outlet, Title: id, Embedding: embedding, GroupID: groupID}
}

func candidate(a *entity.Article, reference bool) repository.GroupingCandidate {
	return repository.GroupingCandidate{Article: a, Reference: reference}
}

func groupIDOf(t *testing.T, assignments []Assignment, articleID string) *int64 {
	t.Helper()
	for _, a := range assignments {
		if a.ArticleID == articleID {
			return a.GroupID
		}
	}
	t.Fatalf("no assignment for %s", articleID)
	return nil
}

func TestAssignGroupIDs_EmptyInput(t *testing.T) {
	out, err := AssignGroupIDs(context.Background(), newStubStore(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestAssignGroupIDs_SingleNewItemNoReferencesIsUngrouped(t *testing.T) {
	cands := []repository.GroupingCandidate{
		candidate(article("a1", "outletA", []float32{1, 0, 0}, nil), false),
	}
	out, err := AssignGroupIDs(context.Background(), newStubStore(), cands)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].GroupID)
}

func TestAssignGroupIDs_OnlyReferencesNoNewItemsIsNoop(t *testing.T) {
	gid := int64(7)
	cands := []repository.GroupingCandidate{
		candidate(article("a1", "outletA", []float32{1, 0, 0}, &gid), true),
	}
	out, err := AssignGroupIDs(context.Background(), newStubStore(), cands)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestAssignGroupIDs_FormsNewGroupFromTightClusterAcrossOutlets(t *testing.T) {
	cands := []repository.GroupingCandidate{
		candidate(article("a1", "outletA", []float32{1, 0, 0}, nil), false),
		candidate(article("a2", "outletB", []float32{0.99, 0.02, 0}, nil), false),
		candidate(article("a3", "outletC", []float32{0.98, -0.02, 0}, nil), false),
	}
	out, err := AssignGroupIDs(context.Background(), newStubStore(), cands)
	require.NoError(t, err)
	require.Len(t, out, 3)

	g1 := groupIDOf(t, out, "a1")
	require.NotNil(t, g1)
	assert.Equal(t, g1, groupIDOf(t, out, "a2"))
	assert.Equal(t, g1, groupIDOf(t, out, "a3"))
}

func TestAssignGroupIDs_DropsClusterBelowMinSourcesWithNoReference(t *testing.T) {
	// b1-b3 form a valid group elsewhere in the batch, so finalize's
	// all-ungrouped sequential-id fallback does not apply to a1/a2.
	cands := []repository.GroupingCandidate{
		candidate(article("a1", "outletA", []float32{1, 0, 0}, nil), false),
		candidate(article("a2", "outletB", []float32{0.99, 0.02, 0}, nil), false),
		candidate(article("b1", "outletC", []float32{0, 1, 0}, nil), false),
		candidate(article("b2", "outletD", []float32{0.02, 0.99, 0}, nil), false),
		candidate(article("b3", "outletE", []float32{-0.02, 0.98, 0}, nil), false),
	}
	out, err := AssignGroupIDs(context.Background(), newStubStore(), cands)
	require.NoError(t, err)
	require.Len(t, out, 5)
	assert.Nil(t, groupIDOf(t, out, "a1"))
	assert.Nil(t, groupIDOf(t, out, "a2"))
}

func TestDedupByOutlet_KeepsOneSurvivorPerOutletReferenceFirst(t *testing.T) {
	gid := int64(1)
	bucket := []clusterMember{
		{articleID: "new1", outlet: "outletA", order: 0},
		{articleID: "ref1", outlet: "outletA", reference: true, existingGroupID: &gid, order: 1},
		{articleID: "a3", outlet: "outletB", order: 2},
	}
	keep, losers := dedupByOutlet(bucket)

	require.Len(t, keep, 2)
	require.Len(t, losers, 1)
	assert.Equal(t, "ref1", keep[0].articleID, "reference member should win the outletA tie-break over insertion order")
	assert.Equal(t, "new1", losers[0].articleID)
}

func TestAssignGroupIDs_ReferenceClusterJoinsTargetWhenCohesive(t *testing.T) {
	gid := int64(42)
	store := newStubStore()
	store.groupCounts[gid] = 3

	cands := []repository.GroupingCandidate{
		candidate(article("ref1", "outletA", []float32{1, 0, 0}, &gid), true),
		candidate(article("new1", "outletB", []float32{0.99, 0.02, 0}, nil), false),
		candidate(article("new2", "outletC", []float32{0.98, -0.02, 0}, nil), false),
	}
	out, err := AssignGroupIDs(context.Background(), store, cands)
	require.NoError(t, err)

	assert.Equal(t, &gid, groupIDOf(t, out, "ref1"))
	for _, id := range []string{"new1", "new2"} {
		newGid := groupIDOf(t, out, id)
		require.NotNil(t, newGid)
		assert.Equal(t, gid, *newGid)
	}
}

func TestAssignGroupIDs_ReferenceKeepsOriginalIDEvenWhenOutlierNoise(t *testing.T) {
	gid := int64(9)
	cands := []repository.GroupingCandidate{
		candidate(article("ref1", "outletA", []float32{1, 0, 0}, &gid), true),
		candidate(article("ref2", "outletA", []float32{0, 1, 0}, &gid), true),
		candidate(article("new1", "outletB", []float32{0, 0, 1}, nil), false),
	}
	out, err := AssignGroupIDs(context.Background(), newStubStore(), cands)
	require.NoError(t, err)
	assert.Equal(t, &gid, groupIDOf(t, out, "ref1"))
}
