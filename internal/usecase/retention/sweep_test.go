package retention

import (
	"context"
	"fmt"
	"testing"
	"time"

	"neutralnews/internal/domain/entity"
	"neutralnews/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	repository.ArticleStore
	oldArticleIDs   []string
	oldGroupIDs     []int64
	activeGroups    []*entity.NeutralGroup
	deletedArticles [][]string
	deletedGroups   []int64
}

func (s *stubStore) ListArticleIDsCreatedBefore(ctx context.Context, threshold time.Time) ([]string, error) {
	return s.oldArticleIDs, nil
}

func (s *stubStore) ListGroupIDsCreatedBefore(ctx context.Context, threshold time.Time) ([]int64, error) {
	return s.oldGroupIDs, nil
}

func (s *stubStore) QueryRecentGroups(ctx context.Context, since time.Time) ([]*entity.NeutralGroup, error) {
	return s.activeGroups, nil
}

func (s *stubStore) DeleteArticles(ctx context.Context, ids []string) error {
	s.deletedArticles = append(s.deletedArticles, ids)
	return nil
}

func (s *stubStore) DeleteGroups(ctx context.Context, ids []int64) error {
	s.deletedGroups = append(s.deletedGroups, ids...)
	return nil
}

func TestSweep_ProtectsReferencedArticles(t *testing.T) {
	store := &stubStore{
		oldArticleIDs: []string{"a1", "a2", "a3"},
		activeGroups: []*entity.NeutralGroup{
			{GroupID: 1, SourceIDs: []string{"a2"}},
		},
	}
	result, err := Sweep(context.Background(), store, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 1, result.ProtectedArticles)
	assert.Equal(t, 2, result.DeletedArticles)
	require.Len(t, store.deletedArticles, 1)
	assert.ElementsMatch(t, []string{"a1", "a3"}, store.deletedArticles[0])
}

func TestSweep_BatchesArticleDeletesAtArticleBatchSize(t *testing.T) {
	ids := make([]string, ArticleBatchSize+10)
	for i := range ids {
		ids[i] = fmt.Sprintf("a%d", i)
	}
	store := &stubStore{oldArticleIDs: ids}
	result, err := Sweep(context.Background(), store, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, len(ids), result.DeletedArticles)
	assert.Len(t, store.deletedArticles, 2)
	assert.Len(t, store.deletedArticles[0], ArticleBatchSize)
	assert.Len(t, store.deletedArticles[1], 10)
}

func TestSweep_NoOldDocumentsIsNoop(t *testing.T) {
	store := &stubStore{}
	result, err := Sweep(context.Background(), store, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, result.DeletedArticles)
	assert.Equal(t, 0, result.DeletedGroups)
	assert.Empty(t, store.deletedArticles)
}

func TestSweep_DeletesOldGroups(t *testing.T) {
	store := &stubStore{oldGroupIDs: []int64{10, 11, 12}}
	result, err := Sweep(context.Background(), store, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 3, result.DeletedGroups)
	assert.ElementsMatch(t, []int64{10, 11, 12}, store.deletedGroups)
}

func TestConfig_LoadConfigFromEnvDefault(t *testing.T) {
	t.Setenv("RETENTION_DAYS", "")
	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.RetentionDays)
}

func TestConfig_ThresholdSubtractsDays(t *testing.T) {
	cfg := Config{RetentionDays: 7}
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 7, 23, 12, 0, 0, 0, time.UTC), cfg.Threshold(now))
}
