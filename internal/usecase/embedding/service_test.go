package embedding

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"neutralnews/internal/domain/entity"
	"neutralnews/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore embeds the interface so only the methods under test need
// implementations; any other call panics with nil-pointer, acceptable
// since these tests never reach them.
type stubStore struct {
	repository.ArticleStore
	mu        sync.Mutex
	embedded  map[string][]float32
	failLinks map[string]bool
}

func newStubStore() *stubStore {
	return &stubStore{embedded: make(map[string][]float32), failLinks: make(map[string]bool)}
}

func (s *stubStore) PutEmbedding(ctx context.Context, articleID string, vec []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLinks[articleID] {
		return fmt.Errorf("simulated failure for %s", articleID)
	}
	cp := make([]float32, len(vec))
	copy(cp, vec)
	s.embedded[articleID] = cp
	return nil
}

type fakeProvider struct {
	vectors map[string][]float32
	err     error
}

func (p *fakeProvider) Encode(ctx context.Context, inputs []string) ([][]float32, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		out[i] = p.vectors[in]
	}
	return out, nil
}

func TestEncodeAndPersist_SkipsArticlesWithEmbedding(t *testing.T) {
	store := newStubStore()
	already := &entity.Article{ArticleID: "a1", Title: "t", Embedding: []float32{1, 2, 3}}
	provider := &fakeProvider{}

	err := EncodeAndPersist(context.Background(), store, provider, []*entity.Article{already})
	require.NoError(t, err)
	assert.Empty(t, store.embedded)
}

func TestEncodeAndPersist_EncodesAndPersists(t *testing.T) {
	store := newStubStore()
	article := &entity.Article{ArticleID: "a1", Title: "Headline", RawDescription: "body"}
	provider := &fakeProvider{vectors: map[string][]float32{
		article.EmbeddingInput(): {0.1, 0.2},
	}}

	err := EncodeAndPersist(context.Background(), store, provider, []*entity.Article{article})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, store.embedded["a1"])
}

func TestEncodeAndPersist_AssignsZeroVectorOnProviderFailure(t *testing.T) {
	store := newStubStore()
	article := &entity.Article{ArticleID: "a1", Title: "Headline"}
	provider := &fakeProvider{err: fmt.Errorf("provider down")}

	err := EncodeAndPersist(context.Background(), store, provider, []*entity.Article{article})
	require.NoError(t, err)
	assert.Len(t, store.embedded["a1"], Dimension)
	for _, v := range store.embedded["a1"] {
		assert.Equal(t, float32(0), v)
	}
}

func TestEncodeAndPersist_BatchesAcrossMaxBatchInputs(t *testing.T) {
	store := newStubStore()
	articles := make([]*entity.Article, MaxBatchInputs+5)
	vectors := make(map[string][]float32)
	for i := range articles {
		a := &entity.Article{ArticleID: fmt.Sprintf("a%d", i), Title: fmt.Sprintf("t%d", i)}
		articles[i] = a
		vectors[a.EmbeddingInput()] = []float32{float32(i)}
	}
	provider := &fakeProvider{vectors: vectors}

	err := EncodeAndPersist(context.Background(), store, provider, articles)
	require.NoError(t, err)
	assert.Len(t, store.embedded, len(articles))
}
