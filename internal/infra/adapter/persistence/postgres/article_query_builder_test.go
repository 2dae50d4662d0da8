package postgres_test

import (
	"testing"

	"neutralnews/internal/infra/adapter/persistence/postgres"

	"github.com/stretchr/testify/assert"
)

func TestArticleQueryBuilder_InClause_Empty(t *testing.T) {
	builder := postgres.NewArticleQueryBuilder()
	clause, args := builder.InClause("group_id", nil, 1)

	assert.Empty(t, clause)
	assert.Empty(t, args)
}

func TestArticleQueryBuilder_InClause_Single(t *testing.T) {
	builder := postgres.NewArticleQueryBuilder()
	clause, args := builder.InClause("group_id", []interface{}{int64(42)}, 1)

	assert.Equal(t, "group_id IN ($1)", clause)
	assert.Equal(t, []interface{}{int64(42)}, args)
}

func TestArticleQueryBuilder_InClause_MultipleWithOffset(t *testing.T) {
	builder := postgres.NewArticleQueryBuilder()
	clause, args := builder.InClause("group_id", []interface{}{int64(1), int64(2), int64(3)}, 2)

	assert.Equal(t, "group_id IN ($2, $3, $4)", clause)
	assert.Len(t, args, 3)
}

func TestBatches_Empty(t *testing.T) {
	assert.Nil(t, postgres.Batches(nil, 450))
}

func TestBatches_SingleBatch(t *testing.T) {
	ids := []string{"a", "b", "c"}
	batches := postgres.Batches(ids, 450)

	assert.Len(t, batches, 1)
	assert.Equal(t, ids, batches[0])
}

func TestBatches_SplitsAtBoundary(t *testing.T) {
	ids := make([]string, 5)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	batches := postgres.Batches(ids, 2)

	assert.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 2)
	assert.Len(t, batches[2], 1)
}

func TestBatches_DefaultsWhenNonPositive(t *testing.T) {
	ids := []string{"a", "b"}
	batches := postgres.Batches(ids, 0)

	assert.Len(t, batches, 1)
}
