package neutralize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"neutralnews/internal/domain/entity"
)

func TestClassifyChange_NilExistingIsNew(t *testing.T) {
	kind := classifyChange(nil, []*entity.Article{{ArticleID: "a1"}})
	assert.Equal(t, KindNew, kind)
}

func TestClassifyChange_IdenticalMembersIsUnchanged(t *testing.T) {
	existing := &entity.NeutralGroup{SourceIDs: []string{"a2", "a1", "a3"}}
	members := []*entity.Article{{ArticleID: "a1"}, {ArticleID: "a2"}, {ArticleID: "a3"}}
	assert.Equal(t, KindUnchanged, classifyChange(existing, members))
}

func TestClassifyChange_DifferentMembersIsChanged(t *testing.T) {
	existing := &entity.NeutralGroup{SourceIDs: []string{"a1", "a2"}}
	members := []*entity.Article{{ArticleID: "a1"}, {ArticleID: "a2"}, {ArticleID: "a4"}}
	assert.Equal(t, KindChanged, classifyChange(existing, members))
}
