// Package postgres provides PostgreSQL implementations of the repository
// interfaces the core pipeline depends on.
package postgres

import (
	"fmt"
	"strings"
)

// ArticleQueryBuilder builds the dynamic WHERE fragments the store gateway
// needs for its id-set and date-range queries (§6.3), using PostgreSQL's
// numbered placeholders ($1, $2, ...).
type ArticleQueryBuilder struct{}

// NewArticleQueryBuilder creates a new query builder instance.
func NewArticleQueryBuilder() *ArticleQueryBuilder {
	return &ArticleQueryBuilder{}
}

// InClause builds a "column IN ($n, $n+1, ...)" fragment for the given
// values, starting placeholder numbering at startIndex (1-based). Returns an
// empty clause for an empty values slice - callers should omit the fragment
// entirely in that case rather than produce "IN ()".
func (qb *ArticleQueryBuilder) InClause(column string, values []interface{}, startIndex int) (clause string, args []interface{}) {
	if len(values) == 0 {
		return "", nil
	}

	placeholders := make([]string, len(values))
	for i := range values {
		placeholders[i] = fmt.Sprintf("$%d", startIndex+i)
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")), values
}

// Batches splits ids into chunks no larger than batchSize, the generic
// write-batch ceiling every store operation re-batches against on overflow.
func Batches(ids []string, batchSize int) [][]string {
	if batchSize <= 0 {
		batchSize = 450
	}
	if len(ids) == 0 {
		return nil
	}

	var batches [][]string
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
