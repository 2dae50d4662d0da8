package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"neutralnews/internal/domain/entity"
	"neutralnews/internal/repository"
	"neutralnews/internal/resilience/circuitbreaker"

	"github.com/pgvector/pgvector-go"
)

// ArticleRepo is the Postgres implementation of the store gateway (C4, §6.3).
// Every query runs through a circuit breaker so a failing database trips
// open instead of piling up blocked ingest/neutralize workers behind it.
type ArticleRepo struct {
	db *circuitbreaker.DBCircuitBreaker
	qb *ArticleQueryBuilder
}

func NewArticleRepo(db *sql.DB) repository.ArticleStore {
	return &ArticleRepo{db: circuitbreaker.NewDBCircuitBreaker(db), qb: NewArticleQueryBuilder()}
}

func scanArticle(row interface {
	Scan(dest ...interface{}) error
}) (*entity.Article, error) {
	var a entity.Article
	var rawDesc, scrapedDesc, category, imageURL sql.NullString
	var updatedAt sql.NullTime
	var groupID sql.NullInt64
	var neutralScore sql.NullInt64
	var vec *pgvector.Vector
	var vecNull sql.NullBool

	if err := row.Scan(
		&a.ArticleID, &a.Outlet, &a.Link, &a.Title,
		&rawDesc, &scrapedDesc, &category, &imageURL,
		&a.PubDate, &a.CreatedAt, &updatedAt,
		&groupID, &neutralScore, &vec, &vecNull,
	); err != nil {
		return nil, err
	}

	a.RawDescription = rawDesc.String
	a.ScrapedDescription = scrapedDesc.String
	a.Category = category.String
	a.ImageURL = imageURL.String
	if updatedAt.Valid {
		t := updatedAt.Time
		a.UpdatedAt = &t
	}
	if groupID.Valid {
		g := groupID.Int64
		a.GroupID = &g
	}
	if neutralScore.Valid {
		n := int(neutralScore.Int64)
		a.NeutralScore = &n
	}
	if vec != nil && vecNull.Valid && vecNull.Bool {
		a.Embedding = vec.Slice()
	}
	return &a, nil
}

const articleColumns = `article_id, outlet, link, title, raw_description, scraped_description,
    category, image_url, pub_date, created_at, updated_at, group_id, neutral_score,
    embedding, (embedding IS NOT NULL)`

func (r *ArticleRepo) PutArticle(ctx context.Context, article *entity.Article) (bool, error) {
	exists, err := r.ExistsByLink(ctx, article.Link)
	if err != nil {
		return false, fmt.Errorf("PutArticle: ExistsByLink: %w", err)
	}
	if exists {
		return false, nil
	}

	const query = `
INSERT INTO articles
    (article_id, outlet, link, title, raw_description, scraped_description,
     category, image_url, pub_date, created_at, group_id, neutral_score)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (link) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		article.ArticleID, article.Outlet, article.Link, article.Title,
		nullIfEmpty(article.RawDescription), nullIfEmpty(article.ScrapedDescription),
		nullIfEmpty(article.Category), nullIfEmpty(article.ImageURL),
		article.PubDate, article.CreatedAt, article.GroupID, article.NeutralScore,
	)
	if err != nil {
		return false, fmt.Errorf("PutArticle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("PutArticle: RowsAffected: %w", err)
	}
	return n > 0, nil
}

func (r *ArticleRepo) ExistsByLink(ctx context.Context, link string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM articles WHERE link = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, link).Scan(&exists); err != nil {
		return false, fmt.Errorf("ExistsByLink: %w", err)
	}
	return exists, nil
}

func (r *ArticleRepo) ListLinksByOutlet(ctx context.Context, outlet string) (map[string]struct{}, error) {
	const query = `SELECT link FROM articles WHERE outlet = $1`
	rows, err := r.db.QueryContext(ctx, query, outlet)
	if err != nil {
		return nil, fmt.Errorf("ListLinksByOutlet: %w", err)
	}
	defer func() { _ = rows.Close() }()

	links := make(map[string]struct{})
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("ListLinksByOutlet: Scan: %w", err)
		}
		links[entity.NormalizeLink(link)] = struct{}{}
	}
	return links, rows.Err()
}

func (r *ArticleRepo) QueryArticles(ctx context.Context, pubDateSince time.Time, groupIDIn []int64) ([]*entity.Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles WHERE pub_date >= $1`, articleColumns)
	args := []interface{}{pubDateSince}

	if len(groupIDIn) > 0 {
		values := make([]interface{}, len(groupIDIn))
		for i, id := range groupIDIn {
			values[i] = id
		}
		clause, inArgs := r.qb.InClause("group_id", values, 2)
		query += " AND " + clause
		args = append(args, inArgs...)
	}
	query += " ORDER BY pub_date DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("QueryArticles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, 64)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("QueryArticles: Scan: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (r *ArticleRepo) ListForGrouping(ctx context.Context, recentWindow time.Duration) ([]repository.GroupingCandidate, error) {
	since := time.Now().UTC().Add(-recentWindow)
	recentGroups, err := r.ListRecentGroupIDs(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("ListForGrouping: ListRecentGroupIDs: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM articles WHERE pub_date >= $1 ORDER BY pub_date DESC`, articleColumns)
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("ListForGrouping: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]repository.GroupingCandidate, 0, 64)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("ListForGrouping: Scan: %w", err)
		}
		reference := false
		if a.GroupID != nil {
			_, reference = recentGroups[*a.GroupID]
		}
		candidates = append(candidates, repository.GroupingCandidate{Article: a, Reference: reference})
	}
	return candidates, rows.Err()
}

func (r *ArticleRepo) ListRecentGroupIDs(ctx context.Context, since time.Time) (map[int64]struct{}, error) {
	const query = `SELECT group_id FROM neutral_groups WHERE date >= $1`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("ListRecentGroupIDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListRecentGroupIDs: Scan: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func (r *ArticleRepo) PutEmbedding(ctx context.Context, articleID string, vec []float32) error {
	const query = `UPDATE articles SET embedding = $1, updated_at = $2 WHERE article_id = $3`
	res, err := r.db.ExecContext(ctx, query, pgvector.NewVector(vec), time.Now().UTC(), articleID)
	if err != nil {
		return fmt.Errorf("PutEmbedding: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *ArticleRepo) ListGroupItems(ctx context.Context, groupID int64) ([]*entity.Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles WHERE group_id = $1 ORDER BY pub_date DESC`, articleColumns)
	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("ListGroupItems: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, 16)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("ListGroupItems: Scan: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (r *ArticleRepo) CountGroupItems(ctx context.Context, groupID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM articles WHERE group_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, groupID).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountGroupItems: %w", err)
	}
	return count, nil
}

func (r *ArticleRepo) UpdateGroupID(ctx context.Context, articleID string, groupID *int64) error {
	const query = `UPDATE articles SET group_id = $1, updated_at = $2 WHERE article_id = $3`
	res, err := r.db.ExecContext(ctx, query, groupID, time.Now().UTC(), articleID)
	if err != nil {
		return fmt.Errorf("UpdateGroupID: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *ArticleRepo) UpdateNeutralScore(ctx context.Context, articleID string, score int) error {
	const query = `UPDATE articles SET neutral_score = $1, updated_at = $2 WHERE article_id = $3`
	res, err := r.db.ExecContext(ctx, query, score, time.Now().UTC(), articleID)
	if err != nil {
		return fmt.Errorf("UpdateNeutralScore: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *ArticleRepo) DeleteArticles(ctx context.Context, ids []string) error {
	for _, batch := range Batches(ids, repository.BatchSize) {
		values := make([]interface{}, len(batch))
		for i, id := range batch {
			values[i] = id
		}
		clause, args := r.qb.InClause("article_id", values, 1)
		if clause == "" {
			continue
		}
		query := "DELETE FROM articles WHERE " + clause
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("DeleteArticles: %w", err)
		}
	}
	return nil
}

func (r *ArticleRepo) ListArticleIDsCreatedBefore(ctx context.Context, threshold time.Time) ([]string, error) {
	const query = `SELECT article_id FROM articles WHERE created_at < $1`
	rows, err := r.db.QueryContext(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("ListArticleIDsCreatedBefore: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListArticleIDsCreatedBefore: Scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ArticleRepo) GetGroup(ctx context.Context, groupID int64) (*entity.NeutralGroup, error) {
	const query = `
SELECT group_id, neutral_title, neutral_description, category, relevance,
       source_ids, image_url, image_medium, date, created_at, updated_at
FROM neutral_groups WHERE group_id = $1`

	g, err := scanGroup(r.db.QueryRowContext(ctx, query, groupID))
	if err == sql.ErrNoRows {
		return nil, entity.ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetGroup: %w", err)
	}
	return g, nil
}

func scanGroup(row interface {
	Scan(dest ...interface{}) error
}) (*entity.NeutralGroup, error) {
	var g entity.NeutralGroup
	var category, imageURL, imageMedium sql.NullString
	var updatedAt sql.NullTime
	var sourceIDs []string

	if err := row.Scan(
		&g.GroupID, &g.NeutralTitle, &g.NeutralDescription, &category, &g.Relevance,
		pgArray(&sourceIDs), &imageURL, &imageMedium, &g.Date, &g.CreatedAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	g.Category = category.String
	g.ImageURL = imageURL.String
	g.ImageMedium = imageMedium.String
	g.SourceIDs = sourceIDs
	if updatedAt.Valid {
		t := updatedAt.Time
		g.UpdatedAt = &t
	}
	return &g, nil
}

func (r *ArticleRepo) PutGroup(ctx context.Context, group *entity.NeutralGroup) error {
	const query = `
INSERT INTO neutral_groups
    (group_id, neutral_title, neutral_description, category, relevance,
     source_ids, image_url, image_medium, date, created_at)
VALUES ($1, $2, $3, $4, $5, $6::text[], $7, $8, $9, $10)
ON CONFLICT (group_id) DO UPDATE SET
    neutral_title = EXCLUDED.neutral_title,
    neutral_description = EXCLUDED.neutral_description,
    category = EXCLUDED.category,
    relevance = EXCLUDED.relevance,
    source_ids = EXCLUDED.source_ids,
    image_url = EXCLUDED.image_url,
    image_medium = EXCLUDED.image_medium,
    date = EXCLUDED.date,
    updated_at = now()`

	_, err := r.db.ExecContext(ctx, query,
		group.GroupID, group.NeutralTitle, group.NeutralDescription, nullIfEmpty(group.Category),
		group.Relevance, pgArrayLiteral(group.SourceIDs), nullIfEmpty(group.ImageURL),
		nullIfEmpty(group.ImageMedium), group.Date, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("PutGroup: %w", err)
	}
	return nil
}

func (r *ArticleRepo) PatchGroup(ctx context.Context, groupID int64, patch repository.GroupPatch) error {
	var sets []string
	var args []interface{}
	idx := 1

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, value)
		idx++
	}

	if patch.NeutralTitle != nil {
		add("neutral_title", *patch.NeutralTitle)
	}
	if patch.NeutralDescription != nil {
		add("neutral_description", *patch.NeutralDescription)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Relevance != nil {
		add("relevance", *patch.Relevance)
	}
	if patch.SourceIDs != nil {
		sets = append(sets, fmt.Sprintf("source_ids = $%d::text[]", idx))
		args = append(args, pgArrayLiteral(patch.SourceIDs))
		idx++
	}
	if patch.Date != nil {
		add("date", *patch.Date)
	}
	if patch.ImageURL != nil {
		add("image_url", *patch.ImageURL)
	}
	if patch.ImageMedium != nil {
		add("image_medium", *patch.ImageMedium)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf("UPDATE neutral_groups SET %s WHERE group_id = $%d", strings.Join(sets, ", "), idx)
	args = append(args, groupID)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("PatchGroup: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrGroupNotFound
	}
	return nil
}

func (r *ArticleRepo) DeleteGroup(ctx context.Context, groupID int64) error {
	const query = `DELETE FROM neutral_groups WHERE group_id = $1`
	res, err := r.db.ExecContext(ctx, query, groupID)
	if err != nil {
		return fmt.Errorf("DeleteGroup: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrGroupNotFound
	}
	return nil
}

func (r *ArticleRepo) DeleteGroups(ctx context.Context, ids []int64) error {
	for start := 0; start < len(ids); start += repository.BatchSize {
		end := start + repository.BatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]
		values := make([]interface{}, len(batch))
		for i, id := range batch {
			values[i] = id
		}
		clause, args := r.qb.InClause("group_id", values, 1)
		if clause == "" {
			continue
		}
		query := "DELETE FROM neutral_groups WHERE " + clause
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("DeleteGroups: %w", err)
		}
	}
	return nil
}

func (r *ArticleRepo) ListGroupIDsCreatedBefore(ctx context.Context, threshold time.Time) ([]int64, error) {
	const query = `SELECT group_id FROM neutral_groups WHERE created_at < $1`
	rows, err := r.db.QueryContext(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("ListGroupIDsCreatedBefore: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListGroupIDsCreatedBefore: Scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ArticleRepo) QueryRecentGroups(ctx context.Context, since time.Time) ([]*entity.NeutralGroup, error) {
	const query = `
SELECT group_id, neutral_title, neutral_description, category, relevance,
       source_ids, image_url, image_medium, date, created_at, updated_at
FROM neutral_groups WHERE date >= $1 ORDER BY date DESC`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("QueryRecentGroups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	groups := make([]*entity.NeutralGroup, 0, 32)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("QueryRecentGroups: Scan: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *ArticleRepo) RemoveSourceFromGroup(ctx context.Context, groupID int64, articleID string) error {
	const query = `
UPDATE neutral_groups
SET source_ids = array_remove(source_ids, $1), updated_at = now()
WHERE group_id = $2`
	res, err := r.db.ExecContext(ctx, query, articleID, groupID)
	if err != nil {
		return fmt.Errorf("RemoveSourceFromGroup: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrGroupNotFound
	}
	return nil
}

func (r *ArticleRepo) MaxGroupID(ctx context.Context) (int64, error) {
	const query = `SELECT COALESCE(MAX(group_id), 0) FROM neutral_groups WHERE group_id < 1000000`
	var max int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&max); err != nil {
		return 0, fmt.Errorf("MaxGroupID: %w", err)
	}
	return max, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
