package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/fwojciec/intel"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ intel.ArticleService = (*ArticleService)(nil)

// bm25 column weights for title and content.
const (
	titleWeight   = 10.0
	contentWeight = 1.0
)

var articleColumns = []string{
	"a.id", "a.url", "a.title", "a.content", "a.content_hash", "a.publish_date", "a.source",
	"a.status", "a.scraped_at", "a.analyzed_at",
	"a.summary", "a.entities", "a.classification", "a.sentiment_score",
	"a.extraction_method", "a.truncated", "a.original_length", "a.model", "a.processing_time_seconds",
	"a.error_kind", "a.error_message", "a.failed_at",
}

// ArticleService implements intel.ArticleService using SQLite.
type ArticleService struct {
	db *DB
}

// NewArticleService creates a new ArticleService.
func NewArticleService(db *DB) *ArticleService {
	return &ArticleService{db: db}
}

// UpsertArticle inserts the article or replaces the non-complete record with the same URL.
func (s *ArticleService) UpsertArticle(ctx context.Context, a *intel.Article) error {
	if err := a.Validate(); err != nil {
		return err
	}

	entities, err := marshalEntities(a.Entities)
	if err != nil {
		return err
	}
	var errKind, errMessage, failedAt sql.NullString
	if log := a.Metadata.ErrorLog; log != nil {
		errKind = sql.NullString{String: log.Kind, Valid: true}
		errMessage = sql.NullString{String: log.Message, Valid: true}
		failedAt = sql.NullString{String: formatTime(log.FailedAt), Valid: true}
	}

	var id string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO articles (
			id, url, title, content, content_hash, publish_date, source,
			status, scraped_at, analyzed_at, summary, entities, classification, sentiment_score,
			extraction_method, truncated, original_length, model, processing_time_seconds,
			error_kind, error_message, failed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			content_hash = excluded.content_hash,
			publish_date = excluded.publish_date,
			source = excluded.source,
			status = excluded.status,
			scraped_at = excluded.scraped_at,
			analyzed_at = excluded.analyzed_at,
			summary = excluded.summary,
			entities = excluded.entities,
			classification = excluded.classification,
			sentiment_score = excluded.sentiment_score,
			extraction_method = excluded.extraction_method,
			truncated = excluded.truncated,
			original_length = excluded.original_length,
			model = excluded.model,
			processing_time_seconds = excluded.processing_time_seconds,
			error_kind = excluded.error_kind,
			error_message = excluded.error_message,
			failed_at = excluded.failed_at
		WHERE articles.status <> 'complete'
		RETURNING id
	`,
		uuid.New().String(), a.URL, a.Title, a.Content, a.ContentHash, formatTime(a.PublishDate), a.Source,
		string(a.Status), formatTime(a.ScrapedAt), formatNullTime(a.AnalyzedAt),
		nullString(a.Summary), entities, nullClassification(a.Classification), nullInt(a.SentimentScore),
		a.Metadata.ExtractionMethod, a.Metadata.Truncated, a.Metadata.OriginalLength, a.Metadata.Model, a.Metadata.ProcessingTimeSeconds,
		errKind, errMessage, failedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return intel.Errorf(intel.ECONFLICT, "article %q is already complete", a.URL)
	}
	if err != nil {
		return err
	}

	a.ID = id
	return nil
}

// FindArticleByID retrieves an article by ID.
func (s *ArticleService) FindArticleByID(ctx context.Context, id string) (*intel.Article, error) {
	return s.findOne(ctx, sq.Eq{"a.id": id})
}

// FindArticleByURL retrieves an article by its source URL.
func (s *ArticleService) FindArticleByURL(ctx context.Context, url string) (*intel.Article, error) {
	return s.findOne(ctx, sq.Eq{"a.url": url})
}

func (s *ArticleService) findOne(ctx context.Context, pred sq.Sqlizer) (*intel.Article, error) {
	query, args, err := sq.Select(articleColumns...).From("articles a").Where(pred).ToSql()
	if err != nil {
		return nil, err
	}
	a, err := scanArticle(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, intel.Errorf(intel.ENOTFOUND, "article not found")
	}
	return a, err
}

// FindArticles retrieves articles matching the filter.
func (s *ArticleService) FindArticles(ctx context.Context, filter intel.ArticleFilter) ([]*intel.Article, int, error) {
	var total int
	countQuery, countArgs, err := applyFilter(sq.Select("COUNT(*)").From("articles a"), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	b := applyFilter(sq.Select(articleColumns...).From("articles a"), filter)
	if filter.SortBy == intel.SortByRelevance && filter.Search != nil {
		b = b.OrderBy(fmt.Sprintf("bm25(articles_fts, %.1f, %.1f)", titleWeight, contentWeight), "a.publish_date DESC")
	} else {
		b = b.OrderBy("a.publish_date DESC", "a.seq DESC")
	}
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	} else if filter.Offset > 0 {
		// SQLite requires LIMIT with OFFSET.
		b = b.Limit(math.MaxInt64)
	}
	if filter.Offset > 0 {
		b = b.Offset(uint64(filter.Offset))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	articles := make([]*intel.Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		articles = append(articles, a)
	}
	return articles, total, rows.Err()
}

// applyFilter adds the filter's predicates to a select over "articles a".
func applyFilter(b sq.SelectBuilder, filter intel.ArticleFilter) sq.SelectBuilder {
	if filter.Search != nil {
		b = b.Join("articles_fts ON articles_fts.rowid = a.seq").
			Where(sq.Expr("articles_fts MATCH ?", ftsQuery(*filter.Search)))
	}
	if filter.ID != nil {
		b = b.Where(sq.Eq{"a.id": *filter.ID})
	}
	if filter.URL != nil {
		b = b.Where(sq.Eq{"a.url": *filter.URL})
	}
	if filter.Status != nil {
		b = b.Where(sq.Eq{"a.status": string(*filter.Status)})
	}
	if filter.Source != nil {
		b = b.Where(sq.Eq{"a.source": *filter.Source})
	}
	if filter.Classification != nil {
		b = b.Where(sq.Eq{"a.classification": string(*filter.Classification)})
	}
	if filter.MinSentiment != nil {
		b = b.Where(sq.GtOrEq{"a.sentiment_score": *filter.MinSentiment})
	}
	if filter.MaxSentiment != nil {
		b = b.Where(sq.LtOrEq{"a.sentiment_score": *filter.MaxSentiment})
	}
	if filter.PublishedAfter != nil {
		b = b.Where(sq.GtOrEq{"a.publish_date": formatTime(*filter.PublishedAfter)})
	}
	if filter.PublishedBefore != nil {
		b = b.Where(sq.LtOrEq{"a.publish_date": formatTime(*filter.PublishedBefore)})
	}
	return b
}

// CompleteArticle stores an analysis on a pending article.
func (s *ArticleService) CompleteArticle(ctx context.Context, id string, result *intel.AnalysisResult) (*intel.Article, error) {
	if result == nil {
		return nil, intel.Errorf(intel.EINVALID, "analysis result required")
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	entities, err := marshalEntities(result.Entities)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE articles
		SET status = 'complete', analyzed_at = ?, summary = ?, entities = ?, classification = ?,
			sentiment_score = ?, model = ?, processing_time_seconds = ?,
			error_kind = NULL, error_message = NULL, failed_at = NULL
		WHERE id = ? AND status = 'pending'
	`, formatTime(result.AnalyzedAt), result.Summary, entities, string(result.Classification),
		result.SentimentScore, result.Model, result.ProcessingTimeSeconds, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkTransition(ctx, res, id, "not pending"); err != nil {
		return nil, err
	}
	return s.FindArticleByID(ctx, id)
}

// FailArticle marks an article as failed and clears its analysis fields.
func (s *ArticleService) FailArticle(ctx context.Context, id string, log *intel.ErrorLog) (*intel.Article, error) {
	if log == nil {
		return nil, intel.Errorf(intel.EINVALID, "error log required")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE articles
		SET status = 'failed', analyzed_at = NULL, summary = NULL, entities = NULL,
			classification = NULL, sentiment_score = NULL,
			error_kind = ?, error_message = ?, failed_at = ?
		WHERE id = ? AND status <> 'complete'
	`, log.Kind, log.Message, formatTime(log.FailedAt), id)
	if err != nil {
		return nil, err
	}
	if err := s.checkTransition(ctx, res, id, "already complete"); err != nil {
		return nil, err
	}
	return s.FindArticleByID(ctx, id)
}

// checkTransition reports ENOTFOUND or ECONFLICT when a guarded update
// touched no rows.
func (s *ArticleService) checkTransition(ctx context.Context, res sql.Result, id, conflict string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := s.FindArticleByID(ctx, id); err != nil {
		return err
	}
	return intel.Errorf(intel.ECONFLICT, "article %q is %s", id, conflict)
}

// ArticleStats returns aggregate statistics over all articles.
func (s *ArticleService) ArticleStats(ctx context.Context) (*intel.ArticleStats, error) {
	var stats intel.ArticleStats
	var avg sql.NullFloat64
	var last sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(status = 'pending'), 0),
			COALESCE(SUM(status = 'complete'), 0),
			COALESCE(SUM(status = 'failed'), 0),
			AVG(CASE WHEN status = 'complete' THEN sentiment_score END),
			MAX(CASE WHEN status = 'complete' THEN analyzed_at END)
		FROM articles
	`).Scan(&stats.Total, &stats.Pending, &stats.Complete, &stats.Failed, &avg, &last)
	if err != nil {
		return nil, err
	}
	stats.AvgSentiment = avg.Float64
	if stats.LastAnalyzedAt, err = parseNullTime(last, "analyzed_at"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT classification, COUNT(*)
		FROM articles
		WHERE status = 'complete'
		GROUP BY classification
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats.ByClassification = make(map[intel.Classification]int)
	for rows.Next() {
		var c string
		var n int
		if err := rows.Scan(&c, &n); err != nil {
			return nil, err
		}
		stats.ByClassification[intel.Classification(c)] = n
	}
	return &stats, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner) (*intel.Article, error) {
	var a intel.Article
	var status, publishDate, scrapedAt string
	var analyzedAt, summary, entities, classification sql.NullString
	var sentiment sql.NullInt64
	var errKind, errMessage, failedAt sql.NullString

	if err := row.Scan(
		&a.ID, &a.URL, &a.Title, &a.Content, &a.ContentHash, &publishDate, &a.Source,
		&status, &scrapedAt, &analyzedAt,
		&summary, &entities, &classification, &sentiment,
		&a.Metadata.ExtractionMethod, &a.Metadata.Truncated, &a.Metadata.OriginalLength,
		&a.Metadata.Model, &a.Metadata.ProcessingTimeSeconds,
		&errKind, &errMessage, &failedAt,
	); err != nil {
		return nil, err
	}

	var err error
	a.Status = intel.Status(status)
	if a.PublishDate, err = parseRFC3339(publishDate, "publish_date"); err != nil {
		return nil, err
	}
	if a.ScrapedAt, err = parseRFC3339(scrapedAt, "scraped_at"); err != nil {
		return nil, err
	}
	if a.AnalyzedAt, err = parseNullTime(analyzedAt, "analyzed_at"); err != nil {
		return nil, err
	}
	if summary.Valid {
		a.Summary = &summary.String
	}
	if entities.Valid {
		if err := json.Unmarshal([]byte(entities.String), &a.Entities); err != nil {
			return nil, fmt.Errorf("failed to decode entities: %w", err)
		}
		if a.Entities == nil {
			a.Entities = []intel.Entity{}
		}
	}
	if classification.Valid {
		c := intel.Classification(classification.String)
		a.Classification = &c
	}
	if sentiment.Valid {
		score := int(sentiment.Int64)
		a.SentimentScore = &score
	}
	if errKind.Valid {
		var at time.Time
		if failedAt.Valid {
			if at, err = parseRFC3339(failedAt.String, "failed_at"); err != nil {
				return nil, err
			}
		}
		a.Metadata.ErrorLog = &intel.ErrorLog{Kind: errKind.String, Message: errMessage.String, FailedAt: at}
	}
	return &a, nil
}

func marshalEntities(entities []intel.Entity) (sql.NullString, error) {
	if entities == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(entities)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode entities: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullClassification(c *intel.Classification) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*c), Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
