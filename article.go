package intel

import (
	"context"
	"time"
)

// Status represents the lifecycle state of an article.
type Status string

// Article lifecycle states. Complete and failed are terminal.
const (
	StatusPending  Status = "pending"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusComplete, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further automatic transition occurs from s.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Article is the persisted record for a single source URL.
// Analysis fields are nil until the article is complete.
type Article struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ContentHash string    `json:"contentHash"`
	PublishDate time.Time `json:"publishDate"`
	Source      string    `json:"source"`

	Status     Status     `json:"status"`
	ScrapedAt  time.Time  `json:"scrapedAt"`
	AnalyzedAt *time.Time `json:"analyzedAt"`

	Summary        *string         `json:"summary"`
	Entities       []Entity        `json:"entities"`
	Classification *Classification `json:"classification"`
	SentimentScore *int            `json:"sentimentScore"`

	Metadata ArticleMetadata `json:"metadata"`
}

// ArticleMetadata holds technical details about how an article was processed.
type ArticleMetadata struct {
	ExtractionMethod      string    `json:"extractionMethod"`
	Truncated             bool      `json:"truncated"`
	OriginalLength        int       `json:"originalLength"`
	Model                 string    `json:"model,omitempty"`
	ProcessingTimeSeconds float64   `json:"processingTimeSeconds"`
	ErrorLog              *ErrorLog `json:"errorLog,omitempty"`
}

// ErrorLog records why an article failed.
type ErrorLog struct {
	Kind     string    `json:"kind"`
	Message  string    `json:"message"`
	FailedAt time.Time `json:"failedAt"`
}

// NewErrorLog builds an ErrorLog from an error using its application code.
func NewErrorLog(err error, at time.Time) *ErrorLog {
	return &ErrorLog{
		Kind:     ErrorCode(err),
		Message:  ErrorMessage(err),
		FailedAt: at,
	}
}

// Validate returns an error if the article contains invalid fields.
func (a *Article) Validate() error {
	if a.URL == "" {
		return Errorf(EINVALID, "article URL required")
	}
	if !a.Status.Valid() {
		return Errorf(EINVALID, "article status %q invalid", a.Status)
	}
	switch a.Status {
	case StatusPending:
		if a.Content == "" {
			return Errorf(EINVALID, "pending article content required")
		}
		if a.hasAnalysis() {
			return Errorf(EINVALID, "pending article must not carry analysis fields")
		}
	case StatusComplete:
		if a.Summary == nil || a.Entities == nil || a.Classification == nil || a.SentimentScore == nil || a.AnalyzedAt == nil {
			return Errorf(EINVALID, "complete article requires all analysis fields")
		}
	case StatusFailed:
		if a.Metadata.ErrorLog == nil {
			return Errorf(EINVALID, "failed article requires an error log")
		}
		if a.hasAnalysis() {
			return Errorf(EINVALID, "failed article must not carry analysis fields")
		}
	}
	return nil
}

func (a *Article) hasAnalysis() bool {
	return a.Summary != nil || a.Entities != nil || a.Classification != nil || a.SentimentScore != nil
}

// ApplyAnalysis transitions a pending article to complete.
func (a *Article) ApplyAnalysis(result *AnalysisResult) error {
	if a.Status != StatusPending {
		return Errorf(ECONFLICT, "article %q is %s, not pending", a.URL, a.Status)
	}
	summary := result.Summary
	classification := result.Classification
	score := result.SentimentScore
	analyzedAt := result.AnalyzedAt
	entities := make([]Entity, len(result.Entities))
	copy(entities, result.Entities)

	a.Status = StatusComplete
	a.Summary = &summary
	a.Entities = entities
	a.Classification = &classification
	a.SentimentScore = &score
	a.AnalyzedAt = &analyzedAt
	a.Metadata.Model = result.Model
	a.Metadata.ProcessingTimeSeconds = result.ProcessingTimeSeconds
	a.Metadata.ErrorLog = nil
	return nil
}

// MarkFailed transitions a non-complete article to failed.
func (a *Article) MarkFailed(log *ErrorLog) error {
	if a.Status == StatusComplete {
		return Errorf(ECONFLICT, "article %q is already complete", a.URL)
	}
	a.Status = StatusFailed
	a.Summary = nil
	a.Entities = nil
	a.Classification = nil
	a.SentimentScore = nil
	a.AnalyzedAt = nil
	a.Metadata.ErrorLog = log
	return nil
}

// ArticleService represents a service for managing articles.
// Articles are unique by URL.
type ArticleService interface {
	// UpsertArticle inserts the article or replaces the record with the same URL.
	// The ID of an existing record is preserved and written back to a.
	// Returns ECONFLICT if the existing record is complete.
	UpsertArticle(ctx context.Context, a *Article) error

	// FindArticleByID retrieves an article by ID.
	// Returns ENOTFOUND if article does not exist.
	FindArticleByID(ctx context.Context, id string) (*Article, error)

	// FindArticleByURL retrieves an article by its source URL.
	// Returns ENOTFOUND if article does not exist.
	FindArticleByURL(ctx context.Context, url string) (*Article, error)

	// FindArticles retrieves articles matching the filter and the total
	// number of matches ignoring Offset and Limit.
	FindArticles(ctx context.Context, filter ArticleFilter) ([]*Article, int, error)

	// CompleteArticle stores an analysis on a pending article.
	// Returns ENOTFOUND if article does not exist, ECONFLICT if it is not pending.
	CompleteArticle(ctx context.Context, id string, result *AnalysisResult) (*Article, error)

	// FailArticle marks an article as failed.
	// Returns ENOTFOUND if article does not exist, ECONFLICT if it is complete.
	FailArticle(ctx context.Context, id string, log *ErrorLog) (*Article, error)

	// ArticleStats returns aggregate statistics over all articles.
	ArticleStats(ctx context.Context) (*ArticleStats, error)
}

// SortOrder represents the sort order for article queries.
type SortOrder string

// SortOrder constants for ArticleFilter.
const (
	SortByPublishDate SortOrder = "publish_date"
	SortByRelevance   SortOrder = "relevance"
)

// ArticleFilter represents a filter for FindArticles. Nil fields are ignored.
type ArticleFilter struct {
	ID             *string         `json:"id"`
	URL            *string         `json:"url"`
	Status         *Status         `json:"status"`
	Source         *string         `json:"source"`
	Classification *Classification `json:"classification"`

	MinSentiment *int `json:"minSentiment"`
	MaxSentiment *int `json:"maxSentiment"`

	PublishedAfter  *time.Time `json:"publishedAfter"`
	PublishedBefore *time.Time `json:"publishedBefore"`

	// Search matches words in title and content. Title matches rank higher.
	Search *string `json:"search"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`

	SortBy SortOrder `json:"sortBy"`
}

// ArticleStats holds aggregate statistics. Classification and sentiment
// figures cover complete articles only.
type ArticleStats struct {
	Total            int                    `json:"total"`
	Pending          int                    `json:"pending"`
	Complete         int                    `json:"complete"`
	Failed           int                    `json:"failed"`
	ByClassification map[Classification]int `json:"classificationBreakdown"`
	AvgSentiment     float64                `json:"avgSentiment"`
	LastAnalyzedAt   *time.Time             `json:"lastUpdated"`
}
