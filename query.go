package intel

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Pagination limits for ListArticles.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	topEntityCount  = 3
)

// ListQuery is a read-side list request.
type ListQuery struct {
	Page     int
	PageSize int

	Classification *Classification
	MinSentiment   *int
	MaxSentiment   *int
	From           *time.Time
	To             *time.Time
	Source         *string
	SearchText     *string
}

// ArticlePage is one page of article summaries.
type ArticlePage struct {
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	Data     []ArticleSummary `json:"data"`
}

// ArticleSummary is the list representation of a complete article.
type ArticleSummary struct {
	ID             string         `json:"id"`
	URL            string         `json:"url"`
	Title          string         `json:"title"`
	Summary        string         `json:"summary"`
	Classification Classification `json:"classification"`
	SentimentScore int            `json:"sentimentScore"`
	PublishDate    time.Time      `json:"publishDate"`
	Source         string         `json:"source"`
	TopEntities    []string       `json:"topEntities"`
}

// Filter converts the query into an ArticleFilter restricted to complete articles.
func (q ListQuery) Filter() (ArticleFilter, error) {
	page, size := q.Page, q.PageSize
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		return ArticleFilter{}, Errorf(EINVALID, "page must be at least 1")
	}
	if size < 1 || size > MaxPageSize {
		return ArticleFilter{}, Errorf(EINVALID, "page size must be between 1 and %d", MaxPageSize)
	}
	if q.Classification != nil && !q.Classification.Valid() {
		return ArticleFilter{}, Errorf(EINVALID, "classification %q invalid", *q.Classification)
	}
	for _, s := range []*int{q.MinSentiment, q.MaxSentiment} {
		if s != nil && (*s < MinSentimentScore || *s > MaxSentimentScore) {
			return ArticleFilter{}, Errorf(EINVALID, "sentiment bound %d out of range", *s)
		}
	}
	if q.MinSentiment != nil && q.MaxSentiment != nil && *q.MinSentiment > *q.MaxSentiment {
		return ArticleFilter{}, Errorf(EINVALID, "minimum sentiment exceeds maximum")
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return ArticleFilter{}, Errorf(EINVALID, "date range start is after end")
	}

	complete := StatusComplete
	filter := ArticleFilter{
		Status:          &complete,
		Source:          q.Source,
		Classification:  q.Classification,
		MinSentiment:    q.MinSentiment,
		MaxSentiment:    q.MaxSentiment,
		PublishedAfter:  q.From,
		PublishedBefore: q.To,
		Offset:          (page - 1) * size,
		Limit:           size,
		SortBy:          SortByPublishDate,
	}
	if q.SearchText != nil {
		if text := strings.TrimSpace(*q.SearchText); text != "" {
			filter.Search = &text
		}
	}
	return filter, nil
}

// ListArticles returns one page of complete articles matching the query.
func ListArticles(ctx context.Context, svc ArticleService, q ListQuery) (*ArticlePage, error) {
	filter, err := q.Filter()
	if err != nil {
		return nil, err
	}

	articles, total, err := svc.FindArticles(ctx, filter)
	if err != nil {
		return nil, err
	}

	data := make([]ArticleSummary, 0, len(articles))
	for _, a := range articles {
		if s, ok := Summarize(a); ok {
			data = append(data, s)
		}
	}

	return &ArticlePage{
		Total:    total,
		Page:     filter.Offset/filter.Limit + 1,
		PageSize: filter.Limit,
		Data:     data,
	}, nil
}

// Summarize builds the list view of an article.
// Returns false for articles that are not complete.
func Summarize(a *Article) (ArticleSummary, bool) {
	if a.Status != StatusComplete || a.Summary == nil || a.Classification == nil || a.SentimentScore == nil {
		return ArticleSummary{}, false
	}
	return ArticleSummary{
		ID:             a.ID,
		URL:            a.URL,
		Title:          a.Title,
		Summary:        *a.Summary,
		Classification: *a.Classification,
		SentimentScore: *a.SentimentScore,
		PublishDate:    a.PublishDate,
		Source:         a.Source,
		TopEntities:    TopEntities(a.Entities, topEntityCount),
	}, true
}

// TopEntities returns the texts of the n most mentioned entities.
// Ties keep their original order.
func TopEntities(entities []Entity, n int) []string {
	sorted := make([]Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Mentions > sorted[j].Mentions
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]string, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, e.Text)
	}
	return out
}
