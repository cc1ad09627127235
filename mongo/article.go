package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/fwojciec/intel"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time interface verification.
var _ intel.ArticleService = (*ArticleService)(nil)

// ArticleService implements intel.ArticleService using MongoDB.
type ArticleService struct {
	db *DB
}

// NewArticleService creates a new ArticleService.
func NewArticleService(db *DB) *ArticleService {
	return &ArticleService{db: db}
}

type articleDoc struct {
	ID          string    `bson:"_id"`
	URL         string    `bson:"url"`
	Title       string    `bson:"title"`
	Content     string    `bson:"content"`
	ContentHash string    `bson:"contentHash"`
	PublishDate time.Time `bson:"publishDate"`
	Source      string    `bson:"source"`

	Status     string     `bson:"status"`
	ScrapedAt  time.Time  `bson:"scrapedAt"`
	AnalyzedAt *time.Time `bson:"analyzedAt"`

	Summary        *string     `bson:"summary"`
	Entities       []entityDoc `bson:"entities"`
	Classification *string     `bson:"classification"`
	SentimentScore *int        `bson:"sentimentScore"`

	Metadata metadataDoc `bson:"metadata"`
}

type entityDoc struct {
	Text     string `bson:"text"`
	Type     string `bson:"type"`
	Mentions int    `bson:"mentions"`
}

type metadataDoc struct {
	ExtractionMethod      string    `bson:"extractionMethod"`
	Truncated             bool      `bson:"truncated"`
	OriginalLength        int       `bson:"originalLength"`
	Model                 string    `bson:"model,omitempty"`
	ProcessingTimeSeconds float64   `bson:"processingTimeSeconds"`
	Error                 *errorDoc `bson:"error,omitempty"`
}

type errorDoc struct {
	Kind     string    `bson:"kind"`
	Message  string    `bson:"message"`
	FailedAt time.Time `bson:"failedAt"`
}

// UpsertArticle inserts the article or replaces the non-complete record with the same URL.
func (s *ArticleService) UpsertArticle(ctx context.Context, a *intel.Article) error {
	if err := a.Validate(); err != nil {
		return err
	}

	doc := toDoc(a)
	fields, err := toFields(doc)
	if err != nil {
		return err
	}

	filter := bson.M{"url": a.URL, "status": bson.M{"$ne": string(intel.StatusComplete)}}
	update := bson.M{
		"$set":         fields,
		"$setOnInsert": bson.M{"_id": uuid.New().String()},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(bson.M{"_id": 1})

	var out struct {
		ID string `bson:"_id"`
	}
	err = s.db.articles().FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if mongo.IsDuplicateKeyError(err) {
		// The filter excluded a complete record, so the upsert collided on url.
		return intel.Errorf(intel.ECONFLICT, "article %q is already complete", a.URL)
	}
	if err != nil {
		return err
	}

	a.ID = out.ID
	return nil
}

// FindArticleByID retrieves an article by ID.
func (s *ArticleService) FindArticleByID(ctx context.Context, id string) (*intel.Article, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// FindArticleByURL retrieves an article by its source URL.
func (s *ArticleService) FindArticleByURL(ctx context.Context, url string) (*intel.Article, error) {
	return s.findOne(ctx, bson.M{"url": url})
}

func (s *ArticleService) findOne(ctx context.Context, filter bson.M) (*intel.Article, error) {
	var doc articleDoc
	err := s.db.articles().FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, intel.Errorf(intel.ENOTFOUND, "article not found")
	}
	if err != nil {
		return nil, err
	}
	return fromDoc(&doc), nil
}

// FindArticles retrieves articles matching the filter.
func (s *ArticleService) FindArticles(ctx context.Context, filter intel.ArticleFilter) ([]*intel.Article, int, error) {
	query := buildFilter(filter)

	total, err := s.db.articles().CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(buildSort(filter))
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := s.db.articles().Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	articles := make([]*intel.Article, 0)
	for cursor.Next(ctx) {
		var doc articleDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, err
		}
		articles = append(articles, fromDoc(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, err
	}
	return articles, int(total), nil
}

// buildFilter translates an ArticleFilter into a query document.
func buildFilter(filter intel.ArticleFilter) bson.M {
	q := bson.M{}
	if filter.ID != nil {
		q["_id"] = *filter.ID
	}
	if filter.URL != nil {
		q["url"] = *filter.URL
	}
	if filter.Status != nil {
		q["status"] = string(*filter.Status)
	}
	if filter.Source != nil {
		q["source"] = *filter.Source
	}
	if filter.Classification != nil {
		q["classification"] = string(*filter.Classification)
	}
	if r := rangeOf(filter.MinSentiment, filter.MaxSentiment); r != nil {
		q["sentimentScore"] = r
	}
	if r := rangeOf(filter.PublishedAfter, filter.PublishedBefore); r != nil {
		q["publishDate"] = r
	}
	if filter.Search != nil {
		q["$text"] = bson.M{"$search": *filter.Search}
	}
	return q
}

func rangeOf[T any](lo, hi *T) bson.M {
	if lo == nil && hi == nil {
		return nil
	}
	r := bson.M{}
	if lo != nil {
		r["$gte"] = *lo
	}
	if hi != nil {
		r["$lte"] = *hi
	}
	return r
}

// buildSort returns the sort document. Relevance applies only to text searches.
func buildSort(filter intel.ArticleFilter) bson.D {
	if filter.SortBy == intel.SortByRelevance && filter.Search != nil {
		return bson.D{
			{Key: "score", Value: bson.M{"$meta": "textScore"}},
			{Key: "publishDate", Value: -1},
		}
	}
	return bson.D{{Key: "publishDate", Value: -1}, {Key: "_id", Value: -1}}
}

// CompleteArticle stores an analysis on a pending article.
func (s *ArticleService) CompleteArticle(ctx context.Context, id string, result *intel.AnalysisResult) (*intel.Article, error) {
	if result == nil {
		return nil, intel.Errorf(intel.EINVALID, "analysis result required")
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}

	update := bson.M{
		"$set": bson.M{
			"status":                         string(intel.StatusComplete),
			"analyzedAt":                     result.AnalyzedAt,
			"summary":                        result.Summary,
			"entities":                       toEntityDocs(result.Entities),
			"classification":                 string(result.Classification),
			"sentimentScore":                 result.SentimentScore,
			"metadata.model":                 result.Model,
			"metadata.processingTimeSeconds": result.ProcessingTimeSeconds,
		},
		"$unset": bson.M{"metadata.error": ""},
	}
	filter := bson.M{"_id": id, "status": string(intel.StatusPending)}
	return s.transition(ctx, id, filter, update, "not pending")
}

// FailArticle marks an article as failed and clears its analysis fields.
func (s *ArticleService) FailArticle(ctx context.Context, id string, log *intel.ErrorLog) (*intel.Article, error) {
	if log == nil {
		return nil, intel.Errorf(intel.EINVALID, "error log required")
	}

	update := bson.M{
		"$set": bson.M{
			"status":         string(intel.StatusFailed),
			"analyzedAt":     nil,
			"summary":        nil,
			"entities":       nil,
			"classification": nil,
			"sentimentScore": nil,
			"metadata.error": errorDoc{Kind: log.Kind, Message: log.Message, FailedAt: log.FailedAt},
		},
	}
	filter := bson.M{"_id": id, "status": bson.M{"$ne": string(intel.StatusComplete)}}
	return s.transition(ctx, id, filter, update, "already complete")
}

// transition applies a guarded update and returns the updated article.
// ENOTFOUND or ECONFLICT is returned when the guard matched nothing.
func (s *ArticleService) transition(ctx context.Context, id string, filter, update bson.M, conflict string) (*intel.Article, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc articleDoc
	err := s.db.articles().FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, err := s.FindArticleByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, intel.Errorf(intel.ECONFLICT, "article %q is %s", id, conflict)
	}
	if err != nil {
		return nil, err
	}
	return fromDoc(&doc), nil
}

// ArticleStats returns aggregate statistics over all articles.
func (s *ArticleService) ArticleStats(ctx context.Context) (*intel.ArticleStats, error) {
	complete := bson.M{"$match": bson.M{"status": string(intel.StatusComplete)}}
	pipeline := mongo.Pipeline{
		{{Key: "$facet", Value: bson.M{
			"byStatus": bson.A{
				bson.M{"$group": bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}},
			},
			"byClassification": bson.A{
				complete,
				bson.M{"$group": bson.M{"_id": "$classification", "n": bson.M{"$sum": 1}}},
			},
			"sentiment": bson.A{
				complete,
				bson.M{"$group": bson.M{
					"_id":  nil,
					"avg":  bson.M{"$avg": "$sentimentScore"},
					"last": bson.M{"$max": "$analyzedAt"},
				}},
			},
		}}},
	}

	cursor, err := s.db.articles().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var facets []statsFacets
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, err
	}
	stats := &intel.ArticleStats{ByClassification: make(map[intel.Classification]int)}
	if len(facets) == 0 {
		return stats, nil
	}
	return facets[0].stats(), nil
}

type statsFacets struct {
	ByStatus []struct {
		ID string `bson:"_id"`
		N  int    `bson:"n"`
	} `bson:"byStatus"`
	ByClassification []struct {
		ID string `bson:"_id"`
		N  int    `bson:"n"`
	} `bson:"byClassification"`
	Sentiment []struct {
		Avg  float64    `bson:"avg"`
		Last *time.Time `bson:"last"`
	} `bson:"sentiment"`
}

func (f *statsFacets) stats() *intel.ArticleStats {
	stats := &intel.ArticleStats{ByClassification: make(map[intel.Classification]int)}
	for _, s := range f.ByStatus {
		stats.Total += s.N
		switch intel.Status(s.ID) {
		case intel.StatusPending:
			stats.Pending = s.N
		case intel.StatusComplete:
			stats.Complete = s.N
		case intel.StatusFailed:
			stats.Failed = s.N
		}
	}
	for _, c := range f.ByClassification {
		stats.ByClassification[intel.Classification(c.ID)] = c.N
	}
	if len(f.Sentiment) > 0 {
		stats.AvgSentiment = f.Sentiment[0].Avg
		stats.LastAnalyzedAt = f.Sentiment[0].Last
	}
	return stats
}

func toDoc(a *intel.Article) *articleDoc {
	doc := &articleDoc{
		ID:          a.ID,
		URL:         a.URL,
		Title:       a.Title,
		Content:     a.Content,
		ContentHash: a.ContentHash,
		PublishDate: a.PublishDate,
		Source:      a.Source,
		Status:      string(a.Status),
		ScrapedAt:   a.ScrapedAt,
		AnalyzedAt:  a.AnalyzedAt,
		Summary:     a.Summary,
		Entities:    toEntityDocs(a.Entities),
		Metadata: metadataDoc{
			ExtractionMethod:      a.Metadata.ExtractionMethod,
			Truncated:             a.Metadata.Truncated,
			OriginalLength:        a.Metadata.OriginalLength,
			Model:                 a.Metadata.Model,
			ProcessingTimeSeconds: a.Metadata.ProcessingTimeSeconds,
		},
		SentimentScore: a.SentimentScore,
	}
	if a.Classification != nil {
		c := string(*a.Classification)
		doc.Classification = &c
	}
	if log := a.Metadata.ErrorLog; log != nil {
		doc.Metadata.Error = &errorDoc{Kind: log.Kind, Message: log.Message, FailedAt: log.FailedAt}
	}
	return doc
}

// toFields marshals a document for $set, leaving out _id.
func toFields(doc *articleDoc) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	delete(fields, "_id")
	return fields, nil
}

func toEntityDocs(entities []intel.Entity) []entityDoc {
	if entities == nil {
		return nil
	}
	out := make([]entityDoc, len(entities))
	for i, e := range entities {
		out[i] = entityDoc{Text: e.Text, Type: string(e.Type), Mentions: e.Mentions}
	}
	return out
}

func fromDoc(doc *articleDoc) *intel.Article {
	a := &intel.Article{
		ID:          doc.ID,
		URL:         doc.URL,
		Title:       doc.Title,
		Content:     doc.Content,
		ContentHash: doc.ContentHash,
		PublishDate: doc.PublishDate,
		Source:      doc.Source,
		Status:      intel.Status(doc.Status),
		ScrapedAt:   doc.ScrapedAt,
		AnalyzedAt:  doc.AnalyzedAt,
		Summary:     doc.Summary,
		Metadata: intel.ArticleMetadata{
			ExtractionMethod:      doc.Metadata.ExtractionMethod,
			Truncated:             doc.Metadata.Truncated,
			OriginalLength:        doc.Metadata.OriginalLength,
			Model:                 doc.Metadata.Model,
			ProcessingTimeSeconds: doc.Metadata.ProcessingTimeSeconds,
		},
		SentimentScore: doc.SentimentScore,
	}
	if doc.Entities != nil {
		a.Entities = make([]intel.Entity, len(doc.Entities))
		for i, e := range doc.Entities {
			a.Entities[i] = intel.Entity{Text: e.Text, Type: intel.EntityType(e.Type), Mentions: e.Mentions}
		}
	} else if a.Status == intel.StatusComplete {
		a.Entities = []intel.Entity{}
	}
	if doc.Classification != nil {
		c := intel.Classification(*doc.Classification)
		a.Classification = &c
	}
	if e := doc.Metadata.Error; e != nil {
		a.Metadata.ErrorLog = &intel.ErrorLog{Kind: e.Kind, Message: e.Message, FailedAt: e.FailedAt}
	}
	return a
}
