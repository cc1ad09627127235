//go:build integration

package mongo_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/fwojciec/intel"
	"github.com/fwojciec/intel/mongo"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *mongo.DB {
	t.Helper()

	uri := os.Getenv("INTEL_TEST_MONGODB_URL")
	if uri == "" {
		t.Skip("INTEL_TEST_MONGODB_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := mongo.NewDB(uri, "intel_test_"+uuid.New().String()[:8])
	require.NoError(t, db.Open(ctx))
	t.Cleanup(func() {
		ctx := context.Background()
		_ = db.Drop(ctx)
		_ = db.Close(ctx)
	})
	return db
}

func newPending(url string) *intel.Article {
	return &intel.Article{
		URL:         url,
		Title:       "NVIDIA unveils platform",
		Content:     "NVIDIA today announced a new accelerated computing platform for data centers.",
		PublishDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Source:      "NVIDIA Newsroom",
		Status:      intel.StatusPending,
		ScrapedAt:   time.Date(2026, 1, 17, 9, 0, 0, 0, time.UTC),
	}
}

func newResult(class intel.Classification, score int) *intel.AnalysisResult {
	return &intel.AnalysisResult{
		Entities:       []intel.Entity{{Text: "NVIDIA", Type: intel.EntityCompany, Mentions: 4}},
		Summary:        "NVIDIA announced a platform.",
		Classification: class,
		SentimentScore: score,
		Model:          "llama3",
		AnalyzedAt:     time.Date(2026, 1, 17, 9, 1, 0, 0, time.UTC),
	}
}

func TestArticleService_Integration_Lifecycle(t *testing.T) {
	t.Parallel()

	svc := mongo.NewArticleService(setupTestDB(t))
	ctx := context.Background()

	a := newPending("https://example.com/a")
	require.NoError(t, svc.UpsertArticle(ctx, a))
	require.NotEmpty(t, a.ID)

	again := newPending("https://example.com/a")
	require.NoError(t, svc.UpsertArticle(ctx, again))
	assert.Equal(t, a.ID, again.ID)

	got, err := svc.CompleteArticle(ctx, a.ID, newResult(intel.ClassificationProductLaunch, 8))
	require.NoError(t, err)
	assert.Equal(t, intel.StatusComplete, got.Status)
	assert.Equal(t, 8, *got.SentimentScore)
	assert.NoError(t, got.Validate())

	err = svc.UpsertArticle(ctx, newPending("https://example.com/a"))
	assert.Equal(t, intel.ECONFLICT, intel.ErrorCode(err))

	_, err = svc.FailArticle(ctx, a.ID, &intel.ErrorLog{Kind: intel.EUNAVAILABLE})
	assert.Equal(t, intel.ECONFLICT, intel.ErrorCode(err))

	_, err = svc.FindArticleByID(ctx, "missing")
	assert.Equal(t, intel.ENOTFOUND, intel.ErrorCode(err))
}

func TestArticleService_Integration_FindAndStats(t *testing.T) {
	t.Parallel()

	svc := mongo.NewArticleService(setupTestDB(t))
	ctx := context.Background()

	for i, score := range []int{9, 6, 3} {
		a := newPending(fmt.Sprintf("https://example.com/%d", i))
		a.PublishDate = time.Date(2026, 1, 10+i, 0, 0, 0, 0, time.UTC)
		if i == 0 {
			a.Title = "Blackwell ships"
		}
		require.NoError(t, svc.UpsertArticle(ctx, a))
		_, err := svc.CompleteArticle(ctx, a.ID, newResult(intel.ClassificationMarketTrend, score))
		require.NoError(t, err)
	}
	failed := newPending("https://example.com/failed")
	require.NoError(t, svc.UpsertArticle(ctx, failed))
	_, err := svc.FailArticle(ctx, failed.ID, &intel.ErrorLog{Kind: intel.EINVALIDRESPONSE, Message: "bad"})
	require.NoError(t, err)

	complete := intel.StatusComplete
	got, total, err := svc.FindArticles(ctx, intel.ArticleFilter{Status: &complete, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, got, 2)
	assert.Equal(t, "https://example.com/2", got[0].URL)

	search := "blackwell"
	got, _, err = svc.FindArticles(ctx, intel.ArticleFilter{Search: &search, SortBy: intel.SortByRelevance})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://example.com/0", got[0].URL)

	stats, err := svc.ArticleStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.Complete)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 3, stats.ByClassification[intel.ClassificationMarketTrend])
	assert.InDelta(t, 6.0, stats.AvgSentiment, 0.001)
}
