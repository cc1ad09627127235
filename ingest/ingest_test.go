package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/intel"
	"github.com/fwojciec/intel/analyze"
	"github.com/fwojciec/intel/ingest"
	"github.com/fwojciec/intel/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 1, 17, 9, 0, 0, 0, time.UTC)

var articleBody = strings.Repeat("NVIDIA announced a new accelerated computing platform. ", 5)

// memStore is an in-memory article store exposed through mock.ArticleService.
type memStore struct {
	mu     sync.Mutex
	byURL  map[string]*intel.Article
	nextID int
	writes []string // "url:status" in write order
}

func newMemStore() *memStore {
	return &memStore{byURL: make(map[string]*intel.Article)}
}

func (m *memStore) service() *mock.ArticleService {
	return &mock.ArticleService{
		UpsertArticleFn: func(ctx context.Context, a *intel.Article) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			if err := a.Validate(); err != nil {
				return err
			}
			if existing, ok := m.byURL[a.URL]; ok {
				if existing.Status == intel.StatusComplete {
					return intel.Errorf(intel.ECONFLICT, "complete")
				}
				a.ID = existing.ID
			} else {
				m.nextID++
				a.ID = fmt.Sprintf("id-%d", m.nextID)
			}
			m.put(a)
			return nil
		},
		FindArticleByURLFn: func(ctx context.Context, url string) (*intel.Article, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			a, ok := m.byURL[url]
			if !ok {
				return nil, intel.Errorf(intel.ENOTFOUND, "article not found")
			}
			cp := *a
			return &cp, nil
		},
		FindArticlesFn: func(ctx context.Context, filter intel.ArticleFilter) ([]*intel.Article, int, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			var out []*intel.Article
			for _, a := range m.byURL {
				if filter.Status == nil || a.Status == *filter.Status {
					cp := *a
					out = append(out, &cp)
				}
			}
			total := len(out)
			if filter.Offset >= len(out) {
				return nil, total, nil
			}
			return out[filter.Offset:], total, nil
		},
		CompleteArticleFn: func(ctx context.Context, id string, result *intel.AnalysisResult) (*intel.Article, error) {
			return m.update(id, func(a *intel.Article) error { return a.ApplyAnalysis(result) })
		},
		FailArticleFn: func(ctx context.Context, id string, log *intel.ErrorLog) (*intel.Article, error) {
			return m.update(id, func(a *intel.Article) error { return a.MarkFailed(log) })
		},
	}
}

func (m *memStore) put(a *intel.Article) {
	cp := *a
	m.byURL[a.URL] = &cp
	m.writes = append(m.writes, a.URL+":"+string(a.Status))
}

func (m *memStore) update(id string, fn func(a *intel.Article) error) (*intel.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byURL {
		if a.ID != id {
			continue
		}
		cp := *a
		if err := fn(&cp); err != nil {
			return nil, err
		}
		m.put(&cp)
		out := cp
		return &out, nil
	}
	return nil, intel.Errorf(intel.ENOTFOUND, "article not found")
}

func (m *memStore) get(url string) *intel.Article {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byURL[url]
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byURL)
}

// staticSources returns a registry whose extractor calls fn.
func staticSources(fn func(ctx context.Context, url string) (*intel.RawFetch, error)) *mock.SourceRegistry {
	ext := &mock.SourceExtractor{ExtractFn: fn}
	return &mock.SourceRegistry{
		LookupFn: func(url string) (intel.SourceExtractor, error) { return ext, nil },
	}
}

func okFetch(ctx context.Context, url string) (*intel.RawFetch, error) {
	return &intel.RawFetch{
		URL:              url,
		Title:            "Platform launch",
		BodyText:         articleBody,
		ExtractionMethod: intel.MethodFast,
		Source:           "NVIDIA Newsroom",
		FetchedAt:        now,
	}, nil
}

func okResult() *intel.AnalysisResult {
	return &intel.AnalysisResult{
		Entities:       []intel.Entity{{Text: "NVIDIA", Type: intel.EntityCompany, Mentions: 5}},
		Summary:        "NVIDIA launched a platform.",
		Classification: intel.ClassificationProductLaunch,
		SentimentScore: 8,
		Model:          "llama3",
		AnalyzedAt:     now,
	}
}

func okAnalyzer(calls *atomic.Int32) *mock.Analyzer {
	return &mock.Analyzer{
		AnalyzeFn: func(ctx context.Context, doc *intel.ExtractedDocument) (*intel.AnalysisResult, error) {
			if calls != nil {
				calls.Add(1)
			}
			return okResult(), nil
		},
	}
}

func newPipeline(store *memStore, sources intel.SourceRegistry, analyzer intel.Analyzer) *ingest.Pipeline {
	return &ingest.Pipeline{
		Articles:    store.service(),
		Sources:     sources,
		Analyzer:    analyzer,
		InputBudget: 10000,
		Concurrency: 2,
		Now:         func() time.Time { return now },
	}
}

func TestPipeline_Process(t *testing.T) {
	t.Parallel()

	const url = "https://nvidianews.nvidia.com/news/platform"

	t.Run("persists pending before analysis then completes", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		p := newPipeline(store, staticSources(okFetch), okAnalyzer(nil))

		o, err := p.Process(context.Background(), url)

		require.NoError(t, err)
		assert.False(t, o.Skipped)
		assert.Equal(t, intel.StatusComplete, o.Status())
		assert.Equal(t, []string{url + ":pending", url + ":complete"}, store.writes)

		a := store.get(url)
		assert.Equal(t, strings.TrimSpace(articleBody), a.Content)
		assert.Equal(t, ingest.ContentHash(a.Content), a.ContentHash)
		assert.Equal(t, intel.MethodFast, a.Metadata.ExtractionMethod)
		assert.Equal(t, "NVIDIA Newsroom", a.Source)
		assert.Equal(t, now, a.ScrapedAt)
		require.NotNil(t, a.SentimentScore)
		assert.Equal(t, 8, *a.SentimentScore)
	})

	t.Run("pending record is readable while analysis runs", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		var seen *intel.Article
		analyzer := &mock.Analyzer{
			AnalyzeFn: func(ctx context.Context, doc *intel.ExtractedDocument) (*intel.AnalysisResult, error) {
				seen = store.get(doc.URL)
				return okResult(), nil
			},
		}
		p := newPipeline(store, staticSources(okFetch), analyzer)

		_, err := p.Process(context.Background(), url)

		require.NoError(t, err)
		require.NotNil(t, seen)
		assert.Equal(t, intel.StatusPending, seen.Status)
		assert.NotEmpty(t, seen.Content)
		assert.NotEmpty(t, seen.Title)
		assert.Nil(t, seen.Summary)
		assert.Nil(t, seen.Entities)
		assert.Nil(t, seen.Classification)
		assert.Nil(t, seen.SentimentScore)
		assert.Nil(t, seen.AnalyzedAt)
	})

	t.Run("skips URL with complete record without calling the model", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		var analyses atomic.Int32
		var fetches atomic.Int32
		sources := staticSources(func(ctx context.Context, url string) (*intel.RawFetch, error) {
			fetches.Add(1)
			return okFetch(ctx, url)
		})
		p := newPipeline(store, sources, okAnalyzer(&analyses))

		first, err := p.Process(context.Background(), url)
		require.NoError(t, err)
		before := *store.get(url)

		second, err := p.Process(context.Background(), url)

		require.NoError(t, err)
		assert.True(t, second.Skipped)
		assert.Equal(t, first.Article.ID, second.Article.ID)
		assert.Equal(t, int32(1), analyses.Load())
		assert.Equal(t, int32(1), fetches.Load())
		assert.Equal(t, 1, store.count())
		assert.Equal(t, before, *store.get(url))
	})

	t.Run("records invalid model output as failed", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		var calls int
		completer := &mock.Completer{
			CompleteFn: func(ctx context.Context, req intel.CompletionRequest) (string, error) {
				calls++
				return "I think this is about chips", nil
			},
		}
		p := newPipeline(store, staticSources(okFetch), analyze.New(completer, analyze.Config{}, nil))

		o, err := p.Process(context.Background(), url)

		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.Equal(t, intel.StatusFailed, o.Status())
		assert.NotEmpty(t, o.Reason)

		a := store.get(url)
		assert.Equal(t, intel.StatusFailed, a.Status)
		assert.Nil(t, a.Summary)
		assert.Nil(t, a.Entities)
		assert.Nil(t, a.Classification)
		assert.Nil(t, a.SentimentScore)
		require.NotNil(t, a.Metadata.ErrorLog)
		assert.Equal(t, intel.EINVALIDRESPONSE, a.Metadata.ErrorLog.Kind)
		assert.Equal(t, strings.TrimSpace(articleBody), a.Content)
	})

	t.Run("records too-short extraction as failed extraction", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		var analyses atomic.Int32
		sources := staticSources(func(ctx context.Context, url string) (*intel.RawFetch, error) {
			return &intel.RawFetch{URL: url, Title: "Empty", BodyText: "Cookie banner", ExtractionMethod: intel.MethodFast}, nil
		})
		p := newPipeline(store, sources, okAnalyzer(&analyses))

		o, err := p.Process(context.Background(), url)

		require.NoError(t, err)
		assert.Equal(t, intel.StatusFailed, o.Status())
		assert.Zero(t, analyses.Load())
		a := store.get(url)
		require.NotNil(t, a.Metadata.ErrorLog)
		assert.Equal(t, intel.EEXTRACTION, a.Metadata.ErrorLog.Kind)
		assert.Equal(t, "Empty", a.Title)
		assert.Equal(t, []string{url + ":failed"}, store.writes)
	})

	t.Run("does not refetch after failed extraction", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		var fetches atomic.Int32
		sources := staticSources(func(ctx context.Context, url string) (*intel.RawFetch, error) {
			fetches.Add(1)
			return nil, intel.Errorf(intel.EEXTRACTION, "HTTP 404")
		})
		p := newPipeline(store, sources, okAnalyzer(nil))

		_, err := p.Process(context.Background(), url)
		require.NoError(t, err)
		o, err := p.Process(context.Background(), url)

		require.NoError(t, err)
		assert.True(t, o.Skipped)
		assert.Equal(t, int32(1), fetches.Load())
	})

	t.Run("analyzes existing pending record without fetching", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		require.NoError(t, store.service().UpsertArticle(context.Background(), &intel.Article{
			URL:       url,
			Title:     "Stored",
			Content:   articleBody,
			Status:    intel.StatusPending,
			ScrapedAt: now,
		}))
		sources := staticSources(func(ctx context.Context, url string) (*intel.RawFetch, error) {
			t.Error("unexpected fetch")
			return nil, errors.New("unexpected")
		})
		var got *intel.ExtractedDocument
		analyzer := &mock.Analyzer{
			AnalyzeFn: func(ctx context.Context, doc *intel.ExtractedDocument) (*intel.AnalysisResult, error) {
				got = doc
				return okResult(), nil
			},
		}
		p := newPipeline(store, sources, analyzer)

		o, err := p.Process(context.Background(), url)

		require.NoError(t, err)
		assert.Equal(t, intel.StatusComplete, o.Status())
		assert.Equal(t, articleBody, got.CleanedText)
		assert.Equal(t, "Stored", got.Title)
	})

	t.Run("leaves record pending when analysis is cancelled", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		analyzer := &mock.Analyzer{
			AnalyzeFn: func(ctx context.Context, doc *intel.ExtractedDocument) (*intel.AnalysisResult, error) {
				return nil, intel.Errorf(intel.ECANCELED, "analysis cancelled")
			},
		}
		p := newPipeline(store, staticSources(okFetch), analyzer)

		o, err := p.Process(context.Background(), url)

		require.NoError(t, err)
		assert.Equal(t, intel.StatusPending, o.Status())
		assert.Equal(t, intel.StatusPending, store.get(url).Status)
	})

	t.Run("returns ESTORE when pending write fails", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		svc := store.service()
		svc.UpsertArticleFn = func(ctx context.Context, a *intel.Article) error {
			return errors.New("connection reset")
		}
		var analyses atomic.Int32
		p := newPipeline(store, staticSources(okFetch), okAnalyzer(&analyses))
		p.Articles = svc

		_, err := p.Process(context.Background(), url)

		require.Error(t, err)
		assert.Equal(t, intel.ESTORE, intel.ErrorCode(err))
		assert.Zero(t, analyses.Load())
	})

	t.Run("returns ESTORE when lookup fails", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		svc := store.service()
		svc.FindArticleByURLFn = func(ctx context.Context, url string) (*intel.Article, error) {
			return nil, errors.New("server selection timeout")
		}
		p := newPipeline(store, staticSources(okFetch), okAnalyzer(nil))
		p.Articles = svc

		_, err := p.Process(context.Background(), url)

		assert.Equal(t, intel.ESTORE, intel.ErrorCode(err))
	})

	t.Run("fails malformed URLs without fetching or storing", func(t *testing.T) {
		t.Parallel()

		for _, bad := range []string{"", "   ", "/news/relative", "ftp://nvidianews.nvidia.com/x", "https://"} {
			store := newMemStore()
			var fetches atomic.Int32
			sources := staticSources(func(ctx context.Context, url string) (*intel.RawFetch, error) {
				fetches.Add(1)
				return okFetch(ctx, url)
			})
			p := newPipeline(store, sources, okAnalyzer(nil))

			o, err := p.Process(context.Background(), bad)

			require.NoError(t, err, bad)
			assert.Nil(t, o.Article, bad)
			assert.Equal(t, intel.StatusFailed, o.Status(), bad)
			assert.NotEmpty(t, o.Reason, bad)
			assert.Zero(t, fetches.Load(), bad)
			assert.Zero(t, store.count(), bad)
		}
	})

	t.Run("records an analysis the store refuses as failed", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		svc := store.service()
		svc.CompleteArticleFn = func(ctx context.Context, id string, result *intel.AnalysisResult) (*intel.Article, error) {
			return nil, intel.Errorf(intel.EINVALID, "summary required")
		}
		p := newPipeline(store, staticSources(okFetch), okAnalyzer(nil))
		p.Articles = svc

		o, err := p.Process(context.Background(), url)

		require.NoError(t, err)
		assert.Equal(t, intel.StatusFailed, o.Status())
		assert.Contains(t, o.Reason, "summary required")
		stored := store.get(url)
		require.NotNil(t, stored)
		assert.Equal(t, intel.StatusFailed, stored.Status)
		assert.Equal(t, intel.EINVALID, stored.Metadata.ErrorLog.Kind)
	})

	t.Run("keeps the pending record when the store refuses the failure", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		svc := store.service()
		svc.CompleteArticleFn = func(ctx context.Context, id string, result *intel.AnalysisResult) (*intel.Article, error) {
			return nil, intel.Errorf(intel.EINVALID, "summary required")
		}
		svc.FailArticleFn = func(ctx context.Context, id string, log *intel.ErrorLog) (*intel.Article, error) {
			return nil, intel.Errorf(intel.EINVALID, "error log required")
		}
		p := newPipeline(store, staticSources(okFetch), okAnalyzer(nil))
		p.Articles = svc

		o, err := p.Process(context.Background(), url)

		require.NoError(t, err)
		assert.Equal(t, intel.StatusPending, o.Status())
		assert.Contains(t, o.Reason, "error log required")
		assert.Equal(t, intel.StatusPending, store.get(url).Status)
	})
}

func TestPipeline_ProcessBatch(t *testing.T) {
	t.Parallel()

	urls := []string{
		"https://nvidianews.nvidia.com/news/1",
		"https://nvidianews.nvidia.com/news/2",
		"https://nvidianews.nvidia.com/news/3",
	}

	t.Run("isolates extraction failure of one URL", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		sources := staticSources(func(ctx context.Context, url string) (*intel.RawFetch, error) {
			if url == urls[1] {
				return nil, intel.Errorf(intel.EEXTRACTION, "fetching %s: HTTP 500", url)
			}
			return okFetch(ctx, url)
		})
		p := newPipeline(store, sources, okAnalyzer(nil))

		result, err := p.ProcessBatch(context.Background(), urls)

		require.NoError(t, err)
		require.Len(t, result.Outcomes, 3)
		assert.Equal(t, 2, result.Complete)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, urls[0], result.Outcomes[0].URL)
		assert.Equal(t, intel.StatusComplete, result.Outcomes[0].Status())
		assert.Equal(t, intel.StatusFailed, result.Outcomes[1].Status())
		assert.Contains(t, result.Outcomes[1].Reason, "HTTP 500")
		assert.Equal(t, intel.StatusComplete, result.Outcomes[2].Status())

		failed := store.get(urls[1])
		require.NotNil(t, failed)
		assert.Equal(t, intel.EEXTRACTION, failed.Metadata.ErrorLog.Kind)
	})

	t.Run("every URL reaches a terminal state when analyses fail", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		analyzer := &mock.Analyzer{
			AnalyzeFn: func(ctx context.Context, doc *intel.ExtractedDocument) (*intel.AnalysisResult, error) {
				if doc.URL == urls[0] {
					return nil, intel.Errorf(intel.EUNAVAILABLE, "connection refused")
				}
				return okResult(), nil
			},
		}
		p := newPipeline(store, staticSources(okFetch), analyzer)

		result, err := p.ProcessBatch(context.Background(), urls)

		require.NoError(t, err)
		for _, u := range urls {
			assert.True(t, store.get(u).Status.Terminal(), u)
		}
		assert.Equal(t, intel.EUNAVAILABLE, store.get(urls[0]).Metadata.ErrorLog.Kind)
		assert.Equal(t, 1, result.Failed)
	})

	t.Run("a blank URL fails alone", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		p := newPipeline(store, staticSources(okFetch), okAnalyzer(nil))

		result, err := p.ProcessBatch(context.Background(), []string{"", urls[0]})

		require.NoError(t, err)
		require.Len(t, result.Outcomes, 2)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 1, result.Complete)
		assert.Nil(t, result.Outcomes[0].Article)
		assert.Equal(t, intel.StatusComplete, result.Outcomes[1].Status())
		assert.Equal(t, 1, store.count())
	})

	t.Run("an invalid record from the store does not stop the batch", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		svc := store.service()
		upsert := svc.UpsertArticleFn
		svc.UpsertArticleFn = func(ctx context.Context, a *intel.Article) error {
			if a.URL == urls[0] {
				return intel.Errorf(intel.EINVALID, "article content required")
			}
			return upsert(ctx, a)
		}
		p := newPipeline(store, staticSources(okFetch), okAnalyzer(nil))
		p.Articles = svc

		result, err := p.ProcessBatch(context.Background(), urls)

		require.NoError(t, err)
		require.Len(t, result.Outcomes, 3)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 2, result.Complete)
		assert.Contains(t, result.Outcomes[0].Reason, "article content required")
	})

	t.Run("processes duplicate URLs once", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		var analyses atomic.Int32
		p := newPipeline(store, staticSources(okFetch), okAnalyzer(&analyses))

		result, err := p.ProcessBatch(context.Background(), []string{urls[0], urls[0], urls[1]})

		require.NoError(t, err)
		assert.Len(t, result.Outcomes, 2)
		assert.Equal(t, int32(2), analyses.Load())
	})

	t.Run("counts skipped URLs", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		p := newPipeline(store, staticSources(okFetch), okAnalyzer(nil))
		_, err := p.Process(context.Background(), urls[0])
		require.NoError(t, err)

		result, err := p.ProcessBatch(context.Background(), urls)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, 2, result.Complete)
	})

	t.Run("store failure aborts the batch", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		svc := store.service()
		svc.UpsertArticleFn = func(ctx context.Context, a *intel.Article) error {
			return errors.New("disk full")
		}
		var fetches atomic.Int32
		sources := staticSources(func(ctx context.Context, url string) (*intel.RawFetch, error) {
			fetches.Add(1)
			return okFetch(ctx, url)
		})
		p := newPipeline(store, sources, okAnalyzer(nil))
		p.Articles = svc
		p.Concurrency = 1

		_, err := p.ProcessBatch(context.Background(), urls)

		require.Error(t, err)
		assert.Equal(t, intel.ESTORE, intel.ErrorCode(err))
		assert.Equal(t, int32(1), fetches.Load())
	})

	t.Run("cancellation stops dispatch after in-flight URL", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		var analyses atomic.Int32
		analyzer := &mock.Analyzer{
			AnalyzeFn: func(actx context.Context, doc *intel.ExtractedDocument) (*intel.AnalysisResult, error) {
				analyses.Add(1)
				cancel()
				// The in-flight run is not cancelled.
				if actx.Err() != nil {
					return nil, intel.Errorf(intel.ECANCELED, "cancelled")
				}
				return okResult(), nil
			},
		}
		p := newPipeline(store, staticSources(okFetch), analyzer)
		p.Concurrency = 1

		result, err := p.ProcessBatch(ctx, urls)

		require.NoError(t, err)
		assert.Equal(t, int32(1), analyses.Load())
		require.Len(t, result.Outcomes, 1)
		assert.Equal(t, intel.StatusComplete, result.Outcomes[0].Status())
		assert.Nil(t, store.get(urls[2]))
	})

	t.Run("reports progress per URL", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		var events []ingest.ProgressEvent
		p := newPipeline(store, staticSources(okFetch), okAnalyzer(nil))
		p.Progress = func(e ingest.ProgressEvent) { events = append(events, e) }

		_, err := p.ProcessBatch(context.Background(), urls)

		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, 3, events[2].Completed)
		assert.Equal(t, 3, events[2].Total)
	})
}

func TestPipeline_Resume(t *testing.T) {
	t.Parallel()

	t.Run("drives pending records to a terminal state", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		svc := store.service()
		for i := range 3 {
			require.NoError(t, svc.UpsertArticle(context.Background(), &intel.Article{
				URL:       fmt.Sprintf("https://example.com/%d", i),
				Title:     "Stored",
				Content:   articleBody,
				Status:    intel.StatusPending,
				ScrapedAt: now,
			}))
		}
		sources := staticSources(func(ctx context.Context, url string) (*intel.RawFetch, error) {
			t.Error("unexpected fetch")
			return nil, errors.New("unexpected")
		})
		p := newPipeline(store, sources, okAnalyzer(nil))

		result, err := p.Resume(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 3, result.Complete)
		for i := range 3 {
			assert.Equal(t, intel.StatusComplete, store.get(fmt.Sprintf("https://example.com/%d", i)).Status)
		}
	})

	t.Run("no pending records is a no-op", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		p := newPipeline(store, staticSources(okFetch), okAnalyzer(nil))

		result, err := p.Resume(context.Background())

		require.NoError(t, err)
		assert.Empty(t, result.Outcomes)
	})
}
