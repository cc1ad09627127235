package main_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/intel"
	main "github.com/fwojciec/intel/cmd/intel"
	"github.com/fwojciec/intel/ingest"
	"github.com/fwojciec/intel/mock"
)

const articleBody = "NVIDIA today announced the Blackwell platform, " +
	"which the company said will ship to cloud providers later this year."

// store is an in-memory article service keyed by URL.
type store struct {
	mu       sync.Mutex
	articles map[string]*intel.Article
	upsertFn func(a *intel.Article) error
}

func newStore() *store {
	return &store{articles: make(map[string]*intel.Article)}
}

func (s *store) byID(id string) *intel.Article {
	for _, a := range s.articles {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (s *store) service() *mock.ArticleService {
	return &mock.ArticleService{
		UpsertArticleFn: func(ctx context.Context, a *intel.Article) error {
			if s.upsertFn != nil {
				if err := s.upsertFn(a); err != nil {
					return err
				}
			}
			s.mu.Lock()
			defer s.mu.Unlock()
			a.ID = fmt.Sprintf("id-%d", len(s.articles)+1)
			cp := *a
			s.articles[a.URL] = &cp
			return nil
		},
		FindArticleByURLFn: func(ctx context.Context, url string) (*intel.Article, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			a, ok := s.articles[url]
			if !ok {
				return nil, intel.Errorf(intel.ENOTFOUND, "article not found")
			}
			cp := *a
			return &cp, nil
		},
		FindArticlesFn: func(ctx context.Context, filter intel.ArticleFilter) ([]*intel.Article, int, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			var out []*intel.Article
			for _, a := range s.articles {
				if filter.Status == nil || a.Status == *filter.Status {
					cp := *a
					out = append(out, &cp)
				}
			}
			return out, len(out), nil
		},
		CompleteArticleFn: func(ctx context.Context, id string, result *intel.AnalysisResult) (*intel.Article, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			a := s.byID(id)
			if err := a.ApplyAnalysis(result); err != nil {
				return nil, err
			}
			cp := *a
			return &cp, nil
		},
		FailArticleFn: func(ctx context.Context, id string, log *intel.ErrorLog) (*intel.Article, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			a := s.byID(id)
			if err := a.MarkFailed(log); err != nil {
				return nil, err
			}
			cp := *a
			return &cp, nil
		},
	}
}

// extractorFor returns page text for every URL; URLs containing "empty"
// yield no text.
func extractorFor() *mock.SourceRegistry {
	return &mock.SourceRegistry{
		LookupFn: func(url string) (intel.SourceExtractor, error) {
			return &mock.SourceExtractor{
				ExtractFn: func(ctx context.Context, url string) (*intel.RawFetch, error) {
					body := articleBody
					if strings.Contains(url, "empty") {
						body = ""
					}
					return &intel.RawFetch{
						URL:              url,
						Title:            "Blackwell ships",
						BodyText:         body,
						ExtractionMethod: intel.MethodFast,
						Source:           "NVIDIA Newsroom",
						FetchedAt:        time.Date(2026, 1, 17, 8, 0, 0, 0, time.UTC),
					}, nil
				},
			}, nil
		},
	}
}

func validAnalyzer() *mock.Analyzer {
	return &mock.Analyzer{
		AnalyzeFn: func(ctx context.Context, doc *intel.ExtractedDocument) (*intel.AnalysisResult, error) {
			return &intel.AnalysisResult{
				Entities:       []intel.Entity{{Text: "NVIDIA", Type: intel.EntityCompany, Mentions: 2}},
				Summary:        "NVIDIA announced Blackwell.",
				Classification: intel.ClassificationProductLaunch,
				SentimentScore: 8,
				Model:          "llama3",
				AnalyzedAt:     time.Date(2026, 1, 17, 8, 1, 0, 0, time.UTC),
			}, nil
		},
	}
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) Ping(ctx context.Context) error { return f(ctx) }

// testDeps returns dependencies with a pipeline over s.
func testDeps(s *store) (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	articles := s.service()
	return &main.Dependencies{
		Ctx:      context.Background(),
		Stdout:   stdout,
		Stderr:   stderr,
		Articles: articles,
		Pipeline: &ingest.Pipeline{
			Articles:    articles,
			Sources:     extractorFor(),
			Analyzer:    validAnalyzer(),
			Concurrency: 2,
		},
	}, stdout, stderr
}
