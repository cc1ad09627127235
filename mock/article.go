package mock

import (
	"context"

	"github.com/fwojciec/intel"
)

var _ intel.ArticleService = (*ArticleService)(nil)

// ArticleService is a mock implementation of intel.ArticleService.
type ArticleService struct {
	UpsertArticleFn    func(ctx context.Context, a *intel.Article) error
	FindArticleByIDFn  func(ctx context.Context, id string) (*intel.Article, error)
	FindArticleByURLFn func(ctx context.Context, url string) (*intel.Article, error)
	FindArticlesFn     func(ctx context.Context, filter intel.ArticleFilter) ([]*intel.Article, int, error)
	CompleteArticleFn  func(ctx context.Context, id string, result *intel.AnalysisResult) (*intel.Article, error)
	FailArticleFn      func(ctx context.Context, id string, log *intel.ErrorLog) (*intel.Article, error)
	ArticleStatsFn     func(ctx context.Context) (*intel.ArticleStats, error)
}

func (s *ArticleService) UpsertArticle(ctx context.Context, a *intel.Article) error {
	return s.UpsertArticleFn(ctx, a)
}

func (s *ArticleService) FindArticleByID(ctx context.Context, id string) (*intel.Article, error) {
	return s.FindArticleByIDFn(ctx, id)
}

func (s *ArticleService) FindArticleByURL(ctx context.Context, url string) (*intel.Article, error) {
	return s.FindArticleByURLFn(ctx, url)
}

func (s *ArticleService) FindArticles(ctx context.Context, filter intel.ArticleFilter) ([]*intel.Article, int, error) {
	return s.FindArticlesFn(ctx, filter)
}

func (s *ArticleService) CompleteArticle(ctx context.Context, id string, result *intel.AnalysisResult) (*intel.Article, error) {
	return s.CompleteArticleFn(ctx, id, result)
}

func (s *ArticleService) FailArticle(ctx context.Context, id string, log *intel.ErrorLog) (*intel.Article, error) {
	return s.FailArticleFn(ctx, id, log)
}

func (s *ArticleService) ArticleStats(ctx context.Context) (*intel.ArticleStats, error) {
	return s.ArticleStatsFn(ctx)
}
