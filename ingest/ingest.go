// Package ingest runs articles through the pipeline:
// fetch, normalize, persist pending, analyze, persist terminal state.
//
// Every URL is independent: a failed extraction or analysis is recorded on
// that URL's article and never stops the batch. Store failures are the
// exception. They abort the batch because further work could not be saved.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	neturl "net/url"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/intel"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of URLs processed at once.
const DefaultConcurrency = 4

// resumePageSize is the page size used to load pending articles.
const resumePageSize = 100

// Pipeline orchestrates extraction, analysis and persistence of articles.
type Pipeline struct {
	Articles intel.ArticleService
	Sources  intel.SourceRegistry
	Analyzer intel.Analyzer

	// InputBudget is the maximum number of characters sent for analysis.
	InputBudget int

	// Concurrency bounds the number of URLs in flight in a batch.
	Concurrency int

	// Progress, if set, receives one event per finished URL.
	Progress ProgressFunc

	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	progressMu sync.Mutex
}

// ProgressEvent reports a finished URL within a batch.
type ProgressEvent struct {
	Completed int
	Total     int
	Outcome   *intel.Outcome
}

// ProgressFunc is a callback for reporting batch progress.
type ProgressFunc func(event ProgressEvent)

// Process runs one URL through the pipeline.
//
// A URL that already has a terminal article is skipped and the stored
// article is returned unchanged. A URL with a pending article is analyzed
// from the stored content without fetching. A URL that is not an absolute
// http(s) URL fails without a record. The returned error is non-nil only for
// store failures (ESTORE); all other failures are recorded on the article and
// described in Outcome.Reason.
func (p *Pipeline) Process(ctx context.Context, url string) (*intel.Outcome, error) {
	if err := validateURL(url); err != nil {
		p.logger().Warn("rejected URL", "url", url, "err", err)
		return &intel.Outcome{URL: url, Reason: intel.ErrorMessage(err)}, nil
	}

	existing, err := p.Articles.FindArticleByURL(ctx, url)
	switch {
	case err == nil:
		if existing.Status.Terminal() {
			p.logger().Debug("skip existing article", "url", url, "status", existing.Status)
			return &intel.Outcome{URL: url, Article: existing, Skipped: true}, nil
		}
		return p.analyze(ctx, existing)
	case intel.ErrorCode(err) != intel.ENOTFOUND:
		return nil, storeError("finding article", err)
	}

	doc, raw, err := p.extract(ctx, url)
	if err != nil {
		return p.recordExtractionFailure(ctx, url, raw, err)
	}

	article := &intel.Article{
		URL:         url,
		Title:       doc.Title,
		Content:     doc.CleanedText,
		ContentHash: ContentHash(doc.CleanedText),
		PublishDate: doc.PublishDate,
		Source:      doc.Source,
		Status:      intel.StatusPending,
		ScrapedAt:   p.now(),
		Metadata: intel.ArticleMetadata{
			ExtractionMethod: doc.Method,
			Truncated:        doc.Truncated,
			OriginalLength:   doc.OriginalLength,
		},
	}
	if err := p.Articles.UpsertArticle(ctx, article); err != nil {
		switch intel.ErrorCode(err) {
		case intel.ECONFLICT:
			return p.skipConcurrent(ctx, url)
		case intel.EINVALID:
			return p.rejected(url, nil, "saving pending article", err), nil
		}
		return nil, storeError("saving pending article", err)
	}

	return p.analyzeDocument(ctx, article, doc)
}

// extract looks up the source, fetches the page and normalizes its text.
// raw is returned when the fetch succeeded so failures can keep its metadata.
func (p *Pipeline) extract(ctx context.Context, url string) (*intel.ExtractedDocument, *intel.RawFetch, error) {
	ext, err := p.Sources.Lookup(url)
	if err != nil {
		return nil, nil, err
	}
	raw, err := ext.Extract(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	raw.URL = url
	if raw.FetchedAt.IsZero() {
		raw.FetchedAt = p.now()
	}
	doc, err := intel.Normalize(raw, p.InputBudget)
	if err != nil {
		return nil, raw, err
	}
	return doc, raw, nil
}

// recordExtractionFailure stores a failed article so the URL is not fetched
// again on resubmission.
func (p *Pipeline) recordExtractionFailure(ctx context.Context, url string, raw *intel.RawFetch, cause error) (*intel.Outcome, error) {
	log := intel.NewErrorLog(cause, p.now())
	log.Kind = intel.EEXTRACTION

	article := &intel.Article{
		URL:       url,
		Status:    intel.StatusFailed,
		ScrapedAt: p.now(),
		Metadata:  intel.ArticleMetadata{ErrorLog: log},
	}
	if raw != nil {
		article.Title = raw.Title
		article.Source = raw.Source
		article.PublishDate = raw.PublishDate
		article.Metadata.ExtractionMethod = raw.ExtractionMethod
	}

	p.logger().Warn("extraction failed", "url", url, "err", cause)

	if err := p.Articles.UpsertArticle(ctx, article); err != nil {
		switch intel.ErrorCode(err) {
		case intel.ECONFLICT:
			return p.skipConcurrent(ctx, url)
		case intel.EINVALID:
			return p.rejected(url, nil, "saving failed article", err), nil
		}
		return nil, storeError("saving failed article", err)
	}
	return &intel.Outcome{URL: url, Article: article, Reason: log.Message}, nil
}

// analyze re-drives a pending article from its stored content.
func (p *Pipeline) analyze(ctx context.Context, article *intel.Article) (*intel.Outcome, error) {
	return p.analyzeDocument(ctx, article, documentFromArticle(article))
}

// analyzeDocument runs the analysis and stores the terminal state.
// A cancelled analysis leaves the article pending.
func (p *Pipeline) analyzeDocument(ctx context.Context, article *intel.Article, doc *intel.ExtractedDocument) (*intel.Outcome, error) {
	result, err := p.Analyzer.Analyze(ctx, doc)
	if err != nil {
		if intel.ErrorCode(err) == intel.ECANCELED {
			return &intel.Outcome{URL: article.URL, Article: article, Reason: intel.ErrorMessage(err)}, nil
		}
		return p.fail(ctx, article, err)
	}

	complete, err := p.Articles.CompleteArticle(ctx, article.ID, result)
	if err != nil {
		switch intel.ErrorCode(err) {
		case intel.ECONFLICT:
			return p.skipConcurrent(ctx, article.URL)
		case intel.EINVALID:
			// The store refused the analysis; record the refusal instead.
			return p.fail(ctx, article, err)
		}
		return nil, storeError("saving analysis", err)
	}
	return &intel.Outcome{URL: article.URL, Article: complete}, nil
}

// fail moves a pending article to failed with cause as its error log.
func (p *Pipeline) fail(ctx context.Context, article *intel.Article, cause error) (*intel.Outcome, error) {
	failed, err := p.Articles.FailArticle(ctx, article.ID, intel.NewErrorLog(cause, p.now()))
	if err != nil {
		switch intel.ErrorCode(err) {
		case intel.ECONFLICT:
			return p.skipConcurrent(ctx, article.URL)
		case intel.EINVALID:
			return p.rejected(article.URL, article, "saving failed analysis", err), nil
		}
		return nil, storeError("saving failed analysis", err)
	}
	return &intel.Outcome{URL: article.URL, Article: failed, Reason: intel.ErrorMessage(cause)}, nil
}

// rejected reports a write the store refused as invalid. Only this URL
// fails. article is the last stored state, or nil if nothing was stored.
func (p *Pipeline) rejected(url string, article *intel.Article, op string, err error) *intel.Outcome {
	p.logger().Warn("store rejected article", "url", url, "op", op, "err", err)
	return &intel.Outcome{URL: url, Article: article, Reason: op + ": " + intel.ErrorMessage(err)}
}

// skipConcurrent handles a URL that reached a terminal state while this run
// was working on it.
func (p *Pipeline) skipConcurrent(ctx context.Context, url string) (*intel.Outcome, error) {
	existing, err := p.Articles.FindArticleByURL(ctx, url)
	if err != nil {
		return nil, storeError("finding article", err)
	}
	return &intel.Outcome{URL: url, Article: existing, Skipped: true}, nil
}

// ProcessBatch runs each URL through the pipeline with bounded concurrency.
// Duplicate URLs are processed once. Outcomes keep submission order.
//
// Cancelling ctx stops dispatching new URLs; URLs already in flight finish.
// A store failure stops dispatching and is returned together with the
// outcomes gathered so far.
func (p *Pipeline) ProcessBatch(ctx context.Context, urls []string) (*intel.BatchResult, error) {
	urls = dedupe(urls)
	return p.run(ctx, len(urls), func(ctx context.Context, i int) (*intel.Outcome, error) {
		return p.Process(ctx, urls[i])
	})
}

// Resume drives every pending article to a terminal state without fetching.
func (p *Pipeline) Resume(ctx context.Context) (*intel.BatchResult, error) {
	pending, err := p.pendingArticles(ctx)
	if err != nil {
		return nil, err
	}
	p.logger().Info("resuming pending articles", "count", len(pending))
	return p.run(ctx, len(pending), func(ctx context.Context, i int) (*intel.Outcome, error) {
		return p.analyze(ctx, pending[i])
	})
}

func (p *Pipeline) pendingArticles(ctx context.Context) ([]*intel.Article, error) {
	status := intel.StatusPending
	var all []*intel.Article
	for offset := 0; ; offset += resumePageSize {
		page, _, err := p.Articles.FindArticles(ctx, intel.ArticleFilter{
			Status: &status,
			Offset: offset,
			Limit:  resumePageSize,
		})
		if err != nil {
			return nil, storeError("finding pending articles", err)
		}
		all = append(all, page...)
		if len(page) < resumePageSize {
			return all, nil
		}
	}
}

// run executes fn for indices [0, n) on a worker pool and collects outcomes
// by position.
func (p *Pipeline) run(ctx context.Context, n int, fn func(ctx context.Context, i int) (*intel.Outcome, error)) (*intel.BatchResult, error) {
	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	outcomes := make([]*intel.Outcome, n)
	var completed int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// The slot may have opened after cancellation.
			if gctx.Err() != nil {
				return nil
			}
			o, err := fn(context.WithoutCancel(gctx), i)
			if err != nil {
				return err
			}
			outcomes[i] = o
			p.report(&completed, n, o)
			return nil
		})
	}
	err := g.Wait()

	result := &intel.BatchResult{}
	for _, o := range outcomes {
		if o != nil {
			result.Add(o)
		}
	}
	if len(result.Outcomes) < n {
		p.logger().Warn("batch stopped early", "processed", len(result.Outcomes), "total", n, "err", err)
	}
	return result, err
}

func (p *Pipeline) report(completed *int, total int, o *intel.Outcome) {
	p.progressMu.Lock()
	defer p.progressMu.Unlock()
	*completed++
	p.logger().Info("article processed",
		"url", o.URL,
		"status", o.Status(),
		"skipped", o.Skipped,
		"reason", o.Reason,
	)
	if p.Progress != nil {
		p.Progress(ProgressEvent{Completed: *completed, Total: total, Outcome: o})
	}
}

// documentFromArticle rebuilds the analysis input from a stored article.
func documentFromArticle(a *intel.Article) *intel.ExtractedDocument {
	return &intel.ExtractedDocument{
		URL:            a.URL,
		Title:          a.Title,
		CleanedText:    a.Content,
		Truncated:      a.Metadata.Truncated,
		OriginalLength: a.Metadata.OriginalLength,
		Method:         a.Metadata.ExtractionMethod,
		Source:         a.Source,
		PublishDate:    a.PublishDate,
		ExtractedAt:    a.ScrapedAt,
	}
}

// ContentHash returns the hex xxhash of article content.
func ContentHash(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// validateURL accepts absolute http and https URLs with a host.
func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return intel.Errorf(intel.EINVALID, "URL required")
	}
	u, err := neturl.Parse(raw)
	if err != nil {
		return intel.Errorf(intel.EINVALID, "invalid URL %q", raw)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return intel.Errorf(intel.EINVALID, "URL %q must be absolute http or https", raw)
	}
	return nil
}

// storeError marks a persistence failure that must stop the batch.
// Callers handle EINVALID themselves since a refused record is not an outage.
func storeError(op string, err error) error {
	if intel.ErrorCode(err) == intel.ESTORE {
		return err
	}
	return intel.Errorf(intel.ESTORE, "%s: %v", op, err)
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return discard
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))
