package mock

import (
	"context"

	"github.com/fwojciec/intel"
)

var (
	_ intel.Analyzer  = (*Analyzer)(nil)
	_ intel.Completer = (*Completer)(nil)
)

// Analyzer is a mock implementation of intel.Analyzer.
type Analyzer struct {
	AnalyzeFn func(ctx context.Context, doc *intel.ExtractedDocument) (*intel.AnalysisResult, error)
}

func (a *Analyzer) Analyze(ctx context.Context, doc *intel.ExtractedDocument) (*intel.AnalysisResult, error) {
	return a.AnalyzeFn(ctx, doc)
}

// Completer is a mock implementation of intel.Completer.
type Completer struct {
	CompleteFn func(ctx context.Context, req intel.CompletionRequest) (string, error)
}

func (c *Completer) Complete(ctx context.Context, req intel.CompletionRequest) (string, error) {
	return c.CompleteFn(ctx, req)
}
