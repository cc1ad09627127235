// Package analyze turns extracted documents into validated analysis results
// using a single structured prompt per document.
//
// A document gets at most two model calls. A response that cannot be parsed
// or breaks the result schema is retried once with the same prompt.
// Connectivity failures and timeouts are not retried.
package analyze

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/intel"
)

// Defaults for Config.
const (
	DefaultModel   = "llama3"
	DefaultTimeout = 30 * time.Second
)

// maxAttempts is the number of model calls per document.
const maxAttempts = 2

// Config configures a Requester.
type Config struct {
	// Model is the model name sent with every request.
	Model string

	// Timeout bounds each model call.
	Timeout time.Duration
}

// Ensure Requester implements intel.Analyzer at compile time.
var _ intel.Analyzer = (*Requester)(nil)

// Requester implements intel.Analyzer on top of an intel.Completer.
type Requester struct {
	completer intel.Completer
	config    Config
	logger    *slog.Logger

	// Now returns the current time. Replaceable for tests.
	Now func() time.Time
}

// New creates a Requester. Zero config fields take their defaults and a nil
// logger discards output.
func New(completer intel.Completer, config Config, logger *slog.Logger) *Requester {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Requester{
		completer: completer,
		config:    config,
		logger:    logger,
		Now:       time.Now,
	}
}

// outcomeKind tags the result of one attempt.
type outcomeKind int

const (
	outcomeOK outcomeKind = iota
	outcomeRetryable
	outcomeFatal
)

type outcome struct {
	kind   outcomeKind
	result *intel.AnalysisResult
	err    error
}

// Analyze returns a validated analysis of doc.
// Errors carry EUNAVAILABLE, EINVALIDRESPONSE, ECANCELED or EINVALID.
func (r *Requester) Analyze(ctx context.Context, doc *intel.ExtractedDocument) (*intel.AnalysisResult, error) {
	if doc == nil {
		return nil, intel.Errorf(intel.EINVALID, "document required")
	}

	req := intel.CompletionRequest{
		Model:  r.config.Model,
		System: SystemPrompt,
		Prompt: BuildUserPrompt(doc),
		JSON:   true,
	}

	begin := r.Now()
	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		o := r.attempt(ctx, req)
		switch o.kind {
		case outcomeOK:
			end := r.Now()
			o.result.Model = r.config.Model
			o.result.ProcessingTimeSeconds = max(end.Sub(begin).Seconds(), 0)
			o.result.AnalyzedAt = end
			return o.result, nil
		case outcomeFatal:
			return nil, o.err
		}
		last = o.err
		r.logger.Warn("analysis response rejected",
			"url", doc.URL,
			"attempt", attempt,
			"err", o.err,
		)
	}
	return nil, intel.Errorf(intel.EINVALIDRESPONSE, "model output invalid after %d attempts: %v", maxAttempts, last)
}

// attempt performs one bounded model call and classifies its outcome.
func (r *Requester) attempt(ctx context.Context, req intel.CompletionRequest) outcome {
	if err := ctx.Err(); err != nil {
		return outcome{kind: outcomeFatal, err: intel.Errorf(intel.ECANCELED, "analysis cancelled: %v", err)}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	raw, err := r.completer.Complete(callCtx, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return outcome{kind: outcomeFatal, err: intel.Errorf(intel.ECANCELED, "analysis cancelled: %v", err)}
		}
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return outcome{kind: outcomeFatal, err: intel.Errorf(intel.EUNAVAILABLE, "model call timed out after %s", r.config.Timeout)}
		}
		if intel.ErrorCode(err) == intel.EUNAVAILABLE {
			return outcome{kind: outcomeFatal, err: err}
		}
		return outcome{kind: outcomeFatal, err: intel.Errorf(intel.EUNAVAILABLE, "model call failed: %v", err)}
	}

	p, err := parseResponse(raw)
	if err != nil {
		return outcome{kind: outcomeRetryable, err: err}
	}
	for _, w := range p.warnings {
		r.logger.Warn("analysis response repaired", "detail", w)
	}
	if err := p.result.Validate(); err != nil {
		return outcome{kind: outcomeRetryable, err: err}
	}
	return outcome{kind: outcomeOK, result: p.result}
}
