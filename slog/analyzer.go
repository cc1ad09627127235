package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/intel"
)

// Ensure LoggingAnalyzer implements intel.Analyzer.
var _ intel.Analyzer = (*LoggingAnalyzer)(nil)

// LoggingAnalyzer wraps an Analyzer with logging of outcomes.
type LoggingAnalyzer struct {
	next   intel.Analyzer
	logger *slog.Logger
}

// NewLoggingAnalyzer creates a new LoggingAnalyzer.
func NewLoggingAnalyzer(next intel.Analyzer, logger *slog.Logger) *LoggingAnalyzer {
	return &LoggingAnalyzer{next: next, logger: logger}
}

// Analyze delegates to the wrapped analyzer and logs classification and
// sentiment on success or the error code on failure.
func (a *LoggingAnalyzer) Analyze(ctx context.Context, doc *intel.ExtractedDocument) (result *intel.AnalysisResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"url", doc.URL,
			"truncated", doc.Truncated,
			"duration", time.Since(begin),
		}
		if err != nil {
			attrs = append(attrs, "code", intel.ErrorCode(err), "err", err)
			a.logger.Warn("analysis", attrs...)
			return
		}
		attrs = append(attrs,
			"classification", result.Classification,
			"sentiment", result.SentimentScore,
			"entities", len(result.Entities),
		)
		a.logger.Info("analysis", attrs...)
	}(time.Now())
	return a.next.Analyze(ctx, doc)
}
