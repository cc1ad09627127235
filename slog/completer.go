package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/intel"
)

// Ensure LoggingCompleter implements intel.Completer.
var _ intel.Completer = (*LoggingCompleter)(nil)

// LoggingCompleter wraps a Completer with logging of every model call.
type LoggingCompleter struct {
	next   intel.Completer
	logger *slog.Logger
}

// NewLoggingCompleter creates a new LoggingCompleter.
func NewLoggingCompleter(next intel.Completer, logger *slog.Logger) *LoggingCompleter {
	return &LoggingCompleter{next: next, logger: logger}
}

// Complete delegates to the wrapped completer and logs prompt and response sizes.
func (c *LoggingCompleter) Complete(ctx context.Context, req intel.CompletionRequest) (out string, err error) {
	defer func(begin time.Time) {
		c.logger.Info("completion",
			"model", req.Model,
			"prompt_bytes", len(req.Prompt),
			"response_bytes", len(out),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Complete(ctx, req)
}
