package source

import (
	"context"
	"log/slog"
	"time"
)

// DefaultRetryDelays returns the backoff delays between fetch attempts.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second}
}

type fetchFunc func(ctx context.Context, url string) (string, error)

// fetchWithRetry calls fetch up to len(delays)+1 times, sleeping delays[i]
// after the i-th failure.
func fetchWithRetry(ctx context.Context, url string, fetch fetchFunc, delays []time.Duration, logger *slog.Logger) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= len(delays); attempt++ {
		html, err := fetch(ctx, url)
		if err == nil {
			return html, nil
		}
		lastErr = err

		if attempt == len(delays) {
			break
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		logger.Debug("fetch retry", "url", url, "attempt", attempt+2, "err", err)

		timer := time.NewTimer(delays[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return "", lastErr
}
