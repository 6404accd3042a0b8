package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// NavigateFunc performs one navigation and returns the HTTP status of the
// response, or 0 when the binding could not observe one.
type NavigateFunc func(ctx context.Context) (status int, err error)

// RetryNavigation runs navigate up to attempts times, pausing backoff between
// tries. Network errors and 5xx responses are retried; 4xx responses, a lost
// session and a done context end the loop at once. onRetry, when set, is
// called before each repeated attempt.
func RetryNavigation(ctx context.Context, url string, attempts int, backoff time.Duration, navigate NavigateFunc, onRetry func(attempt int, err error)) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if onRetry != nil {
				onRetry(attempt, lastErr)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		status, err := navigate(ctx)
		if err != nil {
			err = Classify(err)
			if errors.Is(err, ErrSessionLost) || ctx.Err() != nil {
				return err
			}
			lastErr = err
			continue
		}
		switch {
		case status >= 500:
			lastErr = fmt.Errorf("HTTP %d", status)
			continue
		case status >= 400:
			return fmt.Errorf("navigate %s: HTTP %d", url, status)
		}
		return nil
	}
	return fmt.Errorf("navigate %s after %d attempt(s): %w", url, attempts, lastErr)
}
