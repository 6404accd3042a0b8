package browser

import (
	"context"
	"time"
)

// DefaultPollInterval is used by Poll when interval is not positive.
const DefaultPollInterval = 100 * time.Millisecond

// Poll evaluates check until it reports true or timeout expires. A zero
// timeout evaluates check exactly once. Transient errors from check count as
// "not yet"; any other error stops the wait and is returned classified.
func Poll(ctx context.Context, timeout, interval time.Duration, check func() (bool, error)) (bool, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		ok, err := check()
		if err != nil {
			if err = Classify(err); !IsTransient(err) {
				return false, err
			}
		} else if ok {
			return true, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		wait := interval
		if remaining < wait {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(wait):
		}
	}
}
