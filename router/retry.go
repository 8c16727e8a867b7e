package router

import (
	"context"
	"net/http"
	"time"
)

// backoffPolicy computes exponential delays between retry attempts.
type backoffPolicy struct {
	base time.Duration
}

// wait sleeps for the attempt's backoff delay or until ctx is cancelled.
// Attempt 1 waits base, attempt 2 waits 2*base, attempt 3 waits 4*base.
func (b backoffPolicy) wait(ctx context.Context, attempt int) error {
	delay := b.base << (attempt - 1)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// transientStatus reports whether a response status indicates a transient
// backend condition worth retrying. Protocol-level (4xx) errors are not
// retried.
func transientStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
