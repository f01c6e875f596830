// Package httputil provides retry helpers for upstream HTTP calls.
//
// # Retry
//
// [Retry] re-runs an operation only when it fails with a [RetryableError].
// Callers mark transient failures (transport errors, 5xx responses) with
// [Retryable] and leave everything else unwrapped so it fails fast:
//
//	err := httputil.Policy{Attempts: 3, Delay: 500 * time.Millisecond}.Do(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
//
// Backoff doubles after every failed attempt and the wait is abandoned as
// soon as ctx is cancelled. The zero [Policy] (and [NoRetry]) calls the
// function exactly once.
package httputil
