// Package retry provides the pacing primitives of a collection run: bounded
// retries with backoff for export delivery, bounded polling for panels that
// open asynchronously, jittered tick delays, and a context-aware sleep that
// tests can replace.
//
//	err := retry.Do(func() error {
//		return client.Deliver(ctx, payload)
//	}, &retry.Config{
//		MaxAttempts: 2,
//		Backoff:     retry.DefaultExponentialBackoff(),
//		RetryIf:     retry.DefaultRetryIf,
//		Context:     ctx,
//	})
//
//	opened, err := retry.Poll(ctx, sleeper, 20, 150*time.Millisecond, panel.IsOpen)
package retry
