// Package ratelimit paces the load-more actions a collection run performs
// against the page.
//
// A limiter never refuses. Reserve books the next action and returns how
// long to wait before performing it; the reveal controller waits through its
// own sleeper, so a paced tick still loads and tests stay instant.
//
//	limiter := ratelimit.PerMinute(60, 5)
//	if err := sleeper.Sleep(ctx, limiter.Reserve()); err == nil {
//		panel.LoadMore(ctx)
//	}
package ratelimit
