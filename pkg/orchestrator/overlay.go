package orchestrator

import "context"

// ForceClose clears the page of overlays and returns how many are still
// open afterwards. Each tier runs only while overlays remain: dismiss
// controls, then up to CancelPresses cancel keystrokes, then detaching.
func (o *Orchestrator) ForceClose(ctx context.Context) int {
	open := o.page.OpenOverlays(ctx)
	if open == 0 {
		return 0
	}
	o.logger.DebugWithFields("Closing overlays", map[string]interface{}{
		"open": open,
	})

	clicked, err := o.page.ClickDismissControls(ctx)
	if err != nil {
		o.logger.WithError(err).Debug("Dismiss controls failed")
	}
	if clicked > 0 && o.cfg.DismissPause > 0 {
		_ = o.sleeper.Sleep(ctx, o.cfg.DismissPause)
	}
	if o.page.OpenOverlays(ctx) == 0 {
		return 0
	}

	for i := 0; i < o.cfg.CancelPresses && o.page.OpenOverlays(ctx) > 0; i++ {
		if err := o.page.SendCancelKey(ctx); err != nil {
			o.logger.WithError(err).Debug("Cancel key failed")
		}
		if o.cfg.CancelPause > 0 {
			_ = o.sleeper.Sleep(ctx, o.cfg.CancelPause)
		}
	}
	if o.page.OpenOverlays(ctx) == 0 {
		return 0
	}

	removed, err := o.page.DetachOverlays(ctx)
	if err != nil {
		o.logger.WithError(err).Debug("Detaching overlays failed")
	}
	left := o.page.OpenOverlays(ctx)
	if left > 0 {
		o.logger.WarnWithFields("Overlays still open", map[string]interface{}{
			"removed":  removed,
			"leftover": left,
		})
	}
	return left
}
