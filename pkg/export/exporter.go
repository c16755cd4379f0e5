package export

import (
	"context"
	"fmt"
	"time"

	"engage/pkg/config"
	"engage/pkg/logger"
)

// Delivery reports where a batch ended up.
type Delivery struct {
	Sink     string
	Target   string
	Rows     int
	FellBack bool
	// Cause is the primary sink failure when FellBack is set.
	Cause error
}

// Exporter delivers through a primary sink and falls back to a local file
// when the primary fails.
type Exporter struct {
	primary  Sink
	fallback Sink
	logger   logger.Logger
}

// NewExporter returns an exporter. fallback may be nil or equal to primary,
// in which case a failure is returned as is.
func NewExporter(primary, fallback Sink, log logger.Logger) *Exporter {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Exporter{primary: primary, fallback: fallback, logger: log}
}

// FromConfig builds the exporter selected by cfg. token is the webhook
// bearer credential, empty for none.
func FromConfig(cfg *config.ExportConfig, token string, log logger.Logger) (*Exporter, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	local, err := NewLocalSink(cfg.OutputDir, cfg.FileNamePattern, log)
	if err != nil {
		return nil, err
	}
	if cfg.Mode != config.ModeRemote {
		return NewExporter(local, nil, log), nil
	}
	remote := NewWebhookSink(cfg.Endpoint,
		WithToken(token),
		WithTimeout(cfg.RemoteTimeout.Std()),
		WithAttempts(cfg.RemoteAttempts),
		WithWebhookLogger(log),
	)
	return NewExporter(remote, local, log), nil
}

// Export delivers b.
func (e *Exporter) Export(ctx context.Context, b Batch) (Delivery, error) {
	if b.ScrapedAt.IsZero() {
		b.ScrapedAt = time.Now()
	}

	target, err := e.primary.Deliver(ctx, b)
	logger.LogDelivery(e.logger, e.primary.Name(), target, len(b.Rows), err)
	if err == nil {
		return Delivery{Sink: e.primary.Name(), Target: target, Rows: len(b.Rows)}, nil
	}
	if e.fallback == nil || e.fallback == e.primary {
		return Delivery{}, fmt.Errorf("%s delivery: %w", e.primary.Name(), err)
	}

	e.logger.WarnWithFields("Falling back to local export", map[string]interface{}{
		"sink": e.fallback.Name(),
	})
	// The fallback runs even when ctx is done so collected rows are kept.
	target, ferr := e.fallback.Deliver(context.WithoutCancel(ctx), b)
	logger.LogDelivery(e.logger, e.fallback.Name(), target, len(b.Rows), ferr)
	if ferr != nil {
		return Delivery{}, fmt.Errorf("%s delivery: %w; fallback: %w", e.primary.Name(), err, ferr)
	}
	return Delivery{
		Sink:     e.fallback.Name(),
		Target:   target,
		Rows:     len(b.Rows),
		FellBack: true,
		Cause:    err,
	}, nil
}
