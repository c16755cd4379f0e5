package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "engage/pkg/errors"
	"engage/pkg/identity"
	"engage/pkg/logger"
	"engage/pkg/retry"
)

// DefaultRemoteTimeout bounds a whole remote delivery, retries included.
const DefaultRemoteTimeout = 30 * time.Second

// RunHeader carries the run identifier on webhook requests.
const RunHeader = "X-Engage-Run"

// Payload is the JSON document posted to the webhook.
type Payload struct {
	PostURL    string         `json:"postUrl"`
	ScrapedAt  string         `json:"scrapedAt"`
	TotalCount int            `json:"totalCount"`
	Stats      identity.Stats `json:"stats"`
	Profiles   []Row          `json:"profiles"`
}

// NewPayload builds the webhook document for b.
func NewPayload(b Batch) Payload {
	profiles := b.Rows
	if profiles == nil {
		profiles = []Row{}
	}
	return Payload{
		PostURL:    b.PostURL,
		ScrapedAt:  b.ScrapedAt.UTC().Format(time.RFC3339Nano),
		TotalCount: len(profiles),
		Stats:      b.Stats,
		Profiles:   profiles,
	}
}

// WebhookOption configures a WebhookSink.
type WebhookOption func(*WebhookSink)

// WithToken sends token as a bearer credential.
func WithToken(token string) WebhookOption {
	return func(s *WebhookSink) { s.token = token }
}

// WithTimeout bounds the whole delivery.
func WithTimeout(d time.Duration) WebhookOption {
	return func(s *WebhookSink) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithAttempts sets how many times a retryable failure is attempted.
func WithAttempts(n int) WebhookOption {
	return func(s *WebhookSink) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(s *WebhookSink) { s.httpClient = c }
}

// WithBackoff replaces the delay between attempts.
func WithBackoff(b retry.BackoffStrategy) WebhookOption {
	return func(s *WebhookSink) { s.backoff = b }
}

// WithWebhookLogger sets the logger.
func WithWebhookLogger(l logger.Logger) WebhookOption {
	return func(s *WebhookSink) { s.logger = l }
}

// WebhookSink posts the batch as JSON.
type WebhookSink struct {
	endpoint   string
	token      string
	timeout    time.Duration
	attempts   int
	httpClient *http.Client
	backoff    retry.BackoffStrategy
	headers    map[string]string
	logger     logger.Logger
}

// NewWebhookSink returns a sink posting to endpoint.
func NewWebhookSink(endpoint string, opts ...WebhookOption) *WebhookSink {
	s := &WebhookSink{
		endpoint:   endpoint,
		timeout:    DefaultRemoteTimeout,
		attempts:   1,
		httpClient: &http.Client{},
		backoff:    retry.DefaultExponentialBackoff(),
		headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
			"User-Agent":   "engage/" + logger.Version,
		},
		logger: logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WebhookSink) Name() string { return "webhook" }

// Endpoint returns the target URL.
func (s *WebhookSink) Endpoint() string { return s.endpoint }

// Deliver posts the batch, retrying retryable failures until the attempts
// or the timeout run out.
func (s *WebhookSink) Deliver(ctx context.Context, b Batch) (string, error) {
	body, err := json.Marshal(NewPayload(b))
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeUnknown, "encode payload", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err = retry.Do(func() error {
		return s.post(ctx, body, b.RunID)
	}, &retry.Config{
		MaxAttempts: s.attempts,
		Backoff:     s.backoff,
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      s.logger,
	})
	if err != nil {
		return s.endpoint, err
	}
	return s.endpoint, nil
}

// post performs one request with the configured headers.
func (s *WebhookSink) post(ctx context.Context, body []byte, runID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeRejected,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Err:     err,
		}
	}
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	if runID != "" {
		req.Header.Set(RunHeader, runID)
	}

	start := time.Now()
	s.logger.DebugWithFields("sending webhook request", map[string]interface{}{
		"url":   s.endpoint,
		"bytes": len(body),
	})

	resp, err := s.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		s.logger.WarnWithFields("webhook request failed", map[string]interface{}{
			"url":      s.endpoint,
			"error":    err.Error(),
			"duration": duration,
		})
		if errors.Is(err, context.DeadlineExceeded) {
			return &errs.Error{Type: errs.ErrorTypeTimeout, Message: "no response before the deadline", Err: err}
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &errs.Error{Type: errs.ErrorTypeNetwork, Message: fmt.Sprintf("network error: %v", err), Err: err}
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	s.logger.DebugWithFields("webhook request completed", map[string]interface{}{
		"url":      s.endpoint,
		"status":   resp.StatusCode,
		"duration": duration,
	})
	return checkResponseStatus(resp)
}

// checkResponseStatus maps a non-2xx status to a typed error.
func checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &errs.Error{
		Type:    errs.FromStatus(resp.StatusCode),
		Message: fmt.Sprintf("webhook returned status %d", resp.StatusCode),
		Code:    resp.StatusCode,
	}
}
