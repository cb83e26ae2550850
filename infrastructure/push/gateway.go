package push

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/washday/washday/pkg/retry"
)

// Provider multicast limit: FCM accepts at most 500 tokens per request.
const defaultBatchSize = 500

// Notification is the user-visible part of a push message.
type Notification struct {
	Title string
	Body  string
}

// TokenError records a per-token delivery failure as reported by the provider.
type TokenError struct {
	Token  string `json:"token"`
	Reason string `json:"reason"`
}

// BatchResult is the provider's answer for one multicast call.
type BatchResult struct {
	SuccessCount int
	FailureCount int
	Errors       []TokenError
}

// Summary aggregates delivery over all batches. Partial failure is reported
// here, never as an error.
type Summary struct {
	Attempted int          `json:"attempted"`
	Sent      int          `json:"sent"`
	Errors    []TokenError `json:"errors,omitempty"`
}

// MulticastSender is the provider-facing seam; the FCM implementation lives
// in fcm.go and tests substitute fakes.
type MulticastSender interface {
	SendMulticast(ctx context.Context, tokens []string, notification Notification, data map[string]string) (*BatchResult, error)
}

// Client batches and retries push delivery. One failing batch never aborts
// its siblings; transient network errors are retried with backoff, anything
// else fails only its own batch.
type Client struct {
	sender      MulticastSender
	batchSize   int
	callTimeout time.Duration
	policy      retry.Policy
}

type Option func(*Client)

func WithBatchSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.batchSize = size
		}
	}
}

func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *Client) {
		c.policy = policy
	}
}

func NewClient(sender MulticastSender, opts ...Option) *Client {
	c := &Client{
		sender:      sender,
		batchSize:   defaultBatchSize,
		callTimeout: 10 * time.Second,
		policy:      retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendBatch delivers the notification to every token, chunked to the
// provider limit. It returns an error only for total/configuration failure;
// per-batch and per-token failures are aggregated into the Summary.
func (c *Client) SendBatch(ctx context.Context, tokens []string, title, body string, data map[string]string) (Summary, error) {
	if c == nil || c.sender == nil {
		return Summary{}, fmt.Errorf("push gateway not initialized")
	}

	cleaned := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		logrus.Warn("[PUSH] Skipping send: no tokens")
		return Summary{}, nil
	}

	notification := Notification{Title: title, Body: body}
	summary := Summary{}

	for _, batch := range chunked(cleaned, c.batchSize) {
		summary.Attempted += len(batch)

		result, err := c.sendOne(ctx, batch, notification, data)
		if err != nil {
			// This batch is lost; siblings still get their attempt.
			logrus.WithError(err).Errorf("[PUSH] Batch of %d tokens failed", len(batch))
			for _, t := range batch {
				summary.Errors = append(summary.Errors, TokenError{Token: truncateToken(t), Reason: err.Error()})
			}
			continue
		}

		summary.Sent += result.SuccessCount
		summary.Errors = append(summary.Errors, result.Errors...)
		logrus.Infof("[PUSH] Batch sent: success=%d failure=%d", result.SuccessCount, result.FailureCount)
	}

	logrus.Infof("[PUSH] Delivery finished: attempted=%d sent=%d failed_tokens=%d",
		summary.Attempted, summary.Sent, len(summary.Errors))
	return summary, nil
}

func (c *Client) sendOne(ctx context.Context, batch []string, notification Notification, data map[string]string) (*BatchResult, error) {
	var result *BatchResult
	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()

		var sendErr error
		result, sendErr = c.sender.SendMulticast(callCtx, batch, notification, data)
		return sendErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func chunked(tokens []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(tokens); start += size {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		batches = append(batches, tokens[start:end])
	}
	return batches
}

// truncateToken keeps logs and error reports free of full device tokens.
func truncateToken(token string) string {
	if len(token) <= 20 {
		return token
	}
	return token[:20] + "..."
}
