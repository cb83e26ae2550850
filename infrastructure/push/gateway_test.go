package push

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/washday/washday/pkg/retry"
)

type fakeSender struct {
	calls      [][]string
	failCall   int // 1-based index of the call that fails; 0 = never
	failErr    error
	failalways bool
}

func (f *fakeSender) SendMulticast(ctx context.Context, tokens []string, notification Notification, data map[string]string) (*BatchResult, error) {
	f.calls = append(f.calls, tokens)
	if f.failalways || (f.failCall > 0 && len(f.calls) == f.failCall) {
		return nil, f.failErr
	}
	return &BatchResult{SuccessCount: len(tokens)}, nil
}

func makeTokens(n int) []string {
	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("token-%04d", i)
	}
	return tokens
}

func noRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond}
}

func TestSendBatch_ChunksToProviderLimit(t *testing.T) {
	sender := &fakeSender{}
	client := NewClient(sender, WithRetryPolicy(noRetry()))

	summary, err := client.SendBatch(context.Background(), makeTokens(1200), "t", "b", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.calls) != 3 {
		t.Fatalf("expected 3 provider calls, got %d", len(sender.calls))
	}
	for i, call := range sender.calls {
		if len(call) > 500 {
			t.Errorf("call %d exceeds provider limit: %d tokens", i, len(call))
		}
	}
	if summary.Attempted != 1200 || summary.Sent != 1200 {
		t.Errorf("summary: attempted=%d sent=%d, want 1200/1200", summary.Attempted, summary.Sent)
	}
}

func TestSendBatch_FailedBatchDoesNotAbortSiblings(t *testing.T) {
	sender := &fakeSender{failCall: 2, failErr: errors.New("invalid argument")}
	client := NewClient(sender, WithRetryPolicy(noRetry()))

	summary, err := client.SendBatch(context.Background(), makeTokens(1200), "t", "b", nil)
	if err != nil {
		t.Fatalf("partial failure must not surface as an error: %v", err)
	}

	if len(sender.calls) != 3 {
		t.Fatalf("expected calls 1 and 3 to still be attempted, got %d calls", len(sender.calls))
	}
	if summary.Attempted != 1200 {
		t.Errorf("attempted=%d, want 1200", summary.Attempted)
	}
	if summary.Sent != 700 {
		t.Errorf("sent=%d, want 700 (batches 1 and 3)", summary.Sent)
	}
	if len(summary.Errors) != 500 {
		t.Errorf("expected 500 token errors from the lost batch, got %d", len(summary.Errors))
	}
}

func TestSendBatch_TransientErrorIsRetried(t *testing.T) {
	sender := &fakeSender{failCall: 1, failErr: errors.New("read tcp: connection reset by peer")}
	client := NewClient(sender, WithRetryPolicy(retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		IsRetryable: retry.IsTransientNetworkError,
	}))

	summary, err := client.SendBatch(context.Background(), makeTokens(10), "t", "b", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.calls) != 2 {
		t.Errorf("expected 1 failed + 1 successful attempt, got %d", len(sender.calls))
	}
	if summary.Sent != 10 {
		t.Errorf("sent=%d, want 10 after retry", summary.Sent)
	}
}

func TestSendBatch_NonTransientErrorIsNotRetried(t *testing.T) {
	sender := &fakeSender{failalways: true, failErr: errors.New("invalid credentials")}
	client := NewClient(sender, WithRetryPolicy(retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		IsRetryable: retry.IsTransientNetworkError,
	}))

	summary, err := client.SendBatch(context.Background(), makeTokens(10), "t", "b", nil)
	if err != nil {
		t.Fatalf("single-batch failure must not surface as an error: %v", err)
	}
	if len(sender.calls) != 1 {
		t.Errorf("non-transient error must not be retried, got %d attempts", len(sender.calls))
	}
	if summary.Sent != 0 || len(summary.Errors) != 10 {
		t.Errorf("summary: sent=%d errors=%d, want 0/10", summary.Sent, len(summary.Errors))
	}
}

func TestSendBatch_EmptyAndBlankTokens(t *testing.T) {
	sender := &fakeSender{}
	client := NewClient(sender, WithRetryPolicy(noRetry()))

	summary, err := client.SendBatch(context.Background(), []string{"", "", ""}, "t", "b", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.calls) != 0 {
		t.Error("blank tokens must not reach the provider")
	}
	if summary.Attempted != 0 {
		t.Errorf("attempted=%d, want 0", summary.Attempted)
	}
}

func TestSendBatch_UninitializedClient(t *testing.T) {
	client := NewClient(nil)
	if _, err := client.SendBatch(context.Background(), makeTokens(1), "t", "b", nil); err == nil {
		t.Error("uninitialized gateway must return an error")
	}
}
