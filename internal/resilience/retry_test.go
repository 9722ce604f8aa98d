package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coseeing/wordbridge/internal/resilience"
	"github.com/coseeing/wordbridge/pkg/provider/llm"
	"github.com/coseeing/wordbridge/pkg/provider/llm/mock"
)

func fastPolicy(attempts int) resilience.Policy {
	return resilience.Policy{
		Attempts:   attempts,
		Backoff:    time.Millisecond,
		BackoffCap: 2 * time.Millisecond,
	}
}

func TestCompleteSucceedsFirstTry(t *testing.T) {
	p := &mock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "ok"},
	}
	resp, err := resilience.Complete(context.Background(), p, llm.CompletionRequest{}, fastPolicy(3))
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q, want %q", resp.Content, "ok")
	}
	if got := len(p.Calls()); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestCompleteRetriesTransportErrors(t *testing.T) {
	p := &mock.Provider{
		CompleteFunc: func(_ context.Context, call int, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
			if call < 3 {
				return nil, &llm.Error{Kind: llm.KindTransport, Provider: "mock", Err: errors.New("connection reset")}
			}
			return &llm.CompletionResponse{Content: "recovered"}, nil
		},
	}
	resp, err := resilience.Complete(context.Background(), p, llm.CompletionRequest{}, fastPolicy(3))
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "recovered" {
		t.Errorf("Content = %q, want %q", resp.Content, "recovered")
	}
	if got := len(p.Calls()); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestCompleteDoesNotRetryAuthErrors(t *testing.T) {
	authErr := &llm.Error{Kind: llm.KindAuth, Provider: "mock"}
	p := &mock.Provider{CompleteErr: authErr}

	_, err := resilience.Complete(context.Background(), p, llm.CompletionRequest{}, fastPolicy(3))
	if !errors.Is(err, authErr) {
		t.Fatalf("Complete() error = %v, want %v", err, authErr)
	}
	if got := len(p.Calls()); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestCompleteExhaustsAttempts(t *testing.T) {
	transportErr := &llm.Error{Kind: llm.KindTransport, Provider: "mock", Err: errors.New("refused")}
	p := &mock.Provider{CompleteErr: transportErr}

	_, err := resilience.Complete(context.Background(), p, llm.CompletionRequest{}, fastPolicy(2))
	if !errors.Is(err, transportErr) {
		t.Fatalf("Complete() error = %v, want %v", err, transportErr)
	}
	if got := len(p.Calls()); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestCompleteStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &mock.Provider{
		CompleteFunc: func(_ context.Context, _ int, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
			cancel()
			return nil, &llm.Error{Kind: llm.KindTransport, Provider: "mock", Err: errors.New("timeout")}
		},
	}
	_, err := resilience.Complete(ctx, p, llm.CompletionRequest{}, fastPolicy(5))
	if err == nil {
		t.Fatal("Complete() error = nil, want error")
	}
	if got := len(p.Calls()); got > 2 {
		t.Errorf("calls = %d, want at most 2", got)
	}
}

func TestCompleteScalesAttemptDeadline(t *testing.T) {
	var deadlines []time.Duration
	p := &mock.Provider{
		Timeout: llm.TimeoutPolicy{Base: time.Hour, Max: 90 * time.Minute},
		CompleteFunc: func(ctx context.Context, call int, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
			dl, ok := ctx.Deadline()
			if !ok {
				t.Fatal("attempt context has no deadline")
			}
			deadlines = append(deadlines, time.Until(dl))
			if call < 2 {
				return nil, &llm.Error{Kind: llm.KindTransport, Provider: "mock", Err: errors.New("timeout")}
			}
			return &llm.CompletionResponse{}, nil
		},
	}
	if _, err := resilience.Complete(context.Background(), p, llm.CompletionRequest{}, fastPolicy(2)); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if len(deadlines) != 2 {
		t.Fatalf("attempts = %d, want 2", len(deadlines))
	}
	// First attempt gets roughly Base, second is capped at Max.
	if deadlines[0] > time.Hour || deadlines[0] < 55*time.Minute {
		t.Errorf("first deadline = %v, want ~1h", deadlines[0])
	}
	if deadlines[1] > 90*time.Minute || deadlines[1] < 85*time.Minute {
		t.Errorf("second deadline = %v, want ~90m", deadlines[1])
	}
}
