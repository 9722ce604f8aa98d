// Package mock provides an in-memory [llm.Provider] for tests.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/coseeing/wordbridge/pkg/provider/llm"
)

// Provider implements [llm.Provider] with canned responses. The zero value
// returns an empty response for every call. Safe for concurrent use.
type Provider struct {
	// ProviderName is returned by Name. Defaults to "mock".
	ProviderName string

	// CompleteResponse is returned by Complete when CompleteFunc is nil.
	CompleteResponse *llm.CompletionResponse

	// CompleteErr is returned by Complete when CompleteFunc is nil.
	CompleteErr error

	// CompleteFunc, when set, handles Complete entirely. It receives the
	// 1-based call number.
	CompleteFunc func(ctx context.Context, call int, req llm.CompletionRequest) (*llm.CompletionResponse, error)

	// Timeout is the policy returned by Timeouts.
	Timeout llm.TimeoutPolicy

	mu    sync.Mutex
	calls []llm.CompletionRequest
}

var _ llm.Provider = (*Provider)(nil)

func (p *Provider) Name() string {
	if p.ProviderName == "" {
		return "mock"
	}
	return p.ProviderName
}

func (p *Provider) BaseURL() string { return "mock://" }

func (p *Provider) Timeouts() llm.TimeoutPolicy {
	if p.Timeout == (llm.TimeoutPolicy{}) {
		return llm.TimeoutPolicy{Base: time.Minute, Max: 5 * time.Minute}
	}
	return p.Timeout
}

func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	n := len(p.calls)
	p.mu.Unlock()

	if p.CompleteFunc != nil {
		return p.CompleteFunc(ctx, n, req)
	}
	if p.CompleteErr != nil {
		return nil, p.CompleteErr
	}
	if p.CompleteResponse != nil {
		resp := *p.CompleteResponse
		return &resp, nil
	}
	return &llm.CompletionResponse{Usage: llm.Usage{}}, nil
}

// Calls returns a copy of every request seen so far.
func (p *Provider) Calls() []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.CompletionRequest(nil), p.calls...)
}
