// Package llm defines the Provider interface for Large Language Model
// backends.
//
// A provider wraps one vendor's chat-completion HTTP API and exposes a
// uniform non-streaming interface to the correction engine: assemble the
// vendor request envelope, authenticate, parse the assistant text out of the
// response, classify failures into the shared [Kind] taxonomy, and report
// token usage under the vendor's own field names so that pricing tables can
// be applied unchanged.
//
// Implementors must be safe for concurrent use; the correction engine fans
// segment corrections out across goroutines against a single Provider value.
package llm

import (
	"context"
	"encoding/json"
	"time"
)

// Message is a single message in a chat conversation.
type Message struct {
	// Role is "user" or "assistant". System instructions travel separately
	// in [CompletionRequest.SystemPrompt] because vendors disagree on how a
	// system prompt is carried.
	Role string

	// Content is the text content of the message.
	Content string
}

// CompletionRequest carries everything a provider needs for one completion.
type CompletionRequest struct {
	// SystemPrompt is the high-priority instruction. Providers that have no
	// dedicated system slot prepend it to the first user message.
	SystemPrompt string

	// Messages is the ordered conversation, ending with the user turn that
	// drives the response.
	Messages []Message
}

// Usage holds vendor-reported token counts keyed by the vendor's own field
// names (e.g. "prompt_tokens" for OpenAI, "input_tokens" for Anthropic,
// "promptTokenCount" for Google). Keeping vendor names intact lets the
// pricing tables mirror published price sheets directly.
type Usage map[string]int64

// Add accumulates other into u field by field.
func (u Usage) Add(other Usage) {
	for k, v := range other {
		u[k] += v
	}
}

// CompletionResponse is the normalised result of one completion call.
type CompletionResponse struct {
	// Content is the assistant's reply text.
	Content string

	// Usage is the vendor-reported token accounting for this call.
	Usage Usage

	// Raw is the vendor's response body, retained verbatim for the session
	// response log.
	Raw json.RawMessage
}

// TimeoutPolicy scales the per-attempt request deadline: attempt n (1-based)
// runs under min(Base*n, Max). Slow vendors ship larger values.
type TimeoutPolicy struct {
	Base time.Duration
	Max  time.Duration
}

// For returns the deadline for the given 1-based attempt number.
func (p TimeoutPolicy) For(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.Base * time.Duration(attempt)
	if p.Max > 0 && d > p.Max {
		d = p.Max
	}
	return d
}

// Provider is the abstraction over any LLM vendor backend.
//
// Complete must classify every failure into the [Kind] taxonomy by returning
// a [*Error]; callers decide retry behaviour purely from the kind.
type Provider interface {
	// Name identifies the vendor ("openai", "anthropic", ...).
	Name() string

	// BaseURL is the scheme://host root of the vendor endpoint, used for the
	// pre-flight connectivity probe.
	BaseURL() string

	// Timeouts returns the vendor's per-attempt deadline policy.
	Timeouts() TimeoutPolicy

	// Complete sends one chat completion and waits for the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
