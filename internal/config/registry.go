package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/coseeing/wordbridge/pkg/provider/llm"
	"github.com/coseeing/wordbridge/pkg/provider/llm/anthropic"
	"github.com/coseeing/wordbridge/pkg/provider/llm/baidu"
	"github.com/coseeing/wordbridge/pkg/provider/llm/deepseek"
	"github.com/coseeing/wordbridge/pkg/provider/llm/google"
	"github.com/coseeing/wordbridge/pkg/provider/llm/httpvendor"
	"github.com/coseeing/wordbridge/pkg/provider/llm/openai"
	"github.com/coseeing/wordbridge/pkg/provider/llm/openrouter"
)

// ErrProviderNotRegistered is returned by [Registry.Create] when no factory
// has been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]func(ProviderEntry) (llm.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]func(ProviderEntry) (llm.Provider, error))}
}

// Register registers a provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) Register(name string, factory func(ProviderEntry) (llm.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create instantiates a provider using the factory registered under entry.Name.
// Returns [ErrProviderNotRegistered] if no factory has been registered for that name.
func (r *Registry) Create(entry ProviderEntry) (llm.Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// BuiltinRegistry returns a [Registry] pre-populated with the factories for
// every name in [ValidProviderNames].
func BuiltinRegistry() *Registry {
	r := NewRegistry()
	r.Register("openai", newOpenAI)
	r.Register("anthropic", newAnthropic)
	r.Register("google", newHTTPVendor(google.New))
	r.Register("deepseek", newHTTPVendor(deepseek.New))
	r.Register("openrouter", newHTTPVendor(openrouter.New))
	r.Register("baidu", newHTTPVendor(baidu.New))
	return r
}

func newOpenAI(entry ProviderEntry) (llm.Provider, error) {
	var opts []openai.Option
	if entry.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(entry.BaseURL))
	}
	if t, ok := floatOption(entry.Options, "temperature"); ok {
		opts = append(opts, openai.WithTemperature(t))
	}
	if p, ok := floatOption(entry.Options, "top_p"); ok {
		opts = append(opts, openai.WithTopP(p))
	}
	if stop, ok := stringSliceOption(entry.Options, "stop"); ok {
		opts = append(opts, openai.WithStop(stop))
	}
	if n, ok := intOption(entry.Options, "max_completion_tokens"); ok {
		opts = append(opts, openai.WithMaxCompletionTokens(n))
	}
	return openai.New(entry.ResolveAPIKey(), entry.Model, opts...)
}

func newAnthropic(entry ProviderEntry) (llm.Provider, error) {
	var opts []anthropic.Option
	if entry.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(entry.BaseURL))
	}
	if t, ok := floatOption(entry.Options, "temperature"); ok {
		opts = append(opts, anthropic.WithTemperature(t))
	}
	if p, ok := floatOption(entry.Options, "top_p"); ok {
		opts = append(opts, anthropic.WithTopP(p))
	}
	if n, ok := intOption(entry.Options, "max_tokens"); ok {
		opts = append(opts, anthropic.WithMaxTokens(n))
	}
	return anthropic.New(entry.ResolveAPIKey(), entry.Model, opts...)
}

// newHTTPVendor adapts a raw-HTTP vendor constructor into a registry factory.
// Entry options are passed through verbatim as request settings.
func newHTTPVendor(ctor func(httpvendor.Config, ...httpvendor.Option) *httpvendor.Client) func(ProviderEntry) (llm.Provider, error) {
	return func(entry ProviderEntry) (llm.Provider, error) {
		return ctor(httpvendor.Config{
			Model:    entry.Model,
			APIKey:   entry.ResolveAPIKey(),
			BaseURL:  entry.BaseURL,
			Settings: entry.Options,
		}), nil
	}
}

// floatOption reads a numeric option, accepting the int and float forms the
// YAML decoder produces.
func floatOption(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func intOption(m map[string]any, key string) (int64, bool) {
	switch v := m[key].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	}
	return 0, false
}

func stringSliceOption(m map[string]any, key string) ([]string, bool) {
	raw, ok := m[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, len(out) > 0
}
