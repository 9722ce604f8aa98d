// Package openrouter implements [llm.Provider] for the OpenRouter gateway.
package openrouter

import (
	"github.com/coseeing/wordbridge/pkg/provider/llm"
	"github.com/coseeing/wordbridge/pkg/provider/llm/httpvendor"
)

const defaultURL = "https://openrouter.ai/api/v1/chat/completions"

// New builds an OpenRouter provider.
func New(cfg httpvendor.Config, opts ...httpvendor.Option) *httpvendor.Client {
	return httpvendor.New(shape{}, cfg, opts...)
}

type shape struct{}

func (shape) Name() string { return "openrouter" }

func (shape) URL(cfg httpvendor.Config) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	return defaultURL
}

func (shape) Headers(cfg httpvendor.Config) map[string]string {
	return map[string]string{"Authorization": "Bearer " + cfg.APIKey}
}

func (shape) Body(cfg httpvendor.Config, req llm.CompletionRequest) (any, error) {
	extra := map[string]any{"stream": false}
	if len(cfg.Settings) > 0 {
		extra["options"] = cfg.Settings
	}
	return httpvendor.OpenAIStyleBody(cfg, req, extra), nil
}

func (shape) Parse(body []byte) (string, error) {
	return httpvendor.ParseOpenAIStyle(body)
}

func (shape) Classify(status int, body []byte) *llm.Error { return nil }
