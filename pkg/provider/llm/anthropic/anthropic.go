// Package anthropic provides an LLM provider backed by the Anthropic API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ant "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/coseeing/wordbridge/pkg/provider/llm"
)

// Provider implements llm.Provider using the official Anthropic SDK.
type Provider struct {
	client  ant.Client
	model   string
	baseURL string
	timeout llm.TimeoutPolicy

	temperature param.Opt[float64]
	topP        param.Opt[float64]
	maxTokens   int64
}

// config holds optional configuration for the provider.
type config struct {
	baseURL     string
	timeout     llm.TimeoutPolicy
	temperature param.Opt[float64]
	topP        param.Opt[float64]
	maxTokens   int64
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default Anthropic API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeouts sets the per-attempt deadline policy.
func WithTimeouts(p llm.TimeoutPolicy) Option {
	return func(c *config) {
		c.timeout = p
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *config) {
		c.temperature = param.NewOpt(t)
	}
}

// WithTopP sets nucleus sampling.
func WithTopP(p float64) Option {
	return func(c *config) {
		c.topP = param.NewOpt(p)
	}
}

// WithMaxTokens caps the completion length. The Messages API requires a
// cap; the default is 4096.
func WithMaxTokens(n int64) Option {
	return func(c *config) {
		c.maxTokens = n
	}
}

// New constructs a new Anthropic LLM Provider.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anthropic: model must not be empty")
	}

	cfg := &config{
		timeout:   llm.TimeoutPolicy{Base: 30 * time.Second, Max: 90 * time.Second},
		maxTokens: 4096,
	}
	for _, o := range opts {
		o(cfg)
	}

	baseURL := "https://api.anthropic.com"
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		baseURL = cfg.baseURL
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &Provider{
		client:      ant.NewClient(reqOpts...),
		model:       model,
		baseURL:     baseURL,
		timeout:     cfg.timeout,
		temperature: cfg.temperature,
		topP:        cfg.topP,
		maxTokens:   cfg.maxTokens,
	}, nil
}

// Name implements llm.Provider.
func (p *Provider) Name() string { return "anthropic" }

// BaseURL implements llm.Provider.
func (p *Provider) BaseURL() string { return p.baseURL }

// Timeouts implements llm.Provider.
func (p *Provider) Timeouts() llm.TimeoutPolicy { return p.timeout }

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	params := ant.MessageNewParams{
		Model:     ant.Model(p.model),
		MaxTokens: p.maxTokens,
	}
	if req.SystemPrompt != "" {
		params.System = []ant.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if p.temperature.Valid() {
		params.Temperature = p.temperature
	}
	if p.topP.Valid() {
		params.TopP = p.topP
	}
	for _, m := range req.Messages {
		block := ant.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			params.Messages = append(params.Messages, ant.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, ant.NewUserMessage(block))
		}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, &llm.Error{Kind: llm.KindParse, Provider: "anthropic", Detail: "no text blocks in response"}
	}

	return &llm.CompletionResponse{
		Content: sb.String(),
		Usage: llm.Usage{
			"input_tokens":                msg.Usage.InputTokens,
			"output_tokens":               msg.Usage.OutputTokens,
			"cache_creation_input_tokens": msg.Usage.CacheCreationInputTokens,
			"cache_read_input_tokens":     msg.Usage.CacheReadInputTokens,
		},
		Raw: []byte(msg.RawJSON()),
	}, nil
}

// classify maps an SDK error onto the shared taxonomy.
func classify(err error) error {
	var apiErr *ant.Error
	if errors.As(err, &apiErr) {
		perr := llm.ClassifyStatus("anthropic", apiErr.StatusCode, "")
		perr.Err = err
		return perr
	}
	return &llm.Error{Kind: llm.KindOf(err), Provider: "anthropic", Err: err}
}
