// Package openai provides an LLM provider backed by the OpenAI API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/coseeing/wordbridge/pkg/provider/llm"
)

// Provider implements llm.Provider using the official OpenAI SDK.
type Provider struct {
	client  oai.Client
	model   string
	baseURL string
	timeout llm.TimeoutPolicy

	temperature param.Opt[float64]
	topP        param.Opt[float64]
	stop        []string
	maxTokens   param.Opt[int64]
}

// config holds optional configuration for the provider.
type config struct {
	baseURL     string
	timeout     llm.TimeoutPolicy
	temperature param.Opt[float64]
	topP        param.Opt[float64]
	stop        []string
	maxTokens   param.Opt[int64]
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
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

// WithStop sets the stop sequences.
func WithStop(stop []string) Option {
	return func(c *config) {
		c.stop = stop
	}
}

// WithMaxCompletionTokens caps the completion length.
func WithMaxCompletionTokens(n int64) Option {
	return func(c *config) {
		c.maxTokens = param.NewOpt(n)
	}
}

// New constructs a new OpenAI LLM Provider.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{
		timeout: llm.TimeoutPolicy{Base: 30 * time.Second, Max: 90 * time.Second},
	}
	for _, o := range opts {
		o(cfg)
	}

	baseURL := "https://api.openai.com"
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// Retry lives in the resilience layer; the SDK must not add its own.
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		baseURL = cfg.baseURL
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &Provider{
		client:      oai.NewClient(reqOpts...),
		model:       model,
		baseURL:     baseURL,
		timeout:     cfg.timeout,
		temperature: cfg.temperature,
		topP:        cfg.topP,
		stop:        cfg.stop,
		maxTokens:   cfg.maxTokens,
	}, nil
}

// Name implements llm.Provider.
func (p *Provider) Name() string { return "openai" }

// BaseURL implements llm.Provider.
func (p *Provider) BaseURL() string { return p.baseURL }

// Timeouts implements llm.Provider.
func (p *Provider) Timeouts() llm.TimeoutPolicy { return p.timeout }

// reasoningModel reports whether the model is an o-series reasoning model,
// which rejects system messages and sampling parameters.
func (p *Provider) reasoningModel() bool {
	return strings.HasPrefix(p.model, "o")
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.buildParams(req))
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &llm.Error{Kind: llm.KindParse, Provider: "openai", Detail: "empty choices in response"}
	}

	return &llm.CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: llm.Usage{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		},
		Raw: []byte(resp.RawJSON()),
	}, nil
}

// buildParams converts a CompletionRequest into OpenAI SDK params.
func (p *Provider) buildParams(req llm.CompletionRequest) oai.ChatCompletionNewParams {
	messages := make([]oai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)

	system := req.SystemPrompt
	for i, m := range req.Messages {
		content := m.Content
		// o-series models take the system instruction merged into the first
		// user turn instead of a dedicated system message.
		if i == 0 && system != "" && p.reasoningModel() {
			content = system + "\n" + content
		}
		switch m.Role {
		case "assistant":
			messages = append(messages, oai.AssistantMessage(content))
		default:
			messages = append(messages, oai.UserMessage(content))
		}
	}
	if system != "" && !p.reasoningModel() {
		messages = append([]oai.ChatCompletionMessageParamUnion{oai.SystemMessage(system)}, messages...)
	}

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
	}
	if p.maxTokens.Valid() {
		params.MaxCompletionTokens = p.maxTokens
	}
	if !p.reasoningModel() {
		if p.temperature.Valid() {
			params.Temperature = p.temperature
		}
		if p.topP.Valid() {
			params.TopP = p.topP
		}
		if len(p.stop) > 0 {
			params.Stop = oai.ChatCompletionNewParamsStopUnion{OfStringArray: p.stop}
		}
	}
	return params
}

// classify maps an SDK error onto the shared taxonomy.
func classify(err error) error {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		perr := llm.ClassifyStatus("openai", apiErr.StatusCode, apiErr.Message)
		perr.Err = err
		return perr
	}
	return &llm.Error{Kind: llm.KindOf(err), Provider: "openai", Err: err}
}
