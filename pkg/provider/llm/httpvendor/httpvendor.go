// Package httpvendor implements [llm.Provider] over a vendor's raw chat
// completion HTTP API.
//
// Most vendors speak a near-identical JSON dialect; what differs is the
// endpoint, the auth header, the request envelope, and where the reply text
// sits in the response. Those differences are captured by a small [Shape]
// per vendor, and the shared [Client] handles transport, error
// classification, and usage extraction.
package httpvendor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/coseeing/wordbridge/pkg/provider/llm"
)

// Config holds the per-vendor connection settings.
type Config struct {
	// Model is the vendor model identifier.
	Model string

	// APIKey authenticates the request.
	APIKey string

	// BaseURL overrides the vendor's default endpoint root. Optional.
	BaseURL string

	// Timeout overrides the vendor's default per-attempt deadline policy.
	Timeout llm.TimeoutPolicy

	// Settings are extra generation parameters merged into the request body
	// (temperature, top_p, stop, max_completion_tokens, ...).
	Settings map[string]any
}

// Shape describes one vendor's dialect of the chat completion API.
type Shape interface {
	// Name identifies the vendor.
	Name() string

	// URL returns the full completion endpoint for the config.
	URL(cfg Config) string

	// Headers returns the request headers, including auth.
	Headers(cfg Config) map[string]string

	// Body builds the vendor request envelope.
	Body(cfg Config, req llm.CompletionRequest) (any, error)

	// Parse extracts the assistant reply text from a 200 response body.
	Parse(body []byte) (string, error)

	// Classify maps a vendor failure onto the shared taxonomy. Returning
	// nil defers to the status-code convention; it is also consulted on
	// 200 responses for vendors that report errors in-band.
	Classify(status int, body []byte) *llm.Error
}

// Client is a Shape-driven [llm.Provider].
type Client struct {
	shape Shape
	cfg   Config
	http  *resty.Client
}

var _ llm.Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying resty client, e.g. for tests.
func WithHTTPClient(hc *resty.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New builds a Client for the given vendor shape.
func New(shape Shape, cfg Config, opts ...Option) *Client {
	if cfg.Timeout == (llm.TimeoutPolicy{}) {
		cfg.Timeout = llm.TimeoutPolicy{Base: 30 * time.Second, Max: 90 * time.Second}
	}
	c := &Client{
		shape: shape,
		cfg:   cfg,
		http:  resty.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return c.shape.Name() }

// BaseURL returns the scheme://host root of the completion endpoint.
func (c *Client) BaseURL() string {
	u, err := url.Parse(c.shape.URL(c.cfg))
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func (c *Client) Timeouts() llm.TimeoutPolicy { return c.cfg.Timeout }

// Complete sends one chat completion request and parses the reply.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	body, err := c.shape.Body(c.cfg, req)
	if err != nil {
		return nil, &llm.Error{Kind: llm.KindResponse, Provider: c.Name(), Err: err}
	}

	r := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	for k, v := range c.shape.Headers(c.cfg) {
		r.SetHeader(k, v)
	}
	resp, err := r.Post(c.shape.URL(c.cfg))
	if err != nil {
		return nil, &llm.Error{Kind: llm.KindTransport, Provider: c.Name(), Err: err}
	}

	raw := resp.Body()
	if perr := c.shape.Classify(resp.StatusCode(), raw); perr != nil {
		return nil, perr
	}
	if resp.IsError() {
		return nil, llm.ClassifyStatus(c.Name(), resp.StatusCode(), errorDetail(raw))
	}

	content, err := c.shape.Parse(raw)
	if err != nil {
		return nil, &llm.Error{Kind: llm.KindParse, Provider: c.Name(), Err: err}
	}
	return &llm.CompletionResponse{
		Content: content,
		Usage:   ExtractUsage(raw),
		Raw:     json.RawMessage(raw),
	}, nil
}

// Probe checks that the vendor host is reachable at all. Any HTTP response,
// error status included, proves connectivity; only transport failures count.
func Probe(ctx context.Context, p llm.Provider) error {
	base := p.BaseURL()
	if u, err := url.Parse(base); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil
	}
	hc := resty.New().SetTimeout(10 * time.Second)
	if _, err := hc.R().SetContext(ctx).Get(base); err != nil {
		return &llm.Error{Kind: llm.KindTransport, Provider: p.Name(), Err: err}
	}
	return nil
}

// usageKeys are the top-level response fields vendors report token counts
// under, in lookup order.
var usageKeys = []string{"usage", "usageMetadata"}

// ExtractUsage pulls the vendor token accounting out of a raw response body,
// keeping the vendor's own field names. Non-numeric and nested fields are
// skipped.
func ExtractUsage(raw []byte) llm.Usage {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil
	}
	for _, key := range usageKeys {
		blob, ok := envelope[key]
		if !ok {
			continue
		}
		var fields map[string]json.Number
		dec := json.NewDecoder(strings.NewReader(string(blob)))
		dec.UseNumber()
		if err := dec.Decode(&fields); err != nil {
			// Nested objects (e.g. token detail breakdowns) fail the flat
			// decode; fall back to field-by-field.
			var loose map[string]any
			if err := json.Unmarshal(blob, &loose); err != nil {
				return nil
			}
			usage := llm.Usage{}
			for k, v := range loose {
				if f, ok := v.(float64); ok {
					usage[k] = int64(f)
				}
			}
			return usage
		}
		usage := llm.Usage{}
		for k, v := range fields {
			if n, err := v.Int64(); err == nil {
				usage[k] = n
			}
		}
		return usage
	}
	return nil
}

// errorDetail digs the vendor error message out of a failure body, falling
// back to a body excerpt.
func errorDetail(raw []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

// OpenAIStyleBody builds the request envelope shared by the OpenAI-dialect
// vendors: a system message prepended to the conversation, plus any extra
// generation settings at the top level of the body.
func OpenAIStyleBody(cfg Config, req llm.CompletionRequest, extra map[string]any) map[string]any {
	messages := make([]map[string]string, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.SystemPrompt})
	}
	for _, m := range req.Messages {
		messages = append(messages, map[string]string{"role": m.Role, "content": m.Content})
	}
	body := map[string]any{
		"model":    cfg.Model,
		"messages": messages,
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

// ParseOpenAIStyle extracts choices[0].message.content.
func ParseOpenAIStyle(raw []byte) (string, error) {
	var envelope struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", fmt.Errorf("httpvendor: decode response: %w", err)
	}
	if len(envelope.Choices) == 0 {
		return "", fmt.Errorf("httpvendor: response has no choices")
	}
	return envelope.Choices[0].Message.Content, nil
}
