// Package google implements [llm.Provider] for the Gemini generateContent
// API. Gemini carries auth as a URL query parameter, names the assistant
// role "model", and nests text under content parts.
package google

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/coseeing/wordbridge/pkg/provider/llm"
	"github.com/coseeing/wordbridge/pkg/provider/llm/httpvendor"
)

const defaultBase = "https://generativelanguage.googleapis.com"

// New builds a Gemini provider.
func New(cfg httpvendor.Config, opts ...httpvendor.Option) *httpvendor.Client {
	return httpvendor.New(shape{}, cfg, opts...)
}

type shape struct{}

func (shape) Name() string { return "google" }

func (shape) URL(cfg httpvendor.Config) string {
	base := defaultBase
	if cfg.BaseURL != "" {
		base = strings.TrimRight(cfg.BaseURL, "/")
	}
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		base, cfg.Model, url.QueryEscape(cfg.APIKey))
}

func (shape) Headers(cfg httpvendor.Config) map[string]string {
	// Auth travels in the URL query string.
	return nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

func (shape) Body(cfg httpvendor.Config, req llm.CompletionRequest) (any, error) {
	contents := make([]content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: m.Content}}})
	}
	body := map[string]any{"contents": contents}
	if req.SystemPrompt != "" {
		body["system_instruction"] = content{Parts: []part{{Text: req.SystemPrompt}}}
	}
	if len(cfg.Settings) > 0 {
		body["generationConfig"] = cfg.Settings
	}
	return body, nil
}

func (shape) Parse(raw []byte) (string, error) {
	var envelope struct {
		Candidates []struct {
			Content struct {
				Parts []part `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", fmt.Errorf("google: decode response: %w", err)
	}
	if len(envelope.Candidates) == 0 || len(envelope.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("google: response has no candidates")
	}
	return envelope.Candidates[0].Content.Parts[0].Text, nil
}

func (shape) Classify(status int, body []byte) *llm.Error { return nil }
