// Package baidu implements [llm.Provider] for the Baidu Qianfan chat API.
//
// Qianfan speaks the OpenAI dialect but reports failures in-band: a 200
// response may carry an error_code instead of content. Two parameters also
// need clamping before the request goes out.
package baidu

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/coseeing/wordbridge/pkg/provider/llm"
	"github.com/coseeing/wordbridge/pkg/provider/llm/httpvendor"
)

const defaultURL = "https://qianfan.baidubce.com/v2/chat/completions"

// New builds a Qianfan provider.
func New(cfg httpvendor.Config, opts ...httpvendor.Option) *httpvendor.Client {
	return httpvendor.New(shape{}, cfg, opts...)
}

type shape struct{}

func (shape) Name() string { return "baidu" }

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
	extra := make(map[string]any, len(cfg.Settings))
	for k, v := range cfg.Settings {
		extra[k] = v
	}
	// Qianfan rejects temperature 0 and over-long completion budgets.
	if t, ok := extra["temperature"].(float64); ok && t < 0.0001 {
		extra["temperature"] = 0.0001
	}
	if m, ok := extra["max_completion_tokens"].(int); ok && len(req.Messages) > 0 {
		last := utf8.RuneCountInString(req.Messages[len(req.Messages)-1].Content)
		if m > last {
			extra["max_completion_tokens"] = last
		}
	}
	return httpvendor.OpenAIStyleBody(cfg, req, extra), nil
}

func (shape) Parse(body []byte) (string, error) {
	return httpvendor.ParseOpenAIStyle(body)
}

// Classify handles the in-band error_code vocabulary.
func (shape) Classify(status int, body []byte) *llm.Error {
	var envelope struct {
		ErrorCode *int   `json:"error_code"`
		ErrorMsg  string `json:"error_msg"`
		Choices   []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	if envelope.ErrorCode != nil {
		var kind llm.Kind
		switch *envelope.ErrorCode {
		case 3:
			kind = llm.KindNotFound
		case 336000, 336100:
			kind = llm.KindOverloaded
		case 18, 336501, 336502:
			kind = llm.KindQuota
		case 17:
			// API not activated or out of balance.
			kind = llm.KindQuota
		default:
			kind = llm.KindResponse
		}
		return &llm.Error{Kind: kind, Provider: "baidu", Detail: envelope.ErrorMsg}
	}
	if status == 200 && (len(envelope.Choices) == 0 || envelope.Choices[0].Message.Content == "") {
		return &llm.Error{Kind: llm.KindNotFound, Provider: "baidu"}
	}
	return nil
}
