package httpvendor_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coseeing/wordbridge/pkg/provider/llm"
	"github.com/coseeing/wordbridge/pkg/provider/llm/baidu"
	"github.com/coseeing/wordbridge/pkg/provider/llm/deepseek"
	"github.com/coseeing/wordbridge/pkg/provider/llm/google"
	"github.com/coseeing/wordbridge/pkg/provider/llm/httpvendor"
	"github.com/coseeing/wordbridge/pkg/provider/llm/openrouter"
)

func TestDeepseekComplete(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "今天天氣真好"}}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 8, "total_tokens": 128}
		}`))
	}))
	defer srv.Close()

	p := deepseek.New(httpvendor.Config{
		Model:   "deepseek-chat",
		APIKey:  "sk-test",
		BaseURL: srv.URL,
	})
	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		SystemPrompt: "修正錯字",
		Messages:     []llm.Message{{Role: "user", Content: "今天天器真好"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "今天天氣真好" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage["prompt_tokens"] != 120 || resp.Usage["completion_tokens"] != 8 {
		t.Errorf("Usage = %v", resp.Usage)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v, want system + user", gotBody["messages"])
	}
	first, _ := msgs[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "修正錯字" {
		t.Errorf("first message = %v, want system prompt", first)
	}
	if stream, ok := gotBody["stream"].(bool); !ok || stream {
		t.Errorf("stream = %v, want false", gotBody["stream"])
	}
}

func TestOpenrouterClassifiesStatusCodes(t *testing.T) {
	tests := []struct {
		status int
		kind   llm.Kind
	}{
		{401, llm.KindAuth},
		{403, llm.KindRegion},
		{404, llm.KindNotFound},
		{429, llm.KindQuota},
		{503, llm.KindOverloaded},
		{500, llm.KindResponse},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"error": {"message": "boom"}}`))
		}))
		p := openrouter.New(httpvendor.Config{Model: "m", APIKey: "k", BaseURL: srv.URL})
		_, err := p.Complete(context.Background(), llm.CompletionRequest{
			Messages: []llm.Message{{Role: "user", Content: "hi"}},
		})
		srv.Close()
		if got := llm.KindOf(err); got != tt.kind {
			t.Errorf("status %d: kind = %v, want %v", tt.status, got, tt.kind)
		}
		var perr *llm.Error
		if !errors.As(err, &perr) || perr.Detail != "boom" {
			t.Errorf("status %d: detail not extracted from error body: %v", tt.status, err)
		}
	}
}

func TestGoogleEnvelope(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "今天天氣真好"}], "role": "model"}}],
			"usageMetadata": {"promptTokenCount": 50, "candidatesTokenCount": 7, "totalTokenCount": 57}
		}`))
	}))
	defer srv.Close()

	p := google.New(httpvendor.Config{Model: "gemini-2.5-flash", APIKey: "g-key", BaseURL: srv.URL})
	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		SystemPrompt: "修正錯字",
		Messages: []llm.Message{
			{Role: "user", Content: "今天天器真好"},
			{Role: "assistant", Content: "今天天氣真好"},
			{Role: "user", Content: "再檢查一次"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "今天天氣真好" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage["promptTokenCount"] != 50 {
		t.Errorf("Usage = %v, want vendor field names kept", resp.Usage)
	}
	if gotPath != "/v1beta/models/gemini-2.5-flash:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "g-key" {
		t.Errorf("key query param = %q", gotKey)
	}
	if _, ok := gotBody["system_instruction"]; !ok {
		t.Error("system_instruction missing from request body")
	}
	contents, _ := gotBody["contents"].([]any)
	if len(contents) != 3 {
		t.Fatalf("contents length = %d, want 3", len(contents))
	}
	second, _ := contents[1].(map[string]any)
	if second["role"] != "model" {
		t.Errorf("assistant role = %v, want %q", second["role"], "model")
	}
}

func TestBaiduInBandErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind llm.Kind
	}{
		{"model missing", `{"error_code": 3, "error_msg": "no such model"}`, llm.KindNotFound},
		{"internal", `{"error_code": 336100, "error_msg": "internal"}`, llm.KindOverloaded},
		{"rate limited", `{"error_code": 18, "error_msg": "qps"}`, llm.KindQuota},
		{"unpaid", `{"error_code": 17, "error_msg": "balance"}`, llm.KindQuota},
		{"empty content", `{"choices": [{"message": {"content": ""}}]}`, llm.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			p := baidu.New(httpvendor.Config{Model: "ernie-4.5-turbo", APIKey: "k", BaseURL: srv.URL})
			_, err := p.Complete(context.Background(), llm.CompletionRequest{
				Messages: []llm.Message{{Role: "user", Content: "hi"}},
			})
			if got := llm.KindOf(err); got != tt.kind {
				t.Errorf("kind = %v, want %v (err %v)", got, tt.kind, err)
			}
		})
	}
}

func TestBaiduClampsTemperature(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
	}))
	defer srv.Close()

	p := baidu.New(httpvendor.Config{
		Model:    "ernie-4.5-turbo",
		APIKey:   "k",
		BaseURL:  srv.URL,
		Settings: map[string]any{"temperature": 0.0},
	})
	if _, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if temp, _ := gotBody["temperature"].(float64); temp < 0.0001 {
		t.Errorf("temperature = %v, want clamped to at least 0.0001", gotBody["temperature"])
	}
}

func TestCompleteTransportError(t *testing.T) {
	p := deepseek.New(httpvendor.Config{
		Model:   "deepseek-chat",
		APIKey:  "k",
		BaseURL: "http://127.0.0.1:1/chat/completions",
	})
	_, err := p.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	if !llm.Retryable(err) {
		t.Errorf("connection failure should be retryable, got %v", err)
	}
}

func TestExtractUsageSkipsNestedFields(t *testing.T) {
	raw := []byte(`{"usage": {"prompt_tokens": 10, "completion_tokens": 2,
		"prompt_tokens_details": {"cached_tokens": 0}}}`)
	usage := httpvendor.ExtractUsage(raw)
	if usage["prompt_tokens"] != 10 || usage["completion_tokens"] != 2 {
		t.Errorf("usage = %v", usage)
	}
	if _, ok := usage["prompt_tokens_details"]; ok {
		t.Error("nested detail object should be skipped")
	}
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	reachable := deepseek.New(httpvendor.Config{Model: "m", APIKey: "k", BaseURL: srv.URL + "/chat"})
	if err := httpvendor.Probe(context.Background(), reachable); err != nil {
		t.Errorf("Probe() on live host = %v, want nil", err)
	}

	dead := deepseek.New(httpvendor.Config{Model: "m", APIKey: "k", BaseURL: "http://127.0.0.1:1/chat"})
	if err := httpvendor.Probe(context.Background(), dead); err == nil {
		t.Error("Probe() on dead host = nil, want transport error")
	}
}
