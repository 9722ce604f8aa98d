package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/coseeing/wordbridge/internal/config"
)

func TestLoadFromReader_FullConfig(t *testing.T) {
	t.Parallel()
	yaml := `
log_level: debug
language: zh_traditional
dictionary_csv: pronunciations.csv
provider:
  name: openai
  api_key: sk-test
  model: gpt-4o
  options:
    temperature: 0.2
correction:
  mode: standard
  max_attempts: 5
  customized_words:
    - 電腦
retry:
  attempts: 3
  backoff: 500ms
  backoff_cap: 2s
pricing:
  my-model:
    usage_key: usage
    base_unit: "1000000"
    prices:
      prompt_tokens: "2.5"
metrics:
  enabled: true
  listen_addr: ":9130"
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Provider.Model != "gpt-4o" {
		t.Errorf("provider.model = %q, want gpt-4o", cfg.Provider.Model)
	}
	if cfg.DictionaryCSV != "pronunciations.csv" {
		t.Errorf("dictionary_csv = %q, want pronunciations.csv", cfg.DictionaryCSV)
	}
	if cfg.Correction.MaxAttempts != 5 {
		t.Errorf("correction.max_attempts = %d, want 5", cfg.Correction.MaxAttempts)
	}
	if got := cfg.Retry.Backoff.Std(); got != 500*time.Millisecond {
		t.Errorf("retry.backoff = %s, want 500ms", got)
	}
	if _, ok := cfg.Pricing["my-model"]; !ok {
		t.Error("pricing override for my-model missing")
	}
}

func TestLoadFromReader_RejectsUnknownFields(t *testing.T) {
	t.Parallel()
	yaml := `
provider:
  name: openai
  model: gpt-4o
segmnet_length: 10
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for unknown top-level field, got nil")
	}
}

func TestValidate_RequiresProviderNameAndModel(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("log_level: info\n"))
	if err == nil {
		t.Fatal("expected error for missing provider, got nil")
	}
	if !strings.Contains(err.Error(), "provider.name is required") {
		t.Errorf("error should mention provider.name, got: %v", err)
	}
	if !strings.Contains(err.Error(), "provider.model is required") {
		t.Errorf("error should mention provider.model, got: %v", err)
	}
}

func TestValidate_InvalidEnums(t *testing.T) {
	t.Parallel()
	yaml := `
log_level: verbose
language: klingon
provider:
  name: openai
  model: gpt-4o
correction:
  mode: turbo
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid enum values, got nil")
	}
	for _, want := range []string{"log_level", "language", "correction.mode"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestValidate_BackoffExceedsCap(t *testing.T) {
	t.Parallel()
	yaml := `
provider:
  name: openai
  model: gpt-4o
retry:
  backoff: 5s
  backoff_cap: 1s
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for backoff exceeding cap, got nil")
	}
	if !strings.Contains(err.Error(), "backoff_cap") {
		t.Errorf("error should mention backoff_cap, got: %v", err)
	}
}

func TestValidate_MalformedPricingDecimal(t *testing.T) {
	t.Parallel()
	yaml := `
provider:
  name: openai
  model: gpt-4o
pricing:
  my-model:
    usage_key: usage
    base_unit: not-a-number
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for malformed base_unit, got nil")
	}
	if !strings.Contains(err.Error(), "base_unit") {
		t.Errorf("error should mention base_unit, got: %v", err)
	}
}

func TestValidate_OutOfRangeFraction(t *testing.T) {
	t.Parallel()
	yaml := `
provider:
  name: openai
  model: gpt-4o
correction:
  history_after_fraction: 1.5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for out-of-range fraction, got nil")
	}
	if !strings.Contains(err.Error(), "history_after_fraction") {
		t.Errorf("error should mention history_after_fraction, got: %v", err)
	}
}

func TestResolveAPIKey_EnvFallback(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-from-env")

	entry := config.ProviderEntry{Name: "deepseek", Model: "deepseek-chat"}
	if got := entry.ResolveAPIKey(); got != "sk-from-env" {
		t.Errorf("ResolveAPIKey = %q, want sk-from-env", got)
	}

	entry.APIKey = "sk-explicit"
	if got := entry.ResolveAPIKey(); got != "sk-explicit" {
		t.Errorf("ResolveAPIKey = %q, want the explicit key to win", got)
	}
}
