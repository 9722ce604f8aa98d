// Package config provides the configuration schema, loader, and provider
// registry for the WordBridge correction service.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coseeing/wordbridge/internal/pricing"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Language selects the Chinese script the corrector normalises to.
type Language string

const (
	LanguageTraditional Language = "zh_traditional"
	LanguageSimplified  Language = "zh_simplified"
)

// IsValid reports whether lang is a recognised language.
func (lang Language) IsValid() bool {
	return lang == LanguageTraditional || lang == LanguageSimplified
}

// CorrectionMode selects the prompt strategy.
type CorrectionMode string

const (
	// ModeStandard sends the text together with its phonetic annotation.
	ModeStandard CorrectionMode = "standard"

	// ModeLite sends the bare text, trading some accuracy for fewer tokens.
	ModeLite CorrectionMode = "lite"
)

// IsValid reports whether m is a recognised correction mode.
func (m CorrectionMode) IsValid() bool {
	return m == ModeStandard || m == ModeLite
}

// Duration is a [time.Duration] that decodes from YAML strings such as
// "500ms" or "2s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a standard [time.Duration].
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration structure for WordBridge.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	// LogLevel controls verbosity. Default: info.
	LogLevel LogLevel `yaml:"log_level"`

	// Language selects the Chinese script to normalise corrections to.
	Language Language `yaml:"language"`

	// DictionaryCSV is the path to an optional pronunciation dictionary
	// that extends the builtin readings. Each record carries a Traditional
	// character, its Simplified counterpart, and slash-separated
	// tone-number readings.
	DictionaryCSV string `yaml:"dictionary_csv"`

	Provider   ProviderEntry    `yaml:"provider"`
	Correction CorrectionConfig `yaml:"correction"`
	Retry      RetryConfig      `yaml:"retry"`

	// Pricing overrides or extends the builtin per-model price tables.
	// Keys are model names; prices are decimal strings.
	Pricing map[string]pricing.TableConfig `yaml:"pricing"`

	Metrics MetricsConfig `yaml:"metrics"`
}

// ProviderEntry configures the LLM backend the corrector delegates to.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation
	// (e.g., "openai", "anthropic", "google").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API. When empty,
	// the provider's conventional environment variable is consulted
	// (see [ProviderEntry.ResolveAPIKey]).
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o").
	Model string `yaml:"model"`

	// Options holds provider-specific sampling settings passed through to
	// the request body (e.g., temperature, top_p).
	Options map[string]any `yaml:"options"`
}

// apiKeyEnv maps provider names to the environment variable conventionally
// holding their API key.
var apiKeyEnv = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"google":     "GEMINI_API_KEY",
	"deepseek":   "DEEPSEEK_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"baidu":      "BAIDU_API_KEY",
}

// ResolveAPIKey returns the configured APIKey, falling back to the
// provider's conventional environment variable when the field is empty.
func (e ProviderEntry) ResolveAPIKey() string {
	if e.APIKey != "" {
		return e.APIKey
	}
	if env, ok := apiKeyEnv[e.Name]; ok {
		return os.Getenv(env)
	}
	return ""
}

// CorrectionConfig tunes the self-correction loop.
// Zero fields take the corrector's documented defaults.
type CorrectionConfig struct {
	// Mode selects the prompt strategy. Default: standard.
	Mode CorrectionMode `yaml:"mode"`

	// MaxAttempts bounds the self-correction loop. Default: 3.
	MaxAttempts int `yaml:"max_attempts"`

	// MaxConcurrent caps in-flight segment corrections. Default: 20.
	MaxConcurrent int `yaml:"max_concurrent"`

	// SegmentLength is the maximum initial segment length in runes.
	// Default: 100.
	SegmentLength int `yaml:"segment_length"`

	// ResegmentLength is the maximum segment length when resubmitting
	// rejected text. Default: 20.
	ResegmentLength int `yaml:"resegment_length"`

	// HistoryAfterFraction is the fraction of MaxAttempts after which
	// rejected answers are attached to resubmissions. Default: 1/3.
	HistoryAfterFraction float64 `yaml:"history_after_fraction"`

	// NoExplanation tells the model to answer with the corrected text only.
	NoExplanation bool `yaml:"no_explanation"`

	// KeepNonChineseChar tells the model to leave non-Chinese characters
	// untouched when the input contains any.
	KeepNonChineseChar bool `yaml:"keep_non_chinese_char"`

	// CustomizedWords is user vocabulary the prompt steers toward when a
	// matching-sounding window appears in the input.
	CustomizedWords []string `yaml:"customized_words"`
}

// RetryConfig tunes retries for transient provider failures.
type RetryConfig struct {
	// Attempts is the total number of tries, including the first. Default: 2.
	Attempts int `yaml:"attempts"`

	// Backoff is the initial sleep between attempts. Default: 1s.
	Backoff Duration `yaml:"backoff"`

	// BackoffCap bounds the jittered backoff growth. Default: 3s.
	BackoffCap Duration `yaml:"backoff_cap"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled starts an HTTP listener exposing /metrics.
	Enabled bool `yaml:"enabled"`

	// ListenAddr is the TCP address of the metrics listener
	// (e.g., ":9130"). Used only when Enabled is true.
	ListenAddr string `yaml:"listen_addr"`
}
