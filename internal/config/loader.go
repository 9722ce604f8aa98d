package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/coseeing/wordbridge/internal/pricing"
)

// ValidProviderNames lists the provider names with builtin constructors.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = []string{"openai", "anthropic", "google", "deepseek", "openrouter", "baidu"}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	if cfg.Language != "" && !cfg.Language.IsValid() {
		errs = append(errs, fmt.Errorf("language %q is invalid; valid values: zh_traditional, zh_simplified", cfg.Language))
	}

	// Provider
	if cfg.Provider.Name == "" {
		errs = append(errs, errors.New("provider.name is required"))
	} else if !slices.Contains(ValidProviderNames, cfg.Provider.Name) {
		slog.Warn("unknown provider name — may be a typo or third-party provider",
			"name", cfg.Provider.Name,
			"known", ValidProviderNames,
		)
	}
	if cfg.Provider.Model == "" {
		errs = append(errs, errors.New("provider.model is required"))
	}
	if cfg.Provider.ResolveAPIKey() == "" {
		if env, ok := apiKeyEnv[cfg.Provider.Name]; ok {
			slog.Warn("no API key configured; requests will likely be rejected",
				"provider", cfg.Provider.Name,
				"env", env,
			)
		}
	}

	// Correction
	c := cfg.Correction
	if c.Mode != "" && !c.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("correction.mode %q is invalid; valid values: standard, lite", c.Mode))
	}
	if c.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("correction.max_attempts %d must not be negative", c.MaxAttempts))
	}
	if c.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("correction.max_concurrent %d must not be negative", c.MaxConcurrent))
	}
	if c.HistoryAfterFraction < 0 || c.HistoryAfterFraction > 1 {
		errs = append(errs, fmt.Errorf("correction.history_after_fraction %.2f is out of range [0, 1]", c.HistoryAfterFraction))
	}
	if c.ResegmentLength > 0 && c.SegmentLength > 0 && c.ResegmentLength > c.SegmentLength {
		slog.Warn("correction.resegment_length exceeds segment_length; resubmitted segments will be longer than initial ones",
			"resegment_length", c.ResegmentLength,
			"segment_length", c.SegmentLength,
		)
	}

	// Retry
	if cfg.Retry.Attempts < 0 {
		errs = append(errs, fmt.Errorf("retry.attempts %d must not be negative", cfg.Retry.Attempts))
	}
	if cfg.Retry.BackoffCap > 0 && cfg.Retry.Backoff > cfg.Retry.BackoffCap {
		errs = append(errs, fmt.Errorf("retry.backoff %s exceeds retry.backoff_cap %s", cfg.Retry.Backoff.Std(), cfg.Retry.BackoffCap.Std()))
	}

	// Pricing overrides must parse as decimals.
	if _, err := pricing.Parse(cfg.Pricing); err != nil {
		errs = append(errs, err)
	}

	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddr == "" {
		slog.Warn("metrics.enabled is set but metrics.listen_addr is empty; defaulting to :9130")
	}

	return errors.Join(errs...)
}
