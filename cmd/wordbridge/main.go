// Command wordbridge corrects Chinese typos in a text by delegating to an
// LLM backend and verifying every edit phonetically.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coseeing/wordbridge/internal/config"
	"github.com/coseeing/wordbridge/internal/corrector"
	"github.com/coseeing/wordbridge/internal/hanzi"
	"github.com/coseeing/wordbridge/internal/observe"
	"github.com/coseeing/wordbridge/internal/pricing"
	"github.com/coseeing/wordbridge/internal/resilience"
	"github.com/coseeing/wordbridge/internal/textdiff"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	inPath := flag.String("in", "-", `input text file ("-" reads stdin)`)
	flag.Parse()

	// .env is optional; explicit environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "wordbridge: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "wordbridge: %v\n", err)
		}
		return 1
	}

	slog.SetDefault(newLogger(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{})
		if err != nil {
			slog.Error("failed to initialise telemetry", "err", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Warn("telemetry shutdown error", "err", err)
			}
		}()
		go serveMetrics(cfg.Metrics.ListenAddr)
	}

	provider, err := config.BuiltinRegistry().Create(cfg.Provider)
	if err != nil {
		slog.Error("failed to build provider", "name", cfg.Provider.Name, "err", err)
		return 1
	}

	tables := pricing.Builtin()
	if len(cfg.Pricing) > 0 {
		overrides, err := pricing.Parse(cfg.Pricing)
		if err != nil {
			slog.Error("invalid pricing overrides", "err", err)
			return 1
		}
		tables.Merge(overrides)
	}

	var engineOpts []corrector.Option
	if cfg.DictionaryCSV != "" {
		dict, err := loadDictionary(cfg.DictionaryCSV)
		if err != nil {
			slog.Error("failed to load pronunciation dictionary", "path", cfg.DictionaryCSV, "err", err)
			return 1
		}
		engineOpts = append(engineOpts, corrector.WithDict(dict))
	}

	engine, err := corrector.New(provider, corrector.Options{
		Language:             string(cfg.Language),
		Mode:                 corrector.Mode(cfg.Correction.Mode),
		Model:                cfg.Provider.Model,
		MaxAttempts:          cfg.Correction.MaxAttempts,
		MaxConcurrent:        cfg.Correction.MaxConcurrent,
		SegmentLength:        cfg.Correction.SegmentLength,
		ResegmentLength:      cfg.Correction.ResegmentLength,
		HistoryAfterFraction: cfg.Correction.HistoryAfterFraction,
		NoExplanation:        cfg.Correction.NoExplanation,
		KeepNonChineseChar:   cfg.Correction.KeepNonChineseChar,
		CustomizedWords:      cfg.Correction.CustomizedWords,
		Pricing:              tables,
		Retry: resilience.Policy{
			Attempts:   cfg.Retry.Attempts,
			Backoff:    cfg.Retry.Backoff.Std(),
			BackoffCap: cfg.Retry.BackoffCap.Std(),
		},
	}, engineOpts...)
	if err != nil {
		slog.Error("failed to build corrector", "err", err)
		return 1
	}

	text, err := readInput(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wordbridge: %v\n", err)
		return 1
	}

	slog.Info("correcting",
		"provider", cfg.Provider.Name,
		"model", cfg.Provider.Model,
		"chars", len([]rune(text)),
	)

	result, err := engine.CorrectText(ctx, text)
	if err != nil {
		slog.Error("correction failed", "err", err)
		return 1
	}

	fmt.Println(result.CorrectedText)
	printReport(os.Stderr, result)
	return 0
}

// loadDictionary builds a pronunciation dictionary extended with the CSV
// file at path.
func loadDictionary(path string) (*hanzi.Dict, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dict := hanzi.NewDict()
	if err := dict.LoadCSV(f); err != nil {
		return nil, err
	}
	return dict, nil
}

// readInput reads the whole input text from path, or stdin when path is "-".
func readInput(path string) (string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// printReport writes the edit list and the usage bill to w.
func printReport(w io.Writer, result *corrector.Result) {
	for _, op := range result.Diff {
		switch op.Operation {
		case textdiff.OpReplace:
			fmt.Fprintf(w, "  %s → %s%s\n", op.Before, op.After, tagNote(op.Tags))
		case textdiff.OpInsert:
			fmt.Fprintf(w, "  + %s\n", op.After)
		case textdiff.OpDelete:
			fmt.Fprintf(w, "  - %s\n", op.Before)
		}
	}
	if len(result.Usage) > 0 {
		fields := make([]string, 0, len(result.Usage))
		for field := range result.Usage {
			fields = append(fields, field)
		}
		slices.Sort(fields)
		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			parts = append(parts, fmt.Sprintf("%s=%d", field, result.Usage[field]))
		}
		fmt.Fprintf(w, "usage: %s\n", strings.Join(parts, " "))
	}
	if result.Cost.IsPositive() {
		fmt.Fprintf(w, "cost: $%s\n", result.Cost.StringFixed(6))
	}
}

// tagNote renders the phonetic classification of a replace, e.g.
// " (shares pronunciation)".
func tagNote(tags []textdiff.Tag) string {
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = string(tag)
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func serveMetrics(addr string) {
	if addr == "" {
		addr = ":9130"
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics server error", "err", err)
	}
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
