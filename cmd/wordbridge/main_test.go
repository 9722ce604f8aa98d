package main

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/coseeing/wordbridge/internal/corrector"
	"github.com/coseeing/wordbridge/internal/textdiff"
	"github.com/coseeing/wordbridge/pkg/provider/llm"
)

func TestLoadDictionary(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "dict.csv")
	csv := "traditional,simplified,pinyin\n氣,气,qi4/xyz4\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	dict, err := loadDictionary(path)
	if err != nil {
		t.Fatalf("loadDictionary: %v", err)
	}
	for _, r := range []rune{'氣', '气'} {
		if !slices.Contains(dict.Pronunciations(r), "xyz4") {
			t.Errorf("Pronunciations(%c) = %v, want the CSV reading xyz4 merged in", r, dict.Pronunciations(r))
		}
	}
}

func TestLoadDictionary_MissingFile(t *testing.T) {
	t.Parallel()
	if _, err := loadDictionary(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("expected error for missing dictionary file, got nil")
	}
}

func TestPrintReport_AnnotatesReplaces(t *testing.T) {
	t.Parallel()
	result := &corrector.Result{
		CorrectedText: "天氣真好",
		Diff: []textdiff.Op{
			{Operation: textdiff.OpEqual, Before: "天", After: "天"},
			{Operation: textdiff.OpReplace, Before: "器", After: "氣", Tags: []textdiff.Tag{textdiff.TagSharedPronunciation}},
			{Operation: textdiff.OpInsert, After: "真"},
			{Operation: textdiff.OpDelete, Before: "好"},
		},
		Usage: llm.Usage{"completion_tokens": 10, "prompt_tokens": 100},
		Cost:  decimal.Zero,
	}

	var sb strings.Builder
	printReport(&sb, result)
	out := sb.String()

	if !strings.Contains(out, "器 → 氣 (shares pronunciation)") {
		t.Errorf("report should annotate the replace with its tag, got:\n%s", out)
	}
	if !strings.Contains(out, "+ 真") || !strings.Contains(out, "- 好") {
		t.Errorf("report should list inserts and deletes, got:\n%s", out)
	}
	if !strings.Contains(out, "usage: completion_tokens=10 prompt_tokens=100") {
		t.Errorf("report should list usage fields in order, got:\n%s", out)
	}
	if strings.Contains(out, "cost:") {
		t.Errorf("zero cost should not be reported, got:\n%s", out)
	}
}
