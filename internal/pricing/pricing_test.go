package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/coseeing/wordbridge/internal/pricing"
)

func TestBuiltinParses(t *testing.T) {
	ts := pricing.Builtin()
	if _, ok := ts.Lookup("gpt-4o-mini-2024-07-18"); !ok {
		t.Error("builtin tables missing gpt-4o-mini-2024-07-18")
	}
}

func TestCost(t *testing.T) {
	ts := pricing.Builtin()
	// 1M prompt tokens at 0.15 + 1M completion tokens at 0.6 = 0.75 USD.
	usage := map[string]int64{
		"prompt_tokens":     1_000_000,
		"completion_tokens": 1_000_000,
	}
	got := ts.Cost("gpt-4o-mini-2024-07-18", usage)
	want := decimal.RequireFromString("0.75")
	if !got.Equal(want) {
		t.Errorf("Cost = %s, want %s", got, want)
	}
}

func TestCostIgnoresUnknownUsageFields(t *testing.T) {
	ts := pricing.Builtin()
	usage := map[string]int64{
		"prompt_tokens": 1_000_000,
		"total_tokens":  2_000_000, // not priced
	}
	got := ts.Cost("gpt-4o-mini-2024-07-18", usage)
	want := decimal.RequireFromString("0.15")
	if !got.Equal(want) {
		t.Errorf("Cost = %s, want %s", got, want)
	}
}

func TestCostUnknownModelIsZero(t *testing.T) {
	ts := pricing.Builtin()
	got := ts.Cost("some-free-model", map[string]int64{"prompt_tokens": 5_000})
	if !got.IsZero() {
		t.Errorf("Cost for unknown model = %s, want 0", got)
	}
}

func TestCostAdditivity(t *testing.T) {
	ts := pricing.Builtin()
	u1 := map[string]int64{"prompt_tokens": 123_457, "completion_tokens": 7_919}
	u2 := map[string]int64{"prompt_tokens": 86_243, "completion_tokens": 13_337}
	sum := map[string]int64{
		"prompt_tokens":     u1["prompt_tokens"] + u2["prompt_tokens"],
		"completion_tokens": u1["completion_tokens"] + u2["completion_tokens"],
	}

	model := "gpt-4o-2024-08-06"
	separate := ts.Cost(model, u1).Add(ts.Cost(model, u2))
	combined := ts.Cost(model, sum)
	if !separate.Equal(combined) {
		t.Errorf("cost not additive: %s + %s != %s", ts.Cost(model, u1), ts.Cost(model, u2), combined)
	}
}

func TestParseRejectsBadDecimal(t *testing.T) {
	_, err := pricing.Parse(map[string]pricing.TableConfig{
		"m": {UsageKey: "usage", BaseUnit: "not-a-number", Prices: map[string]string{"prompt_tokens": "1"}},
	})
	if err == nil {
		t.Error("Parse should reject a malformed base_unit")
	}

	_, err = pricing.Parse(map[string]pricing.TableConfig{
		"m": {UsageKey: "usage", BaseUnit: "1000000", Prices: map[string]string{"prompt_tokens": "1.2.3"}},
	})
	if err == nil {
		t.Error("Parse should reject a malformed price")
	}
}

func TestMergeOverridesTables(t *testing.T) {
	ts := pricing.Builtin()
	override, err := pricing.Parse(map[string]pricing.TableConfig{
		"gpt-5-nano": {
			UsageKey: "usage",
			BaseUnit: "1000000",
			Prices:   map[string]string{"prompt_tokens": "0.99"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	ts.Merge(override)

	got := ts.Cost("gpt-5-nano", map[string]int64{"prompt_tokens": 1_000_000})
	if !got.Equal(decimal.RequireFromString("0.99")) {
		t.Errorf("merged cost = %s, want 0.99", got)
	}
}
