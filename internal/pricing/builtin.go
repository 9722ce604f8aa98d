package pricing

// builtinTables lists published per-token prices in USD. Free-tier and
// unpriced models are deliberately absent so they cost zero.
var builtinTables = map[string]TableConfig{
	"claude-3-5-haiku-20241022": {
		UsageKey: "usage",
		BaseUnit: "1000000",
		Prices: map[string]string{
			"input_tokens":                "0.8",
			"cache_creation_input_tokens": "1",
			"cache_read_input_tokens":     "0.08",
			"output_tokens":               "4",
		},
	},
	"claude-3-7-sonnet-20250219": {
		UsageKey: "usage",
		BaseUnit: "1000000",
		Prices: map[string]string{
			"input_tokens":                "3",
			"cache_creation_input_tokens": "3.75",
			"cache_read_input_tokens":     "0.3",
			"output_tokens":               "15",
		},
	},
	"claude-sonnet-4-20250514": {
		UsageKey: "usage",
		BaseUnit: "1000000",
		Prices: map[string]string{
			"input_tokens":                "3",
			"cache_creation_input_tokens": "3.75",
			"cache_read_input_tokens":     "0.3",
			"output_tokens":               "15",
		},
	},
	"deepseek-chat": {
		UsageKey: "usage",
		BaseUnit: "1000000",
		Prices: map[string]string{
			"prompt_cache_hit_tokens":  "0.07",
			"prompt_cache_miss_tokens": "0.27",
			"completion_tokens":        "1.1",
		},
	},
	"deepseek-reasoner": {
		UsageKey: "usage",
		BaseUnit: "1000000",
		Prices: map[string]string{
			"prompt_cache_hit_tokens":  "0.14",
			"prompt_cache_miss_tokens": "0.55",
			"completion_tokens":        "2.19",
		},
	},
	"gemini-2.5-flash-preview-05-20": {
		UsageKey: "usageMetadata",
		BaseUnit: "1000000",
		Prices: map[string]string{
			"promptTokenCount":     "0.15",
			"candidatesTokenCount": "0.6",
		},
	},
	"gemini-2.5-pro-preview-06-05": {
		UsageKey: "usageMetadata",
		BaseUnit: "1000000",
		Prices: map[string]string{
			"promptTokenCount":     "1.25",
			"candidatesTokenCount": "10",
		},
	},
	"gpt-4o-2024-08-06": {
		UsageKey: "usage",
		BaseUnit: "1000000",
		Prices: map[string]string{
			"prompt_tokens":     "2.5",
			"completion_tokens": "10",
		},
	},
	"gpt-4o-mini-2024-07-18": {
		UsageKey: "usage",
		BaseUnit: "1000000",
		Prices: map[string]string{
			"prompt_tokens":     "0.15",
			"completion_tokens": "0.6",
		},
	},
	"gpt-4.1-2025-04-14": {
		UsageKey: "usage",
		BaseUnit: "1000000",
		Prices: map[string]string{
			"prompt_tokens":     "2",
			"completion_tokens": "8",
		},
	},
	"gpt-4.1-mini-2025-04-14": {
		UsageKey: "usage",
		BaseUnit: "1000000",
		Prices: map[string]string{
			"prompt_tokens":     "0.4",
			"completion_tokens": "1.6",
		},
	},
	"gpt-4.1-nano-2025-04-14": {
		UsageKey: "usage",
		BaseUnit: "1000000",
		Prices: map[string]string{
			"prompt_tokens":     "0.1",
			"completion_tokens": "0.4",
		},
	},
	"o4-mini-2025-04-16": {
		UsageKey: "usage",
		BaseUnit: "1000000",
		Prices: map[string]string{
			"prompt_tokens":     "1.1",
			"completion_tokens": "4.4",
		},
	},
	"gpt-5": {
		UsageKey: "usage",
		BaseUnit: "1000000",
		Prices: map[string]string{
			"prompt_tokens":     "1.25",
			"completion_tokens": "10",
		},
	},
	"gpt-5-mini": {
		UsageKey: "usage",
		BaseUnit: "1000000",
		Prices: map[string]string{
			"prompt_tokens":     "0.25",
			"completion_tokens": "2",
		},
	},
	"gpt-5-nano": {
		UsageKey: "usage",
		BaseUnit: "1000000",
		Prices: map[string]string{
			"prompt_tokens":     "0.05",
			"completion_tokens": "0.4",
		},
	},
}

// Builtin returns the built-in price tables. The result is a fresh copy the
// caller may merge overrides into.
func Builtin() Tables {
	ts, err := Parse(builtinTables)
	if err != nil {
		// The builtin literals are constants; a parse failure is a programming
		// error caught by the package tests.
		panic("pricing: invalid builtin table: " + err.Error())
	}
	return ts
}
