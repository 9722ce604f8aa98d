// Package pricing converts vendor-reported token usage into estimated USD
// cost.
//
// Price tables are keyed by model name. Unit prices are decimal strings so
// that cost arithmetic never accumulates floating-point drift; the BaseUnit
// divisor expresses the published price granularity (typically price per
// million tokens). Usage fields without a table entry are ignored, and a
// model without a table prices to zero rather than erroring.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Table is the price schedule for one model.
type Table struct {
	// UsageKey names the vendor response field the usage substructure lives
	// under (e.g. "usage", "usageMetadata").
	UsageKey string

	// BaseUnit is the divisor the unit prices are quoted against.
	BaseUnit decimal.Decimal

	// Prices maps a usage field name to its unit price in USD.
	Prices map[string]decimal.Decimal
}

// Cost prices the given usage counts against the table. Usage fields with no
// price entry are skipped.
func (t Table) Cost(usage map[string]int64) decimal.Decimal {
	cost := decimal.Zero
	if t.BaseUnit.IsZero() {
		return cost
	}
	for field, count := range usage {
		price, ok := t.Prices[field]
		if !ok {
			continue
		}
		cost = cost.Add(price.Mul(decimal.NewFromInt(count)).Div(t.BaseUnit))
	}
	return cost
}

// Tables maps model names to price schedules.
type Tables map[string]Table

// Lookup returns the table for model.
func (ts Tables) Lookup(model string) (Table, bool) {
	t, ok := ts[model]
	return t, ok
}

// Cost prices usage for model. An unknown model costs zero.
func (ts Tables) Cost(model string, usage map[string]int64) decimal.Decimal {
	t, ok := ts[model]
	if !ok {
		return decimal.Zero
	}
	return t.Cost(usage)
}

// Merge overlays other onto ts, replacing whole tables on model-name
// collisions.
func (ts Tables) Merge(other Tables) {
	for model, t := range other {
		ts[model] = t
	}
}

// TableConfig is the externally supplied (YAML/JSON) form of a price table.
// All prices are decimal strings.
type TableConfig struct {
	UsageKey string            `yaml:"usage_key" json:"usage_key"`
	BaseUnit string            `yaml:"base_unit" json:"base_unit"`
	Prices   map[string]string `yaml:"prices" json:"prices"`
}

// Parse converts externally supplied table configs into Tables, rejecting
// malformed decimal strings.
func Parse(cfgs map[string]TableConfig) (Tables, error) {
	out := make(Tables, len(cfgs))
	for model, cfg := range cfgs {
		base, err := decimal.NewFromString(cfg.BaseUnit)
		if err != nil {
			return nil, fmt.Errorf("pricing: model %q: base_unit %q: %w", model, cfg.BaseUnit, err)
		}
		prices := make(map[string]decimal.Decimal, len(cfg.Prices))
		for field, s := range cfg.Prices {
			p, err := decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("pricing: model %q: price %s=%q: %w", model, field, s, err)
			}
			prices[field] = p
		}
		out[model] = Table{UsageKey: cfg.UsageKey, BaseUnit: base, Prices: prices}
	}
	return out, nil
}
