package corrector

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/coseeing/wordbridge/internal/pricing"
	"github.com/coseeing/wordbridge/pkg/provider/llm"
)

// Session accumulates the provider responses of one correction run for
// usage and cost accounting. Safe for concurrent use.
type Session struct {
	model  string
	tables pricing.Tables

	mu        sync.Mutex
	responses []*llm.CompletionResponse
}

// NewSession starts an accounting session for the given model.
func NewSession(model string, tables pricing.Tables) *Session {
	return &Session{model: model, tables: tables}
}

// Record adds a provider response to the session. Nil responses (segments
// that never reached the provider) are ignored.
func (s *Session) Record(resp *llm.CompletionResponse) {
	if resp == nil {
		return
	}
	s.mu.Lock()
	s.responses = append(s.responses, resp)
	s.mu.Unlock()
}

// Responses returns the recorded responses in arrival order.
func (s *Session) Responses() []*llm.CompletionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*llm.CompletionResponse(nil), s.responses...)
}

// TotalUsage sums the priced usage fields across all responses. Models
// without a price table report empty usage, mirroring an unpriceable bill.
func (s *Session) TotalUsage() llm.Usage {
	total := llm.Usage{}
	table, ok := s.tables.Lookup(s.model)
	if !ok || table.UsageKey == "" {
		return total
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, resp := range s.responses {
		for field, count := range resp.Usage {
			if _, priced := table.Prices[field]; priced {
				total[field] += count
			}
		}
	}
	return total
}

// TotalCost prices the session usage in USD.
func (s *Session) TotalCost() decimal.Decimal {
	return s.tables.Cost(s.model, s.TotalUsage())
}
