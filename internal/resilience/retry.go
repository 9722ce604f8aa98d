// Package resilience wraps provider calls with retry, jittered backoff, and
// attempt-scaled deadlines.
//
// Only transport failures are retried — an auth or quota failure would fail
// identically on every attempt, so it is surfaced immediately. The
// per-attempt deadline grows with the attempt number according to the
// provider's [llm.TimeoutPolicy], giving a slow-but-alive backend a longer
// second chance without letting the first attempt hang.
package resilience

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/coseeing/wordbridge/pkg/provider/llm"
)

// Policy holds the retry tuning knobs.
type Policy struct {
	// Attempts is the total number of tries, including the first. Default: 2.
	Attempts int

	// Backoff is the initial sleep between attempts. Each retry multiplies
	// the current backoff by a random factor in [1, 2). Default: 1s.
	Backoff time.Duration

	// BackoffCap bounds the grown backoff. Default: 3s.
	BackoffCap time.Duration
}

// withDefaults fills zero fields with the package defaults.
func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 2
	}
	if p.Backoff <= 0 {
		p.Backoff = time.Second
	}
	if p.BackoffCap <= 0 {
		p.BackoffCap = 3 * time.Second
	}
	return p
}

// Complete calls p.Complete under the retry policy. Each attempt runs with
// its own deadline from the provider's timeout policy; transport failures
// back off and retry, everything else returns immediately.
func Complete(ctx context.Context, p llm.Provider, req llm.CompletionRequest, pol Policy) (*llm.CompletionResponse, error) {
	pol = pol.withDefaults()
	timeouts := p.Timeouts()
	backoff := pol.Backoff

	var lastErr error
	for attempt := 1; attempt <= pol.Attempts; attempt++ {
		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if d := timeouts.For(attempt); d > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, d)
		}
		resp, err := p.Complete(attemptCtx, req)
		cancel()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !llm.Retryable(err) || attempt == pol.Attempts {
			break
		}
		if ctx.Err() != nil {
			break
		}

		slog.Error("provider request failed, retrying",
			"provider", p.Name(),
			"attempt", attempt,
			"err", err,
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, &llm.Error{Kind: llm.KindTransport, Provider: p.Name(), Err: ctx.Err()}
		}
		backoff = min(time.Duration(float64(backoff)*(1+rand.Float64())), pol.BackoffCap)
	}
	return nil, lastErr
}
