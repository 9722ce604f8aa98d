package corrector

import (
	"context"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/coseeing/wordbridge/internal/observe"
	"github.com/coseeing/wordbridge/internal/segment"
	"github.com/coseeing/wordbridge/internal/textdiff"
	"github.com/coseeing/wordbridge/pkg/provider/llm"
	"github.com/coseeing/wordbridge/pkg/provider/llm/httpvendor"
)

// Result is the outcome of a full text correction.
type Result struct {
	// CorrectedText is the final text after verification and review.
	CorrectedText string

	// Diff is the classified alignment between input and corrected text.
	Diff []textdiff.Op

	// Usage is the summed priced token usage of the run.
	Usage llm.Usage

	// Cost is the run cost in USD.
	Cost decimal.Decimal

	// Responses holds every raw provider response of the run.
	Responses []*llm.CompletionResponse
}

// CorrectText corrects a whole text. The input is split into segments that
// are corrected concurrently; answers with unverifiable edits are rolled
// back and resubmitted with the suspect characters marked, up to MaxAttempts
// rounds. A final review reverts anything still unjustified, and the result
// carries the classified diff plus the usage bill.
func (e *Engine) CorrectText(ctx context.Context, text string) (*Result, error) {
	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "wordbridge.correct_text")
	defer span.End()
	span.SetAttributes(
		observe.Attr("provider", e.provider.Name()),
		observe.Attr("model", e.opts.Model),
	)

	if err := httpvendor.Probe(ctx, e.provider); err != nil {
		span.RecordError(err)
		return nil, err
	}

	session := NewSession(e.opts.Model, e.opts.Pricing)

	results, err := e.correctBatch(ctx, segment.Split(text, e.opts.SegmentLength), nil)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	for _, r := range results {
		sb.WriteString(r.Corrected)
		session.Record(r.Response)
	}
	corrected := sb.String()

	// Rejected answers per revised segment, attached to resubmissions once
	// the loop has burned through its early attempts.
	var history [][]string

	for round := 0; round < e.opts.MaxAttempts; round++ {
		revised, typoIndices := e.findCorrectionErrors(text, corrected)
		if revised == corrected {
			break
		}
		e.metrics.CorrectionRounds.Add(ctx, 1)
		observe.Logger(ctx).Debug("resubmitting rejected corrections",
			"round", round,
			"typos", len(typoIndices),
		)

		segments := segment.Split(revised, e.opts.ResegmentLength)
		if len(history) != len(segments) {
			history = make([][]string, len(segments))
		}
		marked := segment.MarkFocus(segments, typoIndices)

		attachHistory := float64(round) >= float64(e.opts.MaxAttempts)*e.opts.HistoryAfterFraction
		previous := history
		if !attachHistory {
			previous = make([][]string, len(segments))
		}

		results, err := e.correctBatch(ctx, marked, previous)
		if err != nil {
			return nil, err
		}

		sb.Reset()
		for j := range segments {
			if results[j] != nil && results[j].Corrected != "" {
				answer := results[j].Corrected
				sb.WriteString(answer)
				if !slices.Contains(history[j], answer) &&
					utf8.RuneCountInString(answer) < 2*utf8.RuneCountInString(text) {
					history[j] = append(history[j], answer)
				}
				session.Record(results[j].Response)
			} else {
				sb.WriteString(segments[j])
			}
		}
		corrected = sb.String()
	}

	corrected = e.reviewCorrectionErrors(text, corrected)
	e.metrics.CorrectionDuration.Record(ctx, time.Since(start).Seconds())

	return &Result{
		CorrectedText: corrected,
		Diff:          e.differ.Diff(text, corrected),
		Usage:         session.TotalUsage(),
		Cost:          session.TotalCost(),
		Responses:     session.Responses(),
	}, nil
}
