// Package corrector implements LLM-delegated Chinese typo correction.
//
// The [Engine] splits input text into segments, asks an [llm.Provider] to
// rewrite each segment with homophone typos fixed, and then verifies the
// answers: an edit is only accepted when the replacement sounds like the
// original. Rejected edits are resubmitted with the suspect characters
// marked, up to a bounded number of rounds, before a final review pass
// reverts anything the model changed that no correction could justify.
//
// Segments are corrected concurrently against a single provider; the
// resilience layer handles retry and per-attempt deadlines.
package corrector

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/coseeing/wordbridge/internal/hanzi"
	"github.com/coseeing/wordbridge/internal/observe"
	"github.com/coseeing/wordbridge/internal/pricing"
	"github.com/coseeing/wordbridge/internal/prompt"
	"github.com/coseeing/wordbridge/internal/resilience"
	"github.com/coseeing/wordbridge/internal/segment"
	"github.com/coseeing/wordbridge/internal/textdiff"
	"github.com/coseeing/wordbridge/internal/wordlist"
	"github.com/coseeing/wordbridge/pkg/provider/llm"
)

// Mode selects the prompt strategy.
type Mode string

const (
	// ModeStandard annotates each question with pinyin and speaks the input
	// as a quoted utterance, which anchors the model to the sounds.
	ModeStandard Mode = "standard"

	// ModeLite sends the bare text, trading some accuracy for fewer tokens.
	ModeLite Mode = "lite"
)

// Options configures an [Engine]. Zero fields take the documented defaults.
type Options struct {
	// Language is "zh_traditional" or "zh_simplified".
	Language string

	// Mode selects the prompt strategy. Default: [ModeStandard].
	Mode Mode

	// Model is the vendor model identifier, used for usage accounting.
	Model string

	// MaxAttempts bounds the self-correction loop. Default: 3.
	MaxAttempts int

	// MaxConcurrent caps in-flight segment corrections. Default: 20.
	MaxConcurrent int

	// SegmentLength is the maximum initial segment length in runes.
	// Default: 100.
	SegmentLength int

	// ResegmentLength is the maximum segment length when resubmitting
	// rejected text. Shorter segments focus the model. Default: 20.
	ResegmentLength int

	// HistoryAfterFraction is the fraction of MaxAttempts after which
	// rejected answers are attached to resubmissions, so the model stops
	// repeating them. Default: 1/3.
	HistoryAfterFraction float64

	// NoExplanation appends guidance telling the model to answer with the
	// corrected text only.
	NoExplanation bool

	// KeepNonChineseChar appends guidance to leave non-Chinese characters
	// untouched when the input contains any.
	KeepNonChineseChar bool

	// CustomizedWords is user vocabulary the prompt steers toward when a
	// matching-sounding window appears in the input.
	CustomizedWords []string

	// Pricing prices the session usage. Default: the builtin tables.
	Pricing pricing.Tables

	// Retry is the provider retry policy.
	Retry resilience.Policy
}

// withDefaults fills zero fields with the package defaults.
func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeStandard
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 20
	}
	if o.SegmentLength <= 0 {
		o.SegmentLength = 100
	}
	if o.ResegmentLength <= 0 {
		o.ResegmentLength = 20
	}
	if o.HistoryAfterFraction <= 0 {
		o.HistoryAfterFraction = 1.0 / 3
	}
	if o.Pricing == nil {
		o.Pricing = pricing.Builtin()
	}
	return o
}

// Option is a functional option for [New].
type Option func(*Engine)

// WithTemplates replaces the builtin prompt templates.
func WithTemplates(set prompt.Set) Option {
	return func(e *Engine) { e.templates = set }
}

// WithMetrics replaces the default metrics instance, e.g. in tests.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithDict replaces the builtin pronunciation dictionary.
func WithDict(d *hanzi.Dict) Option {
	return func(e *Engine) { e.dict = d }
}

// Engine corrects Chinese text through an [llm.Provider]. It is safe for
// concurrent use.
type Engine struct {
	provider  llm.Provider
	opts      Options
	dict      *hanzi.Dict
	templates prompt.Set
	template  *prompt.Template
	differ    *textdiff.Differ
	words     *wordlist.Matcher
	metrics   *observe.Metrics

	// prefix is the spoken-utterance wrapper prepended before the provider
	// call and stripped from the answer.
	prefix string
}

// New builds an Engine for the given provider and options.
func New(provider llm.Provider, opts Options, fns ...Option) (*Engine, error) {
	opts = opts.withDefaults()

	e := &Engine{
		provider: provider,
		opts:     opts,
		dict:     hanzi.NewDict(),
		metrics:  observe.DefaultMetrics(),
	}
	for _, fn := range fns {
		fn(e)
	}

	if e.templates == nil {
		set, err := prompt.Builtin(string(opts.Mode))
		if err != nil {
			return nil, fmt.Errorf("corrector: %w", err)
		}
		e.templates = set
	}
	tmpl, err := e.templates.ForLanguage(opts.Language)
	if err != nil {
		return nil, fmt.Errorf("corrector: %w", err)
	}
	e.template = tmpl

	if opts.Mode == ModeStandard {
		switch opts.Language {
		case "zh_traditional":
			e.prefix = "我說"
		case "zh_simplified":
			e.prefix = "我说"
		}
	}

	e.differ = textdiff.NewDiffer(e.dict)
	e.words = wordlist.New(e.dict, opts.CustomizedWords)
	return e, nil
}

// SegmentResult is the outcome of correcting one segment.
type SegmentResult struct {
	// Original is the segment as submitted, focus markers included.
	Original string

	// Corrected is the postprocessed answer.
	Corrected string

	// Response is the raw provider response. Nil when the segment was
	// passed through without a provider call.
	Response *llm.CompletionResponse
}

// CorrectSegment corrects one segment. previous holds answers already
// rejected for this segment; each is attached to the conversation with a
// re-ask comment. Segments without any Han character pass through untouched.
func (e *Engine) CorrectSegment(ctx context.Context, text string, previous []string) (*SegmentResult, error) {
	if !hanzi.ContainsHan(text) {
		return &SegmentResult{Original: text, Corrected: text}, nil
	}

	focus := strings.Contains(text, segment.FocusOpen) && strings.Contains(text, segment.FocusClose)
	system := e.systemPrompt(text, focus)

	spoken := e.prefix + text
	var phone string
	if e.opts.Mode == ModeStandard {
		phone = e.dict.Transliterate(spoken)
		if focus {
			// The transliteration treats the markers as literal tokens;
			// reattach them to the reading they wrap.
			phone = strings.ReplaceAll(phone, segment.FocusOpen+" ", segment.FocusOpen)
			phone = strings.ReplaceAll(phone, " "+segment.FocusClose, segment.FocusClose)
			phone = strings.ReplaceAll(phone, segment.FocusClose+segment.FocusOpen, segment.FocusClose+" "+segment.FocusOpen)
		}
	}

	messages := make([]llm.Message, 0, len(e.template.Message)+2*len(previous))
	for _, m := range e.template.Render(focus, spoken, phone) {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	for _, rejected := range previous {
		answer := e.prefix + rejected
		messages = append(messages,
			llm.Message{Role: "assistant", Content: answer},
			llm.Message{Role: "user", Content: e.template.RenderComment(answer)},
		)
	}

	start := time.Now()
	ctx, span := observe.StartSpan(ctx, "wordbridge.provider.complete")
	defer span.End()
	span.SetAttributes(observe.Attr("provider", e.provider.Name()))

	resp, err := resilience.Complete(ctx, e.provider, llm.CompletionRequest{
		SystemPrompt: system,
		Messages:     messages,
	}, e.opts.Retry)
	if err != nil {
		span.RecordError(err)
		e.metrics.RecordProviderRequest(ctx, e.provider.Name(), "error", time.Since(start).Seconds())
		e.metrics.RecordProviderError(ctx, e.provider.Name(), llm.KindOf(err).String())
		return nil, err
	}
	e.metrics.RecordProviderRequest(ctx, e.provider.Name(), "ok", time.Since(start).Seconds())
	e.metrics.SegmentsCorrected.Add(ctx, 1)
	e.metrics.RecordTokens(ctx, e.provider.Name(), resp.Usage)

	content := e.normalizeScript(resp.Content)
	return &SegmentResult{
		Original:  text,
		Corrected: e.postprocess(content, text),
		Response:  resp,
	}, nil
}

// systemPrompt assembles the system prompt with the enabled guidance and any
// word-list candidates attached.
func (e *Engine) systemPrompt(text string, focus bool) string {
	system := e.template.SystemFor(focus)

	if candidates := e.words.Candidates(text); len(candidates) > 0 {
		if g, ok := e.template.Guidance("customized_words"); ok {
			system = system + "\n" + g + strings.Join(candidates, "、")
		}
	}

	var guidance []string
	if e.opts.NoExplanation {
		if g, ok := e.template.Guidance("no_explanation"); ok {
			guidance = append(guidance, g)
		}
	}
	if e.opts.KeepNonChineseChar && containsNonChinese(text) {
		if g, ok := e.template.Guidance("keep_non_chinese_char"); ok {
			guidance = append(guidance, g)
		}
	}
	if len(guidance) > 0 {
		system = system + "\n須注意: " + strings.Join(guidance, "、")
	}
	return system
}

// normalizeScript converts the answer back into the configured script when
// the model slipped into the other one.
func (e *Engine) normalizeScript(text string) string {
	switch e.opts.Language {
	case "zh_traditional":
		if hanzi.HasSimplified(text) {
			return hanzi.ToTraditional(text)
		}
	case "zh_simplified":
		if hanzi.HasTraditional(text) {
			return hanzi.ToSimplified(text)
		}
	}
	return text
}

// postprocess aligns the model answer back onto the input segment: trailing
// and leading punctuation the model invented is dropped, punctuation it
// swallowed is restored, and the spoken prefix is stripped.
func (e *Engine) postprocess(text, input string) string {
	tmp := []rune(e.prefix + input)
	out := []rune(text)
	if len(tmp) == 0 {
		return text
	}

	isSep := func(r rune) bool { return hanzi.IsSeparator(r) }

	for len(out) > 0 && !isSep(tmp[len(tmp)-1]) && isSep(out[len(out)-1]) {
		out = out[:len(out)-1]
	}

	if len(out) > 0 && !isSep(out[len(out)-1]) && isSep(tmp[len(tmp)-1]) {
		for i := 1; i < len(tmp); i++ {
			if !isSep(tmp[len(tmp)-1-i]) {
				out = append(out, tmp[len(tmp)-i:]...)
				break
			}
		}
	}

	for len(out) > 0 && !isSep(tmp[0]) && isSep(out[0]) {
		out = out[1:]
	}

	if p := utf8.RuneCountInString(e.prefix); len(out) >= p {
		out = out[p:]
	}
	return string(out)
}

// containsNonChinese reports whether text has a character that is neither
// Han nor punctuation.
func containsNonChinese(text string) bool {
	for _, r := range text {
		if !hanzi.IsHan(r) && !hanzi.IsPunctuation(r) {
			return true
		}
	}
	return false
}
