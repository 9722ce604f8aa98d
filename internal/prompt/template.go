// Package prompt loads and renders the per-language correction prompt
// templates.
//
// Templates are JSON documents keyed by language code. Each template carries
// a system prompt, a few-shot message list, a focus-marker variant used when
// a resubmitted segment flags suspect characters, a re-ask comment attached
// when a previous answer was rejected, and optional guidance snippets.
// Placeholders use {{name}} markers and are validated at load time, so a
// typo in a template is a startup error rather than a silent no-op.
package prompt

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Placeholder names recognised in template content.
const (
	PlaceholderText     = "{{text_input}}"
	PlaceholderPhone    = "{{phone_input}}"
	PlaceholderPrevious = "{{response_previous}}"
)

//go:embed templates/*.json
var builtinFS embed.FS

// Message is one templated conversation message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Template is the prompt material for one language.
type Template struct {
	// System is the base system prompt.
	System string `json:"system"`

	// SystemTag is the system prompt variant for focus-marked segments.
	SystemTag string `json:"system_tag"`

	// Message is the few-shot message list ending in the templated question.
	Message []Message `json:"message"`

	// MessageTag is the few-shot list for focus-marked segments.
	MessageTag []Message `json:"message_tag"`

	// Comment is the re-ask template appended after a rejected answer.
	Comment string `json:"comment"`

	// OptionalGuidance holds named guidance snippets appended to the system
	// prompt when the matching option is enabled.
	OptionalGuidance map[string]string `json:"optional_guidance"`
}

// Set maps a language code (e.g. "zh_traditional") to its template.
type Set map[string]*Template

// Builtin loads one of the embedded template sets: "standard" (pinyin
// annotated) or "lite" (text only).
func Builtin(name string) (Set, error) {
	f, err := builtinFS.Open("templates/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("prompt: unknown builtin template %q", name)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a template set from r.
func Load(r io.Reader) (Set, error) {
	var set Set
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&set); err != nil {
		return nil, fmt.Errorf("prompt: decode templates: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// ForLanguage returns the template for lang.
func (s Set) ForLanguage(lang string) (*Template, error) {
	t, ok := s[lang]
	if !ok {
		return nil, fmt.Errorf("prompt: no template for language %q", lang)
	}
	return t, nil
}

var placeholderPattern = regexp.MustCompile(`\{\{[a-z_]+\}\}`)

// Validate checks that every template names only known placeholders and that
// the required ones are present.
func (s Set) Validate() error {
	var errs []error
	known := map[string]bool{
		PlaceholderText:     true,
		PlaceholderPhone:    true,
		PlaceholderPrevious: true,
	}

	for lang, t := range s {
		if t == nil {
			errs = append(errs, fmt.Errorf("prompt: %s: template is null", lang))
			continue
		}
		if len(t.Message) == 0 {
			errs = append(errs, fmt.Errorf("prompt: %s: message list is empty", lang))
		}
		for _, field := range []struct {
			name     string
			messages []Message
		}{
			{"message", t.Message},
			{"message_tag", t.MessageTag},
		} {
			sawText := false
			for _, m := range field.messages {
				for _, ph := range placeholderPattern.FindAllString(m.Content, -1) {
					if !known[ph] {
						errs = append(errs, fmt.Errorf("prompt: %s: %s: unknown placeholder %s", lang, field.name, ph))
					}
				}
				if strings.Contains(m.Content, PlaceholderText) {
					sawText = true
				}
			}
			if len(field.messages) > 0 && !sawText {
				errs = append(errs, fmt.Errorf("prompt: %s: %s: missing %s placeholder", lang, field.name, PlaceholderText))
			}
		}
		if t.Comment != "" && !strings.Contains(t.Comment, PlaceholderPrevious) {
			errs = append(errs, fmt.Errorf("prompt: %s: comment: missing %s placeholder", lang, PlaceholderPrevious))
		}
	}
	return errors.Join(errs...)
}

// Render substitutes text and phone into the few-shot message list. The tag
// variant is used when focus is true and the template provides one.
func (t *Template) Render(focus bool, text, phone string) []Message {
	src := t.Message
	if focus && len(t.MessageTag) > 0 {
		src = t.MessageTag
	}
	out := make([]Message, len(src))
	for i, m := range src {
		content := strings.ReplaceAll(m.Content, PlaceholderText, text)
		content = strings.ReplaceAll(content, PlaceholderPhone, phone)
		out[i] = Message{Role: m.Role, Content: content}
	}
	return out
}

// SystemFor returns the system prompt, choosing the focus variant when
// requested and available.
func (t *Template) SystemFor(focus bool) string {
	if focus && t.SystemTag != "" {
		return t.SystemTag
	}
	return t.System
}

// RenderComment substitutes a previously rejected answer into the re-ask
// comment.
func (t *Template) RenderComment(previous string) string {
	return strings.ReplaceAll(t.Comment, PlaceholderPrevious, previous)
}

// Guidance returns the named optional guidance snippet.
func (t *Template) Guidance(name string) (string, bool) {
	g, ok := t.OptionalGuidance[name]
	return g, ok
}
