// Package wordlist matches user-supplied vocabulary against input text by
// pronunciation, so the correction prompt can steer the model toward the
// words the user actually uses.
//
// A word is a candidate when some window of the input sounds like it: every
// character of the word must share a reading (tones included) with the
// aligned input character. A fuzzy pass on tone-stripped pinyin catches
// near misses that the exact pass rejects.
package wordlist

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/coseeing/wordbridge/internal/hanzi"
)

// fuzzyThreshold is the minimum Jaro-Winkler similarity between the
// tone-stripped readings of a word and an input window for the fuzzy pass.
const fuzzyThreshold = 0.85

// Matcher finds word-list candidates in input text.
type Matcher struct {
	dict  *hanzi.Dict
	words []string
}

// New builds a Matcher over the given vocabulary.
func New(dict *hanzi.Dict, words []string) *Matcher {
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			kept = append(kept, w)
		}
	}
	return &Matcher{dict: dict, words: kept}
}

// Words returns the full vocabulary.
func (m *Matcher) Words() []string { return m.words }

// Candidates returns, in vocabulary order, the words that sound like some
// window of text. Each word appears at most once.
func (m *Matcher) Candidates(text string) []string {
	runes := []rune(text)
	var candidates []string
	for _, word := range m.words {
		wr := []rune(word)
		if len(wr) > len(runes) || len(wr) == 0 {
			continue
		}
		if m.matchExact(runes, wr) || m.matchFuzzy(runes, wr) {
			candidates = append(candidates, word)
		}
	}
	return candidates
}

// matchExact slides word over text looking for a window where every aligned
// character pair shares a full reading.
func (m *Matcher) matchExact(text, word []rune) bool {
	for i := 0; i+len(word) <= len(text); i++ {
		ok := true
		for j := range word {
			if !sharesReading(m.dict.Pronunciations(word[j]), m.dict.Pronunciations(text[i+j])) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// matchFuzzy compares tone-stripped window readings by Jaro-Winkler
// similarity, catching words whose tones the input got wrong.
func (m *Matcher) matchFuzzy(text, word []rune) bool {
	want := m.tonelessReading(word)
	if want == "" {
		return false
	}
	for i := 0; i+len(word) <= len(text); i++ {
		got := m.tonelessReading(text[i : i+len(word)])
		if got == "" {
			continue
		}
		if matchr.JaroWinkler(want, got, false) >= fuzzyThreshold {
			return true
		}
	}
	return false
}

// tonelessReading joins the first tone-stripped reading of each rune.
func (m *Matcher) tonelessReading(runes []rune) string {
	parts := make([]string, 0, len(runes))
	for _, r := range runes {
		prons := m.dict.Pronunciations(r)
		if len(prons) == 0 {
			return ""
		}
		parts = append(parts, hanzi.StripTone(prons[0]))
	}
	return strings.Join(parts, " ")
}

// sharesReading reports whether the two reading sets intersect.
func sharesReading(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
