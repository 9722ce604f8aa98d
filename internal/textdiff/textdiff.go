// Package textdiff aligns an original text against its corrected form and
// classifies every substitution phonetically.
//
// Alignment is character-granular for Chinese content, but runs of non-Han,
// non-punctuation characters (Latin words, numbers) are treated as single
// tokens so that an English word never diffs as a pile of letter edits. The
// token sequences are encoded onto private-use runes and aligned with the
// diff-match-patch LCS, then decoded back into [Op] values.
//
// A replace whose sides differ in length is split so that the 1:1 prefix is
// isolated from the leftover insert/delete — phonetic classification only
// applies to one-to-one character substitutions.
package textdiff

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/coseeing/wordbridge/internal/hanzi"
)

// Operation names one kind of alignment edit.
type Operation string

const (
	OpEqual   Operation = "equal"
	OpInsert  Operation = "insert"
	OpDelete  Operation = "delete"
	OpReplace Operation = "replace"
)

// Tag describes the relationship between the two sides of a replace.
type Tag string

const (
	// TagSharedPronunciation marks a substitution whose characters share at
	// least one tone-stripped reading — the signature of a homophone typo fix.
	TagSharedPronunciation Tag = "shares pronunciation"

	// TagNoSharedPronunciation marks a substitution with no common reading,
	// the strongest hint that the model hallucinated rather than corrected.
	TagNoSharedPronunciation Tag = "no shared pronunciation"

	// TagSimplifiedToTraditional marks a Simplified→Traditional rewrite of the
	// same word.
	TagSimplifiedToTraditional Tag = "simplified to traditional"

	// TagTraditionalToSimplified marks the opposite rewrite.
	TagTraditionalToSimplified Tag = "traditional to simplified"

	// TagNonHan marks a replace involving non-Chinese tokens, which phonetic
	// classification does not apply to.
	TagNonHan Tag = "non-chinese replacement"
)

// Op is one alignment operation between the original and corrected text.
// Tags is populated only for replace operations.
type Op struct {
	Operation Operation
	Before    string
	After     string
	Tags      []Tag
}

// Differ computes classified diffs. It is read-only after construction and
// safe for concurrent use.
type Differ struct {
	dict *hanzi.Dict
	dmp  *diffmatchpatch.DiffMatchPatch
}

// NewDiffer returns a Differ that classifies substitutions against dict.
func NewDiffer(dict *hanzi.Dict) *Differ {
	return &Differ{dict: dict, dmp: diffmatchpatch.New()}
}

// Diff aligns before and after and returns the ordered operation list.
// Diff(s, s) yields a single equal operation spanning all of s.
func (d *Differ) Diff(before, after string) []Op {
	if before == after {
		if before == "" {
			return nil
		}
		return []Op{{Operation: OpEqual, Before: before, After: after}}
	}

	enc := newTokenEncoder()
	encBefore := enc.encode(tokenize(before))
	encAfter := enc.encode(tokenize(after))

	diffs := d.dmp.DiffMainRunes(encBefore, encAfter, false)

	var ops []Op
	for i := 0; i < len(diffs); i++ {
		switch diffs[i].Type {
		case diffmatchpatch.DiffEqual:
			text := enc.decode([]rune(diffs[i].Text))
			ops = append(ops, Op{Operation: OpEqual, Before: text, After: text})

		case diffmatchpatch.DiffDelete:
			del := enc.decodeTokens([]rune(diffs[i].Text))
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				ins := enc.decodeTokens([]rune(diffs[i+1].Text))
				ops = append(ops, d.replaceOps(del, ins)...)
				i++
			} else {
				ops = append(ops, Op{Operation: OpDelete, Before: join(del)})
			}

		case diffmatchpatch.DiffInsert:
			// An insert not preceded by a delete (diff-match-patch emits
			// deletions first, so this is a pure insertion).
			ins := enc.decodeTokens([]rune(diffs[i].Text))
			ops = append(ops, Op{Operation: OpInsert, After: join(ins)})
		}
	}
	return ops
}

// replaceOps turns a paired deletion/insertion into per-token replace
// operations for the 1:1 prefix plus a trailing insert or delete for the
// leftover tokens.
func (d *Differ) replaceOps(del, ins []string) []Op {
	n := min(len(del), len(ins))
	ops := make([]Op, 0, n+1)
	for i := 0; i < n; i++ {
		ops = append(ops, Op{
			Operation: OpReplace,
			Before:    del[i],
			After:     ins[i],
			Tags:      d.classify(del[i], ins[i]),
		})
	}
	if len(del) > n {
		ops = append(ops, Op{Operation: OpDelete, Before: join(del[n:])})
	} else if len(ins) > n {
		ops = append(ops, Op{Operation: OpInsert, After: join(ins[n:])})
	}
	return ops
}

// classify tags a single-token substitution.
func (d *Differ) classify(before, after string) []Tag {
	br := []rune(before)
	ar := []rune(after)
	if len(br) != 1 || len(ar) != 1 || !hanzi.IsHan(br[0]) || !hanzi.IsHan(ar[0]) {
		return []Tag{TagNonHan}
	}

	var tags []Tag
	if hanzi.IsScriptVariant(br[0], ar[0]) {
		if hanzi.ToTraditional(before) == after {
			tags = append(tags, TagSimplifiedToTraditional)
		} else {
			tags = append(tags, TagTraditionalToSimplified)
		}
	}
	if d.dict.SharesPronunciation(br[0], ar[0]) {
		tags = append(tags, TagSharedPronunciation)
	} else {
		tags = append(tags, TagNoSharedPronunciation)
	}
	return tags
}

// SharesPronunciation reports whether every aligned character pair of a
// replace op shares a reading. Non-1:1 or non-Han ops report false.
func (d *Differ) SharesPronunciation(op Op) bool {
	if op.Operation != OpReplace {
		return false
	}
	br := []rune(op.Before)
	ar := []rune(op.After)
	if len(br) != len(ar) {
		return false
	}
	for i := range br {
		if !d.dict.SharesPronunciation(br[i], ar[i]) {
			return false
		}
	}
	return true
}

// tokenize splits text into diff tokens: every Han character and every
// punctuation character is its own token, while runs of anything else group
// into a single token.
func tokenize(text string) []string {
	var tokens []string
	var run []rune
	for _, r := range text {
		if hanzi.IsHan(r) || hanzi.IsPunctuation(r) {
			if len(run) > 0 {
				tokens = append(tokens, string(run))
				run = run[:0]
			}
			tokens = append(tokens, string(r))
			continue
		}
		run = append(run, r)
	}
	if len(run) > 0 {
		tokens = append(tokens, string(run))
	}
	return tokens
}

// tokenEncoder maps distinct tokens onto private-use runes so that the rune
// diff operates on token identity rather than raw characters.
type tokenEncoder struct {
	toRune   map[string]rune
	toToken  map[rune]string
	nextRune rune
}

func newTokenEncoder() *tokenEncoder {
	return &tokenEncoder{
		toRune:   make(map[string]rune),
		toToken:  make(map[rune]string),
		nextRune: 0x100000, // supplementary private use area B
	}
}

func (e *tokenEncoder) encode(tokens []string) []rune {
	out := make([]rune, len(tokens))
	for i, tok := range tokens {
		r, ok := e.toRune[tok]
		if !ok {
			r = e.nextRune
			e.nextRune++
			e.toRune[tok] = r
			e.toToken[r] = tok
		}
		out[i] = r
	}
	return out
}

func (e *tokenEncoder) decodeTokens(rs []rune) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = e.toToken[r]
	}
	return out
}

func (e *tokenEncoder) decode(rs []rune) string {
	return join(e.decodeTokens(rs))
}

func join(tokens []string) string {
	total := 0
	for _, t := range tokens {
		total += len(t)
	}
	b := make([]byte, 0, total)
	for _, t := range tokens {
		b = append(b, t...)
	}
	return string(b)
}
