package hanzi

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/mozillazg/go-pinyin"
)

// Dict resolves the pinyin readings of Chinese characters. Readings come from
// the go-pinyin data tables unioned with an extra heteronym table, which can
// be extended from a CSV pronunciation dictionary via [Dict.LoadCSV].
//
// Readings use tone-number style ("qi4"). Neutral-tone markers are dropped.
// A Dict is read-only after loading and safe for concurrent use.
type Dict struct {
	extra map[rune][]string
	args  pinyin.Args
}

// extraReadings covers heteronyms and characters that are sparsely represented
// in the computed tables. Loading a full dictionary via LoadCSV supersedes
// the need for most of these, but the seed keeps classification sound without
// any external data file.
var extraReadings = map[rune][]string{
	'器': {"qi4"},
	'氣': {"qi4"},
	'气': {"qi4"},
	'完': {"wan2"},
	'玩': {"wan2", "wan4"},
	'說': {"shuo1", "shui4"},
	'说': {"shuo1", "shui4"},
	'好': {"hao3", "hao4"},
	'行': {"xing2", "hang2"},
	'得': {"de2", "de", "dei3"},
	'的': {"de", "di2", "di4"},
	'了': {"le", "liao3"},
	'地': {"di4", "de"},
	'長': {"chang2", "zhang3"},
	'长': {"chang2", "zhang3"},
	'重': {"zhong4", "chong2"},
	'樂': {"le4", "yue4"},
	'乐': {"le4", "yue4"},
	'還': {"hai2", "huan2"},
	'还': {"hai2", "huan2"},
	'會': {"hui4", "kuai4"},
	'会': {"hui4", "kuai4"},
}

// NewDict returns a Dict seeded with the built-in heteronym table.
func NewDict() *Dict {
	args := pinyin.NewArgs()
	args.Style = pinyin.Tone3
	args.Heteronym = true

	extra := make(map[rune][]string, len(extraReadings))
	for r, ps := range extraReadings {
		extra[r] = append([]string(nil), ps...)
	}
	return &Dict{extra: extra, args: args}
}

// LoadCSV merges a pronunciation dictionary into d. Each record carries a
// Traditional character, its Simplified counterpart, and slash-separated
// tone-number readings; a header row is skipped. Both script forms receive
// every listed reading.
func (d *Dict) LoadCSV(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return fmt.Errorf("hanzi: read dictionary csv: %w", err)
	}
	for i, row := range rows {
		if i == 0 || len(row) < 3 {
			continue
		}
		readings := strings.Split(strings.ReplaceAll(row[2], "5", ""), "/")
		for _, cell := range row[:2] {
			for _, ch := range cell {
				d.merge(ch, readings)
				break
			}
		}
	}
	return nil
}

func (d *Dict) merge(r rune, readings []string) {
	have := make(map[string]bool, len(d.extra[r]))
	for _, p := range d.extra[r] {
		have[p] = true
	}
	for _, p := range readings {
		p = strings.TrimSpace(p)
		if p != "" && !have[p] {
			d.extra[r] = append(d.extra[r], p)
			have[p] = true
		}
	}
}

// Pronunciations returns every known reading of r, in tone-number style. For
// a non-Han rune it returns the rune itself, so identical non-Han characters
// compare as "sharing a pronunciation" and differing ones do not.
func (d *Dict) Pronunciations(r rune) []string {
	if !IsHan(r) {
		return []string{string(r)}
	}
	seen := make(map[string]bool, 4)
	var out []string
	for _, p := range d.extra[r] {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range pinyin.SinglePinyin(r, d.args) {
		if p != "" && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// StripTone removes the tone-number suffix from a reading ("qi4" → "qi").
func StripTone(p string) string {
	return strings.TrimRight(p, "12345")
}

// SharesPronunciation reports whether a and b have at least one common
// reading, ignoring tones.
func (d *Dict) SharesPronunciation(a, b rune) bool {
	pa := d.Pronunciations(a)
	pb := d.Pronunciations(b)
	for _, x := range pa {
		for _, y := range pb {
			if StripTone(x) == StripTone(y) {
				return true
			}
		}
	}
	return false
}

// Transliterate renders text as space-joined tone-number pinyin. Han
// characters contribute their primary reading; runs of non-Han characters
// pass through as single literal tokens.
func (d *Dict) Transliterate(text string) string {
	var tokens []string
	var literal []rune
	flush := func() {
		if len(literal) > 0 {
			tokens = append(tokens, string(literal))
			literal = literal[:0]
		}
	}
	for _, r := range text {
		if !IsHan(r) {
			literal = append(literal, r)
			continue
		}
		flush()
		if ps := d.Pronunciations(r); len(ps) > 0 {
			tokens = append(tokens, ps[0])
		} else {
			tokens = append(tokens, string(r))
		}
	}
	flush()
	return strings.Join(tokens, " ")
}
