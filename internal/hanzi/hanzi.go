// Package hanzi provides the Chinese-text primitives that the correction
// pipeline is built on: Han character detection, separator and punctuation
// classification, pinyin lookup, and Traditional/Simplified script handling.
//
// Pinyin readings are produced by unioning an embedded heteronym dictionary
// with the readings computed by the go-pinyin data tables, so gaps in either
// source do not cause false "no shared pronunciation" verdicts. All lookups
// are read-only after construction and safe for concurrent use.
package hanzi

import (
	"strings"

	"github.com/siongui/gojianfan"
)

// Separators are the characters a text may be segmented at. Corrected
// segments are also trimmed against this set when the model invents or drops
// boundary punctuation.
const Separators = "﹐，,.。﹒．｡!ǃⵑ︕！;;︔﹔；?︖﹖？⋯ "

// Punctuation is the wider set treated as non-content when tokenising text
// for diffing. It is a superset of Separators.
const Punctuation = "﹐，,.。﹒．｡:։׃∶˸︓﹕：!ǃⵑ︕！;;︔﹔；?︖﹖？⋯ \n\r\t\"'#$%&()*+-/<=>@[\\]^_`{|}~"

// hanIntervals lists the Unicode ranges counted as Han characters, including
// the CJK extensions and the Bopomofo blocks.
var hanIntervals = [][2]rune{
	{0x4e00, 0x9fff},
	{0x3400, 0x4dbf},
	{0x20000, 0x2a6df},
	{0x2a700, 0x2b739},
	{0x2b740, 0x2b81d},
	{0x2b820, 0x2cea1},
	{0x2ceb0, 0x2ebe0},
	{0x30000, 0x3134a},
	{0x31350, 0x323af},
	{0x3100, 0x312f},
	{0x31a0, 0x31bf},
	{0xf900, 0xfaff},
	{0x2f800, 0x2fa1f},
}

// IsHan reports whether r is a Chinese character.
func IsHan(r rune) bool {
	for _, iv := range hanIntervals {
		if r >= iv[0] && r <= iv[1] {
			return true
		}
	}
	return false
}

// ContainsHan reports whether s contains at least one Chinese character.
func ContainsHan(s string) bool {
	for _, r := range s {
		if IsHan(r) {
			return true
		}
	}
	return false
}

// IsSeparator reports whether r is a segmentation separator.
func IsSeparator(r rune) bool {
	return strings.ContainsRune(Separators, r)
}

// IsPunctuation reports whether r belongs to the punctuation set.
func IsPunctuation(r rune) bool {
	return strings.ContainsRune(Punctuation, r)
}

// ToTraditional converts every Simplified character in s to its Traditional
// form. Characters without a mapping pass through unchanged.
func ToTraditional(s string) string {
	return gojianfan.S2T(s)
}

// ToSimplified converts every Traditional character in s to its Simplified
// form.
func ToSimplified(s string) string {
	return gojianfan.T2S(s)
}

// HasSimplified reports whether s contains at least one Simplified-specific
// character, detected by whether a Simplified→Traditional conversion would
// change the string.
func HasSimplified(s string) bool {
	return gojianfan.S2T(s) != s
}

// HasTraditional reports whether s contains at least one Traditional-specific
// character.
func HasTraditional(s string) bool {
	return gojianfan.T2S(s) != s
}

// IsScriptVariant reports whether a and b are the same word written in the
// two Chinese scripts (e.g. 气/氣).
func IsScriptVariant(a, b rune) bool {
	if a == b {
		return false
	}
	as, bs := string(a), string(b)
	return gojianfan.S2T(as) == bs || gojianfan.T2S(as) == bs
}
