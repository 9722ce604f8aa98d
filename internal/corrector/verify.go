package corrector

import (
	"github.com/coseeing/wordbridge/internal/hanzi"
	"github.com/coseeing/wordbridge/internal/textdiff"
)

// findCorrectionErrors compares the model's answer against the input and
// rejects every edit that does not sound like what it replaced. It returns
// the revised text with rejected edits rolled back, plus the rune indices
// into that text that still need correcting.
//
// Insertions and deletions are always rolled back: a typo fix never changes
// the character count.
func (e *Engine) findCorrectionErrors(text, corrected string) (string, []int) {
	var revised []rune
	var typoIndices []int

	for _, op := range e.differ.Diff(text, corrected) {
		switch op.Operation {
		case textdiff.OpInsert, textdiff.OpDelete:
			revised = append(revised, []rune(op.Before)...)
			typoIndices = append(typoIndices, max(len(revised)-1, 0))

		case textdiff.OpEqual:
			revised = append(revised, []rune(op.After)...)

		case textdiff.OpReplace:
			if e.differ.SharesPronunciation(op) {
				revised = append(revised, []rune(op.After)...)
			} else {
				start := len(revised)
				revised = append(revised, []rune(op.Before)...)
				for i := start; i < len(revised); i++ {
					typoIndices = append(typoIndices, i)
				}
			}
		}
	}
	return string(revised), typoIndices
}

// reviewCorrectionErrors is the final safety pass: it reverts insertions,
// deletions, and any replacement touching a non-Han character, keeping only
// clean Han-for-Han substitutions.
func (e *Engine) reviewCorrectionErrors(text, corrected string) string {
	var revised []rune
	for _, op := range e.differ.Diff(text, corrected) {
		switch op.Operation {
		case textdiff.OpInsert, textdiff.OpDelete:
			revised = append(revised, []rune(op.Before)...)
		case textdiff.OpEqual:
			revised = append(revised, []rune(op.After)...)
		case textdiff.OpReplace:
			if allHan(op.Before) && allHan(op.After) {
				revised = append(revised, []rune(op.After)...)
			} else {
				revised = append(revised, []rune(op.Before)...)
			}
		}
	}
	return string(revised)
}

// allHan reports whether s is non-empty and entirely Han characters.
func allHan(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !hanzi.IsHan(r) {
			return false
		}
	}
	return true
}
