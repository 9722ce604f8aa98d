// Package segment splits text into bounded units for per-segment correction
// and tags resubmitted segments with inline focus markers.
//
// Splitting is lossless: concatenating the returned segments always
// reproduces the input byte for byte. Separators stay attached to the end of
// the segment they close, so no parallel separator list is needed.
package segment

import (
	"strings"

	"github.com/coseeing/wordbridge/internal/hanzi"
)

// Focus markers wrap characters a resubmitted segment should treat as
// suspect typos.
const (
	FocusOpen  = "[["
	FocusClose = "]]"
)

// Split partitions text into segments of roughly maxLength characters.
// A segment closes at the first separator once it has reached maxLength, or
// is force-cut when a separator-free run reaches maxLength on its own. A
// short tail (at most half of maxLength) merges into the preceding segment
// rather than becoming a fragment the model would see without context.
func Split(text string, maxLength int) []string {
	if text == "" {
		return nil
	}
	if maxLength < 1 {
		maxLength = 1
	}

	var parts []string
	var word []rune
	sinceSep := 0

	for _, r := range text {
		word = append(word, r)
		if hanzi.IsSeparator(r) {
			sinceSep = 0
			if len(word) >= maxLength {
				parts = append(parts, string(word))
				word = word[:0]
			}
			continue
		}
		sinceSep++
		if sinceSep >= maxLength {
			parts = append(parts, string(word))
			word = word[:0]
			sinceSep = 0
		}
	}

	if len(word) == 0 {
		return parts
	}
	if len(parts) == 0 || len(word) > maxLength/2 {
		parts = append(parts, string(word))
	} else {
		parts[len(parts)-1] += string(word)
	}
	return parts
}

// MarkFocus returns a slice parallel to segments in which every segment
// overlapping a typo index has its suspect characters wrapped in focus
// markers, and every clean segment is replaced by the empty string (the
// caller passes clean segments through verbatim at zero cost). Indices are
// rune offsets into the concatenation of segments.
func MarkFocus(segments []string, typoIndices []int) []string {
	flagged := make(map[int]bool, len(typoIndices))
	for _, i := range typoIndices {
		flagged[i] = true
	}

	out := make([]string, len(segments))
	offset := 0
	for k, seg := range segments {
		var b strings.Builder
		hasTypo := false
		for _, r := range seg {
			if flagged[offset] {
				hasTypo = true
				b.WriteString(FocusOpen)
				b.WriteRune(r)
				b.WriteString(FocusClose)
			} else {
				b.WriteRune(r)
			}
			offset++
		}
		if hasTypo {
			out[k] = b.String()
		}
	}
	return out
}
