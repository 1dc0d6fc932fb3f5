package chunker

import (
	"sort"
	"unicode/utf8"

	"longform/internal/classifier"
)

// span is a half-open byte range into the input.
type span struct {
	start, end int
}

// Fallback cuts text into chunks of at most maxChars runes each. Within
// every window it prefers to cut right after the last boundary rune; when
// the window holds none it cuts at exactly maxChars runes. The result
// tiles the input, so it never loses a byte and never fails for non-empty
// input.
func Fallback(text string, maxChars int, boundary string, kind classifier.Kind) []Chunk {
	return buildChunks(text, fallbackSpans(text, 0, maxChars, boundarySet(boundary)), kind)
}

func boundarySet(boundary string) map[rune]bool {
	set := make(map[rune]bool, len(boundary))
	for _, r := range boundary {
		set[r] = true
	}
	return set
}

// fallbackSpans produces the core spans for text, shifted by base bytes so
// substrings of a larger input keep absolute offsets.
func fallbackSpans(text string, base, maxChars int, boundary map[rune]bool) []span {
	if text == "" || maxChars <= 0 {
		return nil
	}

	runes := []rune(text)
	offs := make([]int, len(runes)+1)
	b := 0
	for i, r := range runes {
		offs[i] = b
		b += utf8.RuneLen(r)
	}
	offs[len(runes)] = b

	var spans []span
	pos := 0
	for pos < len(runes) {
		end := pos + maxChars
		if end >= len(runes) {
			end = len(runes)
		} else {
			cut := -1
			for i := end - 1; i >= pos; i-- {
				if boundary[runes[i]] {
					cut = i + 1
					break
				}
			}
			if cut > pos {
				end = cut
			}
		}
		spans = append(spans, span{base + offs[pos], base + offs[end]})
		pos = end
	}
	return spans
}

// subdivideSpans re-cuts any span longer than maxChars runes with the
// fallback rules, leaving the rest untouched.
func subdivideSpans(text string, spans []span, maxChars int, boundary map[rune]bool) []span {
	out := make([]span, 0, len(spans))
	for _, s := range spans {
		piece := text[s.start:s.end]
		if utf8.RuneCountInString(piece) <= maxChars {
			out = append(out, s)
			continue
		}
		out = append(out, fallbackSpans(piece, s.start, maxChars, boundary)...)
	}
	return out
}

// partitionAt splits [0, textLen) at the given byte offsets. Offsets at or
// beyond the bounds and duplicates are ignored.
func partitionAt(textLen int, cuts []int) []span {
	if textLen == 0 {
		return nil
	}

	uniq := make([]int, 0, len(cuts))
	for _, c := range cuts {
		if c > 0 && c < textLen {
			uniq = append(uniq, c)
		}
	}
	sort.Ints(uniq)

	var spans []span
	prev := 0
	for _, c := range uniq {
		if c == prev {
			continue
		}
		spans = append(spans, span{prev, c})
		prev = c
	}
	spans = append(spans, span{prev, textLen})
	return spans
}

func buildChunks(text string, spans []span, kind classifier.Kind) []Chunk {
	chunks := make([]Chunk, 0, len(spans))
	for i, s := range spans {
		chunks = append(chunks, Chunk{
			Index: i,
			Text:  text[s.start:s.end],
			Start: s.start,
			End:   s.end,
			Kind:  kind,
		})
	}
	return chunks
}
