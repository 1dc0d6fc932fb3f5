package chunker

import "unicode/utf8"

// ExpandOverlap widens every chunk's Text with up to overlap runes of
// context from its neighbours' core spans: the tail of the previous chunk
// in front, the head of the next chunk behind. Core spans are untouched,
// so coverage still holds; the margins are recorded as byte widths in
// LeadOverlap and TrailOverlap.
func ExpandOverlap(text string, chunks []Chunk, overlap int) []Chunk {
	if overlap <= 0 || len(chunks) < 2 {
		return chunks
	}

	out := make([]Chunk, len(chunks))
	for i, c := range chunks {
		lead, trail := 0, 0
		if i > 0 {
			prev := chunks[i-1]
			lead = tailWidth(text[prev.Start:prev.End], overlap)
		}
		if i < len(chunks)-1 {
			next := chunks[i+1]
			trail = headWidth(text[next.Start:next.End], overlap)
		}
		c.Text = text[c.Start-lead : c.End+trail]
		c.LeadOverlap = lead
		c.TrailOverlap = trail
		out[i] = c
	}
	return out
}

// tailWidth is the byte width of the last n runes of s.
func tailWidth(s string, n int) int {
	width := 0
	for i := 0; i < n && width < len(s); i++ {
		_, size := utf8.DecodeLastRuneInString(s[:len(s)-width])
		width += size
	}
	return width
}

// headWidth is the byte width of the first n runes of s.
func headWidth(s string, n int) int {
	width := 0
	for i := 0; i < n && width < len(s); i++ {
		_, size := utf8.DecodeRuneInString(s[width:])
		width += size
	}
	return width
}
