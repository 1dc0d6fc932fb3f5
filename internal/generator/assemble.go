package generator

import (
	"fmt"
	"strings"
)

// Duplication summarizes the overlap trimming performed during assembly.
// AdjacentPairs counts every neighbouring result pair, TrimmedPairs the
// subset where a non-empty common region was removed.
type Duplication struct {
	TrimmedPairs  int `json:"trimmed_pairs"`
	AdjacentPairs int `json:"adjacent_pairs"`
}

// Assemble joins the entry results in plan order. A failed entry
// contributes an explicit gap marker so the output structure stays
// attributable to the plan. Between two consecutive successful entries
// the longest shared suffix/prefix region, bounded by the configured
// trim width, is removed from the later entry before joining.
func (g *Generator) Assemble(results []EntryResult) (string, Duplication) {
	var dup Duplication
	if len(results) > 1 {
		dup.AdjacentPairs = len(results) - 1
	}

	parts := make([]string, 0, len(results))
	prevOK := false
	prevText := ""
	for _, res := range results {
		if res.State != StateSuccess {
			parts = append(parts, fmt.Sprintf("[generation failed for part %d]", res.PlanIndex+1))
			prevOK = false
			prevText = ""
			continue
		}
		text := res.Text
		if prevOK {
			if cut := overlapWidth(prevText, text, g.trimChars); cut > 0 {
				text = text[cut:]
				dup.TrimmedPairs++
			}
		}
		parts = append(parts, text)
		prevOK = true
		prevText = text
	}
	return strings.Join(parts, "\n\n"), dup
}

// overlapWidth returns the byte width of the longest prefix of b, at
// most maxRunes runes long, that equals a suffix of a. Zero means no
// shared region.
func overlapWidth(a, b string, maxRunes int) int {
	if maxRunes <= 0 {
		return 0
	}
	ar := []rune(a)
	br := []rune(b)
	limit := maxRunes
	if len(ar) < limit {
		limit = len(ar)
	}
	if len(br) < limit {
		limit = len(br)
	}
	for l := limit; l > 0; l-- {
		prefix := string(br[:l])
		if strings.HasSuffix(a, prefix) {
			return len(prefix)
		}
	}
	return 0
}
