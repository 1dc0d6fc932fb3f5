package planner

import (
	"strings"
	"unicode"

	"longform/internal/chunker"
)

// Entry is one planned part of the output in source order, carrying a
// short summary of its chunk for prompting.
type Entry struct {
	Index        int    `json:"index"`
	Summary      string `json:"summary"`
	ChunkIndices []int  `json:"chunk_indices"`
}

// Build maps chunks 1:1 onto plan entries, preserving order.
func Build(chunks []chunker.Chunk, summaryChars int) []Entry {
	entries := make([]Entry, 0, len(chunks))
	for _, c := range chunks {
		entries = append(entries, Entry{
			Index:        len(entries),
			Summary:      Summarize(c.Text, summaryChars),
			ChunkIndices: []int{c.Index},
		})
	}
	return entries
}

// Summarize truncates text to at most maxChars runes. The cut snaps back
// to the last whitespace inside the window when one exists, so words stay
// whole; text without whitespace is cut hard.
func Summarize(text string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	cut := maxChars
	if !unicode.IsSpace(runes[cut]) && !unicode.IsSpace(runes[cut-1]) {
		for i := cut - 1; i > 0; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
	}
	return strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace)
}
