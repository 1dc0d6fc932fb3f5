package chunker

import (
	"errors"
	"fmt"

	"longform/internal/classifier"
)

// Chunk is one contiguous piece of the input. Start and End delimit the
// core span in bytes and always satisfy text[Start:End] == Core().
// Text may additionally carry LeadOverlap bytes copied from the previous
// core span and TrailOverlap bytes from the next one. Concatenating all
// core spans in order reproduces the input exactly.
type Chunk struct {
	Index        int             `json:"index"`
	Text         string          `json:"text"`
	Start        int             `json:"start"`
	End          int             `json:"end"`
	Kind         classifier.Kind `json:"kind"`
	LeadOverlap  int             `json:"lead_overlap,omitempty"`
	TrailOverlap int             `json:"trail_overlap,omitempty"`
}

// Core returns the chunk text without its overlap margins.
func (c Chunk) Core() string {
	return c.Text[c.LeadOverlap : len(c.Text)-c.TrailOverlap]
}

var ErrCoverage = errors.New("chunks do not cover input")

// VerifyCoverage checks that the core spans tile the whole text in order
// and that every chunk's Text agrees with its offsets.
func VerifyCoverage(text string, chunks []Chunk) error {
	if len(chunks) == 0 {
		if text == "" {
			return nil
		}
		return fmt.Errorf("%w: no chunks for %d bytes of input", ErrCoverage, len(text))
	}

	pos := 0
	for i, c := range chunks {
		if c.Index != i {
			return fmt.Errorf("%w: chunk %d carries index %d", ErrCoverage, i, c.Index)
		}
		if c.Start != pos {
			return fmt.Errorf("%w: chunk %d starts at %d, want %d", ErrCoverage, i, c.Start, pos)
		}
		if c.End <= c.Start || c.End > len(text) {
			return fmt.Errorf("%w: chunk %d has span [%d,%d)", ErrCoverage, i, c.Start, c.End)
		}
		if c.Start-c.LeadOverlap < 0 || c.End+c.TrailOverlap > len(text) {
			return fmt.Errorf("%w: chunk %d overlap exceeds input bounds", ErrCoverage, i)
		}
		if want := text[c.Start-c.LeadOverlap : c.End+c.TrailOverlap]; c.Text != want {
			return fmt.Errorf("%w: chunk %d text does not match its span", ErrCoverage, i)
		}
		pos = c.End
	}
	if pos != len(text) {
		return fmt.Errorf("%w: chunks end at byte %d, want %d", ErrCoverage, pos, len(text))
	}
	return nil
}
