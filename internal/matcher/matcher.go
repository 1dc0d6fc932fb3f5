package matcher

import (
	"context"
	"fmt"
	"sort"
)

// Span is a half-open byte range [Start, End) into the matched text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Matcher reports the structural spans of a source text. Implementations
// wrap an external tool or an embedded parser; callers treat a failure as
// "no structure found" and fall back to plain chunking.
type Matcher interface {
	Match(ctx context.Context, text string) ([]Span, error)
}

// MatchError wraps any matcher failure: missing binary, non-zero exit,
// unparseable output, invalid query.
type MatchError struct {
	Op  string
	Err error
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("matcher: %s: %v", e.Op, e.Err)
}

func (e *MatchError) Unwrap() error { return e.Err }

// MergeSpans sorts spans by start and unions overlapping or touching
// ranges, so the result is ordered and disjoint.
func MergeSpans(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := sorted[:1]
	for _, s := range sorted[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
