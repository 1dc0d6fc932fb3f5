// Package check computes quality signals over an assembled output.
package check

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"longform/internal/generator"
)

// Scorer produces a perplexity score for a piece of text.
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// Metrics is the self-check result for one run. Perplexity is nil
// whenever the score could not be obtained.
type Metrics struct {
	OutputLength     int      `json:"output_length"`
	UniqueRatio      float64  `json:"unique_ratio"`
	DuplicationRatio float64  `json:"duplication_ratio"`
	Perplexity       *float64 `json:"perplexity,omitempty"`
}

// Checker computes metrics over assembled output. A nil scorer
// disables the perplexity metric.
type Checker struct {
	scorer Scorer
	logger *zap.Logger
}

// New builds a Checker.
func New(scorer Scorer, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{scorer: scorer, logger: logger}
}

// Check measures the output. The perplexity endpoint being unreachable
// or useless only omits that metric, it never fails the check.
func (c *Checker) Check(ctx context.Context, output string, dup generator.Duplication) Metrics {
	m := Metrics{OutputLength: utf8.RuneCountInString(output)}

	if m.OutputLength > 0 {
		seen := make(map[rune]struct{})
		for _, r := range output {
			seen[r] = struct{}{}
		}
		m.UniqueRatio = float64(len(seen)) / float64(m.OutputLength)
	}

	if dup.AdjacentPairs > 0 {
		m.DuplicationRatio = float64(dup.TrimmedPairs) / float64(dup.AdjacentPairs)
	}

	if c.scorer != nil && output != "" {
		score, err := c.scorer.Score(ctx, output)
		if err != nil {
			c.logger.Warn("perplexity score unavailable", zap.Error(err))
		} else {
			m.Perplexity = &score
		}
	}
	return m
}
