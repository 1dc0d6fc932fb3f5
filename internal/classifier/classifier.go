package classifier

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"longform/internal/config"
)

// Kind labels an input text as code or natural-language prose.
type Kind string

const (
	Code  Kind = "code"
	Prose Kind = "prose"
)

// Classifier scores a text with weighted regex votes and compares the
// score against a line-count scaled threshold. All patterns and weights
// come from configuration so the heuristics stay tunable per corpus.
type Classifier struct {
	minScore         float64
	lineRatioDivisor float64
	keywordWeight    float64
	symbolWeight     float64
	lineWeight       float64

	keyword   *regexp.Regexp
	symbol    *regexp.Regexp
	lineStart *regexp.Regexp
	callLike  *regexp.Regexp
	comment   *regexp.Regexp
}

func New(cfg config.TextTypeConfig) (*Classifier, error) {
	c := &Classifier{
		minScore:         cfg.MinScore,
		lineRatioDivisor: cfg.LineRatioDivisor,
		keywordWeight:    cfg.KeywordWeight,
		symbolWeight:     cfg.SymbolWeight,
		lineWeight:       cfg.LineWeight,
	}

	var err error
	if c.keyword, err = regexp.Compile(cfg.KeywordPattern); err != nil {
		return nil, fmt.Errorf("invalid keyword_pattern: %w", err)
	}
	if c.symbol, err = regexp.Compile(cfg.SymbolPattern); err != nil {
		return nil, fmt.Errorf("invalid symbol_pattern: %w", err)
	}
	if c.lineStart, err = regexp.Compile(cfg.LineStartPattern); err != nil {
		return nil, fmt.Errorf("invalid line_start_pattern: %w", err)
	}
	if c.callLike, err = regexp.Compile(cfg.CallLikePattern); err != nil {
		return nil, fmt.Errorf("invalid call_like_pattern: %w", err)
	}
	if c.comment, err = regexp.Compile(cfg.CommentPattern); err != nil {
		return nil, fmt.Errorf("invalid comment_pattern: %w", err)
	}
	return c, nil
}

// Classify returns Code when the weighted score reaches the threshold,
// Prose otherwise. Empty input is Prose.
func (c *Classifier) Classify(text string) Kind {
	score, threshold, ok := c.Score(text)
	if ok && score >= threshold {
		return Code
	}
	return Prose
}

// Score reports the weighted vote and the threshold it is measured
// against. ok is false for input with no lines.
func (c *Classifier) Score(text string) (score, threshold float64, ok bool) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return 0, 0, false
	}

	keywordHits := len(c.keyword.FindAllStringIndex(text, -1))
	symbolHits := len(c.symbol.FindAllStringIndex(text, -1))

	codeLikeLines := 0
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if matchesAtStart(c.lineStart, stripped) {
			codeLikeLines++
		}
		if matchesAtStart(c.callLike, stripped) {
			codeLikeLines++
		}
		if matchesAtStart(c.comment, stripped) {
			codeLikeLines++
		}
	}

	score = float64(keywordHits)*c.keywordWeight +
		float64(symbolHits)*c.symbolWeight +
		float64(codeLikeLines)*c.lineWeight

	divisor := c.lineRatioDivisor
	if divisor < 1 {
		divisor = 1
	}
	threshold = math.Max(c.minScore, math.Floor(float64(len(lines))/divisor))
	return score, threshold, true
}

// matchesAtStart mirrors anchored matching: the leftmost match must begin
// at offset zero.
func matchesAtStart(re *regexp.Regexp, s string) bool {
	loc := re.FindStringIndex(s)
	return loc != nil && loc[0] == 0
}

// splitLines drops the phantom element a trailing newline would add, so
// line counts match what a reader would say.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
