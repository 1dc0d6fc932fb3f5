package matcher

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"strings"
)

// AstGrep shells out to an ast-grep compatible binary. Each pattern runs
// as its own invocation against a temp file holding the text; the JSON
// output's match ranges (1-based line, 0-based column) are converted to
// byte offsets and unioned.
type AstGrep struct {
	command  string
	language string
	patterns []string
}

func NewAstGrep(command, language string, patterns []string) *AstGrep {
	return &AstGrep{command: command, language: language, patterns: patterns}
}

type astGrepPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type astGrepRange struct {
	Start astGrepPosition `json:"start"`
	End   astGrepPosition `json:"end"`
}

type astGrepMatch struct {
	Range astGrepRange `json:"range"`
}

type astGrepOutput struct {
	Matches []astGrepMatch `json:"matches"`
}

func (m *AstGrep) Match(ctx context.Context, text string) ([]Span, error) {
	offsets := buildLineOffsets(text)

	var spans []Span
	for _, pattern := range m.patterns {
		out, err := m.run(ctx, pattern, text)
		if err != nil {
			return nil, err
		}
		for _, item := range out.Matches {
			start := toOffset(offsets, item.Range.Start, len(text))
			end := toOffset(offsets, item.Range.End, len(text))
			if end > start {
				spans = append(spans, Span{Start: start, End: end})
			}
		}
	}
	return MergeSpans(spans), nil
}

func (m *AstGrep) run(ctx context.Context, pattern, text string) (*astGrepOutput, error) {
	tmp, err := os.CreateTemp("", "longform-*.src")
	if err != nil {
		return nil, &MatchError{Op: "create temp file", Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return nil, &MatchError{Op: "write temp file", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return nil, &MatchError{Op: "write temp file", Err: err}
	}

	cmd := exec.CommandContext(ctx, m.command, "--json", "-p", pattern, "--lang", m.language, tmp.Name())
	stdout, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &MatchError{
				Op:  "run " + m.command,
				Err: errors.New(strings.TrimSpace(string(exitErr.Stderr))),
			}
		}
		return nil, &MatchError{Op: "run " + m.command, Err: err}
	}

	var out astGrepOutput
	if err := json.Unmarshal(stdout, &out); err != nil {
		return nil, &MatchError{Op: "parse " + m.command + " output", Err: err}
	}
	return &out, nil
}

// buildLineOffsets returns the byte offset of each line start.
func buildLineOffsets(text string) []int {
	offsets := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' && i+1 < len(text) {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

func toOffset(offsets []int, pos astGrepPosition, textLen int) int {
	lineIndex := pos.Line - 1
	if lineIndex < 0 {
		lineIndex = 0
	}
	if lineIndex >= len(offsets) {
		return textLen
	}
	off := offsets[lineIndex] + pos.Column
	if off < 0 {
		return 0
	}
	if off > textLen {
		return textLen
	}
	return off
}
