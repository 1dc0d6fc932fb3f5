package matcher

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
)

// TreeSitter matches structural spans in-process with a tree-sitter
// grammar. Patterns are tree-sitter queries; every capture's byte range
// becomes a span.
type TreeSitter struct {
	lang    *sitter.Language
	queries []*sitter.Query
}

func NewTreeSitter(language string, patterns []string) (*TreeSitter, error) {
	lang, err := languageFor(language)
	if err != nil {
		return nil, err
	}

	queries := make([]*sitter.Query, 0, len(patterns))
	for _, pattern := range patterns {
		q, err := sitter.NewQuery([]byte(pattern), lang)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		queries = append(queries, q)
	}
	return &TreeSitter{lang: lang, queries: queries}, nil
}

func languageFor(name string) (*sitter.Language, error) {
	switch name {
	case "go", "golang":
		return golang.GetLanguage(), nil
	case "javascript", "js":
		return javascript.GetLanguage(), nil
	case "python", "py":
		return python.GetLanguage(), nil
	}
	return nil, fmt.Errorf("unsupported language: %s", name)
}

func (m *TreeSitter) Match(ctx context.Context, text string) ([]Span, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(m.lang)

	source := []byte(text)
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, &MatchError{Op: "parse", Err: err}
	}

	var spans []Span
	for _, q := range m.queries {
		qc := sitter.NewQueryCursor()
		qc.Exec(q, tree.RootNode())
		for {
			match, ok := qc.NextMatch()
			if !ok {
				break
			}
			for _, c := range match.Captures {
				start, end := int(c.Node.StartByte()), int(c.Node.EndByte())
				if end > start {
					spans = append(spans, Span{Start: start, End: end})
				}
			}
		}
	}
	return MergeSpans(spans), nil
}
