package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"longform/internal/config"
	"longform/internal/generator"
	"longform/internal/llm"
	"longform/internal/matcher"
)

func testConfig() *config.Config {
	return &config.Config{
		MaxChunkChars:   80,
		OverlapChars:    8,
		BoundaryChars:   "。！？.!?",
		SummaryChars:    40,
		EnableSelfCheck: true,
		Workers:         2,
		TextType: config.TextTypeConfig{
			MinScore:         3,
			LineRatioDivisor: 4,
			KeywordWeight:    1,
			SymbolWeight:     0.5,
			LineWeight:       1,
			KeywordPattern:   `\b(func|def|class|return|import|var|const)\b`,
			SymbolPattern:    `[{}();=<>]`,
			LineStartPattern: `^\s*(func|def|class|if|for|while)\b`,
			CallLikePattern:  `\w+\(`,
			CommentPattern:   `^(//|/\*)`,
		},
	}
}

type completerFunc func(ctx context.Context, prompt string) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type fakeScorer struct{ score float64 }

func (f fakeScorer) Score(_ context.Context, _ string) (float64, error) {
	return f.score, nil
}

type failingMatcher struct{ calls int }

func (m *failingMatcher) Match(_ context.Context, _ string) ([]matcher.Span, error) {
	m.calls++
	return nil, &matcher.MatchError{Op: "run sg", Err: errors.New("executable not found")}
}

const proseSample = "Alpha beta gamma.\n\nDelta epsilon zeta."

func TestRunPlaceholderEndToEnd(t *testing.T) {
	a, err := New(context.Background(), testConfig())
	require.NoError(t, err)

	d, err := a.RunWithDiagnostics(context.Background(), "expand these notes", proseSample)
	require.NoError(t, err)

	assert.Equal(t, 2, d.Stats.ChunkCount)
	assert.NotEmpty(t, d.Stats.RunID)
	assert.Contains(t, d.Output, "[Part 1]")
	assert.Contains(t, d.Output, "[Part 2]")
	assert.Contains(t, d.Output, "Instruction: expand these notes")

	require.Len(t, d.Plan, 2)
	require.Len(t, d.Results, 2)
	for _, res := range d.Results {
		assert.Equal(t, generator.StateSuccess, res.State)
		assert.Equal(t, "placeholder", res.Backend)
	}

	require.NotNil(t, d.Metrics)
	assert.Equal(t, d.Stats.OutputLength, d.Metrics.OutputLength)
	assert.Nil(t, d.Metrics.Perplexity)
	assert.Nil(t, d.Loss)
}

func TestRunEmptyContext(t *testing.T) {
	a, err := New(context.Background(), testConfig())
	require.NoError(t, err)

	d, err := a.RunWithDiagnostics(context.Background(), "expand", "   \n ")
	require.NoError(t, err)

	assert.Equal(t, "", d.Output)
	assert.Equal(t, 0, d.Stats.ChunkCount)
	assert.Empty(t, d.Plan)
	assert.Empty(t, d.Results)
	require.NotNil(t, d.Metrics)
	assert.Equal(t, 0, d.Metrics.OutputLength)
}

func TestRunBlankInstruction(t *testing.T) {
	a, err := New(context.Background(), testConfig())
	require.NoError(t, err)

	_, err = a.RunWithDiagnostics(context.Background(), "  ", proseSample)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instruction")
}

func TestRunMatcherFailureFallsBack(t *testing.T) {
	fm := &failingMatcher{}
	a, err := New(context.Background(), testConfig(), WithMatcher(fm))
	require.NoError(t, err)

	codeSample := "func alpha() {\n\treturn\n}\n\nfunc beta() {\n\treturn\n}\n"
	d, err := a.RunWithDiagnostics(context.Background(), "document this", codeSample)
	require.NoError(t, err)

	assert.Equal(t, 1, fm.calls)
	assert.GreaterOrEqual(t, d.Stats.ChunkCount, 1)
	for _, res := range d.Results {
		assert.Equal(t, generator.StateSuccess, res.State)
	}
}

func TestRunFailedEntriesSurface(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.MaxRetries = 0
	broken := completerFunc(func(_ context.Context, _ string) (string, error) {
		return "", &llm.TransportError{URL: "http://api.test", Err: errors.New("connection refused")}
	})

	a, err := New(context.Background(), cfg, WithCompleter(broken))
	require.NoError(t, err)

	d, err := a.RunWithDiagnostics(context.Background(), "expand", proseSample)
	require.NoError(t, err)

	require.Len(t, d.Results, 2)
	for i, res := range d.Results {
		assert.Equal(t, generator.StateFailed, res.State)
		assert.Equal(t, "api", res.Backend)
		assert.Contains(t, res.Err, "connection refused")
		assert.Equal(t, i, res.PlanIndex)
	}
	assert.Contains(t, d.Output, "[generation failed for part 1]")
	assert.Contains(t, d.Output, "[generation failed for part 2]")
}

func TestRunAttachesPerplexity(t *testing.T) {
	a, err := New(context.Background(), testConfig(), WithScorer(fakeScorer{score: 5.0}))
	require.NoError(t, err)

	d, err := a.RunWithDiagnostics(context.Background(), "expand", proseSample)
	require.NoError(t, err)

	require.NotNil(t, d.Metrics)
	require.NotNil(t, d.Metrics.Perplexity)
	assert.InDelta(t, 5.0, *d.Metrics.Perplexity, 1e-9)
}

func TestRunSelfCheckDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.EnableSelfCheck = false
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)

	d, err := a.RunWithDiagnostics(context.Background(), "expand", proseSample)
	require.NoError(t, err)
	assert.Nil(t, d.Metrics)
}

func TestRunReturnsOutputOnly(t *testing.T) {
	a, err := New(context.Background(), testConfig())
	require.NoError(t, err)

	out, err := a.Run(context.Background(), "expand", proseSample)
	require.NoError(t, err)
	assert.Contains(t, out, "[Part 1]")
}
