package check

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"longform/internal/generator"
	"longform/internal/llm"
)

type fakeScorer struct {
	score float64
	err   error
	calls int
}

func (f *fakeScorer) Score(_ context.Context, _ string) (float64, error) {
	f.calls++
	return f.score, f.err
}

func TestCheckBasicMetrics(t *testing.T) {
	c := New(nil, nil)
	m := c.Check(context.Background(), "aabb", generator.Duplication{TrimmedPairs: 1, AdjacentPairs: 2})

	assert.Equal(t, 4, m.OutputLength)
	assert.InDelta(t, 0.5, m.UniqueRatio, 1e-9)
	assert.InDelta(t, 0.5, m.DuplicationRatio, 1e-9)
	assert.Nil(t, m.Perplexity)
}

func TestCheckCountsRunes(t *testing.T) {
	c := New(nil, nil)
	m := c.Check(context.Background(), "一二三一", generator.Duplication{})

	assert.Equal(t, 4, m.OutputLength)
	assert.InDelta(t, 0.75, m.UniqueRatio, 1e-9)
	assert.InDelta(t, 0.0, m.DuplicationRatio, 1e-9)
}

func TestCheckEmptyOutput(t *testing.T) {
	fs := &fakeScorer{score: 3.0}
	c := New(fs, nil)
	m := c.Check(context.Background(), "", generator.Duplication{})

	assert.Equal(t, 0, m.OutputLength)
	assert.InDelta(t, 0.0, m.UniqueRatio, 1e-9)
	assert.Nil(t, m.Perplexity)
	assert.Equal(t, 0, fs.calls)
}

func TestCheckAttachesPerplexity(t *testing.T) {
	fs := &fakeScorer{score: 7.4}
	c := New(fs, nil)
	m := c.Check(context.Background(), "some output", generator.Duplication{})

	require.NotNil(t, m.Perplexity)
	assert.InDelta(t, 7.4, *m.Perplexity, 1e-9)
	assert.Equal(t, 1, fs.calls)
}

func TestCheckOmitsUnavailablePerplexity(t *testing.T) {
	fs := &fakeScorer{err: fmt.Errorf("%w: field \"logprobs\" is empty or missing", llm.ErrPerplexityUnavailable)}
	c := New(fs, nil)
	m := c.Check(context.Background(), "some output", generator.Duplication{})

	assert.Nil(t, m.Perplexity)
	assert.Equal(t, 11, m.OutputLength)
}
