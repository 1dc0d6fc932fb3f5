package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"longform/internal/classifier"
)

const testBoundary = "。！？.!?"

func TestFallbackExactWindows(t *testing.T) {
	text := strings.Repeat("abcde", 10) // 50 chars, no punctuation
	chunks := Fallback(text, 20, testBoundary, classifier.Prose)

	require.Len(t, chunks, 3)
	assert.Equal(t, 20, utf8.RuneCountInString(chunks[0].Text))
	assert.Equal(t, 20, utf8.RuneCountInString(chunks[1].Text))
	assert.Equal(t, 10, utf8.RuneCountInString(chunks[2].Text))
	require.NoError(t, VerifyCoverage(text, chunks))
}

func TestFallbackPrefersBoundary(t *testing.T) {
	text := "One sentence. Two sentence. Three."
	chunks := Fallback(text, 20, testBoundary, classifier.Prose)

	require.Len(t, chunks, 3)
	assert.Equal(t, "One sentence.", chunks[0].Text)
	assert.Equal(t, " Two sentence.", chunks[1].Text)
	assert.Equal(t, " Three.", chunks[2].Text)
}

func TestFallbackUnicodeBoundaries(t *testing.T) {
	text := "你好。世界很大。再见。"
	chunks := Fallback(text, 5, testBoundary, classifier.Prose)

	require.Len(t, chunks, 3)
	assert.Equal(t, "你好。", chunks[0].Text)
	assert.Equal(t, "世界很大。", chunks[1].Text)
	assert.Equal(t, "再见。", chunks[2].Text)
	require.NoError(t, VerifyCoverage(text, chunks))
}

func TestFallbackCoversInput(t *testing.T) {
	inputs := []string{
		"plain ascii text with no punctuation at all just words",
		"Mixed. 标点与 ASCII 混排的文本。Short! Tail without end",
		strings.Repeat("长句子没有标点", 13),
	}
	for _, text := range inputs {
		for _, max := range []int{7, 10, 31} {
			chunks := Fallback(text, max, testBoundary, classifier.Prose)
			require.NoError(t, VerifyCoverage(text, chunks), "max=%d", max)

			var rebuilt strings.Builder
			for _, c := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), max)
				rebuilt.WriteString(c.Core())
			}
			assert.Equal(t, text, rebuilt.String())
		}
	}
}

func TestPartitionAt(t *testing.T) {
	spans := partitionAt(10, []int{4, 0, 4, 99, 7})
	assert.Equal(t, []span{{0, 4}, {4, 7}, {7, 10}}, spans)

	assert.Equal(t, []span{{0, 10}}, partitionAt(10, nil))
	assert.Nil(t, partitionAt(0, []int{1}))
}

func TestVerifyCoverageRejectsTampering(t *testing.T) {
	text := "abcdefghij"
	chunks := Fallback(text, 4, testBoundary, classifier.Prose)
	require.NoError(t, VerifyCoverage(text, chunks))

	broken := make([]Chunk, len(chunks))
	copy(broken, chunks)
	broken[1].Text = "XXXX"
	err := VerifyCoverage(text, broken)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCoverage)

	gap := []Chunk{chunks[0]}
	err = VerifyCoverage(text, gap)
	assert.ErrorIs(t, err, ErrCoverage)
}

func TestExpandOverlap(t *testing.T) {
	text := "aaaabbbbcc"
	chunks := []Chunk{
		{Index: 0, Text: "aaaa", Start: 0, End: 4, Kind: classifier.Prose},
		{Index: 1, Text: "bbbb", Start: 4, End: 8, Kind: classifier.Prose},
		{Index: 2, Text: "cc", Start: 8, End: 10, Kind: classifier.Prose},
	}

	out := ExpandOverlap(text, chunks, 2)
	require.Len(t, out, 3)
	assert.Equal(t, "aaaabb", out[0].Text)
	assert.Equal(t, "aabbbbcc", out[1].Text)
	assert.Equal(t, "bbcc", out[2].Text)

	for i, c := range out {
		assert.Equal(t, chunks[i].Text, c.Core(), "core must survive expansion")
	}
	require.NoError(t, VerifyCoverage(text, out))
}

func TestExpandOverlapClampsToNeighbour(t *testing.T) {
	text := "abXYZ"
	chunks := []Chunk{
		{Index: 0, Text: "ab", Start: 0, End: 2, Kind: classifier.Prose},
		{Index: 1, Text: "XYZ", Start: 2, End: 5, Kind: classifier.Prose},
	}

	out := ExpandOverlap(text, chunks, 100)
	assert.Equal(t, "abXYZ", out[0].Text)
	assert.Equal(t, "abXYZ", out[1].Text)
	require.NoError(t, VerifyCoverage(text, out))
}

func TestExpandOverlapUnicodeWidths(t *testing.T) {
	text := "一二三四五六"
	chunks := []Chunk{
		{Index: 0, Text: "一二三", Start: 0, End: 9, Kind: classifier.Prose},
		{Index: 1, Text: "四五六", Start: 9, End: 18, Kind: classifier.Prose},
	}

	out := ExpandOverlap(text, chunks, 2)
	assert.Equal(t, "一二三四五", out[0].Text)
	assert.Equal(t, "二三四五六", out[1].Text)
	assert.Equal(t, 6, out[1].LeadOverlap)
	require.NoError(t, VerifyCoverage(text, out))
}
