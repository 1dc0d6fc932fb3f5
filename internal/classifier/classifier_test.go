package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"longform/internal/config"
)

func testConfig() config.TextTypeConfig {
	return config.TextTypeConfig{
		MinScore:         3,
		LineRatioDivisor: 4,
		KeywordWeight:    1,
		SymbolWeight:     0.5,
		LineWeight:       1,
		KeywordPattern:   `\b(func|def|class|return|import|var|const)\b`,
		SymbolPattern:    `[{}();=<>]`,
		LineStartPattern: `^(func|def|class|if|for|while|var|const)\b`,
		CallLikePattern:  `\w+\(`,
		CommentPattern:   `^(//|#|/\*)`,
	}
}

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(testConfig())
	require.NoError(t, err)
	return c
}

func TestClassifyCode(t *testing.T) {
	c := newTestClassifier(t)

	code := `func add(a, b int) int {
	// sum of both
	return a + b
}

func main() {
	fmt.Println(add(1, 2))
}`
	assert.Equal(t, Code, c.Classify(code))
}

func TestClassifyProse(t *testing.T) {
	c := newTestClassifier(t)

	prose := `The committee met on Tuesday to review the yearly budget.
Attendance was higher than in previous sessions.
Most questions concerned travel reimbursements and hiring plans.`
	assert.Equal(t, Prose, c.Classify(prose))
}

func TestClassifyEmptyIsProse(t *testing.T) {
	c := newTestClassifier(t)
	assert.Equal(t, Prose, c.Classify(""))
}

func TestThresholdScalesWithLineCount(t *testing.T) {
	cfg := testConfig()
	cfg.MinScore = 0
	c, err := New(cfg)
	require.NoError(t, err)

	// 8 lines, divisor 4: threshold floor(8/4) = 2
	text := "one\ntwo\nthree\nfour\nfive\nsix\nseven\neight"
	_, threshold, ok := c.Score(text)
	require.True(t, ok)
	assert.Equal(t, 2.0, threshold)
}

func TestScoreCountsLineVotes(t *testing.T) {
	c := newTestClassifier(t)

	// one line matching both line-start and call-like patterns votes twice
	score, _, ok := c.Score("while(done)")
	require.True(t, ok)
	// symbols "()" (2*0.5) + line votes (2)
	assert.Equal(t, 3.0, score)
}

func TestNewRejectsBadPattern(t *testing.T) {
	cfg := testConfig()
	cfg.SymbolPattern = "["
	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol_pattern")
}
