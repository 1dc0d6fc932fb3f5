// Package agent wires classification, chunking, planning, generation
// and self-check into a single run entry point.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"longform/internal/check"
	"longform/internal/chunker"
	"longform/internal/classifier"
	"longform/internal/config"
	"longform/internal/generator"
	"longform/internal/llm"
	"longform/internal/matcher"
	"longform/internal/planner"
)

// Stats summarizes one run.
type Stats struct {
	RunID              string  `json:"run_id"`
	ChunkCount         int     `json:"chunk_count"`
	AverageChunkLength float64 `json:"average_chunk_length"`
	OutputLength       int     `json:"output_length"`
	ElapsedMS          int64   `json:"elapsed_ms"`
}

// Diagnostics is the full run result. Loss is reserved for future
// scoring and always nil. Metrics is nil when self-check is disabled.
type Diagnostics struct {
	Output  string                  `json:"output"`
	Loss    *float64                `json:"loss"`
	Metrics *check.Metrics          `json:"metrics,omitempty"`
	Stats   Stats                   `json:"stats"`
	Plan    []planner.Entry         `json:"plan"`
	Results []generator.EntryResult `json:"results"`
}

// Agent owns the pipeline components for its lifetime. Each Run builds
// a fresh working set, so a single Agent is safe for concurrent runs.
type Agent struct {
	cfg       *config.Config
	logger    *zap.Logger
	segmenter *chunker.Segmenter
	gen       *generator.Generator
	checker   *check.Checker
	gemini    *llm.Gemini
}

// Option adjusts construction, mainly so tests can swap collaborators.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	matcher   matcher.Matcher
	completer llm.Completer
	scorer    check.Scorer
}

// WithLogger sets the logger shared by all components.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMatcher replaces the structural matcher built from configuration.
func WithMatcher(m matcher.Matcher) Option {
	return func(o *options) { o.matcher = m }
}

// WithCompleter replaces the generation completer built from
// configuration. The backend is reported as "api".
func WithCompleter(c llm.Completer) Option {
	return func(o *options) { o.completer = c }
}

// WithScorer replaces the perplexity scorer built from configuration.
func WithScorer(s check.Scorer) Option {
	return func(o *options) { o.scorer = s }
}

// New validates nothing itself; cfg must already have passed
// config.Load or Validate. The context is only used to construct
// provider clients.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Agent, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cls, err := classifier.New(cfg.TextType)
	if err != nil {
		return nil, fmt.Errorf("failed to build classifier: %w", err)
	}

	m := o.matcher
	if m == nil && cfg.Matcher.Enable {
		switch cfg.Matcher.Kind {
		case "treesitter":
			ts, err := matcher.NewTreeSitter(cfg.Matcher.Language, cfg.Matcher.Patterns)
			if err != nil {
				return nil, fmt.Errorf("failed to build structural matcher: %w", err)
			}
			m = ts
		default:
			m = matcher.NewAstGrep(cfg.Matcher.Command, cfg.Matcher.Language, cfg.Matcher.Patterns)
		}
	}

	a := &Agent{
		cfg:       cfg,
		logger:    logger,
		segmenter: chunker.NewSegmenter(cfg, cls, m, logger),
	}

	backend, apiClient, err := a.buildBackend(ctx, o.completer)
	if err != nil {
		return nil, err
	}

	trimChars := 0
	if cfg.EnableOverlap {
		trimChars = cfg.OverlapChars
	}
	a.gen = generator.New(backend, generator.Config{
		Workers:    cfg.Workers,
		MaxRetries: cfg.LLM.MaxRetries,
		TrimChars:  trimChars,
		Logger:     logger,
	})

	scorer := o.scorer
	if scorer == nil && cfg.Perplexity.Enable {
		if apiClient != nil {
			scorer = &llm.PerplexityScorer{Client: apiClient, Config: cfg.Perplexity}
		} else {
			logger.Warn("perplexity enabled but the configured provider exposes no logprobs endpoint")
		}
	}
	a.checker = check.New(scorer, logger)

	return a, nil
}

func (a *Agent) buildBackend(ctx context.Context, injected llm.Completer) (generator.Backend, *llm.Client, error) {
	if injected != nil {
		return generator.NewCompleterBackend("api", injected), nil, nil
	}
	if !a.cfg.LLM.Enable {
		return generator.NewPlaceholder(), nil, nil
	}
	switch a.cfg.LLM.Provider {
	case "gemini":
		g, err := llm.NewGemini(ctx, a.cfg.LLM)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build gemini backend: %w", err)
		}
		a.gemini = g
		return generator.NewCompleterBackend("gemini", g), nil, nil
	default:
		c := llm.NewClient(a.cfg.LLM)
		return generator.NewCompleterBackend("api", c), c, nil
	}
}

// Close releases provider clients owned by the agent.
func (a *Agent) Close() error {
	if a.gemini != nil {
		return a.gemini.Close()
	}
	return nil
}

// Run produces the assembled output for one instruction over one block
// of context text.
func (a *Agent) Run(ctx context.Context, instruction, contextText string) (string, error) {
	d, err := a.RunWithDiagnostics(ctx, instruction, contextText)
	if err != nil {
		return "", err
	}
	return d.Output, nil
}

// RunWithDiagnostics runs the full pipeline and returns the output
// together with the plan, per-entry results, stats and metrics. Failed
// entries are reported in Results, they do not fail the run. Empty
// context text yields an empty output, not an error.
func (a *Agent) RunWithDiagnostics(ctx context.Context, instruction, contextText string) (*Diagnostics, error) {
	if strings.TrimSpace(instruction) == "" {
		return nil, fmt.Errorf("instruction must not be empty")
	}

	start := time.Now()
	runID := uuid.NewString()

	chunks, err := a.segmenter.Segment(ctx, contextText)
	if err != nil {
		return nil, fmt.Errorf("segmentation failed: %w", err)
	}

	plan := planner.Build(chunks, a.cfg.SummaryChars)
	results := a.gen.Run(ctx, instruction, plan, chunks)
	output, dup := a.gen.Assemble(results)

	var metrics *check.Metrics
	if a.cfg.EnableSelfCheck {
		m := a.checker.Check(ctx, output, dup)
		metrics = &m
	}

	stats := Stats{
		RunID:              runID,
		ChunkCount:         len(chunks),
		AverageChunkLength: averageChunkLength(chunks),
		OutputLength:       utf8.RuneCountInString(output),
		ElapsedMS:          time.Since(start).Milliseconds(),
	}

	a.logger.Info("run complete",
		zap.String("run_id", runID),
		zap.Int("chunks", stats.ChunkCount),
		zap.Int("plan_entries", len(plan)),
		zap.Int("failed_entries", countFailed(results)),
		zap.Int("output_length", stats.OutputLength),
		zap.Int64("elapsed_ms", stats.ElapsedMS))

	return &Diagnostics{
		Output:  output,
		Metrics: metrics,
		Stats:   stats,
		Plan:    plan,
		Results: results,
	}, nil
}

func averageChunkLength(chunks []chunker.Chunk) float64 {
	if len(chunks) == 0 {
		return 0
	}
	total := 0
	for _, c := range chunks {
		total += utf8.RuneCountInString(c.Text)
	}
	return float64(total) / float64(len(chunks))
}

func countFailed(results []generator.EntryResult) int {
	n := 0
	for _, res := range results {
		if res.State != generator.StateSuccess {
			n++
		}
	}
	return n
}
