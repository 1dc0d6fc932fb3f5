package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"longform/internal/chunker"
	"longform/internal/llm"
	"longform/internal/planner"
)

// Entry outcome states. An entry either produced text or it did not;
// transient retry attempts are not surfaced as states of their own.
const (
	StateSuccess = "success"
	StateFailed  = "failed"
)

// EntryResult records the outcome of one plan entry.
type EntryResult struct {
	PlanIndex   int    `json:"plan_index"`
	Text        string `json:"text"`
	Backend     string `json:"backend"`
	RetriesUsed int    `json:"retries_used"`
	State       string `json:"state"`
	Err         string `json:"error,omitempty"`
}

// Config tunes the generation loop. Zero values fall back to safe
// defaults so tests can construct a Generator with only the fields
// they care about.
type Config struct {
	Workers    int
	MaxRetries int
	TrimChars  int
	Backoff    func(attempt int) time.Duration
	Logger     *zap.Logger
}

// Generator drives one backend call per plan entry, bounded by the
// configured retry budget, and assembles the results in plan order.
type Generator struct {
	backend    Backend
	workers    int
	maxRetries int
	trimChars  int
	backoff    func(attempt int) time.Duration
	logger     *zap.Logger
}

// New builds a Generator around the given backend.
func New(backend Backend, cfg Config) *Generator {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = defaultBackoff
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		backend:    backend,
		workers:    workers,
		maxRetries: cfg.MaxRetries,
		trimChars:  cfg.TrimChars,
		backoff:    backoff,
		logger:     logger,
	}
}

func defaultBackoff(attempt int) time.Duration {
	if attempt >= 3 {
		return 8 * time.Second
	}
	return time.Duration(1<<uint(attempt)) * time.Second
}

// Run generates text for every plan entry. Entries are independent, so
// up to Workers of them run concurrently; results land in their plan
// slot regardless of completion order. A failed entry never aborts the
// run, it is recorded and the remaining entries continue.
func (g *Generator) Run(ctx context.Context, instruction string, plan []planner.Entry, chunks []chunker.Chunk) []EntryResult {
	results := make([]EntryResult, len(plan))
	if len(plan) == 0 {
		return results
	}
	outline := buildOutline(plan)

	var eg errgroup.Group
	eg.SetLimit(g.workers)
	for i := range plan {
		entry := plan[i]
		slot := &results[i]
		eg.Go(func() error {
			*slot = g.generateEntry(ctx, Request{
				PlanIndex:   entry.Index,
				Instruction: instruction,
				Outline:     outline,
				Summary:     entry.Summary,
				ChunkText:   gatherChunkText(entry, chunks),
			})
			return nil
		})
	}
	eg.Wait()
	return results
}

func (g *Generator) generateEntry(ctx context.Context, req Request) EntryResult {
	res := EntryResult{
		PlanIndex: req.PlanIndex,
		Backend:   g.backend.Name(),
		State:     StateFailed,
	}
	if ctx.Err() != nil {
		res.Err = "cancelled before generation started"
		return res
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, g.backoff(attempt-1)); err != nil {
				res.RetriesUsed = attempt - 1
				res.Err = "cancelled while backing off"
				return res
			}
		}
		res.RetriesUsed = attempt

		text, err := g.backend.Generate(ctx, req)
		if err == nil {
			res.Text = text
			res.State = StateSuccess
			return res
		}
		lastErr = err
		g.logger.Warn("generation attempt failed",
			zap.Int("plan_index", req.PlanIndex),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}
	if lastErr != nil {
		res.Err = lastErr.Error()
	}
	return res
}

// retryable reports whether a failed attempt is worth repeating.
// Transport failures are, malformed responses are not.
func retryable(err error) bool {
	var terr *llm.TransportError
	return errors.As(err, &terr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func buildOutline(plan []planner.Entry) string {
	var b strings.Builder
	for _, e := range plan {
		fmt.Fprintf(&b, "- part %d: %s\n", e.Index+1, e.Summary)
	}
	return b.String()
}

func gatherChunkText(entry planner.Entry, chunks []chunker.Chunk) string {
	parts := make([]string, 0, len(entry.ChunkIndices))
	for _, ci := range entry.ChunkIndices {
		if ci >= 0 && ci < len(chunks) {
			parts = append(parts, chunks[ci].Text)
		}
	}
	return strings.Join(parts, "\n")
}
