package generator

import (
	"context"
	"fmt"
	"strings"

	"longform/internal/llm"
)

// Request carries everything a backend needs to produce one part of the
// final output.
type Request struct {
	PlanIndex   int
	Instruction string
	Outline     string
	Summary     string
	ChunkText   string
}

// Backend produces the text for a single plan entry.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Placeholder is the offline backend. It synthesizes deterministic text
// from the request fields and never fails, so runs work end to end
// without any external endpoint.
type Placeholder struct{}

// NewPlaceholder returns the offline backend.
func NewPlaceholder() Placeholder {
	return Placeholder{}
}

func (Placeholder) Name() string {
	return "placeholder"
}

func (Placeholder) Generate(_ context.Context, req Request) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "[Part %d]\n", req.PlanIndex+1)
	fmt.Fprintf(&b, "Instruction: %s\n", req.Instruction)
	fmt.Fprintf(&b, "Summary: %s\n", req.Summary)
	fmt.Fprintf(&b, "Content: %s\n", req.ChunkText)
	return b.String(), nil
}

// CompleterBackend adapts an llm.Completer into a generation backend.
type CompleterBackend struct {
	name      string
	completer llm.Completer
}

// NewCompleterBackend wraps completer under the given backend name.
func NewCompleterBackend(name string, completer llm.Completer) *CompleterBackend {
	return &CompleterBackend{name: name, completer: completer}
}

func (b *CompleterBackend) Name() string {
	return b.name
}

func (b *CompleterBackend) Generate(ctx context.Context, req Request) (string, error) {
	return b.completer.Complete(ctx, buildPrompt(req))
}

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Task instruction:\n")
	b.WriteString(req.Instruction)
	b.WriteString("\n\nOutline:\n")
	b.WriteString(req.Outline)
	fmt.Fprintf(&b, "\nWrite part %d in full, based on this source material:\n", req.PlanIndex+1)
	b.WriteString(req.ChunkText)
	return b.String()
}
