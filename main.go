package main

import (
	"context"
	"fmt"
	"log"

	"longform/internal/agent"
	"longform/internal/config"
)

// Root demo: runs the full pipeline over the built-in sample text with
// the offline placeholder backend. No config file, no network, no keys.
func main() {
	cfg := demoConfig()

	ctx := context.Background()
	a, err := agent.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to build agent: %v", err)
	}
	defer a.Close()

	fmt.Println("🚀 Running the pipeline over the built-in sample...")
	d, err := a.RunWithDiagnostics(ctx, "Turn these field notes into a short guide", sampleText)
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	fmt.Printf("✅ %d chunks, %d plan entries, %d characters of output\n",
		d.Stats.ChunkCount, len(d.Plan), d.Stats.OutputLength)
	for _, e := range d.Plan {
		fmt.Printf("  - part %d: %s\n", e.Index+1, e.Summary)
	}
	if d.Metrics != nil {
		fmt.Printf("📊 unique_ratio=%.3f duplication_ratio=%.3f\n",
			d.Metrics.UniqueRatio, d.Metrics.DuplicationRatio)
	}

	fmt.Println("✨ Output:")
	fmt.Println(d.Output)
}

func demoConfig() *config.Config {
	return &config.Config{
		MaxChunkChars:   400,
		OverlapChars:    40,
		EnableOverlap:   true,
		BoundaryChars:   "。！？.!?",
		SummaryChars:    80,
		EnableSelfCheck: true,
		Workers:         4,
		TextType: config.TextTypeConfig{
			MinScore:         3,
			LineRatioDivisor: 4,
			KeywordWeight:    1,
			SymbolWeight:     0.5,
			LineWeight:       1,
			KeywordPattern:   `\b(func|def|class|return|import|var|const|package)\b`,
			SymbolPattern:    `[{}();=<>]`,
			LineStartPattern: `^\s*(func|def|class|if|for|while|import|from)\b`,
			CallLikePattern:  `\w+\(`,
			CommentPattern:   `^\s*(//|/\*)`,
		},
	}
}
