package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"longform/internal/agent"
	"longform/internal/config"
	"longform/internal/generator"
	"longform/internal/llm"
	"longform/internal/runlog"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	rootCmd = &cobra.Command{
		Use:   "longform",
		Short: "Adaptive long-text generation agent",
		Long: `longform turns an instruction and an arbitrary block of context text
into a single long-form output. Input is classified as code or prose,
split into bounded overlap-aware chunks, compressed into a generation
plan, and generated part by part with bounded retries.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zcfg := zap.NewProductionConfig()
			if verbose {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = zcfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	cfgPath string
	dbPath  string
	verbose bool
	logger  *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "longform.db", "Path to the run history database (SQLite)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	runCmd.Flags().StringVarP(&instruction, "instruction", "i", "", "Task instruction driving the generation")
	runCmd.Flags().StringVar(&inputPath, "input", "", "Context text file ('-' or empty reads stdin)")
	runCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write output to this file instead of stdout")
	runCmd.Flags().BoolVar(&diagnostics, "diagnostics", false, "Emit full diagnostics JSON instead of plain output")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to list")

	keysCmd.AddCommand(keysSetCmd)
	keysCmd.AddCommand(keysShowCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(historyCmd)
}

var (
	instruction  string
	inputPath    string
	outPath      string
	diagnostics  bool
	historyLimit int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate long-form output from an instruction and context text",
	Run: func(cmd *cobra.Command, args []string) {
		if strings.TrimSpace(instruction) == "" {
			log.Fatalf("--instruction is required")
		}

		cfg, err := config.Load(cfgPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		text, err := readInput(inputPath)
		if err != nil {
			log.Fatalf("Failed to read input: %v", err)
		}

		ctx := context.Background()
		a, err := agent.New(ctx, cfg, agent.WithLogger(logger))
		if err != nil {
			log.Fatalf("Failed to build agent: %v", err)
		}
		defer a.Close()

		fmt.Printf("🚀 Generating with %d workers...\n", cfg.Workers)
		d, err := a.RunWithDiagnostics(ctx, instruction, text)
		if err != nil {
			log.Fatalf("Run failed: %v", err)
		}

		fmt.Printf("✅ Generated %d characters from %d chunks in %dms.\n",
			d.Stats.OutputLength, d.Stats.ChunkCount, d.Stats.ElapsedMS)
		if n := countFailed(d.Results); n > 0 {
			fmt.Printf("⚠️  %d plan entries failed, the output contains gap markers.\n", n)
		}

		if err := writeResult(outPath, d, diagnostics); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}

		recordRun(ctx, d)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(cfgPath); err == nil {
			log.Fatalf("%s already exists, refusing to overwrite", cfgPath)
		}
		if err := os.WriteFile(cfgPath, []byte(starterConfig), 0o644); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("✅ Wrote starter configuration to %s\n", cfgPath)
		fmt.Println("📝 Edit it, then try: longform run -i \"summarize this\" --input notes.txt")
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys in the local secrets file",
}

var keysSetCmd = &cobra.Command{
	Use:   "set NAME VALUE",
	Short: "Store an API key under the given environment variable name",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		path, err := llm.SecretsPath()
		if err != nil {
			log.Fatalf("Failed to locate secrets file: %v", err)
		}
		if err := llm.WriteSecret(path, args[0], args[1]); err != nil {
			log.Fatalf("Failed to store key: %v", err)
		}
		fmt.Printf("🔐 Stored %s in %s\n", args[0], path)
	},
}

var keysShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Resolve an API key from the environment or the secrets file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key, err := llm.ResolveAPIKey(args[0])
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(key)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the history database",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := runlog.Open(dbPath)
		if err != nil {
			log.Fatalf("Failed to open history database: %v", err)
		}
		defer store.Close()

		records, err := store.Recent(context.Background(), historyLimit)
		if err != nil {
			log.Fatalf("Failed to read history: %v", err)
		}
		if len(records) == 0 {
			fmt.Println("No runs recorded yet.")
			return
		}

		for _, r := range records {
			fmt.Printf("%s  %s\n", r.CreatedAt.Format(time.RFC3339), r.RunID)
			fmt.Printf("    instruction: %s\n", r.Instruction)
			fmt.Printf("    chunks=%d output=%d failed=%d elapsed=%dms\n",
				r.ChunkCount, r.OutputLength, r.FailedEntries, r.ElapsedMS)
			if r.Metrics != nil && r.Metrics.Perplexity != nil {
				fmt.Printf("    perplexity=%.3f\n", *r.Metrics.Perplexity)
			}
		}
	},
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func writeResult(path string, d *agent.Diagnostics, full bool) error {
	var payload []byte
	if full {
		var err error
		payload, err = json.MarshalIndent(d, "", "  ")
		if err != nil {
			return err
		}
		payload = append(payload, '\n')
	} else {
		payload = []byte(d.Output + "\n")
	}

	if path == "" {
		_, err := os.Stdout.Write(payload)
		return err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return err
	}
	fmt.Printf("💾 Wrote output to %s\n", path)
	return nil
}

func recordRun(ctx context.Context, d *agent.Diagnostics) {
	store, err := runlog.Open(dbPath)
	if err != nil {
		log.Printf("⚠️ Failed to open history database, run not recorded: %v", err)
		return
	}
	defer store.Close()

	rec := runlog.Record{
		RunID:         d.Stats.RunID,
		Instruction:   instruction,
		ChunkCount:    d.Stats.ChunkCount,
		OutputLength:  d.Stats.OutputLength,
		FailedEntries: countFailed(d.Results),
		ElapsedMS:     d.Stats.ElapsedMS,
		Metrics:       d.Metrics,
	}
	if err := store.Save(ctx, rec); err != nil {
		log.Printf("⚠️ Failed to record run: %v", err)
	}
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

const starterConfig = `# longform configuration
max_chunk_chars: 800
overlap_chars: 60
enable_overlap: true
boundary_chars: "。！？.!?"
summary_chars: 120
enable_self_check: true
workers: 4

# Structural chunking of code input. kind is "treesitter" (in-process)
# or "astgrep" (external sg binary on PATH).
matcher:
  enable: false
  kind: treesitter
  command: sg # only used by kind astgrep
  language: go
  patterns:
    - "(function_declaration) @unit"
    - "(method_declaration) @unit"

text_type:
  min_score: 3.0
  line_ratio_divisor: 4.0
  keyword_weight: 1.0
  symbol_weight: 0.5
  line_weight: 1.0
  keyword_pattern: '\b(func|def|class|return|import|var|const|package)\b'
  symbol_pattern: '[{}();=<>]'
  line_start_pattern: '^\s*(func|def|class|if|for|while|import|from)\b'
  call_like_pattern: '\w+\('
  comment_pattern: '^\s*(//|/\*)'

# Generation backend. Disabled means the deterministic placeholder.
# provider is "api" (any OpenAI-compatible endpoint) or "gemini".
llm:
  enable: false
  provider: api
  base_url: "https://api.example.com/v1"
  api_key_env: LONGFORM_API_KEY
  model: example-large
  timeout_seconds: 60
  max_retries: 2
  auth_type: bearer

# Optional perplexity self-check against a logprobs endpoint.
perplexity:
  enable: false
  endpoint: "https://api.example.com/v1/perplexity"
  text_field: text
  logprobs_field: logprobs
`
