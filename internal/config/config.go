package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration. Every field must be set
// explicitly in the YAML file (or by a LONGFORM_* environment variable);
// Validate rejects anything missing rather than guessing a default.
type Config struct {
	MaxChunkChars   int    `yaml:"max_chunk_chars"`
	OverlapChars    int    `yaml:"overlap_chars"`
	EnableOverlap   bool   `yaml:"enable_overlap"`
	BoundaryChars   string `yaml:"boundary_chars"` // sentence punctuation used for fallback cuts
	SummaryChars    int    `yaml:"summary_chars"`
	EnableSelfCheck bool   `yaml:"enable_self_check"`
	Workers         int    `yaml:"workers"`

	Matcher    MatcherConfig    `yaml:"matcher"`
	TextType   TextTypeConfig   `yaml:"text_type"`
	LLM        LLMConfig        `yaml:"llm"`
	Perplexity PerplexityConfig `yaml:"perplexity"`
}

// MatcherConfig selects the structural matcher used for code input.
type MatcherConfig struct {
	Enable   bool     `yaml:"enable"`
	Kind     string   `yaml:"kind"` // "astgrep" or "treesitter"
	Command  string   `yaml:"command"`
	Language string   `yaml:"language"`
	Patterns []string `yaml:"patterns"`
}

// TextTypeConfig drives the code/prose classifier. Patterns are Go regexps
// applied per line; weights scale each signal's vote.
type TextTypeConfig struct {
	MinScore         float64 `yaml:"min_score"`
	LineRatioDivisor float64 `yaml:"line_ratio_divisor"`
	KeywordWeight    float64 `yaml:"keyword_weight"`
	SymbolWeight     float64 `yaml:"symbol_weight"`
	LineWeight       float64 `yaml:"line_weight"`
	KeywordPattern   string  `yaml:"keyword_pattern"`
	SymbolPattern    string  `yaml:"symbol_pattern"`
	LineStartPattern string  `yaml:"line_start_pattern"`
	CallLikePattern  string  `yaml:"call_like_pattern"`
	CommentPattern   string  `yaml:"comment_pattern"`
}

type LLMConfig struct {
	Enable         bool   `yaml:"enable"`
	Provider       string `yaml:"provider"` // "api" or "gemini"
	BaseURL        string `yaml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
	GeneratePath   string `yaml:"generate_path"` // optional, overrides URL inference
	AuthType       string `yaml:"auth_type"`     // "bearer" or a literal header name
}

type PerplexityConfig struct {
	Enable        bool   `yaml:"enable"`
	Endpoint      string `yaml:"endpoint"`
	TextField     string `yaml:"text_field"`
	LogprobsField string `yaml:"logprobs_field"`
}

// Load reads the YAML file at path, applies LONGFORM_* environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	// .env is optional, real environment still wins
	_ = godotenv.Load()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every required field and names the offending one in the
// returned error. It never fills in defaults.
func (c *Config) Validate() error {
	if c.MaxChunkChars <= 0 {
		return fmt.Errorf("config: max_chunk_chars must be > 0 (got %d)", c.MaxChunkChars)
	}
	if c.OverlapChars < 0 {
		return fmt.Errorf("config: overlap_chars must be >= 0 (got %d)", c.OverlapChars)
	}
	if c.OverlapChars >= c.MaxChunkChars {
		return fmt.Errorf("config: overlap_chars (%d) must be smaller than max_chunk_chars (%d)", c.OverlapChars, c.MaxChunkChars)
	}
	if c.BoundaryChars == "" {
		return fmt.Errorf("config: boundary_chars must not be empty")
	}
	if c.SummaryChars <= 0 {
		return fmt.Errorf("config: summary_chars must be > 0 (got %d)", c.SummaryChars)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: workers must be > 0 (got %d)", c.Workers)
	}

	if c.Matcher.Enable {
		switch c.Matcher.Kind {
		case "astgrep":
			if c.Matcher.Command == "" {
				return fmt.Errorf("config: matcher.command must be set when matcher.kind is astgrep")
			}
		case "treesitter":
		default:
			return fmt.Errorf("config: matcher.kind must be astgrep or treesitter (got %q)", c.Matcher.Kind)
		}
		if c.Matcher.Language == "" {
			return fmt.Errorf("config: matcher.language must be set when matcher is enabled")
		}
		if len(c.Matcher.Patterns) == 0 {
			return fmt.Errorf("config: matcher.patterns must not be empty when matcher is enabled")
		}
	}

	if c.TextType.MinScore <= 0 {
		return fmt.Errorf("config: text_type.min_score must be > 0 (got %v)", c.TextType.MinScore)
	}
	if c.TextType.LineRatioDivisor <= 0 {
		return fmt.Errorf("config: text_type.line_ratio_divisor must be > 0 (got %v)", c.TextType.LineRatioDivisor)
	}
	for name, w := range map[string]float64{
		"text_type.keyword_weight": c.TextType.KeywordWeight,
		"text_type.symbol_weight":  c.TextType.SymbolWeight,
		"text_type.line_weight":    c.TextType.LineWeight,
	} {
		if w <= 0 {
			return fmt.Errorf("config: %s must be > 0 (got %v)", name, w)
		}
	}
	for name, pat := range map[string]string{
		"text_type.keyword_pattern":    c.TextType.KeywordPattern,
		"text_type.symbol_pattern":     c.TextType.SymbolPattern,
		"text_type.line_start_pattern": c.TextType.LineStartPattern,
		"text_type.call_like_pattern":  c.TextType.CallLikePattern,
		"text_type.comment_pattern":    c.TextType.CommentPattern,
	} {
		if pat == "" {
			return fmt.Errorf("config: %s must not be empty", name)
		}
		if _, err := regexp.Compile(pat); err != nil {
			return fmt.Errorf("config: %s is not a valid regexp: %w", name, err)
		}
	}

	if c.LLM.Enable {
		switch c.LLM.Provider {
		case "api":
			if c.LLM.BaseURL == "" {
				return fmt.Errorf("config: llm.base_url must be set when llm.provider is api")
			}
			if c.LLM.AuthType == "" {
				return fmt.Errorf("config: llm.auth_type must be set when llm.provider is api")
			}
		case "gemini":
		default:
			return fmt.Errorf("config: llm.provider must be api or gemini (got %q)", c.LLM.Provider)
		}
		if c.LLM.APIKeyEnv == "" {
			return fmt.Errorf("config: llm.api_key_env must be set when llm is enabled")
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("config: llm.model must be set when llm is enabled")
		}
		if c.LLM.TimeoutSeconds <= 0 {
			return fmt.Errorf("config: llm.timeout_seconds must be > 0 (got %d)", c.LLM.TimeoutSeconds)
		}
		if c.LLM.MaxRetries < 0 {
			return fmt.Errorf("config: llm.max_retries must be >= 0 (got %d)", c.LLM.MaxRetries)
		}
	}

	if c.Perplexity.Enable {
		if !c.LLM.Enable {
			return fmt.Errorf("config: perplexity.enable requires llm.enable")
		}
		if c.Perplexity.Endpoint == "" {
			return fmt.Errorf("config: perplexity.endpoint must be set when perplexity is enabled")
		}
		if c.Perplexity.TextField == "" {
			return fmt.Errorf("config: perplexity.text_field must be set when perplexity is enabled")
		}
		if c.Perplexity.LogprobsField == "" {
			return fmt.Errorf("config: perplexity.logprobs_field must be set when perplexity is enabled")
		}
	}

	return nil
}
